package handler

import (
	"net/http"

	backupapp "github.com/dinarbooks/backend/internal/application/backup"
	"github.com/gin-gonic/gin"
)

// BackupHandler creates, downloads and restores database archives
type BackupHandler struct {
	BaseHandler
	backups *backupapp.Service
}

// NewBackupHandler creates a new BackupHandler
func NewBackupHandler(backups *backupapp.Service) *BackupHandler {
	return &BackupHandler{backups: backups}
}

// CreateBackupRequest optionally names the archive
type CreateBackupRequest struct {
	Name string `json:"name" binding:"omitempty,max=100" example:"before_stocktake"`
}

// Create godoc
// @ID           createBackup
// @Summary      Create a backup
// @Description  Dumps every table into a zip archive. The name defaults to backup_YYYYMMDD_HHMMSS.
// @Tags         backups
// @Accept       json
// @Produce      json
// @Param        request body CreateBackupRequest false "Backup name"
// @Success      201 {object} dto.Response{data=backupapp.Info}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /backups [post]
func (h *BackupHandler) Create(c *gin.Context) {
	var req CreateBackupRequest
	if c.Request.ContentLength > 0 && !h.bindJSON(c, &req) {
		return
	}
	info, err := h.backups.Create(c.Request.Context(), req.Name)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, info)
}

// List godoc
// @ID           listBackups
// @Summary      List backups
// @Description  Readable archives, newest first
// @Tags         backups
// @Produce      json
// @Success      200 {object} dto.Response{data=[]backupapp.Info}
// @Security     BearerAuth
// @Router       /backups [get]
func (h *BackupHandler) List(c *gin.Context) {
	backups, err := h.backups.List(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, backups)
}

// Download godoc
// @ID           downloadBackup
// @Summary      Download a backup
// @Tags         backups
// @Produce      application/zip
// @Param        name path string true "Backup name"
// @Success      200 {file} file
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /backups/{name} [get]
func (h *BackupHandler) Download(c *gin.Context) {
	name := c.Param("name")
	body, err := h.backups.Open(c.Request.Context(), name)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	defer body.Close()
	c.DataFromReader(http.StatusOK, -1, "application/zip", body, map[string]string{
		"Content-Disposition": `attachment; filename="` + name + `.zip"`,
	})
}

// Restore godoc
// @ID           restoreBackup
// @Summary      Restore a backup
// @Description  Replaces the content of every table with the archive's rows
// @Tags         backups
// @Produce      json
// @Param        name path string true "Backup name"
// @Success      200 {object} dto.Response{data=backupapp.Info}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /backups/{name}/restore [post]
func (h *BackupHandler) Restore(c *gin.Context) {
	info, err := h.backups.Restore(c.Request.Context(), c.Param("name"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, info)
}

// Delete godoc
// @ID           deleteBackup
// @Summary      Delete a backup
// @Tags         backups
// @Param        name path string true "Backup name"
// @Success      204
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /backups/{name} [delete]
func (h *BackupHandler) Delete(c *gin.Context) {
	if err := h.backups.Delete(c.Request.Context(), c.Param("name")); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
