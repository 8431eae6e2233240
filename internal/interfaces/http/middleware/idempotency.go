package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/dinarbooks/backend/internal/domain/shared"
	"github.com/dinarbooks/backend/internal/infrastructure/logger"
	"github.com/dinarbooks/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	// IdempotencyKeyHeader carries the client-chosen key of a write
	IdempotencyKeyHeader = "Idempotency-Key"
	// IdempotencyReplayedHeader marks a response served from the store
	IdempotencyReplayedHeader = "Idempotency-Replayed"

	maxIdempotencyKeyLength = 255
)

// IdempotencyConfig configures the Idempotency middleware
type IdempotencyConfig struct {
	Store  shared.IdempotencyStore
	TTL    time.Duration
	Logger *zap.Logger
}

type bodyCaptureWriter struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *bodyCaptureWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyCaptureWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Idempotency replays the stored response when a write repeats an
// Idempotency-Key within the TTL. The first request reserves the key; a
// repeat arriving while it is still running gets 409, and a repeat whose body
// differs from the stored one gets 422. Responses with a 5xx status are not
// stored and release the key so the client can retry. Requests without the
// header pass through.
func Idempotency(cfg IdempotencyConfig) gin.HandlerFunc {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.TTL <= 0 {
		cfg.TTL = shared.DefaultIdempotencyConfig().TTL
	}

	return func(c *gin.Context) {
		clientKey := c.GetHeader(IdempotencyKeyHeader)
		if clientKey == "" || !isWriteMethod(c.Request.Method) || cfg.Store == nil {
			c.Next()
			return
		}
		if len(clientKey) > maxIdempotencyKeyLength {
			abortWithError(c, http.StatusBadRequest, dto.ErrCodeInvalidInput, "Idempotency-Key must be at most 255 characters")
			return
		}

		ctx := c.Request.Context()
		log := logger.FromContextOr(ctx, cfg.Logger)
		key := scopedKey(ctx, c.Request.Method, c.Request.URL.Path, clientKey)

		requestHash, err := hashRequestBody(c.Request)
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				abortWithError(c, http.StatusRequestEntityTooLarge, dto.ErrCodeRequestTooLarge, "Request body too large")
				return
			}
			abortWithError(c, http.StatusBadRequest, dto.ErrCodeBadRequest, "Could not read the request body")
			return
		}

		reserved, err := cfg.Store.Reserve(ctx, key, cfg.TTL)
		if err != nil {
			log.Warn("idempotency store unavailable, processing without replay protection", zap.Error(err))
			c.Next()
			return
		}

		if !reserved {
			stored, err := cfg.Store.Lookup(ctx, key)
			if err != nil {
				log.Error("idempotency lookup failed", zap.Error(err))
				abortWithError(c, http.StatusServiceUnavailable, dto.ErrCodeUnavailable, "Could not check the idempotency key")
				return
			}
			if stored == nil {
				abortWithError(c, http.StatusConflict, dto.ErrCodeIdempotencyPending,
					"A request with this Idempotency-Key is still being processed")
				return
			}
			if stored.RequestHash != "" && stored.RequestHash != requestHash {
				log.Warn("idempotency key reused with a different body", zap.String("idempotency_key", clientKey))
				abortWithError(c, http.StatusUnprocessableEntity, dto.ErrCodeIdempotencyKeyReused,
					"Idempotency-Key was already used with a different request body")
				return
			}
			log.Info("replaying stored response", zap.String("idempotency_key", clientKey), zap.Int("status", stored.StatusCode))
			c.Header(IdempotencyReplayedHeader, "true")
			c.Data(stored.StatusCode, stored.ContentType, stored.Body)
			c.Abort()
			return
		}

		writer := &bodyCaptureWriter{ResponseWriter: c.Writer}
		c.Writer = writer
		c.Next()

		// The request context may already be cancelled once the handler returns
		storeCtx := context.WithoutCancel(ctx)
		status := writer.Status()
		if status >= http.StatusInternalServerError {
			if err := cfg.Store.Release(storeCtx, key); err != nil {
				log.Warn("failed to release idempotency key", zap.Error(err))
			}
			return
		}

		resp := shared.StoredResponse{
			StatusCode:  status,
			ContentType: writer.Header().Get("Content-Type"),
			Body:        writer.body.Bytes(),
			RequestHash: requestHash,
		}
		if err := cfg.Store.Complete(storeCtx, key, resp, cfg.TTL); err != nil {
			log.Warn("failed to store idempotent response", zap.Error(err))
		}
	}
}

// hashRequestBody returns the hex SHA-256 of the body and puts the body back
// for the handler
func hashRequestBody(req *http.Request) (string, error) {
	if req.Body == nil {
		return hex.EncodeToString(sha256.New().Sum(nil)), nil
	}
	raw, err := io.ReadAll(req.Body)
	_ = req.Body.Close()
	if err != nil {
		return "", err
	}
	req.Body = io.NopCloser(bytes.NewReader(raw))
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}

func isWriteMethod(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	default:
		return false
	}
}

// scopedKey binds the client key to the route and caller so two endpoints
// sharing a key never replay each other's responses
func scopedKey(ctx context.Context, method, path, clientKey string) string {
	subject := logger.Subject(ctx)
	if subject == "" {
		subject = "anonymous"
	}
	return subject + "|" + method + " " + path + "|" + clientKey
}
