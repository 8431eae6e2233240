// Package backup creates, lists and restores whole-database snapshots and
// prunes old ones on a retention schedule.
package backup

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/dinarbooks/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// FormatVersion is written into every archive; restore refuses other versions
const FormatVersion = "1"

const archiveExt = ".zip"

var namePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]{0,99}$`)

// Manifest describes the content of one archive
type Manifest struct {
	FormatVersion string           `json:"format_version"`
	CreatedAt     time.Time        `json:"created_at"`
	Database      string           `json:"database"`
	Tables        map[string]int64 `json:"tables"`
}

// Snapshotter writes the database into an archive and reads it back
type Snapshotter interface {
	Dump(ctx context.Context, w io.Writer, m Manifest) (*Manifest, error)
	Inspect(r io.ReaderAt, size int64) (*Manifest, error)
	Restore(ctx context.Context, r io.ReaderAt, size int64) (*Manifest, error)
}

// StoredObject is one archive as the object store sees it
type StoredObject struct {
	Key        string
	Size       int64
	ModifiedAt time.Time
}

// ObjectStore keeps archives. Get and Delete return a not-found DomainError for
// unknown keys.
type ObjectStore interface {
	Put(ctx context.Context, key string, body io.Reader, size int64) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Exists(ctx context.Context, key string) (bool, error)
	List(ctx context.Context) ([]StoredObject, error)
	Delete(ctx context.Context, key string) error
}

// Info is an archive as reported to API callers
type Info struct {
	Name      string           `json:"name"`
	Size      int64            `json:"size"`
	CreatedAt time.Time        `json:"created_at"`
	Version   string           `json:"version"`
	Database  string           `json:"database"`
	Tables    map[string]int64 `json:"tables,omitempty"`
}

// Service manages database archives
type Service struct {
	snapshots Snapshotter
	store     ObjectStore
	database  string
	logger    *zap.Logger
	now       func() time.Time
}

// NewService creates a backup service for the named database
func NewService(snapshots Snapshotter, store ObjectStore, database string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		snapshots: snapshots,
		store:     store,
		database:  database,
		logger:    logger,
		now:       time.Now,
	}
}

// WithClock replaces the time source
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// DefaultName is backup_YYYYMMDD_HHMMSS of the given instant
func DefaultName(at time.Time) string {
	return "backup_" + at.Format("20060102_150405")
}

func validateName(name string) error {
	if !namePattern.MatchString(name) {
		return shared.NewValidationError(shared.CodeInvalidInput,
			"backup name %q must be 1-100 letters, digits, '-' or '_'", name).WithDetail("field", "name")
	}
	return nil
}

// Create dumps the database into a new archive. An empty name uses DefaultName.
func (s *Service) Create(ctx context.Context, name string) (*Info, error) {
	now := s.now()
	if name == "" {
		name = DefaultName(now)
	}
	if err := validateName(name); err != nil {
		return nil, err
	}
	key := name + archiveExt
	exists, err := s.store.Exists(ctx, key)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewConflictError(shared.CodeAlreadyExists, "backup %s already exists", name)
	}

	var buf bytes.Buffer
	manifest, err := s.snapshots.Dump(ctx, &buf, Manifest{
		FormatVersion: FormatVersion,
		CreatedAt:     now.UTC(),
		Database:      s.database,
	})
	if err != nil {
		return nil, fmt.Errorf("backup %s: dump failed: %w", name, err)
	}
	size := int64(buf.Len())
	if err := s.store.Put(ctx, key, bytes.NewReader(buf.Bytes()), size); err != nil {
		return nil, fmt.Errorf("backup %s: upload failed: %w", name, err)
	}

	s.logger.Info("Backup created",
		zap.String("name", name),
		zap.Int64("size", size),
		zap.Any("tables", manifest.Tables),
	)
	return infoOf(name, size, manifest), nil
}

// List returns every readable archive, newest first. Objects that are not
// archives of this format are skipped.
func (s *Service) List(ctx context.Context) ([]Info, error) {
	objects, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Info, 0, len(objects))
	for _, obj := range objects {
		name, ok := strings.CutSuffix(obj.Key, archiveExt)
		if !ok || validateName(name) != nil {
			continue
		}
		manifest, _, err := s.load(ctx, obj.Key)
		if err != nil {
			s.logger.Warn("Skipping unreadable backup", zap.String("key", obj.Key), zap.Error(err))
			continue
		}
		out = append(out, *infoOf(name, obj.Size, manifest))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// Open streams an archive for download
func (s *Service) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	return s.store.Get(ctx, name+archiveExt)
}

// Restore replaces the content of every table with the archive's rows. The
// archive must carry this format version and this database's name.
func (s *Service) Restore(ctx context.Context, name string) (*Info, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	manifest, archive, err := s.load(ctx, name+archiveExt)
	if err != nil {
		return nil, err
	}
	if manifest.FormatVersion != FormatVersion {
		return nil, shared.NewStateError(shared.CodeBackupMismatch,
			"backup %s has format version %q, expected %q", name, manifest.FormatVersion, FormatVersion)
	}
	if manifest.Database != s.database {
		return nil, shared.NewStateError(shared.CodeBackupMismatch,
			"backup %s was taken from database %q, not %q", name, manifest.Database, s.database).
			WithDetail("backup_database", manifest.Database)
	}

	restored, err := s.snapshots.Restore(ctx, archive, archive.Size())
	if err != nil {
		return nil, fmt.Errorf("backup %s: restore failed: %w", name, err)
	}
	s.logger.Warn("Database restored from backup",
		zap.String("name", name),
		zap.Time("backup_created_at", restored.CreatedAt),
		zap.Any("tables", restored.Tables),
	)
	return infoOf(name, archive.Size(), restored), nil
}

// Delete removes an archive
func (s *Service) Delete(ctx context.Context, name string) error {
	if err := validateName(name); err != nil {
		return err
	}
	return s.store.Delete(ctx, name+archiveExt)
}

// Prune deletes archives whose name starts with prefix and that are older than
// maxAge, returning how many were removed
func (s *Service) Prune(ctx context.Context, prefix string, maxAge time.Duration) (int, error) {
	backups, err := s.List(ctx)
	if err != nil {
		return 0, err
	}
	cutoff := s.now().Add(-maxAge)
	removed := 0
	for _, b := range backups {
		if !strings.HasPrefix(b.Name, prefix) || !b.CreatedAt.Before(cutoff) {
			continue
		}
		if err := s.store.Delete(ctx, b.Name+archiveExt); err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				continue
			}
			return removed, err
		}
		removed++
		s.logger.Info("Deleted old backup", zap.String("name", b.Name), zap.Time("created_at", b.CreatedAt))
	}
	return removed, nil
}

func (s *Service) load(ctx context.Context, key string) (*Manifest, *bytes.Reader, error) {
	body, err := s.store.Get(ctx, key)
	if err != nil {
		return nil, nil, err
	}
	defer body.Close()
	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", key, err)
	}
	archive := bytes.NewReader(raw)
	manifest, err := s.snapshots.Inspect(archive, archive.Size())
	if err != nil {
		return nil, nil, shared.NewStateError(shared.CodeBackupMismatch, "%s is not a readable backup: %v", key, err)
	}
	return manifest, archive, nil
}

func infoOf(name string, size int64, m *Manifest) *Info {
	return &Info{
		Name:      name,
		Size:      size,
		CreatedAt: m.CreatedAt,
		Version:   m.FormatVersion,
		Database:  m.Database,
		Tables:    m.Tables,
	}
}
