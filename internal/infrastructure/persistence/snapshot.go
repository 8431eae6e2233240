package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	backupapp "github.com/dinarbooks/backend/internal/application/backup"
	"github.com/dinarbooks/backend/internal/infrastructure/persistence/models"
	"github.com/klauspost/compress/zip"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	manifestEntry     = "metadata.json"
	snapshotBatchSize = 500
)

// snapshotTable dumps and reloads one table as JSON lines
type snapshotTable struct {
	name  string
	dump  func(tx *gorm.DB, enc *json.Encoder) (int64, error)
	load  func(tx *gorm.DB, dec *json.Decoder) (int64, error)
	clear func(tx *gorm.DB) error
}

func tableOf[M any](name string) snapshotTable {
	return snapshotTable{
		name: name,
		dump: func(tx *gorm.DB, enc *json.Encoder) (int64, error) {
			var (
				rows []M
				n    int64
			)
			err := tx.FindInBatches(&rows, snapshotBatchSize, func(_ *gorm.DB, _ int) error {
				for i := range rows {
					if err := enc.Encode(&rows[i]); err != nil {
						return err
					}
				}
				n += int64(len(rows))
				return nil
			}).Error
			return n, err
		},
		load: func(tx *gorm.DB, dec *json.Decoder) (int64, error) {
			var n int64
			batch := make([]M, 0, snapshotBatchSize)
			flush := func() error {
				if len(batch) == 0 {
					return nil
				}
				if err := tx.Omit(clause.Associations).Create(&batch).Error; err != nil {
					return err
				}
				n += int64(len(batch))
				batch = batch[:0]
				return nil
			}
			for dec.More() {
				var row M
				if err := dec.Decode(&row); err != nil {
					return n, err
				}
				batch = append(batch, row)
				if len(batch) == snapshotBatchSize {
					if err := flush(); err != nil {
						return n, err
					}
				}
			}
			return n, flush()
		},
		clear: func(tx *gorm.DB) error {
			return tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(new(M)).Error
		},
	}
}

// snapshotTables is every table in insert order; children follow their parents
var snapshotTables = []snapshotTable{
	tableOf[models.ExchangeRateModel]("exchange_rates"),
	tableOf[models.PartyModel]("parties"),
	tableOf[models.LedgerEntryModel]("ledger_entries"),
	tableOf[models.PaymentModel]("payments"),
	tableOf[models.ProductModel]("products"),
	tableOf[models.StockMovementModel]("stock_movements"),
	tableOf[models.DocumentModel]("documents"),
	tableOf[models.DocumentItemModel]("document_items"),
	tableOf[models.ReturnModel]("returns"),
	tableOf[models.ReturnItemModel]("return_items"),
}

func tableEntry(name string) string {
	return "tables/" + name + ".jsonl"
}

// GormSnapshotter writes every table into a zip archive with a metadata.json
// manifest, and restores an archive inside one transaction
type GormSnapshotter struct {
	db *gorm.DB
}

// NewGormSnapshotter creates a new GormSnapshotter
func NewGormSnapshotter(db *gorm.DB) *GormSnapshotter {
	return &GormSnapshotter{db: db}
}

// Dump reads every table in one read transaction so the archive is consistent
func (s *GormSnapshotter) Dump(ctx context.Context, w io.Writer, m backupapp.Manifest) (*backupapp.Manifest, error) {
	zw := zip.NewWriter(w)
	m.Tables = make(map[string]int64, len(snapshotTables))

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, t := range snapshotTables {
			entry, err := zw.Create(tableEntry(t.name))
			if err != nil {
				return err
			}
			n, err := t.dump(tx, json.NewEncoder(entry))
			if err != nil {
				return fmt.Errorf("dump %s: %w", t.name, err)
			}
			m.Tables[t.name] = n
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	entry, err := zw.Create(manifestEntry)
	if err != nil {
		return nil, err
	}
	if err := json.NewEncoder(entry).Encode(&m); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Inspect reads the manifest of an archive
func (s *GormSnapshotter) Inspect(r io.ReaderAt, size int64) (*backupapp.Manifest, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, err
	}
	return readManifest(zr)
}

// Restore deletes every row and reloads the archive's rows. Row counts must
// match the manifest or the transaction rolls back.
func (s *GormSnapshotter) Restore(ctx context.Context, r io.ReaderAt, size int64) (*backupapp.Manifest, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, err
	}
	m, err := readManifest(zr)
	if err != nil {
		return nil, err
	}
	entries := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		entries[f.Name] = f
	}
	for _, t := range snapshotTables {
		if _, ok := entries[tableEntry(t.name)]; !ok {
			return nil, fmt.Errorf("archive has no %s entry", tableEntry(t.name))
		}
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := len(snapshotTables) - 1; i >= 0; i-- {
			if err := snapshotTables[i].clear(tx); err != nil {
				return fmt.Errorf("clear %s: %w", snapshotTables[i].name, err)
			}
		}
		for _, t := range snapshotTables {
			n, err := loadEntry(tx, t, entries[tableEntry(t.name)])
			if err != nil {
				return fmt.Errorf("load %s: %w", t.name, err)
			}
			if want := m.Tables[t.name]; n != want {
				return fmt.Errorf("load %s: read %d rows, manifest lists %d", t.name, n, want)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

func loadEntry(tx *gorm.DB, t snapshotTable, f *zip.File) (int64, error) {
	rc, err := f.Open()
	if err != nil {
		return 0, err
	}
	defer rc.Close()
	return t.load(tx, json.NewDecoder(rc))
}

func readManifest(zr *zip.Reader) (*backupapp.Manifest, error) {
	for _, f := range zr.File {
		if f.Name != manifestEntry {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		var m backupapp.Manifest
		if err := json.NewDecoder(rc).Decode(&m); err != nil {
			return nil, fmt.Errorf("invalid %s: %w", manifestEntry, err)
		}
		return &m, nil
	}
	return nil, errors.New("archive has no " + manifestEntry)
}

var _ backupapp.Snapshotter = (*GormSnapshotter)(nil)
