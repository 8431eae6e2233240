package persistence

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	backupapp "github.com/dinarbooks/backend/internal/application/backup"
	"github.com/dinarbooks/backend/internal/domain/partner"
	"github.com/dinarbooks/backend/internal/domain/shared/valueobject"
	"github.com/dinarbooks/backend/internal/domain/trade"
	"github.com/dinarbooks/backend/internal/infrastructure/persistence/models"
	"github.com/dinarbooks/backend/internal/testutil"
	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func countRows(t *testing.T, db *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}

func TestGormSnapshotter_DumpAndRestore(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ctx := context.Background()
	snap := NewGormSnapshotter(db)

	customer := saveParty(t, db, partner.PartyKindCustomer, "Zayouna Pharmacy")
	product := saveProduct(t, db, "GAUZE", "Gauze roll", 40)
	sale := saveDocument(t, db, trade.KindSale, "SAL-1", customer.ID, testutil.Date(2024, time.April, 2), []trade.LineItem{
		{ProductID: product.ID, ProductName: "Gauze roll", Quantity: 4, UnitPrice: valueobject.NewMoneyValueFromInts(2500, 190)},
	}, true)

	var archive bytes.Buffer
	createdAt := time.Date(2024, time.April, 3, 2, 0, 0, 0, time.UTC)
	manifest, err := snap.Dump(ctx, &archive, backupapp.Manifest{
		FormatVersion: backupapp.FormatVersion, CreatedAt: createdAt, Database: "dinarbooks",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), manifest.Tables["parties"])
	assert.Equal(t, int64(1), manifest.Tables["products"])
	assert.Equal(t, int64(1), manifest.Tables["stock_movements"])
	assert.Equal(t, int64(1), manifest.Tables["documents"])
	assert.Equal(t, int64(1), manifest.Tables["document_items"])
	assert.Zero(t, manifest.Tables["returns"])
	assert.Len(t, manifest.Tables, len(snapshotTables))

	reader := bytes.NewReader(archive.Bytes())
	inspected, err := snap.Inspect(reader, reader.Size())
	require.NoError(t, err)
	assert.Equal(t, "dinarbooks", inspected.Database)
	assert.True(t, inspected.CreatedAt.Equal(createdAt))
	assert.Equal(t, manifest.Tables, inspected.Tables)

	// changes after the snapshot
	saveParty(t, db, partner.PartyKindSupplier, "Late Supplier")
	require.NoError(t, db.Where("product_id = ?", product.ID).Delete(&models.StockMovementModel{}).Error)
	require.NoError(t, db.Model(&models.ProductModel{}).Where("id = ?", product.ID).Update("name", "Renamed").Error)

	restored, err := snap.Restore(ctx, reader, reader.Size())
	require.NoError(t, err)
	assert.Equal(t, manifest.Tables, restored.Tables)

	assert.Equal(t, int64(1), countRows(t, db, &models.PartyModel{}))
	assert.Equal(t, int64(1), countRows(t, db, &models.StockMovementModel{}))

	got, err := NewGormProductRepository(db).FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, "Gauze roll", got.Name)
	assert.Equal(t, int64(40), got.CurrentStock)
	assert.True(t, got.Price.Equals(product.Price), "price %s", got.Price)

	doc, err := NewGormDocumentRepository(db).FindByID(ctx, trade.KindSale, sale.ID)
	require.NoError(t, err)
	require.Len(t, doc.Items, 1)
	assert.Equal(t, int64(4), doc.Items[0].Quantity)
	assert.True(t, doc.Total.Equals(valueobject.NewMoneyValueFromInts(10000, 760)), "total %s", doc.Total)
}

func TestGormSnapshotter_RestoreRollsBackOnCountMismatch(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ctx := context.Background()
	snap := NewGormSnapshotter(db)
	saveParty(t, db, partner.PartyKindCustomer, "Original")

	var archive bytes.Buffer
	_, err := snap.Dump(ctx, &archive, backupapp.Manifest{FormatVersion: backupapp.FormatVersion, Database: "dinarbooks"})
	require.NoError(t, err)

	// rewrite the manifest to claim a second party
	tampered := rewriteManifest(t, archive.Bytes(), func(m *backupapp.Manifest) { m.Tables["parties"] = 2 })

	saveParty(t, db, partner.PartyKindCustomer, "Added later")
	reader := bytes.NewReader(tampered)
	_, err = snap.Restore(ctx, reader, reader.Size())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parties")

	assert.Equal(t, int64(2), countRows(t, db, &models.PartyModel{}))
}

func TestGormSnapshotter_RejectsForeignArchives(t *testing.T) {
	snap := NewGormSnapshotter(testutil.NewSQLiteDB(t))

	plain := bytes.NewReader([]byte("not a zip"))
	_, err := snap.Inspect(plain, plain.Size())
	require.Error(t, err)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	_, err = zw.Create("readme.txt")
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	noManifest := bytes.NewReader(buf.Bytes())
	_, err = snap.Inspect(noManifest, noManifest.Size())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "metadata.json")
}

func rewriteManifest(t *testing.T, archive []byte, edit func(*backupapp.Manifest)) []byte {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	require.NoError(t, err)

	var out bytes.Buffer
	zw := zip.NewWriter(&out)
	for _, f := range zr.File {
		w, err := zw.Create(f.Name)
		require.NoError(t, err)
		rc, err := f.Open()
		require.NoError(t, err)
		if f.Name == manifestEntry {
			var m backupapp.Manifest
			require.NoError(t, json.NewDecoder(rc).Decode(&m))
			edit(&m)
			require.NoError(t, json.NewEncoder(w).Encode(&m))
		} else {
			var raw bytes.Buffer
			_, err = raw.ReadFrom(rc)
			require.NoError(t, err)
			_, err = w.Write(raw.Bytes())
			require.NoError(t, err)
		}
		require.NoError(t, rc.Close())
	}
	require.NoError(t, zw.Close())
	return out.Bytes()
}
