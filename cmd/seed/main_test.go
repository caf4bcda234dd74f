package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"stockledger-backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingItems struct {
	upserted []domain.Item
	err      error
}

func (r *recordingItems) GetByID(context.Context, int32) (*domain.Item, error) { return nil, nil }
func (r *recordingItems) ApplyStockDelta(context.Context, int32, int32) (*domain.Item, error) {
	return nil, nil
}
func (r *recordingItems) ListLowStock(context.Context) ([]domain.Item, error) { return nil, nil }
func (r *recordingItems) Upsert(_ context.Context, item *domain.Item) error {
	if r.err != nil {
		return r.err
	}
	item.ID = int32(len(r.upserted) + 1)
	r.upserted = append(r.upserted, *item)
	return nil
}

func TestReadCatalog_DevFile(t *testing.T) {
	catalog, err := readCatalog(filepath.Join(findProjectRoot(), "config", "catalog.dev.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, catalog.Items)

	repo := &recordingItems{}
	require.NoError(t, populateCatalog(context.Background(), repo, catalog))
	assert.Len(t, repo.upserted, len(catalog.Items))
}

func TestCatalogItem_ToDomain(t *testing.T) {
	inactive := false
	item, err := CatalogItem{Name: "Tape", StockLevel: 3, MinimumThreshold: 1}.toDomain()
	require.NoError(t, err)
	assert.True(t, item.IsActive)
	assert.Equal(t, domain.UsageTypeInternal, item.UsageType)

	item, err = CatalogItem{Name: "Tape", UsageType: "DIRECT_SALE", IsActive: &inactive}.toDomain()
	require.NoError(t, err)
	assert.False(t, item.IsActive)
	assert.Equal(t, domain.UsageTypeDirectSale, item.UsageType)

	_, err = CatalogItem{Name: "Tape", UsageType: "GIFT"}.toDomain()
	assert.Error(t, err)

	_, err = CatalogItem{Name: "Tape", StockLevel: -1}.toDomain()
	assert.Error(t, err)

	_, err = CatalogItem{}.toDomain()
	assert.Error(t, err)
}

func TestPopulateCatalog_StopsOnError(t *testing.T) {
	repo := &recordingItems{err: errors.New("unique violation")}
	err := populateCatalog(context.Background(), repo, &Catalog{Items: []CatalogItem{{Name: "A"}, {Name: "B"}}})
	assert.Error(t, err)
}

func TestReadCatalog_Missing(t *testing.T) {
	_, err := readCatalog(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}
