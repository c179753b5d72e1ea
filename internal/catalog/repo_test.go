package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/Comnyando/craftstock-backend/pkg/db/models"
	"github.com/Comnyando/craftstock-backend/pkg/enums"
	pkgerrors "github.com/Comnyando/craftstock-backend/pkg/errors"
)

func setupCatalogTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:catalog_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	items := `
CREATE TABLE IF NOT EXISTS items (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  category TEXT NOT NULL,
  subcategory TEXT,
  rarity TEXT,
  metadata TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	locations := `
CREATE TABLE IF NOT EXISTS locations (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  type TEXT NOT NULL,
  owner_id TEXT NOT NULL,
  parent_location_id TEXT,
  canonical_location_id TEXT,
  is_accessible INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(items).Error)
	require.NoError(t, db.Exec(locations).Error)
	return db
}

func TestItemRepositoryGetByID(t *testing.T) {
	t.Parallel()

	db := setupCatalogTestDB(t)
	repo := NewItemRepository(db)
	ctx := context.Background()

	item := models.Item{ID: uuid.New(), Name: "Refined Alloy", Category: "material"}
	require.NoError(t, db.Create(&item).Error)

	got, err := repo.GetByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, item.ID, got.ID)
	assert.Equal(t, "Refined Alloy", got.Name)

	_, err = repo.GetByID(ctx, uuid.New())
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestItemRepositoryListByIDs(t *testing.T) {
	t.Parallel()

	db := setupCatalogTestDB(t)
	repo := NewItemRepository(db)
	ctx := context.Background()

	a := models.Item{ID: uuid.New(), Name: "Ore", Category: "material"}
	b := models.Item{ID: uuid.New(), Name: "Fuel", Category: "consumable"}
	require.NoError(t, db.Create(&a).Error)
	require.NoError(t, db.Create(&b).Error)

	items, err := repo.ListByIDs(ctx, []uuid.UUID{a.ID, b.ID})
	require.NoError(t, err)
	assert.Len(t, items, 2)

	items, err = repo.ListByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestLocationRepositoryAccessibility(t *testing.T) {
	t.Parallel()

	db := setupCatalogTestDB(t)
	repo := NewLocationRepository(db)
	ctx := context.Background()
	owner := uuid.New()

	visible := models.Location{
		ID:           uuid.New(),
		Name:         "Home Station",
		Type:         enums.LocationTypeStation,
		OwnerID:      owner,
		IsAccessible: true,
	}
	hidden := models.Location{
		ID:           uuid.New(),
		Name:         "Wrecked Ship",
		Type:         enums.LocationTypeShip,
		OwnerID:      owner,
		IsAccessible: false,
	}
	other := models.Location{
		ID:           uuid.New(),
		Name:         "Foreign Warehouse",
		Type:         enums.LocationTypeWarehouse,
		OwnerID:      uuid.New(),
		IsAccessible: true,
	}
	for _, loc := range []models.Location{visible, hidden, other} {
		loc := loc
		require.NoError(t, db.Create(&loc).Error)
	}

	locs, err := repo.ListAccessibleByOwner(ctx, owner)
	require.NoError(t, err)
	require.Len(t, locs, 1)
	assert.Equal(t, visible.ID, locs[0].ID)

	_, err = repo.GetByID(ctx, uuid.New())
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}
