package sources

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/Comnyando/craftstock-backend/pkg/db/models"
	"github.com/Comnyando/craftstock-backend/pkg/enums"
)

func setupSourcesTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:sources_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

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
	entries := `
CREATE TABLE IF NOT EXISTS stock_entries (
  item_id TEXT NOT NULL,
  location_id TEXT NOT NULL,
  quantity NUMERIC NOT NULL DEFAULT 0,
  reserved_quantity NUMERIC NOT NULL DEFAULT 0,
  unit_cost NUMERIC NOT NULL DEFAULT 0,
  reliability NUMERIC NOT NULL DEFAULT 1,
  updated_at DATETIME,
  PRIMARY KEY (item_id, location_id)
);`
	playerStocks := `
CREATE TABLE IF NOT EXISTS player_stocks (
  id TEXT PRIMARY KEY,
  item_id TEXT NOT NULL,
  player_name TEXT NOT NULL,
  location_id TEXT,
  quantity NUMERIC NOT NULL DEFAULT 0,
  unit_cost NUMERIC NOT NULL DEFAULT 0,
  reliability NUMERIC NOT NULL DEFAULT 0.5,
  last_seen_at DATETIME
);`
	require.NoError(t, db.Exec(locations).Error)
	require.NoError(t, db.Exec(entries).Error)
	require.NoError(t, db.Exec(playerStocks).Error)
	return db
}

func TestListStockCandidatesJoinsAccessibleLocations(t *testing.T) {
	t.Parallel()

	db := setupSourcesTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	itemID := uuid.New()
	owner := uuid.New()

	open := models.Location{ID: uuid.New(), Name: "Depot", Type: enums.LocationTypeWarehouse, OwnerID: owner, IsAccessible: true}
	closed := models.Location{ID: uuid.New(), Name: "Locked", Type: enums.LocationTypeStructure, OwnerID: owner, IsAccessible: false}
	require.NoError(t, db.Create(&open).Error)
	require.NoError(t, db.Create(&closed).Error)

	for _, loc := range []uuid.UUID{open.ID, closed.ID} {
		entry := models.StockEntry{
			ItemID:           itemID,
			LocationID:       loc,
			Quantity:         decimal.NewFromInt(10),
			ReservedQuantity: decimal.NewFromInt(2),
			UnitCost:         decimal.NewFromInt(4),
			Reliability:      decimal.NewFromInt(1),
		}
		require.NoError(t, db.Create(&entry).Error)
	}

	rows, err := repo.ListStockCandidates(ctx, itemID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, open.ID, rows[0].LocationID)
	assert.Equal(t, owner, rows[0].OwnerID)
	assert.True(t, rows[0].Quantity.Equal(decimal.NewFromInt(10)))
	assert.True(t, rows[0].ReservedQuantity.Equal(decimal.NewFromInt(2)))
}

func TestListPlayerStocks(t *testing.T) {
	t.Parallel()

	db := setupSourcesTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	itemID := uuid.New()
	older := models.PlayerStock{
		ID:         uuid.New(),
		ItemID:     itemID,
		PlayerName: "Aster",
		Quantity:   decimal.NewFromInt(3),
		UnitCost:   decimal.NewFromInt(2),
		LastSeenAt: time.Now().Add(-2 * time.Hour),
	}
	newer := models.PlayerStock{
		ID:         uuid.New(),
		ItemID:     itemID,
		PlayerName: "Brel",
		Quantity:   decimal.NewFromInt(9),
		UnitCost:   decimal.NewFromInt(1),
		LastSeenAt: time.Now(),
	}
	require.NoError(t, db.Create(&older).Error)
	require.NoError(t, db.Create(&newer).Error)

	rows, err := repo.ListPlayerStocks(ctx, itemID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Brel", rows[0].PlayerName)
}
