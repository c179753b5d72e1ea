package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/Comnyando/craftstock-backend/pkg/db/models"
	"github.com/Comnyando/craftstock-backend/pkg/enums"
	"github.com/Comnyando/craftstock-backend/pkg/outbox/payloads"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:outbox_%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	schema := `
CREATE TABLE IF NOT EXISTS outbox_events (
  id TEXT PRIMARY KEY,
  event_type TEXT NOT NULL,
  aggregate_type TEXT NOT NULL,
  aggregate_id TEXT NOT NULL,
  payload TEXT NOT NULL,
  created_at DATETIME,
  published_at DATETIME,
  attempt_count INTEGER NOT NULL DEFAULT 0,
  last_error TEXT
);`
	if err := conn.Exec(schema).Error; err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}
	return conn
}

func TestEmitPersistsEnvelopeInTransaction(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)
	svc := NewService(repo, nil)

	craftID := uuid.New()
	tx := db.Begin()
	err := svc.Emit(context.Background(), tx, DomainEvent{
		EventType:     enums.EventCraftStarted,
		AggregateType: enums.AggregateCraft,
		AggregateID:   craftID,
		Version:       1,
		Data: payloads.CraftStartedEvent{
			CraftID: craftID,
		},
	})
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	if err := tx.Commit().Error; err != nil {
		t.Fatalf("commit: %v", err)
	}

	rows, err := repo.FetchUnpublished(10, 0)
	if err != nil {
		t.Fatalf("fetch unpublished: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	row := rows[0]
	if row.EventType != enums.EventCraftStarted {
		t.Fatalf("expected event type %s, got %s", enums.EventCraftStarted, row.EventType)
	}
	if row.AggregateID != craftID {
		t.Fatalf("expected aggregate id %s, got %s", craftID, row.AggregateID)
	}

	var envelope PayloadEnvelope
	if err := json.Unmarshal(row.Payload, &envelope); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}
	if envelope.Version != 1 {
		t.Fatalf("expected version 1, got %d", envelope.Version)
	}
	if envelope.EventID == "" {
		t.Fatal("expected event id to be set")
	}
	var data payloads.CraftStartedEvent
	if err := json.Unmarshal(envelope.Data, &data); err != nil {
		t.Fatalf("unmarshal data: %v", err)
	}
	if data.CraftID != craftID {
		t.Fatalf("expected craft id %s, got %s", craftID, data.CraftID)
	}
}

func TestEmitRequiresTransaction(t *testing.T) {
	svc := NewService(NewRepository(newTestDB(t)), nil)
	err := svc.Emit(context.Background(), nil, DomainEvent{
		EventType:     enums.EventStockAdjusted,
		AggregateType: enums.AggregateStock,
		AggregateID:   uuid.New(),
	})
	if err == nil {
		t.Fatal("expected error for nil transaction")
	}
}

func TestMarkPublishedAndFailed(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)

	row := models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.EventStockAdjusted,
		AggregateType: enums.AggregateStock,
		AggregateID:   uuid.New(),
		Payload:       json.RawMessage(`{}`),
	}
	if err := db.Create(&row).Error; err != nil {
		t.Fatalf("create event: %v", err)
	}

	if err := repo.MarkFailed(row.ID, fmt.Errorf("publish timeout")); err != nil {
		t.Fatalf("mark failed: %v", err)
	}
	var failed models.OutboxEvent
	if err := db.First(&failed, "id = ?", row.ID).Error; err != nil {
		t.Fatalf("reload event: %v", err)
	}
	if failed.AttemptCount != 1 {
		t.Fatalf("expected attempt count 1, got %d", failed.AttemptCount)
	}
	if failed.LastError == nil || *failed.LastError != "publish timeout" {
		t.Fatalf("expected last error to be recorded, got %v", failed.LastError)
	}

	if err := repo.MarkPublished(row.ID); err != nil {
		t.Fatalf("mark published: %v", err)
	}
	rows, err := repo.FetchUnpublished(10, 0)
	if err != nil {
		t.Fatalf("fetch unpublished: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected no unpublished rows, got %d", len(rows))
	}
}

func TestFetchUnpublishedSkipsExhaustedRows(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)

	fresh := seedOutboxRow(t, db, 0, nil)
	seedOutboxRow(t, db, 3, nil)

	rows, err := repo.FetchUnpublished(10, 3)
	if err != nil {
		t.Fatalf("fetch unpublished: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0].ID != fresh.ID {
		t.Fatalf("expected fresh row %s, got %s", fresh.ID, rows[0].ID)
	}

	// no cap fetches both
	rows, err = repo.FetchUnpublished(10, 0)
	if err != nil {
		t.Fatalf("fetch unpublished without cap: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
}

func TestDeletePublishedBefore(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)

	old := time.Now().UTC().Add(-48 * time.Hour)
	recent := time.Now().UTC()

	published := seedOutboxRow(t, db, 0, &old)
	kept := seedOutboxRow(t, db, 0, &recent)
	dead := seedOutboxRow(t, db, 5, nil)
	if err := db.Model(&models.OutboxEvent{}).Where("id = ?", dead.ID).
		Update("created_at", old).Error; err != nil {
		t.Fatalf("age dead row: %v", err)
	}
	pending := seedOutboxRow(t, db, 0, nil)

	cutoff := time.Now().UTC().Add(-24 * time.Hour)
	deleted, err := repo.DeletePublishedBefore(db, cutoff, 5)
	if err != nil {
		t.Fatalf("delete published before: %v", err)
	}
	if deleted != 2 {
		t.Fatalf("expected 2 deletions, got %d", deleted)
	}

	var remaining []models.OutboxEvent
	if err := db.Find(&remaining).Error; err != nil {
		t.Fatalf("list remaining: %v", err)
	}
	ids := map[uuid.UUID]bool{}
	for _, row := range remaining {
		ids[row.ID] = true
	}
	if ids[published.ID] || ids[dead.ID] {
		t.Fatal("expected old published and exhausted rows to be deleted")
	}
	if !ids[kept.ID] || !ids[pending.ID] {
		t.Fatal("expected recent published and pending rows to survive")
	}
}

func seedOutboxRow(t *testing.T, db *gorm.DB, attempts int, publishedAt *time.Time) models.OutboxEvent {
	t.Helper()
	row := models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.EventStockAdjusted,
		AggregateType: enums.AggregateStock,
		AggregateID:   uuid.New(),
		Payload:       json.RawMessage(`{}`),
		AttemptCount:  attempts,
		PublishedAt:   publishedAt,
	}
	if err := db.Create(&row).Error; err != nil {
		t.Fatalf("seed outbox row: %v", err)
	}
	return row
}
