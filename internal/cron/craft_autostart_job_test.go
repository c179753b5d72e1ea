package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Comnyando/craftstock-backend/pkg/db/models"
	pkgerrors "github.com/Comnyando/craftstock-backend/pkg/errors"
	"github.com/Comnyando/craftstock-backend/pkg/logger"
)

func TestCraftAutoStartJobStartsDueCrafts(t *testing.T) {
	first := uuid.New()
	second := uuid.New()
	lister := &fakeDueCraftLister{crafts: []models.Craft{{ID: first}, {ID: second}}}
	starter := &fakeCraftStarter{}
	job := newCraftAutoStartJob(t, lister, starter)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(starter.started) != 2 {
		t.Fatalf("expected 2 starts, got %d", len(starter.started))
	}
	if starter.started[0] != first || starter.started[1] != second {
		t.Fatalf("unexpected start order: %v", starter.started)
	}
	if !starter.reserveMissing {
		t.Fatal("expected reserve missing to be requested")
	}
	if lister.limit != defaultAutoStartBatch {
		t.Fatalf("expected batch %d, got %d", defaultAutoStartBatch, lister.limit)
	}
}

func TestCraftAutoStartJobSkipsBlockedCrafts(t *testing.T) {
	blocked := uuid.New()
	runnable := uuid.New()
	lister := &fakeDueCraftLister{crafts: []models.Craft{{ID: blocked}, {ID: runnable}}}
	starter := &fakeCraftStarter{
		errFor: map[uuid.UUID]error{
			blocked: pkgerrors.New(pkgerrors.CodeInsufficientStock, "missing ingredients"),
		},
	}
	job := newCraftAutoStartJob(t, lister, starter)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("expected blocked crafts to be skipped, got %v", err)
	}
	if len(starter.started) != 1 || starter.started[0] != runnable {
		t.Fatalf("expected only runnable craft to start, got %v", starter.started)
	}
}

func TestCraftAutoStartJobReportsStartFailures(t *testing.T) {
	failing := uuid.New()
	lister := &fakeDueCraftLister{crafts: []models.Craft{{ID: failing}}}
	starter := &fakeCraftStarter{
		errFor: map[uuid.UUID]error{failing: errors.New("boom")},
	}
	job := newCraftAutoStartJob(t, lister, starter)

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func newCraftAutoStartJob(t *testing.T, lister *fakeDueCraftLister, starter *fakeCraftStarter) Job {
	t.Helper()
	job, err := NewCraftAutoStartJob(CraftAutoStartJobParams{
		Logger:  logger.New(logger.Options{ServiceName: "test"}),
		Lister:  lister,
		Starter: starter,
	})
	if err != nil {
		t.Fatalf("NewCraftAutoStartJob: %v", err)
	}
	return job
}

type fakeDueCraftLister struct {
	crafts []models.Craft
	limit  int
	err    error
}

func (f *fakeDueCraftLister) ListDueScheduled(ctx context.Context, now time.Time, limit int) ([]models.Craft, error) {
	f.limit = limit
	if f.err != nil {
		return nil, f.err
	}
	return f.crafts, nil
}

type fakeCraftStarter struct {
	started        []uuid.UUID
	reserveMissing bool
	errFor         map[uuid.UUID]error
}

func (f *fakeCraftStarter) Start(ctx context.Context, craftID uuid.UUID, reserveMissing bool) (*models.Craft, error) {
	if err, ok := f.errFor[craftID]; ok {
		return nil, err
	}
	f.started = append(f.started, craftID)
	f.reserveMissing = reserveMissing
	return &models.Craft{ID: craftID}, nil
}
