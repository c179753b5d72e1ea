package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/Comnyando/craftstock-backend/pkg/db/models"
	pkgerrors "github.com/Comnyando/craftstock-backend/pkg/errors"
	"github.com/Comnyando/craftstock-backend/pkg/logger"
)

const defaultAutoStartBatch = 100

type dueCraftLister interface {
	ListDueScheduled(ctx context.Context, now time.Time, limit int) ([]models.Craft, error)
}

type craftStarter interface {
	Start(ctx context.Context, craftID uuid.UUID, reserveMissing bool) (*models.Craft, error)
}

// CraftAutoStartJobParams configure the scheduled craft starter.
type CraftAutoStartJobParams struct {
	Logger    *logger.Logger
	Lister    dueCraftLister
	Starter   craftStarter
	BatchSize int
}

// NewCraftAutoStartJob builds the cron job that starts planned crafts whose
// scheduled start time has passed. Crafts blocked on missing stock are left
// planned and retried on the next cycle.
func NewCraftAutoStartJob(params CraftAutoStartJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Lister == nil {
		return nil, fmt.Errorf("craft lister required")
	}
	if params.Starter == nil {
		return nil, fmt.Errorf("craft starter required")
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultAutoStartBatch
	}
	return &craftAutoStartJob{
		logg:    params.Logger,
		lister:  params.Lister,
		starter: params.Starter,
		batch:   batch,
		now:     time.Now,
	}, nil
}

type craftAutoStartJob struct {
	logg    *logger.Logger
	lister  dueCraftLister
	starter craftStarter
	batch   int
	now     func() time.Time
}

func (j *craftAutoStartJob) Name() string { return "craft-auto-start" }

func (j *craftAutoStartJob) Run(ctx context.Context) error {
	due, err := j.lister.ListDueScheduled(ctx, j.now().UTC(), j.batch)
	if err != nil {
		return fmt.Errorf("list due crafts: %w", err)
	}
	started := 0
	blocked := 0
	var errs []error
	for _, craft := range due {
		craftCtx := j.logg.WithCraftID(ctx, craft.ID.String())
		if _, err := j.starter.Start(craftCtx, craft.ID, true); err != nil {
			if pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock) {
				blocked++
				j.logg.Warn(craftCtx, "scheduled craft blocked on missing stock")
				continue
			}
			errs = append(errs, fmt.Errorf("start craft %s: %w", craft.ID, err))
			continue
		}
		started++
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"due":     len(due),
		"started": started,
		"blocked": blocked,
		"failed":  len(errs),
	})
	j.logg.Info(logCtx, "scheduled craft start loop complete")
	return multierr.Combine(errs...)
}
