package services

import (
	"context"
	"fmt"
	"log/slog"

	cronlib "github.com/robfig/cron/v3"

	"github.com/CrowderSoup/taskflow-pro/database"
)

const backfillBatch = 50

// Backfiller periodically embeds tasks whose embedding is missing or stale,
// for example after the AI provider was unavailable when they were saved.
type Backfiller struct {
	search  *SearchService
	vectors *database.VectorStore
	logger  *slog.Logger
	cron    *cronlib.Cron
}

func NewBackfiller(search *SearchService, vectors *database.VectorStore, logger *slog.Logger) *Backfiller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Backfiller{
		search:  search,
		vectors: vectors,
		logger:  logger,
		cron:    cronlib.New(),
	}
}

// Start schedules RunOnce with a standard 5-field cron expression.
func (b *Backfiller) Start(schedule string) error {
	_, err := b.cron.AddFunc(schedule, func() {
		if _, err := b.RunOnce(context.Background()); err != nil {
			b.logger.Error("embedding backfill failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid backfill schedule %q: %w", schedule, err)
	}
	b.cron.Start()
	b.logger.Info("embedding backfill scheduled", "schedule", schedule)
	return nil
}

// Stop waits for a running backfill to finish.
func (b *Backfiller) Stop() {
	<-b.cron.Stop().Done()
}

// RunOnce embeds one batch and returns how many tasks were indexed.
func (b *Backfiller) RunOnce(ctx context.Context) (int, error) {
	tasks, err := b.vectors.TasksMissingEmbeddings(ctx, backfillBatch)
	if err != nil {
		return 0, err
	}

	indexed := 0
	for _, t := range tasks {
		if err := b.search.IndexTask(ctx, t); err != nil {
			// Provider errors tend to repeat; give up on this batch.
			return indexed, err
		}
		indexed++
	}
	if indexed > 0 {
		b.logger.Info("embedding backfill complete", "indexed", indexed)
	}
	return indexed, nil
}
