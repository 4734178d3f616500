package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/fastygo/journal/domain"
	"github.com/fastygo/journal/internal/infrastructure/buffer"
	"github.com/fastygo/journal/repository"
)

// ConnectionHealth abstracts the connection monitor functionality.
type ConnectionHealth interface {
	IsOnline() bool
}

// ProcessorConfig controls how frequently the buffer is drained and pruned.
type ProcessorConfig struct {
	Interval   time.Duration
	BatchSize  int
	MaxRetries int
	// Retention bounds how long an item may wait before it is discarded.
	Retention time.Duration
}

// BufferProcessor replays buffered profile updates once Postgres is reachable again.
type BufferProcessor struct {
	store   *buffer.Store
	monitor ConnectionHealth
	editors repository.EditorRepository
	logger  *zap.Logger
	cron    *cron.Cron
	cfg     ProcessorConfig
	now     func() time.Time
}

func NewBufferProcessor(
	store *buffer.Store,
	monitor ConnectionHealth,
	editors repository.EditorRepository,
	logger *zap.Logger,
	cfg ProcessorConfig,
) (*BufferProcessor, error) {
	if cfg.Interval < time.Second {
		cfg.Interval = 30 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.Retention <= 0 {
		cfg.Retention = 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	bp := &BufferProcessor{
		store:   store,
		monitor: monitor,
		editors: editors,
		logger:  logger,
		cfg:     cfg,
		cron:    cron.New(cron.WithSeconds()),
		now:     time.Now,
	}

	schedule := fmt.Sprintf("@every %ds", int(cfg.Interval.Seconds()))
	if _, err := bp.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Interval)
		defer cancel()
		if err := bp.Drain(ctx); err != nil {
			bp.logger.Error("buffer drain failed", zap.Error(err))
		}
	}); err != nil {
		return nil, err
	}
	if _, err := bp.cron.AddFunc("@hourly", func() {
		if _, err := bp.Cleanup(); err != nil {
			bp.logger.Error("buffer cleanup failed", zap.Error(err))
		}
	}); err != nil {
		return nil, err
	}

	return bp, nil
}

// Start launches the cron scheduler.
func (bp *BufferProcessor) Start() {
	if bp == nil || bp.cron == nil {
		return
	}
	bp.cron.Start()
	bp.logger.Info("buffer processor started")
}

// Stop gracefully stops the scheduler.
func (bp *BufferProcessor) Stop(ctx context.Context) {
	if bp == nil || bp.cron == nil {
		return
	}
	stopCtx := bp.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	bp.logger.Info("buffer processor stopped")
}

// Drain processes buffered items synchronously.
func (bp *BufferProcessor) Drain(ctx context.Context) error {
	if bp == nil || bp.store == nil {
		return nil
	}
	if bp.monitor != nil && !bp.monitor.IsOnline() {
		bp.logger.Debug("skipping buffer drain (offline)")
		return nil
	}

	items, err := bp.store.GetBatch(bp.cfg.BatchSize)
	if err != nil {
		return err
	}

	for _, item := range items {
		if err := bp.processItem(ctx, item); err != nil {
			if errors.Is(err, errPermanent) {
				bp.logger.Warn("dropping buffer item", zap.String("item_id", item.ID), zap.Error(err))
				_ = bp.store.Remove(item)
				continue
			}
			bp.logger.Error("failed to process buffer item",
				zap.String("item_id", item.ID),
				zap.String("entity", item.Entity),
				zap.Error(err))

			item.Retries++
			if item.Retries >= bp.cfg.MaxRetries {
				bp.logger.Warn("dropping buffer item (max retries reached)", zap.String("item_id", item.ID))
				_ = bp.store.Remove(item)
				continue
			}

			if err := bp.store.Remove(item); err != nil {
				bp.logger.Warn("failed to remove buffer item", zap.Error(err))
			}
			if err := bp.store.Requeue(item); err != nil {
				bp.logger.Error("failed to requeue buffer item", zap.Error(err))
			}
			continue
		}

		if err := bp.store.Remove(item); err != nil {
			bp.logger.Warn("failed to purge processed buffer item", zap.Error(err))
		}
		bp.logger.Info("buffered profile update applied", zap.Int64("eic_id", item.EditorID))
	}
	return nil
}

// Cleanup discards items older than the retention window.
func (bp *BufferProcessor) Cleanup() (int, error) {
	if bp == nil || bp.store == nil {
		return 0, nil
	}
	removed, err := bp.store.Cleanup(bp.now().Add(-bp.cfg.Retention))
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		bp.logger.Warn("expired buffer items discarded", zap.Int("count", removed))
	}
	return removed, nil
}

// BufferOperation persists the item for a later drain.
func (bp *BufferProcessor) BufferOperation(_ context.Context, item buffer.Item) error {
	if bp == nil || bp.store == nil {
		return fmt.Errorf("buffer processor not configured")
	}
	return bp.store.Enqueue(item)
}

// Size returns the number of buffered items.
func (bp *BufferProcessor) Size() (int, error) {
	if bp == nil || bp.store == nil {
		return 0, nil
	}
	return bp.store.Size()
}

var errPermanent = errors.New("buffer item cannot be applied")

func (bp *BufferProcessor) processItem(ctx context.Context, item buffer.Item) error {
	if item.Entity != buffer.EntityEditorProfile || item.Operation != buffer.OperationUpdate {
		return fmt.Errorf("%w: unsupported %s/%s", errPermanent, item.Entity, item.Operation)
	}

	var patch domain.ProfilePatch
	if err := json.Unmarshal(item.Data, &patch); err != nil {
		return fmt.Errorf("%w: %v", errPermanent, err)
	}
	if _, err := bp.editors.UpdateMetadata(ctx, item.EditorID, patch); err != nil {
		if domain.IsDomainError(err, domain.ErrCodeNotFound) {
			return fmt.Errorf("%w: %v", errPermanent, err)
		}
		return err
	}
	return nil
}
