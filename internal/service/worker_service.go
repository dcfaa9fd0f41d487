package service

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type refresher interface {
	Refresh(ctx context.Context) error
}

// RefreshWorker polls the remote store so edits made by other dashboards show up
type RefreshWorker struct {
	queue    refresher
	interval time.Duration
	logger   *zap.Logger
}

func NewRefreshWorker(queue refresher, interval time.Duration, logger *zap.Logger) *RefreshWorker {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RefreshWorker{
		queue:    queue,
		interval: interval,
		logger:   logger,
	}
}

// Start polls until ctx is cancelled
func (w *RefreshWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("refresh worker started", zap.Duration("interval", w.interval))

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("refresh worker stopped")
			return
		case <-ticker.C:
			w.poll(ctx)
		}
	}
}

func (w *RefreshWorker) poll(ctx context.Context) {
	if err := w.queue.Refresh(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		w.logger.Warn("failed to refresh patient queue", zap.Error(err))
	}
}
