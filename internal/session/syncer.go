package session

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Syncer reconcilia la sesión al arrancar y luego periódicamente.
type Syncer struct {
	store    *Store
	interval time.Duration
	logger   *zap.Logger
}

func NewSyncer(store *Store, interval time.Duration, logger *zap.Logger) *Syncer {
	if interval <= 0 {
		interval = time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Syncer{store: store, interval: interval, logger: logger}
}

// Run bloquea hasta que ctx se cancele.
func (s *Syncer) Run(ctx context.Context) {
	s.tick(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Syncer) tick(ctx context.Context) {
	res := s.store.SyncUser(ctx)
	if res != SyncSkipped {
		s.logger.Debug("session sync", zap.String("result", res.String()))
	}
}
