// Package sweeper runs the periodic maintenance jobs: force-completing
// orphaned transcripts and purging expired pending events.
package sweeper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/roomloghq/roomlog/internal/clock"
	"github.com/roomloghq/roomlog/internal/observability/metrics"
	transcriptdomain "github.com/roomloghq/roomlog/internal/transcript/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var ErrInvalidConfig = errors.New("sweeper: invalid configuration")

type Params struct {
	fx.In

	Log           *zap.Logger
	Clock         clock.Clock
	TranscriptSvc transcriptdomain.Service
	Metrics       *metrics.Metrics
	Config        Config `optional:"true"`
}

type Sweeper struct {
	log           *zap.Logger
	cfg           Config
	clock         clock.Clock
	transcriptSvc transcriptdomain.Service
	metrics       *metrics.Metrics
}

func New(p Params) (*Sweeper, error) {
	if p.Log == nil || p.Clock == nil || p.TranscriptSvc == nil {
		return nil, ErrInvalidConfig
	}
	return &Sweeper{
		log:           p.Log.Named("sweeper").With(zap.String("component", "sweeper")),
		cfg:           p.Config.withDefaults(),
		clock:         p.Clock,
		transcriptSvc: p.TranscriptSvc,
		metrics:       p.Metrics,
	}, nil
}

func (s *Sweeper) runJob(parent context.Context, name string, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(parent, s.cfg.JobTimeout)
	defer cancel()

	s.metrics.IncSweepRun(name)
	err := fn(ctx)
	if err == nil {
		return nil
	}

	// Deadline is a soft timeout: log and let the next tick pick up the rest.
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		s.log.Warn("sweep job timed out",
			zap.String("job", name),
			zap.Duration("timeout", s.cfg.JobTimeout),
			zap.Error(err),
		)
		return nil
	}
	return fmt.Errorf("%s: %w", name, err)
}

func (s *Sweeper) RunOnce(parent context.Context) error {
	var err error
	err = errors.Join(err, s.runJob(parent, "reap_orphans", s.ReapOrphansJob))
	err = errors.Join(err, s.runJob(parent, "cleanup_pending", s.CleanupPendingJob))
	return err
}

func (s *Sweeper) ReapOrphansJob(ctx context.Context) error {
	reaped, err := s.transcriptSvc.ReapOrphans(ctx)
	if err != nil {
		return err
	}
	if reaped > 0 {
		s.log.Info("orphan sweep completed", zap.Int("reaped", reaped))
	}
	return nil
}

func (s *Sweeper) CleanupPendingJob(ctx context.Context) error {
	deleted, err := s.transcriptSvc.CleanupExpired(ctx)
	if err != nil {
		return err
	}
	if deleted > 0 {
		s.log.Info("expired pending events purged", zap.Int64("deleted", deleted))
	}
	return nil
}

func (s *Sweeper) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()

	for {
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("sweep run failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
