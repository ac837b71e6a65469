package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

const (
	DefaultSweepSpec      = "*/15 * * * *"
	DefaultIdleTTL        = 24 * time.Hour
	Timezone              = "UTC"
	TimezoneOffsetSeconds = 0
)

// Evictor drops in-memory sessions idle for longer than ttl.
type Evictor interface {
	EvictIdle(ttl time.Duration) int
	Len() int
}

type Scheduler struct {
	ctx     context.Context
	cron    *cron.Cron
	spec    string
	ttl     time.Duration
	evictor Evictor
	log     *slog.Logger
}

func New(ctx context.Context, evictor Evictor, spec string, ttl time.Duration, log *slog.Logger) *Scheduler {
	c := cron.New(cron.WithLocation(time.FixedZone(Timezone, TimezoneOffsetSeconds)))

	if spec == "" {
		spec = DefaultSweepSpec
	}
	if ttl <= 0 {
		ttl = DefaultIdleTTL
	}

	return &Scheduler{
		ctx:     ctx,
		cron:    c,
		spec:    spec,
		ttl:     ttl,
		evictor: evictor,
		log:     log,
	}
}

func (s *Scheduler) Spec() string {
	return s.spec
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.sweepIdleSessions); err != nil {
		return fmt.Errorf("add func: %w", err)
	}

	s.cron.Start()

	return nil
}

// Stop stops scheduling and waits for a running sweep.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) sweepIdleSessions() {
	if s.ctx.Err() != nil {
		s.log.InfoContext(s.ctx, "Scheduler context is done",
			"error", s.ctx.Err())
		return
	}

	evicted := s.evictor.EvictIdle(s.ttl)

	s.log.InfoContext(s.ctx, "Idle sessions are swept",
		"evicted", evicted,
		"remaining", s.evictor.Len(),
		"idleTTL", s.ttl.String())
}
