package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"hall-booking/internal/usecase"
	"hall-booking/pkg/lock"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

const jobName = "expire-bookings"

var ErrSweepInProgress = errors.New("expiry sweep already in progress")

type Expirer interface {
	Expire(ctx context.Context, now time.Time, maxAge time.Duration) (*usecase.ExpireResult, error)
}

// Locker serializes sweeps across instances.
type Locker interface {
	TryLock(ctx context.Context) (lock.Releaser, bool, error)
}

type SweeperConfig struct {
	Interval time.Duration
	MaxAge   time.Duration
}

// Sweeper periodically expires stale pending bookings. At most one sweep
// runs per process, and at most one per cluster when a Locker is set.
type Sweeper struct {
	expirer Expirer
	locker  Locker
	cfg     SweeperConfig
	log     *zap.Logger
	now     func() time.Time

	running   sync.Mutex
	scheduler gocron.Scheduler
}

func NewSweeper(expirer Expirer, locker Locker, cfg SweeperConfig, log *zap.Logger) *Sweeper {
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Minute
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = 10 * time.Minute
	}
	return &Sweeper{
		expirer: expirer,
		locker:  locker,
		cfg:     cfg,
		log:     log.With(zap.String("worker", jobName)),
		now:     time.Now,
	}
}

// Start schedules the sweep every Interval, beginning immediately.
func (s *Sweeper) Start() error {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("create scheduler: %w", err)
	}

	_, err = sched.NewJob(
		gocron.DurationJob(s.cfg.Interval),
		gocron.NewTask(s.tick),
		gocron.WithName(jobName),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		_ = sched.Shutdown()
		return fmt.Errorf("schedule %s: %w", jobName, err)
	}

	s.scheduler = sched
	sched.Start()

	s.log.Info("Expiry sweeper started",
		zap.Duration("interval", s.cfg.Interval),
		zap.Duration("max_age", s.cfg.MaxAge),
	)
	return nil
}

func (s *Sweeper) Stop() error {
	if s.scheduler == nil {
		return nil
	}
	if err := s.scheduler.Shutdown(); err != nil {
		return fmt.Errorf("stop scheduler: %w", err)
	}
	s.log.Info("Expiry sweeper stopped")
	return nil
}

func (s *Sweeper) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Interval)
	defer cancel()

	_, err := s.RunOnce(ctx)
	switch {
	case errors.Is(err, ErrSweepInProgress):
		s.log.Debug("Skipping sweep, another one is running")
	case err != nil:
		s.log.Error("Expiry sweep failed", zap.Error(err))
	}
}

// RunOnce runs a single sweep now. It returns ErrSweepInProgress instead of
// waiting when another sweep holds the lock.
func (s *Sweeper) RunOnce(ctx context.Context) (*usecase.ExpireResult, error) {
	if !s.running.TryLock() {
		return nil, ErrSweepInProgress
	}
	defer s.running.Unlock()

	if s.locker != nil {
		release, ok, err := s.locker.TryLock(ctx)
		if err != nil {
			return nil, fmt.Errorf("acquire sweep lock: %w", err)
		}
		if !ok {
			return nil, ErrSweepInProgress
		}
		defer func() {
			releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := release(releaseCtx); err != nil {
				s.log.Warn("Failed to release sweep lock", zap.Error(err))
			}
		}()
	}

	return s.expirer.Expire(ctx, s.now(), s.cfg.MaxAge)
}
