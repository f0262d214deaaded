package daemon

import (
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	ferrors "git.home.luguber.info/inful/docsnap/internal/foundation/errors"
)

// scheduler wraps a gocron scheduler running one periodic task.
type scheduler struct {
	s gocron.Scheduler
}

func newScheduler(interval time.Duration, task func(), logger *slog.Logger) (*scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryDaemon, "create scheduler").Build()
	}
	_, err = s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(task),
		gocron.WithName("periodic-generate"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = s.Shutdown()
		return nil, ferrors.WrapError(err, ferrors.CategoryDaemon, "schedule periodic generation").
			WithContext("interval", interval.String()).
			Build()
	}
	s.Start()
	logger.Info("Scheduler started", slog.Duration("interval", interval))
	return &scheduler{s: s}, nil
}

func (s *scheduler) Stop() error {
	return s.s.Shutdown()
}
