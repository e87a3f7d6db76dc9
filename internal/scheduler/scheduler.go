package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/qrsp/sticker-alias/internal/trending"
)

const jobName = "trending"

// Runner is one scoring pass.
type Runner interface {
	Run(ctx context.Context) (trending.Stats, error)
}

type Options struct {
	Location             *time.Location
	Hour, Minute, Second uint
	RunOnStart           bool
	Logger               *zerolog.Logger
}

type Scheduler struct {
	s   gocron.Scheduler
	job gocron.Job
}

// Start registers the daily scoring job and starts the scheduler. ctx is
// handed to every run; cancel it and call Stop to shut down.
func Start(ctx context.Context, runner Runner, opts Options) (*Scheduler, error) {
	lg := log.With().Str("component", "scheduler").Logger()
	if opts.Logger != nil {
		lg = *opts.Logger
	}
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}

	s, err := gocron.NewScheduler(gocron.WithLocation(loc))
	if err != nil {
		return nil, fmt.Errorf("scheduler: %w", err)
	}

	jobOpts := []gocron.JobOption{
		gocron.WithName(jobName),
		// a run that is still going when the next one is due pushes it back
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithEventListeners(
			gocron.AfterJobRunsWithError(func(jobID uuid.UUID, name string, err error) {
				lg.Error().Err(err).Str("job_id", jobID.String()).Str("job", name).Msg("scheduled run failed")
			}),
		),
	}
	if opts.RunOnStart {
		jobOpts = append(jobOpts, gocron.WithStartAt(gocron.WithStartImmediately()))
	}

	job, err := s.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(opts.Hour, opts.Minute, opts.Second))),
		gocron.NewTask(func() error {
			stats, err := runner.Run(ctx)
			if errors.Is(err, trending.ErrRunInProgress) {
				lg.Info().Msg("scoring already running, skipped")
				return nil
			}
			if err != nil {
				return err
			}
			lg.Info().Str("run_id", stats.RunID).Int("entries", stats.Entries).Msg("scheduled run done")
			return nil
		}),
		jobOpts...,
	)
	if err != nil {
		_ = s.Shutdown()
		return nil, fmt.Errorf("scheduler: registering job: %w", err)
	}

	s.Start()
	if next, err := job.NextRun(); err == nil {
		lg.Info().Time("next_run", next).Msg("scheduler started")
	}
	return &Scheduler{s: s, job: job}, nil
}

// NextRun is the next time the scoring job fires.
func (s *Scheduler) NextRun() (time.Time, error) {
	return s.job.NextRun()
}

func (s *Scheduler) Stop() error {
	return s.s.Shutdown()
}
