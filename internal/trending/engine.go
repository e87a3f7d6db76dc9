package trending

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"github.com/qrsp/sticker-alias/internal/metrics"
	"github.com/qrsp/sticker-alias/internal/models"
	"github.com/qrsp/sticker-alias/internal/storage"
)

// ErrRunInProgress is returned when Run is called while another run of the
// same engine has not finished. The call is skipped, not queued.
var ErrRunInProgress = errors.New("trending: run already in progress")

const (
	msgStarted  = "System: Update trending..."
	msgFinished = "System: Trending updated."
	msgFailed   = "System: Trending update failed: %v"
)

// Store is what a run reads usage from and publishes the ranking to.
type Store interface {
	ListUsers(ctx context.Context) ([]models.User, error)
	ChosenSince(ctx context.Context, userID int64, since time.Time) ([]models.Chosen, error)
	ReplaceTrending(ctx context.Context, build func(stage storage.Staging) error) error
}

// Notifier delivers operational messages to the administrator.
type Notifier interface {
	NotifyAdmin(ctx context.Context, text string) error
}

type Stats struct {
	RunID    string
	Users    int
	Entries  int
	Duration time.Duration
}

type Engine struct {
	store    Store
	notifier Notifier
	now      func() time.Time
	running  *semaphore.Weighted
	log      zerolog.Logger
}

type Option func(*Engine)

// WithClock overrides the time source used as "now" for a run.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func WithNotifier(n Notifier) Option {
	return func(e *Engine) { e.notifier = n }
}

func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

func New(store Store, opts ...Option) *Engine {
	e := &Engine{
		store:   store,
		now:     time.Now,
		running: semaphore.NewWeighted(1),
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run recomputes every user's ranking and swaps it in. On error the served
// ranking is left exactly as it was.
func (e *Engine) Run(ctx context.Context) (Stats, error) {
	if !e.running.TryAcquire(1) {
		metrics.TrendingRuns.WithLabelValues("skipped").Inc()
		e.log.Warn().Msg("trending run skipped: previous run still executing")
		return Stats{}, ErrRunInProgress
	}
	defer e.running.Release(1)

	stats := Stats{RunID: uuid.NewString()}
	lg := e.log.With().Str("run_id", stats.RunID).Logger()
	e.notify(ctx, lg, msgStarted)

	start := time.Now()
	now := e.now()
	entries, err := e.rank(ctx, now, &stats)
	if err == nil {
		err = e.store.ReplaceTrending(ctx, func(stage storage.Staging) error {
			for _, entry := range entries {
				if err := stage.Insert(ctx, entry); err != nil {
					return err
				}
			}
			return nil
		})
	}
	stats.Duration = time.Since(start)

	if err != nil {
		metrics.TrendingRuns.WithLabelValues("failed").Inc()
		lg.Error().Err(err).Dur("took", stats.Duration).Msg("trending run failed")
		e.notify(ctx, lg, fmt.Sprintf(msgFailed, err))
		return stats, fmt.Errorf("trending run %s: %w", stats.RunID, err)
	}

	metrics.TrendingRuns.WithLabelValues("ok").Inc()
	metrics.TrendingDuration.Observe(stats.Duration.Seconds())
	metrics.TrendingEntries.Set(float64(stats.Entries))
	lg.Info().
		Int("users", stats.Users).
		Int("entries", stats.Entries).
		Dur("took", stats.Duration).
		Msg("trending updated")
	e.notify(ctx, lg, msgFinished)
	return stats, nil
}

// rank computes every user's entries from plain reads, outside the write
// transaction of the swap.
func (e *Engine) rank(ctx context.Context, now time.Time, stats *Stats) ([]models.TrendingEntry, error) {
	users, err := e.store.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	var entries []models.TrendingEntry
	for _, u := range users {
		events, err := e.store.ChosenSince(ctx, u.ID, now.Add(-Window))
		if err != nil {
			return nil, fmt.Errorf("user %d: %w", u.ID, err)
		}
		for idx, id := range Rank(events, now) {
			entries = append(entries, models.TrendingEntry{FileUniqueID: id, UserID: u.ID, Score: idx})
		}
		stats.Users++
	}
	stats.Entries = len(entries)
	return entries, nil
}

func (e *Engine) notify(ctx context.Context, lg zerolog.Logger, text string) {
	if e.notifier == nil {
		return
	}
	if err := e.notifier.NotifyAdmin(ctx, text); err != nil {
		lg.Warn().Err(err).Msg("admin notification failed")
	}
}
