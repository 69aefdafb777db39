// Package watch periodically refreshes the forecast of every favorite city.
package watch

import (
	"context"
	"errors"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/vzahanych/novacast/internal/client"
	"go.uber.org/zap"
)

// Searcher is satisfied by *client.Orchestrator.
type Searcher interface {
	Search(ctx context.Context, city, date string, forceRefresh bool) (client.Result, error)
}

type FavoritesSource interface {
	Favorites(ctx context.Context) ([]string, error)
}

// Watcher refreshes favorites one at a time so no refresh supersedes another.
type Watcher struct {
	scheduler *gocron.Scheduler
	searcher  Searcher
	favorites FavoritesSource
	interval  time.Duration
	date      string
	force     bool
	timeout   time.Duration
	logger    *zap.Logger
}

// New creates a Watcher. An empty date refreshes "today" on every run.
// Unless force is set, a city whose cached forecast is still fresh is served
// from the cache instead of the network.
func New(searcher Searcher, favorites FavoritesSource, interval time.Duration, date string, force bool, logger *zap.Logger) *Watcher {
	if interval <= 0 {
		interval = 30 * time.Minute
	}

	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()

	return &Watcher{
		scheduler: s,
		searcher:  searcher,
		favorites: favorites,
		interval:  interval,
		date:      date,
		force:     force,
		timeout:   2 * time.Minute,
		logger:    logger,
	}
}

// Start schedules the refresh job, running it immediately, and returns
// without blocking.
func (w *Watcher) Start(ctx context.Context) error {
	_, err := w.scheduler.Every(w.interval).StartImmediately().Do(func() {
		if err := w.RunOnce(ctx); err != nil {
			w.logger.Error("Favorites refresh failed", zap.Error(err))
		}
	})
	if err != nil {
		return err
	}

	w.scheduler.StartAsync()
	w.logger.Info("Watching favorites", zap.Duration("interval", w.interval))
	return nil
}

func (w *Watcher) Stop() {
	if w.scheduler != nil {
		w.scheduler.Stop()
	}
}

// RunOnce refreshes every favorite in order. A failing city does not stop
// the others; the returned error joins every failure.
func (w *Watcher) RunOnce(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	cities, err := w.favorites.Favorites(ctx)
	if err != nil {
		return err
	}
	if len(cities) == 0 {
		w.logger.Info("No favorites to refresh")
		return nil
	}

	w.logger.Info("Refreshing favorites", zap.Int("count", len(cities)))

	var errs []error
	for _, city := range cities {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		cityCtx, cancel := context.WithTimeout(ctx, w.timeout)
		res, err := w.searcher.Search(cityCtx, city, w.date, w.force)
		cancel()

		if err != nil {
			w.logger.Warn("Refresh failed", zap.String("city", city), zap.Error(err))
			errs = append(errs, err)
			continue
		}
		w.logger.Debug("Refreshed favorite", zap.String("city", city), zap.String("source", string(res.Source)))
	}

	return errors.Join(errs...)
}
