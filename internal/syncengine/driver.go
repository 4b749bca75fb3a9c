package syncengine

import (
	"context"
	"log/slog"
	"time"

	"github.com/tonimelisma/filesync/internal/location"
)

const (
	pollInterval = 10 * time.Second
	loopSleep    = 500 * time.Millisecond
)

// Run drives the full reconciliation lifecycle: an initial sync, then a
// steady loop that drains watcher events and runs a poll pass every
// pollInterval, until ctx is done or routing an event or a poll pass fails
// (that error is returned). Production main.go passes
// context.Background() — the loop otherwise runs until the process is
// killed; ctx.Done() exists so tests can start, run a few cycles, and
// cancel.
func Run(ctx context.Context, locations []location.Location, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	kernel := NewKernel(locations, logger)

	logger.Info("running initial reconciliation", "locations", len(locations))

	if err := kernel.InitialSync(ctx); err != nil {
		return err
	}

	folderLoc, folderRoot := firstFolder(locations)

	var events <-chan location.WatchEvent

	if folderLoc != nil {
		w, err := location.NewWatcher(folderRoot, logger)
		if err != nil {
			return err
		}

		events = w.Events()

		go w.Run(ctx)

		defer func() {
			_ = w.Close()
		}()
	}

	router := NewRouter(kernel, folderRoot)

	lastPoll := time.Now()

	for {
		if ctx.Err() != nil {
			return nil
		}

		if err := drainEvents(ctx, router, events, logger); err != nil {
			return err
		}

		if time.Since(lastPoll) >= pollInterval {
			if err := kernel.PollLocations(ctx); err != nil {
				return err
			}

			lastPoll = time.Now()
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(loopSleep):
		}
	}
}

// drainEvents routes every pending watcher event without blocking. The first
// routing error stops the drain and is returned.
func drainEvents(ctx context.Context, router *Router, events <-chan location.WatchEvent, logger *slog.Logger) error {
	if events == nil {
		return nil
	}

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return nil
			}

			if err := router.Route(ctx, ev); err != nil {
				logger.Error("router: handling event failed", "path", ev.Path, "error", err)
				return err
			}

		default:
			return nil
		}
	}
}

// firstFolder returns the first Folder location in the set, if any, along
// with its root path.
func firstFolder(locations []location.Location) (location.Location, string) {
	for _, loc := range locations {
		if folder, ok := loc.(*location.Folder); ok {
			return loc, folder.Root
		}
	}

	return nil, ""
}
