// Package watch re-runs a render when its input files change.
package watch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/taigrr/shade/pkg/render"
)

// Options tunes change detection and retrying.
type Options struct {
	Debounce time.Duration // quiet period after the last event
	Retries  uint64        // reload attempts after the first failure
	Interval time.Duration // first retry delay, doubled each attempt
}

// DefaultOptions waits 100ms for writes to settle and retries a failing
// reload five times starting at 50ms.
func DefaultOptions() Options {
	return Options{
		Debounce: 100 * time.Millisecond,
		Retries:  5,
		Interval: 50 * time.Millisecond,
	}
}

// Watch calls reload each time one of paths is written or created, until
// ctx is done. The parent directories are watched so editors
// that replace files are seen too. A reload that keeps failing after the
// retries is logged and watching continues.
func Watch(ctx context.Context, paths []string, opts Options, reload func(context.Context) error) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer w.Close()

	names := make(map[string]bool, len(paths))
	dirs := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("watch %s: %w", p, err)
		}
		names[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := w.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}

	log := render.Logger()
	var (
		timer   *time.Timer
		pending <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !names[filepath.Clean(ev.Name)] || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			log.Debug("file changed", "path", ev.Name, "op", ev.Op.String())
			if timer == nil {
				timer = time.NewTimer(opts.Debounce)
			} else {
				timer.Reset(opts.Debounce)
			}
			pending = timer.C
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn("watch error", "err", err)
		case <-pending:
			pending = nil
			if err := Retry(ctx, opts, reload); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("reload failed", "err", err)
			}
		}
	}
}

// Retry runs fn until it succeeds, ctx is done or opts.Retries further
// attempts have failed, waiting an exponentially growing interval between
// attempts. It returns the last error.
func Retry(ctx context.Context, opts Options, fn func(context.Context) error) error {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = opts.Interval
	eb.MaxElapsedTime = 0
	b := backoff.WithContext(backoff.WithMaxRetries(eb, opts.Retries), ctx)

	attempt := 0
	return backoff.Retry(func() error {
		attempt++
		err := fn(ctx)
		if err != nil {
			render.Logger().Warn("reload attempt failed", "attempt", attempt, "err", err)
		}
		return err
	}, b)
}
