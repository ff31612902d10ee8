// Package editor keeps an owner's in-progress edits of one invitation. Each
// slice is a Field: local value first, debounced write second, then either
// the stored value is confirmed into State or the failure is rolled back.
package editor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/kirinyoku/wedgo/internal/apperr"
)

const DefaultDebounce = time.Second

type RollbackPolicy uint8

const (
	// RollbackKeep leaves the rejected value in place and flags the error
	// so the user can fix it or Retry.
	RollbackKeep RollbackPolicy = iota
	// RollbackRevert puts back the last value the server accepted.
	RollbackRevert
)

// Writer persists v and returns the value as stored.
type Writer[T any] func(ctx context.Context, v T) (T, error)

type FieldConfig[T any] struct {
	Name     string
	Validate func(T) error
	Write    Writer[T]
	Rollback RollbackPolicy
	// Debounce is the quiet period before a write. Zero means DefaultDebounce,
	// a negative value writes on the next tick.
	Debounce time.Duration
	// Saved receives every confirmed value, outside the field's lock.
	Saved  func(T)
	Logger *slog.Logger
}

// Field is one speculatively edited value. At most one write is in flight and
// at most one is waiting for the debounce timer.
type Field[T any] struct {
	cfg FieldConfig[T]

	mu        sync.Mutex
	value     T
	confirmed T
	err       error
	gen       uint64
	timer     *time.Timer
	cancel    context.CancelFunc
	closed    bool

	wg sync.WaitGroup
}

func NewField[T any](initial T, cfg FieldConfig[T]) *Field[T] {
	if cfg.Debounce == 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.Debounce < 0 {
		cfg.Debounce = 0
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Field[T]{cfg: cfg, value: initial, confirmed: initial}
}

// Value is what the user currently sees.
func (f *Field[T]) Value() T {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.value
}

// Confirmed is the last value the server accepted.
func (f *Field[T]) Confirmed() T {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.confirmed
}

// Err is the error of the last failed write, nil once a write succeeds.
func (f *Field[T]) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

// Set validates v, shows it at once and schedules a write. An invalid value
// is returned as a validation error and nothing changes.
func (f *Field[T]) Set(v T) error {
	const op = "editor.Field.Set"

	if f.cfg.Validate != nil {
		if err := f.cfg.Validate(v); err != nil {
			return apperr.Wrap(op, apperr.Validation, err, err.Error())
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return apperr.E(op, apperr.Abort, "")
	}

	f.value = v
	f.err = nil
	f.schedule(f.cfg.Debounce)
	return nil
}

// Retry re-sends the current value after a failed write.
func (f *Field[T]) Retry() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed || f.err == nil {
		return
	}
	f.err = nil
	f.schedule(0)
}

// Reset replaces both the shown and the confirmed value without writing,
// e.g. after the invitation was reloaded.
func (f *Field[T]) Reset(v T) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.stopTimer()
	f.gen++
	f.value, f.confirmed, f.err = v, v, nil
}

// Flush sends a pending write now and waits for every write to finish.
func (f *Field[T]) Flush() error {
	f.mu.Lock()
	if f.timer != nil && f.timer.Stop() {
		f.timer = nil
		gen := f.gen
		f.mu.Unlock()
		f.fire(gen)
		f.wg.Done()
	} else {
		f.mu.Unlock()
	}

	f.wg.Wait()
	return f.Err()
}

// Close drops the pending write, cancels the one in flight and waits for it.
func (f *Field[T]) Close() {
	f.mu.Lock()
	f.closed = true
	f.stopTimer()
	f.gen++
	if f.cancel != nil {
		f.cancel()
	}
	f.mu.Unlock()

	f.wg.Wait()
}

// schedule must be called with f.mu held.
func (f *Field[T]) schedule(d time.Duration) {
	f.stopTimer()
	f.gen++
	gen := f.gen

	f.wg.Add(1)
	f.timer = time.AfterFunc(d, func() {
		defer f.wg.Done()
		f.fire(gen)
	})
}

// stopTimer must be called with f.mu held.
func (f *Field[T]) stopTimer() {
	if f.timer != nil && f.timer.Stop() {
		f.wg.Done()
	}
	f.timer = nil
}

func (f *Field[T]) fire(gen uint64) {
	f.mu.Lock()
	if f.closed || gen != f.gen {
		f.mu.Unlock()
		return
	}

	if f.cancel != nil {
		f.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	f.cancel = cancel
	f.timer = nil
	v := f.value
	f.mu.Unlock()

	saved, err := f.cfg.Write(ctx, v)
	aborted := ctx.Err() != nil || apperr.IsAbort(err)
	cancel()

	f.finish(gen, saved, err, aborted)
}

func (f *Field[T]) finish(gen uint64, saved T, err error, aborted bool) {
	f.mu.Lock()

	if aborted {
		f.mu.Unlock()
		return
	}

	if err != nil {
		if gen != f.gen {
			// a newer value is on its way
			f.mu.Unlock()
			return
		}

		f.err = err
		if f.cfg.Rollback == RollbackRevert {
			f.value = f.confirmed
		}
		f.mu.Unlock()

		f.cfg.Logger.Warn("field write failed", "field", f.cfg.Name, "kind", apperr.KindOf(err).String(), "error", err)
		return
	}

	f.confirmed = saved
	if gen == f.gen {
		f.value = saved
		f.err = nil
	}
	f.mu.Unlock()

	if f.cfg.Saved != nil {
		f.cfg.Saved(saved)
	}
}
