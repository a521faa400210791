package detector

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

// ModelLoader runs a model load function at most once successfully per process.
// Concurrent callers share a single in-flight attempt. A failed attempt is not
// remembered, so the next caller tries again.
type ModelLoader struct {
	load   func(ctx context.Context) error
	group  singleflight.Group
	loaded atomic.Bool
}

// NewModelLoader creates a loader around load.
func NewModelLoader(load func(ctx context.Context) error) *ModelLoader {
	return &ModelLoader{load: load}
}

// Load runs the load function unless a previous call already succeeded.
func (l *ModelLoader) Load(ctx context.Context) error {
	if l.loaded.Load() {
		return nil
	}

	ch := l.group.DoChan("model", func() (any, error) {
		if l.loaded.Load() {
			return nil, nil
		}
		// Shared by every waiter, so one caller going away must not abort it.
		if err := l.load(context.WithoutCancel(ctx)); err != nil {
			return nil, err
		}
		l.loaded.Store(true)
		return nil, nil
	})

	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: loading model: %w", ErrDetection, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return fmt.Errorf("%w: loading model: %w", ErrDetection, res.Err)
		}
		return nil
	}
}

// Loaded reports whether a load has succeeded.
func (l *ModelLoader) Loaded() bool {
	return l.loaded.Load()
}
