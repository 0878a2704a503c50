package health

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Checker reports whether a dependency is usable.
type Checker interface {
	HealthCheck(ctx context.Context) error
}

// CheckerFunc adapts a function to Checker.
type CheckerFunc func(ctx context.Context) error

// HealthCheck calls f.
func (f CheckerFunc) HealthCheck(ctx context.Context) error { return f(ctx) }

// CheckAll runs every non-nil checker concurrently and returns each result
// by name. A nil error means healthy.
func CheckAll(ctx context.Context, checkers map[string]Checker) map[string]error {
	var (
		mu      sync.Mutex
		results = make(map[string]error, len(checkers))
		g       errgroup.Group
	)
	for name, c := range checkers {
		if c == nil {
			continue
		}
		g.Go(func() error {
			// Failures are collected per name, never returned, so one
			// failing checker does not cancel the rest.
			err := c.HealthCheck(ctx)
			mu.Lock()
			results[name] = err
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return results
}
