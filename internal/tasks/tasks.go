// Package tasks tracks fire-and-forget work that must finish before the host exits.
package tasks

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc"
)

// Group collects background tasks. Callers register work with Go and never
// block on it; the host drains the group with Wait before tearing down.
type Group struct {
	wg     conc.WaitGroup
	logger zerolog.Logger

	mu      sync.Mutex
	names   []string
	errs    []error
	pending int
}

// NewGroup returns an empty group.
func NewGroup(logger zerolog.Logger) *Group {
	return &Group{logger: logger.With().Str("component", "tasks").Logger()}
}

// Go schedules fn in the background under the given name. Task errors are
// collected for Wait; tasks log their own outcome.
func (g *Group) Go(name string, fn func() error) {
	g.mu.Lock()
	g.names = append(g.names, name)
	g.pending++
	g.mu.Unlock()

	g.wg.Go(func() {
		defer func() {
			g.mu.Lock()
			g.pending--
			g.mu.Unlock()
		}()

		if err := fn(); err != nil {
			g.mu.Lock()
			g.errs = append(g.errs, fmt.Errorf("%s: %w", name, err))
			g.mu.Unlock()
		}
	})
}

// Names lists every task registered so far, in registration order.
func (g *Group) Names() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.names...)
}

// Pending reports how many tasks are still running.
func (g *Group) Pending() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pending
}

// Wait blocks until every registered task finished. Panics are recovered and
// reported alongside task errors.
func (g *Group) Wait() error {
	if recovered := g.wg.WaitAndRecover(); recovered != nil {
		g.logger.Error().Str("panic", fmt.Sprint(recovered.Value)).Msg("background task panicked")
		g.mu.Lock()
		g.errs = append(g.errs, recovered.AsError())
		g.mu.Unlock()
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	return errors.Join(g.errs...)
}
