// Package resolver computes the closure of external modules a project
// needs and fetches them until nothing is missing.
//
// Each pass reads one immutable snapshot of the cache, derives the missing
// set from it, locates and fetches every missing module, and starts over.
// Resolution ends when a pass finds nothing missing, and fails when a pass
// finds exactly the same missing set as the previous one.
package resolver

import (
	"context"
	"runtime"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/vk/strata/internal/ctxlog"
	"github.com/vk/strata/internal/event"
	"github.com/vk/strata/internal/fetch"
	"github.com/vk/strata/internal/locator"
	"github.com/vk/strata/internal/model"
	"github.com/vk/strata/internal/modscan"
	"golang.org/x/sync/errgroup"
)

// Scanner produces a snapshot of the modules currently in the cache.
type Scanner interface {
	Scan(ctx context.Context) (modscan.Snapshot, error)
}

// State is the fixed input of every pass.
type State struct {
	// Declared modules are built from source and never fetched.
	Declared map[string]bool
	// Required are the names demanded by declared modules and the project.
	Required []string
	// System reports names provided by the platform itself.
	System func(name string) bool
}

// Missing returns, sorted, every module required by the project or by a
// module in snap that is neither declared, a system module, nor present.
func Missing(state State, snap modscan.Snapshot) []string {
	set := map[string]bool{}
	consider := func(name string) {
		if name == "" || state.Declared[name] || snap.Has(name) {
			return
		}
		if state.System != nil && state.System(name) {
			return
		}
		set[name] = true
	}
	for _, name := range state.Required {
		consider(name)
	}
	for _, name := range snap.AllRequires() {
		consider(name)
	}
	missing := make([]string, 0, len(set))
	for name := range set {
		missing = append(missing, name)
	}
	sort.Strings(missing)
	return missing
}

// SystemModules returns a predicate that accepts the platform's own
// modules (java.*, jdk.*) plus any extra names.
func SystemModules(extra ...string) func(string) bool {
	set := map[string]bool{}
	for _, name := range extra {
		set[name] = true
	}
	return func(name string) bool {
		return set[name] || name == "java" || strings.HasPrefix(name, "java.") || strings.HasPrefix(name, "jdk.")
	}
}

// Result summarizes a completed resolution.
type Result struct {
	Iterations int
	Fetched    []model.ExternalModuleLocation
	Present    []string
}

// Resolver drives the locate/fetch loop.
type Resolver struct {
	state   State
	locator locator.Locator
	fetcher fetch.Fetcher
	scanner Scanner
	layout  model.Layout
	sink    event.Sink
	workers int
}

// Option customizes a Resolver.
type Option func(*Resolver)

func WithSink(sink event.Sink) Option {
	return func(r *Resolver) { r.sink = sink }
}

// WithWorkers bounds the number of concurrent fetches.
func WithWorkers(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.workers = n
		}
	}
}

func New(state State, loc locator.Locator, f fetch.Fetcher, s Scanner, layout model.Layout, opts ...Option) *Resolver {
	r := &Resolver{
		state:   state,
		locator: loc,
		fetcher: f,
		scanner: s,
		layout:  layout,
		sink:    event.NopSink{},
		workers: runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve runs passes until nothing is missing.
func (r *Resolver) Resolve(ctx context.Context) (*Result, error) {
	logger := ctxlog.FromContext(ctx)
	result := &Result{}
	var previous []string

	for {
		snap, err := r.scanner.Scan(ctx)
		if err != nil {
			return nil, err
		}
		missing := Missing(r.state, snap)
		if len(missing) == 0 {
			result.Present = snap.Names()
			logger.Info("✅ All external modules present.", "iterations", result.Iterations, "present", len(result.Present))
			return result, nil
		}
		if previous != nil && slices.Equal(missing, previous) {
			return nil, &NonConvergenceError{Missing: missing, Iterations: result.Iterations}
		}
		result.Iterations++
		logger.Info("🔎 Resolving external modules.", "iteration", result.Iterations, "missing", missing)

		locations, err := r.locate(ctx, missing)
		if err != nil {
			return nil, err
		}
		if err := r.fetchAll(ctx, locations); err != nil {
			return nil, err
		}
		result.Fetched = append(result.Fetched, locations...)
		previous = missing
	}
}

// locate runs sequentially in name order so that locator side effects and
// reported failures are deterministic.
func (r *Resolver) locate(ctx context.Context, missing []string) ([]model.ExternalModuleLocation, error) {
	locations := make([]model.ExternalModuleLocation, 0, len(missing))
	for _, name := range missing {
		start := time.Now()
		loc, ok, err := r.locator.Locate(ctx, name)
		if err != nil {
			event.SafeRecord(r.sink, event.Event{Kind: event.KindLocate, Name: name, Outcome: event.OutcomeFailed, Detail: err.Error(), Duration: time.Since(start)})
			return nil, err
		}
		if !ok {
			event.SafeRecord(r.sink, event.Event{Kind: event.KindLocate, Name: name, Outcome: event.OutcomeMissing, Duration: time.Since(start)})
			return nil, &UnresolvableDependencyError{Module: name, Locators: r.locatorNames()}
		}
		if loc.Module == "" {
			loc.Module = name
		}
		event.SafeRecord(r.sink, event.Event{Kind: event.KindLocate, Name: name, Outcome: event.OutcomeOK, Detail: loc.URI, Duration: time.Since(start)})
		locations = append(locations, loc)
	}
	return locations, nil
}

// fetchAll downloads locations with a bounded pool. After the first failure
// no further download starts; downloads already running finish on ctx.
func (r *Resolver) fetchAll(ctx context.Context, locations []model.ExternalModuleLocation) error {
	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(r.workers)
	for _, loc := range locations {
		eg.Go(func() error {
			if gctx.Err() != nil {
				return ctx.Err()
			}
			start := time.Now()
			out, err := r.fetcher.Fetch(ctx, loc, r.layout.ExternalArchive(loc.Module))
			e := event.Event{Kind: event.KindFetch, Name: loc.Module, Detail: loc.URI, Outcome: event.OutcomeOK, Duration: time.Since(start)}
			switch {
			case err != nil:
				e.Outcome = event.OutcomeFailed
			case out.Skipped:
				e.Outcome = event.OutcomeSkipped
			}
			event.SafeRecord(r.sink, e)
			return err
		})
	}
	return eg.Wait()
}

func (r *Resolver) locatorNames() []string {
	if named, ok := r.locator.(interface{ Names() []string }); ok {
		return named.Names()
	}
	return []string{r.locator.Name()}
}
