// Package pipeline sequences a build: resolve external modules, build every
// space once the spaces it requires are built, then run the tests of the
// produced archives.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
	"time"

	"github.com/vk/strata/internal/archive"
	"github.com/vk/strata/internal/compiler"
	"github.com/vk/strata/internal/ctxlog"
	"github.com/vk/strata/internal/dag"
	"github.com/vk/strata/internal/event"
	"github.com/vk/strata/internal/model"
	"github.com/vk/strata/internal/resolver"
	"github.com/vk/strata/internal/runner"
)

// Resolver makes external modules available before compilation starts.
type Resolver interface {
	Resolve(ctx context.Context) (*resolver.Result, error)
}

// Pipeline builds one project.
type Pipeline struct {
	project   model.Project
	layout    model.Layout
	runner    *runner.Runner
	resolver  Resolver
	compiler  *compiler.Compiler
	assembler *archive.Assembler
	sink      event.Sink
	tests     bool
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithResolver sets the resolver run before any space is built.
func WithResolver(r Resolver) Option {
	return func(p *Pipeline) { p.resolver = r }
}

func WithSink(sink event.Sink) Option {
	return func(p *Pipeline) { p.sink = sink }
}

// WithCompileOptions appends options to every compiler call.
func WithCompileOptions(options ...string) Option {
	return func(p *Pipeline) { p.compiler = compiler.New(p.runner, p.project, p.layout, options...) }
}

// WithTests toggles the test phase.
func WithTests(enabled bool) Option {
	return func(p *Pipeline) { p.tests = enabled }
}

func New(project model.Project, layout model.Layout, r *runner.Runner, opts ...Option) *Pipeline {
	p := &Pipeline{
		project:   project,
		layout:    layout,
		runner:    r,
		compiler:  compiler.New(r, project, layout),
		assembler: archive.New(r, project, layout),
		sink:      event.NopSink{},
		tests:     true,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Graph returns the space dependency graph in declaration order.
func (p *Pipeline) Graph() (*dag.Graph, error) {
	g := dag.New()
	for _, s := range p.project.Spaces {
		g.AddNode(s.Name)
	}
	for _, s := range p.project.Spaces {
		for _, req := range s.Requires {
			if err := g.AddEdge(req, s.Name); err != nil {
				return nil, fmt.Errorf("space %q: %w", s.Name, err)
			}
		}
	}
	if err := g.DetectCycles(); err != nil {
		return nil, fmt.Errorf("space dependencies: %w", err)
	}
	return g, nil
}

// Resolve runs only the resolver.
func (p *Pipeline) Resolve(ctx context.Context) (*resolver.Result, error) {
	if p.resolver == nil {
		return &resolver.Result{}, nil
	}
	start := time.Now()
	res, err := p.resolver.Resolve(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolving external modules: %w", err)
	}
	ctxlog.FromContext(ctx).Info("📦 External modules resolved.", "iterations", res.Iterations, "fetched", len(res.Fetched), "duration", time.Since(start))
	return res, nil
}

// Run builds the project. The returned outcome is never nil once the
// project validated; the error is the first fatal failure in space order.
func (p *Pipeline) Run(ctx context.Context) (*Outcome, error) {
	logger := ctxlog.FromContext(ctx)
	if err := p.project.Validate(); err != nil {
		return nil, err
	}
	g, err := p.Graph()
	if err != nil {
		return nil, err
	}
	order, err := g.TopologicalOrder()
	if err != nil {
		return nil, err
	}

	outcome := &Outcome{Project: p.project.Name, Order: order, spaces: map[string]*SpaceOutcome{}}
	start := time.Now()
	defer func() { outcome.Duration = time.Since(start) }()

	outcome.Resolution, err = p.Resolve(ctx)
	if err != nil {
		outcome.Err = err
		return outcome, err
	}

	var mu sync.Mutex
	results := g.Execute(ctx, p.runner.Workers(), func(ctx context.Context, name string) error {
		space, _ := p.project.Space(name)
		so := p.buildSpace(ctx, space)
		mu.Lock()
		outcome.spaces[name] = so
		mu.Unlock()
		return so.Err
	})
	for _, name := range order {
		r := results[name]
		so, ok := outcome.spaces[name]
		if !ok {
			so = &SpaceOutcome{Space: name}
			outcome.spaces[name] = so
		}
		so.Status = r.Status
		if r.Status == dag.StatusSkipped {
			so.Err = r.Err
			logger.Warn("⏭️ Space skipped.", "space", name, "reason", r.Err)
			event.SafeRecord(p.sink, event.Event{Kind: event.KindSpace, Name: name, Outcome: event.OutcomeSkipped, Detail: r.Err.Error()})
		}
	}

	if p.tests {
		p.test(ctx, outcome)
	}

	outcome.Err = outcome.firstError()
	return outcome, outcome.Err
}

func (p *Pipeline) buildSpace(ctx context.Context, space model.Space) *SpaceOutcome {
	ctx = ctxlog.With(ctx, "space", space.Name)
	so := &SpaceOutcome{Space: space.Name, ModuleErrors: map[string]error{}}
	start := time.Now()
	defer func() {
		so.Duration = time.Since(start)
		e := event.Event{Kind: event.KindSpace, Name: space.Name, Outcome: event.OutcomeOK, Duration: so.Duration}
		if so.Err != nil {
			e.Outcome, e.Detail = event.OutcomeFailed, so.Err.Error()
		}
		event.SafeRecord(p.sink, e)
	}()

	if _, err := p.compiler.CompileBase(ctx, space); err != nil {
		so.Err = err
		return so
	}

	archives := make([]string, len(space.Modules))
	errs := make([]error, len(space.Modules))
	_ = p.runner.Each(len(space.Modules), func(i int) error {
		m := space.Modules[i]
		if _, err := p.compiler.CompileOverlays(ctx, space, m); err != nil {
			errs[i] = err
			return nil
		}
		archives[i], errs[i] = p.assembler.Assemble(ctx, space, m)
		return nil
	})

	for i, m := range space.Modules {
		if errs[i] != nil {
			so.ModuleErrors[m.Name] = errs[i]
			if err := os.Remove(p.layout.Archive(space.Name, m.Name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
				ctxlog.FromContext(ctx).Warn("Could not remove stale archive.", "module", m.Name, "error", err)
			}
			if so.Err == nil {
				so.Err = errs[i]
			}
			continue
		}
		so.Archives = append(so.Archives, archives[i])
	}
	if so.Err == nil {
		ctxlog.FromContext(ctx).Info("✅ Space built.", "archives", len(so.Archives), "duration", time.Since(start))
	}
	return so
}

// Outcome is the result of one pipeline run.
type Outcome struct {
	Project    string
	Resolution *resolver.Result
	// Order lists the spaces in the order they were scheduled.
	Order    []string
	Duration time.Duration
	Err      error

	spaces map[string]*SpaceOutcome
}

// Space returns the outcome of one space.
func (o *Outcome) Space(name string) (*SpaceOutcome, bool) {
	so, ok := o.spaces[name]
	return so, ok
}

// Spaces returns space outcomes in schedule order.
func (o *Outcome) Spaces() []*SpaceOutcome {
	out := make([]*SpaceOutcome, 0, len(o.Order))
	for _, name := range o.Order {
		if so, ok := o.spaces[name]; ok {
			out = append(out, so)
		}
	}
	return out
}

func (o *Outcome) Ok() bool {
	return o != nil && o.Err == nil
}

// firstError prefers a real failure over a skip caused by it.
func (o *Outcome) firstError() error {
	var skipped error
	for _, so := range o.Spaces() {
		if so.Err == nil {
			continue
		}
		var skip *dag.SkippedError
		if errors.As(so.Err, &skip) {
			if skipped == nil {
				skipped = so.Err
			}
			continue
		}
		return so.Err
	}
	return skipped
}

// SpaceOutcome is the result of building one space.
type SpaceOutcome struct {
	Space    string
	Status   dag.Status
	Archives []string
	// ModuleErrors holds the overlay or archive failure of each failed module.
	ModuleErrors map[string]error
	Tests        []TestOutcome
	Duration     time.Duration
	Err          error
}
