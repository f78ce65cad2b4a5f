// Package runner executes tool calls through the providers of a registry,
// capturing output and recording an event per call.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/vk/strata/internal/ctxlog"
	"github.com/vk/strata/internal/event"
	"github.com/vk/strata/internal/registry"
	"github.com/vk/strata/internal/toolcall"
	"golang.org/x/sync/errgroup"
)

// ErrUnknownTool is returned for calls whose tool has no provider.
var ErrUnknownTool = errors.New("unknown tool")

// summaryArgs bounds how many arguments an event detail shows.
const summaryArgs = 12

// Runner runs calls. It is safe for concurrent use.
type Runner struct {
	registry *registry.Registry
	sink     event.Sink
	workers  int
}

func New(reg *registry.Registry, sink event.Sink, workers int) *Runner {
	if sink == nil {
		sink = event.NopSink{}
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Runner{registry: reg, sink: sink, workers: workers}
}

// Workers returns the bound used for parallel batches.
func (r *Runner) Workers() int {
	return r.workers
}

// Has reports whether a provider exists for tool.
func (r *Runner) Has(tool string) bool {
	_, ok := r.registry.Lookup(tool)
	return ok
}

// Run executes one call to completion. A non-zero exit is reported in the
// result, not as an error.
func (r *Runner) Run(ctx context.Context, call toolcall.Call) (*toolcall.Result, error) {
	logger := ctxlog.FromContext(ctx)
	provider, ok := r.registry.Lookup(call.Name())
	if !ok {
		event.SafeRecord(r.sink, event.Event{Kind: event.KindTool, Name: call.Name(), Outcome: event.OutcomeFailed, Detail: "no provider"})
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, call.Name())
	}

	logger.Debug("Running tool.", "tool", call.Name(), "call", call.Summary(summaryArgs))
	var stdout, stderr bytes.Buffer
	start := time.Now()
	code, err := provider.Run(ctx, call, &stdout, &stderr)
	result := &toolcall.Result{
		Call:     call,
		ExitCode: code,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	e := event.Event{Kind: event.KindTool, Name: call.Name(), Detail: call.Summary(summaryArgs), ExitCode: code, Duration: result.Duration, Outcome: event.OutcomeOK}
	if err != nil || code != 0 {
		e.Outcome = event.OutcomeFailed
	}
	event.SafeRecord(r.sink, e)

	if err != nil {
		return nil, fmt.Errorf("running %s: %w", call.Name(), err)
	}
	if code != 0 {
		logger.Debug("Tool exited with non-zero status.", "tool", call.Name(), "exit_code", code, "stderr", result.Stderr)
	}
	return result, nil
}

// RunSequential runs calls in order and stops after the first call that
// fails or exits non-zero. Results of every call that ran are returned.
func (r *Runner) RunSequential(ctx context.Context, calls []toolcall.Call) ([]*toolcall.Result, error) {
	results := make([]*toolcall.Result, 0, len(calls))
	for _, call := range calls {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res, err := r.Run(ctx, call)
		if err != nil {
			return results, err
		}
		results = append(results, res)
		if !res.Ok() {
			break
		}
	}
	return results, nil
}

// RunParallel runs independent calls with at most Workers() at a time.
// Every call runs even if a sibling fails; results are in call order, with
// nil for calls that could not be run. The first run error is returned.
func (r *Runner) RunParallel(ctx context.Context, calls []toolcall.Call) ([]*toolcall.Result, error) {
	results := make([]*toolcall.Result, len(calls))
	var eg errgroup.Group
	eg.SetLimit(r.workers)
	for i, call := range calls {
		eg.Go(func() error {
			res, err := r.Run(ctx, call)
			results[i] = res
			return err
		})
	}
	return results, eg.Wait()
}

// Each runs fn for every index in [0, n) with at most Workers() at a time
// and returns the first error. Every task runs to completion.
func (r *Runner) Each(n int, fn func(i int) error) error {
	var eg errgroup.Group
	eg.SetLimit(r.workers)
	for i := range n {
		eg.Go(func() error { return fn(i) })
	}
	return eg.Wait()
}
