package dag

import (
	"context"
	"fmt"
	"sync"

	"github.com/vk/strata/internal/ctxlog"
)

// Status is the terminal state of a node after Execute.
type Status int

const (
	StatusDone Status = iota + 1
	StatusFailed
	StatusSkipped
)

func (s Status) String() string {
	switch s {
	case StatusDone:
		return "done"
	case StatusFailed:
		return "failed"
	case StatusSkipped:
		return "skipped"
	}
	return "pending"
}

// Result is the outcome of one node.
type Result struct {
	Status Status
	Err    error
}

// SkippedError explains why a node never ran.
type SkippedError struct {
	Dependency string
}

func (e *SkippedError) Error() string {
	return fmt.Sprintf("skipped because dependency '%s' did not complete", e.Dependency)
}

// Task runs the work of one node.
type Task func(ctx context.Context, id string) error

type execution struct {
	graph   *Graph
	mu      sync.Mutex
	pending map[string]int
	results map[string]Result
	wg      sync.WaitGroup
	ready   chan string
}

// Execute runs task for every node with at most workers running at once.
// A node starts only after all of its dependencies are done. When a node
// fails, every node depending on it (directly or not) is skipped; unrelated
// nodes keep running.
func (g *Graph) Execute(ctx context.Context, workers int, task Task) map[string]Result {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	if workers <= 0 {
		workers = 1
	}
	e := &execution{
		graph:   g,
		pending: make(map[string]int, len(g.nodes)),
		results: make(map[string]Result, len(g.nodes)),
		ready:   make(chan string, len(g.nodes)),
	}
	e.wg.Add(len(g.nodes))
	for _, id := range g.order {
		e.pending[id] = len(g.nodes[id].deps)
		if e.pending[id] == 0 {
			e.ready <- id
		}
	}

	for w := range workers {
		go e.worker(ctx, task, w)
	}
	e.wg.Wait()
	close(e.ready)
	return e.results
}

func (e *execution) worker(ctx context.Context, task Task, workerID int) {
	logger := ctxlog.FromContext(ctx)
	for id := range e.ready {
		if err := ctx.Err(); err != nil {
			e.finish(id, Result{Status: StatusSkipped, Err: err})
			continue
		}
		logger.Debug("Worker picked up node for execution.", "workerID", workerID, "nodeID", id)
		if err := task(ctx, id); err != nil {
			logger.Debug("Node execution failed.", "nodeID", id, "error", err)
			e.finish(id, Result{Status: StatusFailed, Err: err})
			continue
		}
		e.finish(id, Result{Status: StatusDone})
	}
}

func (e *execution) finish(id string, r Result) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.results[id] = r

	n := e.graph.nodes[id]
	for _, depID := range ordered(n.dependents) {
		if _, done := e.results[depID]; done {
			continue
		}
		if r.Status != StatusDone {
			e.skip(depID, id)
			continue
		}
		e.pending[depID]--
		if e.pending[depID] == 0 {
			e.ready <- depID
		}
	}
	e.wg.Done()
}

// skip marks id and everything below it as skipped. Callers hold e.mu.
func (e *execution) skip(id, cause string) {
	if _, done := e.results[id]; done {
		return
	}
	e.results[id] = Result{Status: StatusSkipped, Err: &SkippedError{Dependency: cause}}
	e.wg.Done()
	for _, depID := range ordered(e.graph.nodes[id].dependents) {
		e.skip(depID, id)
	}
}
