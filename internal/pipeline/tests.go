package pipeline

import (
	"context"
	"os"
	"strings"

	"github.com/vk/strata/internal/ctxlog"
	"github.com/vk/strata/internal/dag"
	"github.com/vk/strata/internal/model"
	"github.com/vk/strata/internal/toolcall"
)

// TestTool launches the tests of a module archive.
const TestTool = "junit"

const testPhase = "test"

// TestOutcome is the test run of one module.
type TestOutcome struct {
	Module string
	Result *toolcall.Result
}

// TestCall runs the tests of module from the archives of space.
func (p *Pipeline) TestCall(space model.Space, module string) toolcall.Call {
	path := []string{p.layout.ArchivesDir(space.Name)}
	for _, required := range p.project.RequiredSpaces(space.Name) {
		path = append(path, p.layout.ArchivesDir(required.Name))
	}
	path = append(path, p.layout.Cache)
	return toolcall.New(TestTool,
		"--module-path", strings.Join(path, string(os.PathListSeparator)),
		"--add-modules", module,
		"--select-module", module,
		"--reports-dir", p.layout.ReportsDir(space.Name),
	)
}

// test runs module tests, one call at a time, for every built space that
// asks for them. The first failing test run fails its space, and the
// remaining modules of that space are not tested.
func (p *Pipeline) test(ctx context.Context, outcome *Outcome) {
	logger := ctxlog.FromContext(ctx)
	var spaces []model.Space
	for _, name := range outcome.Order {
		space, _ := p.project.Space(name)
		if so, ok := outcome.Space(name); ok && space.Tests && so.Status == dag.StatusDone {
			spaces = append(spaces, space)
		}
	}
	if len(spaces) == 0 {
		return
	}
	if !p.runner.Has(TestTool) {
		logger.Warn("⚠️ No test launcher available, skipping tests.", "tool", TestTool)
		return
	}

	for _, space := range spaces {
		so, _ := outcome.Space(space.Name)
		names := space.ModuleNames()
		calls := make([]toolcall.Call, len(names))
		for i, name := range names {
			calls[i] = p.TestCall(space, name)
		}
		logger.Info("🧪 Running tests.", "space", space.Name, "modules", names)
		results, err := p.runner.RunSequential(ctx, calls)
		for i, res := range results {
			so.Tests = append(so.Tests, TestOutcome{Module: names[i], Result: res})
		}
		if err != nil {
			so.Err, so.Status = err, dag.StatusFailed
			return
		}
		if n := len(results); n > 0 && !results[n-1].Ok() {
			so.Err = &toolcall.ToolFailure{Phase: testPhase, Space: space.Name, Module: names[n-1], Result: results[n-1]}
			so.Status = dag.StatusFailed
		}
	}
}
