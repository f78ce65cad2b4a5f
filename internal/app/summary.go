package app

import (
	"fmt"
	"time"

	"github.com/gookit/color"
	"github.com/vk/strata/internal/dag"
	"github.com/vk/strata/internal/pipeline"
	"github.com/vk/strata/internal/resolver"
)

// printSummary writes one line per space and a closing verdict.
func (a *App) printSummary(o *pipeline.Outcome) {
	if o.Resolution != nil && o.Resolution.Iterations > 0 {
		fmt.Fprintln(a.outW, color.Info.Sprintf("resolved %d external module(s) in %d pass(es)", len(o.Resolution.Fetched), o.Resolution.Iterations))
	}
	for _, so := range o.Spaces() {
		switch so.Status {
		case dag.StatusDone:
			fmt.Fprintln(a.outW, color.Success.Sprintf("✔ %-12s %d archive(s) %s", so.Space, len(so.Archives), round(so.Duration)))
		case dag.StatusSkipped:
			fmt.Fprintln(a.outW, color.Warn.Sprintf("- %-12s skipped", so.Space))
		default:
			fmt.Fprintln(a.outW, color.Danger.Sprintf("✘ %-12s %v", so.Space, so.Err))
		}
	}
	if o.Ok() {
		fmt.Fprintln(a.outW, color.Success.Sprintf("BUILD OK %s in %s", o.Project, round(o.Duration)))
		return
	}
	fmt.Fprintln(a.outW, color.Danger.Sprintf("BUILD FAILED %s in %s", o.Project, round(o.Duration)))
}

func (a *App) printResolution(res *resolver.Result, took time.Duration) {
	for _, loc := range res.Fetched {
		fmt.Fprintln(a.outW, color.Info.Sprintf("fetched %s", loc))
	}
	fmt.Fprintln(a.outW, color.Success.Sprintf("%d module(s) present after %d pass(es) in %s", len(res.Present), res.Iterations, round(took)))
}

func round(d time.Duration) time.Duration {
	return d.Round(time.Millisecond)
}
