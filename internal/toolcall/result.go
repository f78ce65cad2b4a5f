package toolcall

import (
	"fmt"
	"strings"
	"time"
)

// Result is the outcome of running a Call to completion.
type Result struct {
	Call     Call
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
}

// Ok reports whether the tool exited with status zero.
func (r *Result) Ok() bool {
	return r != nil && r.ExitCode == 0
}

// ToolFailure wraps a non-zero exit of a tool with the build location it
// happened in.
type ToolFailure struct {
	Phase  string
	Space  string
	Module string
	Result *Result
}

func (f *ToolFailure) Error() string {
	var where []string
	if f.Space != "" {
		where = append(where, "space "+f.Space)
	}
	if f.Module != "" {
		where = append(where, "module "+f.Module)
	}
	msg := fmt.Sprintf("%s failed: %s exited with status %d", f.Phase, f.Result.Call.Name(), f.Result.ExitCode)
	if len(where) > 0 {
		msg += " (" + strings.Join(where, ", ") + ")"
	}
	if stderr := strings.TrimSpace(f.Result.Stderr); stderr != "" {
		msg += ": " + firstLine(stderr)
	}
	return msg
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
