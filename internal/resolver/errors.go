package resolver

import (
	"fmt"
	"strings"
)

// UnresolvableDependencyError is returned when no locator knows a missing
// module.
type UnresolvableDependencyError struct {
	Module   string
	Locators []string
}

func (e *UnresolvableDependencyError) Error() string {
	return fmt.Sprintf("module %s not found by any locator (consulted: %s)", e.Module, strings.Join(e.Locators, ", "))
}

// NonConvergenceError is returned when a pass ends with the same missing
// set it started with, i.e. fetching made no progress.
type NonConvergenceError struct {
	Missing    []string
	Iterations int
}

func (e *NonConvergenceError) Error() string {
	return fmt.Sprintf("dependency resolution made no progress after %d iteration(s); still missing: %s",
		e.Iterations, strings.Join(e.Missing, ", "))
}
