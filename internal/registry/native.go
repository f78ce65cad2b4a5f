package registry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/vk/strata/internal/toolcall"
)

// Native runs an executable on the host. Options are inserted before the
// call's own arguments.
type Native struct {
	Path    string
	Options []string
	Dir     string
}

func (n *Native) Run(ctx context.Context, call toolcall.Call, stdout, stderr io.Writer) (int, error) {
	args := append(append([]string(nil), n.Options...), call.Args()...)
	cmd := exec.CommandContext(ctx, n.Path, args...)
	cmd.Dir = n.Dir
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	err := cmd.Run()
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && ctx.Err() == nil {
		return exitErr.ExitCode(), nil
	}
	if ctx.Err() != nil {
		return -1, fmt.Errorf("running %s: %w", n.Path, ctx.Err())
	}
	return -1, fmt.Errorf("running %s: %w", n.Path, err)
}

// Discover looks up an executable for tool, first in the bin directory of
// javaHome (if set), then on PATH.
func Discover(tool, javaHome string) (string, bool) {
	if javaHome != "" {
		candidate := filepath.Join(javaHome, "bin", tool)
		if runtime.GOOS == "windows" {
			candidate += ".exe"
		}
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true
		}
	}
	path, err := exec.LookPath(tool)
	if err != nil {
		return "", false
	}
	return path, true
}

// RegisterDiscovered registers a native provider for each tool that is not
// yet registered and can be found on the host.
func (r *Registry) RegisterDiscovered(javaHome string, tools ...string) {
	for _, tool := range tools {
		if _, ok := r.Lookup(tool); ok {
			continue
		}
		if path, ok := Discover(tool, javaHome); ok {
			r.RegisterIfAbsent(tool, "host:"+path, &Native{Path: path})
		}
	}
}
