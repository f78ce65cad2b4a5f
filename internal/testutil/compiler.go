package testutil

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/vk/strata/internal/toolcall"
)

// FakeCompiler imitates the output layout of the compiler. A call with
// --module writes <d>/<module>/module-info.class for every module plus one
// .class file per source file found on the module's source path. Any other
// call writes one .class file per source file named on the command line.
type FakeCompiler struct {
	// Fail, when set, makes matching calls exit with status 1.
	Fail func(call toolcall.Call) bool

	mu    sync.Mutex
	calls []toolcall.Call
}

func (f *FakeCompiler) Run(_ context.Context, call toolcall.Call, _ io.Writer, stderr io.Writer) (int, error) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()

	if f.Fail != nil && f.Fail(call) {
		fmt.Fprintln(stderr, "error: compilation failed")
		return 1, nil
	}

	args := call.Args()
	out := ArgValue(args, "-d")
	if out == "" {
		fmt.Fprintln(stderr, "error: no output directory")
		return 2, nil
	}
	if modules := ArgValue(args, "--module"); modules != "" {
		for _, m := range strings.Split(modules, ",") {
			if err := write(filepath.Join(out, m, "module-info.class"), "module "+m); err != nil {
				return 1, err
			}
		}
		for _, spec := range ArgValues(args, "--module-source-path") {
			m, dirs, _ := strings.Cut(spec, "=")
			for _, dir := range filepath.SplitList(dirs) {
				if err := compileTree(dir, filepath.Join(out, m)); err != nil {
					return 1, err
				}
			}
		}
		return 0, nil
	}
	release := ArgValue(args, "--release")
	for _, arg := range args {
		if strings.HasSuffix(arg, ".java") {
			name := strings.TrimSuffix(filepath.Base(arg), ".java") + ".class"
			if err := write(filepath.Join(out, name), "release "+release); err != nil {
				return 1, err
			}
		}
	}
	return 0, nil
}

// Calls returns the recorded calls in arrival order.
func (f *FakeCompiler) Calls() []toolcall.Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]toolcall.Call(nil), f.calls...)
}

// ArgValue returns the argument following the first occurrence of flag.
func ArgValue(args []string, flag string) string {
	for i, arg := range args {
		if arg == flag && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

// ArgValues returns the argument following every occurrence of flag.
func ArgValues(args []string, flag string) []string {
	var values []string
	for i, arg := range args {
		if arg == flag && i+1 < len(args) {
			values = append(values, args[i+1])
		}
	}
	return values
}

func compileTree(src, out string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(path, ".java") || d.Name() == "module-info.java" {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		return write(filepath.Join(out, strings.TrimSuffix(rel, ".java")+".class"), "compiled "+rel)
	})
}

func write(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0o644)
}
