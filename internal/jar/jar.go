// Package jar is an in-process implementation of the archive tool. It
// understands the subset of options the build emits and writes
// deterministic archives: entries keep command-line order, every timestamp
// is fixed, and a duplicate entry is dropped in favor of the first.
package jar

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/vk/strata/internal/fsutil"
	"github.com/vk/strata/internal/registry"
	"github.com/vk/strata/internal/toolcall"
)

// ToolName is the name the provider registers under.
const ToolName = "jar"

// epoch is stamped on every entry so that equal inputs give equal archives.
var epoch = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// Module registers the in-process archive tool unless another provider
// already claimed the name.
type Module struct{}

func (Module) Register(r *registry.Registry) {
	r.RegisterIfAbsent(ToolName, "builtin", Tool{})
}

// Tool is the archive tool provider.
type Tool struct{}

type content struct {
	dir  string
	path string
}

type section struct {
	release  int
	contents []content
}

type options struct {
	create    bool
	file      string
	mainClass string
	version   string
	sections  []section
}

func (Tool) Run(ctx context.Context, call toolcall.Call, stdout, stderr io.Writer) (int, error) {
	opts, err := parse(call.Args())
	if err != nil {
		fmt.Fprintf(stderr, "jar: %v\n", err)
		return 2, nil
	}
	if err := write(ctx, opts, stderr); err != nil {
		fmt.Fprintf(stderr, "jar: %v\n", err)
		return 1, nil
	}
	return 0, nil
}

func parse(args []string) (*options, error) {
	opts := &options{sections: []section{{release: 0}}}
	value := func(i *int, name string) (string, error) {
		if *i+1 >= len(args) {
			return "", fmt.Errorf("option %s requires a value", name)
		}
		*i++
		return args[*i], nil
	}

	for i := 0; i < len(args); i++ {
		arg := args[i]
		name, inline, hasInline := strings.Cut(arg, "=")
		if !strings.HasPrefix(arg, "--") {
			name, hasInline = arg, false
		}
		get := func() (string, error) {
			if hasInline {
				return inline, nil
			}
			return value(&i, name)
		}

		var err error
		switch name {
		case "--create", "-c":
			opts.create = true
		case "--file", "-f":
			opts.file, err = get()
		case "--main-class", "-e":
			opts.mainClass, err = get()
		case "--module-version":
			opts.version, err = get()
		case "--release":
			var v string
			if v, err = get(); err == nil {
				n, convErr := strconv.Atoi(v)
				if convErr != nil || n < 9 {
					return nil, fmt.Errorf("invalid release %q", v)
				}
				opts.sections = append(opts.sections, section{release: n})
			}
		case "-C":
			var dir, p string
			if dir, err = value(&i, "-C"); err == nil {
				p, err = value(&i, "-C")
			}
			last := &opts.sections[len(opts.sections)-1]
			last.contents = append(last.contents, content{dir: dir, path: p})
		default:
			return nil, fmt.Errorf("unsupported option %q", arg)
		}
		if err != nil {
			return nil, err
		}
	}
	if !opts.create {
		return nil, errors.New("only --create is supported")
	}
	if opts.file == "" {
		return nil, errors.New("--file is required")
	}
	return opts, nil
}

func (o *options) manifest() []byte {
	var b strings.Builder
	b.WriteString("Manifest-Version: 1.0\r\n")
	b.WriteString("Created-By: strata\r\n")
	if o.mainClass != "" {
		b.WriteString("Main-Class: " + o.mainClass + "\r\n")
	}
	if len(o.sections) > 1 {
		b.WriteString("Multi-Release: true\r\n")
	}
	b.WriteString("\r\n")
	return []byte(b.String())
}

func write(ctx context.Context, o *options, stderr io.Writer) error {
	tmp := fsutil.TempPath(o.file)
	if err := os.MkdirAll(filepath.Dir(o.file), 0o755); err != nil {
		return err
	}
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = f.Close()
			_ = os.Remove(tmp)
		}
	}()

	zw := zip.NewWriter(f)
	seen := map[string]bool{}
	add := func(name string, open func() (io.ReadCloser, error)) error {
		if seen[name] {
			fmt.Fprintf(stderr, "jar: warning: duplicate entry %s ignored\n", name)
			return nil
		}
		seen[name] = true
		w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate, Modified: epoch})
		if err != nil {
			return err
		}
		rc, err := open()
		if err != nil {
			return err
		}
		defer rc.Close()
		_, err = io.Copy(w, rc)
		return err
	}

	manifest := o.manifest()
	if err := add("META-INF/MANIFEST.MF", func() (io.ReadCloser, error) {
		return io.NopCloser(strings.NewReader(string(manifest))), nil
	}); err != nil {
		return err
	}

	for _, s := range o.sections {
		prefix := ""
		if s.release > 0 {
			prefix = "META-INF/versions/" + strconv.Itoa(s.release) + "/"
		}
		for _, c := range s.contents {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := addTree(c, prefix, add); err != nil {
				return err
			}
		}
	}

	if err := zw.Close(); err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	if err := fsutil.Publish(tmp, o.file); err != nil {
		return err
	}
	committed = true
	return nil
}

// addTree adds dir/path (a file or a directory walked in lexical order)
// under prefix, naming entries relative to dir.
func addTree(c content, prefix string, add func(string, func() (io.ReadCloser, error)) error) error {
	root := filepath.Join(c.dir, c.path)
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("%s: no such file or directory", root)
	}
	if !info.IsDir() {
		return add(prefix+filepath.ToSlash(filepath.Clean(c.path)), func() (io.ReadCloser, error) { return os.Open(root) })
	}
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(c.dir, p)
		if err != nil {
			return err
		}
		name := path.Clean(filepath.ToSlash(rel))
		return add(prefix+name, func() (io.ReadCloser, error) { return os.Open(p) })
	})
}
