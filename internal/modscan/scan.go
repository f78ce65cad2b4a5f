package modscan

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zip"
	"github.com/vk/strata/internal/classfile"
	"github.com/vk/strata/internal/ctxlog"
)

const (
	moduleInfoEntry = "module-info.class"
	versionsPrefix  = "META-INF/versions/"
	manifestEntry   = "META-INF/MANIFEST.MF"
)

// Module is what one archive declares about itself.
type Module struct {
	Name     string
	Requires []string
	Path     string
	// Automatic is set when the archive has no compiled declaration.
	Automatic bool
}

// Directory scans every archive directly inside Path.
type Directory struct {
	Path string
}

// Scan implements the resolver's scanner contract. A missing directory is
// an empty snapshot.
func (d Directory) Scan(ctx context.Context) (Snapshot, error) {
	logger := ctxlog.FromContext(ctx)
	entries, err := os.ReadDir(d.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return NewSnapshot(nil), nil
		}
		return Snapshot{}, err
	}

	modules := map[string][]string{}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".jar") || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		m, err := ReadArchive(filepath.Join(d.Path, e.Name()))
		if err != nil {
			return Snapshot{}, err
		}
		if _, dup := modules[m.Name]; dup {
			logger.Warn("Module present in more than one archive.", "module", m.Name, "path", m.Path)
			continue
		}
		modules[m.Name] = m.Requires
	}
	logger.Debug("Scanned external modules.", "dir", d.Path, "count", len(modules))
	return NewSnapshot(modules), nil
}

// ReadArchive inspects one archive. The module name comes from the
// compiled declaration if present, then from the manifest, then from the
// file name. Optional (static) requirements are not reported since they
// are not needed at run time.
func ReadArchive(path string) (Module, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return Module{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer r.Close()

	var root, manifest *zip.File
	versioned := map[int]*zip.File{}
	for _, f := range r.File {
		switch {
		case f.Name == moduleInfoEntry:
			root = f
		case f.Name == manifestEntry:
			manifest = f
		case strings.HasPrefix(f.Name, versionsPrefix) && strings.HasSuffix(f.Name, "/"+moduleInfoEntry):
			v := strings.TrimSuffix(strings.TrimPrefix(f.Name, versionsPrefix), "/"+moduleInfoEntry)
			if n, err := strconv.Atoi(v); err == nil {
				versioned[n] = f
			}
		}
	}
	if root == nil && len(versioned) > 0 {
		releases := make([]int, 0, len(versioned))
		for n := range versioned {
			releases = append(releases, n)
		}
		sort.Ints(releases)
		root = versioned[releases[0]]
	}

	if root != nil {
		data, err := readEntry(root)
		if err != nil {
			return Module{}, fmt.Errorf("%s: %w", path, err)
		}
		info, err := classfile.ParseModuleInfo(data)
		if err != nil {
			return Module{}, fmt.Errorf("%s: %w", path, err)
		}
		m := Module{Name: info.Name, Path: path}
		for _, req := range info.Requires {
			if req.Static() || req.Mandated() {
				continue
			}
			m.Requires = append(m.Requires, req.Name)
		}
		return m, nil
	}

	if manifest != nil {
		data, err := readEntry(manifest)
		if err != nil {
			return Module{}, fmt.Errorf("%s: %w", path, err)
		}
		if name := manifestAttribute(data, "Automatic-Module-Name"); name != "" {
			return Module{Name: name, Path: path, Automatic: true}, nil
		}
	}
	return Module{Name: AutomaticName(filepath.Base(path)), Path: path, Automatic: true}, nil
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func manifestAttribute(data []byte, key string) string {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		k, v, ok := strings.Cut(line, ":")
		if ok && strings.EqualFold(strings.TrimSpace(k), key) {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

var (
	versionSuffix = regexp.MustCompile(`-(\d+(\.|$))`)
	nonAlnum      = regexp.MustCompile(`[^A-Za-z0-9]`)
	repeatedDots  = regexp.MustCompile(`\.{2,}`)
)

// AutomaticName derives a module name from an archive file name the way
// the platform names automatic modules: drop the extension and any version
// suffix, then turn every run of other characters into a single dot.
func AutomaticName(fileName string) string {
	name := strings.TrimSuffix(fileName, ".jar")
	if loc := versionSuffix.FindStringIndex(name); loc != nil {
		name = name[:loc[0]]
	}
	name = nonAlnum.ReplaceAllString(name, ".")
	name = repeatedDots.ReplaceAllString(name, ".")
	return strings.Trim(name, ".")
}
