package locator

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/url"
	"github.com/vk/strata/internal/ctxlog"
	"github.com/vk/strata/internal/model"
	"gopkg.in/yaml.v3"
)

// Registry locates modules through a shared YAML table published at a URL.
// Each value is either a full URI or a "group:artifact:version[:classifier]"
// coordinate:
//
//	org.lwjgl: org.lwjgl:lwjgl:3.3.3
//	com.example.tool: https://example.com/tool-1.0.jar#version=1.0
//
// The table is downloaded once per Registry and mirrored into cacheURL so
// that a later offline run can still use it.
type Registry struct {
	url        string
	cacheURL   string
	repository string
	fs         afs.Service

	once  sync.Once
	table map[string]string
	err   error
}

func NewRegistry(tableURL, cacheURL, repository string) *Registry {
	if repository == "" {
		repository = MavenCentral
	}
	return &Registry{url: tableURL, cacheURL: cacheURL, repository: repository, fs: afs.New()}
}

func (r *Registry) Name() string {
	return "registry"
}

func (r *Registry) Locate(ctx context.Context, module string) (model.ExternalModuleLocation, bool, error) {
	r.once.Do(func() { r.table, r.err = r.load(ctx) })
	if r.err != nil {
		return model.ExternalModuleLocation{}, false, r.err
	}
	value, ok := r.table[module]
	if !ok {
		return model.ExternalModuleLocation{}, false, nil
	}
	loc, err := r.parse(module, value)
	if err != nil {
		return model.ExternalModuleLocation{}, false, err
	}
	return loc, true, nil
}

func (r *Registry) parse(module, value string) (model.ExternalModuleLocation, error) {
	if strings.Contains(value, "://") {
		uri, fragment, _ := strings.Cut(value, "#")
		loc := model.ExternalModuleLocation{Module: module, URI: uri}
		if v, ok := strings.CutPrefix(fragment, "version="); ok {
			loc.Version = v
		}
		return loc, nil
	}
	coord, err := ParseCoordinate(value)
	if err != nil {
		return model.ExternalModuleLocation{}, fmt.Errorf("registry entry for %s: %w", module, err)
	}
	return coord.Location(module, r.repository), nil
}

func (r *Registry) cacheFile() string {
	if r.cacheURL == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(r.url))
	return url.Join(r.cacheURL, "registry-"+hex.EncodeToString(sum[:8])+".yaml")
}

func (r *Registry) load(ctx context.Context) (map[string]string, error) {
	logger := ctxlog.FromContext(ctx).With("locator", "registry", "url", r.url)
	cached := r.cacheFile()

	data, err := r.fs.DownloadWithURL(ctx, r.url)
	if err != nil {
		if cached == "" {
			return nil, fmt.Errorf("downloading module registry %s: %w", r.url, err)
		}
		logger.Warn("Module registry unreachable, using cached copy.", "error", err)
		data, err = r.fs.DownloadWithURL(ctx, cached)
		if err != nil {
			return nil, fmt.Errorf("module registry %s unreachable and no cached copy: %w", r.url, err)
		}
	} else if cached != "" {
		if err := r.fs.Upload(ctx, cached, file.DefaultFileOsMode, strings.NewReader(string(data))); err != nil {
			logger.Warn("Could not cache module registry.", "error", err)
		}
	}

	table := map[string]string{}
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("parsing module registry %s: %w", r.url, err)
	}
	logger.Debug("Module registry loaded.", "entries", len(table))
	return table, nil
}

// UserCacheDir returns the per-user directory registry tables are mirrored
// into.
func UserCacheDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "strata")
}
