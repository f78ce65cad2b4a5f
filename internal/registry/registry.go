package registry

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/vk/strata/internal/ctxlog"
	"github.com/vk/strata/internal/toolcall"
)

// Provider executes calls for one tool. It returns the exit status of the
// tool; err is reserved for failures to run it at all.
type Provider interface {
	Run(ctx context.Context, call toolcall.Call, stdout, stderr io.Writer) (exitCode int, err error)
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func(ctx context.Context, call toolcall.Call, stdout, stderr io.Writer) (int, error)

func (f ProviderFunc) Run(ctx context.Context, call toolcall.Call, stdout, stderr io.Writer) (int, error) {
	return f(ctx, call, stdout, stderr)
}

// Module is a source of tools that registers itself into a registry.
type Module interface {
	Register(r *Registry)
}

type entry struct {
	provider Provider
	source   string
}

// Registry holds the tool providers of a single application instance.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]entry
}

// New creates and initializes a new Registry instance.
func New() *Registry {
	return &Registry{entries: make(map[string]entry)}
}

// Register adds a provider under name. Registering the same name twice is a
// programming error and panics.
func (r *Registry) Register(name, source string, p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.entries[name]; ok {
		panic(fmt.Sprintf("registry: tool %q already registered by %s", name, existing.source))
	}
	r.entries[name] = entry{provider: p, source: source}
}

// RegisterIfAbsent adds a provider unless the name is taken. It reports
// whether the provider was added.
func (r *Registry) RegisterIfAbsent(name, source string, p Provider) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[name]; ok {
		return false
	}
	r.entries[name] = entry{provider: p, source: source}
	return true
}

// Lookup returns the provider for name.
func (r *Registry) Lookup(name string) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	return e.provider, ok
}

// Source returns where the provider for name came from.
func (r *Registry) Source(name string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.entries[name].source
}

// Names returns the registered tool names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks that every required tool has a provider.
func (r *Registry) Validate(ctx context.Context, required ...string) error {
	logger := ctxlog.FromContext(ctx)
	var missing []string
	for _, name := range required {
		if _, ok := r.Lookup(name); !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("no provider for tool(s): %s", strings.Join(missing, ", "))
	}
	for _, name := range required {
		logger.Debug("Tool provider resolved.", "tool", name, "source", r.Source(name))
	}
	return nil
}
