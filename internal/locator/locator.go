// Package locator answers "where can module M be fetched from?". Locators
// are composed into an ordered chain; the first one that knows wins.
package locator

import (
	"context"
	"fmt"
	"strings"

	"github.com/vk/strata/internal/model"
)

// Locator maps a module name to a location. It returns ok=false when it
// has no opinion, and an error only when it could not decide.
type Locator interface {
	Name() string
	Locate(ctx context.Context, module string) (loc model.ExternalModuleLocation, ok bool, err error)
}

// Composite consults its delegates in order and returns the first location
// found.
type Composite struct {
	delegates []Locator
}

func NewComposite(delegates ...Locator) *Composite {
	var flat []Locator
	for _, d := range delegates {
		if d != nil {
			flat = append(flat, d)
		}
	}
	return &Composite{delegates: flat}
}

func (c *Composite) Name() string {
	return "composite[" + strings.Join(c.Names(), ", ") + "]"
}

// Names returns the delegate names in consultation order.
func (c *Composite) Names() []string {
	names := make([]string, len(c.delegates))
	for i, d := range c.delegates {
		names[i] = d.Name()
	}
	return names
}

func (c *Composite) Locate(ctx context.Context, module string) (model.ExternalModuleLocation, bool, error) {
	for _, d := range c.delegates {
		loc, ok, err := d.Locate(ctx, module)
		if err != nil {
			return model.ExternalModuleLocation{}, false, fmt.Errorf("locator %s: %w", d.Name(), err)
		}
		if ok {
			if loc.Module == "" {
				loc.Module = module
			}
			return loc, true, nil
		}
	}
	return model.ExternalModuleLocation{}, false, nil
}

// Direct is a fixed table of locations, typically written by hand in the
// project configuration.
type Direct struct {
	name  string
	table map[string]model.ExternalModuleLocation
}

func NewDirect(name string, locations ...model.ExternalModuleLocation) *Direct {
	table := make(map[string]model.ExternalModuleLocation, len(locations))
	for _, loc := range locations {
		table[loc.Module] = loc
	}
	return &Direct{name: name, table: table}
}

func (d *Direct) Name() string {
	return d.name
}

func (d *Direct) Locate(_ context.Context, module string) (model.ExternalModuleLocation, bool, error) {
	loc, ok := d.table[module]
	return loc, ok, nil
}
