package model

import (
	"fmt"
	"io"
	"strings"
)

// Describer writes an indented, line-oriented description of the model.
type Describer struct {
	w     io.Writer
	depth int
}

func NewDescriber(w io.Writer) *Describer {
	return &Describer{w: w}
}

// Line writes one formatted line at the current depth.
func (d *Describer) Line(format string, args ...any) {
	fmt.Fprintf(d.w, "%s%s\n", strings.Repeat("  ", d.depth), fmt.Sprintf(format, args...))
}

// Nest runs fn one level deeper.
func (d *Describer) Nest(fn func()) {
	d.depth++
	defer func() { d.depth-- }()
	fn()
}

func (p Project) Describe(d *Describer) {
	d.Line("project %s %s", p.Name, p.Version)
	d.Nest(func() {
		if len(p.Requires) > 0 {
			d.Line("requires %s", strings.Join(p.Requires, ", "))
		}
		for _, s := range p.Spaces {
			s.Describe(d)
		}
	})
}

func (s Space) Describe(d *Describer) {
	d.Line("space %s", s.Name)
	d.Nest(func() {
		if len(s.Requires) > 0 {
			d.Line("requires spaces %s", strings.Join(s.Requires, ", "))
		}
		if s.Release > 0 {
			d.Line("release %d", s.Release)
		}
		if s.Launcher != "" {
			d.Line("launcher %s", s.Launcher)
		}
		for _, m := range s.Modules {
			m.Describe(d)
		}
	})
}

func (m DeclaredModule) Describe(d *Describer) {
	d.Line("module %s", m.Name)
	d.Nest(func() {
		if len(m.Requires) > 0 {
			d.Line("requires %s", strings.Join(m.Requires, ", "))
		}
		d.Line("sources %s", strings.Join(m.SourcesFor(BaseRelease), ", "))
		for _, r := range m.OverlayReleases() {
			if src := m.SourcesFor(r); len(src) > 0 {
				d.Line("sources[%d] %s", r, strings.Join(src, ", "))
			}
			if res := m.ResourcesFor(r); len(res) > 0 {
				d.Line("resources[%d] %s", r, strings.Join(res, ", "))
			}
		}
		if res := m.ResourcesFor(BaseRelease); len(res) > 0 {
			d.Line("resources %s", strings.Join(res, ", "))
		}
		if m.MainClass != "" {
			d.Line("main-class %s", m.MainClass)
		}
	})
}
