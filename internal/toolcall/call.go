package toolcall

import (
	"fmt"
	"slices"
	"strings"
)

// Call is a tool name plus an ordered argument list. Every builder method
// returns a new Call and leaves the receiver untouched.
type Call struct {
	name string
	args []string
}

// New creates a call to the named tool with the given initial arguments.
func New(name string, args ...string) Call {
	return Call{name: name, args: slices.Clone(args)}
}

// Name returns the tool name.
func (c Call) Name() string {
	return c.name
}

// Args returns a copy of the argument list.
func (c Call) Args() []string {
	return slices.Clone(c.args)
}

// Len returns the number of arguments.
func (c Call) Len() int {
	return len(c.args)
}

// With appends arguments and returns the extended call.
func (c Call) With(args ...string) Call {
	next := make([]string, 0, len(c.args)+len(args))
	next = append(next, c.args...)
	next = append(next, args...)
	return Call{name: c.name, args: next}
}

// WithIf appends arguments only when cond holds.
func (c Call) WithIf(cond bool, args ...string) Call {
	if !cond {
		return c
	}
	return c.With(args...)
}

// WithOption appends a "--key value" pair, skipping it when value is empty.
func (c Call) WithOption(key, value string) Call {
	return c.WithIf(value != "", key, value)
}

// WithEach appends the result of fn for every item, in order.
func WithEach[T any](c Call, items []T, fn func(Call, T) Call) Call {
	for _, item := range items {
		c = fn(c, item)
	}
	return c
}

// Equal reports structural equality: same tool, same arguments in the same order.
func (c Call) Equal(other Call) bool {
	return c.name == other.name && slices.Equal(c.args, other.args)
}

// String renders the call as a shell-like command line.
func (c Call) String() string {
	var b strings.Builder
	b.WriteString(c.name)
	for _, arg := range c.args {
		b.WriteByte(' ')
		b.WriteString(quote(arg))
	}
	return b.String()
}

// Summary renders a short, human-oriented form of the call, keeping at most
// max arguments.
func (c Call) Summary(max int) string {
	if max < 0 || len(c.args) <= max {
		return c.String()
	}
	head := Call{name: c.name, args: c.args[:max]}
	return fmt.Sprintf("%s ... (%d more)", head.String(), len(c.args)-max)
}

func quote(arg string) string {
	if arg == "" {
		return `""`
	}
	if strings.ContainsAny(arg, " \t\"'") {
		return fmt.Sprintf("%q", arg)
	}
	return arg
}
