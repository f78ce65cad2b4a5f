// Package toolcall describes a single invocation of an external tool as an
// immutable value. A Call knows nothing about how it is executed; see the
// runner package for that.
package toolcall
