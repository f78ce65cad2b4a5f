// Package model holds the immutable project model: declared modules grouped
// into spaces, the project that owns the spaces, and the locations of
// external modules. Values are built with With* methods that return copies.
package model
