// Package registry maps tool names to the providers that execute them. A
// registry is composed from several sources: tools implemented inside the
// process, tools configured explicitly, and executables found on the host.
package registry
