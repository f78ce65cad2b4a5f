// Package dag is a small directed acyclic graph keyed by string IDs, with a
// concurrent executor that runs a task per node once all of the node's
// dependencies have succeeded.
package dag
