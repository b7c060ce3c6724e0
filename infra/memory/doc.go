// Package memory holds typed object pools used on hot write paths to keep
// per-mutation allocations down.
package memory
