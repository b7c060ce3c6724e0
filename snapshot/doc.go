// Package snapshot writes and restores point-in-time dumps of the store's
// red-black tree. A snapshot plus the entry WAL records after its sequence
// number reproduce the live state.
package snapshot
