// Package merge implements the incremental merge of a remote snapshot into the local store.
//
// Only remote rows whose issue is strictly greater than the local maximum are kept. They are
// aligned to the local header by position and placed ahead of the existing rows, so a store
// kept newest-first stays newest-first without any re-sorting.
package merge
