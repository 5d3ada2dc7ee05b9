// Package syncer runs one incremental update of the local draw history.
//
// A run moves through the phases load, fetch, align, merge and persist. A missing local
// store ends the run before anything is fetched; a remote snapshot with nothing newer than
// the local maximum ends it without writing. Any phase failure is returned as a *PhaseError
// and leaves the local store untouched, because the store is only written once the merged
// dataset is complete in memory.
package syncer
