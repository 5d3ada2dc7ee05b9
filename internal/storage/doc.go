// Package storage provides CSV-based persistence for the local draw history.
//
// The local store is a single CSV file (UTF-8 with byte-order mark) that is read once per run
// and, when new draws were found, overwritten in full. An advisory lock file next to it keeps
// two scheduled runs from interleaving their read and write.
package storage
