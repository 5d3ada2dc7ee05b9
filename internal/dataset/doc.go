// Package dataset provides the tabular types shared by the local store and the remote snapshot.
//
// A Dataset is a header plus an ordered list of records. The issue key of a record is an
// optional integer: cells that cannot be read as an integer are treated as absent rather than
// as errors. Datasets are read from and written to CSV files encoded as UTF-8 with a
// byte-order mark, which is what spreadsheet tools expect for non-ASCII headers.
package dataset
