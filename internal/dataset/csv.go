package dataset

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var (
	// ErrEmpty is returned when a CSV input has no header row
	ErrEmpty = errors.New("dataset has no header row")
	// ErrInvalidUTF8 is returned when a CSV input is not valid UTF-8
	ErrInvalidUTF8 = errors.New("input is not valid UTF-8")
)

var utf8BOM = []byte("\xef\xbb\xbf")

// ReadCSV parses a CSV document with a header row. A leading UTF-8 byte-order mark is
// stripped. Rows may be ragged: short rows are padded with empty cells. Input that is not
// valid UTF-8 is rejected rather than repaired, so no cell is altered on the next write.
func ReadCSV(r io.Reader) (*Dataset, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}
	if !utf8.Valid(bytes.TrimPrefix(raw, utf8BOM)) {
		return nil, ErrInvalidUTF8
	}

	decoded := transform.NewReader(bytes.NewReader(raw), unicode.UTF8BOM.NewDecoder())

	reader := csv.NewReader(decoded)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, ErrEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	ds := New(header)
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading row %d: %w", ds.Len()+1, err)
		}
		ds.Append(pad(row, ds.Width()))
	}

	return ds, nil
}

// WriteCSV writes the dataset as UTF-8 with a byte-order mark, header first
func WriteCSV(w io.Writer, ds *Dataset) error {
	encoded := transform.NewWriter(w, unicode.UTF8BOM.NewEncoder())

	writer := csv.NewWriter(encoded)
	if err := writer.Write(ds.Header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, r := range ds.Records {
		if err := writer.Write(r); err != nil {
			return fmt.Errorf("writing row %d: %w", i+1, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flushing csv: %w", err)
	}

	return encoded.Close()
}

// pad extends a row with empty cells up to width
func pad(row []string, width int) Record {
	if len(row) >= width {
		return Record(row)
	}
	out := make(Record, width)
	copy(out, row)
	return out
}
