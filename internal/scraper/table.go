package scraper

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pfrederiksen/draw-sync/internal/dataset"
)

// maxSpan caps colspan/rowspan values taken from the page
const maxSpan = 1000

// spanCell is a rowspan cell that still covers the next row
type spanCell struct {
	col  int
	text string
	rows int
}

// ParseTable extracts the first <table> of an HTML document. Each <tr> becomes a record
// of whitespace-collapsed cell texts, both <th> and <td>.
func ParseTable(r io.Reader) (*dataset.Dataset, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	table := doc.Find("table").First()
	if table.Length() == 0 {
		return nil, ErrNoTable
	}

	// rows nested in inner tables belong to those tables
	trs := table.Find("tr").FilterFunction(func(_ int, tr *goquery.Selection) bool {
		return tr.Closest("table").IsSelection(table)
	})

	rows := make([][]string, 0, trs.Length())
	var carried []spanCell

	trs.Each(func(_ int, tr *goquery.Selection) {
		row := make([]string, 0)
		var next []spanCell

		take := func(c spanCell) {
			row = append(row, c.text)
			if c.rows > 1 {
				next = append(next, spanCell{col: len(row) - 1, text: c.text, rows: c.rows - 1})
			}
		}

		tr.ChildrenFiltered("th, td").Each(func(_ int, cell *goquery.Selection) {
			for len(carried) > 0 && carried[0].col <= len(row) {
				take(carried[0])
				carried = carried[1:]
			}

			text := cleanText(cell.Text())
			rowspan := spanAttr(cell, "rowspan")
			for i := spanAttr(cell, "colspan"); i > 0; i-- {
				take(spanCell{text: text, rows: rowspan})
			}
		})

		// spans with nothing left of them in this row land at the end
		for _, c := range carried {
			take(c)
		}
		carried = next

		if len(row) > 0 {
			rows = append(rows, row)
		}
	})

	if len(rows) == 0 {
		return nil, ErrEmptyTable
	}

	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}

	ds := dataset.New(dataset.PositionalHeader(width))
	for _, row := range rows {
		rec := make(dataset.Record, width)
		copy(rec, row)
		ds.Append(rec)
	}

	return ds, nil
}

// spanAttr reads a colspan/rowspan attribute, defaulting to 1
func spanAttr(sel *goquery.Selection, name string) int {
	v, ok := sel.Attr(name)
	if !ok {
		return 1
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < 1 {
		return 1
	}
	if n > maxSpan {
		return maxSpan
	}
	return n
}

// cleanText collapses runs of whitespace, including non-breaking spaces, into single spaces
func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
