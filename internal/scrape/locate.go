package scrape

import (
	"bytes"
	"errors"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ErrNoTables is returned when a document contains no <table> elements.
var ErrNoTables = errors.New("document contains no tables")

// ParseDocument parses fetched bytes into a DOM document.
func ParseDocument(body []byte) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(bytes.NewReader(body))
}

// LocateTable finds the data table. Strategy: scan tables in document order
// and pick the first whose flattened text contains every hint token. When no
// table matches, fall back to the last table: on these portals the main
// content table tends to come after header and navigation tables.
func LocateTable(doc *goquery.Document, hints []string) (*goquery.Selection, error) {
	tables := doc.Find("table")
	if tables.Length() == 0 {
		return nil, ErrNoTables
	}

	var match *goquery.Selection
	tables.EachWithBreak(func(_ int, table *goquery.Selection) bool {
		text := collapseSpace(table.Text())
		for _, hint := range hints {
			if !strings.Contains(text, hint) {
				return true // keep scanning
			}
		}
		match = table
		return false
	})

	if match != nil {
		return match, nil
	}
	return tables.Last(), nil
}

// collapseSpace trims and collapses all internal whitespace runs (including
// newlines from nested markup) into single spaces.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
