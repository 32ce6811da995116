package scrape

import (
	"errors"
	"fmt"

	"github.com/PuerkitoBio/goquery"

	"github.com/tanahair/water-harvest/internal/domain"
)

// Row is one candidate data row: collapsed cell texts plus each cell's style
// attribute (a nested <span>'s style wins over the cell's own), kept for
// color-coded status extraction.
type Row struct {
	Cells  []string
	Styles []string
}

var errTooFewRows = errors.New("table has no data rows below its header")

// Reconcile merges a table's header row(s) into an ordered column list per
// the source's layout and extracts the candidate data rows. Rows are not yet
// validated; FilterRows applies the width and index policies.
func Reconcile(table *goquery.Selection, src domain.Source) (domain.TableSchema, []Row, error) {
	switch src.Layout {
	case domain.LayoutDualHeader:
		return reconcileDualHeader(table, src)
	case domain.LayoutGroupedHead:
		return reconcileGroupedHead(table, src)
	default:
		return reconcileSingleHeader(table)
	}
}

// reconcileSingleHeader: the first row is the header, everything below is data.
func reconcileSingleHeader(table *goquery.Selection) (domain.TableSchema, []Row, error) {
	rows := tableRows(table)
	if len(rows) < 2 {
		return domain.TableSchema{}, nil, errTooFewRows
	}
	schema := domain.TableSchema{Columns: rows[0].Cells}
	return schema, rows[1:], nil
}

// reconcileDualHeader: a fixed prefix of labels from row 1, the full date
// block from row 2, and a fixed suffix from row 1's tail. The widths encode
// fixed business columns framing a variable-width middle and are per-source
// constants, never inferred from the page.
func reconcileDualHeader(table *goquery.Selection, src domain.Source) (domain.TableSchema, []Row, error) {
	rows := tableRows(table)
	if len(rows) < 3 {
		return domain.TableSchema{}, nil, errTooFewRows
	}

	top := rows[0].Cells
	bottom := rows[1].Cells
	if len(top) < src.PrefixWidth+src.SuffixWidth {
		return domain.TableSchema{}, nil, fmt.Errorf(
			"header row has %d cells, need at least %d", len(top), src.PrefixWidth+src.SuffixWidth)
	}

	columns := make([]string, 0, len(top)+len(bottom))
	columns = append(columns, top[:src.PrefixWidth]...)
	columns = append(columns, bottom...)
	columns = append(columns, top[len(top)-src.SuffixWidth:]...)

	return domain.TableSchema{Columns: columns}, rows[2:], nil
}

// reconcileGroupedHead: a single <thead> where one group label spans the date
// columns. The label cell sits right after the prefix and is skipped; the
// trailing pair that the markup places before the dates is reordered to the
// end, so the resulting column list matches the dual-header shape:
// prefix, dates, suffix.
func reconcileGroupedHead(table *goquery.Selection, src domain.Source) (domain.TableSchema, []Row, error) {
	var ths []string
	table.Find("thead th").Each(func(_ int, th *goquery.Selection) {
		ths = append(ths, collapseSpace(th.Text()))
	})

	dateStart := src.PrefixWidth + 1 + src.SuffixWidth
	if len(ths) < dateStart {
		return domain.TableSchema{}, nil, fmt.Errorf(
			"thead has %d cells, need at least %d", len(ths), dateStart)
	}

	columns := make([]string, 0, len(ths)-1)
	columns = append(columns, ths[:src.PrefixWidth]...)
	columns = append(columns, ths[dateStart:]...)
	columns = append(columns, ths[src.PrefixWidth+1:dateStart]...)

	// The body under this endpoint does not always close rows cleanly, so
	// cells are collected flat and regrouped by the schema width.
	body := table.Find("tbody")
	if body.Length() == 0 {
		body = table
	}
	var cells []string
	var styles []string
	body.Find("td").Each(func(_ int, td *goquery.Selection) {
		cells = append(cells, collapseSpace(td.Text()))
		styles = append(styles, cellStyle(td))
	})
	if len(cells) == 0 {
		return domain.TableSchema{}, nil, errTooFewRows
	}

	width := len(columns)
	var rows []Row
	for i := 0; i < len(cells); i += width {
		end := i + width
		if end > len(cells) {
			end = len(cells)
		}
		rows = append(rows, Row{Cells: cells[i:end], Styles: styles[i:end]})
	}

	return domain.TableSchema{Columns: columns}, rows, nil
}

// FilterRows applies the acceptance policy: a row is kept only when its cell
// count equals the schema width exactly; mismatched rows are dropped and
// counted rather than silently discarded. Sources with RequireNumericIndex
// additionally skip rows whose first cell is not a row number; those are
// footer and filter rows, not data, and are not counted as drops.
func FilterRows(rows []Row, schema domain.TableSchema, src domain.Source) ([]Row, int) {
	var accepted []Row
	dropped := 0

	for _, row := range rows {
		if len(row.Cells) == 0 {
			continue
		}
		if len(row.Cells) != schema.Width() {
			dropped++
			continue
		}
		if src.RequireNumericIndex && !isDigits(row.Cells[0]) {
			continue
		}
		accepted = append(accepted, row)
	}
	return accepted, dropped
}

// tableRows extracts every <tr> of a table in document order, header rows
// included, with collapsed cell texts and styles.
func tableRows(table *goquery.Selection) []Row {
	var rows []Row
	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		var row Row
		tr.Find("th, td").Each(func(_ int, cell *goquery.Selection) {
			row.Cells = append(row.Cells, collapseSpace(cell.Text()))
			row.Styles = append(row.Styles, cellStyle(cell))
		})
		rows = append(rows, row)
	})
	return rows
}

// cellStyle returns the style attribute carrying a cell's color cue. SPAN
// puts the background on a nested <span> when present, otherwise on the cell.
func cellStyle(cell *goquery.Selection) string {
	if span := cell.Find("span"); span.Length() > 0 {
		if style, ok := span.First().Attr("style"); ok && style != "" {
			return style
		}
	}
	style, _ := cell.Attr("style")
	return style
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
