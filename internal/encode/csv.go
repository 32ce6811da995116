// Package encode turns an aggregated dataset into its published CSV form.
package encode

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/tanahair/water-harvest/internal/domain"
)

// Dataset encodes the successful results of a dataset as CSV. Column order is
// deterministic: state_code and state_name come first, then every other
// column in first-seen order across results. When no entity succeeded the
// output is a header-only file built from the domain's minimal schema, so a
// fully failed round still publishes a well-formed object.
func Dataset(ds domain.Dataset) ([]byte, error) {
	columns := Columns(ds)

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(columns); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	row := make([]string, len(columns))
	for _, res := range ds.Successes() {
		for _, rec := range res.Records {
			for i, col := range columns {
				v, ok := rec.Get(col)
				if !ok {
					v = ""
				}
				row[i] = v
			}
			if err := w.Write(row); err != nil {
				return nil, fmt.Errorf("write row for %s: %w", res.Entity.Code, err)
			}
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

// Columns computes the published column order for a dataset.
func Columns(ds domain.Dataset) []string {
	columns := []string{domain.ColStateCode, domain.ColStateName}
	seen := map[string]bool{domain.ColStateCode: true, domain.ColStateName: true}

	any := false
	for _, res := range ds.Successes() {
		for _, rec := range res.Records {
			any = true
			for _, col := range rec.Columns() {
				if !seen[col] {
					seen[col] = true
					columns = append(columns, col)
				}
			}
		}
	}
	if !any {
		for _, col := range ds.Domain.MinimalSchema {
			if !seen[col] {
				seen[col] = true
				columns = append(columns, col)
			}
		}
	}
	return columns
}
