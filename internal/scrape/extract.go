package scrape

import (
	"errors"
	"fmt"

	"github.com/tanahair/water-harvest/internal/domain"
)

// Extract runs the locate→reconcile→normalize chain over one fetched
// document for one (entity, source) pair. It returns the normalized records
// and the count of structurally rejected rows. All failures come back as
// typed stage errors; an extraction that accepts zero rows is an EmptyResult
// failure, never a zero-row success.
func Extract(body []byte, src domain.Source, ent domain.Entity) ([]domain.Record, int, error) {
	if src.Layout == domain.LayoutJSONRows {
		return extractJSONRows(body, src, ent)
	}

	doc, err := ParseDocument(body)
	if err != nil {
		return nil, 0, domain.NewStageError(domain.KindMalformedTable, domain.StageLocate, src.ID,
			fmt.Errorf("parse document: %w", err))
	}

	table, err := LocateTable(doc, src.HintTokens)
	if err != nil {
		if errors.Is(err, ErrNoTables) {
			return nil, 0, domain.NewStageError(domain.KindTableNotFound, domain.StageLocate, src.ID, err)
		}
		return nil, 0, domain.NewStageError(domain.KindMalformedTable, domain.StageLocate, src.ID, err)
	}

	schema, rows, err := Reconcile(table, src)
	if err != nil {
		return nil, 0, domain.NewStageError(domain.KindMalformedTable, domain.StageReconcile, src.ID, err)
	}

	accepted, dropped := FilterRows(rows, schema, src)
	if len(accepted) == 0 {
		return nil, dropped, domain.NewStageError(domain.KindEmptyResult, domain.StageReconcile, src.ID,
			fmt.Errorf("table present but no rows matched %d columns", schema.Width()))
	}

	records := make([]domain.Record, 0, len(accepted))
	for _, row := range accepted {
		records = append(records, NormalizeRow(row, schema, src, ent))
	}
	return records, dropped, nil
}
