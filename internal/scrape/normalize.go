package scrape

import (
	"sort"
	"time"

	"github.com/tanahair/water-harvest/internal/domain"
)

// NormalizeRow converts an accepted row into a record: entity metadata first,
// then the schema columns zipped positionally against the cells, then any
// color-derived status columns, then the scrape timestamp. Cell texts arrive
// already trimmed and whitespace-collapsed.
func NormalizeRow(row Row, schema domain.TableSchema, src domain.Source, ent domain.Entity) domain.Record {
	fields := make([]domain.Field, 0, schema.Width()+len(src.StatusCells)+3)
	fields = append(fields,
		domain.Field{Column: domain.ColStateCode, Value: ent.Code},
		domain.Field{Column: domain.ColStateName, Value: ent.Name},
	)

	for i, col := range schema.Columns {
		fields = append(fields, domain.Field{Column: col, Value: row.Cells[i]})
	}

	for _, pos := range sortedStatusCells(src.StatusCells) {
		label := ""
		if pos < len(row.Styles) {
			label = domain.StatusForStyle(row.Styles[pos])
		}
		fields = append(fields, domain.Field{Column: src.StatusCells[pos], Value: label})
	}

	fields = append(fields, domain.Field{
		Column: domain.ColScrapedAt,
		Value:  domain.Now().In(domain.MYT).Format(time.RFC3339),
	})

	return domain.Record{Fields: fields}
}

func sortedStatusCells(cells map[int]string) []int {
	positions := make([]int, 0, len(cells))
	for pos := range cells {
		positions = append(positions, pos)
	}
	sort.Ints(positions)
	return positions
}
