package scrape

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/tanahair/water-harvest/internal/domain"
)

// extractJSONRows handles LayoutJSONRows sources (MyEQMS): the document is a
// JSON object with a row array under src.RowsKey. JSON objects carry no key
// order, so columns are sorted per record; the encoder's first-seen rule then
// yields a stable dataset order.
func extractJSONRows(body []byte, src domain.Source, ent domain.Entity) ([]domain.Record, int, error) {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, 0, domain.NewStageError(domain.KindMalformedTable, domain.StageReconcile, src.ID,
			fmt.Errorf("decode json: %w", err))
	}

	if msg, ok := payload["error"]; ok {
		return nil, 0, domain.NewStageError(domain.KindPermanentHTTP, domain.StageReconcile, src.ID,
			fmt.Errorf("api error: %v", msg))
	}

	rawRows, ok := payload[src.RowsKey].([]any)
	if !ok {
		return nil, 0, domain.NewStageError(domain.KindMalformedTable, domain.StageReconcile, src.ID,
			fmt.Errorf("missing %q row array", src.RowsKey))
	}
	if len(rawRows) == 0 {
		return nil, 0, domain.NewStageError(domain.KindEmptyResult, domain.StageReconcile, src.ID,
			fmt.Errorf("zero rows under %q", src.RowsKey))
	}

	scrapedAt := domain.Now().In(domain.MYT).Format(time.RFC3339)

	var records []domain.Record
	dropped := 0
	for _, raw := range rawRows {
		obj, ok := raw.(map[string]any)
		if !ok {
			dropped++
			continue
		}
		records = append(records, jsonRecord(obj, ent, scrapedAt))
	}

	if len(records) == 0 {
		return nil, dropped, domain.NewStageError(domain.KindEmptyResult, domain.StageReconcile, src.ID,
			fmt.Errorf("no decodable rows under %q", src.RowsKey))
	}
	return records, dropped, nil
}

func jsonRecord(obj map[string]any, ent domain.Entity, scrapedAt string) domain.Record {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fields := make([]domain.Field, 0, len(keys)+3)
	fields = append(fields,
		domain.Field{Column: domain.ColStateCode, Value: ent.Code},
		domain.Field{Column: domain.ColStateName, Value: ent.Name},
	)
	for _, k := range keys {
		fields = append(fields, domain.Field{Column: k, Value: stringifyJSON(obj[k])})
	}
	fields = append(fields, domain.Field{Column: domain.ColScrapedAt, Value: scrapedAt})

	return domain.Record{Fields: fields}
}

func stringifyJSON(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	}
}
