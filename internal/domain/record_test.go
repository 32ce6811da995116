package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tanahair/water-harvest/internal/domain"
)

func TestRecord_Get(t *testing.T) {
	rec := domain.Record{Fields: []domain.Field{
		{Column: "state_code", Value: "JHR"},
		{Column: "Nama Stesen", Value: "Sungai Segamat"},
	}}

	v, ok := rec.Get("Nama Stesen")
	require.True(t, ok)
	assert.Equal(t, "Sungai Segamat", v)

	_, ok = rec.Get("missing")
	assert.False(t, ok)
}

func TestRecord_MarshalJSON_PreservesOrder(t *testing.T) {
	rec := domain.Record{Fields: []domain.Field{
		{Column: "state_code", Value: "JHR"},
		{Column: "Bil.", Value: "1"},
		{Column: "Nama \"Stesen\"", Value: "a,b"},
	}}

	data, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.Equal(t, `{"state_code":"JHR","Bil.":"1","Nama \"Stesen\"":"a,b"}`, string(data))
}

func TestHarvestResult_FailureReason(t *testing.T) {
	res := domain.HarvestResult{
		Attempts: []domain.Attempt{
			{SourceID: "infobanjir-page", Err: domain.NewStageError(
				domain.KindPermanentHTTP, domain.StageFetch, "infobanjir-page",
				assertErr("status 404"))},
			{SourceID: "infobanjir-data", Err: domain.NewStageError(
				domain.KindEmptyResult, domain.StageNormalize, "infobanjir-data",
				assertErr("no usable rows"))},
		},
	}

	assert.False(t, res.Succeeded())
	assert.Equal(t,
		"infobanjir-page: fetch: permanent_http: status 404; infobanjir-data: normalize: empty_result: no usable rows",
		res.FailureReason())
}

func TestHarvestResult_Succeeded(t *testing.T) {
	ok := domain.HarvestResult{
		SourceUsed: "infobanjir-page",
		Records:    []domain.Record{{Fields: []domain.Field{{Column: "a", Value: "1"}}}},
	}
	assert.True(t, ok.Succeeded())

	// A source that yielded zero records is not a success.
	empty := domain.HarvestResult{SourceUsed: "infobanjir-page"}
	assert.False(t, empty.Succeeded())
}

type assertErr string

func (e assertErr) Error() string { return string(e) }
