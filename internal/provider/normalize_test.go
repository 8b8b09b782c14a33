package provider

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeListShapes(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantIDs []string
	}{
		{
			name:    "bare array",
			body:    `[{"conversation_id":"c1"},{"conversation_id":"c2"}]`,
			wantIDs: []string{"c1", "c2"},
		},
		{
			name:    "data wrapper",
			body:    `{"data":[{"conversation_id":"c1"}]}`,
			wantIDs: []string{"c1"},
		},
		{
			name:    "results wrapper",
			body:    `{"results":[{"conversation_id":"c1"}]}`,
			wantIDs: []string{"c1"},
		},
		{
			name:    "conversations wrapper",
			body:    `{"conversations":[{"conversation_id":"c1"}]}`,
			wantIDs: []string{"c1"},
		},
		{
			name:    "bare single record",
			body:    `{"conversation_id":"c1","conversation_url":"https://p/c1"}`,
			wantIDs: []string{"c1"},
		},
		{
			name:    "record under data",
			body:    `{"data":{"conversation_id":"c1"}}`,
			wantIDs: []string{"c1"},
		},
		{
			name:    "record under result",
			body:    `{"result":{"id":"c1"}}`,
			wantIDs: []string{"c1"},
		},
		{
			name:    "record under conversation",
			body:    `{"conversation":{"conversation_id":"c1"}}`,
			wantIDs: []string{"c1"},
		},
		{
			name:    "first array-valued field",
			body:    `{"total":2,"items":[{"conversation_id":"c1"},{"conversation_id":"c2"}]}`,
			wantIDs: []string{"c1", "c2"},
		},
		{
			name:    "first record-valued field",
			body:    `{"meta":"x","payload":{"id":"c9"}}`,
			wantIDs: []string{"c9"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := normalizeList([]byte(tt.body))
			require.NoError(t, err)
			ids := make([]string, len(records))
			for i, r := range records {
				ids[i] = r.ID
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestNormalizeListUnmatchedShape(t *testing.T) {
	for _, body := range []string{
		`{"message":"ok"}`,
		`"just a string"`,
		`42`,
		`null`,
	} {
		_, err := normalizeList([]byte(body))
		var malformed *MalformedResponseError
		require.ErrorAs(t, err, &malformed, "body %s", body)
	}
}

func TestNormalizeListDiscardsIDless(t *testing.T) {
	body := `[{"conversation_id":"c1"},{"conversation_url":"https://p/x"},{"conversation_id":""}]`
	records, err := normalizeList([]byte(body))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "c1", records[0].ID)
}

func TestNormalizeFieldAliases(t *testing.T) {
	body := `{"data":[
		{"id":"a1","url":"https://x","created":"2024-01-01T00:00:00Z"},
		{"conversation_id":"a2","conversation_url":"https://y","createdAt":"2024-02-01T00:00:00Z","name":"second"}
	]}`
	records, err := normalizeList([]byte(body))
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "a1", records[0].ID)
	assert.Equal(t, "https://x", records[0].URL)
	assert.Equal(t, "2024-01-01T00:00:00Z", records[0].CreatedAt)
	assert.Equal(t, "unknown", records[0].Status, "empty status defaults to unknown")

	assert.Equal(t, "a2", records[1].ID)
	assert.Equal(t, "second", records[1].Name)
	assert.Equal(t, "2024-02-01T00:00:00Z", records[1].CreatedAt)
}

// Feeding an already-canonical list back through normalization must yield
// the same list.
func TestNormalizeIdempotent(t *testing.T) {
	canonical := []Record{
		{ID: "c1", URL: "https://p/c1", Name: "one", Status: "active", CreatedAt: "2024-01-01T00:00:00Z"},
		{ID: "c2", URL: "https://p/c2", Name: "two", Status: "ended", CreatedAt: "2024-02-01T00:00:00Z"},
	}
	body, err := json.Marshal(canonical)
	require.NoError(t, err)

	records, err := normalizeList(body)
	require.NoError(t, err)
	assert.Equal(t, canonical, records)
}

func TestRecordCreatedTime(t *testing.T) {
	noon := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name      string
		createdAt string
		want      time.Time
	}{
		{"rfc3339", "2024-03-01T12:00:00Z", noon},
		{"no zone", "2024-03-01T12:00:00", noon},
		{"numeric offset without colon", "2024-03-01T12:00:00+0000", noon},
		{"space separated", "2024-03-01 12:00:00", noon},
		{"date only", "2024-03-01", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
		{"garbage", "not a date", time.Time{}},
		{"empty", "", time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Record{CreatedAt: tt.createdAt}.CreatedTime()
			assert.True(t, got.Equal(tt.want), "got %v, want %v", got, tt.want)
		})
	}
}
