package provider

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Provider responses are untyped JSON whose shape drifts between API
// versions. Normalization runs an ordered list of shape matchers over the
// decoded body; the first match wins. Each matcher is pure: it either yields
// the candidate items or declines.
type shapeMatcher struct {
	name  string
	match func(v any) ([]any, bool)
}

var responseShapes = []shapeMatcher{
	{"bare array", matchBareArray},
	{"wrapped array", matchWrappedArray},
	{"bare record", matchBareRecord},
	{"wrapped record", matchWrappedRecord},
	{"first collection field", matchFirstCollection},
}

func matchBareArray(v any) ([]any, bool) {
	items, ok := v.([]any)
	return items, ok
}

func matchWrappedArray(v any) ([]any, bool) {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, false
	}
	for _, key := range []string{"data", "results", "conversations"} {
		if items, ok := obj[key].([]any); ok {
			return items, true
		}
	}
	return nil, false
}

func matchBareRecord(v any) ([]any, bool) {
	obj, ok := v.(map[string]any)
	if !ok || !looksLikeRecord(obj) {
		return nil, false
	}
	return []any{v}, true
}

func matchWrappedRecord(v any) ([]any, bool) {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, false
	}
	for _, key := range []string{"data", "result", "conversation"} {
		if inner, ok := obj[key].(map[string]any); ok && looksLikeRecord(inner) {
			return []any{obj[key]}, true
		}
	}
	return nil, false
}

// matchFirstCollection scans the object key by key and takes the first
// array-valued or record-valued field as the payload.
func matchFirstCollection(v any) ([]any, bool) {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, false
	}
	for _, key := range sortedKeys(obj) {
		switch inner := obj[key].(type) {
		case []any:
			return inner, true
		case map[string]any:
			if looksLikeRecord(inner) {
				return []any{inner}, true
			}
		}
	}
	return nil, false
}

func looksLikeRecord(obj map[string]any) bool {
	return stringField(obj, "conversation_id", "id") != ""
}

// normalizeList decodes body and normalizes it into canonical records.
// Items without a usable conversation id are discarded.
func normalizeList(body []byte) ([]Record, error) {
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, &MalformedResponseError{Hint: fmt.Sprintf("invalid JSON: %v", err)}
	}

	for _, shape := range responseShapes {
		items, ok := shape.match(v)
		if !ok {
			continue
		}
		records := make([]Record, 0, len(items))
		for _, item := range items {
			obj, ok := item.(map[string]any)
			if !ok {
				continue
			}
			if rec, ok := recordFromObject(obj); ok {
				records = append(records, rec)
			}
		}
		return records, nil
	}

	return nil, &MalformedResponseError{Hint: describeShape(v)}
}

// normalizeOne runs the same pipeline but expects a single usable record.
func normalizeOne(body []byte) (Record, error) {
	records, err := normalizeList(body)
	if err != nil {
		return Record{}, err
	}
	if len(records) == 0 {
		return Record{}, &MalformedResponseError{Hint: "no usable conversation record in response"}
	}
	return records[0], nil
}

// recordFromObject maps provider field aliases onto the canonical record.
// Returns false when no conversation id is present in any alias.
func recordFromObject(obj map[string]any) (Record, bool) {
	rec := Record{
		ID:        stringField(obj, "conversation_id", "id"),
		URL:       stringField(obj, "conversation_url", "url"),
		Name:      stringField(obj, "conversation_name", "name"),
		Status:    stringField(obj, "status"),
		CreatedAt: stringField(obj, "created_at", "createdAt", "created", "timestamp"),
	}
	if rec.ID == "" {
		return Record{}, false
	}
	if rec.Status == "" {
		rec.Status = "unknown"
	}
	return rec, true
}

// stampMissingCreatedAt fills absent timestamps with a client-side stamp.
// The provider is not trusted to echo created_at back immediately, and a
// missing value would otherwise sort the record as oldest.
func stampMissingCreatedAt(records []Record, stamp string) {
	for i := range records {
		if records[i].CreatedAt == "" {
			records[i].CreatedAt = stamp
		}
	}
}

func stringField(obj map[string]any, keys ...string) string {
	for _, key := range keys {
		if s, ok := obj[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func sortedKeys(obj map[string]any) []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	// Deterministic scan order; Go map iteration is randomized.
	sort.Strings(keys)
	return keys
}

func describeShape(v any) string {
	switch v.(type) {
	case map[string]any:
		return "object with no recognizable payload field"
	case nil:
		return "null body"
	default:
		return fmt.Sprintf("unexpected top-level %T", v)
	}
}
