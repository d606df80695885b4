package client

import "encoding/json"

// NormalizeList decodes a list response regardless of which envelope the
// server used: a bare array, {"items": [...]}, or {"data": [...]}. Any
// other shape yields an empty slice. List endpoints moved from bare arrays
// to enveloped pages over time; absorbing both here keeps every call site
// shape-agnostic.
func NormalizeList[T any](body []byte) []T {
	var items []T
	if err := json.Unmarshal(body, &items); err == nil && items != nil {
		return items
	}

	var envelope struct {
		Items json.RawMessage `json:"items"`
		Data  json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return []T{}
	}
	for _, raw := range [][]byte{envelope.Items, envelope.Data} {
		if len(raw) == 0 {
			continue
		}
		var nested []T
		if err := json.Unmarshal(raw, &nested); err == nil && nested != nil {
			return nested
		}
	}
	return []T{}
}
