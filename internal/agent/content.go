package agent

import (
	"bytes"
	"encoding/json"
	"strings"
)

// chunkProbeOrder is the field priority when resolving an object chunk to
// text. The order matters for ambiguous payloads and must stay fixed.
var chunkProbeOrder = []string{"text", "content", "value"}

// normalizeContent resolves an upstream content payload to a single string.
// It is total: any shape it does not recognize becomes the empty string.
func normalizeContent(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return ""
	}

	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		return s
	}

	var chunks []json.RawMessage
	if err := json.Unmarshal(trimmed, &chunks); err == nil {
		return joinChunks(chunks)
	}

	// An object is only meaningful through its "text" field, which may
	// itself be a string or a chunk array.
	var obj struct {
		Text json.RawMessage `json:"text"`
	}
	if err := json.Unmarshal(trimmed, &obj); err == nil && len(obj.Text) > 0 {
		var text string
		if err := json.Unmarshal(obj.Text, &text); err == nil {
			return text
		}
		var nested []json.RawMessage
		if err := json.Unmarshal(obj.Text, &nested); err == nil {
			return joinChunks(nested)
		}
	}

	return ""
}

// joinChunks resolves each chunk and joins the non-empty results with a
// newline.
func joinChunks(chunks []json.RawMessage) string {
	parts := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		if part := normalizeChunk(chunk); part != "" {
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, "\n")
}

// normalizeChunk resolves a single content chunk. String chunks pass
// through; object chunks are probed for the first string-valued field in
// chunkProbeOrder; everything else contributes an empty string.
func normalizeChunk(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return ""
	}
	for _, key := range chunkProbeOrder {
		if v, ok := fields[key]; ok {
			var text string
			if err := json.Unmarshal(v, &text); err == nil {
				return text
			}
		}
	}
	return ""
}
