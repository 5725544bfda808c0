package knowledge

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Read converts a structured JSON record into retrievable documents, one
// document per top-level JSON element: an object yields a single document,
// an array yields one document per entry.
//
// Each document's content is a stable "key: value" line rendering of the
// element, and its ID is derived from that content so re-ingesting the same
// record upserts rather than duplicates.
func Read(record json.RawMessage) ([]Document, error) {
	var top any
	if err := json.Unmarshal(record, &top); err != nil {
		return nil, fmt.Errorf("parsing record: %w", err)
	}

	var elements []any
	switch v := top.(type) {
	case []any:
		if len(v) == 0 {
			return nil, fmt.Errorf("record is an empty array")
		}
		elements = v
	default:
		elements = []any{v}
	}

	docs := make([]Document, 0, len(elements))
	for i, el := range elements {
		content := renderElement(el)
		if strings.TrimSpace(content) == "" {
			return nil, fmt.Errorf("record element %d has no textual content", i)
		}
		docs = append(docs, Document{
			ID:      contentID(content),
			Content: content,
		})
	}
	return docs, nil
}

// renderElement flattens a decoded JSON element into "key: value" lines with
// deterministic key order. Scalars render as their plain string form.
func renderElement(el any) string {
	obj, ok := el.(map[string]any)
	if !ok {
		return renderValue(el)
	}

	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(renderValue(obj[k]))
		b.WriteString("\n")
	}
	return b.String()
}

func renderValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			parts = append(parts, renderValue(item))
		}
		return strings.Join(parts, ", ")
	case map[string]any:
		// Nested objects keep their JSON form; they are rare in ingestion
		// payloads and round-trip losslessly this way.
		raw, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprintf("%v", t)
		}
		return string(raw)
	case float64:
		// encoding/json decodes all numbers as float64; trim the trailing
		// ".0" for integral values.
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%g", t)
	default:
		return fmt.Sprintf("%v", t)
	}
}

// contentID derives a stable document ID from content.
func contentID(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:16])
}
