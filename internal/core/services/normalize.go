package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"payesh/internal/core/domain"
)

// ErrUnparsablePayload marks a payload that never parsed to a structured
// body. Callers log it and continue with the raw bytes.
var ErrUnparsablePayload = errors.New("payload did not parse to a structured body")

// Normalized is the best-effort structured view of one inbound payload.
// Body is nil when nothing parsed; Raw always holds the original bytes.
type Normalized struct {
	Body map[string]any
	Raw  []byte
}

// NormalizePayload resolves the backend's historical payload shapes, in
// priority order: a JSON-encoded string containing JSON, a structured
// object, or a structured object whose data field is itself a
// JSON-encoded string. Anything else degrades to the raw bytes.
func NormalizePayload(raw []byte) (Normalized, error) {
	trimmed := bytes.TrimSpace(raw)

	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		if body, ok := parseObject([]byte(s)); ok {
			return Normalized{Body: expandData(body), Raw: raw}, nil
		}
		return Normalized{Raw: raw}, ErrUnparsablePayload
	}

	if body, ok := parseObject(trimmed); ok {
		return Normalized{Body: expandData(body), Raw: raw}, nil
	}
	return Normalized{Raw: raw}, ErrUnparsablePayload
}

// Field reads a string-ish value by key, first at the top level, then
// nested under data. Status and message share this nesting rule.
func (n Normalized) Field(key string) (string, bool) {
	if n.Body == nil {
		return "", false
	}
	if s, ok := scalarString(n.Body[key]); ok {
		return s, true
	}
	if nested, ok := n.Body["data"].(map[string]any); ok {
		if s, ok := scalarString(nested[key]); ok {
			return s, true
		}
	}
	return "", false
}

// Canonical returns deterministic bytes for fingerprinting: the
// re-marshalled body when one parsed (map keys sort stably), the raw
// payload otherwise.
func (n Normalized) Canonical() []byte {
	if n.Body != nil {
		if data, err := json.Marshal(n.Body); err == nil {
			return data
		}
	}
	return n.Raw
}

// Classify extracts the status field and maps it to a business outcome.
// Status matches case-insensitively by substring; when the payload
// carries no usable status the event name itself is matched instead.
func Classify(eventName string, n Normalized) domain.Classification {
	if status, ok := n.Field("status"); ok && status != "" {
		if c := classifyText(status); c != domain.ClassOther {
			return c
		}
	}
	if c := classifyText(eventName); c != domain.ClassOther {
		return c
	}
	return domain.ClassOther
}

func classifyText(s string) domain.Classification {
	ls := strings.ToLower(s)
	switch {
	case strings.Contains(ls, "reject"),
		strings.Contains(ls, "error"),
		strings.Contains(ls, "fail"):
		return domain.ClassRejected
	case strings.Contains(ls, "approve"),
		strings.Contains(ls, "success"),
		strings.Contains(ls, "generat"):
		return domain.ClassApproved
	default:
		return domain.ClassOther
	}
}

func parseObject(data []byte) (map[string]any, bool) {
	var body map[string]any
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, false
	}
	return body, true
}

// expandData unpacks a data field that arrives as a JSON-encoded string.
func expandData(body map[string]any) map[string]any {
	if inner, ok := body["data"].(string); ok {
		if nested, ok := parseObject([]byte(inner)); ok {
			body["data"] = nested
		}
	}
	return body
}

func scalarString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(t), true
	default:
		return "", false
	}
}
