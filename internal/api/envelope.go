package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// The platform serializes resources through an XML-to-JSON bridge: keys are
// namespace-prefixed ("ns1.name"), attributes are "@"-prefixed, and scalar
// text lands under "$". This file normalizes that shape into plain maps
// before field mapping.

// Identity is a resource's identity block: id, optimistic-concurrency
// version token, and canonical URL.
type Identity struct {
	ID      string
	Version string
	URL     string
}

// stripNS removes the namespace prefix from a key ("ns1.name" -> "name").
// Attribute keys ("@xsi.type") are kept whole.
func stripNS(key string) string {
	if strings.HasPrefix(key, "@") {
		return key
	}
	if i := strings.Index(key, "."); i >= 0 {
		return key[i+1:]
	}
	return key
}

// normalize recursively rewrites namespace-prefixed keys.
func normalize(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[stripNS(k)] = normalize(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalize(item)
		}
		return out
	default:
		return v
	}
}

// firstObject unwraps the single-element-array convention: a value may be an
// object or a one-element array holding it.
func firstObject(v any) (map[string]any, bool) {
	switch val := v.(type) {
	case map[string]any:
		return val, true
	case []any:
		if len(val) > 0 {
			if m, ok := val[0].(map[string]any); ok {
				return m, true
			}
		}
	}
	return nil, false
}

// parseIdentity reads a resourceIdentity block.
func parseIdentity(v any) *Identity {
	m, ok := firstObject(v)
	if !ok {
		return nil
	}
	return &Identity{
		ID:      toString(m["@id"]),
		Version: toString(m["@version"]),
		URL:     toString(m["@url"]),
	}
}

// decodeResource decodes a single-resource response body into out and
// returns the resource identity, if the body carried one. An empty body
// (204 No Content) leaves out untouched.
func decodeResource(data []byte, typeName string, out any) (*Identity, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	m, ok := resourceObject(normalize(raw), typeName)
	if !ok {
		return nil, fmt.Errorf("response is not a %s object", typeName)
	}

	ident := parseIdentity(m["resourceIdentity"])
	if err := setFields(out, m); err != nil {
		return nil, err
	}
	return ident, nil
}

// resourceObject unwraps the optional {"<typename>":[{...}]} wrapper around
// a single resource.
func resourceObject(v any, typeName string) (map[string]any, bool) {
	m, ok := firstObject(v)
	if !ok {
		return nil, false
	}
	if inner, present := m[typeName]; present {
		if im, ok := firstObject(inner); ok {
			return im, true
		}
	}
	return m, true
}

// decodeList decodes a list response. Two shapes are accepted: a bare JSON
// array of resource objects, and the searchresult envelope
// {"searchresult":[{"totalResults":N,"<arrayname>":{"<entryname>":[...]}}]}.
func decodeList(data []byte, arrayName, entryName string) (entries []map[string]any, total int, err error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, 0, nil
	}

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, 0, fmt.Errorf("failed to decode list response: %w", err)
	}

	switch v := normalize(raw).(type) {
	case []any:
		entries = collectEntries(v)
		return entries, len(entries), nil
	case map[string]any:
		sr, ok := firstObject(v["searchresult"])
		if !ok {
			// Tolerate a bare {"<arrayname>": ...} body.
			sr = v
		}
		entries = collectEntries(entryValues(sr, arrayName, entryName))
		total = len(entries)
		if n, err := toInt(sr["totalResults"]); err == nil {
			total = int(n)
		}
		return entries, total, nil
	default:
		return nil, 0, fmt.Errorf("unexpected list response shape")
	}
}

// entryValues digs the entry array out of a searchresult body. The array
// container may be absent (empty result), an object keyed by entry name, or
// the entry array itself.
func entryValues(sr map[string]any, arrayName, entryName string) any {
	container, ok := sr[arrayName]
	if !ok {
		return nil
	}
	if cm, ok := container.(map[string]any); ok {
		return cm[entryName]
	}
	return container
}

// collectEntries flattens an entry value (array of objects, or one object)
// into a slice of maps.
func collectEntries(v any) []map[string]any {
	switch val := v.(type) {
	case []any:
		out := make([]map[string]any, 0, len(val))
		for _, item := range val {
			if m, ok := item.(map[string]any); ok {
				out = append(out, m)
			}
		}
		return out
	case map[string]any:
		return []map[string]any{val}
	default:
		return nil
	}
}

// decodeBoolean decodes the platform's boolean envelope
// {"boolean":[{"@xsi.type":"xsd:boolean","$":"true"}]}; a bare JSON bool is
// also accepted.
func decodeBoolean(data []byte) (bool, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return false, nil
	}

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return false, fmt.Errorf("failed to decode boolean response: %w", err)
	}

	switch v := normalize(raw).(type) {
	case bool:
		return v, nil
	case map[string]any:
		if m, ok := firstObject(v["boolean"]); ok {
			switch s := m["$"].(type) {
			case bool:
				return s, nil
			case string:
				b, err := strconv.ParseBool(s)
				if err != nil {
					return false, fmt.Errorf("cannot parse boolean value %q", s)
				}
				return b, nil
			}
		}
	}
	return false, fmt.Errorf("unexpected boolean response shape")
}
