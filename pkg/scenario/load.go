package scenario

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format identifies the encoding of a scenario file.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, true
	case ".yaml", ".yml":
		return FormatYAML, true
	default:
		return "", false
	}
}

// Decode parses a scenario and applies defaults. Unknown fields are ignored.
func Decode(data []byte, format Format) (*Scenario, error) {
	return decode(data, format, false)
}

// DecodeStrict parses a scenario, rejecting unknown fields, and applies defaults.
func DecodeStrict(data []byte, format Format) (*Scenario, error) {
	return decode(data, format, true)
}

func decode(data []byte, format Format, strict bool) (*Scenario, error) {
	var s Scenario
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		if strict {
			dec.DisallowUnknownFields()
		}
		if err := dec.Decode(&s); err != nil {
			return nil, fmt.Errorf("failed to decode json scenario: %w", err)
		}
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(strict)
		if err := dec.Decode(&s); err != nil {
			return nil, fmt.Errorf("failed to decode yaml scenario: %w", err)
		}
		normalizeYAML(&s)
	default:
		return nil, fmt.Errorf("unsupported scenario format %q", format)
	}
	s.ApplyDefaults()
	return &s, nil
}

// yaml.v3 decodes a mapping with non-string keys (service ports) as
// map[any]any. Normalise keys to strings so both formats look the same.
func normalizeYAML(s *Scenario) {
	for i := range s.Assets {
		s.Assets[i].Properties = normalizeMap(s.Assets[i].Properties)
	}
	for i := range s.Objectives {
		s.Objectives[i].CompletionCriteria.Parameters = normalizeMap(s.Objectives[i].CompletionCriteria.Parameters)
	}
	for i := range s.InitialState.Events {
		s.InitialState.Events[i].Details = normalizeMap(s.InitialState.Events[i].Details)
	}
	s.InitialState.Extras = normalizeMap(s.InitialState.Extras)
}

func normalizeMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	for k, v := range m {
		m[k] = normalizeValue(v)
	}
	return m
}

func normalizeValue(v any) any {
	switch vv := v.(type) {
	case map[string]any:
		return normalizeMap(vv)
	case map[any]any:
		out := make(map[string]any, len(vv))
		for k, item := range vv {
			out[fmt.Sprint(k)] = normalizeValue(item)
		}
		return out
	case []any:
		for i := range vv {
			vv[i] = normalizeValue(vv[i])
		}
		return vv
	default:
		return v
	}
}
