package conditionals

import (
	"reflect"
)

// Criteria is the predicate template an objective uses to recognise the
// action that completes it.
type Criteria struct {
	ActionType string         `json:"actionType" yaml:"actionType"`
	Target     string         `json:"target,omitempty" yaml:"target,omitempty"`
	Parameters map[string]any `json:"parameters,omitempty" yaml:"parameters,omitempty"`
}

// Resolved is the {actionType, target, parameters} tuple produced by a verb
// handler once it has looked up what the player acted on.
type Resolved struct {
	ActionType string
	Target     string
	Parameters map[string]any
}

// Matches reports whether the resolved action satisfies the criteria.
// An empty criteria target matches any target. Every parameter key named by
// the criteria must be present on the action with a deeply equal value;
// keys the criteria does not mention are ignored.
func (c Criteria) Matches(r Resolved) bool {
	if c.ActionType == "" || c.ActionType != r.ActionType {
		return false
	}
	if c.Target != "" && c.Target != r.Target {
		return false
	}
	for key, want := range c.Parameters {
		got, ok := r.Parameters[key]
		if !ok {
			return false
		}
		if !Equal(want, got) {
			return false
		}
	}
	return true
}

// Clone returns a copy of the criteria that shares no mutable state.
func (c Criteria) Clone() Criteria {
	out := Criteria{ActionType: c.ActionType, Target: c.Target}
	if c.Parameters != nil {
		out.Parameters = CloneMap(c.Parameters)
	}
	return out
}

// Equal compares two decoded values. Numbers compare by value so a criteria
// written as 3 in YAML matches 3.0 decoded from JSON.
func Equal(a, b any) bool {
	if fa, ok := toFloat(a); ok {
		fb, ok := toFloat(b)
		return ok && fa == fb
	}

	switch av := a.(type) {
	case map[string]any:
		bv, ok := b.(map[string]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			other, ok := bv[k]
			if !ok || !Equal(v, other) {
				return false
			}
		}
		return true
	case []any:
		bv, ok := toSlice(b)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	case []string:
		bv, ok := toSlice(b)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	}

	return reflect.DeepEqual(a, b)
}

// CloneMap deep-copies a decoded map.
func CloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = CloneValue(v)
	}
	return out
}

// CloneValue deep-copies maps and slices produced by JSON or YAML decoding.
// Scalars are returned as is.
func CloneValue(v any) any {
	switch vv := v.(type) {
	case map[string]any:
		return CloneMap(vv)
	case []any:
		out := make([]any, len(vv))
		for i := range vv {
			out[i] = CloneValue(vv[i])
		}
		return out
	case []string:
		return append([]string(nil), vv...)
	default:
		return v
	}
}

func toSlice(v any) ([]any, bool) {
	switch vv := v.(type) {
	case []any:
		return vv, true
	case []string:
		out := make([]any, len(vv))
		for i := range vv {
			out[i] = vv[i]
		}
		return out, true
	default:
		return nil, false
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
