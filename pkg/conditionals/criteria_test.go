package conditionals

import "testing"

func TestCriteria_Matches(t *testing.T) {
	tests := []struct {
		name     string
		criteria Criteria
		action   Resolved
		want     bool
	}{
		{
			name:     "exact match",
			criteria: Criteria{ActionType: "scan", Target: "network", Parameters: map[string]any{"scanType": "basic"}},
			action:   Resolved{ActionType: "scan", Target: "network", Parameters: map[string]any{"scanType": "basic"}},
			want:     true,
		},
		{
			name:     "extra action parameters are ignored",
			criteria: Criteria{ActionType: "scan", Target: "server", Parameters: map[string]any{"scanType": "port"}},
			action:   Resolved{ActionType: "scan", Target: "server", Parameters: map[string]any{"scanType": "port", "ip": "10.0.0.5"}},
			want:     true,
		},
		{
			name:     "missing parameter",
			criteria: Criteria{ActionType: "scan", Target: "server", Parameters: map[string]any{"scanType": "port", "ip": "10.0.0.5"}},
			action:   Resolved{ActionType: "scan", Target: "server", Parameters: map[string]any{"scanType": "port"}},
			want:     false,
		},
		{
			name:     "different parameter value",
			criteria: Criteria{ActionType: "scan", Target: "network", Parameters: map[string]any{"scanType": "full"}},
			action:   Resolved{ActionType: "scan", Target: "network", Parameters: map[string]any{"scanType": "basic"}},
			want:     false,
		},
		{
			name:     "different action type",
			criteria: Criteria{ActionType: "identify", Target: "network"},
			action:   Resolved{ActionType: "scan", Target: "network"},
			want:     false,
		},
		{
			name:     "different target",
			criteria: Criteria{ActionType: "scan", Target: "server"},
			action:   Resolved{ActionType: "scan", Target: "network"},
			want:     false,
		},
		{
			name:     "empty target matches any target",
			criteria: Criteria{ActionType: "create"},
			action:   Resolved{ActionType: "create", Target: "report"},
			want:     true,
		},
		{
			name:     "empty action type never matches",
			criteria: Criteria{},
			action:   Resolved{},
			want:     false,
		},
		{
			name:     "numbers compare by value",
			criteria: Criteria{ActionType: "scan", Parameters: map[string]any{"depth": 3}},
			action:   Resolved{ActionType: "scan", Parameters: map[string]any{"depth": 3.0}},
			want:     true,
		},
		{
			name:     "nested values compare deeply",
			criteria: Criteria{ActionType: "scan", Parameters: map[string]any{"ports": []any{22, 80}}},
			action:   Resolved{ActionType: "scan", Parameters: map[string]any{"ports": []any{22.0, 80.0}}},
			want:     true,
		},
		{
			name:     "nested slices differ",
			criteria: Criteria{ActionType: "scan", Parameters: map[string]any{"ports": []any{22, 80}}},
			action:   Resolved{ActionType: "scan", Parameters: map[string]any{"ports": []any{22}}},
			want:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.criteria.Matches(tt.action); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCriteria_CloneIsIndependent(t *testing.T) {
	original := Criteria{
		ActionType: "scan",
		Target:     "network",
		Parameters: map[string]any{
			"scanType": "basic",
			"nested":   map[string]any{"hosts": []any{"10.0.0.1"}},
		},
	}

	clone := original.Clone()
	clone.Parameters["scanType"] = "full"
	clone.Parameters["nested"].(map[string]any)["hosts"] = []any{"10.0.0.9"}

	if original.Parameters["scanType"] != "basic" {
		t.Errorf("original scanType changed to %v", original.Parameters["scanType"])
	}
	hosts := original.Parameters["nested"].(map[string]any)["hosts"].([]any)
	if hosts[0] != "10.0.0.1" {
		t.Errorf("original nested hosts changed to %v", hosts)
	}
}
