package scenario

import (
	"errors"
	"fmt"

	"github.com/jwebster45206/cyber-siege/pkg/conditionals"
)

// Category selects which command sections a scenario exposes.
type Category string

const (
	CategoryRedTeam  Category = "red-team"
	CategoryBlueTeam Category = "blue-team"
	CategoryMixed    Category = "mixed"
)

// Type is the mission mode a scenario was written for.
type Type string

const (
	TypeTraining    Type = "training"
	TypeCompetitive Type = "competitive"
)

// ObjectiveKind ranks an objective. Only primary objectives gate mission completion.
type ObjectiveKind string

const (
	ObjectivePrimary   ObjectiveKind = "primary"
	ObjectiveSecondary ObjectiveKind = "secondary"
	ObjectiveBonus     ObjectiveKind = "bonus"
)

const (
	DefaultObjectivePoints = 100
	DefaultAssetValue      = 1
	DefaultTimeLimit       = 60 // minutes
	MinDifficulty          = 1
	MaxDifficulty          = 5
)

// Objective is a scorable goal. Identity is positional within the scenario.
type Objective struct {
	Description        string                `json:"description" yaml:"description"`
	Kind               ObjectiveKind         `json:"type,omitempty" yaml:"type,omitempty"`
	Points             int                   `json:"points,omitempty" yaml:"points,omitempty"`
	CompletionCriteria conditionals.Criteria `json:"completionCriteria" yaml:"completionCriteria"`
	Completed          bool                  `json:"completed,omitempty" yaml:"completed,omitempty"`
}

// Tool is a scenario-declared utility listed by help and under /tools.
type Tool struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Usage       string `json:"usage,omitempty" yaml:"usage,omitempty"`
}

// Event is something that already happened in the world when the mission
// starts, e.g. the attack a blue team has to investigate.
type Event struct {
	Type       string         `json:"type" yaml:"type"`
	AttackType string         `json:"attackType,omitempty" yaml:"attackType,omitempty"`
	Source     string         `json:"source,omitempty" yaml:"source,omitempty"`
	Target     string         `json:"target,omitempty" yaml:"target,omitempty"`
	Timestamp  string         `json:"timestamp,omitempty" yaml:"timestamp,omitempty"`
	Details    map[string]any `json:"details,omitempty" yaml:"details,omitempty"`
}

// InitialState seeds a session's world-state snapshot.
type InitialState struct {
	VisibleAssets []string       `json:"visibleAssets,omitempty" yaml:"visibleAssets,omitempty"`
	Events        []Event        `json:"events,omitempty" yaml:"events,omitempty"`
	Extras        map[string]any `json:"extras,omitempty" yaml:"extras,omitempty"`
}

// Rewards granted on completion. Computing them is left to the profile service.
type Rewards struct {
	Experience    int    `json:"experience,omitempty" yaml:"experience,omitempty"`
	Certification string `json:"certification,omitempty" yaml:"certification,omitempty"`
}

// Scenario is the immutable template for a mission.
type Scenario struct {
	Name           string       `json:"name" yaml:"name"`
	Description    string       `json:"description" yaml:"description"`
	Type           Type         `json:"type,omitempty" yaml:"type,omitempty"`
	Category       Category     `json:"category" yaml:"category"`
	Difficulty     int          `json:"difficulty" yaml:"difficulty"`
	Objectives     []Objective  `json:"objectives" yaml:"objectives"`
	Assets         []Asset      `json:"assets,omitempty" yaml:"assets,omitempty"`
	AvailableTools []Tool       `json:"availableTools,omitempty" yaml:"availableTools,omitempty"`
	InitialState   InitialState `json:"initialState" yaml:"initialState"`
	TimeLimit      int          `json:"timeLimit,omitempty" yaml:"timeLimit,omitempty"` // minutes, 0 disables
	RequiredSkills []string     `json:"requiredSkills,omitempty" yaml:"requiredSkills,omitempty"`
	Rewards        Rewards      `json:"rewards,omitzero" yaml:"rewards,omitempty"`
}

// ApplyDefaults fills in the values the scenario format treats as optional.
func (s *Scenario) ApplyDefaults() {
	if s.Type == "" {
		s.Type = TypeTraining
	}
	if s.TimeLimit == 0 {
		s.TimeLimit = DefaultTimeLimit
	}
	for i := range s.Objectives {
		if s.Objectives[i].Kind == "" {
			s.Objectives[i].Kind = ObjectivePrimary
		}
		if s.Objectives[i].Points == 0 {
			s.Objectives[i].Points = DefaultObjectivePoints
		}
	}
	for i := range s.Assets {
		if s.Assets[i].Value == 0 {
			s.Assets[i].Value = DefaultAssetValue
		}
	}
}

// Validate reports every structural problem found in the scenario.
func (s *Scenario) Validate() error {
	var errs []error
	if s.Name == "" {
		errs = append(errs, errors.New("name is required"))
	}
	if s.Description == "" {
		errs = append(errs, errors.New("description is required"))
	}
	switch s.Category {
	case CategoryRedTeam, CategoryBlueTeam, CategoryMixed:
	default:
		errs = append(errs, fmt.Errorf("category %q must be one of red-team, blue-team, mixed", s.Category))
	}
	switch s.Type {
	case "", TypeTraining, TypeCompetitive:
	default:
		errs = append(errs, fmt.Errorf("type %q must be training or competitive", s.Type))
	}
	if s.Difficulty < MinDifficulty || s.Difficulty > MaxDifficulty {
		errs = append(errs, fmt.Errorf("difficulty %d must be between %d and %d", s.Difficulty, MinDifficulty, MaxDifficulty))
	}
	if s.TimeLimit < 0 {
		errs = append(errs, fmt.Errorf("timeLimit %d must not be negative", s.TimeLimit))
	}
	for i, obj := range s.Objectives {
		if obj.Description == "" {
			errs = append(errs, fmt.Errorf("objectives[%d]: description is required", i))
		}
		if obj.CompletionCriteria.ActionType == "" {
			errs = append(errs, fmt.Errorf("objectives[%d]: completionCriteria.actionType is required", i))
		}
		switch obj.Kind {
		case "", ObjectivePrimary, ObjectiveSecondary, ObjectiveBonus:
		default:
			errs = append(errs, fmt.Errorf("objectives[%d]: type %q must be primary, secondary or bonus", i, obj.Kind))
		}
		if obj.Points < 0 {
			errs = append(errs, fmt.Errorf("objectives[%d]: points must not be negative", i))
		}
	}
	seen := make(map[string]bool, len(s.Assets))
	for i, a := range s.Assets {
		if a.Name == "" {
			errs = append(errs, fmt.Errorf("assets[%d]: name is required", i))
		}
		if a.Type == "" {
			errs = append(errs, fmt.Errorf("assets[%d]: type is required", i))
		}
		if seen[a.Name] {
			errs = append(errs, fmt.Errorf("assets[%d]: duplicate asset name %q", i, a.Name))
		}
		seen[a.Name] = true
	}
	for _, name := range s.InitialState.VisibleAssets {
		if !seen[name] {
			errs = append(errs, fmt.Errorf("initialState.visibleAssets: unknown asset %q", name))
		}
	}
	for i, tool := range s.AvailableTools {
		if tool.Name == "" {
			errs = append(errs, fmt.Errorf("availableTools[%d]: name is required", i))
		}
	}
	return errors.Join(errs...)
}

// CloneObjectives returns a deep copy of the objective list. Each mission
// session owns its copy so completion flags never leak between sessions.
func (s *Scenario) CloneObjectives() []Objective {
	out := make([]Objective, len(s.Objectives))
	for i, obj := range s.Objectives {
		out[i] = obj
		out[i].CompletionCriteria = obj.CompletionCriteria.Clone()
		out[i].Completed = false
	}
	return out
}

// HasTools reports whether the scenario declares any tools.
func (s *Scenario) HasTools() bool {
	return len(s.AvailableTools) > 0
}

// HasAssets reports whether the scenario declares any assets.
func (s *Scenario) HasAssets() bool {
	return len(s.Assets) > 0
}

// AssetByName looks up an asset by its exact name.
func (s *Scenario) AssetByName(name string) (*Asset, bool) {
	return s.FindAsset(func(a *Asset) bool { return a.Name == name })
}

// FindAsset returns the first asset satisfying match.
func (s *Scenario) FindAsset(match func(*Asset) bool) (*Asset, bool) {
	for i := range s.Assets {
		if match(&s.Assets[i]) {
			return &s.Assets[i], true
		}
	}
	return nil, false
}

// FilterAssets returns every asset satisfying match, in declaration order.
func (s *Scenario) FilterAssets(match func(*Asset) bool) []*Asset {
	var out []*Asset
	for i := range s.Assets {
		if match(&s.Assets[i]) {
			out = append(out, &s.Assets[i])
		}
	}
	return out
}

// AttackEvent returns the first attack event in the initial state. An empty
// attackType matches any attack.
func (s *Scenario) AttackEvent(attackType string) (*Event, bool) {
	for i := range s.InitialState.Events {
		ev := &s.InitialState.Events[i]
		if ev.Type != "attack" {
			continue
		}
		if attackType == "" || ev.AttackType == attackType {
			return ev, true
		}
	}
	return nil, false
}

// Vulnerabilities returns the distinct vulnerability tags across all assets
// in first-seen order.
func (s *Scenario) Vulnerabilities() []string {
	seen := make(map[string]bool)
	var out []string
	for _, a := range s.Assets {
		for _, v := range a.Vulnerabilities {
			if !seen[v] {
				seen[v] = true
				out = append(out, v)
			}
		}
	}
	return out
}
