package runner

import (
	"time"

	"github.com/google/uuid"
)

// ResetMissionCommand abandons the current mission and starts a fresh one
// on the same scenario instead of running a terminal command.
const ResetMissionCommand = "RESET_MISSION"

// TestSuite is one scripted playthrough, or a sequence of other case files.
type TestSuite struct {
	Name     string     `json:"name" yaml:"name"`
	Scenario string     `json:"scenario,omitempty" yaml:"scenario,omitempty"`
	Mode     string     `json:"gameMode,omitempty" yaml:"gameMode,omitempty"`
	Team     string     `json:"teamType,omitempty" yaml:"teamType,omitempty"`
	Steps    []TestStep `json:"steps,omitempty" yaml:"steps,omitempty"`
	Cases    []string   `json:"cases,omitempty" yaml:"cases,omitempty"`
}

// IsSequence returns true if this is a suite that sequences other cases
func (ts *TestSuite) IsSequence() bool {
	return len(ts.Cases) > 0
}

// TestStep is a single command and what the mission should look like after it.
type TestStep struct {
	Name         string       `json:"name,omitempty" yaml:"name,omitempty"`
	Command      string       `json:"command" yaml:"command"`
	Expectations Expectations `json:"expect" yaml:"expect"`
}

// Expectations are checked against the command response and the mission
// reloaded after it. Nil fields are not checked.
type Expectations struct {
	OutputContains      []string `json:"outputContains,omitempty" yaml:"outputContains,omitempty"`
	OutputNotContains   []string `json:"outputNotContains,omitempty" yaml:"outputNotContains,omitempty"`
	OutputRegex         string   `json:"outputRegex,omitempty" yaml:"outputRegex,omitempty"`
	Objective           *string  `json:"objective,omitempty" yaml:"objective,omitempty"`
	Score               *int     `json:"score,omitempty" yaml:"score,omitempty"`
	ObjectivesCompleted *int     `json:"objectivesCompleted,omitempty" yaml:"objectivesCompleted,omitempty"`
	Directory           *string  `json:"currentDirectory,omitempty" yaml:"currentDirectory,omitempty"`
	VisibleAssets       []string `json:"visibleAssets,omitempty" yaml:"visibleAssets,omitempty"`
	Status              *string  `json:"status,omitempty" yaml:"status,omitempty"`
	Result              *string  `json:"result,omitempty" yaml:"result,omitempty"`
	Ended               *bool    `json:"ended,omitempty" yaml:"ended,omitempty"`
}

// TestResult contains the outcome of running a test step
type TestResult struct {
	StepName     string
	Success      bool
	Error        error
	Duration     time.Duration
	ResponseText string
	IsReset      bool // resets do not count toward pass/fail
}

// TestJob represents one loaded suite
type TestJob struct {
	Name     string
	Suite    TestSuite
	CaseFile string
}

// TestRunResult contains the results of running an entire test suite
type TestRunResult struct {
	Job      TestJob
	Results  []TestResult
	Error    error
	Duration time.Duration
	Mission  uuid.UUID // last mission used by the suite
}
