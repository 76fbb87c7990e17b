package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/jwebster45206/cyber-siege/pkg/state"
)

type ErrorHandlingMode string

const ErrorHandlingExit ErrorHandlingMode = "exit"
const ErrorHandlingContinue ErrorHandlingMode = "continue"

// Runner plays scripted missions against a running cyber-siege API.
type Runner struct {
	BaseURL           string
	Client            *http.Client
	Timeout           time.Duration
	Logger            func(format string, args ...any)
	ErrorHandlingMode ErrorHandlingMode
	ScenarioOverride  string // If set, overrides the scenario for all test cases
	PlayerID          string
}

// NewRunner creates a new test runner with a fresh player identity.
func NewRunner(baseURL string) *Runner {
	return &Runner{
		BaseURL:           strings.TrimSuffix(baseURL, "/"),
		Client:            &http.Client{Timeout: 60 * time.Second},
		Timeout:           30 * time.Second,
		Logger:            func(string, ...any) {},
		ErrorHandlingMode: ErrorHandlingContinue,
		PlayerID:          "integration-" + uuid.NewString(),
	}
}

// LoadTestSuite loads a test suite from a JSON or YAML file.
func LoadTestSuite(filename string) (TestSuite, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return TestSuite{}, fmt.Errorf("failed to read test file %s: %w", filename, err)
	}

	var suite TestSuite
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(content, &suite)
	default:
		err = json.Unmarshal(content, &suite)
	}
	if err != nil {
		return TestSuite{}, fmt.Errorf("failed to parse %s: %w", filename, err)
	}
	return suite, nil
}

// LoadTestSuiteWithExpansion loads a test suite and expands it if it's a sequence
func LoadTestSuiteWithExpansion(filename string, casesDir string) ([]TestJob, error) {
	suite, err := LoadTestSuite(filename)
	if err != nil {
		return nil, err
	}

	if !suite.IsSequence() {
		return []TestJob{{Name: suite.Name, Suite: suite, CaseFile: filename}}, nil
	}

	var jobs []TestJob
	for _, caseFile := range suite.Cases {
		subJobs, err := LoadTestSuiteWithExpansion(filepath.Join(casesDir, caseFile), casesDir)
		if err != nil {
			return nil, fmt.Errorf("failed to load case '%s' referenced by sequence '%s': %w", caseFile, suite.Name, err)
		}
		jobs = append(jobs, subJobs...)
	}
	return jobs, nil
}

// RunSuite starts a mission and executes every step against it.
func (r *Runner) RunSuite(ctx context.Context, suite TestSuite) (TestRunResult, error) {
	start := time.Now()
	result := TestRunResult{
		Job:     TestJob{Name: suite.Name, Suite: suite},
		Results: make([]TestResult, 0, len(suite.Steps)),
	}

	if r.ScenarioOverride != "" {
		suite.Scenario = r.ScenarioOverride
	}

	id, err := r.startMission(ctx, suite)
	if err != nil {
		result.Error = fmt.Errorf("failed to start mission: %w", err)
		result.Duration = time.Since(start)
		return result, result.Error
	}
	result.Mission = id

	for i, step := range suite.Steps {
		r.Logger("    [%d/%d] Running step: %s", i+1, len(suite.Steps), step.Name)

		var stepResult TestResult
		if step.Command == ResetMissionCommand {
			stepResult, id = r.resetMission(ctx, id, suite, step)
			result.Mission = id
		} else {
			stepResult = r.executeStep(ctx, id, step)
		}
		result.Results = append(result.Results, stepResult)

		if stepResult.Error != nil {
			r.Logger("    [%d/%d] ✗ %s: %v", i+1, len(suite.Steps), step.Name, stepResult.Error)
			if result.Error == nil {
				result.Error = fmt.Errorf("step %d (%s) failed: %w", i, step.Name, stepResult.Error)
			}
			if r.ErrorHandlingMode == ErrorHandlingExit {
				break
			}
			continue
		}
		r.Logger("    [%d/%d] ✓ %s (%v)", i+1, len(suite.Steps), step.Name, stepResult.Duration)
	}

	result.Duration = time.Since(start)
	return result, result.Error
}

func (r *Runner) resetMission(ctx context.Context, id uuid.UUID, suite TestSuite, step TestStep) (TestResult, uuid.UUID) {
	start := time.Now()
	result := TestResult{StepName: step.Name, IsReset: true, ResponseText: "[MISSION RESET]"}

	// An already finished mission cannot be abandoned; that is fine here.
	_ = r.call(ctx, http.MethodPost, "/v1/missions/"+id.String()+"/abandon", nil, http.StatusOK, nil)

	next, err := r.startMission(ctx, suite)
	if err != nil {
		result.Error = fmt.Errorf("failed to restart mission: %w", err)
		result.Duration = time.Since(start)
		return result, id
	}
	sess, err := r.getMission(ctx, next)
	if err == nil {
		err = checkExpectations(step.Expectations, "", "", sess)
	}
	if err != nil {
		result.Error = fmt.Errorf("reset expectation failed: %w", err)
	} else {
		result.Success = true
	}
	result.Duration = time.Since(start)
	return result, next
}

func (r *Runner) executeStep(ctx context.Context, id uuid.UUID, step TestStep) TestResult {
	start := time.Now()
	result := TestResult{StepName: step.Name}

	stepCtx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()

	var resp commandResponse
	body := map[string]string{"command": step.Command}
	if err := r.call(stepCtx, http.MethodPost, "/v1/missions/"+id.String()+"/command", body, http.StatusOK, &resp); err != nil {
		result.Error = fmt.Errorf("command failed: %w", err)
		result.Duration = time.Since(start)
		return result
	}
	result.ResponseText = resp.Result

	// Reload so expectations see what was persisted, not just what was returned.
	sess, err := r.getMission(stepCtx, id)
	if err != nil {
		result.Error = fmt.Errorf("failed to reload mission: %w", err)
		result.Duration = time.Since(start)
		return result
	}
	if exp := step.Expectations; exp.Ended != nil && resp.Ended != *exp.Ended {
		result.Error = fmt.Errorf("expectation failed: expected ended=%t, got %t", *exp.Ended, resp.Ended)
		result.Duration = time.Since(start)
		return result
	}
	if err := checkExpectations(step.Expectations, resp.Result, resp.Objective, sess); err != nil {
		result.Error = fmt.Errorf("expectation failed: %w", err)
		result.Duration = time.Since(start)
		return result
	}

	result.Success = true
	result.Duration = time.Since(start)
	return result
}

type commandResponse struct {
	Result    string `json:"result"`
	Objective string `json:"objective"`
	Ended     bool   `json:"ended"`
}

func (r *Runner) startMission(ctx context.Context, suite TestSuite) (uuid.UUID, error) {
	var sess state.Session
	body := map[string]string{"scenario": suite.Scenario, "gameMode": suite.Mode, "teamType": suite.Team}
	if err := r.call(ctx, http.MethodPost, "/v1/missions", body, http.StatusCreated, &sess); err != nil {
		return uuid.Nil, err
	}
	return sess.ID, nil
}

func (r *Runner) getMission(ctx context.Context, id uuid.UUID) (*state.Session, error) {
	var sess state.Session
	if err := r.call(ctx, http.MethodGet, "/v1/missions/"+id.String(), nil, http.StatusOK, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

func (r *Runner) call(ctx context.Context, method, path string, body any, want int, out any) error {
	var buf io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		buf = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, r.BaseURL+path, buf)
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Player-ID", r.PlayerID)

	resp, err := r.Client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != want {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s %s returned %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(data)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}

// checkExpectations validates a step against the command output and the
// persisted mission.
func checkExpectations(exp Expectations, output, objective string, sess *state.Session) error {
	lowerOutput := strings.ToLower(output)
	for _, want := range exp.OutputContains {
		if !strings.Contains(lowerOutput, strings.ToLower(want)) {
			return fmt.Errorf("expected output to contain '%s', but it didn't", want)
		}
	}
	for _, unwanted := range exp.OutputNotContains {
		if strings.Contains(lowerOutput, strings.ToLower(unwanted)) {
			return fmt.Errorf("expected output to NOT contain '%s', but it did", unwanted)
		}
	}
	if exp.OutputRegex != "" {
		matched, err := regexp.MatchString(exp.OutputRegex, output)
		if err != nil {
			return fmt.Errorf("invalid regex pattern: %w", err)
		}
		if !matched {
			return fmt.Errorf("output didn't match regex pattern: %s", exp.OutputRegex)
		}
	}

	if exp.Objective != nil && objective != *exp.Objective {
		return fmt.Errorf("expected objective '%s' to complete, got '%s'", *exp.Objective, objective)
	}
	if exp.Score != nil && sess.Score != *exp.Score {
		return fmt.Errorf("expected score %d, got %d", *exp.Score, sess.Score)
	}
	if exp.ObjectivesCompleted != nil {
		done, _ := sess.CompletedObjectives()
		if done != *exp.ObjectivesCompleted {
			return fmt.Errorf("expected %d objectives completed, got %d", *exp.ObjectivesCompleted, done)
		}
	}
	if exp.Directory != nil && sess.CurrentDirectory != *exp.Directory {
		return fmt.Errorf("expected current directory %s, got %s", *exp.Directory, sess.CurrentDirectory)
	}
	for _, asset := range exp.VisibleAssets {
		if !slices.Contains(sess.WorldState.VisibleAssets, asset) {
			return fmt.Errorf("expected asset '%s' to be visible. Visible: %v", asset, sess.WorldState.VisibleAssets)
		}
	}
	if exp.Status != nil && string(sess.Status) != *exp.Status {
		return fmt.Errorf("expected status %s, got %s", *exp.Status, sess.Status)
	}
	if exp.Result != nil && string(sess.Result) != *exp.Result {
		return fmt.Errorf("expected result %s, got %s", *exp.Result, sess.Result)
	}
	return nil
}
