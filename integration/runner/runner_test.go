package runner

import (
	"context"
	"log/slog"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/cyber-siege/internal/handlers"
	"github.com/jwebster45206/cyber-siege/internal/mission"
	"github.com/jwebster45206/cyber-siege/internal/storage"
	"github.com/jwebster45206/cyber-siege/pkg/terminal"
)

const casesDir = "../cases"

// newLocalAPI serves the real router over miniredis and the repo's data dir.
func newLocalAPI(t *testing.T) string {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)

	mr := miniredis.RunT(t)
	store, err := storage.NewRedisStorage(mr.Addr(), "../../data", logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	svc, err := mission.NewService(store, terminal.New(terminal.WithDelay(terminal.NoDelay)))
	require.NoError(t, err)

	srv := httptest.NewServer(handlers.Router{Storage: store, Missions: svc, Logger: logger}.Handler())
	t.Cleanup(srv.Close)
	return srv.URL
}

func TestLoadTestSuiteWithExpansion(t *testing.T) {
	jobs, err := LoadTestSuiteWithExpansion(filepath.Join(casesDir, "all.yaml"), casesDir)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "Network recon playthrough", jobs[0].Name)
	assert.Equal(t, "Ransomware response playthrough", jobs[1].Name)
	assert.NotEmpty(t, jobs[0].Suite.Steps)

	_, err = LoadTestSuiteWithExpansion(filepath.Join(casesDir, "missing.yaml"), casesDir)
	assert.Error(t, err)
}

func TestRunSuite_Cases(t *testing.T) {
	r := NewRunner(newLocalAPI(t))
	r.ErrorHandlingMode = ErrorHandlingExit
	r.Logger = t.Logf

	jobs, err := LoadTestSuiteWithExpansion(filepath.Join(casesDir, "all.yaml"), casesDir)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	for _, job := range jobs {
		t.Run(job.Name, func(t *testing.T) {
			result, err := r.RunSuite(ctx, job.Suite)
			require.NoError(t, err)
			assert.NotEqual(t, "", result.Mission.String())
			for _, step := range result.Results {
				assert.True(t, step.Success, "%s: %v", step.StepName, step.Error)
			}
		})
	}
}

func TestRunSuite_ReportsFailedExpectation(t *testing.T) {
	r := NewRunner(newLocalAPI(t))
	score := 999
	suite := TestSuite{
		Name:     "wrong score",
		Scenario: "Network Reconnaissance",
		Steps: []TestStep{
			{Name: "scan", Command: "scan network --type basic", Expectations: Expectations{Score: &score}},
			{Name: "pwd", Command: "pwd", Expectations: Expectations{OutputContains: []string{"/home/"}}},
		},
	}

	result, err := r.RunSuite(context.Background(), suite)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected score 999, got 100")
	// continue mode still runs the remaining steps
	require.Len(t, result.Results, 2)
	assert.True(t, result.Results[1].Success)
}

func TestRunSuite_UnknownScenario(t *testing.T) {
	r := NewRunner(newLocalAPI(t))
	_, err := r.RunSuite(context.Background(), TestSuite{Name: "nope", Scenario: "Does Not Exist"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}
