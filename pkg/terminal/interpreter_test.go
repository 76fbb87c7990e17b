package terminal

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jwebster45206/cyber-siege/pkg/conditionals"
	"github.com/jwebster45206/cyber-siege/pkg/scenario"
	"github.com/jwebster45206/cyber-siege/pkg/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)

// stepClock advances by step on every reading.
type stepClock struct {
	t    time.Time
	step time.Duration
}

func (c *stepClock) Now() time.Time {
	c.t = c.t.Add(c.step)
	return c.t
}

func newTestInterpreter() *Interpreter {
	clock := &stepClock{t: t0, step: time.Second}
	return New(WithClock(clock.Now), WithDelay(NoDelay))
}

func run(t *testing.T, in *Interpreter, sess *state.Session, sc *scenario.Scenario, raw string) string {
	t.Helper()
	res, err := in.Execute(context.Background(), sess, sc, raw)
	require.NoError(t, err)
	require.Same(t, sess, res.Session)
	return res.Output
}

func reconScenario() *scenario.Scenario {
	sc := &scenario.Scenario{
		Name:        "Network Recon",
		Description: "Map the target network.",
		Category:    scenario.CategoryRedTeam,
		Difficulty:  1,
		Objectives: []scenario.Objective{
			{
				Description:        "Discover live hosts",
				Points:             100,
				CompletionCriteria: conditionals.Criteria{ActionType: "scan", Target: "network", Parameters: map[string]any{"scanType": "basic"}},
			},
			{
				Description:        "Fingerprint the web server",
				Points:             150,
				CompletionCriteria: conditionals.Criteria{ActionType: "scan", Target: "server", Parameters: map[string]any{"scanType": "service", "ip": "10.0.0.2"}},
			},
			{
				Description:        "Enumerate open ports",
				Kind:               scenario.ObjectiveBonus,
				Points:             25,
				CompletionCriteria: conditionals.Criteria{ActionType: "scan", Target: "server", Parameters: map[string]any{"scanType": "port"}},
			},
		},
		Assets: []scenario.Asset{
			{Name: "Corporate Network", Type: "network", Properties: map[string]any{"hosts": []any{"10.0.0.1", "10.0.0.2"}}},
			{
				Name: "Web Server", Type: "server",
				Vulnerabilities: []string{"outdated-software"},
				Properties: map[string]any{
					"ip":       "10.0.0.2",
					"os":       "Ubuntu 20.04",
					"ports":    []any{22, 80},
					"services": map[string]any{"80": "http", "22": "ssh"},
				},
			},
		},
		AvailableTools: []scenario.Tool{{Name: "Nmap", Description: "Network mapper", Usage: "scan network --type basic"}},
		InitialState:   scenario.InitialState{VisibleAssets: []string{"Corporate Network"}},
	}
	sc.ApplyDefaults()
	return sc
}

func ransomwareScenario() *scenario.Scenario {
	sc := &scenario.Scenario{
		Name:        "Ransomware Response",
		Description: "Contain an active ransomware outbreak.",
		Category:    scenario.CategoryBlueTeam,
		Difficulty:  3,
		Objectives: []scenario.Objective{
			{Description: "Identify the ransomware", Points: 100, CompletionCriteria: conditionals.Criteria{ActionType: "identify", Target: "incident", Parameters: map[string]any{"incidentType": "ransomware"}}},
			{Description: "Isolate infected systems", Points: 100, CompletionCriteria: conditionals.Criteria{ActionType: "isolate", Target: "system", Parameters: map[string]any{"systemStatus": "infected"}}},
			{Description: "Analyse the malware", Kind: scenario.ObjectiveSecondary, Points: 50, CompletionCriteria: conditionals.Criteria{ActionType: "analyze", Target: "malware", Parameters: map[string]any{"analysisType": "forensic"}}},
			{Description: "Write the incident report", Kind: scenario.ObjectiveSecondary, Points: 50, CompletionCriteria: conditionals.Criteria{ActionType: "create", Target: "report", Parameters: map[string]any{"reportType": "incident"}}},
			{Description: "Harden the environment", Kind: scenario.ObjectiveBonus, Points: 25, CompletionCriteria: conditionals.Criteria{ActionType: "implement", Target: "security", Parameters: map[string]any{"improvementType": "preventive"}}},
			{Description: "Restore from backup", Points: 100, CompletionCriteria: conditionals.Criteria{ActionType: "restore", Target: "system", Parameters: map[string]any{"restoreType": "from-backup"}}},
		},
		Assets: []scenario.Asset{
			{Name: "File Server", Type: "server", Vulnerabilities: []string{"outdated-software", "open-rdp"}, Properties: map[string]any{"ip": "10.0.1.5", "os": "Windows Server 2019", "status": "infected", "services": map[string]any{"445": "smb", "3389": "rdp"}}},
			{Name: "HR Workstation", Type: "workstation", Vulnerabilities: []string{"phishing-susceptible", "outdated-software"}, Properties: map[string]any{"ip": "10.0.1.20", "os": "Windows 10", "status": "infected"}},
			{Name: "Backup Server", Type: "server", Properties: map[string]any{"ip": "10.0.1.50", "status": "operational", "lastBackup": "2025-03-31T23:00:00Z"}},
			{Name: "Forensic Analysis Toolkit", Type: "tool"},
		},
		InitialState: scenario.InitialState{
			VisibleAssets: []string{"File Server", "HR Workstation", "Backup Server", "Forensic Analysis Toolkit"},
			Events: []scenario.Event{{
				Type: "attack", AttackType: "ransomware",
				Source: "phishing email", Target: "HR Workstation", Timestamp: "2025-04-01T08:15:00Z",
				Details: map[string]any{"malwareFamily": "LockBit", "encryptedFiles": 1200, "spreadMethod": "SMB"},
			}},
		},
	}
	sc.ApplyDefaults()
	return sc
}

func newSession(sc *scenario.Scenario) *state.Session {
	return state.NewSession(sc, "player-1", "", state.ModeTraining, state.TeamRed, t0)
}

func TestExecute_ScanNetworkCompletesOneObjective(t *testing.T) {
	in := newTestInterpreter()
	sc := reconScenario()
	sess := newSession(sc)

	res, err := in.Execute(context.Background(), sess, sc, "scan network --type basic")
	require.NoError(t, err)

	assert.Contains(t, res.Output, "hacker@cyber-siege:~# scan network --type basic\n")
	assert.Contains(t, res.Output, "Scanning network 10.0.0.1/24...")
	assert.Contains(t, res.Output, "Host 10.0.0.1 is up\n")
	assert.Contains(t, res.Output, "Host 10.0.0.2 is up\n")
	assert.Equal(t, 1, strings.Count(res.Output, "[Achievement Unlocked]"))
	assert.Contains(t, res.Output, "[Achievement Unlocked] Discover live hosts")

	require.NotNil(t, res.Objective)
	assert.Equal(t, "Discover live hosts", res.Objective.Description)
	assert.True(t, sess.Objectives[0].Completed)
	assert.False(t, sc.Objectives[0].Completed, "scenario objectives must stay untouched")
	assert.Equal(t, 100, sess.Score)
	assert.True(t, sess.IsAssetVisible("Web Server"), "network scan reveals hosts")

	require.Len(t, sess.Actions, 2)
	assert.Equal(t, state.ActionCommand, sess.Actions[0].Type)
	assert.Equal(t, "scan", sess.Actions[1].Type)
	assert.Equal(t, map[string]any{"scanType": "basic"}, sess.Actions[1].Parameters)

	res, err = in.Execute(context.Background(), sess, sc, "scan network --type basic")
	require.NoError(t, err)
	assert.NotContains(t, res.Output, "[Achievement Unlocked]")
	assert.Equal(t, 100, sess.Score)
}

func TestExecute_CompletingPrimaryObjectivesEndsMission(t *testing.T) {
	in := newTestInterpreter()
	sc := reconScenario()
	sess := newSession(sc)

	run(t, in, sess, sc, "scan network --type basic")
	res, err := in.Execute(context.Background(), sess, sc, "scan server --target 10.0.0.2 --type service")
	require.NoError(t, err)

	assert.Contains(t, res.Output, "Service detection results for 10.0.0.2:")
	assert.Contains(t, res.Output, "22/tcp open  ssh\n80/tcp open  http\n")
	assert.Contains(t, res.Output, "[Achievement Unlocked] Fingerprint the web server")
	assert.Contains(t, res.Output, "[Mission Complete]")
	assert.True(t, res.Ended)
	assert.Equal(t, state.StatusCompleted, sess.Status)
	assert.Equal(t, state.ResultSuccess, sess.Result)
	assert.Equal(t, 250, sess.Score)
	require.NotNil(t, sess.EndTime)

	_, err = in.Execute(context.Background(), sess, sc, "ls")
	assert.True(t, errors.Is(err, state.ErrSessionNotActive))
}

func TestExecute_LogsEveryAttempt(t *testing.T) {
	in := newTestInterpreter()
	sc := reconScenario()
	sess := newSession(sc)

	for _, raw := range []string{"", "   ", "frobnicate", "scan", "!7", "help"} {
		before := len(sess.Actions)
		run(t, in, sess, sc, raw)
		require.Greater(t, len(sess.Actions), before, "action not logged for %q", raw)
		assert.Equal(t, raw, sess.Actions[before].Parameters["command"])
	}
	assert.Equal(t, sess.Actions[len(sess.Actions)-1].Timestamp, sess.LastAction)

	out := run(t, in, sess, sc, "")
	assert.Empty(t, out)
	assert.Len(t, sess.CommandHistory, 3, "blank and invalid recall lines are not recorded")
}

func TestExecute_TimestampsNeverGoBackwards(t *testing.T) {
	readings := []time.Time{t0.Add(10 * time.Second), t0.Add(5 * time.Second), t0.Add(7 * time.Second)}
	i := 0
	in := New(WithDelay(NoDelay), WithClock(func() time.Time {
		now := readings[i%len(readings)]
		i++
		return now
	}))
	sc := reconScenario()
	sess := newSession(sc)

	run(t, in, sess, sc, "scan network --type basic")
	run(t, in, sess, sc, "pwd")
	run(t, in, sess, sc, "whoami")

	for j := 1; j < len(sess.Actions); j++ {
		assert.False(t, sess.Actions[j].Timestamp.Before(sess.Actions[j-1].Timestamp), "action %d precedes action %d", j, j-1)
	}
	for j := 1; j < len(sess.CommandHistory); j++ {
		assert.False(t, sess.CommandHistory[j].Timestamp.Before(sess.CommandHistory[j-1].Timestamp))
	}
}

func TestExecute_HistoryRecall(t *testing.T) {
	in := newTestInterpreter()
	sc := reconScenario()
	sess := newSession(sc)

	run(t, in, sess, sc, "whoami")
	run(t, in, sess, sc, "pwd")

	out := run(t, in, sess, sc, "!2")
	assert.True(t, strings.HasPrefix(out, "Re-executing: whoami\n"), out)
	assert.Contains(t, out, "hacker@cyber-siege:~# whoami\nhacker\n")
	require.Len(t, sess.CommandHistory, 3)
	assert.Equal(t, "whoami", sess.CommandHistory[2].Command)

	for _, bad := range []string{"!0", "!-1", "!4", "!abc", "!"} {
		out := run(t, in, sess, sc, bad)
		assert.Equal(t, "Invalid history index. Use 'history' to view command history.\n", out, bad)
		assert.Len(t, sess.CommandHistory, 3, bad)
	}

	out = run(t, in, sess, sc, "history")
	assert.Equal(t, "=== COMMAND HISTORY ===\n  4: whoami\n  3: pwd\n  2: whoami\n  1: history\n", out)
}

func TestExecute_HistoryEmpty(t *testing.T) {
	sess := newSession(reconScenario())
	x := &execution{sess: sess, sc: reconScenario(), out: &strings.Builder{}}
	x.history()
	assert.Equal(t, "=== COMMAND HISTORY ===\n  No commands in history\n", x.out.String())
}

func TestExecute_Builtins(t *testing.T) {
	in := newTestInterpreter()
	sc := reconScenario()

	tests := []struct {
		name     string
		username string
		command  string
		want     string
	}{
		{name: "clear", command: "clear", want: strings.Repeat("\n", 50)},
		{name: "uname", command: "uname", want: "hacker@cyber-siege:~# uname\nCyberSiege\n"},
		{name: "uname -a", command: "uname -a", want: "hacker@cyber-siege:~# uname -a\nCyberSiege 1.0 cybersim 5.15.0 #1 2025-04-01 x86_64 GNU/Linux\n"},
		{name: "whoami default", command: "whoami", want: "hacker@cyber-siege:~# whoami\nhacker\n"},
		{name: "whoami username", username: "neo", command: "whoami", want: "neo@cyber-siege:~# whoami\nneo\n"},
		{name: "pwd", command: "pwd", want: "hacker@cyber-siege:~# pwd\n/home/hacker\n"},
		{name: "case insensitive verb", command: "PWD", want: "hacker@cyber-siege:~# PWD\n/home/hacker\n"},
		{name: "unknown", command: "exploit web", want: "hacker@cyber-siege:~# exploit web\nCommand 'exploit' not found. Use 'help' to see available commands.\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess := newSession(sc)
			sess.Username = tt.username
			assert.Equal(t, tt.want, run(t, in, sess, sc, tt.command))
		})
	}
}

func TestExecute_Date(t *testing.T) {
	in := New(WithDelay(NoDelay), WithClock(func() time.Time { return t0 }))
	sc := reconScenario()
	out := run(t, in, newSession(sc), sc, "date")
	assert.Contains(t, out, "Tue Apr 01 2025 12:00:00 GMT+0000 (UTC)")
}

func TestExecute_HelpByCategory(t *testing.T) {
	in := newTestInterpreter()

	red := reconScenario()
	out := run(t, in, newSession(red), red, "help")
	assert.True(t, strings.HasPrefix(out, "=== AVAILABLE COMMANDS ==="))
	assert.Contains(t, out, "Reconnaissance Commands:")
	assert.NotContains(t, out, "Incident Response Commands:")
	assert.Contains(t, out, "Available Tools:\n  Nmap - Network mapper\n    Usage: scan network --type basic\n")
	assert.NotContains(t, out, "cyber-siege:", "help is not echoed")

	blue := ransomwareScenario()
	out = run(t, in, newSession(blue), blue, "help")
	assert.Contains(t, out, "Incident Response Commands:")
	assert.NotContains(t, out, "Reconnaissance Commands:")
	assert.NotContains(t, out, "Available Tools:")

	mixed := reconScenario()
	mixed.Category = scenario.CategoryMixed
	out = run(t, in, newSession(mixed), mixed, "help")
	assert.Contains(t, out, "Reconnaissance Commands:")
	assert.Contains(t, out, "Incident Response Commands:")
}

func TestExecute_StatusAndObjectives(t *testing.T) {
	in := newTestInterpreter()
	sc := reconScenario()
	sess := newSession(sc)
	run(t, in, sess, sc, "scan network --type basic")

	out := run(t, in, sess, sc, "status")
	assert.Contains(t, out, "Scenario: Network Recon\n")
	assert.Contains(t, out, "Score: 100\n")
	assert.Contains(t, out, "Objectives: 1/3 completed\n")
	assert.Contains(t, out, "Time Remaining: ")

	out = run(t, in, sess, sc, "objectives")
	assert.Contains(t, out, "1. Discover live hosts\n   Type: primary\n   Points: 100\n   Status: [COMPLETED]\n")
	assert.Contains(t, out, "2. Fingerprint the web server\n   Type: primary\n   Points: 150\n   Status: [PENDING]\n")
	assert.Contains(t, out, "3. Enumerate open ports\n   Type: bonus\n")
}

func TestExecute_TimeLimitExceeded(t *testing.T) {
	in := New(WithDelay(NoDelay), WithClock(func() time.Time { return t0.Add(61 * time.Minute) }))
	sc := reconScenario()
	sess := newSession(sc)

	res, err := in.Execute(context.Background(), sess, sc, "scan network --type basic")
	require.NoError(t, err)
	assert.Contains(t, res.Output, "Mission time limit exceeded")
	assert.True(t, res.Ended)
	assert.Equal(t, state.StatusCompleted, sess.Status)
	assert.Equal(t, state.ResultFailure, sess.Result)
	assert.False(t, sess.Objectives[0].Completed)
	assert.Len(t, sess.Actions, 1)
}

func TestExecute_DelayHonoursContext(t *testing.T) {
	in := New(WithDelay(RandomDelay(time.Hour, time.Hour)), WithClock(func() time.Time { return t0 }))
	sc := reconScenario()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := in.Execute(ctx, newSession(sc), sc, "ls")
	assert.True(t, errors.Is(err, context.Canceled))

	_, err = in.Execute(ctx, newSession(sc), sc, "help")
	assert.NoError(t, err, "built-ins do not wait")
}

func TestRandomDelay_Bounds(t *testing.T) {
	delay := RandomDelay(time.Millisecond, 3*time.Millisecond)
	start := time.Now()
	require.NoError(t, delay(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), time.Millisecond)
}

func TestExecute_EveryVerbIsDispatched(t *testing.T) {
	in := newTestInterpreter()
	sc := ransomwareScenario()
	for _, v := range Verbs() {
		t.Run(v.String(), func(t *testing.T) {
			out := run(t, in, newSession(sc), sc, v.String())
			assert.NotContains(t, out, "not found. Use 'help'")
		})
	}
}
