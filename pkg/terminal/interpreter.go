package terminal

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/jwebster45206/cyber-siege/pkg/conditionals"
	"github.com/jwebster45206/cyber-siege/pkg/scenario"
	"github.com/jwebster45206/cyber-siege/pkg/state"
)

const (
	DefaultDelayMin = 100 * time.Millisecond
	DefaultDelayMax = 500 * time.Millisecond

	defaultUser = "hacker"
	homeDir     = "/home/hacker"
)

// DelayFunc pauses the calling goroutine to simulate processing time. It
// must return ctx.Err() if the context ends first.
type DelayFunc func(ctx context.Context) error

// RandomDelay waits a uniformly random duration in [min, max].
func RandomDelay(min, max time.Duration) DelayFunc {
	if max < min {
		min, max = max, min
	}
	return func(ctx context.Context) error {
		d := min
		if span := int64(max - min); span > 0 {
			d += time.Duration(rand.Int64N(span + 1))
		}
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			return nil
		}
	}
}

// NoDelay skips the simulated processing time.
func NoDelay(ctx context.Context) error {
	return ctx.Err()
}

// Result is the outcome of one command.
type Result struct {
	Output    string              `json:"result"`
	Session   *state.Session      `json:"session"`
	Objective *scenario.Objective `json:"objective,omitempty"`
	Ended     bool                `json:"ended,omitempty"`
}

// Interpreter turns raw terminal input into report text and session
// mutations. It holds no per-session state and is safe for concurrent use
// across sessions.
type Interpreter struct {
	now    func() time.Time
	delay  DelayFunc
	logger *slog.Logger
}

type Option func(*Interpreter)

func WithClock(now func() time.Time) Option {
	return func(in *Interpreter) { in.now = now }
}

func WithDelay(d DelayFunc) Option {
	return func(in *Interpreter) { in.delay = d }
}

func WithLogger(l *slog.Logger) Option {
	return func(in *Interpreter) { in.logger = l }
}

func New(opts ...Option) *Interpreter {
	in := &Interpreter{
		now:    time.Now,
		delay:  RandomDelay(DefaultDelayMin, DefaultDelayMax),
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// execution carries the state of a single Execute call through the handlers.
type execution struct {
	sess *state.Session
	sc   *scenario.Scenario
	cmd  Command
	now  time.Time
	out  *strings.Builder
}

func (x *execution) printf(format string, args ...any) {
	fmt.Fprintf(x.out, format, args...)
}

func (x *execution) println(s string) {
	x.out.WriteString(s)
	x.out.WriteByte('\n')
}

// resolution is what a domain handler found: the tuple handed to the
// objective tracker and a short summary stored with the logged action.
type resolution struct {
	action  conditionals.Resolved
	summary string
}

// Execute runs one command against sess. Malformed input never produces an
// error; errors are returned only for an ended session or when ctx ends
// during the simulated delay.
func (in *Interpreter) Execute(ctx context.Context, sess *state.Session, sc *scenario.Scenario, raw string) (Result, error) {
	if !sess.IsActive() {
		return Result{Session: sess}, fmt.Errorf("session %s: %w", sess.ID, state.ErrSessionNotActive)
	}

	now := in.now()
	sess.LogAction(state.Action{
		Type:       state.ActionCommand,
		Parameters: map[string]any{"command": raw},
		Timestamp:  now,
	})

	line := strings.TrimSpace(raw)
	if line == "" {
		return Result{Session: sess}, nil
	}

	x := &execution{sess: sess, sc: sc, now: now, out: &strings.Builder{}}

	if sess.TimeLimitExceeded(sc.TimeLimit, now) {
		if err := sess.Complete(state.ResultFailure, now); err != nil {
			return Result{Session: sess}, err
		}
		in.logger.Info("Mission time limit exceeded", "session_id", sess.ID, "time_limit", sc.TimeLimit)
		x.printf("Mission time limit exceeded (%d minutes). Mission failed.\n", sc.TimeLimit)
		return Result{Output: x.out.String(), Session: sess, Ended: true}, nil
	}

	if ref, ok := strings.CutPrefix(line, "!"); ok {
		n, err := strconv.Atoi(ref)
		recalled, found := "", false
		if err == nil {
			recalled, found = sess.HistoryFromEnd(n)
		}
		if !found {
			x.println("Invalid history index. Use 'history' to view command history.")
			return Result{Output: x.out.String(), Session: sess}, nil
		}
		x.printf("Re-executing: %s\n", recalled)
		line = recalled
	}

	sess.AppendHistory(line, now)
	x.cmd = Parse(line)
	verb := LookupVerb(x.cmd.Verb)

	in.logger.Debug("Executing command", "session_id", sess.ID, "verb", verb.String(), "command", line)

	if verb.Echoes() {
		x.printf("%s@cyber-siege:%s# %s\n", promptUser(sess), sess.CurrentDirectory, line)
		if err := in.delay(ctx); err != nil {
			return Result{Session: sess}, fmt.Errorf("command interrupted: %w", err)
		}
	}

	res, err := in.dispatch(x, verb)
	if err != nil {
		in.logger.Error("Command dispatch failed", "session_id", sess.ID, "verb", verb.String(), "error", err)
		return Result{Session: sess}, err
	}

	result := Result{Session: sess}
	if res != nil {
		result.Objective, result.Ended = in.record(x, res)
	}
	result.Output = x.out.String()
	return result, nil
}

// record appends the domain action and runs the objective tracker.
func (in *Interpreter) record(x *execution, res *resolution) (*scenario.Objective, bool) {
	x.sess.LogAction(state.Action{
		Type:       res.action.ActionType,
		Target:     res.action.Target,
		Parameters: conditionals.CloneMap(res.action.Parameters),
		Result:     map[string]any{"summary": res.summary},
		Timestamp:  x.now,
	})

	obj := x.sess.CompleteObjective(res.action)
	if obj == nil {
		return nil, false
	}
	in.logger.Info("Objective completed",
		"session_id", x.sess.ID,
		"objective", obj.Description,
		"points", obj.Points,
		"score", x.sess.Score)
	x.printf("\n[Achievement Unlocked] %s (+%d points)\n", obj.Description, obj.Points)

	if !x.sess.PrimaryObjectivesComplete() {
		return obj, false
	}
	if err := x.sess.Complete(state.ResultSuccess, x.now); err != nil {
		return obj, false
	}
	in.logger.Info("Mission completed", "session_id", x.sess.ID, "score", x.sess.Score)
	x.printf("\n[Mission Complete] All primary objectives achieved. Final score: %d\n", x.sess.Score)
	return obj, true
}

func (in *Interpreter) dispatch(x *execution, verb Verb) (*resolution, error) {
	switch verb {
	case VerbUnknown:
		x.printf("Command '%s' not found. Use 'help' to see available commands.\n", x.cmd.Verb)
	case VerbHelp:
		x.help()
	case VerbHistory:
		x.history()
	case VerbClear:
		x.out.WriteString(strings.Repeat("\n", 50))
	case VerbStatus:
		x.status()
	case VerbObjectives:
		x.objectives()
	case VerbLs:
		x.ls()
	case VerbPwd:
		x.pwd()
	case VerbCd:
		x.cd()
	case VerbCat:
		x.cat()
	case VerbWhoami:
		x.println(promptUser(x.sess))
	case VerbDate:
		x.println(x.now.Format("Mon Jan 02 2006 15:04:05 GMT-0700 (MST)"))
	case VerbUname:
		if x.cmd.HasArg("-a") {
			x.println("CyberSiege 1.0 cybersim 5.15.0 #1 2025-04-01 x86_64 GNU/Linux")
		} else {
			x.println("CyberSiege")
		}
	case VerbScan:
		return x.scan(), nil
	case VerbIdentify:
		return x.identify(), nil
	case VerbIsolate:
		return x.isolate(), nil
	case VerbAnalyze:
		return x.analyze(), nil
	case VerbRestore:
		return x.restore(), nil
	case VerbCreate:
		return x.create(), nil
	case VerbImplement:
		return x.implement(), nil
	default:
		return nil, fmt.Errorf("no handler registered for verb %d", verb)
	}
	return nil, nil
}

func promptUser(sess *state.Session) string {
	if sess.Username != "" {
		return sess.Username
	}
	return defaultUser
}
