package terminal

// Verb identifies a command handler. Every value below verbCount must be
// handled by Interpreter.dispatch.
type Verb int

const (
	VerbUnknown Verb = iota

	// built-ins
	VerbHelp
	VerbHistory
	VerbClear
	VerbStatus
	VerbObjectives

	// virtual filesystem and shell
	VerbLs
	VerbPwd
	VerbCd
	VerbCat
	VerbWhoami
	VerbDate
	VerbUname

	// domain
	VerbScan
	VerbIdentify
	VerbIsolate
	VerbAnalyze
	VerbRestore
	VerbCreate
	VerbImplement

	verbCount
)

var verbNames = [verbCount]string{
	VerbUnknown:    "",
	VerbHelp:       "help",
	VerbHistory:    "history",
	VerbClear:      "clear",
	VerbStatus:     "status",
	VerbObjectives: "objectives",
	VerbLs:         "ls",
	VerbPwd:        "pwd",
	VerbCd:         "cd",
	VerbCat:        "cat",
	VerbWhoami:     "whoami",
	VerbDate:       "date",
	VerbUname:      "uname",
	VerbScan:       "scan",
	VerbIdentify:   "identify",
	VerbIsolate:    "isolate",
	VerbAnalyze:    "analyze",
	VerbRestore:    "restore",
	VerbCreate:     "create",
	VerbImplement:  "implement",
}

var verbsByName = func() map[string]Verb {
	m := make(map[string]Verb, verbCount)
	for v := VerbUnknown + 1; v < verbCount; v++ {
		m[verbNames[v]] = v
	}
	return m
}()

// LookupVerb maps a lowercased token to its verb, or VerbUnknown.
func LookupVerb(name string) Verb {
	return verbsByName[name]
}

func (v Verb) String() string {
	if v <= VerbUnknown || v >= verbCount {
		return "unknown"
	}
	return verbNames[v]
}

// Echoes reports whether the verb's output opens with the shell prompt line
// and is subject to the simulated processing delay.
func (v Verb) Echoes() bool {
	switch v {
	case VerbHelp, VerbHistory, VerbClear, VerbStatus, VerbObjectives:
		return false
	default:
		return true
	}
}

// IsDomain reports whether the verb resolves an action the objective
// tracker can match.
func (v Verb) IsDomain() bool {
	return v >= VerbScan && v < verbCount
}

// Verbs returns every known verb in declaration order.
func Verbs() []Verb {
	out := make([]Verb, 0, verbCount-1)
	for v := VerbUnknown + 1; v < verbCount; v++ {
		out = append(out, v)
	}
	return out
}
