package terminal

import (
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/jwebster45206/cyber-siege/pkg/state"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	upper = cases.Upper(language.Und)
	lower = cases.Lower(language.Und)
)

// remediations are the canned fixes applied by `implement security`.
var remediations = map[string][]string{
	"outdated-software": {
		"Updating all systems to latest security patches",
		"Implementing automated patch management",
	},
	"weak-authentication": {
		"Enforcing strong password policies",
		"Implementing multi-factor authentication",
	},
	"phishing-susceptible": {
		"Deploying email filtering solutions",
		"Scheduling security awareness training",
	},
}

func remediationSteps(vuln string) []string {
	if steps, ok := remediations[vuln]; ok {
		return steps
	}
	return []string{"Applying security hardening for " + vuln}
}

// formatTimestamp renders times like an ISO-8601 UTC string with milliseconds.
func formatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}

// describeAction renders "<type> on <target> --key value ..." with keys sorted.
func describeAction(a state.Action) string {
	var b strings.Builder
	b.WriteString(a.Type)
	if a.Target != "" {
		b.WriteString(" on ")
		b.WriteString(a.Target)
	}
	for _, k := range sortedKeys(a.Parameters) {
		fmt.Fprintf(&b, " --%s %v", k, a.Parameters[k])
	}
	return b.String()
}

// detailLabel turns a camelCase key into lowercase words: "encryptedFiles"
// becomes "encrypted files".
func detailLabel(key string) string {
	var b strings.Builder
	for i, r := range key {
		if i > 0 && unicode.IsUpper(r) {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return lower.String(b.String())
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
