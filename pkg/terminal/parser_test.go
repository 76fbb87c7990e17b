package terminal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		verb  string
		args  []string
		flags map[string]string
	}{
		{
			name:  "verb is lowercased",
			input: "SCAN network",
			verb:  "scan",
			args:  []string{"network"},
			flags: map[string]string{},
		},
		{
			name:  "flag pairs",
			input: "scan server --target 10.0.0.5 --type port",
			verb:  "scan",
			args:  []string{"server"},
			flags: map[string]string{"target": "10.0.0.5", "type": "port"},
		},
		{
			name:  "later duplicates override",
			input: "scan network --type basic --type full",
			verb:  "scan",
			args:  []string{"network"},
			flags: map[string]string{"type": "full"},
		},
		{
			name:  "trailing flag has empty value",
			input: "identify incident --type",
			verb:  "identify",
			args:  []string{"incident"},
			flags: map[string]string{"type": ""},
		},
		{
			name:  "flag followed by flag",
			input: "scan --type --target 10.0.0.1",
			verb:  "scan",
			flags: map[string]string{"type": "", "target": "10.0.0.1"},
		},
		{
			name:  "single dash stays positional",
			input: "uname   -a",
			verb:  "uname",
			args:  []string{"-a"},
			flags: map[string]string{},
		},
		{
			name:  "arguments keep their case",
			input: "cat Mission-Brief.TXT",
			verb:  "cat",
			args:  []string{"Mission-Brief.TXT"},
			flags: map[string]string{},
		},
		{
			name:  "empty",
			input: "   ",
			flags: map[string]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := Parse(tt.input)
			assert.Equal(t, tt.verb, cmd.Verb)
			assert.Equal(t, tt.args, cmd.Args)
			assert.Equal(t, tt.flags, cmd.Flags)
		})
	}
}

func TestCommand_Accessors(t *testing.T) {
	cmd := Parse("scan server --type port -v")
	assert.Equal(t, "server", cmd.Arg(0))
	assert.Equal(t, "-v", cmd.Arg(1))
	assert.Equal(t, "", cmd.Arg(5))
	assert.True(t, cmd.HasArg("-v"))

	v, ok := cmd.Flag("type")
	assert.True(t, ok)
	assert.Equal(t, "port", v)
	_, ok = cmd.Flag("target")
	assert.False(t, ok)
}

func TestLookupVerb(t *testing.T) {
	for _, v := range Verbs() {
		assert.Equal(t, v, LookupVerb(v.String()), v.String())
	}
	assert.Equal(t, VerbUnknown, LookupVerb("exploit"))
	assert.Equal(t, VerbUnknown, LookupVerb(""))
	assert.Equal(t, "unknown", VerbUnknown.String())

	assert.False(t, VerbHelp.Echoes())
	assert.True(t, VerbLs.Echoes())
	assert.True(t, VerbScan.IsDomain())
	assert.False(t, VerbCat.IsDomain())
}
