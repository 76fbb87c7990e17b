package terminal

import "strings"

// Command is one parsed input line.
type Command struct {
	Raw   string
	Verb  string // lowercased first token
	Args  []string
	Flags map[string]string
}

// Parse splits a line on whitespace. Tokens of the form --name consume the
// following token as their value unless it is itself a --flag; a trailing
// flag maps to "". Later duplicates override earlier ones. Everything else,
// including single-dash tokens like -a, is positional.
func Parse(raw string) Command {
	cmd := Command{Raw: raw, Flags: make(map[string]string)}
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return cmd
	}
	cmd.Verb = strings.ToLower(fields[0])

	rest := fields[1:]
	for i := 0; i < len(rest); i++ {
		tok := rest[i]
		name, isFlag := strings.CutPrefix(tok, "--")
		if !isFlag || name == "" {
			cmd.Args = append(cmd.Args, tok)
			continue
		}
		value := ""
		if i+1 < len(rest) && !strings.HasPrefix(rest[i+1], "--") {
			value = rest[i+1]
			i++
		}
		cmd.Flags[name] = value
	}
	return cmd
}

// Arg returns the i-th positional argument or "".
func (c Command) Arg(i int) string {
	if i < 0 || i >= len(c.Args) {
		return ""
	}
	return c.Args[i]
}

// Flag returns a flag value and whether the flag was given at all.
func (c Command) Flag(name string) (string, bool) {
	v, ok := c.Flags[name]
	return v, ok
}

// HasArg reports whether a positional argument equals v.
func (c Command) HasArg(v string) bool {
	for _, a := range c.Args {
		if a == v {
			return true
		}
	}
	return false
}
