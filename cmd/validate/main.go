package main

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/jwebster45206/cyber-siege/pkg/scenario"
	"github.com/jwebster45206/cyber-siege/pkg/terminal"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <scenario.json|scenario.yaml>...\n", os.Args[0])
		os.Exit(1)
	}

	failed := false
	for _, filename := range os.Args[1:] {
		validator := &ScenarioValidator{}
		if err := validator.validateFile(filename); err != nil {
			fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
			failed = true
			continue
		}
		fmt.Printf("%s is valid!\n", filename)
	}
	if failed {
		os.Exit(1)
	}
}

type ScenarioValidator struct {
	errors []string
}

func (v *ScenarioValidator) validateFile(filename string) error {
	fmt.Printf("Validating %s...\n", filename)

	format, ok := scenario.FormatFromPath(filename)
	if !ok {
		return fmt.Errorf("scenario file must have a .json, .yaml or .yml extension: %s", filepath.Base(filename))
	}

	baseName := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	if !isValidScenarioFilename(baseName) {
		return fmt.Errorf("scenario filename '%s' must be lowercase kebab-case (e.g., network-recon.json)", filepath.Base(filename))
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", filename, err)
	}

	s, err := scenario.DecodeStrict(data, format)
	if err != nil {
		return fmt.Errorf("file %s failed strict unmarshaling: %w", filename, err)
	}

	v.errors = nil
	if err := s.Validate(); err != nil {
		for _, line := range strings.Split(err.Error(), "\n") {
			v.addError(line)
		}
	}
	v.lintScenario(s)

	if len(v.errors) > 0 {
		return fmt.Errorf("validation errors in %s:\n%s", filename, strings.Join(v.errors, "\n"))
	}
	return nil
}

// lintScenario catches scenarios that load fine but can never be completed.
func (v *ScenarioValidator) lintScenario(s *scenario.Scenario) {
	domain := make(map[string]bool)
	for _, verb := range terminal.Verbs() {
		if verb.IsDomain() {
			domain[verb.String()] = true
		}
	}

	for i, obj := range s.Objectives {
		action := obj.CompletionCriteria.ActionType
		if action != "" && !domain[action] {
			v.addError(fmt.Sprintf("objectives[%d]: actionType '%s' is not a command players can run", i, action))
		}
	}

	if len(s.Objectives) == 0 {
		v.addError("scenario has no objectives")
	}

	for _, name := range s.RequiredSkills {
		if !isValidID(name) {
			v.addError(fmt.Sprintf("required skill '%s' should be lowercase kebab-case", name))
		}
	}
}

func (v *ScenarioValidator) addError(msg string) {
	v.errors = append(v.errors, "  - "+msg)
}

var validIDRegex = regexp.MustCompile(`^[a-z][a-z0-9-]*[a-z0-9]$|^[a-z]$`)

func isValidID(id string) bool {
	return validIDRegex.MatchString(id)
}

func isValidScenarioFilename(name string) bool {
	// Allow 'x.' prefix for experimental scenarios
	name = strings.TrimPrefix(name, "x.")
	return validIDRegex.MatchString(name)
}
