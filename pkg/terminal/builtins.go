package terminal

import (
	"time"

	"github.com/jwebster45206/cyber-siege/pkg/scenario"
)

func (x *execution) help() {
	x.println("=== AVAILABLE COMMANDS ===")
	x.println("")
	x.println("General Commands:")
	x.println("  help                    - Display this help message")
	x.println("  status                  - Show current mission status")
	x.println("  objectives              - List mission objectives")
	x.println("  history                 - Show command history")
	x.println("  !<n>                    - Re-run the nth most recent command")
	x.println("  clear                   - Clear the terminal")
	x.println("")
	x.println("Linux Commands:")
	x.println("  ls                      - List directory contents")
	x.println("  pwd                     - Print working directory")
	x.println("  cd [dir]                - Change directory")
	x.println("  cat [file]              - Display file contents")
	x.println("  whoami                  - Print current user")
	x.println("  date                    - Show current date/time")
	x.println("  uname [-a]              - Print system information")

	category := x.sc.Category
	if category == scenario.CategoryRedTeam || category == scenario.CategoryMixed {
		x.println("")
		x.println("Reconnaissance Commands:")
		x.println("  scan network --type <type>              - Scan the network (types: basic, advanced, full)")
		x.println("  scan server --target <ip> --type <type> - Scan a server (types: port, service, stealth, vuln)")
	}
	if category == scenario.CategoryBlueTeam || category == scenario.CategoryMixed {
		x.println("")
		x.println("Incident Response Commands:")
		x.println("  identify incident --type <incident-type>  - Analyse an attack in progress")
		x.println("  isolate system --status <status>          - Isolate systems with the given status")
		x.println("  analyze malware --type forensic           - Forensic malware analysis")
		x.println("  restore system --type from-backup         - Restore systems from backup")
		x.println("")
		x.println("Remediation Commands:")
		x.println("  create report --type incident             - Generate an incident report")
		x.println("  implement security --type preventive      - Apply preventive security measures")
	}

	if x.sc.HasTools() {
		x.println("")
		x.println("Available Tools:")
		for _, tool := range x.sc.AvailableTools {
			x.printf("  %s - %s\n", tool.Name, tool.Description)
			if tool.Usage != "" {
				x.printf("    Usage: %s\n", tool.Usage)
			}
		}
	}

	x.println("")
	x.println("Note: Additional commands may be available based on your current mission.")
	x.out.WriteString("Refer to the mission objectives and tutorial for specific command examples.")
}

// history lists entries oldest first, numbered so that 1 is the most recent.
func (x *execution) history() {
	x.println("=== COMMAND HISTORY ===")
	entries := x.sess.CommandHistory
	if len(entries) == 0 {
		x.println("  No commands in history")
		return
	}
	for i, entry := range entries {
		x.printf("  %d: %s\n", len(entries)-i, entry.Command)
	}
}

func (x *execution) status() {
	s := x.sess
	done, total := s.CompletedObjectives()
	x.println("=== MISSION STATUS ===")
	x.println("")
	x.printf("Scenario: %s\n", x.sc.Name)
	x.printf("Mode: %s\n", s.Mode)
	x.printf("Team: %s\n", s.Team)
	x.printf("Status: %s\n", s.Status)
	x.printf("Score: %d\n", s.Score)
	x.printf("Objectives: %d/%d completed\n", done, total)

	elapsed := x.now.Sub(s.StartTime).Truncate(time.Second)
	x.printf("Elapsed: %s\n", elapsed)
	if x.sc.TimeLimit > 0 {
		remaining := time.Duration(x.sc.TimeLimit)*time.Minute - elapsed
		if remaining < 0 {
			remaining = 0
		}
		x.printf("Time Remaining: %s\n", remaining)
	}
}

func (x *execution) objectives() {
	x.println("=== MISSION OBJECTIVES ===")
	x.println("")
	for i, obj := range x.sess.Objectives {
		status := "[PENDING]"
		if obj.Completed {
			status = "[COMPLETED]"
		}
		x.printf("%d. %s\n", i+1, obj.Description)
		x.printf("   Type: %s\n", obj.Kind)
		x.printf("   Points: %d\n", obj.Points)
		x.printf("   Status: %s\n\n", status)
	}
}
