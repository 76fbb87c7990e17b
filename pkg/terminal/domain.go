package terminal

import (
	"fmt"
	"slices"
	"strings"

	"github.com/jwebster45206/cyber-siege/pkg/conditionals"
	"github.com/jwebster45206/cyber-siege/pkg/scenario"
)

const (
	assetForensicToolkit = "Forensic Analysis Toolkit"
	assetBackupServer    = "Backup Server"
)

func resolved(actionType, target string, params map[string]any, summary string) *resolution {
	return &resolution{
		action:  conditionals.Resolved{ActionType: actionType, Target: target, Parameters: params},
		summary: summary,
	}
}

// flagOrUsage returns the named flag value. When the target or flag is
// missing it prints usage and returns false.
func (x *execution) flagOrUsage(flag, usage string) (string, bool) {
	v, ok := x.cmd.Flag(flag)
	if x.cmd.Arg(0) == "" || !ok {
		x.println(usage)
		return "", false
	}
	return v, true
}

func (x *execution) scan() *resolution {
	target := x.cmd.Arg(0)
	scanType, _ := x.cmd.Flag("type")
	if target == "" || scanType == "" {
		x.println("Usage: scan <network|server> --type <type> [--target <ip>]")
		x.println("Scan types: basic, advanced, full, port, service, stealth, vuln")
		return nil
	}
	ip, _ := x.cmd.Flag("target")

	switch {
	case target == "network":
		return x.scanNetwork(scanType)
	case target == "server" && ip != "":
		return x.scanServer(scanType, ip)
	default:
		x.println("Invalid scan target or missing IP address")
		return nil
	}
}

func (x *execution) scanNetwork(scanType string) *resolution {
	network, ok := x.sc.FindAsset(func(a *scenario.Asset) bool { return a.Type == "network" })
	if !ok {
		x.println("No network found to scan")
		return nil
	}
	hosts := network.ListProperty("hosts")
	if len(hosts) == 0 {
		x.printf("No hosts found on %s\n", network.Name)
		return nil
	}

	x.printf("\nScanning network %s/24...\n\n", hosts[0])
	for _, h := range hosts {
		x.printf("Host %s is up\n", h)
	}

	x.sess.RevealAsset(network.Name)
	for _, a := range x.sc.FilterAssets(func(a *scenario.Asset) bool { return slices.Contains(hosts, a.Property("ip")) }) {
		x.sess.RevealAsset(a.Name)
	}

	return resolved("scan", "network", map[string]any{"scanType": scanType},
		fmt.Sprintf("%d hosts up", len(hosts)))
}

func (x *execution) scanServer(scanType, ip string) *resolution {
	server, ok := x.sc.FindAsset(func(a *scenario.Asset) bool {
		return a.Type == "server" && a.Property("ip") == ip
	})
	if !ok {
		x.printf("No such host: %s\n", ip)
		return nil
	}

	var summary string
	switch scanType {
	case "port":
		ports := server.ListProperty("ports")
		x.printf("\nPort scan results for %s:\n\n", ip)
		for _, p := range ports {
			x.printf("%s/tcp open\n", p)
		}
		summary = fmt.Sprintf("%d open ports", len(ports))
	case "service":
		services := server.Services()
		x.printf("\nService detection results for %s:\n\n", ip)
		for _, svc := range services {
			x.printf("%s/tcp open  %s\n", svc.Port, svc.Name)
		}
		summary = fmt.Sprintf("%d services identified", len(services))
	case "stealth":
		ports := server.ListProperty("ports")
		x.printf("\nStealth scan results for %s:\n\n", ip)
		for _, p := range ports {
			x.printf("%s/tcp open  (TCP SYN scan)\n", p)
		}
		summary = fmt.Sprintf("%d open ports (stealth)", len(ports))
	case "vuln":
		x.printf("\nVulnerability scan results for %s:\n\n", ip)
		if len(server.Vulnerabilities) == 0 {
			x.println("No known vulnerabilities detected")
		}
		for _, v := range server.Vulnerabilities {
			x.printf("[!] %s\n", v)
		}
		summary = fmt.Sprintf("%d vulnerabilities", len(server.Vulnerabilities))
	default:
		x.printf("Unknown scan type: %s\n", scanType)
		return nil
	}

	x.sess.RevealAsset(server.Name)
	return resolved("scan", "server", map[string]any{"scanType": scanType, "ip": ip}, summary)
}

func (x *execution) identify() *resolution {
	incidentType, ok := x.flagOrUsage("type", "Usage: identify incident --type <incident-type>")
	if !ok {
		return nil
	}
	if incidentType == "" {
		x.println("Missing incident type")
		return nil
	}

	event, found := x.sc.AttackEvent(incidentType)
	if !found {
		x.printf("No %s incident detected\n", incidentType)
		return nil
	}

	x.println("\nIncident Analysis Results:\n")
	x.printf("Type: %s attack\n", upper.String(event.AttackType))
	x.printf("Initial Infection: %s\n", orDash(event.Target))
	x.printf("Attack Vector: %s\n", orDash(event.Source))
	x.printf("Timestamp: %s\n", orDash(event.Timestamp))
	if len(event.Details) > 0 {
		x.println("\nDetails:")
		for _, k := range sortedKeys(event.Details) {
			x.printf("- %s: %s\n", detailLabel(k), formatValue(event.Details[k]))
		}
	}

	return resolved("identify", "incident", map[string]any{"incidentType": incidentType},
		fmt.Sprintf("%s attack from %s", event.AttackType, orDash(event.Source)))
}

func (x *execution) isolate() *resolution {
	status, ok := x.flagOrUsage("status", "Usage: isolate system --status <status>")
	if !ok {
		return nil
	}
	if status == "" {
		x.println("Missing system status")
		return nil
	}

	systems := x.sc.FilterAssets(func(a *scenario.Asset) bool {
		return (a.Type == "server" || a.Type == "workstation") && a.Property("status") == status
	})
	if len(systems) == 0 {
		x.printf("No systems found with status: %s\n", status)
		return nil
	}

	x.println("\nIsolating infected systems:\n")
	names := make([]string, 0, len(systems))
	for _, sys := range systems {
		x.printf("[+] %s (%s)\n", sys.Name, orDash(sys.Property("ip")))
		x.printf("    OS: %s\n", orDash(sys.Property("os")))
		if services := sys.Services(); len(services) > 0 {
			svcNames := make([]string, len(services))
			for i, svc := range services {
				svcNames[i] = svc.Name
			}
			x.printf("    Services: %s\n", strings.Join(svcNames, ", "))
		}
		x.println("    Status: Isolated\n")
		names = append(names, sys.Name)
	}

	return resolved("isolate", "system", map[string]any{"systemStatus": status},
		"isolated "+strings.Join(names, ", "))
}

func (x *execution) analyze() *resolution {
	analysisType, ok := x.flagOrUsage("type", "Usage: analyze <target> --type <analysis-type>")
	if !ok {
		return nil
	}
	if x.cmd.Arg(0) != "malware" || analysisType != "forensic" {
		x.println("Invalid analysis target or type")
		return nil
	}
	if _, ok := x.sc.AssetByName(assetForensicToolkit); !ok {
		x.println("Error: Forensic Analysis Toolkit not available")
		return nil
	}

	event, found := x.sc.AttackEvent("")
	if !found || len(event.Details) == 0 {
		x.println("No malware samples available for analysis")
		return nil
	}

	x.println("\nMalware Analysis Results:\n")
	x.printf("Family: %s\n", formatValue(event.Details["malwareFamily"]))
	x.printf("Affected Files: %s\n", formatValue(event.Details["encryptedFiles"]))
	x.printf("Propagation Method: %s\n", formatValue(event.Details["spreadMethod"]))
	x.printf("Initial Compromise: %s\n", orDash(event.Source))

	return resolved("analyze", "malware", map[string]any{"analysisType": analysisType},
		fmt.Sprintf("family %s", formatValue(event.Details["malwareFamily"])))
}

func (x *execution) restore() *resolution {
	restoreType, ok := x.flagOrUsage("type", "Usage: restore system --type <restore-type>")
	if !ok {
		return nil
	}
	if restoreType != "from-backup" {
		x.println("Invalid restore type")
		return nil
	}

	backup, found := x.sc.AssetByName(assetBackupServer)
	if !found || backup.Property("status") != "operational" {
		x.println("Error: Backup server not available")
		return nil
	}

	x.println("\nRestoring systems from backup:\n")
	x.printf("Backup server: %s\n", orDash(backup.Property("ip")))
	x.printf("Last backup: %s\n\n", orDash(backup.Property("lastBackup")))

	infected := x.sc.FilterAssets(func(a *scenario.Asset) bool { return a.Property("status") == "infected" })
	for _, a := range infected {
		x.printf("[+] Restoring %s\n", a.Name)
		x.println("    Status: Restore Complete\n")
	}

	return resolved("restore", "system", map[string]any{"restoreType": restoreType},
		fmt.Sprintf("%d systems restored", len(infected)))
}

func (x *execution) create() *resolution {
	reportType, ok := x.flagOrUsage("type", "Usage: create report --type <report-type>")
	if !ok {
		return nil
	}
	if reportType != "incident" {
		x.println("Invalid report type. Available type: incident")
		return nil
	}

	actions := x.sess.DomainActions()
	if len(actions) == 0 {
		x.println("No actions recorded for report generation")
		return nil
	}

	x.println("\nGenerating Incident Report")
	x.println("=======================\n")
	x.println("Incident Summary:")
	x.println("-----------------")
	if event, found := x.sc.AttackEvent(""); found {
		x.printf("Type: %s attack\n", event.AttackType)
		x.printf("Initial Vector: %s\n", orDash(event.Source))
		x.printf("First Compromised System: %s\n", orDash(event.Target))
		x.printf("Time of Detection: %s\n", orDash(event.Timestamp))
	}
	x.println("")
	x.println("Response Actions:")
	x.println("----------------")
	for i, a := range actions {
		x.printf("%d. [%s] %s\n", i+1, formatTimestamp(a.Timestamp), describeAction(a))
	}

	return resolved("create", "report", map[string]any{"reportType": reportType},
		fmt.Sprintf("%d response actions", len(actions)))
}

func (x *execution) implement() *resolution {
	improvementType, ok := x.flagOrUsage("type", "Usage: implement security --type <improvement-type>")
	if !ok {
		return nil
	}
	if improvementType != "preventive" {
		x.println("Invalid improvement type. Available type: preventive")
		return nil
	}

	x.println("\nImplementing Security Improvements")
	x.println("==============================\n")
	vulns := x.sc.Vulnerabilities()
	if len(vulns) == 0 {
		x.println("No known vulnerabilities to address")
	}
	for _, v := range vulns {
		x.printf("[+] Addressing: %s\n", v)
		for _, step := range remediationSteps(v) {
			x.printf("    - %s\n", step)
		}
		x.println("")
	}

	return resolved("implement", "security", map[string]any{"improvementType": improvementType},
		fmt.Sprintf("%d vulnerabilities addressed", len(vulns)))
}
