package terminal

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jwebster45206/cyber-siege/pkg/scenario"
	"github.com/jwebster45206/cyber-siege/pkg/state"
)

const (
	dirTools  = "/tools"
	dirAssets = "/assets"
	dirLogs   = "/logs"

	fileBrief      = "mission-brief.txt"
	fileObjectives = "objectives.txt"
	fileActivity   = "activity.log"
	fileScans      = "scan-results.log"
	fileInfo       = "info.txt"
)

// topDirs returns the root directories whose visibility preconditions hold.
func (x *execution) topDirs() []string {
	var dirs []string
	if x.sc.HasTools() {
		dirs = append(dirs, "tools")
	}
	if x.sc.HasAssets() {
		dirs = append(dirs, "assets")
	}
	if len(x.sess.Actions) > 0 {
		dirs = append(dirs, "logs")
	}
	return dirs
}

func (x *execution) topDirVisible(name string) bool {
	for _, d := range x.topDirs() {
		if d == name {
			return true
		}
	}
	return false
}

// assetDir finds the visible asset whose slug is slug. Every visible asset
// has a directory; IsDirectory only affects how ls renders it.
func (x *execution) assetDir(slug string) (*scenario.Asset, bool) {
	return x.sc.FindAsset(func(a *scenario.Asset) bool {
		return a.Slug() == slug && x.sess.IsAssetVisible(a.Name)
	})
}

// currentAsset returns the asset whose directory is the cwd, if any.
func (x *execution) currentAsset() (*scenario.Asset, bool) {
	slug, ok := strings.CutPrefix(x.sess.CurrentDirectory, dirAssets+"/")
	if !ok {
		return nil, false
	}
	return x.assetDir(slug)
}

func (x *execution) ls() {
	var entries []string
	for _, d := range x.topDirs() {
		entries = append(entries, d+"/")
	}

	switch cwd := x.sess.CurrentDirectory; {
	case cwd == state.RootDirectory:
		entries = append(entries, fileBrief, fileObjectives)
	case cwd == dirTools && x.sc.HasTools():
		for _, tool := range x.sc.AvailableTools {
			entries = append(entries, strings.ToLower(tool.Name))
		}
	case cwd == dirAssets && x.sc.HasAssets():
		for i := range x.sc.Assets {
			a := &x.sc.Assets[i]
			if !x.sess.IsAssetVisible(a.Name) {
				continue
			}
			if a.IsDirectory() {
				entries = append(entries, a.Slug()+"/")
			} else {
				entries = append(entries, a.Slug())
			}
		}
	case cwd == dirLogs:
		entries = append(entries, fileActivity, fileScans)
	default:
		if _, ok := x.currentAsset(); ok {
			entries = append(entries, fileInfo)
		}
	}
	x.println(strings.Join(entries, "  "))
}

func (x *execution) pwd() {
	if x.sess.CurrentDirectory == state.RootDirectory {
		x.println(homeDir)
		return
	}
	x.println(homeDir + x.sess.CurrentDirectory)
}

func (x *execution) cd() {
	arg := x.cmd.Arg(0)
	if next, ok := x.resolveDir(arg); ok {
		x.sess.CurrentDirectory = next
		return
	}
	x.printf("cd: %s: No such directory\n", arg)
}

// resolveDir maps a cd argument onto a visible directory path.
func (x *execution) resolveDir(arg string) (string, bool) {
	cwd := x.sess.CurrentDirectory
	if arg == "" || arg == "~" || arg == "/" {
		return state.RootDirectory, true
	}
	if arg == ".." {
		if i := strings.LastIndex(cwd, "/"); i > 0 {
			return cwd[:i], true
		}
		return state.RootDirectory, true
	}
	if arg == "." {
		return cwd, true
	}

	clean := strings.Trim(strings.TrimPrefix(arg, "~"), "/")
	parts := strings.Split(clean, "/")
	switch {
	case len(parts) == 1 && x.topDirVisible(parts[0]):
		return "/" + parts[0], true
	case len(parts) == 1 && cwd == dirAssets && x.sc.HasAssets():
		if a, ok := x.assetDir(parts[0]); ok {
			return dirAssets + "/" + a.Slug(), true
		}
	case len(parts) == 2 && parts[0] == "assets" && x.topDirVisible("assets"):
		if a, ok := x.assetDir(parts[1]); ok {
			return dirAssets + "/" + a.Slug(), true
		}
	}
	return "", false
}

func (x *execution) cat() {
	name := x.cmd.Arg(0)
	if name == "" {
		x.println("Usage: cat <filename>")
		return
	}

	cwd := x.sess.CurrentDirectory
	switch {
	case name == fileBrief:
		x.missionBrief()
		return
	case name == fileObjectives:
		x.objectives()
		return
	case name == fileActivity && cwd == dirLogs:
		x.activityLog()
		return
	case name == fileScans && cwd == dirLogs:
		x.scanLog()
		return
	case name == fileInfo:
		if a, ok := x.currentAsset(); ok {
			x.assetInfo(a)
			return
		}
	case cwd == dirAssets:
		a, ok := x.sc.FindAsset(func(a *scenario.Asset) bool {
			return !a.IsDirectory() && a.Slug() == name && x.sess.IsAssetVisible(a.Name)
		})
		if ok {
			x.assetInfo(a)
			return
		}
	}
	x.printf("cat: %s: No such file or directory\n", name)
}

func (x *execution) missionBrief() {
	x.println("=== MISSION BRIEF ===")
	x.println("")
	x.println(x.sc.Description)
	x.println("")
	x.printf("Mission Type: %s\n", x.sc.Type)
	x.printf("Category: %s\n", x.sc.Category)
	x.printf("Difficulty: %d\n", x.sc.Difficulty)
	if x.sc.TimeLimit > 0 {
		x.printf("Time Limit: %d minutes\n", x.sc.TimeLimit)
	}
	if len(x.sc.RequiredSkills) > 0 {
		x.printf("Required Skills: %s\n", strings.Join(x.sc.RequiredSkills, ", "))
	}
}

func (x *execution) activityLog() {
	x.println("=== ACTIVITY LOG ===")
	x.println("")
	for _, a := range x.sess.Actions {
		x.printf("[%s] %s\n", formatTimestamp(a.Timestamp), describeAction(a))
	}
}

func (x *execution) scanLog() {
	x.println("=== SCAN RESULTS ===")
	x.println("")
	for _, a := range x.sess.Actions {
		if a.Type != "scan" {
			continue
		}
		x.printf("[%s] Scan Type: %v\n", formatTimestamp(a.Timestamp), a.Parameters["scanType"])
		if a.Target != "" {
			x.printf("Target: %s\n", a.Target)
		}
		if ip, ok := a.Parameters["ip"]; ok {
			x.printf("Host: %v\n", ip)
		}
		if summary, ok := a.Result["summary"]; ok {
			x.printf("Result: %v\n", summary)
		}
		x.println("")
	}
}

func (x *execution) assetInfo(a *scenario.Asset) {
	x.printf("=== %s ===\n\n", a.Name)
	x.printf("Type: %s\n", a.Type)
	x.printf("Value: %d\n", a.Value)

	keys := make([]string, 0, len(a.Properties))
	for k := range a.Properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if k == "services" {
			services := a.Services()
			parts := make([]string, len(services))
			for i, svc := range services {
				parts[i] = svc.Port + "/" + svc.Name
			}
			x.printf("%s: %s\n", detailLabel(k), strings.Join(parts, ", "))
			continue
		}
		x.printf("%s: %s\n", detailLabel(k), formatValue(a.Properties[k]))
	}
}

func formatValue(v any) string {
	switch vv := v.(type) {
	case []any:
		parts := make([]string, len(vv))
		for i, item := range vv {
			parts[i] = formatValue(item)
		}
		return strings.Join(parts, ", ")
	case []string:
		return strings.Join(vv, ", ")
	case map[string]any:
		keys := make([]string, 0, len(vv))
		for k := range vv {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = fmt.Sprintf("%s/%s", k, formatValue(vv[k]))
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprint(v)
	}
}
