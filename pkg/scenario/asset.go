package scenario

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Asset is a simulated in-world resource: a network, host, or tool.
type Asset struct {
	Name            string         `json:"name" yaml:"name"`
	Type            string         `json:"type" yaml:"type"`
	Value           int            `json:"value,omitempty" yaml:"value,omitempty"`
	Vulnerabilities []string       `json:"vulnerabilities,omitempty" yaml:"vulnerabilities,omitempty"`
	Properties      map[string]any `json:"properties,omitempty" yaml:"properties,omitempty"`
}

// Service is one entry of an asset's port → service map.
type Service struct {
	Port string
	Name string
}

// Slug is the directory name used for the asset in the virtual filesystem.
func (a *Asset) Slug() string {
	return Slugify(a.Name)
}

// IsDirectory reports whether ls shows the asset with a trailing '/'.
func (a *Asset) IsDirectory() bool {
	return a.Type == "network" || a.Type == "server"
}

// Property returns a property rendered as a string, or "" if unset.
func (a *Asset) Property(key string) string {
	v, ok := a.Properties[key]
	if !ok || v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

// ListProperty returns a list property with every element rendered as a string.
func (a *Asset) ListProperty(key string) []string {
	switch v := a.Properties[key].(type) {
	case []string:
		return append([]string(nil), v...)
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, fmt.Sprint(item))
		}
		return out
	default:
		return nil
	}
}

// Services returns the asset's services ordered by numeric port.
func (a *Asset) Services() []Service {
	var out []Service
	switch v := a.Properties["services"].(type) {
	case map[string]any:
		for port, name := range v {
			out = append(out, Service{Port: port, Name: fmt.Sprint(name)})
		}
	case map[string]string:
		for port, name := range v {
			out = append(out, Service{Port: port, Name: name})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		pi, errI := strconv.Atoi(out[i].Port)
		pj, errJ := strconv.Atoi(out[j].Port)
		if errI == nil && errJ == nil {
			return pi < pj
		}
		return out[i].Port < out[j].Port
	})
	return out
}

// HasProperty reports whether the property list contains value.
func (a *Asset) HasProperty(key, value string) bool {
	for _, v := range a.ListProperty(key) {
		if v == value {
			return true
		}
	}
	return false
}

// Slugify lowercases a name and joins whitespace-separated words with '-'.
func Slugify(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), "-")
}
