// Package config loads the JSON configuration FileMover reads at startup:
// scan roots, rules, scan options, and named profiles bundling all three.
// Loading uses encoding/json's DisallowUnknownFields so a typo'd or
// renamed field fails fast with a file-and-field-naming error rather than
// being silently ignored.
package config

import (
	"bytes"
	"encoding/json"
	"os"
	"reflect"

	"github.com/pkg/errors"

	"github.com/SumihisaYutani/FileMover/pkg/model"
)

// Error is a structured configuration error naming the file and, where
// known, the offending rule.
type Error struct {
	Path   string
	RuleID string
	Reason string
}

func (e *Error) Error() string {
	if e.RuleID != "" {
		return e.Path + ": rule " + e.RuleID + ": " + e.Reason
	}
	return e.Path + ": " + e.Reason
}

// rawConfig mirrors the on-disk JSON shape before validation.
type rawConfig struct {
	Roots    []string             `json:"roots"`
	Rules    []rawRule            `json:"rules"`
	Options  rawScanOptions       `json:"options"`
	Profiles map[string]rawConfig `json:"profiles,omitempty"`
}

type rawRule struct {
	ID              string `json:"id"`
	Enabled         *bool  `json:"enabled"`
	Kind            string `json:"kind"`
	Pattern         string `json:"pattern"`
	Exclude         bool   `json:"exclude"`
	CaseInsensitive bool   `json:"case_insensitive"`
	DestRoot        string `json:"dest_root"`
	Template        string `json:"template"`
	ConflictPolicy  string `json:"conflict_policy"`
	Priority        int    `json:"priority"`
	Label           string `json:"label"`
}

type rawScanOptions struct {
	Normalization struct {
		Unicode    bool `json:"unicode"`
		Width      bool `json:"width"`
		Diacritics bool `json:"diacritics"`
		CaseFold   bool `json:"case_fold"`
	} `json:"normalization"`
	FollowJunctions    bool     `json:"follow_junctions"`
	SystemProtections  bool     `json:"system_protections"`
	MaxDepth           *int     `json:"max_depth"`
	ExcludedPaths      []string `json:"excluded_paths"`
	ParallelThreads    int      `json:"parallel_threads"`
}

// Config is the validated, in-memory form of a loaded configuration.
type Config struct {
	Roots   []string
	Rules   []model.Rule
	Options model.ScanOptions
}

// Load reads and validates a configuration file at path. If profile is
// non-empty, the named entry under "profiles" is merged over the
// top-level configuration (profile fields take precedence when present).
func Load(path string, profile string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "unable to read configuration file")
	}

	var raw rawConfig
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&raw); err != nil {
		return nil, &Error{Path: path, Reason: "invalid JSON: " + err.Error()}
	}

	if profile != "" {
		selected, ok := raw.Profiles[profile]
		if !ok {
			return nil, &Error{Path: path, Reason: "unknown profile " + profile}
		}
		raw = mergeProfile(raw, selected)
	}

	return validate(path, raw)
}

// mergeProfile overlays a profile's non-empty fields on top of the base
// configuration.
func mergeProfile(base, profile rawConfig) rawConfig {
	merged := base
	if len(profile.Roots) > 0 {
		merged.Roots = profile.Roots
	}
	if len(profile.Rules) > 0 {
		merged.Rules = profile.Rules
	}
	if !reflect.DeepEqual(profile.Options, rawScanOptions{}) {
		merged.Options = profile.Options
	}
	return merged
}

// validate converts and checks a rawConfig, producing typed model values
// or a structured *Error naming the offending rule.
func validate(path string, raw rawConfig) (*Config, error) {
	if len(raw.Roots) == 0 {
		return nil, &Error{Path: path, Reason: "no scan roots declared"}
	}

	rules := make([]model.Rule, 0, len(raw.Rules))
	seen := make(map[string]bool, len(raw.Rules))
	for _, r := range raw.Rules {
		if r.ID == "" {
			return nil, &Error{Path: path, Reason: "rule missing required \"id\" field"}
		}
		if seen[r.ID] {
			return nil, &Error{Path: path, RuleID: r.ID, Reason: "duplicate rule id"}
		}
		seen[r.ID] = true

		kind, err := parseKind(r.Kind)
		if err != nil {
			return nil, &Error{Path: path, RuleID: r.ID, Reason: err.Error()}
		}
		policy, err := parsePolicy(r.ConflictPolicy)
		if err != nil {
			return nil, &Error{Path: path, RuleID: r.ID, Reason: err.Error()}
		}

		enabled := true
		if r.Enabled != nil {
			enabled = *r.Enabled
		}

		rules = append(rules, model.Rule{
			ID:      r.ID,
			Enabled: enabled,
			Pattern: model.PatternSpec{
				Kind:            kind,
				Value:           r.Pattern,
				IsExclude:       r.Exclude,
				CaseInsensitive: r.CaseInsensitive,
			},
			DestRoot:       r.DestRoot,
			Template:       r.Template,
			ConflictPolicy: policy,
			Priority:       r.Priority,
			Label:          r.Label,
		})
	}

	options := model.ScanOptions{
		Normalization: model.NormalizationFlags{
			Unicode:    raw.Options.Normalization.Unicode,
			Width:      raw.Options.Normalization.Width,
			Diacritics: raw.Options.Normalization.Diacritics,
			CaseFold:   raw.Options.Normalization.CaseFold,
		},
		FollowJunctions:    raw.Options.FollowJunctions,
		SystemProtections:  raw.Options.SystemProtections,
		MaxDepth:           raw.Options.MaxDepth,
		ExcludedPaths:      raw.Options.ExcludedPaths,
		ParallelThreads:    raw.Options.ParallelThreads,
	}

	return &Config{Roots: raw.Roots, Rules: rules, Options: options}, nil
}

func parseKind(s string) (model.PatternKind, error) {
	switch s {
	case "glob":
		return model.PatternGlob, nil
	case "regex":
		return model.PatternRegex, nil
	case "contains":
		return model.PatternContains, nil
	default:
		return 0, errors.Errorf("unrecognized pattern kind %q (want glob, regex, or contains)", s)
	}
}

// LoadRules reads a standalone rules file (the same "rules" array shape
// used inside a full configuration, but with no roots or options
// required) for the plan subcommand, which only needs rule definitions.
func LoadRules(path string) ([]model.Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "unable to read rules file")
	}

	var raw struct {
		Rules []rawRule `json:"rules"`
	}
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&raw); err != nil {
		return nil, &Error{Path: path, Reason: "invalid JSON: " + err.Error()}
	}

	cfg, err := validate(path, rawConfig{Roots: []string{"."}, Rules: raw.Rules})
	if err != nil {
		return nil, err
	}
	return cfg.Rules, nil
}

func parsePolicy(s string) (model.Policy, error) {
	switch s {
	case "", "auto_rename":
		return model.PolicyAutoRename, nil
	case "skip":
		return model.PolicySkip, nil
	case "overwrite":
		return model.PolicyOverwrite, nil
	default:
		return 0, errors.Errorf("unrecognized conflict policy %q (want auto_rename, skip, or overwrite)", s)
	}
}
