package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// RosterConfig is the on-disk roster document.
type RosterConfig struct {
	Players     []RosterEntry     `yaml:"players"`
	TeamAliases map[string]string `yaml:"team_aliases"`
}

// LoadRoster reads and indexes the roster file.
func LoadRoster(path string) (*Roster, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading roster file: %w", err)
	}

	var cfg RosterConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parsing roster file %s: %w", path, err)
	}
	if len(cfg.Players) == 0 {
		return nil, fmt.Errorf("roster file %s contains no players", path)
	}

	for i, entry := range cfg.Players {
		if entry.Name == "" || entry.Team == "" {
			return nil, fmt.Errorf("roster entry %d is missing a name or team", i)
		}
		if !isKnownRole(entry.Role) {
			return nil, fmt.Errorf("roster entry %q has unknown role %q", entry.Name, entry.Role)
		}
	}

	return NewRoster(cfg.Players, cfg.TeamAliases), nil
}

func isKnownRole(role Role) bool {
	for _, known := range KnownRoles {
		if role == known {
			return true
		}
	}
	return false
}

// LoadRuleTable reads the scoring rules file. Only the sections every match
// touches are required up front; a missing tier inside a section surfaces
// later as a per-player diagnostic rather than a load failure.
func LoadRuleTable(path string) (*RuleTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rules file: %w", err)
	}

	var rules RuleTable
	if err := yaml.Unmarshal(raw, &rules); err != nil {
		return nil, fmt.Errorf("parsing rules file %s: %w", path, err)
	}

	required := map[string]int{
		"run_scoring":   len(rules.RunScoring),
		"strike_rate":   len(rules.StrikeRate),
		"wickets":       len(rules.Wickets),
		"bowling_other": len(rules.BowlingOther),
		"economy_rate":  len(rules.EconomyRate),
		"fielding":      len(rules.Fielding),
		"miscellaneous": len(rules.Miscellaneous),
	}
	for section, size := range required {
		if size == 0 {
			return nil, fmt.Errorf("rules file %s is missing section %q", path, section)
		}
	}

	return &rules, nil
}
