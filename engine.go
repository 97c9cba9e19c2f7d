package main

import (
	"github.com/PuerkitoBio/goquery"
)

// Engine ties the parser, the roster and the rule table together for one run.
// It holds no per-match state, so a single Engine can score matches from
// multiple goroutines.
type Engine struct {
	roster *Roster
	rules  *RuleTable
	logger *EnhancedLogger
}

// NewEngine wires a scoring engine from loaded configuration.
func NewEngine(roster *Roster, rules *RuleTable, logger *EnhancedLogger) *Engine {
	if logger == nil {
		logger = NewEnhancedLogger("ENGINE")
	}
	return &Engine{roster: roster, rules: rules, logger: logger}
}

// ProcessDocument runs the full pipeline on a parsed scorecard page:
// extraction, stat assembly, dismissal crediting and point calculation. The
// returned diagnostics list everything that was skipped or unresolved.
func (e *Engine) ProcessDocument(doc *goquery.Document) (Scorecard, *Diagnostics, error) {
	diags := &Diagnostics{}

	parsed, err := ParseMatchDocument(doc, diags)
	if err != nil {
		return nil, diags, err
	}

	card := e.assembleStats(parsed, diags)
	e.scorePlayers(card, diags)
	return card, diags, nil
}

// scorePlayers recomputes every breakdown from the finalized stats. Players
// missing from the roster score zero and are reported once each.
func (e *Engine) scorePlayers(card Scorecard, diags *Diagnostics) {
	for team, tc := range card {
		for name, ps := range tc.PlayerStats {
			role := e.roster.RoleOf(name)
			if role == RoleUnknown {
				e.logger.LogWarning("scorePlayers", "player not in roster, scoring zero", map[string]interface{}{
					"player": name,
					"team":   team,
				})
				diags.Add(name, "player not found in roster", team)
			}
			ps.PointBreakdown = CalculatePoints(name, &ps.PlayerStats, role, e.rules, diags)
		}
	}
}
