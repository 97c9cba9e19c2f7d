package main

import (
	"fmt"
	"math"
)

// PlayerStats holds the extracted per-match statistics for one player.
// Field names follow the document format the leaderboard sheet writer and
// scores bot read, so they must stay stable.
type PlayerStats struct {
	RunsScored          int     `json:"runs_scored"`
	BallsFaced          int     `json:"balls_faced"`
	Fours               int     `json:"fours"`
	Sixes               int     `json:"sixes"`
	StrikeRate          float64 `json:"strike_rate"`
	SRDifferential      float64 `json:"sr_differential"`
	Overs               float64 `json:"overs"`
	Economy             float64 `json:"economy"`
	EconomyDifferential float64 `json:"economy_differential"`
	Wickets             int     `json:"wickets"`
	Dots                int     `json:"dots"`
	Wides               int     `json:"wides"`
	NoBalls             int     `json:"no_balls"`
	Catches             float64 `json:"catches"`
	RunOuts             float64 `json:"run_outs"`
	Stumpings           int     `json:"stumping"`
	Maidens             int     `json:"maiden"`
	DidNotBat           bool    `json:"did_not_bat"`
	IsSub               bool    `json:"is_sub"`
	PlayerOfMatch       bool    `json:"potm"`
}

// PointBreakdown is the categorized fantasy-point result for one player.
// Recomputed from a finalized PlayerStats, never patched in place.
type PointBreakdown struct {
	RunsPoints       float64 `json:"runs_points"`
	StrikeRatePoints float64 `json:"strike_rate_points"`
	BoundariesPoints float64 `json:"boundaries_points"`
	MaidenPoints     float64 `json:"maiden_points"`
	POTMPoints       float64 `json:"potm_points"`
	WicketsPoints    float64 `json:"wickets_points"`
	DotsPoints       float64 `json:"dots_points"`
	ExtrasPoints     float64 `json:"extras_points"`
	EconomyPoints    float64 `json:"economy_points"`
	BattingPoints    float64 `json:"batting_points"`
	BowlingPoints    float64 `json:"bowling_points"`
	FieldingPoints   float64 `json:"fielding_points"`
	TotalPoints      float64 `json:"total_points"`
}

// PlayerScore is the wire shape consumed downstream: extracted stats plus the
// computed point breakdown, flattened into one JSON object.
type PlayerScore struct {
	PlayerStats
	PointBreakdown
}

// TeamScorecard groups a team's innings averages with its player records.
type TeamScorecard struct {
	AverageEconomy    float64                 `json:"average_economy"`
	AverageStrikeRate float64                 `json:"average_strike_rate"`
	PlayerStats       map[string]*PlayerScore `json:"player_stats"`
}

// Scorecard is the full per-match output, keyed by team name as it appears
// on the scorecard page.
type Scorecard map[string]*TeamScorecard

// DismissalRecord is the transient link between a batting row's dismissal
// text and the fielding side that gets credited for it.
type DismissalRecord struct {
	Batsman       string
	DismissalText string
	BattingTeam   string
	BowlingTeam   string
}

// Diagnostic reports one skipped section, resolution failure or rule-table
// miss so an operator can correct the match data by hand.
type Diagnostic struct {
	Player  string `json:"player"`
	Reason  string `json:"reason"`
	Context string `json:"context"`
}

// Diagnostics accumulates the per-run audit trail.
type Diagnostics struct {
	Items []Diagnostic `json:"items"`
}

// Add appends one diagnostic entry. Safe on a nil receiver so pure helpers
// can be called without a collector.
func (d *Diagnostics) Add(player, reason, context string) {
	if d == nil {
		return
	}
	d.Items = append(d.Items, Diagnostic{Player: player, Reason: reason, Context: context})
}

func newPlayerScore() *PlayerScore {
	return &PlayerScore{PlayerStats: PlayerStats{DidNotBat: true}}
}

func (tc *TeamScorecard) player(name string) *PlayerScore {
	ps, ok := tc.PlayerStats[name]
	if !ok {
		ps = newPlayerScore()
		tc.PlayerStats[name] = ps
	}
	return ps
}

func (sc Scorecard) team(name string) *TeamScorecard {
	tc, ok := sc[name]
	if !ok {
		tc = &TeamScorecard{PlayerStats: make(map[string]*PlayerScore)}
		sc[name] = tc
	}
	return tc
}

// TotalPoints sums the team's player totals, for leaderboard output.
func (tc *TeamScorecard) TotalPoints() float64 {
	total := 0.0
	for _, ps := range tc.PlayerStats {
		total += ps.TotalPoints
	}
	return round2(total)
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round1(v float64) float64 { return math.Round(v*10) / 10 }

// differentialPct is the percentage deviation from the innings average,
// rounded to 1 decimal. A zero average disables the differential entirely.
func differentialPct(value, average float64) float64 {
	if average <= 0 {
		return 0
	}
	return round1((value - average) / average * 100)
}

// oversToBalls converts cricket over notation (2.3 = 2 overs, 3 balls) to a
// ball count. The fractional digit is balls, not tenths.
func oversToBalls(overs float64) int {
	whole := int(overs)
	balls := int(math.Round((overs - float64(whole)) * 10))
	return whole*6 + balls
}

// formatOvers renders overs back in cricket notation without trailing
// decimal noise ("2.0" becomes "2").
func formatOvers(overs float64) string {
	whole := int(overs)
	balls := int(math.Round((overs - float64(whole)) * 10))
	if balls == 0 {
		return fmt.Sprintf("%d", whole)
	}
	return fmt.Sprintf("%d.%d", whole, balls)
}

// runsConceded derives runs given up from overs and economy, rounded up the
// way published figures are.
func runsConceded(overs, economy float64) int {
	balls := oversToBalls(overs)
	return int(math.Ceil(economy * float64(balls) / 6))
}

// assembleStats folds the parsed match document into per-team player records
// in three passes: batting rows, bowling rows, dismissal credits. Records are
// finalized here before any scoring runs.
func (e *Engine) assembleStats(parsed *MatchDocument, diags *Diagnostics) Scorecard {
	card := make(Scorecard)
	for _, team := range parsed.TeamNames {
		card.team(team)
	}

	for _, inn := range parsed.Innings {
		batting := card.team(inn.BattingTeam)

		if inn.HasRunRate {
			batting.AverageStrikeRate = round2(inn.RunRate * 100 / 6)
			if inn.BowlingTeam != "" {
				card.team(inn.BowlingTeam).AverageEconomy = round2(inn.RunRate)
			}
		} else {
			diags.Add("", "missing run rate", fmt.Sprintf("innings of %s", inn.BattingTeam))
		}

		for _, row := range inn.BattingRows {
			ps := batting.player(row.Name)
			ps.RunsScored = row.Runs
			ps.BallsFaced = row.Balls
			ps.Fours = row.Fours
			ps.Sixes = row.Sixes
			ps.StrikeRate = round2(row.StrikeRate)
			ps.SRDifferential = differentialPct(ps.StrikeRate, batting.AverageStrikeRate)
			// A 0* row where the batter never faced a delivery is kept as
			// did-not-bat so it draws no duck penalty.
			ps.DidNotBat = row.NotOut && row.Runs == 0
		}

		for _, name := range inn.DidNotBat {
			batting.player(name)
		}

		if inn.BowlingTeam == "" {
			if len(inn.BowlingRows) > 0 {
				diags.Add("", "bowling side unknown, innings skipped", fmt.Sprintf("innings of %s", inn.BattingTeam))
			}
			continue
		}
		bowling := card.team(inn.BowlingTeam)
		for _, row := range inn.BowlingRows {
			ps := bowling.player(row.Name)
			ps.Overs = row.Overs
			ps.Maidens = row.Maidens
			ps.Wickets = row.Wickets
			ps.Dots = row.Dots
			ps.Wides = row.Wides
			ps.NoBalls = row.NoBalls
			ps.Economy = round2(row.Economy)
			ps.EconomyDifferential = differentialPct(ps.Economy, bowling.AverageEconomy)
		}
	}

	e.creditDismissals(parsed, card, diags)

	if parsed.POTMName != "" {
		awarded := false
		for _, team := range parsed.TeamNames {
			if ps, ok := card.team(team).PlayerStats[parsed.POTMName]; ok {
				ps.PlayerOfMatch = true
				awarded = true
				break
			}
		}
		if !awarded {
			diags.Add(parsed.POTMName, "player of the match not found in either team", "")
		}
	}

	// Normalize the rate fields once more so downstream readers always see
	// the fixed decimal policy, whichever pass last touched them.
	for _, tc := range card {
		tc.AverageEconomy = round2(tc.AverageEconomy)
		tc.AverageStrikeRate = round2(tc.AverageStrikeRate)
		for _, ps := range tc.PlayerStats {
			ps.StrikeRate = round2(ps.StrikeRate)
			ps.SRDifferential = round1(ps.SRDifferential)
			ps.Economy = round2(ps.Economy)
			ps.EconomyDifferential = round1(ps.EconomyDifferential)
		}
	}

	return card
}

// creditDismissals resolves every fielder fragment found in dismissal text
// and credits exactly one action type per dismissal. Unresolvable names are
// reported and skipped, never guessed.
func (e *Engine) creditDismissals(parsed *MatchDocument, card Scorecard, diags *Diagnostics) {
	for _, inn := range parsed.Innings {
		for _, rec := range inn.Dismissals {
			fielders := parseDismissalFielders(rec.DismissalText)
			if len(fielders) == 0 {
				continue
			}
			bowling := card.team(rec.BowlingTeam)

			observed := make(map[string]bool, len(bowling.PlayerStats))
			for name := range bowling.PlayerStats {
				observed[name] = true
			}

			for _, f := range fielders {
				matched, isNew, err := e.roster.ResolveFielder(f, rec.BowlingTeam, observed)
				if err != nil {
					e.logger.LogWarning("creditDismissals", "fielder unresolved", map[string]interface{}{
						"fragment":  f.Name,
						"dismissal": rec.DismissalText,
						"team":      rec.BowlingTeam,
						"error":     err,
					})
					diags.Add(f.Name, err.Error(), fmt.Sprintf("dismissal of %s: %s", rec.Batsman, rec.DismissalText))
					continue
				}

				// A fielder credited here without a batting or bowling entry
				// is a substitute fielder on the wire, roster member or not.
				ps, existed := bowling.PlayerStats[matched]
				if !existed {
					ps = bowling.player(matched)
					ps.IsSub = true
				}
				if isNew {
					ps.IsSub = true
				}

				switch classifyDismissal(rec.DismissalText) {
				case dismissalCaughtAndBowled, dismissalCaught:
					ps.Catches++
				case dismissalStumped:
					ps.Stumpings++
				case dismissalRunOut:
					ps.RunOuts += 1.0 / float64(len(fielders))
				}
			}
		}
	}
}

type dismissalKind int

const (
	dismissalOther dismissalKind = iota
	dismissalCaughtAndBowled
	dismissalStumped
	dismissalCaught
	dismissalRunOut
)

func classifyDismissal(text string) dismissalKind {
	switch {
	case containsCaughtAndBowled(text):
		return dismissalCaughtAndBowled
	case hasPrefixStumped(text):
		return dismissalStumped
	case hasPrefixCaught(text):
		return dismissalCaught
	case containsRunOut(text):
		return dismissalRunOut
	default:
		return dismissalOther
	}
}
