package main

import "fmt"

// RoleValues maps a roster role to a point value within one rule tier.
type RoleValues map[Role]float64

// TierTable maps published tier labels (e.g. "milestone_50", "15_to_17.99")
// to per-role values.
type TierTable map[string]RoleValues

// RuleTable is the full scoring configuration for a run. Tier labels are kept
// exactly as published so existing rule documents port over unchanged.
type RuleTable struct {
	RunScoring              TierTable            `yaml:"run_scoring"`
	StrikeRate              TierTable            `yaml:"strike_rate"`
	StrikeRateDifferential  map[string]TierTable `yaml:"strike_rate_differential"`
	Wickets                 TierTable            `yaml:"wickets"`
	BowlingOther            TierTable            `yaml:"bowling_other"`
	EconomyRate             map[string]TierTable `yaml:"economy_rate"`
	EconomyRateDifferential map[string]TierTable `yaml:"economy_rate_differential"`
	Fielding                TierTable            `yaml:"fielding"`
	Miscellaneous           TierTable            `yaml:"miscellaneous"`
}

// ruleLookup resolves tier values for one player, absorbing missing keys as
// zero points with a diagnostic instead of aborting the match.
type ruleLookup struct {
	rules  *RuleTable
	role   Role
	player string
	diags  *Diagnostics
}

func (rl ruleLookup) val(section TierTable, sectionName, tier string) float64 {
	roleValues, ok := section[tier]
	if !ok {
		rl.diags.Add(rl.player, "missing rule tier", sectionName+"."+tier)
		return 0
	}
	v, ok := roleValues[rl.role]
	if !ok {
		rl.diags.Add(rl.player, fmt.Sprintf("missing rule value for role %s", rl.role), sectionName+"."+tier)
		return 0
	}
	return v
}

func (rl ruleLookup) nested(m map[string]TierTable, sectionName, group, tier string) float64 {
	tt, ok := m[group]
	if !ok {
		rl.diags.Add(rl.player, "missing rule section", sectionName+"."+group)
		return 0
	}
	return rl.val(tt, sectionName+"."+group, tier)
}

func (rl ruleLookup) invalid(field string, v float64) bool {
	if v < 0 {
		rl.diags.Add(rl.player, fmt.Sprintf("invalid %s value %v", field, v), "scoring skipped for category")
		return true
	}
	return false
}

// CalculatePoints applies the rule table to one finalized stat record.
// Deterministic: the same stats, role and rules always produce the same
// breakdown. An unknown role zeroes every category; the caller reports it.
func CalculatePoints(player string, stats *PlayerStats, role Role, rules *RuleTable, diags *Diagnostics) PointBreakdown {
	var pb PointBreakdown
	if role == RoleUnknown {
		return pb
	}
	rl := ruleLookup{rules: rules, role: role, player: player, diags: diags}

	batting, runs, sr, boundaries := calculateBattingPoints(stats, rl)
	bowling, wickets, maiden, economy, extras, dots := calculateBowlingPoints(stats, rl)
	fielding := calculateFieldingPoints(stats, rl)
	potm := 0.0
	if stats.PlayerOfMatch {
		potm = rl.val(rules.Miscellaneous, "miscellaneous", "player_of_match")
	}

	pb.RunsPoints = round2(runs)
	pb.StrikeRatePoints = round2(sr)
	pb.BoundariesPoints = round2(boundaries)
	pb.WicketsPoints = round2(wickets)
	pb.MaidenPoints = round2(maiden)
	pb.EconomyPoints = round2(economy)
	pb.ExtrasPoints = round2(extras)
	pb.DotsPoints = round2(dots)
	pb.FieldingPoints = round2(fielding)
	pb.POTMPoints = round2(potm)
	pb.BattingPoints = round2(batting)
	pb.BowlingPoints = round2(bowling)
	pb.TotalPoints = round2(batting + bowling + fielding + potm)
	return pb
}

func calculateBattingPoints(stats *PlayerStats, rl ruleLookup) (batting, runs, sr, boundaries float64) {
	if rl.invalid("runs_scored", float64(stats.RunsScored)) ||
		rl.invalid("balls_faced", float64(stats.BallsFaced)) ||
		rl.invalid("fours", float64(stats.Fours)) ||
		rl.invalid("sixes", float64(stats.Sixes)) {
		return 0, 0, 0, 0
	}

	rules := rl.rules
	runs += float64(stats.RunsScored) * rl.val(rules.RunScoring, "run_scoring", "run")
	boundaries += float64(stats.Fours) * rl.val(rules.RunScoring, "run_scoring", "four")
	boundaries += float64(stats.Sixes) * rl.val(rules.RunScoring, "run_scoring", "six")

	if stats.RunsScored == 0 && !stats.DidNotBat {
		runs += rl.val(rules.RunScoring, "run_scoring", "duck")
	}

	// One milestone bonus, highest reached wins, no stacking.
	switch {
	case stats.RunsScored >= 150:
		runs += rl.val(rules.RunScoring, "run_scoring", "milestone_150")
	case stats.RunsScored >= 100:
		runs += rl.val(rules.RunScoring, "run_scoring", "milestone_100")
	case stats.RunsScored >= 75:
		runs += rl.val(rules.RunScoring, "run_scoring", "milestone_75")
	case stats.RunsScored >= 50:
		runs += rl.val(rules.RunScoring, "run_scoring", "milestone_50")
	case stats.RunsScored >= 30:
		runs += rl.val(rules.RunScoring, "run_scoring", "milestone_30")
	}

	// Strike rate bonuses require 20 runs.
	if stats.RunsScored >= 20 {
		switch s := stats.StrikeRate; {
		case s >= 300:
			sr += rl.val(rules.StrikeRate, "strike_rate", "above_300")
		case s >= 250:
			sr += rl.val(rules.StrikeRate, "strike_rate", "above_250")
		case s >= 200:
			sr += rl.val(rules.StrikeRate, "strike_rate", "above_200")
		case s >= 170:
			sr += rl.val(rules.StrikeRate, "strike_rate", "above_170")
		case s >= 150:
			sr += rl.val(rules.StrikeRate, "strike_rate", "above_150")
		}
	}

	// Strike rate penalties require 15 balls.
	if stats.BallsFaced >= 15 {
		if stats.StrikeRate < 70 {
			sr += rl.val(rules.StrikeRate, "strike_rate", "below_70")
		} else if stats.StrikeRate < 90 {
			sr += rl.val(rules.StrikeRate, "strike_rate", "below_90")
		}
	}

	// Differential vs the innings average: one tier per direction, each with
	// its own balls-faced floor, first match wins with no fallthrough.
	d := stats.SRDifferential
	bf := stats.BallsFaced
	if d < 0 {
		switch a := -d; {
		case a >= 70 && bf >= 10:
			sr += rl.nested(rules.StrikeRateDifferential, "strike_rate_differential", "lower", "70_plus")
		case a >= 60 && bf >= 10:
			sr += rl.nested(rules.StrikeRateDifferential, "strike_rate_differential", "lower", "60_to_69.99")
		case a >= 50 && bf >= 10:
			sr += rl.nested(rules.StrikeRateDifferential, "strike_rate_differential", "lower", "50_to_59.99")
		case a >= 40 && bf >= 12:
			sr += rl.nested(rules.StrikeRateDifferential, "strike_rate_differential", "lower", "40_to_49.99")
		case a >= 30 && bf >= 15:
			sr += rl.nested(rules.StrikeRateDifferential, "strike_rate_differential", "lower", "30_to_39.99")
		case a >= 20 && bf >= 15:
			sr += rl.nested(rules.StrikeRateDifferential, "strike_rate_differential", "lower", "20_to_29.99")
		}
	} else {
		switch {
		case d >= 200 && bf >= 10:
			sr += rl.nested(rules.StrikeRateDifferential, "strike_rate_differential", "higher", "200_plus")
		case d >= 100 && bf >= 10:
			sr += rl.nested(rules.StrikeRateDifferential, "strike_rate_differential", "higher", "100_to_199.99")
		case d >= 75 && bf >= 10:
			sr += rl.nested(rules.StrikeRateDifferential, "strike_rate_differential", "higher", "75_to_99.99")
		case d >= 50 && bf >= 12:
			sr += rl.nested(rules.StrikeRateDifferential, "strike_rate_differential", "higher", "50_to_74.99")
		case d >= 30 && bf >= 15:
			sr += rl.nested(rules.StrikeRateDifferential, "strike_rate_differential", "higher", "30_to_49.99")
		case d >= 20 && bf >= 15:
			sr += rl.nested(rules.StrikeRateDifferential, "strike_rate_differential", "higher", "20_to_29.99")
		}
	}

	batting = runs + sr + boundaries
	return batting, runs, sr, boundaries
}

func calculateBowlingPoints(stats *PlayerStats, rl ruleLookup) (bowling, wickets, maiden, economy, extras, dots float64) {
	if rl.invalid("overs", stats.Overs) ||
		rl.invalid("wickets", float64(stats.Wickets)) ||
		rl.invalid("dots", float64(stats.Dots)) ||
		rl.invalid("maiden", float64(stats.Maidens)) {
		return 0, 0, 0, 0, 0, 0
	}

	rules := rl.rules
	wickets += float64(stats.Wickets) * rl.val(rules.Wickets, "wickets", "per_wicket")

	switch {
	case stats.Wickets >= 6:
		wickets += rl.val(rules.Wickets, "wickets", "milestone_6_plus")
	case stats.Wickets >= 5:
		wickets += rl.val(rules.Wickets, "wickets", "milestone_5")
	case stats.Wickets >= 4:
		wickets += rl.val(rules.Wickets, "wickets", "milestone_4")
	case stats.Wickets >= 3:
		wickets += rl.val(rules.Wickets, "wickets", "milestone_3")
	}

	maiden += float64(stats.Maidens) * rl.val(rules.BowlingOther, "bowling_other", "maiden_over")
	dots += float64(stats.Dots) * rl.val(rules.BowlingOther, "bowling_other", "dot_ball")
	extras += float64(stats.NoBalls) * rl.val(rules.BowlingOther, "bowling_other", "no_ball")
	extras += float64(stats.Wides) * rl.val(rules.BowlingOther, "bowling_other", "wide")

	overs := stats.Overs
	econ := stats.Economy

	if overs >= 1 && econ >= 18 {
		economy += rl.nested(rules.EconomyRate, "economy_rate", "one_over", "above_18")
	}

	// The published regimes leave overs in (2.0, 2.1] without a band; that
	// gap is part of the rules and is preserved, not closed.
	if overs > 1 && overs <= 2 {
		economy += rl.economyBand(econ, "one_to_two_overs")
	}
	if overs > 2.1 {
		economy += rl.economyBand(econ, "min_2.1_overs")
		economy += rl.economyDifferential(stats.EconomyDifferential)
	}

	bowling = wickets + maiden + economy + extras + dots
	return bowling, wickets, maiden, economy, extras, dots
}

// economyBand picks the single published economy band for a regime. Economy
// between 8 and 11 sits outside every band and scores nothing, as published.
func (rl ruleLookup) economyBand(econ float64, regime string) float64 {
	var tier string
	switch {
	case econ >= 15 && econ < 18:
		tier = "15_to_17.99"
	case econ >= 13 && econ < 15:
		tier = "13_to_14.99"
	case econ >= 12 && econ < 13:
		tier = "12_to_12.99"
	case econ >= 11 && econ < 12:
		tier = "11_to_11.99"
	case econ >= 7 && econ < 8:
		tier = "7_to_7.99"
	case econ >= 6 && econ < 7:
		tier = "6_to_6.99"
	case econ >= 5 && econ < 6:
		tier = "5_to_5.99"
	case econ >= 4 && econ < 5:
		tier = "4_to_4.99"
	case econ >= 3 && econ < 4:
		tier = "3_to_3.99"
	case econ >= 2 && econ < 3:
		tier = "2_to_2.99"
	case econ < 2:
		tier = "below_2"
	default:
		return 0
	}
	return rl.nested(rl.rules.EconomyRate, "economy_rate", regime, tier)
}

func (rl ruleLookup) economyDifferential(d float64) float64 {
	rules := rl.rules
	if d > 0 {
		switch {
		case d >= 70:
			return rl.nested(rules.EconomyRateDifferential, "economy_rate_differential", "higher", "70_plus")
		case d >= 60:
			return rl.nested(rules.EconomyRateDifferential, "economy_rate_differential", "higher", "60_to_69.99")
		case d >= 50:
			return rl.nested(rules.EconomyRateDifferential, "economy_rate_differential", "higher", "50_to_59.99")
		case d >= 40:
			return rl.nested(rules.EconomyRateDifferential, "economy_rate_differential", "higher", "40_to_49.99")
		case d >= 30:
			return rl.nested(rules.EconomyRateDifferential, "economy_rate_differential", "higher", "30_to_39.99")
		case d >= 20:
			return rl.nested(rules.EconomyRateDifferential, "economy_rate_differential", "higher", "20_to_29.99")
		}
		return 0
	}
	switch a := -d; {
	case a >= 70:
		return rl.nested(rules.EconomyRateDifferential, "economy_rate_differential", "lower", "70_plus")
	case a >= 60:
		return rl.nested(rules.EconomyRateDifferential, "economy_rate_differential", "lower", "60_to_69.99")
	case a >= 50:
		return rl.nested(rules.EconomyRateDifferential, "economy_rate_differential", "lower", "50_to_59.99")
	case a >= 40:
		return rl.nested(rules.EconomyRateDifferential, "economy_rate_differential", "lower", "40_to_49.99")
	case a >= 30:
		return rl.nested(rules.EconomyRateDifferential, "economy_rate_differential", "lower", "30_to_39.99")
	case a >= 20:
		return rl.nested(rules.EconomyRateDifferential, "economy_rate_differential", "lower", "20_to_29.99")
	}
	return 0
}

func calculateFieldingPoints(stats *PlayerStats, rl ruleLookup) float64 {
	if rl.invalid("catches", stats.Catches) ||
		rl.invalid("stumping", float64(stats.Stumpings)) ||
		rl.invalid("run_outs", stats.RunOuts) {
		return 0
	}
	actions := stats.Catches + float64(stats.Stumpings) + stats.RunOuts
	if actions == 0 {
		return 0
	}
	return actions * rl.val(rl.rules.Fielding, "fielding", "catch_stumping_runout")
}
