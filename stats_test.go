package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEngine() *Engine {
	return NewEngine(testRoster(), testRules(), NewEnhancedLogger("TEST"))
}

func testMatchDocument() *MatchDocument {
	return &MatchDocument{
		TeamNames: []string{"Mumbai Indians", "Chennai Super Kings"},
		Innings: []InningsData{
			{
				BattingTeam: "Mumbai Indians",
				BowlingTeam: "Chennai Super Kings",
				RunRate:     9.0,
				HasRunRate:  true,
				BattingRows: []BattingRow{
					{Name: "Rohit Sharma", Runs: 45, Balls: 30, Fours: 5, Sixes: 2, StrikeRate: 150, DismissalText: "c Gaikwad b Chahar"},
					{Name: "Hardik Pandya", Runs: 0, Balls: 0, StrikeRate: 0, NotOut: true},
				},
				DidNotBat: []string{"Jasprit Bumrah"},
				BowlingRows: []BowlingRow{
					{Name: "Deepak Chahar", Overs: 4, Maidens: 0, Wickets: 2, Dots: 10, Wides: 1, Economy: 7.2},
				},
				Dismissals: []DismissalRecord{
					{Batsman: "Rohit Sharma", DismissalText: "c Gaikwad b Chahar", BattingTeam: "Mumbai Indians", BowlingTeam: "Chennai Super Kings"},
				},
			},
			{
				BattingTeam: "Chennai Super Kings",
				BowlingTeam: "Mumbai Indians",
				RunRate:     8.4,
				HasRunRate:  true,
				BattingRows: []BattingRow{
					{Name: "Ruturaj Gaikwad", Runs: 60, Balls: 40, Fours: 6, Sixes: 2, StrikeRate: 150},
				},
				BowlingRows: []BowlingRow{
					{Name: "Jasprit Bumrah", Overs: 4, Maidens: 1, Wickets: 1, Dots: 14, Economy: 5.25},
				},
				Dismissals: []DismissalRecord{
					{Batsman: "Ruturaj Gaikwad", DismissalText: "run out (Pandya/†Kishan)", BattingTeam: "Chennai Super Kings", BowlingTeam: "Mumbai Indians"},
				},
			},
		},
		POTMName: "Ruturaj Gaikwad",
	}
}

func TestAssembleStats_InningsAverages(t *testing.T) {
	card := testEngine().assembleStats(testMatchDocument(), nil)

	mi := card["Mumbai Indians"]
	csk := card["Chennai Super Kings"]
	require.NotNil(t, mi)
	require.NotNil(t, csk)

	assert.InDelta(t, 150.0, mi.AverageStrikeRate, 0.001, "RR 9.0 -> average SR 150")
	assert.InDelta(t, 9.0, csk.AverageEconomy, 0.001, "batting side RR is the bowling side's average economy")
	assert.InDelta(t, 140.0, csk.AverageStrikeRate, 0.001)
	assert.InDelta(t, 8.4, mi.AverageEconomy, 0.001)
}

func TestAssembleStats_BattingAndDifferential(t *testing.T) {
	card := testEngine().assembleStats(testMatchDocument(), nil)

	rohit := card["Mumbai Indians"].PlayerStats["Rohit Sharma"]
	require.NotNil(t, rohit)
	assert.Equal(t, 45, rohit.RunsScored)
	assert.Equal(t, 30, rohit.BallsFaced)
	assert.False(t, rohit.DidNotBat)
	assert.InDelta(t, 0.0, rohit.SRDifferential, 0.001, "SR 150 equals the innings average")

	gaikwad := card["Chennai Super Kings"].PlayerStats["Ruturaj Gaikwad"]
	require.NotNil(t, gaikwad)
	assert.InDelta(t, 7.1, gaikwad.SRDifferential, 0.001, "(150-140)/140, rounded to 1 decimal")
}

func TestAssembleStats_ZeroNotOutKeepsDidNotBat(t *testing.T) {
	card := testEngine().assembleStats(testMatchDocument(), nil)

	pandya := card["Mumbai Indians"].PlayerStats["Hardik Pandya"]
	require.NotNil(t, pandya)
	assert.True(t, pandya.DidNotBat, "0* without facing a ball draws no duck penalty")
}

func TestAssembleStats_DidNotBatList(t *testing.T) {
	card := testEngine().assembleStats(testMatchDocument(), nil)

	bumrah := card["Mumbai Indians"].PlayerStats["Jasprit Bumrah"]
	require.NotNil(t, bumrah)
	assert.True(t, bumrah.DidNotBat)
	assert.InDelta(t, 5.25, bumrah.Economy, 0.001, "bowling figures still land on a DNB player")
	assert.InDelta(t, round1((5.25-8.4)/8.4*100), bumrah.EconomyDifferential, 0.001)
}

func TestAssembleStats_CatchCredited(t *testing.T) {
	card := testEngine().assembleStats(testMatchDocument(), nil)

	gaikwad := card["Chennai Super Kings"].PlayerStats["Ruturaj Gaikwad"]
	require.NotNil(t, gaikwad)
	assert.InDelta(t, 1.0, gaikwad.Catches, 0.001)
}

func TestAssembleStats_RunOutSplit(t *testing.T) {
	card := testEngine().assembleStats(testMatchDocument(), nil)

	pandya := card["Mumbai Indians"].PlayerStats["Hardik Pandya"]
	kishan := card["Mumbai Indians"].PlayerStats["Ishan Kishan"]
	require.NotNil(t, pandya)
	require.NotNil(t, kishan)
	assert.InDelta(t, 0.5, pandya.RunOuts, 0.001)
	assert.InDelta(t, 0.5, kishan.RunOuts, 0.001)
}

func TestAssembleStats_POTMFlag(t *testing.T) {
	card := testEngine().assembleStats(testMatchDocument(), nil)

	gaikwad := card["Chennai Super Kings"].PlayerStats["Ruturaj Gaikwad"]
	require.NotNil(t, gaikwad)
	assert.True(t, gaikwad.PlayerOfMatch)
}

func TestAssembleStats_POTMNotFoundIsDiagnosed(t *testing.T) {
	doc := testMatchDocument()
	doc.POTMName = "Unknown Player"
	diags := &Diagnostics{}

	testEngine().assembleStats(doc, diags)

	found := false
	for _, d := range diags.Items {
		if d.Player == "Unknown Player" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestAssembleStats_UnresolvedFielderSkippedWithDiagnostic(t *testing.T) {
	doc := testMatchDocument()
	doc.Innings[0].Dismissals[0].DismissalText = "c Nonexistent b Chahar"
	diags := &Diagnostics{}

	card := testEngine().assembleStats(doc, diags)

	for _, ps := range card["Chennai Super Kings"].PlayerStats {
		assert.Zero(t, ps.Catches)
	}
	require.NotEmpty(t, diags.Items)
}

func TestAssembleStats_SubstituteFielderInserted(t *testing.T) {
	doc := testMatchDocument()
	doc.Innings[0].Dismissals[0].DismissalText = "c sub (Shaik Rasheed) b Chahar"

	card := testEngine().assembleStats(doc, nil)

	sub := card["Chennai Super Kings"].PlayerStats["Shaik Rasheed"]
	require.NotNil(t, sub)
	assert.True(t, sub.IsSub)
	assert.InDelta(t, 1.0, sub.Catches, 0.001)
	assert.True(t, sub.DidNotBat)
}

func TestAssembleStats_FieldingOnlyRosterPlayerFlaggedAsSub(t *testing.T) {
	doc := testMatchDocument()
	doc.Innings[0].Dismissals[0].DismissalText = "st †Dhoni b Chahar"

	card := testEngine().assembleStats(doc, nil)

	// Dhoni is on the roster but appears in no batting or bowling row, so
	// his fielding-only entry carries the substitute flag.
	dhoni := card["Chennai Super Kings"].PlayerStats["MS Dhoni"]
	require.NotNil(t, dhoni)
	assert.Equal(t, 1, dhoni.Stumpings)
	assert.True(t, dhoni.IsSub)
	assert.True(t, dhoni.DidNotBat)

	chahar := card["Chennai Super Kings"].PlayerStats["Deepak Chahar"]
	require.NotNil(t, chahar)
	assert.False(t, chahar.IsSub, "bowled this innings, not a substitute")
}

func TestAssembleStats_MissingRunRateDisablesDifferentials(t *testing.T) {
	doc := testMatchDocument()
	doc.Innings[0].HasRunRate = false
	diags := &Diagnostics{}

	card := testEngine().assembleStats(doc, diags)

	rohit := card["Mumbai Indians"].PlayerStats["Rohit Sharma"]
	assert.Zero(t, rohit.SRDifferential, "no average means no differential, not a huge one")
	require.NotEmpty(t, diags.Items)
}

func TestProcessDocumentScoring_RecomputedNotPatched(t *testing.T) {
	engine := testEngine()
	diags := &Diagnostics{}

	card := engine.assembleStats(testMatchDocument(), diags)
	engine.scorePlayers(card, diags)
	first := *card["Mumbai Indians"].PlayerStats["Rohit Sharma"]

	engine.scorePlayers(card, diags)
	second := *card["Mumbai Indians"].PlayerStats["Rohit Sharma"]

	assert.Equal(t, first.PointBreakdown, second.PointBreakdown, "rescoring is idempotent")
	assert.NotZero(t, first.TotalPoints)
}

func TestDifferentialPct(t *testing.T) {
	assert.InDelta(t, 50.0, differentialPct(150, 100), 0.001)
	assert.InDelta(t, -25.0, differentialPct(75, 100), 0.001)
	assert.Zero(t, differentialPct(120, 0), "zero average disables the differential")
	assert.InDelta(t, 7.1, differentialPct(150, 140), 0.001, "rounded to one decimal")
}

func TestOversHelpers(t *testing.T) {
	assert.Equal(t, 15, oversToBalls(2.3), "2.3 overs is 2 overs and 3 balls")
	assert.Equal(t, 24, oversToBalls(4))
	assert.Equal(t, "2.3", formatOvers(2.3))
	assert.Equal(t, "4", formatOvers(4.0))
	assert.Equal(t, 30, runsConceded(2.3, 12))
	assert.Equal(t, 32, runsConceded(4, 8))
}

func TestTeamScorecard_TotalPoints(t *testing.T) {
	tc := &TeamScorecard{PlayerStats: map[string]*PlayerScore{
		"a": {PointBreakdown: PointBreakdown{TotalPoints: 10.5}},
		"b": {PointBreakdown: PointBreakdown{TotalPoints: 20.25}},
	}}

	assert.InDelta(t, 30.75, tc.TotalPoints(), 0.001)
}
