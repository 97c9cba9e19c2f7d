package main

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scorecardFixture = `
<html><body>
<div class="ds-text-tight-m ds-font-regular ds-text-typo-mid3">Mumbai Indians vs Chennai Super Kings in Indian Premier League 2026</div>

<div class="ds-rounded-lg">
  <span class="ds-text-title-xs ds-font-bold ds-capitalize">Mumbai Indians</span>
  <span class="ds-text-tight-s">20 Ov (RR: 9.05)</span>
  <table class="ci-scorecard-table"><tbody>
    <tr>
      <td class="ds-w-0 ds-whitespace-nowrap ds-min-w-max"><a>Rohit Sharma (c)</a></td>
      <td>c Gaikwad b Chahar</td><td>45</td><td>30</td><td>52</td><td>5</td><td>2</td><td>150.00</td>
    </tr>
    <tr>
      <td class="ds-w-0 ds-whitespace-nowrap ds-min-w-max ds-border-line-primary ci-scorecard-player-notout"><a>Ishan Kishan &#8224;</a></td>
      <td>not out</td><td>38</td><td>22</td><td>40</td><td>4</td><td>1</td><td>172.72</td>
    </tr>
    <tr>
      <td class="ds-w-0 ds-whitespace-nowrap ds-min-w-max"><a>Hardik Pandya</a></td>
      <td>run out (Jadeja/&#8224;Dhoni)</td><td>0</td><td>2</td><td>4</td><td>0</td><td>0</td><td>-</td>
    </tr>
    <tr class="!ds-border-b-0"><td colspan="8">
      <div class="ds-text-tight-m">Did not bat: <a>Jasprit Bumrah</a>, <a>Trent Boult</a></div>
    </td></tr>
  </tbody></table>
  <table class="ds-w-full ds-table ds-table-md ds-table-auto"><tbody>
    <tr>
      <td><a>Deepak Chahar</a></td><td>4</td><td>0</td><td>29</td><td>2</td><td>7.25</td><td>11</td><td>3</td><td>1</td><td>1</td><td>0</td>
    </tr>
    <tr>
      <td><a>Matheesha Pathirana</a></td><td>3.4</td><td>0</td><td>33</td><td>1</td><td>9.00</td><td>8</td><td>2</td><td>2</td><td>2</td><td>1</td>
    </tr>
  </tbody></table>
</div>

<div class="ds-rounded-lg">
  <span class="ds-text-title-xs ds-font-bold ds-capitalize">Chennai Super Kings</span>
  <span class="ds-text-tight-s">19.2 Ov (RR: 8.43)</span>
  <table class="ci-scorecard-table"><tbody>
    <tr>
      <td class="ds-w-0 ds-whitespace-nowrap ds-min-w-max"><a>Ruturaj Gaikwad</a></td>
      <td>c &amp; b Bumrah</td><td>60</td><td>40</td><td>71</td><td>6</td><td>2</td><td>150.00</td>
    </tr>
  </tbody></table>
  <table class="ds-w-full ds-table ds-table-md ds-table-auto"><tbody>
    <tr>
      <td><a>Jasprit Bumrah</a></td><td>4</td><td>1</td><td>21</td><td>3</td><td>5.25</td><td>14</td><td>1</td><td>1</td><td>0</td><td>0</td>
    </tr>
  </tbody></table>
</div>

<div>
  <div class="ds-text-eyebrow-xs ds-uppercase ds-text-typo-mid2">Player Of The Match</div>
  <div><a>Ruturaj Gaikwad</a></div>
</div>
</body></html>`

func parseFixture(t *testing.T, html string) (*MatchDocument, *Diagnostics) {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	diags := &Diagnostics{}
	parsed, err := ParseMatchDocument(doc, diags)
	require.NoError(t, err)
	return parsed, diags
}

func TestParseMatchDocument_TeamsFromHeader(t *testing.T) {
	parsed, _ := parseFixture(t, scorecardFixture)

	assert.Equal(t, []string{"Mumbai Indians", "Chennai Super Kings"}, parsed.TeamNames)
	require.Len(t, parsed.Innings, 2)
	assert.Equal(t, "Mumbai Indians", parsed.Innings[0].BattingTeam)
	assert.Equal(t, "Chennai Super Kings", parsed.Innings[0].BowlingTeam)
	assert.Equal(t, "Mumbai Indians", parsed.Innings[1].BowlingTeam)
}

func TestParseMatchDocument_RunRate(t *testing.T) {
	parsed, _ := parseFixture(t, scorecardFixture)

	require.True(t, parsed.Innings[0].HasRunRate)
	assert.InDelta(t, 9.05, parsed.Innings[0].RunRate, 0.001)
	assert.InDelta(t, 8.43, parsed.Innings[1].RunRate, 0.001)
}

func TestParseMatchDocument_BattingRows(t *testing.T) {
	parsed, _ := parseFixture(t, scorecardFixture)

	rows := parsed.Innings[0].BattingRows
	require.Len(t, rows, 3)

	assert.Equal(t, "Rohit Sharma", rows[0].Name, "captain marker stripped")
	assert.Equal(t, 45, rows[0].Runs)
	assert.Equal(t, 30, rows[0].Balls)
	assert.Equal(t, 5, rows[0].Fours)
	assert.Equal(t, 2, rows[0].Sixes)
	assert.InDelta(t, 150.0, rows[0].StrikeRate, 0.001)
	assert.False(t, rows[0].NotOut)

	assert.Equal(t, "Ishan Kishan", rows[1].Name, "keeper dagger stripped")
	assert.True(t, rows[1].NotOut)

	assert.Equal(t, "Hardik Pandya", rows[2].Name)
	assert.Zero(t, rows[2].StrikeRate, `dash strike rate parses as zero`)
	assert.True(t, strings.Contains(rows[2].DismissalText, "run out"))
}

func TestParseMatchDocument_DidNotBat(t *testing.T) {
	parsed, _ := parseFixture(t, scorecardFixture)

	assert.Equal(t, []string{"Jasprit Bumrah", "Trent Boult"}, parsed.Innings[0].DidNotBat)
}

func TestParseMatchDocument_BowlingRows(t *testing.T) {
	parsed, _ := parseFixture(t, scorecardFixture)

	rows := parsed.Innings[0].BowlingRows
	require.Len(t, rows, 2)

	assert.Equal(t, "Deepak Chahar", rows[0].Name)
	assert.InDelta(t, 4.0, rows[0].Overs, 0.001)
	assert.Equal(t, 0, rows[0].Maidens)
	assert.Equal(t, 2, rows[0].Wickets)
	assert.InDelta(t, 7.25, rows[0].Economy, 0.001)
	assert.Equal(t, 11, rows[0].Dots)
	assert.Equal(t, 1, rows[0].Wides)
	assert.Equal(t, 0, rows[0].NoBalls)

	assert.InDelta(t, 3.4, rows[1].Overs, 0.001, "cricket notation preserved")
	assert.Equal(t, 1, rows[1].NoBalls)
}

func TestParseMatchDocument_Dismissals(t *testing.T) {
	parsed, _ := parseFixture(t, scorecardFixture)

	recs := parsed.Innings[0].Dismissals
	require.Len(t, recs, 2, "not-out rows produce no dismissal record")
	assert.Equal(t, "Rohit Sharma", recs[0].Batsman)
	assert.Equal(t, "Chennai Super Kings", recs[0].BowlingTeam)
	assert.Equal(t, "Hardik Pandya", recs[1].Batsman)
}

func TestParseMatchDocument_PlayerOfMatch(t *testing.T) {
	parsed, _ := parseFixture(t, scorecardFixture)

	assert.Equal(t, "Ruturaj Gaikwad", parsed.POTMName)
}

func TestParseMatchDocument_NoTeamsIsFatal(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<html><body><p>nothing here</p></body></html>"))
	require.NoError(t, err)

	_, err = ParseMatchDocument(doc, nil)

	require.Error(t, err)
	var extractionErr *ExtractionError
	assert.ErrorAs(t, err, &extractionErr)
}

func TestParseMatchDocument_TeamsFromInningsLabelsFallback(t *testing.T) {
	html := strings.Replace(scorecardFixture,
		`Mumbai Indians vs Chennai Super Kings in Indian Premier League 2026`,
		`Match coverage`, 1)

	parsed, _ := parseFixture(t, html)

	assert.Equal(t, []string{"Mumbai Indians", "Chennai Super Kings"}, parsed.TeamNames)
}

func TestParseMatchDocument_EndToEndScoring(t *testing.T) {
	parsed, _ := parseFixture(t, scorecardFixture)
	engine := testEngine()
	diags := &Diagnostics{}

	card := engine.assembleStats(parsed, diags)
	engine.scorePlayers(card, diags)

	gaikwad := card["Chennai Super Kings"].PlayerStats["Ruturaj Gaikwad"]
	require.NotNil(t, gaikwad)
	assert.True(t, gaikwad.PlayerOfMatch)
	assert.NotZero(t, gaikwad.TotalPoints)

	bumrah := card["Mumbai Indians"].PlayerStats["Jasprit Bumrah"]
	require.NotNil(t, bumrah)
	assert.InDelta(t, 1.0, bumrah.Catches, 0.001, "caught and bowled credits the bowler")
}
