package main

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// MatchDocument is the structured form of one scorecard page, before any
// identity resolution or scoring.
type MatchDocument struct {
	TeamNames []string
	Innings   []InningsData
	POTMName  string
}

// InningsData captures one innings block: who batted, who bowled, the innings
// run rate and the raw table rows.
type InningsData struct {
	BattingTeam string
	BowlingTeam string
	RunRate     float64
	HasRunRate  bool
	BattingRows []BattingRow
	DidNotBat   []string
	BowlingRows []BowlingRow
	Dismissals  []DismissalRecord
}

// BattingRow is one line of a batting table.
type BattingRow struct {
	Name          string
	Runs          int
	Balls         int
	Fours         int
	Sixes         int
	StrikeRate    float64
	DismissalText string
	NotOut        bool
}

// BowlingRow is one line of a bowling table.
type BowlingRow struct {
	Name    string
	Overs   float64
	Maidens int
	Wickets int
	Dots    int
	Wides   int
	NoBalls int
	Economy float64
}

// ExtractionError signals that the page structure defeated the parser badly
// enough that no usable match document exists.
type ExtractionError struct {
	Stage   string
	Message string
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction failed at %s: %s", e.Stage, e.Message)
}

var (
	nameNoiseRE  = regexp.MustCompile(`\s*\(c\)|\s*,`)
	nameDaggerRE = regexp.MustCompile(`\s*†($|[^\w])`)
)

// cleanPlayerName strips the captain marker, stray commas and the keeper
// dagger from a rendered player name. The dagger is only removed when it is
// not glued to a following word, so names keep their own characters intact.
func cleanPlayerName(name string) string {
	name = nameNoiseRE.ReplaceAllString(name, "")
	name = nameDaggerRE.ReplaceAllString(name, "$1")
	name = strings.ReplaceAll(name, "’", "'")
	return strings.TrimSpace(name)
}

func cellInt(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}

func cellFloat(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "-" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}

// extractRunRate finds the "(RR: x.xx)" span inside an innings block.
func extractRunRate(innings *goquery.Selection) (float64, bool) {
	var rate float64
	found := false
	innings.Find("span.ds-text-tight-s").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := strings.TrimSpace(s.Text())
		if !strings.Contains(text, "(RR:") {
			return true
		}
		text = strings.ReplaceAll(text, "(RR:", "")
		text = strings.ReplaceAll(text, ")", "")
		v, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
		if err != nil {
			return false
		}
		rate = v
		found = true
		return false
	})
	return rate, found
}

// ParseMatchDocument walks a scorecard page and pulls out teams, both innings
// and the player-of-the-match award. Malformed rows are skipped with a
// diagnostic; only a page with no recognizable teams is fatal.
func ParseMatchDocument(doc *goquery.Document, diags *Diagnostics) (*MatchDocument, error) {
	parsed := &MatchDocument{}

	inningsDivs := doc.Find("div.ds-rounded-lg")
	if inningsDivs.Length() > 2 {
		inningsDivs = inningsDivs.Slice(0, 2)
	}

	// The match header reads "Team A vs Team B in <series>". If it is absent
	// or unparseable, fall back to the innings labels.
	header := doc.Find("div.ds-text-tight-m.ds-font-regular.ds-text-typo-mid3").First()
	if header.Length() > 0 {
		headerText := strings.TrimSpace(header.Text())
		if parts := strings.SplitN(headerText, " vs ", 2); len(parts) == 2 {
			team1 := strings.TrimSpace(parts[0])
			team2 := strings.TrimSpace(strings.SplitN(parts[1], " in ", 2)[0])
			if team1 != "" && team2 != "" {
				parsed.TeamNames = []string{team1, team2}
			}
		}
	}
	if len(parsed.TeamNames) < 2 {
		parsed.TeamNames = nil
		inningsDivs.Each(func(_ int, innings *goquery.Selection) {
			label := innings.Find("span.ds-text-title-xs.ds-font-bold.ds-capitalize").First()
			name := strings.TrimSpace(label.Text())
			if name == "" {
				return
			}
			for _, existing := range parsed.TeamNames {
				if existing == name {
					return
				}
			}
			parsed.TeamNames = append(parsed.TeamNames, name)
		})
	}
	if len(parsed.TeamNames) == 0 {
		return nil, &ExtractionError{Stage: "team names", Message: "no teams found in scorecard"}
	}

	inningsDivs.Each(func(idx int, innings *goquery.Selection) {
		label := innings.Find("span.ds-text-title-xs.ds-font-bold.ds-capitalize").First()
		battingTeam := strings.TrimSpace(label.Text())
		if battingTeam == "" {
			diags.Add("", "innings without team label skipped", fmt.Sprintf("innings %d", idx+1))
			return
		}

		data := InningsData{BattingTeam: battingTeam}
		if len(parsed.TeamNames) == 2 {
			if battingTeam == parsed.TeamNames[0] {
				data.BowlingTeam = parsed.TeamNames[1]
			} else {
				data.BowlingTeam = parsed.TeamNames[0]
			}
		}

		data.RunRate, data.HasRunRate = extractRunRate(innings)

		battingTable := innings.Find("table.ci-scorecard-table").First()
		if battingTable.Length() > 0 {
			parseBattingTable(battingTable, &data, diags)
		}

		if data.BowlingTeam != "" {
			bowlingTable := innings.Find("table.ds-w-full.ds-table.ds-table-md.ds-table-auto").Not(".ci-scorecard-table").First()
			if bowlingTable.Length() > 0 {
				parseBowlingTable(bowlingTable, &data, diags)
			}
		}

		parsed.Innings = append(parsed.Innings, data)
	})

	parsed.POTMName = extractPlayerOfMatch(doc)
	return parsed, nil
}

func parseBattingTable(table *goquery.Selection, data *InningsData, diags *Diagnostics) {
	table.Find("td.ds-w-0.ds-whitespace-nowrap.ds-min-w-max").Each(func(_ int, cell *goquery.Selection) {
		link := cell.Find("a").First()
		if link.Length() == 0 {
			return
		}
		name := cleanPlayerName(strings.TrimSpace(link.Text()))
		if name == "" {
			return
		}

		row := cell.Closest("tr")
		cells := row.Find("td")
		if cells.Length() < 8 {
			return
		}

		dismissal := strings.TrimSpace(cells.Eq(1).Text())

		runs, errRuns := cellInt(cells.Eq(2).Text())
		balls, errBalls := cellInt(cells.Eq(3).Text())
		fours, errFours := cellInt(cells.Eq(5).Text())
		sixes, errSixes := cellInt(cells.Eq(6).Text())
		strikeRate, errSR := cellFloat(cells.Eq(7).Text())
		for _, err := range []error{errRuns, errBalls, errFours, errSixes, errSR} {
			if err != nil {
				diags.Add(name, "unparseable batting row skipped", err.Error())
				return
			}
		}

		data.BattingRows = append(data.BattingRows, BattingRow{
			Name:          name,
			Runs:          runs,
			Balls:         balls,
			Fours:         fours,
			Sixes:         sixes,
			StrikeRate:    strikeRate,
			DismissalText: dismissal,
			NotOut:        cell.HasClass("ci-scorecard-player-notout") || dismissal == "not out",
		})

		if data.BowlingTeam != "" && dismissal != "" && dismissal != "not out" {
			data.Dismissals = append(data.Dismissals, DismissalRecord{
				Batsman:       name,
				DismissalText: dismissal,
				BattingTeam:   data.BattingTeam,
				BowlingTeam:   data.BowlingTeam,
			})
		}
	})

	// The "Did not bat" footer row lists everyone who never came in.
	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		if !row.HasClass("!ds-border-b-0") {
			return
		}
		div := row.Find("div.ds-text-tight-m").First()
		if div.Length() == 0 || !strings.Contains(div.Text(), "bat") {
			return
		}
		div.Find("a").Each(func(_ int, link *goquery.Selection) {
			if name := cleanPlayerName(strings.TrimSpace(link.Text())); name != "" {
				data.DidNotBat = append(data.DidNotBat, name)
			}
		})
	})
}

func parseBowlingTable(table *goquery.Selection, data *InningsData, diags *Diagnostics) {
	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 11 {
			return
		}
		link := cells.Eq(0).Find("a").First()
		if link.Length() == 0 {
			return
		}
		name := cleanPlayerName(strings.TrimSpace(link.Text()))
		if name == "" {
			return
		}

		overs, errOvers := cellFloat(cells.Eq(1).Text())
		maidens, errMaidens := cellInt(cells.Eq(2).Text())
		wickets, errWickets := cellInt(cells.Eq(4).Text())
		economy, errEcon := cellFloat(cells.Eq(5).Text())
		dots, errDots := cellInt(cells.Eq(6).Text())
		wides, errWides := cellInt(cells.Eq(9).Text())
		noBalls, errNB := cellInt(cells.Eq(10).Text())
		for _, err := range []error{errOvers, errMaidens, errWickets, errEcon, errDots, errWides, errNB} {
			if err != nil {
				diags.Add(name, "unparseable bowling row skipped", err.Error())
				return
			}
		}

		data.BowlingRows = append(data.BowlingRows, BowlingRow{
			Name:    name,
			Overs:   overs,
			Maidens: maidens,
			Wickets: wickets,
			Dots:    dots,
			Wides:   wides,
			NoBalls: noBalls,
			Economy: economy,
		})
	})
}

func extractPlayerOfMatch(doc *goquery.Document) string {
	name := ""
	doc.Find("div.ds-text-eyebrow-xs.ds-uppercase.ds-text-typo-mid2").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if !strings.EqualFold(strings.TrimSpace(s.Text()), "Player Of The Match") {
			return true
		}
		link := s.Parent().Find("a").First()
		if link.Length() == 0 {
			return true
		}
		name = cleanPlayerName(strings.TrimSpace(link.Text()))
		return false
	})
	return name
}
