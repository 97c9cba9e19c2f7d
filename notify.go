package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sort"
	"strings"
	"time"
)

// DiscordEmbedFooter represents the footer of a Discord embed.
type DiscordEmbedFooter struct {
	Text string `json:"text"`
}

// DiscordEmbedField represents a field in a Discord embed.
type DiscordEmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

// DiscordEmbed represents a Discord embed message.
type DiscordEmbed struct {
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Color       int                 `json:"color"`
	Fields      []DiscordEmbedField `json:"fields"`
	Footer      *DiscordEmbedFooter `json:"footer,omitempty"`
	Timestamp   string              `json:"timestamp"`
}

// DiscordMessage represents a message to be sent to Discord.
type DiscordMessage struct {
	Username  string         `json:"username"`
	AvatarURL string         `json:"avatar_url"`
	Embeds    []DiscordEmbed `json:"embeds"`
}

type teamTotal struct {
	Team   string
	Points float64
}

type playerTotal struct {
	Name  string
	Team  string
	Score *PlayerScore
}

func sortedTeamTotals(card Scorecard) []teamTotal {
	totals := make([]teamTotal, 0, len(card))
	for team, tc := range card {
		totals = append(totals, teamTotal{Team: team, Points: tc.TotalPoints()})
	}
	sort.Slice(totals, func(i, j int) bool {
		if totals[i].Points != totals[j].Points {
			return totals[i].Points > totals[j].Points
		}
		return totals[i].Team < totals[j].Team
	})
	return totals
}

func topPerformers(card Scorecard, n int) []playerTotal {
	var players []playerTotal
	for team, tc := range card {
		for name, ps := range tc.PlayerStats {
			players = append(players, playerTotal{Name: name, Team: team, Score: ps})
		}
	}
	sort.Slice(players, func(i, j int) bool {
		if players[i].Score.TotalPoints != players[j].Score.TotalPoints {
			return players[i].Score.TotalPoints > players[j].Score.TotalPoints
		}
		return players[i].Name < players[j].Name
	})
	if len(players) > n {
		players = players[:n]
	}
	return players
}

func performerLine(p playerTotal) string {
	var parts []string
	if !p.Score.DidNotBat || p.Score.BallsFaced > 0 {
		parts = append(parts, fmt.Sprintf("%d (%d)", p.Score.RunsScored, p.Score.BallsFaced))
	}
	if p.Score.Overs > 0 {
		parts = append(parts, fmt.Sprintf("%d/%d (%s ov)", p.Score.Wickets, runsConceded(p.Score.Overs, p.Score.Economy), formatOvers(p.Score.Overs)))
	}
	detail := strings.Join(parts, ", ")
	if detail == "" {
		detail = "fielding"
	}
	return fmt.Sprintf("**%s**: %.2f pts - %s", p.Name, p.Score.TotalPoints, detail)
}

// buildScoresMessage renders the plain-text scores update posted after a
// match is processed.
func buildScoresMessage(match *MatchInfo, card Scorecard) string {
	var b strings.Builder
	b.WriteString("**FIPL SCORES UPDATE**\n")
	b.WriteString("━━━━━━━━━━━━━━━\n")
	if match != nil && match.LastUpdate != "" {
		b.WriteString(fmt.Sprintf("Last update at: **%s**\n", match.LastUpdate))
		b.WriteString("━━━━━━━━━━━━━━━\n")
	}
	for idx, tt := range sortedTeamTotals(card) {
		b.WriteString(fmt.Sprintf("%d) **%s** - %g\n", idx+1, tt.Team, tt.Points))
	}
	return strings.TrimRight(b.String(), "\n")
}

// sendScorecardAlert posts the processed match summary to every configured
// webhook. Webhook failures are logged and skipped, never fatal: points are
// already persisted by the time this runs.
func sendScorecardAlert(config Config, title string, color int, match *MatchInfo, card Scorecard) error {
	var fields []DiscordEmbedField

	var standings string
	for idx, tt := range sortedTeamTotals(card) {
		standings += fmt.Sprintf("%d) **%s** - %g\n", idx+1, tt.Team, tt.Points)
	}
	if standings != "" {
		fields = append(fields, DiscordEmbedField{Name: "Standings", Value: standings, Inline: false})
	}

	var performers string
	for _, p := range topPerformers(card, 3) {
		performers += performerLine(p) + "\n"
	}
	if performers != "" {
		fields = append(fields, DiscordEmbedField{Name: "Top Performers", Value: performers, Inline: false})
	}

	description := ""
	if match != nil {
		teams := make([]string, 0, len(match.Teams))
		for team := range match.Teams {
			teams = append(teams, team)
		}
		sort.Strings(teams)
		description = fmt.Sprintf("%s\nMatch %d, Gameweek %d", strings.Join(teams, " v "), match.MatchNumber, match.Gameweek)
	}

	discordEmbed := DiscordEmbed{
		Title:       title,
		Description: description,
		Color:       color,
		Fields:      fields,
		Footer: &DiscordEmbedFooter{
			Text: "via FIPL Engine",
		},
		Timestamp: time.Now().Format(time.RFC3339),
	}
	discordMessage := DiscordMessage{
		Username:  "FIPL-Engine",
		AvatarURL: "https://wassets.hscicdn.com/static/images/logo.svg",
		Embeds:    []DiscordEmbed{discordEmbed},
	}

	payload, err := json.Marshal(discordMessage)
	if err != nil {
		log.Printf("Error marshalling Discord message: %v", err)
		return fmt.Errorf("error marshalling Discord message: %v", err)
	}

	for _, webhookURL := range config.DiscordWebhookURLs {
		req, err := http.NewRequest("POST", webhookURL, bytes.NewBuffer(payload))
		if err != nil {
			log.Printf("Error creating request: %v", err)
			continue
		}

		req.Header.Set("Content-Type", "application/json")

		client := &http.Client{}
		resp, err := client.Do(req)
		if err != nil {
			log.Printf("Error sending Discord webhook: %v", err)
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			log.Printf("Discord webhook returned status: %d", resp.StatusCode)
		}
		if err := resp.Body.Close(); err != nil {
			log.Printf("error closing webhook response: %v", err)
		}
	}
	return nil
}
