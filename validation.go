package main

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var scorecardPathRE = regexp.MustCompile(`/series/[^/]+/[^/]+/full-scorecard$`)

// ValidateScorecardURL validates a full-scorecard URL before it is accepted
// into the schedule. It trims whitespace and ensures the link points at an
// ESPNcricinfo full-scorecard page over https.
// Returns the normalised URL or an error.
func ValidateScorecardURL(input string) (string, error) {
	raw := strings.TrimSpace(input)
	if raw == "" {
		return "", fmt.Errorf("scorecard URL cannot be empty")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid scorecard URL '%s': %v", input, err)
	}
	if u.Scheme != "https" {
		return "", fmt.Errorf("scorecard URL '%s' must use https", input)
	}
	host := strings.ToLower(u.Hostname())
	if host != "www.espncricinfo.com" && host != "espncricinfo.com" {
		return "", fmt.Errorf("scorecard URL '%s' must point at espncricinfo.com", input)
	}
	if !scorecardPathRE.MatchString(u.Path) {
		return "", fmt.Errorf("scorecard URL '%s' is not a full-scorecard page", input)
	}
	return u.String(), nil
}

// ValidateMatchNumber validates a match number argument from a bot command.
func ValidateMatchNumber(input string) (int, error) {
	n := 0
	if _, err := fmt.Sscanf(strings.TrimSpace(input), "%d", &n); err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid match number '%s', use a positive integer", input)
	}
	return n, nil
}
