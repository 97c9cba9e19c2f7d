package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateScorecardURL(t *testing.T) {
	url, err := ValidateScorecardURL("  https://www.espncricinfo.com/series/ipl-2026/mi-vs-csk-1st-match/full-scorecard ")
	require.NoError(t, err)
	assert.Equal(t, "https://www.espncricinfo.com/series/ipl-2026/mi-vs-csk-1st-match/full-scorecard", url)

	_, err = ValidateScorecardURL("")
	assert.Error(t, err)

	_, err = ValidateScorecardURL("http://www.espncricinfo.com/series/ipl-2026/mi-vs-csk-1st-match/full-scorecard")
	assert.Error(t, err, "plain http rejected")

	_, err = ValidateScorecardURL("https://example.com/series/ipl-2026/mi-vs-csk-1st-match/full-scorecard")
	assert.Error(t, err, "wrong host rejected")

	_, err = ValidateScorecardURL("https://www.espncricinfo.com/series/ipl-2026/mi-vs-csk-1st-match/live-cricket-score")
	assert.Error(t, err, "non-scorecard page rejected")
}

func TestValidateMatchNumber(t *testing.T) {
	n, err := ValidateMatchNumber(" 42 ")
	require.NoError(t, err)
	assert.Equal(t, 42, n)

	_, err = ValidateMatchNumber("0")
	assert.Error(t, err)

	_, err = ValidateMatchNumber("abc")
	assert.Error(t, err)
}
