package main

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// scorecardUserAgent is required: the scorecard host rejects default Go
// client requests.
const scorecardUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

var fetchClient = &http.Client{Timeout: 30 * time.Second}

// FetchScorecard downloads and parses one scorecard page.
func FetchScorecard(url string) (*goquery.Document, error) {
	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("building scorecard request: %w", err)
	}
	req.Header.Set("User-Agent", scorecardUserAgent)

	res, err := fetchClient.Do(req)
	if err != nil {
		logger.LogError("FetchScorecard", err, map[string]interface{}{
			"url": url,
		})
		return nil, err
	}
	defer func() {
		if err := res.Body.Close(); err != nil {
			log.Printf("error closing response body: %v", err)
		}
	}()

	if res.StatusCode != 200 {
		err := fmt.Errorf("HTTP status code error: %d %s", res.StatusCode, res.Status)
		logger.LogError("FetchScorecard", err, map[string]interface{}{
			"url":         url,
			"status_code": res.StatusCode,
		})
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(res.Body)
	if err != nil {
		logger.LogError("FetchScorecard", err, map[string]interface{}{
			"component": "html_parsing",
			"url":       url,
		})
		return nil, err
	}
	return doc, nil
}
