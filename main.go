package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/joho/godotenv"
)

// Config holds the configuration for the scoring service.
type Config struct {
	DiscordWebhookURLs []string
	PollInterval       time.Duration
	StatePath          string
	RosterPath         string
	RulesPath          string
	OutputDir          string
	ListenAddr         string

	// Discord Bot configuration
	DiscordBot BotConfig
	EnableBot  bool
}

// BotConfig holds Discord bot specific configuration
type BotConfig struct {
	Token       string
	GuildID     string
	ChannelID   string
	AdminRoleID string
}

// CommandHandler represents a function that handles Discord slash commands
type CommandHandler func(s *discordgo.Session, i *discordgo.InteractionCreate)

// MatchResult is one fully processed match: the schedule entry, the scored
// card and the audit trail, as written to disk and served over HTTP.
type MatchResult struct {
	Match       *MatchInfo   `json:"match"`
	Scorecard   Scorecard    `json:"scorecard"`
	Diagnostics *Diagnostics `json:"diagnostics"`
}

// ResultStore keeps processed match results in memory for the bot and the
// HTTP endpoints.
type ResultStore struct {
	mu      sync.RWMutex
	results map[int]*MatchResult
	latest  int
}

func NewResultStore() *ResultStore {
	return &ResultStore{results: make(map[int]*MatchResult)}
}

func (rs *ResultStore) Put(match *MatchInfo, card Scorecard, diags *Diagnostics) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.results[match.MatchNumber] = &MatchResult{Match: match, Scorecard: card, Diagnostics: diags}
	if match.MatchNumber > rs.latest {
		rs.latest = match.MatchNumber
	}
}

func (rs *ResultStore) Get(matchNumber int) (Scorecard, *MatchInfo, bool) {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	res, ok := rs.results[matchNumber]
	if !ok {
		return nil, nil, false
	}
	return res.Scorecard, res.Match, true
}

func (rs *ResultStore) Latest() (Scorecard, *MatchInfo, bool) {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	return rs.get(rs.latest)
}

func (rs *ResultStore) get(matchNumber int) (Scorecard, *MatchInfo, bool) {
	res, ok := rs.results[matchNumber]
	if !ok {
		return nil, nil, false
	}
	return res.Scorecard, res.Match, true
}

// All returns every stored result, keyed by match number.
func (rs *ResultStore) All() map[int]*MatchResult {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	out := make(map[int]*MatchResult, len(rs.results))
	for n, res := range rs.results {
		out[n] = res
	}
	return out
}

var (
	globalConfig   *Config
	logger         *EnhancedLogger
	circuitBreaker *CircuitBreaker
	retryConfig    RetryConfig
	rateLimiter    *RateLimiter
	engine         *Engine
	stateManager   *StateManager
	resultStore    *ResultStore
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}

	urlsEnv := os.Getenv("DISCORD_WEBHOOK_URLS")
	var urls []string
	for _, u := range strings.Split(urlsEnv, ",") {
		u = strings.TrimSpace(u)
		if u != "" {
			urls = append(urls, u)
		}
	}

	botConfig := BotConfig{
		Token:       os.Getenv("DISCORD_BOT_TOKEN"),
		GuildID:     os.Getenv("DISCORD_GUILD_ID"),
		ChannelID:   os.Getenv("DISCORD_CHANNEL_ID"),
		AdminRoleID: os.Getenv("DISCORD_ADMIN_ROLE_ID"),
	}

	pollInterval := 5 * time.Minute
	if v := os.Getenv("POLL_INTERVAL_SECONDS"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			pollInterval = time.Duration(secs) * time.Second
		}
	}

	config := Config{
		DiscordWebhookURLs: urls,
		PollInterval:       pollInterval,
		StatePath:          envOr("STATE_FILE", "config/matches.json"),
		RosterPath:         envOr("ROSTER_FILE", "config/roster.yaml"),
		RulesPath:          envOr("RULES_FILE", "config/scoring_rules.yaml"),
		OutputDir:          envOr("OUTPUT_DIR", "output"),
		ListenAddr:         envOr("LISTEN_ADDR", ":8080"),
		DiscordBot:         botConfig,
		EnableBot:          os.Getenv("ENABLE_DISCORD_BOT") == "true",
	}
	globalConfig = &config

	logger = NewEnhancedLogger("FIPL_ENGINE")
	circuitBreaker = NewCircuitBreaker("scorecard_host", 5, 60*time.Second)
	retryConfig = DefaultRetryConfig()
	rateLimiter = NewRateLimiter(10, time.Minute)
	resultStore = NewResultStore()

	roster, err := LoadRoster(config.RosterPath)
	if err != nil {
		log.Fatalf("Failed to load roster: %v", err)
	}
	rules, err := LoadRuleTable(config.RulesPath)
	if err != nil {
		log.Fatalf("Failed to load scoring rules: %v", err)
	}
	engine = NewEngine(roster, rules, logger)
	stateManager = NewStateManager(config.StatePath, logger)

	if err := os.MkdirAll(config.OutputDir, 0o755); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}

	logger.LogInfo("main", "Starting FIPL scoring engine", map[string]interface{}{
		"poll_interval": config.PollInterval.String(),
		"state_path":    config.StatePath,
		"bot_enabled":   config.EnableBot,
	})

	var bot *PointsBot
	if config.EnableBot {
		bot, err = NewPointsBot(&config.DiscordBot, engine, stateManager, resultStore)
		if err != nil {
			logger.LogError("main", err, map[string]interface{}{
				"component": "discord_bot_init",
			})
		} else if err = bot.Connect(); err != nil {
			logger.LogError("main", err, map[string]interface{}{
				"component": "discord_bot_connect",
			})
			bot = nil
		} else {
			defer func() {
				logger.LogInfo("main", "Disconnecting Discord bot", nil)
				if err := bot.Disconnect(); err != nil {
					log.Printf("error disconnecting bot: %v", err)
				}
			}()
		}
	}

	go func() {
		for {
			if IsMonitoringRunning() {
				err := RetryWithBackoff(retryConfig, pollOnce)
				if err != nil {
					logger.LogError("main", err, map[string]interface{}{
						"component": "poll_loop",
					})
				}
			}

			select {
			case <-GetMonitoringStopChannel():
				logger.LogInfo("main", "Poll loop received stop signal", nil)
			case <-time.After(config.PollInterval):
			}
		}
	}()

	http.HandleFunc("/points", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if v := r.URL.Query().Get("match"); v != "" {
			n, err := ValidateMatchNumber(v)
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			card, match, ok := resultStore.Get(n)
			if !ok {
				http.Error(w, "match not processed", http.StatusNotFound)
				return
			}
			if err := json.NewEncoder(w).Encode(MatchResult{Match: match, Scorecard: card}); err != nil {
				log.Printf("error encoding points response: %v", err)
			}
			return
		}
		if err := json.NewEncoder(w).Encode(resultStore.All()); err != nil {
			log.Printf("error encoding points response: %v", err)
		}
	})

	http.HandleFunc("/process", func(w http.ResponseWriter, r *http.Request) {
		n, err := ValidateMatchNumber(r.URL.Query().Get("match"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := processMatchNumber(n); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if _, err := w.Write([]byte("match processed")); err != nil {
			log.Printf("error writing response: %v", err)
		}
	})

	http.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("ok")); err != nil {
			log.Printf("error writing response: %v", err)
		}
	})

	server := &http.Server{
		Addr:         config.ListenAddr,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	log.Fatal(server.ListenAndServe())
}

// pollOnce walks the schedule and processes every match that is due.
func pollOnce() error {
	state, err := stateManager.Load()
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	changed := false
	for _, match := range state.Matches {
		due, newStatus := ShouldUpdate(match, now)
		if !due {
			log.Printf("Skipping match %d (status: %s)", match.MatchNumber, match.Status)
			continue
		}

		log.Printf("Processing match %d (%s -> %s)", match.MatchNumber, match.Status, newStatus)
		if err := processMatch(match); err != nil {
			logger.LogError("pollOnce", err, map[string]interface{}{
				"match_number": match.MatchNumber,
				"url":          match.URL,
			})
			continue
		}
		MarkStatus(match, newStatus, now)
		changed = true
	}

	if changed {
		return stateManager.Save(state)
	}
	return nil
}

// processMatch runs one match through the full pipeline: fetch, parse, score,
// persist, notify.
func processMatch(match *MatchInfo) error {
	url, err := ValidateScorecardURL(match.URL)
	if err != nil {
		return err
	}

	return circuitBreaker.Execute(func() error {
		rateLimiter.Wait()

		doc, err := FetchScorecard(url)
		if err != nil {
			return err
		}

		card, diags, err := engine.ProcessDocument(doc)
		if err != nil {
			return err
		}
		for _, d := range diags.Items {
			logger.LogWarning("processMatch", d.Reason, map[string]interface{}{
				"match_number": match.MatchNumber,
				"player":       d.Player,
				"context":      d.Context,
			})
		}

		if err := writeResult(match, card, diags); err != nil {
			return err
		}
		resultStore.Put(match, card, diags)
		log.Printf("Match %d processed:\n%s", match.MatchNumber, buildScoresMessage(match, card))

		if len(globalConfig.DiscordWebhookURLs) > 0 {
			title := fmt.Sprintf("FIPL Scores Update - Match %d", match.MatchNumber)
			go func() {
				if err := sendScorecardAlert(*globalConfig, title, 0x00ff00, match, card); err != nil {
					log.Printf("Error sending scores update: %v", err)
				}
			}()
		}
		return nil
	})
}

// processMatchNumber looks a match up in the schedule and processes it
// immediately, regardless of its status. Used by the bot and the HTTP API.
func processMatchNumber(matchNumber int) error {
	state, err := stateManager.Load()
	if err != nil {
		return err
	}

	for _, match := range state.Matches {
		if match.MatchNumber != matchNumber {
			continue
		}
		if err := processMatch(match); err != nil {
			return err
		}
		MarkStatus(match, MatchInProgress, time.Now().UTC())
		return stateManager.Save(state)
	}
	return fmt.Errorf("match %d not found in schedule", matchNumber)
}

// writeResult persists the scored card next to the engine for the sheet
// updater to pick up.
func writeResult(match *MatchInfo, card Scorecard, diags *Diagnostics) error {
	raw, err := json.MarshalIndent(MatchResult{Match: match, Scorecard: card, Diagnostics: diags}, "", "    ")
	if err != nil {
		return fmt.Errorf("encoding result for match %d: %w", match.MatchNumber, err)
	}

	path := filepath.Join(globalConfig.OutputDir, fmt.Sprintf("scorecard_%d.json", match.MatchNumber))
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("writing result for match %d: %w", match.MatchNumber, err)
	}
	log.Printf("Saved scorecard data to %s", path)
	return nil
}
