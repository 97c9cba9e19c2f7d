package main

import (
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
)

// Command represents a Discord slash command
type Command struct {
	Name        string
	Description string
	Options     []*discordgo.ApplicationCommandOption
	Handler     CommandHandler
	AdminOnly   bool
}

// Monitoring control shared between the poll loop and the bot. The loop keeps
// ticking while paused, it just skips the processing pass.
var (
	monitoringMu      sync.RWMutex
	monitoringRunning = true
	monitoringStopCh  = make(chan struct{}, 1)
)

// IsMonitoringRunning reports whether the poll loop should process matches.
func IsMonitoringRunning() bool {
	monitoringMu.RLock()
	defer monitoringMu.RUnlock()
	return monitoringRunning
}

// SetMonitoringRunning toggles the poll loop.
func SetMonitoringRunning(running bool) {
	monitoringMu.Lock()
	monitoringRunning = running
	monitoringMu.Unlock()
	if !running {
		select {
		case monitoringStopCh <- struct{}{}:
		default:
		}
	}
}

// GetMonitoringStopChannel returns the channel signalled when monitoring is
// paused, so the poll loop can cut its sleep short.
func GetMonitoringStopChannel() <-chan struct{} {
	return monitoringStopCh
}

// PointsBot is the Discord-facing surface of the engine: slash commands for
// league standings, player breakdowns and schedule control.
type PointsBot struct {
	Session        *discordgo.Session
	Config         *BotConfig
	Commands       map[string]*Command
	StartTime      time.Time
	mu             sync.RWMutex
	rateLimiter    *RateLimiter
	circuitBreaker *CircuitBreaker
	logger         *EnhancedLogger

	engine  *Engine
	states  *StateManager
	results *ResultStore
}

// NewPointsBot creates a new bot instance wired to the engine and state.
func NewPointsBot(config *BotConfig, engine *Engine, states *StateManager, results *ResultStore) (*PointsBot, error) {
	if config.Token == "" {
		return nil, fmt.Errorf("bot token is empty")
	}

	session, err := discordgo.New("Bot " + config.Token)
	if err != nil {
		return nil, fmt.Errorf("error creating Discord session: %v", err)
	}

	bot := &PointsBot{
		Session:        session,
		Config:         config,
		Commands:       make(map[string]*Command),
		StartTime:      time.Now(),
		rateLimiter:    NewRateLimiter(30, time.Minute),
		circuitBreaker: NewCircuitBreaker("discord_api", 5, 60*time.Second),
		logger:         NewEnhancedLogger("POINTS_BOT"),
		engine:         engine,
		states:         states,
		results:        results,
	}

	bot.registerCommands()
	session.AddHandler(bot.handleInteraction)

	bot.logger.LogInfo("NewPointsBot", "Discord bot initialized successfully", map[string]interface{}{
		"guild_id":   config.GuildID,
		"channel_id": config.ChannelID,
	})

	return bot, nil
}

// registerCommands registers all available slash commands
func (bot *PointsBot) registerCommands() {
	// Points command - league standings for the latest processed match
	bot.registerCommand(&Command{
		Name:        "points",
		Description: "Get fantasy points for the latest processed match",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionInteger,
				Name:        "match",
				Description: "Match number (defaults to the latest)",
				Required:    false,
			},
		},
		Handler:   bot.handlePointsCommand,
		AdminOnly: false,
	})

	// Player command - full breakdown for one player
	bot.registerCommand(&Command{
		Name:        "player",
		Description: "Get a player's point breakdown from the latest processed match",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "name",
				Description: "Player name as it appears on the scorecard",
				Required:    true,
			},
		},
		Handler:   bot.handlePlayerCommand,
		AdminOnly: false,
	})

	// Matches command - list the tracked schedule
	bot.registerCommand(&Command{
		Name:        "matches",
		Description: "List tracked matches and their status",
		Handler:     bot.handleMatchesCommand,
		AdminOnly:   false,
	})

	// Process command - force a match through the pipeline (admin only)
	bot.registerCommand(&Command{
		Name:        "process",
		Description: "Force immediate processing of a match (admin only)",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionInteger,
				Name:        "match",
				Description: "Match number to process",
				Required:    true,
			},
		},
		Handler:   bot.handleProcessCommand,
		AdminOnly: true,
	})

	// Bot command - control the poll loop (admin only)
	bot.registerCommand(&Command{
		Name:        "bot",
		Description: "Control the processing loop (admin only)",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "action",
				Description: "Action to perform",
				Required:    true,
				Choices: []*discordgo.ApplicationCommandOptionChoice{
					{Name: "start", Value: "start"},
					{Name: "stop", Value: "stop"},
					{Name: "status", Value: "status"},
				},
			},
		},
		Handler:   bot.handleBotCommand,
		AdminOnly: true,
	})

	// Help command - get help information
	bot.registerCommand(&Command{
		Name:        "help",
		Description: "Get help information about bot commands",
		Handler:     bot.handleHelpCommand,
		AdminOnly:   false,
	})
}

// registerCommand adds a command to the bot's command registry
func (bot *PointsBot) registerCommand(cmd *Command) {
	bot.mu.Lock()
	defer bot.mu.Unlock()
	bot.Commands[cmd.Name] = cmd
}

// handleInteraction handles incoming Discord interactions (slash commands)
func (bot *PointsBot) handleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	bot.handleSlashCommand(s, i)
}

// handleSlashCommand processes slash commands
func (bot *PointsBot) handleSlashCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	commandName := i.ApplicationCommandData().Name

	bot.mu.RLock()
	command, exists := bot.Commands[commandName]
	bot.mu.RUnlock()

	if !exists {
		bot.logger.LogWarning("handleSlashCommand", "Unknown command attempted", map[string]interface{}{
			"command": commandName,
			"user_id": getInteractionUserID(i),
		})
		bot.respondWithError(s, i, "Unknown command")
		return
	}

	if command.AdminOnly && !bot.isAdmin(i.Member) {
		bot.respondWithError(s, i, "You need administrator permissions for this command")
		return
	}

	bot.logger.LogInfo("handleSlashCommand", "Executing command", map[string]interface{}{
		"command":    commandName,
		"user_id":    getInteractionUserID(i),
		"admin_only": command.AdminOnly,
	})

	err := bot.executeWithRateLimit(func() error {
		command.Handler(s, i)
		return nil
	})
	if err != nil {
		bot.logger.LogError("handleSlashCommand", err, map[string]interface{}{
			"command": commandName,
			"user_id": getInteractionUserID(i),
		})
		bot.respondWithError(s, i, "The bot is busy right now, please try again shortly")
	}
}

// isAdmin checks if a user has admin permissions
func (bot *PointsBot) isAdmin(member *discordgo.Member) bool {
	if member == nil {
		return false
	}

	for _, roleID := range member.Roles {
		if roleID == bot.Config.AdminRoleID {
			return true
		}
	}

	permissions, err := bot.Session.UserChannelPermissions(member.User.ID, bot.Config.ChannelID)
	if err != nil {
		log.Printf("Error checking permissions: %v", err)
		return false
	}

	return permissions&discordgo.PermissionAdministrator != 0
}

// respondWithError sends an error response to the user
func (bot *PointsBot) respondWithError(s *discordgo.Session, i *discordgo.InteractionCreate, message string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: fmt.Sprintf("❌ %s", message),
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		log.Printf("Error responding to interaction: %v", err)
	}
}

// respondWithSuccess sends a success response to the user
func (bot *PointsBot) respondWithSuccess(s *discordgo.Session, i *discordgo.InteractionCreate, message string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: fmt.Sprintf("✅ %s", message),
		},
	})
	if err != nil {
		log.Printf("Error responding to interaction: %v", err)
	}
}

// respondWithEmbed sends an embed response to the user
func (bot *PointsBot) respondWithEmbed(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
		},
	})
	if err != nil {
		log.Printf("Error responding to interaction: %v", err)
	}
}

// executeWithRateLimit executes a Discord API operation with rate limiting
func (bot *PointsBot) executeWithRateLimit(operation func() error) error {
	bot.rateLimiter.Wait()
	return bot.circuitBreaker.Execute(operation)
}

// Connect establishes connection to Discord and deploys slash commands
func (bot *PointsBot) Connect() error {
	log.Println("Connecting Discord bot...")

	err := bot.Session.Open()
	if err != nil {
		return fmt.Errorf("error opening Discord connection: %v", err)
	}

	log.Printf("Discord bot connected successfully as %s", bot.Session.State.User.Username)
	bot.StartTime = time.Now()

	err = bot.deploySlashCommands()
	if err != nil {
		log.Printf("Error deploying slash commands: %v", err)
		return err
	}

	return nil
}

// deploySlashCommands registers all slash commands with Discord
func (bot *PointsBot) deploySlashCommands() error {
	log.Println("Deploying slash commands...")

	var commands []*discordgo.ApplicationCommand

	bot.mu.RLock()
	for _, cmd := range bot.Commands {
		commands = append(commands, &discordgo.ApplicationCommand{
			Name:        cmd.Name,
			Description: cmd.Description,
			Options:     cmd.Options,
		})
	}
	bot.mu.RUnlock()

	var err error
	if bot.Config.GuildID != "" {
		// Guild-scoped registration propagates instantly.
		_, err = bot.Session.ApplicationCommandBulkOverwrite(bot.Session.State.User.ID, bot.Config.GuildID, commands)
	} else {
		_, err = bot.Session.ApplicationCommandBulkOverwrite(bot.Session.State.User.ID, "", commands)
	}
	if err != nil {
		return fmt.Errorf("error deploying slash commands: %v", err)
	}

	log.Printf("Successfully deployed %d slash commands", len(commands))
	return nil
}

// Disconnect closes the Discord connection
func (bot *PointsBot) Disconnect() error {
	log.Println("Disconnecting Discord bot...")
	return bot.Session.Close()
}

func (bot *PointsBot) handlePointsCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	matchNumber := 0
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "match" {
			matchNumber = int(opt.IntValue())
		}
	}

	var (
		card  Scorecard
		match *MatchInfo
		ok    bool
	)
	if matchNumber > 0 {
		card, match, ok = bot.results.Get(matchNumber)
	} else {
		card, match, ok = bot.results.Latest()
	}
	if !ok {
		bot.respondWithError(s, i, "No processed match available yet")
		return
	}

	var standings strings.Builder
	for idx, tt := range sortedTeamTotals(card) {
		standings.WriteString(fmt.Sprintf("%d) **%s** - %g\n", idx+1, tt.Team, tt.Points))
	}

	var performers strings.Builder
	for _, p := range topPerformers(card, 5) {
		performers.WriteString(performerLine(p) + "\n")
	}

	embed := &discordgo.MessageEmbed{
		Title: fmt.Sprintf("FIPL Points - Match %d", match.MatchNumber),
		Color: 0x00ff00,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Standings", Value: standings.String(), Inline: false},
			{Name: "Top Performers", Value: performers.String(), Inline: false},
		},
		Footer:    &discordgo.MessageEmbedFooter{Text: "via FIPL Engine"},
		Timestamp: time.Now().Format(time.RFC3339),
	}
	bot.respondWithEmbed(s, i, embed)
}

func (bot *PointsBot) handlePlayerCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	name := ""
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "name" {
			name = strings.TrimSpace(opt.StringValue())
		}
	}
	if name == "" {
		bot.respondWithError(s, i, "Player name is required")
		return
	}

	card, match, ok := bot.results.Latest()
	if !ok {
		bot.respondWithError(s, i, "No processed match available yet")
		return
	}

	for team, tc := range card {
		for playerName, ps := range tc.PlayerStats {
			if !strings.EqualFold(playerName, name) {
				continue
			}
			var lines []string
			if !ps.DidNotBat {
				lines = append(lines, fmt.Sprintf("Batting: %d (%d) 4s: %d 6s: %d SR: %.2f → %.2f pts",
					ps.RunsScored, ps.BallsFaced, ps.Fours, ps.Sixes, ps.StrikeRate, ps.BattingPoints))
			}
			if ps.Overs > 0 {
				lines = append(lines, fmt.Sprintf("Bowling: %d/%d (%s ov) econ %.2f → %.2f pts",
					ps.Wickets, runsConceded(ps.Overs, ps.Economy), formatOvers(ps.Overs), ps.Economy, ps.BowlingPoints))
			}
			if ps.FieldingPoints != 0 {
				lines = append(lines, fmt.Sprintf("Fielding: %.2f pts", ps.FieldingPoints))
			}
			if ps.PlayerOfMatch {
				lines = append(lines, fmt.Sprintf("Player of the Match: %.2f pts", ps.POTMPoints))
			}
			lines = append(lines, fmt.Sprintf("**Total: %.2f pts**", ps.TotalPoints))

			embed := &discordgo.MessageEmbed{
				Title:       fmt.Sprintf("%s (%s)", playerName, team),
				Description: strings.Join(lines, "\n"),
				Color:       0x0000ff,
				Footer:      &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("Match %d", match.MatchNumber)},
				Timestamp:   time.Now().Format(time.RFC3339),
			}
			bot.respondWithEmbed(s, i, embed)
			return
		}
	}

	bot.respondWithError(s, i, fmt.Sprintf("Player '%s' not found in the latest match", name))
}

func (bot *PointsBot) handleMatchesCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	state, err := bot.states.Load()
	if err != nil {
		bot.respondWithError(s, i, "Could not load the match schedule")
		return
	}
	if len(state.Matches) == 0 {
		bot.respondWithError(s, i, "No matches scheduled")
		return
	}

	var b strings.Builder
	for _, match := range state.Matches {
		teams := make([]string, 0, len(match.Teams))
		for team := range match.Teams {
			teams = append(teams, team)
		}
		b.WriteString(fmt.Sprintf("**Match %d** (GW %d): %s - %s\n",
			match.MatchNumber, match.Gameweek, strings.Join(teams, " v "), match.Status))
	}

	embed := &discordgo.MessageEmbed{
		Title:       "Tracked Matches",
		Description: b.String(),
		Color:       0x0000ff,
		Timestamp:   time.Now().Format(time.RFC3339),
	}
	bot.respondWithEmbed(s, i, embed)
}

func (bot *PointsBot) handleProcessCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	matchNumber := 0
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "match" {
			matchNumber = int(opt.IntValue())
		}
	}
	if matchNumber <= 0 {
		bot.respondWithError(s, i, "Match number is required")
		return
	}

	go func() {
		if err := processMatchNumber(matchNumber); err != nil {
			bot.logger.LogError("handleProcessCommand", err, map[string]interface{}{
				"match_number": matchNumber,
			})
		}
	}()
	bot.respondWithSuccess(s, i, fmt.Sprintf("Processing match %d", matchNumber))
}

func (bot *PointsBot) handleBotCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	action := ""
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "action" {
			action = opt.StringValue()
		}
	}

	switch action {
	case "start":
		SetMonitoringRunning(true)
		bot.respondWithSuccess(s, i, "Processing loop started")
	case "stop":
		SetMonitoringRunning(false)
		bot.respondWithSuccess(s, i, "Processing loop stopped")
	case "status":
		status := "stopped"
		if IsMonitoringRunning() {
			status = "running"
		}
		uptime := time.Since(bot.StartTime).Round(time.Second)
		bot.respondWithSuccess(s, i, fmt.Sprintf("Processing loop is %s (bot up %s)", status, uptime))
	default:
		bot.respondWithError(s, i, "Unknown action")
	}
}

func (bot *PointsBot) handleHelpCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	bot.mu.RLock()
	var b strings.Builder
	for name, cmd := range bot.Commands {
		suffix := ""
		if cmd.AdminOnly {
			suffix = " (admin)"
		}
		b.WriteString(fmt.Sprintf("**/%s**%s - %s\n", name, suffix, cmd.Description))
	}
	bot.mu.RUnlock()

	embed := &discordgo.MessageEmbed{
		Title:       "FIPL Engine Commands",
		Description: b.String(),
		Color:       0x0000ff,
		Timestamp:   time.Now().Format(time.RFC3339),
	}
	bot.respondWithEmbed(s, i, embed)
}

// getInteractionUserID extracts the user ID from an interaction, whichever of
// the member or user fields Discord populated.
func getInteractionUserID(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return "unknown"
}
