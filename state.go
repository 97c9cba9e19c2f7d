package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// Match lifecycle states. A match is only ever promoted forward.
const (
	MatchPending    = "pending"
	MatchInProgress = "in_progress"
	MatchCompleted  = "completed"
)

// MatchTeamInfo ties a team's innings in this fixture to its slot within the
// gameweek, which downstream sheet columns are keyed on.
type MatchTeamInfo struct {
	GameweekMatch int `json:"gameweek_match"`
}

// MatchInfo is one tracked fixture.
type MatchInfo struct {
	MatchNumber int                       `json:"match_number"`
	StartTime   time.Time                 `json:"start_time"`
	Status      string                    `json:"status"`
	URL         string                    `json:"url"`
	Gameweek    int                       `json:"gameweek"`
	Teams       map[string]*MatchTeamInfo `json:"teams"`
	LastUpdate  string                    `json:"last_update,omitempty"`
}

// MatchState is the persisted schedule document.
type MatchState struct {
	Matches []*MatchInfo `json:"matches"`
}

// StateManager persists the match schedule to a local JSON file. All access
// goes through the manager so concurrent poll ticks can't clobber each other.
type StateManager struct {
	path   string
	mu     sync.Mutex
	logger *EnhancedLogger
}

func NewStateManager(path string, logger *EnhancedLogger) *StateManager {
	if logger == nil {
		logger = NewEnhancedLogger("STATE")
	}
	return &StateManager{path: path, logger: logger}
}

// Load reads the state file. A missing file is an empty schedule, not an
// error, so a fresh deployment starts clean.
func (sm *StateManager) Load() (*MatchState, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	raw, err := os.ReadFile(sm.path)
	if err != nil {
		if os.IsNotExist(err) {
			sm.logger.LogInfo("Load", "no state file, starting with empty schedule", map[string]interface{}{
				"path": sm.path,
			})
			return &MatchState{}, nil
		}
		return nil, fmt.Errorf("loading state from %s: %w", sm.path, err)
	}

	var state MatchState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("parsing state file %s: %w", sm.path, err)
	}
	return &state, nil
}

// Save verifies and writes the state atomically (temp file plus rename), so a
// crash mid-write never leaves a truncated schedule behind.
func (sm *StateManager) Save(state *MatchState) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if err := VerifyIntegrity(state); err != nil {
		return fmt.Errorf("refusing to save invalid state: %w", err)
	}

	raw, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding state: %w", err)
	}

	tmp := sm.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("writing state file: %w", err)
	}
	if err := os.Rename(tmp, sm.path); err != nil {
		return fmt.Errorf("replacing state file: %w", err)
	}

	sm.logger.LogInfo("Save", "state saved", map[string]interface{}{
		"path":    sm.path,
		"matches": len(state.Matches),
	})
	return nil
}

// VerifyIntegrity checks the schedule's structure before it is persisted.
func VerifyIntegrity(state *MatchState) error {
	if state == nil {
		return fmt.Errorf("state is nil")
	}
	for i, match := range state.Matches {
		if match == nil {
			return fmt.Errorf("match %d is nil", i)
		}
		if match.URL == "" {
			return fmt.Errorf("match %d has no URL", match.MatchNumber)
		}
		if match.StartTime.IsZero() {
			return fmt.Errorf("match %d has no start time", match.MatchNumber)
		}
		switch match.Status {
		case MatchPending, MatchInProgress, MatchCompleted:
		default:
			return fmt.Errorf("match %d has unknown status %q", match.MatchNumber, match.Status)
		}
		if len(match.Teams) == 0 {
			return fmt.Errorf("match %d has no teams", match.MatchNumber)
		}
		for team, info := range match.Teams {
			if info == nil || info.GameweekMatch <= 0 {
				return fmt.Errorf("match %d team %q has no gameweek slot", match.MatchNumber, team)
			}
		}
	}
	return nil
}

// ShouldUpdate reports whether a match is due for processing at the given
// time, and the status it should carry afterwards. Pending matches become due
// once their start time passes; in-progress matches stay due every tick.
func ShouldUpdate(match *MatchInfo, now time.Time) (bool, string) {
	if match.Status == MatchPending && !now.Before(match.StartTime) {
		return true, MatchInProgress
	}
	if match.Status == MatchInProgress {
		return true, MatchInProgress
	}
	return false, match.Status
}

// MarkStatus promotes a match and stamps the update time.
func MarkStatus(match *MatchInfo, status string, now time.Time) {
	match.Status = status
	match.LastUpdate = now.UTC().Format(time.RFC3339)
}
