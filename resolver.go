package main

import (
	"fmt"
	"regexp"
	"strings"
)

// Role is a player's roster role. The values double as rule-table keys.
type Role string

const (
	RoleBatter     Role = "Batter"
	RoleBowler     Role = "Bowler"
	RoleAllRounder Role = "All-Rounder"
	RoleKeeper     Role = "Wicket-Keeper"
	RoleUnknown    Role = "Unknown"
)

// KnownRoles lists every role a roster entry may carry.
var KnownRoles = []Role{RoleBatter, RoleBowler, RoleAllRounder, RoleKeeper}

// RosterEntry describes one player in the reference roster.
type RosterEntry struct {
	Name string `yaml:"name"`
	Role Role   `yaml:"role"`
	Team string `yaml:"team"`
}

// Roster is the immutable player index for a run: canonical names, roles and
// team membership, plus alias folding for franchise names that render
// differently on live pages than in the roster file.
type Roster struct {
	entries []RosterEntry
	byName  map[string]RosterEntry
	byTeam  map[string][]RosterEntry
	aliases map[string]string
}

// NewRoster builds the index. Alias keys and team names are folded
// case-insensitively; every canonical team is an alias of itself.
func NewRoster(entries []RosterEntry, aliases map[string]string) *Roster {
	r := &Roster{
		entries: entries,
		byName:  make(map[string]RosterEntry, len(entries)),
		byTeam:  make(map[string][]RosterEntry),
		aliases: make(map[string]string, len(aliases)),
	}
	for alias, canonical := range aliases {
		r.aliases[normalizeTeamKey(alias)] = canonical
	}
	for _, entry := range entries {
		r.aliases[normalizeTeamKey(entry.Team)] = entry.Team
	}
	for _, entry := range entries {
		r.byName[entry.Name] = entry
		team := r.CanonicalTeam(entry.Team)
		r.byTeam[normalizeTeamKey(team)] = append(r.byTeam[normalizeTeamKey(team)], entry)
	}
	return r
}

func normalizeTeamKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// CanonicalTeam maps any known spelling of a team to its roster form. Unknown
// labels pass through trimmed, so page-only teams still group consistently.
func (r *Roster) CanonicalTeam(name string) string {
	if canonical, ok := r.aliases[normalizeTeamKey(name)]; ok {
		return canonical
	}
	return strings.TrimSpace(name)
}

// RoleOf returns the role for a canonical player name, RoleUnknown otherwise.
func (r *Roster) RoleOf(playerName string) Role {
	if entry, ok := r.byName[playerName]; ok {
		return entry.Role
	}
	return RoleUnknown
}

// TeamPlayers returns the roster entries for a team (any known spelling).
func (r *Roster) TeamPlayers(team string) []RosterEntry {
	return r.byTeam[normalizeTeamKey(r.CanonicalTeam(team))]
}

// fielderRef is a name fragment pulled out of dismissal text, with the
// signals the resolver uses: substitute notation and the keeper marker.
type fielderRef struct {
	Name       string
	IsSub      bool
	KeeperMark bool
}

// ResolutionError reports why a fielder fragment could not be matched to a
// roster entry. The candidate list is part of the audit contract.
type ResolutionError struct {
	Fragment   string
	Reason     string
	Candidates []string
}

func (e *ResolutionError) Error() string {
	if len(e.Candidates) > 0 {
		return fmt.Sprintf("%s for %q: %s", e.Reason, e.Fragment, strings.Join(e.Candidates, ", "))
	}
	return fmt.Sprintf("%s for %q", e.Reason, e.Fragment)
}

const (
	reasonMultipleLastName  = "multiple unresolved last name matches"
	reasonMultipleFirstName = "multiple unresolved first name matches"
	reasonNoMatch           = "no match found"
)

// ResolveFielder maps a dismissal-text fragment to a canonical roster name on
// the fielding team. observed is the set of players already seen in this
// match's tables, used both to recognize existing substitute entries and as a
// disambiguation signal. The second return is true when the fragment is a new
// substitute fielder that should be inserted under its own name.
//
// The resolver never guesses: an ambiguous fragment comes back as a
// ResolutionError listing the surviving candidates.
func (r *Roster) ResolveFielder(f fielderRef, team string, observed map[string]bool) (string, bool, error) {
	name := strings.ToLower(strings.TrimSpace(f.Name))
	tokens := strings.Fields(name)
	if len(tokens) == 0 {
		return "", false, &ResolutionError{Fragment: f.Name, Reason: reasonNoMatch}
	}
	lastTok := tokens[len(tokens)-1]
	firstTok := tokens[0]

	// A substitute already credited this match keeps its entry.
	if f.IsSub && observed[f.Name] {
		return f.Name, false, nil
	}

	pool := r.TeamPlayers(team)

	var lastNameMatches, firstNameMatches []string
	for _, entry := range pool {
		candidate := strings.ToLower(entry.Name)
		if candidate == name || strings.ReplaceAll(candidate, "-", " ") == name {
			return entry.Name, false, nil
		}
		parts := strings.Fields(candidate)
		if len(parts) == 0 {
			continue
		}
		if parts[len(parts)-1] == lastTok {
			lastNameMatches = append(lastNameMatches, entry.Name)
		} else if len(tokens) > 1 && parts[0] == firstTok {
			// A bare single-word fragment cannot be disambiguated by
			// first name, so only multi-token fragments qualify here.
			firstNameMatches = append(firstNameMatches, entry.Name)
		}
	}

	if len(lastNameMatches) == 1 {
		return lastNameMatches[0], false, nil
	}
	if len(lastNameMatches) > 1 {
		if match := r.disambiguate(lastNameMatches, firstTok, f.KeeperMark, observed); match != "" {
			return match, false, nil
		}
		return "", false, &ResolutionError{Fragment: f.Name, Reason: reasonMultipleLastName, Candidates: lastNameMatches}
	}

	if len(firstNameMatches) == 1 {
		return firstNameMatches[0], false, nil
	}
	if len(firstNameMatches) > 1 {
		return "", false, &ResolutionError{Fragment: f.Name, Reason: reasonMultipleFirstName, Candidates: firstNameMatches}
	}

	if f.IsSub {
		return f.Name, true, nil
	}
	return "", false, &ResolutionError{Fragment: f.Name, Reason: reasonNoMatch}
}

// disambiguate narrows multiple last-name candidates, stopping at the first
// signal that leaves exactly one: initial of the first name, then presence in
// the current match's observed set, then the keeper marker against the
// roster role.
func (r *Roster) disambiguate(candidates []string, firstTok string, keeperMark bool, observed map[string]bool) string {
	if firstTok != "" {
		var byInitial []string
		for _, c := range candidates {
			parts := strings.Fields(strings.ToLower(c))
			if len(parts) > 0 && parts[0][0] == firstTok[0] {
				byInitial = append(byInitial, c)
			}
		}
		if len(byInitial) == 1 {
			return byInitial[0]
		}
	}

	var seen []string
	for _, c := range candidates {
		if observed[c] {
			seen = append(seen, c)
		}
	}
	if len(seen) == 1 {
		return seen[0]
	}

	var byRole []string
	for _, c := range candidates {
		if (r.RoleOf(c) == RoleKeeper) == keeperMark {
			byRole = append(byRole, c)
		}
	}
	if len(byRole) == 1 {
		return byRole[0]
	}

	return ""
}

var (
	subParenRE       = regexp.MustCompile(`sub\s*\(([^)]+)\)`)
	subBracketRE     = regexp.MustCompile(`sub\s*\[(.*?)\]`)
	caughtRE         = regexp.MustCompile(`^c\s+(?:sub\s*\([^)]+\)|†?[^b]+)b`)
	runOutFieldersRE = regexp.MustCompile(`\((.*?)\)`)
)

func containsCaughtAndBowled(text string) bool { return strings.Contains(text, "c & b") }
func hasPrefixStumped(text string) bool        { return strings.HasPrefix(text, "st ") }
func hasPrefixCaught(text string) bool         { return strings.HasPrefix(text, "c ") }
func containsRunOut(text string) bool          { return strings.Contains(text, "run out") }

// refFrom builds a fielderRef from a raw fragment, recording the keeper
// marker before it gets stripped.
func refFrom(raw string, isSub bool) fielderRef {
	keeper := strings.Contains(raw, "†")
	name := cleanPlayerName(strings.ReplaceAll(raw, "†", ""))
	return fielderRef{Name: name, IsSub: isSub, KeeperMark: keeper}
}

// parseDismissalFielders pulls the creditable fielder fragments out of a
// dismissal description. Scorecards render these inconsistently
// (surname-only, "sub (Name)", keeper symbol), so this only extracts; the
// resolver decides who they actually are.
func parseDismissalFielders(text string) []fielderRef {
	if text == "" {
		return nil
	}

	if containsCaughtAndBowled(text) {
		parts := strings.SplitN(text, "c & b", 2)
		ref := refFrom(strings.TrimSpace(parts[1]), false)
		if ref.Name == "" {
			return nil
		}
		return []fielderRef{ref}
	}

	if hasPrefixStumped(text) {
		if strings.Contains(text, "sub (") {
			if m := subParenRE.FindStringSubmatch(text); m != nil {
				return []fielderRef{refFrom(m[1], true)}
			}
			return nil
		}
		head := strings.SplitN(text, " b ", 2)[0]
		if len(head) <= 3 {
			return nil
		}
		ref := refFrom(strings.TrimSpace(head[3:]), false)
		if ref.Name == "" {
			return nil
		}
		return []fielderRef{ref}
	}

	if caughtRE.MatchString(text) {
		if strings.Contains(text, "sub (") {
			if m := subParenRE.FindStringSubmatch(text); m != nil {
				return []fielderRef{refFrom(m[1], true)}
			}
			return nil
		}
		head := strings.SplitN(text, " b ", 2)[0]
		if len(head) <= 2 {
			return nil
		}
		ref := refFrom(strings.TrimSpace(head[2:]), false)
		if ref.Name == "" {
			return nil
		}
		return []fielderRef{ref}
	}

	if containsRunOut(text) {
		m := runOutFieldersRE.FindStringSubmatch(text)
		if m == nil {
			return nil
		}
		var refs []fielderRef
		for _, raw := range strings.Split(m[1], "/") {
			isSub := subBracketRE.MatchString(raw)
			raw = subBracketRE.ReplaceAllString(raw, "$1")
			ref := refFrom(raw, isSub)
			if ref.Name != "" {
				refs = append(refs, ref)
			}
		}
		return refs
	}

	return nil
}
