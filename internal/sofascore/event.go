// Package sofascore adapts the unofficial SofaScore JSON API: mirror
// fetching, defensive event decoding, tier classification, and
// tournament grouping.
package sofascore

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Provider is the data-provider tag recorded on watch entries and
// notification markers.
const Provider = "sofascore"

// Tier is the coarse tournament classification.
type Tier string

// Supported tiers.
const (
	TierATP         Tier = "ATP"
	TierChallengers Tier = "Challengers"
	TierOther       Tier = "Other"
)

// Tiers lists the tiers in menu display order.
var Tiers = []Tier{TierATP, TierChallengers, TierOther}

// competitor is one side of an event. Upstream sometimes uses
// shortName instead of name.
type competitor struct {
	Name      string `json:"name"`
	ShortName string `json:"shortName"`
}

func (c *competitor) displayName() string {
	if c == nil {
		return ""
	}
	if c.Name != "" {
		return c.Name
	}
	return c.ShortName
}

type category struct {
	Name string `json:"name"`
}

type tournamentRef struct {
	ID       json.Number `json:"id"`
	Name     string      `json:"name"`
	Slug     string      `json:"slug"`
	Category *category   `json:"category"`

	UniqueTournament *tournamentRef `json:"uniqueTournament"`
}

type status struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

// Event is a single scheduled or live match. The upstream shape is
// inconsistent across records, so every field is optional and read
// through accessors that probe candidate keys in fixed order.
type Event struct {
	ID    json.Number `json:"id"`
	Inner *Event      `json:"event"`

	Tournament       *tournamentRef `json:"tournament"`
	UniqueTournament *tournamentRef `json:"uniqueTournament"`

	HomeTeam       *competitor  `json:"homeTeam"`
	AwayTeam       *competitor  `json:"awayTeam"`
	HomeCompetitor *competitor  `json:"homeCompetitor"`
	AwayCompetitor *competitor  `json:"awayCompetitor"`
	HomePlayer     *competitor  `json:"homePlayer"`
	AwayPlayer     *competitor  `json:"awayPlayer"`
	Participants   []competitor `json:"participants"`
	Competitors    []competitor `json:"competitors"`

	Status *status `json:"status"`

	HomeScore *score `json:"homeScore"`
	AwayScore *score `json:"awayScore"`

	Time           *eventTime `json:"time"`
	StartTimestamp int64      `json:"startTimestamp"`
}

type score struct {
	Period1 *int `json:"period1"`
	Period2 *int `json:"period2"`
	Period3 *int `json:"period3"`
	Period4 *int `json:"period4"`
	Period5 *int `json:"period5"`
}

func (s *score) periods() []*int {
	if s == nil {
		return nil
	}
	return []*int{s.Period1, s.Period2, s.Period3, s.Period4, s.Period5}
}

type eventTime struct {
	Played int64 `json:"played"` // seconds
}

// EventID returns the event identifier, probing the top-level id and
// the nested event object. Empty when neither is present.
func (e *Event) EventID() string {
	if e == nil {
		return ""
	}
	if e.ID.String() != "" {
		return e.ID.String()
	}
	if e.Inner != nil {
		return e.Inner.ID.String()
	}
	return ""
}

// HomeName returns the home participant's display name, trying the
// candidate key names in fixed order.
func (e *Event) HomeName() string {
	for _, c := range []*competitor{e.HomeTeam, e.HomeCompetitor, e.HomePlayer} {
		if name := c.displayName(); name != "" {
			return name
		}
	}
	if len(e.Participants) > 0 {
		return e.Participants[0].displayName()
	}
	if len(e.Competitors) > 0 {
		return e.Competitors[0].displayName()
	}
	return ""
}

// AwayName returns the away participant's display name.
func (e *Event) AwayName() string {
	for _, c := range []*competitor{e.AwayTeam, e.AwayCompetitor, e.AwayPlayer} {
		if name := c.displayName(); name != "" {
			return name
		}
	}
	if len(e.Participants) > 1 {
		return e.Participants[1].displayName()
	}
	if len(e.Competitors) > 1 {
		return e.Competitors[1].displayName()
	}
	return ""
}

// Players returns the distinct participant display names in encounter
// order.
func (e *Event) Players() []string {
	var out []string
	seen := make(map[string]bool)
	add := func(name string) {
		if name != "" && !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	add(e.HomeName())
	add(e.AwayName())
	for _, c := range e.Participants {
		add(c.displayName())
	}
	for _, c := range e.Competitors {
		add(c.displayName())
	}
	return out
}

// Finished reports whether the event's status type is "finished".
func (e *Event) Finished() bool {
	return e.Status != nil && strings.EqualFold(e.Status.Type, "finished")
}

// ScoreSets renders the per-set score pairs, stopping at the first
// set missing on either side.
func (e *Event) ScoreSets() []string {
	home := e.HomeScore.periods()
	away := e.AwayScore.periods()
	var sets []string
	for i := range home {
		if home[i] == nil || away[i] == nil {
			break
		}
		sets = append(sets, itoa(*home[i])+":"+itoa(*away[i]))
	}
	return sets
}

// Duration renders the played time as "H:MM", or "" when unknown.
func (e *Event) Duration() string {
	if e.Time == nil || e.Time.Played <= 0 {
		return ""
	}
	mins := e.Time.Played / 60
	return itoa(int(mins/60)) + ":" + pad2(int(mins%60))
}

// nameBlob concatenates the tournament, category, and unique
// tournament name fields for substring classification.
func (e *Event) nameBlob() string {
	var parts []string
	collect := func(t *tournamentRef) {
		if t == nil {
			return
		}
		parts = append(parts, t.Name, t.Slug)
		if t.Category != nil {
			parts = append(parts, t.Category.Name)
		}
		if t.UniqueTournament != nil {
			parts = append(parts, t.UniqueTournament.Name, t.UniqueTournament.Slug)
		}
	}
	collect(e.Tournament)
	collect(e.UniqueTournament)
	return strings.ToLower(strings.Join(parts, " "))
}

func (e *Event) uniqueTournament() *tournamentRef {
	if e.UniqueTournament != nil {
		return e.UniqueTournament
	}
	if e.Tournament != nil && e.Tournament.UniqueTournament != nil {
		return e.Tournament.UniqueTournament
	}
	return nil
}

// TournamentKey identifies the tournament an event belongs to:
// uniqueTournament id, then tournament id, then the event's own id.
func (e *Event) TournamentKey() string {
	if ut := e.uniqueTournament(); ut != nil && ut.ID.String() != "" {
		return ut.ID.String()
	}
	if e.Tournament != nil && e.Tournament.ID.String() != "" {
		return e.Tournament.ID.String()
	}
	return e.EventID()
}

// TournamentName returns a human-readable tournament title, falling
// back to the participant pair when no tournament name is present.
func (e *Event) TournamentName() string {
	if ut := e.uniqueTournament(); ut != nil && ut.Name != "" {
		return ut.Name
	}
	if e.Tournament != nil && e.Tournament.Name != "" {
		return e.Tournament.Name
	}
	return e.HomeName() + " — " + e.AwayName()
}

// bannedTokens mark the lower circuits excluded everywhere.
var bannedTokens = []string{"itf", "15k", "25k", "50k", "junior", "utr"}

// Allowed reports whether the event belongs to a tier the bot shows.
func (e *Event) Allowed() bool {
	blob := e.nameBlob()
	for _, tok := range bannedTokens {
		if strings.Contains(blob, tok) {
			return false
		}
	}
	return true
}

// ClassifyTier classifies an event by tournament name text.
// "challenger" wins over a co-occurring "atp" substring.
func ClassifyTier(e *Event) Tier {
	blob := e.nameBlob()
	if strings.Contains(blob, "challenger") {
		return TierChallengers
	}
	if strings.Contains(blob, "atp") || strings.Contains(blob, "grand slam") {
		return TierATP
	}
	return TierOther
}

// Tournament is a group of events under one tournament title.
type Tournament struct {
	ID     string
	Name   string
	Events []*Event
}

// GroupTournaments buckets events by tournament, dropping banned-tier
// events and omitting tournaments left empty. The result is sorted by
// name for stable menus.
func GroupTournaments(events []*Event) []Tournament {
	byKey := make(map[string]*Tournament)
	var order []string
	for _, ev := range events {
		if !ev.Allowed() {
			continue
		}
		key := ev.TournamentKey()
		t, ok := byKey[key]
		if !ok {
			t = &Tournament{ID: key, Name: ev.TournamentName()}
			byKey[key] = t
			order = append(order, key)
		}
		t.Events = append(t.Events, ev)
	}

	out := make([]Tournament, 0, len(order))
	for _, key := range order {
		out = append(out, *byKey[key])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// FilterTier returns the tournaments whose events classify as the
// given tier. A tournament follows its first event's classification.
func FilterTier(tournaments []Tournament, tier Tier) []Tournament {
	var out []Tournament
	for _, t := range tournaments {
		if len(t.Events) > 0 && ClassifyTier(t.Events[0]) == tier {
			out = append(out, t)
		}
	}
	return out
}

func itoa(n int) string {
	return strconv.Itoa(n)
}

func pad2(n int) string {
	return fmt.Sprintf("%02d", n)
}
