// Package model defines the domain types used across the application.
package model

import "time"

// DayLayout is the storage format for chat-local calendar dates.
const DayLayout = "2006-01-02"

// DayFor converts an instant into the calendar date of the given
// location. All per-day rows (watch entries, cache, dedup markers)
// key off the chat-local date, never the server date.
func DayFor(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(DayLayout)
}

// ChatPreference holds per-chat settings. Created on first
// interaction, never deleted.
type ChatPreference struct {
	ChatID    int64
	Timezone  string
	CreatedAt time.Time
}

// WatchEntry is a (chat, day, label) record: notify the chat when
// that player's match finishes on that day.
type WatchEntry struct {
	ChatID    int64
	Day       string
	Label     string
	Source    string
	CreatedAt time.Time
}

// Alias maps a canonical English player name to a localized display
// name. Global, not per-chat.
type Alias struct {
	NameEN        string
	NameLocalized string
}

// PendingAlias records that a chat was asked how to localize a player
// name and the bot awaits the reply. At most one per chat; consumed
// with a destructive read.
type PendingAlias struct {
	ChatID int64
	NameEN string
}

// MatchResult is the normalized record rendered into a result card.
// Statistic fields are nil when the upstream source does not provide
// them.
type MatchResult struct {
	EventID   string
	HomeName  string
	AwayName  string
	ScoreSets []string
	Duration  string
	HomeStats PlayerStats
	AwayStats PlayerStats
}

// PlayerStats holds the per-player match statistics. Percentages are
// whole numbers in 0..100.
type PlayerStats struct {
	Aces                    *int
	DoubleFaults            *int
	FirstServeInPct         *int
	FirstServePointsWonPct  *int
	SecondServePointsWonPct *int
	Winners                 *int
	UnforcedErrors          *int
	BreakPointsSaved        *int
	BreakPointsFaced        *int
	MatchPointsSaved        *int
}
