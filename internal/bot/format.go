package bot

import (
	"fmt"
	"strings"

	"tennis_bot/internal/model"
	"tennis_bot/internal/sofascore"
)

const na = "n/a"

// RenderResultCard renders a finished-match record as the
// notification text. The layout is fixed: every statistic slot is
// present, missing values show as "n/a".
func RenderResultCard(r *model.MatchResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s — %s\n", r.HomeName, r.AwayName)

	if len(r.ScoreSets) > 0 {
		fmt.Fprintf(&b, "Score: %s\n", strings.Join(r.ScoreSets, ", "))
	} else {
		fmt.Fprintf(&b, "Score: %s\n", na)
	}
	duration := r.Duration
	if duration == "" {
		duration = na
	}
	fmt.Fprintf(&b, "Duration: %s\n\n", duration)

	b.WriteString(statsBlock(r.HomeName, r.HomeStats))
	b.WriteString("\n\n")
	b.WriteString(statsBlock(r.AwayName, r.AwayStats))
	return b.String()
}

func statsBlock(name string, s model.PlayerStats) string {
	var b strings.Builder
	b.WriteString(name)
	b.WriteString("\n")
	fmt.Fprintf(&b, "Aces: %s\n", fmtInt(s.Aces))
	fmt.Fprintf(&b, "Double faults: %s\n", fmtInt(s.DoubleFaults))
	fmt.Fprintf(&b, "1st serve in: %s\n", fmtPct(s.FirstServeInPct))
	fmt.Fprintf(&b, "Points won on 1st serve: %s\n", fmtPct(s.FirstServePointsWonPct))
	fmt.Fprintf(&b, "Points won on 2nd serve: %s\n", fmtPct(s.SecondServePointsWonPct))
	fmt.Fprintf(&b, "Winners: %s\n", fmtInt(s.Winners))
	fmt.Fprintf(&b, "Unforced errors: %s\n", fmtInt(s.UnforcedErrors))
	if s.BreakPointsSaved != nil && s.BreakPointsFaced != nil {
		fmt.Fprintf(&b, "Break points saved: %d/%d\n", *s.BreakPointsSaved, *s.BreakPointsFaced)
	} else {
		fmt.Fprintf(&b, "Break points saved: %s\n", na)
	}
	fmt.Fprintf(&b, "Match points saved: %s", fmtInt(s.MatchPointsSaved))
	return b.String()
}

func fmtInt(v *int) string {
	if v == nil {
		return na
	}
	return fmt.Sprintf("%d", *v)
}

func fmtPct(v *int) string {
	if v == nil {
		return na
	}
	return fmt.Sprintf("%d%%", *v)
}

// FormatWatchList renders the /list text body.
func FormatWatchList(day string, entries []model.WatchEntry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Today (%s):\n", day)
	for _, e := range entries {
		fmt.Fprintf(&b, "• %s\n", e.Label)
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatMatchList renders a tournament's matches.
func FormatMatchList(t *sofascore.Tournament) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Matches: %s\n", t.Name)
	for _, ev := range t.Events {
		home, away := ev.HomeName(), ev.AwayName()
		if home == "" {
			home = "—"
		}
		if away == "" {
			away = "—"
		}
		fmt.Fprintf(&b, "• %s — %s\n", home, away)
	}
	return strings.TrimRight(b.String(), "\n")
}
