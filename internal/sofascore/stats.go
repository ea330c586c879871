package sofascore

import (
	"context"
	"fmt"
	"math"
	"strings"

	"tennis_bot/internal/model"
)

// statisticsResponse is the envelope of /event/{id}/statistics.
// Values arrive as floats; fraction stats carry value/total pairs.
type statisticsResponse struct {
	Statistics []struct {
		Period string `json:"period"`
		Groups []struct {
			GroupName       string `json:"groupName"`
			StatisticsItems []struct {
				Name      string   `json:"name"`
				HomeValue *float64 `json:"homeValue"`
				AwayValue *float64 `json:"awayValue"`
				HomeTotal *float64 `json:"homeTotal"`
				AwayTotal *float64 `json:"awayTotal"`
			} `json:"statisticsItems"`
		} `json:"groups"`
	} `json:"statistics"`
}

// FetchStatistics builds the notification record for a finished
// event: participant names, score line, and duration come from the
// event itself, per-player statistics from the statistics endpoint.
// Missing statistic items stay nil and render as placeholders.
func (c *Client) FetchStatistics(ctx context.Context, ev *Event) (*model.MatchResult, error) {
	id := ev.EventID()
	if id == "" {
		return nil, fmt.Errorf("event has no id")
	}

	var stats statisticsResponse
	if err := c.getJSONMulti(ctx, "/event/"+id+"/statistics", &stats); err != nil {
		return nil, fmt.Errorf("fetch statistics for event %s: %w", id, err)
	}

	result := &model.MatchResult{
		EventID:   id,
		HomeName:  ev.HomeName(),
		AwayName:  ev.AwayName(),
		ScoreSets: ev.ScoreSets(),
		Duration:  ev.Duration(),
	}

	for _, period := range stats.Statistics {
		if !strings.EqualFold(period.Period, "ALL") {
			continue
		}
		for _, group := range period.Groups {
			for _, item := range group.StatisticsItems {
				assignStat(&result.HomeStats, item.Name, item.HomeValue, item.HomeTotal)
				assignStat(&result.AwayStats, item.Name, item.AwayValue, item.AwayTotal)
			}
		}
	}

	return result, nil
}

// assignStat routes one statistics item into the typed record.
// Fraction items (first serve, break points) derive a percentage or
// keep the value/total pair; counters take the value as-is.
func assignStat(s *model.PlayerStats, name string, value, total *float64) {
	if value == nil {
		return
	}
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "aces":
		s.Aces = intOf(value)
	case "double faults":
		s.DoubleFaults = intOf(value)
	case "first serve":
		s.FirstServeInPct = pctOf(value, total)
	case "first serve points":
		s.FirstServePointsWonPct = pctOf(value, total)
	case "second serve points":
		s.SecondServePointsWonPct = pctOf(value, total)
	case "winners":
		s.Winners = intOf(value)
	case "unforced errors":
		s.UnforcedErrors = intOf(value)
	case "break points saved":
		s.BreakPointsSaved = intOf(value)
		if total != nil {
			s.BreakPointsFaced = intOf(total)
		}
	case "match points saved":
		s.MatchPointsSaved = intOf(value)
	}
}

func intOf(v *float64) *int {
	n := int(math.Round(*v))
	return &n
}

// pctOf derives a whole-number percentage from a value/total pair,
// or treats the value as an already-computed percentage when no
// total is present.
func pctOf(value, total *float64) *int {
	if total != nil && *total > 0 {
		n := int(math.Round(*value / *total * 100))
		return &n
	}
	return intOf(value)
}
