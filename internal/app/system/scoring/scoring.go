// Package scoring ranks users by coding time and rates them on a five point
// scale relative to the strongest user on the board.
package scoring

import (
	"math"
	"sort"
	"strconv"
)

// MaxScore is the top of every rating.
const MaxScore = 5.0

// commitTarget is the number of tracked events that earns a full commit score.
const commitTarget = 20.0

// Totals is the lifetime activity of one user, as aggregated by the store.
type Totals struct {
	Seconds       int64
	LinesAdded    int64
	LinesRemoved  int64
	ProjectCount  int
	ActivityCount int64
}

// Hours converts Seconds to hours without rounding.
func (t Totals) Hours() float64 {
	return float64(t.Seconds) / 3600
}

// Player identifies a user on the board.
type Player struct {
	UserID            string
	Name              string
	Email             string
	ProfilePictureURL string
}

// Entry is one leaderboard row.
type Entry struct {
	UserID            string  `json:"userId"`
	Name              string  `json:"name"`
	Email             string  `json:"email"`
	ProfilePictureURL string  `json:"profilePictureUrl,omitempty"`
	TotalHours        float64 `json:"totalHours"`
	TotalLinesAdded   int64   `json:"totalLinesAdded"`
	TotalLinesRemoved int64   `json:"totalLinesRemoved"`
	CodeChanges       int64   `json:"codeChanges"`
	NetCodeChanges    int64   `json:"netCodeChanges"`
	ProjectCount      int     `json:"projectCount"`
	Commits           int64   `json:"commits"`
	Rank              int     `json:"rank"`
	Speed             string  `json:"speed"`
	Quality           string  `json:"quality"`
	Engagement        string  `json:"engagement"`
	Impact            string  `json:"impact"`
	Overall           string  `json:"overall"`
	CommitScore       string  `json:"commitScore"`

	hours float64
}

// Board merges players with their totals, sorts by hours descending and
// fills ranks and ratings. Players without totals appear with zeros.
// Ties keep the order of players.
func Board(players []Player, totals map[string]Totals) []Entry {
	entries := make([]Entry, 0, len(players))
	for _, p := range players {
		t := totals[p.UserID]
		entries = append(entries, Entry{
			UserID:            p.UserID,
			Name:              p.Name,
			Email:             p.Email,
			ProfilePictureURL: p.ProfilePictureURL,
			TotalHours:        round2(t.Hours()),
			TotalLinesAdded:   t.LinesAdded,
			TotalLinesRemoved: t.LinesRemoved,
			CodeChanges:       t.LinesAdded + t.LinesRemoved,
			NetCodeChanges:    t.LinesAdded - t.LinesRemoved,
			ProjectCount:      t.ProjectCount,
			Commits:           t.ActivityCount,
			hours:             t.Hours(),
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].hours > entries[j].hours
	})

	var maxHours float64
	var maxChanges, maxCommits int64
	for _, e := range entries {
		maxHours = math.Max(maxHours, e.hours)
		if e.CodeChanges > maxChanges {
			maxChanges = e.CodeChanges
		}
		if e.Commits > maxCommits {
			maxCommits = e.Commits
		}
	}

	for i := range entries {
		e := &entries[i]
		e.Rank = i + 1
		rate(e, maxHours, float64(maxChanges), float64(maxCommits))
	}
	return entries
}

func rate(e *Entry, maxHours, maxChanges, maxCommits float64) {
	if e.hours == 0 {
		zero := format(0)
		e.Speed, e.Quality, e.Engagement, e.Impact, e.Overall, e.CommitScore = zero, zero, zero, zero, zero, zero
		return
	}

	speed := oneDecimal(ratio(float64(e.Commits), maxCommits))
	quality := oneDecimal(ratio(float64(e.CodeChanges), maxChanges))
	engagement := oneDecimal(ratio(e.hours, maxHours))
	impact := oneDecimal(ratio(float64(e.NetCodeChanges), maxChanges))

	e.Speed = format(speed)
	e.Quality = format(quality)
	e.Engagement = format(engagement)
	e.Impact = format(impact)
	e.Overall = format((speed + quality + engagement + impact) / 4)
	e.CommitScore = format(math.Min(MaxScore, float64(e.Commits)/commitTarget*MaxScore))
}

// ratio scales v against max onto 0..MaxScore. A zero max yields 0.
// Negative values (net removals) are passed through.
func ratio(v, max float64) float64 {
	if max <= 0 {
		return 0
	}
	return math.Min(MaxScore, v/max*MaxScore)
}

func oneDecimal(v float64) float64 {
	return math.Round(v*10) / 10
}

func format(v float64) string {
	return strconv.FormatFloat(oneDecimal(v), 'f', 1, 64)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
