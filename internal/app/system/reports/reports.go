// Package reports turns raw activity records into the daily, weekly and
// time-slot views shown on the dashboard.
//
// Every function here is pure: callers fetch the records for the window
// returned by the matching *Window function and pass the current time in.
package reports

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/dalemusser/codetrackr/internal/domain/models"
)

// Bucket is one point of the activity chart. Label is an hour ("13:00")
// for the daily view and a day ("Mon, Jan 2") for the weekly view.
type Bucket struct {
	Label string  `json:"day"`
	Hours float64 `json:"hours"`
}

// LanguageHours is the time spent in one language.
type LanguageHours struct {
	Language string  `json:"_id"`
	Hours    float64 `json:"hours"`
}

// Report is the daily or weekly summary for one user.
type Report struct {
	TotalHours        float64         `json:"totalHours"`
	ProjectCount      int             `json:"projectCount"`
	TotalLinesAdded   int64           `json:"totalLinesAdded"`
	StreakDays        int             `json:"streakDays"`
	DailyActivity     []Bucket        `json:"dailyActivity"`
	LanguageBreakdown []LanguageHours `json:"languageBreakdown"`
}

// Empty returns the report for a user with no activity in the window.
func Empty() Report {
	return Report{
		DailyActivity:     []Bucket{},
		LanguageBreakdown: []LanguageHours{},
	}
}

const (
	hoursPerDay = 24
	daysPerWeek = 7
	secPerHour  = 3600.0
)

// UserMidnight returns the instant the caller's day starts.
//
// tzOffset follows the browser convention (Date.getTimezoneOffset): minutes
// to add to local time to reach UTC, so UTC+5:30 is -330. The day is the
// current UTC date, which means callers far from UTC can see "today" flip
// at UTC midnight rather than local midnight.
func UserMidnight(now time.Time, tzOffset int) time.Time {
	u := now.UTC()
	midnight := time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
	return midnight.Add(time.Duration(tzOffset) * time.Minute)
}

// DailyWindow returns the earliest timestamp Daily needs.
func DailyWindow(now time.Time) time.Time {
	return now.AddDate(0, 0, -daysPerWeek)
}

// Daily builds the hour-by-hour view of the caller's current day.
//
// records must cover DailyWindow(now); the streak is computed over all of
// them while the other figures use only records inside today.
func Daily(records []models.Activity, now time.Time, tzOffset int) Report {
	if len(records) == 0 {
		return Empty()
	}

	start := UserMidnight(now, tzOffset)
	end := start.Add(hoursPerDay*time.Hour - time.Millisecond)

	today := make([]models.Activity, 0, len(records))
	for _, a := range records {
		if !a.Timestamp.Before(start) && !a.Timestamp.After(end) {
			today = append(today, a)
		}
	}

	rep := summarize(today)
	rep.StreakDays = Streak(records)

	var hourly [hoursPerDay]float64
	shift := time.Duration(tzOffset) * time.Minute
	for _, a := range today {
		h := a.Timestamp.Add(-shift).UTC().Hour()
		hourly[h] += float64(a.Duration) / secPerHour
	}
	rep.DailyActivity = make([]Bucket, hoursPerDay)
	for h := 0; h < hoursPerDay; h++ {
		rep.DailyActivity[h] = Bucket{
			Label: fmt.Sprintf("%d:00", h),
			Hours: round2(hourly[h]),
		}
	}
	return rep
}

// WeeklyWindow returns local midnight six days before now, the start of the
// oldest of the seven days Weekly reports. now's location sets the boundaries.
func WeeklyWindow(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d-(daysPerWeek-1), 0, 0, 0, 0, now.Location())
}

// Weekly builds the day-by-day view of the last seven days.
// records must cover WeeklyWindow(now); every figure uses all of them.
func Weekly(records []models.Activity, now time.Time) Report {
	if len(records) == 0 {
		return Empty()
	}

	rep := summarize(records)
	rep.StreakDays = Streak(records)

	perDay := make(map[string]float64)
	for _, a := range records {
		perDay[dayKey(a.Timestamp)] += float64(a.Duration) / secPerHour
	}

	rep.DailyActivity = make([]Bucket, 0, daysPerWeek)
	for i := daysPerWeek - 1; i >= 0; i-- {
		day := now.AddDate(0, 0, -i)
		rep.DailyActivity = append(rep.DailyActivity, Bucket{
			Label: day.Format("Mon, Jan 2"),
			Hours: round2(perDay[dayKey(day)]),
		})
	}
	return rep
}

// summarize fills the scalar totals and the language breakdown.
func summarize(records []models.Activity) Report {
	var (
		seconds  int64
		lines    int64
		projects = make(map[string]struct{})
	)
	langs := newLanguageTotals()
	for _, a := range records {
		seconds += a.Duration
		lines += a.LinesAdded
		if a.ProjectName != "" {
			projects[a.ProjectName] = struct{}{}
		}
		langs.add(a.LanguageOrUnknown(), float64(a.Duration)/secPerHour)
	}

	breakdown := make([]LanguageHours, 0, len(langs.order))
	for _, lang := range langs.order {
		breakdown = append(breakdown, LanguageHours{Language: lang, Hours: round2(langs.hours[lang])})
	}
	sort.SliceStable(breakdown, func(i, j int) bool {
		return breakdown[i].Hours > breakdown[j].Hours
	})

	return Report{
		TotalHours:        round2(float64(seconds) / secPerHour),
		ProjectCount:      len(projects),
		TotalLinesAdded:   lines,
		DailyActivity:     []Bucket{},
		LanguageBreakdown: breakdown,
	}
}

// languageTotals accumulates hours per language in first-seen order so that
// ties keep a stable position after sorting.
type languageTotals struct {
	order []string
	hours map[string]float64
}

func newLanguageTotals() *languageTotals {
	return &languageTotals{hours: make(map[string]float64)}
}

func (l *languageTotals) add(lang string, hours float64) {
	if _, ok := l.hours[lang]; !ok {
		l.order = append(l.order, lang)
	}
	l.hours[lang] += hours
}

// dayKey is the UTC calendar date of t, e.g. "2024-01-31".
func dayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// round2 rounds to two decimal places.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// roundHalfUp rounds to the nearest integer with halves going up.
func roundHalfUp(v float64) float64 {
	return math.Floor(v + 0.5)
}
