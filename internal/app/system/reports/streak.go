package reports

import (
	"sort"
	"time"

	"github.com/dalemusser/codetrackr/internal/domain/models"
)

// Streak counts consecutive active days ending at the most recent active day.
//
// Days are UTC calendar dates. The walk starts at the latest day that has
// activity, not at today, so a run that ended last week still counts.
func Streak(records []models.Activity) int {
	if len(records) == 0 {
		return 0
	}

	seen := make(map[string]struct{}, len(records))
	days := make([]string, 0, len(records))
	for _, a := range records {
		k := dayKey(a.Timestamp)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		days = append(days, k)
	}
	sort.Strings(days)

	streak := 1
	for i := len(days) - 1; i > 0; i-- {
		cur, _ := time.Parse("2006-01-02", days[i])
		prev, _ := time.Parse("2006-01-02", days[i-1])
		if cur.Sub(prev) != 24*time.Hour {
			break
		}
		streak++
	}
	return streak
}
