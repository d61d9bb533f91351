package reports

import "github.com/dalemusser/codetrackr/internal/domain/models"

// GoalProgress converts tracked seconds into hours and the percentage of
// the goal's target reached, both rounded to 2 decimals.
func GoalProgress(g models.Goal, seconds int64) (hours, percent float64) {
	raw := float64(seconds) / 3600
	return round2(raw), round2(g.Progress(raw))
}

// GoalReached reports whether seconds cover the goal's target hours.
func GoalReached(g models.Goal, seconds int64) bool {
	return g.TargetHours > 0 && float64(seconds)/3600 >= g.TargetHours
}
