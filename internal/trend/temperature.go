package trend

import "github.com/forecheck/engine/internal/stats"

// Temperature tags a player's L5 window with a quick hot/cold read based on
// absolute production levels, independent of the baseline-relative trend.
// Windows other than L5 are always tagged stable.
func Temperature(position string, w stats.Window, r stats.Rolling) Direction {
	if w != stats.L5 {
		return Stable
	}

	if position == "G" {
		if r.GoalieGamesStarted >= 3 && r.SavePercentage > 0.920 {
			return Hot
		}
		if r.SavePercentage < 0.900 || r.GoalieWins < 1 {
			return Cold
		}
		return Stable
	}

	if position == "D" {
		if r.PowerPlayPointsPerGame > 0.5 || r.PointsPerGame > 1.0 || r.ShotsPerGame > 3.0 {
			return Hot
		}
		if r.TotalPlusMinus <= 0 && r.PowerPlayPointsPerGame < 0.4 &&
			r.PointsPerGame < 0.4 && r.ShotsPerGame < 2.0 {
			return Cold
		}
		return Stable
	}

	if r.PointsPerGame > 2.0 || r.GoalsPerGame > 1.0 || r.ShotsPerGame > 4.0 {
		return Hot
	}
	if r.PointsPerGame < 0.5 && r.GoalsPerGame <= 0.0 && r.ShotsPerGame < 2.0 {
		return Cold
	}
	return Stable
}
