// Package stats computes rolling-window aggregates from per-game player logs.
//
// Aggregation is a pure computation over an ordered game log; persistence of
// the resulting rows lives in store.go. Skaters and goalies use disjoint stat
// sets selected by position.
package stats

// Window identifies a trailing-N-games or season-to-date aggregation period.
type Window string

const (
	L5     Window = "L5"
	L10    Window = "L10"
	L20    Window = "L20"
	Season Window = "Season"
)

// Windows lists every window in recomputation order.
var Windows = []Window{L5, L10, L20, Season}

// windowSizes maps a window to its trailing game count. Season has no limit.
var windowSizes = map[Window]int{
	L5:  5,
	L10: 10,
	L20: 20,
}

// Size returns the trailing game count for the window, or 0 for Season.
func (w Window) Size() int {
	return windowSizes[w]
}

// Valid reports whether w is a recognized window label.
func (w Window) Valid() bool {
	switch w {
	case L5, L10, L20, Season:
		return true
	}
	return false
}
