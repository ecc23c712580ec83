// Package alert tracks which players currently match each scan and derives a
// trailing-window alert feed from match transitions. State rows persist past
// the feed horizon so re-recording the same result set is idempotent.
package alert

import (
	"sort"
	"time"
)

// State is the persisted per-(scan, player) match record.
type State struct {
	ScanID         string     `json:"scan_id"`
	PlayerID       string     `json:"player_id"`
	IsCurrentMatch bool       `json:"is_current_match"`
	LastMatchedAt  *time.Time `json:"last_matched_at,omitempty"`
	LastNotifiedAt *time.Time `json:"last_notified_at,omitempty"`
}

// Transition partitions one evaluation's result set against the prior state:
// players newly matching, still matching, and no longer matching.
type Transition struct {
	New     []string
	Staying []string
	Dropped []string
}

// MatchCount is the size of the current result set.
func (t Transition) MatchCount() int {
	return len(t.New) + len(t.Staying)
}

// Diff computes the transition from the prior per-player match flags to the
// new matched set. Output slices are sorted for deterministic processing.
func Diff(prior map[string]bool, matched []string) Transition {
	matchedSet := make(map[string]bool, len(matched))
	for _, id := range matched {
		matchedSet[id] = true
	}

	var t Transition
	for id := range matchedSet {
		if prior[id] {
			t.Staying = append(t.Staying, id)
		} else {
			t.New = append(t.New, id)
		}
	}
	for id, current := range prior {
		if current && !matchedSet[id] {
			t.Dropped = append(t.Dropped, id)
		}
	}

	sort.Strings(t.New)
	sort.Strings(t.Staying)
	sort.Strings(t.Dropped)
	return t
}

// Entry is one row of the alert feed: a player whose match was first detected
// within the feed horizon on an alert-enabled scan.
type Entry struct {
	ScanID     string    `json:"scan_id"`
	ScanName   string    `json:"scan_name"`
	PlayerID   string    `json:"player_id"`
	PlayerName string    `json:"player_name"`
	Team       string    `json:"team"`
	Position   string    `json:"position"`
	DetectedAt time.Time `json:"detected_at"`
}

// FeedCutoff is the oldest detection time still inside the trailing feed
// horizon at the given instant.
func FeedCutoff(horizon time.Duration, now time.Time) time.Time {
	return now.Add(-horizon)
}

// InFeed reports whether the entry is still visible in a feed queried at now
// with the given horizon. An entry detected exactly at the cutoff is visible.
func (e Entry) InFeed(horizon time.Duration, now time.Time) bool {
	return !e.DetectedAt.Before(FeedCutoff(horizon, now))
}
