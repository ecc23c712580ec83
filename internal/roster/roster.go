// Package roster holds the player pool and per-player game logs as landed by
// the upstream sync job. The engine reads this data; it never writes game
// logs.
package roster

// Player positions. Skaters are everything except G.
const (
	Center     = "C"
	LeftWing   = "LW"
	RightWing  = "RW"
	Defenseman = "D"
	Goalie     = "G"
)

// ValidPosition reports whether p is a recognized position code.
func ValidPosition(p string) bool {
	switch p {
	case Center, LeftWing, RightWing, Defenseman, Goalie:
		return true
	}
	return false
}

// Player is one roster entry. CurrentStreamerScore is denormalized from the
// player's L5 window (Season fallback) for cheap result ordering.
type Player struct {
	ID                   string  `json:"id"`
	ExternalID           string  `json:"external_id,omitempty"`
	Name                 string  `json:"name"`
	Team                 string  `json:"team"`
	Position             string  `json:"position"`
	Number               int     `json:"number,omitempty"`
	OwnershipPercentage  float64 `json:"ownership_percentage"`
	CurrentStreamerScore float64 `json:"current_streamer_score"`
	IsActive             bool    `json:"is_active"`
}

// IsGoalie reports whether the player uses the goalie stat set.
func (p Player) IsGoalie() bool { return p.Position == Goalie }
