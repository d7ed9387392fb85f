package models

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// LineupSlot is one filled roster slot
type LineupSlot struct {
	Slot   string `json:"slot"`
	Player Player `json:"player"`
}

// Lineup represents an ordered, filled roster
type Lineup struct {
	ID              string       `json:"id"`
	Slots           []LineupSlot `json:"slots"`
	TotalSalary     int          `json:"total_salary"`
	TotalProjection float64      `json:"total_projection"`
}

// NewLineup builds a lineup from ordered slots and computes its totals
func NewLineup(slots []LineupSlot) Lineup {
	lineup := Lineup{
		ID:    fmt.Sprintf("lineup_%s", uuid.New().String()[:8]),
		Slots: slots,
	}
	for _, s := range slots {
		lineup.TotalSalary += s.Player.Salary
		lineup.TotalProjection += s.Player.Projection
	}
	return lineup
}

// Players returns the lineup's players in slot order
func (l Lineup) Players() []Player {
	players := make([]Player, len(l.Slots))
	for i, s := range l.Slots {
		players[i] = s.Player
	}
	return players
}

// PlayerIDs returns the sorted player id set
func (l Lineup) PlayerIDs() []string {
	ids := make([]string, len(l.Slots))
	for i, s := range l.Slots {
		ids[i] = s.Player.ID
	}
	sort.Strings(ids)
	return ids
}

// Key returns a canonical string for the player set, independent of slot order
func (l Lineup) Key() string {
	return strings.Join(l.PlayerIDs(), "|")
}
