package models

import (
	"errors"
	"fmt"
	"sort"
)

// ErrInvalidTemplate is returned for templates the optimizer cannot model
var ErrInvalidTemplate = errors.New("invalid roster template")

// Slot represents a position slot in a lineup
type Slot struct {
	Name             string     `json:"name"`              // e.g. "QB", "FLEX"
	AllowedPositions []Position `json:"allowed_positions"` // e.g. [QB] or [RB WR TE]
	Priority         int        `json:"priority"`          // Fill order (1 = first)
}

// IsFlex reports whether more than one position can fill the slot
func (s Slot) IsFlex() bool {
	return len(s.AllowedPositions) > 1
}

// Accepts reports whether a player at pos can fill the slot
func (s Slot) Accepts(pos Position) bool {
	for _, allowed := range s.AllowedPositions {
		if allowed == pos {
			return true
		}
	}
	return false
}

// RosterTemplate is the ordered set of slots a lineup must fill
type RosterTemplate struct {
	Name  string `json:"name"`
	Slots []Slot `json:"slots"`
}

// ClassicTemplate returns the DraftKings classic NFL template:
// QB, RB, RB, WR, WR, WR, TE, FLEX, DST
func ClassicTemplate() RosterTemplate {
	flex := []Position{PositionRB, PositionWR, PositionTE}
	return RosterTemplate{
		Name: "nfl-classic",
		Slots: []Slot{
			{Name: "QB", AllowedPositions: []Position{PositionQB}, Priority: 1},
			{Name: "RB", AllowedPositions: []Position{PositionRB}, Priority: 2},
			{Name: "RB", AllowedPositions: []Position{PositionRB}, Priority: 3},
			{Name: "WR", AllowedPositions: []Position{PositionWR}, Priority: 4},
			{Name: "WR", AllowedPositions: []Position{PositionWR}, Priority: 5},
			{Name: "WR", AllowedPositions: []Position{PositionWR}, Priority: 6},
			{Name: "TE", AllowedPositions: []Position{PositionTE}, Priority: 7},
			{Name: "FLEX", AllowedPositions: flex, Priority: 8},
			{Name: "DST", AllowedPositions: []Position{PositionDST}, Priority: 9},
		},
	}
}

// Validate checks that the template is non-empty, every slot is fillable and
// all flex slots share one eligibility set.
func (t RosterTemplate) Validate() error {
	if len(t.Slots) == 0 {
		return fmt.Errorf("%w: no slots", ErrInvalidTemplate)
	}
	var flex []Position
	for i, slot := range t.Slots {
		if len(slot.AllowedPositions) == 0 {
			return fmt.Errorf("%w: slot %d (%s) accepts no position", ErrInvalidTemplate, i, slot.Name)
		}
		for _, pos := range slot.AllowedPositions {
			if !pos.Valid() {
				return fmt.Errorf("%w: slot %d (%s) accepts unknown position %q", ErrInvalidTemplate, i, slot.Name, pos)
			}
		}
		if !slot.IsFlex() {
			continue
		}
		if flex == nil {
			flex = slot.AllowedPositions
			continue
		}
		if !samePositions(flex, slot.AllowedPositions) {
			return fmt.Errorf("%w: flex slots must share one eligibility set", ErrInvalidTemplate)
		}
	}
	return nil
}

// Size returns the number of slots
func (t RosterTemplate) Size() int {
	return len(t.Slots)
}

// Required returns the number of single-position slots for pos
func (t RosterTemplate) Required(pos Position) int {
	count := 0
	for _, slot := range t.Slots {
		if !slot.IsFlex() && slot.AllowedPositions[0] == pos {
			count++
		}
	}
	return count
}

// FlexCount returns the number of multi-position slots
func (t RosterTemplate) FlexCount() int {
	count := 0
	for _, slot := range t.Slots {
		if slot.IsFlex() {
			count++
		}
	}
	return count
}

// FlexEligible returns the eligibility set shared by flex slots, or nil
func (t RosterTemplate) FlexEligible() []Position {
	for _, slot := range t.Slots {
		if slot.IsFlex() {
			return slot.AllowedPositions
		}
	}
	return nil
}

// IsFlexEligible reports whether pos can fill this template's flex slots
func (t RosterTemplate) IsFlexEligible(pos Position) bool {
	for _, p := range t.FlexEligible() {
		if p == pos {
			return true
		}
	}
	return false
}

// FixedPositions returns positions with single-position slots in template order
func (t RosterTemplate) FixedPositions() []Position {
	seen := make(map[Position]bool)
	out := make([]Position, 0)
	for _, slot := range t.Slots {
		if slot.IsFlex() || seen[slot.AllowedPositions[0]] {
			continue
		}
		seen[slot.AllowedPositions[0]] = true
		out = append(out, slot.AllowedPositions[0])
	}
	return out
}

// FillOrder returns slot indexes sorted by priority, concrete slots first.
// Ties keep template order.
func (t RosterTemplate) FillOrder() []int {
	order := make([]int, len(t.Slots))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		sa, sb := t.Slots[order[a]], t.Slots[order[b]]
		if sa.IsFlex() != sb.IsFlex() {
			return !sa.IsFlex()
		}
		return sa.Priority < sb.Priority
	})
	return order
}

func samePositions(a, b []Position) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[Position]bool, len(a))
	for _, p := range a {
		set[p] = true
	}
	for _, p := range b {
		if !set[p] {
			return false
		}
	}
	return true
}
