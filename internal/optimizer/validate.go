package optimizer

import (
	"fmt"
	"math"

	"github.com/stitts-dev/lineup-optimizer/internal/models"
)

// ValidateLineup re-checks a finished lineup against its constraints
func ValidateLineup(lineup *models.Lineup, c *Constraints) error {
	template := c.Template
	if len(lineup.Slots) != template.Size() {
		return fmt.Errorf("%w: lineup has %d slots, template has %d", ErrAssignment, len(lineup.Slots), template.Size())
	}

	seen := make(map[string]bool, len(lineup.Slots))
	salary := 0
	projection := 0.0
	for i, ls := range lineup.Slots {
		slot := template.Slots[i]
		if ls.Slot != slot.Name {
			return fmt.Errorf("%w: slot %d labelled %s, want %s", ErrAssignment, i, ls.Slot, slot.Name)
		}
		if !slot.Accepts(ls.Player.Position) {
			return fmt.Errorf("%w: %s player %s in %s slot", ErrAssignment, ls.Player.Position, ls.Player.ID, slot.Name)
		}
		if seen[ls.Player.ID] {
			return fmt.Errorf("%w: player %s appears twice", ErrAssignment, ls.Player.ID)
		}
		if c.IsExcluded(ls.Player.ID) {
			return fmt.Errorf("%w: excluded player %s selected", ErrAssignment, ls.Player.ID)
		}
		seen[ls.Player.ID] = true
		salary += ls.Player.Salary
		projection += ls.Player.Projection
	}

	for _, id := range c.Locked {
		if !seen[id] {
			return fmt.Errorf("%w: locked player %s missing", ErrAssignment, id)
		}
	}
	if salary > c.SalaryCap {
		return fmt.Errorf("%w: salary %d over cap %d", ErrAssignment, salary, c.SalaryCap)
	}
	if salary != lineup.TotalSalary || math.Abs(projection-lineup.TotalProjection) > 1e-6 {
		return fmt.Errorf("%w: lineup totals out of date", ErrAssignment)
	}
	if c.IsExcludedCombination(lineup.PlayerIDs()) {
		return fmt.Errorf("%w: lineup repeats an excluded combination", ErrAssignment)
	}
	return nil
}
