package optimizer

import (
	"fmt"

	"github.com/stitts-dev/lineup-optimizer/internal/models"
)

// AssignPlayersToSlots places a selected player set into the template's slots.
// Slots are visited in fill order (concrete positions before flex) and each
// takes the first unassigned player, in input order, it accepts. The lineup
// keeps template order.
func AssignPlayersToSlots(players []models.Player, template models.RosterTemplate) (*models.Lineup, error) {
	if len(players) != template.Size() {
		return nil, fmt.Errorf("%w: %d players for %d slots", ErrAssignment, len(players), template.Size())
	}

	assigned := make([]bool, len(players))
	filled := make([]models.LineupSlot, len(template.Slots))

	for _, slotIdx := range template.FillOrder() {
		slot := template.Slots[slotIdx]
		found := false
		for i, p := range players {
			if assigned[i] || !slot.Accepts(p.Position) {
				continue
			}
			assigned[i] = true
			filled[slotIdx] = models.LineupSlot{Slot: slot.Name, Player: p}
			found = true
			break
		}
		if !found {
			return nil, fmt.Errorf("%w: no eligible player for slot %d (%s)", ErrAssignment, slotIdx, slot.Name)
		}
	}

	for i, ok := range assigned {
		if !ok {
			return nil, fmt.Errorf("%w: player %s left unassigned", ErrAssignment, players[i].ID)
		}
	}

	lineup := models.NewLineup(filled)
	return &lineup, nil
}
