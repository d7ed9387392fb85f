package optimizer

import (
	"fmt"
	"strings"

	"github.com/stitts-dev/lineup-optimizer/internal/models"
)

// stackSkillPlayers is the number of pass catchers/backs stacked with the QB
const stackSkillPlayers = 2

// TeamStack is a same-team QB plus skill players that gets locked together
type TeamStack struct {
	Team      string   `json:"team"`
	PlayerIDs []string `json:"player_ids"`
}

// BuildTeamStack picks the team's top QB and its two best RB/WR/TE by projection
func BuildTeamStack(pool *models.Pool, team string, excluded map[string]bool) (*TeamStack, error) {
	team = strings.ToUpper(strings.TrimSpace(team))

	players := make([]models.Player, 0)
	for _, p := range pool.Players() {
		if p.Team == team && !excluded[p.ID] {
			players = append(players, p)
		}
	}
	models.SortByProjection(players)

	var qb *models.Player
	skill := make([]models.Player, 0, stackSkillPlayers)
	for i := range players {
		p := players[i]
		switch p.Position {
		case models.PositionQB:
			if qb == nil {
				qb = &p
			}
		case models.PositionRB, models.PositionWR, models.PositionTE:
			if len(skill) < stackSkillPlayers {
				skill = append(skill, p)
			}
		}
	}

	if qb == nil {
		return nil, fmt.Errorf("%w: team %s has no available QB", ErrNoStackAvailable, team)
	}
	if len(skill) < stackSkillPlayers {
		return nil, fmt.Errorf("%w: team %s has %d available RB/WR/TE, need %d", ErrNoStackAvailable, team, len(skill), stackSkillPlayers)
	}

	stack := &TeamStack{Team: team, PlayerIDs: []string{qb.ID}}
	for _, p := range skill {
		stack.PlayerIDs = append(stack.PlayerIDs, p.ID)
	}
	return stack, nil
}
