package optimizer

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stitts-dev/lineup-optimizer/internal/models"
)

func player(id, team string, pos models.Position, salary int, projection float64) models.Player {
	return models.Player{
		ID:         id,
		Name:       "Player " + id,
		Team:       team,
		Position:   pos,
		Salary:     salary,
		Projection: projection,
	}
}

func newPool(t *testing.T, players ...models.Player) *models.Pool {
	t.Helper()
	pool, err := models.NewPool(players)
	require.NoError(t, err)
	return pool
}

func classicConstraints(t *testing.T, pool *models.Pool, salaryCap int, locks, excludes []string) *Constraints {
	t.Helper()
	c, err := BuildConstraints(pool, ConstraintRequest{
		Template:  models.ClassicTemplate(),
		SalaryCap: salaryCap,
		Locks:     locks,
		Excludes:  excludes,
	})
	require.NoError(t, err)
	return c
}

// minimalPool has exactly one player per classic slot
func minimalPool(t *testing.T) *models.Pool {
	return newPool(t,
		player("qb1", "KC", models.PositionQB, 7000, 22.4),
		player("rb1", "KC", models.PositionRB, 6500, 18.1),
		player("rb2", "SF", models.PositionRB, 6000, 16.3),
		player("wr1", "BUF", models.PositionWR, 7200, 19.9),
		player("wr2", "MIA", models.PositionWR, 5800, 14.2),
		player("wr3", "DAL", models.PositionWR, 4900, 12.7),
		player("te1", "KC", models.PositionTE, 5500, 13.0),
		player("rb3", "DAL", models.PositionRB, 4100, 10.5),
		player("dst1", "SF", models.PositionDST, 3000, 8.0),
	)
}

// twoLineupPool holds enough players for exactly two disjoint rosters at an
// equal salary of 5000
func twoLineupPool(t *testing.T) *models.Pool {
	players := []models.Player{
		player("qb1", "KC", models.PositionQB, 5000, 25),
		player("qb2", "BUF", models.PositionQB, 5000, 24),
		player("te1", "KC", models.PositionTE, 5000, 8),
		player("te2", "BUF", models.PositionTE, 5000, 7),
		player("dst1", "SF", models.PositionDST, 5000, 6),
		player("dst2", "DAL", models.PositionDST, 5000, 5),
	}
	for i := 0; i < 6; i++ {
		players = append(players, player(fmt.Sprintf("rb%d", i+1), "NYJ", models.PositionRB, 5000, float64(20-i)))
		players = append(players, player(fmt.Sprintf("wr%d", i+1), "MIA", models.PositionWR, 5000, float64(14-i)))
	}
	return newPool(t, players...)
}

// randomPool draws a small classic-shaped pool
func randomPool(t *testing.T, rng *rand.Rand, n int) *models.Pool {
	base := []models.Position{
		models.PositionQB, models.PositionRB, models.PositionRB, models.PositionWR,
		models.PositionWR, models.PositionWR, models.PositionTE, models.PositionDST,
	}
	players := make([]models.Player, n)
	for i := 0; i < n; i++ {
		pos := models.Positions[rng.Intn(len(models.Positions))]
		if i < len(base) {
			pos = base[i]
		}
		players[i] = player(
			fmt.Sprintf("p%02d", i),
			"T"+fmt.Sprint(rng.Intn(4)),
			pos,
			(30+rng.Intn(60))*100,
			math.Round(rng.Float64()*250)/10,
		)
	}
	return newPool(t, players...)
}

// bruteForceBest enumerates every subset and returns the best projection of a
// roster-complete one, or false when none exists
func bruteForceBest(pool *models.Pool, c *Constraints) (float64, bool) {
	players := pool.Players()
	template := c.Template
	best := math.Inf(-1)
	found := false

	for mask := 0; mask < 1<<len(players); mask++ {
		chosen := make([]models.Player, 0, template.Size())
		for i, p := range players {
			if mask&(1<<i) != 0 {
				chosen = append(chosen, p)
			}
		}
		if len(chosen) != template.Size() || totalSalary(chosen) > c.SalaryCap {
			continue
		}
		ok := true
		ids := idSet(chosen)
		for _, id := range c.Locked {
			ok = ok && ids[id]
		}
		for _, id := range c.Excluded {
			ok = ok && !ids[id]
		}
		if !ok || c.IsExcludedCombination(sortedIDs(chosen)) {
			continue
		}
		if _, err := AssignPlayersToSlots(chosen, template); err != nil {
			continue
		}
		value := 0.0
		for _, p := range chosen {
			value += p.Projection
		}
		if value > best {
			best = value
			found = true
		}
	}
	return best, found
}

// requireLineupInvariants checks everything a returned lineup must satisfy
func requireLineupInvariants(t *testing.T, lineup models.Lineup, c *Constraints) {
	t.Helper()
	require.NoError(t, ValidateLineup(&lineup, c))

	counts := make(map[string]int)
	for _, s := range lineup.Slots {
		counts[s.Slot]++
	}
	require.Equal(t, map[string]int{"QB": 1, "RB": 2, "WR": 3, "TE": 1, "FLEX": 1, "DST": 1}, counts)

	for _, s := range lineup.Slots {
		if s.Slot == "FLEX" {
			require.Contains(t, []models.Position{models.PositionRB, models.PositionWR, models.PositionTE}, s.Player.Position)
		}
	}
	require.LessOrEqual(t, lineup.TotalSalary, c.SalaryCap)
}

// expiringContext reports a deadline once Err has been consulted more than
// checks times, so a search sees its deadline pass partway through
type expiringContext struct {
	context.Context
	checks int
	calls  int
}

func expireAfter(checks int) *expiringContext {
	return &expiringContext{Context: context.Background(), checks: checks}
}

func (c *expiringContext) Err() error {
	c.calls++
	if c.calls > c.checks {
		return context.DeadlineExceeded
	}
	return nil
}
