package optimizer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateLineups_DisjointRunsOutOfPlayers(t *testing.T) {
	pool := twoLineupPool(t)
	c := classicConstraints(t, pool, 50000, nil, nil)

	result, err := GenerateLineups(context.Background(), pool, c, Request{
		NumLineups: 5,
		Policy:     PolicyDisjoint,
		Strategy:   NewExactStrategy(0, false, testLogger()),
	})
	require.NoError(t, err)
	require.Len(t, result.Lineups, 2)
	assert.True(t, result.Partial)
	assert.Equal(t, "could only produce 2 of 5 lineups", result.Reason)
	assert.Equal(t, 5, result.Requested)
	assert.NotEmpty(t, result.OptimizationID)
	assert.Empty(t, result.SharedPlayers)

	first := idSet(result.Lineups[0].Players())
	for _, p := range result.Lineups[1].Players() {
		assert.False(t, first[p.ID], "player %s in both lineups", p.ID)
	}
	for _, l := range result.Lineups {
		requireLineupInvariants(t, l, c)
	}
	assert.GreaterOrEqual(t, result.Lineups[0].TotalProjection, result.Lineups[1].TotalProjection)
}

func TestGenerateLineups_DisjointAcrossStrategies(t *testing.T) {
	pool := twoLineupPool(t)
	c := classicConstraints(t, pool, 50000, nil, nil)

	for _, s := range allStrategies() {
		t.Run(s.Name(), func(t *testing.T) {
			result, err := GenerateLineups(context.Background(), pool, c, Request{NumLineups: 3, Strategy: s})
			require.NoError(t, err)
			assert.NotEmpty(t, result.Lineups)

			seen := make(map[string]bool)
			for _, l := range result.Lineups {
				requireLineupInvariants(t, l, c)
				for _, p := range l.Players() {
					assert.False(t, seen[p.ID], "player %s reused", p.ID)
					seen[p.ID] = true
				}
			}
		})
	}
}

func TestGenerateLineups_DisjointKeepsLocks(t *testing.T) {
	pool := twoLineupPool(t)
	c := classicConstraints(t, pool, 50000, []string{"te2"}, nil)

	result, err := GenerateLineups(context.Background(), pool, c, Request{
		NumLineups: 2,
		Strategy:   NewExactStrategy(0, false, testLogger()),
	})
	require.NoError(t, err)
	require.Len(t, result.Lineups, 2)
	assert.False(t, result.Partial)
	assert.Equal(t, []string{"te2"}, result.SharedPlayers)

	first := idSet(result.Lineups[0].Players())
	for _, l := range result.Lineups {
		requireLineupInvariants(t, l, c)
		assert.Contains(t, l.PlayerIDs(), "te2")
	}
	for _, p := range result.Lineups[1].Players() {
		if p.ID != "te2" {
			assert.False(t, first[p.ID])
		}
	}
}

func TestGenerateLineups_DistinctCombinations(t *testing.T) {
	pool := twoLineupPool(t)
	c := classicConstraints(t, pool, 50000, []string{"qb1"}, []string{"dst2"})

	result, err := GenerateLineups(context.Background(), pool, c, Request{
		NumLineups: 4,
		Policy:     PolicyDistinctCombination,
		Strategy:   NewExactStrategy(0, false, testLogger()),
	})
	require.NoError(t, err)
	require.Len(t, result.Lineups, 4)
	assert.False(t, result.Partial)
	assert.Equal(t, PolicyDistinctCombination, result.Policy)

	keys := make(map[string]bool)
	for i, l := range result.Lineups {
		requireLineupInvariants(t, l, c)
		assert.False(t, keys[l.Key()], "lineup %d repeats a combination", i)
		keys[l.Key()] = true
		assert.Contains(t, l.PlayerIDs(), "qb1")
		assert.NotContains(t, l.PlayerIDs(), "dst2")
		if i > 0 {
			assert.LessOrEqual(t, l.TotalProjection, result.Lineups[i-1].TotalProjection+1e-9)
		}
	}
	assert.Equal(t, 1.0, result.Summary.Exposure["qb1"])
}

func TestGenerateLineups_InfeasibleReturnsReason(t *testing.T) {
	pool := minimalPool(t)
	c := classicConstraints(t, pool, 40000, nil, nil)

	result, err := GenerateLineups(context.Background(), pool, c, Request{NumLineups: 1})
	assert.ErrorIs(t, err, ErrInfeasible)
	require.NotNil(t, result)
	assert.Empty(t, result.Lineups)
	assert.True(t, result.Partial)
	assert.Equal(t, "could only produce 0 of 1 lineups", result.Reason)
}

func TestGenerateLineups_CancelledContext(t *testing.T) {
	pool := twoLineupPool(t)
	c := classicConstraints(t, pool, 50000, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := GenerateLineups(ctx, pool, c, Request{NumLineups: 2})
	assert.ErrorIs(t, err, ErrDeadlineExceeded)
	require.NotNil(t, result)
	assert.Empty(t, result.Lineups)
}

func TestGenerateLineups_BudgetIncumbentIsPartial(t *testing.T) {
	pool := twoLineupPool(t)
	c := classicConstraints(t, pool, 50000, nil, nil)

	result, err := GenerateLineups(context.Background(), pool, c, Request{
		NumLineups: 1,
		Strategy:   NewExhaustiveStrategy(1, 1000, testLogger()),
	})
	require.NoError(t, err)
	require.Len(t, result.Lineups, 1)
	assert.True(t, result.Partial)
	assert.Contains(t, result.Reason, "budget")
}

func TestGenerateLineups_ExactDeadlineIsPartial(t *testing.T) {
	pool := twoLineupPool(t)
	c := classicConstraints(t, pool, 50000, nil, nil)

	// the loop's own check passes, the solver's first check does not
	result, err := GenerateLineups(expireAfter(1), pool, c, Request{
		NumLineups: 2,
		Strategy:   NewExactStrategy(0, false, testLogger()),
	})
	require.NoError(t, err)
	require.Len(t, result.Lineups, 1)
	assert.True(t, result.Partial)
	assert.Equal(t, "could only produce 1 of 2 lineups", result.Reason)
}

func TestGenerateLineups_RequestValidation(t *testing.T) {
	pool := minimalPool(t)
	c := classicConstraints(t, pool, 50000, nil, nil)

	for _, n := range []int{0, -1, DefaultMaxLineups + 1} {
		_, err := GenerateLineups(context.Background(), pool, c, Request{NumLineups: n})
		assert.ErrorIs(t, err, ErrInvalidConstraints, "n=%d", n)
	}

	_, err := GenerateLineups(context.Background(), pool, c, Request{NumLineups: 3, MaxLineups: 2})
	assert.ErrorIs(t, err, ErrInvalidConstraints)

	_, err = GenerateLineups(context.Background(), pool, c, Request{NumLineups: 1, Policy: "overlap"})
	assert.ErrorIs(t, err, ErrInvalidConstraints)
}

func TestGenerateLineups_ReportsProgress(t *testing.T) {
	pool := twoLineupPool(t)
	c := classicConstraints(t, pool, 50000, nil, nil)

	var updates []ProgressUpdate
	result, err := GenerateLineups(context.Background(), pool, c, Request{
		NumLineups: 2,
		Strategy:   NewGreedyStrategy(testLogger()),
		Progress:   func(u ProgressUpdate) { updates = append(updates, u) },
	})
	require.NoError(t, err)
	require.Len(t, updates, 2)
	assert.Equal(t, 2, updates[1].Completed)
	assert.Equal(t, result.OptimizationID, updates[0].OptimizationID)
	assert.Equal(t, result.Lineups[1].ID, updates[1].Lineup.ID)
}
