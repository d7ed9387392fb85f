package optimizer

import (
	"context"
	"math/rand"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stitts-dev/lineup-optimizer/internal/models"
)

func testLogger() *logrus.Entry {
	log := logrus.New()
	log.SetLevel(logrus.WarnLevel)
	return logrus.NewEntry(log)
}

func allStrategies() []Strategy {
	return []Strategy{
		NewExactStrategy(0, false, testLogger()),
		NewExactStrategy(0, true, testLogger()),
		NewExhaustiveStrategy(0, 0, testLogger()),
		NewGreedyStrategy(testLogger()),
	}
}

func TestStrategies_SingleFeasibleLineup(t *testing.T) {
	pool := minimalPool(t)
	c := classicConstraints(t, pool, 50000, nil, nil)

	for _, s := range allStrategies() {
		t.Run(s.Name(), func(t *testing.T) {
			set, err := s.Optimize(context.Background(), pool, c)
			require.NoError(t, err)
			assert.Len(t, set.Players, 9)
			assert.Equal(t, 50000, set.TotalSalary)
			assert.Equal(t, pool.Players(), set.Players)
		})
	}
}

func TestStrategies_CapBelowCheapestRoster(t *testing.T) {
	pool := minimalPool(t)
	c := classicConstraints(t, pool, 49999, nil, nil)

	for _, s := range allStrategies() {
		t.Run(s.Name(), func(t *testing.T) {
			set, err := s.Optimize(context.Background(), pool, c)
			assert.ErrorIs(t, err, ErrInfeasible)
			assert.Nil(t, set)
		})
	}
}

func TestExactStrategy_MatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	exact := NewExactStrategy(0, false, testLogger())

	for trial := 0; trial < 20; trial++ {
		pool := randomPool(t, rng, 10+rng.Intn(5))
		salaryCap := 38000 + rng.Intn(15000)
		c := classicConstraints(t, pool, salaryCap, nil, nil)

		want, feasible := bruteForceBest(pool, c)
		set, err := exact.Optimize(context.Background(), pool, c)
		if !feasible {
			assert.ErrorIs(t, err, ErrInfeasible, "trial %d", trial)
			continue
		}
		require.NoError(t, err, "trial %d", trial)
		assert.InDelta(t, want, set.TotalProjection, 1e-6, "trial %d", trial)
		assert.True(t, set.Optimal)

		lineup, err := AssignPlayersToSlots(set.Players, c.Template)
		require.NoError(t, err)
		requireLineupInvariants(t, *lineup, c)
	}
}

func TestExhaustiveStrategy_FullWalkMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(23))
	exhaustive := NewExhaustiveStrategy(0, 1_000_000, testLogger())

	for trial := 0; trial < 10; trial++ {
		pool := randomPool(t, rng, 10+rng.Intn(4))
		c := classicConstraints(t, pool, 45000, nil, nil)

		want, feasible := bruteForceBest(pool, c)
		set, err := exhaustive.Optimize(context.Background(), pool, c)
		if !feasible {
			assert.ErrorIs(t, err, ErrInfeasible, "trial %d", trial)
			continue
		}
		require.NoError(t, err, "trial %d", trial)
		assert.InDelta(t, want, set.TotalProjection, 1e-6, "trial %d", trial)
	}
}

func TestExhaustiveStrategy_IterationBudget(t *testing.T) {
	pool := twoLineupPool(t)
	c := classicConstraints(t, pool, 50000, nil, nil)

	// the first combination is complete, the second one trips the budget
	set, err := NewExhaustiveStrategy(1, 1000, testLogger()).Optimize(context.Background(), pool, c)
	assert.ErrorIs(t, err, ErrDeadlineExceeded)
	require.NotNil(t, set)
	assert.Len(t, set.Players, 9)
}

func TestExhaustiveStrategy_CancelledContext(t *testing.T) {
	pool := twoLineupPool(t)
	c := classicConstraints(t, pool, 50000, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewExhaustiveStrategy(0, 0, testLogger()).Optimize(ctx, pool, c)
	assert.ErrorIs(t, err, ErrDeadlineExceeded)
}

func TestExactStrategy_DeadlineDuringSearch(t *testing.T) {
	pool := twoLineupPool(t)
	c := classicConstraints(t, pool, 50000, nil, nil)

	ctx := expireAfter(0)
	set, err := NewExactStrategy(0, false, testLogger()).Optimize(ctx, pool, c)
	assert.ErrorIs(t, err, ErrDeadlineExceeded)
	require.NotNil(t, set)
	assert.False(t, set.Optimal)
	assert.Len(t, set.Players, 9)
	assert.LessOrEqual(t, set.TotalSalary, 50000)
	assert.Positive(t, ctx.calls)

	lineup, err := AssignPlayersToSlots(set.Players, c.Template)
	require.NoError(t, err)
	require.NoError(t, ValidateLineup(lineup, c))
}

func TestGreedyStrategy_AlwaysFindsFeasibleRoster(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	greedy := NewGreedyStrategy(testLogger())

	for trial := 0; trial < 20; trial++ {
		pool := randomPool(t, rng, 12)
		c := classicConstraints(t, pool, 42000+rng.Intn(10000), nil, nil)

		_, feasible := bruteForceBest(pool, c)
		set, err := greedy.Optimize(context.Background(), pool, c)
		if !feasible {
			assert.ErrorIs(t, err, ErrInfeasible, "trial %d", trial)
			continue
		}
		require.NoError(t, err, "trial %d", trial)
		assert.False(t, set.Optimal)

		lineup, err := AssignPlayersToSlots(set.Players, c.Template)
		require.NoError(t, err)
		requireLineupInvariants(t, *lineup, c)
	}
}

func TestGreedyStrategy_RepairsExcludedCombination(t *testing.T) {
	pool := twoLineupPool(t)
	c := classicConstraints(t, pool, 50000, nil, nil)
	greedy := NewGreedyStrategy(testLogger())

	first, err := greedy.Optimize(context.Background(), pool, c)
	require.NoError(t, err)

	next := c.WithExcludedCombination(first.IDs())
	second, err := greedy.Optimize(context.Background(), pool, next)
	require.NoError(t, err)
	assert.NotEqual(t, first.IDs(), second.IDs())

	// exactly one player differs
	shared := 0
	ids := idSet(first.Players)
	for _, p := range second.Players {
		if ids[p.ID] {
			shared++
		}
	}
	assert.Equal(t, 8, shared)
}

func TestStrategies_HonorLocksAndExcludes(t *testing.T) {
	pool := twoLineupPool(t)
	c := classicConstraints(t, pool, 50000, []string{"qb2", "wr6"}, []string{"rb1", "te1"})

	for _, s := range allStrategies() {
		t.Run(s.Name(), func(t *testing.T) {
			set, err := s.Optimize(context.Background(), pool, c)
			require.NoError(t, err)
			ids := idSet(set.Players)
			assert.True(t, ids["qb2"])
			assert.True(t, ids["wr6"])
			assert.False(t, ids["rb1"])
			assert.False(t, ids["te1"])

			lineup, err := AssignPlayersToSlots(set.Players, c.Template)
			require.NoError(t, err)
			requireLineupInvariants(t, *lineup, c)
		})
	}
}

func TestStrategies_LockMissingFromPool(t *testing.T) {
	pool := twoLineupPool(t)
	c := classicConstraints(t, pool, 50000, []string{"qb1"}, nil)
	reduced := pool.Without(map[string]bool{"qb1": true})

	for _, s := range allStrategies() {
		_, err := s.Optimize(context.Background(), reduced, c)
		assert.ErrorIs(t, err, ErrInvalidConstraints, s.Name())
	}
}

func TestExactStrategy_TieBreaksOnPlayerID(t *testing.T) {
	pool := newPool(t,
		player("qb1", "KC", models.PositionQB, 5000, 20),
		player("rb-b", "KC", models.PositionRB, 5000, 15),
		player("rb-a", "KC", models.PositionRB, 5000, 15),
		player("rb-c", "KC", models.PositionRB, 5000, 15),
		player("rb-d", "KC", models.PositionRB, 5000, 15),
		player("wr1", "KC", models.PositionWR, 5000, 12),
		player("wr2", "KC", models.PositionWR, 5000, 12),
		player("wr3", "KC", models.PositionWR, 5000, 12),
		player("te1", "KC", models.PositionTE, 5000, 8),
		player("dst1", "KC", models.PositionDST, 5000, 5),
	)
	c := classicConstraints(t, pool, 50000, nil, nil)
	exact := NewExactStrategy(0, false, testLogger())

	for i := 0; i < 3; i++ {
		set, err := exact.Optimize(context.Background(), pool, c)
		require.NoError(t, err)
		ids := idSet(set.Players)
		assert.True(t, ids["rb-a"] && ids["rb-b"] && ids["rb-c"])
		assert.False(t, ids["rb-d"])
	}
}

func TestNewStrategy(t *testing.T) {
	for _, name := range []string{"exact", "EXHAUSTIVE", " greedy ", ""} {
		s, err := NewStrategy(name, StrategyOptions{Logger: testLogger()})
		require.NoError(t, err, name)
		assert.NotNil(t, s)
	}

	_, err := NewStrategy("genetic", StrategyOptions{})
	assert.ErrorIs(t, err, ErrInvalidConstraints)
}

func TestNewStrategy_ExhaustiveOptions(t *testing.T) {
	s, err := NewStrategy(StrategyExhaustive, StrategyOptions{MaxIterations: 1000, MaxCandidates: 25, Logger: testLogger()})
	require.NoError(t, err)
	exhaustive, ok := s.(*ExhaustiveStrategy)
	require.True(t, ok)
	assert.Equal(t, int64(1000), exhaustive.MaxIterations)
	assert.Equal(t, 25, exhaustive.MaxCandidates)

	s, err = NewStrategy(StrategyExhaustive, StrategyOptions{Logger: testLogger()})
	require.NoError(t, err)
	assert.Equal(t, defaultMaxCandidates, s.(*ExhaustiveStrategy).MaxCandidates)
}
