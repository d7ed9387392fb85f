package optimizer

import (
	"context"
	"fmt"
	"iter"
	"math"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/stitts-dev/lineup-optimizer/internal/models"
)

const (
	defaultMaxIterations = 2_000_000
	defaultMaxCandidates = 1
)

// ExhaustiveStrategy walks position groups combination by combination and
// keeps the best complete lineups it meets within its budget
type ExhaustiveStrategy struct {
	MaxIterations int64
	MaxCandidates int
	logger        *logrus.Entry
}

// NewExhaustiveStrategy creates a bounded exhaustive search
func NewExhaustiveStrategy(maxIterations int64, maxCandidates int, logger *logrus.Entry) *ExhaustiveStrategy {
	if maxIterations <= 0 {
		maxIterations = defaultMaxIterations
	}
	if maxCandidates <= 0 {
		maxCandidates = defaultMaxCandidates
	}
	return &ExhaustiveStrategy{
		MaxIterations: maxIterations,
		MaxCandidates: maxCandidates,
		logger:        logger.WithField("component", "exhaustive_strategy"),
	}
}

// Name implements Strategy
func (e *ExhaustiveStrategy) Name() string {
	return StrategyExhaustive
}

// positionGroup is one step of the walk: choose size players from players
type positionGroup struct {
	label   string
	players []models.Player
	size    int
	flex    bool
}

// step is emitted at every combination boundary. Players is only set on
// complete, affordable combinations.
type step struct {
	complete bool
	players  []models.Player
	salary   int
}

// Optimize implements Strategy
func (e *ExhaustiveStrategy) Optimize(ctx context.Context, pool *models.Pool, c *Constraints) (*FeasibleSet, error) {
	locked, err := c.lockedPlayers(pool)
	if err != nil {
		return nil, err
	}
	needs, err := remainingNeeds(c.Template, locked)
	if err != nil {
		return nil, err
	}
	start := time.Now()

	groups := buildGroups(c, c.candidates(pool), needs)

	var (
		iterations int64
		exhausted  bool
		seen       = make(map[string]bool)
		best       []models.Player
		bestValue  = math.Inf(-1)
		bestKey    string
		collected  int
	)
	for st := range combinationSeq(groups, locked, c.SalaryCap) {
		iterations++
		if iterations > e.MaxIterations || ctx.Err() != nil {
			exhausted = true
			break
		}
		if !st.complete {
			continue
		}
		ids := sortedIDs(st.players)
		key := strings.Join(ids, "|")
		if seen[key] || c.IsExcludedCombination(ids) {
			continue
		}
		seen[key] = true

		value := 0.0
		for _, p := range st.players {
			value += p.Projection
		}
		if best == nil || value > bestValue+1e-9 || (math.Abs(value-bestValue) <= 1e-9 && key < bestKey) {
			best, bestValue, bestKey = st.players, value, key
		}
		collected++
		if collected >= e.MaxCandidates {
			break
		}
	}

	e.logger.WithFields(logrus.Fields{
		"groups":      len(groups),
		"iterations":  iterations,
		"collected":   collected,
		"exhausted":   exhausted,
		"duration_ms": time.Since(start).Milliseconds(),
	}).Debug("Exhaustive search finished")

	var set *FeasibleSet
	if best != nil {
		set = newFeasibleSet(pool, idSet(best), StrategyExhaustive)
		set.Explored = iterations
	}
	if exhausted {
		return set, fmt.Errorf("%w: stopped after %d combinations", ErrDeadlineExceeded, iterations)
	}
	if set == nil {
		return nil, ErrInfeasible
	}
	return set, nil
}

// buildGroups lays out fixed positions in template order followed by flex.
// Players are ordered by projection so early candidates are strong ones.
func buildGroups(c *Constraints, candidates []models.Player, needs rosterNeeds) []positionGroup {
	available := make([]models.Player, 0, len(candidates))
	for _, p := range candidates {
		if !c.IsLocked(p.ID) {
			available = append(available, p)
		}
	}
	models.SortByProjection(available)

	groups := make([]positionGroup, 0)
	for _, pos := range c.Template.FixedPositions() {
		need := needs.fixed[pos]
		if need == 0 {
			continue
		}
		g := positionGroup{label: string(pos), size: need}
		for _, p := range available {
			if p.Position == pos {
				g.players = append(g.players, p)
			}
		}
		groups = append(groups, g)
	}
	if needs.flex > 0 {
		g := positionGroup{label: "FLEX", size: needs.flex, flex: true}
		for _, p := range available {
			if c.Template.IsFlexEligible(p.Position) {
				g.players = append(g.players, p)
			}
		}
		groups = append(groups, g)
	}
	return groups
}

// combinationSeq lazily yields a step for every combination tried, group by
// group. Prefixes whose salary plus the cheapest possible rest exceeds the
// cap are skipped along with everything below them. The sequence can be
// ranged over repeatedly.
func combinationSeq(groups []positionGroup, locked []models.Player, salaryCap int) iter.Seq[step] {
	// floor[g] is a lower bound on the salary groups g.. still need
	floor := make([]int, len(groups)+1)
	for g := len(groups) - 1; g >= 0; g-- {
		floor[g] = floor[g+1] + cheapest(groups[g].players, groups[g].size)
	}

	return func(yield func(step) bool) {
		chosen := append([]models.Player(nil), locked...)
		used := idSet(locked)

		var fill func(g, salary int) bool
		fill = func(g, salary int) bool {
			if g == len(groups) {
				out := append([]models.Player(nil), chosen...)
				return yield(step{complete: true, players: out, salary: salary})
			}
			grp := groups[g]
			options := grp.players
			if grp.flex {
				options = make([]models.Player, 0, len(grp.players))
				for _, p := range grp.players {
					if !used[p.ID] {
						options = append(options, p)
					}
				}
			}
			return combinations(len(options), grp.size, func(idx []int) bool {
				total := salary
				for _, i := range idx {
					total += options[i].Salary
				}
				if total+floor[g+1] > salaryCap {
					return yield(step{salary: total})
				}
				for _, i := range idx {
					chosen = append(chosen, options[i])
					used[options[i].ID] = true
				}
				cont := fill(g+1, total)
				for _, i := range idx {
					delete(used, options[i].ID)
				}
				chosen = chosen[:len(chosen)-len(idx)]
				return cont
			})
		}
		fill(0, totalSalary(locked))
	}
}

// combinations calls fn with every k-subset of 0..n-1 in lexicographic order
// until fn returns false. It reports whether the walk ran to completion.
func combinations(n, k int, fn func(idx []int) bool) bool {
	if k > n {
		return true
	}
	idx := make([]int, k)
	for i := range idx {
		idx[i] = i
	}
	for {
		if !fn(idx) {
			return false
		}
		i := k - 1
		for i >= 0 && idx[i] == n-k+i {
			i--
		}
		if i < 0 {
			return true
		}
		idx[i]++
		for j := i + 1; j < k; j++ {
			idx[j] = idx[j-1] + 1
		}
	}
}

// cheapest sums the k lowest salaries, or a huge value when k > len(players)
func cheapest(players []models.Player, k int) int {
	if k > len(players) {
		return math.MaxInt32
	}
	salaries := make([]int, len(players))
	for i, p := range players {
		salaries[i] = p.Salary
	}
	for i := 0; i < k; i++ {
		lo := i
		for j := i + 1; j < len(salaries); j++ {
			if salaries[j] < salaries[lo] {
				lo = j
			}
		}
		salaries[i], salaries[lo] = salaries[lo], salaries[i]
	}
	total := 0
	for _, s := range salaries[:k] {
		total += s
	}
	return total
}
