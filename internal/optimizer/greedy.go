package optimizer

import (
	"context"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/stitts-dev/lineup-optimizer/internal/models"
)

// GreedyStrategy fills slots with the best affordable player at each step
type GreedyStrategy struct {
	logger *logrus.Entry
}

// NewGreedyStrategy creates a greedy fill strategy
func NewGreedyStrategy(logger *logrus.Entry) *GreedyStrategy {
	return &GreedyStrategy{logger: logger.WithField("component", "greedy_strategy")}
}

// Name implements Strategy
func (g *GreedyStrategy) Name() string {
	return StrategyGreedy
}

// pick is a greedily chosen player and the role it fills
type pick struct {
	player models.Player
	flex   bool
}

// greedyFill carries the state of one greedy pass
type greedyFill struct {
	template  models.RosterTemplate
	salaryCap int
	available []models.Player // projection descending
	used      map[string]bool
	salary    int
	needs     rosterNeeds
}

// Optimize implements Strategy
func (g *GreedyStrategy) Optimize(ctx context.Context, pool *models.Pool, c *Constraints) (*FeasibleSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeadlineExceeded, err)
	}
	locked, err := c.lockedPlayers(pool)
	if err != nil {
		return nil, err
	}
	needs, err := remainingNeeds(c.Template, locked)
	if err != nil {
		return nil, err
	}

	available := make([]models.Player, 0)
	for _, p := range c.candidates(pool) {
		if !c.IsLocked(p.ID) {
			available = append(available, p)
		}
	}
	models.SortByProjection(available)

	fill := &greedyFill{
		template:  c.Template,
		salaryCap: c.SalaryCap,
		available: available,
		used:      idSet(locked),
		salary:    totalSalary(locked),
		needs:     needs,
	}
	if _, ok := fill.completionCost(); !ok || fill.salary > c.SalaryCap {
		return nil, ErrInfeasible
	}

	picks := make([]pick, 0, c.Template.Size())
	for _, pos := range c.Template.FixedPositions() {
		for fill.needs.fixed[pos] > 0 {
			p, ok := fill.next(func(p models.Player) bool { return p.Position == pos }, false)
			if !ok {
				return nil, fmt.Errorf("%w: no affordable %s", ErrInfeasible, pos)
			}
			picks = append(picks, pick{player: p})
		}
	}
	for fill.needs.flex > 0 {
		p, ok := fill.next(func(p models.Player) bool { return c.Template.IsFlexEligible(p.Position) }, true)
		if !ok {
			return nil, fmt.Errorf("%w: no affordable flex player", ErrInfeasible)
		}
		picks = append(picks, pick{player: p, flex: true})
	}

	chosen := append([]models.Player(nil), locked...)
	for _, pk := range picks {
		chosen = append(chosen, pk.player)
	}
	if c.IsExcludedCombination(sortedIDs(chosen)) {
		repaired, ok := repairCombination(c, locked, picks, available)
		if !ok {
			return nil, fmt.Errorf("%w: no single swap avoids a used combination", ErrInfeasible)
		}
		chosen = repaired
	}

	set := newFeasibleSet(pool, idSet(chosen), StrategyGreedy)
	set.Explored = int64(len(picks))
	g.logger.WithFields(logrus.Fields{
		"salary":     set.TotalSalary,
		"projection": set.TotalProjection,
	}).Debug("Greedy fill finished")
	return set, nil
}

// next takes the best unused player matching accept whose salary still
// leaves the rest of the roster affordable
func (f *greedyFill) next(accept func(models.Player) bool, flex bool) (models.Player, bool) {
	for _, p := range f.available {
		if f.used[p.ID] || !accept(p) {
			continue
		}
		f.take(p, flex)
		rest, ok := f.completionCost()
		if ok && f.salary+rest <= f.salaryCap {
			return p, true
		}
		f.untake(p, flex)
	}
	return models.Player{}, false
}

func (f *greedyFill) take(p models.Player, flex bool) {
	f.used[p.ID] = true
	f.salary += p.Salary
	if flex {
		f.needs.flex--
	} else {
		f.needs.fixed[p.Position]--
	}
}

func (f *greedyFill) untake(p models.Player, flex bool) {
	delete(f.used, p.ID)
	f.salary -= p.Salary
	if flex {
		f.needs.flex++
	} else {
		f.needs.fixed[p.Position]++
	}
}

// completionCost is the cheapest salary that fills every open slot: each
// position takes its cheapest unused players, then flex takes the cheapest
// eligible leftovers
func (f *greedyFill) completionCost() (int, bool) {
	byPosition := make(map[models.Position][]int)
	for _, p := range f.available {
		if !f.used[p.ID] {
			byPosition[p.Position] = append(byPosition[p.Position], p.Salary)
		}
	}
	total := 0
	leftovers := make([]int, 0)
	for pos, salaries := range byPosition {
		sort.Ints(salaries)
		need := f.needs.fixed[pos]
		if need > len(salaries) {
			return 0, false
		}
		for _, s := range salaries[:need] {
			total += s
		}
		if f.template.IsFlexEligible(pos) {
			leftovers = append(leftovers, salaries[need:]...)
		}
	}
	for pos, need := range f.needs.fixed {
		if need > 0 && len(byPosition[pos]) == 0 {
			return 0, false
		}
	}
	if f.needs.flex > len(leftovers) {
		return 0, false
	}
	sort.Ints(leftovers)
	for _, s := range leftovers[:f.needs.flex] {
		total += s
	}
	return total, true
}

// repairCombination swaps one greedy pick for another player of the same role.
// Picks are tried from the lowest projection up, replacements from the highest
// projection down.
func repairCombination(c *Constraints, locked []models.Player, picks []pick, available []models.Player) ([]models.Player, bool) {
	order := make([]int, len(picks))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		pa, pb := picks[order[a]].player, picks[order[b]].player
		if pa.Projection != pb.Projection {
			return pa.Projection < pb.Projection
		}
		return pa.ID < pb.ID
	})

	base := append([]models.Player(nil), locked...)
	for _, pk := range picks {
		base = append(base, pk.player)
	}
	used := idSet(base)
	salary := totalSalary(base)

	for _, k := range order {
		out := picks[k]
		for _, in := range available {
			if used[in.ID] {
				continue
			}
			if out.flex && !c.Template.IsFlexEligible(in.Position) {
				continue
			}
			if !out.flex && in.Position != out.player.Position {
				continue
			}
			if salary-out.player.Salary+in.Salary > c.SalaryCap {
				continue
			}
			candidate := make([]models.Player, 0, len(base))
			for _, p := range base {
				if p.ID != out.player.ID {
					candidate = append(candidate, p)
				}
			}
			candidate = append(candidate, in)
			if !c.IsExcludedCombination(sortedIDs(candidate)) {
				return candidate, true
			}
		}
	}
	return nil, false
}
