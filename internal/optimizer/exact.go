package optimizer

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/stitts-dev/lineup-optimizer/internal/models"
	"github.com/stitts-dev/lineup-optimizer/internal/solver"
)

// ExactStrategy maximizes total projection with a branch and bound solver
type ExactStrategy struct {
	Solver solver.Solver
	logger *logrus.Entry
}

// NewExactStrategy wires a branch and bound solver with the given limits
func NewExactStrategy(nodeLimit int64, lpBound bool, logger *logrus.Entry) *ExactStrategy {
	bb := solver.NewBranchAndBound(logger)
	if nodeLimit > 0 {
		bb.NodeLimit = nodeLimit
	}
	bb.LPBound = lpBound
	return &ExactStrategy{
		Solver: bb,
		logger: logger.WithField("component", "exact_strategy"),
	}
}

// Name implements Strategy
func (e *ExactStrategy) Name() string {
	return StrategyExact
}

// Optimize implements Strategy
func (e *ExactStrategy) Optimize(ctx context.Context, pool *models.Pool, c *Constraints) (*FeasibleSet, error) {
	if _, err := c.lockedPlayers(pool); err != nil {
		return nil, err
	}
	start := time.Now()

	model, players := buildModel(c.candidates(pool), c)
	sol, err := e.Solver.Solve(ctx, model)

	var set *FeasibleSet
	if sol != nil {
		selected := make(map[string]bool, len(sol.Selected))
		for _, i := range sol.Selected {
			selected[players[i].ID] = true
		}
		set = newFeasibleSet(pool, selected, StrategyExact)
		set.Optimal = sol.Optimal
		set.Explored = sol.Nodes
	}

	e.logger.WithFields(logrus.Fields{
		"candidates":  len(players),
		"cuts":        len(model.Cuts),
		"found":       set != nil,
		"duration_ms": time.Since(start).Milliseconds(),
	}).Debug("Exact optimization finished")

	switch {
	case err == nil:
		return set, nil
	case errors.Is(err, solver.ErrInterrupted):
		return set, fmt.Errorf("%w: %v", ErrDeadlineExceeded, err)
	case errors.Is(err, solver.ErrInfeasible):
		return nil, fmt.Errorf("%w: %v", ErrInfeasible, err)
	default:
		return nil, err
	}
}

// buildModel turns candidates into a selection program. Candidates are ordered
// by id so that the solver's index tie-break is an id tie-break.
func buildModel(candidates []models.Player, c *Constraints) (*solver.Model, []models.Player) {
	template := c.Template

	classIndex := make(map[models.Position]int)
	classes := make([]solver.Class, 0, len(models.Positions))
	flexClasses := make([]int, 0)
	flexTotal := template.FlexCount()
	for _, pos := range models.Positions {
		required := template.Required(pos)
		eligible := template.IsFlexEligible(pos)
		if required == 0 && !eligible {
			continue
		}
		class := solver.Class{Min: required, Max: required}
		if eligible {
			class.Max += template.FlexCount()
			flexClasses = append(flexClasses, len(classes))
			flexTotal += required
		}
		classIndex[pos] = len(classes)
		classes = append(classes, class)
	}

	players := make([]models.Player, 0, len(candidates))
	for _, p := range candidates {
		if _, ok := classIndex[p.Position]; ok {
			players = append(players, p)
		}
	}
	sort.Slice(players, func(i, j int) bool { return players[i].ID < players[j].ID })

	model := &solver.Model{
		Values:   make([]float64, len(players)),
		Weights:  make([]float64, len(players)),
		Capacity: float64(c.SalaryCap),
		ClassOf:  make([]int, len(players)),
		Classes:  classes,
		Fixed:    make(map[int]bool),
	}
	if len(flexClasses) > 0 {
		model.Groups = []solver.Group{{Classes: flexClasses, Total: flexTotal}}
	}

	index := make(map[string]int, len(players))
	for i, p := range players {
		index[p.ID] = i
		model.Values[i] = p.Projection
		model.Weights[i] = float64(p.Salary)
		model.ClassOf[i] = classIndex[p.Position]
		if c.IsLocked(p.ID) {
			model.Fixed[i] = true
		}
	}

	for _, combo := range c.ExcludedCombinations {
		cut := make([]int, 0, len(combo))
		for _, id := range combo {
			i, ok := index[id]
			if !ok {
				cut = nil
				break
			}
			cut = append(cut, i)
		}
		// a combination with a player outside the model cannot recur
		if cut != nil {
			sort.Ints(cut)
			model.Cuts = append(model.Cuts, cut)
		}
	}
	return model, players
}
