package optimizer

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/stitts-dev/lineup-optimizer/internal/models"
	"github.com/stitts-dev/lineup-optimizer/pkg/logger"
)

// Strategy names accepted by NewStrategy
const (
	StrategyExact      = "exact"
	StrategyExhaustive = "exhaustive"
	StrategyGreedy     = "greedy"
)

// Strategy selects one roster-complete player set from a pool
type Strategy interface {
	Name() string
	Optimize(ctx context.Context, pool *models.Pool, c *Constraints) (*FeasibleSet, error)
}

// FeasibleSet is a selected player set before slot assignment
type FeasibleSet struct {
	Players         []models.Player `json:"players"`
	TotalSalary     int             `json:"total_salary"`
	TotalProjection float64         `json:"total_projection"`
	Optimal         bool            `json:"optimal"`
	Strategy        string          `json:"strategy"`
	Explored        int64           `json:"explored"`
}

// IDs returns the sorted player ids of the set
func (f *FeasibleSet) IDs() []string {
	ids := make([]string, len(f.Players))
	for i, p := range f.Players {
		ids[i] = p.ID
	}
	sort.Strings(ids)
	return ids
}

// StrategyOptions tunes the strategies built by NewStrategy
type StrategyOptions struct {
	NodeLimit     int64
	LPBound       bool
	MaxIterations int64
	MaxCandidates int
	Logger        *logrus.Entry
}

// NewStrategy builds a strategy by name
func NewStrategy(name string, opts StrategyOptions) (Strategy, error) {
	log := opts.Logger
	if log == nil {
		log = logger.WithComponent("optimizer")
	}
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", StrategyExact:
		return NewExactStrategy(opts.NodeLimit, opts.LPBound, log), nil
	case StrategyExhaustive:
		return NewExhaustiveStrategy(opts.MaxIterations, opts.MaxCandidates, log), nil
	case StrategyGreedy:
		return NewGreedyStrategy(log), nil
	default:
		return nil, fmt.Errorf("%w: unknown strategy %q", ErrInvalidConstraints, name)
	}
}

// newFeasibleSet collects the selected ids in pool order and totals them
func newFeasibleSet(pool *models.Pool, selected map[string]bool, strategy string) *FeasibleSet {
	set := &FeasibleSet{Strategy: strategy}
	for _, p := range pool.Players() {
		if !selected[p.ID] {
			continue
		}
		set.Players = append(set.Players, p)
		set.TotalSalary += p.Salary
		set.TotalProjection += p.Projection
	}
	return set
}

// rosterNeeds is what remains to fill once locks take their slots
type rosterNeeds struct {
	fixed map[models.Position]int
	flex  int
}

// remainingNeeds counts each lock toward its position first, then toward flex
func remainingNeeds(template models.RosterTemplate, locked []models.Player) (rosterNeeds, error) {
	needs := rosterNeeds{fixed: make(map[models.Position]int), flex: template.FlexCount()}
	for _, pos := range template.FixedPositions() {
		needs.fixed[pos] = template.Required(pos)
	}
	for _, p := range locked {
		switch {
		case needs.fixed[p.Position] > 0:
			needs.fixed[p.Position]--
		case needs.flex > 0 && template.IsFlexEligible(p.Position):
			needs.flex--
		default:
			return needs, fmt.Errorf("%w: no slot left for locked player %s", ErrInvalidConstraints, p.ID)
		}
	}
	return needs, nil
}

func totalSalary(players []models.Player) int {
	total := 0
	for _, p := range players {
		total += p.Salary
	}
	return total
}

func idSet(players []models.Player) map[string]bool {
	set := make(map[string]bool, len(players))
	for _, p := range players {
		set[p.ID] = true
	}
	return set
}

func sortedIDs(players []models.Player) []string {
	ids := make([]string, len(players))
	for i, p := range players {
		ids[i] = p.ID
	}
	sort.Strings(ids)
	return ids
}
