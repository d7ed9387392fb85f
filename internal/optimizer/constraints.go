package optimizer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/stitts-dev/lineup-optimizer/internal/models"
	"github.com/stitts-dev/lineup-optimizer/pkg/logger"
)

// ConstraintRequest is the raw input to the constraint builder
type ConstraintRequest struct {
	Template  models.RosterTemplate `json:"template"`
	SalaryCap int                   `json:"salary_cap"`
	Locks     []string              `json:"locks"`
	Excludes  []string              `json:"excludes"`
	StackTeam string                `json:"stack_team,omitempty"`
}

// Constraints is a validated constraint set. Treat it as read-only; the
// diversity controller derives new values with WithExcludedCombination.
type Constraints struct {
	Template             models.RosterTemplate `json:"template"`
	SalaryCap            int                   `json:"salary_cap"`
	Locked               []string              `json:"locked"`
	Excluded             []string              `json:"excluded"`
	Stack                *TeamStack            `json:"stack,omitempty"`
	ExcludedCombinations [][]string            `json:"excluded_combinations,omitempty"`

	locked   map[string]bool
	excluded map[string]bool
	combos   map[string]bool
}

// BuildConstraints validates a request against the pool before any search runs
func BuildConstraints(pool *models.Pool, req ConstraintRequest) (*Constraints, error) {
	log := logger.WithComponent("constraint_builder")

	if err := req.Template.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConstraints, err)
	}
	if req.SalaryCap <= 0 {
		return nil, fmt.Errorf("%w: salary cap must be positive, got %d", ErrInvalidConstraints, req.SalaryCap)
	}

	locks := dedupe(req.Locks)
	excludes := dedupe(req.Excludes)

	excludedSet := make(map[string]bool, len(excludes))
	for _, id := range excludes {
		excludedSet[id] = true
	}
	for _, id := range locks {
		if excludedSet[id] {
			return nil, fmt.Errorf("%w: player %s is both locked and excluded", ErrInvalidConstraints, id)
		}
	}

	known := make([]string, 0, len(excludes))
	for _, id := range excludes {
		if !pool.Contains(id) {
			log.WithField("player_id", id).Warn("Excluded player not in pool, ignoring")
			continue
		}
		known = append(known, id)
	}
	excludes = known

	var stack *TeamStack
	if req.StackTeam != "" {
		var err error
		stack, err = BuildTeamStack(pool, req.StackTeam, excludedSet)
		if err != nil {
			return nil, err
		}
		locks = dedupe(append(locks, stack.PlayerIDs...))
	}

	for _, id := range locks {
		if !pool.Contains(id) {
			return nil, fmt.Errorf("%w: locked player %s is not in the pool", ErrInvalidConstraints, id)
		}
	}
	if len(locks) > req.Template.Size() {
		return nil, fmt.Errorf("%w: %d locked players exceed %d roster slots", ErrInvalidConstraints, len(locks), req.Template.Size())
	}

	lockedPlayers := make([]models.Player, 0, len(locks))
	lockedSalary := 0
	for _, id := range locks {
		p, _ := pool.Get(id)
		lockedPlayers = append(lockedPlayers, p)
		lockedSalary += p.Salary
	}
	if err := checkLockPlacement(lockedPlayers, req.Template); err != nil {
		return nil, err
	}
	if lockedSalary > req.SalaryCap {
		return nil, fmt.Errorf("%w: locked salaries %d exceed cap %d", ErrInvalidConstraints, lockedSalary, req.SalaryCap)
	}

	c := &Constraints{
		Template:  req.Template,
		SalaryCap: req.SalaryCap,
		Locked:    locks,
		Excluded:  excludes,
		Stack:     stack,
	}
	c.index()

	log.WithFields(logrus.Fields{
		"salary_cap": c.SalaryCap,
		"locked":     len(c.Locked),
		"excluded":   len(c.Excluded),
		"stack":      req.StackTeam,
	}).Debug("Constraints built")
	return c, nil
}

// checkLockPlacement verifies every locked player has an eligible slot left.
// Locks take their position's concrete slots first and overflow into flex.
func checkLockPlacement(locked []models.Player, template models.RosterTemplate) error {
	byPosition := make(map[models.Position][]string)
	for _, p := range locked {
		byPosition[p.Position] = append(byPosition[p.Position], p.ID)
	}
	flexLeft := template.FlexCount()
	for _, pos := range models.Positions {
		ids := byPosition[pos]
		over := len(ids) - template.Required(pos)
		if over <= 0 {
			continue
		}
		if !template.IsFlexEligible(pos) {
			return fmt.Errorf("%w: no slot left for locked %s player %s", ErrInvalidConstraints, pos, ids[len(ids)-1])
		}
		flexLeft -= over
		if flexLeft < 0 {
			return fmt.Errorf("%w: no slot left for locked %s player %s", ErrInvalidConstraints, pos, ids[len(ids)-1])
		}
	}
	return nil
}

func (c *Constraints) index() {
	c.locked = make(map[string]bool, len(c.Locked))
	for _, id := range c.Locked {
		c.locked[id] = true
	}
	c.excluded = make(map[string]bool, len(c.Excluded))
	for _, id := range c.Excluded {
		c.excluded[id] = true
	}
	c.combos = make(map[string]bool, len(c.ExcludedCombinations))
	for _, combo := range c.ExcludedCombinations {
		c.combos[strings.Join(combo, "|")] = true
	}
}

// IsLocked reports whether id must be in every lineup
func (c *Constraints) IsLocked(id string) bool {
	return c.locked[id]
}

// IsExcluded reports whether id must not appear in any lineup
func (c *Constraints) IsExcluded(id string) bool {
	return c.excluded[id]
}

// IsExcludedCombination reports whether the sorted id set was already used
func (c *Constraints) IsExcludedCombination(sortedIDs []string) bool {
	return c.combos[strings.Join(sortedIDs, "|")]
}

// WithExcludedCombination returns a copy that also forbids the given player set
func (c *Constraints) WithExcludedCombination(ids []string) *Constraints {
	combo := append([]string(nil), ids...)
	sort.Strings(combo)

	next := *c
	next.ExcludedCombinations = make([][]string, 0, len(c.ExcludedCombinations)+1)
	next.ExcludedCombinations = append(next.ExcludedCombinations, c.ExcludedCombinations...)
	next.ExcludedCombinations = append(next.ExcludedCombinations, combo)
	next.index()
	return &next
}

// lockedPlayers resolves locks against a pool; every lock must be present
func (c *Constraints) lockedPlayers(pool *models.Pool) ([]models.Player, error) {
	out := make([]models.Player, 0, len(c.Locked))
	for _, id := range c.Locked {
		p, ok := pool.Get(id)
		if !ok {
			return nil, fmt.Errorf("%w: locked player %s is not in the pool", ErrInvalidConstraints, id)
		}
		out = append(out, p)
	}
	return out, nil
}

// candidates returns the pool players that may be selected, in pool order
func (c *Constraints) candidates(pool *models.Pool) []models.Player {
	players := pool.Players()
	out := players[:0]
	for _, p := range players {
		if !c.excluded[p.ID] {
			out = append(out, p)
		}
	}
	return out
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
