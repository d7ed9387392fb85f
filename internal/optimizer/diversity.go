package optimizer

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/stitts-dev/lineup-optimizer/internal/models"
	"github.com/stitts-dev/lineup-optimizer/pkg/logger"
)

// DefaultMaxLineups caps a single request when Request.MaxLineups is unset
const DefaultMaxLineups = 50

// Policy decides how consecutive lineups are kept apart
type Policy string

const (
	// PolicyDisjoint removes every non-locked player of an accepted lineup from the pool
	PolicyDisjoint Policy = "disjoint"
	// PolicyDistinctCombination only forbids repeating an exact player set
	PolicyDistinctCombination Policy = "combination"
)

// ParsePolicy maps a config or request value to a Policy
func ParsePolicy(raw string) (Policy, error) {
	switch Policy(raw) {
	case "", PolicyDisjoint:
		return PolicyDisjoint, nil
	case PolicyDistinctCombination:
		return PolicyDistinctCombination, nil
	default:
		return "", fmt.Errorf("%w: unknown diversity policy %q", ErrInvalidConstraints, raw)
	}
}

// ProgressUpdate is sent after each accepted lineup
type ProgressUpdate struct {
	OptimizationID string         `json:"optimization_id"`
	Completed      int            `json:"completed"`
	Requested      int            `json:"requested"`
	Lineup         *models.Lineup `json:"lineup,omitempty"`
	Message        string         `json:"message"`
}

// Request configures a multi-lineup run
type Request struct {
	NumLineups int
	MaxLineups int
	Policy     Policy
	Strategy   Strategy
	Progress   func(ProgressUpdate)
}

// Result is the outcome of GenerateLineups
type Result struct {
	OptimizationID string          `json:"optimization_id"`
	Lineups        []models.Lineup `json:"lineups"`
	Requested      int             `json:"requested"`
	Partial        bool            `json:"partial"`
	Reason         string          `json:"reason,omitempty"`
	Policy         Policy          `json:"policy"`
	Strategy       string          `json:"strategy"`
	Duration       time.Duration   `json:"duration"`
	Summary        Summary         `json:"summary"`

	// SharedPlayers lists the locked players repeated across disjoint
	// lineups; the lineups are disjoint only outside this set
	SharedPlayers []string `json:"shared_players,omitempty"`
}

// GenerateLineups produces up to NumLineups distinct lineups. Running out of
// feasible lineups or time is reported through Result.Partial, as is a final
// lineup accepted on a budget; only when no lineup at all was produced does
// it also return ErrInfeasible or ErrDeadlineExceeded.
func GenerateLineups(ctx context.Context, pool *models.Pool, c *Constraints, req Request) (*Result, error) {
	maxLineups := req.MaxLineups
	if maxLineups <= 0 {
		maxLineups = DefaultMaxLineups
	}
	if req.NumLineups < 1 || req.NumLineups > maxLineups {
		return nil, fmt.Errorf("%w: number of lineups must be between 1 and %d, got %d", ErrInvalidConstraints, maxLineups, req.NumLineups)
	}
	policy, err := ParsePolicy(string(req.Policy))
	if err != nil {
		return nil, err
	}
	strategy := req.Strategy
	if strategy == nil {
		strategy = NewExactStrategy(0, false, logger.WithComponent("optimizer"))
	}
	if _, err := c.lockedPlayers(pool); err != nil {
		return nil, err
	}

	start := time.Now()
	optimizationID := uuid.New().String()
	log := logger.WithOptimizationContext(optimizationID, strategy.Name(), string(policy))
	log.WithFields(logrus.Fields{
		"pool_size":   pool.Len(),
		"num_lineups": req.NumLineups,
		"salary_cap":  c.SalaryCap,
		"locked":      len(c.Locked),
		"excluded":    len(c.Excluded),
	}).Info("Starting lineup generation")

	result := &Result{
		OptimizationID: optimizationID,
		Lineups:        make([]models.Lineup, 0, req.NumLineups),
		Requested:      req.NumLineups,
		Policy:         policy,
		Strategy:       strategy.Name(),
	}

	working := pool
	current := c
	var stopErr error
	for len(result.Lineups) < req.NumLineups {
		if err := ctx.Err(); err != nil {
			stopErr = fmt.Errorf("%w: %v", ErrDeadlineExceeded, err)
			break
		}
		if policy == PolicyDisjoint && len(result.Lineups) > 0 && len(c.Locked) == c.Template.Size() {
			stopErr = fmt.Errorf("%w: every slot is locked", ErrInfeasible)
			break
		}

		set, err := strategy.Optimize(ctx, working, current)
		if err != nil && !errors.Is(err, ErrDeadlineExceeded) && !errors.Is(err, ErrInfeasible) {
			return nil, err
		}
		if err != nil {
			stopErr = err
			if set == nil {
				break
			}
			log.WithError(err).Warn("Accepting best lineup found before deadline")
		}

		lineup, assignErr := AssignPlayersToSlots(set.Players, c.Template)
		if assignErr != nil {
			return nil, assignErr
		}
		if assignErr = ValidateLineup(lineup, current); assignErr != nil {
			return nil, assignErr
		}
		result.Lineups = append(result.Lineups, *lineup)

		log.WithFields(logrus.Fields{
			"lineup":     len(result.Lineups),
			"salary":     lineup.TotalSalary,
			"projection": lineup.TotalProjection,
			"optimal":    set.Optimal,
		}).Debug("Lineup accepted")
		if req.Progress != nil {
			req.Progress(ProgressUpdate{
				OptimizationID: optimizationID,
				Completed:      len(result.Lineups),
				Requested:      req.NumLineups,
				Lineup:         lineup,
				Message:        fmt.Sprintf("generated lineup %d of %d", len(result.Lineups), req.NumLineups),
			})
		}

		if stopErr != nil {
			break
		}
		switch policy {
		case PolicyDisjoint:
			drop := make(map[string]bool, len(set.Players))
			for _, p := range set.Players {
				if !c.IsLocked(p.ID) {
					drop[p.ID] = true
				}
			}
			working = working.Without(drop)
		case PolicyDistinctCombination:
			current = current.WithExcludedCombination(lineup.PlayerIDs())
		}
	}

	result.Duration = time.Since(start)
	result.Summary = Summarize(result.Lineups)
	if policy == PolicyDisjoint && len(result.Lineups) > 1 && len(c.Locked) > 0 {
		result.SharedPlayers = append([]string(nil), c.Locked...)
		sort.Strings(result.SharedPlayers)
		log.WithField("shared_players", result.SharedPlayers).Info("Disjoint lineups share locked players")
	}
	switch {
	case len(result.Lineups) < req.NumLineups:
		result.Partial = true
		result.Reason = fmt.Sprintf("could only produce %d of %d lineups", len(result.Lineups), req.NumLineups)
	case errors.Is(stopErr, ErrDeadlineExceeded):
		// last lineup is the best found in time, not a proven optimum
		result.Partial = true
		result.Reason = "search budget reached before the last lineup was proven optimal"
	}

	log.WithFields(logrus.Fields{
		"generated":      len(result.Lineups),
		"requested":      req.NumLineups,
		"partial":        result.Partial,
		"avg_projection": result.Summary.MeanProjection,
		"duration_ms":    result.Duration.Milliseconds(),
	}).Info("Lineup generation completed")

	if len(result.Lineups) == 0 {
		if stopErr == nil {
			stopErr = ErrInfeasible
		}
		return result, fmt.Errorf("%s: %w", result.Reason, stopErr)
	}
	return result, nil
}
