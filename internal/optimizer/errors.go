package optimizer

import (
	"errors"

	"github.com/stitts-dev/lineup-optimizer/internal/models"
)

var (
	// ErrInvalidPool is re-exported so callers only need this package
	ErrInvalidPool = models.ErrInvalidPool
	// ErrInvalidConstraints covers lock/exclude conflicts and impossible locks
	ErrInvalidConstraints = errors.New("invalid constraints")
	// ErrInfeasible means no subset satisfies cap and position constraints
	ErrInfeasible = errors.New("no feasible lineup")
	// ErrNoStackAvailable means the team cannot supply a QB plus two skill players
	ErrNoStackAvailable = errors.New("no stack available")
	// ErrAssignment signals an internal invariant violation while filling slots
	ErrAssignment = errors.New("lineup assignment failed")
	// ErrDeadlineExceeded means a strategy stopped on its time or iteration budget
	ErrDeadlineExceeded = errors.New("optimization deadline exceeded")
)
