package solver

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	defaultNodeLimit = 5_000_000
	defaultTolerance = 1e-9
	lpSlack          = 1e-6
	ctxCheckInterval = 512
)

// BranchAndBound is a depth-first branch and bound solver. Nodes are bounded
// by a Lagrangian relaxation of the capacity row and, optionally, by the LP
// relaxation. Among selections whose objectives differ by at most Tolerance
// the lexicographically smallest index set wins, so results are reproducible.
type BranchAndBound struct {
	NodeLimit int64
	Tolerance float64
	LPBound   bool
	logger    *logrus.Entry
}

// NewBranchAndBound creates a solver with default limits
func NewBranchAndBound(logger *logrus.Entry) *BranchAndBound {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &BranchAndBound{
		NodeLimit: defaultNodeLimit,
		Tolerance: defaultTolerance,
		logger:    logger.WithField("component", "branch_and_bound"),
	}
}

type search struct {
	ctx         context.Context
	s           *state
	order       []int
	lambdaMax   float64
	useLP       bool
	nodeLimit   int64
	nodes       int64
	interrupted bool
	best        *Solution
}

// Solve implements Solver
func (b *BranchAndBound) Solve(ctx context.Context, m *Model) (*Solution, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	start := time.Now()
	tol := b.Tolerance
	if tol <= 0 {
		tol = defaultTolerance
	}
	limit := b.NodeLimit
	if limit <= 0 {
		limit = defaultNodeLimit
	}

	s := newState(m, tol)
	fixedIn := make([]int, 0, len(m.Fixed))
	for i, in := range m.Fixed {
		if in {
			fixedIn = append(fixedIn, i)
		} else {
			s.status[i] = statusOut
		}
	}
	sort.Ints(fixedIn)
	for _, i := range fixedIn {
		if !s.canInclude(i) {
			return nil, fmt.Errorf("%w: fixed item %d cannot be included", ErrInfeasible, i)
		}
		s.include(i)
	}

	order := make([]int, 0, len(m.Values))
	for i, st := range s.status {
		if st == statusFree {
			order = append(order, i)
		}
	}
	sort.SliceStable(order, func(x, y int) bool {
		return m.Values[order[x]] > m.Values[order[y]]
	})

	run := &search{
		ctx:       ctx,
		s:         s,
		order:     order,
		lambdaMax: multiplierCeiling(m),
		useLP:     b.LPBound,
		nodeLimit: limit,
	}
	run.dfs(0, 0)

	b.logger.WithFields(logrus.Fields{
		"items":       len(m.Values),
		"nodes":       run.nodes,
		"found":       run.best != nil,
		"interrupted": run.interrupted,
		"duration_ms": time.Since(start).Milliseconds(),
	}).Debug("Branch and bound finished")

	if run.best == nil {
		if run.interrupted {
			return nil, fmt.Errorf("%w after %d nodes", ErrInterrupted, run.nodes)
		}
		return nil, ErrInfeasible
	}
	run.best.Nodes = run.nodes
	if run.interrupted {
		return run.best, fmt.Errorf("%w after %d nodes", ErrInterrupted, run.nodes)
	}
	run.best.Optimal = true
	return run.best, nil
}

// stop counts a node and reports whether the search must end. LP nodes are
// expensive enough that the context is checked on every one of them.
func (r *search) stop() bool {
	if r.interrupted {
		return true
	}
	r.nodes++
	if r.nodes > r.nodeLimit {
		r.interrupted = true
		return true
	}
	if r.useLP || r.nodes%ctxCheckInterval == 0 {
		return r.expired()
	}
	return false
}

func (r *search) expired() bool {
	if r.ctx.Err() != nil {
		r.interrupted = true
	}
	return r.interrupted
}

func (r *search) dfs(pos int, lambda float64) {
	if r.stop() {
		return
	}
	s := r.s

	// Items that can no longer be included are fixed out without branching
	forced := make([]int, 0)
	for pos < len(r.order) && !s.canInclude(r.order[pos]) {
		i := r.order[pos]
		if s.status[i] == statusFree {
			s.status[i] = statusOut
			forced = append(forced, i)
		}
		pos++
	}
	defer func() {
		for _, i := range forced {
			s.status[i] = statusFree
		}
	}()

	if pos == len(r.order) {
		if s.complete() {
			r.offer()
		}
		return
	}

	minWeight, ok := s.cheapestCompletion()
	if !ok || s.weight+minWeight > s.m.Capacity+s.tol {
		return
	}

	haveIncumbent := r.best != nil
	incumbent := math.Inf(-1)
	if haveIncumbent {
		incumbent = r.best.Objective
	}
	bound, nextLambda, ok := s.lagrangianBound(lambda, r.lambdaMax, incumbent, haveIncumbent)
	if !ok {
		return
	}
	if r.useLP && !(haveIncumbent && bound < incumbent-s.tol) {
		if r.expired() {
			return
		}
		if lpValue, solved := s.lpBound(); solved {
			bound = math.Min(bound, lpValue+lpSlack*math.Max(1, math.Abs(lpValue)))
		}
	}
	if haveIncumbent && bound < incumbent-s.tol {
		return
	}

	i := r.order[pos]
	s.include(i)
	r.dfs(pos+1, nextLambda)
	s.uninclude(i)

	s.status[i] = statusOut
	r.dfs(pos+1, nextLambda)
	s.status[i] = statusFree
}

// offer records the current complete selection if it beats the incumbent
func (r *search) offer() {
	s := r.s
	candidate := &Solution{
		Selected:  s.selected(),
		Objective: s.value,
		Weight:    s.weight,
	}
	switch {
	case r.best == nil || candidate.Objective > r.best.Objective+s.tol:
		r.best = candidate
	case math.Abs(candidate.Objective-r.best.Objective) <= s.tol && lexLess(candidate.Selected, r.best.Selected):
		r.best = candidate
	default:
		return
	}
	// deadlines are also observed at every new incumbent
	r.expired()
}

// lexLess compares ascending index sets element by element
func lexLess(a, b []int) bool {
	for k := 0; k < len(a) && k < len(b); k++ {
		if a[k] != b[k] {
			return a[k] < b[k]
		}
	}
	return len(a) < len(b)
}
