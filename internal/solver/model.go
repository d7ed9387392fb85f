// Package solver solves the binary selection programs behind exact lineup
// optimization: pick a subset of items maximizing total value under one
// capacity row, per-class cardinality bounds, pooled class totals and
// no-good cuts.
package solver

import (
	"context"
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInfeasible means no selection satisfies the model
	ErrInfeasible = errors.New("solver: model is infeasible")
	// ErrInterrupted means the search stopped on its context or node budget
	ErrInterrupted = errors.New("solver: search interrupted")
	// ErrInvalidModel is returned for structurally broken models
	ErrInvalidModel = errors.New("solver: invalid model")
)

// Class bounds how many items of one class may be selected
type Class struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Group requires the selected counts of its classes to sum to Total
type Group struct {
	Classes []int `json:"classes"`
	Total   int   `json:"total"`
}

// Model is a binary selection program:
//
//	maximize   Σ Values[i]·x[i]
//	subject to Σ Weights[i]·x[i] <= Capacity
//	           Classes[c].Min <= |{i : x[i]=1, ClassOf[i]=c}| <= Classes[c].Max
//	           Σ_{c in g.Classes} count(c) = g.Total      for every group g
//	           Σ_{i in cut} x[i] <= len(cut)-1             for every cut
//	           x[i] = Fixed[i]                             where fixed
//
// Each class belongs to at most one group.
type Model struct {
	Values   []float64
	Weights  []float64
	Capacity float64
	ClassOf  []int
	Classes  []Class
	Groups   []Group
	Fixed    map[int]bool
	Cuts     [][]int
}

// Solution is the best selection found
type Solution struct {
	Selected  []int   `json:"selected"` // ascending item indexes
	Objective float64 `json:"objective"`
	Weight    float64 `json:"weight"`
	Optimal   bool    `json:"optimal"`
	Nodes     int64   `json:"nodes"`
}

// Solver is the capability behind exact optimization. Implementations must
// return ErrInfeasible when no selection exists and ErrInterrupted, along
// with the incumbent if one was found, when ctx ends first.
type Solver interface {
	Solve(ctx context.Context, m *Model) (*Solution, error)
}

// Validate checks dimensions and indexes
func (m *Model) Validate() error {
	n := len(m.Values)
	if len(m.Weights) != n || len(m.ClassOf) != n {
		return fmt.Errorf("%w: values, weights and classes differ in length", ErrInvalidModel)
	}
	if math.IsNaN(m.Capacity) {
		return fmt.Errorf("%w: capacity is NaN", ErrInvalidModel)
	}
	for i := 0; i < n; i++ {
		if c := m.ClassOf[i]; c < 0 || c >= len(m.Classes) {
			return fmt.Errorf("%w: item %d has class %d out of range", ErrInvalidModel, i, c)
		}
		if m.Weights[i] < 0 {
			return fmt.Errorf("%w: item %d has negative weight", ErrInvalidModel, i)
		}
	}
	for c, class := range m.Classes {
		if class.Min < 0 || class.Min > class.Max {
			return fmt.Errorf("%w: class %d has bounds [%d,%d]", ErrInvalidModel, c, class.Min, class.Max)
		}
	}
	owner := make(map[int]int)
	for g, group := range m.Groups {
		for _, c := range group.Classes {
			if c < 0 || c >= len(m.Classes) {
				return fmt.Errorf("%w: group %d references class %d", ErrInvalidModel, g, c)
			}
			if prev, ok := owner[c]; ok {
				return fmt.Errorf("%w: class %d in groups %d and %d", ErrInvalidModel, c, prev, g)
			}
			owner[c] = g
		}
	}
	for i := range m.Fixed {
		if i < 0 || i >= n {
			return fmt.Errorf("%w: fixed item %d out of range", ErrInvalidModel, i)
		}
	}
	for k, cut := range m.Cuts {
		if len(cut) == 0 {
			return fmt.Errorf("%w: cut %d is empty", ErrInvalidModel, k)
		}
		for _, i := range cut {
			if i < 0 || i >= n {
				return fmt.Errorf("%w: cut %d references item %d", ErrInvalidModel, k, i)
			}
		}
	}
	return nil
}

// groupOf maps each class to its group index, -1 when ungrouped
func (m *Model) groupOf() []int {
	out := make([]int, len(m.Classes))
	for c := range out {
		out[c] = -1
	}
	for g, group := range m.Groups {
		for _, c := range group.Classes {
			out[c] = g
		}
	}
	return out
}
