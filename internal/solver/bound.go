package solver

import (
	"math"
	"sort"
)

const (
	statusFree    int8 = 0
	statusIn      int8 = 1
	statusOut     int8 = -1
	goldenRatio        = 0.6180339887498949
	lambdaSteps        = 32
)

// state is the partial assignment explored by branch and bound
type state struct {
	m       *Model
	groupOf []int
	cutsOf  [][]int
	status  []int8
	classIn []int
	groupIn []int
	cutIn   []int
	value   float64
	weight  float64
	tol     float64
}

func newState(m *Model, tol float64) *state {
	s := &state{
		m:       m,
		groupOf: m.groupOf(),
		cutsOf:  make([][]int, len(m.Values)),
		status:  make([]int8, len(m.Values)),
		classIn: make([]int, len(m.Classes)),
		groupIn: make([]int, len(m.Groups)),
		cutIn:   make([]int, len(m.Cuts)),
		tol:     tol,
	}
	for k, cut := range m.Cuts {
		for _, i := range cut {
			s.cutsOf[i] = append(s.cutsOf[i], k)
		}
	}
	return s
}

// canInclude reports whether item i can be added without breaking a row
func (s *state) canInclude(i int) bool {
	if s.status[i] != statusFree {
		return false
	}
	c := s.m.ClassOf[i]
	if s.classIn[c] >= s.m.Classes[c].Max {
		return false
	}
	if g := s.groupOf[c]; g >= 0 && s.groupIn[g] >= s.m.Groups[g].Total {
		return false
	}
	if s.weight+s.m.Weights[i] > s.m.Capacity+s.tol {
		return false
	}
	for _, k := range s.cutsOf[i] {
		if s.cutIn[k]+1 >= len(s.m.Cuts[k]) {
			return false
		}
	}
	return true
}

func (s *state) include(i int) {
	c := s.m.ClassOf[i]
	s.status[i] = statusIn
	s.classIn[c]++
	if g := s.groupOf[c]; g >= 0 {
		s.groupIn[g]++
	}
	for _, k := range s.cutsOf[i] {
		s.cutIn[k]++
	}
	s.value += s.m.Values[i]
	s.weight += s.m.Weights[i]
}

func (s *state) uninclude(i int) {
	c := s.m.ClassOf[i]
	s.status[i] = statusFree
	s.classIn[c]--
	if g := s.groupOf[c]; g >= 0 {
		s.groupIn[g]--
	}
	for _, k := range s.cutsOf[i] {
		s.cutIn[k]--
	}
	s.value -= s.m.Values[i]
	s.weight -= s.m.Weights[i]
}

// complete reports whether the selected items satisfy every cardinality row
func (s *state) complete() bool {
	for c, class := range s.m.Classes {
		if s.classIn[c] < class.Min || s.classIn[c] > class.Max {
			return false
		}
	}
	for g, group := range s.m.Groups {
		if s.groupIn[g] != group.Total {
			return false
		}
	}
	return true
}

// selected returns the included items in ascending order
func (s *state) selected() []int {
	out := make([]int, 0)
	for i, st := range s.status {
		if st == statusIn {
			out = append(out, i)
		}
	}
	return out
}

// structuralMax returns the largest Σ score(i) over free items that, added to
// the current selection, satisfies every class and group row. Capacity and
// cuts are ignored. The greedy is exact for this structure: mandatory
// minimums are taken from the top of each class, then each group's remaining
// total is filled from the best leftovers subject to class maximums.
func (s *state) structuralMax(score func(i int) float64) (float64, bool) {
	m := s.m
	byClass := make([][]float64, len(m.Classes))
	for i, st := range s.status {
		if st != statusFree {
			continue
		}
		c := m.ClassOf[i]
		byClass[c] = append(byClass[c], score(i))
	}

	total := 0.0
	need := make([]int, len(m.Classes))
	extraCap := make([]int, len(m.Classes))
	for c, class := range m.Classes {
		scores := byClass[c]
		sort.Sort(sort.Reverse(sort.Float64Slice(scores)))

		room := class.Max - s.classIn[c]
		if room < 0 {
			return 0, false
		}
		need[c] = class.Min - s.classIn[c]
		if need[c] < 0 {
			need[c] = 0
		}
		if need[c] > len(scores) || need[c] > room {
			return 0, false
		}
		for _, v := range scores[:need[c]] {
			total += v
		}
		extraCap[c] = room - need[c]
		if avail := len(scores) - need[c]; avail < extraCap[c] {
			extraCap[c] = avail
		}

		if s.groupOf[c] < 0 {
			for _, v := range scores[need[c] : need[c]+extraCap[c]] {
				if v <= 0 {
					break
				}
				total += v
			}
		}
	}

	for g, group := range m.Groups {
		extra := group.Total - s.groupIn[g]
		candidates := make([]float64, 0)
		for _, c := range group.Classes {
			extra -= need[c]
			candidates = append(candidates, byClass[c][need[c]:need[c]+extraCap[c]]...)
		}
		if extra < 0 || extra > len(candidates) {
			return 0, false
		}
		sort.Sort(sort.Reverse(sort.Float64Slice(candidates)))
		for _, v := range candidates[:extra] {
			total += v
		}
	}
	return total, true
}

// cheapestCompletion returns the minimum weight needed to complete the
// cardinality structure from the current selection.
func (s *state) cheapestCompletion() (float64, bool) {
	best, ok := s.structuralMax(func(i int) float64 { return -s.m.Weights[i] })
	if !ok {
		return 0, false
	}
	return -best, true
}

// lagrangian relaxes the capacity row with multiplier lambda >= 0. Any
// lambda yields a valid upper bound on the best completion.
func (s *state) lagrangian(lambda float64) (float64, bool) {
	g, ok := s.structuralMax(func(i int) float64 {
		return s.m.Values[i] - lambda*s.m.Weights[i]
	})
	if !ok {
		return math.Inf(-1), false
	}
	return s.value + lambda*(s.m.Capacity-s.weight) + g, true
}

// lagrangianBound searches the multiplier for a tight bound. The hint is
// evaluated first so most pruned nodes cost one greedy pass. Returns the
// bound, the multiplier that produced it and false when the structure cannot
// be completed.
func (s *state) lagrangianBound(hint, lambdaMax, incumbent float64, haveIncumbent bool) (float64, float64, bool) {
	best, ok := s.lagrangian(hint)
	if !ok {
		return 0, 0, false
	}
	bestLambda := hint
	if haveIncumbent && best < incumbent-s.tol {
		return best, bestLambda, true
	}

	consider := func(lambda float64) float64 {
		v, _ := s.lagrangian(lambda)
		if v < best {
			best, bestLambda = v, lambda
		}
		return v
	}

	// L(lambda) is convex and piecewise linear, golden section converges
	lo, hi := 0.0, lambdaMax
	consider(lo)
	a := hi - goldenRatio*(hi-lo)
	b := lo + goldenRatio*(hi-lo)
	fa, fb := consider(a), consider(b)
	for step := 0; step < lambdaSteps; step++ {
		if haveIncumbent && best < incumbent-s.tol {
			break
		}
		if fa <= fb {
			hi, b, fb = b, a, fa
			a = hi - goldenRatio*(hi-lo)
			fa = consider(a)
		} else {
			lo, a, fa = a, b, fb
			b = lo + goldenRatio*(hi-lo)
			fb = consider(b)
		}
	}
	return best, bestLambda, true
}

// multiplierCeiling bounds the multipliers worth searching: every breakpoint
// of L(lambda) lies below the spread of values divided by the smallest
// positive weight gap.
func multiplierCeiling(m *Model) float64 {
	if len(m.Values) == 0 {
		return 1
	}
	vmin, vmax := m.Values[0], m.Values[0]
	for _, v := range m.Values {
		vmin = math.Min(vmin, v)
		vmax = math.Max(vmax, v)
	}
	weights := append([]float64{0}, m.Weights...)
	sort.Float64s(weights)
	gap := math.Inf(1)
	for i := 1; i < len(weights); i++ {
		if d := weights[i] - weights[i-1]; d > 0 && d < gap {
			gap = d
		}
	}
	if math.IsInf(gap, 1) {
		return 1
	}
	spread := vmax - vmin + math.Max(math.Abs(vmax), math.Abs(vmin))
	return spread/gap + 1
}
