package solver

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

// lpBound solves the linear relaxation of the remaining subproblem with the
// simplex method. ok is false when the relaxation could not be solved; the
// caller then keeps the Lagrangian bound.
func (s *state) lpBound() (bound float64, ok bool) {
	m := s.m
	free := make([]int, 0, len(s.status))
	for i, st := range s.status {
		if st == statusFree {
			free = append(free, i)
		}
	}
	if len(free) == 0 {
		return s.value, s.complete()
	}
	column := make(map[int]int, len(free))
	for j, i := range free {
		column[i] = j
	}

	nVar := len(free)
	c := make([]float64, nVar)
	for j, i := range free {
		c[j] = -m.Values[i]
	}

	// Inequality rows: capacity, 0 <= x <= 1, class bounds, cuts
	var rows [][]float64
	var h []float64
	addRow := func(row []float64, rhs float64) {
		rows = append(rows, row)
		h = append(h, rhs)
	}

	capRow := make([]float64, nVar)
	for j, i := range free {
		capRow[j] = m.Weights[i]
	}
	addRow(capRow, m.Capacity-s.weight)

	for j := range free {
		upper := make([]float64, nVar)
		upper[j] = 1
		addRow(upper, 1)
		lower := make([]float64, nVar)
		lower[j] = -1
		addRow(lower, 0)
	}

	for cls, class := range m.Classes {
		maxRow := make([]float64, nVar)
		minRow := make([]float64, nVar)
		members := 0
		for j, i := range free {
			if m.ClassOf[i] == cls {
				maxRow[j] = 1
				minRow[j] = -1
				members++
			}
		}
		room := float64(class.Max - s.classIn[cls])
		need := float64(class.Min - s.classIn[cls])
		if members == 0 {
			if need > 0 || room < 0 {
				return 0, false
			}
			continue
		}
		addRow(maxRow, room)
		if need > 0 {
			addRow(minRow, -need)
		}
	}

	for k, cut := range m.Cuts {
		row := make([]float64, nVar)
		members := 0
		for _, i := range cut {
			if j, isFree := column[i]; isFree {
				row[j] = 1
				members++
			}
		}
		if members == 0 {
			continue
		}
		addRow(row, float64(len(cut)-1-s.cutIn[k]))
	}

	// Equality rows: group totals
	var eqRows [][]float64
	var b []float64
	for g, group := range m.Groups {
		row := make([]float64, nVar)
		members := 0
		inGroup := make(map[int]bool, len(group.Classes))
		for _, cls := range group.Classes {
			inGroup[cls] = true
		}
		for j, i := range free {
			if inGroup[m.ClassOf[i]] {
				row[j] = 1
				members++
			}
		}
		rhs := float64(group.Total - s.groupIn[g])
		if members == 0 {
			if rhs != 0 {
				return 0, false
			}
			continue
		}
		eqRows = append(eqRows, row)
		b = append(b, rhs)
	}

	G := mat.NewDense(len(rows), nVar, flatten(rows))
	var A mat.Matrix
	if len(eqRows) > 0 {
		A = mat.NewDense(len(eqRows), nVar, flatten(eqRows))
	}

	cStd, aStd, bStd := lp.Convert(c, G, h, A, b)
	optF, _, err := lp.Simplex(cStd, aStd, bStd, 1e-9, nil)
	if err != nil {
		return 0, false
	}
	return s.value - optF, true
}

func flatten(rows [][]float64) []float64 {
	if len(rows) == 0 {
		return nil
	}
	out := make([]float64, 0, len(rows)*len(rows[0]))
	for _, r := range rows {
		out = append(out, r...)
	}
	return out
}
