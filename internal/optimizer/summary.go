package optimizer

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/stitts-dev/lineup-optimizer/internal/models"
)

// Summary describes a generated lineup set
type Summary struct {
	Count          int                `json:"count"`
	MeanProjection float64            `json:"mean_projection"`
	StdProjection  float64            `json:"std_projection"`
	MinProjection  float64            `json:"min_projection"`
	MaxProjection  float64            `json:"max_projection"`
	MeanSalary     float64            `json:"mean_salary"`
	Exposure       map[string]float64 `json:"exposure"` // player id -> share of lineups
}

// Summarize computes projection statistics and player exposure
func Summarize(lineups []models.Lineup) Summary {
	summary := Summary{Count: len(lineups), Exposure: make(map[string]float64)}
	if len(lineups) == 0 {
		return summary
	}

	projections := make([]float64, len(lineups))
	salaries := make([]float64, len(lineups))
	for i, l := range lineups {
		projections[i] = l.TotalProjection
		salaries[i] = float64(l.TotalSalary)
		for _, s := range l.Slots {
			summary.Exposure[s.Player.ID]++
		}
	}

	summary.MinProjection = floats.Min(projections)
	summary.MaxProjection = floats.Max(projections)
	summary.MeanSalary = stat.Mean(salaries, nil)
	if len(lineups) > 1 {
		summary.MeanProjection, summary.StdProjection = stat.MeanStdDev(projections, nil)
	} else {
		summary.MeanProjection = projections[0]
	}

	n := float64(len(lineups))
	for id, count := range summary.Exposure {
		summary.Exposure[id] = count / n
	}
	return summary
}
