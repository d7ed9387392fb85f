package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/stitts-dev/lineup-optimizer/internal/optimizer"
)

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeResultTable(out io.Writer, result *optimizer.Result) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for i, lineup := range result.Lineups {
		fmt.Fprintf(w, "Lineup %d (%s)\tsalary %d\tprojection %.2f\n", i+1, lineup.ID, lineup.TotalSalary, lineup.TotalProjection)
		fmt.Fprintln(w, "SLOT\tPLAYER\tTEAM\tSALARY\tPROJ")
		for _, slot := range lineup.Slots {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.2f\n", slot.Slot, slot.Player.Name, slot.Player.Team, slot.Player.Salary, slot.Player.Projection)
		}
		fmt.Fprintln(w)
	}

	s := result.Summary
	fmt.Fprintf(w, "%d lineups via %s/%s in %s\n", s.Count, result.Strategy, result.Policy, result.Duration.Round(time.Millisecond))
	if s.Count > 0 {
		fmt.Fprintf(w, "projection mean %.2f sd %.2f min %.2f max %.2f\n", s.MeanProjection, s.StdProjection, s.MinProjection, s.MaxProjection)
	}
	if len(s.Exposure) > 0 && s.Count > 1 {
		ids := make([]string, 0, len(s.Exposure))
		for id := range s.Exposure {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool {
			if s.Exposure[ids[i]] != s.Exposure[ids[j]] {
				return s.Exposure[ids[i]] > s.Exposure[ids[j]]
			}
			return ids[i] < ids[j]
		})
		fmt.Fprintln(w, "EXPOSURE\tPLAYER")
		for _, id := range ids {
			fmt.Fprintf(w, "%.0f%%\t%s\n", s.Exposure[id]*100, id)
		}
	}
	return w.Flush()
}
