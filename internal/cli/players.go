package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/stitts-dev/lineup-optimizer/internal/models"
)

func newPlayersCmd(opts *options) *cobra.Command {
	var position, team string
	cmd := &cobra.Command{
		Use:   "players",
		Short: "List the players of a slate by projection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.setup()
			if err != nil {
				return err
			}
			var pos models.Position
			if position != "" {
				if pos, err = models.ParsePosition(position); err != nil {
					return err
				}
			}
			team = strings.ToUpper(strings.TrimSpace(team))

			slate, err := opts.loadSlate(cmd.Context(), e)
			if err != nil {
				return err
			}

			players := make([]models.Player, 0, len(slate.Players))
			for _, p := range slate.Players {
				if (pos == "" || p.Position == pos) && (team == "" || p.Team == team) {
					players = append(players, p)
				}
			}
			models.SortByProjection(players)

			if opts.format == "json" {
				return writeJSON(cmd.OutOrStdout(), map[string]interface{}{
					"players": players,
					"report":  slate.Report,
				})
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTEAM\tPOS\tSALARY\tPROJ")
			for _, p := range players {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.2f\n", p.ID, p.Team, p.Position, p.Salary, p.Projection)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			if slate.Report.Dropped > 0 {
				fmt.Fprintf(cmd.ErrOrStderr(), "dropped %d of %d rows: %v\n", slate.Report.Dropped, slate.Report.Rows, slate.Report.Reasons)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&position, "position", "", "only list this position")
	cmd.Flags().StringVar(&team, "team", "", "only list this team")
	return cmd
}
