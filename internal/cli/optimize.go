package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/stitts-dev/lineup-optimizer/internal/ingest"
	"github.com/stitts-dev/lineup-optimizer/internal/models"
	"github.com/stitts-dev/lineup-optimizer/internal/optimizer"
)

// constraintFlags are shared by optimize and validate
type constraintFlags struct {
	lineups   int
	locks     []string
	excludes  []string
	stack     string
	strategy  string
	policy    string
	salaryCap  int
	timeout    time.Duration
	candidates int
}

func (f *constraintFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&f.lineups, "lineups", "n", 1, "number of lineups to build")
	cmd.Flags().StringSliceVar(&f.locks, "lock", nil, "player id that must appear in every lineup (repeatable)")
	cmd.Flags().StringSliceVar(&f.excludes, "exclude", nil, "player id that must never appear (repeatable)")
	cmd.Flags().StringVar(&f.stack, "stack", "", "team to stack: its top QB plus two best pass catchers or backs")
	cmd.Flags().StringVar(&f.strategy, "strategy", "", "search strategy: exact, exhaustive or greedy (defaults to DEFAULT_STRATEGY)")
	cmd.Flags().StringVar(&f.policy, "policy", "", "diversity policy: disjoint or combination (defaults to DIVERSITY_POLICY)")
	cmd.Flags().IntVar(&f.salaryCap, "cap", 0, "salary cap (defaults to SALARY_CAP)")
	cmd.Flags().DurationVar(&f.timeout, "timeout", 0, "optimization deadline (defaults to OPTIMIZATION_TIMEOUT)")
	cmd.Flags().IntVar(&f.candidates, "candidates", 0, "feasible lineups the exhaustive strategy compares (defaults to EXHAUSTIVE_MAX_CANDIDATES)")
}

// prepared is a slate resolved into constraints and a strategy
type prepared struct {
	slate       *ingest.Slate
	pool        *models.Pool
	constraints *optimizer.Constraints
	strategy    optimizer.Strategy
	policy      optimizer.Policy
}

func (f *constraintFlags) prepare(ctx context.Context, opts *options, e *env) (*prepared, error) {
	slate, err := opts.loadSlate(ctx, e)
	if err != nil {
		return nil, err
	}
	pool, err := slate.Pool()
	if err != nil {
		return nil, err
	}

	salaryCap := e.cfg.SalaryCap
	if f.salaryCap > 0 {
		salaryCap = f.salaryCap
	}
	constraints, err := optimizer.BuildConstraints(pool, optimizer.ConstraintRequest{
		Template:  models.ClassicTemplate(),
		SalaryCap: salaryCap,
		Locks:     f.locks,
		Excludes:  f.excludes,
		StackTeam: f.stack,
	})
	if err != nil {
		return nil, err
	}

	policyName := f.policy
	if policyName == "" {
		policyName = e.cfg.DiversityPolicy
	}
	policy, err := optimizer.ParsePolicy(policyName)
	if err != nil {
		return nil, err
	}
	strategyName := f.strategy
	if strategyName == "" {
		strategyName = e.cfg.DefaultStrategy
	}
	candidates := e.cfg.ExhaustiveMaxCandidates
	if f.candidates > 0 {
		candidates = f.candidates
	}
	strategy, err := optimizer.NewStrategy(strategyName, optimizer.StrategyOptions{
		NodeLimit:     e.cfg.SolverNodeLimit,
		LPBound:       e.cfg.SolverLPBound,
		MaxIterations: e.cfg.ExhaustiveMaxIterations,
		MaxCandidates: candidates,
		Logger:        e.log,
	})
	if err != nil {
		return nil, err
	}

	return &prepared{slate: slate, pool: pool, constraints: constraints, strategy: strategy, policy: policy}, nil
}

func newOptimizeCmd(opts *options) *cobra.Command {
	flags := &constraintFlags{}
	cmd := &cobra.Command{
		Use:   "optimize",
		Short: "Generate the highest projected lineups for a slate",
		Example: `  lineupctl optimize --slate week1.csv -n 5 --stack KC
  lineupctl optimize --slate https://example.com/slate.csv --lock "Travis Kelce" -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.setup()
			if err != nil {
				return err
			}
			p, err := flags.prepare(cmd.Context(), opts, e)
			if err != nil {
				return err
			}

			timeout := e.cfg.Timeout()
			if flags.timeout > 0 {
				timeout = flags.timeout
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			result, err := optimizer.GenerateLineups(ctx, p.pool, p.constraints, optimizer.Request{
				NumLineups: flags.lineups,
				MaxLineups: e.cfg.MaxLineups,
				Policy:     p.policy,
				Strategy:   p.strategy,
				Progress: func(u optimizer.ProgressUpdate) {
					e.log.WithField("completed", u.Completed).Debug(u.Message)
				},
			})
			if err != nil {
				return err
			}

			if result.Partial {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", result.Reason)
			}
			if len(result.SharedPlayers) > 0 {
				fmt.Fprintf(cmd.ErrOrStderr(), "note: every lineup includes locked %s\n", strings.Join(result.SharedPlayers, ", "))
			}
			if opts.format == "json" {
				return writeJSON(cmd.OutOrStdout(), result)
			}
			return writeResultTable(cmd.OutOrStdout(), result)
		},
	}
	flags.register(cmd)
	return cmd
}

func newValidateCmd(opts *options) *cobra.Command {
	flags := &constraintFlags{}
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check locks, excludes and stacks against a slate without searching",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.setup()
			if err != nil {
				return err
			}
			p, err := flags.prepare(cmd.Context(), opts, e)
			if err != nil {
				return err
			}

			if opts.format == "json" {
				return writeJSON(cmd.OutOrStdout(), map[string]interface{}{
					"valid":       true,
					"pool_size":   p.pool.Len(),
					"strategy":    p.strategy.Name(),
					"policy":      p.policy,
					"constraints": p.constraints,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "valid: %d players, cap %d, %d locked, %d excluded, strategy %s, policy %s\n",
				p.pool.Len(), p.constraints.SalaryCap, len(p.constraints.Locked), len(p.constraints.Excluded), p.strategy.Name(), p.policy)
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}
