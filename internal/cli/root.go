package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/stitts-dev/lineup-optimizer/internal/ingest"
	"github.com/stitts-dev/lineup-optimizer/pkg/config"
	"github.com/stitts-dev/lineup-optimizer/pkg/logger"
)

// options are the flags shared by every subcommand
type options struct {
	slate    string
	logLevel string
	format   string
}

// NewRootCmd builds the lineupctl command tree
func NewRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "lineupctl",
		Short:         "Build DFS NFL lineups from a projection slate",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.slate, "slate", "s", "", "slate CSV file or http(s) URL (defaults to SLATE_URL / SLATE_FILE)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level")
	root.PersistentFlags().StringVarP(&opts.format, "output", "o", "table", "output format: table or json")

	root.AddCommand(newOptimizeCmd(opts), newValidateCmd(opts), newPlayersCmd(opts))
	return root
}

// Execute runs the CLI.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return NewRootCmd().ExecuteContext(ctx)
}

// env is what every subcommand needs after flag parsing
type env struct {
	cfg *config.Config
	log *logrus.Entry
}

func (o *options) setup() (*env, error) {
	if o.format != "table" && o.format != "json" {
		return nil, fmt.Errorf("unknown output format %q", o.format)
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger.InitLogger(o.logLevel, cfg.LogFormat, false)
	return &env{cfg: cfg, log: logger.WithService("lineupctl")}, nil
}

// loadSlate reads the slate named by --slate or the configured source
func (o *options) loadSlate(ctx context.Context, e *env) (*ingest.Slate, error) {
	fetcher := ingest.NewFetcher(e.cfg.ExternalAPITimeout, e.cfg.CircuitBreakerThreshold, e.log).
		WithRateLimit(e.cfg.SlateFetchRate, e.cfg.SlateFetchBurst)

	src := ingest.NewSource(fetcher, e.cfg.SlateURL, e.cfg.SlateFile)
	if o.slate != "" {
		if strings.HasPrefix(o.slate, "http://") || strings.HasPrefix(o.slate, "https://") {
			src = ingest.NewSource(fetcher, o.slate, "")
		} else {
			src = ingest.NewSource(fetcher, "", o.slate)
		}
	}

	slate, err := src.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load slate: %w", err)
	}
	return slate, nil
}
