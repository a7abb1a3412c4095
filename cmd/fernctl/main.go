// Command fernctl runs the matching core offline: YAML case files, single names, dong
// names and lot numbers. Matching thresholds come from the same MATCH_* settings as the
// service.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Ramsey-B/fern/config"
	"github.com/Ramsey-B/fern/pkg/aptname"
	"github.com/Ramsey-B/fern/pkg/bunji"
	"github.com/Ramsey-B/fern/pkg/casefile"
	"github.com/Ramsey-B/fern/pkg/dongname"
	"github.com/Ramsey-B/fern/pkg/matching"
	"github.com/Ramsey-B/fern/pkg/namecache"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

type options struct {
	parallel int
	verbose  bool
}

func newRootCommand() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:          "fernctl",
		Short:        "Run apartment matching offline",
		SilenceUsage: true,
	}
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log at debug level")

	run := &cobra.Command{
		Use:   "run <case-file>...",
		Short: "Run YAML match case files and report failed expectations",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCases(cmd.Context(), cmd.OutOrStdout(), opts, args)
		},
	}
	run.Flags().IntVarP(&opts.parallel, "parallel", "p", 4, "cases evaluated concurrently")

	name := &cobra.Command{
		Use:   "name <apartment-name>",
		Short: "Show how an apartment name is processed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeJSON(cmd.OutOrStdout(), aptname.Process(args[0]))
		},
	}

	dong := &cobra.Command{
		Use:   "dong <dong-name>",
		Short: "List the lookup forms of a dong name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeJSON(cmd.OutOrStdout(), dongname.Extract(args[0]))
		},
	}

	lot := &cobra.Command{
		Use:   "bunji <lot-number>",
		Short: "Normalize a lot number",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeJSON(cmd.OutOrStdout(), bunji.Normalize(args[0]))
		},
	}

	root.AddCommand(run, name, dong, lot)
	return root
}

func runCases(ctx context.Context, out io.Writer, opts *options, paths []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := newLogger(opts.verbose)
	if err != nil {
		return err
	}

	files := make([]*casefile.File, 0, len(paths))
	for _, path := range paths {
		file, err := casefile.Load(path)
		if err != nil {
			return err
		}
		files = append(files, file)
	}

	// one-shot run, nothing to evict
	names := aptname.NewProcessor(namecache.MustNew[aptname.ProcessedName](0))
	runner := casefile.NewRunner(
		matching.NewMatcher(names, cfg.Matching()),
		matching.NewAddressMatcher(cfg.Matching()),
		logger,
	)

	report, err := runner.Run(ctx, files, opts.parallel)
	if err != nil {
		return err
	}
	if err := writeJSON(out, report); err != nil {
		return err
	}
	if report.Failed > 0 {
		return fmt.Errorf("%d of %d cases failed", report.Failed, report.Total)
	}
	return nil
}

func newLogger(verbose bool) (ectologger.Logger, error) {
	zapConfig := zap.NewDevelopmentConfig()
	zapConfig.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	if verbose {
		zapConfig.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	zapLogger, err := zapConfig.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return zapadapter.NewZapEctoLogger(zapLogger, nil), nil
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
