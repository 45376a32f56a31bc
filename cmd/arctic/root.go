package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/ctitools/arctic"
	"github.com/ctitools/arctic/internal/config"
	"github.com/ctitools/arctic/internal/metrics"
)

// app carries the persistent flags and per-invocation state shared by the
// subcommands.
type app struct {
	verbosity   int
	workers     int
	metricsFile string

	metrics *metrics.Metrics
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "arctic",
		Short: "Add or remove CCD charge transfer inefficiency trails",
		Long: `arctic models the trapping, release and movement of charge as a CCD is
read out, adding the resulting trails to an image or iteratively removing
them.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			arctic.SetLogger(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
				Level: slog.LevelDebug,
			})))
			if a.metricsFile != "" {
				a.metrics = metrics.New()
			}
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.metrics == nil {
				return nil
			}
			return a.metrics.WriteTextfile(a.metricsFile)
		},
	}

	flags := root.PersistentFlags()
	flags.IntVarP(&a.verbosity, "verbosity", "v", 1, "diagnostics: 0 silent, 1 standard, 2 extra detail")
	flags.IntVarP(&a.workers, "workers", "j", 0, "goroutines clocking columns (0 uses every CPU)")
	flags.StringVar(&a.metricsFile, "metrics-file", "", "write Prometheus metrics to this textfile on success")

	root.AddCommand(
		newAddCmd(a),
		newRemoveCmd(a),
		newDemoCmd(a),
		newBenchmarkCmd(a),
		newVersionCmd(),
	)
	return root
}

// resolve applies command-line overrides to c. Flags win over the
// environment and the file only when given explicitly.
func (a *app) resolve(cmd *cobra.Command, c *config.Config) error {
	if cmd.Flags().Changed("verbosity") {
		c.Verbosity = a.verbosity
	}
	if cmd.Flags().Changed("workers") {
		c.Workers = a.workers
	}
	return c.Validate()
}

// options returns the arctic call options for c, plus the recorder when
// metrics are enabled.
func (a *app) options(c config.Config) []arctic.Option {
	opts := c.Options()
	if a.metrics != nil {
		opts = append(opts, arctic.WithRecorder(a.metrics))
	}
	return opts
}

// printer formats human-readable numbers with thousands separators.
func printer() *message.Printer {
	return message.NewPrinter(language.English)
}

// summarize prints the shape and total charge of img.
func summarize(w io.Writer, label string, img *arctic.Image) {
	printer().Fprintf(w, "%s: %d x %d pixels, %.2f electrons\n", label, img.Rows(), img.Cols(), img.Sum())
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the arctic version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "arctic %s\n", arctic.Version)
		},
	}
}
