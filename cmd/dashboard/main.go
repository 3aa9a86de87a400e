package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	verbose bool
	logger  = zap.NewNop()
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "dashboard",
		Short:        "Embodied carbon and activity dashboards for Speckle building models",
		SilenceUsage: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			config := zap.NewProductionConfig()
			if verbose {
				config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}
			var err error
			logger, err = config.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(validateCmd())
	rootCmd.AddCommand(analyzeCmd())
	rootCmd.AddCommand(tagCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(insightsCmd())
	rootCmd.AddCommand(spaceCmd())
	rootCmd.AddCommand(historyCmd())
	rootCmd.AddCommand(serveCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [project-path]",
		Short: "Validate a project spec",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runValidate(args[0])
		},
	}
}

// analyzeOptions selects the model tree to aggregate: a local file or a
// configured model fetched from the server.
type analyzeOptions struct {
	input  string
	model  string
	strict bool
}

func (o *analyzeOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.input, "input", "i", "", "Read the model tree from a local JSON file instead of the server")
	cmd.Flags().StringVarP(&o.model, "model", "m", "", "Configured model name to fetch")
	cmd.Flags().BoolVar(&o.strict, "strict", false, "Fail on categories missing from the mapping")
	cmd.MarkFlagsMutuallyExclusive("input", "model")
	cmd.MarkFlagsOneRequired("input", "model")
}

func analyzeCmd() *cobra.Command {
	var (
		opts   analyzeOptions
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "analyze [project-path]",
		Short: "Compute volume, mass, and embodied carbon per element category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd.Context(), args[0], opts, asJSON)
		},
	}

	opts.bind(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")
	return cmd
}

func tagCmd() *cobra.Command {
	var input, output string

	cmd := &cobra.Command{
		Use:   "tag [project-path]",
		Short: "Attach material, density, and embodied carbon tags to every element",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runTag(args[0], input, output)
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "Model tree JSON file")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the tagged tree here (default stdout)")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func exportCmd() *cobra.Command {
	var (
		opts   analyzeOptions
		format string
		output string
	)

	cmd := &cobra.Command{
		Use:   "export [project-path]",
		Short: "Export the analysis as an XLSX workbook or PDF report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd.Context(), args[0], opts, format, output)
		},
	}

	opts.bind(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", "xlsx", "Export format: xlsx or pdf")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default <model>.<format>)")
	return cmd
}

func insightsCmd() *cobra.Command {
	var team string

	cmd := &cobra.Command{
		Use:   "insights [project-path]",
		Short: "Summarize project activity by team, connector, and contributor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInsights(cmd.Context(), args[0], team)
		},
	}

	cmd.Flags().StringVarP(&team, "team", "t", "", "Only list models of this team")
	return cmd
}

func spaceCmd() *cobra.Command {
	var (
		totalArea float64
		category  string
	)

	cmd := &cobra.Command{
		Use:   "space [project-path]",
		Short: "Distribute the plot area across uses and estimate the population",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runSpace(args[0], totalArea, category)
		},
	}

	cmd.Flags().Float64VarP(&totalArea, "total-area", "a", 0, "Plot area in m² (default from project spec)")
	cmd.Flags().StringVarP(&category, "category", "c", "", "Only list sub-categories of this category")
	return cmd
}

func historyCmd() *cobra.Command {
	var (
		model    string
		limit    int
		category string
	)

	cmd := &cobra.Command{
		Use:   "history [project-path]",
		Short: "List recorded analysis runs of a model, or the carbon trend of one category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd.Context(), args[0], model, limit, category)
		},
	}

	cmd.Flags().StringVarP(&model, "model", "m", "", "Configured model name")
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Maximum runs to list (0 for all)")
	cmd.Flags().StringVarP(&category, "category", "c", "", "Show the embodied carbon of this category across runs")
	_ = cmd.MarkFlagRequired("model")
	return cmd
}

func serveCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve [project-path]",
		Short: "Start the dashboard API server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), args[0], port)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 3000, "HTTP server port")
	return cmd
}
