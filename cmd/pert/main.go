package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/lilRK/PERT-Analysis/internal/analysis"
	"github.com/lilRK/PERT-Analysis/internal/config"
	"github.com/lilRK/PERT-Analysis/internal/intake"
	"github.com/lilRK/PERT-Analysis/internal/render"
	"github.com/lilRK/PERT-Analysis/internal/reporter"
	"github.com/lilRK/PERT-Analysis/internal/server"
	"github.com/lilRK/PERT-Analysis/internal/ui"
)

var (
	flagConfig  string
	flagVerbose bool
	flagJSON    bool

	cfg    *config.Config
	logger *zap.Logger
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "pert",
		Short: "PERT/CPM schedule analysis",
		Long: `pert reads a network of activities with three-point time estimates,
computes expected durations, earliest and latest start/finish times, slack
and the critical path, and renders forward pass, backward pass and critical
path diagrams. It runs as a one-shot CLI or as an HTTP service.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			path := flagConfig
			if path == "" {
				path = os.Getenv("PERT_CONFIG")
			}
			var err error
			cfg, err = config.Load(path)
			if err != nil {
				return err
			}

			logger, err = newLogger(cfg, flagVerbose)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file (YAML); defaults to $PERT_CONFIG")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Debug logging")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Machine-readable JSON output")

	rootCmd.AddCommand(analyzeCmd())
	rootCmd.AddCommand(vizCmd())
	rootCmd.AddCommand(serveCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s %s\n", ui.BoldRed("Error:"), err)
		os.Exit(1)
	}
}

func newLogger(c *config.Config, verbose bool) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if c.Log.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(c.LogLevel())
	if verbose {
		zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return zc.Build()
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func loadRequest(path string, deadline float64, deadlineSet bool) (*intake.Request, error) {
	req, err := intake.LoadFile(path)
	if err != nil {
		return nil, err
	}
	if deadlineSet {
		if err := intake.CheckDeadline(&deadline); err != nil {
			return nil, err
		}
		req.Deadline = &deadline
	}
	return req, nil
}

func analyzeCmd() *cobra.Command {
	var (
		flagOutDir   string
		flagOutput   string
		flagDeadline float64
	)

	cmd := &cobra.Command{
		Use:   "analyze FILE",
		Short: "Compute the schedule and critical path of a project file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := loadRequest(args[0], flagDeadline, cmd.Flags().Changed("deadline"))
			if err != nil {
				return err
			}

			ctx, cancel := signalContext()
			defer cancel()

			engine := analysis.New(logger, render.New(cfg.RenderOptions()))
			var report *analysis.Report
			if flagOutDir != "" {
				report, err = engine.Analyze(ctx, req)
			} else {
				report, err = engine.Schedule(ctx, req)
			}
			if err != nil {
				return describe(err)
			}

			rpt := reporter.New(report, args[0])

			if flagOutDir != "" {
				written, err := writeDiagrams(flagOutDir, report)
				if err != nil {
					return err
				}
				for _, path := range written {
					logger.Debug("diagram written", zap.String("path", path))
				}
			}

			if flagOutput != "" {
				data, err := rpt.JSON()
				if err != nil {
					return err
				}
				if err := os.WriteFile(flagOutput, data, 0644); err != nil {
					return fmt.Errorf("write report: %w", err)
				}
			}

			if flagJSON {
				data, err := rpt.JSON()
				if err != nil {
					return err
				}
				fmt.Println(string(data))
				return nil
			}

			ui.PrintBanner(os.Stderr)
			rpt.PrintSummary(os.Stdout)
			return nil
		},
	}

	cmd.Flags().StringVar(&flagOutDir, "out-dir", "", "Render diagrams as PNG files into this directory")
	cmd.Flags().StringVar(&flagOutput, "output", "", "Save the JSON report to file")
	cmd.Flags().Float64Var(&flagDeadline, "deadline", 0, "Target completion time for the probability estimate")

	return cmd
}

func vizCmd() *cobra.Command {
	var (
		flagFormat string
		flagKind   string
	)

	cmd := &cobra.Command{
		Use:   "viz FILE",
		Short: "Print the annotated activity graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := render.ParseKind(flagKind)
			if err != nil {
				return err
			}

			req, err := intake.LoadFile(args[0])
			if err != nil {
				return err
			}

			ctx, cancel := signalContext()
			defer cancel()

			report, err := analysis.New(logger, nil).Schedule(ctx, req)
			if err != nil {
				return describe(err)
			}

			switch flagFormat {
			case "dot":
				return render.WriteDOT(os.Stdout, kind, report.Graph, report.Result)
			case "ascii":
				printASCIIDAG(os.Stdout, report)
				return nil
			default:
				return fmt.Errorf("unknown format %q (valid: ascii, dot)", flagFormat)
			}
		},
	}

	cmd.Flags().StringVar(&flagFormat, "format", "ascii", "Output format (ascii, dot)")
	cmd.Flags().StringVar(&flagKind, "kind", "critical", "Diagram annotations for dot output (forward, backward, critical)")

	return cmd
}

func serveCmd() *cobra.Command {
	var flagAddr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP analysis service",
		RunE: func(cmd *cobra.Command, args []string) error {
			if flagAddr != "" {
				cfg.Server.Addr = flagAddr
			}

			ctx, cancel := signalContext()
			defer cancel()

			engine := analysis.New(logger, render.New(cfg.RenderOptions()))
			srv, err := server.New(cfg, engine, logger)
			if err != nil {
				return err
			}
			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVar(&flagAddr, "addr", "", "Listen address (default from config, :5000)")

	return cmd
}

// describe prefixes validation errors with their kind for terminal output.
func describe(err error) error {
	if ve, ok := analysis.AsValidation(err); ok {
		return fmt.Errorf("%s: %w", ve.Kind(), err)
	}
	return err
}

// --- Output helpers ---

// writeDiagrams writes one PNG per rendered diagram and returns the paths.
func writeDiagrams(dir string, report *analysis.Report) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	var written []string
	for _, d := range report.Diagrams {
		if d.Err != nil {
			continue
		}
		path := filepath.Join(dir, d.Kind.Key()+".png")
		if err := os.WriteFile(path, d.PNG, 0644); err != nil {
			return written, fmt.Errorf("write %s: %w", path, err)
		}
		written = append(written, path)
	}
	return written, nil
}

func printASCIIDAG(w io.Writer, report *analysis.Report) {
	g := report.Graph
	res := report.Result

	fmt.Fprintf(w, "%s\n", ui.BoldCyan("Activity Dependency Graph"))
	fmt.Fprintln(w, ui.Cyan("═════════════════════════"))
	fmt.Fprintln(w)

	for _, wave := range report.Waves {
		fmt.Fprintf(w, "%s Wave %d at t=%s %s\n", ui.Cyan("──"), wave.Index+1,
			reporter.Num(wave.Start), ui.Cyan("──────────────────────────"))
		for _, name := range wave.Activities {
			ts := res.Schedule(name)
			fmt.Fprintf(w, "  %s [%s] %s\n",
				ui.CriticalMark(res.OnCriticalPath(name), ts.IsCritical),
				ui.BoldMagenta(name),
				ui.Dim(fmt.Sprintf("%s, slack %s", reporter.Num(ts.Duration), reporter.Num(ts.Slack))))

			// Show edges
			for _, v := range g.Succ[g.Index[name]] {
				fmt.Fprintf(w, "      %s %s\n", ui.Dim("└──→"), g.Names[v])
			}
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Critical path: %s (duration %s)\n",
		ui.BoldRed(strings.Join(report.CriticalPath, " → ")), reporter.Num(report.TotalDuration))
}
