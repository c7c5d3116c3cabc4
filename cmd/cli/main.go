package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"topowave/adapters/excel"
	"topowave/adapters/postgres"
	"topowave/adapters/rng"
	"topowave/app"
	"topowave/domain/run"
	"topowave/internal"
	"topowave/internal/gw"
	"topowave/internal/migration"
	"topowave/internal/testkit"
	"topowave/ports"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "topowave-cli",
		Short: "Topological gravitational-wave detection runs from the command line",
	}

	rootCmd.AddCommand(
		newGenerateCmd(),
		newDetectCmd(),
		newListCmd(),
		newExportCmd(),
		newPreviewCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// runFlags collects the generator and pipeline parameters shared by
// detect and preview.
type runFlags struct {
	signals  int
	samples  int
	snrMin   float64
	snrMax   float64
	snrSteps int
	template string

	embedDim    int
	embedDelay  int
	embedStride int
	pca         int
	workers     int

	seed        int64
	databaseURL string
	autoParams  bool
}

func (f *runFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.signals, "signals", 200, "Number of series to generate")
	cmd.Flags().IntVar(&f.samples, "samples", 2048, "Samples per series")
	cmd.Flags().Float64Var(&f.snrMin, "snr-min", 0.075, "Lower bound of the injection SNR grid")
	cmd.Flags().Float64Var(&f.snrMax, "snr-max", 0.65, "Upper bound of the injection SNR grid")
	cmd.Flags().IntVar(&f.snrSteps, "snr-steps", 10, "Number of SNR grid steps")
	cmd.Flags().StringVar(&f.template, "template", "", "Waveform template file (synthetic chirp when empty)")
	cmd.Flags().IntVar(&f.embedDim, "embedding-dimension", 30, "Takens embedding dimension")
	cmd.Flags().IntVar(&f.embedDelay, "embedding-delay", 30, "Takens embedding delay")
	cmd.Flags().IntVar(&f.embedStride, "embedding-stride", 5, "Takens embedding stride")
	cmd.Flags().IntVar(&f.pca, "pca-components", 3, "Principal components kept before classification")
	cmd.Flags().IntVar(&f.workers, "workers", 4, "Parallel workers for the homology stage")
	cmd.Flags().Int64Var(&f.seed, "seed", 42, "Random seed for deterministic runs")
	cmd.Flags().StringVar(&f.databaseURL, "database-url", "", "Persist runs to PostgreSQL (in-memory when empty)")
	cmd.Flags().BoolVar(&f.autoParams, "auto-params", false, "Derive embedding delay and dimension from the data")
}

func (f *runFlags) generatorConfig() run.GeneratorConfig {
	return run.GeneratorConfig{
		SignalCount:  f.signals,
		SampleCount:  f.samples,
		SNRMin:       f.snrMin,
		SNRMax:       f.snrMax,
		SNRSteps:     f.snrSteps,
		TemplatePath: f.template,
	}
}

func (f *runFlags) pipelineConfig() run.PipelineConfig {
	return run.PipelineConfig{
		EmbeddingDimension: f.embedDim,
		EmbeddingDelay:     f.embedDelay,
		EmbeddingStride:    f.embedStride,
		HomologyDimensions: []int{0, 1},
		PCAComponents:      f.pca,
		Workers:            f.workers,
	}
}

// resolvePipeline returns the pipeline config, replacing the embedding
// delay and dimension with searched values when --auto-params is set.
func (f *runFlags) resolvePipeline(ctx context.Context, service *app.DetectionService) (run.PipelineConfig, error) {
	pipe := f.pipelineConfig()
	if !f.autoParams {
		return pipe, nil
	}
	delay, dimension, err := service.SuggestEmbeddingParams(ctx, f.generatorConfig(), f.seed)
	if err != nil {
		return run.PipelineConfig{}, err
	}
	pipe.EmbeddingDelay = delay
	pipe.EmbeddingDimension = dimension
	return pipe, nil
}

// buildService wires a detection service against PostgreSQL when a
// database URL is given, or the in-memory repository otherwise.
func buildService(ctx context.Context, databaseURL string) (*app.DetectionService, func(), error) {
	logger := internal.DefaultLogger
	rngAdapter := rng.NewAdapter()

	var runs ports.RunRepository = testkit.NewTestKit().RunRepository()
	cleanup := func() {}

	if databaseURL != "" {
		db, err := sqlx.Connect("postgres", databaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := migration.NewMigrator(db, logger).Up(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("migration failed: %w", err)
		}
		runs = postgres.NewRunRepository(db)
		cleanup = func() { db.Close() }
	}

	service := app.NewDetectionService(
		gw.NewGenerator(rngAdapter),
		runs,
		rngAdapter,
		app.DefaultClassifierConfig(),
		logger,
	)
	return service, cleanup, nil
}

func newGenerateCmd() *cobra.Command {
	flags := &runFlags{}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a synthetic dataset and print its summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			set, err := gw.NewGenerator(rng.NewAdapter()).Generate(
				cmd.Context(), flags.generatorConfig(), flags.seed)
			if err != nil {
				return err
			}
			return printJSON(map[string]interface{}{
				"dataset_id": set.ID,
				"seed":       set.Seed,
				"series":     set.Len(),
				"samples":    len(set.Noisy[0]),
				"events":     set.EventCount(),
				"meta":       set.Meta,
			})
		},
	}
	flags.register(cmd)
	return cmd
}

func newDetectCmd() *cobra.Command {
	flags := &runFlags{}

	cmd := &cobra.Command{
		Use:   "detect",
		Short: "Run the detection pipeline end to end",
		Long: `Generate a synthetic gravitational-wave dataset, run the topological
pipeline (Takens embedding, Vietoris-Rips persistence, persistence
entropy features, PCA) and train the classifier.

Example: topowave-cli detect --signals 200 --seed 42`,
		RunE: func(cmd *cobra.Command, args []string) error {
			service, cleanup, err := buildService(cmd.Context(), flags.databaseURL)
			if err != nil {
				return err
			}
			defer cleanup()

			pipe, err := flags.resolvePipeline(cmd.Context(), service)
			if err != nil {
				return err
			}
			dr, err := service.Execute(cmd.Context(), flags.generatorConfig(), pipe, flags.seed)
			if err != nil {
				return err
			}
			return printJSON(dr)
		},
	}
	flags.register(cmd)
	return cmd
}

func newListCmd() *cobra.Command {
	var databaseURL string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored detection runs, most recent first",
		RunE: func(cmd *cobra.Command, args []string) error {
			if databaseURL == "" {
				return fmt.Errorf("--database-url is required")
			}
			service, cleanup, err := buildService(cmd.Context(), databaseURL)
			if err != nil {
				return err
			}
			defer cleanup()

			runs, err := service.ListRuns(cmd.Context(), limit, 0)
			if err != nil {
				return err
			}
			return printJSON(runs)
		},
	}
	cmd.Flags().StringVar(&databaseURL, "database-url", "", "PostgreSQL connection string")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to list")
	return cmd
}

func newExportCmd() *cobra.Command {
	var databaseURL string
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export stored runs as an Excel report",
		RunE: func(cmd *cobra.Command, args []string) error {
			if databaseURL == "" {
				return fmt.Errorf("--database-url is required")
			}
			service, cleanup, err := buildService(cmd.Context(), databaseURL)
			if err != nil {
				return err
			}
			defer cleanup()

			runs, err := service.ListRuns(cmd.Context(), 0, 0)
			if err != nil {
				return err
			}
			if err := excel.NewReportWriter().Write(runs, out); err != nil {
				return err
			}
			fmt.Printf("Wrote %d runs to %s\n", len(runs), out)
			return nil
		},
	}
	cmd.Flags().StringVar(&databaseURL, "database-url", "", "PostgreSQL connection string")
	cmd.Flags().StringVar(&out, "out", "runs-report.xlsx", "Output file path")
	return cmd
}

func newPreviewCmd() *cobra.Command {
	flags := &runFlags{}
	var index int
	var kind string

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Inspect the embedding or persistence diagram of one series",
		Long: `Generate the configured dataset and print either the delay-embedded
point cloud or the persistence diagram of a single series.

Example: topowave-cli preview --kind diagram --index 3`,
		RunE: func(cmd *cobra.Command, args []string) error {
			service, cleanup, err := buildService(cmd.Context(), "")
			if err != nil {
				return err
			}
			defer cleanup()

			pipe, err := flags.resolvePipeline(cmd.Context(), service)
			if err != nil {
				return err
			}

			switch kind {
			case "embedding":
				cloud, err := service.EmbeddingPreview(cmd.Context(),
					flags.generatorConfig(), pipe, flags.seed, index)
				if err != nil {
					return err
				}
				return printJSON(map[string]interface{}{"index": index, "points": cloud})
			case "diagram":
				preview, err := service.DiagramPreview(cmd.Context(),
					flags.generatorConfig(), pipe, flags.seed, index)
				if err != nil {
					return err
				}
				return printJSON(preview)
			default:
				return fmt.Errorf("unknown preview kind %q (use embedding or diagram)", kind)
			}
		},
	}
	flags.register(cmd)
	cmd.Flags().IntVar(&index, "index", 0, "Series index to preview")
	cmd.Flags().StringVar(&kind, "kind", "embedding", "What to preview: embedding or diagram")
	return cmd
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
