// Command specparam extracts candidate architectural parameters from
// specification text snippets by querying several independent generation
// backends and reconciling their answers into one confidence-scored list.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"specparam/internal/backend"
	"specparam/internal/config"
	"specparam/internal/consensus"
	"specparam/internal/credential"
	"specparam/internal/extract"
	"specparam/internal/logging"
	"specparam/internal/prompt"
	"specparam/internal/report"
	"specparam/internal/snippet"
)

var (
	configPath  string
	snippetsDir string
	outputDir   string
	strategies  []string
	verbose     bool

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "specparam",
	Short: "Multi-backend architectural parameter extractor",
	Long: `specparam extracts candidate architectural parameters (implementation-defined
or optional behaviors) from specification text snippets.

Each snippet is sent to every configured generation backend; the disagreeing
replies are reconciled into a single list where every parameter carries a
cross-backend agreement score. Low-agreement parameters are flagged for
review rather than dropped.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		logger, err = logging.New(verbose)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Run extraction over a snippets directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runExtract()
	},
}

var backendsCmd = &cobra.Command{
	Use:   "backends",
	Short: "List the configured backend roster",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		for _, b := range cfg.Backends {
			fmt.Printf("%s\tfamily=%s\tmodel=%s\tcredentials=%d\n",
				b.ID, b.Family, b.Model, len(b.ResolveCredentials()))
		}
		return nil
	},
}

var strategiesCmd = &cobra.Command{
	Use:   "strategies",
	Short: "List the available prompt strategies",
	Run: func(cmd *cobra.Command, args []string) {
		for _, id := range prompt.Available() {
			fmt.Println(id)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to YAML config (default: roster from environment)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	extractCmd.Flags().StringVarP(&snippetsDir, "snippets", "s", "snippets", "directory of .txt snippet files")
	extractCmd.Flags().StringVarP(&outputDir, "out", "o", "outputs", "directory for report files")
	extractCmd.Flags().StringSliceVar(&strategies, "strategy", []string{string(prompt.FewShot)}, "prompt strategies to run")

	rootCmd.AddCommand(extractCmd, backendsCmd, strategiesCmd)
}

func loadConfig() (config.Config, error) {
	if configPath != "" {
		return config.Load(configPath)
	}
	return config.Detect(), nil
}

// buildRoster turns backend configs into live roster entries.
func buildRoster(cfg config.Config) ([]extract.Backend, error) {
	roster := make([]extract.Backend, 0, len(cfg.Backends))
	for _, bc := range cfg.Backends {
		client, err := backend.NewClient(backend.Family(bc.Family), backend.Config{
			ID:      bc.ID,
			Model:   bc.Model,
			BaseURL: bc.BaseURL,
		})
		if err != nil {
			return nil, err
		}
		rotator, err := credential.NewRotator(bc.ResolveCredentials())
		if err != nil {
			return nil, fmt.Errorf("backend %s: %w", bc.ID, err)
		}
		roster = append(roster, extract.Backend{ID: bc.ID, Client: client, Credentials: rotator})
	}
	return roster, nil
}

func runExtract() error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	snippets, err := snippet.LoadDirectory(snippetsDir)
	if err != nil {
		return err
	}
	if len(snippets) == 0 {
		return fmt.Errorf("no .txt snippets found in %s", snippetsDir)
	}
	logger.Info("loaded snippets", zap.Int("count", len(snippets)), zap.String("dir", snippetsDir))

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := report.WriteInventoryCSV(filepath.Join(outputDir, "snippets_inventory.csv"), snippets); err != nil {
		return err
	}

	roster, err := buildRoster(cfg)
	if err != nil {
		return err
	}
	orchestrator, err := extract.NewOrchestrator(roster, cfg.RetryPolicy(), logger)
	if err != nil {
		return err
	}
	engine, err := consensus.NewEngine(cfg.Consensus.ConfidenceThreshold)
	if err != nil {
		return err
	}

	descriptors := make([]report.BackendDescriptor, 0, len(cfg.Backends))
	for _, b := range cfg.Backends {
		descriptors = append(descriptors, report.BackendDescriptor{ID: b.ID, Family: b.Family, Model: b.Model})
	}

	for _, s := range strategies {
		strategy := prompt.Strategy(strings.TrimSpace(s))
		logger.Info("running strategy",
			zap.String("strategy", string(strategy)),
			zap.Int("backends", len(roster)))

		runs, err := orchestrator.RunAll(ctx, snippets, strategy)
		if err != nil {
			return err
		}

		comparisonPath := filepath.Join(outputDir, fmt.Sprintf("comparison_%s.csv", strategy))
		if err := report.WriteComparisonCSV(comparisonPath, orchestrator.RosterIDs(), runs); err != nil {
			return err
		}

		var entries []consensus.Entry
		for _, results := range runs {
			entries = append(entries, engine.Reconcile(results)...)
		}

		summary := consensus.Summarize(entries)
		logger.Info("reconciled parameters",
			zap.String("strategy", string(strategy)),
			zap.Int("total", summary.TotalParameters),
			zap.Int("high", summary.HighConfidence),
			zap.Int("medium", summary.MediumConfidence),
			zap.Int("low", summary.LowConfidence))

		detailedPath := filepath.Join(outputDir, fmt.Sprintf("detailed_results_%s.csv", strategy))
		if err := report.WriteDetailedCSV(detailedPath, entries); err != nil {
			return err
		}

		meta := report.NewMetadata(string(strategy), descriptors, len(snippets))
		yamlPath := filepath.Join(outputDir, fmt.Sprintf("parameters_%s.yaml", strategy))
		if err := report.WriteParametersYAML(yamlPath, entries, meta); err != nil {
			return err
		}
	}

	logger.Info("extraction complete", zap.String("outputs", outputDir))
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
