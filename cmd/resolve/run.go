package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/civigraph/resolve/internal/config"
	"github.com/civigraph/resolve/internal/core/dedupe"
	"github.com/civigraph/resolve/internal/core/model"
	"github.com/civigraph/resolve/internal/driver"
	"github.com/civigraph/resolve/internal/embed"
)

var runFlags struct {
	configPath    string
	entitiesPath  string
	relationsPath string
	groupID       string
	preset        string
	minScore      float64
	workers       int
	useEmbeddings bool
	writeBack     bool
	outPath       string
	reportPath    string
	verbose       bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run entity deduplication",
	Long: `Run deduplication over an entity/relationship graph read either from
JSON files (--entities/--relationships) or from the configured graph store
(--group).`,
	RunE: runDedup,
}

func init() {
	runCmd.Flags().StringVarP(&runFlags.configPath, "config", "c", "", "path to TOML config file")
	runCmd.Flags().StringVarP(&runFlags.entitiesPath, "entities", "e", "", "path to entities JSON file")
	runCmd.Flags().StringVarP(&runFlags.relationsPath, "relationships", "r", "", "path to relationships JSON file")
	runCmd.Flags().StringVarP(&runFlags.groupID, "group", "g", "", "group id to load from the graph store")
	runCmd.Flags().StringVarP(&runFlags.preset, "preset", "p", "name_focused", "configuration preset (aggressive, conservative, name_focused)")
	runCmd.Flags().Float64Var(&runFlags.minScore, "min-score", 0, "override minimum combined score")
	runCmd.Flags().IntVarP(&runFlags.workers, "workers", "w", 0, "comparison worker count (0 = number of CPUs, 1 = sequential)")
	runCmd.Flags().BoolVar(&runFlags.useEmbeddings, "embeddings", false, "use the configured embedding provider for the semantic signal")
	runCmd.Flags().BoolVar(&runFlags.writeBack, "write-back", false, "apply merges back to the graph store (requires --group)")
	runCmd.Flags().StringVarP(&runFlags.outPath, "out", "o", "", "write deduplicated entities JSON to this path")
	runCmd.Flags().StringVar(&runFlags.reportPath, "report", "", "write the deduplication report JSON to this path")
	runCmd.Flags().BoolVarP(&runFlags.verbose, "verbose", "v", false, "verbose logging")

	rootCmd.AddCommand(runCmd)
}

func runDedup(cmd *cobra.Command, args []string) error {
	logger, err := newLogger(runFlags.verbose)
	if err != nil {
		return err
	}
	defer logger.Sync()

	cfg := loadAppConfig(runFlags.configPath, logger)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	groupID := runFlags.groupID
	if groupID == "" {
		groupID = cfg.Dedup.GroupID
	}
	entities, relationships, store, err := loadInput(ctx, cfg, logger,
		runFlags.entitiesPath, runFlags.relationsPath, groupID)
	if err != nil {
		return err
	}

	preset := runFlags.preset
	if !cmd.Flags().Changed("preset") && cfg.Dedup.Preset != "" {
		preset = cfg.Dedup.Preset
	}
	engineCfg, err := dedupe.PresetByName(preset)
	if err != nil {
		return err
	}
	if runFlags.minScore > 0 {
		engineCfg.MinCombinedScore = runFlags.minScore
	} else if cfg.Dedup.MinCombinedScore > 0 {
		engineCfg.MinCombinedScore = cfg.Dedup.MinCombinedScore
	}
	if runFlags.workers > 0 {
		engineCfg.Workers = runFlags.workers
	} else if cfg.Dedup.Workers > 0 {
		engineCfg.Workers = cfg.Dedup.Workers
	}

	opts := []dedupe.Option{dedupe.WithLogger(logger)}
	if runFlags.useEmbeddings || cfg.Dedup.UseEmbeddings {
		client, err := embed.NewClient(ctx, cfg.Embedding)
		if err != nil {
			return err
		}
		if client != nil {
			opts = append(opts, dedupe.WithEmbedder(client))
		}
	}

	engine, err := dedupe.New(engineCfg, opts...)
	if err != nil {
		return err
	}

	result, err := engine.Run(ctx, entities, relationships)
	if err != nil {
		return err
	}

	fmt.Printf("Deduplication complete: %d -> %d entities (%d merges)\n",
		result.Report.OriginalCount, result.Report.FinalCount, len(result.Report.Merges))

	if runFlags.writeBack {
		if store == nil || groupID == "" {
			return fmt.Errorf("--write-back requires --group and a configured graph store")
		}
		if err := store.ApplyMerges(ctx, groupID, result.Entities, result.Report.Merges); err != nil {
			return err
		}
		fmt.Println("Merges applied to the graph store")
	}

	if runFlags.outPath != "" {
		if err := writeJSON(runFlags.outPath, result.Entities); err != nil {
			return err
		}
	}
	if runFlags.reportPath != "" {
		if err := writeJSON(runFlags.reportPath, result.Report); err != nil {
			return err
		}
	}
	return nil
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	return cfg.Build()
}

func loadAppConfig(path string, logger *zap.Logger) *config.Config {
	if path == "" {
		return config.Default()
	}
	cfg, err := config.Load(path)
	if err != nil {
		logger.Warn("config file not loaded, using defaults", zap.String("path", path), zap.Error(err))
		return config.Default()
	}
	return cfg
}

// loadInput reads the graph from JSON files when given, otherwise from the
// configured graph store. The returned store is non-nil only for store-backed
// input.
func loadInput(ctx context.Context, cfg *config.Config, logger *zap.Logger, entitiesPath, relationsPath, groupID string) ([]model.Entity, []model.Relationship, *driver.Store, error) {
	if entitiesPath != "" {
		var entities []model.Entity
		if err := readJSON(entitiesPath, &entities); err != nil {
			return nil, nil, nil, err
		}
		var relationships []model.Relationship
		if relationsPath != "" {
			if err := readJSON(relationsPath, &relationships); err != nil {
				return nil, nil, nil, err
			}
		}
		return entities, relationships, nil, nil
	}

	if groupID == "" {
		return nil, nil, nil, fmt.Errorf("either --entities or --group is required")
	}
	d, err := driver.NewMemgraphDriver(cfg.Store.URI, cfg.Store.User, cfg.Store.Password, logger)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to connect to graph store: %w", err)
	}
	store := driver.NewStore(d)
	entities, relationships, err := store.LoadGraph(ctx, groupID)
	if err != nil {
		return nil, nil, nil, err
	}
	return entities, relationships, store, nil
}

func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
