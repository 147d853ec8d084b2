package cli

import (
	"github.com/spf13/cobra"

	"github.com/creditrust-labs/trustline-cli/internal/adapters/driven/config/file"
	"github.com/creditrust-labs/trustline-cli/internal/core/domain"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage pipeline configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration file",
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	store, err := file.NewConfigStore(configDirFlag)
	if err != nil {
		return err
	}

	cfg, err := store.Load()
	if err != nil {
		return err
	}
	providers, err := store.LoadProviders()
	if err != nil {
		return err
	}

	cmd.Printf("Config file: %s\n\n", store.Path())
	cmd.Printf("chunk_size:               %d\n", cfg.ChunkSize)
	cmd.Printf("chunk_overlap:            %d\n", cfg.ChunkOverlap)
	cmd.Printf("embedding_dimension:      %d\n", cfg.EmbeddingDimension)
	cmd.Printf("distance_metric:          %s\n", cfg.DistanceMetric)
	cmd.Printf("embedding_model:          %s\n", cfg.EmbeddingModel)
	cmd.Printf("top_k:                    %d\n", cfg.TopK)
	cmd.Printf("max_context_size:         %d\n", cfg.MaxContextSize)
	cmd.Printf("min_similarity_threshold: %g\n", cfg.MinSimilarity)
	cmd.Printf("generation_timeout:       %s\n", cfg.GenerationTimeout)
	cmd.Printf("overfetch_factor:         %d\n", cfg.OverfetchFactor)
	cmd.Printf("dedup_overlap:            %g\n", cfg.DedupOverlap)
	cmd.Printf("embed_concurrency:        %d\n", cfg.EmbedConcurrency)
	cmd.Printf("corpus_version:           %s\n\n", cfg.CorpusVersion())
	cmd.Printf("embedding provider:       %s\n", providers.Embedding.Provider)
	cmd.Printf("llm provider:             %s\n", providers.LLM.Provider)
	return nil
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	store, err := file.NewConfigStore(configDirFlag)
	if err != nil {
		return err
	}

	if err := store.Save(domain.DefaultConfig()); err != nil {
		return err
	}
	cmd.Printf("Wrote default configuration to %s\n", store.Path())
	return nil
}
