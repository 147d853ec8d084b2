package cli

import (
	"github.com/spf13/cobra"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Manage the vector index",
}

var indexBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Chunk, embed and index the ingested corpus",
	Long: `Chunks every ingested narrative, embeds each chunk, builds the vector
index, persists it to the data directory, and publishes it. Rebuilding
with unchanged parameters and corpus is idempotent.`,
	Args: cobra.NoArgs,
	RunE: runIndexBuild,
}

var indexVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Load the persisted index and report its shape",
	Args:  cobra.NoArgs,
	RunE:  runIndexVerify,
}

func init() {
	indexCmd.AddCommand(indexBuildCmd)
	indexCmd.AddCommand(indexVerifyCmd)
	rootCmd.AddCommand(indexCmd)
}

func runIndexBuild(cmd *cobra.Command, _ []string) error {
	p, err := newPipeline(pipelineOptions{embedding: true})
	if err != nil {
		return err
	}
	defer p.Close()

	report, err := p.indexer.Build(cmd.Context())
	if err != nil {
		return err
	}

	cmd.Printf("Indexed %d document(s) as %d chunk(s).\n", report.Documents, report.Chunks)
	cmd.Printf("Dimension: %d  Metric: %s  Corpus version: %s\n",
		report.Dimension, report.Metric, report.CorpusVersion)
	return nil
}

func runIndexVerify(cmd *cobra.Command, _ []string) error {
	p, err := newPipeline(pipelineOptions{embedding: true})
	if err != nil {
		return err
	}
	defer p.Close()

	if err := p.indexer.LoadIndex(cmd.Context()); err != nil {
		return err
	}

	idx, err := p.handle.Acquire()
	if err != nil {
		return err
	}
	cmd.Printf("Index OK: %d vector(s), dimension %d, metric %s.\n",
		idx.Len(), idx.Dimensions(), idx.Metric())
	return nil
}
