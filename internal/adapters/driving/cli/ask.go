package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/creditrust-labs/trustline-cli/internal/core/domain"
)

var (
	askTopK   int
	askStream bool
	askJSON   bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about the complaint corpus",
	Long: `Answers a natural-language question using only retrieved complaint
excerpts. Each answer lists the complaints it was grounded in; when no
excerpt is similar enough to the question, the answer states that the
records don't contain enough information.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().IntVarP(&askTopK, "top-k", "k", 0, "number of excerpts to retrieve (default from config)")
	askCmd.Flags().BoolVar(&askStream, "stream", false, "print the answer as it is generated")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := args[0]

	p, err := newPipeline(pipelineOptions{embedding: true, generation: true})
	if err != nil {
		return err
	}
	defer p.Close()

	if err := p.indexer.LoadIndex(cmd.Context()); err != nil {
		return fmt.Errorf("%w (run 'trustline index build' first)", err)
	}

	// Streamed output and JSON output are mutually exclusive; JSON needs
	// the complete answer.
	if askStream && !askJSON {
		return runAskStreaming(cmd, p, question)
	}

	answer, err := p.answerer.Ask(cmd.Context(), question, askTopK)
	if err != nil {
		return err
	}

	if askJSON {
		return outputAnswerJSON(cmd, answer)
	}

	cmd.Println(answer.Text)
	printCitations(cmd, answer)
	return nil
}

func runAskStreaming(cmd *cobra.Command, p *pipeline, question string) error {
	stream, err := p.answerer.AskStream(cmd.Context(), question, askTopK)
	if err != nil {
		return err
	}

	for delta := range stream.Increments {
		cmd.Print(delta)
	}
	cmd.Println()

	answer, err := stream.Wait()
	if err != nil {
		return err
	}
	printCitations(cmd, answer)
	return nil
}

func outputAnswerJSON(cmd *cobra.Command, answer domain.Answer) error {
	data, err := json.MarshalIndent(answer, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal answer: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func printCitations(cmd *cobra.Command, answer domain.Answer) {
	if len(answer.Citations) == 0 {
		return
	}

	cmd.Println()
	cmd.Println("Sources:")
	for i, c := range answer.Citations {
		cmd.Printf("  [%d] complaint %s (%.2f)", i+1, c.DocumentID, c.Score)
		if c.Product != "" {
			cmd.Printf(" - %s", c.Product)
		}
		cmd.Println()
		if c.Snippet != "" {
			cmd.Printf("      %s\n", c.Snippet)
		}
	}
}
