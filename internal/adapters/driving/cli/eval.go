package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/creditrust-labs/trustline-cli/internal/core/domain"
)

var evalJSON bool

var evalCmd = &cobra.Command{
	Use:   "eval [questions.json]",
	Short: "Score the pipeline against a question set",
	Long: `Runs a fixed set of questions through the full answering pipeline and
classifies each answer against its expected topic. The question file is
a JSON array of {id, question, expected_topic} objects.`,
	Args: cobra.ExactArgs(1),
	RunE: runEval,
}

func init() {
	evalCmd.Flags().BoolVar(&evalJSON, "json", false, "output the full report as JSON")
	rootCmd.AddCommand(evalCmd)
}

func runEval(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading question set: %w", err)
	}

	var questions []domain.EvalQuestion
	if err := json.Unmarshal(data, &questions); err != nil {
		return fmt.Errorf("%w: parsing question set: %v", domain.ErrInvalidInput, err)
	}
	if len(questions) == 0 {
		return fmt.Errorf("%w: question set is empty", domain.ErrInvalidInput)
	}

	p, err := newPipeline(pipelineOptions{embedding: true, generation: true})
	if err != nil {
		return err
	}
	defer p.Close()

	if err := p.indexer.LoadIndex(cmd.Context()); err != nil {
		return fmt.Errorf("%w (run 'trustline index build' first)", err)
	}

	report, err := p.evaluator.Evaluate(cmd.Context(), questions)
	if err != nil {
		return err
	}

	if evalJSON {
		out, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal report: %w", err)
		}
		cmd.Println(string(out))
		return nil
	}

	cmd.Printf("Evaluated %d question(s):\n", len(report.Rows))
	for _, class := range []domain.EvalClass{
		domain.EvalGroundedCorrect,
		domain.EvalGroundedIncomplete,
		domain.EvalUngrounded,
		domain.EvalRefused,
		domain.EvalErrored,
	} {
		if n := report.Counts[class]; n > 0 {
			cmd.Printf("  %-20s %d\n", class, n)
		}
	}

	cmd.Println()
	for _, row := range report.Rows {
		cmd.Printf("  [%s] %s: %s\n", row.Class, row.Question.ID, row.Question.Question)
		if row.Err != "" {
			cmd.Printf("      error: %s\n", row.Err)
		}
	}
	return nil
}
