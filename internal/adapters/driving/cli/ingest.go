package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/creditrust-labs/trustline-cli/internal/core/domain"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file]",
	Short: "Ingest cleaned complaint narratives",
	Long: `Reads complaint records as JSON lines, one object per line, and stores
them in the local corpus. With no file argument, records are read from
standard input.

Each record carries: id, product, company, submitted_at, narrative.
Malformed records are rejected individually; the batch only fails when
every record does.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

// ingestRecord is the JSON-lines input shape for one complaint.
type ingestRecord struct {
	ID          string `json:"id"`
	Product     string `json:"product"`
	Company     string `json:"company"`
	SubmittedAt string `json:"submitted_at"`
	Narrative   string `json:"narrative"`
}

func runIngest(cmd *cobra.Command, args []string) error {
	var in io.Reader = cmd.InOrStdin()
	if len(args) == 1 {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("opening input: %w", err)
		}
		defer f.Close()
		in = f
	}

	docs, parseRejected, err := readRecords(in)
	if err != nil {
		return err
	}
	if len(docs) == 0 && len(parseRejected) == 0 {
		return fmt.Errorf("%w: no records in input", domain.ErrInvalidInput)
	}

	p, err := newPipeline(pipelineOptions{embedding: true})
	if err != nil {
		return err
	}
	defer p.Close()

	report, err := p.indexer.Ingest(cmd.Context(), docs)
	if err != nil {
		return err
	}

	for id, reason := range parseRejected {
		report.Rejected[id] = reason
	}

	cmd.Printf("Ingested %d document(s).\n", report.Ingested)
	if len(report.Rejected) > 0 {
		cmd.Printf("Rejected %d record(s):\n", len(report.Rejected))
		ids := make([]string, 0, len(report.Rejected))
		for id := range report.Rejected {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			cmd.Printf("  %s: %s\n", id, report.Rejected[id])
		}
	}
	return nil
}

// readRecords parses JSON lines into documents. Lines that fail to
// parse are recorded per-line rather than aborting the batch.
func readRecords(in io.Reader) ([]domain.Document, map[string]string, error) {
	rejected := make(map[string]string)
	var docs []domain.Document

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		var rec ingestRecord
		if err := json.Unmarshal([]byte(text), &rec); err != nil {
			rejected[fmt.Sprintf("line %d", line)] = fmt.Sprintf("invalid JSON: %v", err)
			continue
		}

		doc := domain.Document{
			ID:        rec.ID,
			Product:   rec.Product,
			Company:   rec.Company,
			Narrative: rec.Narrative,
		}
		if rec.SubmittedAt != "" {
			t, err := parseDate(rec.SubmittedAt)
			if err != nil {
				rejected[recordKey(rec.ID, line)] = fmt.Sprintf("invalid submitted_at: %v", err)
				continue
			}
			doc.SubmittedAt = t
		}
		docs = append(docs, doc)
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("reading input: %w", err)
	}

	return docs, rejected, nil
}

func recordKey(id string, line int) string {
	if id != "" {
		return id
	}
	return fmt.Sprintf("line %d", line)
}

// parseDate accepts a bare date or a full RFC 3339 timestamp.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}
