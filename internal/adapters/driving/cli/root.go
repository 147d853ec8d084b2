// Package cli provides the trustline command-line interface.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/creditrust-labs/trustline-cli/internal/logger"
)

// version is set by Execute from the build-time version string.
var version = "dev"

var (
	verboseFlag   bool
	configDirFlag string
	dataDirFlag   string
)

var rootCmd = &cobra.Command{
	Use:   "trustline",
	Short: "Grounded question answering over consumer complaint narratives",
	Long: `Trustline answers natural-language questions about consumer complaints.

Complaint narratives are ingested, chunked and embedded into a vector
index. Questions are answered by a language model constrained to the
retrieved complaint excerpts, with citations back to the complaints
the answer was grounded in.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verboseFlag)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false,
		"enable verbose logging to stderr")
	rootCmd.PersistentFlags().StringVar(&configDirFlag, "config-dir", "",
		"configuration directory (default ~/.trustline)")
	rootCmd.PersistentFlags().StringVar(&dataDirFlag, "data-dir", "",
		"data directory for the corpus and index (default ~/.trustline/data)")
}

// Execute runs the root command with the given build version.
func Execute(v string) error {
	if v != "" {
		version = v
	}
	return rootCmd.Execute()
}
