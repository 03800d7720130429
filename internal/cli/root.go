// Package cli implements the notefoot command line interface.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/notefoot/notefoot/internal/config"
)

var (
	version = "dev"

	rootConfigPath string
	rootVerbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "notefoot",
	Short: "Extract footnotes and citations from block documents",
	Long: `notefoot scans a tree of rich text blocks, extracts footnote
definitions and citation tokens, and rewrites the blocks so inline
markers become addressable reference spans.

Footnote definitions can live at the end of a block's own text, at the
start of its child blocks, or in out-of-band comments; the active
source is selected in the configuration file. Citations are resolved
against cached bibliography files fetched with 'notefoot bib fetch'.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the notefoot version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "notefoot", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootConfigPath, "config", "", "config file path (default: ~/.notefoot/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&rootVerbose, "verbose", "v", false, "verbose logging")

	rootCmd.AddCommand(versionCmd)
}

// SetVersion sets the version string reported by the version command.
func SetVersion(v string) {
	version = v
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// newLogger builds the CLI logger; verbose mode (the --verbose flag or
// NOTEFOOT_VERBOSE) switches to the human-readable development encoder
// with debug level.
func newLogger() (*zap.Logger, error) {
	if rootVerbose || config.GetEnvBool("NOTEFOOT_VERBOSE") {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.DisableStacktrace = true
	return cfg.Build()
}

// loadConfig loads the configuration from the --config path or the
// default location.
func loadConfig() (*config.Config, error) {
	if rootConfigPath != "" {
		return config.NewLoaderWithPath(rootConfigPath).Load()
	}
	loader, err := config.NewLoader()
	if err != nil {
		return nil, err
	}
	return loader.Load()
}
