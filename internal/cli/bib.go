package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/notefoot/notefoot/internal/bib"
)

var bibCmd = &cobra.Command{
	Use:   "bib",
	Short: "Manage cached bibliography files",
}

var bibFetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch and cache the configured bibliography sources",
	Long: `Downloads every bibliography source URL from the configuration,
parses the entries (CSL-JSON or BibTeX) and stores them in the local
cache. Sources that publish an update timestamp are probed first and
only re-downloaded when they changed.`,
	RunE: runBibFetch,
}

func init() {
	bibCmd.AddCommand(bibFetchCmd)
	rootCmd.AddCommand(bibCmd)
}

func runBibFetch(cmd *cobra.Command, args []string) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	if len(cfg.Citations.Sources) == 0 {
		return fmt.Errorf("no bibliography sources configured; add citations.sources to %s", configPathHint())
	}

	cache, err := bib.NewCache(cfg.CacheDir, logger)
	if err != nil {
		return err
	}
	entries := bib.NewPipeline(cache, logger).FetchAll(cmd.Context(), cfg.Citations.Sources)

	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%d entries from %d sources\n", len(entries), len(cfg.Citations.Sources))
	for _, k := range keys {
		e := entries[k]
		fmt.Fprintf(out, "  %s: %s (%s)\n", k, e.Authors, e.Year)
	}
	return nil
}

func configPathHint() string {
	if rootConfigPath != "" {
		return rootConfigPath
	}
	return "~/.notefoot/config.yaml"
}
