package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/notefoot/notefoot/internal/bib"
	"github.com/notefoot/notefoot/internal/block"
	"github.com/notefoot/notefoot/internal/citation"
	"github.com/notefoot/notefoot/internal/config"
	"github.com/notefoot/notefoot/internal/footnote"
)

var (
	extractOutput     string
	extractComments   string
	extractAssetsDir  string
	extractFetch      bool
	extractWorkers    int
	extractPrettyJSON bool
)

var extractCmd = &cobra.Command{
	Use:   "extract <blocks.json>",
	Short: "Extract footnotes and citations from a block document",
	Long: `Reads a JSON block document, runs footnote and citation extraction
over every block and prints the rewritten blocks together with the
extracted footnote and citation records.

The input is either a JSON array of blocks or an object with a
"blocks" array. With --fetch the configured bibliography sources are
fetched first; otherwise the cached combined snapshot is used.

Examples:
  notefoot extract page.json
  notefoot extract page.json -o extracted.json
  notefoot extract page.json --fetch
  notefoot extract page.json --comments comments.json`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().StringVarP(&extractOutput, "output", "o", "", "output file path (default: stdout)")
	extractCmd.Flags().StringVar(&extractComments, "comments", "", "JSON file with per-block comment records")
	extractCmd.Flags().StringVar(&extractAssetsDir, "assets-dir", "", "directory for downloaded comment attachments")
	extractCmd.Flags().BoolVar(&extractFetch, "fetch", false, "fetch bibliography sources before extracting")
	extractCmd.Flags().IntVar(&extractWorkers, "workers", 4, "concurrent block workers")
	extractCmd.Flags().BoolVar(&extractPrettyJSON, "pretty", true, "indent JSON output")

	rootCmd.AddCommand(extractCmd)
}

// extractResult is the output document. Citations lists every
// occurrence in block order; References is the deduplicated,
// style-ordered reference list.
type extractResult struct {
	Blocks     []*block.Block       `json:"blocks"`
	Footnotes  []footnote.Footnote  `json:"footnotes"`
	Citations  []citation.Citation  `json:"citations"`
	References []citation.Formatted `json:"references,omitempty"`
}

func runExtract(cmd *cobra.Command, args []string) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	blocks, err := readBlocks(args[0])
	if err != nil {
		return err
	}
	logger.Info("document loaded", zap.Int("blocks", len(blocks)))

	bibliography, err := loadBibliography(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}

	source, err := buildFootnoteSource(cfg, logger)
	if err != nil {
		return err
	}

	result := processBlocks(cmd.Context(), blocks, source, cfg, bibliography, logger)
	logger.Info("extraction finished",
		zap.Int("footnotes", len(result.Footnotes)),
		zap.Int("citations", len(result.Citations)))
	assignCitationIndexes(result)
	result.References = buildReferences(result.Citations, bibliography, cfg.Citations.Style)

	return writeResult(result)
}

// readBlocks accepts either a bare JSON array of blocks or an object
// wrapping one under "blocks".
func readBlocks(path string) ([]*block.Block, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var blocks []*block.Block
	if err := json.Unmarshal(data, &blocks); err == nil {
		return blocks, nil
	}
	var doc struct {
		Blocks []*block.Block `json:"blocks"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return doc.Blocks, nil
}

// loadBibliography returns the resolved entry map: a fresh multi-source
// fetch with --fetch, otherwise the cached combined snapshot of the
// last 'bib fetch'. No bibliography is not an error; citation tokens
// are then simply left unresolved.
func loadBibliography(ctx context.Context, cfg *config.Config, logger *zap.Logger) (map[string]bib.Entry, error) {
	cache, err := bib.NewCache(cfg.CacheDir, logger)
	if err != nil {
		return nil, err
	}
	if extractFetch && len(cfg.Citations.Sources) > 0 {
		return bib.NewPipeline(cache, logger).FetchAll(ctx, cfg.Citations.Sources), nil
	}
	if entries, ok := cache.Combined(); ok {
		return entries, nil
	}
	if len(cfg.Citations.Sources) > 0 {
		logger.Warn("no cached bibliography; run 'notefoot bib fetch' or pass --fetch")
	}
	return map[string]bib.Entry{}, nil
}

// buildFootnoteSource resolves the configured footnote strategy. A nil
// source means footnote extraction is disabled.
func buildFootnoteSource(cfg *config.Config, logger *zap.Logger) (footnote.Source, error) {
	name := cfg.Footnotes.ResolveSource(logger)
	if name == "" {
		return nil, nil
	}

	var provider footnote.CommentsProvider
	if name == footnote.SourceNameComments {
		if extractComments == "" {
			logger.Warn("block-comments source active but --comments not given; blocks keep their markers")
		} else {
			p, err := newFileCommentsProvider(extractComments)
			if err != nil {
				return nil, err
			}
			provider = p
		}
	}

	var downloader footnote.Downloader
	if extractAssetsDir != "" {
		downloader = newHTTPDownloader(extractAssetsDir)
	}

	return footnote.NewSource(name, cfg.Footnotes.MarkerPrefix, provider, downloader, cfg.OptimizeImages, logger), nil
}

// blockOutcome collects one worker's results, keyed by block position
// so aggregate order stays deterministic.
type blockOutcome struct {
	footnotes []footnote.Footnote
	citations []citation.Citation
}

// processBlocks runs extraction across a bounded worker pool. Blocks
// are independent units of work; the bibliography map is read-only.
func processBlocks(ctx context.Context, blocks []*block.Block, source footnote.Source, cfg *config.Config, bibliography map[string]bib.Entry, logger *zap.Logger) *extractResult {
	citExtractor := citation.NewExtractor(cfg.Citations.InTextFormat, cfg.Citations.Style, bibliography, logger)

	outcomes := make([]blockOutcome, len(blocks))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(extractWorkers)
	for i, b := range blocks {
		i, b := i, b
		g.Go(func() error {
			// Comment listing has no timeout of its own; bound it here.
			blockCtx, cancel := context.WithTimeout(gctx, 30*time.Second)
			defer cancel()

			var o blockOutcome
			if source != nil {
				o.footnotes = source.Extract(blockCtx, b)
			}
			o.citations = citExtractor.ExtractBlock(b)
			for ci := range o.citations {
				o.citations[ci].SourceBlockIDs = []string{b.ID}
			}

			mu.Lock()
			outcomes[i] = o
			mu.Unlock()
			return nil
		})
	}
	g.Wait()

	result := &extractResult{Blocks: blocks}
	for _, o := range outcomes {
		result.Footnotes = append(result.Footnotes, o.footnotes...)
		result.Citations = append(result.Citations, o.citations...)
	}
	return result
}

// assignCitationIndexes numbers citations by first appearance across
// the whole document and merges the source block IDs per key.
func assignCitationIndexes(result *extractResult) {
	indexByKey := make(map[string]int)
	blocksByKey := make(map[string][]string)
	next := 1
	for _, c := range result.Citations {
		if _, seen := indexByKey[c.Key]; !seen {
			indexByKey[c.Key] = next
			next++
		}
		blocksByKey[c.Key] = append(blocksByKey[c.Key], c.SourceBlockIDs...)
	}
	for i := range result.Citations {
		result.Citations[i].Index = indexByKey[result.Citations[i].Key]
		result.Citations[i].SourceBlockIDs = blocksByKey[result.Citations[i].Key]
	}
}

// buildReferences deduplicates the citation occurrences by key and
// renders the reference list in the style's order.
func buildReferences(citations []citation.Citation, bibliography map[string]bib.Entry, style string) []citation.Formatted {
	seen := make(map[string]bool)
	var unique []citation.Citation
	for _, c := range citations {
		if seen[c.Key] {
			continue
		}
		seen[c.Key] = true
		unique = append(unique, c)
	}

	prepared := citation.PrepareBibliography(unique, style)
	refs := make([]citation.Formatted, 0, len(prepared))
	for _, c := range prepared {
		refs = append(refs, citation.FormatCitation(bibliography[c.Key], style))
	}
	return refs
}

func writeResult(result *extractResult) error {
	var (
		data []byte
		err  error
	)
	if extractPrettyJSON {
		data, err = json.MarshalIndent(result, "", "  ")
	} else {
		data, err = json.Marshal(result)
	}
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}

	if extractOutput == "" {
		fmt.Println(string(data))
		return nil
	}
	if err := os.WriteFile(extractOutput, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", extractOutput, err)
	}
	return nil
}
