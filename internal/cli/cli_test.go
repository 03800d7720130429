package cli

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/notefoot/notefoot/internal/bib"
	"github.com/notefoot/notefoot/internal/block"
	"github.com/notefoot/notefoot/internal/citation"
)

func TestSetVersion(t *testing.T) {
	oldVersion := version
	defer func() { version = oldVersion }()

	SetVersion("1.2.3")
	if version != "1.2.3" {
		t.Errorf("expected version '1.2.3', got '%s'", version)
	}
}

func TestRootCommand(t *testing.T) {
	if rootCmd.Use != "notefoot" {
		t.Errorf("expected Use 'notefoot', got '%s'", rootCmd.Use)
	}
	if rootCmd.Short == "" {
		t.Error("expected Short description to be set")
	}
}

func TestVersionCommand(t *testing.T) {
	if versionCmd.Use != "version" {
		t.Errorf("expected Use 'version', got '%s'", versionCmd.Use)
	}
	if versionCmd.Short == "" {
		t.Error("expected Short description to be set")
	}
}

func TestExtractCommandFlags(t *testing.T) {
	if extractCmd.Use != "extract <blocks.json>" {
		t.Errorf("expected Use 'extract <blocks.json>', got '%s'", extractCmd.Use)
	}

	flags := []string{"output", "comments", "assets-dir", "fetch", "workers", "pretty"}
	for _, flag := range flags {
		if extractCmd.Flags().Lookup(flag) == nil {
			t.Errorf("expected flag '%s' to exist", flag)
		}
	}
}

func TestBibCommand(t *testing.T) {
	if bibCmd.Use != "bib" {
		t.Errorf("expected Use 'bib', got '%s'", bibCmd.Use)
	}

	found := false
	for _, cmd := range bibCmd.Commands() {
		if cmd.Name() == "fetch" {
			found = true
			break
		}
	}
	if !found {
		t.Error("expected subcommand 'fetch' to exist")
	}
}

func TestConfigCommand(t *testing.T) {
	if configCmd.Use != "config" {
		t.Errorf("expected Use 'config', got '%s'", configCmd.Use)
	}

	subcommands := []string{"show", "init", "set", "path"}
	for _, name := range subcommands {
		found := false
		for _, cmd := range configCmd.Commands() {
			if cmd.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("expected subcommand '%s' to exist", name)
		}
	}
}

func TestContains(t *testing.T) {
	slice := []string{"a", "b", "c"}

	if !contains(slice, "a") {
		t.Error("expected contains(slice, 'a') to be true")
	}
	if contains(slice, "d") {
		t.Error("expected contains(slice, 'd') to be false")
	}
	if contains([]string{}, "a") {
		t.Error("expected contains(empty, 'a') to be false")
	}
}

func TestReadBlocks(t *testing.T) {
	dir := t.TempDir()

	blocks := []*block.Block{
		block.NewParagraph("hello"),
	}
	blocks[0].ID = "b1"

	// Bare array form.
	arrayPath := filepath.Join(dir, "array.json")
	data, err := json.Marshal(blocks)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(arrayPath, data, 0644); err != nil {
		t.Fatal(err)
	}
	got, err := readBlocks(arrayPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].ID != "b1" {
		t.Errorf("expected 1 block with ID 'b1', got %+v", got)
	}

	// Wrapped object form.
	wrappedPath := filepath.Join(dir, "wrapped.json")
	wrapped, err := json.Marshal(map[string]any{"blocks": blocks})
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(wrappedPath, wrapped, 0644); err != nil {
		t.Fatal(err)
	}
	got, err = readBlocks(wrappedPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].ID != "b1" {
		t.Errorf("expected 1 block with ID 'b1', got %+v", got)
	}

	if _, err := readBlocks(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestAssignCitationIndexes(t *testing.T) {
	result := &extractResult{
		Citations: []citation.Citation{
			{Key: "smith2021", SourceBlockIDs: []string{"b1"}},
			{Key: "jones2020", SourceBlockIDs: []string{"b1"}},
			{Key: "smith2021", SourceBlockIDs: []string{"b3"}},
		},
	}
	assignCitationIndexes(result)

	if result.Citations[0].Index != 1 || result.Citations[1].Index != 2 {
		t.Errorf("expected first-appearance indexes 1 and 2, got %d and %d",
			result.Citations[0].Index, result.Citations[1].Index)
	}
	if result.Citations[2].Index != 1 {
		t.Errorf("expected repeated key to keep index 1, got %d", result.Citations[2].Index)
	}
	if len(result.Citations[0].SourceBlockIDs) != 2 {
		t.Errorf("expected merged source blocks for smith2021, got %v", result.Citations[0].SourceBlockIDs)
	}
}

func TestBuildReferences(t *testing.T) {
	bibliography := map[string]bib.Entry{
		"smith2021": {Key: "smith2021", Authors: "Smith", Year: "2021", APA: "Smith (2021). Title.", IEEE: "Smith, \"Title,\" 2021."},
		"abel2019":  {Key: "abel2019", Authors: "Abel", Year: "2019", APA: "Abel (2019). Other.", IEEE: "Abel, \"Other,\" 2019."},
	}
	citations := []citation.Citation{
		{Key: "smith2021", Authors: "Smith", Index: 1},
		{Key: "abel2019", Authors: "Abel", Index: 2},
		{Key: "smith2021", Authors: "Smith", Index: 1},
	}

	refs := buildReferences(citations, bibliography, citation.StyleAPA)
	if len(refs) != 2 {
		t.Fatalf("expected 2 deduplicated references, got %d", len(refs))
	}
	if refs[0].Authors != "Abel" || refs[1].Authors != "Smith" {
		t.Errorf("expected author order Abel, Smith, got %s, %s", refs[0].Authors, refs[1].Authors)
	}
	if refs[0].InText != "Abel, 2019" {
		t.Errorf("expected APA in-text 'Abel, 2019', got %q", refs[0].InText)
	}

	refs = buildReferences(citations, bibliography, citation.StyleIEEE)
	if refs[0].Authors != "Smith" || refs[1].Authors != "Abel" {
		t.Errorf("expected index order Smith, Abel, got %s, %s", refs[0].Authors, refs[1].Authors)
	}
}

func TestFileCommentsProvider(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "comments.json")
	content := `{"b1": [{"rich_text": [{"type": "text", "plain_text": "note", "text": {"content": "note"}}]}]}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	p, err := newFileCommentsProvider(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	comments, err := p.List(context.Background(), "b1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(comments) != 1 {
		t.Fatalf("expected 1 comment, got %d", len(comments))
	}

	comments, err = p.List(context.Background(), "unknown")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(comments) != 0 {
		t.Errorf("expected no comments for unknown block, got %d", len(comments))
	}
}
