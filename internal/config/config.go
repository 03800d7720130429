// Package config manages application configuration.
package config

import "go.uber.org/zap"

// Config represents the application configuration.
type Config struct {
	Footnotes      FootnotesConfig `yaml:"footnotes"`
	Citations      CitationsConfig `yaml:"citations"`
	CacheDir       string          `yaml:"cache_dir"`
	OptimizeImages bool            `yaml:"optimize_images"`
}

// FootnotesConfig selects the footnote definition source and marker
// shape. The three source flags are nominally exclusive; when several
// are set, ResolveSource picks by fixed precedence.
type FootnotesConfig struct {
	EndOfBlock    bool   `yaml:"end_of_block"`
	ChildBlocks   bool   `yaml:"child_blocks"`
	BlockComments bool   `yaml:"block_comments"`
	MarkerPrefix  string `yaml:"marker_prefix"`
}

// CitationsConfig controls citation token detection and rendering.
type CitationsConfig struct {
	InTextFormat string   `yaml:"in_text_format"` // pandoc, latex, call
	Style        string   `yaml:"style"`          // apa, simplified-ieee
	Sources      []string `yaml:"sources"`        // bibliography file URLs
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Footnotes: FootnotesConfig{
			EndOfBlock:   true,
			MarkerPrefix: "ft_",
		},
		Citations: CitationsConfig{
			InTextFormat: "pandoc",
			Style:        "apa",
		},
		CacheDir:       ".notefoot-cache",
		OptimizeImages: true,
	}
}

// ResolveSource returns the active footnote source name, or "" when no
// source flag is set. Multiple flags resolve by fixed precedence
// (end-of-block, then child blocks, then block comments), warning
// about the flags that lose.
func (c FootnotesConfig) ResolveSource(logger *zap.Logger) string {
	var enabled []string
	if c.EndOfBlock {
		enabled = append(enabled, "end-of-block")
	}
	if c.ChildBlocks {
		enabled = append(enabled, "start-of-child-blocks")
	}
	if c.BlockComments {
		enabled = append(enabled, "block-comments")
	}
	switch len(enabled) {
	case 0:
		return ""
	case 1:
		return enabled[0]
	default:
		logger.Warn("multiple footnote sources enabled, using the first by precedence",
			zap.String("active", enabled[0]),
			zap.Strings("ignored", enabled[1:]))
		return enabled[0]
	}
}
