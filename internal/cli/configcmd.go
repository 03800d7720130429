package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/notefoot/notefoot/internal/config"
	"github.com/notefoot/notefoot/internal/footnote"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `Manages the notefoot configuration.

Config file location: ~/.notefoot/config.yaml

Subcommands:
  show    display the effective configuration
  init    create a default config file
  set     change a config value
  path    print the config file path`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Display the effective configuration",
	Long: `Displays the configuration that commands will use, with ${VAR}
environment references already expanded. Without a config file the
defaults are shown.`,
	RunE: runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default config file",
	Long: `Creates a default config file at ~/.notefoot/config.yaml.

Fails if a config file already exists; pass --force to overwrite it.`,
	RunE: runConfigInit,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change a config value",
	Long: `Changes a configuration value.

Supported keys:
  footnotes.source         footnote source (end-of-block, start-of-child-blocks, block-comments)
  footnotes.marker_prefix  marker prefix inside [^...] tokens
  citations.in_text_format in-text token format (pandoc, latex, call)
  citations.style          bibliography style (apa, simplified-ieee)
  cache_dir                bibliography cache directory

Examples:
  notefoot config set footnotes.source block-comments
  notefoot config set citations.style simplified-ieee`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file path",
	Run: func(cmd *cobra.Command, args []string) {
		loader, err := newConfigLoader()
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "error: %v\n", err)
			return
		}
		fmt.Fprintln(cmd.OutOrStdout(), loader.ConfigPath())
	},
}

var configForce bool

func init() {
	configInitCmd.Flags().BoolVarP(&configForce, "force", "f", false, "overwrite an existing config file")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configPathCmd)

	rootCmd.AddCommand(configCmd)
}

// newConfigLoader honors the global --config flag.
func newConfigLoader() (*config.Loader, error) {
	if rootConfigPath != "" {
		return config.NewLoaderWithPath(rootConfigPath), nil
	}
	return config.NewLoader()
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	loader, err := newConfigLoader()
	if err != nil {
		return fmt.Errorf("initializing config loader: %w", err)
	}

	cfg, err := loader.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	if loader.Exists() {
		fmt.Fprintf(cmd.OutOrStdout(), "config file: %s\n\n", loader.ConfigPath())
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "config file: (using defaults)\n\n")
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("rendering configuration: %w", err)
	}
	fmt.Fprint(cmd.OutOrStdout(), string(data))
	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	loader, err := newConfigLoader()
	if err != nil {
		return fmt.Errorf("initializing config loader: %w", err)
	}

	if loader.Exists() && !configForce {
		return fmt.Errorf("config file already exists: %s\nuse --force to overwrite", loader.ConfigPath())
	}

	if err := loader.Save(config.DefaultConfig()); err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "config file created: %s\n", loader.ConfigPath())
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key := args[0]
	value := args[1]

	loader, err := newConfigLoader()
	if err != nil {
		return fmt.Errorf("initializing config loader: %w", err)
	}

	cfg, err := loader.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	switch key {
	case "footnotes.source":
		validSources := []string{
			footnote.SourceNameEndOfBlock,
			footnote.SourceNameChildBlocks,
			footnote.SourceNameComments,
		}
		if !contains(validSources, value) {
			return fmt.Errorf("invalid source: %s (supported: %s)", value, strings.Join(validSources, ", "))
		}
		cfg.Footnotes.EndOfBlock = value == footnote.SourceNameEndOfBlock
		cfg.Footnotes.ChildBlocks = value == footnote.SourceNameChildBlocks
		cfg.Footnotes.BlockComments = value == footnote.SourceNameComments

	case "footnotes.marker_prefix":
		cfg.Footnotes.MarkerPrefix = value

	case "citations.in_text_format":
		validFormats := []string{"pandoc", "latex", "call"}
		if !contains(validFormats, value) {
			return fmt.Errorf("invalid format: %s (supported: %s)", value, strings.Join(validFormats, ", "))
		}
		cfg.Citations.InTextFormat = value

	case "citations.style":
		validStyles := []string{"apa", "simplified-ieee"}
		if !contains(validStyles, value) {
			return fmt.Errorf("invalid style: %s (supported: %s)", value, strings.Join(validStyles, ", "))
		}
		cfg.Citations.Style = value

	case "cache_dir":
		cfg.CacheDir = value

	default:
		return fmt.Errorf("unknown config key: %s\nsupported keys: footnotes.source, footnotes.marker_prefix, citations.in_text_format, citations.style, cache_dir", key)
	}

	if err := loader.Save(cfg); err != nil {
		return fmt.Errorf("saving configuration: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "config updated: %s = %s\n", key, value)
	return nil
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
