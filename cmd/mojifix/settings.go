package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"mojifix/internal/charset"
	"mojifix/internal/config"
	"mojifix/internal/repair"
)

// runSettings is the merged view of defaults, mojifix.toml and flags.
// Flags win over the config file, which wins over the defaults.
type runSettings struct {
	configPath string
	ext        string
	candidates charset.Candidates
	rules      repair.RuleSet
	dryRun     bool
	quiet      bool
	format     string
	ui         uiMode
}

func loadConfigFor(cmd *cobra.Command, target string) (*config.File, error) {
	explicit, err := cmd.Root().PersistentFlags().GetString("config")
	if err != nil {
		return nil, err
	}
	if explicit != "" {
		return config.Load(explicit)
	}
	file, _, err := config.Discover(target)
	return file, err
}

func readSettings(cmd *cobra.Command, target string) (*runSettings, error) {
	file, err := loadConfigFor(cmd, target)
	if err != nil {
		return nil, err
	}

	s := &runSettings{
		ext:   repair.DefaultExtension,
		rules: repair.DefaultRules(),
	}
	encodings := charset.DefaultNames
	if file != nil {
		s.configPath = file.Path
		if file.Config.Scan.Extension != "" {
			s.ext = file.Config.Scan.Extension
		}
		if len(file.Config.Scan.Encodings) > 0 {
			encodings = file.Config.Scan.Encodings
		}
		s.rules = file.Config.RuleSet()
	}

	flags := cmd.Flags()
	if flags.Changed("ext") {
		ext, err := flags.GetString("ext")
		if err != nil {
			return nil, err
		}
		if !strings.HasPrefix(ext, ".") {
			return nil, fmt.Errorf("invalid --ext value %q (must start with '.')", ext)
		}
		s.ext = ext
	}
	if flags.Changed("encodings") {
		if encodings, err = flags.GetStringSlice("encodings"); err != nil {
			return nil, err
		}
	}
	if s.candidates, err = charset.ParseCandidates(encodings); err != nil {
		return nil, fmt.Errorf("invalid candidate encodings: %w", err)
	}

	if s.dryRun, err = flags.GetBool("dry-run"); err != nil {
		return nil, err
	}
	format, err := flags.GetString("format")
	if err != nil {
		return nil, err
	}
	switch s.format = strings.ToLower(format); s.format {
	case "pretty", "json":
	default:
		return nil, fmt.Errorf("unsupported format %q (must be pretty or json)", format)
	}

	root := cmd.Root().PersistentFlags()
	if s.quiet, err = root.GetBool("quiet"); err != nil {
		return nil, err
	}
	uiValue, err := root.GetString("ui")
	if err != nil {
		return nil, err
	}
	if s.ui, err = readUIMode(uiValue); err != nil {
		return nil, err
	}
	return s, nil
}
