// Package config loads mojifix.toml, the optional per-project file that
// overrides the handled extension, the candidate encodings and adds rules.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"mojifix/internal/charset"
	"mojifix/internal/repair"
)

// FileName is the configuration file searched for upward from the target.
const FileName = "mojifix.toml"

// File is a loaded configuration file.
type File struct {
	Path   string
	Config Config
}

// Config mirrors the TOML layout.
type Config struct {
	Scan  ScanConfig  `toml:"scan"`
	Rules RulesConfig `toml:"rules"`
}

// ScanConfig holds the [scan] table.
type ScanConfig struct {
	Extension string   `toml:"extension"`
	Encodings []string `toml:"encodings"`
}

// RulesConfig holds the [[rules.structure]] and [[rules.text]] arrays.
type RulesConfig struct {
	Structure []RuleConfig `toml:"structure"`
	Text      []RuleConfig `toml:"text"`
}

// RuleConfig is one literal substitution.
type RuleConfig struct {
	From string `toml:"from"`
	To   string `toml:"to"`
}

// Find walks up from start looking for FileName. start may be a file; the
// search then begins in its directory.
func Find(start string) (string, bool, error) {
	if start == "" {
		start = "."
	}
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	if info, err := os.Stat(dir); err == nil && !info.IsDir() {
		dir = filepath.Dir(dir)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Discover finds and loads the nearest configuration file above start.
// ok is false when there is none.
func Discover(start string) (*File, bool, error) {
	path, ok, err := Find(start)
	if err != nil || !ok {
		return nil, ok, err
	}
	f, err := Load(path)
	if err != nil {
		return nil, true, err
	}
	return f, true, nil
}

// Load parses and validates a configuration file.
func Load(path string) (*File, error) {
	var cfg Config
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("%s: unknown key %s", path, undecoded[0])
	}
	if meta.IsDefined("scan", "extension") && !strings.HasPrefix(cfg.Scan.Extension, ".") {
		return nil, fmt.Errorf("%s: [scan].extension must start with '.'", path)
	}
	if meta.IsDefined("scan", "encodings") {
		if _, err := charset.ParseCandidates(cfg.Scan.Encodings); err != nil {
			return nil, fmt.Errorf("%s: [scan].encodings: %w", path, err)
		}
	}
	if err := validateRules("rules.structure", cfg.Rules.Structure); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := validateRules("rules.text", cfg.Rules.Text); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &File{Path: path, Config: cfg}, nil
}

func validateRules(table string, rules []RuleConfig) error {
	for i, r := range rules {
		if r.From == "" {
			return fmt.Errorf("[[%s]] #%d: missing from", table, i+1)
		}
		if r.From == r.To {
			return fmt.Errorf("[[%s]] #%d: from and to are identical", table, i+1)
		}
	}
	return nil
}

// RuleSet returns the built-in rules extended with the configured ones.
func (c Config) RuleSet() repair.RuleSet {
	return repair.DefaultRules().Extend(toRules(c.Rules.Structure), toRules(c.Rules.Text))
}

func toRules(in []RuleConfig) []repair.Rule {
	out := make([]repair.Rule, len(in))
	for i, r := range in {
		out[i] = repair.Rule{From: r.From, To: r.To}
	}
	return out
}
