package atomicity

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/goccy/go-yaml"
)

// Mode selects whether non-atomic commits fail the check or only warn.
type Mode string

const (
	ModeWarning Mode = "warning"
	ModeError   Mode = "error"
)

// Concern is the category assigned to a changed file.
type Concern string

const (
	ConcernSource Concern = "source"
	ConcernTests  Concern = "tests"
	ConcernDocs   Concern = "docs"
	ConcernConfig Concern = "config"
	ConcernInfra  Concern = "infra"
	ConcernOther  Concern = "other"
)

// ConcernRule maps a path regex to a concern; user rules run before the
// built-in categorization.
type ConcernRule struct {
	Pattern string  `yaml:"pattern"`
	Concern Concern `yaml:"concern"`

	re *regexp.Regexp
}

// Config is the atomicity checker configuration, loaded from
// .github/atomicity-config.yml.
type Config struct {
	Enabled     bool          `yaml:"enabled"`
	Mode        Mode          `yaml:"mode"`
	IgnoreBots  bool          `yaml:"ignore_bots"`
	MaxConcerns int           `yaml:"max_concerns"`
	BotPatterns []string      `yaml:"bot_patterns"`
	IgnoreFiles []string      `yaml:"ignore_files"`
	CustomRules []ConcernRule `yaml:"custom_rules"`

	botRes []*regexp.Regexp
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	cfg := &Config{
		Enabled:     true,
		Mode:        ModeWarning,
		IgnoreBots:  true,
		MaxConcerns: 1,
		BotPatterns: []string{
			"github-actions",
			"dependabot",
			"copilot",
			"jules",
			"renovate",
			"bot$",
			`\[bot\]`,
		},
		IgnoreFiles: []string{
			"*.lock",
			"package-lock.json",
			"yarn.lock",
			"Cargo.lock",
			".gitignore",
		},
	}
	if err := cfg.compile(); err != nil {
		// Built-in patterns are known-good.
		panic(err)
	}
	return cfg
}

// LoadConfig reads a config file, applying defaults for absent keys. A
// missing file yields the default configuration.
func LoadConfig(path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(content, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	switch cfg.Mode {
	case ModeWarning, ModeError:
	default:
		return nil, fmt.Errorf("config %s: invalid mode %q", path, cfg.Mode)
	}
	if cfg.MaxConcerns < 1 {
		return nil, fmt.Errorf("config %s: max_concerns must be at least 1", path)
	}

	if err := cfg.compile(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// compile builds the bot and custom-rule regexes.
func (c *Config) compile() error {
	c.botRes = c.botRes[:0]
	for _, pattern := range c.BotPatterns {
		re, err := regexp.Compile("(?i)" + pattern)
		if err != nil {
			return fmt.Errorf("invalid bot pattern %q: %w", pattern, err)
		}
		c.botRes = append(c.botRes, re)
	}
	for i := range c.CustomRules {
		rule := &c.CustomRules[i]
		re, err := regexp.Compile(rule.Pattern)
		if err != nil {
			return fmt.Errorf("invalid custom rule pattern %q: %w", rule.Pattern, err)
		}
		rule.re = re
	}
	return nil
}

// IsBotAuthor reports whether the author matches a bot pattern. Always false
// when ignore_bots is disabled.
func (c *Config) IsBotAuthor(author string) bool {
	if !c.IgnoreBots {
		return false
	}
	for _, re := range c.botRes {
		if re.MatchString(author) {
			return true
		}
	}
	return false
}

// ShouldIgnore reports whether the file matches an ignore glob.
func (c *Config) ShouldIgnore(path string) bool {
	for _, pattern := range c.IgnoreFiles {
		if ignoreGlobMatch(pattern, path) {
			return true
		}
	}
	return false
}

// ignoreGlobMatch implements the small ignore-pattern grammar:
// `*.EXT` matches any basename with that extension, `**/NAME` matches the
// path suffix, and a bare literal matches the exact path or basename.
func ignoreGlobMatch(pattern, path string) bool {
	if suffix, ok := strings.CutPrefix(pattern, "*"); ok && strings.HasPrefix(suffix, ".") {
		return strings.HasSuffix(path, suffix)
	}
	if name, ok := strings.CutPrefix(pattern, "**/"); ok {
		return path == name || strings.HasSuffix(path, "/"+name)
	}
	return path == pattern || strings.HasSuffix(path, "/"+pattern)
}
