package gitversion

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config is the rule configuration file.
type Config struct {
	Rules []RuleConfig `yaml:"rules" mapstructure:"rules"`
}

// RuleConfig is one rule as written in the configuration file.
type RuleConfig struct {
	Name          string       `yaml:"name,omitempty"           mapstructure:"name"`
	Kind          string       `yaml:"kind"                     mapstructure:"kind"`
	Pattern       string       `yaml:"pattern"                  mapstructure:"pattern"`
	Prerelease    string       `yaml:"prerelease,omitempty"     mapstructure:"prerelease"`
	BuildMetadata string       `yaml:"build_metadata,omitempty" mapstructure:"build_metadata"`
	Exact         *ExactConfig `yaml:"exact,omitempty"          mapstructure:"exact"`
}

// ExactConfig holds the templates used when HEAD itself carries the tag.
type ExactConfig struct {
	Prerelease    string `yaml:"prerelease,omitempty"     mapstructure:"prerelease"`
	BuildMetadata string `yaml:"build_metadata,omitempty" mapstructure:"build_metadata"`
}

// DefaultConfig returns the rules used when no configuration file is given:
// semver tags with an optional "v" prefix, and any branch as 0.0.0.
func DefaultConfig() *Config {
	return &Config{
		Rules: []RuleConfig{
			{
				Name:          "semver-tag",
				Kind:          string(KindTag),
				Pattern:       `v?(?P<major>\d+)\.(?P<minor>\d+)\.(?P<patch>\d+)(?:-(?P<pre>[0-9A-Za-z.-]+))?`,
				Prerelease:    "{pre}",
				BuildMetadata: "{distance}.{shortSha}",
			},
			{
				Name:          "any-branch",
				Kind:          string(KindBranch),
				Pattern:       `.+`,
				Prerelease:    "{branchSlug}",
				BuildMetadata: "{distance}.{shortSha}",
			},
		},
	}
}

// LoadConfig reads rules from a file in any format viper understands,
// inferred from the file extension (YAML when there is none).
func LoadConfig(configPath string) (*Config, error) {
	if configPath == "" {
		return nil, fmt.Errorf("config path is required")
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configPath)
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	if filepath.Ext(configPath) == "" {
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if len(config.Rules) == 0 {
		return nil, fmt.Errorf("config validation failed: at least one rule is required")
	}

	return &config, nil
}

// Specs converts the configuration into rule specs, preserving order.
func (c *Config) Specs() []RuleSpec {
	specs := make([]RuleSpec, 0, len(c.Rules))
	for _, rc := range c.Rules {
		spec := RuleSpec{
			Name:          rc.Name,
			Kind:          RefKind(strings.ToLower(strings.TrimSpace(rc.Kind))),
			Pattern:       rc.Pattern,
			Prerelease:    rc.Prerelease,
			BuildMetadata: rc.BuildMetadata,
		}
		if rc.Exact != nil {
			spec.Exact = &ExactSpec{
				Prerelease:    rc.Exact.Prerelease,
				BuildMetadata: rc.Exact.BuildMetadata,
			}
		}
		specs = append(specs, spec)
	}
	return specs
}

// Compile compiles every rule. The first invalid rule aborts with a
// *RuleCompilationError.
func (c *Config) Compile() ([]*Rule, error) {
	return CompileRules(c.Specs())
}
