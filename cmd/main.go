package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/jaxxstorm/gitversion"
	"github.com/jaxxstorm/gitversion/internal/logger"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Version will be set by build process
var Version = "dev"

type CLI struct {
	Commitish   string `arg:"" optional:"" help:"Git commitish to analyze or version string to convert (default: HEAD)"`
	Language    string `short:"l" default:"generic" enum:"generic,semver,python,javascript,js,node,dotnet,csharp,go,golang" help:"Output format"`
	Repo        string `short:"r" help:"Repository path (default: current directory)"`
	Config      string `short:"c" type:"path" env:"GITVERSION_CONFIG" help:"Rule configuration file (default: built-in rules)"`
	Branch      string `short:"b" env:"GITVERSION_BRANCH" help:"Branch name to match when HEAD is detached"`
	JSON        bool   `short:"j" xor:"format" help:"Output as JSON"`
	YAML        bool   `short:"y" xor:"format" help:"Output as YAML"`
	Verbose     bool   `short:"v" help:"Log resolution decisions to stderr"`
	ShowVersion bool   `help:"Show version information" name:"version"`
}

// Output is the structured result printed with --json or --yaml.
type Output struct {
	gitversion.LanguageVersions `yaml:",inline"`

	Source   string `json:"source,omitempty" yaml:"source,omitempty"`
	Rule     string `json:"rule,omitempty" yaml:"rule,omitempty"`
	Tag      string `json:"tag,omitempty" yaml:"tag,omitempty"`
	Branch   string `json:"branch,omitempty" yaml:"branch,omitempty"`
	Commit   string `json:"commit,omitempty" yaml:"commit,omitempty"`
	Distance *int   `json:"distance,omitempty" yaml:"distance,omitempty"`
	Message  string `json:"message,omitempty" yaml:"message,omitempty"`
}

func main() {
	var cli CLI

	kong.Parse(&cli,
		kong.Name("gitversion"),
		kong.Description("Calculate semantic versions from Git tags and branches using configurable rules"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": Version,
		},
	)

	err := cli.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func (c *CLI) Run() error {
	if c.Verbose {
		logger.SetLevel(zapcore.DebugLevel)
	}

	// Handle version flag
	if c.ShowVersion {
		return c.showVersion()
	}

	// Check if the input looks like a version string to convert
	if c.Commitish != "" && isVersionString(c.Commitish) {
		return c.convertVersion()
	}

	return c.calculateVersion()
}

func (c *CLI) showVersion() error {
	versionInfo := map[string]string{
		"version": Version,
		"name":    "gitversion",
	}

	if c.JSON {
		return json.NewEncoder(os.Stdout).Encode(versionInfo)
	}
	if c.YAML {
		return yaml.NewEncoder(os.Stdout).Encode(versionInfo)
	}

	fmt.Printf("gitversion version %s\n", Version)
	return nil
}

func (c *CLI) convertVersion() error {
	version, err := gitversion.ParseVersion(c.Commitish)
	if err != nil {
		return fmt.Errorf("converting version: %w", err)
	}

	return c.print(&Output{LanguageVersions: *gitversion.Languages(version)})
}

func (c *CLI) calculateVersion() error {
	log := logger.GetLogger()

	commitish := "HEAD"
	if c.Commitish != "" {
		commitish = c.Commitish
	}

	repoPath := c.Repo
	if repoPath == "" {
		var err error
		repoPath, err = os.Getwd()
		if err != nil {
			return fmt.Errorf("getting current directory: %w", err)
		}
	}

	rules, err := c.loadRules()
	if err != nil {
		return err
	}

	repo, err := gitversion.OpenRepository(repoPath)
	if err != nil {
		return fmt.Errorf("opening repository %s: %w", repoPath, err)
	}

	source := gitversion.NewGitSource(repo, gitversion.GitSourceOptions{
		Commitish: plumbing.Revision(commitish),
		Branch:    c.Branch,
	})

	log.Debug("Resolving version",
		zap.String("repo", repoPath),
		zap.String("commitish", commitish),
		zap.Int("rules", len(rules)))

	res, err := gitversion.Resolve(gitversion.Options{
		Source: source,
		Rules:  rules,
		Logger: log,
	})
	if err != nil {
		return fmt.Errorf("resolving version: %w", err)
	}

	distance := res.Distance
	return c.print(&Output{
		LanguageVersions: *gitversion.Languages(res.Version),
		Source:           string(res.Source),
		Rule:             res.Rule,
		Tag:              res.Tag,
		Branch:           res.Branch,
		Commit:           res.Head,
		Distance:         &distance,
		Message:          res.Message,
	})
}

func (c *CLI) loadRules() ([]*gitversion.Rule, error) {
	config := gitversion.DefaultConfig()
	if c.Config != "" {
		var err error
		config, err = gitversion.LoadConfig(c.Config)
		if err != nil {
			return nil, fmt.Errorf("loading rules: %w", err)
		}
	}

	rules, err := config.Compile()
	if err != nil {
		return nil, fmt.Errorf("loading rules: %w", err)
	}
	return rules, nil
}

func (c *CLI) print(out *Output) error {
	if c.JSON {
		return json.NewEncoder(os.Stdout).Encode(out)
	}
	if c.YAML {
		return yaml.NewEncoder(os.Stdout).Encode(out)
	}

	fmt.Println(getVersionOutput(&out.LanguageVersions, c.Language))
	return nil
}

// isVersionString checks if the input looks like a version string rather than a git reference
func isVersionString(input string) bool {
	// Simple heuristic: if it contains dots and starts with a number or 'v', treat as version
	if strings.Contains(input, ".") {
		trimmed := strings.TrimPrefix(input, "v")
		if len(trimmed) > 0 && (trimmed[0] >= '0' && trimmed[0] <= '9') {
			// Check if it has at least 2 dots (x.y.z format)
			parts := strings.Split(trimmed, ".")
			return len(parts) >= 3
		}
	}
	return false
}

func getVersionOutput(versions *gitversion.LanguageVersions, language string) string {
	switch strings.ToLower(language) {
	case "generic", "semver":
		return versions.SemVer
	case "python":
		return versions.Python
	case "javascript", "js", "node":
		return versions.JavaScript
	case "dotnet", ".net", "csharp":
		return versions.DotNet
	case "go", "golang":
		return versions.Go
	default:
		return versions.SemVer
	}
}
