package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	logger "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/cmccoy02/bridge-engine/domain"
)

// Config is the top-level configuration for bridge-engine.
type Config struct {
	Provider     ProviderConfig     `yaml:"provider"`
	Repositories []RepositoryConfig `yaml:"repositories"`
	Registry     RegistryConfig     `yaml:"registry"`
	Pipeline     PipelineConfig     `yaml:"pipeline"`
	Store        StoreConfig        `yaml:"store"`
}

// ProviderConfig describes the Git hosting provider instance.
type ProviderConfig struct {
	Type  string `yaml:"type"`  // "github"
	Token string `yaml:"token"` // Inline, ${ENV_VAR}, or file path
}

// RepositoryConfig identifies one repository updates can run against.
type RepositoryConfig struct {
	Organization  string `yaml:"organization"`
	Name          string `yaml:"name"`
	DefaultBranch string `yaml:"default_branch"`
}

// RegistryConfig tunes package-registry metadata lookups.
type RegistryConfig struct {
	BaseURL   string   `yaml:"base_url"`
	Timeout   Duration `yaml:"timeout"`
	BatchSize int      `yaml:"batch_size"`
}

// PipelineConfig tunes the update pipeline.
type PipelineConfig struct {
	Branch         string   `yaml:"branch"`
	WorkDir        string   `yaml:"work_dir"`
	NPMBin         string   `yaml:"npm_bin"`
	CommandTimeout Duration `yaml:"command_timeout"`
}

// Duration accepts "30s" / "5m" style YAML values.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	parsed, err := time.ParseDuration(node.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", node.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// StoreConfig locates the job store database.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// envVarPattern matches ${VAR_NAME} placeholders.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)}`)

// Load reads and parses a configuration file, expanding environment
// variables and resolving token file paths.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
	}

	var cfg Config
	if unmarshalErr := yaml.Unmarshal(data, &cfg); unmarshalErr != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", unmarshalErr)
	}

	cfg.Provider.Token = resolveToken(cfg.Provider.Token)
	applyDefaults(&cfg)

	if validateErr := validate(&cfg); validateErr != nil {
		return nil, validateErr
	}
	return &cfg, nil
}

// FindConfigFile searches for a configuration file in standard locations.
// Returns the path to the first file found or an error if none is found.
func FindConfigFile() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = ""
	}

	locations := []string{
		".",
		".config",
		"configs",
	}
	if homeDir != "" {
		locations = append(
			locations,
			homeDir,
			filepath.Join(homeDir, ".config"),
		)
	}

	patterns := []string{
		".bridge.yaml",
		".bridge.yml",
		"bridge.yaml",
		"bridge.yml",
	}

	for _, loc := range locations {
		for _, pat := range patterns {
			p := filepath.Join(loc, pat)
			if _, statErr := os.Stat(p); statErr == nil {
				return p, nil
			}
		}
	}

	return "", errors.New("config file not found in default locations")
}

// Repository returns the configured repository matching "org/name".
func (c *Config) Repository(fullName string) (domain.Repository, error) {
	for _, repoCfg := range c.Repositories {
		repo := repoCfg.toDomain(c.Provider.Type)
		if repo.FullName() == fullName {
			return repo, nil
		}
	}
	return domain.Repository{}, fmt.Errorf("repository %q is not configured", fullName)
}

func (r RepositoryConfig) toDomain(providerType string) domain.Repository {
	branch := r.DefaultBranch
	if branch == "" {
		branch = "main"
	}
	return domain.Repository{
		ID:            r.Organization + "/" + r.Name,
		Name:          r.Name,
		Organization:  r.Organization,
		DefaultBranch: branch,
		ProviderName:  providerType,
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Store.Path == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			homeDir = "."
		}
		cfg.Store.Path = filepath.Join(homeDir, ".bridge", "bridge.db")
	}
}

// resolveToken expands environment variable references (${VAR}) and, if the
// resulting string is a path to an existing file, reads the token from the file.
func resolveToken(raw string) string {
	if raw == "" {
		return raw
	}

	// Expand ${ENV_VAR} references
	resolved := envVarPattern.ReplaceAllStringFunc(raw, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		logger.Warnf("Environment variable %q is not set", varName)
		return ""
	})

	// If the resolved value is a path to an existing file, read the token from it
	if _, statErr := os.Stat(resolved); statErr == nil {
		data, readErr := os.ReadFile(resolved)
		if readErr != nil {
			logger.Warnf("Failed to read token file %q: %v", resolved, readErr)
			return resolved
		}
		logger.Infof("Read token from file %q", resolved)
		return strings.TrimSpace(string(data))
	}

	return resolved
}

// validate checks for required configuration values.
func validate(cfg *Config) error {
	if cfg.Provider.Type == "" {
		return errors.New("provider.type is required")
	}
	if cfg.Provider.Token == "" {
		return errors.New("provider.token is required (set inline, via ${ENV_VAR}, or as file path)")
	}

	for i, repo := range cfg.Repositories {
		if repo.Organization == "" {
			return fmt.Errorf("repositories[%d].organization is required", i)
		}
		if repo.Name == "" {
			return fmt.Errorf("repositories[%d].name is required", i)
		}
	}

	return nil
}
