// Package config loads the project file (mermdv.yaml) that ties a
// diagram to its publisher, solution and target environment.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultFile is the project file name looked up in the working
// directory when no --config flag is given.
const DefaultFile = "mermdv.yaml"

type Config struct {
	Diagram       string          `yaml:"diagram"`
	GlobalChoices string          `yaml:"globalChoices,omitempty"`
	CDMEntities   []string        `yaml:"cdmEntities,omitempty"`
	Publisher     PublisherConfig `yaml:"publisher"`
	Solution      SolutionConfig  `yaml:"solution"`
	Dataverse     DataverseConfig `yaml:"dataverse"`
}

type PublisherConfig struct {
	UniqueName   string `yaml:"uniqueName"`
	FriendlyName string `yaml:"friendlyName"`
	Prefix       string `yaml:"prefix"`
}

type SolutionConfig struct {
	UniqueName   string `yaml:"uniqueName"`
	FriendlyName string `yaml:"friendlyName"`
}

type DataverseConfig struct {
	// URL may stay empty; the DATAVERSE_URL environment variable wins
	// over this value either way.
	URL string `yaml:"url,omitempty"`
}

// Load reads and validates a project file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading project file: %v", err)
	}
	return Parse(data)
}

// Parse decodes project file contents.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing project file: %v", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when no project file exists.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Diagram == "" {
		c.Diagram = "diagram.mmd"
	}
	if c.Publisher.Prefix == "" {
		c.Publisher.Prefix = "new"
	}
	if c.Publisher.UniqueName == "" {
		c.Publisher.UniqueName = c.Publisher.Prefix + "publisher"
	}
	if c.Publisher.FriendlyName == "" {
		c.Publisher.FriendlyName = c.Publisher.UniqueName
	}
	if c.Solution.UniqueName == "" {
		c.Solution.UniqueName = c.Publisher.Prefix + "solution"
	}
	if c.Solution.FriendlyName == "" {
		c.Solution.FriendlyName = c.Solution.UniqueName
	}
}

func (c *Config) validate() error {
	if len(c.Publisher.Prefix) < 2 || len(c.Publisher.Prefix) > 8 {
		return fmt.Errorf("publisher prefix %q must be 2-8 characters", c.Publisher.Prefix)
	}
	for _, r := range c.Publisher.Prefix {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return fmt.Errorf("publisher prefix %q must be lowercase letters and digits", c.Publisher.Prefix)
		}
	}
	return nil
}
