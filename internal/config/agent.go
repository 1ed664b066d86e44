package config

import (
	"github.com/rennerdo30/ratatosk/internal/feed"
	"github.com/rennerdo30/ratatosk/internal/logging"
	"github.com/rennerdo30/ratatosk/internal/updater"
)

// AgentConfig is the file-facing configuration for the agent.
type AgentConfig struct {
	Logging logging.Config `yaml:"logging" json:"logging"`
	Update  UpdateSettings `yaml:"update" json:"update"`
}

// UpdateSettings mirrors updater.Config with YAML-friendly durations.
// Zero values fall back to the updater defaults at conversion time, so a
// config file only needs the fields it wants to change.
type UpdateSettings struct {
	ManifestURL    string   `yaml:"manifest_url" json:"manifest_url"`
	RequestTimeout Duration `yaml:"request_timeout" json:"request_timeout"`
	Retries        int      `yaml:"retries" json:"retries"`
	RelaunchGrace  Duration `yaml:"relaunch_grace" json:"relaunch_grace"`
	StagingName    string   `yaml:"staging_name" json:"staging_name"`
	StateFile      string   `yaml:"state_file" json:"state_file"`
}

// UpdaterConfig converts the settings into an updater.Config, filling
// defaults for anything unset.
func (s UpdateSettings) UpdaterConfig() updater.Config {
	cfg := updater.DefaultConfig()

	if s.ManifestURL != "" {
		cfg.ManifestURL = s.ManifestURL
	}
	if s.RequestTimeout != 0 {
		cfg.RequestTimeout = s.RequestTimeout.Duration()
	}
	if s.Retries != 0 {
		cfg.Retries = s.Retries
	}
	if s.RelaunchGrace != 0 {
		cfg.RelaunchGrace = s.RelaunchGrace.Duration()
	}
	if s.StagingName != "" {
		cfg.StagingName = s.StagingName
	}
	if s.StateFile != "" {
		cfg.StateFile = s.StateFile
	}

	return cfg
}

// DefaultAgentConfig returns an agent configuration with sensible defaults.
func DefaultAgentConfig() AgentConfig {
	return AgentConfig{
		Logging: logging.DefaultConfig(),
	}
}

// Validate implements Validator.
func (c *AgentConfig) Validate() error {
	return c.Update.UpdaterConfig().Validate()
}

// FeedConfig is the file-facing configuration for the feed server.
type FeedConfig struct {
	Logging logging.Config `yaml:"logging" json:"logging"`
	Feed    feed.Config    `yaml:"feed" json:"feed"`
}

// DefaultFeedConfig returns a feed configuration with sensible defaults.
func DefaultFeedConfig() FeedConfig {
	return FeedConfig{
		Logging: logging.DefaultConfig(),
		Feed:    feed.DefaultConfig(),
	}
}

// Validate implements Validator.
func (c *FeedConfig) Validate() error {
	return c.Feed.Validate()
}
