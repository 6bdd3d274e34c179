package server

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// Config is the complete server configuration
type Config struct {
	Server     ServerSettings      `hcl:"server,block"`
	Timers     *TimerSettings      `hcl:"timers,block"`
	AI         *AISettings         `hcl:"ai,block"`
	Statistics *StatisticsSettings `hcl:"statistics,block"`
}

// ServerSettings contains listener-level configuration
type ServerSettings struct {
	Address  string `hcl:"address,optional"`
	Port     int    `hcl:"port,optional"`
	LogLevel string `hcl:"log_level,optional"`
	// AuthURL points at the external account service; empty selects
	// the dev token validator.
	AuthURL string `hcl:"auth_url,optional"`
	// DevEndpoints enables the deck/dealer pinning endpoints. Never
	// enable outside development.
	DevEndpoints bool `hcl:"dev_endpoints,optional"`
	// AbandonPolicy is "pause" or "ai".
	AbandonPolicy string `hcl:"abandon_policy,optional"`
}

// TimerSettings paces gameplay, all in milliseconds
type TimerSettings struct {
	TrickRevealMs     int `hcl:"trick_reveal_ms,optional"`
	RoundStartMs      int `hcl:"round_start_ms,optional"`
	DisconnectGraceMs int `hcl:"disconnect_grace_ms,optional"`
}

// AISettings tunes the search engine
type AISettings struct {
	DelayMinMs int `hcl:"delay_min_ms,optional"`
	DelayMaxMs int `hcl:"delay_max_ms,optional"`
	// AnalysisIterations sizes hint searches for humans; zero disables
	// hints.
	AnalysisIterations int `hcl:"analysis_iterations,optional"`
}

// StatisticsSettings selects the terminal-result sink
type StatisticsSettings struct {
	// Backend is "none", "postgres", or "kafka".
	Backend     string `hcl:"backend,optional"`
	PostgresDSN string `hcl:"postgres_dsn,optional"`
	KafkaBroker string `hcl:"kafka_broker,optional"`
	KafkaTopic  string `hcl:"kafka_topic,optional"`
}

// DefaultConfig returns the development defaults
func DefaultConfig() *Config {
	return &Config{
		Server: ServerSettings{
			Address:       "localhost",
			Port:          8080,
			LogLevel:      "info",
			AbandonPolicy: "pause",
		},
		Timers: &TimerSettings{
			TrickRevealMs:     3000,
			RoundStartMs:      8000,
			DisconnectGraceMs: 30000,
		},
		AI: &AISettings{
			DelayMinMs:         0,
			DelayMaxMs:         500,
			AnalysisIterations: 1000,
		},
		Statistics: &StatisticsSettings{
			Backend:    "none",
			KafkaTopic: "buckeuchre.results",
		},
	}
}

// LoadConfig loads configuration from an HCL file, falling back to
// defaults when the file does not exist
func LoadConfig(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config Config
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	applyDefaults(&config)
	return &config, nil
}

func applyDefaults(config *Config) {
	defaults := DefaultConfig()
	if config.Server.Address == "" {
		config.Server.Address = defaults.Server.Address
	}
	if config.Server.Port == 0 {
		config.Server.Port = defaults.Server.Port
	}
	if config.Server.LogLevel == "" {
		config.Server.LogLevel = defaults.Server.LogLevel
	}
	if config.Server.AbandonPolicy == "" {
		config.Server.AbandonPolicy = defaults.Server.AbandonPolicy
	}
	if config.Timers == nil {
		config.Timers = defaults.Timers
	} else {
		if config.Timers.TrickRevealMs == 0 {
			config.Timers.TrickRevealMs = defaults.Timers.TrickRevealMs
		}
		if config.Timers.RoundStartMs == 0 {
			config.Timers.RoundStartMs = defaults.Timers.RoundStartMs
		}
		if config.Timers.DisconnectGraceMs == 0 {
			config.Timers.DisconnectGraceMs = defaults.Timers.DisconnectGraceMs
		}
	}
	if config.AI == nil {
		config.AI = defaults.AI
	} else {
		if config.AI.DelayMaxMs == 0 {
			config.AI.DelayMaxMs = defaults.AI.DelayMaxMs
		}
		if config.AI.AnalysisIterations == 0 {
			config.AI.AnalysisIterations = defaults.AI.AnalysisIterations
		}
	}
	if config.Statistics == nil {
		config.Statistics = defaults.Statistics
	} else {
		if config.Statistics.Backend == "" {
			config.Statistics.Backend = defaults.Statistics.Backend
		}
		if config.Statistics.KafkaTopic == "" {
			config.Statistics.KafkaTopic = defaults.Statistics.KafkaTopic
		}
	}
}

// TrickReveal returns the reveal pause as a duration
func (t *TimerSettings) TrickReveal() time.Duration {
	return time.Duration(t.TrickRevealMs) * time.Millisecond
}

// RoundStart returns the auto-start delay as a duration
func (t *TimerSettings) RoundStart() time.Duration {
	return time.Duration(t.RoundStartMs) * time.Millisecond
}

// DisconnectGrace returns the reconnect window as a duration
func (t *TimerSettings) DisconnectGrace() time.Duration {
	return time.Duration(t.DisconnectGraceMs) * time.Millisecond
}
