// internal/config/config.go
//
// This package handles configuration and the .leadradar directory structure.
// Every directory leadradar runs in gets a .leadradar/ folder holding the
// config file and the console's activity log.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kingrea/lead-radar/internal/lead"
)

const (
	// RadarDir is the name of the directory we create in each working directory
	RadarDir = ".leadradar"

	DefaultBaseURL            = "https://lead-radar-backend.vercel.app"
	DefaultTimeout            = 30 * time.Second
	DefaultRateLimit          = 5.0
	DefaultBurst              = 5
	DefaultHighScoreThreshold = 70
)

const defaultProjectConfigYAML = `# leadradar configuration
version: 1

backend:
  base_url: https://lead-radar-backend.vercel.app
  # Per-request timeout. Sync and AI calls can be slow.
  timeout: 30s
  # Client-side request rate (requests per second, burst).
  rate_limit: 5
  burst: 5

console:
  # Minimum score used by the "high score" toggle.
  high_score_threshold: 70
  # Restore the previous value when a status/notes update fails.
  revert_on_failure: false
  # email | twitter | linkedin
  default_channel: email

# Optional context passed to outreach drafts.
outreach:
  agency_name: ""
  service_focus: ""
  # friendly | professional | casual
  tone: ""
`

// BackendConfig points the gateway at the lead backend.
type BackendConfig struct {
	BaseURL   string  `yaml:"base_url"`
	Timeout   string  `yaml:"timeout"`
	RateLimit float64 `yaml:"rate_limit"`
	Burst     int     `yaml:"burst"`
}

// ConsoleConfig captures console behaviour preferences.
type ConsoleConfig struct {
	HighScoreThreshold int    `yaml:"high_score_threshold"`
	RevertOnFailure    bool   `yaml:"revert_on_failure"`
	DefaultChannel     string `yaml:"default_channel"`
}

// OutreachConfig is forwarded to the outreach endpoint.
type OutreachConfig struct {
	AgencyName   string `yaml:"agency_name"`
	ServiceFocus string `yaml:"service_focus"`
	Tone         string `yaml:"tone"`
}

// ProjectConfig models .leadradar/config.yaml.
type ProjectConfig struct {
	Version  int            `yaml:"version"`
	Backend  BackendConfig  `yaml:"backend"`
	Console  ConsoleConfig  `yaml:"console"`
	Outreach OutreachConfig `yaml:"outreach"`
}

// Config holds the runtime configuration for leadradar.
type Config struct {
	// ProjectDir is the directory where the user ran `leadradar` from
	ProjectDir string

	// RadarProjectDir is ProjectDir/.leadradar
	RadarProjectDir string

	Project ProjectConfig

	// onDisk mirrors the file contents; environment and flag overrides are
	// applied to Project only.
	onDisk  ProjectConfig
	timeout time.Duration
}

// InitRadarDir creates the .leadradar directory structure in the given
// directory and writes a commented config file if none exists.
//
// Structure created:
// .leadradar/
// ├── config.yaml
// ├── logs/      <- console activity log
// └── exports/   <- default CSV export location
func InitRadarDir(projectDir string) error {
	radarDir := filepath.Join(projectDir, RadarDir)

	dirs := []string{
		filepath.Join(radarDir, "logs"),
		filepath.Join(radarDir, "exports"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	if err := ensureProjectConfig(filepath.Join(radarDir, "config.yaml")); err != nil {
		return err
	}
	return nil
}

// NewConfig loads .leadradar/config.yaml (defaults when missing) and applies
// LEADRADAR_* environment overrides.
func NewConfig(projectDir string) (*Config, error) {
	cfg := &Config{
		ProjectDir:      projectDir,
		RadarProjectDir: filepath.Join(projectDir, RadarDir),
		Project:         defaultProjectConfig(),
		onDisk:          defaultProjectConfig(),
	}
	if err := cfg.loadProjectConfig(); err != nil {
		return nil, err
	}
	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := cfg.finalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LogsDir returns the path to the logs directory
func (c *Config) LogsDir() string {
	return filepath.Join(c.RadarProjectDir, "logs")
}

// LogPath returns the console activity log file.
func (c *Config) LogPath() string {
	return filepath.Join(c.LogsDir(), "console.log")
}

// ExportsDir returns the default directory for CSV exports.
func (c *Config) ExportsDir() string {
	return filepath.Join(c.RadarProjectDir, "exports")
}

// ProjectConfigPath returns the on-disk location for the config file.
func (c *Config) ProjectConfigPath() string {
	return filepath.Join(c.RadarProjectDir, "config.yaml")
}

// BaseURL returns the backend base URL without a trailing slash.
func (c *Config) BaseURL() string {
	return strings.TrimRight(c.Project.Backend.BaseURL, "/")
}

// Timeout returns the per-request timeout.
func (c *Config) Timeout() time.Duration {
	if c.timeout <= 0 {
		return DefaultTimeout
	}
	return c.timeout
}

// RateLimit returns the request rate in requests per second and burst.
func (c *Config) RateLimit() (float64, int) {
	return c.Project.Backend.RateLimit, c.Project.Backend.Burst
}

// HighScoreThreshold is the min score applied by the high score toggle.
func (c *Config) HighScoreThreshold() int {
	return c.Project.Console.HighScoreThreshold
}

// RevertOnFailure reports whether failed optimistic patches are rolled back.
func (c *Config) RevertOnFailure() bool {
	return c.Project.Console.RevertOnFailure
}

// DefaultChannel returns the outreach channel used by the draft action.
func (c *Config) DefaultChannel() lead.Channel {
	ch, err := lead.ParseChannel(c.Project.Console.DefaultChannel)
	if err != nil {
		return lead.ChannelEmail
	}
	return ch
}

// OutreachContext returns the configured draft personalisation.
func (c *Config) OutreachContext() lead.OutreachContext {
	tone, _ := lead.ParseTone(c.Project.Outreach.Tone)
	return lead.OutreachContext{
		AgencyName:   c.Project.Outreach.AgencyName,
		ServiceFocus: c.Project.Outreach.ServiceFocus,
		Tone:         tone,
	}
}

// OverrideBaseURL points the config at a different backend for this run
// only. The file on disk is not touched.
func (c *Config) OverrideBaseURL(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if err := validateBaseURL(raw); err != nil {
		return fmt.Errorf("config: backend.base_url: %w", err)
	}
	c.Project.Backend.BaseURL = raw
	return nil
}

// SetDefaultChannel updates the default outreach channel and persists the
// value back to .leadradar/config.yaml.
func (c *Config) SetDefaultChannel(channel lead.Channel) error {
	ch, err := lead.ParseChannel(string(channel))
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	c.Project.Console.DefaultChannel = string(ch)
	c.onDisk.Console.DefaultChannel = string(ch)
	return c.saveProjectConfig()
}

func (c *Config) loadProjectConfig() error {
	path := c.ProjectConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	var parsed ProjectConfig
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	parsed.applyDefaults()
	parsed.normalize()
	if err := parsed.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	c.Project = parsed
	c.onDisk = parsed
	return nil
}

func (c *Config) applyEnvOverrides() error {
	if value := strings.TrimSpace(os.Getenv("LEADRADAR_BASE_URL")); value != "" {
		if err := c.OverrideBaseURL(value); err != nil {
			return err
		}
	}
	if value := strings.TrimSpace(os.Getenv("LEADRADAR_TIMEOUT")); value != "" {
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("config: LEADRADAR_TIMEOUT: %w", err)
		}
		c.Project.Backend.Timeout = value
	}
	if value := strings.TrimSpace(os.Getenv("LEADRADAR_REVERT_ON_FAILURE")); value != "" {
		revert, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("config: LEADRADAR_REVERT_ON_FAILURE: %w", err)
		}
		c.Project.Console.RevertOnFailure = revert
	}
	return nil
}

func (c *Config) finalize() error {
	c.Project.applyDefaults()
	c.Project.normalize()
	if err := c.Project.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	d, _ := time.ParseDuration(c.Project.Backend.Timeout)
	c.timeout = d
	return nil
}

func defaultProjectConfig() ProjectConfig {
	pc := ProjectConfig{}
	pc.applyDefaults()
	return pc
}

func (pc *ProjectConfig) applyDefaults() {
	if pc.Version == 0 {
		pc.Version = 1
	}
	if strings.TrimSpace(pc.Backend.BaseURL) == "" {
		pc.Backend.BaseURL = DefaultBaseURL
	}
	if strings.TrimSpace(pc.Backend.Timeout) == "" {
		pc.Backend.Timeout = DefaultTimeout.String()
	}
	if pc.Backend.RateLimit == 0 {
		pc.Backend.RateLimit = DefaultRateLimit
	}
	if pc.Backend.Burst == 0 {
		pc.Backend.Burst = DefaultBurst
	}
	if pc.Console.HighScoreThreshold == 0 {
		pc.Console.HighScoreThreshold = DefaultHighScoreThreshold
	}
	if strings.TrimSpace(pc.Console.DefaultChannel) == "" {
		pc.Console.DefaultChannel = string(lead.ChannelEmail)
	}
}

func (pc *ProjectConfig) normalize() {
	pc.Backend.BaseURL = strings.TrimRight(strings.TrimSpace(pc.Backend.BaseURL), "/")
	pc.Backend.Timeout = strings.TrimSpace(pc.Backend.Timeout)
	pc.Console.DefaultChannel = strings.ToLower(strings.TrimSpace(pc.Console.DefaultChannel))
	pc.Outreach.AgencyName = strings.TrimSpace(pc.Outreach.AgencyName)
	pc.Outreach.ServiceFocus = strings.TrimSpace(pc.Outreach.ServiceFocus)
	pc.Outreach.Tone = strings.ToLower(strings.TrimSpace(pc.Outreach.Tone))
}

func (pc *ProjectConfig) validate() error {
	if pc.Version < 1 {
		return fmt.Errorf("config version must be >= 1")
	}
	if err := validateBaseURL(pc.Backend.BaseURL); err != nil {
		return fmt.Errorf("backend.base_url: %w", err)
	}
	if d, err := time.ParseDuration(pc.Backend.Timeout); err != nil {
		return fmt.Errorf("backend.timeout: %w", err)
	} else if d <= 0 {
		return fmt.Errorf("backend.timeout must be positive")
	}
	if pc.Backend.RateLimit < 0 {
		return fmt.Errorf("backend.rate_limit must be >= 0")
	}
	if pc.Backend.Burst < 1 {
		return fmt.Errorf("backend.burst must be >= 1")
	}
	if t := pc.Console.HighScoreThreshold; t < 0 || t > 100 {
		return fmt.Errorf("console.high_score_threshold must be within 0-100")
	}
	if _, err := lead.ParseChannel(pc.Console.DefaultChannel); err != nil {
		return fmt.Errorf("console.default_channel: %w", err)
	}
	if _, err := lead.ParseTone(pc.Outreach.Tone); err != nil {
		return fmt.Errorf("outreach.tone: %w", err)
	}
	return nil
}

func validateBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https")
	}
	if u.Host == "" {
		return fmt.Errorf("host is required")
	}
	return nil
}

func ensureProjectConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.WriteFile(path, []byte(defaultProjectConfigYAML), 0644)
}

func (c *Config) saveProjectConfig() error {
	if c == nil {
		return fmt.Errorf("config: nil receiver")
	}
	c.onDisk.applyDefaults()
	c.onDisk.normalize()
	if err := c.onDisk.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := os.MkdirAll(c.RadarProjectDir, 0o755); err != nil {
		return fmt.Errorf("config: ensure radar dir: %w", err)
	}
	data, err := yaml.Marshal(c.onDisk)
	if err != nil {
		return fmt.Errorf("config: encode config: %w", err)
	}
	if err := os.WriteFile(c.ProjectConfigPath(), data, 0644); err != nil {
		return fmt.Errorf("config: write project config: %w", err)
	}
	return nil
}
