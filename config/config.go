// Package config provides configuration management for Konan.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/unbound-computer/daemon-konan/policy"
)

const (
	// Default values
	DefaultPublishTimeout  = 5 * time.Second
	DefaultSettingsTimeout = 3 * time.Second
	DefaultSettingsSocket  = "settings.sock"
	DefaultBaseDir         = ".unbound"

	// Environment variable names
	EnvAblyKey         = "ABLY_API_KEY"
	EnvSettingsSocket  = "KONAN_SETTINGS_SOCKET"
	EnvPublishTimeout  = "KONAN_PUBLISH_TIMEOUT"
	EnvSettingsTimeout = "KONAN_SETTINGS_TIMEOUT"
	EnvUnboundBaseDir  = "UNBOUND_BASE_DIR"

	// Process-level policy defaults. These sit between the hard-coded
	// defaults and the per-session stored settings in merge precedence.
	EnvDiffExplainability   = "KONAN_DIFF_EXPLAINABILITY"
	EnvAutoApprove          = "KONAN_AUTO_APPROVE"
	EnvAutoApproveThreshold = "KONAN_AUTO_APPROVE_THRESHOLD"
	EnvAutoReject           = "KONAN_AUTO_REJECT"
	EnvAutoRejectThreshold  = "KONAN_AUTO_REJECT_THRESHOLD"
	EnvAutoSteer            = "KONAN_AUTO_STEER"
	EnvAutoSteerThreshold   = "KONAN_AUTO_STEER_THRESHOLD"
)

// Config holds all configuration for the Konan daemon.
type Config struct {
	// AblyKey is the Ably API key for authentication.
	AblyKey string

	// DeviceID is the unique identifier for this device.
	// Used to construct the events channel name: session-events:{device_id}
	DeviceID string

	// EventsChannel is the Ably channel carrying inbound product events.
	EventsChannel string

	// SettingsSocketPath is the Unix socket of the session settings store.
	SettingsSocketPath string

	// PublishTimeout bounds each job enqueue publish attempt.
	PublishTimeout time.Duration

	// SettingsTimeout bounds each settings store read.
	SettingsTimeout time.Duration

	// DefaultPolicy is the process-level default supervision policy, built
	// from the KONAN_* environment variables over the hard-coded defaults.
	// It is injected into the engine at construction; nothing reads these
	// variables ad hoc afterwards.
	DefaultPolicy policy.FileChangePolicy
}

// New creates a new Config with values from environment variables and defaults.
func New(deviceID string) (*Config, error) {
	cfg := &Config{
		DeviceID:        deviceID,
		EventsChannel:   "session-events:" + deviceID,
		PublishTimeout:  DefaultPublishTimeout,
		SettingsTimeout: DefaultSettingsTimeout,
	}

	cfg.AblyKey = os.Getenv(EnvAblyKey)

	if socketPath := os.Getenv(EnvSettingsSocket); socketPath != "" {
		cfg.SettingsSocketPath = socketPath
	} else {
		baseDir := os.Getenv(EnvUnboundBaseDir)
		if baseDir == "" {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return nil, err
			}
			baseDir = filepath.Join(homeDir, DefaultBaseDir)
		}
		cfg.SettingsSocketPath = filepath.Join(baseDir, DefaultSettingsSocket)
	}

	var err error
	if cfg.PublishTimeout, err = timeoutFromEnv(EnvPublishTimeout, DefaultPublishTimeout); err != nil {
		return nil, err
	}
	if cfg.SettingsTimeout, err = timeoutFromEnv(EnvSettingsTimeout, DefaultSettingsTimeout); err != nil {
		return nil, err
	}

	cfg.DefaultPolicy = policy.Resolve(policy.Default(), policyOverlayFromEnv())

	return cfg, nil
}

func timeoutFromEnv(name string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback, nil
	}
	secs, err := strconv.Atoi(raw)
	if err != nil {
		return 0, err
	}
	return time.Duration(secs) * time.Second, nil
}

// policyOverlayFromEnv builds the process-defaults policy layer. Unset or
// unparseable variables leave the hard-coded defaults in place.
func policyOverlayFromEnv() policy.Overlay {
	var overlay policy.Overlay

	if v, ok := envBool(EnvDiffExplainability); ok {
		overlay.DiffExplainability = &v
	}
	overlay.Approve = envRule(EnvAutoApprove, EnvAutoApproveThreshold)
	overlay.Reject = envRule(EnvAutoReject, EnvAutoRejectThreshold)
	overlay.Steer = envRule(EnvAutoSteer, EnvAutoSteerThreshold)

	return overlay
}

func envRule(enabledName, thresholdName string) policy.RuleOverlay {
	var rule policy.RuleOverlay
	if v, ok := envBool(enabledName); ok {
		rule.Enabled = &v
	}
	if raw := os.Getenv(thresholdName); raw != "" {
		level := policy.ParseRiskLevel(raw, "")
		if level.Valid() {
			rule.Threshold = &level
		}
	}
	return rule
}

func envBool(name string) (bool, bool) {
	raw := os.Getenv(name)
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}

// Validate checks that all required configuration is present.
func (c *Config) Validate() error {
	if c.AblyKey == "" {
		return &ConfigError{Field: "AblyKey", Message: "ABLY_API_KEY environment variable is required"}
	}
	if c.DeviceID == "" {
		return &ConfigError{Field: "DeviceID", Message: "device ID is required"}
	}
	if c.SettingsSocketPath == "" {
		return &ConfigError{Field: "SettingsSocketPath", Message: "settings socket path is required"}
	}
	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error: " + e.Field + ": " + e.Message
}
