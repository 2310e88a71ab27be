package config

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors for configuration validation
var (
	ErrConfigNotFound    = goerr.New("configuration file not found")
	ErrInvalidConfig     = goerr.New("invalid configuration")
	ErrInvalidThresholds = goerr.New("invalid risk level thresholds")
)

// Context keys for error values
const (
	ConfigPathKey = "config_path"
)
