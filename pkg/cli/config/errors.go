package config

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors for configuration validation
var (
	ErrConfigNotFound  = goerr.New("configuration file not found")
	ErrInvalidConfig   = goerr.New("invalid configuration")
	ErrDuplicateEntry  = goerr.New("duplicate allow-list entry")
	ErrEmptyEntry      = goerr.New("empty allow-list entry")
	ErrUnknownBackend  = goerr.New("unknown backend")
	ErrMissingSettings = goerr.New("required settings are missing")
)

// Context keys for error values
const (
	ConfigPathKey = "config_path"
	ListKey       = "list"
	EntryKey      = "entry"
	BackendKey    = "backend"
	MissingKey    = "missing"
)
