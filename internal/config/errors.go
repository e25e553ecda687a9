package config

import "errors"

// Sentinel errors returned by Load and Validate; callers match with errors.Is.
var (
	// ErrInvalidConfig wraps every validation failure.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrLoadConfig wraps failures to read a file, .env or environment.
	ErrLoadConfig = errors.New("load config failed")
)
