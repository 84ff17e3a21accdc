// Package config loads application configuration from YAML files,
// .env files, and VOICEKIT_* environment variables, in that order of
// increasing precedence.
//
// The zero value of every section is usable: defaults are applied
// before validation, so an empty config file yields a working setup
// pointed at a local transcription backend.
package config
