// Package config defines the loresync-server configuration.
//
//   - spec.go: ServerConfig struct definition
//   - default.go: default values
//   - verify.go: validation (addresses, levels, subsystem seeds)
//   - sanitize.go: masking of secret payload values before logging
//
// Configuration is loaded via internal/infra/confloader from a YAML file
// and LORESYNC_* environment variables.
package config
