// Package config handles configuration loading and management for curlspec.
//
// It provides functionality for:
//   - Loading configuration from .curlspec.yaml or curlspec.yaml files
//   - Validating the file against an embedded JSON schema
//   - Default configuration values
//   - Named environments of template variables
package config
