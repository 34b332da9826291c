// Package env assembles the rendering context passed to parser.Load.
//
// Variables come from, lowest precedence first:
//   - a named environment in the config file
//   - .env files
//   - process environment variables carrying a prefix (CURLSPEC_VAR_ by default)
//   - key=value pairs given on the command line
package env
