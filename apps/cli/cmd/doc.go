// Package cmd implements the curlspec CLI commands using Cobra.
//
// Available commands:
//   - parse: Parse a curl command and print the structured request
//   - send: Parse a curl command and send it, optionally many times
//   - history: List, show and clear previously sent requests
//   - validate: Check .curl files without sending them
//   - init: Create a .curlspec.yaml config in the current directory
//   - version: Show curlspec version information
//
// Commands read the curl command from arguments, --file or stdin, render
// {{ placeholders }} from the selected environment, .env files, CURLSPEC_VAR_*
// process variables and --var flags, in that order of precedence.
package cmd
