package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/abdul-hamid-achik/curlspec/packages/core/config"
	"github.com/spf13/cobra"
)

var forceInit bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a curlspec project",
	Long: `Initialize curlspec in the current directory.

This creates:
  - .curlspec.yaml - Configuration file with environments
  - example.curl   - Example templated curl command

Examples:
  curlspec init
  curlspec init --force`,
	Args: cobra.NoArgs,
	RunE: initCommand,
}

func init() {
	initCmd.Flags().BoolVarP(&forceInit, "force", "f", false, "Overwrite existing files")
}

const exampleCommand = `# Create an item in the selected environment.
# Try: curlspec parse -f example.curl --env dev
curl -X POST '{{ baseUrl }}/items' \
  -H 'Content-Type: application/json' \
  -H 'X-Request-Id: {{ uuid() }}' \
  -u '{{ user }}:{{ password }}' \
  -d '{"name": "example", "createdAt": "{{ now() }}"}'
`

func initCommand(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	return initProject(cmd, cwd, forceInit)
}

func initProject(cmd *cobra.Command, dir string, force bool) error {
	configFile := filepath.Join(dir, config.ConfigFilenames[0])
	exampleFile := filepath.Join(dir, "example.curl")

	if !force {
		for _, f := range []string{configFile, exampleFile} {
			if _, err := os.Stat(f); err == nil {
				return fmt.Errorf("%w: file already exists: %s (use --force to overwrite)", errUsage, f)
			}
		}
	}

	cfg := config.DefaultConfig()
	cfg.History = ""
	cfg.DefaultEnvironment = "dev"
	cfg.Headers = map[string]string{
		"User-Agent": "curlspec/" + version,
	}
	cfg.Environments = map[string]map[string]any{
		"dev": {
			"baseUrl":  "http://localhost:3000",
			"user":     "dev",
			"password": "dev",
		},
		"staging": {
			"baseUrl": "https://staging.api.example.com",
		},
		"prod": {
			"baseUrl": "https://api.example.com",
		},
	}

	if err := cfg.SaveConfig(configFile); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", configFile)

	if err := os.WriteFile(exampleFile, []byte(exampleCommand), 0644); err != nil {
		return fmt.Errorf("failed to create example file: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", exampleFile)

	fmt.Fprintf(cmd.OutOrStdout(), "\ncurlspec project initialized!\n")
	fmt.Fprintf(cmd.OutOrStdout(), "Run 'curlspec parse -f example.curl' to see the parsed request.\n")

	return nil
}
