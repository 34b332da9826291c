package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/abdul-hamid-achik/curlspec/packages/core/template"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file|directory>...",
	Short: "Check curl command files for errors",
	Long: `Parse every .curl file without sending anything and report errors.

Placeholders are rendered with the selected environment so missing
variables are reported too; pass --raw to check the syntax only.

Examples:
  curlspec validate login.curl
  curlspec validate ./requests/ --env staging`,
	Args: cobra.MinimumNArgs(1),
	RunE: validateCommand,
}

var validateRawFlag bool

// CommandFileExts are the extensions validate picks up in directories.
var CommandFileExts = []string{".curl", ".sh"}

func init() {
	validateCmd.Flags().BoolVar(&validateRawFlag, "raw", false, "Skip {{ placeholder }} rendering")
	rootCmd.AddCommand(validateCmd)
}

func validateCommand(cmd *cobra.Command, args []string) error {
	files, err := collectFiles(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("%w: no .curl files found", errUsage)
	}

	opts := loadOptions{raw: validateRawFlag, renderer: template.NewRenderer()}
	if !opts.raw {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if opts.vars, err = buildVars(cfg); err != nil {
			return err
		}
	}
	return validateFiles(cmd.OutOrStdout(), cmd.ErrOrStderr(), files, opts)
}

// validateFiles reports every file and returns the first error, if any.
func validateFiles(out, errOut io.Writer, files []string, opts loadOptions) error {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()

	var firstErr error
	invalid := 0
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err == nil {
			_, err = loadRequest(string(data), opts)
		}
		if err != nil {
			fmt.Fprintf(errOut, "%s %s: %v\n", red("✗"), file, err)
			invalid++
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		fmt.Fprintf(out, "%s %s\n", green("✓"), file)
	}

	if firstErr != nil {
		return fmt.Errorf("%d of %d files invalid, first error: %w", invalid, len(files), firstErr)
	}
	return nil
}

func collectFiles(args []string) ([]string, error) {
	var files []string

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("%w: cannot access %s: %w", errUsage, arg, err)
		}

		if !info.IsDir() {
			// explicit files are taken whatever their extension
			files = append(files, arg)
			continue
		}

		err = filepath.Walk(arg, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if !info.IsDir() && isCommandFile(path) {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	return files, nil
}

func isCommandFile(path string) bool {
	ext := filepath.Ext(path)
	for _, e := range CommandFileExts {
		if ext == e {
			return true
		}
	}
	return false
}
