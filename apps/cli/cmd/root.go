package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

var (
	configFlag   string
	envFlag      string
	envFileFlags []string
	varFlags     []string
	verboseFlag  bool
	noColorFlag  bool
)

var rootCmd = &cobra.Command{
	Use:   "curlspec",
	Short: "Turn curl commands into structured requests.",
	Long: `curlspec parses curl command lines, with optional {{ placeholders }},
into structured HTTP requests that can be inspected, converted to .http
files, or sent.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogger(verboseFlag)
	},
}

func Execute(v, bt string) {
	version = v
	buildTime = bt
	if err := rootCmd.Execute(); err != nil {
		code := exitCodeFor(err)
		if !errors.Is(err, errRequestsFailed) {
			red := color.New(color.FgRed).SprintFunc()
			fmt.Fprintf(os.Stderr, "%s %v\n", red("Error:"), err)
		}
		os.Exit(code)
	}
}

func setupLogger(verbose bool) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFlag, "config", getEnvString("CURLSPEC_CONFIG", ""), "Path to config file (env: CURLSPEC_CONFIG)")
	pf.StringVarP(&envFlag, "env", "e", getEnvString("CURLSPEC_ENV", ""), "Environment from the config file (env: CURLSPEC_ENV)")
	pf.StringArrayVar(&envFileFlags, "env-file", getEnvList("CURLSPEC_ENV_FILE"), "Path to .env file for variable interpolation, repeatable (env: CURLSPEC_ENV_FILE)")
	pf.StringArrayVar(&varFlags, "var", nil, "Template variable as key=value, repeatable")
	pf.BoolVarP(&verboseFlag, "verbose", "v", getEnvBool("CURLSPEC_VERBOSE", false), "Verbose output (env: CURLSPEC_VERBOSE)")
	pf.BoolVar(&noColorFlag, "no-color", getEnvBool("CURLSPEC_NO_COLOR", false), "Disable colored output (env: CURLSPEC_NO_COLOR)")

	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
}
