package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/abdul-hamid-achik/curlspec/packages/core/config"
	"github.com/abdul-hamid-achik/curlspec/packages/core/template"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

var parseCmd = &cobra.Command{
	Use:   "parse [curl command]",
	Short: "Parse a curl command and print the structured request",
	Long: `Parse a curl command into a structured request without sending it.

The command can be given as arguments, read from one or more files with
--file, or piped on stdin.

Examples:
  curlspec parse "curl -X POST -d 'a=1' https://api.example.com/items"
  curlspec parse -- curl -H 'Accept: application/json' https://api.example.com
  curlspec parse -f request.curl --env staging --output http
  pbpaste | curlspec parse --output json
  curlspec parse -f request.curl --watch`,
	RunE: parseCommand,
}

const (
	// WatchDebounceDelay is the debounce delay for file watch events
	WatchDebounceDelay = 300 * time.Millisecond
)

var (
	parseFileFlags  []string
	parseOutputFlag string
	parseRawFlag    bool
	parseRawURLFlag bool
	parseWatchFlag  bool
)

func init() {
	parseCmd.Flags().StringArrayVarP(&parseFileFlags, "file", "f", nil, "Read the curl command from a file, repeatable")
	parseCmd.Flags().StringVarP(&parseOutputFlag, "output", "o", getEnvString("CURLSPEC_OUTPUT", ""), "Output format: console, json, http (env: CURLSPEC_OUTPUT)")
	parseCmd.Flags().BoolVar(&parseRawFlag, "raw", false, "Skip {{ placeholder }} rendering")
	parseCmd.Flags().BoolVar(&parseRawURLFlag, "raw-url", false, "Keep the URL verbatim instead of parsing and normalizing it")
	parseCmd.Flags().BoolVarP(&parseWatchFlag, "watch", "w", false, "Watch --file inputs and re-parse on change")
}

func parseCommand(cmd *cobra.Command, args []string) error {
	inputs, err := readInputs(args, parseFileFlags, cmd.InOrStdin())
	if err != nil {
		return err
	}
	if parseWatchFlag && len(parseFileFlags) == 0 {
		return fmt.Errorf("%w: --watch needs at least one --file", errUsage)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	opts := loadOptions{
		raw:      parseRawFlag,
		rawURL:   parseRawURLFlag,
		renderer: template.NewRenderer(),
	}

	run := func() error {
		if !opts.raw {
			vars, err := buildVars(cfg)
			if err != nil {
				return err
			}
			opts.vars = vars
		}
		return runParse(cmd.OutOrStdout(), parseOutputFlag, cfg, inputs, opts)
	}

	if !parseWatchFlag {
		return run()
	}

	if err := run(); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "%v\n", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return watchFiles(ctx, parseFileFlags, cmd.OutOrStdout(), func() {
		fresh := make([]commandInput, 0, len(parseFileFlags))
		for _, path := range parseFileFlags {
			data, err := os.ReadFile(path)
			if err != nil {
				slog.Warn("failed to re-read file", "path", path, "error", err)
				return
			}
			fresh = append(fresh, commandInput{Source: path, Command: string(data)})
		}
		inputs = fresh
		if err := run(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "%v\n", err)
		}
	})
}

// runParse parses every input and writes it through one formatter. It stops
// at the first failing input.
func runParse(w io.Writer, format string, cfg *config.Config, inputs []commandInput, opts loadOptions) error {
	formatter, err := newFormatter(format, w, cfg)
	if err != nil {
		return err
	}

	for _, in := range inputs {
		req, err := loadRequest(in.Command, opts)
		if err != nil {
			if len(inputs) > 1 {
				err = fmt.Errorf("%s: %w", in.Source, err)
			}
			formatter.FormatError(err)
			_ = flush(formatter)
			return err
		}
		formatter.FormatRequest(req)
	}
	return flush(formatter)
}

// watchFiles calls onChange, debounced, whenever one of paths is written.
// It returns when ctx is done.
func watchFiles(ctx context.Context, paths []string, w io.Writer, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	watched := make(map[string]bool)
	targets := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return err
		}
		targets[abs] = true
		// editors replace files on save, so watch the directory
		dir := filepath.Dir(abs)
		if !watched[dir] {
			if err := watcher.Add(dir); err != nil {
				return fmt.Errorf("failed to watch %s: %w", dir, err)
			}
			watched[dir] = true
		}
	}

	fmt.Fprintf(w, "\nWatching for changes... (press Ctrl+C to stop)\n")

	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()
	fire := make(chan string, 1)

	for {
		select {
		case <-ctx.Done():
			return nil

		case name := <-fire:
			fmt.Fprintf(w, "\nFile changed: %s\n\n", name)
			onChange()
			fmt.Fprintf(w, "\nWatching for changes... (press Ctrl+C to stop)\n")

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			abs, _ := filepath.Abs(event.Name)
			if !targets[abs] || !(event.Has(fsnotify.Write) || event.Has(fsnotify.Create)) {
				continue
			}
			slog.Debug("file changed", "path", event.Name, "op", event.Op.String())
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			name := event.Name
			debounceTimer = time.AfterFunc(WatchDebounceDelay, func() {
				select {
				case fire <- name:
				default:
				}
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watcher error", "error", err)
		}
	}
}
