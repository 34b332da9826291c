package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/abdul-hamid-achik/curlspec/packages/core/config"
	"github.com/abdul-hamid-achik/curlspec/packages/core/runner"
	"github.com/abdul-hamid-achik/curlspec/packages/core/template"
	"github.com/abdul-hamid-achik/curlspec/packages/history"
	"github.com/abdul-hamid-achik/curlspec/packages/http"
	"github.com/abdul-hamid-achik/curlspec/packages/output"
	"github.com/abdul-hamid-achik/curlspec/packages/stats"
	"github.com/spf13/cobra"
)

var sendCmd = &cobra.Command{
	Use:   "send [curl command]",
	Short: "Parse a curl command and send it",
	Long: `Parse a curl command and send the request.

With --repeat or --duration the request is sent many times and a latency
summary is printed instead of each response.

Examples:
  curlspec send "curl https://api.example.com/health"
  curlspec send -f login.curl --env staging --select token
  curlspec send -f search.curl --repeat 200 --concurrency 10 --rate 50
  curlspec send --replay 3f2a9c1e`,
	RunE: sendCommand,
}

var (
	sendFileFlags     []string
	sendOutputFlag    string
	sendRawFlag       bool
	sendRepeatFlag    int
	sendDurationFlag  string
	sendConcFlag      int
	sendRateFlag      float64
	sendTimeoutFlag   string
	sendProxyFlag     string
	sendRetryFlag     int
	sendRetryDelay    string
	sendSelectFlag    string
	sendFailFlag      bool
	sendNoHistoryFlag bool
	sendHistoryFlag   string
	sendReplayFlag    string
	sendMetricsFlag   string
)

func init() {
	f := sendCmd.Flags()
	f.StringArrayVarP(&sendFileFlags, "file", "f", nil, "Read the curl command from a file")
	f.StringVarP(&sendOutputFlag, "output", "o", getEnvString("CURLSPEC_OUTPUT", ""), "Output format: console, json, http (env: CURLSPEC_OUTPUT)")
	f.BoolVar(&sendRawFlag, "raw", false, "Skip {{ placeholder }} rendering")
	f.IntVarP(&sendRepeatFlag, "repeat", "n", 1, "Number of times to send the request")
	f.StringVarP(&sendDurationFlag, "duration", "d", "", "Keep sending for this long (e.g., 30s, 1m); overrides --repeat")
	f.IntVarP(&sendConcFlag, "concurrency", "c", getEnvInt("CURLSPEC_CONCURRENCY", 0), "Requests in flight at once (env: CURLSPEC_CONCURRENCY)")
	f.Float64VarP(&sendRateFlag, "rate", "r", getEnvFloat("CURLSPEC_RATE", 0), "Maximum requests per second, 0 for unlimited (env: CURLSPEC_RATE)")
	f.StringVar(&sendTimeoutFlag, "timeout", getEnvString("CURLSPEC_TIMEOUT", ""), "Request timeout (e.g., 30s, 1m) (env: CURLSPEC_TIMEOUT)")
	f.StringVar(&sendProxyFlag, "proxy", getEnvString("CURLSPEC_PROXY", ""), "Proxy URL for HTTP requests (env: CURLSPEC_PROXY)")
	f.IntVar(&sendRetryFlag, "retry", 0, "Retry network errors and 408/429/5xx responses this many times")
	f.StringVar(&sendRetryDelay, "retry-delay", "1s", "Delay between retries")
	f.StringVar(&sendSelectFlag, "select", "", "Print only the value at this JSON path of the response body")
	f.BoolVar(&sendFailFlag, "fail", false, "Exit with status 1 when a response has an error status")
	f.BoolVar(&sendNoHistoryFlag, "no-history", getEnvBool("CURLSPEC_NO_HISTORY", false), "Do not record the request in history (env: CURLSPEC_NO_HISTORY)")
	f.StringVar(&sendHistoryFlag, "history", getEnvString("CURLSPEC_HISTORY", ""), "History database path (env: CURLSPEC_HISTORY)")
	f.StringVar(&sendReplayFlag, "replay", "", "Send the command of a history entry, by id or id prefix")
	f.StringVar(&sendMetricsFlag, "metrics-file", getEnvString("CURLSPEC_METRICS_FILE", ""), "Write the run summary to this file, JSON for .json and Prometheus text otherwise (env: CURLSPEC_METRICS_FILE)")
}

// sendOptions is everything runSend needs, resolved from flags and config.
type sendOptions struct {
	command  string
	load     loadOptions
	format   string
	run      runner.Config
	rate     float64
	timeout  time.Duration
	proxy    string
	selector string
	fail     bool
	history  *history.Store
	metrics  string
}

func sendCommand(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	recordSends := !sendNoHistoryFlag && !cfg.GetNoHistory()
	var store *history.Store
	if recordSends || sendReplayFlag != "" {
		store, err = openHistory(cfg, sendHistoryFlag)
		switch {
		case err != nil && sendReplayFlag != "":
			return err
		case err != nil:
			slog.Warn("history disabled", "error", err)
			recordSends = false
		default:
			defer store.Close()
		}
	}

	var command string
	if sendReplayFlag != "" {
		if len(args) > 0 || len(sendFileFlags) > 0 {
			return fmt.Errorf("%w: --replay cannot be combined with a command", errUsage)
		}
		entry, err := store.Get(cmd.Context(), sendReplayFlag)
		if err != nil {
			return fmt.Errorf("%w: %w", errUsage, err)
		}
		command = entry.Command
	} else {
		inputs, err := readInputs(args, sendFileFlags, cmd.InOrStdin())
		if err != nil {
			return err
		}
		if len(inputs) != 1 {
			return fmt.Errorf("%w: send takes exactly one command", errUsage)
		}
		command = inputs[0].Command
	}

	opts := sendOptions{
		command:  command,
		format:   sendOutputFlag,
		rate:     sendRateFlag,
		proxy:    sendProxyFlag,
		selector: sendSelectFlag,
		fail:     sendFailFlag,
		metrics:  sendMetricsFlag,
		load:     loadOptions{raw: sendRawFlag, renderer: template.NewRenderer()},
		run: runner.Config{
			Repeat:      sendRepeatFlag,
			Concurrency: sendConcFlag,
			Retries:     sendRetryFlag,
		},
	}
	if recordSends {
		opts.history = store
	}

	if opts.timeout, err = parseDurationFlag("timeout", sendTimeoutFlag); err != nil {
		return err
	}
	if opts.run.Duration, err = parseDurationFlag("duration", sendDurationFlag); err != nil {
		return err
	}
	if opts.run.RetryDelay, err = parseDurationFlag("retry-delay", sendRetryDelay); err != nil {
		return err
	}
	if !opts.load.raw {
		if opts.load.vars, err = buildVars(cfg); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runSend(ctx, cmd.OutOrStdout(), cfg, opts)
}

func parseDurationFlag(name, value string) (time.Duration, error) {
	if value == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid --%s value %q: %v (use format like 30s, 1m, 500ms)", errUsage, name, value, err)
	}
	return d, nil
}

func openHistory(cfg *config.Config, override string) (*history.Store, error) {
	path := cfg.History
	if override != "" {
		path = override
	}
	if path == "" {
		path = config.DefaultHistoryPath()
	}
	store, err := history.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errConfig, err)
	}
	return store, nil
}

// clientOptions layers config values under explicit flags.
func clientOptions(cfg *config.Config, opts sendOptions) []http.ClientOption {
	timeout := time.Duration(cfg.Timeout) * time.Millisecond
	if opts.timeout > 0 {
		timeout = opts.timeout
	}
	proxy := cfg.Proxy
	if opts.proxy != "" {
		proxy = opts.proxy
	}
	rate := cfg.Rate
	if opts.rate > 0 {
		rate = opts.rate
	}

	clientOpts := []http.ClientOption{
		http.WithMaxRedirects(cfg.MaxRedirects),
		http.WithDefaultHeaders(cfg.Headers),
	}
	if timeout > 0 {
		clientOpts = append(clientOpts, http.WithTimeout(timeout))
	}
	if proxy != "" {
		clientOpts = append(clientOpts, http.WithProxy(proxy))
	}
	if rate > 0 {
		clientOpts = append(clientOpts, http.WithRateLimit(rate, 1))
	}
	return clientOpts
}

func runSend(ctx context.Context, w io.Writer, cfg *config.Config, opts sendOptions) error {
	formatter, err := newFormatter(opts.format, w, cfg)
	if err != nil {
		return err
	}

	parsed, err := loadRequest(opts.command, opts.load)
	if err != nil {
		formatter.FormatError(err)
		_ = flush(formatter)
		return err
	}
	req, err := http.FromParsed(parsed)
	if err != nil {
		formatter.FormatError(err)
		_ = flush(formatter)
		return err
	}

	runCfg := opts.run
	if runCfg.Concurrency <= 0 {
		runCfg.Concurrency = cfg.Concurrency
	}
	single := runCfg.Duration == 0 && runCfg.Repeat <= 1

	client := http.NewClientFor(req, clientOptions(cfg, opts)...)
	result, runErr := runner.NewRunner(client, &runCfg).Run(ctx, req)

	if opts.history != nil {
		recordHistory(opts.history, opts.command, req, result)
	}
	if opts.metrics != "" {
		labels := map[string]string{"method": req.Method, "url": req.URL}
		if err := stats.WriteFile(opts.metrics, result.Summary, labels); err != nil {
			slog.Warn("failed to write metrics", "path", opts.metrics, "error", err)
		}
	}

	first := result.First
	switch {
	case opts.selector != "" && first != nil && first.Response != nil:
		value, ok := first.Response.Select(opts.selector)
		if !ok {
			return fmt.Errorf("%w: no value at %q in response body", errRequestsFailed, opts.selector)
		}
		fmt.Fprintln(w, value)
	case single:
		// console shows the request only in verbose mode
		_, isConsole := formatter.(*output.ConsoleFormatter)
		if !isConsole || verboseFlag || cfg.GetVerbose() {
			formatter.FormatRequest(parsed)
		}
		if first != nil && first.Response != nil {
			formatter.FormatResponse(first.Response)
		}
	default:
		formatter.FormatRequest(parsed)
		formatter.FormatSummary(result.Summary)
	}

	if first != nil && first.Error != nil && single {
		formatter.FormatError(first.Error)
	}
	if err := flush(formatter); err != nil {
		return err
	}

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	s := result.Summary
	if s.Errored > 0 && s.Errored == s.Total {
		if first != nil && first.Error != nil {
			return fmt.Errorf("%w: %w", errNetwork, first.Error)
		}
		return errNetwork
	}
	if opts.fail && (s.Failed > 0 || s.Errored > 0) {
		return errRequestsFailed
	}
	return nil
}

// recordHistory stores one entry per run. Repeated runs record the first
// outcome and the mean latency.
func recordHistory(store *history.Store, command string, req *http.Request, result *runner.RunResult) {
	entry := history.Entry{
		Command: command,
		Method:  req.Method,
		URL:     req.URL,
	}
	if first := result.First; first != nil {
		if first.Response != nil {
			entry.Status = first.Response.StatusCode
		}
		if first.Error != nil {
			entry.Error = first.Error.Error()
		}
		entry.DurationMs = first.Duration.Milliseconds()
	}
	if result.Summary != nil && result.Summary.Total > 1 {
		entry.DurationMs = result.Summary.Mean.Milliseconds()
	}

	// a cancelled send should still be recorded
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := store.Add(ctx, entry); err != nil {
		slog.Warn("failed to record history", "error", err)
	}
}
