package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/abdul-hamid-achik/curlspec/packages/core/config"
	"github.com/abdul-hamid-achik/curlspec/packages/core/env"
	"github.com/abdul-hamid-achik/curlspec/packages/core/parser"
	"github.com/abdul-hamid-achik/curlspec/packages/core/template"
	"github.com/abdul-hamid-achik/curlspec/packages/output"
)

// Environment variable helpers
func getEnvString(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		return val == "true" || val == "1" || val == "yes"
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

// getEnvList splits a comma separated variable.
func getEnvList(key string) []string {
	val := os.Getenv(key)
	if val == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(configFlag)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errConfig, err)
	}
	if cfg.Path != "" {
		slog.Debug("loaded config", "path", cfg.Path)
	}
	return cfg, nil
}

// buildVars assembles the rendering context from the config environment,
// .env files, CURLSPEC_VAR_* variables and --var flags.
func buildVars(cfg *config.Config) (map[string]any, error) {
	name := envFlag
	if name == "" {
		name = cfg.DefaultEnvironment
	}
	environment, err := env.LoadEnvironment(name, cfg.Environments)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errConfig, err)
	}

	files := append(append([]string{}, cfg.EnvFiles...), envFileFlags...)
	vars, err := env.Sources{
		Environment:  environment.Variables,
		EnvFiles:     files,
		SystemPrefix: env.DefaultSystemPrefix,
		Vars:         varFlags,
	}.Build()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errConfig, err)
	}
	slog.Debug("template variables", "environment", name, "count", len(vars))
	return vars, nil
}

// commandInput is one curl command and where it came from.
type commandInput struct {
	Source  string
	Command string
}

// readInputs returns the command given as arguments, the contents of each
// --file, or stdin when neither is given or the only argument is "-".
func readInputs(args, files []string, stdin io.Reader) ([]commandInput, error) {
	if len(args) > 0 && len(files) > 0 {
		return nil, fmt.Errorf("%w: pass the command as arguments or with --file, not both", errUsage)
	}

	if len(files) > 0 {
		inputs := make([]commandInput, 0, len(files))
		for _, path := range files {
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", errUsage, err)
			}
			inputs = append(inputs, commandInput{Source: path, Command: string(data)})
		}
		return inputs, nil
	}

	if len(args) == 0 || (len(args) == 1 && args[0] == "-") {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("%w: reading stdin: %w", errUsage, err)
		}
		if strings.TrimSpace(string(data)) == "" {
			return nil, fmt.Errorf("%w: no curl command given", errUsage)
		}
		return []commandInput{{Source: "stdin", Command: string(data)}}, nil
	}

	command := args[0]
	if len(args) > 1 {
		quoted := make([]string, len(args))
		for i, a := range args {
			quoted[i] = shellQuote(a)
		}
		command = strings.Join(quoted, " ")
	}
	if !strings.HasPrefix(strings.TrimSpace(command), "curl") {
		command = "curl " + command
	}
	return []commandInput{{Source: "args", Command: command}}, nil
}

var shellSafe = regexp.MustCompile(`^[A-Za-z0-9_@%+=:,./-]+$`)

// shellQuote re-quotes an argument the shell already split so the lexer
// sees it as one word again.
func shellQuote(s string) string {
	if shellSafe.MatchString(s) {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

type loadOptions struct {
	raw      bool
	rawURL   bool
	vars     map[string]any
	renderer *template.Renderer
}

// loadRequest parses one command, rendering placeholders unless raw is set.
func loadRequest(command string, o loadOptions) (*parser.ParsedRequest, error) {
	opts := []parser.Option{parser.WithURLParsing(!o.rawURL)}
	if o.raw {
		return parser.Parse(command, opts...)
	}
	if o.renderer != nil {
		opts = append(opts, parser.WithRenderer(o.renderer))
	}
	req, err := parser.Load(command, o.vars, opts...)
	if err != nil {
		return nil, err
	}
	if ignored := req.IgnoredFlags(); len(ignored) > 0 {
		slog.Debug("ignoring unsupported curl flags", "flags", strings.Join(ignored, " "))
	}
	return req, nil
}

func newFormatter(format string, w io.Writer, cfg *config.Config) (output.Formatter, error) {
	if format == "" {
		format = cfg.Output
	}
	f, err := output.New(format, output.Options{
		Writer:  w,
		Verbose: verboseFlag || cfg.GetVerbose(),
		NoColor: noColorFlag || cfg.GetNoColor(),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errUsage, err)
	}
	return f, nil
}

func flush(f output.Formatter) error {
	if flushable, ok := f.(output.Flushable); ok {
		if err := flushable.Flush(); err != nil {
			return fmt.Errorf("error writing output: %w", err)
		}
	}
	return nil
}
