package env

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

// DefaultSystemPrefix marks process environment variables that become
// template variables: CURLSPEC_VAR_token=abc yields {{ token }}.
const DefaultSystemPrefix = "CURLSPEC_VAR_"

// Environment is one named variable set from the config file.
type Environment struct {
	Name      string
	Variables map[string]any
}

// LoadEnvironment picks envName out of the config's environments. An empty
// name yields an empty environment; an unknown name is an error.
func LoadEnvironment(envName string, configEnvs map[string]map[string]any) (*Environment, error) {
	env := &Environment{
		Name:      envName,
		Variables: make(map[string]any),
	}
	if envName == "" {
		return env, nil
	}

	vars, ok := configEnvs[envName]
	if !ok {
		names := make([]string, 0, len(configEnvs))
		for name := range configEnvs {
			names = append(names, name)
		}
		sort.Strings(names)
		return nil, fmt.Errorf("unknown environment %q (available: %s)", envName, strings.Join(names, ", "))
	}
	for k, v := range vars {
		env.Variables[k] = v
	}
	return env, nil
}

// MergeVariables merges sources left to right; later sources win.
func MergeVariables(sources ...map[string]any) map[string]any {
	result := make(map[string]any)
	for _, src := range sources {
		for k, v := range src {
			result[k] = v
		}
	}
	return result
}

// LoadSystemEnv returns process environment variables starting with prefix,
// with the prefix stripped. An empty prefix returns everything.
func LoadSystemEnv(prefix string) map[string]any {
	result := make(map[string]any)
	for _, e := range os.Environ() {
		key, value, found := strings.Cut(e, "=")
		if !found {
			continue
		}
		if prefix == "" {
			result[key] = value
		} else if len(key) > len(prefix) && strings.HasPrefix(key, prefix) {
			result[key[len(prefix):]] = value
		}
	}
	return result
}

// ParseVars turns key=value pairs into variables. Values that are valid
// JSON objects, arrays, numbers or booleans keep their structure so they
// render as JSON; anything else is a string.
func ParseVars(pairs []string) (map[string]any, error) {
	result := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !found || key == "" {
			return nil, fmt.Errorf("invalid variable %q: expected key=value", pair)
		}
		result[key] = parseValue(value)
	}
	return result, nil
}

func parseValue(s string) any {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" || trimmed == "null" || strings.HasPrefix(trimmed, `"`) {
		return s
	}
	var v any
	if err := json.Unmarshal([]byte(trimmed), &v); err != nil {
		return s
	}
	return v
}

// Sources lists everything that feeds the rendering context.
type Sources struct {
	Environment  map[string]any
	EnvFiles     []string
	SystemPrefix string
	Vars         []string
}

// Build merges the sources in precedence order. The result is never nil.
func (s Sources) Build() (map[string]any, error) {
	layers := []map[string]any{s.Environment}

	for _, path := range s.EnvFiles {
		vars, err := LoadDotEnv(path)
		if err != nil {
			return nil, err
		}
		layer := make(map[string]any, len(vars))
		for k, v := range vars {
			layer[k] = v
		}
		layers = append(layers, layer)
	}

	if s.SystemPrefix != "" {
		layers = append(layers, LoadSystemEnv(s.SystemPrefix))
	}

	cli, err := ParseVars(s.Vars)
	if err != nil {
		return nil, err
	}
	layers = append(layers, cli)

	return MergeVariables(layers...), nil
}
