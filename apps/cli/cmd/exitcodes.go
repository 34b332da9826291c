package cmd

import (
	"errors"

	"github.com/abdul-hamid-achik/curlspec/packages/core/config"
	"github.com/abdul-hamid-achik/curlspec/packages/core/parser"
	"github.com/abdul-hamid-achik/curlspec/packages/core/template"
	"github.com/abdul-hamid-achik/curlspec/packages/http"
)

// Exit codes for curlspec CLI
const (
	// ExitSuccess indicates the command completed
	ExitSuccess = 0

	// ExitTestFailure indicates a sent request came back with an error status
	ExitTestFailure = 1

	// ExitParseError indicates a curl command or template could not be parsed
	ExitParseError = 2

	// ExitConfigError indicates a configuration error
	ExitConfigError = 3

	// ExitNetworkError indicates a network/connection error
	ExitNetworkError = 4

	// ExitUsageError indicates invalid CLI usage
	ExitUsageError = 64
)

var (
	errUsage          = errors.New("usage error")
	errConfig         = errors.New("config error")
	errNetwork        = errors.New("request failed")
	errRequestsFailed = errors.New("requests returned error status")
)

func exitCodeFor(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, errRequestsFailed):
		return ExitTestFailure
	case errors.Is(err, parser.ErrGrammar),
		errors.Is(err, parser.ErrDuplicateURL),
		errors.Is(err, parser.ErrMissingURL),
		errors.Is(err, parser.ErrDuplicateHeader),
		errors.Is(err, parser.ErrHeaderFormat),
		errors.Is(err, parser.ErrAuthFormat),
		errors.Is(err, parser.ErrInvalidURL),
		errors.Is(err, parser.ErrUnsupportedMethod),
		errors.Is(err, template.ErrTemplate),
		errors.Is(err, http.ErrConversion):
		return ExitParseError
	case errors.Is(err, config.ErrInvalidConfig), errors.Is(err, errConfig):
		return ExitConfigError
	case errors.Is(err, errNetwork):
		return ExitNetworkError
	default:
		return ExitUsageError
	}
}
