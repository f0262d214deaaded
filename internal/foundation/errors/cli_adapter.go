package errors

import (
	"context"
	"fmt"
	"log/slog"
)

// locatorKeys are context keys that point at the failing input. The first present
// one is logged even without --verbose.
var locatorKeys = []string{"key", "path", "dir", "url"}

// CLIErrorAdapter maps errors to exit codes and log records for the docsnap CLI.
type CLIErrorAdapter struct {
	verbose bool
	logger  *slog.Logger
}

// NewCLIErrorAdapter creates a new CLI error adapter.
func NewCLIErrorAdapter(verbose bool, logger *slog.Logger) *CLIErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIErrorAdapter{verbose: verbose, logger: logger}
}

// ExitCodeFor determines the process exit code for err.
func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	classified, ok := AsClassified(err)
	if !ok {
		return 1
	}
	switch classified.Category() {
	case CategoryValidation:
		return 2
	case CategoryConfig:
		return 7
	case CategoryNetwork, CategoryGit, CategoryStore:
		return 8
	case CategoryContent, CategorySnapshot, CategoryHook, CategoryFileSystem, CategoryNotFound:
		return 11
	case CategoryDaemon:
		return 12
	case CategoryInternal:
		return 10
	default:
		return 1
	}
}

// FormatError renders err for the terminal. Context is only shown in verbose mode.
func (a *CLIErrorAdapter) FormatError(err error) string {
	if err == nil {
		return ""
	}
	classified, ok := AsClassified(err)
	if !ok || !a.verbose || len(classified.Context()) == 0 {
		return fmt.Sprintf("Error: %v", err)
	}
	return fmt.Sprintf("Error: %v %v", err, map[string]any(classified.Context()))
}

// Log writes err to the adapter's logger and returns the exit code for it.
func (a *CLIErrorAdapter) Log(err error) int {
	if err == nil {
		return 0
	}
	attrs := []slog.Attr{slog.String("error", err.Error())}
	if classified, ok := AsClassified(err); ok {
		attrs = append(attrs, slog.String("category", string(classified.Category())))
		if classified.CanRetry() {
			attrs = append(attrs, slog.Bool("retryable", true))
		}
		if a.verbose {
			for k, v := range classified.Context() {
				attrs = append(attrs, slog.Any(k, v))
			}
		} else {
			for _, k := range locatorKeys {
				if v, ok := classified.Context().GetString(k); ok {
					attrs = append(attrs, slog.String(k, v))
					break
				}
			}
		}
	}
	a.logger.LogAttrs(context.Background(), slog.LevelError, "Command failed", attrs...)
	return a.ExitCodeFor(err)
}
