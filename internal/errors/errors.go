// Package errors formats command failures for the terminal.
package errors

import (
	"fmt"
	"os"

	"github.com/sadopc/focuskit/internal/logger"
)

// Format prefixes err with "Error: ". A nil error formats as "".
func Format(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Error: %v", err)
}

func Formatf(format string, args ...any) string {
	return fmt.Sprintf("Error: "+format, args...)
}

// Fatal logs err, prints it to stderr and exits with status 1.
func Fatal(err error) {
	if err != nil {
		logger.Error("command failed", "error", err)
		fmt.Fprintln(os.Stderr, Format(err))
		os.Exit(1)
	}
}
