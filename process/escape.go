package process

import (
	"strings"

	"github.com/alessio/shellescape"
)

// Escape quotes a single argument so a POSIX shell reads it back verbatim.
// Arguments made only of safe characters are returned unchanged.
func Escape(arg string) string {
	return shellescape.Quote(arg)
}

// EscapeCommand quotes each argument and joins them with spaces.
func EscapeCommand(args []string) string {
	return shellescape.QuoteCommand(args)
}

// commandLine joins command into one shell line, quoting when escape is set.
func commandLine(command []string, escape bool) string {
	if escape {
		return EscapeCommand(command)
	}
	return strings.Join(command, " ")
}

// escapeTokens quotes each token individually, keeping them separate.
func escapeTokens(command []string) []string {
	out := make([]string, len(command))
	for i, arg := range command {
		out[i] = Escape(arg)
	}
	return out
}
