// Package logger provides namespaced debug logging controlled by the DEBUG
// environment variable, following the conventions of the debug npm package:
//
//	DEBUG=*                enables all loggers
//	DEBUG=guardian:*       enables all loggers under a namespace
//	DEBUG=ns1,ns2          enables specific namespaces
//	DEBUG=ns:*,-ns:noisy   enables a namespace but excludes a pattern
//
// Output goes to stderr with a per-namespace color (when stderr is a TTY and
// DEBUG_COLORS is not "0") and an elapsed-time suffix since the last message.
package logger

import (
	"fmt"
	"hash/fnv"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
)

var (
	debugEnv    = os.Getenv("DEBUG")
	debugColors = os.Getenv("DEBUG_COLORS") != "0"
	stderrIsTTY = isatty.IsTerminal(os.Stderr.Fd())

	// ANSI 256-color codes readable on both light and dark backgrounds
	palette = []string{
		"\033[38;5;33m",  // blue
		"\033[38;5;35m",  // green
		"\033[38;5;166m", // orange
		"\033[38;5;125m", // purple
		"\033[38;5;37m",  // cyan
		"\033[38;5;161m", // magenta
		"\033[38;5;136m", // yellow
		"\033[38;5;124m", // red
	}

	reset = "\033[0m"
)

// Logger writes debug messages for a single namespace.
type Logger struct {
	namespace string
	enabled   bool
	color     string

	mu   sync.Mutex
	last time.Time
}

// New creates a Logger for the given namespace. The enabled state and color
// are fixed at construction time from the DEBUG / DEBUG_COLORS environment.
func New(namespace string) *Logger {
	return &Logger{
		namespace: namespace,
		enabled:   namespaceEnabled(namespace),
		color:     namespaceColor(namespace),
		last:      time.Now(),
	}
}

// Enabled reports whether this logger emits output.
func (l *Logger) Enabled() bool {
	return l.enabled
}

// Printf writes a formatted message followed by a newline.
func (l *Logger) Printf(format string, args ...any) {
	if !l.enabled {
		return
	}
	l.emit(fmt.Sprintf(format, args...))
}

// Print writes a message followed by a newline.
func (l *Logger) Print(args ...any) {
	if !l.enabled {
		return
	}
	l.emit(fmt.Sprint(args...))
}

func (l *Logger) emit(message string) {
	l.mu.Lock()
	now := time.Now()
	diff := now.Sub(l.last)
	l.last = now
	l.mu.Unlock()

	if l.color != "" {
		fmt.Fprintf(os.Stderr, "%s%s%s %s +%s\n", l.color, l.namespace, reset, message, formatElapsed(diff))
	} else {
		fmt.Fprintf(os.Stderr, "%s %s +%s\n", l.namespace, message, formatElapsed(diff))
	}
}

func namespaceColor(namespace string) string {
	if !debugColors || !stderrIsTTY {
		return ""
	}
	h := fnv.New32a()
	h.Write([]byte(namespace))
	return palette[h.Sum32()%uint32(len(palette))]
}

func namespaceEnabled(namespace string) bool {
	enabled := false
	for _, pattern := range strings.Split(debugEnv, ",") {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		if negated, ok := strings.CutPrefix(pattern, "-"); ok {
			if matchNamespace(namespace, negated) {
				return false // exclusions win
			}
			continue
		}
		if matchNamespace(namespace, pattern) {
			enabled = true
		}
	}
	return enabled
}

// matchNamespace supports a single * wildcard at either end or in the middle
// of a pattern.
func matchNamespace(namespace, pattern string) bool {
	if pattern == "*" || pattern == namespace {
		return true
	}
	if !strings.Contains(pattern, "*") {
		return false
	}
	if suffix, ok := strings.CutPrefix(pattern, "*"); ok && !strings.Contains(suffix, "*") {
		return strings.HasSuffix(namespace, suffix)
	}
	if prefix, ok := strings.CutSuffix(pattern, "*"); ok && !strings.Contains(prefix, "*") {
		return strings.HasPrefix(namespace, prefix)
	}
	parts := strings.SplitN(pattern, "*", 2)
	return strings.HasPrefix(namespace, parts[0]) && strings.HasSuffix(namespace, parts[1])
}

func formatElapsed(d time.Duration) string {
	switch {
	case d < time.Microsecond:
		return fmt.Sprintf("%dns", d.Nanoseconds())
	case d < time.Millisecond:
		return fmt.Sprintf("%dµs", d.Microseconds())
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	case d < time.Hour:
		return fmt.Sprintf("%.1fm", d.Minutes())
	}
	return fmt.Sprintf("%.1fh", d.Hours())
}
