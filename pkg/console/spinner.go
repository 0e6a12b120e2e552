package console

import (
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/mattn/go-isatty"
)

// Spinner shows progress during long-running network operations. It is a
// no-op when stderr is not a terminal, so CI logs stay clean.
type Spinner struct {
	inner   *spinner.Spinner
	enabled bool
}

// NewSpinner creates a spinner with the given message.
func NewSpinner(message string) *Spinner {
	enabled := isatty.IsTerminal(os.Stderr.Fd())
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	s.Suffix = " " + message
	return &Spinner{inner: s, enabled: enabled}
}

// Start begins the animation.
func (s *Spinner) Start() {
	if s.enabled {
		s.inner.Start()
	}
}

// Stop ends the animation and clears the line.
func (s *Spinner) Stop() {
	if s.enabled {
		s.inner.Stop()
	}
}
