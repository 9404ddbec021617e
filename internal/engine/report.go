// Completion: 100% - Diagnostics output complete
package engine

import (
	"fmt"
	"io"
	"os"

	"github.com/xyproto/env/v2"
)

// Reporter carries the verbosity switches of the command line into the
// internal packages and writes every diagnostic to one stream.
type Reporter struct {
	Out     io.Writer // Diagnostics stream, normally os.Stderr
	Verbose bool      // Show debug messages
	Quiet   bool      // Hide progress messages
	Color   bool      // Use ANSI colors when formatting errors
}

// NewReporter returns a Reporter writing to stderr. Color is enabled when
// stderr is a terminal and neither NO_COLOR nor TERM=dumb is set.
func NewReporter(verbose, quiet bool) *Reporter {
	return &Reporter{
		Out:     os.Stderr,
		Verbose: verbose || env.Bool("PICOSYM_VERBOSE"),
		Quiet:   quiet,
		Color:   useColor(os.Stderr),
	}
}

func useColor(f *os.File) bool {
	if env.Has("NO_COLOR") || env.Str("TERM", "dumb") == "dumb" {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

// Discard returns a Reporter that drops everything, for tests and library use
func Discard() *Reporter {
	return &Reporter{Out: io.Discard}
}

// Progressf prints a progress message unless quiet
func (r *Reporter) Progressf(format string, args ...any) {
	if r == nil || r.Quiet {
		return
	}
	fmt.Fprintf(r.out(), format, args...)
}

// Debugf prints a message only in verbose mode
func (r *Reporter) Debugf(format string, args ...any) {
	if r == nil || !r.Verbose {
		return
	}
	fmt.Fprintf(r.out(), format, args...)
}

// Warn prints a warning; warnings are shown even in quiet mode
func (r *Reporter) Warn(w ToolError) {
	if r == nil {
		return
	}
	w.Level = LevelWarning
	fmt.Fprint(r.out(), w.Format(r.Color))
}

// Error prints an error with its context
func (r *Reporter) Error(err error) {
	if r == nil || err == nil {
		return
	}
	if te, ok := err.(ToolError); ok {
		fmt.Fprint(r.out(), te.Format(r.Color))
		return
	}
	fmt.Fprintf(r.out(), "Error: %v\n", err)
}

func (r *Reporter) out() io.Writer {
	if r.Out == nil {
		return os.Stderr
	}
	return r.Out
}
