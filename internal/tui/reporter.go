package tui

import (
	"fmt"
	"io"
)

// Reporter prints operator-facing progress with lipgloss styling.
type Reporter struct {
	out     io.Writer
	errOut  io.Writer
	verbose bool
	quiet   bool
}

// NewReporter creates a reporter writing progress to out and errors to errOut.
func NewReporter(out, errOut io.Writer, verbose, quiet bool) *Reporter {
	return &Reporter{out: out, errOut: errOut, verbose: verbose, quiet: quiet}
}

// Info prints a plain line (unless quiet)
func (r *Reporter) Info(format string, args ...interface{}) {
	if !r.quiet {
		fmt.Fprintf(r.out, format+"\n", args...)
	}
}

// Verbose prints a muted line (only if verbose and not quiet)
func (r *Reporter) Verbose(format string, args ...interface{}) {
	if r.verbose && !r.quiet {
		fmt.Fprintln(r.out, MutedStyle().Render(fmt.Sprintf(format, args...)))
	}
}

// Error prints to the error stream
func (r *Reporter) Error(format string, args ...interface{}) {
	fmt.Fprintln(r.errOut, ErrorStyle().Render("Error: "+fmt.Sprintf(format, args...)))
}

// Success prints a ✓ line (unless quiet)
func (r *Reporter) Success(format string, args ...interface{}) {
	if !r.quiet {
		fmt.Fprintln(r.out, SuccessStyle().Render("✓")+" "+fmt.Sprintf(format, args...))
	}
}

// Failure prints a ✗ line; failures are shown even when quiet
func (r *Reporter) Failure(format string, args ...interface{}) {
	fmt.Fprintln(r.out, ErrorStyle().Render("✗")+" "+fmt.Sprintf(format, args...))
}

// Title prints a section header (unless quiet)
func (r *Reporter) Title(text string) {
	if !r.quiet {
		fmt.Fprintln(r.out, HeaderStyle().Render(text))
	}
}
