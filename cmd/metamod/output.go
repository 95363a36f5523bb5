package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"metamod/internal/errors"

	"github.com/charmbracelet/lipgloss"
)

var (
	logoStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#4F4FB7"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EBCB8B"))

	errStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000"))
)

func drawLogo() string {
	logo := `
 _ __ ___   ___| |_ __ _ _ __ ___   ___   __| |
| '_ ` + "`" + ` _ \ / _ \ __/ _` + "`" + ` | '_ ` + "`" + ` _ \ / _ \ / _` + "`" + ` |
| | | | | |  __/ || (_| | | | | | | (_) | (_| |
|_| |_| |_|\___|\__\__,_|_| |_| |_|\___/ \__,_|`
	return logoStyle.Render(logo)
}

// reportedError marks a failure the reporter already printed
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }

func (e *reportedError) Unwrap() error { return e.err }

func reported(err error) error {
	if err == nil {
		return nil
	}
	return &reportedError{err: err}
}

// cliReporter prints controller outcomes: successes to stdout, warnings and
// errors to stderr
type cliReporter struct {
	out io.Writer
	err io.Writer
}

// Info implements session.Reporter
func (r *cliReporter) Info(title, message string) {
	fmt.Fprintln(r.out, message)
}

// Warn implements session.Reporter
func (r *cliReporter) Warn(message string) {
	fmt.Fprintln(r.err, warnStyle.Render("Warning: "+message))
}

// Error implements session.Reporter
func (r *cliReporter) Error(title string, err error) {
	fmt.Fprintln(r.err, errStyle.Render(title+": "+errors.UserMessage(err)))
}

// promptConfirm asks on in and accepts y or yes
func promptConfirm(in io.Reader, out io.Writer) func(title, message string) bool {
	return func(title, message string) bool {
		fmt.Fprintf(out, "%s [y/N]: ", message)
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && line == "" {
			return false
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true
		}
		return false
	}
}
