// Package interactive provides interactive prompts for user confirmation.
package interactive

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/adamancini/hoist/internal/download"
)

// Response represents the user's response to a prompt.
type Response int

const (
	ResponseYes  Response = iota // Proceed with this item
	ResponseNo                   // Skip this item
	ResponseAll                  // Approve all remaining items
	ResponseQuit                 // Abort interactive mode
)

// Prompter asks questions on out and reads answers from in.
type Prompter struct {
	out        io.Writer
	scanner    *bufio.Scanner
	approveAll bool
}

// NewPrompter creates a prompter with stdin/stdout.
func NewPrompter() *Prompter {
	return NewPrompterWithIO(os.Stdin, os.Stdout)
}

// NewPrompterWithIO creates a prompter with custom input/output (for testing).
func NewPrompterWithIO(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{
		out:     out,
		scanner: bufio.NewScanner(in),
	}
}

// IsTerminal checks if stdin is a terminal (TTY).
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// prompt displays a question and reads the response.
func (p *Prompter) prompt(format string, args ...interface{}) Response {
	if p.approveAll {
		return ResponseYes
	}

	_, _ = fmt.Fprintf(p.out, format, args...)
	_, _ = fmt.Fprint(p.out, " [y/n/a/q] ")

	if !p.scanner.Scan() {
		return ResponseQuit
	}

	input := strings.ToLower(strings.TrimSpace(p.scanner.Text()))
	switch input {
	case "y", "yes":
		return ResponseYes
	case "n", "no":
		return ResponseNo
	case "a", "all":
		p.approveAll = true
		return ResponseYes
	case "q", "quit":
		return ResponseQuit
	default:
		// Default to no for invalid input
		_, _ = fmt.Fprintln(p.out, "Invalid response, skipping.")
		return ResponseNo
	}
}

// Confirm asks a yes/no question. Anything but yes, including EOF, is no.
func (p *Prompter) Confirm(format string, args ...interface{}) bool {
	_, _ = fmt.Fprintf(p.out, format, args...)
	_, _ = fmt.Fprint(p.out, " [y/n] ")
	if !p.scanner.Scan() {
		return false
	}
	input := strings.ToLower(strings.TrimSpace(p.scanner.Text()))
	return input == "y" || input == "yes"
}

// SelectAddons asks about each addon in turn and returns the approved ones.
// The second result is false when the user quit.
func (p *Prompter) SelectAddons(addons []download.Addon) ([]download.Addon, bool) {
	selected := make([]download.Addon, 0, len(addons))

	for _, a := range addons {
		label := a.ID
		if a.Version != "" {
			label += " " + a.Version
		}

		switch p.prompt("Download %s?", label) {
		case ResponseYes, ResponseAll:
			selected = append(selected, a)
		case ResponseQuit:
			_, _ = fmt.Fprintln(p.out, "\nAborted.")
			return nil, false
		}
	}

	_, _ = fmt.Fprintf(p.out, "\n%d of %d addons selected.\n", len(selected), len(addons))
	return selected, true
}
