package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/conn-castle/envshift/internal/messages"
)

// isTerminal reports whether stdin and stdout are both interactive terminals.
var isTerminal = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// promptYesNo asks a yes/no question and returns the user's choice or an error.
func promptYesNo(in io.Reader, out io.Writer, prompt string, defaultYes bool) (bool, error) {
	format := messages.PromptNoDefaultFmt
	if defaultYes {
		format = messages.PromptYesDefaultFmt
	}
	if _, err := fmt.Fprintf(out, format, prompt); err != nil {
		return false, err
	}
	reader := bufio.NewReader(in)
	line, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf(messages.PromptReadErrFmt, err)
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	switch answer {
	case "":
		return defaultYes, nil
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
