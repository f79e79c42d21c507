package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

// TerminalPrompter reads interactive input from the controlling terminal.
// It satisfies vpn.Prompter.
type TerminalPrompter struct {
	reader *bufio.Reader
}

// NewTerminalPrompter creates a prompter over stdin.
func NewTerminalPrompter() *TerminalPrompter {
	return &TerminalPrompter{reader: bufio.NewReader(os.Stdin)}
}

// Confirm asks a yes/no question; anything starting with "y" is yes.
func (p *TerminalPrompter) Confirm(prompt string) (bool, error) {
	fmt.Print(prompt + " (y/n): ")
	line, err := p.reader.ReadString('\n')
	if err != nil {
		return false, err
	}
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(line)), "y"), nil
}

// ReadLine reads one line of echoed input.
func (p *TerminalPrompter) ReadLine(prompt string) (string, error) {
	fmt.Print(prompt)
	line, err := p.reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// ReadSecret reads one line without echoing it.
func (p *TerminalPrompter) ReadSecret(prompt string) (string, error) {
	fmt.Print(prompt)
	secret, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(secret)), nil
}
