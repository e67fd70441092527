package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"sync"
)

// promptUI asks the engine's questions on the terminal.
type promptUI struct {
	mu  sync.Mutex
	in  *bufio.Reader
	out io.Writer
	yes bool
}

func newPromptUI(in io.Reader, out io.Writer, yes bool) *promptUI {
	return &promptUI{in: bufio.NewReader(in), out: out, yes: yes}
}

// Confirm prints the question and reads y or n. Anything but yes declines.
func (u *promptUI) Confirm(question string) bool {
	u.mu.Lock()
	defer u.mu.Unlock()

	question = strings.ReplaceAll(strings.TrimSpace(question), "\n\n", "\n")
	if u.yes {
		fmt.Fprintf(u.out, "%s yes\n", question)
		return true
	}
	fmt.Fprintf(u.out, "%s [y/N] ", question)
	line, err := u.in.ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes", "j", "ja":
		return true
	default:
		return false
	}
}

// NotifyError prints the message.
func (u *promptUI) NotifyError(message string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	fmt.Fprintf(u.out, "\nerror: %s\n", message)
}
