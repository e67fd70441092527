package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"kc-transfer/internal/bootstrap"
)

// exitKey is Ctrl+] like telnet.
const exitKey = 0x1D

// escapeKeys maps the final byte of ANSI cursor sequences to key names.
var escapeKeys = map[byte]string{
	'A': "Up",
	'B': "Down",
	'C': "Right",
	'D': "Left",
	'H': "Home",
}

type keyboardCmd struct{}

func (c *keyboardCmd) Run(g *Globals) error {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return errors.New("keyboard needs an interactive terminal")
	}

	app, err := g.newApp()
	if err != nil {
		return err
	}
	defer closeApp(app)

	if _, err := app.StartKeyboardMode(); err != nil {
		return err
	}
	if err := runQueue(app); err != nil {
		return err
	}

	state, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("raw terminal: %w", err)
	}
	defer func() { _ = term.Restore(fd, state) }()

	fmt.Fprint(os.Stderr, "keyboard mode, Ctrl+] quits\r\n")
	return forwardKeys(context.Background(), bufio.NewReader(os.Stdin), app)
}

// forwardKeys translates terminal input into KC keys until the exit key.
func forwardKeys(ctx context.Context, in *bufio.Reader, app *bootstrap.App) error {
	for ctx.Err() == nil {
		r, _, err := in.ReadRune()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		key, shift := "", false
		switch {
		case r == exitKey:
			return nil
		case r == 0x1B:
			key, shift = readEscape(in)
		case r == 0x7F:
			key = "BackSpace"
		case r == 0x03:
			key = "Escape"
		case r == '\r':
			key = "Return"
		default:
			key = string(r)
		}
		if key == "" {
			continue
		}
		if err := app.SendKey(key, shift, false); err != nil {
			return err
		}
	}
	return ctx.Err()
}

// readEscape consumes an ESC [ x sequence and returns its key name. A lone
// ESC is Shift+Pause, which the KC reads as ESC.
func readEscape(in *bufio.Reader) (string, bool) {
	if in.Buffered() == 0 {
		return "Pause", true
	}
	next, err := in.ReadByte()
	if err != nil || next != '[' {
		return "", false
	}
	final, err := in.ReadByte()
	if err != nil {
		return "", false
	}
	return escapeKeys[final], false
}
