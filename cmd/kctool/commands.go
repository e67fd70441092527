package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"kc-transfer/internal/codec"
	"kc-transfer/internal/domain"
	"kc-transfer/internal/format"
	"kc-transfer/internal/transport"
)

type classifyCmd struct {
	Files []string `arg:"" type:"existingfile" help:"Files to classify."`
}

func (c *classifyCmd) Run() error {
	failed := 0
	for _, path := range c.Files {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		desc := format.Classify(data)
		fmt.Printf("%s: %s\n", path, desc)
		if desc.ResumeLine != "" {
			fmt.Printf("  resume line %s\n", desc.ResumeLine)
		}
		for _, diag := range desc.Diagnostics {
			fmt.Printf("  %s\n", diag)
		}
		if desc.IsError {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files not transferable", failed, len(c.Files))
	}
	return nil
}

type listCmd struct {
	File    string `arg:"" type:"existingfile" help:"Tape, disk or memory image file."`
	Compact bool   `help:"Drop spaces and comments and use short keywords."`
	Raw     bool   `help:"Write KC character codes instead of host text."`
}

func (c *listCmd) Run() error {
	data, err := os.ReadFile(c.File)
	if err != nil {
		return err
	}
	desc := format.Classify(data)
	if desc.IsError {
		return fmt.Errorf("%s: not transferable (code %d)", c.File, desc.ValidCode)
	}

	var text []byte
	switch desc.Kind {
	case domain.ContentBasicMemoryImage:
		program, ok := format.BasicProgram(desc)
		if !ok {
			return fmt.Errorf("%s: image does not contain a BASIC program", c.File)
		}
		mode := codec.ModeNormal
		if c.Compact {
			mode = codec.ModeCompact
		}
		listing, err := codec.Detokenize(program, mode)
		if err != nil {
			return err
		}
		for _, diag := range listing.Diagnostics {
			fmt.Fprintln(os.Stderr, diag)
		}
		text = listing.Text
	case domain.ContentBasicListing, domain.ContentBasicodeListing, domain.ContentPlainText:
		text = desc.Payload
	default:
		return fmt.Errorf("%s: %s has no listing", c.File, desc.Kind)
	}

	if c.Raw {
		_, err = os.Stdout.Write(text)
		return err
	}
	host := strings.ReplaceAll(codec.DecodeHost(text), "\r", "\n")
	_, err = io.WriteString(os.Stdout, host)
	return err
}

type sendCmd struct {
	File string `arg:"" type:"existingfile" help:"File to send."`
}

func (c *sendCmd) Run(g *Globals) error {
	app, err := g.newApp()
	if err != nil {
		return err
	}
	defer closeApp(app)

	desc, err := app.LoadFile(c.File)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "%s: %s\n", c.File, desc)
	if _, err := app.Send(); err != nil {
		return err
	}
	return runQueue(app)
}

type pasteCmd struct {
	File  string `arg:"" optional:"" help:"Text file; standard input when omitted or '-'."`
	Basic bool   `help:"Pace the text like a BASIC listing."`
	Slow  bool   `help:"Add extra delay per BASIC line."`
}

func (c *pasteCmd) Run(g *Globals) error {
	var (
		data []byte
		err  error
	)
	if c.File == "" || c.File == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(c.File)
	}
	if err != nil {
		return err
	}

	app, err := g.newApp()
	if err != nil {
		return err
	}
	defer closeApp(app)

	if _, err := app.Paste(string(data), c.Basic, c.Slow); err != nil {
		return err
	}
	return runQueue(app)
}

type portsCmd struct{}

func (c *portsCmd) Run() error {
	ports, err := transport.ListPorts()
	if err != nil {
		return err
	}
	if len(ports) == 0 {
		fmt.Fprintln(os.Stderr, "no serial ports found")
	}
	for _, port := range ports {
		fmt.Println(port)
	}
	return nil
}

type doctorCmd struct{}

func (c *doctorCmd) Run(g *Globals) error {
	app, err := g.newApp()
	if err != nil {
		return err
	}
	defer closeApp(app)

	report := app.GetDiagnostics()
	for _, item := range report.Items {
		fmt.Printf("%-4s %-22s %s\n", item.Status, item.Name, item.Message)
	}
	for _, item := range report.Problems() {
		if item.Hint != "" {
			fmt.Printf("hint (%s): %s\n", item.Name, item.Hint)
		}
	}
	if report.HasFailures {
		return fmt.Errorf("%d checks need attention", len(report.Problems()))
	}
	return nil
}
