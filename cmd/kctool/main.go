// kctool transfers programs to a KC85/4 from the command line.
package main

import (
	"github.com/alecthomas/kong"
)

func main() {
	var cli struct {
		Globals

		Classify classifyCmd `cmd:"" help:"Classify files and print their transfer descriptor."`
		List     listCmd     `cmd:"" help:"List the BASIC program inside a file."`
		Send     sendCmd     `cmd:"" help:"Send a file to the KC."`
		Paste    pasteCmd    `cmd:"" help:"Type text on the KC."`
		Keyboard keyboardCmd `cmd:"" help:"Forward this terminal's keyboard to the KC."`
		Ports    portsCmd    `cmd:"" help:"List serial ports."`
		Doctor   doctorCmd   `cmd:"" help:"Check the serial port and helper images."`
	}

	ctx := kong.Parse(&cli,
		kong.Name("kctool"),
		kong.Description("Serial transfer for the KC85/4 (M003 V.24 module)."),
		kong.UsageOnError(),
	)
	err := ctx.Run(&cli.Globals)
	ctx.FatalIfErrorf(err)
}
