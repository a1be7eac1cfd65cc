package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"

	"github.com/luki/weighplot/internal/transport"
)

func runPorts(w io.Writer) int {
	ports, err := transport.ListPorts()
	if err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
		return exitFail
	}
	printPorts(w, ports)
	return exitOK
}

func printPorts(w io.Writer, ports []transport.PortInfo) {
	if len(ports) == 0 {
		color.New(color.FgYellow).Fprintln(w, "No serial ports found.")
		fmt.Fprintf(w, "Try -port %s for the simulated scale.\n", transport.SimPrefix)
		return
	}

	name := color.New(color.FgCyan, color.Bold)
	usb := color.New(color.FgGreen)
	dim := color.New(color.FgHiBlack)
	for _, p := range ports {
		name.Fprintf(w, "%-20s", p.Name)
		if p.IsUSB {
			usb.Fprintf(w, " usb %s:%s", p.VID, p.PID)
			if p.Product != "" {
				dim.Fprintf(w, " %s", p.Product)
			}
			if p.Serial != "" {
				dim.Fprintf(w, " sn=%s", p.Serial)
			}
		}
		fmt.Fprintln(w)
	}
}
