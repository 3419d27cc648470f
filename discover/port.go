// Package discover lists serial ports the bootloader may be attached to.
package discover

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/pkg/errors"
)

// ErrNoPorts - No serial port usable for flashing was found
var ErrNoPorts = errors.New("no serial ports found")

// Port - Serial port found on the system
type Port struct {
	Name         string // Path or name of the port (/dev/ttyUSB0, COM3)
	USB          bool
	VID          string
	PID          string
	SerialNumber string
	Product      string
}

func (p Port) String() string {
	if !p.USB {
		return p.Name
	}
	return fmt.Sprintf("%s [%s:%s] %s", p.Name, p.VID, p.PID, p.Product)
}

// FirstUSBPort - First USB serial adapter, the usual way the radio is attached
func FirstUSBPort() (*Port, error) {
	ports, err := AllPorts()
	if err != nil {
		return nil, err
	}

	port := firstUSB(ports)
	if port == nil {
		return nil, ErrNoPorts
	}

	return port, nil
}

func firstUSB(ports []Port) *Port {
	for i := range ports {
		if ports[i].USB {
			return &ports[i]
		}
	}
	return nil
}

// PrintPorts - Write a table of all ports to w
func PrintPorts(w io.Writer) error {
	ports, err := AllPorts()
	if err != nil {
		return err
	}

	return printPorts(w, ports)
}

func printPorts(w io.Writer, ports []Port) error {
	if len(ports) == 0 {
		return ErrNoPorts
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PORT\tUSB ID\tSERIAL\tPRODUCT")
	for _, p := range ports {
		id := "-"
		if p.USB {
			id = p.VID + ":" + p.PID
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.Name, id, dash(p.SerialNumber), dash(p.Product))
	}

	return tw.Flush()
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
