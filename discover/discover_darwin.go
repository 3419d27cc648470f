package discover

import (
	"strings"

	"github.com/albenik/go-serial/v2"
	"github.com/pkg/errors"
)

// AllPorts - All serial ports. The detailed enumerator needs cgo on darwin,
// USB adapters are recognized by their device name instead.
func AllPorts() ([]Port, error) {
	names, err := serial.GetPortsList()
	if err != nil {
		return nil, errors.Wrap(err, "enumerate ports")
	}

	ports := make([]Port, 0, len(names))
	for _, name := range names {
		ports = append(ports, Port{
			Name: name,
			USB:  strings.Contains(name, "usbserial") || strings.Contains(name, "usbmodem"),
		})
	}

	return ports, nil
}
