// Package terminal connects stdin and stdout to a serial port.
package terminal

import (
	"io"

	"github.com/albenik/go-serial/v2"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// IdleTimeout - Max. wait of one read in milliseconds before the console
// checks the port again
const IdleTimeout = 100

// Open - Open the console on port and block until either side closes
func Open(port string, baudrate int, in io.Reader, out io.Writer) error {
	conn, err := serial.Open(
		port,
		serial.WithBaudrate(baudrate),
		serial.WithDataBits(8),
		serial.WithStopBits(serial.OneStopBit),
		serial.WithParity(serial.NoParity),
	)

	if err != nil {
		return errors.Wrapf(err, "open %s", port)
	}

	defer conn.Close()

	// Return as soon as the first byte arrives instead of filling the buffer
	if err := conn.SetFirstByteReadTimeout(IdleTimeout); err != nil {
		return errors.Wrap(err, "set read timeout")
	}

	logrus.WithFields(logrus.Fields{
		"port":     port,
		"baudrate": baudrate,
	}).Info("console connected, end input to quit")

	return Pipe(conn, in, out)
}

// Pipe - Copy device output to out and in to the device. Returns when in is
// exhausted or the device port is closed.
func Pipe(conn io.ReadWriter, in io.Reader, out io.Writer) error {
	done := make(chan error, 2)

	go func() {
		done <- readSerial(conn, out)
	}()

	go func() {
		_, err := io.Copy(conn, in)
		done <- errors.Wrap(err, "write to device")
	}()

	return <-done
}

// Device output. A zero-byte read is an idle line, only a closed port ends
// the loop.
func readSerial(conn io.Reader, out io.Writer) error {
	buffer := make([]byte, 100)

	for {
		n, err := conn.Read(buffer)
		if n > 0 {
			if _, werr := out.Write(buffer[:n]); werr != nil {
				return werr
			}
		}

		if err != nil {
			if portClosed(err) {
				return nil
			}
			return errors.Wrap(err, "read from device")
		}
	}
}

func portClosed(err error) bool {
	if errors.Is(err, io.EOF) {
		return true
	}

	var perr *serial.PortError
	return errors.As(err, &perr) && perr.Code() == serial.PortClosed
}
