package uartbsl

import (
	"encoding/hex"
	"io"

	"github.com/albenik/go-serial/v2"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Conn - Serial connection used by Instance
type Conn interface {
	io.ReadWriteCloser
	ResetInputBuffer() error
}

// Opener - Opens a named port ready for the bootloader protocol
type Opener func(port string) (Conn, error)

// Instance - One open connection to the bootloader. Exchanges on an Instance
// must not overlap, the device handles one request at a time.
type Instance struct {
	port string
	conn Conn
	log  logrus.FieldLogger
}

// Option - Instance configuration
type Option func(*config)

type config struct {
	open Opener
	log  logrus.FieldLogger
}

// WithOpener - Replace the serial port driver, mostly for tests
func WithOpener(open Opener) Option {
	return func(c *config) {
		if open != nil {
			c.open = open
		}
	}
}

// WithLogger - Logger for frame traces and port events
func WithLogger(log logrus.FieldLogger) Option {
	return func(c *config) {
		if log != nil {
			c.log = log
		}
	}
}

// OpenSerial - Open the port at BaudRate with ReadTimeout. Line settings
// other than the speed stay at the driver defaults (8-N-1).
func OpenSerial(port string) (Conn, error) {
	conn, err := serial.Open(
		port,
		serial.WithBaudrate(BaudRate),
		serial.WithReadTimeout(ReadTimeout),
	)

	if err != nil {
		return nil, err
	}

	return conn, nil
}

// New - Open a new connection to the bootloader on port
func New(port string, opts ...Option) (*Instance, error) {
	cfg := config{
		open: OpenSerial,
		log:  logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	log := cfg.log.WithField("port", port)

	conn, err := cfg.open(port)
	if err != nil {
		return nil, &PortError{Port: port, Err: err}
	}

	log.Debug("port opened")

	return &Instance{
		port: port,
		conn: conn,
		log:  log,
	}, nil
}

// Port - Name of the connected port
func (b *Instance) Port() string {
	return b.port
}

// Close - Release the port
func (b *Instance) Close() error {
	b.log.Debug("port closed")
	return b.conn.Close()
}

// Write - Send the whole frame. A write making no progress is ErrShortWrite.
func (b *Instance) Write(frame []byte) error {
	sent := 0
	for sent < len(frame) {
		n, err := b.conn.Write(frame[sent:])
		if err != nil {
			return errors.Wrap(err, "write frame")
		}

		if n == 0 {
			return errors.Wrapf(ErrShortWrite, "%d of %d bytes sent", sent, len(frame))
		}

		sent += n
	}

	return nil
}

// Read - Receive exactly n bytes. Every read waits at most ReadTimeout, a
// read returning nothing means the device went silent.
func (b *Instance) Read(n int) ([]byte, error) {
	buff := make([]byte, n)

	received := 0
	for received < n {
		r, err := b.conn.Read(buff[received:])
		if err != nil {
			return nil, errors.Wrap(err, "read response")
		}

		if r == 0 {
			return nil, errors.Wrapf(ErrReadTimeout, "%d of %d bytes received", received, n)
		}

		received += r
	}

	return buff, nil
}

// FlushInput - Drop bytes left over from an earlier exchange
func (b *Instance) FlushInput() error {
	return b.conn.ResetInputBuffer()
}

// TxRx - Send frame and receive a response of exactly respLen bytes
func (b *Instance) TxRx(frame []byte, respLen int) ([]byte, error) {
	err := b.FlushInput()
	if err != nil {
		return nil, errors.Wrap(err, "flush input")
	}

	b.log.WithField("frame", hex.EncodeToString(frame)).Debug("tx")

	err = b.Write(frame)
	if err != nil {
		return nil, err
	}

	resp, err := b.Read(respLen)
	if err != nil {
		return nil, err
	}

	b.log.WithField("frame", hex.EncodeToString(resp)).Debug("rx")

	return resp, nil
}
