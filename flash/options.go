package flash

import (
	"io"

	"github.com/janch32/uartflash/uartbsl"
	"github.com/sirupsen/logrus"
)

// Config - Flasher configuration
type Config struct {
	// Number of re-sends of a rejected erase or write
	Retries int

	// Read the image back after Program
	Verify bool

	// Progress bar destination, nil disables it
	Progress io.Writer

	// Keep one port open for the whole run instead of opening it for
	// every exchange
	Session bool

	Logger logrus.FieldLogger
	Opener uartbsl.Opener
}

func defaultConfig() Config {
	return Config{
		Retries: 3,
		Verify:  true,
		Logger:  logrus.StandardLogger(),
		Opener:  uartbsl.OpenSerial,
	}
}

// Option - Flasher configuration option
type Option func(*Config)

// WithRetries - Number of re-sends of a rejected command.
// Transport errors are never retried.
func WithRetries(retries int) Option {
	return func(c *Config) {
		if retries >= 0 {
			c.Retries = retries
		}
	}
}

// WithVerify - Enable or disable read-back verification in Program
func WithVerify(verify bool) Option {
	return func(c *Config) {
		c.Verify = verify
	}
}

// WithProgress - Draw a progress bar to w
func WithProgress(w io.Writer) Option {
	return func(c *Config) {
		c.Progress = w
	}
}

// WithSession - Reuse a single open port for all exchanges of one operation
func WithSession(session bool) Option {
	return func(c *Config) {
		c.Session = session
	}
}

// WithLogger - Logger for operation progress and rejected commands
func WithLogger(logger logrus.FieldLogger) Option {
	return func(c *Config) {
		if logger != nil {
			c.Logger = logger
		}
	}
}

// WithOpener - Replace the serial port driver, mostly for tests
func WithOpener(open uartbsl.Opener) Option {
	return func(c *Config) {
		if open != nil {
			c.Opener = open
		}
	}
}
