// Package flash drives the bootloader through a whole firmware update:
// erase, chunked write, read-back verification and flash dumps.
//
// The protocol core in uartbsl performs single exchanges only. The loops
// over offsets and the policy for rejected commands live here.
package flash

import (
	"context"
	"fmt"
	"io"

	"github.com/janch32/uartflash/uartbsl"
	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"
	"github.com/sirupsen/logrus"
)

// MaxImageSize - Offsets on the wire are 16 bit
const MaxImageSize = 0x10000

// Flasher - Runs flashing operations against the device on one serial port.
//
// A Flasher must not be used from several goroutines at once, and no other
// program may talk to the same port while an operation runs.
type Flasher struct {
	port    string
	config  Config
	log     logrus.FieldLogger
	session *uartbsl.Instance
}

// New - Create a Flasher for the device on port.
//
// Example:
//
//	f := flash.New("/dev/ttyUSB0",
//	    flash.WithRetries(5),
//	    flash.WithProgress(os.Stderr),
//	)
//	err := f.Program(ctx, image)
func New(port string, opts ...Option) *Flasher {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Flasher{
		port:   port,
		config: cfg,
		log:    cfg.Logger.WithField("port", port),
	}
}

// Program - Complete update sequence:
//  1. Erase the flash
//  2. Write the image chunk by chunk
//  3. Read the image back and compare (if enabled)
func (f *Flasher) Program(ctx context.Context, image []byte) error {
	if len(image) > MaxImageSize {
		return errors.Wrapf(ErrImageTooLarge, "image has %d bytes", len(image))
	}

	return f.run(func() error {
		if err := f.erase(ctx); err != nil {
			return err
		}

		if err := f.write(ctx, image); err != nil {
			return err
		}

		if !f.config.Verify {
			return nil
		}

		return f.verify(ctx, image)
	})
}

// Erase - Erase the whole flash
func (f *Flasher) Erase(ctx context.Context) error {
	return f.run(func() error {
		return f.erase(ctx)
	})
}

// Write - Write image starting at offset 0 without erasing first
func (f *Flasher) Write(ctx context.Context, image []byte) error {
	if len(image) > MaxImageSize {
		return errors.Wrapf(ErrImageTooLarge, "image has %d bytes", len(image))
	}

	return f.run(func() error {
		return f.write(ctx, image)
	})
}

// Verify - Read the flash back and compare it with image
func (f *Flasher) Verify(ctx context.Context, image []byte) error {
	if len(image) > MaxImageSize {
		return errors.Wrapf(ErrImageTooLarge, "image has %d bytes", len(image))
	}

	return f.run(func() error {
		return f.verify(ctx, image)
	})
}

// Dump - Read flash from offset 0 until the device reports no more data or
// limit bytes were read. limit <= 0 reads up to the end of the address space.
func (f *Flasher) Dump(ctx context.Context, limit int) ([]byte, error) {
	var out []byte

	err := f.run(func() error {
		var err error
		out, err = f.dump(ctx, limit)
		return err
	})

	return out, err
}

func (f *Flasher) erase(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, "erase cancelled")
	}

	f.log.Info("erasing flash")

	return f.retry("erase", func(b *uartbsl.Instance) (bool, error) {
		return b.Erase()
	})
}

func (f *Flasher) write(ctx context.Context, image []byte) error {
	f.log.WithField("bytes", len(image)).Info("writing image")
	if len(image) == 0 {
		return nil
	}

	bar := f.newBar(len(image), "writing")

	for offset := 0; offset < len(image); offset += uartbsl.ChunkSize {
		if err := ctx.Err(); err != nil {
			return errors.Wrap(err, "write cancelled")
		}

		offset := offset
		err := f.retry(fmt.Sprintf("write chunk at 0x%04X", offset), func(b *uartbsl.Instance) (bool, error) {
			return b.WriteChunk(offset, image)
		})
		if err != nil {
			return err
		}

		_ = bar.Add(uartbsl.ChunkLength(offset, len(image)))
	}

	_ = bar.Finish()
	return nil
}

func (f *Flasher) verify(ctx context.Context, image []byte) error {
	f.log.WithField("bytes", len(image)).Info("verifying image")
	if len(image) == 0 {
		return nil
	}

	bar := f.newBar(len(image), "verifying")

	for offset := 0; offset < len(image); offset += uartbsl.ChunkSize {
		if err := ctx.Err(); err != nil {
			return errors.Wrap(err, "verify cancelled")
		}

		data, err := f.readChunk(offset)
		if err != nil {
			return err
		}

		if data == nil {
			return &VerifyError{Offset: offset, Missing: true}
		}

		n := uartbsl.ChunkLength(offset, len(image))
		for i := 0; i < n; i++ {
			if data[i] != image[offset+i] {
				return &VerifyError{
					Offset:   offset + i,
					Expected: image[offset+i],
					Actual:   data[i],
				}
			}
		}

		_ = bar.Add(n)
	}

	_ = bar.Finish()
	f.log.Info("image verified")
	return nil
}

func (f *Flasher) dump(ctx context.Context, limit int) ([]byte, error) {
	if limit <= 0 || limit > MaxImageSize {
		limit = MaxImageSize
	}

	f.log.WithField("limit", limit).Info("reading flash")

	bar := f.newBar(limit, "reading")
	out := make([]byte, 0, uartbsl.ChunkSize)

	for offset := 0; offset < limit; offset += uartbsl.ChunkSize {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(err, "read cancelled")
		}

		data, err := f.readChunk(offset)
		if err != nil {
			return nil, err
		}

		if data == nil {
			f.log.WithField("offset", offset).Debug("end of data")
			break
		}

		out = append(out, data...)
		_ = bar.Add(len(data))
	}

	if len(out) > limit {
		out = out[:limit]
	}

	_ = bar.Finish()
	f.log.WithField("bytes", len(out)).Info("flash read")
	return out, nil
}

func (f *Flasher) readChunk(offset int) ([]byte, error) {
	var data []byte

	err := f.exchange(func(b *uartbsl.Instance) error {
		var err error
		data, err = b.ReadChunk(uint16(offset))
		return err
	})

	return data, err
}

// retry - Re-send a command the device rejected. Transport errors end the
// operation right away.
func (f *Flasher) retry(what string, cmd func(b *uartbsl.Instance) (bool, error)) error {
	for attempt := 0; attempt <= f.config.Retries; attempt++ {
		var ok bool

		err := f.exchange(func(b *uartbsl.Instance) error {
			var err error
			ok, err = cmd(b)
			return err
		})
		if err != nil {
			return err
		}

		if ok {
			return nil
		}

		f.log.WithFields(logrus.Fields{
			"command": what,
			"attempt": attempt + 1,
		}).Warn("command rejected")
	}

	return errors.Wrap(ErrRejected, what)
}

// exchange - Run fn on the open session, or on a connection opened just for
// this exchange.
func (f *Flasher) exchange(fn func(b *uartbsl.Instance) error) error {
	if f.session != nil {
		return fn(f.session)
	}

	b, err := f.open()
	if err != nil {
		return err
	}
	defer b.Close()

	return fn(b)
}

// run - Wrap one public operation. With Session enabled the port stays open
// until the operation returns.
func (f *Flasher) run(fn func() error) error {
	if !f.config.Session || f.session != nil {
		return fn()
	}

	b, err := f.open()
	if err != nil {
		return err
	}

	f.session = b
	defer func() {
		f.session = nil
		if err := b.Close(); err != nil {
			f.log.WithError(err).Warn("closing port")
		}
	}()

	return fn()
}

func (f *Flasher) open() (*uartbsl.Instance, error) {
	return uartbsl.New(f.port,
		uartbsl.WithOpener(f.config.Opener),
		uartbsl.WithLogger(f.config.Logger),
	)
}

func (f *Flasher) newBar(total int, desc string) *progressbar.ProgressBar {
	w := f.config.Progress
	if w == nil {
		w = io.Discard
	}

	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription(desc),
		progressbar.OptionShowBytes(true),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(w)
		}),
	)
}
