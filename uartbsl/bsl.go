package uartbsl

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Erase - Erase the whole flash. false means the device rejected the command.
func (b *Instance) Erase() (bool, error) {
	frame := BuildErase()

	resp, err := b.TxRx(frame[:], AckSize)
	if err != nil {
		return false, errors.Wrap(err, "erase")
	}

	ok := ParseAck(resp[0])
	if !ok {
		b.log.WithField("reply", resp[0]).Debug("erase rejected")
	}

	return ok, nil
}

// WriteChunk - Write the chunk of firmware starting at offset.
// false means the device rejected the chunk.
func (b *Instance) WriteChunk(offset int, firmware []byte) (bool, error) {
	frame := BuildWriteChunk(offset, firmware)

	resp, err := b.TxRx(frame[:], AckSize)
	if err != nil {
		return false, errors.Wrapf(err, "write chunk at %04x", offset)
	}

	ok := ParseAck(resp[0])
	if !ok {
		b.log.WithFields(logrus.Fields{
			"offset": offset,
			"reply":  resp[0],
		}).Debug("write rejected")
	}

	return ok, nil
}

// ReadChunk - Read ChunkSize bytes at offset. nil without error means the
// device has no (valid) data there.
func (b *Instance) ReadChunk(offset uint16) ([]byte, error) {
	frame := BuildReadChunk(offset)

	resp, err := b.TxRx(frame[:], BlockSize)
	if err != nil {
		return nil, errors.Wrapf(err, "read chunk at %04x", offset)
	}

	var block Block
	copy(block[:], resp)

	data, _ := ParseBlock(block)
	return data, nil
}

// Erase - Erase the whole flash of the device on port using its own connection
func Erase(port string, opts ...Option) (bool, error) {
	b, err := New(port, opts...)
	if err != nil {
		return false, err
	}
	defer b.Close()

	return b.Erase()
}

// WriteChunk - Write one chunk to the device on port using its own connection
func WriteChunk(port string, offset int, firmware []byte, opts ...Option) (bool, error) {
	b, err := New(port, opts...)
	if err != nil {
		return false, err
	}
	defer b.Close()

	return b.WriteChunk(offset, firmware)
}

// ReadChunk - Read one chunk from the device on port using its own connection
func ReadChunk(port string, offset uint16, opts ...Option) ([]byte, error) {
	b, err := New(port, opts...)
	if err != nil {
		return nil, err
	}
	defer b.Close()

	return b.ReadChunk(offset)
}
