package uartbsl

import (
	"fmt"

	"github.com/pkg/errors"
)

const (
	// BaudRate - Line speed of the bootloader
	BaudRate = 115200
	// ReadTimeout - Read timeout of one exchange in milliseconds
	ReadTimeout = 1000

	CmdErase = 0x39 // Erase complete flash
	CmdWrite = 0x57 // Write one chunk
	CmdRead  = 0x52 // Read one chunk

	Ack       = 0x06
	EndOfData = 0xFF // Value of Block[1] when no more data is available

	eraseParam = 0x55

	EraseFrameSize = 5
	WriteFrameSize = 132
	ReadFrameSize  = 4
	BlockSize      = 132
	AckSize        = 1

	// ChunkSize - Max. payload bytes in one write frame or read block
	ChunkSize = 128

	payloadOffset = 3
)

var (
	// ErrReadTimeout - Device did not send the whole response in time
	ErrReadTimeout = errors.New("serial read timeout")
	// ErrShortWrite - Port stopped accepting the frame
	ErrShortWrite = errors.New("serial short write")
)

// PortError - Serial port could not be opened. Retrying with the same port
// name will not help, another port has to be selected.
type PortError struct {
	Port string
	Err  error
}

func (e *PortError) Error() string {
	return fmt.Sprintf("cannot open port %s: %v", e.Port, e.Err)
}

func (e *PortError) Unwrap() error {
	return e.Err
}

func sum(data []byte) byte {
	var s byte
	for _, b := range data {
		// byte addition wraps, the device relies on it
		s += b
	}
	return s
}

// SetChecksum - Overwrites the last byte of frame with the sum of all
// preceding bytes
func SetChecksum(frame []byte) {
	last := len(frame) - 1
	frame[last] = sum(frame[:last])
}

// VerifyChecksum - Reports whether the last byte of frame is the sum of all
// preceding bytes
func VerifyChecksum(frame []byte) bool {
	if len(frame) == 0 {
		return false
	}

	last := len(frame) - 1
	return frame[last] == sum(frame[:last])
}
