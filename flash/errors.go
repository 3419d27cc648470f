package flash

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrRejected - Device kept answering with a negative acknowledgement
	ErrRejected = errors.New("command rejected by device")

	// ErrImageTooLarge - Image does not fit the 16-bit offsets of the protocol
	ErrImageTooLarge = errors.New("image exceeds 64 KiB address space")
)

// VerifyError - Flash content differs from the image
type VerifyError struct {
	Offset int
	// Missing is set when the device had no data at Offset
	Missing  bool
	Expected byte
	Actual   byte
}

func (e *VerifyError) Error() string {
	if e.Missing {
		return fmt.Sprintf("verify failed: no data at offset 0x%04X", e.Offset)
	}
	return fmt.Sprintf("verify failed at offset 0x%04X: expected 0x%02X, got 0x%02X",
		e.Offset, e.Expected, e.Actual)
}
