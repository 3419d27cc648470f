package memory

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/marcinbor85/gohex"
	"github.com/pkg/errors"
)

// MaxImageSize - Flash addresses are 16 bit wide
const MaxImageSize = 0x10000

// ErrImageTooLarge - Image does not fit the 16-bit address space
var ErrImageTooLarge = errors.New("image exceeds 64 KiB address space")

// Memory - Firmware image as a set of data segments
type Memory struct {
	*gohex.Memory
}

// New - Empty memory
func New() *Memory {
	return &Memory{gohex.NewMemory()}
}

// GetMemRange - Bytes from fromAddr to toAddr inclusive. Addresses not
// covered by any segment read as 0xFF (erased flash).
func (m Memory) GetMemRange(fromAddr uint32, toAddr uint32) []byte {
	if toAddr < fromAddr {
		return []byte{}
	}

	res := make([]byte, int(toAddr-fromAddr)+1)
	for i := range res {
		res[i] = 0xFF
	}

	for _, seg := range m.GetDataSegments() {
		segEnd := seg.Address + uint32(len(seg.Data)) // exclusive
		if segEnd <= fromAddr || seg.Address > toAddr {
			continue
		}

		start := seg.Address
		if start < fromAddr {
			start = fromAddr
		}
		end := segEnd
		if end > toAddr+1 {
			end = toAddr + 1
		}

		copy(res[start-fromAddr:end-fromAddr], seg.Data[start-seg.Address:end-seg.Address])
	}

	return res
}

// Size - Address one past the highest byte of any segment
func (m Memory) Size() uint32 {
	size := uint32(0)
	for _, seg := range m.GetDataSegments() {
		end := seg.Address + uint32(len(seg.Data))
		if end > size {
			size = end
		}
	}
	return size
}

// Image - Flat flash image starting at address 0, ready to be written
// chunk by chunk
func (m Memory) Image() ([]byte, error) {
	size := m.Size()
	if size > MaxImageSize {
		return nil, errors.Wrapf(ErrImageTooLarge, "image ends at 0x%X", size)
	}

	if size == 0 {
		return []byte{}, nil
	}

	return m.GetMemRange(0, size-1), nil
}

// LoadFile - Load image in a format chosen by the file extension:
// .hex/.ihex is Intel HEX, .txt is TI-Text, anything else raw binary
func LoadFile(path string) (*Memory, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".hex", ".ihex":
		return LoadHexFile(path)
	case ".txt":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		mem, err := LoadTIText(string(data))
		return mem, errors.Wrap(err, path)
	default:
		return LoadBinFile(path)
	}
}

// LoadBinFile - Raw image file, placed at address 0
func LoadBinFile(path string) (*Memory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if len(data) > MaxImageSize {
		return nil, errors.Wrapf(ErrImageTooLarge, "%s has %d bytes", path, len(data))
	}

	mem := New()
	if len(data) > 0 {
		if err := mem.AddBinary(0, data); err != nil {
			return nil, errors.Wrap(err, path)
		}
	}

	return mem, nil
}

// LoadHexFile - Load binary content of an Intel HEX file
func LoadHexFile(path string) (*Memory, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	defer file.Close()

	mem := New()
	err = mem.ParseIntelHex(file)
	if err != nil {
		return nil, errors.Wrap(err, path)
	}

	return mem, nil
}

// LoadTIText - Load data from a string in the TI-Text format
func LoadTIText(data string) (*Memory, error) {
	mem := New()

	startAddr := uint32(0)
	segmentData := []byte{}

	flush := func() error {
		if len(segmentData) == 0 {
			return nil
		}
		return mem.AddBinary(startAddr, segmentData)
	}

	for n, line := range strings.Split(data, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line[0] == 'q' {
			break
		}

		if line[0] == '@' {
			if err := flush(); err != nil {
				return nil, err
			}

			addr, err := strconv.ParseUint(line[1:], 16, 32)
			if err != nil {
				return nil, errors.Wrapf(err, "line %d", n+1)
			}

			startAddr = uint32(addr)
			segmentData = []byte{}
			continue
		}

		for _, val := range strings.Fields(line) {
			b, err := strconv.ParseUint(val, 16, 8)
			if err != nil {
				return nil, errors.Wrapf(err, "line %d", n+1)
			}

			segmentData = append(segmentData, byte(b))
		}
	}

	if err := flush(); err != nil {
		return nil, err
	}

	return mem, nil
}
