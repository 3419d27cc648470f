package uartbsl

import "fmt"

// EraseFrame - [0x39, 0x00, 0x00, 0x55, checksum]
type EraseFrame [EraseFrameSize]byte

// WriteFrame - [0x57, offHi, offLo, payload(128), checksum]
type WriteFrame [WriteFrameSize]byte

// ReadFrame - [0x52, offHi, offLo, checksum]
type ReadFrame [ReadFrameSize]byte

// Block - Response to a read frame, laid out like WriteFrame
type Block [BlockSize]byte

// BuildErase - Erase of the whole device, takes no address
func BuildErase() EraseFrame {
	var f EraseFrame
	f[0] = CmdErase
	f[3] = eraseParam
	SetChecksum(f[:])
	return f
}

// ChunkLength - Number of image bytes carried by the chunk at offset
func ChunkLength(offset, size int) int {
	n := size - offset
	if n > ChunkSize {
		n = ChunkSize
	}
	return n
}

// BuildWriteChunk - Write frame carrying firmware[offset:offset+ChunkLength].
// A short last chunk is padded with zeroes.
//
// offset must not exceed len(firmware), callers stop chunking once
// offset >= len(firmware). Only the low 16 bits of offset go on the wire.
func BuildWriteChunk(offset int, firmware []byte) WriteFrame {
	if offset < 0 || offset > len(firmware) {
		panic(fmt.Sprintf("uartbsl: write offset %d outside image of %d bytes", offset, len(firmware)))
	}

	var f WriteFrame
	f[0] = CmdWrite
	putOffset(f[:], uint16(offset))

	n := ChunkLength(offset, len(firmware))
	copy(f[payloadOffset:payloadOffset+n], firmware[offset:offset+n])

	SetChecksum(f[:])
	return f
}

// BuildReadChunk - Request of the block at offset
func BuildReadChunk(offset uint16) ReadFrame {
	var f ReadFrame
	f[0] = CmdRead
	putOffset(f[:], offset)
	SetChecksum(f[:])
	return f
}

// Offset is big-endian at bytes 1-2 of every addressed frame
func putOffset(frame []byte, offset uint16) {
	frame[1] = byte(offset >> 8)
	frame[2] = byte(offset)
}
