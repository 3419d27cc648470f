package uartbsl

// ParseAck - Acknowledgement of erase and write frames. Any byte other than
// Ack is a rejection, the reason is not reported by the device.
func ParseAck(b byte) bool {
	return b == Ack
}

// ParseBlock - Payload of a read block, or false when the device has no more
// data. A block with a wrong checksum is reported the same way as the end of
// data, the device firmware does not tell them apart either.
func ParseBlock(block Block) ([]byte, bool) {
	if block[1] == EndOfData {
		return nil, false
	}

	if !VerifyChecksum(block[:]) {
		return nil, false
	}

	data := make([]byte, ChunkSize)
	copy(data, block[payloadOffset:payloadOffset+ChunkSize])
	return data, true
}
