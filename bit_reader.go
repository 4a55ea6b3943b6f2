package inflate

import "io"

// bitReader reads a DEFLATE stream held entirely in memory. Multi-bit
// fields are packed least-significant-bit first within each byte; Huffman
// codes are consumed one raw bit at a time by the tree walk (huffman.go).
// Byte-aligned reads discard any unread bits of the current byte first,
// which the format only asks for at boundaries that are byte-aligned anyway
// (stored block length fields and payload).
type bitReader struct {
	data    []byte
	byteOff int
	bitOff  uint
}

// nextBit returns the next bit of the stream, bit 0 of the current byte
// first.
func (b *bitReader) nextBit() (uint32, error) {
	if b.byteOff >= len(b.data) {
		return 0, io.ErrUnexpectedEOF
	}
	bit := uint32(b.data[b.byteOff]>>b.bitOff) & 1
	b.bitOff++
	if b.bitOff == 8 {
		b.bitOff = 0
		b.byteOff++
	}
	return bit, nil
}

// nextBits reads n bits and assembles them with the first bit read as the
// least significant bit of the result.
func (b *bitReader) nextBits(n uint) (uint32, error) {
	var v uint32
	for i := uint(0); i < n; i++ {
		bit, err := b.nextBit()
		if err != nil {
			return 0, err
		}
		v |= bit << i
	}
	return v, nil
}

// align discards the unread bits of the current byte.
func (b *bitReader) align() {
	if b.bitOff > 0 {
		b.bitOff = 0
		b.byteOff++
	}
}

// nextByte byte-aligns the cursor and returns the next byte.
func (b *bitReader) nextByte() (byte, error) {
	b.align()
	if b.byteOff >= len(b.data) {
		return 0, io.ErrUnexpectedEOF
	}
	c := b.data[b.byteOff]
	b.byteOff++
	return c, nil
}

// nextBytes byte-aligns the cursor and returns the next n bytes as a
// sub-slice of the input.
func (b *bitReader) nextBytes(n int) ([]byte, error) {
	b.align()
	if n < 0 || n > len(b.data)-b.byteOff {
		return nil, io.ErrUnexpectedEOF
	}
	s := b.data[b.byteOff : b.byteOff+n]
	b.byteOff += n
	return s, nil
}

// nextUint16 byte-aligns the cursor and reads a little-endian 16-bit value.
func (b *bitReader) nextUint16() (uint16, error) {
	lo, err := b.nextByte()
	if err != nil {
		return 0, err
	}
	hi, err := b.nextByte()
	if err != nil {
		return 0, err
	}
	return uint16(lo) | uint16(hi)<<8, nil
}
