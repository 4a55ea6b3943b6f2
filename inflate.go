// Package inflate implements a from-scratch decompressor for the DEFLATE
// compressed data format (RFC 1951) and for the zlib envelope around it
// (RFC 1950).
//
// The package operates on fully materialized buffers: Decompress and
// DecompressZlib take a complete compressed stream and return the complete
// decompressed payload. There is no encoder and no streaming surface.
package inflate

import (
	"errors"
	"io"
)

// Errors reported for malformed streams. Truncated input surfaces as
// io.ErrUnexpectedEOF, except inside a Huffman code walk, where a short read
// is indistinguishable from a corrupt code and reports ErrTree.
var (
	// ErrIllegalBlockFormat means a block used the reserved type bits 11.
	ErrIllegalBlockFormat = errors.New("inflate: illegal block format")

	// ErrUncompressedLengthMismatch means a stored block's NLEN field was
	// not the one's complement of its LEN field.
	ErrUncompressedLengthMismatch = errors.New("inflate: stored block length mismatch")

	// ErrTree means a Huffman code walk reached a node with no child for
	// the next bit: the code is corrupt or the stream ends inside it.
	ErrTree = errors.New("inflate: corrupt or truncated huffman code")

	// ErrIllegalSmallTree means the code-length alphabet of a dynamic
	// block produced a symbol outside 0..18, or a repeat that cannot be
	// honored.
	ErrIllegalSmallTree = errors.New("inflate: illegal code length symbol")

	// ErrMissingFinalBlock means the input ran out at a block boundary
	// without any block carrying the final flag.
	ErrMissingFinalBlock = errors.New("inflate: stream ended without a final block")
)

// endBlockMarker is the literal/length symbol that terminates a block.
const endBlockMarker = 256

// Decompress decodes a raw DEFLATE bit stream (no zlib wrapper) and returns
// the decompressed payload.
func Decompress(data []byte) ([]byte, error) {
	f := &decompressor{br: &bitReader{data: data}}
	for {
		final, err := f.br.nextBits(1)
		if err != nil {
			return nil, ErrMissingFinalBlock
		}
		typ, err := f.br.nextBits(2)
		if err != nil {
			return nil, io.ErrUnexpectedEOF
		}
		switch typ {
		case 0:
			err = f.storedBlock()
		case 1:
			err = f.fixedBlock()
		case 2:
			err = f.dynamicBlock()
		default:
			err = ErrIllegalBlockFormat
		}
		if err != nil {
			return nil, err
		}
		if final == 1 {
			return f.out, nil
		}
	}
}

// DecompressZlib decodes a zlib-wrapped DEFLATE stream: a 2-byte header, an
// optional 4-byte preset dictionary id, the compressed payload, and a 4-byte
// Adler-32 trailer. The dictionary id is skipped (preset dictionaries are
// not supported) and the trailer is stripped without verification.
func DecompressZlib(data []byte) ([]byte, error) {
	const headerSize, dictSize, trailerSize = 2, 4, 4
	if len(data) < headerSize+trailerSize {
		return nil, io.ErrUnexpectedEOF
	}
	flg := data[1]
	skip := headerSize
	if flg>>5&1 == 1 {
		skip += dictSize
	}
	if len(data) < skip+trailerSize {
		return nil, io.ErrUnexpectedEOF
	}
	return Decompress(data[skip : len(data)-trailerSize])
}
