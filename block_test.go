package inflate

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedLiteralCode returns the fixed-tree code for a literal in 0..143
// (RFC 1951 §3.2.6: 8-bit codes starting at 00110000).
func fixedLiteralCode(b byte) uint32 {
	return 0b00110000 + uint32(b)
}

func TestStoredBlockExactness(t *testing.T) {
	data := []byte{
		0x01,                   // final, type 00
		0x03, 0x00, 0xfc, 0xff, // LEN=3, NLEN=^3
		'f', 'o', 'o',
	}
	out, err := Decompress(data)
	require.NoError(t, err)
	require.Equal(t, []byte("foo"), out)
}

func TestStoredBlockLengthMismatch(t *testing.T) {
	data := []byte{
		0x01,
		0x03, 0x00, 0xfc, 0xfe, // NLEN is not ^LEN
		'f', 'o', 'o',
	}
	_, err := Decompress(data)
	require.ErrorIs(t, err, ErrUncompressedLengthMismatch)
}

func TestStoredBlockTruncatedPayload(t *testing.T) {
	data := []byte{
		0x01,
		0x05, 0x00, 0xfa, 0xff, // LEN=5 but only 2 payload bytes follow
		'f', 'o',
	}
	_, err := Decompress(data)
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestFixedHuffmanLiterals(t *testing.T) {
	// Only symbols in 0..143 (8-bit codes), decoded by the tree RFC 1951
	// mandates for type-01 blocks, with no dynamic-table machinery involved.
	payload := []byte("Go tiles!")
	var w bitWriter
	w.writeBits(1, 1) // final
	w.writeBits(1, 2) // fixed huffman
	for _, b := range payload {
		w.writeCode(fixedLiteralCode(b), 8)
	}
	w.writeCode(0, 7) // end of block

	out, err := Decompress(w.data)
	require.NoError(t, err)
	require.Equal(t, payload, out)
}

func TestOverlappingCopy(t *testing.T) {
	// Literal 'a' followed by (length 4, distance 1) must self-reference
	// bytes appended by the same copy, yielding "aaaaa".
	var w bitWriter
	w.writeBits(1, 1)
	w.writeBits(1, 2)
	w.writeCode(fixedLiteralCode('a'), 8)
	w.writeCode(2, 7) // length code 258: base 4, no extra bits
	w.writeCode(0, 5) // distance code 0: base 1, no extra bits
	w.writeCode(0, 7)

	out, err := Decompress(w.data)
	require.NoError(t, err)
	require.Equal(t, []byte("aaaaa"), out)
}

func TestBackReferenceBeforeStart(t *testing.T) {
	// A copy into an empty output buffer cannot be honored.
	var w bitWriter
	w.writeBits(1, 1)
	w.writeBits(1, 2)
	w.writeCode(2, 7) // length code 258 with no literal before it
	w.writeCode(0, 5)
	w.writeCode(0, 7)

	_, err := Decompress(w.data)
	require.ErrorIs(t, err, ErrTree)
}

func TestLengthExtraBits(t *testing.T) {
	// Length code 265 has 1 extra bit over base 11; with the bit set the
	// copy length is 12.
	var w bitWriter
	w.writeBits(1, 1)
	w.writeBits(1, 2)
	w.writeCode(fixedLiteralCode('x'), 8)
	w.writeCode(265-256, 7)
	w.writeBits(1, 1) // extra bit
	w.writeCode(0, 5) // distance 1
	w.writeCode(0, 7)

	out, err := Decompress(w.data)
	require.NoError(t, err)
	require.Equal(t, []byte("xxxxxxxxxxxxx"), out) // 1 literal + 12 copied
}

// codeLengthTestTree builds a five-symbol code-length tree used by the
// repeat-code tests: symbols 0, 4 and 18 get 2-bit codes (00, 01, 10),
// symbols 16 and 17 get 3-bit codes (110, 111).
func codeLengthTestTree() *huffmanTree {
	lengths := make([]int, 19)
	lengths[0] = 2
	lengths[4] = 2
	lengths[18] = 2
	lengths[16] = 3
	lengths[17] = 3
	return buildHuffmanTree(lengths, identityAlphabet(19))
}

func TestReadCodeLengthsRepeats(t *testing.T) {
	var w bitWriter
	w.writeCode(0b01, 2)  // literal length 4
	w.writeCode(0b110, 3) // 16: repeat previous
	w.writeBits(1, 2)     // 3+1 = 4 more fours
	w.writeCode(0b10, 2)  // 18: run of zeros
	w.writeBits(4, 7)     // 11+4 = 15 zeros
	w.writeCode(0b111, 3) // 17: short run of zeros
	w.writeBits(1, 3)     // 3+1 = 4 zeros

	f := &decompressor{br: &bitReader{data: w.data}}
	got, err := f.readCodeLengths(codeLengthTestTree(), 24)
	require.NoError(t, err)

	want := []int{4, 4, 4, 4, 4}
	for i := 0; i < 19; i++ {
		want = append(want, 0)
	}
	require.Equal(t, want, got)
}

func TestReadCodeLengthsZeroRunExact(t *testing.T) {
	// Symbol 18 with extra bits 4 must insert exactly 15 zero lengths.
	var w bitWriter
	w.writeCode(0b10, 2)
	w.writeBits(4, 7)

	f := &decompressor{br: &bitReader{data: w.data}}
	got, err := f.readCodeLengths(codeLengthTestTree(), 15)
	require.NoError(t, err)
	require.Equal(t, make([]int, 15), got)
}

func TestReadCodeLengthsRepeatOverrun(t *testing.T) {
	// A run of 15 zeros does not fit in a 3-entry array.
	var w bitWriter
	w.writeCode(0b10, 2)
	w.writeBits(4, 7)

	f := &decompressor{br: &bitReader{data: w.data}}
	_, err := f.readCodeLengths(codeLengthTestTree(), 3)
	assert.ErrorIs(t, err, ErrIllegalSmallTree)
}

func TestReadCodeLengthsRepeatWithoutPrevious(t *testing.T) {
	var w bitWriter
	w.writeCode(0b110, 3) // 16 as the first symbol
	w.writeBits(0, 2)

	f := &decompressor{br: &bitReader{data: w.data}}
	_, err := f.readCodeLengths(codeLengthTestTree(), 4)
	assert.ErrorIs(t, err, ErrIllegalSmallTree)
}

func TestReadCodeLengthsIllegalSymbol(t *testing.T) {
	// A tree handing back a symbol outside 0..18 is rejected outright.
	tree := buildHuffmanTree([]int{1}, []int{19})
	var w bitWriter
	w.writeBit(0)

	f := &decompressor{br: &bitReader{data: w.data}}
	_, err := f.readCodeLengths(tree, 1)
	assert.ErrorIs(t, err, ErrIllegalSmallTree)
}
