package inflate

import "sync"

// decompressor decodes consecutive DEFLATE blocks from a bit reader into a
// growing output buffer. Bytes already in the buffer are valid
// back-reference sources, including bytes appended earlier in the same
// copy operation.
type decompressor struct {
	br  *bitReader
	out []byte
}

var (
	fixedOnce         sync.Once
	fixedLiteralTree  *huffmanTree
	fixedDistanceTree *huffmanTree
)

// fixedTrees builds the trees mandated for type-01 blocks (RFC 1951
// §3.2.6) on first use. They never change, so they are shared by all calls.
func fixedTrees() (lit, dist *huffmanTree) {
	fixedOnce.Do(func() {
		lengths := make([]int, 288)
		for i := range lengths {
			switch {
			case i < 144:
				lengths[i] = 8
			case i < 256:
				lengths[i] = 9
			case i < 280:
				lengths[i] = 7
			default:
				lengths[i] = 8
			}
		}
		fixedLiteralTree = buildHuffmanTree(lengths, identityAlphabet(288))

		distLengths := make([]int, 30)
		for i := range distLengths {
			distLengths[i] = 5
		}
		fixedDistanceTree = buildHuffmanTree(distLengths, identityAlphabet(30))
	})
	return fixedLiteralTree, fixedDistanceTree
}

// identityAlphabet returns the alphabet 0..n-1. Every tree in DEFLATE maps
// position i to symbol value i.
func identityAlphabet(n int) []int {
	a := make([]int, n)
	for i := range a {
		a[i] = i
	}
	return a
}

// storedBlock copies a type-00 block verbatim. Its length fields are
// byte-aligned little-endian 16-bit values, NLEN being the one's complement
// of LEN.
func (f *decompressor) storedBlock() error {
	length, err := f.br.nextUint16()
	if err != nil {
		return err
	}
	nlen, err := f.br.nextUint16()
	if err != nil {
		return err
	}
	if length != ^nlen {
		return ErrUncompressedLengthMismatch
	}
	raw, err := f.br.nextBytes(int(length))
	if err != nil {
		return err
	}
	f.out = append(f.out, raw...)
	return nil
}

func (f *decompressor) fixedBlock() error {
	lit, dist := fixedTrees()
	return f.decodePairs(lit, dist)
}

func (f *decompressor) dynamicBlock() error {
	lit, dist, err := f.readTrees()
	if err != nil {
		return err
	}
	return f.decodePairs(lit, dist)
}

// readTrees decodes the literal/length and distance trees at the start of a
// type-10 block. Their bit-length arrays are themselves Huffman coded with
// the code-length tree, whose own lengths arrive as 3-bit values in the
// fixed codeLengthOrder permutation.
func (f *decompressor) readTrees() (lit, dist *huffmanTree, err error) {
	hlit, err := f.br.nextBits(5)
	if err != nil {
		return nil, nil, err
	}
	hdist, err := f.br.nextBits(5)
	if err != nil {
		return nil, nil, err
	}
	hclen, err := f.br.nextBits(4)
	if err != nil {
		return nil, nil, err
	}
	nlit, ndist := int(hlit)+257, int(hdist)+1

	var codeLengths [19]int
	for i := 0; i < int(hclen)+4; i++ {
		v, err := f.br.nextBits(3)
		if err != nil {
			return nil, nil, err
		}
		codeLengths[codeLengthOrder[i]] = int(v)
	}
	codeLengthTree := buildHuffmanTree(codeLengths[:], identityAlphabet(19))

	lengths, err := f.readCodeLengths(codeLengthTree, nlit+ndist)
	if err != nil {
		return nil, nil, err
	}
	lit = buildHuffmanTree(lengths[:nlit], identityAlphabet(nlit))
	dist = buildHuffmanTree(lengths[nlit:], identityAlphabet(ndist))
	return lit, dist, nil
}

// readCodeLengths decodes n bit-length values with the code-length tree,
// expanding the repeat symbols: 16 repeats the previous length 3-6 times,
// 17 emits 3-10 zeros, 18 emits 11-138 zeros.
func (f *decompressor) readCodeLengths(tree *huffmanTree, n int) ([]int, error) {
	lengths := make([]int, 0, n)
	for len(lengths) < n {
		symbol, err := tree.decodeSymbol(f.br)
		if err != nil {
			return nil, err
		}
		switch {
		case symbol <= 15:
			lengths = append(lengths, symbol)
		case symbol == 16:
			if len(lengths) == 0 {
				return nil, ErrIllegalSmallTree
			}
			prev := lengths[len(lengths)-1]
			rep, err := f.br.nextBits(2)
			if err != nil {
				return nil, err
			}
			for i := 0; i < int(rep)+3; i++ {
				lengths = append(lengths, prev)
			}
		case symbol == 17:
			rep, err := f.br.nextBits(3)
			if err != nil {
				return nil, err
			}
			for i := 0; i < int(rep)+3; i++ {
				lengths = append(lengths, 0)
			}
		case symbol == 18:
			rep, err := f.br.nextBits(7)
			if err != nil {
				return nil, err
			}
			for i := 0; i < int(rep)+11; i++ {
				lengths = append(lengths, 0)
			}
		default:
			return nil, ErrIllegalSmallTree
		}
	}
	if len(lengths) > n {
		return nil, ErrIllegalSmallTree
	}
	return lengths, nil
}

// decodePairs runs the literal / end-of-block / length-distance loop shared
// by the fixed and dynamic block types. Back-references are copied one byte
// at a time: when distance < length the source range overlaps bytes written
// by the same copy, producing the intended repeating pattern.
func (f *decompressor) decodePairs(lit, dist *huffmanTree) error {
	for {
		symbol, err := lit.decodeSymbol(f.br)
		if err != nil {
			return err
		}
		switch {
		case symbol <= 255:
			f.out = append(f.out, byte(symbol))
		case symbol == endBlockMarker:
			return nil
		case symbol <= 285:
			length, err := f.extra(lengthExtraBits[symbol-257], lengthBase[symbol-257])
			if err != nil {
				return err
			}
			distSymbol, err := dist.decodeSymbol(f.br)
			if err != nil {
				return err
			}
			if distSymbol >= len(distanceBase) {
				return ErrTree
			}
			distance, err := f.extra(distanceExtraBits[distSymbol], distanceBase[distSymbol])
			if err != nil {
				return err
			}
			if distance > len(f.out) {
				return ErrTree
			}
			for i := 0; i < length; i++ {
				f.out = append(f.out, f.out[len(f.out)-distance])
			}
		default:
			return ErrTree
		}
	}
}

// extra reads n extra raw bits and adds them to base.
func (f *decompressor) extra(n uint, base int) (int, error) {
	if n == 0 {
		return base, nil
	}
	v, err := f.br.nextBits(n)
	if err != nil {
		return 0, err
	}
	return base + int(v), nil
}
