package inflate

// huffmanTree is a canonical prefix code held as a binary tree. Nodes live
// in a growable arena and refer to their children by index, so building a
// tree performs no per-node allocation and the arena has no fixed capacity
// ceiling.
type huffmanTree struct {
	nodes []huffmanNode
}

// huffmanNode is either a leaf (symbol >= 0) or an internal node. left and
// right are arena indices of the 0- and 1-children, -1 when absent.
type huffmanNode struct {
	symbol int
	left   int
	right  int
}

// buildHuffmanTree constructs the canonical code described by bitlengths:
// bitlengths[i] is the code length in bits of alphabet[i], with 0 meaning
// the symbol does not occur in this tree. Code values are assigned from the
// lengths alone, per RFC 1951 §3.2.2: codes of the same length are
// consecutive in alphabet order, and the first code of each length follows
// from the code space left by the shorter lengths.
func buildHuffmanTree(bitlengths, alphabet []int) *huffmanTree {
	maxBits := 0
	for _, n := range bitlengths {
		if n > maxBits {
			maxBits = n
		}
	}
	count := make([]int, maxBits+1)
	for _, n := range bitlengths {
		if n != 0 {
			count[n]++
		}
	}
	nextCode := make([]uint32, maxBits+1)
	code := uint32(0)
	for bits := 1; bits <= maxBits; bits++ {
		code = (code + uint32(count[bits-1])) << 1
		nextCode[bits] = code
	}

	t := &huffmanTree{nodes: []huffmanNode{{symbol: -1, left: -1, right: -1}}}
	for i, n := range bitlengths {
		if n == 0 || i >= len(alphabet) {
			continue
		}
		t.insert(nextCode[n], n, alphabet[i])
		nextCode[n]++
	}
	return t
}

// insert walks code from its most significant bit down (canonical codes are
// written MSB-first, unlike the raw bit fields around them), creating
// children as needed, and marks the node reached by the last bit as the
// leaf for symbol.
func (t *huffmanTree) insert(code uint32, length int, symbol int) {
	cur := 0
	for i := length - 1; i >= 0; i-- {
		bit := code >> uint(i) & 1
		var next int
		if bit == 0 {
			next = t.nodes[cur].left
		} else {
			next = t.nodes[cur].right
		}
		if next < 0 {
			next = len(t.nodes)
			t.nodes = append(t.nodes, huffmanNode{symbol: -1, left: -1, right: -1})
			if bit == 0 {
				t.nodes[cur].left = next
			} else {
				t.nodes[cur].right = next
			}
		}
		cur = next
	}
	t.nodes[cur].symbol = symbol
}

// decodeSymbol follows raw stream bits from the root until it reaches a
// leaf and returns that leaf's symbol. A missing child, or the stream
// ending mid-code, means the code is corrupt.
func (t *huffmanTree) decodeSymbol(br *bitReader) (int, error) {
	cur := 0
	for t.nodes[cur].left >= 0 || t.nodes[cur].right >= 0 {
		bit, err := br.nextBit()
		if err != nil {
			return 0, ErrTree
		}
		var next int
		if bit == 0 {
			next = t.nodes[cur].left
		} else {
			next = t.nodes[cur].right
		}
		if next < 0 {
			return 0, ErrTree
		}
		cur = next
	}
	if t.nodes[cur].symbol < 0 {
		return 0, ErrTree
	}
	return t.nodes[cur].symbol, nil
}
