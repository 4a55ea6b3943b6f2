// Package png decodes the subset of PNG the tiling assets use: 8-bit
// truecolor images (with or without alpha), no interlacing. The zlib-wrapped
// image data is inflated by the inflate package; per-scanline predictive
// filters are reversed here and the result is normalized to RGBA.
package png

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/jacopograndi/inflate"
)

// Image is a decoded image: 4 bytes per pixel (RGBA), rows top to bottom.
type Image struct {
	Width  uint32
	Height uint32
	Raw    []byte
}

var (
	// ErrNotPNG means the data does not start with the PNG signature.
	ErrNotPNG = errors.New("png: missing signature")

	// ErrTruncated means the data ended inside a chunk or a scanline.
	ErrTruncated = errors.New("png: truncated data")
)

var signature = []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}

const (
	colorRGB  = 2
	colorRGBA = 6
)

// Decode parses a PNG file, inflates its image data and reverses the
// scanline filters. Chunk CRCs are not verified.
func Decode(data []byte) (*Image, error) {
	if len(data) < len(signature) || !bytes.Equal(data[:len(signature)], signature) {
		return nil, ErrNotPNG
	}

	var width, height uint32
	var pixelSize int
	var compressed []byte
	sawHeader := false

	c := len(signature)
	for {
		if len(data)-c < 8 {
			return nil, ErrTruncated
		}
		length := int(binary.BigEndian.Uint32(data[c : c+4]))
		chunkType := string(data[c+4 : c+8])
		c += 8
		if length < 0 || len(data)-c < length+4 {
			return nil, ErrTruncated
		}
		payload := data[c : c+length]
		c += length + 4 // skip the CRC field

		switch chunkType {
		case "IHDR":
			if length != 13 {
				return nil, fmt.Errorf("png: IHDR length %d", length)
			}
			width = binary.BigEndian.Uint32(payload[0:4])
			height = binary.BigEndian.Uint32(payload[4:8])
			bitDepth := payload[8]
			colorType := payload[9]
			compression := payload[10]
			filter := payload[11]
			interlace := payload[12]
			if bitDepth != 8 {
				return nil, fmt.Errorf("png: unsupported bit depth %d", bitDepth)
			}
			if compression != 0 || filter != 0 {
				return nil, fmt.Errorf("png: unsupported compression/filter method %d/%d", compression, filter)
			}
			if interlace != 0 {
				return nil, fmt.Errorf("png: interlacing not supported")
			}
			switch colorType {
			case colorRGB:
				pixelSize = 3
			case colorRGBA:
				pixelSize = 4
			default:
				return nil, fmt.Errorf("png: unsupported color type %d", colorType)
			}
			sawHeader = true
		case "IDAT":
			compressed = append(compressed, payload...)
		case "IEND":
			if !sawHeader {
				return nil, fmt.Errorf("png: missing IHDR")
			}
			filtered, err := inflate.DecompressZlib(compressed)
			if err != nil {
				return nil, fmt.Errorf("png: inflate image data: %w", err)
			}
			return reconstruct(width, height, pixelSize, filtered)
		}
	}
}

// reconstruct reverses the per-scanline filters (RFC 2083 §6) and expands
// RGB rows to RGBA with opaque alpha.
func reconstruct(width, height uint32, pixelSize int, filtered []byte) (*Image, error) {
	rowSize := int(width) * pixelSize
	if len(filtered) < int(height)*(rowSize+1) {
		return nil, ErrTruncated
	}

	recon := make([]byte, int(height)*rowSize)
	for y := 0; y < int(height); y++ {
		rowOff := y * (rowSize + 1)
		filter := filtered[rowOff]
		row := filtered[rowOff+1 : rowOff+1+rowSize]
		out := recon[y*rowSize : (y+1)*rowSize]

		// a is the byte pixelSize to the left, b the byte above, c the
		// byte above-left; all zero outside the image.
		left := func(x int) byte {
			if x < pixelSize {
				return 0
			}
			return out[x-pixelSize]
		}
		up := func(x int) byte {
			if y == 0 {
				return 0
			}
			return recon[(y-1)*rowSize+x]
		}
		upLeft := func(x int) byte {
			if y == 0 || x < pixelSize {
				return 0
			}
			return recon[(y-1)*rowSize+x-pixelSize]
		}

		switch filter {
		case 0: // None
			copy(out, row)
		case 1: // Sub
			for x := 0; x < rowSize; x++ {
				out[x] = row[x] + left(x)
			}
		case 2: // Up
			for x := 0; x < rowSize; x++ {
				out[x] = row[x] + up(x)
			}
		case 3: // Average
			for x := 0; x < rowSize; x++ {
				out[x] = row[x] + byte((int(left(x))+int(up(x)))/2)
			}
		case 4: // Paeth
			for x := 0; x < rowSize; x++ {
				out[x] = row[x] + paeth(left(x), up(x), upLeft(x))
			}
		default:
			return nil, fmt.Errorf("png: unsupported filter %d at row %d", filter, y)
		}
	}

	if pixelSize == 3 {
		recon = expandToRGBA(recon)
	}
	return &Image{Width: width, Height: height, Raw: recon}, nil
}

// paeth picks whichever of a, b, c is closest to a+b-c, preferring a, then b.
func paeth(a, b, c byte) byte {
	p := int(a) + int(b) - int(c)
	pa, pb, pc := abs(p-int(a)), abs(p-int(b)), abs(p-int(c))
	if pa <= pb && pa <= pc {
		return a
	}
	if pb <= pc {
		return b
	}
	return c
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// expandToRGBA inserts an opaque alpha byte after every RGB triple.
func expandToRGBA(rgb []byte) []byte {
	rgba := make([]byte, len(rgb)/3*4)
	for i := range rgba {
		if i%4 == 3 {
			rgba[i] = 0xff
		} else {
			rgba[i] = rgb[i-i/4]
		}
	}
	return rgba
}
