// Package phash computes a visually-robust 64-bit fingerprint of image
// content and the Hamming distance metric used to compare fingerprints.
//
// The hash keeps only the lowest frequencies of a small fixed-size
// luminance grid, so re-encoding and mild resizing collapse to the same or
// a very close hash. It is a similarity aid, not a security proof: no
// robustness is claimed against adversarial transformations.
package phash

import (
	"fmt"
	"sort"

	"github.com/chewton2k/Imprint/model"
)

const (
	// gridSize is the fixed resample grid; fine detail beyond it is
	// deliberately discarded.
	gridSize = 32

	// blockSize is the retained low-frequency block.
	blockSize = 8

	// HexLength is the length of an encoded fingerprint: 64 bits, 4 bits
	// per character.
	HexLength = 16

	// DefaultThreshold is the similarity cutoff in bits: distances at or
	// below it count as a perceptual match.
	DefaultThreshold = 10
)

// FromImage decodes image bytes with dec (StdDecoder when nil) and returns
// the 16-character lowercase hex perceptual fingerprint.
func FromImage(data []byte, dec Decoder) (string, error) {
	if dec == nil {
		dec = StdDecoder{}
	}
	lum, err := dec.DecodeLuminance(data, gridSize)
	if err != nil {
		return "", err
	}
	return FromLuminance(lum)
}

// FromLuminance hashes an already-decoded gridSize×gridSize luminance
// matrix.
//
// The 8×8 lowest-frequency DCT block minus the DC coefficient gives 63
// values; each emits one bit (1 if above their median) in row-major scan
// order, plus a single 0 pad bit. Thresholding on the image's own median
// makes the hash contrast-invariant.
//
// Stability under re-encoding holds for textured content. Near-flat
// images (solid fills, pure ramps) leave most retained coefficients at
// rounding-noise magnitude, and their bits are not stable.
func FromLuminance(lum [][]float64) (string, error) {
	if len(lum) != gridSize {
		return "", model.NewError(model.ErrMalformedInput,
			fmt.Sprintf("luminance matrix must be %d rows, got %d", gridSize, len(lum)))
	}
	for _, row := range lum {
		if len(row) != gridSize {
			return "", model.NewError(model.ErrMalformedInput,
				fmt.Sprintf("luminance matrix must be %d columns, got %d", gridSize, len(row)))
		}
	}

	coef := dct2d(lum)

	vals := make([]float64, 0, blockSize*blockSize-1)
	for y := 0; y < blockSize; y++ {
		for x := 0; x < blockSize; x++ {
			if x == 0 && y == 0 {
				continue // DC carries overall brightness, not structure
			}
			vals = append(vals, coef[y][x])
		}
	}

	med := median(vals)

	var h uint64
	for i, v := range vals {
		if v > med {
			h |= 1 << (63 - uint(i))
		}
	}
	// Bit 63 (the final pad bit) stays 0.
	return fmt.Sprintf("%016x", h), nil
}

// median returns the middle element of vals (odd length by construction).
func median(vals []float64) float64 {
	s := append([]float64(nil), vals...)
	sort.Float64s(s)
	return s[len(s)/2]
}
