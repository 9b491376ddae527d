package phash

import (
	"fmt"
	"math/bits"

	"github.com/chewton2k/Imprint/model"
)

// Distance returns the Hamming distance between two hex fingerprints:
// corresponding nibbles are XORed and the set bits summed.
//
// Fingerprints of unequal length are never comparable; Distance reports
// them as malformed input rather than returning a number.
func Distance(a, b string) (int, error) {
	if len(a) != len(b) {
		return 0, model.NewError(model.ErrMalformedInput,
			fmt.Sprintf("fingerprints of unequal length (%d vs %d) are not comparable", len(a), len(b)))
	}
	total := 0
	for i := 0; i < len(a); i++ {
		na, err := nibble(a[i])
		if err != nil {
			return 0, err
		}
		nb, err := nibble(b[i])
		if err != nil {
			return 0, err
		}
		total += bits.OnesCount8(na ^ nb)
	}
	return total, nil
}

// Similar reports whether two fingerprints are within the default
// similarity threshold. Incomparable fingerprints are never similar.
func Similar(a, b string) bool {
	d, err := Distance(a, b)
	return err == nil && d <= DefaultThreshold
}

func nibble(c byte) (uint8, error) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', nil
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, nil
	}
	return 0, model.NewError(model.ErrMalformedInput, fmt.Sprintf("fingerprint contains non-hex character %q", c))
}
