package phash

import "math"

// cosTable[k][n] = cos(pi * (2n+1) * k / (2*gridSize)), precomputed once
// for the fixed grid.
var cosTable = func() [gridSize][gridSize]float64 {
	var t [gridSize][gridSize]float64
	for k := 0; k < gridSize; k++ {
		for n := 0; n < gridSize; n++ {
			t[k][n] = math.Cos(math.Pi * float64(2*n+1) * float64(k) / float64(2*gridSize))
		}
	}
	return t
}()

var (
	scaleDC = math.Sqrt(1.0 / float64(gridSize))
	scaleAC = math.Sqrt(2.0 / float64(gridSize))
)

// dct1d computes the orthonormal DCT-II of a gridSize-length vector.
func dct1d(in, out []float64) {
	for k := 0; k < gridSize; k++ {
		var sum float64
		for n := 0; n < gridSize; n++ {
			sum += in[n] * cosTable[k][n]
		}
		if k == 0 {
			out[k] = sum * scaleDC
		} else {
			out[k] = sum * scaleAC
		}
	}
}

// dct2d applies the separable transform: the 1-D DCT over every row, then
// over every column of the result. Output coefficients are ordered by
// increasing frequency in both axes, DC at [0][0].
func dct2d(m [][]float64) [][]float64 {
	rows := make([][]float64, gridSize)
	for y := 0; y < gridSize; y++ {
		rows[y] = make([]float64, gridSize)
		dct1d(m[y], rows[y])
	}

	out := make([][]float64, gridSize)
	for y := 0; y < gridSize; y++ {
		out[y] = make([]float64, gridSize)
	}
	col := make([]float64, gridSize)
	res := make([]float64, gridSize)
	for x := 0; x < gridSize; x++ {
		for y := 0; y < gridSize; y++ {
			col[y] = rows[y][x]
		}
		dct1d(col, res)
		for y := 0; y < gridSize; y++ {
			out[y][x] = res[y]
		}
	}
	return out
}
