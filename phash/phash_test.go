package phash

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math/rand"
	"strings"
	"testing"
)

// textureCells is the control-point pitch of the synthetic test texture.
// An 8-cell surface puts energy across the full retained frequency block,
// like photographic content; flat synthetic ramps concentrate theirs in a
// handful of coefficients and leave the rest as rounding noise, which no
// median threshold can stabilize.
const textureCells = 8

// textureGrid returns seeded control points for a smooth random surface.
func textureGrid(seed int64) [][]float64 {
	rng := rand.New(rand.NewSource(seed))
	grid := make([][]float64, textureCells+1)
	for i := range grid {
		grid[i] = make([]float64, textureCells+1)
		for j := range grid[i] {
			grid[i][j] = rng.Float64() * 255
		}
	}
	return grid
}

// sampleTexture bilinearly interpolates the control surface at normalized
// coordinates in [0, 1].
func sampleTexture(grid [][]float64, u, v float64) float64 {
	gx := u * textureCells
	gy := v * textureCells
	x0, y0 := int(gx), int(gy)
	if x0 >= textureCells {
		x0 = textureCells - 1
	}
	if y0 >= textureCells {
		y0 = textureCells - 1
	}
	fx, fy := gx-float64(x0), gy-float64(y0)
	return grid[y0][x0]*(1-fx)*(1-fy) +
		grid[y0][x0+1]*fx*(1-fy) +
		grid[y0+1][x0]*(1-fx)*fy +
		grid[y0+1][x0+1]*fx*fy
}

// texture renders a smooth deterministic pseudo-random texture; the same
// visual content at any resolution.
func texture(w, h int, seed int64) *image.RGBA {
	grid := textureGrid(seed)
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := uint8(sampleTexture(grid, float64(x)/float64(w-1), float64(y)/float64(h-1)))
			img.Set(x, y, color.RGBA{R: c, G: c, B: c, A: 255})
		}
	}
	return img
}

// noise renders deterministic pseudo-random pixels; visually unrelated to
// any smooth texture.
func noise(w, h int, seed int64) *image.RGBA {
	rng := rand.New(rand.NewSource(seed))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(rng.Intn(256)), G: uint8(rng.Intn(256)), B: uint8(rng.Intn(256)), A: 255})
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return buf.Bytes()
}

func encodeJPEG(t *testing.T, img image.Image, quality int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		t.Fatalf("jpeg.Encode: %v", err)
	}
	return buf.Bytes()
}

func mustHash(t *testing.T, data []byte) string {
	t.Helper()
	h, err := FromImage(data, nil)
	if err != nil {
		t.Fatalf("FromImage: %v", err)
	}
	return h
}

func mustDistance(t *testing.T, a, b string) int {
	t.Helper()
	d, err := Distance(a, b)
	if err != nil {
		t.Fatalf("Distance: %v", err)
	}
	return d
}

func TestFromImageFormat(t *testing.T) {
	h := mustHash(t, encodePNG(t, texture(64, 64, 1)))
	if len(h) != HexLength {
		t.Fatalf("hash length = %d, want %d", len(h), HexLength)
	}
	if h != strings.ToLower(h) {
		t.Fatalf("hash must be lowercase hex: %q", h)
	}
	if _, err := Distance(h, h); err != nil {
		t.Fatalf("hash is not valid hex: %v", err)
	}
}

func TestHashDeterministic(t *testing.T) {
	data := encodePNG(t, texture(64, 64, 1))
	if mustHash(t, data) != mustHash(t, data) {
		t.Fatal("hashing the same bytes twice differed")
	}
}

func TestStabilityAcrossEncodings(t *testing.T) {
	img := texture(64, 64, 1)
	a := mustHash(t, encodePNG(t, img))
	b := mustHash(t, encodeJPEG(t, img, 90))
	if d := mustDistance(t, a, b); d > DefaultThreshold {
		t.Fatalf("re-encode distance = %d, want <= %d", d, DefaultThreshold)
	}
}

func TestStabilityAcrossResolutions(t *testing.T) {
	a := mustHash(t, encodePNG(t, texture(64, 64, 1)))
	b := mustHash(t, encodePNG(t, texture(96, 96, 1)))
	if d := mustDistance(t, a, b); d > DefaultThreshold {
		t.Fatalf("resize distance = %d, want <= %d", d, DefaultThreshold)
	}
}

func TestSeparationOfUnrelatedImages(t *testing.T) {
	a := mustHash(t, encodePNG(t, texture(64, 64, 1)))
	b := mustHash(t, encodePNG(t, noise(64, 64, 1)))
	if d := mustDistance(t, a, b); d <= DefaultThreshold {
		t.Fatalf("texture vs noise at distance %d, want > %d", d, DefaultThreshold)
	}
	c := mustHash(t, encodePNG(t, texture(64, 64, 2)))
	if d := mustDistance(t, a, c); d <= DefaultThreshold {
		t.Fatalf("independent textures at distance %d, want > %d", d, DefaultThreshold)
	}
}

func TestContrastInvariance(t *testing.T) {
	// Linearly rescaling every luminance value scales every coefficient by
	// the same positive factor, so the median comparison is unchanged.
	grid := textureGrid(7)
	lum := make([][]float64, gridSize)
	scaled := make([][]float64, gridSize)
	for y := range lum {
		lum[y] = make([]float64, gridSize)
		scaled[y] = make([]float64, gridSize)
		for x := range lum[y] {
			v := sampleTexture(grid, float64(x)/float64(gridSize-1), float64(y)/float64(gridSize-1))
			lum[y][x] = v
			scaled[y][x] = v * 0.4
		}
	}
	a, err := FromLuminance(lum)
	if err != nil {
		t.Fatalf("FromLuminance: %v", err)
	}
	b, err := FromLuminance(scaled)
	if err != nil {
		t.Fatalf("FromLuminance: %v", err)
	}
	if a != b {
		t.Fatalf("contrast change moved the hash: %s vs %s", a, b)
	}
}

func TestFromImageRejectsGarbage(t *testing.T) {
	if _, err := FromImage([]byte("definitely not an image"), nil); err == nil {
		t.Fatal("garbage bytes accepted")
	}
}

func TestFromLuminanceRejectsWrongShape(t *testing.T) {
	if _, err := FromLuminance(make([][]float64, 16)); err == nil {
		t.Fatal("wrong row count accepted")
	}
	bad := make([][]float64, gridSize)
	for i := range bad {
		bad[i] = make([]float64, gridSize)
	}
	bad[5] = make([]float64, 7)
	if _, err := FromLuminance(bad); err == nil {
		t.Fatal("ragged matrix accepted")
	}
}
