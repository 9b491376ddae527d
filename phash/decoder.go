package phash

import (
	"bytes"
	"image"

	"golang.org/x/image/draw"

	// Registered decode formats for the default decoder.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"github.com/chewton2k/Imprint/model"
)

// Decoder turns encoded image bytes into a size×size single-channel
// luminance matrix. It is a capability interface: any backend that can
// decode and resample may satisfy it.
type Decoder interface {
	DecodeLuminance(data []byte, size int) ([][]float64, error)
}

// StdDecoder decodes gif, jpeg, png, and webp and resamples with a
// Catmull-Rom kernel.
type StdDecoder struct{}

func (StdDecoder) DecodeLuminance(data []byte, size int) ([][]float64, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, model.WrapError(model.ErrMalformedInput, "unsupported or corrupt image", err)
	}

	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	lum := make([][]float64, size)
	for y := 0; y < size; y++ {
		row := make([]float64, size)
		for x := 0; x < size; x++ {
			i := dst.PixOffset(x, y)
			r := float64(dst.Pix[i])
			g := float64(dst.Pix[i+1])
			b := float64(dst.Pix[i+2])
			// Fixed Rec. 601 weights; the alpha channel is ignored.
			row[x] = 0.299*r + 0.587*g + 0.114*b
		}
		lum[y] = row
	}
	return lum, nil
}
