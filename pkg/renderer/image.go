package renderer

import (
	"image"
	"image/color"

	"github.com/chewxy/math32"
)

// ToneMap converts linear RGBA float pixels (4 per pixel, row-major) into an 8-bit image,
// applying 1/gamma and clamping to [0, 1]
func ToneMap(pixels []float32, width, height int, gamma float32) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	if gamma <= 0 {
		gamma = 1
	}
	invGamma := 1 / gamma

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			offset := (y*width + x) * 4
			if offset+3 >= len(pixels) {
				return img
			}
			img.SetRGBA(x, y, color.RGBA{
				R: toByte(pixels[offset], invGamma),
				G: toByte(pixels[offset+1], invGamma),
				B: toByte(pixels[offset+2], invGamma),
				A: 255,
			})
		}
	}
	return img
}

func toByte(v, invGamma float32) uint8 {
	if v <= 0 || math32.IsNaN(v) {
		return 0
	}
	v = math32.Min(math32.Pow(v, invGamma), 1)
	return uint8(255*v + 0.5)
}

// AverageLuminance returns the mean Rec. 709 luminance of an image in [0, 1]
func AverageLuminance(img *image.RGBA) float64 {
	bounds := img.Bounds()
	pixels := bounds.Dx() * bounds.Dy()
	if pixels == 0 {
		return 0
	}

	total := 0.0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := img.RGBAAt(x, y)
			total += 0.2126*float64(c.R)/255 + 0.7152*float64(c.G)/255 + 0.0722*float64(c.B)/255
		}
	}
	return total / float64(pixels)
}
