package loaders

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/bmp"
)

func newTestImage(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 40), G: uint8(y * 40), B: 200, A: 255})
		}
	}
	return img
}

func TestLoadImage_PNG(t *testing.T) {
	testFile := filepath.Join(t.TempDir(), "test.png")
	f, err := os.Create(testFile)
	if err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}
	if err := png.Encode(f, newTestImage(2, 2)); err != nil {
		f.Close()
		t.Fatalf("Failed to encode PNG: %v", err)
	}
	f.Close()

	img, err := LoadImage(testFile)
	if err != nil {
		t.Fatalf("LoadImage failed: %v", err)
	}
	if img.Bounds().Dx() != 2 || img.Bounds().Dy() != 2 {
		t.Errorf("Expected 2x2 image, got %v", img.Bounds())
	}
}

func TestDecodeImage_BMP(t *testing.T) {
	var buf bytes.Buffer
	if err := bmp.Encode(&buf, newTestImage(3, 2)); err != nil {
		t.Fatalf("Failed to encode BMP: %v", err)
	}

	img, err := DecodeImage(&buf)
	if err != nil {
		t.Fatalf("DecodeImage failed: %v", err)
	}
	rgba := ToRGBA(img, 0)
	if got := rgba.RGBAAt(1, 1); got != (color.RGBA{40, 40, 200, 255}) {
		t.Errorf("Unexpected pixel %v", got)
	}
}

func TestDecodeImage_Garbage(t *testing.T) {
	if _, err := DecodeImage(bytes.NewReader([]byte("not an image"))); err == nil {
		t.Error("Expected a decode error")
	}
	if _, err := LoadImage(filepath.Join(t.TempDir(), "missing.png")); err == nil {
		t.Error("Expected an error for a missing file")
	}
}

func TestToRGBA_Downscales(t *testing.T) {
	img := newTestImage(6, 3)

	scaled := ToRGBA(img, 4)
	if scaled.Bounds().Dx() != 4 || scaled.Bounds().Dy() != 2 {
		t.Errorf("Expected 4x2 after scaling, got %v", scaled.Bounds())
	}

	// Within limits the same pixels come back
	same := ToRGBA(img, 8)
	if same.Bounds() != img.Bounds() {
		t.Errorf("Expected unscaled bounds %v, got %v", img.Bounds(), same.Bounds())
	}
}

func TestToRGBA_NormalizesOrigin(t *testing.T) {
	sub := newTestImage(4, 4).SubImage(image.Rect(1, 1, 3, 3))
	rgba := ToRGBA(sub, 0)

	if rgba.Bounds().Min != (image.Point{}) {
		t.Errorf("Expected origin at zero, got %v", rgba.Bounds())
	}
	if got := rgba.RGBAAt(0, 0); got != (color.RGBA{40, 40, 200, 255}) {
		t.Errorf("Expected pixel (1,1) of the source, got %v", got)
	}
}
