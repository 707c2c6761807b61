package renderer

import (
	"image"
	"image/color"
	"testing"
	"time"
)

func TestToneMap(t *testing.T) {
	pixels := []float32{
		1, 0.25, 0, 1, // gamma 2: 1, 0.5, 0
		4, -1, 0.0625, 1, // clamped high and low, 0.0625 -> 0.25
	}
	img := ToneMap(pixels, 2, 1, 2)

	if got := img.RGBAAt(0, 0); got != (color.RGBA{255, 128, 0, 255}) {
		t.Errorf("Pixel 0: got %v", got)
	}
	if got := img.RGBAAt(1, 0); got != (color.RGBA{255, 0, 64, 255}) {
		t.Errorf("Pixel 1: got %v", got)
	}
}

func TestToneMap_ShortBufferLeavesRestBlack(t *testing.T) {
	img := ToneMap([]float32{1, 1, 1, 1}, 2, 2, 1)
	if got := img.RGBAAt(1, 1); got.A != 0 {
		t.Errorf("Expected untouched pixel, got %v", got)
	}
}

func TestAverageLuminance(t *testing.T) {
	// Red 0.2126 + green 0.7152 + blue 0.0722 + black 0 = 1.0 over 4 pixels
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{255, 0, 0, 255})
	img.Set(1, 0, color.RGBA{0, 255, 0, 255})
	img.Set(0, 1, color.RGBA{0, 0, 255, 255})
	img.Set(1, 1, color.RGBA{0, 0, 0, 255})

	avgLum := AverageLuminance(img)
	expected := 0.25
	tolerance := 0.0001

	if avgLum < expected-tolerance || avgLum > expected+tolerance {
		t.Errorf("Expected average luminosity %f, got %f", expected, avgLum)
	}
}

func TestFrameStats(t *testing.T) {
	var stats FrameStats
	stats.Record(3 * time.Millisecond)
	stats.Record(1 * time.Millisecond)
	stats.Record(2 * time.Millisecond)

	if stats.Frames != 3 || stats.Fastest != time.Millisecond || stats.Slowest != 3*time.Millisecond {
		t.Errorf("Unexpected stats %+v", stats)
	}
	if stats.Average() != 2*time.Millisecond {
		t.Errorf("Expected 2ms average, got %v", stats.Average())
	}
	if stats.Last != 2*time.Millisecond {
		t.Errorf("Expected last 2ms, got %v", stats.Last)
	}
}
