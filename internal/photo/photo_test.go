package photo

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

func testJPEG(w, h int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{0, 128, 0, 255})
		}
	}
	var buf bytes.Buffer
	jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90})
	return buf.Bytes()
}

func testPNG(w, h int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{0, 0, 255, 255})
		}
	}
	var buf bytes.Buffer
	png.Encode(&buf, img)
	return buf.Bytes()
}

func TestNormalizeJPEG(t *testing.T) {
	result, err := Normalize(bytes.NewReader(testJPEG(100, 100)))
	if err != nil {
		t.Fatalf("Normalize JPEG: %v", err)
	}
	if result.MIME != "image/jpeg" {
		t.Errorf("expected image/jpeg, got %s", result.MIME)
	}
	if len(result.Data) == 0 {
		t.Error("expected non-empty data")
	}
	if result.Width != 100 || result.Height != 100 {
		t.Errorf("unexpected dimensions %dx%d", result.Width, result.Height)
	}
}

func TestNormalizePNG(t *testing.T) {
	result, err := Normalize(bytes.NewReader(testPNG(100, 100)))
	if err != nil {
		t.Fatalf("Normalize PNG: %v", err)
	}
	if result.MIME != "image/jpeg" {
		t.Errorf("expected image/jpeg (always outputs JPEG), got %s", result.MIME)
	}
}

func TestNormalizeDownscale(t *testing.T) {
	result, err := Normalize(bytes.NewReader(testJPEG(2000, 1000)))
	if err != nil {
		t.Fatalf("Normalize large image: %v", err)
	}

	if result.Width > MaxDimension || result.Height > MaxDimension {
		t.Errorf("expected max %d, got %dx%d", MaxDimension, result.Width, result.Height)
	}
	// Aspect ratio preserved.
	if result.Width != MaxDimension || result.Height != MaxDimension/2 {
		t.Errorf("expected %dx%d, got %dx%d", MaxDimension, MaxDimension/2, result.Width, result.Height)
	}

	img, _, err := image.Decode(bytes.NewReader(result.Data))
	if err != nil {
		t.Fatalf("decoding result: %v", err)
	}
	if img.Bounds().Dx() != result.Width {
		t.Errorf("encoded width %d does not match reported %d", img.Bounds().Dx(), result.Width)
	}
}

func TestNormalizeSmallImageNotUpscaled(t *testing.T) {
	result, err := Normalize(bytes.NewReader(testJPEG(50, 50)))
	if err != nil {
		t.Fatalf("Normalize small image: %v", err)
	}
	if result.Width != 50 || result.Height != 50 {
		t.Errorf("small image should not be resized: got %dx%d", result.Width, result.Height)
	}
}

func TestNormalizeInvalidFormat(t *testing.T) {
	_, err := Normalize(bytes.NewReader([]byte("not an image")))
	if err == nil {
		t.Error("expected error for invalid format")
	}
}

func TestNormalizeGIFRejected(t *testing.T) {
	// GIF magic bytes.
	_, err := Normalize(bytes.NewReader([]byte("GIF89a...")))
	if err == nil {
		t.Error("expected error for GIF")
	}
}
