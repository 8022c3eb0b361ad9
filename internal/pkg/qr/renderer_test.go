package qr

import (
	"bytes"
	"image/png"
	"testing"
)

func TestRenderPNG(t *testing.T) {
	data, err := RenderPNG("a1b2c3d4e5f6a7b8c9d0e1f2a3b4c5d6a1b2c3d4e5f6a7b8c9d0e1f2a3b4c5d6", 256)
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}

	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("output is not valid PNG: %v", err)
	}

	bounds := img.Bounds()
	if bounds.Dx() != 256 || bounds.Dy() != 256 {
		t.Fatalf("expected 256x256 image, got %dx%d", bounds.Dx(), bounds.Dy())
	}
}

func TestRenderPNGDefaultSize(t *testing.T) {
	data, err := RenderPNG("token", 0)
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}

	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("output is not valid PNG: %v", err)
	}
	if img.Bounds().Dx() != 256 {
		t.Fatalf("expected default size 256, got %d", img.Bounds().Dx())
	}
}

func TestRenderPNGEmptyToken(t *testing.T) {
	if _, err := RenderPNG("", 256); err == nil {
		t.Fatal("expected error for empty token")
	}
}
