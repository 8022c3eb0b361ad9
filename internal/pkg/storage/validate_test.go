package storage

import (
	"bytes"
	"errors"
	"image"
	"image/png"
	"strings"
	"testing"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestValidateImageAcceptsPNG(t *testing.T) {
	data := pngBytes(t)

	out, mimeType, err := ValidateImage(bytes.NewReader(data), 1<<20)
	if err != nil {
		t.Fatalf("expected valid image, got %v", err)
	}
	if mimeType != "image/png" {
		t.Fatalf("expected image/png, got %s", mimeType)
	}
	if !bytes.Equal(out, data) {
		t.Fatal("expected buffered data to match input")
	}
}

func TestValidateImageRejectsEmpty(t *testing.T) {
	_, _, err := ValidateImage(strings.NewReader(""), 1<<20)
	if !errors.Is(err, ErrEmptyFile) {
		t.Fatalf("expected ErrEmptyFile, got %v", err)
	}
}

func TestValidateImageRejectsOversized(t *testing.T) {
	data := pngBytes(t)

	_, _, err := ValidateImage(bytes.NewReader(data), int64(len(data)-1))
	if !errors.Is(err, ErrFileTooLarge) {
		t.Fatalf("expected ErrFileTooLarge, got %v", err)
	}
}

func TestValidateImageRejectsNonImage(t *testing.T) {
	_, _, err := ValidateImage(strings.NewReader("%PDF-1.4 not an image"), 1<<20)
	if !errors.Is(err, ErrInvalidMimeType) {
		t.Fatalf("expected ErrInvalidMimeType, got %v", err)
	}
}
