package qr

import (
	"bytes"
	"fmt"
	"image/png"

	"github.com/skip2/go-qrcode"
)

const defaultSize = 256

// RenderPNG encodes the given token into a QR code PNG.
func RenderPNG(token string, size int) ([]byte, error) {
	if size <= 0 {
		size = defaultSize
	}

	code, err := qrcode.New(token, qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("failed to build qr code: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, code.Image(size)); err != nil {
		return nil, fmt.Errorf("failed to encode qr png: %w", err)
	}
	return buf.Bytes(), nil
}
