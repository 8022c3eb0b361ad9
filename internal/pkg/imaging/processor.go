package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"

	"github.com/disintegration/imaging"
)

// Config for proof image processing
type Config struct {
	MaxWidth  int // Max width before downscaling (default 2000)
	MaxHeight int // Max height before downscaling (default 2000)
	Quality   int // JPEG quality 1-100 (default 85)
}

// DefaultConfig returns default processing config
func DefaultConfig() Config {
	return Config{
		MaxWidth:  2000,
		MaxHeight: 2000,
		Quality:   85,
	}
}

// Processor downsizes oversized proof images before storage.
type Processor struct {
	config Config
}

// NewProcessor creates image processor
func NewProcessor(config Config) *Processor {
	return &Processor{config: config}
}

// Normalize decodes the image and downscales it if it exceeds the configured
// bounds. Returns the (possibly re-encoded) bytes, content type, and final
// dimensions. Images already within bounds pass through untouched.
func (p *Processor) Normalize(data []byte, mimeType string) ([]byte, string, int, int, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", 0, 0, fmt.Errorf("failed to decode image: %w", err)
	}

	width := img.Bounds().Dx()
	height := img.Bounds().Dy()

	if width <= p.config.MaxWidth && height <= p.config.MaxHeight {
		return data, mimeType, width, height, nil
	}

	resized := imaging.Fit(img, p.config.MaxWidth, p.config.MaxHeight, imaging.Lanczos)
	width = resized.Bounds().Dx()
	height = resized.Bounds().Dy()

	var buf bytes.Buffer
	switch format {
	case "png":
		if err := png.Encode(&buf, resized); err != nil {
			return nil, "", 0, 0, fmt.Errorf("failed to encode png: %w", err)
		}
		return buf.Bytes(), "image/png", width, height, nil
	default:
		if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: p.config.Quality}); err != nil {
			return nil, "", 0, 0, fmt.Errorf("failed to encode jpeg: %w", err)
		}
		return buf.Bytes(), "image/jpeg", width, height, nil
	}
}
