package processor

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

// ImageInfo describes a decoded generation result.
type ImageInfo struct {
	Format string
	Width  int
	Height int
}

type ImageProcessor struct {
	maxPixels int
}

func NewImageProcessor() *ImageProcessor {
	return &ImageProcessor{maxPixels: 8192 * 8192}
}

// Inspect reads the image header only.
func (p *ImageProcessor) Inspect(data []byte) (ImageInfo, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return ImageInfo{}, fmt.Errorf("failed to decode image config: %w", err)
	}
	if cfg.Width*cfg.Height > p.maxPixels {
		return ImageInfo{}, fmt.Errorf("image %dx%d exceeds the pixel limit", cfg.Width, cfg.Height)
	}

	return ImageInfo{Format: format, Width: cfg.Width, Height: cfg.Height}, nil
}
