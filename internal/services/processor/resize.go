package processor

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

const (
	DefaultThumbnailWidth = 256
	MinThumbnailWidth     = 16
	MaxThumbnailWidth     = 1024

	thumbnailQuality = 80
)

// Thumbnail scales the image to width, keeping its aspect ratio, and returns
// it JPEG-encoded.
func (p *ImageProcessor) Thumbnail(data []byte, width int) ([]byte, error) {
	if _, err := p.Inspect(data); err != nil {
		return nil, err
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	width = ClampThumbnailWidth(width)
	if img.Bounds().Dx() > width {
		img = imaging.Resize(img, width, 0, imaging.Lanczos)
	}

	buffer := &bytes.Buffer{}
	if err := p.encodeJPEG(buffer, img, thumbnailQuality); err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	return buffer.Bytes(), nil
}

func ClampThumbnailWidth(width int) int {
	switch {
	case width <= 0:
		return DefaultThumbnailWidth
	case width < MinThumbnailWidth:
		return MinThumbnailWidth
	case width > MaxThumbnailWidth:
		return MaxThumbnailWidth
	}
	return width
}
