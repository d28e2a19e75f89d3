package processor

import (
	"image"
	"image/jpeg"
	"io"
)

func (p *ImageProcessor) encodeJPEG(w io.Writer, img image.Image, quality int) error {
	return jpeg.Encode(w, img, &jpeg.Options{Quality: quality})
}
