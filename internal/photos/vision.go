package photos

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	// Register decoders for accepted upload formats.
	_ "image/png"

	_ "golang.org/x/image/webp"

	"golang.org/x/image/draw"
)

// visionScaledown divides both image dimensions before a model call. Full
// resolution adds token cost without improving caption quality.
const visionScaledown = 6

// visionQuality is the JPEG quality for re-encoded model inputs.
const visionQuality = 85

// downscaleForVision shrinks an image by visionScaledown and re-encodes it
// as JPEG, producing the compact payload sent to the vision model.
func downscaleForVision(data []byte) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}

	bounds := src.Bounds()
	newW := bounds.Dx() / visionScaledown
	newH := bounds.Dy() / visionScaledown
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: visionQuality}); err != nil {
		return nil, fmt.Errorf("encoding vision image: %w", err)
	}
	return buf.Bytes(), nil
}
