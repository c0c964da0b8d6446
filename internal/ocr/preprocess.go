package ocr

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"

	"golang.org/x/image/draw"
)

// Preprocess prepares a photo for recognition: it converts to grayscale,
// stretches the intensity range to full contrast and upscales images
// narrower than minWidth. The result is PNG encoded.
func Preprocess(data []byte, minWidth int) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	b := src.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(gray, gray.Bounds(), src, b.Min, draw.Src)
	stretchContrast(gray)

	var out image.Image = gray
	if minWidth > 0 && b.Dx() > 0 && b.Dx() < minWidth {
		height := b.Dy() * minWidth / b.Dx()
		scaled := image.NewGray(image.Rect(0, 0, minWidth, height))
		draw.CatmullRom.Scale(scaled, scaled.Bounds(), gray, gray.Bounds(), draw.Src, nil)
		out = scaled
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	return buf.Bytes(), nil
}

func stretchContrast(img *image.Gray) {
	lo, hi := uint8(255), uint8(0)
	for _, p := range img.Pix {
		lo = min(lo, p)
		hi = max(hi, p)
	}
	if hi <= lo {
		return
	}
	span := int(hi - lo)
	for i, p := range img.Pix {
		img.Pix[i] = uint8(int(p-lo) * 255 / span)
	}
}

