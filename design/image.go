package design

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"golang.org/x/image/draw"
)

// LoadImage reads a PNG or JPEG and resamples it to the given matrix
// dimensions.
func LoadImage(path, name string, width, height int) (*Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode image %s: %w", path, err)
	}
	return FromImage(img, name, width, height), nil
}

// FromImage resamples any image to matrix dimensions. CatmullRom keeps
// recognizable detail at the very low target resolutions of LED matrices.
func FromImage(img image.Image, name string, width, height int) *Frame {
	scaled := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(scaled, scaled.Bounds(), img, img.Bounds(), draw.Over, nil)

	frame := NewFrame(name, width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, b, _ := scaled.At(x, y).RGBA()
			frame.Set(x, y, RGB{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8)})
		}
	}
	return frame
}
