// Package design models matrix frames used as firmware custom-frame input
// Frames are width×height RGB grids with procedural generators and image import
package design

import (
	"fmt"
	"strings"
)

// RGB is one pixel color
type RGB struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// ParseHex parses "#rrggbb" (leading '#' optional)
func ParseHex(s string) (RGB, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return RGB{}, fmt.Errorf("invalid hex color %q", s)
	}
	var c RGB
	if _, err := fmt.Sscanf(s, "%02x%02x%02x", &c.R, &c.G, &c.B); err != nil {
		return RGB{}, fmt.Errorf("invalid hex color %q: %w", s, err)
	}
	return c, nil
}

// Hex formats the color as "#rrggbb"
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Frame is a named width×height pixel grid, row-major
type Frame struct {
	Name   string `json:"name"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Pix    []RGB  `json:"pixels"`
}

// NewFrame allocates a black frame. Non-positive dimensions yield an empty
// frame rather than a bad allocation.
func NewFrame(name string, width, height int) *Frame {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Frame{
		Name:   name,
		Width:  width,
		Height: height,
		Pix:    make([]RGB, width*height),
	}
}

// At returns the pixel at (x, y); out-of-bounds reads return black
func (f *Frame) At(x, y int) RGB {
	if x < 0 || y < 0 || x >= f.Width || y >= f.Height {
		return RGB{}
	}
	return f.Pix[y*f.Width+x]
}

// Set writes the pixel at (x, y); out-of-bounds writes are ignored
func (f *Frame) Set(x, y int, c RGB) {
	if x < 0 || y < 0 || x >= f.Width || y >= f.Height {
		return
	}
	f.Pix[y*f.Width+x] = c
}

// Fill paints every pixel
func (f *Frame) Fill(c RGB) {
	for i := range f.Pix {
		f.Pix[i] = c
	}
}

// Clone returns a deep copy with the given name
func (f *Frame) Clone(name string) *Frame {
	out := NewFrame(name, f.Width, f.Height)
	copy(out.Pix, f.Pix)
	return out
}
