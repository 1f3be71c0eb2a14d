package design

import "math"

// Rainbow paints a diagonal hue sweep across the frame
func (f *Frame) Rainbow() {
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			hue := float64(x+y) * 360 / float64(f.Width+f.Height)
			f.Set(x, y, hsvToRGB(hue, 1, 1))
		}
	}
}

// Gradient paints a linear blend between two colors. Horizontal gradients
// vary along x, vertical along y.
func (f *Frame) Gradient(from, to RGB, horizontal bool) {
	span := f.Height - 1
	if horizontal {
		span = f.Width - 1
	}
	if span < 1 {
		span = 1
	}
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			pos := y
			if horizontal {
				pos = x
			}
			t := float64(pos) / float64(span)
			f.Set(x, y, lerp(from, to, t))
		}
	}
}

// Checkerboard alternates two colors in size×size blocks
func (f *Frame) Checkerboard(c1, c2 RGB, size int) {
	if size < 1 {
		size = 1
	}
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			if ((x/size)+(y/size))%2 == 0 {
				f.Set(x, y, c1)
			} else {
				f.Set(x, y, c2)
			}
		}
	}
}

// Border draws a frame of the given thickness around the edge
func (f *Frame) Border(c RGB, thickness int) {
	if thickness < 1 {
		thickness = 1
	}
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			if x < thickness || y < thickness || x >= f.Width-thickness || y >= f.Height-thickness {
				f.Set(x, y, c)
			}
		}
	}
}

func lerp(from, to RGB, t float64) RGB {
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	mix := func(a, b uint8) uint8 {
		return uint8(math.Round(float64(a) + (float64(b)-float64(a))*t))
	}
	return RGB{R: mix(from.R, to.R), G: mix(from.G, to.G), B: mix(from.B, to.B)}
}

// hsvToRGB converts hue (degrees), saturation and value in [0,1]
func hsvToRGB(h, s, v float64) RGB {
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	c := v * s
	x := c * (1 - math.Abs(math.Mod(h/60, 2)-1))
	m := v - c

	var r, g, b float64
	switch {
	case h < 60:
		r, g, b = c, x, 0
	case h < 120:
		r, g, b = x, c, 0
	case h < 180:
		r, g, b = 0, c, x
	case h < 240:
		r, g, b = 0, x, c
	case h < 300:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}
	return RGB{
		R: uint8(math.Round((r + m) * 255)),
		G: uint8(math.Round((g + m) * 255)),
		B: uint8(math.Round((b + m) * 255)),
	}
}
