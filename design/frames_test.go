package design

import (
	"testing"
)

func TestParseHex(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    RGB
		wantErr bool
	}{
		{"with hash", "#ff8000", RGB{255, 128, 0}, false},
		{"without hash", "00ff00", RGB{0, 255, 0}, false},
		{"whitespace", "  #0000ff ", RGB{0, 0, 255}, false},
		{"black", "#000000", RGB{}, false},
		{"white", "#ffffff", RGB{255, 255, 255}, false},
		{"too short", "#fff", RGB{}, true},
		{"too long", "#ff80001", RGB{}, true},
		{"not hex", "#zzzzzz", RGB{}, true},
		{"empty", "", RGB{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseHex(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseHex(%q) = %v, want error", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseHex(%q) err = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseHex(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestHexRoundTrip(t *testing.T) {
	for _, c := range []RGB{{255, 128, 0}, {}, {1, 2, 3}, {255, 255, 255}} {
		got, err := ParseHex(c.Hex())
		if err != nil {
			t.Fatalf("ParseHex(%q) err = %v", c.Hex(), err)
		}
		if got != c {
			t.Errorf("round trip %v -> %q -> %v", c, c.Hex(), got)
		}
	}
}

func TestNewFrameNonPositiveDimensions(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
	}{
		{"negative width", -1, 8},
		{"negative height", 8, -4},
		{"both negative", -2, -2},
		{"zero", 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewFrame("empty", tt.width, tt.height)
			if len(f.Pix) != 0 {
				t.Errorf("Pix length = %d, want 0", len(f.Pix))
			}
			if f.At(0, 0) != (RGB{}) {
				t.Error("At on an empty frame not black")
			}
			f.Set(0, 0, RGB{R: 255}) // must not panic
		})
	}
}

func TestFrameBounds(t *testing.T) {
	f := NewFrame("test", 4, 3)
	red := RGB{R: 255}

	f.Set(3, 2, red)
	if got := f.At(3, 2); got != red {
		t.Errorf("At(3,2) = %v, want %v", got, red)
	}

	// Out-of-bounds writes are dropped, reads come back black.
	f.Set(4, 0, red)
	f.Set(0, 3, red)
	f.Set(-1, 0, red)
	if got := f.At(4, 0); got != (RGB{}) {
		t.Errorf("At(4,0) = %v, want black", got)
	}
	if got := f.At(-1, -1); got != (RGB{}) {
		t.Errorf("At(-1,-1) = %v, want black", got)
	}
	for i, p := range f.Pix {
		if p == red && i != 2*4+3 {
			t.Errorf("out-of-bounds write landed at index %d", i)
		}
	}
}

func TestFillAndClone(t *testing.T) {
	f := NewFrame("base", 4, 4)
	f.Fill(RGB{G: 200})

	c := f.Clone("copy")
	if c.Name != "copy" || c.Width != 4 || c.Height != 4 {
		t.Fatalf("Clone() = %+v", c)
	}
	c.Set(0, 0, RGB{R: 1})
	if f.At(0, 0) != (RGB{G: 200}) {
		t.Error("mutating the clone changed the original")
	}
}

func TestGradientEndpoints(t *testing.T) {
	from, to := RGB{R: 255}, RGB{B: 255}

	f := NewFrame("h", 8, 4)
	f.Gradient(from, to, true)
	if f.At(0, 0) != from {
		t.Errorf("left edge = %v, want %v", f.At(0, 0), from)
	}
	if f.At(7, 3) != to {
		t.Errorf("right edge = %v, want %v", f.At(7, 3), to)
	}
	// Horizontal gradients are constant along y.
	if f.At(3, 0) != f.At(3, 3) {
		t.Error("horizontal gradient varies along y")
	}

	v := NewFrame("v", 4, 8)
	v.Gradient(from, to, false)
	if v.At(0, 0) != from || v.At(3, 7) != to {
		t.Error("vertical gradient endpoints wrong")
	}
}

func TestCheckerboard(t *testing.T) {
	white, black := RGB{255, 255, 255}, RGB{}
	f := NewFrame("cb", 8, 8)
	f.Checkerboard(white, black, 2)

	tests := []struct {
		x, y int
		want RGB
	}{
		{0, 0, white},
		{1, 1, white},
		{2, 0, black},
		{0, 2, black},
		{2, 2, white},
		{3, 3, white},
	}
	for _, tt := range tests {
		if got := f.At(tt.x, tt.y); got != tt.want {
			t.Errorf("At(%d,%d) = %v, want %v", tt.x, tt.y, got, tt.want)
		}
	}
}

func TestBorder(t *testing.T) {
	green := RGB{G: 255}
	f := NewFrame("b", 8, 8)
	f.Border(green, 1)

	if f.At(0, 0) != green || f.At(7, 0) != green || f.At(0, 7) != green || f.At(7, 7) != green {
		t.Error("corners not painted")
	}
	if f.At(3, 0) != green || f.At(0, 3) != green {
		t.Error("edges not painted")
	}
	if f.At(1, 1) != (RGB{}) || f.At(4, 4) != (RGB{}) {
		t.Error("interior painted")
	}
}

func TestRainbowCoversFrame(t *testing.T) {
	f := NewFrame("r", 16, 16)
	f.Rainbow()

	// Full saturation and value means no pixel stays black.
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			if f.At(x, y) == (RGB{}) {
				t.Fatalf("pixel (%d,%d) left black", x, y)
			}
		}
	}
	// The diagonal sweep keeps equal x+y on equal hue.
	if f.At(2, 5) != f.At(5, 2) {
		t.Error("diagonal pixels differ")
	}
}
