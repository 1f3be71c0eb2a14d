// Package firmware provides the firmware source generator
// Emits board-specific, ready-to-flash Arduino source with pixel-addressing
// math and a memory budget check
package firmware

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"matrixforge/design"
	"matrixforge/hardware/board"
	"matrixforge/hardware/matrix"
)

// Memory budget thresholds, in percent of board SRAM consumed by the LED
// buffer. Between the warn and hard limits generation proceeds with a
// warning; above the hard limit it is refused.
const (
	BytesPerLed            = 3
	MemoryWarnPercent      = 90.0
	MemoryHardLimitPercent = 150.0
	FlashWarnPercent       = 80.0
)

// Request describes one firmware generation
type Request struct {
	Board      board.Profile
	Matrix     matrix.Spec
	DataPin    int // 0 uses the board default
	Brightness uint8
	Frames     []*design.Frame
}

// Artifact is the generated firmware plus its budget report
type Artifact struct {
	ID                 uuid.UUID `json:"id"`
	FileName           string    `json:"file_name"`
	Source             string    `json:"source"`
	MemoryUsagePercent float64   `json:"memory_usage_percent"`
	FlashUsagePercent  float64   `json:"flash_usage_percent"`
	Warnings           []string  `json:"warnings"`
	GeneratedAt        time.Time `json:"generated_at"`
}

// MemoryBudgetError refuses firmware that cannot plausibly run
type MemoryBudgetError struct {
	Board          board.Profile
	NeededBytes    int
	AvailableBytes int
	Percent        float64
}

func (e MemoryBudgetError) Error() string {
	return fmt.Sprintf(
		"LED buffer needs %d bytes but %s has %d bytes SRAM (%.1f%%); use a smaller matrix or a board with more memory",
		e.NeededBytes, e.Board.Name, e.AvailableBytes, e.Percent)
}

// Generator emits firmware source
type Generator struct {
	maxDim int
}

// NewGenerator creates a generator with the default geometry ceiling
func NewGenerator() *Generator {
	return &Generator{maxDim: matrix.DefaultMaxDimension}
}

// WithMaxDimension overrides the per-side geometry ceiling
func (g *Generator) WithMaxDimension(n int) *Generator {
	g.maxDim = n
	return g
}

// MemoryUsagePercent is the LED buffer share of board SRAM
func MemoryUsagePercent(totalLeds, sramBytes int) float64 {
	return float64(totalLeds*BytesPerLed) / float64(sramBytes) * 100
}

// Generate validates the request, checks the memory budget and emits the
// complete sketch. Identical requests yield byte-identical source.
func (g *Generator) Generate(req Request) (*Artifact, error) {
	if err := req.Matrix.Validate(g.maxDim); err != nil {
		return nil, err
	}
	for i, f := range req.Frames {
		if f == nil {
			return nil, matrix.ValidationError{Field: "frames", Reason: fmt.Sprintf("frame %d is nil", i)}
		}
		if f.Width != req.Matrix.Width || f.Height != req.Matrix.Height {
			return nil, matrix.ValidationError{
				Field:  "frames",
				Reason: fmt.Sprintf("frame %d is %d×%d, matrix is %d×%d", i, f.Width, f.Height, req.Matrix.Width, req.Matrix.Height),
			}
		}
	}

	leds := req.Matrix.TotalLeds()
	needed := leds * BytesPerLed
	memPercent := MemoryUsagePercent(leds, req.Board.SRAMBytes)
	if memPercent > MemoryHardLimitPercent {
		return nil, MemoryBudgetError{
			Board:          req.Board,
			NeededBytes:    needed,
			AvailableBytes: req.Board.SRAMBytes,
			Percent:        memPercent,
		}
	}

	pin := req.DataPin
	if pin == 0 {
		pin = req.Board.DefaultDataPin
	}

	art := &Artifact{
		ID:                 uuid.New(),
		FileName:           fmt.Sprintf("led_matrix_%s_%dx%d.ino", req.Board.ID, req.Matrix.Width, req.Matrix.Height),
		MemoryUsagePercent: memPercent,
		Warnings:           make([]string, 0),
		GeneratedAt:        time.Now().UTC(),
	}

	if memPercent >= MemoryWarnPercent {
		art.Warnings = append(art.Warnings, fmt.Sprintf(
			"approaching SRAM limit: LED buffer uses %.1f%% of %s memory", memPercent, req.Board.Name))
	}
	if leds > req.Board.MaxRecommendedLeds {
		art.Warnings = append(art.Warnings, fmt.Sprintf(
			"%d LEDs exceeds the recommended ceiling of %d for %s", leds, req.Board.MaxRecommendedLeds, req.Board.Name))
	}

	// Frame tables live in flash (PROGMEM), budgeted separately from SRAM.
	if len(req.Frames) > 0 && req.Board.FlashBytes > 0 {
		frameBytes := len(req.Frames) * leds * BytesPerLed
		art.FlashUsagePercent = float64(frameBytes) / float64(req.Board.FlashBytes) * 100
		if art.FlashUsagePercent > FlashWarnPercent {
			art.Warnings = append(art.Warnings, fmt.Sprintf(
				"frame data uses %.1f%% of %s flash", art.FlashUsagePercent, req.Board.Name))
		}
	}

	art.Source = g.buildSource(req, pin, memPercent)
	return art, nil
}

func (g *Generator) buildSource(req Request, pin int, memPercent float64) string {
	tpl := templateFor(req.Board)
	leds := req.Matrix.TotalLeds()

	var sb strings.Builder

	shifter := "not required"
	if req.Board.NeedsLevelShifter() {
		shifter = "required (3.3V logic)"
	}
	fmt.Fprintf(&sb, `/*
 * LED Matrix Controller for %s
 *
 * Matrix: %d×%d = %d LEDs (%s wiring)
 * Data Pin: %d
 * Brightness: %d/255
 * Level Shifter: %s
 *
 * Memory: LED buffer %d bytes of %d bytes SRAM (%.1f%%)
 */

`, req.Board.Name, req.Matrix.Width, req.Matrix.Height, leds, req.Matrix.EffectiveLayout(),
		pin, req.Brightness, shifter, leds*BytesPerLed, req.Board.SRAMBytes, memPercent)

	for _, inc := range tpl.includes {
		fmt.Fprintf(&sb, "#include %s\n", inc)
	}

	fmt.Fprintf(&sb, `
// Matrix Configuration - update these values for your setup
#define MATRIX_WIDTH %d
#define MATRIX_HEIGHT %d
#define NUM_LEDS (MATRIX_WIDTH * MATRIX_HEIGHT)  // %d LEDs
#define DATA_PIN %d
#define BRIGHTNESS %d

CRGB leds[NUM_LEDS];
`, req.Matrix.Width, req.Matrix.Height, leds, pin, req.Brightness)

	if tpl.extraDecls != "" {
		sb.WriteString("\n" + tpl.extraDecls + "\n")
	}

	sb.WriteString("\n" + addressingFunction(req.Matrix.EffectiveLayout()) + "\n")

	sb.WriteString(`
// Bounds-checked pixel write
void setPixel(uint8_t x, uint8_t y, CRGB color) {
  if (x < MATRIX_WIDTH && y < MATRIX_HEIGHT) {
    leds[XY(x, y)] = color;
  }
}

// Paint the whole matrix one color
void fillSolid(CRGB color) {
  for (uint16_t i = 0; i < NUM_LEDS; i++) {
    leds[i] = color;
  }
  FastLED.show();
}
`)

	if tpl.helpers != "" {
		sb.WriteString("\n" + tpl.helpers + "\n")
	}

	if len(req.Frames) > 0 {
		sb.WriteString("\n" + frameSection(req.Frames))
	}

	fmt.Fprintf(&sb, "\nvoid setup() {\n%s\n}\n", tpl.setupBody)
	fmt.Fprintf(&sb, "\nvoid loop() {\n%s\n}\n", tpl.loopBody)

	return sb.String()
}

// addressingFunction emits the XY() pixel index mapping for the wiring layout
func addressingFunction(layout matrix.Layout) string {
	if layout == matrix.Progressive {
		return `// XY coordinate mapping (progressive wiring)
uint16_t XY(uint8_t x, uint8_t y) {
  return y * MATRIX_WIDTH + x;
}`
	}
	return `// XY coordinate mapping (serpentine wiring)
uint16_t XY(uint8_t x, uint8_t y) {
  return (y & 1) ? (y * MATRIX_WIDTH + (MATRIX_WIDTH - 1 - x)) : (y * MATRIX_WIDTH + x);
}`
}
