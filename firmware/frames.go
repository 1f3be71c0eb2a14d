package firmware

import (
	"fmt"
	"strings"

	"matrixforge/design"
)

// frameSection emits one PROGMEM data table and one show subroutine per
// frame, plus the dispatch table. Pixel colors are compiled in as literals,
// not loaded at runtime.
func frameSection(frames []*design.Frame) string {
	var sb strings.Builder

	for i, f := range frames {
		sb.WriteString(frameData(i, f))
		sb.WriteString(frameRoutine(i))
	}

	// Dispatch table
	names := make([]string, len(frames))
	for i := range frames {
		names[i] = fmt.Sprintf("showFrame%d", i)
	}
	fmt.Fprintf(&sb, `// Frame dispatch table
void (*framePrograms[])() = { %s };
const uint8_t NUM_FRAMES = %d;

void showFrame(uint8_t index) {
  if (index < NUM_FRAMES) {
    framePrograms[index]();
  }
}
`, strings.Join(names, ", "), len(frames))

	return sb.String()
}

func frameData(index int, f *design.Frame) string {
	var sb strings.Builder
	name := f.Name
	if name == "" {
		name = fmt.Sprintf("frame %d", index)
	}
	fmt.Fprintf(&sb, "// Frame %d: %s\n", index, name)
	fmt.Fprintf(&sb, "const uint8_t frame%dData[MATRIX_HEIGHT][MATRIX_WIDTH][3] PROGMEM = {\n", index)
	for y := 0; y < f.Height; y++ {
		sb.WriteString("  {")
		for x := 0; x < f.Width; x++ {
			c := f.At(x, y)
			fmt.Fprintf(&sb, "{%3d,%3d,%3d}", c.R, c.G, c.B)
			if x < f.Width-1 {
				sb.WriteString(",")
			}
		}
		sb.WriteString("}")
		if y < f.Height-1 {
			sb.WriteString(",")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("};\n\n")
	return sb.String()
}

func frameRoutine(index int) string {
	return fmt.Sprintf(`void showFrame%d() {
  for (uint8_t y = 0; y < MATRIX_HEIGHT; y++) {
    for (uint8_t x = 0; x < MATRIX_WIDTH; x++) {
      leds[XY(x, y)] = CRGB(
        pgm_read_byte(&frame%dData[y][x][0]),
        pgm_read_byte(&frame%dData[y][x][1]),
        pgm_read_byte(&frame%dData[y][x][2]));
    }
  }
  FastLED.show();
}

`, index, index, index, index)
}
