// Package guide assembles the wiring guide document
// Combines the Mermaid diagram, connection list, BOM table and
// troubleshooting notes into one markdown artifact
package guide

import (
	"fmt"
	"strings"
	"time"

	"matrixforge/hardware/bom"
	"matrixforge/hardware/power"
	"matrixforge/hardware/wiring"
)

// Build renders the complete markdown guide. Deterministic for fixed inputs;
// the timestamp is supplied by the caller so generated documentation diffs
// cleanly.
func Build(topo *wiring.Topology, budget power.Budget, estimate *bom.Estimate, generatedAt time.Time) string {
	var sb strings.Builder

	shifter := "No"
	if topo.NeedsLevelShifter {
		shifter = "Yes"
	}

	fmt.Fprintf(&sb, `# LED Matrix Wiring Guide
# %d×%d Matrix with %s

Generated on: %s

## Configuration Summary

| Setting | Value |
|---------|-------|
| Controller | %s |
| Matrix Size | %d×%d (%d LEDs) |
| Data Pin | %d |
| Power Supply | %s (%gA / %gW) |
| Max Current | %.2fA |
| Level Shifter Required | %s |
`,
		topo.Matrix.Width, topo.Matrix.Height, topo.Board.Name,
		generatedAt.Format("2006-01-02 15:04:05"),
		topo.Board.Name,
		topo.Matrix.Width, topo.Matrix.Height, budget.TotalLeds,
		topo.DataPin,
		topo.Psu.Name, topo.Psu.CurrentAmps, topo.Psu.PowerWatts,
		budget.MaxCurrentAmps,
		shifter)

	for _, w := range budget.Warnings {
		fmt.Fprintf(&sb, "\n> ⚠️ %s\n", w)
	}

	sb.WriteString("\n## Wiring Diagram\n\n```mermaid\n")
	sb.WriteString(wiring.Render(topo))
	sb.WriteString("```\n")

	sb.WriteString(connectionList(topo))

	if estimate != nil {
		sb.WriteString(bomTable(estimate))
	}

	sb.WriteString(troubleshooting(topo))

	sb.WriteString(`
## Additional Resources
- FastLED Library: https://github.com/FastLED/FastLED
- WS2812B Datasheet: available from the LED strip manufacturer
- Power budgeting: assume 60mA per LED worst case
`)

	return sb.String()
}

func connectionList(topo *wiring.Topology) string {
	var sb strings.Builder
	sb.WriteString("\n## Connection List\n\n### Power (heavy wire, 18 AWG or thicker)\n")
	for _, e := range topo.EdgesOfType(wiring.EdgePower) {
		from, _ := topo.Node(e.From)
		to, _ := topo.Node(e.To)
		fmt.Fprintf(&sb, "- %s → %s (%s)\n", plainLabel(from), plainLabel(to), e.Label)
	}

	sb.WriteString("\n### Data\n")
	for _, e := range topo.EdgesOfType(wiring.EdgeData) {
		from, _ := topo.Node(e.From)
		to, _ := topo.Node(e.To)
		fmt.Fprintf(&sb, "- %s → %s (%s)\n", plainLabel(from), plainLabel(to), e.Label)
	}

	sb.WriteString("\n### Ground\n")
	for _, e := range topo.EdgesOfType(wiring.EdgeGround) {
		from, _ := topo.Node(e.From)
		fmt.Fprintf(&sb, "- %s → common ground\n", plainLabel(from))
	}

	sb.WriteString(`
### Protection Components
- 1000µF capacitor across the LED strip power rails, as close to the strip as possible
- 470Ω resistor in series with the data line
`)
	return sb.String()
}

func bomTable(est *bom.Estimate) string {
	var sb strings.Builder
	sb.WriteString("\n## Bill of Materials\n\n| Component | Qty | Unit | Total |\n|-----------|----:|------:|------:|\n")
	for _, item := range est.Items {
		fmt.Fprintf(&sb, "| %s | %d | $%s | $%s |\n",
			item.Name, item.Quantity, item.UnitCost.StringFixed(2), item.TotalCost.StringFixed(2))
	}
	fmt.Fprintf(&sb, "\n**Estimated cost: $%s – $%s** (point estimate $%s ± %d%%)\n",
		est.CostLow.StringFixed(2), est.CostHigh.StringFixed(2),
		est.CostCenter.StringFixed(2), int(bom.CostBandPct*100))
	for _, w := range est.Warnings {
		fmt.Fprintf(&sb, "\n> ⚠️ %s\n", w)
	}
	return sb.String()
}

func troubleshooting(topo *wiring.Topology) string {
	var sb strings.Builder
	sb.WriteString(`
## Troubleshooting

### LEDs not lighting up
- Check power supply connections (5V+ and GND)
- Verify the data pin connects to DIN through the 470Ω resistor
- Test with a sketch that lights only the first 10 LEDs

### Flickering or unstable colors
- Check the 1000µF capacitor across the power rails near the strip
- Confirm PSU capacity carries the 20% margin over worst-case draw
- Reduce brightness if the supply is marginal
`)
	if topo.NeedsLevelShifter {
		fmt.Fprintf(&sb, `
### %s specific
- Verify the 74HCT245 is powered from 5V, not 3.3V
- Pin %d must reach the shifter input; shifter output goes through the 470Ω resistor to DIN
`, topo.Board.Name, topo.DataPin)
	} else {
		fmt.Fprintf(&sb, `
### %s specific
- Power the LEDs from the external 5V supply, never the USB rail
- Confirm pin %d matches DATA_PIN in the sketch
`, topo.Board.Name, topo.DataPin)
	}
	sb.WriteString(`
### Safety
- Disconnect power before rewiring
- Start testing at low brightness with a small LED count
`)
	return sb.String()
}

// plainLabel strips diagram markup from a node label for list output
func plainLabel(n wiring.Node) string {
	return strings.ReplaceAll(n.Label, "<br/>", ", ")
}
