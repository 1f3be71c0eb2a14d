// Package power provides the power budget calculator
// Pure functions of matrix geometry: current draw, PSU tier selection, refresh limits
package power

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"matrixforge/hardware/matrix"
)

// Worst-case WS2812B electrical model. Each LED draws up to 60 mA at full
// white (20 mA per channel) on a 5V rail. A single global profile is used for
// every chipset; see DESIGN.md for the per-chipset open question.
const (
	MaxCurrentPerLedAmps = 0.06
	SupplyVoltage        = 5.0
	// PsuSafetyMargin is the headroom a recommended supply must carry over
	// the worst-case draw.
	PsuSafetyMargin = 1.2
)

// PsuTier is one capacity bucket in the power supply catalog
type PsuTier struct {
	Name        string          `json:"name"`
	Voltage     float64         `json:"voltage"`
	CurrentAmps float64         `json:"current_amps"`
	PowerWatts  float64         `json:"power_watts"`
	CostUsd     decimal.Decimal `json:"cost_usd"`
}

// DefaultTiers returns the built-in PSU catalog in ascending current order
func DefaultTiers() []PsuTier {
	return []PsuTier{
		{Name: "5V2A", Voltage: 5, CurrentAmps: 2, PowerWatts: 10, CostUsd: decimal.NewFromInt(15)},
		{Name: "5V5A", Voltage: 5, CurrentAmps: 5, PowerWatts: 25, CostUsd: decimal.NewFromInt(25)},
		{Name: "5V10A", Voltage: 5, CurrentAmps: 10, PowerWatts: 50, CostUsd: decimal.NewFromInt(35)},
		{Name: "5V20A", Voltage: 5, CurrentAmps: 20, PowerWatts: 100, CostUsd: decimal.NewFromInt(55)},
		{Name: "5V30A", Voltage: 5, CurrentAmps: 30, PowerWatts: 150, CostUsd: decimal.NewFromInt(75)},
		{Name: "5V40A", Voltage: 5, CurrentAmps: 40, PowerWatts: 200, CostUsd: decimal.NewFromInt(95)},
	}
}

// Budget is the computed power requirement for a matrix
type Budget struct {
	TotalLeds            int      `json:"total_leds"`
	MaxCurrentAmps       float64  `json:"max_current_amps"`
	MaxPowerWatts        float64  `json:"max_power_watts"`
	OperatingCurrentAmps float64  `json:"operating_current_amps"`
	RequiredCurrentAmps  float64  `json:"required_current_amps"` // with safety margin
	RecommendedTier      PsuTier  `json:"recommended_tier"`
	Warnings             []string `json:"warnings"`
}

// Calculator selects PSU tiers from a catalog populated once at start
type Calculator struct {
	tiers []PsuTier
}

// NewCalculator creates a calculator over the given tier catalog.
// A nil or empty catalog falls back to the built-in tiers.
func NewCalculator(tiers []PsuTier) *Calculator {
	if len(tiers) == 0 {
		tiers = DefaultTiers()
	}
	// Tier selection relies on ascending current order.
	sorted := make([]PsuTier, len(tiers))
	copy(sorted, tiers)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j].CurrentAmps < sorted[j-1].CurrentAmps; j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}
	return &Calculator{tiers: sorted}
}

// Tiers returns the catalog in ascending current order
func (c *Calculator) Tiers() []PsuTier {
	out := make([]PsuTier, len(c.tiers))
	copy(out, c.tiers)
	return out
}

// Tier resolves a tier by name
func (c *Calculator) Tier(name string) (PsuTier, bool) {
	for _, t := range c.tiers {
		if t.Name == name {
			return t, true
		}
	}
	return PsuTier{}, false
}

// Compute derives the power budget for a matrix at a given brightness
// (0-255). Deterministic: identical inputs always yield identical output.
func (c *Calculator) Compute(spec matrix.Spec, brightness uint8) Budget {
	leds := spec.TotalLeds()
	maxCurrent := float64(leds) * MaxCurrentPerLedAmps

	b := Budget{
		TotalLeds:            leds,
		MaxCurrentAmps:       maxCurrent,
		MaxPowerWatts:        maxCurrent * SupplyVoltage,
		OperatingCurrentAmps: maxCurrent * float64(brightness) / 255.0,
		RequiredCurrentAmps:  maxCurrent * PsuSafetyMargin,
		Warnings:             make([]string, 0),
	}

	tier, ok := c.selectTier(b.RequiredCurrentAmps)
	if !ok {
		// No catalog tier meets the margin. Recommend the largest anyway:
		// an undersized PSU is a warning, not a refusal.
		tier = c.tiers[len(c.tiers)-1]
		b.Warnings = append(b.Warnings, fmt.Sprintf(
			"undersized PSU: largest catalog tier %s (%gA) is below the required %.2fA (includes %d%% safety margin)",
			tier.Name, tier.CurrentAmps, b.RequiredCurrentAmps, int((PsuSafetyMargin-1)*100)))
	}
	b.RecommendedTier = tier
	return b
}

// selectTier finds the smallest tier meeting the required current
func (c *Calculator) selectTier(requiredAmps float64) (PsuTier, bool) {
	for _, t := range c.tiers {
		if t.CurrentAmps >= requiredAmps {
			return t, true
		}
	}
	return PsuTier{}, false
}

// RefreshEstimate bounds the frame rate achievable over a serial link
type RefreshEstimate struct {
	MaxFPS            int  `json:"max_fps"`
	FrameTimeMillis   int  `json:"frame_time_ms"`
	BytesPerFrame     int  `json:"bytes_per_frame"`
	EffectiveBaudRate int  `json:"effective_baud_rate"`
	RealtimeCapable   bool `json:"realtime_capable"` // 30 FPS or better
}

// EstimateRefresh computes the theoretical refresh ceiling for a LED count
// streamed at the given baud rate, assuming 10% protocol overhead.
func EstimateRefresh(totalLeds, baudRate int) RefreshEstimate {
	bytesPerFrame := totalLeds * 3
	effectiveBaud := float64(baudRate) * 0.9
	bytesPerSecond := effectiveBaud / 8

	est := RefreshEstimate{
		BytesPerFrame:     bytesPerFrame,
		EffectiveBaudRate: int(effectiveBaud),
	}
	if bytesPerFrame <= 0 || bytesPerSecond <= 0 {
		return est
	}
	est.MaxFPS = int(math.Floor(bytesPerSecond / float64(bytesPerFrame)))
	if est.MaxFPS > 0 {
		est.FrameTimeMillis = int(math.Ceil(1000 / float64(est.MaxFPS)))
	}
	est.RealtimeCapable = est.MaxFPS >= 30
	return est
}
