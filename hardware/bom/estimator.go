// Package bom provides the component estimator
// Converts a wiring topology into an itemized bill of materials with a cost range
package bom

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"matrixforge/hardware/matrix"
	"matrixforge/hardware/wiring"
)

// ComponentType buckets the pricing catalog
type ComponentType string

const (
	ComponentController  ComponentType = "controller"
	ComponentLedStrip    ComponentType = "led_strip"
	ComponentPowerSupply ComponentType = "power_supply"
	ComponentShifter     ComponentType = "level_shifter"
	ComponentCapacitor   ComponentType = "capacitor"
	ComponentResistor    ComponentType = "resistor"
	ComponentWiring      ComponentType = "wiring"
)

// PriceKey is the pricing catalog lookup key
type PriceKey struct {
	Component ComponentType
	Bucket    string
}

// UnknownPricingError marks a catalog miss. Estimation proceeds on the
// component default and surfaces the miss as a warning.
type UnknownPricingError struct {
	Component ComponentType
	Bucket    string
}

func (e UnknownPricingError) Error() string {
	return fmt.Sprintf("no pricing for %s/%s, using default", e.Component, e.Bucket)
}

// CostBandPct is the documented uncertainty band around the point estimate.
// Reported range is center ± 10% to reflect market price volatility.
const CostBandPct = 0.10

// DefaultPricing returns the built-in pricing catalog
func DefaultPricing() map[PriceKey]decimal.Decimal {
	usd := func(s string) decimal.Decimal { return decimal.RequireFromString(s) }
	return map[PriceKey]decimal.Decimal{
		{ComponentController, "uno"}:     usd("25"),
		{ComponentController, "nano"}:    usd("15"),
		{ComponentController, "mega"}:    usd("38"),
		{ComponentController, "esp32"}:   usd("12"),
		{ComponentController, "esp8266"}: usd("8"),

		// WS2812B strip, per meter, keyed by density
		{ComponentLedStrip, "30"}:  usd("8"),
		{ComponentLedStrip, "60"}:  usd("15"),
		{ComponentLedStrip, "144"}: usd("25"),
		{ComponentLedStrip, "256"}: usd("40"),

		{ComponentPowerSupply, "5V2A"}:  usd("15"),
		{ComponentPowerSupply, "5V5A"}:  usd("25"),
		{ComponentPowerSupply, "5V10A"}: usd("35"),
		{ComponentPowerSupply, "5V20A"}: usd("55"),
		{ComponentPowerSupply, "5V30A"}: usd("75"),
		{ComponentPowerSupply, "5V40A"}: usd("95"),

		{ComponentShifter, "74HCT245"}: usd("3"),
		{ComponentCapacitor, "1000uF"}: usd("2"),
		{ComponentResistor, "470ohm"}:  usd("0.5"),
		{ComponentWiring, "breadboard"}: usd("10"),
	}
}

// defaultPrices back the catalog when a key is unmatched
var defaultPrices = map[ComponentType]decimal.Decimal{
	ComponentController:  decimal.NewFromInt(20),
	ComponentLedStrip:    decimal.NewFromInt(25),
	ComponentPowerSupply: decimal.NewFromInt(35),
	ComponentShifter:     decimal.NewFromInt(3),
	ComponentCapacitor:   decimal.NewFromInt(2),
	ComponentResistor:    decimal.RequireFromString("0.5"),
	ComponentWiring:      decimal.NewFromInt(10),
}

// Item is one line of the bill of materials
type Item struct {
	Category  ComponentType   `json:"category"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
	TotalCost decimal.Decimal `json:"total_cost"`
}

// Estimate is the itemized BOM with its cost range
type Estimate struct {
	Items      []Item          `json:"items"`
	Subtotal   decimal.Decimal `json:"subtotal"`
	CostLow    decimal.Decimal `json:"cost_low"`
	CostCenter decimal.Decimal `json:"cost_center"`
	CostHigh   decimal.Decimal `json:"cost_high"`
	Warnings   []string        `json:"warnings"`
}

// Estimator prices wiring topologies against a catalog populated once at
// process start
type Estimator struct {
	prices map[PriceKey]decimal.Decimal
}

// NewEstimator creates an estimator. A nil catalog uses the built-in pricing.
func NewEstimator(prices map[PriceKey]decimal.Decimal) *Estimator {
	if len(prices) == 0 {
		prices = DefaultPricing()
	}
	return &Estimator{prices: prices}
}

// Estimate builds the bill of materials for a wiring topology. The topology
// is the single source of truth: the level-shifter line item appears exactly
// when the graph carries a LevelShifter node.
func (e *Estimator) Estimate(topo *wiring.Topology) (*Estimate, error) {
	spec := topo.Matrix
	if spec.LedsPerMeter <= 0 {
		return nil, matrix.ValidationError{Field: "leds_per_meter", Reason: "must be positive to size the strip"}
	}

	est := &Estimate{
		Items:    make([]Item, 0, 7),
		Warnings: make([]string, 0),
	}

	add := func(ct ComponentType, bucket, name string, qty int) {
		unit, miss := e.priceFor(ct, bucket)
		if miss != nil {
			est.Warnings = append(est.Warnings, miss.Error())
		}
		est.Items = append(est.Items, Item{
			Category:  ct,
			Name:      name,
			Quantity:  qty,
			UnitCost:  unit,
			TotalCost: unit.Mul(decimal.NewFromInt(int64(qty))),
		})
	}

	add(ComponentController, topo.Board.ID, topo.Board.Name, 1)

	meters := spec.StripLengthMeters()
	if meters < 1 {
		meters = 1
	}
	add(ComponentLedStrip, strconv.Itoa(spec.LedsPerMeter),
		fmt.Sprintf("WS2812B LED Strip (%d LEDs/m)", spec.LedsPerMeter), meters)

	add(ComponentPowerSupply, topo.Psu.Name, fmt.Sprintf("%s Power Supply", topo.Psu.Name), 1)

	if _, hasShifter := topo.Node(wiring.KindLevelShifter); hasShifter {
		add(ComponentShifter, "74HCT245", "74HCT245 Level Shifter", 1)
	}

	leds := spec.TotalLeds()
	if leds > 50 {
		qty := leds / 100
		if qty < 1 {
			qty = 1
		}
		add(ComponentCapacitor, "1000uF", "1000µF Electrolytic Capacitor", qty)
	}

	add(ComponentResistor, "470ohm", "470Ω Data Line Resistor", 1)
	add(ComponentWiring, "breadboard", "Jumper Wires & Breadboard", 1)

	subtotal := decimal.Zero
	for _, item := range est.Items {
		subtotal = subtotal.Add(item.TotalCost)
	}
	band := subtotal.Mul(decimal.NewFromFloat(CostBandPct))
	est.Subtotal = subtotal
	est.CostCenter = subtotal
	est.CostLow = subtotal.Sub(band).Round(2)
	est.CostHigh = subtotal.Add(band).Round(2)

	return est, nil
}

// priceFor resolves a catalog price, falling back to the component default
func (e *Estimator) priceFor(ct ComponentType, bucket string) (decimal.Decimal, *UnknownPricingError) {
	if price, ok := e.prices[PriceKey{Component: ct, Bucket: bucket}]; ok {
		return price, nil
	}
	return defaultPrices[ct], &UnknownPricingError{Component: ct, Bucket: bucket}
}
