// Package matrix defines the LED matrix geometry shared by every engine
package matrix

import (
	"fmt"
	"math"
)

// Layout is the physical wiring order of the strip through the matrix
type Layout string

const (
	// Serpentine alternates direction every row, shortening strip runs
	Serpentine Layout = "serpentine"
	// Progressive wires every row left to right
	Progressive Layout = "progressive"
)

// DefaultMaxDimension bounds width and height unless the caller configures
// a different ceiling.
const DefaultMaxDimension = 64

// Spec describes the matrix geometry and strip density
type Spec struct {
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	LedsPerMeter int    `json:"leds_per_meter"`
	Layout       Layout `json:"layout"`
}

// ValidationError rejects malformed input before any computation runs
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// TotalLeds is width × height
func (s Spec) TotalLeds() int {
	return s.Width * s.Height
}

// StripLengthMeters is the strip length to purchase, rounded up to whole meters
func (s Spec) StripLengthMeters() int {
	if s.LedsPerMeter <= 0 {
		return 0
	}
	return int(math.Ceil(float64(s.TotalLeds()) / float64(s.LedsPerMeter)))
}

// Validate checks geometry against the configured maximum dimension.
// A maxDim of zero falls back to DefaultMaxDimension.
func (s Spec) Validate(maxDim int) error {
	if maxDim <= 0 {
		maxDim = DefaultMaxDimension
	}
	if s.Width <= 0 {
		return ValidationError{Field: "width", Reason: "must be positive"}
	}
	if s.Height <= 0 {
		return ValidationError{Field: "height", Reason: "must be positive"}
	}
	if s.Width > maxDim {
		return ValidationError{Field: "width", Reason: fmt.Sprintf("%d exceeds maximum of %d", s.Width, maxDim)}
	}
	if s.Height > maxDim {
		return ValidationError{Field: "height", Reason: fmt.Sprintf("%d exceeds maximum of %d", s.Height, maxDim)}
	}
	if s.LedsPerMeter < 0 {
		return ValidationError{Field: "leds_per_meter", Reason: "must not be negative"}
	}
	switch s.Layout {
	case Serpentine, Progressive, "":
	default:
		return ValidationError{Field: "layout", Reason: fmt.Sprintf("unknown layout %q", s.Layout)}
	}
	return nil
}

// EffectiveLayout resolves an unset layout to serpentine, the common
// off-the-shelf matrix wiring.
func (s Spec) EffectiveLayout() Layout {
	if s.Layout == "" {
		return Serpentine
	}
	return s.Layout
}
