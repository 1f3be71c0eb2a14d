// Package board provides the controller board profile registry
// Static catalog of microcontroller capabilities consumed by every downstream engine
package board

import (
	"fmt"
	"sort"
	"strings"
)

// VoltageClass is the logic-level voltage of a controller's data pins
type VoltageClass string

const (
	Logic5V  VoltageClass = "5V"
	Logic3V3 VoltageClass = "3V3"
)

// Profile describes a supported controller board.
// Profiles are fixed at build time and never mutated at runtime.
type Profile struct {
	ID                 string       `json:"id"`
	Name               string       `json:"name"`
	LogicVoltage       VoltageClass `json:"logic_voltage"`
	SRAMBytes          int          `json:"sram_bytes"`
	FlashBytes         int          `json:"flash_bytes"`
	MaxRecommendedLeds int          `json:"max_recommended_leds"`
	DefaultDataPin     int          `json:"default_data_pin"`
	BaudRate           int          `json:"baud_rate"`
	SupportsWireless   bool         `json:"supports_wireless"`
}

// NeedsLevelShifter reports whether the board's data output must be shifted
// up to 5V for reliable WS2812B signaling.
func (p Profile) NeedsLevelShifter() bool {
	return p.LogicVoltage == Logic3V3
}

// UnknownBoardError is returned when a board id has no catalog entry
type UnknownBoardError struct {
	ID string
}

func (e UnknownBoardError) Error() string {
	return fmt.Sprintf("unknown board %q (known boards: %s)", e.ID, strings.Join(IDs(), ", "))
}

// Catalog version. Bump when profile data changes.
const CatalogVersion = "2024.1"

var profiles = map[string]Profile{
	"uno": {
		ID:                 "uno",
		Name:               "Arduino Uno",
		LogicVoltage:       Logic5V,
		SRAMBytes:          2048,
		FlashBytes:         32768,
		MaxRecommendedLeds: 500,
		DefaultDataPin:     6,
		BaudRate:           500000,
	},
	"nano": {
		ID:                 "nano",
		Name:               "Arduino Nano",
		LogicVoltage:       Logic5V,
		SRAMBytes:          2048,
		FlashBytes:         32768,
		MaxRecommendedLeds: 500,
		DefaultDataPin:     6,
		BaudRate:           500000,
	},
	"mega": {
		ID:                 "mega",
		Name:               "Arduino Mega 2560",
		LogicVoltage:       Logic5V,
		SRAMBytes:          8192,
		FlashBytes:         262144,
		MaxRecommendedLeds: 2000,
		DefaultDataPin:     6,
		BaudRate:           500000,
	},
	"esp32": {
		ID:                 "esp32",
		Name:               "ESP32 Dev Board",
		LogicVoltage:       Logic3V3,
		SRAMBytes:          520000,
		FlashBytes:         4194304,
		MaxRecommendedLeds: 2000,
		DefaultDataPin:     13,
		BaudRate:           115200,
		SupportsWireless:   true,
	},
	"esp8266": {
		ID:                 "esp8266",
		Name:               "ESP8266 NodeMCU",
		LogicVoltage:       Logic3V3,
		SRAMBytes:          80000,
		FlashBytes:         4194304,
		MaxRecommendedLeds: 800,
		DefaultDataPin:     2,
		BaudRate:           115200,
		SupportsWireless:   true,
	},
}

// Lookup resolves a board id (case-insensitive) to its profile
func Lookup(id string) (Profile, error) {
	p, ok := profiles[strings.ToLower(strings.TrimSpace(id))]
	if !ok {
		return Profile{}, UnknownBoardError{ID: id}
	}
	return p, nil
}

// IDs returns all catalog ids in stable order
func IDs() []string {
	ids := make([]string, 0, len(profiles))
	for id := range profiles {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Profiles returns all catalog entries ordered by id
func Profiles() []Profile {
	out := make([]Profile, 0, len(profiles))
	for _, id := range IDs() {
		out = append(out, profiles[id])
	}
	return out
}

// Recommendation ranks a board's fitness for a given LED count
type Recommendation struct {
	Board          Profile `json:"board"`
	Suitable       bool    `json:"suitable"`
	MemoryUsed     int     `json:"memory_used_bytes"`
	MemoryHeadroom float64 `json:"memory_headroom"` // fraction of SRAM left free
}

// Recommend returns all boards ranked by suitability, then memory headroom.
// A board is suitable when the LED count stays within its recommended ceiling.
func Recommend(totalLeds int) []Recommendation {
	recs := make([]Recommendation, 0, len(profiles))
	for _, p := range Profiles() {
		used := totalLeds * 3
		headroom := float64(p.SRAMBytes-used) / float64(p.SRAMBytes)
		if headroom < 0 {
			headroom = 0
		}
		recs = append(recs, Recommendation{
			Board:          p,
			Suitable:       totalLeds <= p.MaxRecommendedLeds,
			MemoryUsed:     used,
			MemoryHeadroom: headroom,
		})
	}
	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].Suitable != recs[j].Suitable {
			return recs[i].Suitable
		}
		return recs[i].MemoryHeadroom > recs[j].MemoryHeadroom
	})
	return recs
}
