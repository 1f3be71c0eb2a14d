// Package wiring provides the wiring topology builder and diagram renderer
// The topology graph is the single source of truth consumed by the diagram
// renderer and the BOM estimator
package wiring

import (
	"fmt"

	"matrixforge/hardware/board"
	"matrixforge/hardware/matrix"
	"matrixforge/hardware/power"
)

// NodeKind identifies a logical node in the wiring graph
type NodeKind string

const (
	KindPowerSupply  NodeKind = "PowerSupply"
	KindController   NodeKind = "Controller"
	KindLevelShifter NodeKind = "LevelShifter"
	KindLedStrip     NodeKind = "LedStrip"
	KindGroundBus    NodeKind = "GroundBus"
)

// EdgeType classifies a connection
type EdgeType string

const (
	EdgePower  EdgeType = "power"
	EdgeData   EdgeType = "data"
	EdgeGround EdgeType = "ground"
)

// Node is a logical component in the wiring graph
type Node struct {
	Kind  NodeKind `json:"kind"`
	Label string   `json:"label"`
}

// Edge is a typed, directed connection between two nodes
type Edge struct {
	From  NodeKind `json:"from"`
	To    NodeKind `json:"to"`
	Type  EdgeType `json:"type"`
	Label string   `json:"label"`
}

// Topology is the directed wiring graph for one configuration
type Topology struct {
	Nodes             []Node        `json:"nodes"`
	Edges             []Edge        `json:"edges"`
	NeedsLevelShifter bool          `json:"needs_level_shifter"`
	DataPin           int           `json:"data_pin"`
	Board             board.Profile `json:"board"`
	Matrix            matrix.Spec   `json:"matrix"`
	Psu               power.PsuTier `json:"psu"`
}

// Node returns the node of the given kind, if present
func (t *Topology) Node(kind NodeKind) (Node, bool) {
	for _, n := range t.Nodes {
		if n.Kind == kind {
			return n, true
		}
	}
	return Node{}, false
}

// EdgesOfType returns edges of one type in insertion order
func (t *Topology) EdgesOfType(et EdgeType) []Edge {
	out := make([]Edge, 0, len(t.Edges))
	for _, e := range t.Edges {
		if e.Type == et {
			out = append(out, e)
		}
	}
	return out
}

// Builder constructs wiring topologies
type Builder struct {
	dataPin int // 0 means use the board default
	psu     *power.PsuTier
}

// NewBuilder creates a topology builder
func NewBuilder() *Builder {
	return &Builder{}
}

// WithDataPin overrides the board's default data pin
func (b *Builder) WithDataPin(pin int) *Builder {
	b.dataPin = pin
	return b
}

// WithPsu pins the supply to a user-chosen tier instead of the budget's
// recommendation
func (b *Builder) WithPsu(tier power.PsuTier) *Builder {
	b.psu = &tier
	return b
}

// Build assembles the wiring graph for a matrix on the given board and
// power budget. The level-shifter leg is present exactly when the board
// runs 3.3V logic.
func (b *Builder) Build(spec matrix.Spec, prof board.Profile, budget power.Budget) *Topology {
	pin := b.dataPin
	if pin == 0 {
		pin = prof.DefaultDataPin
	}
	tier := budget.RecommendedTier
	if b.psu != nil {
		tier = *b.psu
	}

	t := &Topology{
		NeedsLevelShifter: prof.NeedsLevelShifter(),
		DataPin:           pin,
		Board:             prof,
		Matrix:            spec,
		Psu:               tier,
		Nodes:             make([]Node, 0, 5),
		Edges:             make([]Edge, 0, 8),
	}
	t.Nodes = append(t.Nodes,
		Node{Kind: KindPowerSupply, Label: fmt.Sprintf("%s Power Supply<br/>%gA / %gW", tier.Name, tier.CurrentAmps, tier.PowerWatts)},
		Node{Kind: KindController, Label: prof.Name},
	)
	if t.NeedsLevelShifter {
		t.Nodes = append(t.Nodes, Node{Kind: KindLevelShifter, Label: "74HCT245 Level Shifter"})
	}
	t.Nodes = append(t.Nodes,
		Node{Kind: KindLedStrip, Label: fmt.Sprintf("LED Matrix %d×%d<br/>%d LEDs", spec.Width, spec.Height, spec.TotalLeds())},
		Node{Kind: KindGroundBus, Label: "Common Ground"},
	)

	// Power rails. Strip power runs on heavy wire straight from the supply.
	t.Edges = append(t.Edges, Edge{From: KindPowerSupply, To: KindLedStrip, Type: EdgePower, Label: "+5V (18 AWG+)"})
	if t.NeedsLevelShifter {
		t.Edges = append(t.Edges, Edge{From: KindPowerSupply, To: KindLevelShifter, Type: EdgePower, Label: "+5V"})
	}

	// Data path routes through the shifter on 3.3V boards.
	dataLabel := fmt.Sprintf("Pin %d", pin)
	if t.NeedsLevelShifter {
		t.Edges = append(t.Edges,
			Edge{From: KindController, To: KindLevelShifter, Type: EdgeData, Label: dataLabel},
			Edge{From: KindLevelShifter, To: KindLedStrip, Type: EdgeData, Label: "data (470Ω series)"},
		)
	} else {
		t.Edges = append(t.Edges, Edge{From: KindController, To: KindLedStrip, Type: EdgeData, Label: dataLabel + " (470Ω series)"})
	}

	// Every component shares the ground bus.
	t.Edges = append(t.Edges,
		Edge{From: KindPowerSupply, To: KindGroundBus, Type: EdgeGround, Label: "GND (18 AWG+)"},
		Edge{From: KindController, To: KindGroundBus, Type: EdgeGround, Label: "GND"},
	)
	if t.NeedsLevelShifter {
		t.Edges = append(t.Edges, Edge{From: KindLevelShifter, To: KindGroundBus, Type: EdgeGround, Label: "GND"})
	}
	t.Edges = append(t.Edges, Edge{From: KindLedStrip, To: KindGroundBus, Type: EdgeGround, Label: "GND"})

	return t
}
