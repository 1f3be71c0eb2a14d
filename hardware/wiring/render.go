package wiring

import (
	"fmt"
	"sort"
	"strings"
)

// mermaidIDs maps node kinds to stable diagram identifiers
var mermaidIDs = map[NodeKind]string{
	KindPowerSupply:  "PSU",
	KindController:   "CTRL",
	KindLevelShifter: "LEVEL",
	KindLedStrip:     "MATRIX",
	KindGroundBus:    "GND",
}

var nodeStyles = map[NodeKind]string{
	KindPowerSupply:  "fill:#ff9999",
	KindController:   "fill:#99ccff",
	KindLevelShifter: "fill:#ffcc99",
	KindLedStrip:     "fill:#99ff99",
	KindGroundBus:    "fill:#cccccc",
}

var edgeSections = []struct {
	edgeType EdgeType
	header   string
}{
	{EdgePower, "%% Power connections"},
	{EdgeData, "%% Data path"},
	{EdgeGround, "%% Ground"},
}

// Render converts a topology into Mermaid flowchart markup.
// Output is deterministic: nodes are emitted alphabetically by kind, then
// insertion order, so identical topologies yield byte-identical markup.
func Render(t *Topology) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	nodes := make([]Node, len(t.Nodes))
	copy(nodes, t.Nodes)
	sort.SliceStable(nodes, func(i, j int) bool {
		return nodes[i].Kind < nodes[j].Kind
	})

	for _, n := range nodes {
		fmt.Fprintf(&sb, "    %s[\"%s\"]\n", mermaidIDs[n.Kind], n.Label)
	}

	for _, section := range edgeSections {
		edges := t.EdgesOfType(section.edgeType)
		if len(edges) == 0 {
			continue
		}
		sb.WriteString("\n    " + section.header + "\n")
		for _, e := range edges {
			fmt.Fprintf(&sb, "    %s -->|\"%s\"| %s\n", mermaidIDs[e.From], e.Label, mermaidIDs[e.To])
		}
	}

	sb.WriteString("\n")
	for _, n := range nodes {
		fmt.Fprintf(&sb, "    style %s %s\n", mermaidIDs[n.Kind], nodeStyles[n.Kind])
	}

	return sb.String()
}
