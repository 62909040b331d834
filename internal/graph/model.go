// Package graph holds the in-memory model of a serialized tensor graph and
// the wire-format decoder that produces it. The model exists to give import
// errors human-readable node context; acceptance of the model is the
// importer's job, not this package's.
package graph

import (
	"fmt"
	"strings"
)

// IRVersion is the interchange-schema IR version this decoder is built
// against, encoded as major*1e6 + minor*1e4 + patch.
const IRVersion int64 = 10

// Node is one operator in the graph: an op type plus ordered input and
// output tensor names.
type Node struct {
	Name    string
	OpType  string
	Inputs  []string
	Outputs []string
}

// Body renders the node the way it appears in structured parse reports.
func (n Node) Body() string {
	var b strings.Builder
	if n.Name != "" {
		fmt.Fprintf(&b, "name: %q\n", n.Name)
	}
	fmt.Fprintf(&b, "op_type: %q\n", n.OpType)
	for _, in := range n.Inputs {
		fmt.Fprintf(&b, "input: %q\n", in)
	}
	for _, out := range n.Outputs {
		fmt.Fprintf(&b, "output: %q\n", out)
	}
	return b.String()
}

// Model is a decoded graph. Immutable once returned by Decode.
type Model struct {
	IRVersion int64
	Name      string
	Nodes     []Node
}

// IRVersionString renders an integer IR version as "major.minor.patch".
func IRVersionString(v int64) string {
	major := v / 1_000_000
	minor := v % 1_000_000 / 10_000
	patch := v % 10_000
	return fmt.Sprintf("%d.%d.%d", major, minor, patch)
}
