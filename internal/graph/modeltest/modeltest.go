// Package modeltest builds serialized model fixtures for tests. It encodes
// the same minimal field subset internal/graph decodes.
package modeltest

import (
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/vk/tensorgridgo/internal/graph"
)

// Bytes serializes a model with the given IR version and nodes.
func Bytes(irVersion int64, nodes ...graph.Node) []byte {
	var g []byte
	for _, n := range nodes {
		g = protowire.AppendTag(g, 1, protowire.BytesType)
		g = protowire.AppendBytes(g, nodeBytes(n))
	}

	var b []byte
	b = protowire.AppendTag(b, 1, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(irVersion))
	b = protowire.AppendTag(b, 7, protowire.BytesType)
	b = protowire.AppendBytes(b, g)
	return b
}

// SingleNode is the smallest useful model: one operator, one output.
func SingleNode(opType, output string) []byte {
	return Bytes(graph.IRVersion, graph.Node{OpType: opType, Outputs: []string{output}})
}

func nodeBytes(n graph.Node) []byte {
	var b []byte
	for _, in := range n.Inputs {
		b = protowire.AppendTag(b, 1, protowire.BytesType)
		b = protowire.AppendString(b, in)
	}
	for _, out := range n.Outputs {
		b = protowire.AppendTag(b, 2, protowire.BytesType)
		b = protowire.AppendString(b, out)
	}
	if n.Name != "" {
		b = protowire.AppendTag(b, 3, protowire.BytesType)
		b = protowire.AppendString(b, n.Name)
	}
	b = protowire.AppendTag(b, 4, protowire.BytesType)
	b = protowire.AppendString(b, n.OpType)
	return b
}
