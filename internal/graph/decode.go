package graph

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// ErrMalformed reports that the byte buffer is not a decodable model.
var ErrMalformed = errors.New("could not decode serialized graph")

// Interchange-schema field numbers. Only the fields the error reporter needs
// are decoded; everything else is skipped wholesale.
const (
	modelFieldIRVersion = 1
	modelFieldGraph     = 7

	graphFieldNode = 1
	graphFieldName = 2

	nodeFieldInput  = 1
	nodeFieldOutput = 2
	nodeFieldName   = 3
	nodeFieldOpType = 4
)

// Decode parses a serialized model into a Model. It recovers node context
// only; it accepts structurally valid buffers that a real importer would
// still reject on semantic grounds.
func Decode(data []byte) (*Model, error) {
	m := &Model{}
	b := data
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(n))
		}
		b = b[n:]
		switch {
		case num == modelFieldIRVersion && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, fmt.Errorf("%w: bad ir_version", ErrMalformed)
			}
			m.IRVersion = int64(v)
			b = b[n:]
		case num == modelFieldGraph && typ == protowire.BytesType:
			g, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, fmt.Errorf("%w: bad graph field", ErrMalformed)
			}
			if err := decodeGraph(g, m); err != nil {
				return nil, err
			}
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nil, fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(n))
			}
			b = b[n:]
		}
	}
	return m, nil
}

func decodeGraph(b []byte, m *Model) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(n))
		}
		b = b[n:]
		switch {
		case num == graphFieldNode && typ == protowire.BytesType:
			raw, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return fmt.Errorf("%w: bad node field", ErrMalformed)
			}
			node, err := decodeNode(raw)
			if err != nil {
				return err
			}
			m.Nodes = append(m.Nodes, node)
			b = b[n:]
		case num == graphFieldName && typ == protowire.BytesType:
			name, n := protowire.ConsumeString(b)
			if n < 0 {
				return fmt.Errorf("%w: bad graph name", ErrMalformed)
			}
			m.Name = name
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(n))
			}
			b = b[n:]
		}
	}
	return nil
}

func decodeNode(b []byte) (Node, error) {
	var node Node
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return node, fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(n))
		}
		b = b[n:]
		if typ == protowire.BytesType {
			s, n := protowire.ConsumeString(b)
			if n < 0 {
				return node, fmt.Errorf("%w: bad node attribute", ErrMalformed)
			}
			switch num {
			case nodeFieldInput:
				node.Inputs = append(node.Inputs, s)
			case nodeFieldOutput:
				node.Outputs = append(node.Outputs, s)
			case nodeFieldName:
				node.Name = s
			case nodeFieldOpType:
				node.OpType = s
			}
			b = b[n:]
			continue
		}
		n = protowire.ConsumeFieldValue(num, typ, b)
		if n < 0 {
			return node, fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(n))
		}
		b = b[n:]
	}
	return node, nil
}
