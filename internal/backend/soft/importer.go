package soft

import (
	"fmt"

	"github.com/vk/tensorgridgo/internal/backend"
	"github.com/vk/tensorgridgo/internal/graph"
)

// supportedOps is the operator registry of the soft backend. Anything else
// is rejected at import time, node by node.
var supportedOps = map[string]struct{}{
	"Add":                {},
	"AveragePool":        {},
	"BatchNormalization": {},
	"Concat":             {},
	"Conv":               {},
	"Flatten":            {},
	"Gemm":               {},
	"GlobalAveragePool":  {},
	"MatMul":             {},
	"MaxPool":            {},
	"Mul":                {},
	"Relu":               {},
	"Reshape":            {},
	"Sigmoid":            {},
	"Softmax":            {},
	"Tanh":               {},
}

// network holds the imported model on behalf of the builder.
type network struct {
	model *graph.Model
}

func (n *network) LayerCount() int {
	if n.model == nil {
		return 0
	}
	return len(n.model.Nodes)
}

type importer struct {
	net  *network
	log  backend.Logger
	errs []backend.ImportError
}

// Import decodes the model and checks every node against the operator
// registry. All failures are accumulated; a partially valid model is never
// partially accepted.
func (i *importer) Import(model []byte) bool {
	i.errs = nil

	m, err := graph.Decode(model)
	if err != nil {
		file, line, fn := here()
		i.errs = append(i.errs, backend.ImportError{
			Node: -1, Code: codeInvalidModel,
			File: file, Line: line, Func: fn,
			Desc: err.Error(),
		})
		return false
	}

	if len(m.Nodes) == 0 {
		file, line, fn := here()
		i.errs = append(i.errs, backend.ImportError{
			Node: -1, Code: codeInvalidGraph,
			File: file, Line: line, Func: fn,
			Desc: "graph has no nodes",
		})
	}
	for idx, node := range m.Nodes {
		if _, ok := supportedOps[node.OpType]; !ok {
			file, line, fn := here()
			i.errs = append(i.errs, backend.ImportError{
				Node: idx, Code: codeInvalidGraph,
				File: file, Line: line, Func: fn,
				Desc: fmt.Sprintf("unsupported operator %q", node.OpType),
			})
			continue
		}
		if len(node.Outputs) == 0 {
			file, line, fn := here()
			i.errs = append(i.errs, backend.ImportError{
				Node: idx, Code: codeInvalidGraph,
				File: file, Line: line, Func: fn,
				Desc: fmt.Sprintf("operator %q produces no outputs", node.OpType),
			})
		}
	}

	if len(i.errs) > 0 {
		return false
	}

	i.net.model = m
	i.log.Log(backend.SeverityInfo, fmt.Sprintf("imported %d node(s)", len(m.Nodes)))
	return true
}

func (i *importer) Errors() []backend.ImportError { return i.errs }
