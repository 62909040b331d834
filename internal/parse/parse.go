// Package parse turns serialized model bytes into a validated graph model,
// or into an ordered, node-attributed report of why the importer rejected it.
package parse

import (
	"context"
	"fmt"

	"github.com/vk/tensorgridgo/internal/backend"
	"github.com/vk/tensorgridgo/internal/ctxlog"
	"github.com/vk/tensorgridgo/internal/graph"
)

// Parser drives the two decode paths: the context decoder in internal/graph,
// which exists purely to attach node context to failures, and the backend
// importer, which is the acceptance authority.
type Parser struct {
	importer backend.Importer
	severity backend.Severity
}

// New creates a Parser reporting at the given severity threshold. At
// SeverityInfo and above, failure reports carry the full body of the
// offending node.
func New(importer backend.Importer, severity backend.Severity) *Parser {
	return &Parser{importer: importer, severity: severity}
}

// Parse decodes and imports the model. On success the returned model is
// immutable. On failure the error is either graph.ErrMalformed (the context
// decoder could not read the buffer; the importer's verdict is irrelevant
// because no node context can be attached) or a *Report carrying every
// importer error in the order reported.
func (p *Parser) Parse(ctx context.Context, model []byte) (*graph.Model, error) {
	logger := ctxlog.FromContext(ctx)

	decoded, err := graph.Decode(model)
	if err != nil {
		return nil, err
	}
	logger.Debug("Context decode succeeded.", "nodes", len(decoded.Nodes), "ir_version", decoded.IRVersion)

	ok := p.importer.Import(model)
	importErrs := p.importer.Errors()
	if ok && len(importErrs) == 0 {
		logger.Debug("Importer accepted model.")
		return decoded, nil
	}

	report := &Report{Errors: make([]Error, 0, len(importErrs))}
	for _, ie := range importErrs {
		e := Error{
			Node: ie.Node,
			File: ie.File,
			Line: ie.Line,
			Func: ie.Func,
			Code: ie.Code,
			Desc: ie.Desc,
		}
		if node, found := resolveNode(decoded, ie.Node); found {
			e.OpType = node.OpType
			if len(node.Outputs) > 0 {
				e.Output = node.Outputs[0]
			}
			if p.severity >= backend.SeverityInfo {
				e.NodeBody = node.Body()
			}
		}
		report.Errors = append(report.Errors, e)
		e.log(logger)
	}
	if len(report.Errors) == 0 {
		// Importer rejected the model without saying why. Still fatal.
		report.Errors = append(report.Errors, Error{
			Node: -1,
			Desc: "importer rejected model without reporting errors",
		})
	}
	return nil, report
}

// resolveNode maps an importer-reported node index onto the decoded graph.
// Indexes outside the decoded range stay in the report but get no context:
// the importer, not the context decoder, decides what the model contains.
func resolveNode(m *graph.Model, idx int) (graph.Node, bool) {
	if idx < 0 || idx >= len(m.Nodes) {
		return graph.Node{}, false
	}
	return m.Nodes[idx], true
}

// Error is one importer failure enriched with node context where available.
type Error struct {
	// Node is the importer's node index, -1 when not attributable.
	Node     int
	OpType   string
	Output   string
	NodeBody string
	File     string
	Line     int
	Func     string
	Code     int
	Desc     string
}

func (e Error) log(logger interface {
	Error(msg string, args ...any)
}) {
	args := []any{
		"file", e.File,
		"line", e.Line,
		"func", e.Func,
		"code", e.Code,
		"desc", e.Desc,
	}
	if e.Node >= 0 {
		args = append(args, "node", e.Node)
	}
	if e.OpType != "" {
		args = append(args, "op_type", e.OpType)
	}
	if e.Output != "" {
		args = append(args, "output", e.Output)
	}
	if e.NodeBody != "" {
		args = append(args, "node_body", e.NodeBody)
	}
	logger.Error("Importer rejected node.", args...)
}

// Report is the fatal result of a rejected model. Errors preserve the
// importer's report order.
type Report struct {
	Errors []Error
}

func (r *Report) Error() string {
	return fmt.Sprintf("cannot import model into an engine network: %d import error(s)", len(r.Errors))
}
