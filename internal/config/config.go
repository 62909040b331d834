// Package config loads the optional HCL build profile. A profile carries the
// same knobs as the CLI flags; explicitly set flags win over profile values,
// so every field here is a pointer that distinguishes "absent" from "zero".
package config

import (
	"context"
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"

	"github.com/vk/tensorgridgo/internal/ctxlog"
)

// Profile is the decoded build profile. Nil fields were not present.
type Profile struct {
	FP16            *bool
	Debug           *bool
	MaxBatchSize    *int
	MaxWorkspaceMiB *int64
	Severity        *string

	CalibrationCache *string
}

var profileSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "build"},
		{Type: "calibration"},
	},
}

var buildSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "fp16"},
		{Name: "debug"},
		{Name: "max_batch_size"},
		{Name: "max_workspace_mib"},
		{Name: "severity"},
	},
}

var calibrationSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "cache"},
	},
}

// Load parses one profile file. Unknown blocks and attributes are errors, in
// keeping with strict HCL schemas elsewhere in the toolchain.
func Load(ctx context.Context, path string) (*Profile, error) {
	logger := ctxlog.FromContext(ctx)

	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading profile: %w", err)
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parsing profile: %w", diags)
	}

	content, diags := file.Body.Content(profileSchema)
	if diags.HasErrors() {
		return nil, fmt.Errorf("invalid profile structure: %w", diags)
	}

	p := &Profile{}
	for _, block := range content.Blocks {
		switch block.Type {
		case "build":
			if err := p.decodeBuild(block.Body); err != nil {
				return nil, err
			}
		case "calibration":
			if err := p.decodeCalibration(block.Body); err != nil {
				return nil, err
			}
		}
	}

	logger.Debug("Build profile loaded.", "path", path)
	return p, nil
}

func (p *Profile) decodeBuild(body hcl.Body) error {
	content, diags := body.Content(buildSchema)
	if diags.HasErrors() {
		return fmt.Errorf("invalid build block: %w", diags)
	}
	for name, attr := range content.Attributes {
		var err error
		switch name {
		case "fp16":
			p.FP16, err = attrTo[bool](attr, cty.Bool)
		case "debug":
			p.Debug, err = attrTo[bool](attr, cty.Bool)
		case "max_batch_size":
			p.MaxBatchSize, err = attrTo[int](attr, cty.Number)
		case "max_workspace_mib":
			p.MaxWorkspaceMiB, err = attrTo[int64](attr, cty.Number)
		case "severity":
			p.Severity, err = attrTo[string](attr, cty.String)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (p *Profile) decodeCalibration(body hcl.Body) error {
	content, diags := body.Content(calibrationSchema)
	if diags.HasErrors() {
		return fmt.Errorf("invalid calibration block: %w", diags)
	}
	if attr, ok := content.Attributes["cache"]; ok {
		cache, err := attrTo[string](attr, cty.String)
		if err != nil {
			return err
		}
		p.CalibrationCache = cache
	}
	return nil
}

// attrTo evaluates an attribute expression, converts it to the wanted cty
// type, and decodes it into a Go value.
func attrTo[T any](attr *hcl.Attribute, want cty.Type) (*T, error) {
	val, diags := attr.Expr.Value(nil)
	if diags.HasErrors() {
		return nil, fmt.Errorf("evaluating %q: %w", attr.Name, diags)
	}
	val, err := convert.Convert(val, want)
	if err != nil {
		return nil, fmt.Errorf("attribute %q: %w", attr.Name, err)
	}
	var out T
	if err := gocty.FromCtyValue(val, &out); err != nil {
		return nil, fmt.Errorf("attribute %q: %w", attr.Name, err)
	}
	return &out, nil
}
