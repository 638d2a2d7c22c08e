package config

import (
	"fmt"
	"math/big"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/pkg/errors"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
)

// hclFile is the root of an HCL definition file:
//
//	parameter "greeting" {
//	  value = "hi"
//	}
//
//	component "svc" {
//	  class     = "app/service::Service"
//	  with      = [1, "@greeting"]
//	  transient = true
//	  tags      = { "http.handler" = "/svc" }
//
//	  call "Use" {
//	    with = ["@middleware"]
//	  }
//	}
type hclFile struct {
	Parameters []*hclParameter `hcl:"parameter,block"`
	Components []*hclComponent `hcl:"component,block"`
}

type hclParameter struct {
	ID    string         `hcl:"id,label"`
	Value hcl.Expression `hcl:"value"`
}

type hclComponent struct {
	ID        string         `hcl:"id,label"`
	Module    *string        `hcl:"module,optional"`
	Property  *string        `hcl:"property,optional"`
	Class     *string        `hcl:"class,optional"`
	Factory   *string        `hcl:"factory,optional"`
	Value     hcl.Expression `hcl:"value,optional"`
	With      hcl.Expression `hcl:"with,optional"`
	Tags      hcl.Expression `hcl:"tags,optional"`
	Transient *bool          `hcl:"transient,optional"`
	Calls     []*hclCall     `hcl:"call,block"`
}

type hclCall struct {
	Method string         `hcl:"method,label"`
	With   hcl.Expression `hcl:"with,optional"`
}

// ReadHCLFile decodes an HCL definition file into a document.
func ReadHCLFile(path string) (map[string]any, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, errors.Wrapf(diags, "failed to parse HCL file %s", path)
	}
	doc, err := decodeHCL(file.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode HCL file %s", path)
	}
	return doc, nil
}

// ReadHCLString decodes HCL source into a document. filename is only used in
// diagnostics.
func ReadHCLString(src, filename string) (map[string]any, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL([]byte(src), filename)
	if diags.HasErrors() {
		return nil, errors.Wrapf(diags, "failed to parse HCL %s", filename)
	}
	doc, err := decodeHCL(file.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode HCL %s", filename)
	}
	return doc, nil
}

func decodeHCL(body hcl.Body) (map[string]any, error) {
	var root hclFile
	if diags := gohcl.DecodeBody(body, nil, &root); diags.HasErrors() {
		return nil, diags
	}

	parameters := make(map[string]any, len(root.Parameters))
	for _, p := range root.Parameters {
		if _, exists := parameters[p.ID]; exists {
			return nil, errors.Errorf("parameter %q declared twice", p.ID)
		}
		value, err := evalExpr(p.Value)
		if err != nil {
			return nil, errors.Wrapf(err, "parameter %q", p.ID)
		}
		parameters[p.ID] = value
	}

	components := make(map[string]any, len(root.Components))
	for _, c := range root.Components {
		if _, exists := components[c.ID]; exists {
			return nil, errors.Errorf("component %q declared twice", c.ID)
		}
		descriptor, err := c.descriptor()
		if err != nil {
			return nil, errors.Wrapf(err, "component %q", c.ID)
		}
		components[c.ID] = descriptor
	}

	doc := make(map[string]any, 2)
	if len(parameters) > 0 {
		doc[sectionParameters] = parameters
	}
	if len(components) > 0 {
		doc[sectionComponents] = components
	}
	return doc, nil
}

// descriptor converts a component block to the document form used by Parse.
func (c *hclComponent) descriptor() (map[string]any, error) {
	d := make(map[string]any)

	for key, value := range map[string]*string{
		fieldModule:   c.Module,
		fieldProperty: c.Property,
		fieldClass:    c.Class,
		fieldFactory:  c.Factory,
	} {
		if value != nil {
			d[key] = *value
		}
	}
	if c.Transient != nil {
		d[fieldTransient] = *c.Transient
	}

	for key, expr := range map[string]hcl.Expression{
		fieldValue: c.Value,
		fieldWith:  c.With,
		fieldTags:  c.Tags,
	} {
		if !isExprDefined(expr) {
			continue
		}
		value, err := evalExpr(expr)
		if err != nil {
			return nil, errors.Wrap(err, key)
		}
		d[key] = value
	}

	if len(c.Calls) > 0 {
		calls := make([]any, 0, len(c.Calls))
		for _, call := range c.Calls {
			entry := map[string]any{fieldMethod: call.Method}
			if isExprDefined(call.With) {
				with, err := evalExpr(call.With)
				if err != nil {
					return nil, errors.Wrapf(err, "call %s", call.Method)
				}
				entry[fieldWith] = with
			}
			calls = append(calls, entry)
		}
		d[fieldCall] = calls
	}

	return d, nil
}

// isExprDefined reports whether an optional attribute was present in the
// source. Omitted attributes decode to zero-width placeholder expressions.
func isExprDefined(expr hcl.Expression) bool {
	if expr == nil {
		return false
	}
	r := expr.Range()
	return r.End.Byte > r.Start.Byte
}

func evalExpr(expr hcl.Expression) (any, error) {
	value, diags := expr.Value(nil)
	if diags.HasErrors() {
		return nil, diags
	}
	return ctyToNative(value)
}

// ctyToNative recursively converts a cty.Value to its most natural Go
// counterpart. Whole numbers become int so that HCL documents look like
// YAML ones; other numbers become float64.
func ctyToNative(v cty.Value) (any, error) {
	if v.IsNull() || !v.IsKnown() {
		return nil, nil
	}

	ty := v.Type()

	switch {
	case ty == cty.String:
		return v.AsString(), nil

	case ty == cty.Number:
		bf := v.AsBigFloat()
		if bf.IsInt() {
			if i, acc := bf.Int64(); acc == big.Exact && int64(int(i)) == i {
				return int(i), nil
			}
		}
		var f float64
		if err := gocty.FromCtyValue(v, &f); err != nil {
			return nil, fmt.Errorf("could not convert cty.Number to float64: %w", err)
		}
		return f, nil

	case ty == cty.Bool:
		var b bool
		if err := gocty.FromCtyValue(v, &b); err != nil {
			return nil, fmt.Errorf("could not convert cty.Bool to bool: %w", err)
		}
		return b, nil

	case ty.IsListType() || ty.IsTupleType() || ty.IsSetType():
		slice := make([]any, 0)
		it := v.ElementIterator()
		for it.Next() {
			_, val := it.Element()
			nativeVal, err := ctyToNative(val)
			if err != nil {
				return nil, err
			}
			slice = append(slice, nativeVal)
		}
		return slice, nil

	case ty.IsObjectType() || ty.IsMapType():
		goMap := make(map[string]any)
		it := v.ElementIterator()
		for it.Next() {
			key, val := it.Element()
			keyStr := key.AsString()
			nativeVal, err := ctyToNative(val)
			if err != nil {
				return nil, fmt.Errorf("in attribute '%s': %w", keyStr, err)
			}
			goMap[keyStr] = nativeVal
		}
		return goMap, nil

	default:
		return nil, fmt.Errorf("unsupported cty type: %s", ty.FriendlyName())
	}
}
