// Package hclsource applies variable assignments written as HCL attributes:
//
//	r_gamma  = 1.2
//	cg_fov   = 95
//	ui_name  = "Player One"
//	r_sunDirection = [0.5, 0.25, 1]
//	developer = true
//
// Values are rendered to the registry's text form and applied from the
// External source.
package hclsource

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"

	"github.com/zjrosen/dvars/internal/dvar"
	"github.com/zjrosen/dvars/internal/log"
)

// Assignment is one top-level attribute.
type Assignment struct {
	Name  string
	Text  string
	Range hcl.Range
}

// Parse decodes src. Attributes are returned in file order.
func Parse(src []byte, filename string) ([]Assignment, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", filename, diags)
	}
	return decode(file.Body, filename)
}

// ParseFile reads and decodes the file at path.
func ParseFile(path string) ([]Assignment, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return Parse(src, path)
}

func decode(body hcl.Body, filename string) ([]Assignment, error) {
	attrs, diags := body.JustAttributes()
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", filename, diags)
	}

	out := make([]Assignment, 0, len(attrs))
	for name, attr := range attrs {
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return nil, fmt.Errorf("evaluating %s in %s: %w", name, filename, diags)
		}
		text, err := render(val)
		if err != nil {
			return nil, fmt.Errorf("attribute %s in %s: %w", name, filename, err)
		}
		out = append(out, Assignment{Name: name, Text: text, Range: attr.Range})
	}
	slices.SortFunc(out, func(a, b Assignment) int {
		return a.Range.Start.Byte - b.Range.Start.Byte
	})
	return out, nil
}

// render converts a cty value to the text accepted by SetFromString.
func render(v cty.Value) (string, error) {
	if v.IsNull() || !v.IsKnown() {
		return "", fmt.Errorf("value is null or unknown")
	}

	ty := v.Type()
	switch {
	case ty == cty.String:
		return v.AsString(), nil

	case ty == cty.Number:
		if bf := v.AsBigFloat(); bf.IsInt() {
			i, _ := bf.Int(nil)
			return i.String(), nil
		}
		var f float64
		if err := gocty.FromCtyValue(v, &f); err != nil {
			return "", fmt.Errorf("could not convert number: %w", err)
		}
		return strconv.FormatFloat(f, 'g', -1, 64), nil

	case ty == cty.Bool:
		if v.True() {
			return "1", nil
		}
		return "0", nil

	case ty.IsListType() || ty.IsTupleType():
		var parts []string
		it := v.ElementIterator()
		for it.Next() {
			_, elem := it.Element()
			if elem.Type() != cty.Number {
				return "", fmt.Errorf("vector components must be numbers, got %s", elem.Type().FriendlyName())
			}
			part, err := render(elem)
			if err != nil {
				return "", err
			}
			parts = append(parts, part)
		}
		if len(parts) == 0 || len(parts) > 4 {
			return "", fmt.Errorf("vectors have 1 to 4 components, got %d", len(parts))
		}
		return strings.Join(parts, " "), nil

	default:
		return "", fmt.Errorf("unsupported value type %s", ty.FriendlyName())
	}
}

// Apply sets each assignment on reg from the External source. Invalid names
// are skipped. Returns the number applied.
func Apply(reg *dvar.Registry, assignments []Assignment) int {
	n := 0
	for _, a := range assignments {
		if !dvar.IsValidName(a.Name) {
			log.Warn(log.CatConfig, "Skipping invalid dvar name", "name", a.Name, "at", a.Range.String())
			continue
		}
		if reg.SetFromStringByNameFromSource(a.Name, a.Text, dvar.SourceExternal, dvar.FlagNone) != nil {
			n++
		}
	}
	return n
}

// LoadFile parses path and applies it.
func LoadFile(path string, reg *dvar.Registry) (int, error) {
	assignments, err := ParseFile(path)
	if err != nil {
		return 0, err
	}
	n := Apply(reg, assignments)
	log.Info(log.CatConfig, "Loaded HCL overrides", "path", path, "count", n)
	return n, nil
}
