package intake

import (
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
)

// hclProject is the top-level structure of a .hcl project file:
//
//	deadline = 20
//
//	activity "B" {
//	  optimistic  = 2
//	  most_likely = 3
//	  pessimistic = 4
//	  after       = ["A"]
//	}
type hclProject struct {
	Deadline   *float64       `hcl:"deadline,optional"`
	Activities []*hclActivity `hcl:"activity,block"`
}

type hclActivity struct {
	Name        string    `hcl:"name,label"`
	Optimistic  cty.Value `hcl:"optimistic"`
	MostLikely  cty.Value `hcl:"most_likely"`
	Pessimistic cty.Value `hcl:"pessimistic"`
	After       []string  `hcl:"after,optional"`
}

// ParseHCL decodes an HCL project file. filename is only used in diagnostics.
func ParseHCL(data []byte, filename string) (*Request, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(data, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrMalformed, filename, diags)
	}

	var doc hclProject
	if diags := gohcl.DecodeBody(file.Body, nil, &doc); diags.HasErrors() {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrMalformed, filename, diags)
	}
	if err := CheckDeadline(doc.Deadline); err != nil {
		return nil, err
	}

	req := &Request{Activities: make([]Activity, 0, len(doc.Activities)), Deadline: doc.Deadline}
	for _, a := range doc.Activities {
		req.Activities = append(req.Activities, Activity{
			Name:        strings.TrimSpace(a.Name),
			Optimistic:  ctyScalar(a.Optimistic),
			MostLikely:  ctyScalar(a.MostLikely),
			Pessimistic: ctyScalar(a.Pessimistic),
			Precedents:  NormalizePrecedents(a.After),
		})
	}
	return req, nil
}

// ctyScalar renders a time attribute as text. Numbers keep their exact
// decimal form; anything that is not a number or string becomes its type
// name so that estimate validation reports it.
func ctyScalar(v cty.Value) string {
	switch {
	case v.IsNull() || !v.IsKnown():
		return ""
	case v.Type() == cty.Number:
		return v.AsBigFloat().Text('f', -1)
	case v.Type() == cty.String:
		return strings.TrimSpace(v.AsString())
	default:
		return v.Type().FriendlyName()
	}
}
