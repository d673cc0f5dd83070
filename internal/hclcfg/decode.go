package hclcfg

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// decodeStringMap evaluates an object-valued expression and converts every
// element to a string. Manifest authors may write bools or numbers as map
// values ("shared = true"); those are normalized to their string form so the
// rest of the system deals only in string mappings. A nil or absent
// expression yields nil.
func decodeStringMap(expr hcl.Expression) (map[string]string, error) {
	if expr == nil {
		return nil, nil
	}

	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to evaluate expression: %w", diags)
	}
	if val.IsNull() {
		return nil, nil
	}
	if !val.Type().IsObjectType() && !val.Type().IsMapType() {
		return nil, fmt.Errorf("expected a map, got %s", val.Type().FriendlyName())
	}

	out := make(map[string]string, val.LengthInt())
	for it := val.ElementIterator(); it.Next(); {
		k, v := it.Element()
		strVal, err := convert.Convert(v, cty.String)
		if err != nil {
			return nil, fmt.Errorf("value for %q is not convertible to string: %w", k.AsString(), err)
		}
		if strVal.IsNull() {
			return nil, fmt.Errorf("value for %q is null", k.AsString())
		}
		out[k.AsString()] = strVal.AsString()
	}
	return out, nil
}
