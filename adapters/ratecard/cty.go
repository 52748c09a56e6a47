package ratecard

import (
	"encoding/json"
	"fmt"
	"math/big"
	"sort"

	"github.com/zclconf/go-cty/cty"

	cqerrors "cleanquote/internal/errors"
)

// toGo converts an evaluated attribute into the document shape:
// numbers become json.Number, objects and maps become map[string]any.
// Unknown values are rejected; a rate card has no computed values.
func toGo(path string, val cty.Value) (any, error) {
	if !val.IsKnown() {
		return nil, cqerrors.MalformedConfig(fmt.Sprintf("%s: value is not known", path))
	}
	if val.IsNull() {
		return nil, nil
	}

	ty := val.Type()
	switch {
	case ty == cty.Number:
		return json.Number(val.AsBigFloat().Text('f', -1)), nil

	case ty == cty.String:
		return val.AsString(), nil

	case ty == cty.Bool:
		return val.True(), nil

	case ty.IsMapType() || ty.IsObjectType():
		out := make(map[string]any, val.LengthInt())
		iter := val.ElementIterator()
		for iter.Next() {
			k, v := iter.Element()
			key := k.AsString()
			conv, err := toGo(path+"."+key, v)
			if err != nil {
				return nil, err
			}
			out[key] = conv
		}
		return out, nil

	case ty.IsListType() || ty.IsTupleType() || ty.IsSetType():
		out := make([]any, 0, val.LengthInt())
		iter := val.ElementIterator()
		for iter.Next() {
			_, v := iter.Element()
			conv, err := toGo(path, v)
			if err != nil {
				return nil, err
			}
			out = append(out, conv)
		}
		return out, nil
	}

	return nil, cqerrors.MalformedConfig(fmt.Sprintf("%s: unsupported type %s", path, ty.FriendlyName()))
}

// toCty is the inverse of toGo for values found in rate documents
func toCty(v any) (cty.Value, error) {
	switch t := v.(type) {
	case nil:
		return cty.NullVal(cty.DynamicPseudoType), nil
	case json.Number:
		return cty.ParseNumberVal(t.String())
	case float64:
		return cty.NumberVal(new(big.Float).SetFloat64(t)), nil
	case int:
		return cty.NumberIntVal(int64(t)), nil
	case int64:
		return cty.NumberIntVal(t), nil
	case string:
		return cty.StringVal(t), nil
	case bool:
		return cty.BoolVal(t), nil
	case fmt.Stringer:
		// decimal.Decimal and friends
		return cty.ParseNumberVal(t.String())
	case map[string]any:
		if len(t) == 0 {
			return cty.EmptyObjectVal, nil
		}
		attrs := make(map[string]cty.Value, len(t))
		for _, k := range sortedKeys(t) {
			cv, err := toCty(t[k])
			if err != nil {
				return cty.NilVal, err
			}
			attrs[k] = cv
		}
		return cty.ObjectVal(attrs), nil
	case []any:
		if len(t) == 0 {
			return cty.EmptyTupleVal, nil
		}
		elems := make([]cty.Value, 0, len(t))
		for _, e := range t {
			cv, err := toCty(e)
			if err != nil {
				return cty.NilVal, err
			}
			elems = append(elems, cv)
		}
		return cty.TupleVal(elems), nil
	}
	return cty.NilVal, cqerrors.MalformedConfig(fmt.Sprintf("unsupported value %T", v))
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
