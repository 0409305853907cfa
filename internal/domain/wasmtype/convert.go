package wasmtype

import (
	"fmt"
	"math"
)

// JSONToValue converts a decoded JSON value (as produced by encoding/json's
// default unmarshal-into-any: map[string]any, []any, string, float64, bool,
// nil) into a typed component value, per spec §4.1.
func JSONToValue(j any, t Type) (Val, error) {
	switch t.Kind {
	case Bool:
		b, ok := j.(bool)
		if !ok {
			return Val{}, fmt.Errorf("%w: expected bool", ErrUnknownObjectShape)
		}
		return Val{Kind: Bool, Bool: b}, nil

	case S8, U8, S16, U16, S32, U32, S64, U64:
		f, ok := j.(float64)
		if !ok {
			return Val{}, fmt.Errorf("%w: expected integer", ErrCannotInterpretNumber)
		}
		if f != math.Trunc(f) {
			return Val{}, fmt.Errorf("%w: %v is not integral", ErrCannotInterpretNumber, f)
		}
		return Val{Kind: t.Kind, Int: int64(f)}, nil

	case Float32, Float64:
		f, ok := j.(float64)
		if !ok {
			return Val{}, fmt.Errorf("%w: expected number", ErrCannotInterpretNumber)
		}
		return Val{Kind: t.Kind, Float: f}, nil

	case Char:
		s, ok := j.(string)
		if !ok {
			return Val{}, fmt.Errorf("%w: expected 1-rune string", ErrInvalidChar)
		}
		runes := []rune(s)
		if len(runes) != 1 {
			return Val{}, fmt.Errorf("%w: %q is not exactly one codepoint", ErrInvalidChar, s)
		}
		return Val{Kind: Char, Char: runes[0]}, nil

	case String:
		s, ok := j.(string)
		if !ok {
			return Val{}, fmt.Errorf("%w: expected string", ErrUnknownObjectShape)
		}
		return Val{Kind: String, Str: s}, nil

	case List:
		arr, ok := j.([]any)
		if !ok {
			return Val{}, fmt.Errorf("%w: expected array", ErrUnknownObjectShape)
		}
		out := make([]Val, len(arr))
		for i, elem := range arr {
			v, err := JSONToValue(elem, *t.Elem)
			if err != nil {
				return Val{}, err
			}
			out[i] = v
		}
		return Val{Kind: List, List: out}, nil

	case Record:
		obj, ok := j.(map[string]any)
		if !ok {
			return Val{}, fmt.Errorf("%w: expected object", ErrUnknownObjectShape)
		}
		fields := make(map[string]Val, len(t.FieldNames))
		for i, name := range t.FieldNames {
			raw, present := obj[name]
			if !present {
				return Val{}, fmt.Errorf("%w: missing field %q", ErrUnknownObjectShape, name)
			}
			v, err := JSONToValue(raw, t.Fields[i])
			if err != nil {
				return Val{}, err
			}
			fields[name] = v
		}
		return Val{Kind: Record, Fields: fields}, nil

	case Tuple:
		arr, ok := j.([]any)
		if !ok || len(arr) != len(t.Elems) {
			return Val{}, fmt.Errorf("%w: expected %d-tuple", ErrUnknownObjectShape, len(t.Elems))
		}
		out := make([]Val, len(arr))
		for i, elem := range arr {
			v, err := JSONToValue(elem, t.Elems[i])
			if err != nil {
				return Val{}, err
			}
			out[i] = v
		}
		return Val{Kind: Tuple, Elems: out}, nil

	case Variant:
		obj, ok := j.(map[string]any)
		if !ok {
			return Val{}, fmt.Errorf("%w: expected {tag, val?} object", ErrUnknownObjectShape)
		}
		tag, ok := obj["tag"].(string)
		if !ok {
			return Val{}, fmt.Errorf("%w: missing tag", ErrUnknownObjectShape)
		}
		idx := -1
		for i, name := range t.CaseNames {
			if name == tag {
				idx = i
				break
			}
		}
		if idx < 0 {
			return Val{}, fmt.Errorf("%w: unknown variant case %q", ErrUnknownObjectShape, tag)
		}
		payloadType := t.CasePayloads[idx]
		if payloadType == nil {
			return Val{Kind: Variant, CaseName: tag}, nil
		}
		raw, present := obj["val"]
		if !present {
			return Val{}, fmt.Errorf("%w: variant case %q requires val", ErrUnknownObjectShape, tag)
		}
		payload, err := JSONToValue(raw, *payloadType)
		if err != nil {
			return Val{}, err
		}
		return Val{Kind: Variant, CaseName: tag, Payload: &payload}, nil

	case Enum:
		s, ok := j.(string)
		if !ok {
			return Val{}, fmt.Errorf("%w: expected enum string", ErrUnknownObjectShape)
		}
		found := false
		for _, name := range t.EnumNames {
			if name == s {
				found = true
				break
			}
		}
		if !found {
			return Val{}, fmt.Errorf("%w: unknown enum case %q", ErrUnknownObjectShape, s)
		}
		return Val{Kind: Enum, EnumName: s}, nil

	case Option:
		if j == nil {
			return Val{Kind: Option}, nil
		}
		v, err := JSONToValue(j, *t.Elem)
		if err != nil {
			return Val{}, err
		}
		return Val{Kind: Option, Some: &v}, nil

	case Result:
		obj, ok := j.(map[string]any)
		if !ok || len(obj) != 1 {
			return Val{}, fmt.Errorf("%w: expected exactly one of {ok} or {err}", ErrUnknownObjectShape)
		}
		if raw, present := obj["ok"]; present {
			if t.Ok == nil {
				return Val{Kind: Result, IsErr: false}, nil
			}
			if raw == nil {
				return Val{Kind: Result, IsErr: false}, nil
			}
			v, err := JSONToValue(raw, *t.Ok)
			if err != nil {
				return Val{}, err
			}
			return Val{Kind: Result, IsErr: false, OkVal: &v}, nil
		}
		if raw, present := obj["err"]; present {
			if t.Err == nil || raw == nil {
				return Val{Kind: Result, IsErr: true}, nil
			}
			v, err := JSONToValue(raw, *t.Err)
			if err != nil {
				return Val{}, err
			}
			return Val{Kind: Result, IsErr: true, ErrVal: &v}, nil
		}
		return Val{}, fmt.Errorf("%w: expected exactly one of {ok} or {err}", ErrUnknownObjectShape)

	case Flags:
		obj, ok := j.(map[string]any)
		if !ok {
			return Val{}, fmt.Errorf("%w: expected flags object", ErrUnknownObjectShape)
		}
		set := make(map[string]bool)
		for _, name := range t.FlagNames {
			if b, _ := obj[name].(bool); b {
				set[name] = true
			}
		}
		return Val{Kind: Flags, SetFlags: set}, nil

	case Own, Borrow:
		return Val{}, ErrResourceUninterpreted

	default:
		return Val{}, fmt.Errorf("%w: unhandled kind %d", ErrUnknownObjectShape, t.Kind)
	}
}

// ValueToJSON converts a typed component value back to a JSON-ready Go value
// (map[string]any, []any, string, float64, int64, bool, nil), per spec §4.1.
func ValueToJSON(v Val) (any, error) {
	switch v.Kind {
	case Bool:
		return v.Bool, nil
	case S8, U8, S16, U16, S32, U32, S64, U64:
		return v.Int, nil
	case Float32, Float64:
		if math.IsNaN(v.Float) {
			return fmt.Sprintf("%v", v.Float), nil
		}
		return v.Float, nil
	case Char:
		return string(v.Char), nil
	case String:
		return v.Str, nil
	case List:
		out := make([]any, len(v.List))
		for i, elem := range v.List {
			j, err := ValueToJSON(elem)
			if err != nil {
				return nil, err
			}
			out[i] = j
		}
		return out, nil
	case Record:
		out := make(map[string]any, len(v.Fields))
		for name, elem := range v.Fields {
			j, err := ValueToJSON(elem)
			if err != nil {
				return nil, err
			}
			out[name] = j
		}
		return out, nil
	case Tuple:
		out := make([]any, len(v.Elems))
		for i, elem := range v.Elems {
			j, err := ValueToJSON(elem)
			if err != nil {
				return nil, err
			}
			out[i] = j
		}
		return out, nil
	case Variant:
		out := map[string]any{"tag": v.CaseName}
		if v.Payload != nil {
			j, err := ValueToJSON(*v.Payload)
			if err != nil {
				return nil, err
			}
			out["val"] = j
		}
		return out, nil
	case Enum:
		return v.EnumName, nil
	case Option:
		if v.Some == nil {
			return nil, nil
		}
		return ValueToJSON(*v.Some)
	case Result:
		if v.IsErr {
			var inner any
			if v.ErrVal != nil {
				j, err := ValueToJSON(*v.ErrVal)
				if err != nil {
					return nil, err
				}
				inner = j
			}
			return map[string]any{"err": inner}, nil
		}
		var inner any
		if v.OkVal != nil {
			j, err := ValueToJSON(*v.OkVal)
			if err != nil {
				return nil, err
			}
			inner = j
		}
		return map[string]any{"ok": inner}, nil
	case Flags:
		out := make([]any, 0, len(v.SetFlags))
		for name, on := range v.SetFlags {
			if on {
				out = append(out, name)
			}
		}
		return out, nil
	case Own, Borrow:
		return v.Resource, nil
	default:
		return nil, fmt.Errorf("%w: unhandled kind %d", ErrUnknownObjectShape, v.Kind)
	}
}

// ValsToJSON implements vals_to_json from spec §4.1: zero values project to
// JSON null, one value projects to its own JSON, more than one project to
// {val0:..., val1:...}.
func ValsToJSON(vals []Val) (any, error) {
	switch len(vals) {
	case 0:
		return nil, nil
	case 1:
		return ValueToJSON(vals[0])
	default:
		out := make(map[string]any, len(vals))
		for i, v := range vals {
			j, err := ValueToJSON(v)
			if err != nil {
				return nil, err
			}
			out[fmt.Sprintf("val%d", i)] = j
		}
		return out, nil
	}
}
