package wasmtime

import (
	"fmt"

	wt "github.com/bytecodealliance/wasmtime-go/v28"

	"github.com/Wasm-Cell/wasmcell/internal/domain/wasmtype"
)

// componentTypeToType maps a wasmtime component type descriptor onto our
// engine-agnostic wasmtype.Type, the inverse of funcTypeToSignature's use
// by the Schema Registry.
func componentTypeToType(ct wt.ComponentType) (wasmtype.Type, error) {
	switch ct.Kind() {
	case wt.ComponentKindBool:
		return wasmtype.Type{Kind: wasmtype.Bool}, nil
	case wt.ComponentKindS8:
		return wasmtype.Type{Kind: wasmtype.S8}, nil
	case wt.ComponentKindU8:
		return wasmtype.Type{Kind: wasmtype.U8}, nil
	case wt.ComponentKindS16:
		return wasmtype.Type{Kind: wasmtype.S16}, nil
	case wt.ComponentKindU16:
		return wasmtype.Type{Kind: wasmtype.U16}, nil
	case wt.ComponentKindS32:
		return wasmtype.Type{Kind: wasmtype.S32}, nil
	case wt.ComponentKindU32:
		return wasmtype.Type{Kind: wasmtype.U32}, nil
	case wt.ComponentKindS64:
		return wasmtype.Type{Kind: wasmtype.S64}, nil
	case wt.ComponentKindU64:
		return wasmtype.Type{Kind: wasmtype.U64}, nil
	case wt.ComponentKindFloat32:
		return wasmtype.Type{Kind: wasmtype.Float32}, nil
	case wt.ComponentKindFloat64:
		return wasmtype.Type{Kind: wasmtype.Float64}, nil
	case wt.ComponentKindChar:
		return wasmtype.Type{Kind: wasmtype.Char}, nil
	case wt.ComponentKindString:
		return wasmtype.Type{Kind: wasmtype.String}, nil
	case wt.ComponentKindList:
		elem, err := componentTypeToType(ct.ListElem())
		if err != nil {
			return wasmtype.Type{}, err
		}
		return wasmtype.Type{Kind: wasmtype.List, Elem: &elem}, nil
	case wt.ComponentKindOption:
		elem, err := componentTypeToType(ct.OptionElem())
		if err != nil {
			return wasmtype.Type{}, err
		}
		return wasmtype.Type{Kind: wasmtype.Option, Elem: &elem}, nil
	case wt.ComponentKindRecord:
		t := wasmtype.Type{Kind: wasmtype.Record}
		for _, f := range ct.RecordFields() {
			ft, err := componentTypeToType(f.Type())
			if err != nil {
				return wasmtype.Type{}, err
			}
			t.FieldNames = append(t.FieldNames, f.Name())
			t.Fields = append(t.Fields, ft)
		}
		return t, nil
	case wt.ComponentKindTuple:
		t := wasmtype.Type{Kind: wasmtype.Tuple}
		for _, e := range ct.TupleElems() {
			et, err := componentTypeToType(e)
			if err != nil {
				return wasmtype.Type{}, err
			}
			t.Elems = append(t.Elems, et)
		}
		return t, nil
	case wt.ComponentKindVariant:
		t := wasmtype.Type{Kind: wasmtype.Variant}
		for _, c := range ct.VariantCases() {
			t.CaseNames = append(t.CaseNames, c.Name())
			if c.Type() == nil {
				t.CasePayloads = append(t.CasePayloads, nil)
				continue
			}
			ct2, err := componentTypeToType(c.Type())
			if err != nil {
				return wasmtype.Type{}, err
			}
			t.CasePayloads = append(t.CasePayloads, &ct2)
		}
		return t, nil
	case wt.ComponentKindEnum:
		t := wasmtype.Type{Kind: wasmtype.Enum}
		t.EnumNames = append(t.EnumNames, ct.EnumCases()...)
		return t, nil
	case wt.ComponentKindResult:
		t := wasmtype.Type{Kind: wasmtype.Result}
		if ok := ct.ResultOk(); ok != nil {
			okT, err := componentTypeToType(ok)
			if err != nil {
				return wasmtype.Type{}, err
			}
			t.Ok = &okT
		}
		if errT := ct.ResultErr(); errT != nil {
			et, err := componentTypeToType(errT)
			if err != nil {
				return wasmtype.Type{}, err
			}
			t.Err = &et
		}
		return t, nil
	case wt.ComponentKindFlags:
		t := wasmtype.Type{Kind: wasmtype.Flags}
		t.FlagNames = append(t.FlagNames, ct.FlagsNames()...)
		return t, nil
	case wt.ComponentKindOwn:
		return wasmtype.Type{Kind: wasmtype.Own, ResourceName: ct.ResourceTypeName()}, nil
	case wt.ComponentKindBorrow:
		return wasmtype.Type{Kind: wasmtype.Borrow, ResourceName: ct.ResourceTypeName()}, nil
	default:
		return wasmtype.Type{}, fmt.Errorf("unsupported component type kind: %v", ct.Kind())
	}
}

// toWasmtimeVal marshals a wasmtype.Val into a wasmtime component Val for
// a function call argument.
func toWasmtimeVal(v wasmtype.Val) (wt.Val, error) {
	switch v.Kind {
	case wasmtype.Bool:
		return wt.ValBool(v.Bool), nil
	case wasmtype.S8, wasmtype.S16, wasmtype.S32, wasmtype.S64:
		return wt.ValS64(v.Int), nil
	case wasmtype.U8, wasmtype.U16, wasmtype.U32, wasmtype.U64:
		return wt.ValU64(v.Uint), nil
	case wasmtype.Float32, wasmtype.Float64:
		return wt.ValFloat64(v.Float), nil
	case wasmtype.Char:
		return wt.ValChar(v.Char), nil
	case wasmtype.String:
		return wt.ValString(v.Str), nil
	case wasmtype.List:
		elems := make([]wt.Val, 0, len(v.List))
		for _, e := range v.List {
			ev, err := toWasmtimeVal(e)
			if err != nil {
				return wt.Val{}, err
			}
			elems = append(elems, ev)
		}
		return wt.ValList(elems), nil
	case wasmtype.Record:
		fields := make(map[string]wt.Val, len(v.Fields))
		for k, fv := range v.Fields {
			cv, err := toWasmtimeVal(fv)
			if err != nil {
				return wt.Val{}, err
			}
			fields[k] = cv
		}
		return wt.ValRecord(fields), nil
	case wasmtype.Tuple:
		elems := make([]wt.Val, 0, len(v.Elems))
		for _, e := range v.Elems {
			ev, err := toWasmtimeVal(e)
			if err != nil {
				return wt.Val{}, err
			}
			elems = append(elems, ev)
		}
		return wt.ValTuple(elems), nil
	case wasmtype.Variant:
		var payload *wt.Val
		if v.Payload != nil {
			pv, err := toWasmtimeVal(*v.Payload)
			if err != nil {
				return wt.Val{}, err
			}
			payload = &pv
		}
		return wt.ValVariant(v.CaseName, payload), nil
	case wasmtype.Enum:
		return wt.ValEnum(v.EnumName), nil
	case wasmtype.Option:
		if v.Some == nil {
			return wt.ValOptionNone(), nil
		}
		sv, err := toWasmtimeVal(*v.Some)
		if err != nil {
			return wt.Val{}, err
		}
		return wt.ValOptionSome(sv), nil
	case wasmtype.Result:
		if !v.IsErr {
			if v.OkVal == nil {
				return wt.ValResultOk(nil), nil
			}
			ov, err := toWasmtimeVal(*v.OkVal)
			if err != nil {
				return wt.Val{}, err
			}
			return wt.ValResultOk(&ov), nil
		}
		if v.ErrVal == nil {
			return wt.ValResultErr(nil), nil
		}
		ev, err := toWasmtimeVal(*v.ErrVal)
		if err != nil {
			return wt.Val{}, err
		}
		return wt.ValResultErr(&ev), nil
	case wasmtype.Flags:
		names := make([]string, 0, len(v.SetFlags))
		for name, on := range v.SetFlags {
			if on {
				names = append(names, name)
			}
		}
		return wt.ValFlags(names), nil
	case wasmtype.Own, wasmtype.Borrow:
		return wt.Val{}, wasmtype.ErrResourceUninterpreted
	default:
		return wt.Val{}, fmt.Errorf("unsupported value kind: %v", v.Kind)
	}
}

// fromWasmtimeVal is the inverse of toWasmtimeVal, used on call results.
func fromWasmtimeVal(v wt.Val) (wasmtype.Val, error) {
	switch v.Kind() {
	case wt.ComponentKindBool:
		return wasmtype.Val{Kind: wasmtype.Bool, Bool: v.Bool()}, nil
	case wt.ComponentKindS8, wt.ComponentKindS16, wt.ComponentKindS32, wt.ComponentKindS64:
		return wasmtype.Val{Kind: wasmtype.S64, Int: v.S64()}, nil
	case wt.ComponentKindU8, wt.ComponentKindU16, wt.ComponentKindU32, wt.ComponentKindU64:
		return wasmtype.Val{Kind: wasmtype.U64, Uint: v.U64()}, nil
	case wt.ComponentKindFloat32, wt.ComponentKindFloat64:
		return wasmtype.Val{Kind: wasmtype.Float64, Float: v.Float64()}, nil
	case wt.ComponentKindChar:
		return wasmtype.Val{Kind: wasmtype.Char, Char: v.Char()}, nil
	case wt.ComponentKindString:
		return wasmtype.Val{Kind: wasmtype.String, Str: v.String()}, nil
	case wt.ComponentKindList:
		out := wasmtype.Val{Kind: wasmtype.List}
		for _, e := range v.List() {
			ev, err := fromWasmtimeVal(e)
			if err != nil {
				return wasmtype.Val{}, err
			}
			out.List = append(out.List, ev)
		}
		return out, nil
	case wt.ComponentKindRecord:
		out := wasmtype.Val{Kind: wasmtype.Record, Fields: map[string]wasmtype.Val{}}
		for k, fv := range v.Record() {
			cv, err := fromWasmtimeVal(fv)
			if err != nil {
				return wasmtype.Val{}, err
			}
			out.Fields[k] = cv
		}
		return out, nil
	case wt.ComponentKindTuple:
		out := wasmtype.Val{Kind: wasmtype.Tuple}
		for _, e := range v.Tuple() {
			ev, err := fromWasmtimeVal(e)
			if err != nil {
				return wasmtype.Val{}, err
			}
			out.Elems = append(out.Elems, ev)
		}
		return out, nil
	case wt.ComponentKindVariant:
		name, payload := v.Variant()
		out := wasmtype.Val{Kind: wasmtype.Variant, CaseName: name}
		if payload != nil {
			pv, err := fromWasmtimeVal(*payload)
			if err != nil {
				return wasmtype.Val{}, err
			}
			out.Payload = &pv
		}
		return out, nil
	case wt.ComponentKindEnum:
		return wasmtype.Val{Kind: wasmtype.Enum, EnumName: v.Enum()}, nil
	case wt.ComponentKindOption:
		some := v.Option()
		if some == nil {
			return wasmtype.Val{Kind: wasmtype.Option}, nil
		}
		sv, err := fromWasmtimeVal(*some)
		if err != nil {
			return wasmtype.Val{}, err
		}
		return wasmtype.Val{Kind: wasmtype.Option, Some: &sv}, nil
	case wt.ComponentKindResult:
		isErr, ok, errv := v.Result()
		out := wasmtype.Val{Kind: wasmtype.Result, IsErr: isErr}
		if !isErr && ok != nil {
			ov, err := fromWasmtimeVal(*ok)
			if err != nil {
				return wasmtype.Val{}, err
			}
			out.OkVal = &ov
		}
		if isErr && errv != nil {
			ev, err := fromWasmtimeVal(*errv)
			if err != nil {
				return wasmtype.Val{}, err
			}
			out.ErrVal = &ev
		}
		return out, nil
	case wt.ComponentKindFlags:
		set := map[string]bool{}
		for _, name := range v.Flags() {
			set[name] = true
		}
		return wasmtype.Val{Kind: wasmtype.Flags, SetFlags: set}, nil
	case wt.ComponentKindOwn, wt.ComponentKindBorrow:
		return wasmtype.Val{}, wasmtype.ErrResourceUninterpreted
	default:
		return wasmtype.Val{}, fmt.Errorf("unsupported wasmtime value kind: %v", v.Kind())
	}
}
