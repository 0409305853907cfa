package wasmtype

import (
	"encoding/json"
	"errors"
	"testing"
)

func strPtr(t Type) *Type { return &t }

func TestJSONToValueRoundTripPrimitives(t *testing.T) {
	cases := []struct {
		name string
		typ  Type
		json any
	}{
		{"bool", Type{Kind: Bool}, true},
		{"s32", Type{Kind: S32}, float64(42)},
		{"u64", Type{Kind: U64}, float64(9007199254740993)},
		{"float64", Type{Kind: Float64}, float64(3.5)},
		{"string", Type{Kind: String}, "hello"},
		{"char", Type{Kind: Char}, "x"},
		{"list", Type{Kind: List, Elem: strPtr(Type{Kind: S32})}, []any{float64(1), float64(2), float64(3)}},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			v, err := JSONToValue(c.json, c.typ)
			if err != nil {
				t.Fatalf("JSONToValue: %v", err)
			}
			back, err := ValueToJSON(v)
			if err != nil {
				t.Fatalf("ValueToJSON: %v", err)
			}
			if arr, ok := c.json.([]any); ok {
				backArr, ok := back.([]any)
				if !ok || len(backArr) != len(arr) {
					t.Fatalf("round-trip mismatch: got %#v, want %#v", back, c.json)
				}
				return
			}
			// Compare as encoded JSON: ValueToJSON returns int64 for integer
			// kinds while the decoded input number is float64.
			gotJSON, err := json.Marshal(back)
			if err != nil {
				t.Fatalf("marshal result: %v", err)
			}
			wantJSON, err := json.Marshal(c.json)
			if err != nil {
				t.Fatalf("marshal input: %v", err)
			}
			if string(gotJSON) != string(wantJSON) {
				t.Fatalf("round-trip mismatch: got %s, want %s", gotJSON, wantJSON)
			}
		})
	}
}

func TestJSONToValueNullBecomesOptionNone(t *testing.T) {
	v, err := JSONToValue(nil, Type{Kind: Option, Elem: strPtr(Type{Kind: String})})
	if err != nil {
		t.Fatalf("JSONToValue: %v", err)
	}
	if v.Kind != Option || v.Some != nil {
		t.Fatalf("expected option(none), got %#v", v)
	}
	back, err := ValueToJSON(v)
	if err != nil {
		t.Fatalf("ValueToJSON: %v", err)
	}
	if back != nil {
		t.Fatalf("expected nil back, got %#v", back)
	}
}

func TestJSONToValueIntegralVsFractional(t *testing.T) {
	if _, err := JSONToValue(float64(2.5), Type{Kind: S32}); !errors.Is(err, ErrCannotInterpretNumber) {
		t.Fatalf("expected ErrCannotInterpretNumber, got %v", err)
	}
	v, err := JSONToValue(float64(2), Type{Kind: S32})
	if err != nil || v.Int != 2 {
		t.Fatalf("expected integral 2, got %#v, err=%v", v, err)
	}
}

func TestJSONToValueInvalidChar(t *testing.T) {
	if _, err := JSONToValue("ab", Type{Kind: Char}); !errors.Is(err, ErrInvalidChar) {
		t.Fatalf("expected ErrInvalidChar, got %v", err)
	}
}

func TestResultOkErrExactlyOneKey(t *testing.T) {
	okType := Type{Kind: Result, Ok: strPtr(Type{Kind: String})}
	v, err := JSONToValue(map[string]any{"ok": "done"}, okType)
	if err != nil {
		t.Fatalf("JSONToValue: %v", err)
	}
	if v.IsErr || v.OkVal == nil || v.OkVal.Str != "done" {
		t.Fatalf("unexpected result value: %#v", v)
	}

	if _, err := JSONToValue(map[string]any{"ok": "a", "err": "b"}, okType); !errors.Is(err, ErrUnknownObjectShape) {
		t.Fatalf("expected ErrUnknownObjectShape for two keys, got %v", err)
	}
}

func TestVariantUnknownCase(t *testing.T) {
	typ := Type{Kind: Variant, CaseNames: []string{"a", "b"}, CasePayloads: []*Type{nil, nil}}
	if _, err := JSONToValue(map[string]any{"tag": "c"}, typ); !errors.Is(err, ErrUnknownObjectShape) {
		t.Fatalf("expected ErrUnknownObjectShape, got %v", err)
	}
}

func TestResourceCannotBeInterpretedFromJSON(t *testing.T) {
	typ := Type{Kind: Own, ResourceName: "handle"}
	if _, err := JSONToValue("opaque", typ); !errors.Is(err, ErrResourceUninterpreted) {
		t.Fatalf("expected ErrResourceUninterpreted, got %v", err)
	}
}

func TestValsToJSONArity(t *testing.T) {
	j, err := ValsToJSON(nil)
	if err != nil || j != nil {
		t.Fatalf("expected nil for zero vals, got %#v, err=%v", j, err)
	}

	j, err = ValsToJSON([]Val{{Kind: String, Str: "solo"}})
	if err != nil || j != "solo" {
		t.Fatalf("expected bare value for one val, got %#v, err=%v", j, err)
	}

	j, err = ValsToJSON([]Val{{Kind: String, Str: "a"}, {Kind: String, Str: "b"}})
	if err != nil {
		t.Fatalf("ValsToJSON: %v", err)
	}
	m, ok := j.(map[string]any)
	if !ok || m["val0"] != "a" || m["val1"] != "b" {
		t.Fatalf("expected {val0,val1} map, got %#v", j)
	}
}

func TestTypeToSchemaVariantOmitsValWhenNoPayload(t *testing.T) {
	typ := Type{Kind: Variant, CaseNames: []string{"none"}, CasePayloads: []*Type{nil}}
	schema := TypeToSchema(typ)
	oneOf, ok := schema["oneOf"].([]any)
	if !ok || len(oneOf) != 1 {
		t.Fatalf("expected one case, got %#v", schema)
	}
	caseSchema := oneOf[0].(map[string]any)
	props := caseSchema["properties"].(map[string]any)
	if _, hasVal := props["val"]; hasVal {
		t.Fatalf("expected no val property for payload-less case, got %#v", caseSchema)
	}
}
