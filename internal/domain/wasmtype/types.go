// Package wasmtype implements the Type Projector: pure, I/O-free mapping
// between the WebAssembly component model's type grammar and JSON, in both
// directions (schema generation and value marshaling).
package wasmtype

// Kind enumerates the component-model type grammar this package projects.
// Width (S8 vs S64, Float32 vs Float64, ...) is preserved on Kind because
// json_to_value needs it to coerce a JSON number to the declared width, even
// though type_to_schema collapses all of them to JSON "number" (spec §4.1).
type Kind int

const (
	Bool Kind = iota
	S8
	U8
	S16
	U16
	S32
	U32
	S64
	U64
	Float32
	Float64
	Char
	String
	List
	Record
	Tuple
	Variant
	Enum
	Option
	Result
	Flags
	Own
	Borrow
)

// Type is a node in a function's parameter/result type tree.
type Type struct {
	Kind Kind

	// List, Option: the single element type.
	Elem *Type

	// Record: field names in declaration order, parallel to Fields.
	FieldNames []string
	Fields     []Type

	// Tuple: element types in order.
	Elems []Type

	// Variant: case names in declaration order, parallel to CasePayloads.
	// A nil entry in CasePayloads means that case carries no payload.
	CaseNames    []string
	CasePayloads []*Type

	// Enum: case names, no payloads.
	EnumNames []string

	// Result: Ok/Err arm types; nil means that arm carries no value.
	Ok  *Type
	Err *Type

	// Flags: flag names in declaration order.
	FlagNames []string

	// Own, Borrow: the resource type name, used only for description text.
	ResourceName string
}

// NamedType pairs a declared parameter name with its type, preserving the
// declaration order a function signature requires (spec §3, Tool Descriptor).
type NamedType struct {
	Name string
	Type Type
}

// FuncSignature is a function export's full typed signature.
type FuncSignature struct {
	Params  []NamedType
	Results []Type
}

// Val is a typed component-model value, the output of json_to_value and the
// input to value_to_json. It mirrors Type's shape: exactly the fields for
// its Kind are meaningful.
type Val struct {
	Kind Kind

	Bool   bool
	Int    int64
	Uint   uint64
	Float  float64
	Char   rune
	Str    string
	List   []Val
	Fields map[string]Val // Record
	Elems  []Val           // Tuple

	// Variant: the selected case name and optional payload.
	CaseName string
	Payload  *Val

	// Enum: the selected case name.
	EnumName string

	// Option: nil means none.
	Some *Val

	// Result: exactly one of OkVal/ErrVal is set (the other nil), selected
	// by IsErr. Either may itself be nil if that arm carries no value.
	IsErr  bool
	OkVal  *Val
	ErrVal *Val

	// Flags: the set of flags that are on.
	SetFlags map[string]bool

	// Own, Borrow: an opaque resource handle description.
	Resource string
}
