package wasmtype

// TypeToSchema maps a component-model Type to a JSON-Schema fragment, per
// spec §4.1. It never fails: every Kind has a defined projection.
func TypeToSchema(t Type) map[string]any {
	switch t.Kind {
	case Bool:
		return map[string]any{"type": "boolean"}
	case S8, U8, S16, U16, S32, U32, S64, U64, Float32, Float64:
		return map[string]any{"type": "number"}
	case Char:
		return map[string]any{"type": "string", "description": "1 unicode codepoint"}
	case String:
		return map[string]any{"type": "string"}
	case List:
		return map[string]any{"type": "array", "items": TypeToSchema(*t.Elem)}
	case Record:
		props := make(map[string]any, len(t.FieldNames))
		required := make([]any, 0, len(t.FieldNames))
		for i, name := range t.FieldNames {
			props[name] = TypeToSchema(t.Fields[i])
			required = append(required, name)
		}
		return map[string]any{"type": "object", "properties": props, "required": required}
	case Tuple:
		items := make([]any, len(t.Elems))
		for i, e := range t.Elems {
			items[i] = TypeToSchema(e)
		}
		return map[string]any{
			"type":       "array",
			"prefixItems": items,
			"minItems":   len(items),
			"maxItems":   len(items),
		}
	case Variant:
		oneOf := make([]any, 0, len(t.CaseNames))
		for i, name := range t.CaseNames {
			payload := t.CasePayloads[i]
			if payload == nil {
				oneOf = append(oneOf, map[string]any{
					"type": "object",
					"properties": map[string]any{
						"tag": map[string]any{"const": name},
					},
					"required": []any{"tag"},
				})
				continue
			}
			oneOf = append(oneOf, map[string]any{
				"type": "object",
				"properties": map[string]any{
					"tag": map[string]any{"const": name},
					"val": TypeToSchema(*payload),
				},
				"required": []any{"tag", "val"},
			})
		}
		return map[string]any{"oneOf": oneOf}
	case Enum:
		names := make([]any, len(t.EnumNames))
		for i, n := range t.EnumNames {
			names[i] = n
		}
		return map[string]any{"type": "string", "enum": names}
	case Option:
		return map[string]any{"anyOf": []any{
			map[string]any{"type": "null"},
			TypeToSchema(*t.Elem),
		}}
	case Result:
		okSchema := map[string]any{"type": "null"}
		if t.Ok != nil {
			okSchema = TypeToSchema(*t.Ok)
		}
		errSchema := map[string]any{"type": "null"}
		if t.Err != nil {
			errSchema = TypeToSchema(*t.Err)
		}
		return map[string]any{"oneOf": []any{
			map[string]any{
				"type":       "object",
				"properties": map[string]any{"ok": okSchema},
				"required":   []any{"ok"},
			},
			map[string]any{
				"type":       "object",
				"properties": map[string]any{"err": errSchema},
				"required":   []any{"err"},
			},
		}}
	case Flags:
		props := make(map[string]any, len(t.FlagNames))
		for _, f := range t.FlagNames {
			props[f] = map[string]any{"type": "boolean"}
		}
		return map[string]any{"type": "object", "properties": props}
	case Own:
		return map[string]any{"type": "string", "description": "own'd resource: " + t.ResourceName}
	case Borrow:
		return map[string]any{"type": "string", "description": "borrow'd resource: " + t.ResourceName}
	default:
		return map[string]any{"type": "string"}
	}
}
