package wasmtime

import (
	wt "github.com/bytecodealliance/wasmtime-go/v28"

	"github.com/Wasm-Cell/wasmcell/internal/domain/wasmtype"
	"github.com/Wasm-Cell/wasmcell/internal/port/outbound"
)

// deriveExportTree walks a compiled component's top-level exports, turning
// wasmtime's component type descriptors into the engine-agnostic
// outbound.ExportNode tree the Schema Registry consumes.
func deriveExportTree(comp *wt.Component) ([]outbound.ExportNode, error) {
	ty := comp.Type()
	nodes := make([]outbound.ExportNode, 0, len(ty.Exports()))
	for _, exp := range ty.Exports() {
		node, err := exportToNode(exp)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

func exportToNode(exp wt.ComponentExport) (outbound.ExportNode, error) {
	switch exp.Kind() {
	case wt.ComponentExportKindFunc:
		sig, err := funcTypeToSignature(exp.Func())
		if err != nil {
			return outbound.ExportNode{}, err
		}
		return outbound.ExportNode{
			Kind:       outbound.NodeFunction,
			ExportName: exp.Name(),
			Signature:  sig,
		}, nil

	case wt.ComponentExportKindInstance, wt.ComponentExportKindComponent:
		kind := outbound.NodeInstance
		if exp.Kind() == wt.ComponentExportKindComponent {
			kind = outbound.NodeSubComponent
		}
		children := make([]outbound.ExportNode, 0, len(exp.Instance().Exports()))
		for _, child := range exp.Instance().Exports() {
			childNode, err := exportToNode(child)
			if err != nil {
				return outbound.ExportNode{}, err
			}
			children = append(children, childNode)
		}
		return outbound.ExportNode{
			Kind:       kind,
			ExportName: exp.Name(),
			Children:   children,
		}, nil

	case wt.ComponentExportKindCoreFunc:
		return outbound.ExportNode{Kind: outbound.NodeCoreFunction, ExportName: exp.Name()}, nil
	case wt.ComponentExportKindCoreModule:
		return outbound.ExportNode{Kind: outbound.NodeCoreModule, ExportName: exp.Name()}, nil
	case wt.ComponentExportKindType:
		return outbound.ExportNode{Kind: outbound.NodeType, ExportName: exp.Name()}, nil
	case wt.ComponentExportKindResourceType:
		return outbound.ExportNode{Kind: outbound.NodeResourceType, ExportName: exp.Name()}, nil
	default:
		return outbound.ExportNode{Kind: outbound.NodeType, ExportName: exp.Name()}, nil
	}
}

func funcTypeToSignature(ft wt.ComponentFuncType) (wasmtype.FuncSignature, error) {
	sig := wasmtype.FuncSignature{}
	for _, p := range ft.Params() {
		t, err := componentTypeToType(p.Type())
		if err != nil {
			return sig, err
		}
		sig.Params = append(sig.Params, wasmtype.NamedType{Name: p.Name(), Type: t})
	}
	for _, r := range ft.Results() {
		t, err := componentTypeToType(r)
		if err != nil {
			return sig, err
		}
		sig.Results = append(sig.Results, t)
	}
	return sig, nil
}
