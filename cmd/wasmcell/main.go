// Command wasmcell is the CLI entry point for the WasmCell host.
package main

import "github.com/Wasm-Cell/wasmcell/cmd/wasmcell/cmd"

func main() {
	cmd.Execute()
}
