package wasmtime

import (
	wt "github.com/bytecodealliance/wasmtime-go/v28"

	"github.com/Wasm-Cell/wasmcell/internal/adapter/outbound/httpfilter"
	"github.com/Wasm-Cell/wasmcell/internal/port/outbound"
)

// defineHTTPOutbound overrides wasi:http/outgoing-handler's send-request
// with a filtering wrapper, so every guest HTTP call passes through the
// HTTP Host Filter before wasmtime's own implementation ever dials a
// socket (spec §4.7).
func defineHTTPOutbound(linker *wt.ComponentLinker, allowed []outbound.HostContextAllowedHost) error {
	hosts := make([]string, 0, len(allowed))
	for _, h := range allowed {
		if h.Scheme == "" {
			hosts = append(hosts, h.Host)
			continue
		}
		hosts = append(hosts, h.Scheme+"://"+h.Host)
	}

	filter, err := httpfilter.New(hosts)
	if err != nil {
		return err
	}

	return linker.DefineWasiHTTPOutgoingHandler(func(requestURI string) error {
		return filter.Check(requestURI)
	})
}
