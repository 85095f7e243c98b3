package engine

import (
	"context"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
)

// wasiModuleName is the import module of WASI preview1.
const wasiModuleName = wasi_snapshot_preview1.ModuleName

// InstantiateWASI instantiates WASI preview1 into r. Libraries built for
// wasm32-wasi import it for their allocator and panic output even though
// no operation touches files or the network.
func InstantiateWASI(ctx context.Context, r wazero.Runtime) (api.Module, error) {
	builder := r.NewHostModuleBuilder(wasiModuleName)
	wasi_snapshot_preview1.NewFunctionExporter().ExportFunctions(builder)
	return builder.Instantiate(ctx)
}
