// Package txtoolkit is a Go client for a precompiled transaction library
// shipped as a core WebAssembly module.
//
// The library compiles, decompiles and converts ledger transaction manifests
// and intents. Every exported function takes a pointer to a NUL-terminated
// JSON request in the module's linear memory and returns a pointer to a
// NUL-terminated JSON response. This module owns the Go side of that
// boundary: the typed value and instruction model, a manifest builder, the
// request/response schema, and the marshalling bridge.
//
// # Architecture Overview
//
//	txtoolkit/         Root package with Memory, Allocator and HexBytes
//	├── errors/        Wire error taxonomy plus local error context
//	├── value/         Tagged-union ledger values and their JSON encoding
//	├── instruction/   Manifest instructions over typed values
//	├── manifest/      Manifest builder and manifest representations
//	├── transaction/   Headers, intents, signatures and signing
//	├── schema/        Request/response envelopes for every operation
//	├── bridge/        JSON marshalling across WASM linear memory
//	├── engine/        wazero loader and instance implementing bridge.Foreign
//	└── service/       High-level API with instance pooling
//
// # Quick Start
//
//	svc, err := service.NewFromFile(ctx, "transaction_library.wasm", nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer svc.Close(ctx)
//
//	info, err := svc.Information(ctx)
//	fmt.Println(info.PackageVersion)
//
//	instructions := manifest.NewBuilder().
//	    CallMethod(account, "lock_fee", value.NewDecimal("10")).
//	    CallMethod(faucet, "free_xrd").
//	    TakeFromWorktop(xrd, value.ID("bucket")).
//	    Build()
//
// # Thread Safety
//
// A bridge serialises calls into its module instance; linear memory offsets
// from one call must never interleave with another. service.Service keeps a
// pool of instances so concurrent callers do not queue behind a single one.
package txtoolkit
