// Package engine loads a transaction library into a wazero runtime.
//
// The library is a core WebAssembly module that exports one function per
// operation with the shape (request_ptr i32) -> response_ptr i32, an
// allocator, a free function and its linear memory.
//
// # Architecture
//
//	Engine   - owns the wazero runtime and optional WASI preview1 host module
//	Module   - a compiled library; safe for concurrent use
//	Instance - a running library with its own memory; implements bridge.Foreign
//
// # Allocator Resolution
//
// Unless Config names the exports, the allocator is the first of
// __transaction_lib_alloc, toolkit_alloc and cabi_realloc that is exported,
// and free is the first of __transaction_lib_free, toolkit_free and
// cabi_free. Allocators may take (size), (size, align) or the canonical
// (old_ptr, old_size, align, new_size). Free may take (ptr), (ptr, size)
// or (ptr, size, align). A library exporting only cabi_realloc is freed by
// reallocating to zero bytes.
//
// # Thread Safety
//
// Engine and Module are safe for concurrent use.
// Instance is NOT thread-safe and should be used by a single goroutine.
package engine
