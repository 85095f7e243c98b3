package engine

import "github.com/tetratelabs/wazero/api"

// Allocator and free exports, tried in order when the config names none.
const (
	TransactionLibAlloc = "__transaction_lib_alloc"
	TransactionLibFree  = "__transaction_lib_free"

	toolkitAlloc = "toolkit_alloc"
	toolkitFree  = "toolkit_free"

	CabiRealloc = "cabi_realloc"
	CabiFree    = "cabi_free"

	// MemoryExport is the name the library exports its linear memory under.
	MemoryExport = "memory"
)

var (
	allocCandidates = []string{TransactionLibAlloc, toolkitAlloc, CabiRealloc}
	freeCandidates  = []string{TransactionLibFree, toolkitFree, CabiFree}
)

// allocABI is the calling convention of a resolved allocator export.
type allocABI int

const (
	allocSize    allocABI = iota // (size) -> ptr
	allocAligned                 // (size, align) -> ptr
	allocRealloc                 // (old_ptr, old_size, align, new_size) -> ptr
)

func classifyAlloc(def api.FunctionDefinition) (allocABI, bool) {
	if len(def.ResultTypes()) != 1 || !allI32(def.ResultTypes()) || !allI32(def.ParamTypes()) {
		return 0, false
	}
	switch len(def.ParamTypes()) {
	case 1:
		return allocSize, true
	case 2:
		return allocAligned, true
	case 4:
		return allocRealloc, true
	}
	return 0, false
}

// validFree accepts (ptr), (ptr, size) and (ptr, size, align).
func validFree(def api.FunctionDefinition) bool {
	n := len(def.ParamTypes())
	return n >= 1 && n <= 3 && len(def.ResultTypes()) == 0 && allI32(def.ParamTypes())
}

// validOperation accepts the (ptr) -> ptr shape of every library operation.
func validOperation(def api.FunctionDefinition) bool {
	return len(def.ParamTypes()) == 1 && len(def.ResultTypes()) == 1 &&
		allI32(def.ParamTypes()) && allI32(def.ResultTypes())
}

func allI32(types []api.ValueType) bool {
	for _, t := range types {
		if t != api.ValueTypeI32 {
			return false
		}
	}
	return true
}

// defaultAlign is passed to allocators that take an alignment.
const defaultAlign = 1
