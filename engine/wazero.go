package engine

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	txtoolkit "github.com/wippyai/transaction-toolkit"
	"github.com/wippyai/transaction-toolkit/errors"
)

// Engine owns a wazero runtime shared by every module it loads.
type Engine struct {
	runtime      wazero.Runtime
	cfg          Config
	wasiInitMu   sync.Mutex
	wasiInitDone atomic.Bool
}

// Config holds configuration for engine creation
type Config struct {
	// MemoryLimitPages sets the maximum memory per instance in pages (64KB each).
	// 0 means default (65536 pages = 4GB).
	// 256 = 16MB, 1024 = 64MB, 4096 = 256MB
	MemoryLimitPages uint32

	// EnableWASI instantiates WASI preview1 before the first instance is
	// created. Libraries compiled for wasm32-wasi need it.
	EnableWASI bool

	// CloseOnContextDone aborts running calls when their context is done.
	CloseOnContextDone bool

	// AllocExport and FreeExport override the allocator exports. Empty means
	// the standard names are tried in order.
	AllocExport string
	FreeExport  string
}

// NewEngine creates a new wazero-based engine. A nil cfg uses defaults.
func NewEngine(ctx context.Context, cfg *Config) (*Engine, error) {
	runtimeCfg := wazero.NewRuntimeConfig()

	e := &Engine{}
	if cfg != nil {
		e.cfg = *cfg
		if cfg.MemoryLimitPages > 0 {
			runtimeCfg = runtimeCfg.WithMemoryLimitPages(cfg.MemoryLimitPages)
		}
		if cfg.CloseOnContextDone {
			runtimeCfg = runtimeCfg.WithCloseOnContextDone(true)
		}
	}

	e.runtime = wazero.NewRuntimeWithConfig(ctx, runtimeCfg)
	return e, nil
}

// Load compiles a transaction library.
func (e *Engine) Load(ctx context.Context, wasmBytes []byte) (*Module, error) {
	if len(wasmBytes) == 0 {
		return nil, errors.Load("empty module", nil)
	}
	compiled, err := e.runtime.CompileModule(ctx, wasmBytes)
	if err != nil {
		return nil, errors.Load("compile module", err)
	}
	Logger().Debug("module compiled",
		zap.Int("bytes", len(wasmBytes)),
		zap.Int("exports", len(compiled.ExportedFunctions())))
	return &Module{engine: e, compiled: compiled}, nil
}

func (e *Engine) Close(ctx context.Context) error {
	return e.runtime.Close(ctx)
}

// InitWASI instantiates the WASI singleton for this engine's runtime.
// Safe for concurrent calls from multiple modules sharing the same engine.
func (e *Engine) InitWASI(ctx context.Context) error {
	if e.wasiInitDone.Load() {
		return nil
	}

	e.wasiInitMu.Lock()
	defer e.wasiInitMu.Unlock()

	if e.wasiInitDone.Load() {
		return nil
	}

	if e.runtime.Module(wasiModuleName) != nil {
		e.wasiInitDone.Store(true)
		return nil
	}

	if _, err := InstantiateWASI(ctx, e.runtime); err != nil {
		if e.runtime.Module(wasiModuleName) == nil {
			return errors.Instantiation(fmt.Errorf("instantiate WASI: %w", err))
		}
	}

	e.wasiInitDone.Store(true)
	return nil
}

// Module is a compiled transaction library. It is safe for concurrent use
// and can create any number of instances.
type Module struct {
	engine   *Engine
	compiled wazero.CompiledModule
}

// ExportNames returns the names of all exported functions, sorted.
func (m *Module) ExportNames() []string {
	defs := m.compiled.ExportedFunctions()
	names := make([]string, 0, len(defs))
	for name := range defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HasExport reports whether the module exports a function called name.
func (m *Module) HasExport(name string) bool {
	_, ok := m.compiled.ExportedFunctions()[name]
	return ok
}

// Close releases the compiled code.
func (m *Module) Close(ctx context.Context) error {
	return m.compiled.Close(ctx)
}

// Instantiate creates an instance with its own linear memory.
func (m *Module) Instantiate(ctx context.Context) (*Instance, error) {
	if m.engine.cfg.EnableWASI {
		if err := m.engine.InitWASI(ctx); err != nil {
			return nil, err
		}
	}

	// Anonymous so instances can be created in parallel. Reactor-style
	// libraries export _initialize; missing start functions are skipped.
	modConfig := wazero.NewModuleConfig().
		WithName("").
		WithStartFunctions("_initialize")

	mod, err := m.engine.runtime.InstantiateModule(ctx, m.compiled, modConfig)
	if err != nil {
		return nil, errors.Instantiation(err)
	}

	inst, err := newInstance(mod, m.engine.cfg)
	if err != nil {
		mod.Close(ctx)
		return nil, err
	}
	return inst, nil
}

// Instance is a running transaction library. It implements bridge.Foreign.
// It is NOT safe for concurrent use; the bridge serialises calls.
type Instance struct {
	module    api.Module
	memory    api.Memory
	alloc     *wazeroAllocator
	funcCache map[string]api.Function
	stackBuf  []uint64
	cacheMu   sync.RWMutex
}

func newInstance(mod api.Module, cfg Config) (*Instance, error) {
	mem := mod.ExportedMemory(MemoryExport)
	if mem == nil {
		mem = mod.Memory()
	}
	if mem == nil {
		return nil, errors.NotFound(errors.PhaseRuntime, "memory export", MemoryExport)
	}

	alloc, err := resolveAllocator(mod, cfg)
	if err != nil {
		return nil, err
	}

	return &Instance{
		module:    mod,
		memory:    mem,
		alloc:     alloc,
		funcCache: make(map[string]api.Function),
		stackBuf:  make([]uint64, 4),
	}, nil
}

func resolveAllocator(mod api.Module, cfg Config) (*wazeroAllocator, error) {
	defs := mod.ExportedFunctionDefinitions()

	allocNames := allocCandidates
	if cfg.AllocExport != "" {
		allocNames = []string{cfg.AllocExport}
	}
	a := &wazeroAllocator{stackBuf: make([]uint64, 4)}
	for _, name := range allocNames {
		def, ok := defs[name]
		if !ok {
			continue
		}
		abi, ok := classifyAlloc(def)
		if !ok {
			return nil, errors.New(errors.PhaseRuntime, errors.TagRequestResponseConversionError).
				Kind(errors.KindTypeMismatch).
				Path(name).
				Message("allocator export %s has an unsupported signature", name).
				Build()
		}
		a.allocFn, a.allocABI = mod.ExportedFunction(name), abi
		debugf("allocator %s abi=%d", name, abi)
		break
	}
	if a.allocFn == nil {
		return nil, errors.NotFound(errors.PhaseRuntime, "allocator export", allocNames[0])
	}

	freeNames := freeCandidates
	if cfg.FreeExport != "" {
		freeNames = []string{cfg.FreeExport}
	}
	for _, name := range freeNames {
		def, ok := defs[name]
		if !ok {
			continue
		}
		if !validFree(def) {
			return nil, errors.New(errors.PhaseRuntime, errors.TagRequestResponseConversionError).
				Kind(errors.KindTypeMismatch).
				Path(name).
				Message("free export %s has an unsupported signature", name).
				Build()
		}
		a.freeFn, a.freeParams = mod.ExportedFunction(name), len(def.ParamTypes())
		break
	}
	// cabi_realloc doubles as free when shrinking to zero.
	if a.freeFn == nil && a.allocABI != allocRealloc {
		return nil, errors.NotFound(errors.PhaseRuntime, "free export", freeNames[0])
	}
	return a, nil
}

// MemorySize returns the current linear memory size in bytes.
func (i *Instance) MemorySize() uint32 {
	if i.memory == nil {
		return 0
	}
	return i.memory.Size()
}

// Memory returns a view over the instance's linear memory.
func (i *Instance) Memory() txtoolkit.Memory {
	if i.memory == nil {
		return nil
	}
	return &wazeroMemory{mem: i.memory}
}

// Allocator returns the instance's allocator bound to ctx.
func (i *Instance) Allocator(ctx context.Context) txtoolkit.Allocator {
	i.alloc.setContext(ctx)
	return i.alloc
}

func (i *Instance) Alloc(ctx context.Context, size uint32) (uint32, error) {
	if i.module == nil {
		return 0, errors.NotInitialized(errors.PhaseRuntime, "instance")
	}
	return i.Allocator(ctx).Alloc(size)
}

func (i *Instance) Free(ctx context.Context, ptr, size uint32) error {
	if i.module == nil {
		return errors.NotInitialized(errors.PhaseRuntime, "instance")
	}
	return i.Allocator(ctx).Free(ptr, size)
}

// Call invokes an operation export with the request offset and returns the
// response offset.
func (i *Instance) Call(ctx context.Context, name string, ptr uint32) (uint32, error) {
	if i.module == nil {
		return 0, errors.NotInitialized(errors.PhaseRuntime, "instance")
	}
	fn, err := i.operation(name)
	if err != nil {
		return 0, err
	}

	i.stackBuf[0] = uint64(ptr)
	if err := fn.CallWithStack(ctx, i.stackBuf[:1]); err != nil {
		return 0, errors.CallFailed(name, err)
	}
	return uint32(i.stackBuf[0]), nil
}

func (i *Instance) operation(name string) (api.Function, error) {
	i.cacheMu.RLock()
	fn, ok := i.funcCache[name]
	i.cacheMu.RUnlock()
	if ok {
		return fn, nil
	}

	fn = i.module.ExportedFunction(name)
	if fn == nil {
		return nil, errors.NotFound(errors.PhaseRuntime, "export", name)
	}
	if !validOperation(fn.Definition()) {
		return nil, errors.New(errors.PhaseRuntime, errors.TagRequestResponseConversionError).
			Kind(errors.KindTypeMismatch).
			Path(name).
			Message("export %s does not have the (i32) -> i32 shape", name).
			Build()
	}

	i.cacheMu.Lock()
	i.funcCache[name] = fn
	i.cacheMu.Unlock()
	return fn, nil
}

func (i *Instance) Close(ctx context.Context) error {
	var err error
	if i.module != nil {
		err = i.module.Close(ctx)
		i.module = nil
	}
	// Clear references to help GC
	i.funcCache = nil
	i.memory = nil
	i.alloc = nil
	return err
}

// wazeroAllocator implements txtoolkit.Allocator using the library's
// exported functions.
type wazeroAllocator struct {
	allocFn    api.Function
	freeFn     api.Function
	currentCtx context.Context
	stackBuf   []uint64
	allocABI   allocABI
	freeParams int
	stackMutex sync.Mutex
}

func (a *wazeroAllocator) setContext(ctx context.Context) {
	a.stackMutex.Lock()
	defer a.stackMutex.Unlock()
	a.currentCtx = ctx
}

func (a *wazeroAllocator) callContext() context.Context {
	if a.currentCtx == nil {
		return context.Background()
	}
	return a.currentCtx
}

func (a *wazeroAllocator) Alloc(size uint32) (uint32, error) {
	a.stackMutex.Lock()
	defer a.stackMutex.Unlock()

	var params []uint64
	switch a.allocABI {
	case allocSize:
		a.stackBuf[0] = uint64(size)
		params = a.stackBuf[:1]
	case allocAligned:
		a.stackBuf[0] = uint64(size)
		a.stackBuf[1] = defaultAlign
		params = a.stackBuf[:2]
	default:
		a.stackBuf[0] = 0
		a.stackBuf[1] = 0
		a.stackBuf[2] = defaultAlign
		a.stackBuf[3] = uint64(size)
		params = a.stackBuf[:4]
	}

	if err := a.allocFn.CallWithStack(a.callContext(), params); err != nil {
		return 0, err
	}
	ptr := uint32(a.stackBuf[0])
	if ptr == 0 && size > 0 {
		return 0, fmt.Errorf("allocator returned null for %d bytes", size)
	}
	return ptr, nil
}

func (a *wazeroAllocator) Free(ptr, size uint32) error {
	if ptr == 0 {
		return nil
	}

	a.stackMutex.Lock()
	defer a.stackMutex.Unlock()

	fn := a.freeFn
	var params []uint64
	if fn == nil {
		fn = a.allocFn
		a.stackBuf[0] = uint64(ptr)
		a.stackBuf[1] = uint64(size)
		a.stackBuf[2] = defaultAlign
		a.stackBuf[3] = 0
		params = a.stackBuf[:4]
	} else {
		a.stackBuf[0] = uint64(ptr)
		a.stackBuf[1] = uint64(size)
		a.stackBuf[2] = defaultAlign
		params = a.stackBuf[:a.freeParams]
	}

	if err := fn.CallWithStack(a.callContext(), params); err != nil {
		Logger().Warn("free failed",
			zap.Uint32("ptr", ptr),
			zap.Uint32("size", size),
			zap.Error(err))
		return err
	}
	return nil
}

// wazeroMemory wraps wazero memory to implement txtoolkit.Memory
type wazeroMemory struct {
	mem api.Memory
}

func (m *wazeroMemory) Read(offset uint32, length uint32) ([]byte, error) {
	data, ok := m.mem.Read(offset, length)
	if !ok {
		return nil, fmt.Errorf("read out of bounds: offset=%d, length=%d", offset, length)
	}
	return data, nil
}

func (m *wazeroMemory) Write(offset uint32, data []byte) error {
	if !m.mem.Write(offset, data) {
		return fmt.Errorf("write out of bounds: offset=%d, length=%d", offset, len(data))
	}
	return nil
}

func (m *wazeroMemory) Size() uint32 {
	if m.mem == nil {
		return 0
	}
	return m.mem.Size()
}

// Compile-time check that wazeroMemory implements txtoolkit.Memory and MemorySizer
var _ txtoolkit.Memory = (*wazeroMemory)(nil)
var _ txtoolkit.MemorySizer = (*wazeroMemory)(nil)

// Compile-time check that wazeroAllocator implements txtoolkit.Allocator
var _ txtoolkit.Allocator = (*wazeroAllocator)(nil)
