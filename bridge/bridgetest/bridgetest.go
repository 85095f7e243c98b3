// Package bridgetest provides an in-memory transaction library for tests.
//
// Library implements bridge.Foreign on top of a plain byte slice and a bump
// allocator that records every allocation and release, so tests can check
// that the bridge frees each buffer exactly once.
package bridgetest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	txtoolkit "github.com/wippyai/transaction-toolkit"
	"github.com/wippyai/transaction-toolkit/errors"
)

// PageSize matches the WebAssembly page size.
const PageSize = 65536

// Memory is a growable linear memory backed by a byte slice.
type Memory struct {
	data []byte
	mu   sync.RWMutex
}

// NewMemory creates a memory of the given number of pages.
func NewMemory(pages uint32) *Memory {
	return &Memory{data: make([]byte, pages*PageSize)}
}

func (m *Memory) Read(offset, length uint32) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if uint64(offset)+uint64(length) > uint64(len(m.data)) {
		return nil, fmt.Errorf("read out of bounds: offset=%d, length=%d", offset, length)
	}
	return m.data[offset : offset+length], nil
}

func (m *Memory) Write(offset uint32, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if uint64(offset)+uint64(len(data)) > uint64(len(m.data)) {
		return fmt.Errorf("write out of bounds: offset=%d, length=%d", offset, len(data))
	}
	copy(m.data[offset:], data)
	return nil
}

func (m *Memory) Size() uint32 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return uint32(len(m.data))
}

// Grow adds pages to the memory, moving its backing storage.
func (m *Memory) Grow(pages uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	grown := make([]byte, len(m.data)+int(pages)*PageSize)
	copy(grown, m.data)
	m.data = grown
}

var (
	_ txtoolkit.Memory      = (*Memory)(nil)
	_ txtoolkit.MemorySizer = (*Memory)(nil)
)

// Allocation is one recorded allocation or release.
type Allocation struct {
	Ptr  uint32
	Size uint32
}

// Allocator is a bump allocator over a Memory. Released space is never
// reused, which keeps recorded pointers unique.
type Allocator struct {
	mem    *Memory
	live   map[uint32]uint32
	allocs []Allocation
	frees  []Allocation
	next   uint32
	mu     sync.Mutex
}

// NewAllocator creates an allocator handing out memory from base upward.
func NewAllocator(mem *Memory, base uint32) *Allocator {
	if base == 0 {
		base = 8
	}
	return &Allocator{mem: mem, next: base, live: make(map[uint32]uint32)}
}

func (a *Allocator) Alloc(size uint32) (uint32, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	ptr := (a.next + 7) &^ 7
	end := uint64(ptr) + uint64(size)
	if end > uint64(^uint32(0)) {
		return 0, fmt.Errorf("allocation of %d bytes exceeds address space", size)
	}
	if have := uint64(a.mem.Size()); end > have {
		a.mem.Grow(uint32((end - have + PageSize - 1) / PageSize))
	}
	a.next = uint32(end)
	a.live[ptr] = size
	a.allocs = append(a.allocs, Allocation{Ptr: ptr, Size: size})
	return ptr, nil
}

// Free releases ptr. Releasing an unknown or already released pointer is an
// error.
func (a *Allocator) Free(ptr, size uint32) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.live[ptr]; !ok {
		return fmt.Errorf("free of unknown pointer %d", ptr)
	}
	delete(a.live, ptr)
	a.frees = append(a.frees, Allocation{Ptr: ptr, Size: size})
	return nil
}

// Allocs returns every allocation made so far, in order.
func (a *Allocator) Allocs() []Allocation {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]Allocation(nil), a.allocs...)
}

// Frees returns every release made so far, in order.
func (a *Allocator) Frees() []Allocation {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]Allocation(nil), a.frees...)
}

// Live returns the pointers that are allocated and not yet released.
func (a *Allocator) Live() []uint32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]uint32, 0, len(a.live))
	for p := range a.live {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

var _ txtoolkit.Allocator = (*Allocator)(nil)

// Handler produces the raw response text for a raw request. The returned
// bytes are written verbatim followed by a zero byte.
type Handler func(req []byte) []byte

// Static returns a handler that always answers with resp.
func Static(resp string) Handler {
	return func([]byte) []byte { return []byte(resp) }
}

// JSON returns a handler that decodes the request into a fresh value of
// type Req and encodes whatever fn returns. An *errors.Error result is
// encoded as the library's error object.
func JSON[Req any](fn func(req Req) (any, error)) Handler {
	return func(raw []byte) []byte {
		var req Req
		if err := json.Unmarshal(raw, &req); err != nil {
			return mustMarshal(errors.Deserialization(errors.PhaseDecode, nil, err))
		}
		resp, err := fn(req)
		if err != nil {
			e, ok := err.(*errors.Error)
			if !ok {
				e = errors.Wrap(errors.PhaseRemote, errors.TagRequestResponseConversionError, errors.KindRemote, err, err.Error())
			}
			return mustMarshal(e)
		}
		return mustMarshal(resp)
	}
}

func mustMarshal(v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("bridgetest: marshal response: %v", err))
	}
	return data
}

// Library is a fake transaction library. Exports are registered with
// Handle; calling an unregistered export fails.
type Library struct {
	mem      *Memory
	alloc    *Allocator
	handlers map[string]Handler
	requests map[string][][]byte
	calls    []string
	// AllocErr, when set, is returned by every Alloc.
	AllocErr error
	// GrowOnCall adds this many pages to memory during every call.
	GrowOnCall uint32
	// NullResponse makes every call return offset zero.
	NullResponse bool
	mu           sync.Mutex
}

// New creates an empty library with one page of memory.
func New() *Library {
	mem := NewMemory(1)
	return &Library{
		mem:      mem,
		alloc:    NewAllocator(mem, 1024),
		handlers: make(map[string]Handler),
		requests: make(map[string][][]byte),
	}
}

// Handle registers h as the export name.
func (l *Library) Handle(name string, h Handler) *Library {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.handlers[name] = h
	return l
}

// Allocator exposes the allocation record.
func (l *Library) Allocator() *Allocator {
	return l.alloc
}

// Calls returns the exports invoked so far, in order.
func (l *Library) Calls() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

// Requests returns the raw requests received by an export.
func (l *Library) Requests(name string) [][]byte {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([][]byte(nil), l.requests[name]...)
}

func (l *Library) Alloc(_ context.Context, size uint32) (uint32, error) {
	if l.AllocErr != nil {
		return 0, l.AllocErr
	}
	return l.alloc.Alloc(size)
}

func (l *Library) Free(_ context.Context, ptr, size uint32) error {
	return l.alloc.Free(ptr, size)
}

func (l *Library) Memory() txtoolkit.Memory {
	return l.mem
}

func (l *Library) Call(_ context.Context, name string, ptr uint32) (uint32, error) {
	l.mu.Lock()
	h, ok := l.handlers[name]
	l.calls = append(l.calls, name)
	l.mu.Unlock()
	if !ok {
		return 0, errors.NotFound(errors.PhaseRuntime, "export", name)
	}

	req, err := l.readString(ptr)
	if err != nil {
		return 0, err
	}
	l.mu.Lock()
	l.requests[name] = append(l.requests[name], req)
	l.mu.Unlock()

	if l.GrowOnCall > 0 {
		l.mem.Grow(l.GrowOnCall)
	}

	resp := h(req)
	if l.NullResponse {
		return 0, nil
	}

	out, err := l.alloc.Alloc(uint32(len(resp)) + 1)
	if err != nil {
		return 0, err
	}
	if err := l.mem.Write(out, append(resp, 0)); err != nil {
		return 0, err
	}
	return out, nil
}

func (l *Library) readString(ptr uint32) ([]byte, error) {
	size := l.mem.Size()
	if ptr >= size {
		return nil, fmt.Errorf("request pointer %d out of bounds", ptr)
	}
	data, err := l.mem.Read(ptr, size-ptr)
	if err != nil {
		return nil, err
	}
	i := bytes.IndexByte(data, 0)
	if i < 0 {
		return nil, fmt.Errorf("request at %d is not terminated", ptr)
	}
	return append([]byte(nil), data[:i]...), nil
}
