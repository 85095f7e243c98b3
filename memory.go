package txtoolkit

// Memory is a view over the linear memory of a loaded transaction library.
// Implementations must not cache the underlying buffer: calls into the
// library may grow memory and move its backing storage.
type Memory interface {
	Read(offset uint32, length uint32) ([]byte, error)
	Write(offset uint32, data []byte) error
}

// MemorySizer provides the current size of linear memory in bytes.
type MemorySizer interface {
	Size() uint32
}

// Allocator allocates memory through the library's exported allocator.
// size is passed to Free for libraries whose free export takes a capacity.
type Allocator interface {
	Alloc(size uint32) (uint32, error)
	Free(ptr, size uint32) error
}
