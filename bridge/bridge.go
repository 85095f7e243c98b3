package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"math"
	"sync"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	txtoolkit "github.com/wippyai/transaction-toolkit"
	"github.com/wippyai/transaction-toolkit/errors"
)

const (
	tracerName = "github.com/wippyai/transaction-toolkit/bridge"
	spanName   = "bridge.call"

	// scanChunk is how many bytes are read per step while looking for the
	// response terminator.
	scanChunk = 512
)

// Foreign is a loaded transaction library as seen by the bridge.
type Foreign interface {
	// Alloc reserves size bytes of linear memory and returns their offset.
	Alloc(ctx context.Context, size uint32) (uint32, error)
	// Free releases a buffer previously returned by Alloc or by Call.
	Free(ctx context.Context, ptr, size uint32) error
	// Memory returns the current linear memory. It must not be cached by
	// callers across calls into the library.
	Memory() txtoolkit.Memory
	// Call invokes the named export with a request offset and returns the
	// response offset.
	Call(ctx context.Context, name string, ptr uint32) (uint32, error)
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithTracerProvider sets the provider used for call spans. The global
// provider is used by default.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(b *Bridge) {
		if tp != nil {
			b.tracer = tp.Tracer(tracerName)
		}
	}
}

// WithLogger sets the logger for this bridge instead of the package logger.
func WithLogger(l *zap.Logger) Option {
	return func(b *Bridge) {
		if l != nil {
			b.log = l
		}
	}
}

// Bridge performs calls against one Foreign instance. It is safe for
// concurrent use; calls are serialised.
type Bridge struct {
	foreign Foreign
	tracer  trace.Tracer
	log     *zap.Logger
	mu      sync.Mutex
}

// New creates a bridge over f.
func New(f Foreign, opts ...Option) *Bridge {
	b := &Bridge{
		foreign: f,
		tracer:  otel.GetTracerProvider().Tracer(tracerName),
		log:     Logger(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Foreign returns the underlying library instance.
func (b *Bridge) Foreign() Foreign {
	return b.foreign
}

// Call encodes req, invokes the named export and decodes the reply into
// resp. A reply of the form {"error": Tag, ...} is returned as an
// *errors.Error whose path starts with the function name. resp may be nil
// when the caller does not need the payload.
func (b *Bridge) Call(ctx context.Context, name string, req, resp any) error {
	payload, err := json.Marshal(req)
	if err != nil {
		var e *errors.Error
		if stderrors.As(err, &e) {
			return errors.WithPath(e, name)
		}
		return errors.Wrap(errors.PhaseEncode, errors.TagRequestResponseConversionError,
			errors.KindInvalidData, err, fmt.Sprintf("encode %s request", name))
	}

	raw, err := b.CallRaw(ctx, name, payload)
	if err != nil {
		return err
	}

	if remote, ok := errors.FromResponse(raw); ok {
		b.log.Debug("library reported error",
			zap.String("function", name),
			zap.String("tag", string(remote.Tag)))
		return errors.WithPath(remote, name)
	}

	if resp == nil {
		if !json.Valid(raw) {
			return errors.Deserialization(errors.PhaseDecode, []string{name}, nil)
		}
		return nil
	}
	if err := json.Unmarshal(raw, resp); err != nil {
		var e *errors.Error
		if stderrors.As(err, &e) {
			return errors.WithPath(e, name)
		}
		return errors.Deserialization(errors.PhaseDecode, []string{name}, err)
	}
	return nil
}

// CallRaw sends payload, which must not contain a zero byte, to the named
// export and returns the response text without interpreting it. The
// returned slice is owned by the caller.
func (b *Bridge) CallRaw(ctx context.Context, name string, payload []byte) (out []byte, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ctx, span := b.tracer.Start(ctx, spanName, trace.WithAttributes(
		attribute.String("toolkit.function", name),
		attribute.Int("toolkit.request_bytes", len(payload)),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetAttributes(attribute.Int("toolkit.response_bytes", len(out)))
		}
		span.End()
	}()

	defer func() {
		if r := recover(); r != nil {
			b.log.Error("panic during library call", zap.String("function", name), zap.Any("panic", r))
			out, err = nil, errors.CallFailed(name, fmt.Errorf("panic: %v", r))
		}
	}()

	if bytes.IndexByte(payload, 0) >= 0 {
		return nil, errors.InvalidInput(errors.PhaseEncode, "request contains a zero byte")
	}
	if uint64(len(payload))+1 > math.MaxUint32 {
		return nil, errors.InvalidInput(errors.PhaseEncode, fmt.Sprintf("request of %d bytes does not fit linear memory", len(payload)))
	}

	buf := make([]byte, len(payload)+1)
	copy(buf, payload)
	size := uint32(len(buf))

	ptr, err := b.foreign.Alloc(ctx, size)
	if err != nil {
		return nil, errors.AllocationFailed(size, err)
	}
	if ptr == 0 {
		return nil, errors.AllocationFailed(size, nil)
	}
	req := &buffer{ptr: ptr, size: size}
	defer b.release(ctx, name, req)

	mem := b.foreign.Memory()
	if mem == nil {
		return nil, errors.NotInitialized(errors.PhaseBridge, "memory")
	}
	if err := mem.Write(ptr, buf); err != nil {
		return nil, errors.Wrap(errors.PhaseBridge, errors.TagInvalidRequestString,
			errors.KindOutOfBounds, err, "write request")
	}

	rptr, err := b.foreign.Call(ctx, name, ptr)
	if err != nil {
		var e *errors.Error
		if stderrors.As(err, &e) {
			return nil, e
		}
		return nil, errors.CallFailed(name, err)
	}
	if rptr == 0 {
		return nil, errors.New(errors.PhaseBridge, errors.TagRequestResponseConversionError).
			Kind(errors.KindCall).
			Path(name).
			Message("%s returned a null response", name).
			Build()
	}
	resp := &buffer{ptr: rptr}
	defer b.release(ctx, name, resp)

	// Memory may have grown during the call.
	mem = b.foreign.Memory()
	if mem == nil {
		return nil, errors.NotInitialized(errors.PhaseBridge, "memory")
	}
	text, err := readCString(mem, rptr)
	if err != nil {
		return nil, err
	}
	resp.size = uint32(len(text)) + 1

	if !utf8.Valid(text) {
		return nil, errors.WithPath(errors.InvalidUTF8(errors.PhaseBridge, text), name)
	}

	b.log.Debug("library call",
		zap.String("function", name),
		zap.Int("request_bytes", len(payload)),
		zap.Int("response_bytes", len(text)))
	return text, nil
}

// buffer is one linear-memory allocation owned by a call.
type buffer struct {
	ptr   uint32
	size  uint32
	freed bool
}

func (b *Bridge) release(ctx context.Context, name string, buf *buffer) {
	if buf.freed || buf.ptr == 0 {
		return
	}
	buf.freed = true
	if err := b.foreign.Free(ctx, buf.ptr, buf.size); err != nil {
		b.log.Warn("free failed",
			zap.String("function", name),
			zap.Uint32("ptr", buf.ptr),
			zap.Uint32("size", buf.size),
			zap.Error(err))
	}
}

// readCString copies bytes starting at ptr up to, not including, the first
// zero byte.
func readCString(mem txtoolkit.Memory, ptr uint32) ([]byte, error) {
	limit := uint32(math.MaxUint32)
	if s, ok := mem.(txtoolkit.MemorySizer); ok {
		limit = s.Size()
	}
	if ptr >= limit {
		return nil, errors.OutOfBounds(errors.PhaseBridge, ptr, 1, limit)
	}

	var out []byte
	for off := ptr; off < limit; {
		n := uint32(scanChunk)
		if limit-off < n {
			n = limit - off
		}
		chunk, err := mem.Read(off, n)
		if err != nil {
			return nil, errors.Wrap(errors.PhaseBridge, errors.TagInvalidRequestString,
				errors.KindOutOfBounds, err, "read response")
		}
		if i := bytes.IndexByte(chunk, 0); i >= 0 {
			return append(out, chunk[:i]...), nil
		}
		out = append(out, chunk...)
		off += n
	}

	return nil, errors.New(errors.PhaseBridge, errors.TagInvalidRequestString).
		Kind(errors.KindOutOfBounds).
		Message("response at %d is not terminated", ptr).
		Build()
}
