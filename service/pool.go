package service

import (
	"context"
	stderrors "errors"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/wippyai/transaction-toolkit/bridge"
	"github.com/wippyai/transaction-toolkit/errors"
)

// Invoker is the call surface shared by a single bridge and a pool.
type Invoker interface {
	Call(ctx context.Context, name string, req, resp any) error
	CallRaw(ctx context.Context, name string, payload []byte) ([]byte, error)
}

var (
	_ Invoker = (*bridge.Bridge)(nil)
	_ Invoker = (*Pool)(nil)
)

// Factory creates one library instance.
type Factory func(ctx context.Context) (bridge.Foreign, error)

// Pool hands out bridged instances to concurrent callers. Each instance
// serves one call at a time.
type Pool struct {
	bridges  chan *bridge.Bridge
	done     chan struct{}
	foreigns []bridge.Foreign
	once     sync.Once
}

// NewPool creates size instances concurrently. If any fails, those already
// created are closed and the first error is returned.
func NewPool(ctx context.Context, size int, factory Factory, opts ...bridge.Option) (*Pool, error) {
	if size <= 0 {
		size = 1
	}

	foreigns := make([]bridge.Foreign, size)
	g, gctx := errgroup.WithContext(ctx)
	for i := range foreigns {
		i := i
		g.Go(func() error {
			f, err := factory(gctx)
			if err != nil {
				return err
			}
			foreigns[i] = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		for _, f := range foreigns {
			if f != nil {
				closeForeign(ctx, f)
			}
		}
		return nil, err
	}

	p := &Pool{
		bridges:  make(chan *bridge.Bridge, size),
		done:     make(chan struct{}),
		foreigns: foreigns,
	}
	for _, f := range foreigns {
		p.bridges <- bridge.New(f, opts...)
	}
	return p, nil
}

// Size returns the number of instances.
func (p *Pool) Size() int {
	return len(p.foreigns)
}

func (p *Pool) acquire(ctx context.Context) (*bridge.Bridge, error) {
	select {
	case <-p.done:
		return nil, errors.NotInitialized(errors.PhaseRuntime, "pool")
	default:
	}

	select {
	case b := <-p.bridges:
		return b, nil
	case <-p.done:
		return nil, errors.NotInitialized(errors.PhaseRuntime, "pool")
	case <-ctx.Done():
		return nil, errors.Wrap(errors.PhaseRuntime, errors.TagRequestResponseConversionError,
			errors.KindCall, ctx.Err(), "wait for a free instance")
	}
}

func (p *Pool) release(b *bridge.Bridge) {
	p.bridges <- b
}

func (p *Pool) Call(ctx context.Context, name string, req, resp any) error {
	b, err := p.acquire(ctx)
	if err != nil {
		return err
	}
	defer p.release(b)
	return b.Call(ctx, name, req, resp)
}

func (p *Pool) CallRaw(ctx context.Context, name string, payload []byte) ([]byte, error) {
	b, err := p.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer p.release(b)
	return b.CallRaw(ctx, name, payload)
}

// Close stops handing out instances, waits for in-flight calls to return
// theirs and closes every instance. If ctx ends first, Close returns its
// error and the remaining instances are closed in the background as their
// calls finish.
func (p *Pool) Close(ctx context.Context) error {
	closed := false
	p.once.Do(func() {
		close(p.done)
		closed = true
	})
	if !closed {
		return nil
	}

	var errs []error
	for remaining := len(p.foreigns); remaining > 0; remaining-- {
		select {
		case b := <-p.bridges:
			if err := closeForeign(ctx, b.Foreign()); err != nil {
				errs = append(errs, err)
			}
		case <-ctx.Done():
			go p.closeRemaining(remaining)
			return stderrors.Join(append(errs, ctx.Err())...)
		}
	}
	return stderrors.Join(errs...)
}

// closeRemaining closes the next n instances handed back to the pool.
func (p *Pool) closeRemaining(n int) {
	ctx := context.Background()
	for ; n > 0; n-- {
		b := <-p.bridges
		if err := closeForeign(ctx, b.Foreign()); err != nil {
			bridge.Logger().Warn("close pooled instance", zap.Error(err))
		}
	}
}

func closeForeign(ctx context.Context, f bridge.Foreign) error {
	if c, ok := f.(interface{ Close(context.Context) error }); ok {
		return c.Close(ctx)
	}
	return nil
}
