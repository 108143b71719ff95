package lid

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/tsingjyujing/langid/ngram"
)

var (
	// ErrPoolExhausted is returned when no engine became available in time.
	ErrPoolExhausted = errors.New("identification engine pool exhausted")
	ErrPoolClosed    = errors.New("identification engine pool closed")
	// ErrNotBorrowed is returned when releasing an engine the pool did not lend out.
	ErrNotBorrowed = errors.New("engine is not borrowed from this pool")
)

// PoolConfig configures a Pool.
type PoolConfig struct {
	// Size bounds the number of engines, <= 0 selects GOMAXPROCS.
	Size int
	// BorrowTimeout bounds the wait in Borrow, 0 waits for the context only.
	BorrowTimeout time.Duration
	Engine        Options
	Metrics       *Metrics
}

// PoolStats is a point in time view of the pool bookkeeping.
type PoolStats struct {
	Size    int `json:"size"`
	Created int `json:"created"`
	Idle    int `json:"idle"`
	InUse   int `json:"in_use"`
}

// Pool lends engines to one holder at a time. Engines are created lazily,
// up to Size, and all share the same index.
type Pool struct {
	index         *ngram.Index
	engineOptions Options
	size          int
	borrowTimeout time.Duration
	metrics       *Metrics

	idle  chan *Engine
	slots chan struct{}
	done  chan struct{}

	inUse  atomic.Int64
	closed atomic.Bool
}

func NewPool(index *ngram.Index, cfg PoolConfig) *Pool {
	size := cfg.Size
	if size <= 0 {
		size = runtime.GOMAXPROCS(0)
	}
	return &Pool{
		index:         index,
		engineOptions: cfg.Engine,
		size:          size,
		borrowTimeout: cfg.BorrowTimeout,
		metrics:       cfg.Metrics,
		idle:          make(chan *Engine, size),
		slots:         make(chan struct{}, size),
		done:          make(chan struct{}),
	}
}

// Index returns the index shared by every engine of the pool.
func (p *Pool) Index() *ngram.Index { return p.index }

// Borrow returns an engine for exclusive use until it is passed to Release.
// It blocks while all engines are lent out, until ctx is done, the borrow
// timeout elapses or the pool is closed.
func (p *Pool) Borrow(ctx context.Context) (*Engine, error) {
	if p.closed.Load() {
		return nil, ErrPoolClosed
	}
	select {
	case e := <-p.idle:
		return p.checkout(e), nil
	default:
	}

	if p.borrowTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.borrowTimeout)
		defer cancel()
	}
	select {
	case e := <-p.idle:
		if p.closed.Load() {
			return nil, ErrPoolClosed
		}
		return p.checkout(e), nil
	case p.slots <- struct{}{}:
		if p.closed.Load() {
			return nil, ErrPoolClosed
		}
		e := NewEngine(p.index, p.engineOptions)
		e.owner = p
		p.metrics.engineCreated()
		return p.checkout(e), nil
	case <-p.done:
		return nil, ErrPoolClosed
	case <-ctx.Done():
		p.metrics.borrowFailed()
		return nil, fmt.Errorf("%w: %w", ErrPoolExhausted, ctx.Err())
	}
}

func (p *Pool) checkout(e *Engine) *Engine {
	e.borrowed.Store(true)
	p.metrics.setInUse(p.inUse.Add(1))
	return e
}

// Release hands a borrowed engine back to the pool.
func (p *Pool) Release(e *Engine) error {
	if e == nil || e.owner != p || !e.borrowed.CompareAndSwap(true, false) {
		return ErrNotBorrowed
	}
	p.metrics.setInUse(p.inUse.Add(-1))
	if p.closed.Load() {
		return nil
	}
	p.idle <- e
	return nil
}

// Identify borrows an engine, identifies text and releases the engine.
func (p *Pool) Identify(ctx context.Context, text string) (string, error) {
	e, err := p.Borrow(ctx)
	if err != nil {
		return "", err
	}
	defer func() {
		if err := p.Release(e); err != nil {
			logger.WithError(err).Error("Cannot return engine to the pool")
		}
	}()
	lang := e.Identify(text)
	p.metrics.identified(lang)
	return lang, nil
}

// Scores is Identify with the per language totals.
func (p *Pool) Scores(ctx context.Context, text string) ([]Score, error) {
	e, err := p.Borrow(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := p.Release(e); err != nil {
			logger.WithError(err).Error("Cannot return engine to the pool")
		}
	}()
	return e.Scores(text), nil
}

// Created returns the number of engines constructed so far.
func (p *Pool) Created() int { return len(p.slots) }

func (p *Pool) Stats() PoolStats {
	return PoolStats{
		Size:    p.size,
		Created: p.Created(),
		Idle:    len(p.idle),
		InUse:   int(p.inUse.Load()),
	}
}

// Close drops idle engines and makes pending and further borrows fail.
// Engines still lent out are discarded on release.
func (p *Pool) Close() {
	if !p.closed.CompareAndSwap(false, true) {
		return
	}
	close(p.done)
	for {
		select {
		case <-p.idle:
		default:
			return
		}
	}
}
