// Package inference bounds how many model calls run at once.
//
// Model calls are CPU bound and block for their whole duration. Every caller
// goes through a Pool so a burst of requests queues for a worker slot instead
// of oversubscribing the host.
package inference

import (
	"context"
	"runtime"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/emandor/kyc_service/internal/metrics"
)

type Pool struct {
	sem     *semaphore.Weighted
	size    int
	metrics *metrics.Metrics
}

func NewPool(size int, m *metrics.Metrics) *Pool {
	if size <= 0 {
		size = runtime.NumCPU()
	}
	return &Pool{sem: semaphore.NewWeighted(int64(size)), size: size, metrics: m}
}

func (p *Pool) Size() int { return p.size }

// Do runs fn once a worker slot is free. A caller whose ctx ends while queued
// gets ctx.Err() and fn never runs; once started fn runs to completion.
func Do[T any](ctx context.Context, p *Pool, fn func() (T, error)) (T, error) {
	var zero T
	if p == nil {
		return fn()
	}
	start := time.Now()
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return zero, err
	}
	defer p.sem.Release(1)
	p.metrics.ObserveInferenceWait(time.Since(start))
	return fn()
}

// Gate admits one caller at a time, for models whose client is not safe for
// concurrent use.
type Gate struct {
	sem *semaphore.Weighted
}

func NewGate() *Gate {
	return &Gate{sem: semaphore.NewWeighted(1)}
}

// DoExclusive holds g before taking a pool slot, so callers queued behind a
// single-threaded model never occupy workers other models could use.
func DoExclusive[T any](ctx context.Context, g *Gate, p *Pool, fn func() (T, error)) (T, error) {
	var zero T
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return zero, err
	}
	defer g.sem.Release(1)
	return Do(ctx, p, fn)
}
