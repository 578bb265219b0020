// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ens160

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"periph.io/x/conn/v3"
)

// transport is the I/O and timing capability the protocol is written
// against. tx is a single write-then-read transaction (repeated start), or a
// plain write when r is empty.
//
// syncTransport blocks the caller, asyncTransport parks the caller until the
// bus worker or the timer completes, or the context is done.
type transport interface {
	tx(ctx context.Context, w, r []byte) error
	sleep(ctx context.Context, d time.Duration) error
}

type syncTransport struct {
	c   conn.Conn
	clk clock.Clock
}

func (t *syncTransport) tx(_ context.Context, w, r []byte) error {
	return t.c.Tx(w, r)
}

func (t *syncTransport) sleep(_ context.Context, d time.Duration) error {
	t.clk.Sleep(d)
	return nil
}

type txJob struct {
	w     []byte
	n     int
	reply chan txResult
}

type txResult struct {
	r   []byte
	err error
}

// asyncTransport owns the connection from a single worker goroutine. Read
// buffers belong to the worker and are copied out on completion, so a caller
// that gave up on its context never shares memory with an in-flight
// transaction.
type asyncTransport struct {
	c    conn.Conn
	clk  clock.Clock
	jobs chan txJob
	done chan struct{}
	once sync.Once
	wg   sync.WaitGroup
}

func newAsyncTransport(c conn.Conn, clk clock.Clock) *asyncTransport {
	t := &asyncTransport{
		c:    c,
		clk:  clk,
		jobs: make(chan txJob),
		done: make(chan struct{}),
	}
	t.wg.Add(1)
	go t.run()
	return t
}

func (t *asyncTransport) run() {
	defer t.wg.Done()
	for {
		select {
		case <-t.done:
			return
		case j := <-t.jobs:
			var r []byte
			if j.n > 0 {
				r = make([]byte, j.n)
			}
			err := t.c.Tx(j.w, r)
			// reply is buffered, the caller may be gone.
			j.reply <- txResult{r: r, err: err}
		}
	}
}

func (t *asyncTransport) tx(ctx context.Context, w, r []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	j := txJob{w: append([]byte(nil), w...), n: len(r), reply: make(chan txResult, 1)}
	select {
	case t.jobs <- j:
	case <-t.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case res := <-j.reply:
		copy(r, res.r)
		return res.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *asyncTransport) sleep(ctx context.Context, d time.Duration) error {
	timer := t.clk.Timer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-t.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// close stops the worker once the transaction in flight, if any, completes.
func (t *asyncTransport) close() {
	t.once.Do(func() { close(t.done) })
	t.wg.Wait()
}

// releasedConn replaces the connection of a released device.
type releasedConn struct{}

func (releasedConn) String() string {
	return "released"
}

func (releasedConn) Tx(w, r []byte) error {
	return ErrReleased
}

func (releasedConn) Duplex() conn.Duplex {
	return conn.Half
}

var _ conn.Conn = releasedConn{}
