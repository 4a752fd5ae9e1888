/*
 * dispatch.go, part of mdwatch.
 *
 * Copyright 2026 Raul Mera <rmera{at}chemDOThelsinkiDOTfi>
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

package session

import (
	"context"
	"time"
)

// Sink receives the patches produced by a session. Apply is called from
// the dispatch goroutine, and must not block for long.
type Sink interface {
	Apply(patches []Patch)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func([]Patch)

// Apply calls f(patches).
func (f SinkFunc) Apply(patches []Patch) { f(patches) }

// Sinks applies the patches to each of its elements, in order.
type Sinks []Sink

// Apply gives the patches to every sink.
func (s Sinks) Apply(patches []Patch) {
	for _, v := range s {
		v.Apply(patches)
	}
}

// Dispatcher runs a session: it takes events from a channel and ticks from
// a ticker, one at a time, in a single goroutine, and hands the patches to a sink.
// Ticks are produced at a fixed rate. A tick that can't be delivered because
// the previous one is still being handled is dropped.
type Dispatcher struct {
	s      *Session
	sink   Sink
	events chan Event
	ticker *time.Ticker
}

// NewDispatcher returns a dispatcher for S that sends its patches to sink.
func NewDispatcher(S *Session, sink Sink) *Dispatcher {
	return &Dispatcher{s: S, sink: sink, events: make(chan Event, 16)}
}

// Send queues the event ev. It blocks until the event is accepted or ctx is done.
func (D *Dispatcher) Send(ctx context.Context, ev Event) error {
	select {
	case D.events <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run handles events until ctx is done. It returns ctx.Err().
func (D *Dispatcher) Run(ctx context.Context) error {
	defer D.stop()
	for {
		var tick <-chan time.Time
		if D.ticker != nil {
			tick = D.ticker.C
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-D.events:
			D.handle(ctx, ev)
		case now := <-tick:
			D.handle(ctx, Tick{Now: now})
		}
	}
}

func (D *Dispatcher) handle(ctx context.Context, ev Event) {
	patches := D.s.Handle(ctx, ev)
	for _, p := range patches {
		switch c := p.(type) {
		case Schedule:
			if D.ticker == nil {
				D.ticker = time.NewTicker(c.Interval)
			} else {
				D.ticker.Reset(c.Interval)
			}
		case Cancel:
			D.stop()
		}
	}
	if len(patches) > 0 {
		D.sink.Apply(patches)
	}
}

func (D *Dispatcher) stop() {
	if D.ticker != nil {
		D.ticker.Stop()
		D.ticker = nil
	}
}
