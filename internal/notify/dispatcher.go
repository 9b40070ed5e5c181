/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package notify

import (
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

const DefaultQueueSize = 256

// Dispatcher hands events to a sink on a single background worker so that
// callers never wait on delivery. When the queue is full the event is dropped.
type Dispatcher struct {
	sink   Notifier
	events chan Event

	started  atomic.Bool
	dropped  atomic.Uint64
	stopOnce sync.Once

	// Control channels
	stopChan chan struct{}
	doneChan chan struct{}
}

// NewDispatcher creates a dispatcher delivering to sink. Call Start before use.
func NewDispatcher(sink Notifier, queueSize int) *Dispatcher {
	if sink == nil {
		sink = LogNotifier{}
	}
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Dispatcher{
		sink:     sink,
		events:   make(chan Event, queueSize),
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),
	}
}

// Start launches the delivery worker.
func (d *Dispatcher) Start(ctx context.Context) {
	if !d.started.CompareAndSwap(false, true) {
		return
	}
	go d.run(ctx)
	zap.L().Info("Notification dispatcher started", zap.Int("queue_size", cap(d.events)))
}

// Notify enqueues event without blocking.
func (d *Dispatcher) Notify(_ context.Context, event Event) {
	select {
	case <-d.stopChan:
		d.drop(event, "dispatcher stopped")
		return
	default:
	}

	select {
	case d.events <- event:
	default:
		d.drop(event, "queue full")
	}
}

// Stop delivers whatever is already queued and waits for the worker to exit.
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() {
		zap.L().Info("Stopping notification dispatcher")
		close(d.stopChan)
		// Never started: claim the worker slot so a late Start is a no-op
		if d.started.CompareAndSwap(false, true) {
			close(d.doneChan)
		}
		<-d.doneChan
		zap.L().Info("Notification dispatcher stopped", zap.Uint64("dropped", d.dropped.Load()))
	})
}

// Dropped reports how many events were discarded.
func (d *Dispatcher) Dropped() uint64 {
	return d.dropped.Load()
}

func (d *Dispatcher) run(ctx context.Context) {
	defer close(d.doneChan)

	for {
		select {
		case event := <-d.events:
			d.sink.Notify(ctx, event)
		case <-d.stopChan:
			d.drain(ctx)
			return
		case <-ctx.Done():
			return
		}
	}
}

func (d *Dispatcher) drain(ctx context.Context) {
	for {
		select {
		case event := <-d.events:
			d.sink.Notify(ctx, event)
		default:
			return
		}
	}
}

func (d *Dispatcher) drop(event Event, reason string) {
	d.dropped.Add(1)
	zap.L().Warn("Dropping notification",
		zap.String("reason", reason),
		zap.String("kind", string(event.Kind)),
		zap.String("entity_id", event.EntityId))
}
