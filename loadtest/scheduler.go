// Package loadtest implements the conformance/load driver of spec section
// 4.9: a priority-time scheduler that fires CW_provision requests at
// crypto-period cadence and records round-trip statistics.
package loadtest

import (
	"container/heap"
	"context"
	"sync"
	"time"
)

// EventKind distinguishes a per-stream CW_provision tick from the
// pre-queued termination event.
type EventKind int

const (
	EventCWProvision EventKind = iota
	EventTermination
)

// Event is one scheduled action: send CW_provision for (ChannelIdx,
// StreamIdx) at Due, or stop the run if Kind is EventTermination.
type Event struct {
	Due        time.Time
	Kind       EventKind
	ChannelIdx int
	StreamIdx  int

	index int
}

type eventHeap []*Event

func (h eventHeap) Len() int            { return len(h) }
func (h eventHeap) Less(i, j int) bool  { return h[i].Due.Before(h[j].Due) }
func (h eventHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i]; h[i].index = i; h[j].index = j }
func (h *eventHeap) Push(x interface{}) { e := x.(*Event); e.index = len(*h); *h = append(*h, e) }
func (h *eventHeap) Pop() interface{} {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return e
}

// Scheduler is a single-consumer, ordered-insert priority-time queue,
// grounded on the teacher's container/list-based emergency list in
// muxer.go, generalized to container/heap because due-time ordering
// (not FIFO) is what the driver needs.
type Scheduler struct {
	mu     sync.Mutex
	cond   *sync.Cond
	events eventHeap
	closed bool
}

// NewScheduler returns an empty, ready Scheduler.
func NewScheduler() *Scheduler {
	s := &Scheduler{}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// Schedule inserts e in due-time order and wakes Run if it is waiting on
// a later event.
func (s *Scheduler) Schedule(e *Event) {
	s.mu.Lock()
	if !s.closed {
		heap.Push(&s.events, e)
	}
	s.cond.Broadcast()
	s.mu.Unlock()
}

// Close stops Run once its current batch of due events is drained.
func (s *Scheduler) Close() {
	s.mu.Lock()
	s.closed = true
	s.cond.Broadcast()
	s.mu.Unlock()
}

// Run pops due events and invokes handle for each, on the calling
// goroutine, until Close is called or ctx is canceled. Between due
// events it blocks on a condition variable armed with a timer for the
// delta to the nearest due event, per spec section 4.9, so a Schedule
// call for an earlier event wakes it immediately instead of waiting out
// a stale sleep.
func (s *Scheduler) Run(ctx context.Context, handle func(*Event)) {
	stopCh := make(chan struct{})
	defer close(stopCh)
	go func() {
		select {
		case <-ctx.Done():
			s.Close()
		case <-stopCh:
		}
	}()

	for {
		s.mu.Lock()
		for {
			if s.closed && (len(s.events) == 0 || time.Until(s.events[0].Due) > 0) {
				s.mu.Unlock()
				return
			}
			if len(s.events) == 0 {
				s.cond.Wait()
				continue
			}
			delay := time.Until(s.events[0].Due)
			if delay <= 0 {
				break
			}
			timer := time.AfterFunc(delay, func() {
				s.mu.Lock()
				s.cond.Broadcast()
				s.mu.Unlock()
			})
			s.cond.Wait()
			timer.Stop()
		}
		next := heap.Pop(&s.events).(*Event)
		s.mu.Unlock()

		handle(next)
		if next.Kind == EventTermination {
			return
		}
	}
}
