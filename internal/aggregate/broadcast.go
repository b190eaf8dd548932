package aggregate

import (
	"context"
	"sync"
	"time"
)

// Run polls at the given interval until the context is canceled, fanning
// each sample out to subscribers.
func (a *Aggregator) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = defaultResolution
	}

	// Initial poll to prime the latest sample.
	a.publish(a.Poll(time.Now()))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("aggregator stopping", "reason", ctx.Err())
			a.closeSubscribers()
			return nil
		case now := <-ticker.C:
			a.publish(a.Poll(now))
		}
	}
}

// Subscribe registers a listener for polled samples. The returned cancel
// function detaches the listener; forgetting to call it leaks the
// subscription for the lifetime of the aggregator.
func (a *Aggregator) Subscribe() (<-chan Sample, func()) {
	sub := newSubscriber()

	a.subMu.Lock()
	if a.subscribers == nil {
		a.subscribers = make(map[*subscriber]struct{})
	}
	a.subscribers[sub] = struct{}{}
	a.subMu.Unlock()

	if latest := a.Latest(); !latest.Timestamp.IsZero() {
		sub.send(latest)
	}

	return sub.channel(), func() { a.removeSubscriber(sub) }
}

func (a *Aggregator) publish(sample Sample) {
	a.subMu.Lock()
	targets := make([]*subscriber, 0, len(a.subscribers))
	for sub := range a.subscribers {
		targets = append(targets, sub)
	}
	a.subMu.Unlock()

	for _, sub := range targets {
		sub.send(sample)
	}
}

func (a *Aggregator) removeSubscriber(sub *subscriber) {
	a.subMu.Lock()
	delete(a.subscribers, sub)
	a.subMu.Unlock()
	sub.close()
}

func (a *Aggregator) closeSubscribers() {
	a.subMu.Lock()
	subs := make([]*subscriber, 0, len(a.subscribers))
	for sub := range a.subscribers {
		subs = append(subs, sub)
	}
	a.subscribers = nil
	a.subMu.Unlock()

	for _, sub := range subs {
		sub.close()
	}
}

type subscriber struct {
	ch     chan Sample
	mu     sync.Mutex
	closed bool
}

func newSubscriber() *subscriber {
	return &subscriber{
		ch: make(chan Sample, 1),
	}
}

func (s *subscriber) channel() <-chan Sample {
	return s.ch
}

func (s *subscriber) send(sample Sample) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.ch <- sample:
		return
	default:
		// Drop oldest to make room for the new sample.
		select {
		case <-s.ch:
		default:
		}
		select {
		case s.ch <- sample:
		default:
		}
	}
}

func (s *subscriber) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	close(s.ch)
	s.closed = true
}
