// Package eventbus fans events out to subscribers grouped by topic
package eventbus

import (
	"context"
	"sync"
)

// Topic groups subscribers.  Subscribers of the default topic receive every event.
type Topic string

const (
	defaultTopic Topic = "__default__"

	subscriberBuffer = 64
)

// EventBus delivers each dispatched event to the subscribers of its topics and to every
// default subscriber.  Dispatch blocks while a subscriber's buffer is full, until the
// subscriber drains it, is unsubscribed, or the bus shuts down.
type EventBus struct {
	mu          sync.RWMutex
	subscribers map[Topic][]*subscriber
	done        []chan struct{}
	closed      bool

	// quit is closed by Shutdown before it takes mu, releasing blocked dispatches
	quit     chan struct{}
	quitOnce sync.Once

	// index finds a subscriber by its channel without taking mu
	indexMu sync.Mutex
	index   map[<-chan Event]*subscriber
}

type subscriber struct {
	c    chan Event
	done chan struct{}
	// removed is closed by Unsubscribe before it takes mu
	removed chan struct{}
	once    sync.Once
}

func (s *subscriber) remove() {
	s.once.Do(func() { close(s.removed) })
}

// New returns an empty bus
func New() *EventBus {
	return &EventBus{
		subscribers: make(map[Topic][]*subscriber),
		quit:        make(chan struct{}),
		index:       make(map[<-chan Event]*subscriber),
	}
}

// Subscribe registers a subscriber on topics, or on the default topic when none are given.
// The event channel is closed on Shutdown or Unsubscribe.  The subscriber owns the returned
// done channel: it closes it once it has finished with the events, and Shutdown waits for it.
func (e *EventBus) Subscribe(topics ...Topic) (<-chan Event, chan struct{}) {
	e.mu.Lock()
	defer e.mu.Unlock()

	sub := &subscriber{
		c:       make(chan Event, subscriberBuffer),
		done:    make(chan struct{}),
		removed: make(chan struct{}),
	}
	if e.closed {
		close(sub.c)
		return sub.c, sub.done
	}
	e.done = append(e.done, sub.done)
	if len(topics) == 0 {
		topics = []Topic{defaultTopic}
	}
	for _, topic := range topics {
		e.subscribers[topic] = append(e.subscribers[topic], sub)
	}

	e.indexMu.Lock()
	e.index[sub.c] = sub
	e.indexMu.Unlock()
	return sub.c, sub.done
}

// Unsubscribe removes a subscriber and closes its event channel.  Shutdown no longer waits
// for done, which stays with the subscriber.  Unsubscribing twice or after Shutdown is a no-op
// beyond that.
func (e *EventBus) Unsubscribe(c <-chan Event, done chan struct{}) {
	e.indexMu.Lock()
	sub, ok := e.index[c]
	delete(e.index, c)
	e.indexMu.Unlock()
	if ok {
		sub.remove()
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	for topic, subs := range e.subscribers {
		for i, s := range subs {
			if s.c == c {
				e.subscribers[topic] = append(subs[:i:i], subs[i+1:]...)
				break
			}
		}
	}
	if ok && !e.closed {
		close(sub.c)
	}
	for i, d := range e.done {
		if d == done {
			e.done = append(e.done[:i:i], e.done[i+1:]...)
			break
		}
	}
}

// Dispatch delivers event to the subscribers of topics and the default topic.  A subscriber
// on several of those topics receives the event once.  Subscribers removed while Dispatch
// waits on them are skipped.
func (e *EventBus) Dispatch(ctx context.Context, event Event, topics ...Topic) error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return ErrClosed
	}

	sent := make(map[*subscriber]struct{})
	for _, topic := range append(topics, defaultTopic) {
		for _, sub := range e.subscribers[topic] {
			if _, ok := sent[sub]; ok {
				continue
			}
			sent[sub] = struct{}{}
			select {
			case sub.c <- event:
			case <-sub.removed:
			case <-e.quit:
				return ErrClosed
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return nil
}

// Shutdown closes every subscriber channel and waits until each subscriber closes its done
// channel or ctx ends
func (e *EventBus) Shutdown(ctx context.Context) error {
	e.quitOnce.Do(func() { close(e.quit) })

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	closed := make(map[*subscriber]struct{})
	for _, subs := range e.subscribers {
		for _, sub := range subs {
			if _, ok := closed[sub]; !ok {
				closed[sub] = struct{}{}
				close(sub.c)
			}
		}
	}
	pending := append([]chan struct{}{}, e.done...)
	e.mu.Unlock()

	all := make(chan struct{})
	go func() {
		for _, d := range pending {
			<-d
		}
		close(all)
	}()

	select {
	case <-ctx.Done():
		return ErrShutdownTimeout
	case <-all:
		return nil
	}
}
