// Package events provides the "outbound to event log" sink described in
// the scheduler's external interfaces: one record per abort condition,
// plus optional lifecycle events useful for replaying a job's history.
package events

import (
	"sync"
	"time"

	"github.com/fairshard/jobsched/pkg/types"
)

// EventType names the kind of record being published.
type EventType string

const (
	// Abort conditions — each carries JobName, TaskMode, TaskID, Cause,
	// Inputs, and terminates the job actor normally.
	EventForcedRemoteUnschedulable EventType = "task.forced_remote_unschedulable"
	EventForcedLocalUnschedulable  EventType = "task.forced_local_unschedulable"
	EventTaskExhausted             EventType = "task.exhausted"
	EventScheduleTimeout           EventType = "schedule.timeout"

	// Lifecycle events — not abort conditions, useful for an operator
	// replaying what a job actor did over its lifetime.
	EventTaskAssigned    EventType = "task.assigned"
	EventTaskDispatched  EventType = "task.dispatched"
	EventNodesReassigned EventType = "node.reassigned"
	EventPeerTimeout     EventType = "peer.timeout"
	EventActorTerminated EventType = "actor.terminated"
)

// Event is one record in the event log.
type Event struct {
	Type      EventType
	Timestamp time.Time
	JobName   string
	TaskMode  string
	TaskID    types.TaskID
	Cause     string
	Inputs    []types.Input
	Message   string
}

// Subscriber is a channel that receives events.
type Subscriber chan *Event

// Broker manages event subscriptions and distribution. It is the same
// buffered-channel fan-out shape used elsewhere in this module for
// decoupling producers from slow consumers: Publish never blocks on a
// subscriber, and a full subscriber buffer drops rather than stalls the
// actor that published the event.
type Broker struct {
	subscribers map[Subscriber]bool
	mu          sync.RWMutex
	eventCh     chan *Event
	stopCh      chan struct{}
}

// NewBroker creates a new event broker.
func NewBroker() *Broker {
	return &Broker{
		subscribers: make(map[Subscriber]bool),
		eventCh:     make(chan *Event, 100),
		stopCh:      make(chan struct{}),
	}
}

// Start begins the broker's event distribution loop.
func (b *Broker) Start() {
	go b.run()
}

// Stop stops the broker.
func (b *Broker) Stop() {
	close(b.stopCh)
}

// Subscribe creates a new subscription and returns a channel.
func (b *Broker) Subscribe() Subscriber {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := make(Subscriber, 50)
	b.subscribers[sub] = true
	return sub
}

// Unsubscribe removes a subscription.
func (b *Broker) Unsubscribe(sub Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subscribers[sub]; !ok {
		return
	}
	delete(b.subscribers, sub)
	close(sub)
}

// Publish publishes an event to all subscribers.
func (b *Broker) Publish(event *Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	select {
	case b.eventCh <- event:
	case <-b.stopCh:
	}
}

func (b *Broker) run() {
	for {
		select {
		case event := <-b.eventCh:
			b.broadcast(event)
		case <-b.stopCh:
			return
		}
	}
}

func (b *Broker) broadcast(event *Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for sub := range b.subscribers {
		select {
		case sub <- event:
		default:
			// Subscriber buffer full, skip.
		}
	}
}

// SubscriberCount returns the number of active subscribers.
func (b *Broker) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}
