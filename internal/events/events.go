// Package events is the in-process realtime event publisher:
// publish-to-subscription-group and publish-to-global, over a fixed set of
// event names, fanning out to channel-based subscribers. There is no
// external transport; a service surface that needs one adapts this at its
// edge.
package events

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Name is one of the fixed event names the service publishes.
type Name string

const (
	FileChanged              Name = "file-changed"
	DBChanged                Name = "db-changed"
	ComparisonStarted        Name = "comparison-started"
	ComparisonProgress       Name = "comparison-progress"
	ComparisonCompleted      Name = "comparison-completed"
	ComparisonFailed         Name = "comparison-failed"
	DifferencesDetected      Name = "differences-detected"
	SubscriptionCreated      Name = "subscription-created"
	SubscriptionDeleted      Name = "subscription-deleted"
	SubscriptionStateChanged Name = "subscription-state-changed"
	ServiceShuttingDown      Name = "service-shutting-down"
	ServiceReconnected       Name = "service-reconnected"
)

// GlobalGroup is the subscribe-to-everything group name.
const GlobalGroup = "subscriptions:all"

// SubscriptionGroup builds the group name for one subscription's updates.
func SubscriptionGroup(subscriptionID uuid.UUID) string {
	return fmt.Sprintf("subscription:%s", subscriptionID)
}

// SubscriptionGroupID builds the group name from a subscription id already
// in string form, for collaborators (internal/orchestrator) that treat the
// subscription id as an opaque string rather than parsing it as a uuid.UUID.
func SubscriptionGroupID(subscriptionID string) string {
	return fmt.Sprintf("subscription:%s", subscriptionID)
}

// Event is one published message.
type Event struct {
	Name  Name
	Group string
	Data  any
}

// subscriber is one group's set of listening channels.
type subscriber struct {
	ch chan Event
}

// Bus is an in-process publisher: subscribers register for a group and
// receive every event published to that group. PublishGlobal reaches only
// subscribers of GlobalGroup, not those of a subscription group.
type Bus struct {
	mu     sync.RWMutex
	groups map[string][]*subscriber
}

// New builds an empty Bus.
func New() *Bus {
	return &Bus{groups: make(map[string][]*subscriber)}
}

// Subscribe registers a new listener for group, returning a channel of
// events and an unsubscribe function. The channel is buffered so a slow
// subscriber cannot block Publish; events are dropped for that subscriber
// once the buffer is full rather than stalling the publisher.
func (b *Bus) Subscribe(group string) (<-chan Event, func()) {
	sub := &subscriber{ch: make(chan Event, 64)}

	b.mu.Lock()
	b.groups[group] = append(b.groups[group], sub)
	b.mu.Unlock()

	unsubscribe := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		subs := b.groups[group]
		for i, s := range subs {
			if s == sub {
				b.groups[group] = append(subs[:i], subs[i+1:]...)
				close(sub.ch)
				return
			}
		}
	}
	return sub.ch, unsubscribe
}

// PublishToGroup sends event to every subscriber of group.
func (b *Bus) PublishToGroup(group string, name Name, data any) {
	b.deliver(group, Event{Name: name, Group: group, Data: data})
}

// PublishGlobal sends event to every subscriber of the global group.
func (b *Bus) PublishGlobal(name Name, data any) {
	b.deliver(GlobalGroup, Event{Name: name, Group: GlobalGroup, Data: data})
}

func (b *Bus) deliver(group string, evt Event) {
	b.mu.RLock()
	subs := append([]*subscriber(nil), b.groups[group]...)
	b.mu.RUnlock()

	for _, s := range subs {
		select {
		case s.ch <- evt:
		default:
			// Buffer full: drop rather than block the publisher.
		}
	}
}
