package core

import (
	"cmp"
	"errors"
	"slices"
)

// DefaultMaxCascadeDepth bounds re-entrant publish chains. A handler
// reacting to an event may publish again; each step down such a chain
// increases the cascade depth by one.
const DefaultMaxCascadeDepth = 16

// A HandlerFunc receives one delivered event. Handlers must not assume
// any handle they carry is still valid; they re-resolve it against the
// store and treat InvalidHandleError as "object already gone".
type HandlerFunc func(fctx *FrameContext, ev Event)

// A Subscription ties an event type to a handler. Subscriptions owned
// by an object are removed automatically when the object's slot is
// compacted.
type Subscription struct {
	seq       uint64
	eventType EventTypeID
	priority  int
	owner     Handle
	hasOwner  bool
	fn        HandlerFunc
	active    bool
}

// EventType returns the event type the subscription matches.
func (s *Subscription) EventType() EventTypeID {
	return s.eventType
}

// Priority returns the subscription's delivery priority.
func (s *Subscription) Priority() int {
	return s.priority
}

// A Bus delivers typed events to subscribed handlers in deterministic
// order: descending priority, ties broken by subscription creation
// order. Immediate events are delivered synchronously at the publish
// site; next-frame events are queued and drained at a fixed point in the
// scheduler's cycle.
//
// Queue mutation is confined to the scheduler thread. Adapters that need
// to inject events hand them to the scheduler, which publishes them at
// the start of the frame.
type Bus struct {
	HookableBase

	maxDepth int
	nextSeq  uint64
	subs     map[EventTypeID][]*Subscription

	pending  []queuedEvent
	curDepth int
	fctx     *FrameContext
	storms   []error
}

type queuedEvent struct {
	ev    Event
	depth int
}

// NewBus creates a bus with the default cascade depth bound.
func NewBus() *Bus {
	return NewBusWithDepthBound(DefaultMaxCascadeDepth)
}

// NewBusWithDepthBound creates a bus that tolerates publish cascades up
// to maxDepth deep.
func NewBusWithDepthBound(maxDepth int) *Bus {
	return &Bus{
		maxDepth: maxDepth,
		subs:     make(map[EventTypeID][]*Subscription),
	}
}

// Subscribe registers a global handler for an event type.
func (b *Bus) Subscribe(
	t EventTypeID,
	fn HandlerFunc,
	priority int,
) *Subscription {
	return b.addSubscription(&Subscription{
		eventType: t,
		priority:  priority,
		fn:        fn,
	})
}

// SubscribeOwned registers a handler on behalf of an object. The
// subscription is dropped when the object's slot is compacted.
func (b *Bus) SubscribeOwned(
	t EventTypeID,
	owner Handle,
	fn HandlerFunc,
	priority int,
) *Subscription {
	return b.addSubscription(&Subscription{
		eventType: t,
		priority:  priority,
		owner:     owner,
		hasOwner:  true,
		fn:        fn,
	})
}

func (b *Bus) addSubscription(sub *Subscription) *Subscription {
	b.nextSeq++
	sub.seq = b.nextSeq
	sub.active = true

	list := append(b.subs[sub.eventType], sub)
	slices.SortStableFunc(list, func(a, c *Subscription) int {
		return cmp.Compare(c.priority, a.priority)
	})
	b.subs[sub.eventType] = list

	return sub
}

// Unsubscribe removes a subscription. Unsubscribing twice is a no-op.
func (b *Bus) Unsubscribe(sub *Subscription) {
	if sub == nil || !sub.active {
		return
	}

	sub.active = false
	b.subs[sub.eventType] = slices.DeleteFunc(
		b.subs[sub.eventType],
		func(s *Subscription) bool { return s == sub },
	)
}

// RemoveOwned removes every subscription owned by the handle. The store
// fires this through its destroy callbacks; no dangling subscriptions
// survive an object.
func (b *Bus) RemoveOwned(owner Handle) {
	for t, list := range b.subs {
		b.subs[t] = slices.DeleteFunc(list, func(s *Subscription) bool {
			if s.hasOwner && s.owner == owner {
				s.active = false
				return true
			}
			return false
		})
	}
}

// Publish synchronously delivers the event to all matching
// subscriptions before returning. Publishing from inside a handler is
// allowed up to the cascade depth bound; past it the publish is dropped
// and EventStormError returned.
func (b *Bus) Publish(ev Event) error {
	depth := b.curDepth + 1
	if depth > b.maxDepth {
		return b.recordStorm(ev)
	}

	b.deliver(ev, depth)

	return nil
}

// PublishNextFrame enqueues the event for the next drain. When called
// from a handler during a drain, the event joins the same drain one
// cascade step deeper; the depth bound applies the same way as for
// immediate publishes.
func (b *Bus) PublishNextFrame(ev Event) error {
	depth := b.curDepth + 1
	if depth > b.maxDepth {
		return b.recordStorm(ev)
	}

	b.pending = append(b.pending, queuedEvent{ev: ev, depth: depth})

	return nil
}

// recordStorm drops the offending publish, remembers the storm for the
// drain's error return, and announces it to the hooks.
func (b *Bus) recordStorm(ev Event) error {
	err := EventStormError{EventType: ev.EventType(), Depth: b.maxDepth}
	b.storms = append(b.storms, err)

	b.InvokeHook(HookCtx{
		Domain: b,
		Pos:    HookPosEventStorm,
		Item:   ev,
		Detail: err,
	})

	return err
}

// DrainQueue delivers all queued events in strict publish order, then
// clears the queue. Events published during the drain are appended to
// the same queue and drained within the same call. Returns the number of
// delivered events and any EventStormError observed; a storm drops the
// offending publish, never the whole drain.
func (b *Bus) DrainQueue(fctx *FrameContext) (int, error) {
	b.fctx = fctx
	b.storms = b.storms[:0]

	delivered := 0
	for i := 0; i < len(b.pending); i++ {
		qe := b.pending[i]
		b.deliver(qe.ev, qe.depth)
		delivered++
	}
	b.pending = b.pending[:0]

	if len(b.storms) > 0 {
		return delivered, errors.Join(b.storms...)
	}

	return delivered, nil
}

func (b *Bus) deliver(ev Event, depth int) {
	prevDepth := b.curDepth
	b.curDepth = depth
	defer func() { b.curDepth = prevDepth }()

	hookCtx := HookCtx{
		Domain: b,
		Pos:    HookPosBeforeEvent,
		Item:   ev,
	}
	b.InvokeHook(hookCtx)

	// Snapshot so handlers can subscribe or unsubscribe without
	// affecting this event's delivery.
	subs := slices.Clone(b.subs[ev.EventType()])
	for _, sub := range subs {
		if !sub.active {
			continue
		}
		sub.fn(b.fctx, ev)
	}

	hookCtx.Pos = HookPosAfterEvent
	b.InvokeHook(hookCtx)
}

// PendingEvents returns the number of queued events awaiting the next
// drain.
func (b *Bus) PendingEvents() int {
	return len(b.pending)
}
