// Package event carries window input to the systems that react to it.
package event

import "sync"

// Kind identifies the concrete type of an Event.
type Kind int

const (
	KindResize Kind = iota
	KindKey
	KindMouseMove
	KindMouseButton
	KindScroll
	KindClose
)

// Event is the closed set of window events. Only the types in this package implement it.
type Event interface {
	Kind() Kind
	sealed()
}

// ResizeEvent reports a new framebuffer size in pixels.
type ResizeEvent struct {
	Width, Height int
}

// KeyEvent reports a key press or release.
type KeyEvent struct {
	Key     Key
	Pressed bool
}

// MouseMoveEvent reports the cursor position in window pixels.
type MouseMoveEvent struct {
	X, Y float64
}

// MouseButtonEvent reports a mouse button press or release.
type MouseButtonEvent struct {
	Button  MouseButton
	Pressed bool
	X, Y    float64
}

// ScrollEvent reports a scroll wheel offset.
type ScrollEvent struct {
	OffsetX, OffsetY float64
}

// CloseEvent reports that the window was asked to close.
type CloseEvent struct{}

func (ResizeEvent) Kind() Kind      { return KindResize }
func (KeyEvent) Kind() Kind         { return KindKey }
func (MouseMoveEvent) Kind() Kind   { return KindMouseMove }
func (MouseButtonEvent) Kind() Kind { return KindMouseButton }
func (ScrollEvent) Kind() Kind      { return KindScroll }
func (CloseEvent) Kind() Kind       { return KindClose }

func (ResizeEvent) sealed()      {}
func (KeyEvent) sealed()         {}
func (MouseMoveEvent) sealed()   {}
func (MouseButtonEvent) sealed() {}
func (ScrollEvent) sealed()      {}
func (CloseEvent) sealed()       {}

// Handler reacts to an event. Returning true marks the event handled and stops propagation
// to handlers subscribed after it.
type Handler func(ev Event) bool

// Dispatcher fans events out to subscribed handlers in subscription order.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[Kind][]subscription
	nextID   int
}

type subscription struct {
	id      int
	handler Handler
}

// Subscription is returned by Subscribe and cancels the handler when passed to Unsubscribe.
type Subscription struct {
	kind Kind
	id   int
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[Kind][]subscription)}
}

// Subscribe registers handler for events of the given kind.
//
// Parameters:
//   - kind: the event kind to listen for
//   - handler: the callback
//
// Returns:
//   - Subscription: a token for Unsubscribe
func (d *Dispatcher) Subscribe(kind Kind, handler Handler) Subscription {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.nextID++
	d.handlers[kind] = append(d.handlers[kind], subscription{id: d.nextID, handler: handler})
	return Subscription{kind: kind, id: d.nextID}
}

// Unsubscribe removes a handler. It reports false when the subscription is unknown.
func (d *Dispatcher) Unsubscribe(s Subscription) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	subs := d.handlers[s.kind]
	for i, sub := range subs {
		if sub.id == s.id {
			d.handlers[s.kind] = append(subs[:i:i], subs[i+1:]...)
			return true
		}
	}
	return false
}

// Dispatch delivers ev to the handlers of its kind.
//
// Parameters:
//   - ev: the event to deliver
//
// Returns:
//   - bool: true if a handler marked the event handled
func (d *Dispatcher) Dispatch(ev Event) bool {
	d.mu.RLock()
	subs := append([]subscription(nil), d.handlers[ev.Kind()]...)
	d.mu.RUnlock()

	for _, sub := range subs {
		if sub.handler(ev) {
			return true
		}
	}
	return false
}
