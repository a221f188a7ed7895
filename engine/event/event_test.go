package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDispatchRoutesByKind(t *testing.T) {
	d := NewDispatcher()

	var resized []ResizeEvent
	var keys int
	d.Subscribe(KindResize, func(ev Event) bool {
		resized = append(resized, ev.(ResizeEvent))
		return false
	})
	d.Subscribe(KindKey, func(Event) bool {
		keys++
		return false
	})

	d.Dispatch(ResizeEvent{Width: 800, Height: 600})
	d.Dispatch(ScrollEvent{OffsetY: 1})

	assert.Equal(t, []ResizeEvent{{Width: 800, Height: 600}}, resized)
	assert.Zero(t, keys)
}

func TestDispatchStopsWhenHandled(t *testing.T) {
	d := NewDispatcher()

	var order []string
	d.Subscribe(KindKey, func(Event) bool {
		order = append(order, "first")
		return true
	})
	d.Subscribe(KindKey, func(Event) bool {
		order = append(order, "second")
		return false
	})

	assert.True(t, d.Dispatch(KeyEvent{Key: KeyB, Pressed: true}))
	assert.Equal(t, []string{"first"}, order)
}

func TestUnsubscribe(t *testing.T) {
	d := NewDispatcher()

	calls := 0
	sub := d.Subscribe(KindClose, func(Event) bool {
		calls++
		return false
	})

	d.Dispatch(CloseEvent{})
	assert.True(t, d.Unsubscribe(sub))
	assert.False(t, d.Unsubscribe(sub))
	d.Dispatch(CloseEvent{})

	assert.Equal(t, 1, calls)
}
