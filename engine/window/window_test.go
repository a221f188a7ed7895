package window

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-cascade/engine/config"
	"github.com/Carmen-Shannon/oxy-cascade/engine/event"
	"github.com/stretchr/testify/assert"
)

func TestResizedPublishesEvent(t *testing.T) {
	w := &engineWindow{events: event.NewDispatcher(), width: 100, height: 100}
	var got []event.ResizeEvent
	w.events.Subscribe(event.KindResize, func(ev event.Event) bool {
		got = append(got, ev.(event.ResizeEvent))
		return false
	})

	w.resized(640, 480)
	w.resized(0, 0)

	assert.Equal(t, []event.ResizeEvent{{Width: 640, Height: 480}}, got)
	assert.Equal(t, 640, w.Width())
	assert.Equal(t, 480, w.Height())
}

func TestWithConfigKeepsDefaultsForZeroFields(t *testing.T) {
	w := &engineWindow{title: "default", width: 1280, height: 720}
	WithConfig(config.WindowConfig{Width: 800})(w)

	assert.Equal(t, "default", w.title)
	assert.Equal(t, 800, w.width)
	assert.Equal(t, 720, w.height)
}

func TestWithDispatcher(t *testing.T) {
	d := event.NewDispatcher()
	w := &engineWindow{}
	WithDispatcher(d)(w)
	assert.Same(t, d, w.Events())
}
