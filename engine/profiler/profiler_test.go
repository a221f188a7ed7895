package profiler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock advances only when told to.
type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestProfiler() (*Profiler, *fakeClock) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	p := NewProfiler(time.Second)
	p.now = clock.now
	p.lastTime = clock.t
	return p, clock
}

func TestTickReportsAfterInterval(t *testing.T) {
	p, clock := newTestProfiler()

	for i := 0; i < 9; i++ {
		clock.advance(100 * time.Millisecond)
		assert.Nil(t, p.Tick())
	}
	clock.advance(100 * time.Millisecond)
	r := p.Tick()
	require.NotNil(t, r)
	assert.InDelta(t, 10, r.FPS, 1e-9)

	clock.advance(100 * time.Millisecond)
	assert.Nil(t, p.Tick(), "the interval restarts after a report")
}

func TestMeasureAveragesPerFrame(t *testing.T) {
	p, clock := newTestProfiler()

	for i := 0; i < 4; i++ {
		stop := p.Measure("render")
		clock.advance(250 * time.Millisecond)
		stop()
		if i < 3 {
			assert.Nil(t, p.Tick())
		}
	}
	r := p.Tick()
	require.NotNil(t, r)
	assert.Equal(t, 250*time.Millisecond, r.Sections["render"])

	clock.advance(time.Second)
	r = p.Tick()
	require.NotNil(t, r)
	assert.Empty(t, r.Sections)
}

func TestNewProfilerDefaultsInterval(t *testing.T) {
	p := NewProfiler(0)
	assert.Equal(t, time.Second, p.updateInterval)
}
