package gpu

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-cascade/common"
	"github.com/cogentcore/webgpu/wgpu"
)

const (
	// uniformPageSize is the size of one uniform arena buffer.
	uniformPageSize = 1 << 20
	// uniformAlignment is minUniformBufferOffsetAlignment of the default limits.
	uniformAlignment = 256
)

// uniformPage is one GPU buffer of the arena and its CPU staging copy.
type uniformPage struct {
	buffer *wgpu.Buffer
	data   []byte
	used   uint64
}

// uniformArena streams per-draw uniform blocks into large buffers bound with dynamic offsets.
// Every block is copied into the staging memory of a page when a draw is recorded; pages are
// uploaded with one WriteBuffer each right before the command buffer is submitted.
type uniformArena struct {
	device  *wgpu.Device
	pages   []*uniformPage
	current int
	epoch   uint64
}

func newUniformArena(device *wgpu.Device) *uniformArena {
	return &uniformArena{device: device}
}

// alloc copies data into the arena.
//
// Parameters:
//   - data: the uniform block bytes
//
// Returns:
//   - int: the page index, selecting the buffer to bind
//   - uint64: the dynamic offset inside the page
//   - error: when the block exceeds a page or a page cannot be created
func (a *uniformArena) alloc(data []byte) (int, uint64, error) {
	size := common.AlignUp(uint64(len(data)), uniformAlignment)
	if size > uniformPageSize {
		return 0, 0, fmt.Errorf("%w: uniform block of %d bytes exceeds the %d byte page", common.ErrInvalidDescriptor, len(data), uniformPageSize)
	}
	for a.current < len(a.pages) {
		page := a.pages[a.current]
		if page.used+size <= uniformPageSize {
			offset := page.used
			copy(page.data[offset:], data)
			page.used += size
			return a.current, offset, nil
		}
		a.current++
	}

	buf, err := a.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: fmt.Sprintf("Uniform Arena Page %d", len(a.pages)),
		Size:  uniformPageSize,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return 0, 0, fmt.Errorf("failed to create uniform arena page: %w", err)
	}
	page := &uniformPage{buffer: buf, data: make([]byte, uniformPageSize)}
	a.pages = append(a.pages, page)
	a.current = len(a.pages) - 1
	copy(page.data, data)
	page.used = size
	return a.current, 0, nil
}

// flush uploads the used part of every page.
func (a *uniformArena) flush(queue *wgpu.Queue) {
	for _, page := range a.pages {
		if page.used == 0 {
			continue
		}
		if err := queue.WriteBuffer(page.buffer, 0, page.data[:page.used]); err != nil {
			common.LogError("failed to upload uniform arena page", "err", err)
		}
	}
}

// reset makes every page reusable. Placements recorded before the reset become stale.
func (a *uniformArena) reset() {
	for _, page := range a.pages {
		page.used = 0
	}
	a.current = 0
	a.epoch++
}

func (a *uniformArena) release() {
	for _, page := range a.pages {
		page.buffer.Release()
	}
	a.pages = nil
	a.current = 0
}
