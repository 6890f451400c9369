package system

import (
	"image"
	"sync"
	"sync/atomic"
)

// FramePool переиспользует кадры *image.RGBA одного размера.
// Кадры другого размера при Put отбрасываются.
type FramePool struct {
	rect      image.Rectangle
	pool      sync.Pool
	allocated atomic.Int64
	reused    atomic.Int64
}

func NewFramePool(width, height int) *FramePool {
	return &FramePool{rect: image.Rect(0, 0, width, height)}
}

// Size returns the frame dimensions.
func (p *FramePool) Size() image.Point { return p.rect.Size() }

// Get returns a frame of the pool's size. Its pixels are not cleared.
func (p *FramePool) Get() *image.RGBA {
	if img, ok := p.pool.Get().(*image.RGBA); ok {
		p.reused.Add(1)
		return img
	}
	p.allocated.Add(1)
	return image.NewRGBA(p.rect)
}

func (p *FramePool) Put(img *image.RGBA) {
	if img == nil || img.Rect != p.rect {
		return
	}
	p.pool.Put(img)
}

// Stats reports how many frames were allocated and how many Get calls
// were served from returned frames.
func (p *FramePool) Stats() (allocated, reused int64) {
	return p.allocated.Load(), p.reused.Load()
}
