package dispatch

import (
	"fmt"
	"log"
	"sort"
	"sync"

	"github.com/ivlev/composer/internal/catalog"
)

// Dispatcher owns the live renderer instances of a preview session.
type Dispatcher struct {
	registry *Registry
	logger   *log.Logger

	mu      sync.Mutex
	clock   uint64
	byItem  map[string]*Instance
	evicted int
}

func New(registry *Registry, logger *log.Logger) *Dispatcher {
	if registry == nil {
		registry = DefaultRegistry()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Dispatcher{
		registry: registry,
		logger:   logger,
		byItem:   make(map[string]*Instance),
	}
}

func (d *Dispatcher) Registry() *Registry { return d.registry }

// Acquire returns the instance bound to itemID, creating it when needed.
// created is true for a fresh instance, which the caller must load. When
// the asset type is already at its instance cap, the least-recently-active
// instance of that type is released before the new one exists.
func (d *Dispatcher) Acquire(itemID, assetType string) (inst *Instance, created bool, err error) {
	desc, ok := d.registry.Dispatch(assetType)
	if !ok {
		return nil, false, fmt.Errorf("%w: no renderer for %q", catalog.ErrUnknownAssetType, assetType)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if inst, ok := d.byItem[itemID]; ok && inst.Descriptor.AssetType == assetType {
		d.touchLocked(inst)
		return inst, false, nil
	} else if ok {
		inst.release()
		delete(d.byItem, itemID)
	}

	if desc.MaxInstances > 0 {
		for d.liveLocked(assetType) >= desc.MaxInstances {
			victim := d.oldestLocked(assetType)
			if victim == nil {
				break
			}
			victim.release()
			delete(d.byItem, victim.ItemID)
			d.evicted++
			d.logger.Printf("[*] %s: вытеснен экземпляр %s (элемент %s)", assetType, victim.ID, victim.ItemID)
		}
	}

	inst = newInstance(itemID, desc)
	d.touchLocked(inst)
	d.byItem[itemID] = inst
	return inst, true, nil
}

// Touch marks the item's instance as just used.
func (d *Dispatcher) Touch(itemID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if inst, ok := d.byItem[itemID]; ok {
		d.touchLocked(inst)
	}
}

func (d *Dispatcher) touchLocked(inst *Instance) {
	d.clock++
	inst.lastActive = d.clock
}

func (d *Dispatcher) liveLocked(assetType string) int {
	n := 0
	for _, inst := range d.byItem {
		if inst.Descriptor.AssetType == assetType {
			n++
		}
	}
	return n
}

func (d *Dispatcher) oldestLocked(assetType string) *Instance {
	var oldest *Instance
	for _, inst := range d.byItem {
		if inst.Descriptor.AssetType != assetType {
			continue
		}
		if oldest == nil || inst.lastActive < oldest.lastActive {
			oldest = inst
		}
	}
	return oldest
}

// Instance returns the live instance bound to itemID.
func (d *Dispatcher) Instance(itemID string) (*Instance, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	inst, ok := d.byItem[itemID]
	return inst, ok
}

// Release tears down the item's instance.
func (d *Dispatcher) Release(itemID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	inst, ok := d.byItem[itemID]
	if !ok {
		return false
	}
	inst.release()
	delete(d.byItem, itemID)
	return true
}

// ReleaseAll tears down every instance.
func (d *Dispatcher) ReleaseAll() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for id, inst := range d.byItem {
		inst.release()
		delete(d.byItem, id)
	}
}

// SetVisible pauses or resumes the item's instance when its descriptor
// asks for offscreen pausing. It reports whether the state changed.
func (d *Dispatcher) SetVisible(itemID string, visible bool) bool {
	d.mu.Lock()
	inst, ok := d.byItem[itemID]
	d.mu.Unlock()
	if !ok || !inst.Descriptor.PauseOffscreen {
		return false
	}
	if visible {
		return inst.Resume()
	}
	return inst.Suspend()
}

// Live returns the number of live instances of assetType.
func (d *Dispatcher) Live(assetType string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.liveLocked(assetType)
}

// Evicted returns how many instances were released by cap eviction.
func (d *Dispatcher) Evicted() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.evicted
}

// Instances returns the live instances ordered by item id.
func (d *Dispatcher) Instances() []*Instance {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]*Instance, 0, len(d.byItem))
	for _, inst := range d.byItem {
		out = append(out, inst)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ItemID < out[j].ItemID })
	return out
}
