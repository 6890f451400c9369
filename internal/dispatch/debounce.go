package dispatch

import (
	"sort"
	"sync"
	"time"

	"github.com/ivlev/composer/internal/catalog"
)

// Edit is a coalesced property change ready to apply.
type Edit struct {
	ItemID     string
	Properties catalog.Properties
}

type pending struct {
	props catalog.Properties
	due   time.Time
}

// Debouncer coalesces rapid property edits per item. Every submission
// restarts the item's window; when the window elapses the merged result
// of all submissions is released once, so intermediate values are never
// applied.
type Debouncer struct {
	mu      sync.Mutex
	pending map[string]*pending
}

func NewDebouncer() *Debouncer {
	return &Debouncer{pending: make(map[string]*pending)}
}

// Submit records overrides for itemID. Later keys win over earlier ones.
func (d *Debouncer) Submit(itemID string, overrides catalog.Properties, window time.Duration, now time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.pending[itemID]
	if !ok {
		p = &pending{props: catalog.Properties{}}
		d.pending[itemID] = p
	}
	for k, v := range overrides {
		p.props[k] = v
	}
	p.due = now.Add(window)
}

// Due removes and returns the edits whose window has elapsed at now,
// ordered by item id.
func (d *Debouncer) Due(now time.Time) []Edit {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.takeLocked(func(p *pending) bool { return !now.Before(p.due) })
}

// Flush removes and returns every pending edit.
func (d *Debouncer) Flush() []Edit {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.takeLocked(func(*pending) bool { return true })
}

func (d *Debouncer) takeLocked(ready func(*pending) bool) []Edit {
	var out []Edit
	for id, p := range d.pending {
		if !ready(p) {
			continue
		}
		out = append(out, Edit{ItemID: id, Properties: p.props})
		delete(d.pending, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ItemID < out[j].ItemID })
	return out
}

// Drop forgets pending edits for itemID.
func (d *Debouncer) Drop(itemID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.pending, itemID)
}

// Pending reports whether itemID has an edit waiting.
func (d *Debouncer) Pending(itemID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.pending[itemID]
	return ok
}
