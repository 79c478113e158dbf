package kb

import (
	"fmt"
	"sort"
	"sync"

	"github.com/signalsfoundry/region-globe/model"
)

// EventType indicates what kind of change happened in the catalog.
type EventType int

const (
	EventRegionAdded EventType = iota
	EventRegionMoved
)

// Event is emitted to subscribers when a region changes.
type Event struct {
	Type   EventType
	Region model.Region
}

// RegionCatalog is an in-memory, thread-safe store of selectable regions.
// It satisfies core.RegionLookup.
type RegionCatalog struct {
	mu sync.RWMutex

	regions map[string]model.Region

	nextSub int
	subs    []subscriber
}

type subscriber struct {
	id int
	fn func(Event)
}

// NewRegionCatalog constructs an empty catalog.
func NewRegionCatalog() *RegionCatalog {
	return &RegionCatalog{
		regions: make(map[string]model.Region),
	}
}

// AddRegion adds a new region. It returns an error if the ID is empty,
// already present, or the position is out of range.
func (c *RegionCatalog) AddRegion(r model.Region) error {
	if r.ID == "" {
		return fmt.Errorf("region ID is required")
	}
	if !r.Position.Valid() {
		return fmt.Errorf("region %q position %v out of range", r.ID, r.Position)
	}

	c.mu.Lock()
	if _, exists := c.regions[r.ID]; exists {
		c.mu.Unlock()
		return fmt.Errorf("region with ID %q already exists", r.ID)
	}
	c.regions[r.ID] = r
	subs := c.subscribersLocked()
	c.mu.Unlock()

	notify(subs, Event{Type: EventRegionAdded, Region: r})
	return nil
}

// Region returns the region with the given ID.
func (c *RegionCatalog) Region(id string) (model.Region, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.regions[id]
	return r, ok
}

// Len returns the number of regions.
func (c *RegionCatalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.regions)
}

// ListRegions returns a snapshot of all regions ordered by ID.
func (c *RegionCatalog) ListRegions() []model.Region {
	c.mu.RLock()
	res := make([]model.Region, 0, len(c.regions))
	for _, r := range c.regions {
		res = append(res, r)
	}
	c.mu.RUnlock()

	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res
}

// UpdateRegionPosition moves a region and notifies subscribers.
func (c *RegionCatalog) UpdateRegionPosition(id string, pos model.GeoCoordinate) error {
	if !pos.Valid() {
		return fmt.Errorf("region %q position %v out of range", id, pos)
	}

	c.mu.Lock()
	r, ok := c.regions[id]
	if !ok {
		c.mu.Unlock()
		return fmt.Errorf("region with ID %q not found", id)
	}
	r.Position = pos
	c.regions[id] = r
	subs := c.subscribersLocked()
	c.mu.Unlock()

	// Notify subscribers outside the lock to avoid deadlocks.
	notify(subs, Event{Type: EventRegionMoved, Region: r})
	return nil
}

// Subscribe registers a callback for catalog events. It returns an
// unsubscribe function; calling it more than once is a no-op.
func (c *RegionCatalog) Subscribe(fn func(Event)) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextSub
	c.nextSub++
	c.subs = append(c.subs, subscriber{id: id, fn: fn})

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		for i, s := range c.subs {
			if s.id == id {
				c.subs = append(c.subs[:i], c.subs[i+1:]...)
				return
			}
		}
	}
}

// subscribersLocked copies the callbacks in subscription order. mu must be held.
func (c *RegionCatalog) subscribersLocked() []func(Event) {
	out := make([]func(Event), len(c.subs))
	for i, s := range c.subs {
		out[i] = s.fn
	}
	return out
}

func notify(subs []func(Event), ev Event) {
	for _, sub := range subs {
		sub(ev)
	}
}
