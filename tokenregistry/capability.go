package tokenregistry

import (
	"sort"
	"sync"

	"github.com/artledger/nft-registry-backend/interfaces"
)

// CapabilitySet is an in-process capability-query collaborator. The registry
// publishes its interface selectors here once at construction; external
// callers query them through the API.
type CapabilitySet struct {
	mu        sync.RWMutex
	selectors map[interfaces.CapabilitySelector]bool
}

// NewCapabilitySet creates an empty capability set.
func NewCapabilitySet() *CapabilitySet {
	return &CapabilitySet{selectors: make(map[interfaces.CapabilitySelector]bool)}
}

// RegisterCapability implements interfaces.CapabilityRegistrar.
func (c *CapabilitySet) RegisterCapability(selector interfaces.CapabilitySelector) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selectors[selector] = true
}

// Supports reports whether the selector has been registered.
func (c *CapabilitySet) Supports(selector interfaces.CapabilitySelector) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.selectors[selector]
}

// Selectors returns all registered selectors, sorted for deterministic
// output.
func (c *CapabilitySet) Selectors() []interfaces.CapabilitySelector {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]interfaces.CapabilitySelector, 0, len(c.selectors))
	for sel := range c.selectors {
		out = append(out, sel)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].String() < out[j].String()
	})
	return out
}
