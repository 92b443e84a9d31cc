package config

import "sync"

// Cell holds the current configuration. The HTTP layer is the single writer;
// the frame loop and handlers snapshot the value at each use. Every swap bumps
// the generation so readers can detect changes without comparing structs.
type Cell struct {
	mu         sync.RWMutex
	value      Config
	generation uint64
}

func NewCell(initial Config) *Cell {
	return &Cell{value: initial, generation: 1}
}

// Get returns the current configuration and its generation.
func (c *Cell) Get() (Config, uint64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.value, c.generation
}

// Set replaces the configuration atomically.
func (c *Cell) Set(value Config) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = value
	c.generation++
}

// Update applies fn to a copy of the current value and swaps the result in.
// Used by PUT handlers that replace a single calibration block.
func (c *Cell) Update(fn func(*Config)) Config {
	c.mu.Lock()
	defer c.mu.Unlock()
	next := c.value
	fn(&next)
	c.value = next
	c.generation++
	return next
}
