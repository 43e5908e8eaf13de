package compute

import (
	"errors"
	"fmt"
	"sync"
)

// Compiler turns a program into a device-specific compiled handle.
type Compiler interface {
	Compile(p *Program) (any, error)
}

// CacheStats is a snapshot of program cache activity.
type CacheStats struct {
	Hits     uint64
	Misses   uint64
	Failures uint64
	Programs int
}

// ProgramCache compiles programs once and hands out kernels that share the
// compiled handle. Programs are identified by their Hash.
type ProgramCache struct {
	compiler Compiler

	handles map[string]any
	mu      sync.RWMutex

	hits     uint64
	misses   uint64
	failures uint64
}

// NewProgramCache creates a cache backed by compiler.
func NewProgramCache(compiler Compiler) *ProgramCache {
	return &ProgramCache{
		compiler: compiler,
		handles:  make(map[string]any),
	}
}

// GetOrCreateKernel returns a fresh kernel for program p, compiling it on
// first use. Every returned kernel has its own binding cursor.
func (c *ProgramCache) GetOrCreateKernel(p *Program, entry string) (*Kernel, error) {
	if p == nil {
		return nil, &CompilationError{Entry: entry, Err: errors.New("nil program")}
	}
	if p.Entry != entry {
		return nil, &CompilationError{Entry: entry, Err: fmt.Errorf("program declares entry point %q", p.Entry)}
	}
	hash := p.Hash()

	c.mu.RLock()
	handle, exists := c.handles[hash]
	c.mu.RUnlock()
	if exists {
		c.mu.Lock()
		c.hits++
		c.mu.Unlock()
		programCacheHits.WithLabelValues(entry).Inc()
		return NewKernel(p, handle), nil
	}

	handle, err := c.compiler.Compile(p)
	if err != nil {
		c.mu.Lock()
		c.failures++
		c.mu.Unlock()
		programCompileFailures.WithLabelValues(entry).Inc()
		return nil, &CompilationError{Entry: entry, Hash: hash, Err: err}
	}

	c.mu.Lock()
	if cached, ok := c.handles[hash]; ok {
		// Lost a race with a concurrent compile of the same program.
		releaseHandle(handle)
		handle = cached
		c.hits++
		c.mu.Unlock()
		programCacheHits.WithLabelValues(entry).Inc()
		return NewKernel(p, handle), nil
	}
	c.handles[hash] = handle
	c.misses++
	c.mu.Unlock()
	programCacheMisses.WithLabelValues(entry).Inc()

	return NewKernel(p, handle), nil
}

// Stats returns cache statistics.
func (c *ProgramCache) Stats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return CacheStats{
		Hits:     c.hits,
		Misses:   c.misses,
		Failures: c.failures,
		Programs: len(c.handles),
	}
}

// Release drops every cached handle, releasing those that own device
// resources. Kernels handed out earlier must not be dispatched afterwards.
func (c *ProgramCache) Release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for hash, h := range c.handles {
		releaseHandle(h)
		delete(c.handles, hash)
	}
}

func releaseHandle(h any) {
	if r, ok := h.(interface{ Release() }); ok {
		r.Release()
	}
}
