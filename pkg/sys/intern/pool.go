// Package intern maps relationship type names to small integer symbols so
// adjacency lists carry a uint32 instead of a string per edge.
package intern

import "sync"

// InvalidID is never handed out; it stands for the empty string.
const InvalidID uint32 = 0

// Pool is a concurrent string <-> symbol table. Symbols are 1-based.
type Pool struct {
	mu      sync.RWMutex
	ids     map[string]uint32
	strings []string
}

func NewPool() *Pool {
	return &Pool{
		ids:     make(map[string]uint32),
		strings: make([]string, 0, 64),
	}
}

var defaultPool = NewPool()

// Get returns the symbol for s, allocating one on first use.
func (p *Pool) Get(s string) uint32 {
	if s == "" {
		return InvalidID
	}

	p.mu.RLock()
	id, ok := p.ids[s]
	p.mu.RUnlock()
	if ok {
		return id
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if id, ok := p.ids[s]; ok {
		return id
	}
	p.strings = append(p.strings, s)
	id = uint32(len(p.strings))
	p.ids[s] = id
	return id
}

// Lookup returns the symbol for s without allocating.
func (p *Pool) Lookup(s string) (uint32, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	id, ok := p.ids[s]
	return id, ok
}

// GetStr returns the string for id, or "" when id is unknown.
func (p *Pool) GetStr(id uint32) string {
	if id == InvalidID {
		return ""
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	idx := int(id) - 1
	if idx >= len(p.strings) {
		return ""
	}
	return p.strings[idx]
}

// Len returns the number of interned strings.
func (p *Pool) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.strings)
}

// Get interns s in the process-wide pool.
func Get(s string) uint32 { return defaultPool.Get(s) }

// GetStr resolves id in the process-wide pool.
func GetStr(id uint32) string { return defaultPool.GetStr(id) }
