// Package memstore is an in-memory session.Persister for tests and tools.
package memstore

import (
	"sync"

	"github.com/jrsteele09/resumeforge-web/session"
)

var _ session.Persister = (*Persister)(nil)

type Persister struct {
	mu      sync.RWMutex
	entries map[string]string
	failOn  map[string]error
}

func New() *Persister {
	return &Persister{
		entries: make(map[string]string),
		failOn:  make(map[string]error),
	}
}

func (p *Persister) Load(name string) (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	value, ok := p.entries[name]
	return value, ok
}

func (p *Persister) Store(name, value string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.failOn[name]; err != nil {
		return err
	}
	p.entries[name] = value
	return nil
}

func (p *Persister) Remove(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.entries, name)
}

// FailStore makes subsequent Store calls for name return err. A nil err clears it.
func (p *Persister) FailStore(name string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err == nil {
		delete(p.failOn, name)
		return
	}
	p.failOn[name] = err
}

// Len returns the number of stored entries
func (p *Persister) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.entries)
}
