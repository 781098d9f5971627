package session

import "sync"

// Snapshot returns an in-memory copy of the store's entries with no navigator
// and no subscribers. Work that outlives the request, such as a call shared by
// several requests, reads credentials from a snapshot so clearing it never
// touches the originating response.
func (s *Store) Snapshot() *Store {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := &entryMap{values: make(map[string]string, 2)}
	for _, name := range []string{TokenEntry, UserEntry} {
		if value, ok := s.persister.Load(name); ok {
			entries.values[name] = value
		}
	}
	return NewStore(entries, WithLoginPath(s.loginPath))
}

// entryMap is the persister behind a snapshot
type entryMap struct {
	mu     sync.RWMutex
	values map[string]string
}

func (m *entryMap) Load(name string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.values[name]
	return value, ok
}

func (m *entryMap) Store(name, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[name] = value
	return nil
}

func (m *entryMap) Remove(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, name)
}
