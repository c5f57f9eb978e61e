package session

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// sweepEvery bounds how often Put scans for expired pages.
const sweepEvery = time.Minute

// MemoryStore keeps pages in process. Expired pages are dropped on read and
// by a sweep that Put runs at most once per sweepEvery (or per ttl, if shorter).
type MemoryStore struct {
	mu        sync.Mutex
	ttl       time.Duration
	pages     map[string]memoryEntry
	locked    map[string]struct{}
	now       func() time.Time
	nextSweep time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:    ttl,
		pages:  make(map[string]memoryEntry),
		locked: make(map[string]struct{}),
		now:    time.Now,
	}
}

func (s *MemoryStore) Get(_ context.Context, id string, v interface{}) error {
	s.mu.Lock()
	entry, ok := s.pages[id]
	if ok && s.expired(entry, s.now()) {
		delete(s.pages, id)
		ok = false
	}
	s.mu.Unlock()

	if !ok {
		return ErrNotFound
	}
	return json.Unmarshal(entry.data, v)
}

func (s *MemoryStore) Put(_ context.Context, id string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	s.sweep(now)
	s.pages[id] = memoryEntry{data: data, expiresAt: now.Add(s.ttl)}
	return nil
}

func (s *MemoryStore) expired(entry memoryEntry, now time.Time) bool {
	return s.ttl > 0 && now.After(entry.expiresAt)
}

// sweep drops expired pages. Locked pages are kept until released.
// Callers hold s.mu.
func (s *MemoryStore) sweep(now time.Time) {
	if s.ttl <= 0 || now.Before(s.nextSweep) {
		return
	}
	for id, entry := range s.pages {
		if _, busy := s.locked[id]; busy {
			continue
		}
		if s.expired(entry, now) {
			delete(s.pages, id)
		}
	}
	interval := sweepEvery
	if s.ttl < interval {
		interval = s.ttl
	}
	s.nextSweep = now.Add(interval)
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pages, id)
	delete(s.locked, id)
	return nil
}

func (s *MemoryStore) Acquire(_ context.Context, id string) (Release, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, busy := s.locked[id]; busy {
		return nil, ErrLocked
	}
	s.locked[id] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.locked, id)
			s.mu.Unlock()
		})
	}, nil
}

// Len reports the number of live pages.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	n := 0
	for _, entry := range s.pages {
		if !s.expired(entry, now) {
			n++
		}
	}
	return n
}
