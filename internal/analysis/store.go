package analysis

import (
	"sync"
	"sync/atomic"

	"AwesomeSentinel/internal/model"
)

// Store holds the single current analysis record. Records are swapped
// whole; readers never observe a partially built record.
type Store struct {
	current atomic.Pointer[model.AnalysisRecord]

	mu     sync.Mutex
	nextID int
	subs   map[int]chan *model.AnalysisRecord
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{subs: make(map[int]chan *model.AnalysisRecord)}
}

// Current returns the live record, or nil if nothing has been analyzed yet.
// Callers must treat the record as read-only.
func (s *Store) Current() *model.AnalysisRecord {
	return s.current.Load()
}

// Replace swaps in rec and notifies subscribers. It returns the record it replaced.
// Swaps and notifications happen under one lock, so the last record a
// subscriber receives is always Current().
func (s *Store) Replace(rec *model.AnalysisRecord) *model.AnalysisRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.current.Swap(rec)
	for _, ch := range s.subs {
		// Slow subscribers only ever need the newest record.
		select {
		case ch <- rec:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- rec
		}
	}
	return prev
}

// Subscribe returns a channel that receives every replaced record, and a
// cancel func that closes it.
func (s *Store) Subscribe() (<-chan *model.AnalysisRecord, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	ch := make(chan *model.AnalysisRecord, 1)
	s.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subs, id)
			close(ch)
		})
	}
}
