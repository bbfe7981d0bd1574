package history

import (
	"context"
	"sort"
	"sync"

	"github.com/glizzus/jukebox/internal/media"
)

type key struct {
	kind media.Kind
	uid  string
}

// MemoryStore keeps records in process. It backs the bot when no database
// is configured.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[key]Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[key]Record)}
}

var _ Store = (*MemoryStore)(nil)

func (s *MemoryStore) FindOne(ctx context.Context, kind media.Kind, uid string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.records[key{kind, uid}]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (s *MemoryStore) AddOrUpdate(ctx context.Context, record Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[key{record.Kind, record.UID}] = record
	return nil
}

func (s *MemoryStore) UpdateVolume(ctx context.Context, kind media.Kind, uid string, volume int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key{kind, uid}
	if r, ok := s.records[k]; ok {
		r.Volume = volume
		s.records[k] = r
	}
	return nil
}

func (s *MemoryStore) Recent(ctx context.Context, limit int) ([]Record, error) {
	if err := checkLimit(limit); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]Record, 0, len(s.records))
	for _, r := range s.records {
		records = append(records, r)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	if len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}
