package pipeline

import (
	"sync"
	"time"
)

// Status is the outcome of a generation.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Record describes one generation made through the Service.
type Record struct {
	ID           string    `json:"record_id"`
	DocType      string    `json:"type"`
	TemplatePath string    `json:"template_path"`
	OutputPath   string    `json:"output_path,omitempty"`
	OutputDir    string    `json:"output_dir,omitempty"`
	Status       Status    `json:"status"`
	Kind         string    `json:"error_kind,omitempty"`
	Error        string    `json:"error,omitempty"`
	Stats        *Result   `json:"stats,omitempty"`
	Fields       int       `json:"fields"`
	CreatedAt    time.Time `json:"created_at"`
}

// RecordStore is a thread-safe in-memory record registry with TTL eviction.
type RecordStore struct {
	mu      sync.Mutex
	records map[string]Record
	ttl     time.Duration
	now     func() time.Time
}

func NewRecordStore(ttl time.Duration) *RecordStore {
	return &RecordStore{
		records: make(map[string]Record),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (s *RecordStore) Put(rec Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.ID] = rec
}

// Get returns a copy of the record with id.
func (s *RecordStore) Get(id string) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	return rec, ok
}

func (s *RecordStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Cleanup removes expired records and returns how many were dropped.
// Generated files are left on disk.
func (s *RecordStore) Cleanup() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	n := 0
	for id, rec := range s.records {
		if now.Sub(rec.CreatedAt) > s.ttl {
			delete(s.records, id)
			n++
		}
	}
	return n
}
