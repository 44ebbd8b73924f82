package revision

import (
	"context"
	"sync"
	"time"

	"quill/internal/wiki/models"
	id "quill/pkg/domain"
)

// Clock lets tests pin revision timestamps.
type Clock func() time.Time

// MemoryStore keeps revision logs in mutex-guarded per-article slices.
// Because numbers are contiguous from 0, revision n lives at slice index n.
type MemoryStore struct {
	mu    sync.RWMutex
	logs  map[id.ArticleID][]models.Revision
	clock Clock
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithClock sets the timestamp source for appended revisions.
func WithClock(clock Clock) MemoryOption {
	return func(s *MemoryStore) {
		if clock != nil {
			s.clock = clock
		}
	}
}

func NewMemory(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		logs:  make(map[id.ArticleID][]models.Revision),
		clock: time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *MemoryStore) Append(_ context.Context, rev models.Revision) (*models.Revision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	log := s.logs[rev.ArticleID]
	if rev.Number != uint64(len(log)) {
		// Either the number is already claimed or it would leave a gap;
		// both mean the caller raced and must refresh.
		return nil, models.ErrConcurrentAppend
	}
	rev.CreatedAt = s.clock().UTC()
	s.logs[rev.ArticleID] = append(log, rev)
	return &rev, nil
}

func (s *MemoryStore) Latest(_ context.Context, articleID id.ArticleID) (*models.Revision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	log := s.logs[articleID]
	if len(log) == 0 {
		return nil, models.ErrNotFound
	}
	rev := log[len(log)-1]
	return &rev, nil
}

func (s *MemoryStore) Get(_ context.Context, articleID id.ArticleID, number uint64) (*models.Revision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	log := s.logs[articleID]
	if len(log) == 0 {
		return nil, models.ErrNotFound
	}
	if number >= uint64(len(log)) {
		return nil, models.ErrRevisionNotFound
	}
	rev := log[number]
	return &rev, nil
}

func (s *MemoryStore) List(_ context.Context, articleID id.ArticleID) ([]models.Revision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	log := s.logs[articleID]
	out := make([]models.Revision, len(log))
	copy(out, log)
	return out, nil
}

// Drop removes an article's log. It exists solely so the in-memory create
// transaction can compensate a failed create; committed revisions are never
// removed through any public path.
func (s *MemoryStore) Drop(_ context.Context, articleID id.ArticleID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.logs, articleID)
}
