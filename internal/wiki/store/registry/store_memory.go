package registry

import (
	"context"
	"sync"

	"quill/internal/wiki/models"
	id "quill/pkg/domain"
)

// MemoryStore keeps the registry in mutex-guarded maps. It backs unit tests
// and single-process deployments; the semantics match the Postgres store.
type MemoryStore struct {
	mu     sync.RWMutex
	byName map[string]id.ArticleID
	byID   map[id.ArticleID]models.Article
}

func NewMemory() *MemoryStore {
	return &MemoryStore{
		byName: make(map[string]id.ArticleID),
		byID:   make(map[id.ArticleID]models.Article),
	}
}

func (s *MemoryStore) Reserve(_ context.Context, article models.Article) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if holder, exists := s.byName[article.Name]; exists && holder != article.ID {
		return models.ErrNameTaken
	}
	s.byName[article.Name] = article.ID
	s.byID[article.ID] = article
	return nil
}

func (s *MemoryStore) Rename(_ context.Context, articleID id.ArticleID, newName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	article, exists := s.byID[articleID]
	if !exists {
		return models.ErrNotFound
	}
	if holder, taken := s.byName[newName]; taken && holder != articleID {
		return models.ErrNameTaken
	}
	delete(s.byName, article.Name)
	article.Name = newName
	s.byName[newName] = articleID
	s.byID[articleID] = article
	return nil
}

func (s *MemoryStore) Resolve(_ context.Context, name string) (id.ArticleID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if articleID, exists := s.byName[name]; exists {
		return articleID, nil
	}
	return id.ArticleID{}, models.ErrNotFound
}

func (s *MemoryStore) FindByName(_ context.Context, name string) (*models.Article, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	articleID, exists := s.byName[name]
	if !exists {
		return nil, models.ErrNotFound
	}
	article := s.byID[articleID]
	return &article, nil
}

func (s *MemoryStore) FindByID(_ context.Context, articleID id.ArticleID) (*models.Article, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if article, exists := s.byID[articleID]; exists {
		return &article, nil
	}
	return nil, models.ErrNotFound
}

func (s *MemoryStore) List(_ context.Context) ([]models.Article, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	articles := make([]models.Article, 0, len(s.byID))
	for _, article := range s.byID {
		articles = append(articles, article)
	}
	return articles, nil
}

// Unreserve rolls back a reservation that never became visible because the
// paired revision append failed. Only the compensating path in the article
// service calls this.
func (s *MemoryStore) Unreserve(_ context.Context, articleID id.ArticleID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	article, exists := s.byID[articleID]
	if !exists {
		return nil
	}
	delete(s.byName, article.Name)
	delete(s.byID, articleID)
	return nil
}
