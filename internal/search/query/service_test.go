package query

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"

	"quill/internal/search/index"
	searchmetrics "quill/internal/search/metrics"
	"quill/internal/wiki/models"
	"quill/internal/wiki/store/registry"
	id "quill/pkg/domain"
)

type QuerySuite struct {
	suite.Suite
	index    *index.MemoryIndex
	registry *registry.MemoryStore
	svc      *Service
	ctx      context.Context
}

func (s *QuerySuite) SetupTest() {
	s.index = index.NewMemory()
	s.registry = registry.NewMemory()
	s.svc = New(s.index, s.registry, searchmetrics.NewWith(prometheus.NewRegistry()))
	s.ctx = context.Background()
}

func TestQuerySuite(t *testing.T) {
	suite.Run(t, new(QuerySuite))
}

// seed registers an article name and indexes its content.
func (s *QuerySuite) seed(name, content string) {
	article := models.Article{
		ID:        id.NewArticleID(),
		Name:      name,
		CreatorID: id.NewUserID(),
		CreatedAt: time.Now().UTC(),
	}
	s.Require().NoError(s.registry.Reserve(s.ctx, article))
	s.Require().NoError(s.index.Upsert(s.ctx, index.Entry{
		ArticleID: article.ID.String(),
		Name:      name,
		Content:   content,
		Revision:  0,
		EditedAt:  article.CreatedAt,
	}))
}

func (s *QuerySuite) TestExactMatchFlag() {
	s.seed("Cats", "Cats are cute animals.")

	s.Run("set when the query exactly names an article", func() {
		resp, err := s.svc.Search(s.ctx, "Cats")
		s.Require().NoError(err)
		s.True(resp.ExactMatch)
		s.Require().Len(resp.Results, 1)
		s.Equal("Cats", resp.Results[0].Title)
	})

	s.Run("survives whitespace because the query is normalized", func() {
		resp, err := s.svc.Search(s.ctx, "  Cats ")
		s.Require().NoError(err)
		s.True(resp.ExactMatch)
	})

	s.Run("clear for a query that only matches content", func() {
		resp, err := s.svc.Search(s.ctx, "cute animals")
		s.Require().NoError(err)
		s.False(resp.ExactMatch)
		s.NotEmpty(resp.Results)
	})

	s.Run("case matters for exact match", func() {
		resp, err := s.svc.Search(s.ctx, "cats")
		s.Require().NoError(err)
		s.False(resp.ExactMatch)
		// Relevance matching is still case insensitive.
		s.NotEmpty(resp.Results)
	})
}

func (s *QuerySuite) TestEmptyQuery() {
	resp, err := s.svc.Search(s.ctx, "   ")
	s.Require().NoError(err)
	s.False(resp.ExactMatch)
	s.Empty(resp.Results)
}

func (s *QuerySuite) TestNoMatches() {
	s.seed("Dogs", "Dogs bark.")

	resp, err := s.svc.Search(s.ctx, "quantum chromodynamics")
	s.Require().NoError(err)
	s.False(resp.ExactMatch)
	s.Empty(resp.Results)
}

func (s *QuerySuite) TestSnippets() {
	s.seed("Oceans", "The Pacific is the largest ocean. It covers a third of the planet.")

	resp, err := s.svc.Search(s.ctx, "pacific")
	s.Require().NoError(err)
	s.Require().Len(resp.Results, 1)
	s.Contains(resp.Results[0].Snippet, "Pacific")
}
