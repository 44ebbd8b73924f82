//go:build integration

package revision_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"quill/internal/wiki/models"
	"quill/internal/wiki/store/registry"
	"quill/internal/wiki/store/revision"
	id "quill/pkg/domain"
	"quill/pkg/testutil/containers"
)

type RevisionPostgresSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	registry *registry.PostgresStore
	store    *revision.PostgresStore
}

func TestRevisionPostgresSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RevisionPostgresSuite))
}

func (s *RevisionPostgresSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.registry = registry.NewPostgres(s.postgres.DB)
	s.store = revision.NewPostgres(s.postgres.DB)
}

func (s *RevisionPostgresSuite) SetupTest() {
	err := s.postgres.TruncateTables(context.Background(), "revisions", "articles")
	s.Require().NoError(err)
}

// newArticle registers an article row; revisions carry a foreign key to it.
func (s *RevisionPostgresSuite) newArticle(name string) id.ArticleID {
	article := models.Article{
		ID:        id.NewArticleID(),
		Name:      name,
		CreatorID: id.NewUserID(),
		CreatedAt: time.Now().UTC(),
	}
	s.Require().NoError(s.registry.Reserve(context.Background(), article))
	return article.ID
}

func (s *RevisionPostgresSuite) TestAppendAndRead() {
	ctx := context.Background()
	articleID := s.newArticle("History")
	author := id.NewUserID()

	for i, content := range []string{"v0", "v1", "v2"} {
		rev, err := s.store.Append(ctx, models.Revision{
			ArticleID: articleID,
			Number:    uint64(i),
			Content:   content,
			AuthorID:  author,
		})
		s.Require().NoError(err)
		s.Equal(uint64(i), rev.Number)
		s.False(rev.CreatedAt.IsZero())
	}

	latest, err := s.store.Latest(ctx, articleID)
	s.Require().NoError(err)
	s.Equal(uint64(2), latest.Number)
	s.Equal("v2", latest.Content)

	revs, err := s.store.List(ctx, articleID)
	s.Require().NoError(err)
	s.Require().Len(revs, 3)
	for i, rev := range revs {
		s.Equal(uint64(i), rev.Number)
	}
}

func (s *RevisionPostgresSuite) TestClaimedNumberRejected() {
	ctx := context.Background()
	articleID := s.newArticle("Claimed")
	author := id.NewUserID()

	_, err := s.store.Append(ctx, models.Revision{ArticleID: articleID, Number: 0, Content: "v0", AuthorID: author})
	s.Require().NoError(err)

	_, err = s.store.Append(ctx, models.Revision{ArticleID: articleID, Number: 0, Content: "dup", AuthorID: author})
	s.Require().ErrorIs(err, models.ErrConcurrentAppend)
}

// TestConcurrentAppend verifies the composite primary key lets exactly one
// racer claim a revision number.
func (s *RevisionPostgresSuite) TestConcurrentAppend() {
	ctx := context.Background()
	articleID := s.newArticle("Race")
	author := id.NewUserID()

	_, err := s.store.Append(ctx, models.Revision{ArticleID: articleID, Number: 0, Content: "base", AuthorID: author})
	s.Require().NoError(err)

	const goroutines = 20
	var wg sync.WaitGroup
	var wins atomic.Int32
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.store.Append(ctx, models.Revision{
				ArticleID: articleID,
				Number:    1,
				Content:   "contender",
				AuthorID:  id.NewUserID(),
			})
			if err == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), wins.Load())
}

func (s *RevisionPostgresSuite) TestNotFoundDistinctions() {
	ctx := context.Background()
	articleID := s.newArticle("Sparse")
	author := id.NewUserID()

	_, err := s.store.Append(ctx, models.Revision{ArticleID: articleID, Number: 0, Content: "v0", AuthorID: author})
	s.Require().NoError(err)

	_, err = s.store.Get(ctx, articleID, 9)
	s.Require().ErrorIs(err, models.ErrRevisionNotFound)

	_, err = s.store.Get(ctx, id.NewArticleID(), 0)
	s.Require().ErrorIs(err, models.ErrNotFound)

	_, err = s.store.Latest(ctx, id.NewArticleID())
	s.Require().ErrorIs(err, models.ErrNotFound)
}
