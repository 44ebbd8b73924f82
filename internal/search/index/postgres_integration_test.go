//go:build integration

package index_test

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/suite"

	"quill/internal/search/index"
	"quill/pkg/testutil/containers"
)

type PostgresIndexSuite struct {
	suite.Suite
	pool  *pgxpool.Pool
	index *index.PostgresIndex
}

func TestPostgresIndexSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresIndexSuite))
}

func (s *PostgresIndexSuite) SetupSuite() {
	ctx := context.Background()
	postgres := containers.NewPostgresContainer(s.T())

	pool, err := pgxpool.New(ctx, postgres.URL)
	s.Require().NoError(err)
	s.T().Cleanup(pool.Close)
	s.pool = pool

	s.index = index.NewPostgres(pool)
	s.Require().NoError(s.index.EnsureSchema(ctx))
}

func (s *PostgresIndexSuite) SetupTest() {
	_, err := s.pool.Exec(context.Background(), "TRUNCATE TABLE search_index")
	s.Require().NoError(err)
}

func (s *PostgresIndexSuite) upsert(articleID, name, content string, revision uint64) {
	s.Require().NoError(s.index.Upsert(context.Background(), index.Entry{
		ArticleID: articleID,
		Name:      name,
		Content:   content,
		Revision:  revision,
		EditedAt:  time.Now().UTC(),
	}))
}

func (s *PostgresIndexSuite) TestUpsertIdempotence() {
	ctx := context.Background()
	s.upsert("a1", "Cats", "Cats are cute animals.", 1)

	// An older stamp must not win.
	s.upsert("a1", "Old Cats", "stale body", 0)

	meta, indexed, err := s.index.Lookup(ctx, "a1")
	s.Require().NoError(err)
	s.True(indexed)
	s.Equal(uint64(1), meta.Revision)
	s.Equal("Cats", meta.Name)

	// An equal stamp applies, covering renames without a new revision.
	s.upsert("a1", "Felines", "Cats are cute animals.", 1)
	meta, _, err = s.index.Lookup(ctx, "a1")
	s.Require().NoError(err)
	s.Equal("Felines", meta.Name)
}

func (s *PostgresIndexSuite) TestSearchRanksNameMatchesFirst() {
	ctx := context.Background()
	s.upsert("title", "Gardening", "A quiet hobby.", 0)
	s.upsert("body", "Outdoor Hobbies", "Gardening is relaxing work in the soil.", 0)

	hits, err := s.index.Search(ctx, "gardening", 10)
	s.Require().NoError(err)
	s.Require().Len(hits, 2)
	s.Equal("title", hits[0].ArticleID)
}

func (s *PostgresIndexSuite) TestSearchSnippets() {
	ctx := context.Background()
	s.upsert("a1", "Oceans", "The Pacific is the largest ocean on the planet.", 0)

	hits, err := s.index.Search(ctx, "pacific", 10)
	s.Require().NoError(err)
	s.Require().Len(hits, 1)
	s.Contains(hits[0].Snippet, "Pacific")
}

func (s *PostgresIndexSuite) TestLookupUnknown() {
	_, indexed, err := s.index.Lookup(context.Background(), "ghost")
	s.Require().NoError(err)
	s.False(indexed)
}
