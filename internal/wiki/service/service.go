// Package service orchestrates the name registry and revision log into the
// atomic operations the rest of the system consumes: create, edit, rename,
// and the read paths. Conflict outcomes (name taken, stale edit) are
// returned to the caller, never retried here, because resolving them needs
// fresh user input. Transient storage failures on the write path are retried
// a bounded number of times with backoff before the request fails.
package service

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"quill/internal/search/feed"
	wikimetrics "quill/internal/wiki/metrics"
	"quill/internal/wiki/models"
	"quill/internal/wiki/store/registry"
	"quill/internal/wiki/store/revision"
	id "quill/pkg/domain"
	dErrors "quill/pkg/domainerrors"
	"quill/pkg/requestcontext"
)

// ArticleService is the write and single-article read surface of the wiki
// core. Search goes through the query service instead.
type ArticleService struct {
	registry  registry.Store
	revisions revision.Store
	tx        StoreTx
	commits   feed.Publisher
	logger    *slog.Logger
	metrics   *wikimetrics.Metrics
	tracer    trace.Tracer
}

type serviceConfig struct {
	tx      StoreTx
	commits feed.Publisher
	logger  *slog.Logger
	metrics *wikimetrics.Metrics
}

// Option configures an ArticleService.
type Option func(*serviceConfig)

// WithTx supplies the transaction boundary; defaults to an in-memory one
// over the given stores.
func WithTx(tx StoreTx) Option {
	return func(cfg *serviceConfig) { cfg.tx = tx }
}

// WithCommitPublisher wires the feed that keeps the search index in sync.
func WithCommitPublisher(commits feed.Publisher) Option {
	return func(cfg *serviceConfig) { cfg.commits = commits }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *serviceConfig) { cfg.logger = logger }
}

// WithMetrics sets the write-path metrics.
func WithMetrics(m *wikimetrics.Metrics) Option {
	return func(cfg *serviceConfig) { cfg.metrics = m }
}

// New constructs an ArticleService over the two authoritative stores.
func New(reg registry.Store, revs revision.Store, opts ...Option) *ArticleService {
	cfg := &serviceConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}
	if cfg.tx == nil {
		cfg.tx = NewMemoryTx(Stores{Registry: reg, Revisions: revs})
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}
	return &ArticleService{
		registry:  reg,
		revisions: revs,
		tx:        cfg.tx,
		commits:   cfg.commits,
		logger:    cfg.logger,
		metrics:   cfg.metrics,
		tracer:    otel.Tracer("quill/wiki"),
	}
}

// Create reserves the name and appends revision 0 as one unit. If the
// append fails after the reservation succeeded, the reservation is released
// before the error propagates, so a half-created article is never visible.
func (s *ArticleService) Create(ctx context.Context, name, content string, creator id.UserID) (*models.Article, *models.Revision, error) {
	ctx, span := s.tracer.Start(ctx, "article.create")
	defer span.End()

	name = registry.Normalize(name)
	if name == "" {
		return nil, nil, dErrors.New(dErrors.CodeBadRequest, "article name is required")
	}
	if creator.IsNil() {
		return nil, nil, dErrors.New(dErrors.CodeBadRequest, "creator is required")
	}

	article := models.Article{
		ID:        id.NewArticleID(),
		Name:      name,
		CreatorID: creator,
		CreatedAt: requestcontext.Now(ctx).UTC(),
	}
	var rev *models.Revision
	err := s.retryTransient(ctx, "article.create", func() error {
		return s.tx.RunInTx(ctx, func(stores Stores) error {
			if err := stores.Registry.Reserve(ctx, article); err != nil {
				if errors.Is(err, models.ErrNameTaken) {
					s.countNameConflict()
					return dErrors.Wrap(err, dErrors.CodeConflict, "article name already taken")
				}
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to reserve article name")
			}
			appended, err := stores.Revisions.Append(ctx, models.Revision{
				ArticleID: article.ID,
				Number:    0,
				Content:   content,
				AuthorID:  creator,
			})
			if err != nil {
				// Compensate: the name must not stay bound to an article that
				// has no revision 0. Inside a database transaction the rollback
				// covers this as well; here it also covers the memory stores.
				if unreserveErr := stores.Registry.Unreserve(ctx, article.ID); unreserveErr != nil {
					s.logger.ErrorContext(ctx, "failed to release reservation after append failure",
						"article_id", article.ID.String(),
						"error", unreserveErr.Error(),
					)
				}
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to append first revision")
			}
			rev = appended
			return nil
		})
	})
	if err != nil {
		span.RecordError(err)
		return nil, nil, err
	}

	if s.metrics != nil {
		s.metrics.ArticlesCreated.Inc()
		s.metrics.RevisionsCreated.Inc()
	}
	s.publishCommit(ctx, article, rev)
	return &article, rev, nil
}

// Edit appends a new revision if, and only if, the caller's expected latest
// number still is the latest: the optimistic concurrency check. Content
// identical to the current revision is reported as OutcomeNoOp and creates
// nothing.
func (s *ArticleService) Edit(ctx context.Context, articleID id.ArticleID, expectedLatest uint64, newContent string, author id.UserID) (*models.EditResult, error) {
	ctx, span := s.tracer.Start(ctx, "article.edit")
	defer span.End()

	if author.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "author is required")
	}
	var article *models.Article
	err := s.retryTransient(ctx, "article.edit.load", func() error {
		var loadErr error
		article, loadErr = s.registry.FindByID(ctx, articleID)
		return loadErr
	})
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, dErrors.Wrap(err, dErrors.CodeNotFound, "article not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load article")
	}

	var latest *models.Revision
	err = s.retryTransient(ctx, "article.edit.latest", func() error {
		var latestErr error
		latest, latestErr = s.revisions.Latest(ctx, articleID)
		return latestErr
	})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load latest revision")
	}
	if latest.Number != expectedLatest {
		s.countStaleEdit()
		return nil, dErrors.Wrap(models.ErrStaleEdit, dErrors.CodeConflict, "article changed since it was loaded")
	}
	if latest.Content == newContent {
		if s.metrics != nil {
			s.metrics.NoOpEdits.Inc()
		}
		return &models.EditResult{Outcome: models.OutcomeNoOp}, nil
	}

	var rev *models.Revision
	err = s.retryTransient(ctx, "article.edit.append", func() error {
		var appendErr error
		rev, appendErr = s.revisions.Append(ctx, models.Revision{
			ArticleID: articleID,
			Number:    expectedLatest + 1,
			Content:   newContent,
			AuthorID:  author,
		})
		return appendErr
	})
	if err != nil {
		if errors.Is(err, models.ErrConcurrentAppend) {
			// A racer claimed expectedLatest+1 between our check and the
			// append, which means the caller's basis is stale after all.
			s.countStaleEdit()
			return nil, dErrors.Wrap(models.ErrStaleEdit, dErrors.CodeConflict, "article changed since it was loaded")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to append revision")
	}

	if s.metrics != nil {
		s.metrics.RevisionsCreated.Inc()
	}
	s.publishCommit(ctx, *article, rev)
	return &models.EditResult{Outcome: models.OutcomeCreated, Revision: rev}, nil
}

// Rename changes the article's name without touching the revision log.
// Renaming to the current name is OutcomeNoOp.
func (s *ArticleService) Rename(ctx context.Context, articleID id.ArticleID, newName string) (*models.EditResult, error) {
	ctx, span := s.tracer.Start(ctx, "article.rename")
	defer span.End()

	newName = registry.Normalize(newName)
	if newName == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "article name is required")
	}
	var article *models.Article
	err := s.retryTransient(ctx, "article.rename.load", func() error {
		var loadErr error
		article, loadErr = s.registry.FindByID(ctx, articleID)
		return loadErr
	})
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, dErrors.Wrap(err, dErrors.CodeNotFound, "article not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load article")
	}
	if article.Name == newName {
		return &models.EditResult{Outcome: models.OutcomeNoOp}, nil
	}

	err = s.retryTransient(ctx, "article.rename", func() error {
		return s.registry.Rename(ctx, articleID, newName)
	})
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNameTaken):
			s.countNameConflict()
			return nil, dErrors.Wrap(err, dErrors.CodeConflict, "article name already taken")
		case errors.Is(err, models.ErrNotFound):
			return nil, dErrors.Wrap(err, dErrors.CodeNotFound, "article not found")
		default:
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to rename article")
		}
	}
	if s.metrics != nil {
		s.metrics.Renames.Inc()
	}

	// The index keys search entries by name, so a rename is a commit even
	// though no revision was created. The stamp stays at the latest number;
	// idempotent apply accepts an equal stamp.
	article.Name = newName
	if latest, err := s.revisions.Latest(ctx, articleID); err == nil {
		s.publishCommit(ctx, *article, latest)
	} else {
		s.logger.ErrorContext(ctx, "rename committed but latest revision unavailable for indexing",
			"article_id", articleID.String(),
			"error", err.Error(),
		)
	}
	return &models.EditResult{Outcome: models.OutcomeRenamed}, nil
}

// GetByName returns the article and its latest revision.
func (s *ArticleService) GetByName(ctx context.Context, name string) (*models.Article, *models.Revision, error) {
	name = registry.Normalize(name)
	article, err := s.registry.FindByName(ctx, name)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, nil, dErrors.Wrap(err, dErrors.CodeNotFound, "article not found")
		}
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load article")
	}
	latest, err := s.revisions.Latest(ctx, article.ID)
	if err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load latest revision")
	}
	return article, latest, nil
}

// GetByID returns the article and its latest revision.
func (s *ArticleService) GetByID(ctx context.Context, articleID id.ArticleID) (*models.Article, *models.Revision, error) {
	article, err := s.registry.FindByID(ctx, articleID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, nil, dErrors.Wrap(err, dErrors.CodeNotFound, "article not found")
		}
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load article")
	}
	latest, err := s.revisions.Latest(ctx, articleID)
	if err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load latest revision")
	}
	return article, latest, nil
}

// GetRevision returns one numbered revision of a named article,
// distinguishing an unknown article from an unknown revision number.
func (s *ArticleService) GetRevision(ctx context.Context, name string, number uint64) (*models.Article, *models.Revision, error) {
	name = registry.Normalize(name)
	article, err := s.registry.FindByName(ctx, name)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, nil, dErrors.Wrap(err, dErrors.CodeNotFound, "article not found")
		}
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load article")
	}
	rev, err := s.revisions.Get(ctx, article.ID, number)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrRevisionNotFound):
			return nil, nil, dErrors.Wrap(err, dErrors.CodeNotFound, "revision does not exist")
		case errors.Is(err, models.ErrNotFound):
			return nil, nil, dErrors.Wrap(err, dErrors.CodeNotFound, "article not found")
		default:
			return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load revision")
		}
	}
	return article, rev, nil
}

// ListRevisions returns the article's full history in ascending order.
func (s *ArticleService) ListRevisions(ctx context.Context, name string) (*models.Article, []models.Revision, error) {
	name = registry.Normalize(name)
	article, err := s.registry.FindByName(ctx, name)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, nil, dErrors.Wrap(err, dErrors.CodeNotFound, "article not found")
		}
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load article")
	}
	revs, err := s.revisions.List(ctx, article.ID)
	if err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list revisions")
	}
	return article, revs, nil
}

// publishCommit hands a committed state to the search feed. Failures are
// logged and metered only; the authoritative write already succeeded and
// reconciliation repairs the index later.
func (s *ArticleService) publishCommit(ctx context.Context, article models.Article, rev *models.Revision) {
	if s.commits == nil || rev == nil {
		return
	}
	event := feed.CommitEvent{
		ArticleID: article.ID.String(),
		Name:      article.Name,
		Content:   rev.Content,
		Revision:  rev.Number,
		EditedAt:  rev.CreatedAt,
	}
	if err := s.commits.Publish(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish commit to search feed",
			"article_id", article.ID.String(),
			"revision", rev.Number,
			"error", err.Error(),
		)
	}
}

func (s *ArticleService) countNameConflict() {
	if s.metrics != nil {
		s.metrics.NameConflicts.Inc()
	}
}

func (s *ArticleService) countStaleEdit() {
	if s.metrics != nil {
		s.metrics.StaleEdits.Inc()
	}
}
