package models

import (
	"errors"
	"time"

	id "quill/pkg/domain"
)

// Sentinel errors for facts about the authoritative stores. Stores return
// these (optionally wrapped); services match with errors.Is and translate
// them into coded errors for the transport layer.
var (
	// ErrNotFound: no article with the given name or id.
	ErrNotFound = errors.New("article not found")
	// ErrRevisionNotFound: the article exists but the revision number does not.
	ErrRevisionNotFound = errors.New("revision not found")
	// ErrNameTaken: another live article already holds the name.
	ErrNameTaken = errors.New("article name already taken")
	// ErrStaleEdit: the caller's expected latest revision is no longer latest.
	ErrStaleEdit = errors.New("edit based on stale revision")
	// ErrConcurrentAppend: a concurrent append claimed the same revision
	// number first. Callers re-read the latest number before retrying.
	ErrConcurrentAppend = errors.New("concurrent revision append")
)

// Article is the identity record. The name is mutable and globally unique;
// the ID never changes. Articles are never deleted.
type Article struct {
	ID        id.ArticleID
	Name      string
	CreatorID id.UserID
	CreatedAt time.Time
}

// Revision is one immutable snapshot of an article's content. Numbers start
// at 0 and increase by exactly 1 per article with no gaps; the highest number
// is the article's current content.
type Revision struct {
	ArticleID id.ArticleID
	Number    uint64
	Content   string
	AuthorID  id.UserID
	CreatedAt time.Time
}

// EditOutcome is the closed set of ways a write can conclude, so the
// presentation layer branches on a tag instead of inferring intent from
// data shape.
type EditOutcome string

const (
	// OutcomeCreated: a new revision was appended.
	OutcomeCreated EditOutcome = "created"
	// OutcomeNoOp: the new content was identical to the current latest;
	// no revision was appended.
	OutcomeNoOp EditOutcome = "no_change"
	// OutcomeRenamed: the article's name changed; the revision log was
	// not touched.
	OutcomeRenamed EditOutcome = "renamed"
)

// EditResult reports how an edit concluded. Revision is set only when
// Outcome is OutcomeCreated.
type EditResult struct {
	Outcome  EditOutcome
	Revision *Revision
}
