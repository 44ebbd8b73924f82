package index

import (
	"context"
	"sort"
	"sync"
)

// nameWeight boosts term frequency in the article name over the body, so a
// query matching a title outranks one buried in content.
const nameWeight = 3.0

type posting struct {
	nameFreq    int
	contentFreq int
}

// MemoryIndex is a mutex-guarded inverted index: term → article → frequency.
// It backs unit tests and single-process deployments.
type MemoryIndex struct {
	mu       sync.RWMutex
	docs     map[string]Entry
	postings map[string]map[string]posting
}

func NewMemory() *MemoryIndex {
	return &MemoryIndex{
		docs:     make(map[string]Entry),
		postings: make(map[string]map[string]posting),
	}
}

func (ix *MemoryIndex) Upsert(_ context.Context, entry Entry) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if existing, indexed := ix.docs[entry.ArticleID]; indexed {
		if entry.Revision < existing.Revision {
			// Stale replay from the at-least-once feed.
			return nil
		}
		if entry.Revision == existing.Revision && entry.Name == existing.Name && entry.Content == existing.Content {
			return nil
		}
		ix.removePostings(existing)
	}

	ix.docs[entry.ArticleID] = entry
	for _, term := range Tokenize(entry.Name) {
		p := ix.postingFor(term, entry.ArticleID)
		p.nameFreq++
		ix.postings[term][entry.ArticleID] = p
	}
	for _, term := range Tokenize(entry.Content) {
		p := ix.postingFor(term, entry.ArticleID)
		p.contentFreq++
		ix.postings[term][entry.ArticleID] = p
	}
	return nil
}

func (ix *MemoryIndex) Search(_ context.Context, query string, limit int) ([]Hit, error) {
	terms := Tokenize(query)
	if len(terms) == 0 || limit <= 0 {
		return nil, nil
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	scores := make(map[string]float64)
	for _, term := range terms {
		for articleID, p := range ix.postings[term] {
			scores[articleID] += nameWeight*float64(p.nameFreq) + float64(p.contentFreq)
		}
	}

	hits := make([]Hit, 0, len(scores))
	for articleID, score := range scores {
		doc := ix.docs[articleID]
		hits = append(hits, Hit{
			ArticleID: articleID,
			Name:      doc.Name,
			Snippet:   ExtractSnippet(doc.Content, terms),
			Score:     score,
			EditedAt:  doc.EditedAt,
		})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].EditedAt.After(hits[j].EditedAt)
	})
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

func (ix *MemoryIndex) Lookup(_ context.Context, articleID string) (Meta, bool, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	entry, indexed := ix.docs[articleID]
	if !indexed {
		return Meta{}, false, nil
	}
	return Meta{Revision: entry.Revision, Name: entry.Name}, true, nil
}

func (ix *MemoryIndex) postingFor(term, articleID string) posting {
	byDoc, exists := ix.postings[term]
	if !exists {
		byDoc = make(map[string]posting)
		ix.postings[term] = byDoc
	}
	return byDoc[articleID]
}

func (ix *MemoryIndex) removePostings(entry Entry) {
	for _, term := range append(Tokenize(entry.Name), Tokenize(entry.Content)...) {
		byDoc := ix.postings[term]
		if byDoc == nil {
			continue
		}
		delete(byDoc, entry.ArticleID)
		if len(byDoc) == 0 {
			delete(ix.postings, term)
		}
	}
}
