package httptransport

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	flagpkg "quill/internal/flag"
	"quill/internal/search/index"
	searchmetrics "quill/internal/search/metrics"
	"quill/internal/search/query"
	"quill/internal/user"
	"quill/internal/wiki/service"
	"quill/internal/wiki/store/registry"
	"quill/internal/wiki/store/revision"
)

// newTestRouter wires the full stack over memory stores. The commit feed is
// left unwired; search tests seed the index directly.
func newTestRouter(t *testing.T) (http.Handler, *index.MemoryIndex) {
	t.Helper()

	log := slog.Default()
	reg := registry.NewMemory()
	revs := revision.NewMemory()
	ix := index.NewMemory()

	flagService := flagpkg.NewService(flagpkg.NewMemory(), map[string]bool{
		flagpkg.RegistrationEnabled: true,
	}, log)
	userService := user.NewService(user.NewMemory(), flagService, []byte("test-signing-key"))
	articleService := service.New(reg, revs)
	queryService := query.New(ix, reg, searchmetrics.NewWith(prometheus.NewRegistry()))

	handler := NewHandler(articleService, queryService, userService, flagService, log)
	return NewRouter(handler, userService, log), ix
}

func doJSON(t *testing.T, router http.Handler, method, path, token string, payload any) *httptest.ResponseRecorder {
	t.Helper()

	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("failed to marshal payload: %v", err)
		}
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func registerAndLogin(t *testing.T, router http.Handler, name string) string {
	t.Helper()

	rec := doJSON(t, router, http.MethodPost, "/auth/register", "", map[string]string{
		"name": name, "password": "a decent password",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 registering, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, router, http.MethodPost, "/auth/login", "", map[string]string{
		"name": name, "password": "a decent password",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 logging in, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode login response: %v", err)
	}
	return resp.Token
}

func TestWritesRequireAuth(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/articles", "", map[string]string{
		"name": "Cats", "content": "Cats are cute.",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without a token, got %d", rec.Code)
	}
}

func TestArticleLifecycleViaHandlers(t *testing.T) {
	router, _ := newTestRouter(t)
	token := registerAndLogin(t, router, "alice")

	// Create.
	rec := doJSON(t, router, http.MethodPost, "/articles", token, map[string]string{
		"name": "Cats", "content": "Cats are cute.",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 creating, got %d: %s", rec.Code, rec.Body.String())
	}
	var created struct {
		Revision struct {
			Number uint64 `json:"number"`
		} `json:"revision"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("failed to decode create response: %v", err)
	}
	if created.Revision.Number != 0 {
		t.Fatalf("expected revision 0, got %d", created.Revision.Number)
	}

	// Duplicate create conflicts.
	rec = doJSON(t, router, http.MethodPost, "/articles", token, map[string]string{
		"name": "Cats", "content": "other",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate name, got %d", rec.Code)
	}

	// Read back.
	rec = doJSON(t, router, http.MethodGet, "/articles/Cats", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 reading, got %d", rec.Code)
	}

	// Edit from the current revision.
	rec = doJSON(t, router, http.MethodPut, "/articles/Cats", token, map[string]any{
		"content": "Cats are cute and curious.", "expected_revision": 0,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 editing, got %d: %s", rec.Code, rec.Body.String())
	}

	// Editing from the stale basis conflicts.
	rec = doJSON(t, router, http.MethodPut, "/articles/Cats", token, map[string]any{
		"content": "late edit", "expected_revision": 0,
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for stale edit, got %d", rec.Code)
	}

	// Identical content is a no-op, not a conflict.
	rec = doJSON(t, router, http.MethodPut, "/articles/Cats", token, map[string]any{
		"content": "Cats are cute and curious.", "expected_revision": 1,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for no-op edit, got %d", rec.Code)
	}
	var noop struct {
		Outcome string `json:"outcome"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&noop); err != nil {
		t.Fatalf("failed to decode edit response: %v", err)
	}
	if noop.Outcome != "no_change" {
		t.Fatalf("expected no_change outcome, got %q", noop.Outcome)
	}

	// Rename, then the old name 404s and the new one serves history.
	rec = doJSON(t, router, http.MethodPost, "/articles/Cats/rename", token, map[string]string{
		"new_name": "Felines",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 renaming, got %d: %s", rec.Code, rec.Body.String())
	}
	rec = doJSON(t, router, http.MethodGet, "/articles/Cats", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on old name, got %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodGet, "/articles/Felines/revisions", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 listing revisions, got %d", rec.Code)
	}
	var listing struct {
		Revisions []struct {
			Number     uint64 `json:"number"`
			AuthorName string `json:"author_name"`
		} `json:"revisions"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&listing); err != nil {
		t.Fatalf("failed to decode revision listing: %v", err)
	}
	if len(listing.Revisions) != 2 {
		t.Fatalf("expected 2 revisions, got %d", len(listing.Revisions))
	}
	if listing.Revisions[0].AuthorName != "alice" {
		t.Fatalf("expected author alice, got %q", listing.Revisions[0].AuthorName)
	}

	// A single numbered revision still serves the old content.
	rec = doJSON(t, router, http.MethodGet, "/articles/Felines/revisions/0", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 reading revision 0, got %d", rec.Code)
	}
	rec = doJSON(t, router, http.MethodGet, "/articles/Felines/revisions/9", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown revision, got %d", rec.Code)
	}
}

func TestSearchEndpoint(t *testing.T) {
	router, ix := newTestRouter(t)
	token := registerAndLogin(t, router, "bob")

	rec := doJSON(t, router, http.MethodPost, "/articles", token, map[string]string{
		"name": "Gardening", "content": "Digging in dirt is fun.",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 creating, got %d", rec.Code)
	}

	// Index the content the way the feed worker would.
	var created struct {
		Article struct {
			ID string `json:"id"`
		} `json:"article"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("failed to decode create response: %v", err)
	}
	if err := ix.Upsert(context.Background(), index.Entry{
		ArticleID: created.Article.ID,
		Name:      "Gardening",
		Content:   "Digging in dirt is fun.",
		Revision:  0,
	}); err != nil {
		t.Fatalf("failed to seed index: %v", err)
	}

	rec = doJSON(t, router, http.MethodGet, "/search?q=Gardening", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 searching, got %d", rec.Code)
	}
	var resp struct {
		ExactMatch bool `json:"exact_match"`
		Results    []struct {
			Title   string `json:"title"`
			Snippet string `json:"snippet"`
		} `json:"results"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode search response: %v", err)
	}
	if !resp.ExactMatch {
		t.Fatal("expected exact_match for a query naming an article")
	}
	if len(resp.Results) != 1 || resp.Results[0].Title != "Gardening" {
		t.Fatalf("unexpected results: %+v", resp.Results)
	}
}

func TestFlagAdminEndpoints(t *testing.T) {
	router, _ := newTestRouter(t)
	token := registerAndLogin(t, router, "carol")

	rec := doJSON(t, router, http.MethodPut, "/admin/flags/registration_enabled", token, map[string]bool{
		"enabled": false,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 setting flag, got %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodGet, "/admin/flags/registration_enabled", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 reading flag, got %d", rec.Code)
	}
	var flag struct {
		Enabled bool `json:"enabled"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&flag); err != nil {
		t.Fatalf("failed to decode flag response: %v", err)
	}
	if flag.Enabled {
		t.Fatal("expected flag to read as disabled")
	}

	// With registration closed, new signups are refused.
	rec = doJSON(t, router, http.MethodPost, "/auth/register", "", map[string]string{
		"name": "dave", "password": "a decent password",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 with registration closed, got %d", rec.Code)
	}
}
