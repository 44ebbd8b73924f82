package httptransport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	flagstore "quill/internal/flag"
	"quill/internal/search/query"
	"quill/internal/user"
	"quill/internal/wiki/models"
	"quill/internal/wiki/service"
	id "quill/pkg/domain"
	dErrors "quill/pkg/domainerrors"
	"quill/pkg/requestcontext"
)

// Handler bundles the services the HTTP surface exposes.
type Handler struct {
	articles *service.ArticleService
	search   *query.Service
	users    *user.Service
	flags    *flagstore.Service
	logger   *slog.Logger
}

func NewHandler(articles *service.ArticleService, search *query.Service, users *user.Service, flags *flagstore.Service, logger *slog.Logger) *Handler {
	return &Handler{
		articles: articles,
		search:   search,
		users:    users,
		flags:    flags,
		logger:   logger,
	}
}

type articleResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatorID string    `json:"creator_id"`
	CreatedAt time.Time `json:"created_at"`
}

type revisionResponse struct {
	Number    uint64    `json:"number"`
	Content   string    `json:"content"`
	AuthorID  string    `json:"author_id"`
	CreatedAt time.Time `json:"created_at"`
}

type revisionListItem struct {
	Number     uint64    `json:"number"`
	AuthorName string    `json:"author_name"`
	CreatedAt  time.Time `json:"created_at"`
}

func toArticleResponse(a *models.Article) articleResponse {
	return articleResponse{
		ID:        a.ID.String(),
		Name:      a.Name,
		CreatorID: a.CreatorID.String(),
		CreatedAt: a.CreatedAt,
	}
}

func toRevisionResponse(rev *models.Revision) revisionResponse {
	return revisionResponse{
		Number:    rev.Number,
		Content:   rev.Content,
		AuthorID:  rev.AuthorID.String(),
		CreatedAt: rev.CreatedAt,
	}
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	u, err := h.users.Register(r.Context(), req.Name, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{
		"id":   u.ID.String(),
		"name": u.Name,
	})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	token, err := h.users.Login(r.Context(), req.Name, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (h *Handler) handleCreateArticle(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name    string `json:"name"`
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	article, rev, err := h.articles.Create(r.Context(), req.Name, req.Content, requestcontext.UserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"article":  toArticleResponse(article),
		"revision": toRevisionResponse(rev),
	})
}

func (h *Handler) handleGetArticle(w http.ResponseWriter, r *http.Request) {
	article, rev, err := h.articles.GetByName(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"article":  toArticleResponse(article),
		"revision": toRevisionResponse(rev),
	})
}

func (h *Handler) handleEditArticle(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Content          string `json:"content"`
		ExpectedRevision uint64 `json:"expected_revision"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	article, _, err := h.articles.GetByName(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, err)
		return
	}
	result, err := h.articles.Edit(r.Context(), article.ID, req.ExpectedRevision, req.Content, requestcontext.UserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeEditResult(w, result)
}

func (h *Handler) handleRenameArticle(w http.ResponseWriter, r *http.Request) {
	var req struct {
		NewName string `json:"new_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	article, _, err := h.articles.GetByName(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, err)
		return
	}
	result, err := h.articles.Rename(r.Context(), article.ID, req.NewName)
	if err != nil {
		writeError(w, err)
		return
	}
	writeEditResult(w, result)
}

func (h *Handler) handleListRevisions(w http.ResponseWriter, r *http.Request) {
	_, revs, err := h.articles.ListRevisions(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, err)
		return
	}
	items := make([]revisionListItem, 0, len(revs))
	for _, rev := range revs {
		items = append(items, revisionListItem{
			Number:     rev.Number,
			AuthorName: h.authorName(r.Context(), rev.AuthorID),
			CreatedAt:  rev.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"revisions": items})
}

func (h *Handler) handleGetRevision(w http.ResponseWriter, r *http.Request) {
	number, err := strconv.ParseUint(chi.URLParam(r, "number"), 10, 64)
	if err != nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid revision number"))
		return
	}
	_, rev, err := h.articles.GetRevision(r.Context(), chi.URLParam(r, "name"), number)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"revision": toRevisionResponse(rev)})
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	response, err := h.search.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, response)
}

func (h *Handler) handleGetFlag(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    name,
		"enabled": h.flags.Enabled(r.Context(), name),
	})
}

func (h *Handler) handleSetFlag(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Enabled bool `json:"enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	name := chi.URLParam(r, "name")
	if err := h.flags.Set(r.Context(), name, req.Enabled); err != nil {
		writeError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to set flag"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"name": name, "enabled": req.Enabled})
}

// authorName degrades to the raw ID when the user record is missing; a
// revision listing should never 500 over a display name.
func (h *Handler) authorName(ctx context.Context, authorID id.UserID) string {
	name, err := h.users.NameOf(ctx, authorID)
	if err != nil {
		return authorID.String()
	}
	return name
}

func writeEditResult(w http.ResponseWriter, result *models.EditResult) {
	body := map[string]any{"outcome": result.Outcome}
	status := http.StatusOK
	if result.Outcome == models.OutcomeCreated {
		body["revision"] = toRevisionResponse(result.Revision)
		status = http.StatusCreated
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError centralizes coded-error translation so every handler returns
// the same JSON error envelope.
func writeError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(dErrors.ToHTTPStatus(code))
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   string(code),
		"message": err.Error(),
	})
}
