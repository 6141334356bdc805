package handlers

import (
	"encoding/json"
	"net/http"

	"healthchat-backend/internal/auth"
	"healthchat-backend/internal/models"
	"healthchat-backend/internal/services"
	"healthchat-backend/pkg/httputil"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// ArticleHandlers handles HTTP requests for articles.
type ArticleHandlers struct {
	articleService *services.ArticleService
}

func NewArticleHandlers(s *services.ArticleService) *ArticleHandlers {
	return &ArticleHandlers{articleService: s}
}

func subjectAndArticleID(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	subjectID, ok := auth.SubjectIDFromContext(r.Context())
	if !ok {
		httputil.RespondError(w, http.StatusUnauthorized, "Unauthorized")
		return uuid.Nil, uuid.Nil, false
	}
	articleID, err := uuid.Parse(chi.URLParam(r, "articleID"))
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid article ID")
		return uuid.Nil, uuid.Nil, false
	}
	return subjectID, articleID, true
}

// HandleCreateArticle creates a new draft.
func (h *ArticleHandlers) HandleCreateArticle(w http.ResponseWriter, r *http.Request) {
	subjectID, ok := auth.SubjectIDFromContext(r.Context())
	if !ok {
		httputil.RespondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req models.CreateArticleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	resp, err := h.articleService.Create(r.Context(), subjectID, req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusCreated, resp)
}

// HandleListArticles returns published articles, or the caller's own when
// ?mine=true.
func (h *ArticleHandlers) HandleListArticles(w http.ResponseWriter, r *http.Request) {
	subjectID, ok := auth.SubjectIDFromContext(r.Context())
	if !ok {
		httputil.RespondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	limit, offset := pageParams(r)
	var (
		resp []models.ArticleResponse
		err  error
	)
	if r.URL.Query().Get("mine") == "true" {
		resp, err = h.articleService.ListMine(r.Context(), subjectID, limit, offset)
	} else {
		resp, err = h.articleService.ListPublished(r.Context(), subjectID, limit, offset)
	}
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, resp)
}

// HandleGetArticle returns one article.
func (h *ArticleHandlers) HandleGetArticle(w http.ResponseWriter, r *http.Request) {
	subjectID, articleID, ok := subjectAndArticleID(w, r)
	if !ok {
		return
	}

	resp, err := h.articleService.Get(r.Context(), subjectID, articleID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, resp)
}

// HandleUpdateArticle edits content or status.
func (h *ArticleHandlers) HandleUpdateArticle(w http.ResponseWriter, r *http.Request) {
	subjectID, articleID, ok := subjectAndArticleID(w, r)
	if !ok {
		return
	}

	var req models.UpdateArticleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	resp, err := h.articleService.Update(r.Context(), subjectID, articleID, req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, resp)
}

// HandleDeleteArticle removes an article.
func (h *ArticleHandlers) HandleDeleteArticle(w http.ResponseWriter, r *http.Request) {
	subjectID, articleID, ok := subjectAndArticleID(w, r)
	if !ok {
		return
	}

	if err := h.articleService.Delete(r.Context(), subjectID, articleID); err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
