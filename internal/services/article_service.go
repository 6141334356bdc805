package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"healthchat-backend/internal/authz"
	"healthchat-backend/internal/models"
	"healthchat-backend/internal/store"

	"github.com/google/uuid"
)

// ArticleService owns article workflows: doctors author drafts, publish
// them, and anyone verified can read what is published.
type ArticleService struct {
	store  store.Store
	engine *authz.Engine
}

func NewArticleService(s store.Store, engine *authz.Engine) *ArticleService {
	return &ArticleService{store: s, engine: engine}
}

// Create starts a new draft authored by the caller. Authorship is
// restricted to doctors and admins; the policy engine's rule list only
// covers existing articles, so the authoring gate is a role check here.
func (s *ArticleService) Create(ctx context.Context, subjectID uuid.UUID, req models.CreateArticleRequest) (*models.ArticleResponse, error) {
	if req.Title == "" || req.Content == "" {
		return nil, fmt.Errorf("%w: title and content are required", ErrValidation)
	}

	caller, err := s.store.GetProfileByID(ctx, subjectID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("fetching caller profile: %w", err)
	}
	if caller.Role != models.RoleDoctor && caller.Role != models.RoleAdmin {
		return nil, fmt.Errorf("%w: %s", ErrUnauthorized, authz.ReasonRoleInsufficient)
	}

	article, err := s.store.CreateArticle(ctx, store.CreateArticleParams{
		ID:       uuid.New(),
		AuthorID: subjectID,
		Title:    req.Title,
		Content:  req.Content,
	})
	if err != nil {
		return nil, fmt.Errorf("creating article: %w", err)
	}

	log.Printf("[ArticleService] %s created draft article %s", subjectID, article.ID)
	resp := articleResponse(article)
	return &resp, nil
}

// Get returns one article. Published articles are readable by any verified
// identity; drafts only by their author or an admin.
func (s *ArticleService) Get(ctx context.Context, subjectID, articleID uuid.UUID) (*models.ArticleResponse, error) {
	article, err := s.authorizeArticle(ctx, subjectID, articleID, authz.OpRead)
	if err != nil {
		return nil, err
	}
	resp := articleResponse(article)
	return &resp, nil
}

// ListPublished returns published articles for any verified caller.
func (s *ArticleService) ListPublished(ctx context.Context, subjectID uuid.UUID, limit, offset int) ([]models.ArticleResponse, error) {
	decision, err := s.engine.Authorize(ctx, subjectID, authz.OpRead, authz.Resource{
		Kind:          authz.KindArticle,
		ArticleStatus: models.ArticleStatusPublished,
	})
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return nil, denyError(decision)
	}

	limit, offset = clampPage(limit, offset)
	articles, err := s.store.ListArticlesByStatus(ctx, models.ArticleStatusPublished, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing published articles: %w", err)
	}
	return articleResponses(articles), nil
}

// ListMine returns the caller's own articles in any status.
func (s *ArticleService) ListMine(ctx context.Context, subjectID uuid.UUID, limit, offset int) ([]models.ArticleResponse, error) {
	limit, offset = clampPage(limit, offset)
	articles, err := s.store.ListArticlesByAuthor(ctx, subjectID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing own articles: %w", err)
	}
	return articleResponses(articles), nil
}

// Update edits content or moves the article through its lifecycle
// (draft -> published -> archived). Author or admin only.
func (s *ArticleService) Update(ctx context.Context, subjectID, articleID uuid.UUID, req models.UpdateArticleRequest) (*models.ArticleResponse, error) {
	var status *models.ArticleStatus
	if req.Status != nil {
		st := models.ArticleStatus(*req.Status)
		if st != models.ArticleStatusDraft && st != models.ArticleStatusPublished && st != models.ArticleStatusArchived {
			return nil, fmt.Errorf("%w: unrecognized article status %q", ErrValidation, *req.Status)
		}
		status = &st
	}

	if _, err := s.authorizeArticle(ctx, subjectID, articleID, authz.OpUpdate); err != nil {
		return nil, err
	}

	article, err := s.store.UpdateArticle(ctx, store.UpdateArticleParams{
		ID:      articleID,
		Title:   req.Title,
		Content: req.Content,
		Status:  status,
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("updating article: %w", err)
	}

	resp := articleResponse(article)
	return &resp, nil
}

// Delete removes an article. Author or admin only.
func (s *ArticleService) Delete(ctx context.Context, subjectID, articleID uuid.UUID) error {
	if _, err := s.authorizeArticle(ctx, subjectID, articleID, authz.OpDelete); err != nil {
		return err
	}
	if err := s.store.DeleteArticle(ctx, articleID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("deleting article: %w", err)
	}
	return nil
}

func (s *ArticleService) authorizeArticle(ctx context.Context, subjectID, articleID uuid.UUID, op authz.Operation) (*models.Article, error) {
	article, err := s.store.GetArticleByID(ctx, articleID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("fetching article: %w", err)
	}

	decision, err := s.engine.Authorize(ctx, subjectID, op, authz.Resource{
		Kind:          authz.KindArticle,
		ID:            article.ID,
		AuthorID:      article.AuthorID,
		ArticleStatus: article.Status,
	})
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return nil, denyError(decision)
	}
	return article, nil
}

func articleResponse(a *models.Article) models.ArticleResponse {
	return models.ArticleResponse{
		ID:        a.ID,
		AuthorID:  a.AuthorID,
		Title:     a.Title,
		Content:   a.Content,
		Status:    a.Status,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

func articleResponses(articles []models.Article) []models.ArticleResponse {
	resp := make([]models.ArticleResponse, 0, len(articles))
	for i := range articles {
		resp = append(resp, articleResponse(&articles[i]))
	}
	return resp
}
