package postgres

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"healthchat-backend/internal/models"
	"healthchat-backend/internal/store"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const articleColumns = `id, author_id, title, content, status, created_at, updated_at`

func scanArticle(row pgx.Row) (*models.Article, error) {
	a := &models.Article{}
	err := row.Scan(
		&a.ID,
		&a.AuthorID,
		&a.Title,
		&a.Content,
		&a.Status,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// CreateArticle inserts a new article in draft status.
func (s *PostgresStore) CreateArticle(ctx context.Context, arg store.CreateArticleParams) (*models.Article, error) {
	query := `
		INSERT INTO articles (id, author_id, title, content, status)
		VALUES ($1, $2, $3, $4, 'draft')
		RETURNING ` + articleColumns

	a, err := scanArticle(s.db.QueryRow(ctx, query, arg.ID, arg.AuthorID, arg.Title, arg.Content))
	if err != nil {
		log.Printf("ERROR [PostgresStore] CreateArticle: failed for author %s: %v", arg.AuthorID, err)
		return nil, fmt.Errorf("database error creating article: %w", err)
	}
	return a, nil
}

// GetArticleByID retrieves an article by ID.
func (s *PostgresStore) GetArticleByID(ctx context.Context, id uuid.UUID) (*models.Article, error) {
	query := `SELECT ` + articleColumns + ` FROM articles WHERE id = $1`

	a, err := scanArticle(s.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		log.Printf("ERROR [PostgresStore] GetArticleByID: failed for id %s: %v", id, err)
		return nil, fmt.Errorf("database error fetching article: %w", err)
	}
	return a, nil
}

// ListArticlesByStatus returns articles in the given status, newest first.
func (s *PostgresStore) ListArticlesByStatus(ctx context.Context, status models.ArticleStatus, limit, offset int) ([]models.Article, error) {
	query := `
		SELECT ` + articleColumns + `
		FROM articles
		WHERE status = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := s.db.Query(ctx, query, status, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("database error listing articles by status: %w", err)
	}
	defer rows.Close()

	return collectArticles(rows)
}

// ListArticlesByAuthor returns an author's articles in any status.
func (s *PostgresStore) ListArticlesByAuthor(ctx context.Context, authorID uuid.UUID, limit, offset int) ([]models.Article, error) {
	query := `
		SELECT ` + articleColumns + `
		FROM articles
		WHERE author_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := s.db.Query(ctx, query, authorID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("database error listing articles by author: %w", err)
	}
	defer rows.Close()

	return collectArticles(rows)
}

func collectArticles(rows pgx.Rows) ([]models.Article, error) {
	articles := []models.Article{}
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("database error scanning article row: %w", err)
		}
		articles = append(articles, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("database error iterating article rows: %w", err)
	}
	return articles, nil
}

// UpdateArticle applies a partial update and returns the fresh row.
func (s *PostgresStore) UpdateArticle(ctx context.Context, arg store.UpdateArticleParams) (*models.Article, error) {
	sets := []string{"updated_at = now()"}
	args := []interface{}{arg.ID}

	addSet := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if arg.Title != nil {
		addSet("title", *arg.Title)
	}
	if arg.Content != nil {
		addSet("content", *arg.Content)
	}
	if arg.Status != nil {
		addSet("status", *arg.Status)
	}

	query := `
		UPDATE articles SET ` + strings.Join(sets, ", ") + `
		WHERE id = $1
		RETURNING ` + articleColumns

	a, err := scanArticle(s.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		log.Printf("ERROR [PostgresStore] UpdateArticle: failed for id %s: %v", arg.ID, err)
		return nil, fmt.Errorf("database error updating article: %w", err)
	}
	return a, nil
}

// DeleteArticle removes an article row.
func (s *PostgresStore) DeleteArticle(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM articles WHERE id = $1`, id)
	if err != nil {
		log.Printf("ERROR [PostgresStore] DeleteArticle: failed for id %s: %v", id, err)
		return fmt.Errorf("database error deleting article: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}
