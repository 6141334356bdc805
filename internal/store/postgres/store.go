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
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Compile-time check to ensure PostgresStore implements store.Store
var _ store.Store = (*PostgresStore)(nil)

type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

const profileColumns = `id, email, role, name, surname, phone, specialization, registration_number, created_at, updated_at`

func scanProfile(row pgx.Row) (*models.Profile, error) {
	p := &models.Profile{}
	err := row.Scan(
		&p.ID,
		&p.Email,
		&p.Role,
		&p.Name,
		&p.Surname,
		&p.Phone,
		&p.Specialization,
		&p.RegistrationNumber,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// UpsertProfile provisions the profile row for an externally created
// identity. ON CONFLICT (id) DO NOTHING makes duplicate event delivery a
// no-op; the returned bool reports whether a row was actually inserted.
func (s *PostgresStore) UpsertProfile(ctx context.Context, arg store.UpsertProfileParams) (bool, error) {
	query := `
		INSERT INTO profiles (id, email, role, name, surname, phone, specialization, registration_number)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING`

	tag, err := s.db.Exec(ctx, query,
		arg.ID,
		arg.Email,
		arg.Role,
		arg.Name,
		arg.Surname,
		arg.Phone,
		arg.Specialization,
		arg.RegistrationNumber,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			log.Printf("ERROR [PostgresStore] UpsertProfile: PostgreSQL error for id %s: Code=%s, Message=%s", arg.ID, pgErr.Code, pgErr.Message)
		}
		return false, fmt.Errorf("database error upserting profile: %w", err)
	}

	created := tag.RowsAffected() > 0
	if created {
		log.Printf("[PostgresStore] UpsertProfile: provisioned profile %s (%s)", arg.ID, arg.Email)
	} else {
		log.Printf("[PostgresStore] UpsertProfile: profile %s already exists, no-op", arg.ID)
	}
	return created, nil
}

// GetProfileByID retrieves a profile by its identity-provider ID.
// Returns store.ErrNotFound if the profile does not exist.
func (s *PostgresStore) GetProfileByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE id = $1`

	p, err := scanProfile(s.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		log.Printf("ERROR [PostgresStore] GetProfileByID: failed for id %s: %v", id, err)
		return nil, fmt.Errorf("database error fetching profile by id: %w", err)
	}
	return p, nil
}

// GetProfileByEmail retrieves a profile by email address.
func (s *PostgresStore) GetProfileByEmail(ctx context.Context, email string) (*models.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE email = $1`

	p, err := scanProfile(s.db.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		log.Printf("ERROR [PostgresStore] GetProfileByEmail: failed for %s: %v", email, err)
		return nil, fmt.Errorf("database error fetching profile by email: %w", err)
	}
	return p, nil
}

// UpdateProfile applies a partial update and returns the fresh row.
func (s *PostgresStore) UpdateProfile(ctx context.Context, arg store.UpdateProfileParams) (*models.Profile, error) {
	sets := []string{"updated_at = now()"}
	args := []interface{}{arg.ID}

	addSet := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if arg.Role != nil {
		addSet("role", *arg.Role)
	}
	if arg.Name != nil {
		addSet("name", *arg.Name)
	}
	if arg.Surname != nil {
		addSet("surname", *arg.Surname)
	}
	if arg.Phone != nil {
		addSet("phone", *arg.Phone)
	}
	if arg.Specialization != nil {
		addSet("specialization", *arg.Specialization)
	}
	if arg.RegistrationNumber != nil {
		addSet("registration_number", *arg.RegistrationNumber)
	}

	query := `
		UPDATE profiles SET ` + strings.Join(sets, ", ") + `
		WHERE id = $1
		RETURNING ` + profileColumns

	p, err := scanProfile(s.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		log.Printf("ERROR [PostgresStore] UpdateProfile: failed for id %s: %v", arg.ID, err)
		return nil, fmt.Errorf("database error updating profile: %w", err)
	}
	return p, nil
}

// ListProfilesByRole returns profiles with the given role, newest last.
// Used for the public doctor directory.
func (s *PostgresStore) ListProfilesByRole(ctx context.Context, role models.Role, limit, offset int) ([]models.Profile, error) {
	query := `
		SELECT ` + profileColumns + `
		FROM profiles
		WHERE role = $1
		ORDER BY created_at ASC
		LIMIT $2 OFFSET $3`

	rows, err := s.db.Query(ctx, query, role, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("database error listing profiles by role: %w", err)
	}
	defer rows.Close()

	return collectProfiles(rows)
}

// ListProfiles returns all profiles (admin view).
func (s *PostgresStore) ListProfiles(ctx context.Context, limit, offset int) ([]models.Profile, error) {
	query := `
		SELECT ` + profileColumns + `
		FROM profiles
		ORDER BY created_at ASC
		LIMIT $1 OFFSET $2`

	rows, err := s.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("database error listing profiles: %w", err)
	}
	defer rows.Close()

	return collectProfiles(rows)
}

func collectProfiles(rows pgx.Rows) ([]models.Profile, error) {
	profiles := []models.Profile{}
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("database error scanning profile row: %w", err)
		}
		profiles = append(profiles, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("database error iterating profile rows: %w", err)
	}
	return profiles, nil
}

// DeleteProfile hard-deletes a profile. Sessions, messages, conversation
// contexts and articles go with it via ON DELETE CASCADE.
func (s *PostgresStore) DeleteProfile(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM profiles WHERE id = $1`, id)
	if err != nil {
		log.Printf("ERROR [PostgresStore] DeleteProfile: failed for id %s: %v", id, err)
		return fmt.Errorf("database error deleting profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	log.Printf("[PostgresStore] DeleteProfile: deleted profile %s (cascaded sessions/messages/articles)", id)
	return nil
}
