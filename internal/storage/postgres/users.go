package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/authsvc/pkg/identity"
	"github.com/dmitrymomot/authsvc/pkg/pg"
)

// IdentityStorage implements identity.Storage on a pgx pool. Every mutation
// is a single statement so concurrent sign-ins resolve through database
// constraints instead of application locks.
type IdentityStorage struct {
	pool *pgxpool.Pool
}

// NewIdentityStorage creates the PostgreSQL identity storage.
func NewIdentityStorage(pool *pgxpool.Pool) *IdentityStorage {
	return &IdentityStorage{pool: pool}
}

const userColumns = `id, email, name, image_url, email_verified, created_at, updated_at`

func scanUser(row pgx.Row) (*identity.User, error) {
	var u identity.User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.ImageURL, &u.EmailVerified, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, identity.ErrUserNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}

func (s *IdentityStorage) GetUserByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

func (s *IdentityStorage) GetUserByAccount(ctx context.Context, provider, providerAccountID string) (*identity.User, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT u.id, u.email, u.name, u.image_url, u.email_verified, u.created_at, u.updated_at
		 FROM users u
		 JOIN accounts a ON a.user_id = u.id
		 WHERE a.provider = $1 AND a.provider_account_id = $2`,
		provider, providerAccountID)
	return scanUser(row)
}

func (s *IdentityStorage) CreateUser(ctx context.Context, user *identity.User) (*identity.User, error) {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO users (id, email, name, image_url, email_verified)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+userColumns,
		user.ID, user.Email, user.Name, user.ImageURL, user.EmailVerified)

	created, err := scanUser(row)
	if err != nil {
		if pg.IsDuplicateKeyError(err) {
			return nil, identity.ErrEmailTaken
		}
		return nil, err
	}
	return created, nil
}

// UpsertUserByEmail is the constraint-driven create-or-fetch step: a racing
// pair of first sign-ins for the same email results in one insert and one
// update, never two rows. The xmax trick distinguishes the two outcomes.
func (s *IdentityStorage) UpsertUserByEmail(ctx context.Context, user *identity.User) (*identity.User, bool, error) {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO users (id, email, name, image_url, email_verified)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (email) DO UPDATE SET
		     name = CASE WHEN EXCLUDED.name <> '' THEN EXCLUDED.name ELSE users.name END,
		     image_url = CASE WHEN EXCLUDED.image_url <> '' THEN EXCLUDED.image_url ELSE users.image_url END,
		     updated_at = now()
		 RETURNING `+userColumns+`, (xmax = 0) AS inserted`,
		user.ID, user.Email, user.Name, user.ImageURL, user.EmailVerified)

	var u identity.User
	var inserted bool
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.ImageURL, &u.EmailVerified, &u.CreatedAt, &u.UpdatedAt, &inserted); err != nil {
		return nil, false, fmt.Errorf("upsert user: %w", err)
	}
	return &u, inserted, nil
}

func (s *IdentityStorage) UpdateUserProfile(ctx context.Context, id uuid.UUID, name, imageURL string) (*identity.User, error) {
	row := s.pool.QueryRow(ctx,
		`UPDATE users SET name = $2, image_url = $3, updated_at = now()
		 WHERE id = $1
		 RETURNING `+userColumns,
		id, name, imageURL)
	return scanUser(row)
}

func (s *IdentityStorage) LinkAccount(ctx context.Context, account *identity.Account) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO accounts (id, user_id, provider, provider_account_id)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (provider, provider_account_id) DO NOTHING`,
		account.ID, account.UserID, account.Provider, account.ProviderAccountID)
	if err != nil {
		return fmt.Errorf("link account: %w", err)
	}
	return nil
}

var _ identity.Storage = (*IdentityStorage)(nil)
