package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/servicedeskpro/servicedesk/internal/domain"
)

// UserRepository is the document-store contract for the user collection. The
// identity backend assigns ids, so Create is an upsert keyed on that id and
// never clobbers an existing record's fields with blanks.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdateSubscription(ctx context.Context, userID string, sub *domain.Subscription) error
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (id, email, name, role, avatar_url, password_hash)
        VALUES ($1,$2,$3,$4,$5,$6)
        ON CONFLICT (id) DO UPDATE SET
            name = EXCLUDED.name,
            avatar_url = COALESCE(EXCLUDED.avatar_url, users.avatar_url)
        RETURNING created_at`
	err := r.pool.QueryRow(ctx, query,
		user.ID,
		user.Email,
		user.Name,
		user.Role,
		user.AvatarURL,
		user.PasswordHash,
	).Scan(&user.CreatedAt)
	return classify(err)
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	const query = `
        SELECT id, email, name, role, avatar_url, password_hash, subscription, created_at
        FROM users WHERE id=$1`
	return r.fetch(ctx, query, id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	const query = `
        SELECT id, email, name, role, avatar_url, password_hash, subscription, created_at
        FROM users WHERE email=$1`
	return r.fetch(ctx, query, email)
}

func (r *userRepository) fetch(ctx context.Context, query string, arg any) (*domain.User, error) {
	var user domain.User
	var subRaw []byte
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.Role,
		&user.AvatarURL,
		&user.PasswordHash,
		&subRaw,
		&user.CreatedAt,
	); err != nil {
		return nil, classify(err)
	}
	sub, err := DecodeSubscription(subRaw)
	if err != nil {
		return nil, err
	}
	user.Subscription = sub
	return &user, nil
}

func (r *userRepository) UpdateSubscription(ctx context.Context, userID string, sub *domain.Subscription) error {
	doc, err := EncodeSubscription(sub)
	if err != nil {
		return err
	}
	const query = `UPDATE users SET subscription=$2 WHERE id=$1`
	cmd, err := r.pool.Exec(ctx, query, userID, doc)
	if err != nil {
		return classify(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
