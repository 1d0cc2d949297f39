package repository

import (
	"context"
	"errors"

	"github.com/fbtrip/skyfare/internal/domain"
	"github.com/jackc/pgx/v5/pgconn"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

type PGUserRepository struct {
	db DB
}

func NewUserRepository(db DB) UserRepository {
	return &PGUserRepository{db: db}
}

func (r *PGUserRepository) Create(ctx context.Context, user *domain.User) error {
	err := r.db.QueryRow(ctx, `INSERT INTO users (name, email, password_hash, wallet)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`, user.Name, user.Email, user.PasswordHash, user.Wallet).
		Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrEmailTaken
		}
		return storeErr("create user", err)
	}
	return nil
}

func (r *PGUserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	row := r.db.QueryRow(ctx, `SELECT id, name, email, password_hash, wallet, created_at, updated_at FROM users WHERE id=$1`, id)
	var u domain.User
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Wallet, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, storeErr("get user", err)
	}
	return &u, nil
}

func (r *PGUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.db.QueryRow(ctx, `SELECT id, name, email, password_hash, wallet, created_at, updated_at FROM users WHERE email=$1`, email)
	var u domain.User
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Wallet, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, storeErr("get user by email", err)
	}
	return &u, nil
}

var _ UserRepository = (*PGUserRepository)(nil)
