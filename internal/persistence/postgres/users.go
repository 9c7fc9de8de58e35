package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/fittrack/internal/domain"
)

// UserRepository provides Postgres-backed persistence for accounts.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository constructs a UserRepository.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

const userColumns = `user_id, username, email, password_hash, first_name, last_name, date_of_birth, gender, height_cm, weight_kg, bio, created_at, updated_at`

// Create persists a new user row.
func (r *UserRepository) Create(ctx context.Context, user domain.User) error {
	const stmt = `INSERT INTO users (` + userColumns + `)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`

	_, err := r.pool.Exec(ctx, stmt,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.FirstName,
		user.LastName,
		user.DateOfBirth,
		user.Gender,
		user.HeightCm,
		user.WeightKg,
		user.Bio,
		user.CreatedAt,
		user.UpdatedAt,
	)
	return err
}

// GetByID retrieves a user by primary key. Missing rows yield (nil, nil).
func (r *UserRepository) GetByID(ctx context.Context, userID string) (*domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE user_id=$1`
	return r.scanOne(r.pool.QueryRow(ctx, query, userID))
}

// GetByUsername retrieves a user by username. Missing rows yield (nil, nil).
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE username=$1`
	return r.scanOne(r.pool.QueryRow(ctx, query, username))
}

// UsernameExists reports whether a username is already taken.
func (r *UserRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE username=$1)`, username).Scan(&exists)
	return exists, err
}

// EmailExists reports whether an email is already registered.
func (r *UserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE email=$1 AND email <> '')`, email).Scan(&exists)
	return exists, err
}

// Update replaces the mutable account and profile fields.
func (r *UserRepository) Update(ctx context.Context, user domain.User) error {
	const stmt = `UPDATE users SET email=$2, first_name=$3, last_name=$4, date_of_birth=$5, gender=$6, height_cm=$7, weight_kg=$8, bio=$9, updated_at=$10
        WHERE user_id=$1`

	_, err := r.pool.Exec(ctx, stmt,
		user.ID,
		user.Email,
		user.FirstName,
		user.LastName,
		user.DateOfBirth,
		user.Gender,
		user.HeightCm,
		user.WeightKg,
		user.Bio,
		user.UpdatedAt,
	)
	return err
}

// UpdatePassword stores a new password hash.
func (r *UserRepository) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	_, err := r.pool.Exec(ctx, `UPDATE users SET password_hash=$2, updated_at=now() WHERE user_id=$1`, userID, passwordHash)
	return err
}

func (r *UserRepository) scanOne(row pgx.Row) (*domain.User, error) {
	var user domain.User
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.FirstName,
		&user.LastName,
		&user.DateOfBirth,
		&user.Gender,
		&user.HeightCm,
		&user.WeightKg,
		&user.Bio,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}
