package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"dinein-backend/internal/domains/user/model"
)

// PostgresRepository implements UserRepository with PostgreSQL
type PostgresRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRepository(db *pgxpool.Pool) UserRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new account
func (r *PostgresRepository) Create(ctx context.Context, u *model.User) error {
	query := `
		INSERT INTO users (
			email, password_hash, full_name, role, points, is_active,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(ctx, query,
		strings.ToLower(u.Email),
		u.PasswordHash,
		u.FullName,
		u.Role,
		u.Points,
		u.IsActive,
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return model.ErrEmailAlreadyExists
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// FindByID looks up one account
func (r *PostgresRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	query := `
		SELECT id, email, password_hash, full_name, role, points, is_active,
		       created_at, updated_at
		FROM users
		WHERE id = $1
	`

	var u model.User
	err := r.db.QueryRow(ctx, query, id).Scan(
		&u.ID,           // id
		&u.Email,        // email
		&u.PasswordHash, // password_hash
		&u.FullName,     // full_name
		&u.Role,         // role
		&u.Points,       // points
		&u.IsActive,     // is_active
		&u.CreatedAt,    // created_at
		&u.UpdatedAt,    // updated_at
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return &u, nil
}

// FindByEmail looks up one account by email (case-insensitive)
func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `
		SELECT id, email, password_hash, full_name, role, points, is_active,
		       created_at, updated_at
		FROM users
		WHERE LOWER(email) = LOWER($1)
	`

	var u model.User
	err := r.db.QueryRow(ctx, query, email).Scan(
		&u.ID,           // id
		&u.Email,        // email
		&u.PasswordHash, // password_hash
		&u.FullName,     // full_name
		&u.Role,         // role
		&u.Points,       // points
		&u.IsActive,     // is_active
		&u.CreatedAt,    // created_at
		&u.UpdatedAt,    // updated_at
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return &u, nil
}

// ExistsByEmail checks whether an email is already registered
func (r *PostgresRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM users WHERE LOWER(email) = LOWER($1))",
		email,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check email exists: %w", err)
	}
	return exists, nil
}

// DebitPoints subtracts points with a balance guard in the same statement
func (r *PostgresRepository) DebitPoints(ctx context.Context, tx pgx.Tx, userID uuid.UUID, points int) error {
	query := `
		UPDATE users
		SET points = points - $2, updated_at = NOW()
		WHERE id = $1 AND points >= $2
	`

	result, err := tx.Exec(ctx, query, userID, points)
	if err != nil {
		return fmt.Errorf("debit points: %w", err)
	}
	if result.RowsAffected() == 0 {
		return model.ErrInsufficientPoints
	}
	return nil
}

// CreditPoints adds points
func (r *PostgresRepository) CreditPoints(ctx context.Context, tx pgx.Tx, userID uuid.UUID, points int) error {
	query := `
		UPDATE users
		SET points = points + $2, updated_at = NOW()
		WHERE id = $1
	`

	result, err := tx.Exec(ctx, query, userID, points)
	if err != nil {
		return fmt.Errorf("credit points: %w", err)
	}
	if result.RowsAffected() == 0 {
		return model.ErrUserNotFound
	}
	return nil
}
