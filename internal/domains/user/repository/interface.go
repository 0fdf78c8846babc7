package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"dinein-backend/internal/domains/user/model"
)

// UserRepository is the persistence contract for accounts
type UserRepository interface {
	Create(ctx context.Context, u *model.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// DebitPoints atomically subtracts points inside a transaction,
	// failing when the balance would go negative.
	DebitPoints(ctx context.Context, tx pgx.Tx, userID uuid.UUID, points int) error
	// CreditPoints atomically adds points inside a transaction.
	CreditPoints(ctx context.Context, tx pgx.Tx, userID uuid.UUID, points int) error
}
