package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"dinein-backend/internal/domains/table/model"
)

// TableRepository is the persistence contract for tables.
// Admission and claim methods are compare-and-swap: they report
// false when the precondition no longer held at write time.
type TableRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Table, error)
	FindByNumber(ctx context.Context, number int) (*model.Table, error)
	FindByOccupant(ctx context.Context, userID uuid.UUID) (*model.Table, error)
	List(ctx context.Context) ([]*model.Table, error)

	// SeatFirstParty seats the user only while the table is open and
	// empty. Returns false when another party won the race.
	SeatFirstParty(ctx context.Context, tableID, userID uuid.UUID) (bool, error)
	// AddOccupant seats the user while the table is open. Idempotent.
	AddOccupant(ctx context.Context, tableID, userID uuid.UUID) (bool, error)
	RemoveOccupant(ctx context.Context, tableID, userID uuid.UUID) error

	// Lock closes the table, clearing occupants and payment claim
	Lock(ctx context.Context, tableID uuid.UUID) error
	Open(ctx context.Context, tableID uuid.UUID) error

	// ClaimPayment records the staff claim only while unclaimed.
	// Returns false when another staff member already holds it.
	ClaimPayment(ctx context.Context, tableID, staffID uuid.UUID) (bool, error)
	ReleasePaymentClaim(ctx context.Context, tableID uuid.UUID) error
	ReleasePaymentClaimTx(ctx context.Context, tx pgx.Tx, tableID uuid.UUID) error

	Create(ctx context.Context, t *model.Table) error
	UpdateNumber(ctx context.Context, id uuid.UUID, number int) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
}
