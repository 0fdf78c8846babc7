package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"dinein-backend/internal/domains/table/model"
)

// PostgresRepository implements TableRepository with PostgreSQL
type PostgresRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRepository(db *pgxpool.Pool) TableRepository {
	return &PostgresRepository{db: db}
}

const tableColumns = `
	id, table_number, lock_state, payment_lock_state,
	occupants, claiming_staff, version, is_deleted,
	created_at, updated_at
`

func scanTable(row pgx.Row) (*model.Table, error) {
	var t model.Table
	err := row.Scan(
		&t.ID,               // id
		&t.TableNumber,      // table_number
		&t.LockState,        // lock_state
		&t.PaymentLockState, // payment_lock_state
		&t.Occupants,        // occupants (uuid[])
		&t.ClaimingStaff,    // claiming_staff (uuid[])
		&t.Version,          // version
		&t.IsDeleted,        // is_deleted
		&t.CreatedAt,        // created_at
		&t.UpdatedAt,        // updated_at
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *PostgresRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Table, error) {
	query := `SELECT ` + tableColumns + ` FROM tables WHERE id = $1 AND is_deleted = false`

	t, err := scanTable(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrTableNotFound
		}
		return nil, fmt.Errorf("find table by id: %w", err)
	}
	return t, nil
}

func (r *PostgresRepository) FindByNumber(ctx context.Context, number int) (*model.Table, error) {
	query := `SELECT ` + tableColumns + ` FROM tables WHERE table_number = $1 AND is_deleted = false`

	t, err := scanTable(r.db.QueryRow(ctx, query, number))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrTableNotFound
		}
		return nil, fmt.Errorf("find table by number: %w", err)
	}
	return t, nil
}

// FindByOccupant finds the table the user is currently seated at
func (r *PostgresRepository) FindByOccupant(ctx context.Context, userID uuid.UUID) (*model.Table, error) {
	query := `SELECT ` + tableColumns + ` FROM tables WHERE $1 = ANY(occupants) AND is_deleted = false`

	t, err := scanTable(r.db.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrNotSeated
		}
		return nil, fmt.Errorf("find table by occupant: %w", err)
	}
	return t, nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]*model.Table, error) {
	query := `SELECT ` + tableColumns + ` FROM tables WHERE is_deleted = false ORDER BY table_number`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	var tables []*model.Table
	for rows.Next() {
		t, err := scanTable(rows)
		if err != nil {
			return nil, fmt.Errorf("scan table: %w", err)
		}
		tables = append(tables, t)
	}
	return tables, rows.Err()
}

// SeatFirstParty performs the hard-code admission CAS. The WHERE
// clause requires an open, empty table so exactly one racing party wins.
func (r *PostgresRepository) SeatFirstParty(ctx context.Context, tableID, userID uuid.UUID) (bool, error) {
	query := `
		UPDATE tables
		SET occupants = ARRAY[$2]::uuid[], version = version + 1, updated_at = NOW()
		WHERE id = $1
		  AND is_deleted = false
		  AND lock_state = 'open'
		  AND cardinality(occupants) = 0
	`

	result, err := r.db.Exec(ctx, query, tableID, userID)
	if err != nil {
		return false, fmt.Errorf("seat first party: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

// AddOccupant seats a latecomer. Already-seated users are left as is.
func (r *PostgresRepository) AddOccupant(ctx context.Context, tableID, userID uuid.UUID) (bool, error) {
	query := `
		UPDATE tables
		SET occupants = array_append(occupants, $2), version = version + 1, updated_at = NOW()
		WHERE id = $1
		  AND is_deleted = false
		  AND lock_state = 'open'
		  AND NOT ($2 = ANY(occupants))
	`

	result, err := r.db.Exec(ctx, query, tableID, userID)
	if err != nil {
		return false, fmt.Errorf("add occupant: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

func (r *PostgresRepository) RemoveOccupant(ctx context.Context, tableID, userID uuid.UUID) error {
	query := `
		UPDATE tables
		SET occupants = array_remove(occupants, $2), version = version + 1, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.Exec(ctx, query, tableID, userID)
	if err != nil {
		return fmt.Errorf("remove occupant: %w", err)
	}
	if result.RowsAffected() == 0 {
		return model.ErrTableNotFound
	}
	return nil
}

// Lock closes the table and clears everyone out, including any
// pending payment claim.
func (r *PostgresRepository) Lock(ctx context.Context, tableID uuid.UUID) error {
	query := `
		UPDATE tables
		SET lock_state = 'locked',
		    payment_lock_state = 'locked',
		    occupants = '{}'::uuid[],
		    claiming_staff = '{}'::uuid[],
		    version = version + 1,
		    updated_at = NOW()
		WHERE id = $1 AND is_deleted = false
	`

	result, err := r.db.Exec(ctx, query, tableID)
	if err != nil {
		return fmt.Errorf("lock table: %w", err)
	}
	if result.RowsAffected() == 0 {
		return model.ErrTableNotFound
	}
	return nil
}

func (r *PostgresRepository) Open(ctx context.Context, tableID uuid.UUID) error {
	query := `
		UPDATE tables
		SET lock_state = 'open',
		    payment_lock_state = 'open',
		    version = version + 1,
		    updated_at = NOW()
		WHERE id = $1 AND is_deleted = false
	`

	result, err := r.db.Exec(ctx, query, tableID)
	if err != nil {
		return fmt.Errorf("open table: %w", err)
	}
	if result.RowsAffected() == 0 {
		return model.ErrTableNotFound
	}
	return nil
}

// ClaimPayment records a staff claim. The WHERE clause requires the
// payment lock to be open so double claims lose the race.
func (r *PostgresRepository) ClaimPayment(ctx context.Context, tableID, staffID uuid.UUID) (bool, error) {
	query := `
		UPDATE tables
		SET payment_lock_state = 'locked',
		    claiming_staff = ARRAY[$2]::uuid[],
		    version = version + 1,
		    updated_at = NOW()
		WHERE id = $1
		  AND is_deleted = false
		  AND payment_lock_state = 'open'
	`

	result, err := r.db.Exec(ctx, query, tableID, staffID)
	if err != nil {
		return false, fmt.Errorf("claim payment: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

func (r *PostgresRepository) ReleasePaymentClaim(ctx context.Context, tableID uuid.UUID) error {
	return r.releasePaymentClaim(ctx, r.db, tableID)
}

// ReleasePaymentClaimTx releases the claim inside a settlement transaction
func (r *PostgresRepository) ReleasePaymentClaimTx(ctx context.Context, tx pgx.Tx, tableID uuid.UUID) error {
	return r.releasePaymentClaim(ctx, tx, tableID)
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

func (r *PostgresRepository) releasePaymentClaim(ctx context.Context, db execer, tableID uuid.UUID) error {
	query := `
		UPDATE tables
		SET payment_lock_state = 'open',
		    claiming_staff = '{}'::uuid[],
		    version = version + 1,
		    updated_at = NOW()
		WHERE id = $1
	`

	result, err := db.Exec(ctx, query, tableID)
	if err != nil {
		return fmt.Errorf("release payment claim: %w", err)
	}
	if result.RowsAffected() == 0 {
		return model.ErrTableNotFound
	}
	return nil
}

func (r *PostgresRepository) Create(ctx context.Context, t *model.Table) error {
	query := `
		INSERT INTO tables (
			table_number, lock_state, payment_lock_state,
			occupants, claiming_staff, version, is_deleted,
			created_at, updated_at
		) VALUES ($1, 'locked', 'locked', '{}'::uuid[], '{}'::uuid[], 0, false, NOW(), NOW())
		RETURNING id, lock_state, payment_lock_state, version, created_at, updated_at
	`

	err := r.db.QueryRow(ctx, query, t.TableNumber).Scan(
		&t.ID,
		&t.LockState,
		&t.PaymentLockState,
		&t.Version,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return model.ErrTableNumberExists
		}
		return fmt.Errorf("create table: %w", err)
	}
	t.Occupants = []uuid.UUID{}
	t.ClaimingStaff = []uuid.UUID{}
	return nil
}

func (r *PostgresRepository) UpdateNumber(ctx context.Context, id uuid.UUID, number int) error {
	query := `
		UPDATE tables
		SET table_number = $2, version = version + 1, updated_at = NOW()
		WHERE id = $1 AND is_deleted = false
	`

	result, err := r.db.Exec(ctx, query, id, number)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return model.ErrTableNumberExists
		}
		return fmt.Errorf("update table number: %w", err)
	}
	if result.RowsAffected() == 0 {
		return model.ErrTableNotFound
	}
	return nil
}

func (r *PostgresRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE tables
		SET is_deleted = true, version = version + 1, updated_at = NOW()
		WHERE id = $1 AND is_deleted = false
	`

	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("soft delete table: %w", err)
	}
	if result.RowsAffected() == 0 {
		return model.ErrTableNotFound
	}
	return nil
}
