package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"dinein-backend/internal/domains/payment/model"
)

// PostgresRepository implements PaymentRepository with PostgreSQL
type PostgresRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRepository(db *pgxpool.Pool) PaymentRepository {
	return &PostgresRepository{db: db}
}

const paymentColumns = `
	id, order_ids, user_id, amount, voucher_code, amount_discount,
	method, app_transaction_id, gateway_transaction_id, created_at
`

// Insert writes the settlement record. The unique constraint on
// gateway_transaction_id is the last line of defense against a
// replayed callback double-charging.
func (r *PostgresRepository) Insert(ctx context.Context, tx pgx.Tx, p *model.Payment) error {
	query := `
		INSERT INTO payments (
			order_ids, user_id, amount, voucher_code, amount_discount,
			method, app_transaction_id, gateway_transaction_id, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		RETURNING id, created_at
	`

	err := tx.QueryRow(ctx, query,
		p.OrderIDs,
		p.UserID,
		p.Amount,
		p.VoucherCode,
		p.AmountDiscount,
		p.Method,
		p.AppTransactionID,
		p.GatewayTransactionID,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return model.ErrDuplicateSettlement
		}
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ExistsGatewayTransaction(ctx context.Context, gatewayTransactionID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM payments WHERE gateway_transaction_id = $1)`,
		gatewayTransactionID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check gateway transaction: %w", err)
	}
	return exists, nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*model.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE user_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, query, userID)
}

func (r *PostgresRepository) ListAll(ctx context.Context) ([]*model.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments ORDER BY created_at DESC`
	return r.list(ctx, query)
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...interface{}) ([]*model.Payment, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	var payments []*model.Payment
	for rows.Next() {
		var p model.Payment
		err := rows.Scan(
			&p.ID,                   // id
			&p.OrderIDs,             // order_ids (uuid[])
			&p.UserID,               // user_id
			&p.Amount,               // amount
			&p.VoucherCode,          // voucher_code (nullable)
			&p.AmountDiscount,       // amount_discount (nullable)
			&p.Method,               // method
			&p.AppTransactionID,     // app_transaction_id
			&p.GatewayTransactionID, // gateway_transaction_id (nullable)
			&p.CreatedAt,            // created_at
		)
		if err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		payments = append(payments, &p)
	}
	return payments, rows.Err()
}
