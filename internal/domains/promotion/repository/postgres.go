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

	"dinein-backend/internal/domains/promotion/model"
)

// PostgresRepository implements PromotionRepository with PostgreSQL
type PostgresRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRepository(db *pgxpool.Pool) PromotionRepository {
	return &PostgresRepository{db: db}
}

const promotionColumns = `
	id, code, description, discount_type, discount_value,
	max_discount, min_order_value, max_usage, usage_limit_per_user,
	required_points, used_count, starts_at, ends_at, is_active, version,
	created_at, updated_at
`

func scanPromotion(row pgx.Row) (*model.Promotion, error) {
	var p model.Promotion
	err := row.Scan(
		&p.ID,                // id
		&p.Code,              // code
		&p.Description,       // description
		&p.DiscountType,      // discount_type
		&p.DiscountValue,     // discount_value
		&p.MaxDiscount,       // max_discount (nullable)
		&p.MinOrderValue,     // min_order_value (nullable)
		&p.MaxUsage,          // max_usage (nullable)
		&p.UsageLimitPerUser, // usage_limit_per_user (nullable)
		&p.RequiredPoints,    // required_points (nullable)
		&p.UsedCount,         // used_count
		&p.StartsAt,          // starts_at
		&p.EndsAt,            // ends_at
		&p.IsActive,          // is_active
		&p.Version,           // version
		&p.CreatedAt,         // created_at
		&p.UpdatedAt,         // updated_at
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PostgresRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Promotion, error) {
	query := `SELECT ` + promotionColumns + ` FROM promotions WHERE id = $1`

	p, err := scanPromotion(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrPromotionNotFound
		}
		return nil, fmt.Errorf("find promotion by id: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) FindByCode(ctx context.Context, code string) (*model.Promotion, error) {
	query := `SELECT ` + promotionColumns + ` FROM promotions WHERE LOWER(code) = LOWER($1)`

	p, err := scanPromotion(r.db.QueryRow(ctx, query, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrPromotionNotFound
		}
		return nil, fmt.Errorf("find promotion by code: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) List(ctx context.Context, activeOnly bool) ([]*model.Promotion, error) {
	query := `SELECT ` + promotionColumns + ` FROM promotions`
	if activeOnly {
		query += ` WHERE is_active = true AND starts_at <= NOW() AND ends_at >= NOW()
			AND (max_usage IS NULL OR used_count < max_usage)`
	}
	query += ` ORDER BY starts_at DESC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list promotions: %w", err)
	}
	defer rows.Close()

	var promos []*model.Promotion
	for rows.Next() {
		p, err := scanPromotion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan promotion: %w", err)
		}
		promos = append(promos, p)
	}
	return promos, rows.Err()
}

func (r *PostgresRepository) Create(ctx context.Context, p *model.Promotion) error {
	p.Code = strings.ToUpper(p.Code)

	query := `
		INSERT INTO promotions (
			code, description, discount_type, discount_value,
			max_discount, min_order_value, max_usage, usage_limit_per_user,
			required_points, used_count, starts_at, ends_at, is_active, version,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 0, $10, $11, $12, 0, NOW(), NOW())
		RETURNING id, used_count, version, created_at, updated_at
	`

	err := r.db.QueryRow(ctx, query,
		p.Code,
		p.Description,
		p.DiscountType,
		p.DiscountValue,
		p.MaxDiscount,
		p.MinOrderValue,
		p.MaxUsage,
		p.UsageLimitPerUser,
		p.RequiredPoints,
		p.StartsAt,
		p.EndsAt,
		p.IsActive,
	).Scan(&p.ID, &p.UsedCount, &p.Version, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return model.ErrCodeExists
		}
		return fmt.Errorf("create promotion: %w", err)
	}
	return nil
}

// Update writes under the optimistic version gate
func (r *PostgresRepository) Update(ctx context.Context, p *model.Promotion) error {
	query := `
		UPDATE promotions
		SET description = $2, max_discount = $3, min_order_value = $4,
		    max_usage = $5, usage_limit_per_user = $6,
		    starts_at = $7, ends_at = $8,
		    version = version + 1, updated_at = NOW()
		WHERE id = $1 AND version = $9
		RETURNING version, updated_at
	`

	err := r.db.QueryRow(ctx, query,
		p.ID,
		p.Description,
		p.MaxDiscount,
		p.MinOrderValue,
		p.MaxUsage,
		p.UsageLimitPerUser,
		p.StartsAt,
		p.EndsAt,
		p.Version,
	).Scan(&p.Version, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ErrVersionConflict
		}
		return fmt.Errorf("update promotion: %w", err)
	}
	return nil
}

func (r *PostgresRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	result, err := r.db.Exec(ctx,
		`UPDATE promotions SET is_active = $2, version = version + 1, updated_at = NOW() WHERE id = $1`,
		id, active,
	)
	if err != nil {
		return fmt.Errorf("set promotion active: %w", err)
	}
	if result.RowsAffected() == 0 {
		return model.ErrPromotionNotFound
	}
	return nil
}

func (r *PostgresRepository) DeactivateExpired(ctx context.Context) (int64, error) {
	result, err := r.db.Exec(ctx,
		`UPDATE promotions SET is_active = false, version = version + 1, updated_at = NOW()
		 WHERE is_active = true AND ends_at < NOW()`,
	)
	if err != nil {
		return 0, fmt.Errorf("deactivate expired promotions: %w", err)
	}
	return result.RowsAffected(), nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.Exec(ctx, `DELETE FROM promotions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete promotion: %w", err)
	}
	if result.RowsAffected() == 0 {
		return model.ErrPromotionNotFound
	}
	return nil
}

func (r *PostgresRepository) GetRedemption(ctx context.Context, userID, promotionID uuid.UUID) (*model.Redemption, error) {
	query := `
		SELECT id, user_id, promotion_id, usage_count
		FROM promotion_redemptions
		WHERE user_id = $1 AND promotion_id = $2
	`

	var red model.Redemption
	err := r.db.QueryRow(ctx, query, userID, promotionID).Scan(
		&red.ID,          // id
		&red.UserID,      // user_id
		&red.PromotionID, // promotion_id
		&red.UsageCount,  // usage_count
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get redemption: %w", err)
	}
	return &red, nil
}

// IncrementRedemption adds one usage charge, creating the row if absent
func (r *PostgresRepository) IncrementRedemption(ctx context.Context, tx pgx.Tx, userID, promotionID uuid.UUID) error {
	query := `
		INSERT INTO promotion_redemptions (user_id, promotion_id, usage_count)
		VALUES ($1, $2, 1)
		ON CONFLICT (user_id, promotion_id)
		DO UPDATE SET usage_count = promotion_redemptions.usage_count + 1
	`

	if _, err := tx.Exec(ctx, query, userID, promotionID); err != nil {
		return fmt.Errorf("increment redemption: %w", err)
	}
	return nil
}

func (r *PostgresRepository) DecrementRedemption(ctx context.Context, tx pgx.Tx, userID, promotionID uuid.UUID, count int) (bool, error) {
	result, err := tx.Exec(ctx, `
		UPDATE promotion_redemptions
		SET usage_count = usage_count - $3
		WHERE user_id = $1 AND promotion_id = $2 AND usage_count >= $3
	`, userID, promotionID, count)
	if err != nil {
		return false, fmt.Errorf("decrement redemption: %w", err)
	}
	if result.RowsAffected() == 0 {
		return false, nil
	}

	// Drop empty stock rows
	if _, err := tx.Exec(ctx, `
		DELETE FROM promotion_redemptions
		WHERE user_id = $1 AND promotion_id = $2 AND usage_count <= 0
	`, userID, promotionID); err != nil {
		return false, fmt.Errorf("prune redemption: %w", err)
	}
	return true, nil
}

// IncrementUsedCount bumps the global counter under the version gate
func (r *PostgresRepository) IncrementUsedCount(ctx context.Context, tx pgx.Tx, promotionID uuid.UUID, count, expectedVersion int) (bool, error) {
	query := `
		UPDATE promotions
		SET used_count = used_count + $2, version = version + 1, updated_at = NOW()
		WHERE id = $1 AND version = $3
		  AND (max_usage IS NULL OR used_count + $2 <= max_usage)
	`

	result, err := tx.Exec(ctx, query, promotionID, count, expectedVersion)
	if err != nil {
		return false, fmt.Errorf("increment used count: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

func (r *PostgresRepository) InsertUsage(ctx context.Context, tx pgx.Tx, usage *model.Usage) error {
	query := `
		INSERT INTO promotion_usage (
			promotion_id, user_id, payment_id, usage_count, promotion_version, used_at
		) VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING id, used_at
	`

	err := tx.QueryRow(ctx, query,
		usage.PromotionID,
		usage.UserID,
		usage.PaymentID,
		usage.UsageCount,
		usage.PromotionVersion,
	).Scan(&usage.ID, &usage.UsedAt)
	if err != nil {
		return fmt.Errorf("insert promotion usage: %w", err)
	}
	return nil
}

func (r *PostgresRepository) SumUserUsage(ctx context.Context, userID, promotionID uuid.UUID) (int, error) {
	var total int
	err := r.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(usage_count), 0)
		FROM promotion_usage
		WHERE user_id = $1 AND promotion_id = $2
	`, userID, promotionID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum user usage: %w", err)
	}
	return total, nil
}

func (r *PostgresRepository) ListUserUsage(ctx context.Context, userID uuid.UUID) ([]*model.Usage, error) {
	query := `
		SELECT id, promotion_id, user_id, payment_id, usage_count, promotion_version, used_at
		FROM promotion_usage
		WHERE user_id = $1
		ORDER BY used_at DESC
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list user usage: %w", err)
	}
	defer rows.Close()

	var usages []*model.Usage
	for rows.Next() {
		var u model.Usage
		err := rows.Scan(
			&u.ID,               // id
			&u.PromotionID,      // promotion_id
			&u.UserID,           // user_id
			&u.PaymentID,        // payment_id
			&u.UsageCount,       // usage_count
			&u.PromotionVersion, // promotion_version
			&u.UsedAt,           // used_at
		)
		if err != nil {
			return nil, fmt.Errorf("scan promotion usage: %w", err)
		}
		usages = append(usages, &u)
	}
	return usages, rows.Err()
}
