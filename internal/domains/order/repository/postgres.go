package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"dinein-backend/internal/domains/order/model"
)

// ErrDuplicateTab surfaces the partial unique index on
// (user_id, table_id) WHERE payment_status = 'unpaid'. The caller
// retries and merges into the tab that won.
var ErrDuplicateTab = errors.New("unpaid tab already exists for this user and table")

// PostgresRepository implements OrderRepository with PostgreSQL
type PostgresRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRepository(db *pgxpool.Pool) OrderRepository {
	return &PostgresRepository{db: db}
}

const orderColumns = `
	id, user_id, table_id, table_number, amount,
	payment_status, version, created_at, updated_at
`

const itemColumns = `
	id, order_id, menu_item_id, name, price, image_url, options,
	quantity, quantity_preparing, quantity_served, sequence_mark, created_at
`

func scanOrder(row pgx.Row) (*model.Order, error) {
	var o model.Order
	err := row.Scan(
		&o.ID,            // id
		&o.UserID,        // user_id
		&o.TableID,       // table_id
		&o.TableNumber,   // table_number
		&o.Amount,        // amount
		&o.PaymentStatus, // payment_status
		&o.Version,       // version
		&o.CreatedAt,     // created_at
		&o.UpdatedAt,     // updated_at
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func scanItem(row pgx.Row) (*model.OrderItem, error) {
	var i model.OrderItem
	err := row.Scan(
		&i.ID,                // id
		&i.OrderID,           // order_id
		&i.MenuItemID,        // menu_item_id
		&i.Name,              // name (snapshot)
		&i.Price,             // price (snapshot)
		&i.ImageURL,          // image_url (snapshot, nullable)
		&i.Options,           // options
		&i.Quantity,          // quantity
		&i.QuantityPreparing, // quantity_preparing
		&i.QuantityServed,    // quantity_served
		&i.SequenceMark,      // sequence_mark
		&i.CreatedAt,         // created_at
	)
	if err != nil {
		return nil, err
	}
	return &i, nil
}

func (r *PostgresRepository) loadItems(ctx context.Context, orders []*model.Order) error {
	if len(orders) == 0 {
		return nil
	}

	byID := make(map[uuid.UUID]*model.Order, len(orders))
	ids := make([]uuid.UUID, 0, len(orders))
	for _, o := range orders {
		byID[o.ID] = o
		ids = append(ids, o.ID)
	}

	query := `SELECT ` + itemColumns + ` FROM order_items WHERE order_id = ANY($1) ORDER BY sequence_mark, created_at`

	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("load order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return fmt.Errorf("scan order item: %w", err)
		}
		if o, ok := byID[item.OrderID]; ok {
			o.Items = append(o.Items, item)
		}
	}
	return rows.Err()
}

func (r *PostgresRepository) FindUnpaidByUserAndTable(ctx context.Context, userID, tableID uuid.UUID) (*model.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE user_id = $1 AND table_id = $2 AND payment_status = 'unpaid'
	`

	o, err := scanOrder(r.db.QueryRow(ctx, query, userID, tableID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrOrderNotFound
		}
		return nil, fmt.Errorf("find unpaid tab: %w", err)
	}
	if err := r.loadItems(ctx, []*model.Order{o}); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *PostgresRepository) FindUnpaidByTable(ctx context.Context, tableID uuid.UUID) ([]*model.Order, error) {
	return r.FindUnpaidScoped(ctx, tableID, model.Scope{})
}

func (r *PostgresRepository) FindUnpaidScoped(ctx context.Context, tableID uuid.UUID, scope model.Scope) ([]*model.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE table_id = $1 AND payment_status = 'unpaid'
	`
	args := []interface{}{tableID}
	if scope.ByUser != nil {
		query += " AND user_id = $2"
		args = append(args, *scope.ByUser)
	}
	query += " ORDER BY created_at"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find unpaid tabs: %w", err)
	}
	defer rows.Close()

	var orders []*model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.loadItems(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *PostgresRepository) FindUnpaidContainingLine(ctx context.Context, tableID, lineID uuid.UUID) (*model.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE table_id = $1
		  AND payment_status = 'unpaid'
		  AND id = (SELECT order_id FROM order_items WHERE id = $2)
	`

	o, err := scanOrder(r.db.QueryRow(ctx, query, tableID, lineID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrLineNotFound
		}
		return nil, fmt.Errorf("find tab containing line: %w", err)
	}
	if err := r.loadItems(ctx, []*model.Order{o}); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *PostgresRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*model.Order, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = ANY($1) ORDER BY created_at`

	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("find orders by ids: %w", err)
	}
	defer rows.Close()

	var orders []*model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.loadItems(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *PostgresRepository) HasUnpaidTab(ctx context.Context, userID, tableID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM orders WHERE user_id = $1 AND table_id = $2 AND payment_status = 'unpaid')`,
		userID, tableID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check unpaid tab: %w", err)
	}
	return exists, nil
}

func (r *PostgresRepository) CountUnpaidTabs(ctx context.Context, tableID uuid.UUID) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM orders WHERE table_id = $1 AND payment_status = 'unpaid'`,
		tableID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count unpaid tabs: %w", err)
	}
	return count, nil
}

// CreateOrder inserts a tab and its first batch of lines atomically
func (r *PostgresRepository) CreateOrder(ctx context.Context, order *model.Order) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin create order: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO orders (
			user_id, table_id, table_number, amount, payment_status, version,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, 'unpaid', 0, NOW(), NOW())
		RETURNING id, payment_status, version, created_at, updated_at
	`

	err = tx.QueryRow(ctx, query,
		order.UserID,
		order.TableID,
		order.TableNumber,
		order.Amount,
	).Scan(&order.ID, &order.PaymentStatus, &order.Version, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return ErrDuplicateTab
		}
		return fmt.Errorf("create order: %w", err)
	}

	if err := r.InsertItems(ctx, tx, order.ID, order.Items); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit create order: %w", err)
	}
	return nil
}

// BumpVersion is the optimistic write gate for every tab mutation
func (r *PostgresRepository) BumpVersion(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, expectedVersion int, amount decimal.Decimal) (bool, error) {
	query := `
		UPDATE orders
		SET amount = $3, version = version + 1, updated_at = NOW()
		WHERE id = $1 AND version = $2 AND payment_status = 'unpaid'
	`

	result, err := tx.Exec(ctx, query, orderID, expectedVersion, amount)
	if err != nil {
		return false, fmt.Errorf("bump order version: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

func (r *PostgresRepository) InsertItems(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, items []*model.OrderItem) error {
	query := `
		INSERT INTO order_items (
			order_id, menu_item_id, name, price, image_url, options,
			quantity, quantity_preparing, quantity_served, sequence_mark, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())
		RETURNING id, created_at
	`

	for _, item := range items {
		err := tx.QueryRow(ctx, query,
			orderID,
			item.MenuItemID,
			item.Name,
			item.Price,
			item.ImageURL,
			item.Options,
			item.Quantity,
			item.QuantityPreparing,
			item.QuantityServed,
			item.SequenceMark,
		).Scan(&item.ID, &item.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
		item.OrderID = orderID
	}
	return nil
}

func (r *PostgresRepository) UpdateItemQuantities(ctx context.Context, tx pgx.Tx, item *model.OrderItem) error {
	query := `
		UPDATE order_items
		SET quantity = $2, quantity_preparing = $3, quantity_served = $4
		WHERE id = $1
	`

	result, err := tx.Exec(ctx, query,
		item.ID,
		item.Quantity,
		item.QuantityPreparing,
		item.QuantityServed,
	)
	if err != nil {
		return fmt.Errorf("update item quantities: %w", err)
	}
	if result.RowsAffected() == 0 {
		return model.ErrLineNotFound
	}
	return nil
}

func (r *PostgresRepository) DeleteItem(ctx context.Context, tx pgx.Tx, itemID uuid.UUID) error {
	result, err := tx.Exec(ctx, `DELETE FROM order_items WHERE id = $1`, itemID)
	if err != nil {
		return fmt.Errorf("delete order item: %w", err)
	}
	if result.RowsAffected() == 0 {
		return model.ErrLineNotFound
	}
	return nil
}

func (r *PostgresRepository) DeleteOrder(ctx context.Context, tx pgx.Tx, orderID uuid.UUID) error {
	result, err := tx.Exec(ctx, `DELETE FROM orders WHERE id = $1`, orderID)
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	if result.RowsAffected() == 0 {
		return model.ErrOrderNotFound
	}
	return nil
}

// MarkPaid settles one tab. The version precondition catches tabs
// that grew between the pre-read and the settlement write; the
// payment_status guard makes replays skip already-paid tabs.
func (r *PostgresRepository) MarkPaid(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, expectedVersion int) (bool, error) {
	query := `
		UPDATE orders
		SET payment_status = 'paid', version = version + 1, updated_at = NOW()
		WHERE id = $1 AND version = $2 AND payment_status = 'unpaid'
	`

	result, err := tx.Exec(ctx, query, orderID, expectedVersion)
	if err != nil {
		return false, fmt.Errorf("mark order paid: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

// ListKitchenLines feeds the staff dashboards. The preparing feed is
// newest first so fresh rounds surface on top.
func (r *PostgresRepository) ListKitchenLines(ctx context.Context, status string) ([]*model.KitchenLine, error) {
	var condition, quantityExpr, order string
	if status == model.StatusPreparing {
		condition = "oi.quantity_preparing > 0"
		quantityExpr = "oi.quantity_preparing"
		order = "oi.created_at DESC"
	} else {
		condition = "oi.quantity_served > 0"
		quantityExpr = "oi.quantity_served"
		order = "o.table_number, oi.created_at"
	}

	query := fmt.Sprintf(`
		SELECT oi.id, oi.order_id, o.table_number, oi.name, oi.options,
		       %s, oi.sequence_mark, oi.created_at
		FROM order_items oi
		INNER JOIN orders o ON o.id = oi.order_id
		WHERE o.payment_status = 'unpaid' AND %s
		ORDER BY %s
	`, quantityExpr, condition, order)

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list kitchen lines: %w", err)
	}
	defer rows.Close()

	var lines []*model.KitchenLine
	for rows.Next() {
		var l model.KitchenLine
		err := rows.Scan(
			&l.LineID,       // id
			&l.OrderID,      // order_id
			&l.TableNumber,  // table_number
			&l.Name,         // name
			&l.Options,      // options
			&l.Quantity,     // bucket quantity
			&l.SequenceMark, // sequence_mark
			&l.CreatedAt,    // created_at
		)
		if err != nil {
			return nil, fmt.Errorf("scan kitchen line: %w", err)
		}
		lines = append(lines, &l)
	}
	return lines, rows.Err()
}
