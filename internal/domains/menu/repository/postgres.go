package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"dinein-backend/internal/domains/menu/model"
)

// PostgresRepository implements MenuRepository with PostgreSQL
type PostgresRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRepository(db *pgxpool.Pool) MenuRepository {
	return &PostgresRepository{db: db}
}

const menuItemColumns = `
	id, name, description, price, image_url,
	category, is_available, created_at, updated_at
`

func scanMenuItem(row pgx.Row) (*model.MenuItem, error) {
	var m model.MenuItem
	err := row.Scan(
		&m.ID,          // id
		&m.Name,        // name
		&m.Description, // description (nullable)
		&m.Price,       // price
		&m.ImageURL,    // image_url (nullable)
		&m.Category,    // category
		&m.IsAvailable, // is_available
		&m.CreatedAt,   // created_at
		&m.UpdatedAt,   // updated_at
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// FindByID looks up one menu item
func (r *PostgresRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.MenuItem, error) {
	query := `SELECT ` + menuItemColumns + ` FROM menu_items WHERE id = $1`

	item, err := scanMenuItem(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrMenuItemNotFound
		}
		return nil, fmt.Errorf("find menu item by id: %w", err)
	}
	return item, nil
}

// FindByIDs loads a batch of menu items keyed by id.
// Missing ids are simply absent from the map.
func (r *PostgresRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.MenuItem, error) {
	if len(ids) == 0 {
		return map[uuid.UUID]*model.MenuItem{}, nil
	}

	query := `SELECT ` + menuItemColumns + ` FROM menu_items WHERE id = ANY($1)`

	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("find menu items by ids: %w", err)
	}
	defer rows.Close()

	items := make(map[uuid.UUID]*model.MenuItem, len(ids))
	for rows.Next() {
		item, err := scanMenuItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan menu item: %w", err)
		}
		items[item.ID] = item
	}
	return items, rows.Err()
}

// List returns menu items, optionally filtered by category and availability
func (r *PostgresRepository) List(ctx context.Context, category string, onlyAvailable bool) ([]*model.MenuItem, error) {
	query := `SELECT ` + menuItemColumns + ` FROM menu_items WHERE 1=1`
	args := []interface{}{}
	argIndex := 1

	if category != "" {
		query += fmt.Sprintf(" AND category = $%d", argIndex)
		args = append(args, category)
		argIndex++
	}
	if onlyAvailable {
		query += " AND is_available = true"
	}
	query += " ORDER BY category, name"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list menu items: %w", err)
	}
	defer rows.Close()

	var items []*model.MenuItem
	for rows.Next() {
		item, err := scanMenuItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan menu item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Create inserts a new menu item
func (r *PostgresRepository) Create(ctx context.Context, item *model.MenuItem) error {
	query := `
		INSERT INTO menu_items (
			name, description, price, image_url, category, is_available,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(ctx, query,
		item.Name,
		item.Description,
		item.Price,
		item.ImageURL,
		item.Category,
		item.IsAvailable,
	).Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return model.ErrMenuItemNameExists
		}
		return fmt.Errorf("create menu item: %w", err)
	}
	return nil
}

// Update saves all mutable fields of a menu item
func (r *PostgresRepository) Update(ctx context.Context, item *model.MenuItem) error {
	query := `
		UPDATE menu_items
		SET name = $2, description = $3, price = $4, image_url = $5,
		    category = $6, is_available = $7, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.Exec(ctx, query,
		item.ID,
		item.Name,
		item.Description,
		item.Price,
		item.ImageURL,
		item.Category,
		item.IsAvailable,
	)
	if err != nil {
		return fmt.Errorf("update menu item: %w", err)
	}
	if result.RowsAffected() == 0 {
		return model.ErrMenuItemNotFound
	}
	return nil
}

// Delete removes a menu item. Existing order lines keep their
// snapshot of name and price, so this is safe for history.
func (r *PostgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.Exec(ctx, `DELETE FROM menu_items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete menu item: %w", err)
	}
	if result.RowsAffected() == 0 {
		return model.ErrMenuItemNotFound
	}
	return nil
}
