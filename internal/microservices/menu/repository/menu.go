package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"crustalyst/internal/domain"
)

type MenuRepositoryInterface interface {
	Available(ctx context.Context) ([]domain.MenuItem, error)
	SetAvailability(ctx context.Context, id int, available bool) (domain.MenuItem, error)
}

type MenuRepository struct {
	db *sql.DB
}

func NewMenuRepository(db *sql.DB) MenuRepositoryInterface {
	return &MenuRepository{db: db}
}

const menuColumns = `id, name, description, price, image_url, category, is_popular, is_available`

func scanItem(s interface{ Scan(...any) error }) (domain.MenuItem, error) {
	var it domain.MenuItem
	err := s.Scan(&it.ID, &it.Name, &it.Description, &it.Price, &it.ImageURL, &it.Category, &it.IsPopular, &it.IsAvailable)
	return it, err
}

func (r *MenuRepository) Available(ctx context.Context) ([]domain.MenuItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+menuColumns+`
		FROM menu_items
		WHERE is_available = true
		ORDER BY category, name`)
	if err != nil {
		return nil, fmt.Errorf("failed to load menu: %w", err)
	}
	defer rows.Close()

	items := make([]domain.MenuItem, 0)
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan menu item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *MenuRepository) SetAvailability(ctx context.Context, id int, available bool) (domain.MenuItem, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE menu_items SET is_available = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+menuColumns, id, available)
	it, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.MenuItem{}, domain.ErrMenuItemNotFound
	}
	if err != nil {
		return domain.MenuItem{}, fmt.Errorf("failed to update menu item %d: %w", id, err)
	}
	return it, nil
}
