package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sgprime/sgprime/internal/model"
)

// CreateCategory inserts a new category. The ID, CreatedAt, and UpdatedAt
// fields on cat are populated after a successful insert.
func (s *Store) CreateCategory(ctx context.Context, cat *model.Category) error {
	now := time.Now().UTC()
	cat.CreatedAt = now
	cat.UpdatedAt = now

	const q = `INSERT INTO categories (name, slug, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`

	id, err := s.insertID(ctx, q, cat.Name, cat.Slug, cat.Description, cat.CreatedAt, cat.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert category: %w", err)
	}
	cat.ID = id
	return nil
}

// GetCategory returns a category by ID.
func (s *Store) GetCategory(ctx context.Context, id int64) (*model.Category, error) {
	var cat model.Category
	if err := s.db.GetContext(ctx, &cat, s.rebind("SELECT * FROM categories WHERE id = ?"), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get category: %w", err)
	}
	return &cat, nil
}

// GetCategoryBySlug returns a category by its unique slug.
func (s *Store) GetCategoryBySlug(ctx context.Context, slug string) (*model.Category, error) {
	var cat model.Category
	if err := s.db.GetContext(ctx, &cat, s.rebind("SELECT * FROM categories WHERE slug = ?"), slug); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get category by slug: %w", err)
	}
	return &cat, nil
}

// ListCategories returns all categories ordered by name.
func (s *Store) ListCategories(ctx context.Context) ([]model.Category, error) {
	var cats []model.Category
	if err := s.db.SelectContext(ctx, &cats, "SELECT * FROM categories ORDER BY name ASC"); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return cats, nil
}

// UpdateCategory updates an existing category. The UpdatedAt field is
// refreshed automatically.
func (s *Store) UpdateCategory(ctx context.Context, cat *model.Category) error {
	cat.UpdatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx,
		s.rebind("UPDATE categories SET name = ?, slug = ?, description = ?, updated_at = ? WHERE id = ?"),
		cat.Name, cat.Slug, cat.Description, cat.UpdatedAt, cat.ID)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update category rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteCategory removes a category by ID. It refuses with a
// CategoryInUseError while products still reference the category.
func (s *Store) DeleteCategory(ctx context.Context, id int64) error {
	count, err := s.CountProductsByCategory(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return &CategoryInUseError{Products: count}
	}

	result, err := s.db.ExecContext(ctx, s.rebind("DELETE FROM categories WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete category rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// CountCategories returns the number of categories.
func (s *Store) CountCategories(ctx context.Context) (int, error) {
	var count int
	if err := s.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM categories"); err != nil {
		return 0, fmt.Errorf("count categories: %w", err)
	}
	return count, nil
}
