package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sgprime/sgprime/internal/model"
)

// productRow is a flat struct that maps 1:1 to the products table columns
// plus the joined category fields. Specs are stored JSON-encoded in the
// specs_json column, so model.Product doesn't scan directly.
type productRow struct {
	ID           int64     `db:"id"`
	CategoryID   int64     `db:"category_id"`
	Name         string    `db:"name"`
	Description  string    `db:"description"`
	SpecsJSON    string    `db:"specs_json"`
	ImageURL     string    `db:"image_url"`
	IsFeatured   bool      `db:"is_featured"`
	DisplayOrder int       `db:"display_order"`
	Status       string    `db:"status"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
	CategoryName string    `db:"category_name"`
	CategorySlug string    `db:"category_slug"`
}

func (r productRow) toModel() (model.Product, error) {
	var specs map[string]string
	if r.SpecsJSON != "" && r.SpecsJSON != "{}" {
		if err := json.Unmarshal([]byte(r.SpecsJSON), &specs); err != nil {
			return model.Product{}, fmt.Errorf("unmarshal product specs: %w", err)
		}
	}
	if specs == nil {
		specs = map[string]string{}
	}
	return model.Product{
		ID:           r.ID,
		CategoryID:   r.CategoryID,
		Name:         r.Name,
		Description:  r.Description,
		Specs:        specs,
		ImageURL:     r.ImageURL,
		IsFeatured:   r.IsFeatured,
		DisplayOrder: r.DisplayOrder,
		Status:       r.Status,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
		CategoryName: r.CategoryName,
		CategorySlug: r.CategorySlug,
	}, nil
}

func marshalSpecs(specs map[string]string) (string, error) {
	if specs == nil {
		specs = map[string]string{}
	}
	b, err := json.Marshal(specs)
	if err != nil {
		return "", fmt.Errorf("marshal product specs: %w", err)
	}
	return string(b), nil
}

const productSelect = `SELECT p.*, c.name AS category_name, c.slug AS category_slug
	FROM products p
	JOIN categories c ON c.id = p.category_id`

// ProductFilter narrows ListProducts. The zero value lists active products
// across all categories.
type ProductFilter struct {
	CategorySlug string
	FeaturedOnly bool
	Status       string // "", "active", "inactive", or "all"
}

// CreateProduct inserts a new product. The ID, CreatedAt, and UpdatedAt
// fields on p are populated after a successful insert.
func (s *Store) CreateProduct(ctx context.Context, p *model.Product) error {
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	if p.Status == "" {
		p.Status = model.ProductStatusActive
	}

	specsJSON, err := marshalSpecs(p.Specs)
	if err != nil {
		return err
	}

	const q = `INSERT INTO products
		(category_id, name, description, specs_json, image_url, is_featured, display_order, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	id, err := s.insertID(ctx, q,
		p.CategoryID, p.Name, p.Description, specsJSON, p.ImageURL,
		p.IsFeatured, p.DisplayOrder, p.Status, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	p.ID = id
	return nil
}

// GetProduct returns a product by ID with its category name and slug joined.
func (s *Store) GetProduct(ctx context.Context, id int64) (*model.Product, error) {
	var row productRow
	if err := s.db.GetContext(ctx, &row, s.rebind(productSelect+" WHERE p.id = ?"), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	p, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListProducts returns products matching the filter, ordered by display
// order then recency. A Status of "all" bypasses the default active-only
// filter (used by the admin console).
func (s *Store) ListProducts(ctx context.Context, f ProductFilter) ([]model.Product, error) {
	q := productSelect
	var args []interface{}

	status := f.Status
	if status == "" {
		status = model.ProductStatusActive
	}

	where := func(cond string) {
		if len(args) == 0 {
			q += " WHERE " + cond
		} else {
			q += " AND " + cond
		}
	}

	if status != "all" {
		where("p.status = ?")
		args = append(args, status)
	}
	if f.CategorySlug != "" {
		where("c.slug = ?")
		args = append(args, f.CategorySlug)
	}
	if f.FeaturedOnly {
		where("p.is_featured = ?")
		args = append(args, true)
	}

	q += " ORDER BY p.display_order ASC, p.created_at DESC"

	var rows []productRow
	if err := s.db.SelectContext(ctx, &rows, s.rebind(q), args...); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	products := make([]model.Product, 0, len(rows))
	for _, r := range rows {
		p, err := r.toModel()
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, nil
}

// UpdateProduct updates an existing product. The UpdatedAt field is
// refreshed automatically.
func (s *Store) UpdateProduct(ctx context.Context, p *model.Product) error {
	p.UpdatedAt = time.Now().UTC()

	specsJSON, err := marshalSpecs(p.Specs)
	if err != nil {
		return err
	}

	const q = `UPDATE products SET
		category_id = ?, name = ?, description = ?, specs_json = ?, image_url = ?,
		is_featured = ?, display_order = ?, status = ?, updated_at = ?
		WHERE id = ?`

	result, err := s.db.ExecContext(ctx, s.rebind(q),
		p.CategoryID, p.Name, p.Description, specsJSON, p.ImageURL,
		p.IsFeatured, p.DisplayOrder, p.Status, p.UpdatedAt, p.ID)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update product rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteProduct removes a product by ID.
func (s *Store) DeleteProduct(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, s.rebind("DELETE FROM products WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete product rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetProductName returns just the name of a product, or ErrNotFound.
// Used when composing enquiry notifications.
func (s *Store) GetProductName(ctx context.Context, id int64) (string, error) {
	var name string
	if err := s.db.GetContext(ctx, &name, s.rebind("SELECT name FROM products WHERE id = ?"), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("get product name: %w", err)
	}
	return name, nil
}

// CountProductsByCategory returns the number of products in a category.
func (s *Store) CountProductsByCategory(ctx context.Context, categoryID int64) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count,
		s.rebind("SELECT COUNT(*) FROM products WHERE category_id = ?"), categoryID)
	if err != nil {
		return 0, fmt.Errorf("count products by category: %w", err)
	}
	return count, nil
}

// CountProducts returns the total number of products.
func (s *Store) CountProducts(ctx context.Context) (int, error) {
	var count int
	if err := s.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM products"); err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return count, nil
}
