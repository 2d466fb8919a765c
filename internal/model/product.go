package model

import "time"

// Product statuses. Inactive products are hidden from the public catalog
// but remain visible to the admin console.
const (
	ProductStatusActive   = "active"
	ProductStatusInactive = "inactive"
)

// Product is a catalog item. Specs holds free-form specification rows
// (label -> value) rendered as a table on the product page; it is persisted
// as a JSON text column.
type Product struct {
	ID           int64             `json:"id" db:"id"`
	CategoryID   int64             `json:"category_id" db:"category_id"`
	Name         string            `json:"name" db:"name"`
	Description  string            `json:"description" db:"description"`
	Specs        map[string]string `json:"specs"`
	ImageURL     string            `json:"image_url" db:"image_url"`
	IsFeatured   bool              `json:"is_featured" db:"is_featured"`
	DisplayOrder int               `json:"display_order" db:"display_order"`
	Status       string            `json:"status" db:"status"`
	CreatedAt    time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at" db:"updated_at"`

	// Joined from categories on reads; not columns of the products table.
	CategoryName string `json:"category_name,omitempty" db:"category_name"`
	CategorySlug string `json:"category_slug,omitempty" db:"category_slug"`
}

// ValidProductStatus reports whether s is a status the products table accepts.
func ValidProductStatus(s string) bool {
	return s == ProductStatusActive || s == ProductStatusInactive
}
