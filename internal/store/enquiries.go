package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sgprime/sgprime/internal/model"
)

const enquirySelect = `SELECT e.*, p.name AS product_name
	FROM enquiries e
	LEFT JOIN products p ON p.id = e.product_id`

// CreateEnquiry inserts a new enquiry with status "new". The ID and
// CreatedAt fields on e are populated after a successful insert.
func (s *Store) CreateEnquiry(ctx context.Context, e *model.Enquiry) error {
	e.CreatedAt = time.Now().UTC()
	e.Status = model.EnquiryStatusNew

	const q = `INSERT INTO enquiries (name, email, company, phone, message, product_id, status, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	id, err := s.insertID(ctx, q,
		e.Name, e.Email, e.Company, e.Phone, e.Message, e.ProductID, e.Status, e.Notes, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert enquiry: %w", err)
	}
	e.ID = id
	return nil
}

// GetEnquiry returns an enquiry by ID with the product name joined when the
// enquiry references a product.
func (s *Store) GetEnquiry(ctx context.Context, id int64) (*model.Enquiry, error) {
	var e model.Enquiry
	if err := s.db.GetContext(ctx, &e, s.rebind(enquirySelect+" WHERE e.id = ?"), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get enquiry: %w", err)
	}
	return &e, nil
}

// ListEnquiries returns enquiries newest first, optionally filtered by
// status.
func (s *Store) ListEnquiries(ctx context.Context, status string) ([]model.Enquiry, error) {
	q := enquirySelect
	var args []interface{}

	if status != "" {
		q += " WHERE e.status = ?"
		args = append(args, status)
	}
	q += " ORDER BY e.created_at DESC"

	var enquiries []model.Enquiry
	if err := s.db.SelectContext(ctx, &enquiries, s.rebind(q), args...); err != nil {
		return nil, fmt.Errorf("list enquiries: %w", err)
	}
	return enquiries, nil
}

// UpdateEnquiryStatus moves an enquiry through the triage workflow and
// replaces its notes.
func (s *Store) UpdateEnquiryStatus(ctx context.Context, id int64, status, notes string) error {
	result, err := s.db.ExecContext(ctx,
		s.rebind("UPDATE enquiries SET status = ?, notes = ? WHERE id = ?"), status, notes, id)
	if err != nil {
		return fmt.Errorf("update enquiry status: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update enquiry status rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteEnquiry removes an enquiry by ID.
func (s *Store) DeleteEnquiry(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, s.rebind("DELETE FROM enquiries WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("delete enquiry: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete enquiry rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
