package model

import "time"

// Enquiry statuses form the admin triage workflow: every submission starts
// as "new" and is moved forward by hand.
const (
	EnquiryStatusNew       = "new"
	EnquiryStatusContacted = "contacted"
	EnquiryStatusResolved  = "resolved"
)

// EnquiryStatuses lists the accepted statuses in workflow order.
var EnquiryStatuses = []string{EnquiryStatusNew, EnquiryStatusContacted, EnquiryStatusResolved}

// Enquiry is a contact-form submission. ProductID is set when the visitor
// asked about a specific product.
type Enquiry struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Email     string    `json:"email" db:"email"`
	Company   string    `json:"company" db:"company"`
	Phone     string    `json:"phone" db:"phone"`
	Message   string    `json:"message" db:"message"`
	ProductID *int64    `json:"product_id,omitempty" db:"product_id"`
	Status    string    `json:"status" db:"status"`
	Notes     string    `json:"notes" db:"notes"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// Joined from products on admin reads.
	ProductName *string `json:"product_name,omitempty" db:"product_name"`
}

// ValidEnquiryStatus reports whether s is one of the triage statuses.
func ValidEnquiryStatus(s string) bool {
	for _, v := range EnquiryStatuses {
		if s == v {
			return true
		}
	}
	return false
}
