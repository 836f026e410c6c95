// Package customer provides the Customer catalog.
// Customers are referenced by sale and debt documents.
package customer

import (
	"context"
	"regexp"

	"tillpoint/internal/core/apperror"
	"tillpoint/internal/core/entity"
)

var (
	phoneRE = regexp.MustCompile(`^\+?[\d\s\-()]{5,20}$`)
	emailRE = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
)

// Customer represents a store customer.
type Customer struct {
	entity.Catalog

	// Phone is the primary contact phone
	Phone *string `db:"phone" json:"phone,omitempty"`

	// Email is the primary contact email
	Email *string `db:"email" json:"email,omitempty"`

	// Address is a free-form address
	Address *string `db:"address" json:"address,omitempty"`

	// Comment is a free-form note
	Comment *string `db:"comment" json:"comment,omitempty"`
}

// NewCustomer creates a new Customer with required fields.
func NewCustomer(code, name string) *Customer {
	return &Customer{
		Catalog: entity.NewCatalog(code, name),
	}
}

// Validate implements entity.Validatable interface.
func (c *Customer) Validate(ctx context.Context) error {
	if err := c.Catalog.Validate(ctx); err != nil {
		return err
	}

	if c.Phone != nil && *c.Phone != "" && !phoneRE.MatchString(*c.Phone) {
		return apperror.NewValidation("invalid phone").
			WithDetail("field", "phone").
			WithDetail("value", *c.Phone)
	}

	if c.Email != nil && *c.Email != "" && !emailRE.MatchString(*c.Email) {
		return apperror.NewValidation("invalid email").
			WithDetail("field", "email").
			WithDetail("value", *c.Email)
	}

	return nil
}
