// Package entities defines the payload types managed by the engine: the
// records a business keeps about customers, employees, offered services,
// appointments and expenses. Each type is bound to an engine Kind descriptor.
package entities

import (
	"errors"
	"strings"

	"github.com/mkaraca/dukkan/internal/engine"
)

// Customer is a client of the business.
type Customer struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
	Notes string `json:"notes"`
}

func (c Customer) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return errors.New("customer name is required")
	}
	return nil
}

// Customers describes the customer kind. Remote snapshots win wholesale on
// pull merges.
func Customers() engine.Kind[Customer] {
	return engine.Kind[Customer]{
		Name: "customers",
		SearchText: func(c Customer) string {
			return strings.Join([]string{c.Name, c.Phone, c.Email}, " ")
		},
	}
}
