package entities

import (
	"errors"
	"strings"

	"github.com/mkaraca/dukkan/internal/engine"
)

// Employee is a staff member of the business.
type Employee struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Role  string `json:"role"`
}

func (e Employee) Validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return errors.New("employee name is required")
	}
	return nil
}

// Employees describes the employee kind; Role serves as the category filter.
func Employees() engine.Kind[Employee] {
	return engine.Kind[Employee]{
		Name: "employees",
		SearchText: func(e Employee) string {
			return strings.Join([]string{e.Name, e.Phone}, " ")
		},
		Category: func(e Employee) string { return e.Role },
	}
}
