package entities

import (
	"errors"
	"strings"

	"github.com/mkaraca/dukkan/internal/engine"
)

// Offering is a service the business sells, priced in minor currency units.
type Offering struct {
	Name        string `json:"name"`
	Price       int64  `json:"price"`
	DurationMin int    `json:"durationMin"`
	Category    string `json:"category"`
}

func (o Offering) Validate() error {
	if strings.TrimSpace(o.Name) == "" {
		return errors.New("offering name is required")
	}
	if o.Price < 0 {
		return errors.New("offering price cannot be negative")
	}
	if o.DurationMin <= 0 {
		return errors.New("offering duration must be positive")
	}
	return nil
}

// Offerings describes the service-offering kind.
func Offerings() engine.Kind[Offering] {
	return engine.Kind[Offering]{
		Name:       "offerings",
		SearchText: func(o Offering) string { return o.Name },
		Category:   func(o Offering) string { return o.Category },
	}
}
