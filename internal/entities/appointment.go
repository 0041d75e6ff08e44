package entities

import (
	"errors"
	"time"

	"github.com/mkaraca/dukkan/internal/engine"
)

// Appointment statuses. Status is toggled on the device running the day's
// schedule, so it is device-authoritative across pull merges.
const (
	AppointmentScheduled = "scheduled"
	AppointmentCompleted = "completed"
	AppointmentCancelled = "cancelled"
)

// Appointment books a customer for an offering at a point in time.
type Appointment struct {
	CustomerID  string    `json:"customerId"`
	EmployeeID  string    `json:"employeeId"`
	OfferingID  string    `json:"offeringId"`
	StartsAt    time.Time `json:"startsAt"`
	DurationMin int       `json:"durationMin"`
	Status      string    `json:"status"`
	Notes       string    `json:"notes"`
}

func (a Appointment) Validate() error {
	if a.CustomerID == "" {
		return errors.New("appointment customer is required")
	}
	if a.OfferingID == "" {
		return errors.New("appointment offering is required")
	}
	if a.StartsAt.IsZero() {
		return errors.New("appointment start time is required")
	}
	if a.DurationMin <= 0 {
		return errors.New("appointment duration must be positive")
	}
	switch a.Status {
	case AppointmentScheduled, AppointmentCompleted, AppointmentCancelled:
		return nil
	default:
		return errors.New("unknown appointment status")
	}
}

// Appointments describes the appointment kind. A pull merge keeps the local
// unsynced Status and takes everything else from the remote snapshot.
func Appointments() engine.Kind[Appointment] {
	return engine.Kind[Appointment]{
		Name:       "appointments",
		SearchText: func(a Appointment) string { return a.Notes },
		Category:   func(a Appointment) string { return a.Status },
		Merge: func(local, remote Appointment) Appointment {
			merged := remote
			merged.Status = local.Status
			return merged
		},
	}
}
