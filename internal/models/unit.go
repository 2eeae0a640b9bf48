package models

import "time"

// OperationalRole partitions the fleet for conflict-rule purposes.
// Supervision units may run several exceptional routes on the same day;
// operational units are limited to one route-type assignment per day.
type OperationalRole string

const (
	RoleSupervision OperationalRole = "SUPERVISION"
	RoleOperational OperationalRole = "OPERATIONAL"
)

// Unit represents a fleet vehicle.
type Unit struct {
	ID            string          `db:"id" json:"id"`
	Code          string          `db:"code" json:"code"`
	Plate         string          `db:"plate" json:"plate"`
	Description   string          `db:"description" json:"description"`
	OperatingMode *string         `db:"operating_mode" json:"operating_mode,omitempty"`
	Role          OperationalRole `db:"role" json:"role"`
	Active        bool            `db:"active" json:"active"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updated_at"`
}

// UnitFilter captures filtering criteria for listing units.
type UnitFilter struct {
	Role      *OperationalRole
	Active    *bool
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
