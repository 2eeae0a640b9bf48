package models

import "time"

// RouteStatus is the operational state of a route.
type RouteStatus string

const (
	RouteActive    RouteStatus = "ACTIVE"
	RouteInactive  RouteStatus = "INACTIVE"
	RouteSuspended RouteStatus = "SUSPENDED"
)

// Route represents a one-time assignable fuel delivery route.
type Route struct {
	ID          string      `db:"id" json:"id"`
	Code        string      `db:"code" json:"code"`
	Name        string      `db:"name" json:"name"`
	Origin      string      `db:"origin" json:"origin"`
	Destination string      `db:"destination" json:"destination"`
	Status      RouteStatus `db:"status" json:"status"`
	CreatedAt   time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at" json:"updated_at"`
}

// RouteFilter captures filtering criteria for listing routes.
type RouteFilter struct {
	Status    *RouteStatus
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
