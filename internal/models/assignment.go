package models

import (
	"time"

	"github.com/lib/pq"
)

// PermanentAssignmentState is the lifecycle state of a recurring binding.
// ACTIVE and UNASSIGNED are mutually reversible; OBSOLETE is terminal and
// only reachable from UNASSIGNED.
type PermanentAssignmentState string

const (
	AssignmentActive     PermanentAssignmentState = "ACTIVE"
	AssignmentUnassigned PermanentAssignmentState = "UNASSIGNED"
	AssignmentObsolete   PermanentAssignmentState = "OBSOLETE"
)

// Frequency describes how a permanent assignment's operating days are derived.
type Frequency string

const (
	FrequencyDaily    Frequency = "DAILY"
	FrequencyWeekdays Frequency = "WEEKDAYS"
	FrequencyWeekends Frequency = "WEEKENDS"
	FrequencyCustom   Frequency = "CUSTOM"
)

// ExceptionalPriority ranks one-time assignments.
type ExceptionalPriority string

const (
	PriorityLow    ExceptionalPriority = "LOW"
	PriorityNormal ExceptionalPriority = "NORMAL"
	PriorityHigh   ExceptionalPriority = "HIGH"
	PriorityUrgent ExceptionalPriority = "URGENT"
)

// History action tags, one per permanent-assignment state transition.
const (
	HistoryAssigned    = "ASSIGNED"
	HistoryUpdated     = "UPDATED"
	HistoryUnassigned  = "UNASSIGNED"
	HistoryReactivated = "REACTIVATED"
	HistoryObsoleted   = "OBSOLETED"
)

// PermanentAssignment is a standing unit-to-itinerary binding.
type PermanentAssignment struct {
	ID            string                   `db:"id" json:"id"`
	UnitID        string                   `db:"unit_id" json:"unit_id"`
	ItineraryID   string                   `db:"itinerary_id" json:"itinerary_id"`
	State         PermanentAssignmentState `db:"state" json:"state"`
	Frequency     Frequency                `db:"frequency" json:"frequency"`
	OperatingDays pq.StringArray           `db:"operating_days" json:"operating_days"`
	AssignedAt    time.Time                `db:"assigned_at" json:"assigned_at"`
	UnassignedAt  *time.Time               `db:"unassigned_at" json:"unassigned_at,omitempty"`
	AssignedBy    string                   `db:"assigned_by" json:"assigned_by"`
	Notes         string                   `db:"notes" json:"notes"`
	CreatedAt     time.Time                `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time                `db:"updated_at" json:"updated_at"`
}

// OperatesOn reports whether the assignment runs on the given weekday name.
func (a *PermanentAssignment) OperatesOn(weekday string) bool {
	for _, day := range a.OperatingDays {
		if day == weekday {
			return true
		}
	}
	return false
}

// PermanentAssignmentDetail enriches assignments with descriptive fields.
type PermanentAssignmentDetail struct {
	PermanentAssignment
	UnitCode      string `db:"unit_code" json:"unit_code"`
	ItineraryName string `db:"itinerary_name" json:"itinerary_name"`
}

// ExceptionalAssignment is a one-time unit-to-route override for one date.
type ExceptionalAssignment struct {
	ID                    string              `db:"id" json:"id"`
	UnitID                string              `db:"unit_id" json:"unit_id"`
	RouteID               string              `db:"route_id" json:"route_id"`
	TravelDate            time.Time           `db:"travel_date" json:"travel_date"`
	Active                bool                `db:"active" json:"active"`
	ReasonCode            string              `db:"reason_code" json:"reason_code"`
	ReasonDetail          string              `db:"reason_detail" json:"reason_detail"`
	Priority              ExceptionalPriority `db:"priority" json:"priority"`
	RequiresAuthorization bool                `db:"requires_authorization" json:"requires_authorization"`
	AuthorizedBy          *string             `db:"authorized_by" json:"authorized_by,omitempty"`
	AuthorizedAt          *time.Time          `db:"authorized_at" json:"authorized_at,omitempty"`
	AssignedBy            string              `db:"assigned_by" json:"assigned_by"`
	Notes                 string              `db:"notes" json:"notes"`
	UnassignedAt          *time.Time          `db:"unassigned_at" json:"unassigned_at,omitempty"`
	CreatedAt             time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt             time.Time           `db:"updated_at" json:"updated_at"`
}

// ExceptionalAssignmentDetail enriches exceptional assignments for listings.
type ExceptionalAssignmentDetail struct {
	ExceptionalAssignment
	UnitCode  string `db:"unit_code" json:"unit_code"`
	RouteCode string `db:"route_code" json:"route_code"`
	RouteName string `db:"route_name" json:"route_name"`
}

// ExceptionalAssignmentFilter captures listing criteria.
type ExceptionalAssignmentFilter struct {
	UnitID   string
	Date     *time.Time
	Active   *bool
	Page     int
	PageSize int
}

// HistoryEntry is an immutable audit record of a permanent-assignment
// state transition. Entries are append-only and never mutated.
type HistoryEntry struct {
	ID           string    `db:"id" json:"id"`
	AssignmentID string    `db:"assignment_id" json:"assignment_id"`
	Action       string    `db:"action" json:"action"`
	Detail       string    `db:"detail" json:"detail"`
	ActorID      string    `db:"actor_id" json:"actor_id"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
