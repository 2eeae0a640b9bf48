package models

import (
	"time"

	"github.com/lib/pq"
)

// Itinerary state vocabulary carried over from the legacy system; downstream
// consumers match on these strings.
const (
	ItineraryActive   = "ACTIVO"
	ItineraryInactive = "INACTIVO"
)

// Execution states for itinerary runs.
const (
	ExecutionInProgress = "EN_CURSO"
	ExecutionFinished   = "FINALIZADO"
)

// Itinerary is a recurring route template bound to specific weekdays.
type Itinerary struct {
	ID            string         `db:"id" json:"id"`
	Code          string         `db:"code" json:"code"`
	Name          string         `db:"name" json:"name"`
	Status        string         `db:"status" json:"status"`
	OperatingDays pq.StringArray `db:"operating_days" json:"operating_days"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updated_at"`
}

// OperatesOn reports whether the itinerary runs on the given weekday name.
func (i *Itinerary) OperatesOn(weekday string) bool {
	for _, day := range i.OperatingDays {
		if day == weekday {
			return true
		}
	}
	return false
}

// ItineraryFilter captures filtering criteria for listing itineraries.
type ItineraryFilter struct {
	Status    string
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
