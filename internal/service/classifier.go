package service

import (
	"strings"

	"github.com/noah-isme/fleet-fuel-api/internal/models"
)

// supervisionKeywords are the legacy operating-mode fragments denoting
// supervisory, administrative or inspection vehicles. A substring match on
// the normalised label classifies the unit as SUPERVISION.
var supervisionKeywords = []string{
	"supervision",
	"administrativa",
	"inspeccion",
	"control",
	"auditoria",
	"camioneta",
	"pickup",
}

// ClassifyOperatingMode maps a free-text operating-mode label to an
// operational role. A missing or unmatched label yields OPERATIONAL.
func ClassifyOperatingMode(label *string) models.OperationalRole {
	if label == nil {
		return models.RoleOperational
	}
	normalized := strings.ToLower(strings.TrimSpace(*label))
	if normalized == "" {
		return models.RoleOperational
	}
	for _, keyword := range supervisionKeywords {
		if strings.Contains(normalized, keyword) {
			return models.RoleSupervision
		}
	}
	return models.RoleOperational
}

// roleForUnit resolves the unit's effective role. The explicit role column
// wins; the keyword classifier remains as a backfill for legacy rows whose
// role was never set.
func roleForUnit(unit *models.Unit) models.OperationalRole {
	switch unit.Role {
	case models.RoleSupervision, models.RoleOperational:
		return unit.Role
	}
	return ClassifyOperatingMode(unit.OperatingMode)
}
