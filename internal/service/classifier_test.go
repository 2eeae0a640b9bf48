package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/fleet-fuel-api/internal/models"
)

func strPtr(s string) *string { return &s }

func TestClassifyOperatingMode(t *testing.T) {
	cases := []struct {
		name  string
		label *string
		want  models.OperationalRole
	}{
		{"nil label", nil, models.RoleOperational},
		{"empty label", strPtr(""), models.RoleOperational},
		{"whitespace only", strPtr("   "), models.RoleOperational},
		{"plain route mode", strPtr("RUTA FIJA"), models.RoleOperational},
		{"reparto", strPtr("REPARTO URBANO"), models.RoleOperational},
		{"camioneta", strPtr("CAMIONETA"), models.RoleSupervision},
		{"supervision zone", strPtr("Supervision Zona Norte"), models.RoleSupervision},
		{"pickup mixed case", strPtr("Unidad Pickup"), models.RoleSupervision},
		{"administrativa", strPtr("flota administrativa"), models.RoleSupervision},
		{"inspeccion", strPtr("INSPECCION DE CAMPO"), models.RoleSupervision},
		{"control", strPtr("control de combustible"), models.RoleSupervision},
		{"auditoria", strPtr("AUDITORIA"), models.RoleSupervision},
		{"keyword inside word", strPtr("supervisiones"), models.RoleSupervision},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ClassifyOperatingMode(tc.label))
		})
	}
}

func TestRoleForUnit(t *testing.T) {
	t.Run("explicit role wins over label", func(t *testing.T) {
		unit := &models.Unit{Role: models.RoleOperational, OperatingMode: strPtr("CAMIONETA")}
		assert.Equal(t, models.RoleOperational, roleForUnit(unit))
	})

	t.Run("legacy row falls back to classifier", func(t *testing.T) {
		unit := &models.Unit{OperatingMode: strPtr("CAMIONETA")}
		assert.Equal(t, models.RoleSupervision, roleForUnit(unit))
	})

	t.Run("legacy row with nil mode is operational", func(t *testing.T) {
		unit := &models.Unit{}
		assert.Equal(t, models.RoleOperational, roleForUnit(unit))
	})
}
