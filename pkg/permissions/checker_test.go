package permissions_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/workledger/workledger-backend/pkg/permissions"
)

func TestHasPermission(t *testing.T) {
	tests := []struct {
		name     string
		granted  []string
		required string
		want     bool
	}{
		{"nothing required", nil, "", true},
		{"full access", []string{"*"}, "ledger.write", true},
		{"exact", []string{"ledger.read"}, "ledger.read", true},
		{"resource wildcard", []string{"ledger.*"}, "ledger.write", true},
		{"wildcard does not leak to other resources", []string{"ledger.*"}, "attendance.read", false},
		{"prefix is not a wildcard", []string{"ledger"}, "ledger.read", false},
		{"read does not grant write", []string{"ledger.read"}, "ledger.write", false},
		{"no permissions", nil, "ledger.read", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, permissions.HasPermission(tt.granted, tt.required))
		})
	}
}

func TestHasAnyPermission(t *testing.T) {
	assert.True(t, permissions.HasAnyPermission([]string{"attendance.read"}, []string{"ledger.read", "attendance.read"}))
	assert.False(t, permissions.HasAnyPermission([]string{"attendance.read"}, []string{"ledger.read"}))
}

func TestForMethod(t *testing.T) {
	assert.Equal(t, "ledger.read", permissions.ForMethod(permissions.Ledger, http.MethodGet))
	assert.Equal(t, "ledger.write", permissions.ForMethod(permissions.Ledger, http.MethodPut))
	assert.Equal(t, "attendance.write", permissions.ForMethod(permissions.Attendance, http.MethodDelete))
}

func TestIsValidPermission(t *testing.T) {
	assert.True(t, permissions.IsValidPermission("ledger.*"))
	assert.False(t, permissions.IsValidPermission("payroll.read"))
}
