package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/workledger/workledger-backend/pkg/errors"
)

func TestWageBasis_HourlyRate(t *testing.T) {
	assert.True(t, Hourly(decimal.NewFromInt(25)).HourlyRate().Equal(decimal.NewFromInt(25)))
	assert.True(t, Fixed(decimal.NewFromInt(3000)).HourlyRate().IsZero())
}

func TestEmployee_Validate(t *testing.T) {
	valid := Employee{ID: "e1", TenantID: "t1", Role: RoleWorker, Wage: Hourly(decimal.NewFromInt(10))}
	assert.NoError(t, valid.Validate())

	noRole := valid
	noRole.Role = "owner"
	assert.True(t, errors.Is(noRole.Validate(), errors.ErrValidation))

	negative := valid
	negative.Wage = Fixed(decimal.NewFromInt(-1))
	assert.True(t, errors.Is(negative.Validate(), errors.ErrValidation))

	badKind := valid
	badKind.Wage = WageBasis{Kind: "weekly", Amount: decimal.NewFromInt(1)}
	assert.True(t, errors.Is(badKind.Validate(), errors.ErrValidation))
}

func TestTenant_Location(t *testing.T) {
	berlin := &Tenant{Timezone: "Europe/Berlin"}
	assert.Equal(t, "Europe/Berlin", berlin.Location(time.UTC).String())

	unknown := &Tenant{Timezone: "Mars/Olympus"}
	assert.Equal(t, time.UTC, unknown.Location(time.UTC))

	empty := &Tenant{}
	assert.Equal(t, time.UTC, empty.Location(time.UTC))
}
