package actor_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/workledger/workledger-backend/pkg/actor"
)

func TestIDFromContext(t *testing.T) {
	assert.Equal(t, actor.SystemID, actor.IDFromContext(context.Background()))

	ctx := actor.WithActor(context.Background(), &actor.Actor{ID: "user-1", Name: "Rina"})
	assert.Equal(t, "user-1", actor.IDFromContext(ctx))
}

func TestSystemActor(t *testing.T) {
	a := actor.SystemActor("tenant-1")

	assert.True(t, a.IsSystem())
	assert.Equal(t, "tenant-1", a.TenantID)
	assert.Equal(t, "system", a.String())

	var none *actor.Actor
	assert.True(t, none.IsSystem())
}

func TestActor_String(t *testing.T) {
	assert.Equal(t, "Rina (user-1)", (&actor.Actor{ID: "user-1", Name: "Rina"}).String())
	assert.Equal(t, "user-2", (&actor.Actor{ID: "user-2"}).String())
}
