package shared

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestTenantAggregateRoot(t *testing.T) {
	owner := uuid.New()
	agg := NewTenantAggregateRoot(owner)

	assert.Equal(t, owner, agg.TenantID)
	assert.NotEqual(t, uuid.Nil, agg.ID)
	assert.Equal(t, 1, agg.Version)
	assert.Empty(t, agg.GetDomainEvents())

	t.Run("transition bumps version once", func(t *testing.T) {
		before := agg.UpdatedAt
		agg.IncrementVersion()
		assert.Equal(t, 2, agg.Version)
		assert.Equal(t, 1, agg.PersistedVersion())
		assert.False(t, agg.UpdatedAt.Before(before))
	})

	t.Run("events are drained", func(t *testing.T) {
		actor := uuid.New()
		ev := NewBaseDomainEvent("Something", "Thing", agg.ID, actor)
		agg.AddDomainEvent(&ev)

		events := agg.GetDomainEvents()
		assert.Len(t, events, 1)
		assert.Equal(t, actor, events[0].TenantID())
		assert.Equal(t, agg.ID, events[0].AggregateID())

		agg.ClearDomainEvents()
		assert.Empty(t, agg.GetDomainEvents())
	})
}
