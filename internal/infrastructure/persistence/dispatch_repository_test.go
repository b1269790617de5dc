package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/agencyops/backend/internal/domain/dispatch"
	"github.com/agencyops/backend/internal/domain/shared"
	"github.com/agencyops/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestDispatch(t *testing.T, tenantID, agencyID uuid.UUID, on time.Time, items ...dispatch.ItemInput) *dispatch.SupplierDispatch {
	t.Helper()
	sale := dec("2000")
	d, err := dispatch.NewSupplierDispatch(dispatch.NewDispatchInput{
		TenantID:       tenantID,
		AgencyID:       agencyID,
		ActivityID:     uuid.New(),
		GuestCount:     2,
		UnitPayout:     dec("600"),
		Currency:       valueobject.TRY,
		SalePrice:      &sale,
		AdvancePayment: dec("500"),
		CollectionType: valueobject.CollectionReceiverFull,
		DispatchDate:   on,
		Items:          items,
	})
	require.NoError(t, err)
	return d
}

// ==================== Dispatches ====================

func TestDispatchRepository_ItemizedRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewGormDispatchRepository(setupTestDB(t))
	tenant, agency := uuid.New(), uuid.New()

	d := createTestDispatch(t, tenant, agency, date(6, 1),
		dispatch.ItemInput{ItemType: dispatch.ItemTypeBase, Quantity: 2, UnitAmount: dec("500"), Currency: valueobject.TRY},
		dispatch.ItemInput{ItemType: dispatch.ItemTypeExtra, Quantity: 1, UnitAmount: dec("200"), Currency: valueobject.TRY, Label: "boat"},
	)
	require.NoError(t, repo.Save(ctx, d))

	got, err := repo.FindByIDForTenant(ctx, tenant, d.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Len(t, got.Items, 2)
	assert.True(t, got.TotalPayout.Equal(dec("1200")))
	assert.True(t, got.ItemsTotal().Equal(got.TotalPayout))
	assert.NoError(t, got.CheckConsistency())
	require.NotNil(t, got.SalePrice)
	assert.True(t, got.SalePrice.Equal(dec("2000")))

	other, err := repo.FindByIDForTenant(ctx, uuid.New(), d.ID)
	require.NoError(t, err)
	assert.Nil(t, other)
}

func TestDispatchRepository_Filters(t *testing.T) {
	ctx := context.Background()
	repo := NewGormDispatchRepository(setupTestDB(t))
	tenant, agency, otherAgency := uuid.New(), uuid.New(), uuid.New()

	d1 := createTestDispatch(t, tenant, agency, date(6, 1))
	d2 := createTestDispatch(t, tenant, agency, date(6, 10))
	d3 := createTestDispatch(t, tenant, otherAgency, date(6, 5))
	for _, d := range []*dispatch.SupplierDispatch{d1, d2, d3} {
		require.NoError(t, repo.Save(ctx, d))
	}

	require.NoError(t, d1.MarkSettled(uuid.New()))
	require.NoError(t, repo.SaveWithLock(ctx, d1))

	got, err := repo.FindAllForTenant(ctx, tenant, dispatch.DispatchFilter{AgencyID: &agency, UnsettledOnly: true})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, d2.ID, got[0].ID)

	byIDs, err := repo.FindByIDsForTenant(ctx, tenant, []uuid.UUID{d1.ID, d3.ID, uuid.New()})
	require.NoError(t, err)
	assert.Len(t, byIDs, 2)
}

// ==================== Payouts ====================

func TestPayoutRepository_SaveSettlement(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	dispatches := NewGormDispatchRepository(db)
	payouts := NewGormPayoutRepository(db)
	tenant, agency := uuid.New(), uuid.New()

	newPayout := func(ds []*dispatch.SupplierDispatch) *dispatch.AgencyPayout {
		t.Helper()
		p, err := dispatch.NewAgencyPayout(dispatch.NewPayoutInput{
			TenantID:   tenant,
			AgencyID:   agency,
			Currency:   valueobject.TRY,
			PaidAt:     date(6, 30),
			Method:     "bank_transfer",
			Dispatches: ds,
		})
		require.NoError(t, err)
		return p
	}

	t.Run("settles all dispatches atomically", func(t *testing.T) {
		d1 := createTestDispatch(t, tenant, agency, date(6, 1))
		d2 := createTestDispatch(t, tenant, agency, date(6, 2))
		require.NoError(t, dispatches.Save(ctx, d1))
		require.NoError(t, dispatches.Save(ctx, d2))

		p := newPayout([]*dispatch.SupplierDispatch{d1, d2})
		require.NoError(t, payouts.SaveSettlement(ctx, p, []*dispatch.SupplierDispatch{d1, d2}))

		stored, err := payouts.FindByIDForTenant(ctx, tenant, p.ID)
		require.NoError(t, err)
		require.NotNil(t, stored)
		assert.True(t, stored.Amount.Equal(decimal.NewFromInt(2400)))
		assert.ElementsMatch(t, []uuid.UUID{d1.ID, d2.ID}, stored.SelectedDispatchIDs)

		for _, id := range []uuid.UUID{d1.ID, d2.ID} {
			d, err := dispatches.FindByIDForTenant(ctx, tenant, id)
			require.NoError(t, err)
			require.NotNil(t, d.PayoutID)
			assert.Equal(t, p.ID, *d.PayoutID)
		}
	})

	t.Run("one stale dispatch rolls back the payout", func(t *testing.T) {
		d1 := createTestDispatch(t, tenant, agency, date(6, 3))
		d2 := createTestDispatch(t, tenant, agency, date(6, 4))
		require.NoError(t, dispatches.Save(ctx, d1))
		require.NoError(t, dispatches.Save(ctx, d2))

		stale, err := dispatches.FindByIDForTenant(ctx, tenant, d2.ID)
		require.NoError(t, err)
		require.NoError(t, d2.MarkSettled(uuid.New()))
		require.NoError(t, dispatches.SaveWithLock(ctx, d2))

		p := newPayout([]*dispatch.SupplierDispatch{d1, stale})
		err = payouts.SaveSettlement(ctx, p, []*dispatch.SupplierDispatch{d1, stale})
		assert.True(t, errors.Is(err, shared.ErrConcurrencyConflict))

		missing, err := payouts.FindByIDForTenant(ctx, tenant, p.ID)
		require.NoError(t, err)
		assert.Nil(t, missing)

		reloaded, err := dispatches.FindByIDForTenant(ctx, tenant, d1.ID)
		require.NoError(t, err)
		assert.Nil(t, reloaded.PayoutID)
	})

	t.Run("lists by agency", func(t *testing.T) {
		got, err := payouts.FindByAgency(ctx, tenant, agency)
		require.NoError(t, err)
		assert.Len(t, got, 1)
	})
}

// ==================== Rates ====================

func TestRateRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewGormRateRepository(setupTestDB(t))
	tenant, agency, activity := uuid.New(), uuid.New(), uuid.New()

	general, err := dispatch.NewAgencyActivityRate(tenant, agency, nil, dec("500"), valueobject.TRY, date(1, 1), nil)
	require.NoError(t, err)
	juneEnd := date(6, 30)
	scoped, err := dispatch.NewAgencyActivityRate(tenant, agency, &activity, dec("650"), valueobject.TRY, date(6, 1), &juneEnd)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, general))
	require.NoError(t, repo.Save(ctx, scoped))

	rates, err := repo.FindByAgency(ctx, tenant, agency)
	require.NoError(t, err)
	require.Len(t, rates, 2)

	picked := dispatch.SelectRate(rates, agency, activity, date(6, 15))
	require.NotNil(t, picked)
	assert.True(t, picked.UnitPayout.Equal(dec("650")))

	picked = dispatch.SelectRate(rates, agency, activity, date(7, 1))
	require.NotNil(t, picked)
	assert.True(t, picked.IsGeneral())
}
