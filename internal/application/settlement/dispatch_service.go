package settlement

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/agencyops/backend/internal/domain/dispatch"
	"github.com/agencyops/backend/internal/domain/shared"
	"github.com/agencyops/backend/internal/infrastructure/logger"
	"github.com/agencyops/backend/internal/infrastructure/telemetry"
)

// CreateDispatch records a customer sent to a supplier agency.
func (s *Service) CreateDispatch(ctx context.Context, cmd CreateDispatchCommand) (_ *DispatchView, err error) {
	ctx, span := telemetry.StartSpan(ctx, "settlement.create_dispatch",
		attribute.String("agency_id", cmd.AgencyID.String()))
	defer func() { telemetry.EndSpan(span, err) }()

	in := dispatch.NewDispatchInput{
		TenantID:                cmd.ActorTenantID,
		AgencyID:                cmd.AgencyID,
		ActivityID:              cmd.ActivityID,
		GuestCount:              cmd.GuestCount,
		Currency:                cmd.Currency,
		SalePrice:               cmd.SalePrice,
		AdvancePayment:          cmd.AdvancePayment,
		CollectionType:          cmd.CollectionType,
		AmountCollectedBySender: cmd.AmountCollectedBySender,
		DispatchDate:            cmd.DispatchDate,
		Items:                   cmd.Items,
		Notes:                   cmd.Notes,
	}
	switch {
	case cmd.UnitPayout != nil:
		in.UnitPayout = *cmd.UnitPayout
	case len(cmd.Items) == 0:
		rate, rerr := s.currentRate(ctx, cmd.ActorTenantID, cmd.AgencyID, cmd.ActivityID, cmd.DispatchDate)
		if rerr != nil {
			return nil, rerr
		}
		if rate == nil {
			return nil, shared.NewDomainError(shared.CodeInvalidInput,
				"Unit payout is required when no agency rate applies")
		}
		if in.Currency == "" {
			in.Currency = rate.Currency
		}
		if in.Currency != rate.Currency {
			return nil, shared.NewDomainErrorf(shared.CodeCurrencyMismatch,
				"Agency rate is in %s, dispatch is in %s", rate.Currency, in.Currency)
		}
		in.UnitPayout = rate.UnitPayout
	}

	d, err := dispatch.NewSupplierDispatch(in)
	if err != nil {
		return nil, err
	}
	breakdown, err := dispatch.SettleDispatch(d)
	if err != nil {
		return nil, err
	}
	if err = s.dispatches.Save(ctx, d); err != nil {
		return nil, err
	}

	logger.L(ctx).Info("supplier dispatch created",
		zap.String("dispatch_id", d.ID.String()),
		zap.String("agency_id", d.AgencyID.String()),
		zap.String("total_payout", d.TotalPayout.String()),
		zap.Bool("itemized", d.IsItemized()))
	s.publish(ctx, d)

	view := NewDispatchView(d, breakdown)
	return &view, nil
}

// GetDispatch returns one of the actor's dispatches with its settlement
// breakdown.
func (s *Service) GetDispatch(ctx context.Context, actor, id uuid.UUID) (*DispatchView, error) {
	d, err := s.dispatches.FindByIDForTenant(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, shared.ErrNotFound
	}
	breakdown, err := dispatch.SettleDispatch(d)
	if err != nil {
		return nil, err
	}
	view := NewDispatchView(d, breakdown)
	return &view, nil
}

// ListDispatches lists the actor's dispatches with their breakdowns.
func (s *Service) ListDispatches(ctx context.Context, q DispatchQuery) ([]DispatchView, error) {
	if err := q.Range.Validate(); err != nil {
		return nil, err
	}
	filter := dispatch.DispatchFilter{Filter: q.Page, AgencyID: q.AgencyID, UnsettledOnly: q.UnsettledOnly}
	filter.From, filter.To = rangeBounds(q.Range)

	ds, err := s.dispatches.FindAllForTenant(ctx, q.ActorTenantID, filter)
	if err != nil {
		return nil, err
	}
	views := make([]DispatchView, 0, len(ds))
	for i := range ds {
		breakdown, err := dispatch.SettleDispatch(&ds[i])
		if err != nil {
			return nil, err
		}
		views = append(views, NewDispatchView(&ds[i], breakdown))
	}
	return views, nil
}

// CreatePayout pays an agency for a chosen set of unsettled dispatches. The
// payout and the dispatch links are stored together; a dispatch settled
// concurrently by another payout fails the whole request with
// DISPATCH_ALREADY_SETTLED.
func (s *Service) CreatePayout(ctx context.Context, cmd CreatePayoutCommand) (_ *dispatch.AgencyPayout, err error) {
	ctx, span := telemetry.StartSpan(ctx, "settlement.create_payout",
		attribute.String("agency_id", cmd.AgencyID.String()),
		attribute.Int("dispatch_count", len(cmd.DispatchIDs)))
	defer func() { telemetry.EndSpan(span, err) }()

	selected, err := s.loadSelection(ctx, cmd.ActorTenantID, cmd.DispatchIDs)
	if err != nil {
		return nil, err
	}
	payout, err := dispatch.NewAgencyPayout(dispatch.NewPayoutInput{
		TenantID:   cmd.ActorTenantID,
		AgencyID:   cmd.AgencyID,
		Amount:     cmd.Amount,
		Currency:   cmd.Currency,
		PaidAt:     cmd.PaidAt,
		Method:     cmd.Method,
		Dispatches: selected,
		Notes:      cmd.Notes,
	})
	if err != nil {
		return nil, err
	}

	if err = s.payouts.SaveSettlement(ctx, payout, selected); err != nil {
		return nil, lostRace(ctx, s, "create_payout", err,
			func() (*[]*dispatch.SupplierDispatch, error) {
				fresh, lerr := s.loadSelection(ctx, cmd.ActorTenantID, cmd.DispatchIDs)
				if lerr != nil {
					return nil, lerr
				}
				return &fresh, nil
			},
			func(fresh *[]*dispatch.SupplierDispatch) error {
				for _, d := range *fresh {
					if d.IsSettled() {
						return shared.NewDomainErrorf(shared.CodeAlreadySettled,
							"Dispatch %s already belongs to payout %s", d.ID, *d.PayoutID)
					}
				}
				return nil
			},
			shared.ErrNotFound)
	}

	s.metrics.PayoutCreated(ctx, payout.Currency.String())
	logger.L(ctx).Info("agency payout created",
		zap.String("payout_id", payout.ID.String()),
		zap.String("agency_id", payout.AgencyID.String()),
		zap.String("amount", payout.Amount.String()),
		zap.Int("dispatch_count", len(selected)))
	s.publish(ctx, payout)
	for _, d := range selected {
		s.publish(ctx, d)
	}
	return payout, nil
}

// loadSelection fetches every requested dispatch, failing with NOT_FOUND when
// any id is unknown to the tenant.
func (s *Service) loadSelection(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]*dispatch.SupplierDispatch, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	found, err := s.dispatches.FindByIDsForTenant(ctx, tenantID, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*dispatch.SupplierDispatch, len(found))
	for i := range found {
		byID[found[i].ID] = &found[i]
	}
	selected := make([]*dispatch.SupplierDispatch, 0, len(ids))
	for _, id := range ids {
		d, ok := byID[id]
		if !ok {
			return nil, shared.NewDomainErrorf(shared.CodeNotFound, "Dispatch %s not found", id)
		}
		selected = append(selected, d)
	}
	return selected, nil
}

// GetPayout returns one of the actor's payouts.
func (s *Service) GetPayout(ctx context.Context, actor, id uuid.UUID) (*dispatch.AgencyPayout, error) {
	p, err := s.payouts.FindByIDForTenant(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, shared.ErrNotFound
	}
	return p, nil
}

// CreateRate stores a dated unit payout for an agency.
func (s *Service) CreateRate(ctx context.Context, cmd CreateRateCommand) (*RateView, error) {
	rate, err := dispatch.NewAgencyActivityRate(cmd.ActorTenantID, cmd.AgencyID, cmd.ActivityID,
		cmd.UnitPayout, cmd.Currency, cmd.ValidFrom, cmd.ValidTo)
	if err != nil {
		return nil, err
	}
	if err := s.rates.Save(ctx, rate); err != nil {
		return nil, err
	}
	logger.L(ctx).Info("agency rate created",
		zap.String("rate_id", rate.ID.String()),
		zap.String("agency_id", rate.AgencyID.String()),
		zap.Bool("general", rate.IsGeneral()))
	view := NewRateView(rate)
	return &view, nil
}

// ListRates lists every rate of an agency.
func (s *Service) ListRates(ctx context.Context, actor, agencyID uuid.UUID) ([]RateView, error) {
	rates, err := s.rates.FindByAgency(ctx, actor, agencyID)
	if err != nil {
		return nil, err
	}
	views := make([]RateView, 0, len(rates))
	for i := range rates {
		views = append(views, NewRateView(&rates[i]))
	}
	return views, nil
}

// ResolveRate returns the rate that applies to activityID on date.
func (s *Service) ResolveRate(ctx context.Context, actor, agencyID, activityID uuid.UUID, date time.Time) (*RateView, error) {
	rate, err := s.currentRate(ctx, actor, agencyID, activityID, date)
	if err != nil {
		return nil, err
	}
	if rate == nil {
		return nil, shared.NewDomainError(shared.CodeNotFound, "No agency rate applies on that date")
	}
	view := NewRateView(rate)
	return &view, nil
}

func (s *Service) currentRate(ctx context.Context, tenantID, agencyID, activityID uuid.UUID, date time.Time) (*dispatch.AgencyActivityRate, error) {
	rates, err := s.rates.FindByAgency(ctx, tenantID, agencyID)
	if err != nil {
		return nil, err
	}
	return dispatch.SelectRate(rates, agencyID, activityID, date), nil
}

// SummarizeSupplier aggregates the actor's dispatches and payouts with one
// agency, per currency.
func (s *Service) SummarizeSupplier(ctx context.Context, actor, agencyID uuid.UUID) (*dispatch.AgencySummary, error) {
	ds, err := s.dispatches.FindAllForTenant(ctx, actor, dispatch.DispatchFilter{AgencyID: &agencyID})
	if err != nil {
		return nil, err
	}
	payouts, err := s.payouts.FindByAgency(ctx, actor, agencyID)
	if err != nil {
		return nil, err
	}
	summary := dispatch.SummarizeAgency(agencyID, ds, payouts)
	return &summary, nil
}
