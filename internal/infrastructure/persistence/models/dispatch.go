package models

import (
	"time"

	"github.com/agencyops/backend/internal/domain/dispatch"
	"github.com/agencyops/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SupplierDispatchModel is a row of supplier_dispatches.
type SupplierDispatchModel struct {
	TenantAggregateModel
	AgencyID                uuid.UUID                   `gorm:"type:uuid;not null;index"`
	ActivityID              uuid.UUID                   `gorm:"type:uuid;not null"`
	GuestCount              int                         `gorm:"not null"`
	UnitPayout              decimal.Decimal             `gorm:"type:decimal(18,2);not null"`
	TotalPayout             decimal.Decimal             `gorm:"type:decimal(18,2);not null"`
	Currency                valueobject.Currency        `gorm:"type:varchar(3);not null"`
	SalePrice               *decimal.Decimal            `gorm:"type:decimal(18,2)"`
	AdvancePayment          decimal.Decimal             `gorm:"type:decimal(18,2);not null;default:0"`
	CollectionType          valueobject.CollectionType  `gorm:"type:varchar(20);not null"`
	AmountCollectedBySender decimal.Decimal             `gorm:"type:decimal(18,2);not null;default:0"`
	DispatchDate            time.Time                   `gorm:"not null;index"`
	PayoutID                *uuid.UUID                  `gorm:"type:uuid;index"`
	Notes                   string                      `gorm:"type:text"`
	Items                   []SupplierDispatchItemModel `gorm:"foreignKey:DispatchID;references:ID"`
}

func (SupplierDispatchModel) TableName() string {
	return "supplier_dispatches"
}

// SupplierDispatchItemModel is one line of an itemized dispatch.
type SupplierDispatchItemModel struct {
	ID         uuid.UUID            `gorm:"type:uuid;primaryKey"`
	DispatchID uuid.UUID            `gorm:"type:uuid;not null;index"`
	ItemType   dispatch.ItemType    `gorm:"type:varchar(20);not null"`
	Quantity   int                  `gorm:"not null"`
	UnitAmount decimal.Decimal      `gorm:"type:decimal(18,2);not null"`
	Currency   valueobject.Currency `gorm:"type:varchar(3);not null"`
	Label      string               `gorm:"type:varchar(200)"`
}

func (SupplierDispatchItemModel) TableName() string {
	return "supplier_dispatch_items"
}

func (m *SupplierDispatchModel) ToDomain() *dispatch.SupplierDispatch {
	d := &dispatch.SupplierDispatch{
		TenantAggregateRoot:     m.TenantAggregateRoot(),
		AgencyID:                m.AgencyID,
		ActivityID:              m.ActivityID,
		GuestCount:              m.GuestCount,
		UnitPayout:              m.UnitPayout,
		TotalPayout:             m.TotalPayout,
		Currency:                m.Currency,
		SalePrice:               m.SalePrice,
		AdvancePayment:          m.AdvancePayment,
		CollectionType:          m.CollectionType,
		AmountCollectedBySender: m.AmountCollectedBySender,
		DispatchDate:            m.DispatchDate,
		PayoutID:                m.PayoutID,
		Notes:                   m.Notes,
	}
	if len(m.Items) > 0 {
		d.Items = make([]dispatch.SupplierDispatchItem, len(m.Items))
		for i, it := range m.Items {
			d.Items[i] = dispatch.SupplierDispatchItem{
				ID:         it.ID,
				DispatchID: it.DispatchID,
				ItemType:   it.ItemType,
				Quantity:   it.Quantity,
				UnitAmount: it.UnitAmount,
				Currency:   it.Currency,
				Label:      it.Label,
			}
		}
	}
	return d
}

func (m *SupplierDispatchModel) FromDomain(d *dispatch.SupplierDispatch) {
	m.FromDomainTenantAggregateRoot(d.TenantAggregateRoot)
	m.AgencyID = d.AgencyID
	m.ActivityID = d.ActivityID
	m.GuestCount = d.GuestCount
	m.UnitPayout = d.UnitPayout
	m.TotalPayout = d.TotalPayout
	m.Currency = d.Currency
	m.SalePrice = d.SalePrice
	m.AdvancePayment = d.AdvancePayment
	m.CollectionType = d.CollectionType
	m.AmountCollectedBySender = d.AmountCollectedBySender
	m.DispatchDate = d.DispatchDate
	m.PayoutID = d.PayoutID
	m.Notes = d.Notes
	m.Items = make([]SupplierDispatchItemModel, len(d.Items))
	for i, it := range d.Items {
		m.Items[i] = SupplierDispatchItemModel{
			ID:         it.ID,
			DispatchID: d.ID,
			ItemType:   it.ItemType,
			Quantity:   it.Quantity,
			UnitAmount: it.UnitAmount,
			Currency:   it.Currency,
			Label:      it.Label,
		}
	}
}

func SupplierDispatchModelFromDomain(d *dispatch.SupplierDispatch) *SupplierDispatchModel {
	m := &SupplierDispatchModel{}
	m.FromDomain(d)
	return m
}

// MutableColumns is what changes after creation: settlement linkage and notes.
func (m *SupplierDispatchModel) MutableColumns() map[string]any {
	return map[string]any{
		"payout_id":  m.PayoutID,
		"notes":      m.Notes,
		"version":    m.Version,
		"updated_at": m.UpdatedAt,
	}
}

// AgencyPayoutModel is a row of agency_payouts.
type AgencyPayoutModel struct {
	TenantAggregateModel
	AgencyID            uuid.UUID            `gorm:"type:uuid;not null;index"`
	Amount              decimal.Decimal      `gorm:"type:decimal(18,2);not null"`
	Currency            valueobject.Currency `gorm:"type:varchar(3);not null"`
	PaidAt              time.Time            `gorm:"not null"`
	Method              string               `gorm:"type:varchar(30)"`
	SelectedDispatchIDs []uuid.UUID          `gorm:"type:text;serializer:json;not null"`
	Notes               string               `gorm:"type:text"`
}

func (AgencyPayoutModel) TableName() string {
	return "agency_payouts"
}

func (m *AgencyPayoutModel) ToDomain() *dispatch.AgencyPayout {
	return &dispatch.AgencyPayout{
		TenantAggregateRoot: m.TenantAggregateRoot(),
		AgencyID:            m.AgencyID,
		Amount:              m.Amount,
		Currency:            m.Currency,
		PaidAt:              m.PaidAt,
		Method:              m.Method,
		SelectedDispatchIDs: m.SelectedDispatchIDs,
		Notes:               m.Notes,
	}
}

func AgencyPayoutModelFromDomain(p *dispatch.AgencyPayout) *AgencyPayoutModel {
	m := &AgencyPayoutModel{
		AgencyID:            p.AgencyID,
		Amount:              p.Amount,
		Currency:            p.Currency,
		PaidAt:              p.PaidAt,
		Method:              p.Method,
		SelectedDispatchIDs: p.SelectedDispatchIDs,
		Notes:               p.Notes,
	}
	m.FromDomainTenantAggregateRoot(p.TenantAggregateRoot)
	return m
}

// AgencyActivityRateModel is a row of agency_activity_rates. A NULL
// activity_id marks the agency's general rate.
type AgencyActivityRateModel struct {
	TenantAggregateModel
	AgencyID   uuid.UUID            `gorm:"type:uuid;not null;index"`
	ActivityID *uuid.UUID           `gorm:"type:uuid"`
	UnitPayout decimal.Decimal      `gorm:"type:decimal(18,2);not null"`
	Currency   valueobject.Currency `gorm:"type:varchar(3);not null"`
	ValidFrom  time.Time            `gorm:"not null"`
	ValidTo    *time.Time
}

func (AgencyActivityRateModel) TableName() string {
	return "agency_activity_rates"
}

func (m *AgencyActivityRateModel) ToDomain() *dispatch.AgencyActivityRate {
	return &dispatch.AgencyActivityRate{
		TenantAggregateRoot: m.TenantAggregateRoot(),
		AgencyID:            m.AgencyID,
		ActivityID:          m.ActivityID,
		UnitPayout:          m.UnitPayout,
		Currency:            m.Currency,
		ValidFrom:           m.ValidFrom,
		ValidTo:             m.ValidTo,
	}
}

func AgencyActivityRateModelFromDomain(r *dispatch.AgencyActivityRate) *AgencyActivityRateModel {
	m := &AgencyActivityRateModel{
		AgencyID:   r.AgencyID,
		ActivityID: r.ActivityID,
		UnitPayout: r.UnitPayout,
		Currency:   r.Currency,
		ValidFrom:  r.ValidFrom,
		ValidTo:    r.ValidTo,
	}
	m.FromDomainTenantAggregateRoot(r.TenantAggregateRoot)
	return m
}
