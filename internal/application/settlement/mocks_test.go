package settlement

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/agencyops/backend/internal/domain/currency"
	"github.com/agencyops/backend/internal/domain/dispatch"
	"github.com/agencyops/backend/internal/domain/referral"
	"github.com/agencyops/backend/internal/domain/settlement"
	"github.com/agencyops/backend/internal/domain/shared"
)

// =============================================================================
// Mock Repositories
// =============================================================================

type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*referral.PartnerTransaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*referral.PartnerTransaction), args.Error(1)
}

func (m *MockTransactionRepository) FindForTenant(ctx context.Context, filter referral.TransactionFilter) ([]referral.PartnerTransaction, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]referral.PartnerTransaction), args.Error(1)
}

func (m *MockTransactionRepository) Save(ctx context.Context, tx *referral.PartnerTransaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockTransactionRepository) SaveWithLock(ctx context.Context, tx *referral.PartnerTransaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockTransactionRepository) DeleteWithLock(ctx context.Context, id uuid.UUID, expectedVersion int) error {
	args := m.Called(ctx, id, expectedVersion)
	return args.Error(0)
}

type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*settlement.PartnerPayment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*settlement.PartnerPayment), args.Error(1)
}

func (m *MockPaymentRepository) FindForTenant(ctx context.Context, filter settlement.PaymentFilter) ([]settlement.PartnerPayment, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]settlement.PartnerPayment), args.Error(1)
}

func (m *MockPaymentRepository) Save(ctx context.Context, p *settlement.PartnerPayment) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockPaymentRepository) SaveWithLock(ctx context.Context, p *settlement.PartnerPayment) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

type MockDispatchRepository struct {
	mock.Mock
}

func (m *MockDispatchRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*dispatch.SupplierDispatch, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dispatch.SupplierDispatch), args.Error(1)
}

func (m *MockDispatchRepository) FindByIDsForTenant(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]dispatch.SupplierDispatch, error) {
	args := m.Called(ctx, tenantID, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]dispatch.SupplierDispatch), args.Error(1)
}

func (m *MockDispatchRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter dispatch.DispatchFilter) ([]dispatch.SupplierDispatch, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]dispatch.SupplierDispatch), args.Error(1)
}

func (m *MockDispatchRepository) Save(ctx context.Context, d *dispatch.SupplierDispatch) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

func (m *MockDispatchRepository) SaveWithLock(ctx context.Context, d *dispatch.SupplierDispatch) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

type MockPayoutRepository struct {
	mock.Mock
}

func (m *MockPayoutRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*dispatch.AgencyPayout, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dispatch.AgencyPayout), args.Error(1)
}

func (m *MockPayoutRepository) FindByAgency(ctx context.Context, tenantID, agencyID uuid.UUID) ([]dispatch.AgencyPayout, error) {
	args := m.Called(ctx, tenantID, agencyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]dispatch.AgencyPayout), args.Error(1)
}

func (m *MockPayoutRepository) SaveSettlement(ctx context.Context, payout *dispatch.AgencyPayout, dispatches []*dispatch.SupplierDispatch) error {
	args := m.Called(ctx, payout, dispatches)
	return args.Error(0)
}

type MockRateRepository struct {
	mock.Mock
}

func (m *MockRateRepository) FindByAgency(ctx context.Context, tenantID, agencyID uuid.UUID) ([]dispatch.AgencyActivityRate, error) {
	args := m.Called(ctx, tenantID, agencyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]dispatch.AgencyActivityRate), args.Error(1)
}

func (m *MockRateRepository) Save(ctx context.Context, rate *dispatch.AgencyActivityRate) error {
	args := m.Called(ctx, rate)
	return args.Error(0)
}

// =============================================================================
// Mock collaborators
// =============================================================================

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}

type MockRateOracle struct {
	mock.Mock
}

func (m *MockRateOracle) Snapshot(ctx context.Context) (*currency.RateSnapshot, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*currency.RateSnapshot), args.Error(1)
}

type MockReceiptStorage struct {
	mock.Mock
}

func (m *MockReceiptStorage) GenerateUploadURL(ctx context.Context, key, contentType string, expiresIn time.Duration) (string, time.Time, error) {
	args := m.Called(ctx, key, contentType, expiresIn)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

func (m *MockReceiptStorage) GenerateDownloadURL(ctx context.Context, key string, expiresIn time.Duration) (string, time.Time, error) {
	args := m.Called(ctx, key, expiresIn)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

func (m *MockReceiptStorage) ObjectExists(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

// =============================================================================
// Fixtures
// =============================================================================

type testRepos struct {
	transactions *MockTransactionRepository
	payments     *MockPaymentRepository
	dispatches   *MockDispatchRepository
	payouts      *MockPayoutRepository
	rates        *MockRateRepository
}

func createTestService(opts ...Option) (*Service, *testRepos) {
	r := &testRepos{
		transactions: new(MockTransactionRepository),
		payments:     new(MockPaymentRepository),
		dispatches:   new(MockDispatchRepository),
		payouts:      new(MockPayoutRepository),
		rates:        new(MockRateRepository),
	}
	svc := NewService(Repositories{
		Transactions: r.transactions,
		Payments:     r.payments,
		Dispatches:   r.dispatches,
		Payouts:      r.payouts,
		Rates:        r.rates,
	}, opts...)
	return svc, r
}

func (r *testRepos) assertExpectations(t mock.TestingT) {
	r.transactions.AssertExpectations(t)
	r.payments.AssertExpectations(t)
	r.dispatches.AssertExpectations(t)
	r.payouts.AssertExpectations(t)
	r.rates.AssertExpectations(t)
}
