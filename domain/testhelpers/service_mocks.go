package testhelpers

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"raffler/domain/entities"
	"raffler/domain/interfaces"
)

// MockRaffleService is a mock implementation of RaffleService
type MockRaffleService struct {
	mock.Mock
}

func (m *MockRaffleService) Enter(ctx context.Context, identities []entities.AccountID, paid entities.Amount) error {
	args := m.Called(ctx, identities, paid)
	return args.Error(0)
}

func (m *MockRaffleService) IndexOf(identity entities.AccountID) (int, bool) {
	args := m.Called(identity)
	return args.Int(0), args.Bool(1)
}

func (m *MockRaffleService) Refund(ctx context.Context, index int, caller entities.AccountID) error {
	args := m.Called(ctx, index, caller)
	return args.Error(0)
}

func (m *MockRaffleService) TryDraw(ctx context.Context, now time.Time) (*entities.Settlement, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Settlement), args.Error(1)
}

func (m *MockRaffleService) Withdraw(ctx context.Context) (*entities.Withdrawal, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Withdrawal), args.Error(1)
}

func (m *MockRaffleService) SetFeeRecipient(recipient entities.AccountID) {
	m.Called(recipient)
}

func (m *MockRaffleService) Snapshot() interfaces.RoundSnapshot {
	args := m.Called()
	return args.Get(0).(interfaces.RoundSnapshot)
}
