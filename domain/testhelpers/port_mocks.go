package testhelpers

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"raffler/domain/entities"
	"raffler/domain/events"
)

// MockTreasuryPort is a mock implementation of TreasuryPort
type MockTreasuryPort struct {
	mock.Mock
}

func (m *MockTreasuryPort) Send(ctx context.Context, to entities.AccountID, amount entities.Amount) error {
	args := m.Called(ctx, to, amount)
	return args.Error(0)
}

func (m *MockTreasuryPort) Balance(ctx context.Context) (entities.Amount, error) {
	args := m.Called(ctx)
	return args.Get(0).(entities.Amount), args.Error(1)
}

// MockRandomSource is a mock implementation of RandomSource
type MockRandomSource struct {
	mock.Mock
}

func (m *MockRandomSource) Draw(ctx context.Context, domain []byte) (uint64, error) {
	args := m.Called(ctx, domain)
	return args.Get(0).(uint64), args.Error(1)
}

// MockCollectibleMinter is a mock implementation of CollectibleMinter
type MockCollectibleMinter struct {
	mock.Mock
}

func (m *MockCollectibleMinter) Mint(ctx context.Context, winner entities.AccountID, tier entities.Tier, roundToken uuid.UUID) error {
	args := m.Called(ctx, winner, tier, roundToken)
	return args.Error(0)
}

// MockPrizeAssigner is a mock implementation of PrizeAssigner
type MockPrizeAssigner struct {
	mock.Mock
}

func (m *MockPrizeAssigner) Assign(ctx context.Context, roundToken uuid.UUID) (entities.Tier, uint64, error) {
	args := m.Called(ctx, roundToken)
	return args.Get(0).(entities.Tier), args.Get(1).(uint64), args.Error(2)
}

// MockEventPublisher is a mock implementation of EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) error {
	args := m.Called(event)
	return args.Error(0)
}
