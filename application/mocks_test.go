package application

import (
	"context"

	"github.com/stretchr/testify/mock"

	"raffler/domain/interfaces"
)

// MockUnitOfWork is a mock implementation of UnitOfWork
type MockUnitOfWork struct {
	mock.Mock
}

func (m *MockUnitOfWork) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) RoundRepository() interfaces.RoundRepository {
	args := m.Called()
	return args.Get(0).(interfaces.RoundRepository)
}

func (m *MockUnitOfWork) WithdrawalRepository() interfaces.WithdrawalRepository {
	args := m.Called()
	return args.Get(0).(interfaces.WithdrawalRepository)
}

func (m *MockUnitOfWork) EventBus() interfaces.EventPublisher {
	args := m.Called()
	return args.Get(0).(interfaces.EventPublisher)
}

// MockUnitOfWorkFactory is a mock implementation of UnitOfWorkFactory
type MockUnitOfWorkFactory struct {
	mock.Mock
}

func (m *MockUnitOfWorkFactory) Create() UnitOfWork {
	args := m.Called()
	return args.Get(0).(UnitOfWork)
}
