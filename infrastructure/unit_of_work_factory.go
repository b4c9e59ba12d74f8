package infrastructure

import (
	"raffler/application"
	"raffler/database"
	"raffler/domain/interfaces"
	"raffler/repository"
)

// UnitOfWorkFactory creates units of work whose event bus buffers through
// a fresh transactional publisher per transaction, publishing to the real
// publisher only after commit.
type UnitOfWorkFactory struct {
	db            *database.DB
	realPublisher interfaces.EventPublisher
}

// NewUnitOfWorkFactory creates a new unit of work factory
func NewUnitOfWorkFactory(db *database.DB, realPublisher interfaces.EventPublisher) *UnitOfWorkFactory {
	return &UnitOfWorkFactory{
		db:            db,
		realPublisher: realPublisher,
	}
}

// Create creates a new unit of work with its own event buffer
func (f *UnitOfWorkFactory) Create() application.UnitOfWork {
	transactionalPublisher := NewNATSTransactionalPublisher(f.realPublisher)
	return repository.NewUnitOfWorkFactory(f.db).CreateWithPublisher(transactionalPublisher)
}
