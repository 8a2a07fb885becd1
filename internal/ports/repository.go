package ports

import (
	"context"

	"github.com/jurix/jurix/internal/domain"
)

// Transactor runs a function inside a single database transaction.
// Repository calls made with the ctx passed to fn join that transaction.
type Transactor interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ContractRepository defines the interface for contract and version persistence
type ContractRepository interface {
	Transactor

	// Create saves a new contract
	Create(ctx context.Context, contract *domain.Contract) error

	// FindByID retrieves a contract by its ID
	FindByID(ctx context.Context, id string) (*domain.Contract, error)

	// FindByIDForUpdate retrieves a contract and locks its row until the transaction ends
	FindByIDForUpdate(ctx context.Context, id string) (*domain.Contract, error)

	// Update persists title, content, status and version of an existing contract
	Update(ctx context.Context, contract *domain.Contract) error

	// Delete removes a contract; its versions cascade
	Delete(ctx context.Context, id string) error

	// List retrieves contracts based on filter criteria
	List(ctx context.Context, filter domain.ContractFilter) ([]*domain.Contract, error)

	// Count returns the number of contracts matching the filter
	Count(ctx context.Context, filter domain.ContractFilter) (int, error)

	// CreateVersion appends a version snapshot
	CreateVersion(ctx context.Context, version *domain.ContractVersion) error

	// ListVersions returns all versions of a contract, newest first
	ListVersions(ctx context.Context, contractID string) ([]*domain.ContractVersion, error)
}

// UserRepository defines the interface for user persistence
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
}
