/**
 * @description
 * This file defines the `CustomerRepository` interface, the contract for all data
 * access operations required by the customer-service. The interface decouples the
 * business logic in the `app` layer from the PostgreSQL implementation, which keeps
 * the service testable with an in-memory fake.
 *
 * @notes
 * - Lookups return (nil, nil) when no live row matches: absence is a value, not an
 *   error. Translating a miss into a user-facing NotFound is the service's job.
 * - Soft-deleted rows are excluded by every lookup.
 */

package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/winanjuar/kezbek-customer/internal/domain"
)

// ErrDuplicateCognitoID is returned by CreateCustomer when the unique constraint on
// cognito_id is violated, so the API layer can report a conflict instead of a
// generic internal error.
var ErrDuplicateCognitoID = errors.New("customer with this cognito id already exists")

// CreateCustomerParams carries every customer attribute except the internal id,
// which the repository generates.
type CreateCustomerParams struct {
	CognitoID uuid.UUID
	Name      string
	Username  string
	Email     string
	Phone     string
}

// CustomerRepository defines the set of methods for interacting with the customers table.
type CustomerRepository interface {
	CreateCustomer(ctx context.Context, params CreateCustomerParams) (*domain.Customer, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Customer, error)
	FindByCognitoID(ctx context.Context, cognitoID uuid.UUID) (*domain.Customer, error)
	FindByEmail(ctx context.Context, email string) (*domain.Customer, error)
	SoftDeleteByID(ctx context.Context, id uuid.UUID) error
}
