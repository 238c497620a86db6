/**
 * @description
 * This file contains the core business logic for the customer-service. The `Service`
 * struct wraps the customer store, translating lookup misses into typed NotFound
 * errors, and implements the aggregation fan-out to the wallet and loyalty
 * collaborators over RabbitMQ request/reply.
 *
 * Key features:
 * - Lookup operations share one policy: absent-from-store becomes a NotFoundError
 *   whose message names the queried key; storage faults propagate unchanged.
 * - Aggregation operations resolve the cognito id to the internal customer id first
 *   and never call a collaborator when resolution fails. Only the internal id
 *   crosses the wire.
 * - Successful creations publish a customer.created event; a publish failure is
 *   logged and never fails the request.
 *
 * @dependencies
 * - context, encoding/json, fmt, log, time: Standard Go libraries.
 * - github.com/google/uuid: Customer identifiers.
 * - internal/domain, internal/store: Domain models and data access.
 * - pkg/rabbitmq: Collaborator RPC and event publishing.
 */

package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/winanjuar/kezbek-customer/internal/domain"
	"github.com/winanjuar/kezbek-customer/internal/store"
	"github.com/winanjuar/kezbek-customer/pkg/rabbitmq"
)

// DefaultRPCTimeout bounds a collaborator round-trip when no timeout is configured.
const DefaultRPCTimeout = 5 * time.Second

// Service provides the core business logic for customer records and aggregation.
type Service struct {
	repo          store.CustomerRepository
	rpcClient     rabbitmq.Caller
	eventProducer rabbitmq.Publisher
	walletQueue   string
	loyaltyQueue  string
	rpcTimeout    time.Duration
}

// NewService creates a new customer service instance. rpcTimeout <= 0 falls back to
// DefaultRPCTimeout.
func NewService(repo store.CustomerRepository, rpcClient rabbitmq.Caller, producer rabbitmq.Publisher, walletQueue, loyaltyQueue string, rpcTimeout time.Duration) *Service {
	if rpcTimeout <= 0 {
		rpcTimeout = DefaultRPCTimeout
	}
	return &Service{
		repo:          repo,
		rpcClient:     rpcClient,
		eventProducer: producer,
		walletQueue:   walletQueue,
		loyaltyQueue:  loyaltyQueue,
		rpcTimeout:    rpcTimeout,
	}
}

// CreateCustomer persists a new customer record. Validation happens upstream at the
// API boundary; uniqueness of the cognito id is enforced by the storage constraint
// and surfaces as store.ErrDuplicateCognitoID.
func (s *Service) CreateCustomer(ctx context.Context, params store.CreateCustomerParams) (*domain.Customer, error) {
	customer, err := s.repo.CreateCustomer(ctx, params)
	if err != nil {
		return nil, err
	}

	if s.eventProducer != nil {
		event := domain.CustomerCreatedEvent{
			CustomerID: customer.ID,
			CognitoID:  customer.CognitoID,
			Email:      customer.Email,
			Timestamp:  time.Now().UTC(),
		}
		if err := s.eventProducer.PublishCustomerCreatedEvent(ctx, event); err != nil {
			log.Printf("level=warn component=app msg=\"customer created event publish failed\" customer_id=%s err=%v", customer.ID, err)
		}
	}

	return customer, nil
}

// FindCustomerByID returns the customer with the given internal id, or a
// NotFoundError naming the id.
func (s *Service) FindCustomerByID(ctx context.Context, id uuid.UUID) (*domain.Customer, error) {
	customer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, &domain.NotFoundError{Message: fmt.Sprintf("Customer with id %s doesn't exist", id)}
	}
	return customer, nil
}

// FindCustomerByCognitoID returns the customer with the given cognito id, or a
// NotFoundError naming the cognito id.
func (s *Service) FindCustomerByCognitoID(ctx context.Context, cognitoID uuid.UUID) (*domain.Customer, error) {
	customer, err := s.repo.FindByCognitoID(ctx, cognitoID)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, &domain.NotFoundError{Message: fmt.Sprintf("Customer with cognito id %s doesn't exist", cognitoID)}
	}
	return customer, nil
}

// FindCustomerByEmail returns the customer with the given email, or a NotFoundError
// naming the email.
func (s *Service) FindCustomerByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	customer, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, &domain.NotFoundError{Message: fmt.Sprintf("Customer with email %s doesn't exist", email)}
	}
	return customer, nil
}

// WalletBalance resolves the customer behind the cognito id, then asks the wallet
// collaborator for the current balance. Every failure is normalized to a bare
// InternalError with the cause logged server-side only.
func (s *Service) WalletBalance(ctx context.Context, cognitoID uuid.UUID) (*domain.BalanceSnapshot, error) {
	customer, err := s.FindCustomerByCognitoID(ctx, cognitoID)
	if err != nil {
		log.Printf("level=warn component=app operation=wallet_balance msg=\"customer resolution failed\" cognito_id=%s err=%v", cognitoID, err)
		return nil, &domain.InternalError{}
	}

	reply, err := s.callCollaborator(ctx, s.walletQueue, customer.ID)
	if err != nil {
		log.Printf("level=error component=app operation=wallet_balance msg=\"wallet rpc failed\" customer_id=%s err=%v", customer.ID, err)
		return nil, &domain.InternalError{}
	}

	var balance domain.BalanceSnapshot
	if err := json.Unmarshal(reply, &balance); err != nil {
		log.Printf("level=error component=app operation=wallet_balance msg=\"malformed wallet reply\" customer_id=%s err=%v", customer.ID, err)
		return nil, &domain.InternalError{}
	}
	return &balance, nil
}

// LoyaltyStatus resolves the customer behind the cognito id, then asks the loyalty
// collaborator for the tier snapshot. Failures are normalized to InternalError, but
// the underlying message text is preserved when available.
func (s *Service) LoyaltyStatus(ctx context.Context, cognitoID uuid.UUID) (*domain.LoyaltySnapshot, error) {
	customer, err := s.FindCustomerByCognitoID(ctx, cognitoID)
	if err != nil {
		log.Printf("level=warn component=app operation=loyalty_status msg=\"customer resolution failed\" cognito_id=%s err=%v", cognitoID, err)
		return nil, &domain.InternalError{Message: err.Error()}
	}

	reply, err := s.callCollaborator(ctx, s.loyaltyQueue, customer.ID)
	if err != nil {
		log.Printf("level=error component=app operation=loyalty_status msg=\"loyalty rpc failed\" customer_id=%s err=%v", customer.ID, err)
		return nil, &domain.InternalError{Message: err.Error()}
	}

	var loyalty domain.LoyaltySnapshot
	if err := json.Unmarshal(reply, &loyalty); err != nil {
		log.Printf("level=error component=app operation=loyalty_status msg=\"malformed loyalty reply\" customer_id=%s err=%v", customer.ID, err)
		return nil, &domain.InternalError{Message: err.Error()}
	}
	return &loyalty, nil
}

// SoftDeleteCustomer marks a customer as deleted. An id that is absent or already
// deleted is a no-op, so a repeated removal still succeeds.
func (s *Service) SoftDeleteCustomer(ctx context.Context, id uuid.UUID) error {
	return s.repo.SoftDeleteByID(ctx, id)
}

// callCollaborator performs one bounded request/reply round-trip keyed by the
// resolved internal customer id.
func (s *Service) callCollaborator(ctx context.Context, queue string, customerID uuid.UUID) ([]byte, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.rpcTimeout)
	defer cancel()
	return s.rpcClient.Call(callCtx, queue, domain.IDCustomerRequest{CustomerID: customerID})
}
