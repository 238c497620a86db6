/**
 * @description
 * This file defines the core domain models for the customer-service. These structs
 * represent the customer entity, the request/response DTOs exchanged over HTTP, and
 * the read-only snapshots fetched on demand from the wallet and loyalty collaborators.
 *
 * @notes
 * - The `Customer` struct maps directly to the `customers` table. Timestamps are kept
 *   on the struct for the store's benefit but excluded from JSON, matching the API
 *   contract which only exposes identifying fields.
 * - Snapshots are never persisted by this service; they exist only for the lifetime
 *   of a single aggregation request.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// Customer represents a registered customer record. The internal id is generated at
// creation; the cognito id is issued by the identity provider and is unique across
// all records.
type Customer struct {
	ID        uuid.UUID  `json:"id"`
	CognitoID uuid.UUID  `json:"cognito_id"`
	Name      string     `json:"name"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	Phone     string     `json:"phone"`
	CreatedAt time.Time  `json:"-"`
	UpdatedAt time.Time  `json:"-"`
	DeletedAt *time.Time `json:"-"`
}

// CreateCustomerRequest is the DTO for the customer registration endpoint. It carries
// every customer attribute except the internal id, which the store generates.
type CreateCustomerRequest struct {
	CognitoID string `json:"cognito_id" validate:"required,uuid"`
	Name      string `json:"name" validate:"required"`
	Username  string `json:"username" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone" validate:"required"`
}

// BalanceSnapshot is the wallet collaborator's reply for a customer's current balance.
type BalanceSnapshot struct {
	CustomerID     uuid.UUID `json:"customer_id"`
	CurrentBalance float64   `json:"current_balance"`
}

// LoyaltySnapshot is the loyalty collaborator's reply describing a customer's tier.
type LoyaltySnapshot struct {
	CustomerID uuid.UUID `json:"customer_id"`
	TotalTrx   int       `json:"total_trx"`
	Tier       string    `json:"tier"`
	MaxTrx     int       `json:"max_trx"`
}
