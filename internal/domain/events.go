/**
 * @description
 * This file defines the message contracts shared with sibling services over RabbitMQ.
 * These structures act as the agreed payload shapes for the register event, the
 * info-customer request/reply pattern, and the customer.created event this service
 * publishes after a successful registration.
 *
 * @notes
 * - Inbound payloads are strictly typed and validated before use; a message missing
 *   required fields is rejected rather than partially applied.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// RegisterCustomerEvent is the fire-and-forget payload consumed from the onboarding
// system when a new customer signs up.
type RegisterCustomerEvent struct {
	CognitoID string `json:"cognito_id"`
	Name      string `json:"name"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

// InfoCustomerRequest is the request/reply payload sent by the transaction system to
// resolve a customer by email. The transaction id is a caller-supplied correlation
// value echoed back untouched in the reply.
type InfoCustomerRequest struct {
	Email         string `json:"email"`
	TransactionID string `json:"transaction_id"`
}

// InfoCustomerReply is the normalized customer-info shape returned to the caller of
// the info-customer pattern.
type InfoCustomerReply struct {
	TransactionID string    `json:"transaction_id"`
	CustomerID    uuid.UUID `json:"customer_id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone"`
}

// CustomerCreatedEvent is published to the customer_events exchange after a customer
// record is persisted, for consumption by downstream services.
type CustomerCreatedEvent struct {
	CustomerID uuid.UUID `json:"customer_id"`
	CognitoID  uuid.UUID `json:"cognito_id"`
	Email      string    `json:"email"`
	Timestamp  time.Time `json:"timestamp"`
}

// IDCustomerRequest is the payload this service sends to the wallet and loyalty
// collaborators. Only the resolved internal id crosses the wire; the cognito id
// never leaves this service.
type IDCustomerRequest struct {
	CustomerID uuid.UUID `json:"customer_id"`
}
