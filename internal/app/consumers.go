/**
 * @description
 * This file contains the message-driven mirror of the HTTP surface: the handler for
 * the fire-and-forget customer.register event and the handler for the info-customer
 * request/reply pattern. Inbound payloads are strictly typed and validated before
 * use, failing closed on missing or malformed fields.
 *
 * @dependencies
 * - encoding/json, log: Standard Go libraries.
 * - github.com/google/uuid: Parsing the cognito id carried by register events.
 * - internal/domain, internal/store: Message contracts and repository parameters.
 */

package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/winanjuar/kezbek-customer/internal/domain"
	"github.com/winanjuar/kezbek-customer/internal/store"
)

// EventHandler processes inbound RabbitMQ messages for the customer-service.
type EventHandler struct {
	service *Service
}

// NewEventHandler creates a new EventHandler wired to the customer service.
func NewEventHandler(service *Service) *EventHandler {
	return &EventHandler{service: service}
}

// HandleRegisterEvent consumes a customer.register event and creates the customer
// record. The return value drives ack/nack: false rejects the delivery.
func (h *EventHandler) HandleRegisterEvent(body []byte) bool {
	var event domain.RegisterCustomerEvent
	if err := json.Unmarshal(body, &event); err != nil {
		log.Printf("level=warn component=consumer event=customer.register msg=\"malformed payload\" err=%v", err)
		return false
	}

	params, err := registerEventToParams(event)
	if err != nil {
		log.Printf("level=warn component=consumer event=customer.register msg=\"rejected payload\" err=%v", err)
		return false
	}

	customer, err := h.service.CreateCustomer(context.Background(), params)
	if err != nil {
		log.Printf("level=error component=consumer event=customer.register msg=\"create customer failed\" cognito_id=%s err=%v", event.CognitoID, err)
		return false
	}

	log.Printf("level=info component=consumer event=customer.register msg=\"registered new customer\" cognito_id=%s customer_id=%s", event.CognitoID, customer.ID)
	return true
}

// HandleInfoCustomerRequest serves the info-customer request/reply pattern: an email
// lookup whose reply carries the caller-supplied transaction id plus a subset of
// customer fields.
func (h *EventHandler) HandleInfoCustomerRequest(body []byte) ([]byte, error) {
	var req domain.InfoCustomerRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, fmt.Errorf("malformed info customer request: %w", err)
	}
	if req.Email == "" {
		return nil, fmt.Errorf("info customer request missing email")
	}
	if req.TransactionID == "" {
		return nil, fmt.Errorf("info customer request missing transaction_id")
	}

	customer, err := h.service.FindCustomerByEmail(context.Background(), req.Email)
	if err != nil {
		return nil, err
	}

	log.Printf("level=info component=consumer pattern=customer.info msg=\"resolved customer\" transaction_id=%s customer_id=%s", req.TransactionID, customer.ID)

	reply := domain.InfoCustomerReply{
		TransactionID: req.TransactionID,
		CustomerID:    customer.ID,
		Name:          customer.Name,
		Email:         customer.Email,
		Phone:         customer.Phone,
	}
	return json.Marshal(reply)
}

// registerEventToParams validates a register event and converts it to repository
// parameters. Every field is required.
func registerEventToParams(event domain.RegisterCustomerEvent) (store.CreateCustomerParams, error) {
	if event.CognitoID == "" || event.Name == "" || event.Username == "" || event.Email == "" || event.Phone == "" {
		return store.CreateCustomerParams{}, fmt.Errorf("register event has missing fields")
	}
	cognitoID, err := uuid.Parse(event.CognitoID)
	if err != nil {
		return store.CreateCustomerParams{}, fmt.Errorf("register event cognito_id is not a uuid: %w", err)
	}
	return store.CreateCustomerParams{
		CognitoID: cognitoID,
		Name:      event.Name,
		Username:  event.Username,
		Email:     event.Email,
		Phone:     event.Phone,
	}, nil
}
