/**
 * @description
 * This file contains the HTTP handlers for the customer-service's API endpoints.
 * Handlers validate inbound DTOs, invoke the customer service, and shape the
 * response envelope. They are the bridge between the web layer and the business
 * logic layer.
 *
 * Error mapping at this boundary:
 * - Validation failures (malformed body, non-UUID path id) answer 400 before the
 *   service is ever invoked.
 * - NotFound errors cross with their message intact as 404.
 * - A duplicate cognito id on registration answers 409.
 * - Everything else is reported as a generic 500 and logged server-side.
 *
 * @dependencies
 * - encoding/json, errors, log, net/http: Standard Go libraries.
 * - github.com/go-chi/chi/v5: Path parameter extraction.
 * - github.com/go-playground/validator/v10: Struct-tag DTO validation.
 * - internal/app, internal/domain, internal/store: Service logic, models, errors.
 */

package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/winanjuar/kezbek-customer/internal/domain"
	"github.com/winanjuar/kezbek-customer/internal/store"
)

var validate = validator.New()

// CustomerService is the slice of the application service the handlers depend on.
type CustomerService interface {
	CreateCustomer(ctx context.Context, params store.CreateCustomerParams) (*domain.Customer, error)
	FindCustomerByID(ctx context.Context, id uuid.UUID) (*domain.Customer, error)
	FindCustomerByCognitoID(ctx context.Context, cognitoID uuid.UUID) (*domain.Customer, error)
	FindCustomerByEmail(ctx context.Context, email string) (*domain.Customer, error)
	WalletBalance(ctx context.Context, cognitoID uuid.UUID) (*domain.BalanceSnapshot, error)
	LoyaltyStatus(ctx context.Context, cognitoID uuid.UUID) (*domain.LoyaltySnapshot, error)
	SoftDeleteCustomer(ctx context.Context, id uuid.UUID) error
}

// CustomerHandlers holds the application service that handlers will use.
type CustomerHandlers struct {
	service CustomerService
}

// NewCustomerHandlers creates a new instance of CustomerHandlers.
func NewCustomerHandlers(service CustomerService) *CustomerHandlers {
	return &CustomerHandlers{service: service}
}

// baseResponse is the envelope every successful response is wrapped in.
type baseResponse struct {
	StatusCode int         `json:"statusCode"`
	Message    string      `json:"message"`
	Data       interface{} `json:"data,omitempty"`
}

// CreateCustomerHandler handles POST /try-new-customer.
func (h *CustomerHandlers) CreateCustomerHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateCustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("level=warn component=api endpoint=try_new_customer outcome=reject reason=invalid_json err=%v", err)
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		log.Printf("level=warn component=api endpoint=try_new_customer outcome=reject reason=validation_failed err=%v", err)
		h.writeError(w, http.StatusBadRequest, "Invalid customer data: "+err.Error())
		return
	}

	// The uuid tag above guarantees this parses.
	cognitoID, err := uuid.Parse(req.CognitoID)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "cognito_id must be a valid UUID")
		return
	}

	customer, err := h.service.CreateCustomer(r.Context(), store.CreateCustomerParams{
		CognitoID: cognitoID,
		Name:      req.Name,
		Username:  req.Username,
		Email:     req.Email,
		Phone:     req.Phone,
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicateCognitoID) {
			h.writeError(w, http.StatusConflict, "Customer with this cognito id already exists")
			return
		}
		log.Printf("level=error component=api endpoint=try_new_customer msg=\"create customer failed\" err=%v", err)
		h.writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	log.Printf("level=info component=api endpoint=try_new_customer msg=\"registered new customer\" customer_id=%s", customer.ID)
	h.writeJSON(w, http.StatusCreated, baseResponse{
		StatusCode: http.StatusCreated,
		Message:    "Create new customer successfully",
		Data:       customer,
	})
}

// GetCustomerByIDHandler handles GET /try-info-customer-by-id/{id}.
func (h *CustomerHandlers) GetCustomerByIDHandler(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "id must be a valid UUID")
		return
	}

	customer, err := h.service.FindCustomerByID(r.Context(), id)
	if err != nil {
		h.respondLookupError(w, "try_info_customer_by_id", err)
		return
	}

	h.writeCustomer(w, customer)
}

// GetCustomerByCognitoIDHandler handles GET /try-info-customer-by-cognito/{id}.
func (h *CustomerHandlers) GetCustomerByCognitoIDHandler(w http.ResponseWriter, r *http.Request) {
	cognitoID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "id must be a valid UUID")
		return
	}

	customer, err := h.service.FindCustomerByCognitoID(r.Context(), cognitoID)
	if err != nil {
		h.respondLookupError(w, "try_info_customer_by_cognito", err)
		return
	}

	h.writeCustomer(w, customer)
}

// GetCustomerByEmailHandler handles GET /try-info-customer-by-email/{email}.
func (h *CustomerHandlers) GetCustomerByEmailHandler(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")
	if email == "" {
		h.writeError(w, http.StatusBadRequest, "email is required")
		return
	}

	customer, err := h.service.FindCustomerByEmail(r.Context(), email)
	if err != nil {
		h.respondLookupError(w, "try_info_customer_by_email", err)
		return
	}

	h.writeCustomer(w, customer)
}

// RemoveCustomerHandler handles DELETE /try-remove-customer/{id}. Removal is a soft
// delete; the row stays behind with a deletion timestamp.
func (h *CustomerHandlers) RemoveCustomerHandler(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "id must be a valid UUID")
		return
	}

	if err := h.service.SoftDeleteCustomer(r.Context(), id); err != nil {
		h.respondLookupError(w, "try_remove_customer", err)
		return
	}

	h.writeJSON(w, http.StatusOK, baseResponse{
		StatusCode: http.StatusOK,
		Message:    "Remove customer successfully",
	})
}

// GetWalletBalanceHandler handles GET /get-wallet-ballance for the authenticated
// customer.
func (h *CustomerHandlers) GetWalletBalanceHandler(w http.ResponseWriter, r *http.Request) {
	cognitoID, ok := h.authenticatedCognitoID(w, r)
	if !ok {
		return
	}

	balance, err := h.service.WalletBalance(r.Context(), cognitoID)
	if err != nil {
		h.respondAggregationError(w, "get_wallet_ballance", err)
		return
	}

	log.Printf("level=info component=api endpoint=get_wallet_ballance msg=\"get current balance successfully\" customer_id=%s", balance.CustomerID)
	h.writeJSON(w, http.StatusOK, baseResponse{
		StatusCode: http.StatusOK,
		Message:    "Get current balance successfully",
		Data:       balance,
	})
}

// GetLoyaltyHandler handles GET /get-info-loyalty for the authenticated customer.
func (h *CustomerHandlers) GetLoyaltyHandler(w http.ResponseWriter, r *http.Request) {
	cognitoID, ok := h.authenticatedCognitoID(w, r)
	if !ok {
		return
	}

	loyalty, err := h.service.LoyaltyStatus(r.Context(), cognitoID)
	if err != nil {
		h.respondAggregationError(w, "get_info_loyalty", err)
		return
	}

	log.Printf("level=info component=api endpoint=get_info_loyalty msg=\"get current loyalty successfully\" customer_id=%s", loyalty.CustomerID)
	h.writeJSON(w, http.StatusOK, baseResponse{
		StatusCode: http.StatusOK,
		Message:    "Get current loyalty successfully",
		Data:       loyalty,
	})
}

// GetMeHandler handles GET /try-get-me: it echoes the authenticated identity claim.
func (h *CustomerHandlers) GetMeHandler(w http.ResponseWriter, r *http.Request) {
	cognitoID, ok := GetCognitoID(r.Context())
	if !ok {
		h.writeError(w, http.StatusInternalServerError, "Could not get cognito id from context")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"cognito_id": cognitoID})
}

// authenticatedCognitoID pulls the verified cognito id out of the request context
// and parses it. A false return means the response has already been written.
func (h *CustomerHandlers) authenticatedCognitoID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw, ok := GetCognitoID(r.Context())
	if !ok {
		h.writeError(w, http.StatusInternalServerError, "Could not get cognito id from context")
		return uuid.Nil, false
	}
	cognitoID, err := uuid.Parse(raw)
	if err != nil {
		h.writeError(w, http.StatusUnauthorized, "Cognito id in token is not a valid UUID")
		return uuid.Nil, false
	}
	return cognitoID, true
}

// respondLookupError maps service errors from lookup-style operations to transport
// status codes. NotFound is the only error whose message crosses intact.
func (h *CustomerHandlers) respondLookupError(w http.ResponseWriter, endpoint string, err error) {
	var notFound *domain.NotFoundError
	if errors.As(err, &notFound) {
		h.writeError(w, http.StatusNotFound, notFound.Message)
		return
	}
	log.Printf("level=error component=api endpoint=%s msg=\"lookup failed\" err=%v", endpoint, err)
	h.writeError(w, http.StatusInternalServerError, "Internal server error")
}

// respondAggregationError maps aggregation failures to 500. The loyalty path may
// carry a collaborator message; the wallet path never does.
func (h *CustomerHandlers) respondAggregationError(w http.ResponseWriter, endpoint string, err error) {
	log.Printf("level=error component=api endpoint=%s msg=\"aggregation failed\" err=%v", endpoint, err)
	var internal *domain.InternalError
	if errors.As(err, &internal) && internal.Message != "" {
		h.writeError(w, http.StatusInternalServerError, internal.Message)
		return
	}
	h.writeError(w, http.StatusInternalServerError, "Internal server error")
}

func (h *CustomerHandlers) writeCustomer(w http.ResponseWriter, customer *domain.Customer) {
	h.writeJSON(w, http.StatusOK, baseResponse{
		StatusCode: http.StatusOK,
		Message:    "Get data customer successfully",
		Data:       customer,
	})
}

func (h *CustomerHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

func (h *CustomerHandlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
