package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/winanjuar/kezbek-customer/internal/domain"
	"github.com/winanjuar/kezbek-customer/internal/store"
)

// stubService is a canned-response CustomerService that records invocations.
type stubService struct {
	lookupCalls int

	createResult *domain.Customer
	createErr    error
	findResult   *domain.Customer
	findErr      error
	balance      *domain.BalanceSnapshot
	balanceErr   error
	loyalty      *domain.LoyaltySnapshot
	loyaltyErr   error
	deleteErr    error
}

func (s *stubService) CreateCustomer(ctx context.Context, params store.CreateCustomerParams) (*domain.Customer, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	if s.createResult != nil {
		return s.createResult, nil
	}
	customer := &domain.Customer{
		ID:        uuid.New(),
		CognitoID: params.CognitoID,
		Name:      params.Name,
		Username:  params.Username,
		Email:     params.Email,
		Phone:     params.Phone,
	}
	return customer, nil
}

func (s *stubService) FindCustomerByID(ctx context.Context, id uuid.UUID) (*domain.Customer, error) {
	s.lookupCalls++
	return s.findResult, s.findErr
}

func (s *stubService) FindCustomerByCognitoID(ctx context.Context, cognitoID uuid.UUID) (*domain.Customer, error) {
	s.lookupCalls++
	return s.findResult, s.findErr
}

func (s *stubService) FindCustomerByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	s.lookupCalls++
	return s.findResult, s.findErr
}

func (s *stubService) WalletBalance(ctx context.Context, cognitoID uuid.UUID) (*domain.BalanceSnapshot, error) {
	return s.balance, s.balanceErr
}

func (s *stubService) LoyaltyStatus(ctx context.Context, cognitoID uuid.UUID) (*domain.LoyaltySnapshot, error) {
	return s.loyalty, s.loyaltyErr
}

func (s *stubService) SoftDeleteCustomer(ctx context.Context, id uuid.UUID) error {
	s.lookupCalls++
	return s.deleteErr
}

func newRequestWithRouteParam(method, target, param, value string, body []byte) *http.Request {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(param, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) baseResponse {
	t.Helper()
	var envelope baseResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("response is not a valid envelope: %v", err)
	}
	return envelope
}

func TestCreateCustomerHandlerSuccess(t *testing.T) {
	h := NewCustomerHandlers(&stubService{})
	body := []byte(`{
		"cognito_id": "04e13954-c0a2-4499-9706-96201b537c4b",
		"name": "Ann",
		"username": "ann1",
		"email": "ann@x.com",
		"phone": "+1"
	}`)

	req := httptest.NewRequest(http.MethodPost, "/try-new-customer", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.CreateCustomerHandler(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}
	envelope := decodeEnvelope(t, rec)
	if envelope.StatusCode != http.StatusCreated {
		t.Fatalf("expected envelope statusCode 201, got %d", envelope.StatusCode)
	}
	if envelope.Message != "Create new customer successfully" {
		t.Fatalf("unexpected message %q", envelope.Message)
	}

	data, _ := json.Marshal(envelope.Data)
	var created domain.Customer
	if err := json.Unmarshal(data, &created); err != nil {
		t.Fatalf("envelope data is not a customer: %v", err)
	}
	if created.ID == uuid.Nil {
		t.Fatal("expected generated id in response")
	}
	if created.Name != "Ann" || created.Username != "ann1" || created.Email != "ann@x.com" || created.Phone != "+1" {
		t.Fatalf("response does not echo input fields: %+v", created)
	}
}

func TestCreateCustomerHandlerRejectsInvalidBody(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "malformed json", body: `{not json`},
		{name: "missing name", body: `{"cognito_id":"04e13954-c0a2-4499-9706-96201b537c4b","username":"ann1","email":"ann@x.com","phone":"+1"}`},
		{name: "invalid email", body: `{"cognito_id":"04e13954-c0a2-4499-9706-96201b537c4b","name":"Ann","username":"ann1","email":"not-an-email","phone":"+1"}`},
		{name: "cognito id not a uuid", body: `{"cognito_id":"zzz","name":"Ann","username":"ann1","email":"ann@x.com","phone":"+1"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewCustomerHandlers(&stubService{})
			req := httptest.NewRequest(http.MethodPost, "/try-new-customer", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			h.CreateCustomerHandler(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected status 400, got %d", rec.Code)
			}
		})
	}
}

func TestCreateCustomerHandlerDuplicateCognitoID(t *testing.T) {
	h := NewCustomerHandlers(&stubService{createErr: store.ErrDuplicateCognitoID})
	body := `{"cognito_id":"04e13954-c0a2-4499-9706-96201b537c4b","name":"Ann","username":"ann1","email":"ann@x.com","phone":"+1"}`

	req := httptest.NewRequest(http.MethodPost, "/try-new-customer", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.CreateCustomerHandler(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", rec.Code)
	}
}

func TestGetCustomerByIDHandlerMalformedID(t *testing.T) {
	stub := &stubService{}
	h := NewCustomerHandlers(stub)

	req := newRequestWithRouteParam(http.MethodGet, "/try-info-customer-by-id/not-a-uuid", "id", "not-a-uuid", nil)
	rec := httptest.NewRecorder()
	h.GetCustomerByIDHandler(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
	if stub.lookupCalls != 0 {
		t.Fatalf("store must never be queried for a malformed id, got %d lookups", stub.lookupCalls)
	}
}

func TestGetCustomerByIDHandlerNotFound(t *testing.T) {
	id := uuid.New()
	stub := &stubService{findErr: &domain.NotFoundError{Message: "Customer with id " + id.String() + " doesn't exist"}}
	h := NewCustomerHandlers(stub)

	req := newRequestWithRouteParam(http.MethodGet, "/try-info-customer-by-id/"+id.String(), "id", id.String(), nil)
	rec := httptest.NewRecorder()
	h.GetCustomerByIDHandler(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Customer with id "+id.String()+" doesn't exist") {
		t.Fatalf("expected NotFound message to cross intact, got %s", rec.Body.String())
	}
}

func TestGetCustomerByIDHandlerInternalErrorIsGeneric(t *testing.T) {
	id := uuid.New()
	stub := &stubService{findErr: context.DeadlineExceeded}
	h := NewCustomerHandlers(stub)

	req := newRequestWithRouteParam(http.MethodGet, "/try-info-customer-by-id/"+id.String(), "id", id.String(), nil)
	rec := httptest.NewRecorder()
	h.GetCustomerByIDHandler(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "deadline") {
		t.Fatalf("internal cause must not leak to the client: %s", rec.Body.String())
	}
}

func TestGetCustomerByIDHandlerSuccess(t *testing.T) {
	customer := &domain.Customer{
		ID:        uuid.New(),
		CognitoID: uuid.New(),
		Name:      "Ann",
		Username:  "ann1",
		Email:     "ann@x.com",
		Phone:     "+1",
	}
	h := NewCustomerHandlers(&stubService{findResult: customer})

	req := newRequestWithRouteParam(http.MethodGet, "/try-info-customer-by-id/"+customer.ID.String(), "id", customer.ID.String(), nil)
	rec := httptest.NewRecorder()
	h.GetCustomerByIDHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	envelope := decodeEnvelope(t, rec)
	if envelope.Message != "Get data customer successfully" {
		t.Fatalf("unexpected message %q", envelope.Message)
	}
}

func TestGetWalletBalanceHandler(t *testing.T) {
	customerID := uuid.New()
	h := NewCustomerHandlers(&stubService{balance: &domain.BalanceSnapshot{CustomerID: customerID, CurrentBalance: 50000}})

	req := httptest.NewRequest(http.MethodGet, "/get-wallet-ballance", nil)
	req = req.WithContext(context.WithValue(req.Context(), cognitoIDKey, uuid.NewString()))
	rec := httptest.NewRecorder()
	h.GetWalletBalanceHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	envelope := decodeEnvelope(t, rec)
	if envelope.Message != "Get current balance successfully" {
		t.Fatalf("unexpected message %q", envelope.Message)
	}
}

func TestGetWalletBalanceHandlerFailureIsGeneric(t *testing.T) {
	h := NewCustomerHandlers(&stubService{balanceErr: &domain.InternalError{}})

	req := httptest.NewRequest(http.MethodGet, "/get-wallet-ballance", nil)
	req = req.WithContext(context.WithValue(req.Context(), cognitoIDKey, uuid.NewString()))
	rec := httptest.NewRecorder()
	h.GetWalletBalanceHandler(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Internal server error") {
		t.Fatalf("expected generic error body, got %s", rec.Body.String())
	}
}

func TestGetLoyaltyHandlerPreservesCollaboratorMessage(t *testing.T) {
	h := NewCustomerHandlers(&stubService{loyaltyErr: &domain.InternalError{Message: "loyalty engine unavailable"}})

	req := httptest.NewRequest(http.MethodGet, "/get-info-loyalty", nil)
	req = req.WithContext(context.WithValue(req.Context(), cognitoIDKey, uuid.NewString()))
	rec := httptest.NewRecorder()
	h.GetLoyaltyHandler(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "loyalty engine unavailable") {
		t.Fatalf("expected collaborator message preserved, got %s", rec.Body.String())
	}
}

func TestGetMeHandlerEchoesIdentity(t *testing.T) {
	h := NewCustomerHandlers(&stubService{})
	cognitoID := uuid.NewString()

	req := httptest.NewRequest(http.MethodGet, "/try-get-me", nil)
	req = req.WithContext(context.WithValue(req.Context(), cognitoIDKey, cognitoID))
	rec := httptest.NewRecorder()
	h.GetMeHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), cognitoID) {
		t.Fatalf("expected cognito id echoed back, got %s", rec.Body.String())
	}
}

func TestAggregationEndpointsRequireAuthentication(t *testing.T) {
	h := NewCustomerHandlers(&stubService{})
	router := CustomerRoutes(h, RouterOptions{
		JWKSURL:          "http://localhost/jwks.json",
		CreateRateLimit:  0,
		CreateRateWindow: time.Minute,
	})

	for _, target := range []string{"/get-wallet-ballance", "/get-info-loyalty", "/try-get-me"} {
		t.Run(target, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, target, nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("expected status 401 without bearer token, got %d", rec.Code)
			}
		})
	}
}

func TestRemoveCustomerHandler(t *testing.T) {
	id := uuid.New()
	h := NewCustomerHandlers(&stubService{})

	req := newRequestWithRouteParam(http.MethodDelete, "/try-remove-customer/"+id.String(), "id", id.String(), nil)
	rec := httptest.NewRecorder()
	h.RemoveCustomerHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	envelope := decodeEnvelope(t, rec)
	if envelope.Message != "Remove customer successfully" {
		t.Fatalf("unexpected message %q", envelope.Message)
	}
}
