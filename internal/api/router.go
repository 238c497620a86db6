/**
 * @description
 * This file sets up the HTTP router for the customer-service. It defines the API
 * endpoints, associates them with their corresponding handlers, and applies
 * middleware for logging, panic recovery, timeouts, CORS, rate limiting, and
 * authentication.
 *
 * @dependencies
 * - net/http: Standard Go library for HTTP functionality.
 * - github.com/go-chi/chi/v5: A lightweight and idiomatic router for Go.
 * - github.com/go-chi/cors: CORS middleware.
 */

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouterOptions carries the boundary concerns the router wires in.
type RouterOptions struct {
	JWKSURL          string
	RateLimiter      RateLimiter
	CreateRateLimit  int
	CreateRateWindow time.Duration
}

// CustomerRoutes creates and returns a new router for the customer service.
func CustomerRoutes(h *CustomerHandlers, opts RouterOptions) http.Handler {
	r := chi.NewRouter()

	// Add standard middleware for logging, panic recovery, and timeouts.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Customer service is healthy"))
	})

	// Public customer endpoints.
	r.Group(func(r chi.Router) {
		r.With(RateLimitMiddleware(opts.RateLimiter, "create_customer", opts.CreateRateLimit, opts.CreateRateWindow)).
			Post("/try-new-customer", h.CreateCustomerHandler)
		r.Get("/try-info-customer-by-id/{id}", h.GetCustomerByIDHandler)
		r.Get("/try-info-customer-by-cognito/{id}", h.GetCustomerByCognitoIDHandler)
		r.Get("/try-info-customer-by-email/{email}", h.GetCustomerByEmailHandler)
		r.Delete("/try-remove-customer/{id}", h.RemoveCustomerHandler)
	})

	// Aggregation endpoints require an authenticated identity.
	r.Group(func(r chi.Router) {
		r.Use(CognitoAuthMiddleware(opts.JWKSURL))

		r.Get("/get-wallet-ballance", h.GetWalletBalanceHandler)
		r.Get("/get-info-loyalty", h.GetLoyaltyHandler)
		r.Get("/try-get-me", h.GetMeHandler)
	})

	return r
}
