package middlewares

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Renal37/bankaccount/internal/models"
)

// key is the type of the context keys services are injected under
type key int

// Context keys of the injected services
const (
	AuthServiceKey key = iota
	JwtServiceKey
	LedgerServiceKey
	DepositServiceKey
	EventServiceKey
	DeploymentServiceKey
)

// ServiceInjectorMiddleware stores every service in the request context, where handlers take them
// from with GetServiceFromContext.
func ServiceInjectorMiddleware(
	authService models.AuthService,
	jwtService models.JWTService,
	ledgerService models.LedgerService,
	depositService models.DepositService,
	eventService models.EventService,
	deploymentService models.DeploymentService,
) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), AuthServiceKey, authService)
			ctx = context.WithValue(ctx, JwtServiceKey, jwtService)
			ctx = context.WithValue(ctx, LedgerServiceKey, ledgerService)
			ctx = context.WithValue(ctx, DepositServiceKey, depositService)
			ctx = context.WithValue(ctx, EventServiceKey, eventService)
			ctx = context.WithValue(ctx, DeploymentServiceKey, deploymentService)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetServiceFromContext writes a 500 and returns nil when no service is stored under serviceKey.
func GetServiceFromContext[Service interface{}](w http.ResponseWriter, r *http.Request, serviceKey key) *Service {
	foundService, ok := r.Context().Value(serviceKey).(Service)

	if !ok {
		http.Error(w, fmt.Sprintf("Service wasn't found in context by key %v", serviceKey), http.StatusInternalServerError)
		return nil
	}

	return &foundService
}
