package router

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Renal37/bankaccount/internal/logger"
	"github.com/Renal37/bankaccount/internal/middlewares"
	"github.com/Renal37/bankaccount/internal/models"
)

const shutdownTimeout = 10 * time.Second

// Config of the HTTP server
type Config struct {
	Endpoint string
}

type Router struct {
	config            Config
	authService       models.AuthService
	jwtService        models.JWTService
	ledgerService     models.LedgerService
	depositService    models.DepositService
	eventService      models.EventService
	deploymentService models.DeploymentService
}

// New creates a Router serving the ledger API with the given services
func New(
	config Config,
	authService models.AuthService,
	jwtService models.JWTService,
	ledgerService models.LedgerService,
	depositService models.DepositService,
	eventService models.EventService,
	deploymentService models.DeploymentService,
) *Router {
	return &Router{
		config,
		authService,
		jwtService,
		ledgerService,
		depositService,
		eventService,
		deploymentService,
	}
}

func (router *Router) get() chi.Router {
	r := chi.NewRouter()

	r.Use(
		middleware.Recoverer,
		cors.Handler(cors.Options{
			AllowedOrigins:   []string{"*"},
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Last-Event-ID"},
			ExposedHeaders:   []string{"Authorization"},
			AllowCredentials: true,
			MaxAge:           300,
		}),
		middlewares.ServiceInjectorMiddleware(
			router.authService,
			router.jwtService,
			router.ledgerService,
			router.depositService,
			router.eventService,
			router.deploymentService,
		),
		logger.RequestLogger,
		middlewares.AuthMiddleware().WithExcludedPaths(
			"/api/user/register",
			"/api/user/login",
			"/api/deployment",
			"/metrics",
		).Middleware,
	)

	r.Route("/api/user", func(r chi.Router) {
		r.With(middlewares.JSONMiddleware[models.UnknownUser]).Post("/register", Register)
		r.With(middlewares.JSONMiddleware[models.UnknownUser]).Post("/login", Login)
	})

	r.Route("/api/accounts", func(r chi.Router) {
		r.With(middlewares.JSONMiddleware[models.CreateAccount]).Post("/", CreateAccount)
		r.Get("/", GetAccounts)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/owners", GetOwners)
			r.Get("/balance", GetBalance)
			r.With(middlewares.JSONMiddleware[models.Amount]).Post("/deposit", Deposit)

			r.Route("/withdrawals", func(r chi.Router) {
				r.With(middlewares.JSONMiddleware[models.Amount]).Post("/", RequestWithdraw)
				r.Get("/", GetPendingWithdrawals)
				r.Get("/{wid}", GetWithdrawal)
				r.Post("/{wid}/approve", ApproveWithdraw)
				r.Get("/{wid}/approvals", GetApprovals)
				r.Post("/{wid}/execute", Withdraw)
			})
		})
	})

	r.Get("/api/events", StreamEvents)
	r.Get("/api/deployment", GetDeployment)
	r.Handle("/metrics", promhttp.Handler())

	return r
}

// Run serves until ctx is done and then shuts the server down gracefully.
func (router *Router) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              router.config.Endpoint,
		Handler:           router.get(),
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Log.Info("starting server", zap.String("address", router.config.Endpoint))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	logger.Log.Info("server stopped")
	return nil
}
