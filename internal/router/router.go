package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	hrest "finance-service/internal/handler/rest"
)

func SetupRoutes(
	ledgerHandler *hrest.LedgerHandler,
	receivableHandler *hrest.ReceivableHandler,
	webhookHandler *hrest.WebhookHandler,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(LoggerMiddleware(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Razorpay-Signature"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/api/v1/finance/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/accounts", func(r chi.Router) {
			r.Post("/", ledgerHandler.CreateAccount)
			r.Get("/", ledgerHandler.ListAccounts)
			r.Get("/{id}", ledgerHandler.GetAccount)
			r.Put("/{id}/primary", ledgerHandler.SetPrimaryAccount)
			r.Get("/{id}/statement", ledgerHandler.Statement)
		})

		r.Route("/ledger", func(r chi.Router) {
			r.Post("/debits", ledgerHandler.Debit)
			r.Put("/debits/{id}", ledgerHandler.UpdateDebit)
			r.Delete("/debits/{id}", ledgerHandler.DeleteDebit)
			r.Post("/credits", ledgerHandler.Credit)
			r.Put("/credits/{id}", ledgerHandler.UpdateCredit)
			r.Delete("/credits/{id}", ledgerHandler.DeleteCredit)
			r.Post("/transfers", ledgerHandler.Transfer)
		})

		r.Route("/receivables", func(r chi.Router) {
			r.Post("/", receivableHandler.Create)
			r.Get("/", receivableHandler.ListByStatus)
			r.Get("/{id}", receivableHandler.Get)
			r.Post("/{id}/cash-payment", receivableHandler.ConfirmCashPayment)
			r.Post("/{id}/installments", receivableHandler.PayInstallment)
			r.Post("/{id}/reject", receivableHandler.Reject)
		})

		// Gateway delivers captured payments here. Signature is checked
		// against the raw body inside the handler.
		r.Post("/webhooks/payments", webhookHandler.HandleGatewayCallback)
	})

	return r
}

// LoggerMiddleware logs HTTP requests
func LoggerMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			logger.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)),
				zap.String("remote_addr", r.RemoteAddr))
		})
	}
}
