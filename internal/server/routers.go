package server

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"secretVault/internal/auth"
	"secretVault/internal/handlers"
	"secretVault/internal/metrics"
)

// scopedRoute represents a single API route
type scopedRoute struct {
	Name        string
	Method      string
	Pattern     string
	HandlerFunc http.HandlerFunc
	Protected   bool // whether the route requires JWT
}

// NewRouter registers every route and returns the root handler
func NewRouter(jwtManager auth.JWT, userHandler *handlers.UserHandler, secretsHandler *handlers.SecretsHandler, logger *zap.Logger) http.Handler {
	routes := []scopedRoute{
		// Public routes
		{Name: "RegisterUser", Method: http.MethodPost, Pattern: "/register", HandlerFunc: userHandler.Register},
		{Name: "LoginUser", Method: http.MethodPost, Pattern: "/login", HandlerFunc: userHandler.Login},

		// Protected routes
		{Name: "ListSecrets", Method: http.MethodGet, Pattern: "/secrets", HandlerFunc: secretsHandler.ListSecrets, Protected: true},
		{Name: "SaveSecret", Method: http.MethodPost, Pattern: "/secrets", HandlerFunc: secretsHandler.SaveSecret, Protected: true},
		{Name: "DeleteSecret", Method: http.MethodDelete, Pattern: "/secrets", HandlerFunc: secretsHandler.DeleteSecret, Protected: true},
		{Name: "GetSecretValue", Method: http.MethodGet, Pattern: "/secrets/values", HandlerFunc: secretsHandler.GetSecretValue, Protected: true},
		{Name: "ChangeUserPassword", Method: http.MethodPut, Pattern: "/user/change-password", HandlerFunc: userHandler.ChangeUserPassword, Protected: true},
		{Name: "DeleteUser", Method: http.MethodDelete, Pattern: "/user/delete", HandlerFunc: userHandler.DeleteUser, Protected: true},
	}

	r := mux.NewRouter()
	r.Use(auth.RequestIDMiddleware, accessLog(logger))

	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet).Name("Metrics")

	public := r.NewRoute().Subrouter()
	protected := r.NewRoute().Subrouter()
	protected.Use(auth.JWTMiddleware(jwtManager))

	for _, route := range routes {
		target := public
		if route.Protected {
			target = protected
		}
		target.HandleFunc(route.Pattern, route.HandlerFunc).Methods(route.Method).Name(route.Name)
	}

	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	})

	return r
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// accessLog records one log line and one metric sample per matched route.
func accessLog(logger *zap.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			name := "unknown"
			if route := mux.CurrentRoute(r); route != nil && route.GetName() != "" {
				name = route.GetName()
			}
			metrics.IncHTTPRequest(name, r.Method, rec.status)
			metrics.ObserveDuration(metrics.HTTPRequestDuration, start, name, r.Method)

			logger.Debug("http.request",
				zap.String("route", name),
				zap.String("method", r.Method),
				zap.Int("status", rec.status),
				zap.Duration("elapsed", time.Since(start)),
				zap.String("request_id", auth.GetRequestID(r.Context())))
		})
	}
}
