// Package http exposes the credential lifecycle over a JSON HTTP API.
package http

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/shopauth/internal/logging"
	"github.com/dmitrijs2005/shopauth/internal/server/models"
	"github.com/dmitrijs2005/shopauth/internal/server/services"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const shutdownTimeout = 10 * time.Second

// Credentials is the part of services.CredentialService the handlers use.
type Credentials interface {
	RequestSignupCode(ctx context.Context, email string) error
	CompleteSignup(ctx context.Context, req services.SignupRequest) (*models.Account, error)
	RequestResetCode(ctx context.Context, scope services.ResetScope, email string) error
	VerifyResetCode(ctx context.Context, scope services.ResetScope, email, code string) error
	CompleteReset(ctx context.Context, scope services.ResetScope, email, code, password string) error
	Login(ctx context.Context, email, password, role string) (*services.Session, error)
	GoogleLogin(ctx context.Context, idToken string) (*services.Session, error)
	Authenticate(ctx context.Context, token string) (*models.Account, error)
}

type Server struct {
	address      string
	credentials  Credentials
	logger       logging.Logger
	cookieSecure bool
	tokenTTL     time.Duration
}

// NewServer builds the HTTP server. tokenTTL sets the session cookie Max-Age.
func NewServer(addr string, l logging.Logger, c Credentials, cookieSecure bool, tokenTTL time.Duration) *Server {
	return &Server{
		address:      addr,
		credentials:  c,
		logger:       l.With("module", "http_server"),
		cookieSecure: cookieSecure,
		tokenTTL:     tokenTTL,
	}
}

// Routes returns the router with every endpoint mounted.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/healthz", s.health)

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/signup/send-code", s.signupSendCode)
		r.Post("/signup/verify", s.signupVerify)

		r.Post("/forgot-password/send-code", s.resetSendCode(services.ScopeCustomer))
		r.Post("/forgot-password/verify", s.resetVerify(services.ScopeCustomer))
		r.Post("/admin-forgot-password/send-code", s.resetSendCode(services.ScopeAdmin))
		r.Post("/admin-forgot-password/verify", s.resetVerify(services.ScopeAdmin))

		r.Post("/login", s.login)
		r.Post("/logout", s.logout)
		r.Post("/google-login", s.googleLogin)
		r.Get("/me", s.me)
	})

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.serve(ctx, listen)
}

func (s *Server) serve(ctx context.Context, listen net.Listener) error {
	srv := &http.Server{
		Handler:           s.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	stopped := make(chan error, 1)
	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		stopped <- srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return <-stopped
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
