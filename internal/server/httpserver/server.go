// Package httpserver exposes the auth API over HTTP+JSON using gin.
package httpserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/appauth/internal/logging"
	"github.com/gin-gonic/gin"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

const (
	healthPath      = "/api/healthchecker"
	shutdownTimeout = 5 * time.Second
)

// Options tunes cookie and CORS behaviour.
type Options struct {
	CookieSecure bool
	// CookieSameSite is "lax", "strict", "none" or empty for no attribute.
	CookieSameSite     string
	CORSAllowedOrigins []string
}

func (o Options) sameSite() http.SameSite {
	switch strings.ToLower(o.CookieSameSite) {
	case "lax":
		return http.SameSiteLaxMode
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return 0
	}
}

type Server struct {
	address string
	engine  *gin.Engine
	handler http.Handler
	logger  logging.Logger
	svc     AuthService
	opts    Options
}

// New builds the server and its routes. Nothing listens until Run.
func New(address string, l logging.Logger, svc AuthService, verifier TokenVerifier, opts Options) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		address: address,
		engine:  gin.New(),
		logger:  l.With("module", "http_server"),
		svc:     svc,
		opts:    opts,
	}

	s.engine.Use(s.recovery(), requestID(), cors(opts.CORSAllowedOrigins), s.requestLogger())
	s.registerRoutes(verifier)

	s.handler = h2c.NewHandler(s.engine, &http2.Server{
		MaxConcurrentStreams: 250,
		IdleTimeout:          120 * time.Second,
	})
	return s
}

func (s *Server) registerRoutes(verifier TokenVerifier) {
	s.engine.GET(healthPath, s.health)

	api := s.engine.Group("/api/auth")
	api.POST("/applications/:app_name", s.registerApplication)
	api.GET("/applications", s.listApplications)
	api.POST("/users/:app_id", s.insertUser)
	api.GET("/login", s.login)
	api.POST("/login", s.login)

	protected := api.Group("", s.Authenticate(verifier))
	protected.GET("/users/:app_id", s.listUsers)
	protected.GET("/me", s.me)
}

// Handler returns the root handler (gin behind h2c).
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run listens on the configured address and serves until ctx is cancelled,
// then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve is Run on an existing listener. It returns after shutdown finishes.
func (s *Server) Serve(ctx context.Context, listen net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
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
