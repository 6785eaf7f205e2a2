// Package gateway exposes the SDK over HTTP.
//
// Routes:
//
//	POST /v1/compress     compress a prompt
//	POST /v1/chat         compress, then chat
//	POST /v1/chat/stream  compress, then stream the reply as server-sent events
//	GET  /healthz         liveness
//	GET  /version         build information
//
// Errors are rendered as {"error": {"code", "message", "statusCode", "details"}}
// with the HTTP status mapped from the error kind.
package gateway

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/kbukum/lesstokens/compression"
	"github.com/kbukum/lesstokens/config"
	"github.com/kbukum/lesstokens/llm"
	"github.com/kbukum/lesstokens/logger"
	"github.com/kbukum/lesstokens/sdk"
)

// Service is the part of *sdk.SDK the gateway calls.
type Service interface {
	CompressPrompt(ctx context.Context, prompt string, opts *compression.Options) (*compression.Result, error)
	ProcessPrompt(ctx context.Context, opts sdk.ProcessOptions) (*llm.Response, error)
	ProcessPromptStream(ctx context.Context, opts sdk.ProcessOptions) (llm.Stream, error)
}

// Server serves the gateway routes over HTTP/1.1 and cleartext HTTP/2.
type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	config     config.GatewayConfig
	log        *logger.Logger
	listenAddr string
}

// New builds a Server. defaults fill the vendor settings a request leaves
// empty, so the vendor key can stay server-side.
func New(cfg config.GatewayConfig, svc Service, defaults config.LLMConfig, log *logger.Logger) *Server {
	if zerolog.GlobalLevel() <= zerolog.DebugLevel {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.Addr == "" {
		cfg.Addr = config.DefaultGatewayAddr
	}
	log = logger.OrNop(log).WithComponent("gateway")

	engine := gin.New()
	engine.Use(recovery(log), requestID(), requestLogger(log))

	h := &handlers{svc: svc, defaults: defaults, log: log}
	engine.GET("/healthz", h.health)
	engine.GET("/version", h.version)
	v1 := engine.Group("/v1")
	v1.POST("/compress", h.compress)
	v1.POST("/chat", h.chat)
	v1.POST("/chat/stream", h.chatStream)

	h2s := &http2.Server{
		MaxConcurrentStreams: 250,
		IdleTimeout:          120 * time.Second,
	}

	return &Server{
		httpServer: &http.Server{
			Addr:              cfg.Addr,
			Handler:           h2c.NewHandler(engine, h2s),
			ReadTimeout:       cfg.ReadTimeout,
			ReadHeaderTimeout: 10 * time.Second,
			WriteTimeout:      cfg.WriteTimeout,
		},
		engine: engine,
		config: cfg,
		log:    log,
	}
}

// Handler returns the root handler, for tests and custom listeners.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Start binds the listener and serves in a goroutine. It returns once the
// port is bound. With TLS configured the gateway speaks HTTPS (HTTP/2 via
// ALPN); otherwise HTTP/1.1 and h2c.
func (s *Server) Start(ctx context.Context) error {
	tlsCfg, err := s.config.TLS.Build()
	if err != nil {
		return fmt.Errorf("gateway TLS: %w", err)
	}

	listener, err := (&net.ListenConfig{}).Listen(ctx, "tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("gateway failed to bind %s: %w", s.httpServer.Addr, err)
	}
	s.listenAddr = listener.Addr().String()

	serve := func() error { return s.httpServer.Serve(listener) }
	if tlsCfg != nil {
		s.httpServer.TLSConfig = tlsCfg
		serve = func() error { return s.httpServer.ServeTLS(listener, "", "") }
	}

	go func() {
		if err := serve(); err != nil && err != http.ErrServerClosed {
			s.log.Error("Server error", logger.Fields(logger.FieldError, err.Error()))
		}
	}()

	s.log.Info("Gateway started", logger.Fields("addr", s.listenAddr, "tls", tlsCfg != nil))
	return nil
}

// ListenAddr returns the bound address once Start has succeeded.
func (s *Server) ListenAddr() string {
	return s.listenAddr
}

// Stop drains in-flight requests within the configured shutdown timeout.
func (s *Server) Stop(ctx context.Context) error {
	s.log.Info("Shutting down gateway")

	timeout := s.config.ShutdownTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.log.Error("Gateway shutdown error", logger.Fields(logger.FieldError, err.Error()))
		return fmt.Errorf("gateway shutdown error: %w", err)
	}
	s.log.Info("Gateway shut down")
	return nil
}
