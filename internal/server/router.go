package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/celerix-dev/wizards-profile/internal/api"
	"github.com/celerix-dev/wizards-profile/internal/logger"
	"github.com/celerix-dev/wizards-profile/pkg/schema"
	"github.com/gin-gonic/gin"
)

// ErrAlreadyListening is returned by a second call to Listen.
var ErrAlreadyListening = errors.New("router is already listening")

type Router struct {
	engine          *gin.Engine
	log             *logger.Logger
	shutdownTimeout time.Duration

	mu       sync.Mutex
	listener net.Listener
	srv      *http.Server
}

// NewRouter installs the interceptor pipeline and the routes on a fresh gin
// engine. HEAD mirrors GET for / and /me.
func NewRouter(h *api.Handler, log *logger.Logger, shutdownTimeout time.Duration) *Router {
	r := gin.New()

	// Order matters: the request id must exist before the logger reads it.
	r.Use(api.RequestID(), api.RequestLogger(log), api.CORS(), gin.Recovery())

	r.GET("/", h.Root)
	r.GET(schema.ProfilePath, h.Me)
	r.HEAD("/", h.Root)
	r.HEAD(schema.ProfilePath, h.Me)

	r.HandleMethodNotAllowed = false
	r.NoRoute(h.NotFound)
	r.NoMethod(h.NotFound)

	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}

	return &Router{
		engine:          r,
		log:             log,
		shutdownTimeout: shutdownTimeout,
	}
}

// Handler exposes the engine, mainly for httptest.
func (r *Router) Handler() http.Handler {
	return r.engine
}

// Addr is the bound address, or nil before Listen has bound.
func (r *Router) Addr() net.Addr {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listener == nil {
		return nil
	}
	return r.listener.Addr()
}

// Listen binds addr (for example ":3000"), logs readiness and serves until ctx
// is cancelled or Stop is called. Port 0 picks a free port. A clean shutdown
// returns nil.
func (r *Router) Listen(ctx context.Context, addr string) error {
	r.mu.Lock()
	if r.listener != nil {
		r.mu.Unlock()
		return ErrAlreadyListening
	}
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		r.mu.Unlock()
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	srv := &http.Server{
		Handler:           r.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	r.listener = listener
	r.srv = srv
	r.mu.Unlock()

	_, bound, _ := net.SplitHostPort(addr)
	if tcp, ok := listener.Addr().(*net.TCPAddr); ok {
		bound = strconv.Itoa(tcp.Port)
	}
	r.log.WithField("port", bound).Info("Server is running on port " + bound)
	r.log.Info(fmt.Sprintf("Access the profile endpoint at: http://localhost:%s%s", bound, schema.ProfilePath))

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(listener)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), r.shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}

// Stop closes the listener and all connections immediately.
func (r *Router) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.srv == nil {
		return nil
	}
	return r.srv.Close()
}
