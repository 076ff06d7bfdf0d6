package proxy

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/dmitrijs2005/bonuskeeper/internal/logging"
	"github.com/dmitrijs2005/bonuskeeper/internal/proxy/config"
	"github.com/dmitrijs2005/bonuskeeper/internal/transport"
)

const shutdownTimeout = 10 * time.Second

// Server runs the forwarding listener and, if configured, the admin
// listener.
type Server struct {
	cfg    *config.Config
	logger logging.Logger
	public *http.Server
	admin  *http.Server
}

// NewServer wires a Direct forwarder holding the configured token behind
// the forwarding router.
func NewServer(cfg *config.Config, l logging.Logger) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	fwd, err := transport.NewDirect(transport.DirectConfig{
		BaseURL:   cfg.GitHubBaseURL,
		Token:     cfg.GitHubToken,
		UserAgent: cfg.UserAgent,
		Timeout:   cfg.RequestTimeout,
	})
	if err != nil {
		return nil, err
	}
	return newServer(cfg, fwd, l), nil
}

func newServer(cfg *config.Config, fwd transport.Forwarder, l logging.Logger) *Server {
	if l == nil {
		l = logging.Nop{}
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	h := NewHandler(fwd, cfg.AllowedPrefixes, NewMetrics(reg), l)
	s := &Server{
		cfg:    cfg,
		logger: l.With("module", "proxy_server"),
		public: newHTTPServer(cfg.Addr, h.Router()),
	}
	if cfg.AdminAddr != "" {
		s.admin = newHTTPServer(cfg.AdminAddr, AdminRouter(reg))
	}
	return s
}

func newHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// Run serves until ctx is done or a listener fails, then shuts both
// listeners down gracefully.
func (s *Server) Run(ctx context.Context) error {
	servers := []*http.Server{s.public}
	if s.admin != nil {
		servers = append(servers, s.admin)
	}

	listeners := make([]net.Listener, 0, len(servers))
	for _, srv := range servers {
		ln, err := net.Listen("tcp", srv.Addr)
		if err != nil {
			for _, l := range listeners {
				_ = l.Close()
			}
			return err
		}
		listeners = append(listeners, ln)
	}
	return s.serve(ctx, servers, listeners)
}

func (s *Server) serve(ctx context.Context, servers []*http.Server, listeners []net.Listener) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, len(servers))
	var wg sync.WaitGroup
	for i, srv := range servers {
		wg.Add(1)
		go func(srv *http.Server, ln net.Listener) {
			defer wg.Done()
			s.logger.Info(ctx, "Starting HTTP server", "address", ln.Addr().String())
			if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
				cancel()
			}
		}(srv, listeners[i])
	}

	<-ctx.Done()
	s.logger.Info(ctx, "Stopping HTTP servers...")

	shutdownCtx, done := context.WithTimeout(context.Background(), shutdownTimeout)
	defer done()
	for _, srv := range servers {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(shutdownCtx, "shutdown failed", "address", srv.Addr, "error", err)
		}
	}
	wg.Wait()

	select {
	case err := <-errCh:
		return err
	default:
		return nil
	}
}
