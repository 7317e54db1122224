package jsonrpcinterface

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/walletd/internal/core/application"
	"github.com/tdex-network/walletd/internal/interfaces"
	"github.com/tdex-network/walletd/pkg/rpcmodel"
	"golang.org/x/net/netutil"
	"golang.org/x/sync/semaphore"
)

const (
	// maxBodySize is the maximum allowed request body size (10 MB).
	maxBodySize = 10 << 20

	readHeaderTimeout = 30 * time.Second
	shutdownTimeout   = 10 * time.Second

	metricsPath   = "/metrics"
	websocketPath = "/ws"

	defaultMaxConnections = 256
)

type ServerOpts struct {
	Addr    string
	Workers int
	// MaxConnections bounds the open connections, websockets included.
	MaxConnections int
	EnableMetrics  bool

	AppConfig application.Config
}

func (o ServerOpts) validate() error {
	if len(o.Addr) <= 0 {
		return fmt.Errorf("missing listening address")
	}
	if o.Workers <= 0 {
		return fmt.Errorf("number of workers must be greater than zero")
	}
	if o.MaxConnections < 0 {
		return fmt.Errorf("max connections must not be negative")
	}
	if err := o.AppConfig.Validate(); err != nil {
		return err
	}
	return nil
}

func (o ServerOpts) maxConnections() int {
	if o.MaxConnections == 0 {
		return defaultMaxConnections
	}
	return o.MaxConnections
}

// Server serves the JSON-RPC interface over HTTP POST requests and over
// websocket connections at /ws. The session state is
// created when the server starts and released when it stops. A server can
// be started only once.
type Server struct {
	opts    ServerOpts
	metrics *metrics
	workers *semaphore.Weighted
	done    chan struct{}

	lock       sync.Mutex
	started    bool
	running    bool
	listener   net.Listener
	httpServer *http.Server
	appSvc     *application.Service
	dispatcher *Dispatcher
	wsConns    wsConns
}

var _ interfaces.Service = (*Server)(nil)

func NewServer(opts ServerOpts) (*Server, error) {
	if err := opts.validate(); err != nil {
		return nil, fmt.Errorf("invalid server opts: %w", err)
	}
	return &Server{
		opts:    opts,
		metrics: newMetrics(),
		workers: semaphore.NewWeighted(int64(opts.Workers)),
		done:    make(chan struct{}),
	}, nil
}

func (s *Server) Start() error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.started {
		return application.ErrAlreadyStarted
	}

	appSvc, err := application.NewService(s.opts.AppConfig)
	if err != nil {
		return err
	}
	listener, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.opts.Addr, err)
	}
	listener = netutil.LimitListener(listener, s.opts.maxConnections())

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleRequest)
	mux.HandleFunc(websocketPath, s.handleWebsocket)
	if s.opts.EnableMetrics {
		mux.Handle(metricsPath, s.metrics.handler())
	}

	s.appSvc = appSvc
	s.dispatcher = NewDispatcher(appSvc)
	s.listener = listener
	s.httpServer = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: readHeaderTimeout,
	}
	s.started, s.running = true, true

	go func(srv *http.Server) {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("jsonrpc server stopped unexpectedly")
		}
	}(s.httpServer)

	log.Infof("jsonrpc server listening on %s", listener.Addr())
	return nil
}

// Stop shuts down the server waiting for the in-flight requests to complete
// and releases all loaded wallets and signers.
func (s *Server) Stop() error {
	s.lock.Lock()
	if !s.started {
		s.lock.Unlock()
		return application.ErrNotStarted
	}
	if !s.running {
		s.lock.Unlock()
		return nil
	}
	s.running = false
	httpServer, appSvc := s.httpServer, s.appSvc
	s.lock.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := httpServer.Shutdown(ctx)
	s.wsConns.closeAll()

	appSvc.Close()
	close(s.done)

	log.Info("jsonrpc server stopped")
	return err
}

func (s *Server) IsRunning() (bool, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if !s.started {
		return false, application.ErrNotStarted
	}
	return s.running, nil
}

// Wait blocks until the server is stopped, either by Stop or by the stop
// method.
func (s *Server) Wait() error {
	s.lock.Lock()
	started := s.started
	s.lock.Unlock()

	if !started {
		return application.ErrNotStarted
	}
	<-s.done
	return nil
}

// Done returns a channel closed once the server has stopped.
func (s *Server) Done() <-chan struct{} {
	return s.done
}

// Addr returns the listener address, useful when listening on port 0.
func (s *Server) Addr() string {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.opts.Addr
}

func (s *Server) handleRequest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, errorResponse(nil, &Error{
			Code: CodeInvalidRequest, Message: "only POST method is allowed",
		}))
		return
	}

	if err := s.workers.Acquire(r.Context(), 1); err != nil {
		return
	}
	defer s.workers.Release(1)

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize+1))
	if err != nil {
		writeJSON(w, errorResponse(nil, &Error{
			Code: CodeParseError, Message: "failed to read request body",
		}))
		return
	}

	resp, stop := s.process(r.Context(), body)
	writeJSON(w, resp)
	if stop {
		s.stopAsync()
	}
}

// process decodes and dispatches a single request body.
func (s *Server) process(ctx context.Context, body []byte) (Response, bool) {
	if len(body) > maxBodySize {
		return errorResponse(nil, &Error{
			Code: CodeInvalidRequest, Message: "request body too large",
		}), false
	}

	var req Request
	if err := json.Unmarshal(body, &req); err != nil {
		return errorResponse(nil, &Error{
			Code: CodeParseError, Message: "invalid JSON",
		}), false
	}
	if req.JSONRPC != version {
		return errorResponse(req.ID, &Error{
			Code: CodeInvalidRequest, Message: `jsonrpc must be "2.0"`,
		}), false
	}

	log.Debugf("method: %s id: %s", req.Method, req.ID)

	s.metrics.inflight.Inc()
	start := time.Now()
	resp, stop := s.dispatcher.Dispatch(ctx, req)
	s.metrics.inflight.Dec()
	s.metrics.observe(metricLabel(req.Method), resp, time.Since(start))
	return resp, stop
}

func (s *Server) stopAsync() {
	go func() {
		if err := s.Stop(); err != nil {
			log.WithError(err).Warn("error while stopping jsonrpc server")
		}
	}()
}

func metricLabel(method string) string {
	if _, err := rpcmodel.ParseMethod(method); err != nil {
		return "unknown"
	}
	return method
}

func writeJSON(w http.ResponseWriter, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.WithError(err).Warn("failed to write jsonrpc response")
	}
}
