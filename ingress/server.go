// Package ingress implements the HTTP front end of SPEC_FULL.md §6: a
// net/http listener that translates GET requests into coordinator
// Operations and streams their result back to the caller. Its lifecycle
// (listen, accept, graceful shutdown on a budget) follows the shape of the
// teacher pack's own HTTP front end, sanke08-Distributed-Cache's
// internal/server.Server, adapted onto a single coordinator-backed route
// table instead of a key/value store.
//
// The teacher repo (dwarri-gazette) fronts its broker with gRPC, not HTTP;
// this package's choice of net/http plus a mux.ServeMux-style router comes
// from sanke08-Distributed-Cache, the one pack member that exposes an HTTP
// boundary (no HTTP framework such as gorilla/mux or chi appears anywhere in
// the retrieved corpus, so the stdlib net/http.ServeMux -- itself pattern-
// matching capable since Go 1.22, which this module requires -- is used
// directly rather than adding an unexercised dependency).
package ingress

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"

	"go.ambry.dev/ambry/cluster"
	"go.ambry.dev/ambry/config"
	"go.ambry.dev/ambry/coordinator/client"
	"go.ambry.dev/ambry/internal/task"
	"go.ambry.dev/ambry/protocol"
)

// ErrStartupTimeout indicates the listener failed to bind within the
// server's configured StartupWaitSeconds budget.
var ErrStartupTimeout = errors.New("ingress: startup timed out waiting for listener to bind")

// Server is the coordinator's HTTP ingress. It owns a net/http.Server plus
// the cluster Map, connection Pool, and operation defaults every request
// handler needs.
type Server struct {
	cfg        config.ServerConfig
	opCfg      config.OperationConfig
	clusterMap cluster.Map
	pool       client.ConnectionPool
	localDC    protocol.DatacenterId
	clientId   string

	httpSrv *http.Server
	ln      net.Listener

	// startupErrors and shutdownErrors count failures of the respective
	// lifecycle phase (SPEC_FULL.md §6), for operators to surface alongside
	// logs.
	startupErrors  uint64
	shutdownErrors uint64
}

// StartupErrors reports how many times Serve has failed to bind its
// listener within budget.
func (s *Server) StartupErrors() uint64 { return atomic.LoadUint64(&s.startupErrors) }

// ShutdownErrors reports how many times Shutdown has exceeded its
// termination budget.
func (s *Server) ShutdownErrors() uint64 { return atomic.LoadUint64(&s.shutdownErrors) }

// NewServer constructs a Server for cfg.Port; it does not start listening
// until Serve is called. When opCfg.RequestTimeout is positive, each
// request's context (and so its coordinator Operation) is bounded by it.
func NewServer(
	cfg config.ServerConfig,
	opCfg config.OperationConfig,
	clusterMap cluster.Map,
	pool client.ConnectionPool,
	localDC protocol.DatacenterId,
	clientId string,
) *Server {
	var s = &Server{
		cfg:        cfg,
		opCfg:      opCfg,
		clusterMap: clusterMap,
		pool:       pool,
		localDC:    localDC,
		clientId:   clientId,
	}

	var mux = http.NewServeMux()
	registerRoutes(mux, s)

	s.httpSrv = &http.Server{
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if opCfg.RequestTimeout > 0 {
				var ctx, cancel = context.WithTimeout(r.Context(), opCfg.RequestTimeout)
				defer cancel()
				r = r.WithContext(ctx)
			}
			mux.ServeHTTP(w, r)
		}),
		IdleTimeout: cfg.IdleTimeout(),
	}
	return s
}

// Serve binds the listener in a background goroutine and waits for it to
// signal readiness on a buffered startup channel, failing with
// ErrStartupTimeout (and incrementing startupErrors) if the bind doesn't
// complete within StartupWaitSeconds. Once bound, it queues the accept loop
// and a shutdown watcher onto group, which gives in-flight requests up to
// 30s (SPEC_FULL.md §6) to drain once group's Context is cancelled,
// incrementing shutdownErrors if that budget is exceeded.
func (s *Server) Serve(group *task.Group) error {
	var startupCh = make(chan error, 1)
	var ln net.Listener

	go func() {
		var err error
		ln, err = net.Listen("tcp", s.addr())
		startupCh <- err
	}()

	select {
	case err := <-startupCh:
		if err != nil {
			atomic.AddUint64(&s.startupErrors, 1)
			return err
		}
	case <-time.After(s.cfg.StartupWait()):
		atomic.AddUint64(&s.startupErrors, 1)
		return ErrStartupTimeout
	}
	s.ln = ln

	group.Queue("ingress.Serve", func() error {
		log.WithField("addr", ln.Addr().String()).Info("ingress server listening")
		var err = s.httpSrv.Serve(ln)
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	})

	group.Queue("ingress.shutdown", func() error {
		<-group.Context().Done()

		var shutdownCtx, cancel = context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := s.httpSrv.Shutdown(shutdownCtx); err != nil {
			atomic.AddUint64(&s.shutdownErrors, 1)
			log.WithError(err).Error("ingress shutdown did not complete within budget")
			return err
		}
		return nil
	})

	return nil
}

func (s *Server) addr() string {
	return net.JoinHostPort("", strconv.Itoa(s.cfg.Port))
}

// Addr returns the listener's bound address and true once Serve has
// successfully opened it (useful when Port is 0 and the OS assigns an
// ephemeral port, eg in tests).
func (s *Server) Addr() (string, bool) {
	if s.ln == nil {
		return "", false
	}
	return s.ln.Addr().String(), true
}
