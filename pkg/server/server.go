package server

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/facebookgo/grace/gracehttp"
	"gopkg.in/inconshreveable/log15.v2"

	"github.com/sahelpay/payd/pkg/config"
)

const shutdownWaitTimeout = 10 * time.Second

// Server is a payd server
//
// It serves the registered HTTP services and supports graceful restarts
// through the grace listener handoff.
type Server struct {
	log log15.Logger

	httpServers []*http.Server
	onShutdown  []func()
}

// NewServer creates a new payd server
func NewServer(log log15.Logger) *Server {
	return &Server{
		log: log.New(log15.Ctx{
			"pkg": "github.com/sahelpay/payd/pkg/server",
		}),
		httpServers: make([]*http.Server, 0, 2),
	}
}

// RegisterService adds an HTTP service to the server
func (s *Server) RegisterService(cfg config.ServiceConfig, handler http.Handler) error {
	srv := &http.Server{
		Addr:           cfg.Address,
		Handler:        handler,
		MaxHeaderBytes: cfg.MaxHeaderBytes,
	}
	var err error
	srv.ReadTimeout, err = cfg.ReadTimeout.Duration()
	if err != nil {
		return fmt.Errorf("error parsing read timeout for server %s: %v", cfg.Address, err)
	}
	srv.WriteTimeout, err = cfg.WriteTimeout.Duration()
	if err != nil {
		return fmt.Errorf("error parsing write timeout for server %s: %v", cfg.Address, err)
	}
	s.httpServers = append(s.httpServers, srv)
	return nil
}

// RegisterShutdownHandler adds a func to be called when the server stops
// serving, before the process exits
func (s *Server) RegisterShutdownHandler(f func()) {
	s.onShutdown = append(s.onShutdown, f)
}

// Serve starts serving and blocks until shutdown
func (s *Server) Serve() error {
	if len(s.httpServers) == 0 {
		return errors.New("no services registered")
	}
	pid := os.Getpid()
	for _, srv := range s.httpServers {
		s.log.Info("server listening", log15.Ctx{
			"address": srv.Addr,
			"PID":     pid,
		})
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		sig := <-sigs
		s.log.Warn("server going into shutdown mode", log15.Ctx{"signal": sig.String()})
		for _, srv := range s.httpServers {
			srv.SetKeepAlivesEnabled(false)
		}
	}()

	err := gracehttp.Serve(s.httpServers...)

	done := make(chan struct{})
	go func() {
		for _, f := range s.onShutdown {
			f()
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(shutdownWaitTimeout):
		s.log.Warn("server exiting after wait timeout", log15.Ctx{
			"waitTimeout": shutdownWaitTimeout,
		})
	}

	s.log.Info("server exiting", log15.Ctx{"pid": pid})
	return err
}
