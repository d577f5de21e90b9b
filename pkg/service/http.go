package service

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"gopkg.in/inconshreveable/log15.v2"
)

var (
	ErrTimedOut = errors.New("http Write: already timed out")
)

// TimeoutHandler bounds the handling time of a request
//
// A timed-out request is answered with 503; the late handler's writes
// are swallowed.
func TimeoutHandler(log log15.Logger, d time.Duration, h http.Handler) http.Handler {
	f := func() <-chan time.Time {
		return time.After(d)
	}
	return &timeoutHandler{log: log, handler: h, timeout: f}
}

type timeoutHandler struct {
	log     log15.Logger
	handler http.Handler
	timeout func() <-chan time.Time
}

func (h *timeoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	done := make(chan struct{})
	tw := &timeoutWriter{ResponseWriter: w}
	go func() {
		h.handler.ServeHTTP(tw, r)
		close(done)
	}()
	select {
	case <-done:
		return
	case <-h.timeout():
		tw.mu.Lock()
		if !tw.wroteHeader {
			tw.ResponseWriter.WriteHeader(http.StatusServiceUnavailable)
		}
		tw.timedOut = true
		tw.mu.Unlock()
		h.log.Warn("request timeout", log15.Ctx{
			"requestURL": r.URL.String(),
		})
	}
}

type timeoutWriter struct {
	http.ResponseWriter

	mu          sync.Mutex
	timedOut    bool
	wroteHeader bool
}

func (w *timeoutWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	timedOut := w.timedOut
	w.mu.Unlock()
	if timedOut {
		return 0, ErrTimedOut
	}
	return w.ResponseWriter.Write(p)
}

func (w *timeoutWriter) WriteHeader(status int) {
	w.mu.Lock()
	if w.timedOut || w.wroteHeader {
		w.mu.Unlock()
		return
	}
	w.wroteHeader = true
	w.mu.Unlock()
	w.ResponseWriter.WriteHeader(status)
}
