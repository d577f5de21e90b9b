package lifecycle

import (
	"sync"

	"gopkg.in/inconshreveable/log15.v2"

	"github.com/sahelpay/payd/pkg/service"
)

// Service owns the lifecycle controllers
//
// It guarantees the single-owner policy: at most one live controller per
// invoice, so the persisted record for an invoice has exactly one
// concurrent writer.
type Service struct {
	cfg  Config
	deps Deps
	log  log15.Logger

	mu          sync.Mutex
	controllers map[string]*Controller
}

// NewService creates the lifecycle service from the service context
func NewService(ctx *service.Context, deps Deps) (*Service, error) {
	cfg, err := ConfigFromPayment(ctx.Config())
	if err != nil {
		return nil, err
	}
	if deps.Log == nil {
		deps.Log = ctx.Log()
	}
	if deps.Notify == nil {
		deps.Notify = NewLogNotifier(deps.Log)
	}
	s := &Service{
		cfg:  cfg,
		deps: deps,
		log: deps.Log.New(log15.Ctx{
			"pkg": "github.com/sahelpay/payd/pkg/service/lifecycle",
		}),
		controllers: make(map[string]*Controller),
	}
	return s, nil
}

// Controller returns the controller owning the invoice, creating it if
// none is live
func (s *Service) Controller(invoiceID string) *Controller {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.controllers[invoiceID]; ok {
		return c
	}
	c := NewController(invoiceID, s.cfg, s.deps)
	s.controllers[invoiceID] = c
	metricActiveControllers.Inc()
	return c
}

// Active returns the number of live controllers. The payd_active_controllers
// gauge tracks the same count.
func (s *Service) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.controllers)
}

// Release disposes the controller for the invoice, keeping any persisted
// record for later recovery
func (s *Service) Release(invoiceID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.controllers[invoiceID]; ok {
		c.Close()
		delete(s.controllers, invoiceID)
		metricActiveControllers.Dec()
	}
}

// Shutdown disposes all controllers
func (s *Service) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, c := range s.controllers {
		c.Close()
		delete(s.controllers, id)
		metricActiveControllers.Dec()
	}
	s.log.Info("lifecycle service shut down")
}
