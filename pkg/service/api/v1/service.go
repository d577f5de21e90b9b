package v1

import (
	"github.com/gorilla/mux"
	"gopkg.in/inconshreveable/log15.v2"

	"github.com/sahelpay/payd/pkg/service"
	"github.com/sahelpay/payd/pkg/service/lifecycle"
)

const (
	serviceVersion = "v1"
	// ServicePath is the (sub-)path under which the API service v1.x resides in
	ServicePath = "/" + serviceVersion
)

// Service represents the API service version 1.x
type Service struct {
	log log15.Logger
}

// NewService creates a new API service
// It requires a valid service context and takes a router to which
// the service routes will be attached
func NewService(ctx *service.Context, lc *lifecycle.Service, router *mux.Router) *Service {
	s := &Service{
		log: ctx.Log().New(log15.Ctx{"pkg": "github.com/sahelpay/payd/pkg/service/api/v1"}),
	}

	s.log.Info("registering payment API...")
	payment := NewPaymentAPI(ctx, lc)
	router.Handle(ServicePath+"/payment", RequestID(payment.InitPayment())).Methods("POST")
	router.Handle(ServicePath+"/payment/{invoiceid}", RequestID(payment.GetPayment())).Methods("GET")
	router.Handle(ServicePath+"/payment/{invoiceid}", RequestID(payment.CancelPayment())).Methods("DELETE")
	router.Handle(ServicePath+"/payment/{invoiceid}/retry", RequestID(payment.RetryPayment())).Methods("POST")

	return s
}
