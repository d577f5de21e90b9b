package v1

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"gopkg.in/inconshreveable/log15.v2"

	jsonutil "github.com/sahelpay/payd/pkg/json"
	"github.com/sahelpay/payd/pkg/payd/txn"
	"github.com/sahelpay/payd/pkg/service"
	"github.com/sahelpay/payd/pkg/service/lifecycle"
)

// PaymentAPI exposes the payment lifecycle to the back-office UI forms
type PaymentAPI struct {
	log log15.Logger
	lc  *lifecycle.Service
}

func NewPaymentAPI(ctx *service.Context, lc *lifecycle.Service) *PaymentAPI {
	return &PaymentAPI{
		log: ctx.Log().New(log15.Ctx{
			"pkg": "github.com/sahelpay/payd/pkg/service/api/v1",
		}),
		lc: lc,
	}
}

// InitPaymentRequest is the request JSON struct for POST /payment
type InitPaymentRequest struct {
	InvoiceID   jsonutil.RequiredString
	Method      jsonutil.RequiredString
	PhoneNumber jsonutil.RequiredString
}

// Validate input
func (r *InitPaymentRequest) Validate() error {
	if !r.InvoiceID.Set || r.InvoiceID.String == "" {
		return errors.New("missing InvoiceID")
	}
	if !r.Method.Set || r.Method.String == "" {
		return errors.New("missing Method")
	}
	if !r.PhoneNumber.Set || r.PhoneNumber.String == "" {
		return errors.New("missing PhoneNumber")
	}
	return nil
}

// InitPayment starts a payment attempt for an invoice
func (a *PaymentAPI) InitPayment() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log := a.log.New(log15.Ctx{
			"method":    "InitPayment",
			"requestID": GetRequestID(r.Context()),
		})

		req := InitPaymentRequest{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			resp := ErrReadJson
			resp.Error = err.Error()
			a.write(log, w, &resp)
			return
		}
		if err := req.Validate(); err != nil {
			resp := ErrInval
			resp.Info = err.Error()
			resp.Error = err.Error()
			a.write(log, w, &resp)
			return
		}

		c := a.lc.Controller(req.InvoiceID.String)
		err := c.Submit(r.Context(), txn.Method(req.Method.String), req.PhoneNumber.String)
		if err != nil {
			valErr := &lifecycle.ValidationError{}
			switch {
			case errors.As(err, &valErr):
				resp := ErrInval
				resp.Info = valErr.Error()
				resp.Error = valErr.Error()
				a.write(log, w, &resp)
			case errors.Is(err, lifecycle.ErrBusy):
				resp := ErrConflict
				resp.Info = "a payment attempt for this invoice is already in progress"
				a.write(log, w, &resp)
			default:
				log.Error("error submitting payment", log15.Ctx{"err": err})
				resp := ErrSystem
				a.write(log, w, &resp)
			}
			return
		}

		log.Info("payment submitted", log15.Ctx{"invoiceID": req.InvoiceID.String})
		a.writeSnapshot(log, w, http.StatusAccepted, c.Snapshot())
	})
}

// GetPayment returns the observable lifecycle state for an invoice
//
// On a fresh controller it attempts recovery from the persistence port
// first, so a reloaded UI lands straight back in waiting.
func (a *PaymentAPI) GetPayment() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log := a.log.New(log15.Ctx{
			"method":    "GetPayment",
			"requestID": GetRequestID(r.Context()),
		})
		invoiceID := mux.Vars(r)["invoiceid"]
		if invoiceID == "" {
			resp := ErrInval
			resp.Info = "missing invoice id"
			a.write(log, w, &resp)
			return
		}

		c := a.lc.Controller(invoiceID)
		if _, err := c.Resume(r.Context()); err != nil {
			log.Error("error resuming payment", log15.Ctx{"err": err})
			resp := ErrDatabase
			a.write(log, w, &resp)
			return
		}

		a.writeSnapshot(log, w, http.StatusOK, c.Snapshot())
	})
}

// RetryPayment acknowledges a failed attempt, returning the invoice to input
func (a *PaymentAPI) RetryPayment() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log := a.log.New(log15.Ctx{
			"method":    "RetryPayment",
			"requestID": GetRequestID(r.Context()),
		})
		invoiceID := mux.Vars(r)["invoiceid"]

		c := a.lc.Controller(invoiceID)
		if err := c.Retry(); err != nil {
			resp := ErrConflict
			resp.Info = err.Error()
			resp.Error = err.Error()
			a.write(log, w, &resp)
			return
		}

		a.writeSnapshot(log, w, http.StatusOK, c.Snapshot())
		// back at input the controller holds no state, drop it
		a.lc.Release(invoiceID)
	})
}

// CancelPayment aborts a waiting attempt and resets the lifecycle
func (a *PaymentAPI) CancelPayment() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log := a.log.New(log15.Ctx{
			"method":    "CancelPayment",
			"requestID": GetRequestID(r.Context()),
		})
		invoiceID := mux.Vars(r)["invoiceid"]

		c := a.lc.Controller(invoiceID)
		if err := c.Cancel(r.Context()); err != nil {
			resp := ErrConflict
			resp.Info = err.Error()
			resp.Error = err.Error()
			a.write(log, w, &resp)
			return
		}

		log.Info("payment cancelled", log15.Ctx{"invoiceID": invoiceID})
		a.writeSnapshot(log, w, http.StatusOK, c.Snapshot())
		a.lc.Release(invoiceID)
	})
}

func (a *PaymentAPI) writeSnapshot(log log15.Logger, w http.ResponseWriter, httpStatus int, snap lifecycle.Snapshot) {
	resp := ServiceResponse{
		HttpStatus: httpStatus,
		Version:    ServiceVersion,
		Status:     StatusSuccess,
		Info:       "payment " + string(snap.State),
		Response:   snap,
	}
	a.write(log, w, &resp)

	// a confirmed payment needs no further interaction, failed attempts
	// stay live until the UI retries or cancels
	if snap.State == lifecycle.StateSuccess {
		a.lc.Release(snap.InvoiceID)
	}
}

func (a *PaymentAPI) write(log log15.Logger, w http.ResponseWriter, resp *ServiceResponse) {
	if err := resp.Write(w); err != nil {
		log.Error("error writing response", log15.Ctx{"err": err})
	}
}
