package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"gopkg.in/inconshreveable/log15.v2"

	"github.com/sahelpay/payd/pkg/gateway"
	"github.com/sahelpay/payd/pkg/payd/status"
	"github.com/sahelpay/payd/pkg/payd/txn"
)

// State is a lifecycle controller state
type State string

const (
	// StateInput awaits a payment method and phone number
	StateInput State = "input"
	// StateProcessing has an initiate call in flight
	StateProcessing State = "processing"
	// StateWaiting owns one active poll run and one active countdown
	StateWaiting State = "waiting"
	StateSuccess State = "success"
	StateError   State = "error"
)

var (
	// ErrBusy is returned when a submit races an active payment attempt
	ErrBusy = errors.New("payment attempt already in progress")
	// ErrClosed is returned after the controller was disposed
	ErrClosed = errors.New("controller closed")
	// ErrNotRetryable is returned when retry is requested outside the error state
	ErrNotRetryable = errors.New("no failed payment attempt to retry")
)

// ValidationError is a local, pre-network input failure. The controller
// stays in the input state.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Deps are the collaborators of a controller
type Deps struct {
	Gateway gateway.Client
	Store   txn.PendingStore
	Notify  Notifier
	// optional realtime push channel
	Source StatusSource
	// optional hook fired once after a confirmed payment
	OnSuccess func(invoiceID string)
	Log       log15.Logger
}

// Controller drives the payment lifecycle of a single invoice
//
// input -> processing -> waiting -> {success | error}; error returns to
// input through an explicit retry. While waiting, exactly one poll run
// and one countdown are live; the first terminal signal wins and the
// loser is cancelled through the generation token.
type Controller struct {
	invoiceID string
	cfg       Config
	deps      Deps
	log       log15.Logger

	mu      sync.Mutex
	state   State
	gen     uint64
	pending *txn.PendingTransaction
	outcome status.Outcome
	message string
	// one terminal notification per attempt
	notified bool
	closed   bool

	poller      *pollRun
	timer       *countdown
	unsubscribe func()
}

// NewController creates a controller in the input state
func NewController(invoiceID string, cfg Config, deps Deps) *Controller {
	return &Controller{
		invoiceID: invoiceID,
		cfg:       cfg,
		deps:      deps,
		log: deps.Log.New(log15.Ctx{
			"pkg":       "github.com/sahelpay/payd/pkg/service/lifecycle",
			"invoiceID": invoiceID,
		}),
		state: StateInput,
	}
}

// Submit starts a payment attempt
//
// The phone number is normalized and validated locally first; a
// *ValidationError leaves the controller in the input state without any
// network traffic. While an attempt is processing or waiting, Submit
// returns ErrBusy: initiate is not idempotent on the gateway side, so
// resubmission must be impossible.
func (c *Controller) Submit(ctx context.Context, method txn.Method, phoneNumber string) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	switch c.state {
	case StateProcessing, StateWaiting:
		c.mu.Unlock()
		return ErrBusy
	}

	if !method.Valid() {
		c.mu.Unlock()
		return &ValidationError{Field: "method", Reason: "unknown payment method"}
	}
	phone := txn.NormalizePhone(phoneNumber)
	if err := txn.ValidatePhone(method, phone); err != nil {
		c.mu.Unlock()
		return &ValidationError{Field: "phoneNumber", Reason: "not a valid subscriber number for " + method.String()}
	}

	c.state = StateProcessing
	c.notified = false
	c.message = ""
	c.mu.Unlock()

	res, err := c.deps.Gateway.Initiate(ctx, gateway.InitiateRequest{
		InvoiceID:   c.invoiceID,
		Method:      method,
		PhoneNumber: phone,
	})
	if err != nil {
		c.mu.Lock()
		defer c.mu.Unlock()
		// nothing was persisted; the attempt ends here
		out := status.ClassifyError(err)
		c.log.Warn("payment initiation failed", log15.Ctx{
			"method":  method,
			"outcome": out,
			"err":     err,
		})
		c.finalizeLocked(out, out.Message())
		return nil
	}

	pending := c.newPending(res, method, phone)
	if err := c.deps.Store.Save(ctx, pending); err != nil {
		// the payment proceeds, only crash recovery is degraded
		c.log.Error("error persisting pending transaction", log15.Ctx{"err": err})
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	c.log.Info("payment initiated", log15.Ctx{
		"transactionID": pending.TransactionID,
		"method":        method,
		"expiresAt":     pending.ExpiresAt,
	})
	c.pending = pending
	c.enterWaitingLocked()
	return nil
}

// newPending builds the durable record for a fresh initiate result
func (c *Controller) newPending(res *gateway.InitiateResult, method txn.Method, phone string) *txn.PendingTransaction {
	now := time.Now()
	expires := res.ExpiresAt
	if expires.IsZero() {
		expires = now.Add(c.cfg.DefaultTTL)
	}
	return &txn.PendingTransaction{
		TransactionID: res.TransactionID,
		InvoiceID:     c.invoiceID,
		Method:        method,
		PhoneNumber:   phone,
		CreatedAt:     now,
		ExpiresAt:     expires,
		PaymentURL:    res.PaymentURL,
		PaymentCode:   res.PaymentCode,
		Instructions:  res.Instructions,
	}
}

// Resume recovers a waiting state from the persistence port
//
// It reports whether a resume happened. A record already past its expiry
// is cleared without any gateway call; the controller stays in input.
// A resumed wait keeps the persisted ExpiresAt and check count.
func (c *Controller) Resume(ctx context.Context) (bool, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false, ErrClosed
	}
	if c.state != StateInput {
		c.mu.Unlock()
		return false, nil
	}
	c.mu.Unlock()

	rec, err := c.deps.Store.Load(ctx, c.invoiceID)
	if err != nil {
		if err == txn.ErrNoPending {
			return false, nil
		}
		return false, err
	}
	if rec.Expired(time.Now()) {
		c.log.Info("clearing expired pending transaction", log15.Ctx{
			"transactionID": rec.TransactionID,
			"expiresAt":     rec.ExpiresAt,
		})
		if err := c.deps.Store.Clear(ctx, c.invoiceID); err != nil {
			return false, err
		}
		return false, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.state != StateInput {
		return false, nil
	}
	c.log.Info("resuming pending transaction", log15.Ctx{
		"transactionID": rec.TransactionID,
		"checkCount":    rec.CheckCount,
		"expiresAt":     rec.ExpiresAt,
	})
	c.pending = rec
	c.notified = false
	c.enterWaitingLocked()
	return true, nil
}

// enterWaitingLocked starts the poll run, the countdown and the optional
// realtime subscription under the current generation
func (c *Controller) enterWaitingLocked() {
	c.state = StateWaiting
	gen := c.gen

	c.poller = &pollRun{
		cfg:        c.cfg,
		gw:         c.deps.Gateway,
		invoiceID:  c.invoiceID,
		txID:       c.pending.TransactionID,
		log:        c.log,
		startCount: c.pending.CheckCount,
		onAttempt: func(at time.Time) {
			c.registerCheck(gen, at)
		},
		onResult: func(out status.Outcome) bool {
			return c.applyOutcome(gen, out)
		},
		onAbort: func(reason AbortReason) {
			c.applyAbort(gen, reason)
		},
	}
	c.poller.start()

	c.timer = newCountdown(c.pending.ExpiresAt, func() {
		c.applyExpiry(gen)
	})
	c.timer.start()

	if c.deps.Source != nil {
		ch, cancel := c.deps.Source.Subscribe(c.invoiceID)
		c.unsubscribe = cancel
		go func() {
			for st := range ch {
				if !c.applyOutcome(gen, status.ClassifyStatus(st)) {
					return
				}
			}
		}()
	}
}

// registerCheck records poll telemetry on the persisted record
func (c *Controller) registerCheck(gen uint64, at time.Time) {
	c.mu.Lock()
	if gen != c.gen || c.state != StateWaiting {
		c.mu.Unlock()
		return
	}
	c.pending.RegisterCheck(at)
	rec := *c.pending
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.CheckTimeout)
	defer cancel()
	if err := c.deps.Store.Save(ctx, &rec); err != nil {
		c.log.Warn("error updating pending transaction", log15.Ctx{"err": err})
	}
}

// applyOutcome feeds a classified gateway response into the state machine
//
// It reports whether the waiting phase is still live. A stale generation
// token means the state machine has already left waiting; the result is
// discarded so it cannot resurrect a finalized transaction.
func (c *Controller) applyOutcome(gen uint64, out status.Outcome) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen || c.state != StateWaiting {
		return false
	}
	if !out.Terminal() {
		return true
	}
	c.finalizeLocked(out, out.Message())
	return false
}

func (c *Controller) applyExpiry(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen || c.state != StateWaiting {
		return
	}
	c.finalizeLocked(status.OutcomeExpired, status.OutcomeExpired.Message())
}

func (c *Controller) applyAbort(gen uint64, reason AbortReason) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen || c.state != StateWaiting {
		return
	}
	var msg string
	switch reason {
	case AbortConnectivity:
		msg = "payment status could not be checked, please verify your connection and retry"
	default:
		msg = "payment confirmation took too long, please retry"
		c.log.Error("poll run hit the attempt cap", log15.Ctx{
			"transactionID": c.pending.TransactionID,
			"checkCount":    c.pending.CheckCount,
		})
	}
	c.finalizeLocked(status.OutcomeFailedTransient, msg)
}

// finalizeLocked moves the controller into a terminal state
//
// It bumps the generation so every outstanding poll, countdown or push
// callback becomes stale, cancels them, clears persistence and notifies
// exactly once.
func (c *Controller) finalizeLocked(out status.Outcome, message string) {
	c.gen++
	c.stopWaitersLocked()

	c.outcome = out
	c.message = message
	if out == status.OutcomeSucceeded {
		c.state = StateSuccess
	} else {
		c.state = StateError
	}
	metricOutcomes.WithLabelValues(out.String()).Inc()

	if c.pending != nil {
		ctx, cancel := context.WithTimeout(context.Background(), c.cfg.CheckTimeout)
		if err := c.deps.Store.Clear(ctx, c.invoiceID); err != nil {
			c.log.Error("error clearing pending transaction", log15.Ctx{"err": err})
		}
		cancel()
	}

	if !c.notified {
		c.notified = true
		if c.state == StateSuccess {
			c.deps.Notify.Success(c.invoiceID, message)
			if c.deps.OnSuccess != nil {
				// short confirmation delay, purely for UX
				time.AfterFunc(c.cfg.ConfirmDelay, func() {
					c.deps.OnSuccess(c.invoiceID)
				})
			}
		} else {
			c.deps.Notify.Error(c.invoiceID, message)
		}
	}

	c.log.Info("payment attempt finalized", log15.Ctx{
		"state":   c.state,
		"outcome": out,
	})
}

// stopWaitersLocked synchronously cancels the poll run, the countdown and
// the realtime subscription
func (c *Controller) stopWaitersLocked() {
	if c.poller != nil {
		c.poller.Stop()
		c.poller = nil
	}
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	if c.unsubscribe != nil {
		c.unsubscribe()
		c.unsubscribe = nil
	}
}

// Retry acknowledges a failed attempt and returns to the input state
func (c *Controller) Retry() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if c.state != StateError {
		return ErrNotRetryable
	}
	c.state = StateInput
	c.message = ""
	c.pending = nil
	return nil
}

// Cancel aborts a waiting payment attempt or resets a finalized one
//
// Cancelling clears the persisted record; a reload afterwards starts
// from a clean input state.
func (c *Controller) Cancel(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	switch c.state {
	case StateProcessing:
		return ErrBusy
	case StateWaiting:
		c.gen++
		c.stopWaitersLocked()
		if err := c.deps.Store.Clear(ctx, c.invoiceID); err != nil {
			c.log.Error("error clearing pending transaction", log15.Ctx{"err": err})
		}
		c.deps.Notify.Info(c.invoiceID, "payment attempt cancelled")
	}
	c.state = StateInput
	c.message = ""
	c.pending = nil
	return nil
}

// Close disposes the controller without touching persistence, so an
// in-flight payment can be recovered later. Safe to call twice.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.gen++
	c.stopWaitersLocked()
}

// Snapshot is the observable state of a controller
type Snapshot struct {
	InvoiceID     string        `json:"invoiceId"`
	State         State         `json:"state"`
	Message       string        `json:"message,omitempty"`
	TransactionID string        `json:"transactionId,omitempty"`
	Remaining     time.Duration `json:"-"`
	RemainingSec  int           `json:"remainingSeconds"`
	CheckCount    int           `json:"checkCount"`
	PaymentURL    string        `json:"paymentUrl,omitempty"`
	PaymentCode   string        `json:"paymentCode,omitempty"`
	Instructions  string        `json:"instructions,omitempty"`
}

// Snapshot returns the current observable state
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := Snapshot{
		InvoiceID: c.invoiceID,
		State:     c.state,
		Message:   c.message,
	}
	if c.pending != nil {
		s.TransactionID = c.pending.TransactionID
		s.CheckCount = c.pending.CheckCount
		s.PaymentURL = c.pending.PaymentURL
		s.PaymentCode = c.pending.PaymentCode
		s.Instructions = c.pending.Instructions
	}
	if c.state == StateWaiting && c.timer != nil {
		s.Remaining = c.timer.Remaining()
		s.RemainingSec = int(s.Remaining / time.Second)
	}
	return s
}

// State returns the current lifecycle state
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}
