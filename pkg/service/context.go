package service

import (
	"context"
	"database/sql"

	"gopkg.in/inconshreveable/log15.v2"

	"github.com/sahelpay/payd/pkg/config"
)

// Context is a custom context which is used by the service pkg
type Context struct {
	context.Context

	cfg config.Config
	log log15.Logger

	paymentDBWrite    *sql.DB
	paymentDBReadOnly *sql.DB
}

// NewContext creates a new service context based on the given context
func NewContext(ctx context.Context, cfg config.Config, log log15.Logger) *Context {
	return &Context{
		Context: ctx,
		cfg:     cfg,
		log:     log,
	}
}

// Value wraps the Context.Value
func (ctx *Context) Value(key interface{}) interface{} {
	switch key {
	case "cfg":
		return ctx.cfg
	case "log":
		return ctx.log
	default:
		return ctx.Context.Value(key)
	}
}

// WithValue creates a new service context with the given value
func (ctx *Context) WithValue(key, value interface{}) *Context {
	return &Context{
		Context:           context.WithValue(ctx.Context, key, value),
		cfg:               ctx.cfg,
		log:               ctx.log,
		paymentDBWrite:    ctx.paymentDBWrite,
		paymentDBReadOnly: ctx.paymentDBReadOnly,
	}
}

// Config returns the config.Config associated with the context
func (ctx *Context) Config() *config.Config {
	return &ctx.cfg
}

// Log returns the log15.Logger associated with the context
func (ctx *Context) Log() log15.Logger {
	return ctx.log
}

type dbRequestReadOnly bool

// ReadOnly is a possible parameter for the ctx.PaymentDB() method. If this parameter
// is passed to the method, it will attempt to return the read-only database connection
var ReadOnly = dbRequestReadOnly(true)

// PaymentDB returns the *sql.DB for the payment DB
// If the parameter(s) contain a service.ReadOnly, the read-only connection will be returned if present
func (ctx *Context) PaymentDB(ros ...dbRequestReadOnly) *sql.DB {
	var ro bool
	for _, r := range ros {
		if r {
			ro = true
		}
	}
	if !ro {
		return ctx.paymentDBWrite
	}
	if ctx.paymentDBReadOnly == nil {
		return ctx.paymentDBWrite
	}
	return ctx.paymentDBReadOnly
}

// SetPaymentDB sets the payment DB connection(s)
// It will panic if the write connection is nil
func (ctx *Context) SetPaymentDB(w, ro *sql.DB) {
	if w == nil {
		panic("write DB connection cannot be nil")
	}
	ctx.paymentDBWrite, ctx.paymentDBReadOnly = w, ro
}
