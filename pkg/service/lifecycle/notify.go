package lifecycle

import (
	"gopkg.in/inconshreveable/log15.v2"
)

// Notifier is the notification sink for user-facing lifecycle events
//
// The controller emits at most one terminal notification per payment
// attempt, never one per poll tick.
type Notifier interface {
	Success(invoiceID, message string)
	Error(invoiceID, message string)
	Info(invoiceID, message string)
}

// LogNotifier logs notifications
//
// It is the default sink; deployments embedding payd behind a UI push
// the messages onward from here.
type LogNotifier struct {
	log log15.Logger
}

func NewLogNotifier(log log15.Logger) *LogNotifier {
	return &LogNotifier{
		log: log.New(log15.Ctx{"pkg": "github.com/sahelpay/payd/pkg/service/lifecycle"}),
	}
}

func (n *LogNotifier) Success(invoiceID, message string) {
	n.log.Info("payment notification", log15.Ctx{
		"invoiceID": invoiceID,
		"kind":      "success",
		"message":   message,
	})
}

func (n *LogNotifier) Error(invoiceID, message string) {
	n.log.Warn("payment notification", log15.Ctx{
		"invoiceID": invoiceID,
		"kind":      "error",
		"message":   message,
	})
}

func (n *LogNotifier) Info(invoiceID, message string) {
	n.log.Info("payment notification", log15.Ctx{
		"invoiceID": invoiceID,
		"kind":      "info",
		"message":   message,
	})
}
