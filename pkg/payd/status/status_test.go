package status

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sahelpay/payd/pkg/gateway"
	"github.com/sahelpay/payd/pkg/payd/txn"
)

func TestClassifyStatus(t *testing.T) {
	cases := []struct {
		status txn.Status
		want   Outcome
	}{
		{txn.StatusPaid, OutcomeSucceeded},
		{txn.StatusCompleted, OutcomeSucceeded},
		{txn.StatusPending, OutcomeAwaiting},
		{txn.StatusProcessing, OutcomeAwaiting},
		{txn.StatusFailed, OutcomeFailedBusiness},
		{txn.StatusRejected, OutcomeFailedBusiness},
		{txn.StatusCancelled, OutcomeFailedBusiness},
		{txn.StatusExpired, OutcomeExpired},
		{txn.Status("weird-new-status"), OutcomeFailedTransient},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, ClassifyStatus(c.status), "status %q", c.status)
	}
}

func TestClassifyError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want Outcome
	}{
		{
			"insufficient funds code",
			&gateway.Error{Code: gateway.CodeInsufficientFunds, Message: "no balance"},
			OutcomeFailedBusiness,
		},
		{
			"invalid number code",
			&gateway.Error{Code: gateway.CodeInvalidNumber, Message: "no such subscriber"},
			OutcomeFailedBusiness,
		},
		{
			"limit exceeded code",
			&gateway.Error{Code: gateway.CodeLimitExceeded, Message: "daily cap"},
			OutcomeFailedBusiness,
		},
		{
			"expired code",
			&gateway.Error{Code: gateway.CodeTransactionExpired, Message: "too late"},
			OutcomeExpired,
		},
		{
			"service unavailable code",
			&gateway.Error{Code: gateway.CodeServiceUnavailable, Message: "down"},
			OutcomeFailedTransient,
		},
		{
			"uncoded business message",
			&gateway.Error{Message: "Solde insuffisant pour cette operation", HTTPStatus: http.StatusInternalServerError},
			OutcomeFailedBusiness,
		},
		{
			"uncoded client error",
			&gateway.Error{Message: "bad request", HTTPStatus: http.StatusBadRequest},
			OutcomeFailedBusiness,
		},
		{
			"uncoded server error",
			&gateway.Error{Message: "oops", HTTPStatus: http.StatusBadGateway},
			OutcomeFailedTransient,
		},
		{
			"plain transport error",
			errors.New("dial tcp: connection refused"),
			OutcomeFailedTransient,
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, ClassifyError(c.err))
		})
	}
}

func TestOutcomeTerminal(t *testing.T) {
	assert.False(t, OutcomeAwaiting.Terminal())
	for _, o := range []Outcome{OutcomeSucceeded, OutcomeFailedBusiness, OutcomeFailedTransient, OutcomeExpired} {
		assert.True(t, o.Terminal(), o.String())
	}
}

func TestOutcomeMessage(t *testing.T) {
	// every outcome carries exactly one human-readable message
	seen := make(map[string]Outcome)
	for _, o := range []Outcome{OutcomeAwaiting, OutcomeSucceeded, OutcomeFailedBusiness, OutcomeFailedTransient, OutcomeExpired} {
		msg := o.Message()
		assert.NotEmpty(t, msg)
		_, dup := seen[msg]
		assert.False(t, dup, "duplicate message %q", msg)
		seen[msg] = o
	}
}
