package lifecycle

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"gopkg.in/inconshreveable/log15.v2"

	"github.com/sahelpay/payd/pkg/gateway"
	"github.com/sahelpay/payd/pkg/payd/status"
)

// AbortReason is a poll-run safety valve
type AbortReason string

const (
	// AbortMaxAttempts fires when the hard attempt cap is reached. It is
	// an engineering signal as much as a user-facing failure: it points
	// at backoff tuning or an unresponsive gateway.
	AbortMaxAttempts AbortReason = "max-attempts"
	// AbortConnectivity fires after a run of consecutive network errors
	AbortConnectivity AbortReason = "connectivity"
)

// pollRun repeatedly checks a transaction's status on an adaptive interval
//
// A run belongs to exactly one waiting phase of one controller; the
// controller discards callbacks from a stale run by generation token.
type pollRun struct {
	cfg       Config
	gw        gateway.Client
	invoiceID string
	txID      string
	log       log15.Logger

	// starting attempt count, non-zero after a resume
	startCount int

	// onAttempt is called after every check call, success or failure
	onAttempt func(at time.Time)
	// onResult is called with the classified outcome of a valid gateway
	// response; returning false stops the run
	onResult func(out status.Outcome) bool
	// onAbort is called when a safety valve stops the run
	onAbort func(reason AbortReason)

	stop     chan struct{}
	stopOnce sync.Once
}

func (p *pollRun) start() {
	p.stop = make(chan struct{})
	go p.run()
}

// Stop cancels the run; no callback fires after Stop returns while the
// controller lock is held
func (p *pollRun) Stop() {
	p.stopOnce.Do(func() {
		close(p.stop)
	})
}

func (p *pollRun) run() {
	attempt := p.startCount
	netErrors := 0
	timer := time.NewTimer(p.interval(attempt + 1))
	defer timer.Stop()

	for {
		select {
		case <-p.stop:
			return
		case <-timer.C:
		}

		attempt++
		ctx, cancel := context.WithTimeout(context.Background(), p.cfg.CheckTimeout)
		res, err := p.gw.Check(ctx, p.invoiceID, p.txID)
		cancel()

		metricPollAttempts.Inc()
		p.onAttempt(time.Now())

		if err != nil {
			out := status.ClassifyError(err)
			var gwErr *gateway.Error
			if errors.As(err, &gwErr) && out.Terminal() && out != status.OutcomeFailedTransient {
				// a valid gateway response carrying a terminal business status
				if !p.onResult(out) {
					return
				}
			} else {
				// the check call itself failed. A single transient failure
				// must not abort the run, a run of them must.
				netErrors++
				p.log.Debug("poll network error", log15.Ctx{
					"invoiceID": p.invoiceID,
					"attempt":   attempt,
					"netErrors": netErrors,
					"err":       err,
				})
				if netErrors >= p.cfg.PollMaxNetworkErrors {
					metricPollAborts.WithLabelValues(string(AbortConnectivity)).Inc()
					p.onAbort(AbortConnectivity)
					return
				}
			}
		} else {
			netErrors = 0
			if !p.onResult(status.ClassifyStatus(res.Status)) {
				return
			}
		}

		// cap counts total attempts across resumes
		if attempt >= p.cfg.PollMaxAttempts {
			metricPollAborts.WithLabelValues(string(AbortMaxAttempts)).Inc()
			p.onAbort(AbortMaxAttempts)
			return
		}

		timer.Reset(p.interval(attempt + 1))
	}
}

// interval returns the wait before the given 1-based attempt
//
// The sequence stays at the base interval for the first PollBackoffAfter
// attempts, then grows by PollBackoffFactor per attempt, capped at
// PollMaxInterval. It is non-decreasing.
func (p *pollRun) interval(attempt int) time.Duration {
	if attempt <= p.cfg.PollBackoffAfter {
		return p.cfg.PollInterval
	}
	grown := float64(p.cfg.PollInterval) * math.Pow(p.cfg.PollBackoffFactor, float64(attempt-p.cfg.PollBackoffAfter))
	if grown > float64(p.cfg.PollMaxInterval) {
		return p.cfg.PollMaxInterval
	}
	return time.Duration(grown)
}
