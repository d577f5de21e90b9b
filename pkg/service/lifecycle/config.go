package lifecycle

import (
	"fmt"
	"time"

	"github.com/sahelpay/payd/pkg/config"
)

// Config holds the lifecycle scheduling parameters
type Config struct {
	// base poll interval
	PollInterval time.Duration
	// cap on the grown poll interval
	PollMaxInterval time.Duration
	// number of polls at the base interval before backoff starts
	PollBackoffAfter int
	// multiplicative interval growth per poll once backoff is active
	PollBackoffFactor float64
	// hard cap on poll attempts, terminates pathological waits
	PollMaxAttempts int
	// consecutive network errors aborting the poll run
	PollMaxNetworkErrors int
	// timeout for a single gateway status check
	CheckTimeout time.Duration
	// fallback record lifetime when the gateway issues no expiry
	DefaultTTL time.Duration
	// UX delay before the success callback fires
	ConfirmDelay time.Duration
}

// DefaultConfig returns the default lifecycle parameters
func DefaultConfig() Config {
	return Config{
		PollInterval:         5 * time.Second,
		PollMaxInterval:      30 * time.Second,
		PollBackoffAfter:     5,
		PollBackoffFactor:    1.5,
		PollMaxAttempts:      100,
		PollMaxNetworkErrors: 5,
		CheckTimeout:         10 * time.Second,
		DefaultTTL:           15 * time.Minute,
		ConfirmDelay:         2 * time.Second,
	}
}

// ConfigFromPayment builds the lifecycle parameters from the application config
func ConfigFromPayment(cfg *config.Config) (Config, error) {
	c := DefaultConfig()
	var err error
	if c.PollInterval, err = cfg.Payment.PollInterval.Duration(); err != nil {
		return c, fmt.Errorf("error parsing PollInterval: %v", err)
	}
	if c.PollMaxInterval, err = cfg.Payment.PollMaxInterval.Duration(); err != nil {
		return c, fmt.Errorf("error parsing PollMaxInterval: %v", err)
	}
	if c.DefaultTTL, err = cfg.Payment.DefaultTTL.Duration(); err != nil {
		return c, fmt.Errorf("error parsing DefaultTTL: %v", err)
	}
	if c.ConfirmDelay, err = cfg.Payment.ConfirmDelay.Duration(); err != nil {
		return c, fmt.Errorf("error parsing ConfirmDelay: %v", err)
	}
	c.PollBackoffAfter = cfg.Payment.PollBackoffAfter
	c.PollBackoffFactor = cfg.Payment.PollBackoffFactor
	c.PollMaxAttempts = cfg.Payment.PollMaxAttempts
	c.PollMaxNetworkErrors = cfg.Payment.PollMaxNetworkErrors
	return c, c.validate()
}

func (c Config) validate() error {
	if c.PollInterval <= 0 {
		return fmt.Errorf("PollInterval must be positive")
	}
	if c.PollMaxInterval < c.PollInterval {
		return fmt.Errorf("PollMaxInterval must not undercut PollInterval")
	}
	if c.PollBackoffFactor < 1 {
		return fmt.Errorf("PollBackoffFactor must be >= 1")
	}
	if c.PollMaxAttempts <= 0 {
		return fmt.Errorf("PollMaxAttempts must be positive")
	}
	if c.PollMaxNetworkErrors <= 0 {
		return fmt.Errorf("PollMaxNetworkErrors must be positive")
	}
	return nil
}
