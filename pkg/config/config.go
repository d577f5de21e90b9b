package config

import (
	"encoding/json"
	"io"
	"time"
)

// Duration is a string-typed duration so config files can carry values
// like "5s" or "30m"
type Duration string

// Duration parses the config value into a time.Duration
func (d Duration) Duration() (time.Duration, error) {
	return time.ParseDuration(string(d))
}

// ServiceConfig configures an HTTP service endpoint
type ServiceConfig struct {
	Address        string
	ReadTimeout    Duration
	WriteTimeout   Duration
	MaxHeaderBytes int
}

// Config represents a full configuration for any payd related applications
type Config struct {
	// API server config
	API struct {
		Service ServiceConfig
		// request handler timeout
		RequestTimeout Duration
	}
	Database struct {
		// "mysql" or "sqlite3"
		Driver string
		// write connection DSN
		DSN string
		// optional read-only connection DSN
		ReadOnlyDSN string
	}
	Gateway struct {
		// base URL of the invoice-payment gateway
		URL     string
		APIKey  string
		Timeout Duration
	}
	Payment struct {
		// poll scheduling
		PollInterval    Duration
		PollMaxInterval Duration
		// attempts after which the poll interval starts growing
		PollBackoffAfter int
		// multiplicative interval growth once backoff is active
		PollBackoffFactor float64
		// hard cap on poll attempts
		PollMaxAttempts int
		// consecutive network errors before the poll run is aborted
		PollMaxNetworkErrors int
		// fallback TTL when the gateway issues no expiry
		DefaultTTL Duration
		// short UX delay before the success callback fires
		ConfirmDelay Duration
	}
}

// DefaultConfig returns a default configuration
func DefaultConfig() Config {
	cfg := Config{}
	cfg.API.Service.Address = ":8080"
	cfg.API.Service.ReadTimeout = "10s"
	cfg.API.Service.WriteTimeout = "10s"
	cfg.API.Service.MaxHeaderBytes = 1 << 16
	cfg.API.RequestTimeout = "10s"
	cfg.Database.Driver = "sqlite3"
	cfg.Database.DSN = "payd.db"
	cfg.Gateway.URL = "http://localhost:9090"
	cfg.Gateway.Timeout = "10s"
	cfg.Payment.PollInterval = "5s"
	cfg.Payment.PollMaxInterval = "30s"
	cfg.Payment.PollBackoffAfter = 5
	cfg.Payment.PollBackoffFactor = 1.5
	cfg.Payment.PollMaxAttempts = 100
	cfg.Payment.PollMaxNetworkErrors = 5
	cfg.Payment.DefaultTTL = "15m"
	cfg.Payment.ConfirmDelay = "2s"

	return cfg
}

// ReadConfig reads the JSON from the given reader into a new Config
func ReadConfig(r io.Reader) (Config, error) {
	dec := json.NewDecoder(r)
	cfg := Config{}
	err := dec.Decode(&cfg)
	return cfg, err
}

// WriteConfig will write the given config to the given Writer as JSON (pretty printed)
func WriteConfig(w io.Writer, cfg Config) error {
	jsonBytes, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	_, err = w.Write(jsonBytes)
	return err
}
