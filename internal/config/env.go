package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Env carries process-environment overrides for values that do not belong in
// job files, DSNs in particular. An empty value means "no override".
type Env struct {
	// DSN overrides storage.db.dsn.
	DSN string `env:"TABULAR_DSN"`

	// MetricsBackend overrides metrics.backend.
	MetricsBackend string `env:"TABULAR_METRICS_BACKEND"`

	// PushgatewayURL overrides metrics.pushgateway_url.
	PushgatewayURL string `env:"TABULAR_PUSHGATEWAY_URL"`

	// StatsdAddr overrides metrics.statsd_addr.
	StatsdAddr string `env:"TABULAR_STATSD_ADDR"`
}

// LoadEnv parses the override variables from the process environment.
func LoadEnv() (Env, error) {
	var e Env
	if err := env.Parse(&e); err != nil {
		return Env{}, fmt.Errorf("parse environment: %w", err)
	}
	return e, nil
}

// Apply folds non-empty overrides into the job.
func (e Env) Apply(j *Job) {
	if e.DSN != "" {
		j.Storage.DB.DSN = e.DSN
	}
	if e.MetricsBackend != "" {
		j.Metrics.Backend = e.MetricsBackend
	}
	if e.PushgatewayURL != "" {
		j.Metrics.PushgatewayURL = e.PushgatewayURL
	}
	if e.StatsdAddr != "" {
		j.Metrics.StatsdAddr = e.StatsdAddr
	}
}
