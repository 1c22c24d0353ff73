// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package stakedao

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/blinklabs-io/stakedao/account"
	"github.com/blinklabs-io/stakedao/governance"
	"github.com/blinklabs-io/stakedao/staking"
)

const (
	DefaultShutdownTimeout = 30 * time.Second
	DefaultTokenSymbol     = "VT"
)

type Config struct {
	promRegistry   prometheus.Registerer
	logger         *slog.Logger
	clock          func() time.Time
	dataDir        string
	blobPlugin     string
	metadataPlugin string
	// Governance engine
	engineAccount      account.Account
	admin              account.Account
	finishLockTime     time.Duration
	payloadMode        governance.PayloadMode
	maxStakeLockTime   time.Duration
	maxUnstakeLockTime time.Duration
	// Staking target
	stakingOwner  account.Account
	stakingParams *staking.Params
	// Vote token ledger
	tokenSymbol      string
	genesisBalances  map[account.Account]uint64
	approveCustodian bool
	// API listen address (empty = disabled)
	apiListenAddress string
	tracing          bool
	tracingStdout    bool
	shutdownTimeout  time.Duration
}

func (n *Node) configValidate() error {
	if !n.config.engineAccount.Valid() {
		return fmt.Errorf("invalid engine account: %q", n.config.engineAccount)
	}
	if !n.config.admin.Valid() {
		return fmt.Errorf("invalid admin account: %q", n.config.admin)
	}
	if n.config.engineAccount == n.config.admin {
		return errors.New("engine account must differ from the admin account")
	}
	if n.config.stakingOwner != "" && !n.config.stakingOwner.Valid() {
		return fmt.Errorf("invalid staking owner: %q", n.config.stakingOwner)
	}
	if n.config.finishLockTime < 0 {
		return errors.New("finish lock time must not be negative")
	}
	for a := range n.config.genesisBalances {
		if !a.Valid() {
			return fmt.Errorf("invalid genesis account: %q", a)
		}
	}
	return nil
}

// ConfigOptionFunc is a type that represents functions that modify the node config
type ConfigOptionFunc func(*Config)

// NewConfig creates a new stakedao config with the specified options
func NewConfig(opts ...ConfigOptionFunc) Config {
	c := Config{
		// Default logger will throw away logs
		// We do this so we don't have to add guards around every log operation
		logger:          slog.New(slog.NewJSONHandler(io.Discard, nil)),
		clock:           time.Now,
		tokenSymbol:     DefaultTokenSymbol,
		finishLockTime:  governance.DefaultFinishLockTime,
		shutdownTimeout: DefaultShutdownTimeout,
	}
	// Apply options
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// WithLogger specifies the logger object to use for logging messages
func WithLogger(logger *slog.Logger) ConfigOptionFunc {
	return func(c *Config) {
		c.logger = logger
	}
}

// WithPrometheusRegistry specifies a prometheus.Registerer instance to add metrics to
func WithPrometheusRegistry(registry prometheus.Registerer) ConfigOptionFunc {
	return func(c *Config) {
		c.promRegistry = registry
	}
}

// WithClock overrides the time source used by the governance engine
func WithClock(clock func() time.Time) ConfigOptionFunc {
	return func(c *Config) {
		c.clock = clock
	}
}

// WithDatabasePath specifies the persistent data directory to use. The default is to store everything in memory
func WithDatabasePath(dataDir string) ConfigOptionFunc {
	return func(c *Config) {
		c.dataDir = dataDir
	}
}

// WithBlobPlugin specifies the blob storage plugin to use.
func WithBlobPlugin(plugin string) ConfigOptionFunc {
	return func(c *Config) {
		c.blobPlugin = plugin
	}
}

// WithMetadataPlugin specifies the metadata storage plugin to use.
func WithMetadataPlugin(plugin string) ConfigOptionFunc {
	return func(c *Config) {
		c.metadataPlugin = plugin
	}
}

// WithEngineAccount specifies the account that holds deposits in custody
func WithEngineAccount(a account.Account) ConfigOptionFunc {
	return func(c *Config) {
		c.engineAccount = a
	}
}

// WithAdmin specifies the account granted the admin role on first start
func WithAdmin(a account.Account) ConfigOptionFunc {
	return func(c *Config) {
		c.admin = a
	}
}

// WithFinishLockTime specifies how long a proposal must wait before it can be finalized
func WithFinishLockTime(d time.Duration) ConfigOptionFunc {
	return func(c *Config) {
		c.finishLockTime = d
	}
}

// WithPayloadMode specifies the proposal payload mode. It only applies to a fresh database
func WithPayloadMode(mode governance.PayloadMode) ConfigOptionFunc {
	return func(c *Config) {
		c.payloadMode = mode
	}
}

// WithLockTimeBounds specifies the largest stake and unstake lock times a proposal may set. Zero means unbounded
func WithLockTimeBounds(maxStake, maxUnstake time.Duration) ConfigOptionFunc {
	return func(c *Config) {
		c.maxStakeLockTime = maxStake
		c.maxUnstakeLockTime = maxUnstake
	}
}

// WithStakingOwner specifies the owner of the staking target. It defaults to the admin account
func WithStakingOwner(a account.Account) ConfigOptionFunc {
	return func(c *Config) {
		c.stakingOwner = a
	}
}

// WithStakingParams specifies the initial staking parameters
func WithStakingParams(params staking.Params) ConfigOptionFunc {
	return func(c *Config) {
		c.stakingParams = &params
	}
}

// WithTokenSymbol specifies the vote token symbol
func WithTokenSymbol(symbol string) ConfigOptionFunc {
	return func(c *Config) {
		c.tokenSymbol = symbol
	}
}

// WithGenesisBalances specifies vote token balances minted at startup
func WithGenesisBalances(balances map[account.Account]uint64) ConfigOptionFunc {
	return func(c *Config) {
		c.genesisBalances = balances
	}
}

// WithApproveCustodian pre-approves the engine account to pull vote tokens from every genesis account
func WithApproveCustodian(approve bool) ConfigOptionFunc {
	return func(c *Config) {
		c.approveCustodian = approve
	}
}

// WithApiListenAddress specifies the listen address for the read-only HTTP API. An empty value disables it
func WithApiListenAddress(addr string) ConfigOptionFunc {
	return func(c *Config) {
		c.apiListenAddress = addr
	}
}

// WithTracing enables tracing. By default, spans are submitted to a HTTP(s) endpoint using OTLP. This can be configured
// using the OTEL_EXPORTER_OTLP_* env vars documented in the README for [go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp]
func WithTracing(tracing bool) ConfigOptionFunc {
	return func(c *Config) {
		c.tracing = tracing
	}
}

// WithTracingStdout enables tracing output to stdout. This also requires tracing to enabled separately. This is mostly useful for debugging
func WithTracingStdout(stdout bool) ConfigOptionFunc {
	return func(c *Config) {
		c.tracingStdout = stdout
	}
}

// WithShutdownTimeout specifies how long Stop waits for components to shut down
func WithShutdownTimeout(timeout time.Duration) ConfigOptionFunc {
	return func(c *Config) {
		c.shutdownTimeout = timeout
	}
}
