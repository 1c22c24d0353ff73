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

package node

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	_ "net/http/pprof" // #nosec G108
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/blinklabs-io/stakedao"
	"github.com/blinklabs-io/stakedao/account"
	"github.com/blinklabs-io/stakedao/governance"
	"github.com/blinklabs-io/stakedao/internal/config"
	"github.com/blinklabs-io/stakedao/staking"
)

func Run(cfg *config.Config, logger *slog.Logger) error {
	logger.Debug(fmt.Sprintf("config: %+v", cfg), "component", "node")
	shutdownTimeout := 30 * time.Second
	if cfg.ShutdownTimeout != "" {
		var err error
		shutdownTimeout, err = time.ParseDuration(cfg.ShutdownTimeout)
		if err != nil {
			return fmt.Errorf("invalid shutdown timeout: %w", err)
		}
	}
	opts, err := nodeOptions(cfg, logger)
	if err != nil {
		return err
	}
	opts = append(
		opts,
		stakedao.WithShutdownTimeout(shutdownTimeout),
		// Enable metrics with default prometheus registry
		stakedao.WithPrometheusRegistry(prometheus.DefaultRegisterer),
	)
	n, err := stakedao.New(stakedao.NewConfig(opts...))
	if err != nil {
		return err
	}
	// Metrics and debug listener
	http.Handle("/metrics", promhttp.Handler())
	metricsAddr := fmt.Sprintf("%s:%d", cfg.BindAddr, cfg.MetricsPort)
	logger.Info(
		"serving prometheus metrics on "+metricsAddr,
		"component", "node",
	)
	metricsServer := &http.Server{
		Addr:              metricsAddr,
		ReadHeaderTimeout: 60 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	// Wait for interrupt/termination signal
	signalCtx, signalCtxStop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer signalCtxStop()

	g, gctx := errgroup.WithContext(signalCtx)
	g.Go(func() error {
		return n.Run(gctx)
	})
	g.Go(func() error {
		if err := metricsServer.ListenAndServe(); err != nil &&
			!errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start metrics listener: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		if signalCtx.Err() != nil {
			logger.Info("signal received, initiating graceful shutdown")
		}
		//nolint:contextcheck
		shutdownCtx, cancel := context.WithTimeout(
			context.Background(),
			shutdownTimeout,
		)
		defer cancel()
		//nolint:contextcheck
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("metrics server shutdown error", "error", err)
		}
		return nil
	})
	runErr := g.Wait()
	if runErr != nil {
		logger.Error("node error", "error", runErr)
	}
	if err := n.Stop(); err != nil {
		logger.Error("shutdown errors occurred", "error", err)
		return errors.Join(runErr, err)
	}
	if runErr == nil {
		logger.Info("shutdown complete")
	}
	return runErr
}

// nodeOptions converts the file/env config into node options
func nodeOptions(
	cfg *config.Config,
	logger *slog.Logger,
) ([]stakedao.ConfigOptionFunc, error) {
	engineAccount, err := account.Parse(cfg.Governance.Account)
	if err != nil {
		return nil, fmt.Errorf("invalid governance account: %w", err)
	}
	admin, err := account.Parse(cfg.Governance.Admin)
	if err != nil {
		return nil, fmt.Errorf("invalid governance admin: %w", err)
	}
	payloadMode, err := governance.ParsePayloadMode(cfg.Governance.PayloadMode)
	if err != nil {
		return nil, err
	}
	opts := []stakedao.ConfigOptionFunc{
		stakedao.WithLogger(logger),
		stakedao.WithDatabasePath(cfg.DatabasePath),
		stakedao.WithBlobPlugin(cfg.BlobPlugin),
		stakedao.WithMetadataPlugin(cfg.MetadataPlugin),
		stakedao.WithEngineAccount(engineAccount),
		stakedao.WithAdmin(admin),
		stakedao.WithFinishLockTime(cfg.Governance.FinishLockTime),
		stakedao.WithPayloadMode(payloadMode),
		stakedao.WithLockTimeBounds(
			cfg.Governance.MaxStakeLockTime,
			cfg.Governance.MaxUnstakeLockTime,
		),
		stakedao.WithStakingParams(staking.Params{
			RewardRate:      cfg.Staking.RewardRate,
			StakeLockTime:   cfg.Staking.StakeLockTime,
			UnstakeLockTime: cfg.Staking.UnstakeLockTime,
		}),
		stakedao.WithApproveCustodian(cfg.Genesis.ApproveCustodian),
		stakedao.WithTracing(cfg.Tracing),
		stakedao.WithTracingStdout(cfg.TracingStdout),
	}
	if cfg.Genesis.Symbol != "" {
		opts = append(opts, stakedao.WithTokenSymbol(cfg.Genesis.Symbol))
	}
	if cfg.Staking.Owner != "" {
		owner, err := account.Parse(cfg.Staking.Owner)
		if err != nil {
			return nil, fmt.Errorf("invalid staking owner: %w", err)
		}
		opts = append(opts, stakedao.WithStakingOwner(owner))
	}
	if len(cfg.Genesis.Balances) > 0 {
		balances := make(map[account.Account]uint64, len(cfg.Genesis.Balances))
		for addr, amount := range cfg.Genesis.Balances {
			a, err := account.Parse(addr)
			if err != nil {
				return nil, fmt.Errorf("invalid genesis account: %w", err)
			}
			balances[a] = amount
		}
		opts = append(opts, stakedao.WithGenesisBalances(balances))
	}
	if cfg.ApiPort > 0 {
		opts = append(
			opts,
			stakedao.WithApiListenAddress(
				fmt.Sprintf("%s:%d", cfg.BindAddr, cfg.ApiPort),
			),
		)
	}
	return opts, nil
}
