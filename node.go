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
	"context"
	"errors"
	"fmt"
	"math"
	"net"
	"sync"

	"go.opentelemetry.io/otel/trace"

	"github.com/blinklabs-io/stakedao/account"
	"github.com/blinklabs-io/stakedao/api"
	"github.com/blinklabs-io/stakedao/asset"
	"github.com/blinklabs-io/stakedao/database"
	"github.com/blinklabs-io/stakedao/event"
	"github.com/blinklabs-io/stakedao/governance"
	"github.com/blinklabs-io/stakedao/staking"
)

type Node struct {
	eventBus       *event.EventBus
	db             *database.Database
	ledger         *asset.Ledger
	staking        *staking.Staking
	engine         *governance.Engine
	api            *api.Api
	tracerProvider trace.TracerProvider
	shutdownFuncs  []func(context.Context) error
	cancel         context.CancelFunc
	config         Config
	done           chan struct{}
	startOnce      sync.Once
	shutdownOnce   sync.Once
}

func New(cfg Config) (*Node, error) {
	eventBus := event.NewEventBus(cfg.promRegistry, cfg.logger)
	n := &Node{
		config:   cfg,
		eventBus: eventBus,
		done:     make(chan struct{}),
	}
	if err := n.configValidate(); err != nil {
		eventBus.Stop()
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return n, nil
}

// Run starts the node and blocks until ctx is done or Stop is called
func (n *Node) Run(ctx context.Context) error {
	if err := n.Start(ctx); err != nil {
		return err
	}
	select {
	case <-ctx.Done():
	case <-n.done:
	}
	return nil
}

// Start opens the database, builds the governance components and starts the
// API listener. It returns once everything is ready
func (n *Node) Start(ctx context.Context) error {
	err := errors.New("node already started")
	n.startOnce.Do(func() {
		err = n.start(ctx)
	})
	return err
}

func (n *Node) start(ctx context.Context) error {
	logger := n.config.logger
	runCtx, cancel := context.WithCancel(ctx)
	n.cancel = cancel
	// Configure tracing
	if n.config.tracing {
		if err := n.setupTracing(); err != nil {
			return err
		}
	}
	// Load database
	db, err := database.New(&database.Config{
		DataDir:        n.config.dataDir,
		BlobPlugin:     n.config.blobPlugin,
		MetadataPlugin: n.config.metadataPlugin,
		Logger:         logger,
		PromRegistry:   n.config.promRegistry,
	})
	if db == nil {
		if err == nil {
			err = errors.New("empty database returned")
		}
		return fmt.Errorf("failed to open database: %w", err)
	}
	n.db = db
	if err != nil {
		var dbErr database.CommitTimestampError
		if !errors.As(err, &dbErr) {
			return fmt.Errorf("failed to open database: %w", err)
		}
		// The engine writes both stores in one transaction, so the journal
		// in the metadata store is authoritative
		logger.Warn(
			"database commit timestamps disagree, continuing with metadata store",
			"component", "node",
			"error", err,
		)
	}
	// Vote token ledger
	n.ledger = asset.NewLedger(
		n.config.admin,
		asset.WithLogger(logger),
		asset.WithSymbol(n.config.tokenSymbol),
	)
	for holder, amount := range n.config.genesisBalances {
		if err := n.ledger.Mint(n.config.admin, holder, amount); err != nil {
			return fmt.Errorf("failed to mint genesis balance for %s: %w", holder, err)
		}
		if n.config.approveCustodian {
			if err := n.ledger.Approve(holder, n.config.engineAccount, math.MaxUint64); err != nil {
				return fmt.Errorf("failed to approve custodian for %s: %w", holder, err)
			}
		}
	}
	// Staking target
	stakingOwner := n.config.stakingOwner
	if stakingOwner == "" {
		stakingOwner = n.config.admin
	}
	n.staking = staking.NewStaking(staking.StakingConfig{
		Logger:             logger,
		PromRegistry:       n.config.promRegistry,
		Owner:              stakingOwner,
		Params:             n.config.stakingParams,
		MaxStakeLockTime:   n.config.maxStakeLockTime,
		MaxUnstakeLockTime: n.config.maxUnstakeLockTime,
	})
	if err := n.staking.SetAdmin(stakingOwner, n.config.engineAccount); err != nil {
		return fmt.Errorf("failed to set staking admin: %w", err)
	}
	// Governance engine
	engineOpts := []governance.EngineOptionFunc{
		governance.WithLogger(logger),
		governance.WithPromRegistry(n.config.promRegistry),
	}
	if n.config.clock != nil {
		engineOpts = append(engineOpts, governance.WithClock(n.config.clock))
	}
	if n.tracerProvider != nil {
		engineOpts = append(
			engineOpts,
			governance.WithTracerProvider(n.tracerProvider),
		)
	}
	engine, err := governance.NewEngine(
		governance.EngineConfig{
			Database:           n.db,
			EventBus:           n.eventBus,
			Asset:              n.ledger,
			Target:             n.staking,
			TypedTarget:        n.staking,
			Account:            n.config.engineAccount,
			Admin:              n.config.admin,
			FinishLockTime:     n.config.finishLockTime,
			PayloadMode:        n.config.payloadMode,
			MaxStakeLockTime:   n.config.maxStakeLockTime,
			MaxUnstakeLockTime: n.config.maxUnstakeLockTime,
		},
		engineOpts...,
	)
	if err != nil {
		return fmt.Errorf("failed to load governance engine: %w", err)
	}
	n.engine = engine
	if err := n.restoreCustody(runCtx); err != nil {
		return err
	}
	if err := n.restoreStaking(runCtx); err != nil {
		return err
	}
	// Log governance events
	for _, evtType := range governance.EventTypes {
		n.eventBus.SubscribeFunc(evtType, n.logEvent)
	}
	// Configure API
	if n.config.apiListenAddress != "" {
		n.api = api.New(
			api.ApiConfig{ListenAddress: n.config.apiListenAddress},
			n.engine,
			n.staking,
			logger,
		)
		if err := n.api.Start(runCtx); err != nil {
			return err
		}
	}
	logger.Info(
		"governance node started",
		"component", "node",
		"account", n.config.engineAccount.String(),
		"payload_mode", n.engine.PayloadMode().String(),
	)
	return nil
}

// restoreCustody mints the persisted deposit total to the engine account.
// The vote token ledger lives in memory, so custody balances are lost on
// restart while the deposit records survive
func (n *Node) restoreCustody(ctx context.Context) error {
	deposits, err := n.engine.Deposits(ctx)
	if err != nil {
		return fmt.Errorf("failed to load deposits: %w", err)
	}
	var total uint64
	for _, d := range deposits {
		if total > math.MaxUint64-d.Balance {
			return errors.New("deposit total overflows")
		}
		total += d.Balance
	}
	held := n.ledger.BalanceOf(n.config.engineAccount)
	if total <= held {
		return nil
	}
	if err := n.ledger.Mint(n.config.admin, n.config.engineAccount, total-held); err != nil {
		return fmt.Errorf("failed to restore custody balance: %w", err)
	}
	n.config.logger.Info(
		fmt.Sprintf("restored custody balance of %d", total-held),
		"component", "node",
		"depositors", len(deposits),
	)
	return nil
}

// restoreStaking reapplies executed proposals to the staking parameters,
// which are rebuilt from configuration on every start
func (n *Node) restoreStaking(ctx context.Context) error {
	applied, err := n.engine.ReapplyExecuted(ctx)
	if err != nil {
		return fmt.Errorf("failed to restore staking parameters: %w", err)
	}
	if applied > 0 {
		n.config.logger.Info(
			fmt.Sprintf("reapplied %d executed proposals", applied),
			"component", "node",
		)
	}
	return nil
}

func (n *Node) logEvent(evt event.Event) {
	n.config.logger.Debug(
		"governance event",
		"component", "node",
		"type", string(evt.Type),
		"seq", evt.Seq,
		"data", evt.Data,
	)
}

func (n *Node) Stop() error {
	var err error
	n.shutdownOnce.Do(func() {
		err = n.shutdown()
	})
	return err
}

func (n *Node) shutdown() error {
	shutdownTimeout := DefaultShutdownTimeout
	if n.config.shutdownTimeout > 0 {
		shutdownTimeout = n.config.shutdownTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var err error

	n.config.logger.Debug("starting graceful shutdown", "component", "node")

	// Stop accepting requests
	if n.api != nil {
		if stopErr := n.api.Stop(ctx); stopErr != nil {
			err = errors.Join(err, fmt.Errorf("api shutdown: %w", stopErr))
		}
	}
	if n.cancel != nil {
		n.cancel()
	}

	// Drain event subscribers before closing storage
	if n.eventBus != nil {
		n.eventBus.Stop()
	}

	if n.db != nil {
		if closeErr := n.db.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("database close: %w", closeErr))
		}
	}

	// Call registered shutdown functions
	for _, fn := range n.shutdownFuncs {
		if fnErr := fn(ctx); fnErr != nil {
			err = errors.Join(err, fmt.Errorf("shutdown function: %w", fnErr))
		}
	}
	n.shutdownFuncs = nil

	n.config.logger.Debug("graceful shutdown complete", "component", "node")
	close(n.done)
	return err
}

// Engine returns the governance engine, or nil before Start
func (n *Node) Engine() *governance.Engine {
	return n.engine
}

// Ledger returns the vote token ledger, or nil before Start
func (n *Node) Ledger() *asset.Ledger {
	return n.ledger
}

// Staking returns the staking target, or nil before Start
func (n *Node) Staking() *staking.Staking {
	return n.staking
}

func (n *Node) EventBus() *event.EventBus {
	return n.eventBus
}

// ApiAddr returns the API listen address, or nil when the API is disabled
func (n *Node) ApiAddr() net.Addr {
	if n.api == nil {
		return nil
	}
	return n.api.Addr()
}

// EngineAccount returns the custody account
func (n *Node) EngineAccount() account.Account {
	return n.config.engineAccount
}
