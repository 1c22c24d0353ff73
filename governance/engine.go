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

package governance

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/blinklabs-io/stakedao/account"
	"github.com/blinklabs-io/stakedao/database"
	"github.com/blinklabs-io/stakedao/event"
)

const (
	DefaultFinishLockTime = 24 * time.Hour

	tracerName = "github.com/blinklabs-io/stakedao/governance"
)

// StakeAsset moves the vote token between depositors and the engine's
// custody account
type StakeAsset interface {
	TransferFrom(payer, custodian account.Account, amount uint64) error
	Transfer(custodian, payee account.Account, amount uint64) error
}

// ParameterTarget executes generic proposal payloads
type ParameterTarget interface {
	Apply(caller account.Account, call []byte) error
}

// TypedParameterTarget executes typed proposal payloads
type TypedParameterTarget interface {
	SetRewardRate(caller account.Account, rate uint64) error
	SetStakeLockTime(caller account.Account, d time.Duration) error
	SetUnstakeLockTime(caller account.Account, d time.Duration) error
}

type EngineConfig struct {
	Database    *database.Database
	EventBus    *event.EventBus
	Asset       StakeAsset
	Target      ParameterTarget
	TypedTarget TypedParameterTarget
	// Account is the engine's own identity. It holds deposits in custody and
	// is the caller of every dispatched parameter change
	Account account.Account
	// Admin is granted the admin role the first time the engine starts
	Admin          account.Account
	FinishLockTime time.Duration
	// PayloadMode only applies on first start. Later starts use the stored mode
	PayloadMode        PayloadMode
	MaxStakeLockTime   time.Duration
	MaxUnstakeLockTime time.Duration
}

// FinalizeResult describes a finalized proposal
type FinalizeResult struct {
	ID           uint64  `json:"id"`
	Passed       bool    `json:"passed"`
	Dispatched   bool    `json:"dispatched"`
	Payload      Payload `json:"payload"`
	VotesFor     uint64  `json:"votesFor"`
	VotesAgainst uint64  `json:"votesAgainst"`
}

// Engine serializes every governance state transition. Each transition runs
// in one database transaction together with the journal entries of the
// events it emits
type Engine struct {
	mu             sync.Mutex
	config         EngineConfig
	logger         *slog.Logger
	clock          func() time.Time
	promRegistry   prometheus.Registerer
	tracerProvider trace.TracerProvider
	tracer         trace.Tracer
	db             *database.Database
	mode           PayloadMode
	roles          roleRegistry
	deposits       depositLedger
	proposals      proposalStore
	metrics        engineMetrics
	dispatches     dispatchOrder
}

// dispatchOrder hands out turns so that payloads are applied in the order
// their proposals were finalized. Tickets are taken while the engine lock is
// held
type dispatchOrder struct {
	mu      sync.Mutex
	cond    *sync.Cond
	next    uint64
	serving uint64
}

func (d *dispatchOrder) init() {
	d.cond = sync.NewCond(&d.mu)
}

func (d *dispatchOrder) ticket() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	t := d.next
	d.next++
	return t
}

// wait blocks until the given ticket is being served
func (d *dispatchOrder) wait(t uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for d.serving != t {
		d.cond.Wait()
	}
}

// done passes the turn to the next ticket
func (d *dispatchOrder) done() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.serving++
	d.cond.Broadcast()
}

func NewEngine(cfg EngineConfig, opts ...EngineOptionFunc) (*Engine, error) {
	if cfg.Database == nil {
		return nil, errors.New("governance engine requires a database")
	}
	if cfg.Asset == nil {
		return nil, errors.New("governance engine requires a stake asset")
	}
	if !cfg.Account.Valid() {
		return nil, fmt.Errorf(
			"%w: engine account %q",
			ErrInvalidParameter,
			cfg.Account,
		)
	}
	if !cfg.Admin.Valid() {
		return nil, fmt.Errorf(
			"%w: admin account %q",
			ErrInvalidParameter,
			cfg.Admin,
		)
	}
	if cfg.FinishLockTime < 0 {
		return nil, fmt.Errorf(
			"%w: negative finish lock time %s",
			ErrInvalidParameter,
			cfg.FinishLockTime,
		)
	}
	if cfg.FinishLockTime == 0 {
		cfg.FinishLockTime = DefaultFinishLockTime
	}
	e := &Engine{
		config: cfg,
		clock:  time.Now,
		db:     cfg.Database,
		mode:   cfg.PayloadMode,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if e.tracerProvider == nil {
		e.tracerProvider = otel.GetTracerProvider()
	}
	e.tracer = e.tracerProvider.Tracer(tracerName)
	e.roles = roleRegistry{db: e.db}
	e.deposits = depositLedger{db: e.db}
	e.proposals = proposalStore{
		db:   e.db,
		mode: e.mode,
		limits: payloadLimits{
			maxStakeLockTime:   cfg.MaxStakeLockTime,
			maxUnstakeLockTime: cfg.MaxUnstakeLockTime,
		},
	}
	e.metrics.init(e.promRegistry)
	e.dispatches.init()
	if err := e.Bootstrap(context.Background()); err != nil {
		return nil, err
	}
	return e, nil
}

// Bootstrap initializes the persisted engine state on first start and loads
// it on later starts. It is safe to call more than once
func (e *Engine) Bootstrap(ctx context.Context) error {
	_, span := e.startSpan(ctx, "Bootstrap")
	err := e.bootstrap()
	endSpan(span, err)
	return err
}

func (e *Engine) bootstrap() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	err := e.update(
		e.clock(),
		func(txn *database.Txn, evts *txnEvents) error {
			state, err := e.db.GetGovernanceState(txn)
			if err != nil {
				return err
			}
			if !state.Initialized {
				state.Initialized = true
				state.PayloadMode = uint8(e.config.PayloadMode)
				if err := e.db.SetGovernanceState(state, txn); err != nil {
					return err
				}
			} else if PayloadMode(state.PayloadMode) != e.config.PayloadMode {
				e.logger.Warn(
					fmt.Sprintf(
						"configured payload mode %s differs from stored mode %s, using stored mode",
						e.config.PayloadMode,
						PayloadMode(state.PayloadMode),
					),
					"component", "governance",
				)
			}
			e.mode = PayloadMode(state.PayloadMode)
			e.proposals.mode = e.mode
			admins, err := e.roles.members(RoleAdmin, txn)
			if err != nil {
				return err
			}
			if len(admins) == 0 {
				if _, err := e.roles.grant(
					RoleAdmin,
					e.config.Admin,
					e.config.Admin,
					txn,
				); err != nil {
					return err
				}
				return evts.add(
					RoleGrantedEventType,
					RoleGrantedEvent{
						Role:    RoleAdmin,
						Grantor: e.config.Admin,
						Grantee: e.config.Admin,
					},
				)
			}
			if !slices.Contains(admins, e.config.Admin) {
				e.logger.Warn(
					fmt.Sprintf(
						"configured admin %s ignored, admin is already set",
						e.config.Admin,
					),
					"component", "governance",
				)
			}
			return nil
		},
	)
	if err != nil {
		return fmt.Errorf("bootstrap governance state: %w", err)
	}
	switch e.mode {
	case PayloadModeGeneric:
		if e.config.Target == nil {
			return errors.New("generic payload mode requires a parameter target")
		}
	case PayloadModeTyped:
		if e.config.TypedTarget == nil {
			return errors.New("typed payload mode requires a typed parameter target")
		}
	default:
		return fmt.Errorf("%w: stored payload mode %s", ErrInvalidParameter, e.mode)
	}
	deposits, err := e.deposits.all(nil)
	if err != nil {
		return err
	}
	var total float64
	var depositors float64
	for _, deposit := range deposits {
		if deposit.Balance > 0 {
			total += float64(deposit.Balance)
			depositors++
		}
	}
	e.metrics.depositedStake.Set(total)
	e.metrics.depositors.Set(depositors)
	e.logger.Info(
		fmt.Sprintf(
			"governance engine ready (payload mode %s, finish lock time %s)",
			e.mode,
			e.config.FinishLockTime,
		),
		"component", "governance",
		"account", e.config.Account.String(),
	)
	return nil
}

// txnEvents journals events inside a transaction and keeps them for
// publishing once the transaction commits
type txnEvents struct {
	db     *database.Database
	txn    *database.Txn
	now    time.Time
	events []event.Event
}

func (t *txnEvents) add(eventType event.EventType, data any) error {
	entry, err := t.db.AppendJournal(string(eventType), t.now, data, t.txn)
	if err != nil {
		return fmt.Errorf("journal %s: %w", eventType, err)
	}
	t.events = append(
		t.events,
		event.Event{
			Type:      eventType,
			Timestamp: t.now,
			Seq:       entry.Seq,
			Data:      data,
		},
	)
	return nil
}

// update runs fn in a read-write transaction and publishes the events fn
// recorded after the commit. The caller must hold e.mu
func (e *Engine) update(
	now time.Time,
	fn func(*database.Txn, *txnEvents) error,
) error {
	txn := e.db.Transaction(true)
	defer txn.Release()
	evts := &txnEvents{db: e.db, txn: txn, now: now}
	if err := txn.Do(func(txn *database.Txn) error {
		return fn(txn, evts)
	}); err != nil {
		return err
	}
	e.publish(evts.events)
	return nil
}

func (e *Engine) publish(evts []event.Event) {
	if e.config.EventBus == nil {
		return
	}
	for _, evt := range evts {
		e.config.EventBus.Publish(evt)
	}
}

func (e *Engine) startSpan(
	ctx context.Context,
	name string,
	attrs ...attribute.KeyValue,
) (context.Context, trace.Span) {
	return e.tracer.Start(
		ctx,
		"governance."+name,
		trace.WithAttributes(attrs...),
	)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func accountAttr(key string, a account.Account) attribute.KeyValue {
	return attribute.String(key, a.String())
}

func uintAttr(key string, v uint64) attribute.KeyValue {
	return attribute.String(key, strconv.FormatUint(v, 10))
}

func checkCaller(a account.Account) error {
	if !a.Valid() {
		return fmt.Errorf("%w: account %q", ErrInvalidParameter, a)
	}
	return nil
}

// GrantProposer gives target the proposer role. Only an admin may call it.
// Granting an existing membership succeeds without emitting an event
func (e *Engine) GrantProposer(
	ctx context.Context,
	caller account.Account,
	target account.Account,
) error {
	ctx, span := e.startSpan(
		ctx,
		"GrantProposer",
		accountAttr("caller", caller),
		accountAttr("target", target),
	)
	err := e.grantProposer(ctx, caller, target)
	endSpan(span, err)
	return err
}

func (e *Engine) grantProposer(
	ctx context.Context,
	caller account.Account,
	target account.Account,
) error {
	if err := checkCaller(caller); err != nil {
		return err
	}
	if err := checkCaller(target); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	var added bool
	err := e.update(
		e.clock(),
		func(txn *database.Txn, evts *txnEvents) error {
			isAdmin, err := e.roles.has(RoleAdmin, caller, txn)
			if err != nil {
				return err
			}
			if !isAdmin {
				return fmt.Errorf(
					"%w: %s is not an admin",
					ErrUnauthorized,
					caller,
				)
			}
			added, err = e.roles.grant(RoleProposer, caller, target, txn)
			if err != nil {
				return err
			}
			if !added {
				return nil
			}
			return evts.add(
				RoleGrantedEventType,
				RoleGrantedEvent{
					Role:    RoleProposer,
					Grantor: caller,
					Grantee: target,
				},
			)
		},
	)
	if err != nil {
		return err
	}
	if added {
		e.logger.Info(
			fmt.Sprintf("granted proposer role to %s", target),
			"component", "governance",
			"grantor", caller.String(),
		)
	}
	return nil
}

// SubmitProposal stores a new proposal and returns its ID. Only proposers
// may submit
func (e *Engine) SubmitProposal(
	ctx context.Context,
	caller account.Account,
	payload Payload,
) (uint64, error) {
	ctx, span := e.startSpan(
		ctx,
		"SubmitProposal",
		accountAttr("caller", caller),
		attribute.String("payload", payload.String()),
	)
	id, err := e.submitProposal(ctx, caller, payload)
	if err == nil {
		span.SetAttributes(uintAttr("proposal.id", id))
	}
	endSpan(span, err)
	return id, err
}

func (e *Engine) submitProposal(
	ctx context.Context,
	caller account.Account,
	payload Payload,
) (uint64, error) {
	if err := checkCaller(caller); err != nil {
		return 0, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	now := e.clock()
	var id uint64
	err := e.update(
		now,
		func(txn *database.Txn, evts *txnEvents) error {
			isProposer, err := e.roles.has(RoleProposer, caller, txn)
			if err != nil {
				return err
			}
			if !isProposer {
				return fmt.Errorf(
					"%w: %s is not a proposer",
					ErrUnauthorized,
					caller,
				)
			}
			id, err = e.proposals.create(caller, payload, now, txn)
			if err != nil {
				return err
			}
			return evts.add(
				ProposalCreatedEventType,
				ProposalCreatedEvent{
					ID:       id,
					Proposer: caller,
					Payload:  payload,
				},
			)
		},
	)
	if err != nil {
		return 0, err
	}
	e.metrics.proposals.Inc()
	e.logger.Info(
		fmt.Sprintf("proposal %d submitted: %s", id, payload),
		"component", "governance",
		"proposer", caller.String(),
	)
	return id, nil
}

// CastVote adds weight to one side of a proposal. The weight may not exceed
// the caller's deposit, but the full deposit can be used on every open
// proposal. Repeated votes add up
func (e *Engine) CastVote(
	ctx context.Context,
	caller account.Account,
	id uint64,
	weight uint64,
	support bool,
) error {
	ctx, span := e.startSpan(
		ctx,
		"CastVote",
		accountAttr("caller", caller),
		uintAttr("proposal.id", id),
		uintAttr("weight", weight),
		attribute.Bool("support", support),
	)
	err := e.castVote(ctx, caller, id, weight, support)
	endSpan(span, err)
	return err
}

func (e *Engine) castVote(
	ctx context.Context,
	caller account.Account,
	id uint64,
	weight uint64,
	support bool,
) error {
	if err := checkCaller(caller); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	err := e.update(
		e.clock(),
		func(txn *database.Txn, evts *txnEvents) error {
			balance, err := e.deposits.balance(caller, txn)
			if err != nil {
				return err
			}
			if weight > balance {
				return fmt.Errorf(
					"%w: weight %d exceeds deposit %d",
					ErrInsufficientDeposit,
					weight,
					balance,
				)
			}
			p, err := e.proposals.get(id, txn)
			if err != nil {
				return err
			}
			if p.Finished {
				return fmt.Errorf("%w: proposal %d", ErrAlreadyFinished, id)
			}
			if err := e.proposals.recordVote(p, caller, weight, support, txn); err != nil {
				return err
			}
			if err := e.deposits.markBacking(caller, id, txn); err != nil {
				return err
			}
			return evts.add(
				VoteCastEventType,
				VoteCastEvent{
					Account: caller,
					ID:      id,
					Support: support,
					Weight:  weight,
				},
			)
		},
	)
	if err != nil {
		return err
	}
	e.metrics.votes.WithLabelValues(supportLabel(support)).Inc()
	e.metrics.voteWeight.WithLabelValues(supportLabel(support)).
		Add(float64(weight))
	e.logger.Debug(
		fmt.Sprintf(
			"vote on proposal %d: %d %s",
			id,
			weight,
			supportLabel(support),
		),
		"component", "governance",
		"voter", caller.String(),
	)
	return nil
}

// FinalizeProposal closes voting on a proposal once its timelock has
// elapsed and executes its payload if more weight voted for than against.
// Anyone may call it. When the parameter target rejects the payload the
// proposal stays finished and the returned error wraps ErrDispatchFailed
func (e *Engine) FinalizeProposal(
	ctx context.Context,
	caller account.Account,
	id uint64,
) (FinalizeResult, error) {
	ctx, span := e.startSpan(
		ctx,
		"FinalizeProposal",
		accountAttr("caller", caller),
		uintAttr("proposal.id", id),
	)
	result, err := e.finalizeProposal(ctx, caller, id)
	span.SetAttributes(
		attribute.Bool("passed", result.Passed),
		attribute.Bool("dispatched", result.Dispatched),
	)
	endSpan(span, err)
	return result, err
}

func (e *Engine) finalizeProposal(
	ctx context.Context,
	caller account.Account,
	id uint64,
) (FinalizeResult, error) {
	result := FinalizeResult{ID: id}
	if err := checkCaller(caller); err != nil {
		return result, err
	}
	ticket, err := e.finish(ctx, caller, id, &result)
	if err != nil {
		return result, err
	}
	e.metrics.finalizations.WithLabelValues(outcomeLabel(result.Passed)).Inc()
	e.logger.Info(
		fmt.Sprintf(
			"proposal %d finalized: %s (%d for, %d against)",
			id,
			outcomeLabel(result.Passed),
			result.VotesFor,
			result.VotesAgainst,
		),
		"component", "governance",
		"caller", caller.String(),
	)
	if !result.Passed {
		return result, nil
	}
	// The engine lock is not held here, so a target that calls back into
	// the engine sees the proposal as finished. Dispatches still run one at
	// a time in finalization order
	dispatchErr := e.dispatchInTurn(ticket, id, result.Payload)
	result.Dispatched = dispatchErr == nil
	if dispatchErr != nil {
		e.metrics.dispatchFailures.Inc()
		e.logger.Warn(
			fmt.Sprintf("proposal %d passed but was not applied", id),
			"component", "governance",
			"error", dispatchErr,
		)
		return result, fmt.Errorf(
			"%w: proposal %d: %w",
			ErrDispatchFailed,
			id,
			dispatchErr,
		)
	}
	e.logger.Info(
		fmt.Sprintf("proposal %d applied: %s", id, result.Payload),
		"component", "governance",
	)
	return result, nil
}

func (e *Engine) finish(
	ctx context.Context,
	caller account.Account,
	id uint64,
	result *FinalizeResult,
) (uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	now := e.clock()
	err := e.update(
		now,
		func(txn *database.Txn, evts *txnEvents) error {
			p, err := e.proposals.finalize(
				id,
				caller,
				now,
				e.config.FinishLockTime,
				txn,
			)
			if err != nil {
				return err
			}
			cleared, err := e.deposits.clearProposal(id, txn)
			if err != nil {
				return err
			}
			result.Passed = p.Passed()
			result.Payload = payloadFromModel(p)
			result.VotesFor = uint64(p.VotesFor)
			result.VotesAgainst = uint64(p.VotesAgainst)
			e.logger.Debug(
				fmt.Sprintf("released %d backings of proposal %d", cleared, id),
				"component", "governance",
			)
			return evts.add(
				ProposalFinalizedEventType,
				ProposalFinalizedEvent{
					Account: caller,
					ID:      id,
					Payload: result.Payload,
					Passed:  result.Passed,
				},
			)
		},
	)
	if err != nil || !result.Passed {
		return 0, err
	}
	return e.dispatches.ticket(), nil
}

// dispatchInTurn waits for the ticket's turn, then applies the payload and
// records the outcome on the proposal
func (e *Engine) dispatchInTurn(
	ticket uint64,
	id uint64,
	payload Payload,
) error {
	e.dispatches.wait(ticket)
	defer e.dispatches.done()
	dispatchErr := e.dispatch(payload)
	if err := e.recordDispatch(id, dispatchErr); err != nil {
		e.logger.Error(
			fmt.Sprintf("failed to record dispatch of proposal %d", id),
			"component", "governance",
			"error", err,
		)
	}
	return dispatchErr
}

// ReapplyExecuted dispatches the payload of every executed proposal again,
// in the order the proposals were finalized. It brings a freshly constructed
// parameter target up to date with past decisions and returns the number of
// payloads applied. Payloads the target now rejects are logged and skipped
func (e *Engine) ReapplyExecuted(ctx context.Context) (int, error) {
	ctx, span := e.startSpan(ctx, "ReapplyExecuted")
	count, err := e.reapplyExecuted(ctx)
	span.SetAttributes(attribute.Int("applied", count))
	endSpan(span, err)
	return count, err
}

func (e *Engine) reapplyExecuted(ctx context.Context) (int, error) {
	e.mu.Lock()
	if err := ctx.Err(); err != nil {
		e.mu.Unlock()
		return 0, err
	}
	executed, err := e.proposals.executed(nil)
	if err != nil {
		e.mu.Unlock()
		return 0, err
	}
	ticket := e.dispatches.ticket()
	e.mu.Unlock()

	e.dispatches.wait(ticket)
	defer e.dispatches.done()
	count := 0
	for i := range executed {
		p := &executed[i]
		if err := e.dispatch(payloadFromModel(p)); err != nil {
			e.logger.Warn(
				fmt.Sprintf("failed to reapply proposal %d", uint64(p.ID)),
				"component", "governance",
				"error", err,
			)
			continue
		}
		count++
	}
	return count, nil
}

func (e *Engine) recordDispatch(id uint64, dispatchErr error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.update(
		e.clock(),
		func(txn *database.Txn, _ *txnEvents) error {
			return e.proposals.recordDispatch(id, dispatchErr, txn)
		},
	)
}

// dispatch applies a payload to the parameter target as the engine account
func (e *Engine) dispatch(payload Payload) error {
	caller := e.config.Account
	switch payload.Mode {
	case PayloadModeGeneric:
		if e.config.Target == nil {
			return errors.New("no parameter target configured")
		}
		return e.config.Target.Apply(caller, payload.CallData)
	case PayloadModeTyped:
		target := e.config.TypedTarget
		if target == nil {
			return errors.New("no typed parameter target configured")
		}
		switch payload.Kind {
		case KindChangeRewardRate:
			return target.SetRewardRate(caller, payload.Value)
		case KindChangeStakeLockTime:
			d, err := secondsToDuration(payload.Value)
			if err != nil {
				return err
			}
			return target.SetStakeLockTime(caller, d)
		case KindChangeUnstakeLockTime:
			d, err := secondsToDuration(payload.Value)
			if err != nil {
				return err
			}
			return target.SetUnstakeLockTime(caller, d)
		default:
			return fmt.Errorf(
				"%w: kind %d",
				ErrUnknownProposalKind,
				uint8(payload.Kind),
			)
		}
	default:
		return fmt.Errorf("%w: payload mode %s", ErrInvalidParameter, payload.Mode)
	}
}

// Deposit moves amount of the stake asset from caller into custody and adds
// it to the caller's voting balance. The caller must have approved the
// engine account for at least amount
func (e *Engine) Deposit(
	ctx context.Context,
	caller account.Account,
	amount uint64,
) error {
	ctx, span := e.startSpan(
		ctx,
		"Deposit",
		accountAttr("caller", caller),
		uintAttr("amount", amount),
	)
	err := e.deposit(ctx, caller, amount)
	endSpan(span, err)
	return err
}

func (e *Engine) deposit(
	ctx context.Context,
	caller account.Account,
	amount uint64,
) error {
	if err := checkCaller(caller); err != nil {
		return err
	}
	if amount == 0 {
		return fmt.Errorf("%w: deposit amount must be positive", ErrInvalidParameter)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	var moved bool
	var prev uint64
	err := e.update(
		e.clock(),
		func(txn *database.Txn, evts *txnEvents) error {
			var err error
			prev, err = e.deposits.balance(caller, txn)
			if err != nil {
				return err
			}
			if _, err := e.deposits.credit(caller, amount, txn); err != nil {
				return err
			}
			if err := evts.add(
				DepositedEventType,
				DepositedEvent{Account: caller, Amount: amount},
			); err != nil {
				return err
			}
			if err := e.config.Asset.TransferFrom(
				caller,
				e.config.Account,
				amount,
			); err != nil {
				return fmt.Errorf("%w: %w", ErrTransferFailed, err)
			}
			moved = true
			return nil
		},
	)
	if err != nil {
		if moved {
			e.compensate(
				"deposit",
				caller,
				amount,
				e.config.Asset.Transfer(e.config.Account, caller, amount),
			)
		}
		return err
	}
	if prev == 0 {
		e.metrics.depositors.Inc()
	}
	e.metrics.depositedStake.Add(float64(amount))
	e.logger.Info(
		fmt.Sprintf("deposited %d", amount),
		"component", "governance",
		"account", caller.String(),
	)
	return nil
}

// Withdraw returns the caller's whole deposit. It fails while any proposal
// the caller voted on is unfinished
func (e *Engine) Withdraw(
	ctx context.Context,
	caller account.Account,
) (uint64, error) {
	ctx, span := e.startSpan(
		ctx,
		"Withdraw",
		accountAttr("caller", caller),
	)
	amount, err := e.withdraw(ctx, caller)
	if err == nil {
		span.SetAttributes(uintAttr("amount", amount))
	}
	endSpan(span, err)
	return amount, err
}

func (e *Engine) withdraw(
	ctx context.Context,
	caller account.Account,
) (uint64, error) {
	if err := checkCaller(caller); err != nil {
		return 0, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var moved bool
	var amount uint64
	err := e.update(
		e.clock(),
		func(txn *database.Txn, evts *txnEvents) error {
			var err error
			amount, err = e.deposits.balance(caller, txn)
			if err != nil {
				return err
			}
			if amount == 0 {
				return ErrNothingToWithdraw
			}
			pending, err := e.deposits.pending(caller, txn)
			if err != nil {
				return err
			}
			if pending > 0 {
				return fmt.Errorf(
					"%w: %d unfinished",
					ErrPendingVotes,
					pending,
				)
			}
			if err := e.deposits.drain(caller, txn); err != nil {
				return err
			}
			if err := evts.add(
				WithdrawnEventType,
				WithdrawnEvent{Account: caller, Amount: amount},
			); err != nil {
				return err
			}
			if err := e.config.Asset.Transfer(
				e.config.Account,
				caller,
				amount,
			); err != nil {
				return fmt.Errorf("%w: %w", ErrTransferFailed, err)
			}
			moved = true
			return nil
		},
	)
	if err != nil {
		if moved {
			e.compensate(
				"withdraw",
				caller,
				amount,
				e.config.Asset.TransferFrom(caller, e.config.Account, amount),
			)
		}
		return 0, err
	}
	e.metrics.depositors.Dec()
	e.metrics.depositedStake.Sub(float64(amount))
	e.logger.Info(
		fmt.Sprintf("withdrew %d", amount),
		"component", "governance",
		"account", caller.String(),
	)
	return amount, nil
}

// compensate logs the outcome of reversing an asset move whose transaction
// failed to commit
func (e *Engine) compensate(
	op string,
	a account.Account,
	amount uint64,
	err error,
) {
	if err != nil {
		e.logger.Error(
			fmt.Sprintf(
				"%s of %d committed on the asset but not in storage, reversal failed",
				op,
				amount,
			),
			"component", "governance",
			"account", a.String(),
			"error", err,
		)
		return
	}
	e.logger.Warn(
		fmt.Sprintf("%s of %d reversed after storage failure", op, amount),
		"component", "governance",
		"account", a.String(),
	)
}

// Account returns the engine's custody account
func (e *Engine) Account() account.Account {
	return e.config.Account
}

func (e *Engine) FinishLockTime() time.Duration {
	return e.config.FinishLockTime
}

// PayloadMode returns the mode proposals must use
func (e *Engine) PayloadMode() PayloadMode {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mode
}

func (e *Engine) IsAdmin(ctx context.Context, a account.Account) (bool, error) {
	return e.roles.has(RoleAdmin, a, nil)
}

func (e *Engine) IsProposer(
	ctx context.Context,
	a account.Account,
) (bool, error) {
	return e.roles.has(RoleProposer, a, nil)
}

// RoleMembers lists the accounts holding role in the order they were granted
func (e *Engine) RoleMembers(
	ctx context.Context,
	role Role,
) ([]account.Account, error) {
	return e.roles.members(role, nil)
}

// Proposal returns the proposal with the given ID. Unknown IDs return an
// unsubmitted zero-valued proposal rather than an error
func (e *Engine) Proposal(ctx context.Context, id uint64) (Proposal, error) {
	p, err := e.proposals.get(id, nil)
	if err != nil {
		return Proposal{}, err
	}
	return proposalFromModel(p), nil
}

// Proposals returns every stored proposal ordered by ID
func (e *Engine) Proposals(ctx context.Context) ([]Proposal, error) {
	proposals, err := e.db.GetProposals(nil)
	if err != nil {
		return nil, err
	}
	ret := make([]Proposal, 0, len(proposals))
	for i := range proposals {
		ret = append(ret, proposalFromModel(&proposals[i]))
	}
	return ret, nil
}

// DepositOf returns the deposit balance of an account
func (e *Engine) DepositOf(
	ctx context.Context,
	a account.Account,
) (uint64, error) {
	return e.deposits.balance(a, nil)
}

func (e *Engine) Deposits(ctx context.Context) ([]DepositInfo, error) {
	return e.deposits.all(nil)
}

// BackedProposals returns the IDs of unfinished proposals the account voted on
func (e *Engine) BackedProposals(
	ctx context.Context,
	a account.Account,
) ([]uint64, error) {
	return e.deposits.backed(a, nil)
}

func (e *Engine) VoteRecord(
	ctx context.Context,
	id uint64,
	a account.Account,
) (Vote, error) {
	return e.proposals.vote(id, a, nil)
}

// Journal returns persisted events after the given sequence number
func (e *Engine) Journal(
	ctx context.Context,
	afterSeq uint64,
	limit int,
) ([]database.JournalEntry, error) {
	return e.db.Journal(afterSeq, limit, nil)
}
