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

// Package asset provides an in-process fungible token ledger used as the
// stake asset for deposits. It implements the subset of the usual token
// contract surface that the governance engine and its tests need.
package asset

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"sync"

	"github.com/blinklabs-io/stakedao/account"
)

var (
	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrInsufficientAllowance = errors.New("insufficient allowance")
	ErrNotOwner              = errors.New("caller is not the ledger owner")
	ErrOverflow              = errors.New("amount overflow")
	ErrZeroAccount           = errors.New("invalid zero account")
)

type allowanceKey struct {
	owner   account.Account
	spender account.Account
}

// Ledger is a fungible token ledger. The owner may mint new units.
type Ledger struct {
	mu          sync.RWMutex
	logger      *slog.Logger
	owner       account.Account
	symbol      string
	totalSupply uint64
	balances    map[account.Account]uint64
	allowances  map[allowanceKey]uint64
}

type LedgerOptionFunc func(*Ledger)

// WithLogger specifies the logger object to use for logging messages
func WithLogger(logger *slog.Logger) LedgerOptionFunc {
	return func(l *Ledger) {
		l.logger = logger
	}
}

// WithSymbol specifies the ticker symbol reported in log messages
func WithSymbol(symbol string) LedgerOptionFunc {
	return func(l *Ledger) {
		l.symbol = symbol
	}
}

// NewLedger creates an empty ledger owned by the given account
func NewLedger(owner account.Account, opts ...LedgerOptionFunc) *Ledger {
	l := &Ledger{
		owner:      owner,
		symbol:     "VT",
		balances:   make(map[account.Account]uint64),
		allowances: make(map[allowanceKey]uint64),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.logger == nil {
		l.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return l
}

// Owner returns the account allowed to mint
func (l *Ledger) Owner() account.Account {
	return l.owner
}

// Symbol returns the ticker symbol
func (l *Ledger) Symbol() string {
	return l.symbol
}

// Mint creates new units in the target account
func (l *Ledger) Mint(caller, to account.Account, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if caller != l.owner {
		return ErrNotOwner
	}
	if to == "" {
		return ErrZeroAccount
	}
	if amount > math.MaxUint64-l.totalSupply {
		return ErrOverflow
	}
	l.totalSupply += amount
	l.balances[to] += amount
	l.logger.Debug(
		fmt.Sprintf("minted %d %s", amount, l.symbol),
		"component", "asset",
		"to", to.String(),
	)
	return nil
}

// Approve sets the amount spender may move out of owner's balance
func (l *Ledger) Approve(owner, spender account.Account, amount uint64) error {
	if owner == "" || spender == "" {
		return ErrZeroAccount
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.allowances[allowanceKey{owner: owner, spender: spender}] = amount
	return nil
}

// Allowance returns the remaining amount spender may move out of owner's balance
func (l *Ledger) Allowance(owner, spender account.Account) uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.allowances[allowanceKey{owner: owner, spender: spender}]
}

// BalanceOf returns the balance of an account
func (l *Ledger) BalanceOf(a account.Account) uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.balances[a]
}

// TotalSupply returns the number of units in existence
func (l *Ledger) TotalSupply() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.totalSupply
}

// Transfer moves amount from one account to another on behalf of from
func (l *Ledger) Transfer(from, to account.Account, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.move(from, to, amount)
}

// TransferFrom moves amount from payer to custodian, spending the allowance
// payer granted to custodian
func (l *Ledger) TransferFrom(
	payer, custodian account.Account,
	amount uint64,
) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	key := allowanceKey{owner: payer, spender: custodian}
	allowed := l.allowances[key]
	if allowed < amount {
		return fmt.Errorf(
			"%w: %s allows %d to %s, need %d",
			ErrInsufficientAllowance,
			payer,
			allowed,
			custodian,
			amount,
		)
	}
	if err := l.move(payer, custodian, amount); err != nil {
		return err
	}
	l.allowances[key] = allowed - amount
	return nil
}

func (l *Ledger) move(from, to account.Account, amount uint64) error {
	if from == "" || to == "" {
		return ErrZeroAccount
	}
	balance := l.balances[from]
	if balance < amount {
		return fmt.Errorf(
			"%w: %s holds %d, need %d",
			ErrInsufficientBalance,
			from,
			balance,
			amount,
		)
	}
	l.balances[from] = balance - amount
	l.balances[to] += amount
	return nil
}
