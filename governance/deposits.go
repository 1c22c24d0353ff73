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
	"fmt"
	"math"

	"github.com/blinklabs-io/stakedao/account"
	"github.com/blinklabs-io/stakedao/database"
	"github.com/blinklabs-io/stakedao/database/models"
	"github.com/blinklabs-io/stakedao/database/types"
)

// DepositInfo is the locked stake of one account
type DepositInfo struct {
	Account account.Account `json:"account"`
	Balance uint64          `json:"balance"`
}

// depositLedger tracks custody balances and the proposals each depositor
// backs
type depositLedger struct {
	db *database.Database
}

func (l *depositLedger) balance(
	a account.Account,
	txn *database.Txn,
) (uint64, error) {
	deposit, err := l.db.GetDeposit(a.String(), txn)
	if err != nil {
		return 0, err
	}
	if deposit == nil {
		return 0, nil
	}
	return uint64(deposit.Balance), nil
}

// credit adds amount to the balance and returns the new balance
func (l *depositLedger) credit(
	a account.Account,
	amount uint64,
	txn *database.Txn,
) (uint64, error) {
	balance, err := l.balance(a, txn)
	if err != nil {
		return 0, err
	}
	if balance > math.MaxUint64-amount {
		return 0, fmt.Errorf(
			"%w: deposit of %d overflows balance %d",
			ErrInvalidParameter,
			amount,
			balance,
		)
	}
	balance += amount
	if err := l.db.SetDeposit(
		&models.Deposit{Account: a.String(), Balance: types.Uint64(balance)},
		txn,
	); err != nil {
		return 0, err
	}
	return balance, nil
}

// drain zeroes the balance. The deposit row is kept
func (l *depositLedger) drain(a account.Account, txn *database.Txn) error {
	return l.db.SetDeposit(
		&models.Deposit{Account: a.String(), Balance: 0},
		txn,
	)
}

func (l *depositLedger) markBacking(
	a account.Account,
	proposalId uint64,
	txn *database.Txn,
) error {
	return l.db.AddBacking(a.String(), proposalId, txn)
}

// clearProposal removes every backing of a proposal with a single delete
func (l *depositLedger) clearProposal(
	proposalId uint64,
	txn *database.Txn,
) (int64, error) {
	return l.db.DeleteBackingsByProposal(proposalId, txn)
}

func (l *depositLedger) pending(
	a account.Account,
	txn *database.Txn,
) (int64, error) {
	return l.db.CountBackings(a.String(), txn)
}

func (l *depositLedger) backed(
	a account.Account,
	txn *database.Txn,
) ([]uint64, error) {
	backings, err := l.db.GetBackings(a.String(), txn)
	if err != nil {
		return nil, err
	}
	ret := make([]uint64, 0, len(backings))
	for _, backing := range backings {
		ret = append(ret, uint64(backing.ProposalID))
	}
	return ret, nil
}

func (l *depositLedger) all(txn *database.Txn) ([]DepositInfo, error) {
	deposits, err := l.db.GetDeposits(txn)
	if err != nil {
		return nil, err
	}
	ret := make([]DepositInfo, 0, len(deposits))
	for _, deposit := range deposits {
		ret = append(
			ret,
			DepositInfo{
				Account: account.Account(deposit.Account),
				Balance: uint64(deposit.Balance),
			},
		)
	}
	return ret, nil
}
