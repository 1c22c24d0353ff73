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

package database

import (
	"github.com/blinklabs-io/stakedao/database/models"
)

// GetDeposit returns the deposit of an account, or nil if it never deposited
func (d *Database) GetDeposit(
	account string,
	txn *Txn,
) (*models.Deposit, error) {
	return d.metadata.GetDeposit(account, metadataTxn(txn))
}

func (d *Database) GetDeposits(txn *Txn) ([]models.Deposit, error) {
	return d.metadata.GetDeposits(metadataTxn(txn))
}

func (d *Database) SetDeposit(deposit *models.Deposit, txn *Txn) error {
	return d.metadata.SetDeposit(deposit, metadataTxn(txn))
}

// AddBacking records that an account backs a proposal. Adding an existing
// backing is a no-op
func (d *Database) AddBacking(
	account string,
	proposalId uint64,
	txn *Txn,
) error {
	return d.metadata.AddBacking(account, proposalId, metadataTxn(txn))
}

func (d *Database) GetBackings(
	account string,
	txn *Txn,
) ([]models.Backing, error) {
	return d.metadata.GetBackings(account, metadataTxn(txn))
}

func (d *Database) CountBackings(account string, txn *Txn) (int64, error) {
	return d.metadata.CountBackings(account, metadataTxn(txn))
}

// DeleteBackingsByProposal clears the backing of every account for a
// proposal and returns the number of backings removed
func (d *Database) DeleteBackingsByProposal(
	proposalId uint64,
	txn *Txn,
) (int64, error) {
	return d.metadata.DeleteBackingsByProposal(proposalId, metadataTxn(txn))
}
