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
	"github.com/blinklabs-io/stakedao/database/types"
)

func metadataTxn(txn *Txn) types.Txn {
	if txn == nil {
		return nil
	}
	return txn.Metadata()
}

// GetProposal returns the stored proposal, or nil if the ID was never written
func (d *Database) GetProposal(
	id uint64,
	txn *Txn,
) (*models.Proposal, error) {
	return d.metadata.GetProposal(id, metadataTxn(txn))
}

// GetProposals returns all stored proposals ordered by ID
func (d *Database) GetProposals(txn *Txn) ([]models.Proposal, error) {
	return d.metadata.GetProposals(metadataTxn(txn))
}

func (d *Database) SetProposal(proposal *models.Proposal, txn *Txn) error {
	return d.metadata.SetProposal(proposal, metadataTxn(txn))
}

func (d *Database) GetVoteRecord(
	proposalId uint64,
	account string,
	txn *Txn,
) (*models.VoteRecord, error) {
	return d.metadata.GetVoteRecord(proposalId, account, metadataTxn(txn))
}

func (d *Database) GetVoteRecords(
	proposalId uint64,
	txn *Txn,
) ([]models.VoteRecord, error) {
	return d.metadata.GetVoteRecords(proposalId, metadataTxn(txn))
}

func (d *Database) SetVoteRecord(record *models.VoteRecord, txn *Txn) error {
	return d.metadata.SetVoteRecord(record, metadataTxn(txn))
}

// DeleteVoteRecords removes every per-voter record of a proposal
func (d *Database) DeleteVoteRecords(proposalId uint64, txn *Txn) error {
	return d.metadata.DeleteVoteRecords(proposalId, metadataTxn(txn))
}

// GetGovernanceState returns the singleton engine state row
func (d *Database) GetGovernanceState(
	txn *Txn,
) (*models.GovernanceState, error) {
	return d.metadata.GetGovernanceState(metadataTxn(txn))
}

func (d *Database) SetGovernanceState(
	state *models.GovernanceState,
	txn *Txn,
) error {
	return d.metadata.SetGovernanceState(state, metadataTxn(txn))
}
