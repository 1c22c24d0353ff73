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

package gormstore

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/blinklabs-io/stakedao/database/models"
	"github.com/blinklabs-io/stakedao/database/types"
)

const governanceStateRowId = 1

// GetProposal returns the proposal with the given id, or nil if no record exists
func (s *Store) GetProposal(
	id uint64,
	txn types.Txn,
) (*models.Proposal, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	var proposal models.Proposal
	if result := db.Where("id = ?", types.OrderedUint64(id)).
		First(&proposal); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &proposal, nil
}

// GetProposals returns all proposal records ordered by id
func (s *Store) GetProposals(txn types.Txn) ([]models.Proposal, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	var proposals []models.Proposal
	if result := db.Order("id").Find(&proposals); result.Error != nil {
		return nil, result.Error
	}
	return proposals, nil
}

// SetProposal creates or replaces a proposal record
func (s *Store) SetProposal(
	proposal *models.Proposal,
	txn types.Txn,
) error {
	db, err := s.resolveDB(txn)
	if err != nil {
		return err
	}
	onConflict := clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}
	return db.Clauses(onConflict).Create(proposal).Error
}

// GetVoteRecord returns the weight an account committed to a proposal, or nil
func (s *Store) GetVoteRecord(
	proposalId uint64,
	account string,
	txn types.Txn,
) (*models.VoteRecord, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	var record models.VoteRecord
	if result := db.Where(
		"proposal_id = ? AND account = ?",
		types.OrderedUint64(proposalId),
		account,
	).First(&record); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &record, nil
}

// GetVoteRecords returns all vote records for a proposal
func (s *Store) GetVoteRecords(
	proposalId uint64,
	txn types.Txn,
) ([]models.VoteRecord, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	var records []models.VoteRecord
	if result := db.Where(
		"proposal_id = ?",
		types.OrderedUint64(proposalId),
	).Order("id").
		Find(&records); result.Error != nil {
		return nil, result.Error
	}
	return records, nil
}

// SetVoteRecord creates or updates the vote record for a (proposal, account) pair
func (s *Store) SetVoteRecord(
	record *models.VoteRecord,
	txn types.Txn,
) error {
	db, err := s.resolveDB(txn)
	if err != nil {
		return err
	}
	onConflict := clause.OnConflict{
		Columns: []clause.Column{
			{Name: "proposal_id"},
			{Name: "account"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"weight_for",
			"weight_against",
		}),
	}
	return db.Clauses(onConflict).Create(record).Error
}

// DeleteVoteRecords removes all vote records for a proposal
func (s *Store) DeleteVoteRecords(proposalId uint64, txn types.Txn) error {
	db, err := s.resolveDB(txn)
	if err != nil {
		return err
	}
	return db.Where("proposal_id = ?", types.OrderedUint64(proposalId)).
		Delete(&models.VoteRecord{}).Error
}

// GetGovernanceState returns the engine state. A zero value is returned when
// no state has been written yet
func (s *Store) GetGovernanceState(
	txn types.Txn,
) (*models.GovernanceState, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	var state models.GovernanceState
	if result := db.Where("id = ?", governanceStateRowId).
		First(&state); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return &models.GovernanceState{ID: governanceStateRowId}, nil
		}
		return nil, result.Error
	}
	return &state, nil
}

// SetGovernanceState writes the engine state
func (s *Store) SetGovernanceState(
	state *models.GovernanceState,
	txn types.Txn,
) error {
	db, err := s.resolveDB(txn)
	if err != nil {
		return err
	}
	state.ID = governanceStateRowId
	onConflict := clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}
	return db.Clauses(onConflict).Create(state).Error
}
