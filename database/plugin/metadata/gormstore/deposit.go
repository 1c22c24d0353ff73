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

// GetDeposit returns the deposit for an account, or nil if it never deposited
func (s *Store) GetDeposit(
	account string,
	txn types.Txn,
) (*models.Deposit, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	var deposit models.Deposit
	if result := db.Where("account = ?", account).
		First(&deposit); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &deposit, nil
}

// GetDeposits returns all deposit records ordered by account
func (s *Store) GetDeposits(txn types.Txn) ([]models.Deposit, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	var deposits []models.Deposit
	if result := db.Order("account").Find(&deposits); result.Error != nil {
		return nil, result.Error
	}
	return deposits, nil
}

// SetDeposit creates or updates the deposit for an account
func (s *Store) SetDeposit(deposit *models.Deposit, txn types.Txn) error {
	db, err := s.resolveDB(txn)
	if err != nil {
		return err
	}
	onConflict := clause.OnConflict{
		Columns: []clause.Column{{Name: "account"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"balance",
			"updated_at",
		}),
	}
	return db.Clauses(onConflict).Create(deposit).Error
}

// AddBacking records that an account's stake backs a proposal. Adding an
// existing backing is a no-op
func (s *Store) AddBacking(
	account string,
	proposalId uint64,
	txn types.Txn,
) error {
	db, err := s.resolveDB(txn)
	if err != nil {
		return err
	}
	backing := models.Backing{
		Account:    account,
		ProposalID: types.OrderedUint64(proposalId),
	}
	return db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&backing).Error
}

// GetBackings returns the backings held by an account ordered by proposal id
func (s *Store) GetBackings(
	account string,
	txn types.Txn,
) ([]models.Backing, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	var backings []models.Backing
	if result := db.Where("account = ?", account).
		Order("proposal_id").
		Find(&backings); result.Error != nil {
		return nil, result.Error
	}
	return backings, nil
}

// CountBackings returns the number of proposals an account's stake backs
func (s *Store) CountBackings(account string, txn types.Txn) (int64, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return 0, err
	}
	var count int64
	if result := db.Model(&models.Backing{}).
		Where("account = ?", account).
		Count(&count); result.Error != nil {
		return 0, result.Error
	}
	return count, nil
}

// DeleteBackingsByProposal removes every backing of a proposal and returns
// the number of rows removed
func (s *Store) DeleteBackingsByProposal(
	proposalId uint64,
	txn types.Txn,
) (int64, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return 0, err
	}
	result := db.Where("proposal_id = ?", types.OrderedUint64(proposalId)).
		Delete(&models.Backing{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
