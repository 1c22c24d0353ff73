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

// HasRole reports whether an account holds a role
func (s *Store) HasRole(
	role string,
	account string,
	txn types.Txn,
) (bool, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return false, err
	}
	var member models.RoleMember
	if result := db.Where("role = ? AND account = ?", role, account).
		First(&member); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, result.Error
	}
	return true, nil
}

// AddRoleMember grants a role and reports whether membership changed
func (s *Store) AddRoleMember(
	member *models.RoleMember,
	txn types.Txn,
) (bool, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return false, err
	}
	result := db.Clauses(clause.OnConflict{DoNothing: true}).Create(member)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// GetRoleMembers returns the members of a role in grant order
func (s *Store) GetRoleMembers(
	role string,
	txn types.Txn,
) ([]models.RoleMember, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	var members []models.RoleMember
	if result := db.Where("role = ?", role).
		Order("id").
		Find(&members); result.Error != nil {
		return nil, result.Error
	}
	return members, nil
}
