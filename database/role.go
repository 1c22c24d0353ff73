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

func (d *Database) HasRole(role string, account string, txn *Txn) (bool, error) {
	return d.metadata.HasRole(role, account, metadataTxn(txn))
}

// AddRoleMember grants a role. The returned bool is false when the account
// already held the role
func (d *Database) AddRoleMember(
	member *models.RoleMember,
	txn *Txn,
) (bool, error) {
	return d.metadata.AddRoleMember(member, metadataTxn(txn))
}

func (d *Database) GetRoleMembers(
	role string,
	txn *Txn,
) ([]models.RoleMember, error) {
	return d.metadata.GetRoleMembers(role, metadataTxn(txn))
}
