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

package models

const (
	RoleAdmin    = "admin"
	RoleProposer = "proposer"
)

// RoleMember grants a role to an account
type RoleMember struct {
	ID        uint   `gorm:"primarykey"`
	Role      string `gorm:"uniqueIndex:idx_role_member_unique,priority:1;size:16;not null"`
	Account   string `gorm:"uniqueIndex:idx_role_member_unique,priority:2;size:42;not null"`
	GrantedBy string `gorm:"size:42"`
}

func (RoleMember) TableName() string {
	return "role_member"
}
