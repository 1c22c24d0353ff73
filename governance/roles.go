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

	"github.com/blinklabs-io/stakedao/account"
	"github.com/blinklabs-io/stakedao/database"
	"github.com/blinklabs-io/stakedao/database/models"
)

// Role is a capability that can be held by an account
type Role string

const (
	RoleAdmin    Role = models.RoleAdmin
	RoleProposer Role = models.RoleProposer
)

// ParseRole accepts the role names used in storage
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin, RoleProposer:
		return Role(s), nil
	default:
		return "", fmt.Errorf("%w: unknown role %q", ErrInvalidParameter, s)
	}
}

// roleRegistry is the capability table. Membership only grows
type roleRegistry struct {
	db *database.Database
}

func (r *roleRegistry) has(
	role Role,
	a account.Account,
	txn *database.Txn,
) (bool, error) {
	return r.db.HasRole(string(role), a.String(), txn)
}

// grant adds a membership and reports whether it was new
func (r *roleRegistry) grant(
	role Role,
	grantor account.Account,
	grantee account.Account,
	txn *database.Txn,
) (bool, error) {
	return r.db.AddRoleMember(
		&models.RoleMember{
			Role:      string(role),
			Account:   grantee.String(),
			GrantedBy: grantor.String(),
		},
		txn,
	)
}

func (r *roleRegistry) members(
	role Role,
	txn *database.Txn,
) ([]account.Account, error) {
	members, err := r.db.GetRoleMembers(string(role), txn)
	if err != nil {
		return nil, err
	}
	ret := make([]account.Account, 0, len(members))
	for _, member := range members {
		ret = append(ret, account.Account(member.Account))
	}
	return ret, nil
}
