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

package api

import (
	"context"
	"time"

	"github.com/blinklabs-io/stakedao/account"
	"github.com/blinklabs-io/stakedao/database"
	"github.com/blinklabs-io/stakedao/governance"
	"github.com/blinklabs-io/stakedao/staking"
)

// Governance is the read side of the governance engine used by the API
// server. *governance.Engine implements it
type Governance interface {
	Account() account.Account
	FinishLockTime() time.Duration
	PayloadMode() governance.PayloadMode

	Proposal(ctx context.Context, id uint64) (governance.Proposal, error)
	Proposals(ctx context.Context) ([]governance.Proposal, error)
	VoteRecord(
		ctx context.Context,
		id uint64,
		a account.Account,
	) (governance.Vote, error)

	DepositOf(ctx context.Context, a account.Account) (uint64, error)
	Deposits(ctx context.Context) ([]governance.DepositInfo, error)
	BackedProposals(ctx context.Context, a account.Account) ([]uint64, error)

	RoleMembers(
		ctx context.Context,
		role governance.Role,
	) ([]account.Account, error)

	Journal(
		ctx context.Context,
		afterSeq uint64,
		limit int,
	) ([]database.JournalEntry, error)
}

// StakingParams reports the current staking parameters
type StakingParams interface {
	Params() staking.Params
}

var (
	_ Governance    = (*governance.Engine)(nil)
	_ StakingParams = (*staking.Staking)(nil)
)
