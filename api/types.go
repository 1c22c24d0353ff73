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
	"time"

	"github.com/blinklabs-io/stakedao/account"
	"github.com/blinklabs-io/stakedao/governance"
)

// RootResponse is returned by GET /
type RootResponse struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// HealthResponse is returned by GET /health
type HealthResponse struct {
	IsHealthy bool `json:"is_healthy"`
}

type ErrorResponse struct {
	StatusCode int    `json:"status_code"`
	Error      string `json:"error"`
	Message    string `json:"message"`
}

// GovernanceResponse describes the engine configuration
type GovernanceResponse struct {
	Account        account.Account `json:"account"`
	PayloadMode    string          `json:"payload_mode"`
	FinishLockTime int64           `json:"finish_lock_time"`
	ProposalCount  int             `json:"proposal_count"`
}

type DepositResponse struct {
	Account         account.Account `json:"account"`
	Balance         uint64          `json:"balance"`
	BackedProposals []uint64        `json:"backed_proposals"`
}

type VoteResponse struct {
	ProposalID uint64          `json:"proposal_id"`
	Account    account.Account `json:"account"`
	For        uint64          `json:"for"`
	Against    uint64          `json:"against"`
}

type RoleResponse struct {
	Role    governance.Role   `json:"role"`
	Members []account.Account `json:"members"`
}

// StakingParamsResponse reports lock times in seconds
type StakingParamsResponse struct {
	RewardRate      uint64 `json:"reward_rate"`
	StakeLockTime   int64  `json:"stake_lock_time"`
	UnstakeLockTime int64  `json:"unstake_lock_time"`
}

// JournalEntryResponse is one persisted governance event
type JournalEntryResponse struct {
	Seq       uint64    `json:"seq"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}
