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

import "github.com/blinklabs-io/stakedao/database/types"

// Payload modes
const (
	PayloadModeGeneric = 0
	PayloadModeTyped   = 1
)

// Proposal is a change proposal and its running tally. Records for ids that
// were voted on or finalized without ever being submitted have Submitted set
// to false and a zero SubmittedAt
type Proposal struct {
	ID            types.OrderedUint64 `gorm:"primaryKey;autoIncrement:false;size:20"`
	Submitted     bool                `gorm:"not null"`
	Proposer      string              `gorm:"size:42"`
	SubmittedAt   int64               `gorm:"not null"` // unix nanoseconds
	PayloadMode   uint8               `gorm:"not null"`
	CallData      []byte
	Kind          uint8
	Value         types.Uint64
	VotesFor      types.Uint64
	VotesAgainst  types.Uint64
	Finished      bool         `gorm:"index;not null"`
	FinishedAt    int64        // unix nanoseconds
	FinishedBy    string       `gorm:"size:42"`
	FinishSeq     types.Uint64 // position in finalization order
	Executed      bool
	DispatchError string
}

func (Proposal) TableName() string {
	return "proposal"
}

// Passed reports whether the tally favors the proposal. Ties fail
func (p *Proposal) Passed() bool {
	return p.VotesFor > p.VotesAgainst
}

// VoteRecord holds the weight an account committed to a proposal
type VoteRecord struct {
	ID            uint                `gorm:"primarykey"`
	ProposalID    types.OrderedUint64 `gorm:"uniqueIndex:idx_vote_record_unique,priority:1;size:20;not null"`
	Account       string              `gorm:"uniqueIndex:idx_vote_record_unique,priority:2;size:42;not null"`
	WeightFor     types.Uint64
	WeightAgainst types.Uint64
}

func (VoteRecord) TableName() string {
	return "vote_record"
}

// Backing links a depositor to a proposal their stake is committed to
type Backing struct {
	ID         uint                `gorm:"primarykey"`
	Account    string              `gorm:"uniqueIndex:idx_backing_unique,priority:1;size:42;not null"`
	ProposalID types.OrderedUint64 `gorm:"uniqueIndex:idx_backing_unique,priority:2;index;size:20;not null"`
}

func (Backing) TableName() string {
	return "backing"
}

// GovernanceState holds singleton engine state
type GovernanceState struct {
	ID            uint `gorm:"primarykey"`
	ProposalCount uint64
	FinishCount   uint64
	PayloadMode   uint8
	Initialized   bool
}

func (GovernanceState) TableName() string {
	return "governance_state"
}
