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
	"cmp"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/blinklabs-io/stakedao/account"
	"github.com/blinklabs-io/stakedao/database"
	"github.com/blinklabs-io/stakedao/database/models"
	"github.com/blinklabs-io/stakedao/database/types"
)

// Proposal is a read-only view of a stored proposal. An ID that was never
// submitted has Submitted set to false and a creation time of the Unix epoch
type Proposal struct {
	ID            uint64          `json:"id"`
	Submitted     bool            `json:"submitted"`
	Proposer      account.Account `json:"proposer,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
	Payload       Payload         `json:"payload"`
	VotesFor      uint64          `json:"votesFor"`
	VotesAgainst  uint64          `json:"votesAgainst"`
	Finished      bool            `json:"finished"`
	FinishedAt    time.Time       `json:"finishedAt,omitzero"`
	FinishedBy    account.Account `json:"finishedBy,omitempty"`
	Passed        bool            `json:"passed"`
	Executed      bool            `json:"executed"`
	DispatchError string          `json:"dispatchError,omitempty"`
}

// Vote is the weight an account has committed to a proposal
type Vote struct {
	For     uint64 `json:"for"`
	Against uint64 `json:"against"`
}

func payloadFromModel(p *models.Proposal) Payload {
	return Payload{
		Mode:     PayloadMode(p.PayloadMode),
		CallData: p.CallData,
		Kind:     ProposalKind(p.Kind),
		Value:    uint64(p.Value),
	}
}

func proposalFromModel(p *models.Proposal) Proposal {
	ret := Proposal{
		ID:            uint64(p.ID),
		Submitted:     p.Submitted,
		Proposer:      account.Account(p.Proposer),
		CreatedAt:     time.Unix(0, p.SubmittedAt).UTC(),
		Payload:       payloadFromModel(p),
		VotesFor:      uint64(p.VotesFor),
		VotesAgainst:  uint64(p.VotesAgainst),
		Finished:      p.Finished,
		FinishedBy:    account.Account(p.FinishedBy),
		Passed:        p.Finished && p.Passed(),
		Executed:      p.Executed,
		DispatchError: p.DispatchError,
	}
	if p.Finished {
		ret.FinishedAt = time.Unix(0, p.FinishedAt).UTC()
	}
	return ret
}

// proposalStore owns proposal records, tallies and per-voter records
type proposalStore struct {
	db     *database.Database
	mode   PayloadMode
	limits payloadLimits
}

// get returns the proposal with the given ID. IDs that were never written
// resolve to a zero-valued record that is materialized by the first write
func (s *proposalStore) get(
	id uint64,
	txn *database.Txn,
) (*models.Proposal, error) {
	p, err := s.db.GetProposal(id, txn)
	if err != nil {
		return nil, err
	}
	if p == nil {
		p = &models.Proposal{
			ID:          types.OrderedUint64(id),
			PayloadMode: uint8(s.mode),
		}
	}
	return p, nil
}

// create stores a new proposal under the next sequential ID
func (s *proposalStore) create(
	proposer account.Account,
	payload Payload,
	now time.Time,
	txn *database.Txn,
) (uint64, error) {
	if err := payload.validate(s.mode, s.limits); err != nil {
		return 0, err
	}
	state, err := s.db.GetGovernanceState(txn)
	if err != nil {
		return 0, err
	}
	if state.ProposalCount == math.MaxUint64 {
		return 0, fmt.Errorf("%w: proposal IDs exhausted", ErrInvalidParameter)
	}
	id := state.ProposalCount + 1
	existing, err := s.db.GetProposal(id, txn)
	if err != nil {
		return 0, err
	}
	if existing != nil {
		if existing.Submitted {
			return 0, fmt.Errorf(
				"proposal %d already exists with counter at %d",
				id,
				state.ProposalCount,
			)
		}
		// Votes cast on the ID before it was submitted do not carry over.
		// Backings remain until the proposal is finalized
		if err := s.db.DeleteVoteRecords(id, txn); err != nil {
			return 0, err
		}
	}
	p := &models.Proposal{
		ID:          types.OrderedUint64(id),
		Submitted:   true,
		Proposer:    proposer.String(),
		SubmittedAt: now.UnixNano(),
		PayloadMode: uint8(payload.Mode),
		CallData:    payload.CallData,
		Kind:        uint8(payload.Kind),
		Value:       types.Uint64(payload.Value),
	}
	if err := s.db.SetProposal(p, txn); err != nil {
		return 0, err
	}
	state.ProposalCount = id
	if err := s.db.SetGovernanceState(state, txn); err != nil {
		return 0, err
	}
	return id, nil
}

func addWeight(total types.Uint64, weight uint64) (types.Uint64, error) {
	if uint64(total) > math.MaxUint64-weight {
		return 0, fmt.Errorf(
			"%w: vote weight %d overflows tally %d",
			ErrInvalidParameter,
			weight,
			total,
		)
	}
	return total + types.Uint64(weight), nil
}

// recordVote adds weight to the tally of p and to the voter's record.
// Repeated votes accumulate
func (s *proposalStore) recordVote(
	p *models.Proposal,
	voter account.Account,
	weight uint64,
	support bool,
	txn *database.Txn,
) error {
	record, err := s.db.GetVoteRecord(uint64(p.ID), voter.String(), txn)
	if err != nil {
		return err
	}
	if record == nil {
		record = &models.VoteRecord{
			ProposalID: p.ID,
			Account:    voter.String(),
		}
	}
	if support {
		if p.VotesFor, err = addWeight(p.VotesFor, weight); err != nil {
			return err
		}
		if record.WeightFor, err = addWeight(record.WeightFor, weight); err != nil {
			return err
		}
	} else {
		if p.VotesAgainst, err = addWeight(p.VotesAgainst, weight); err != nil {
			return err
		}
		if record.WeightAgainst, err = addWeight(record.WeightAgainst, weight); err != nil {
			return err
		}
	}
	if err := s.db.SetProposal(p, txn); err != nil {
		return err
	}
	return s.db.SetVoteRecord(record, txn)
}

// finalize marks a proposal finished once its timelock has elapsed
func (s *proposalStore) finalize(
	id uint64,
	caller account.Account,
	now time.Time,
	finishLockTime time.Duration,
	txn *database.Txn,
) (*models.Proposal, error) {
	p, err := s.get(id, txn)
	if err != nil {
		return nil, err
	}
	unlockAt := time.Unix(0, p.SubmittedAt).Add(finishLockTime)
	if now.Before(unlockAt) {
		return nil, fmt.Errorf(
			"%w: proposal %d can be finalized at %s",
			ErrTooEarly,
			id,
			unlockAt.UTC().Format(time.RFC3339),
		)
	}
	if p.Finished {
		return nil, fmt.Errorf("%w: proposal %d", ErrAlreadyFinished, id)
	}
	state, err := s.db.GetGovernanceState(txn)
	if err != nil {
		return nil, err
	}
	state.FinishCount++
	if err := s.db.SetGovernanceState(state, txn); err != nil {
		return nil, err
	}
	p.Finished = true
	p.FinishedAt = now.UnixNano()
	p.FinishedBy = caller.String()
	p.FinishSeq = types.Uint64(state.FinishCount)
	if err := s.db.SetProposal(p, txn); err != nil {
		return nil, err
	}
	return p, nil
}

// recordDispatch stores the outcome of executing a passed proposal
func (s *proposalStore) recordDispatch(
	id uint64,
	dispatchErr error,
	txn *database.Txn,
) error {
	p, err := s.get(id, txn)
	if err != nil {
		return err
	}
	p.Executed = dispatchErr == nil
	p.DispatchError = ""
	if dispatchErr != nil {
		p.DispatchError = dispatchErr.Error()
	}
	return s.db.SetProposal(p, txn)
}

// executed returns the proposals whose payload was applied, in the order
// they were finalized
func (s *proposalStore) executed(txn *database.Txn) ([]models.Proposal, error) {
	proposals, err := s.db.GetProposals(txn)
	if err != nil {
		return nil, err
	}
	proposals = slices.DeleteFunc(proposals, func(p models.Proposal) bool {
		return !p.Executed
	})
	slices.SortFunc(proposals, func(a, b models.Proposal) int {
		return cmp.Compare(a.FinishSeq, b.FinishSeq)
	})
	return proposals, nil
}

func (s *proposalStore) vote(
	id uint64,
	voter account.Account,
	txn *database.Txn,
) (Vote, error) {
	record, err := s.db.GetVoteRecord(id, voter.String(), txn)
	if err != nil {
		return Vote{}, err
	}
	if record == nil {
		return Vote{}, nil
	}
	return Vote{
		For:     uint64(record.WeightFor),
		Against: uint64(record.WeightAgainst),
	}, nil
}
