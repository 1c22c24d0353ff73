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

import "errors"

// Errors returned by the engine. Messages of the errors that a depositor or
// proposer can trigger match the revert reasons of the deployed DAO contract
var (
	ErrUnauthorized        = errors.New("unauthorized")
	ErrInsufficientDeposit = errors.New("U dont have deposit enough")
	ErrAlreadyFinished     = errors.New("Voting already finished")
	ErrTooEarly            = errors.New("U have to wait")
	ErrNothingToWithdraw   = errors.New("Nothing to withdraw")
	ErrPendingVotes        = errors.New(
		"Not all votings of this voter were finished",
	)
	ErrInvalidParameter    = errors.New("invalid parameter")
	ErrUnknownProposalKind = errors.New("Unknown proposal")
	ErrTransferFailed      = errors.New("transfer failed")
	ErrDispatchFailed      = errors.New("dispatch failed")
)

// errInvalidRewardRate carries the revert reason of the typed reward rate check
var errInvalidRewardRate = errors.New("Invalid rewardRate")
