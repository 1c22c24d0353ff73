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
	"github.com/blinklabs-io/stakedao/account"
	"github.com/blinklabs-io/stakedao/event"
)

const (
	ProposalCreatedEventType   event.EventType = "governance.proposal.created"
	VoteCastEventType          event.EventType = "governance.vote.cast"
	ProposalFinalizedEventType event.EventType = "governance.proposal.finalized"
	DepositedEventType         event.EventType = "governance.deposit"
	WithdrawnEventType         event.EventType = "governance.withdraw"
	RoleGrantedEventType       event.EventType = "governance.role.granted"
)

// EventTypes lists every event type the engine emits
var EventTypes = []event.EventType{
	ProposalCreatedEventType,
	VoteCastEventType,
	ProposalFinalizedEventType,
	DepositedEventType,
	WithdrawnEventType,
	RoleGrantedEventType,
}

type ProposalCreatedEvent struct {
	ID       uint64          `cbor:"0,keyasint" json:"id"`
	Proposer account.Account `cbor:"1,keyasint" json:"proposer"`
	Payload  Payload         `cbor:"2,keyasint" json:"payload"`
}

type VoteCastEvent struct {
	Account account.Account `cbor:"0,keyasint" json:"account"`
	ID      uint64          `cbor:"1,keyasint" json:"id"`
	Support bool            `cbor:"2,keyasint" json:"support"`
	Weight  uint64          `cbor:"3,keyasint" json:"weight"`
}

// ProposalFinalizedEvent is emitted whether or not the proposal passed
type ProposalFinalizedEvent struct {
	Account account.Account `cbor:"0,keyasint" json:"account"`
	ID      uint64          `cbor:"1,keyasint" json:"id"`
	Payload Payload         `cbor:"2,keyasint" json:"payload"`
	Passed  bool            `cbor:"3,keyasint" json:"passed"`
}

type DepositedEvent struct {
	Account account.Account `cbor:"0,keyasint" json:"account"`
	Amount  uint64          `cbor:"1,keyasint" json:"amount"`
}

type WithdrawnEvent struct {
	Account account.Account `cbor:"0,keyasint" json:"account"`
	Amount  uint64          `cbor:"1,keyasint" json:"amount"`
}

type RoleGrantedEvent struct {
	Role    Role            `cbor:"0,keyasint" json:"role"`
	Grantor account.Account `cbor:"1,keyasint" json:"grantor"`
	Grantee account.Account `cbor:"2,keyasint" json:"grantee"`
}

// NewEventData returns a pointer to a new, empty payload value for the
// given event type, or nil for unknown types
func NewEventData(eventType event.EventType) any {
	switch eventType {
	case ProposalCreatedEventType:
		return &ProposalCreatedEvent{}
	case VoteCastEventType:
		return &VoteCastEvent{}
	case ProposalFinalizedEventType:
		return &ProposalFinalizedEvent{}
	case DepositedEventType:
		return &DepositedEvent{}
	case WithdrawnEventType:
		return &WithdrawnEvent{}
	case RoleGrantedEventType:
		return &RoleGrantedEvent{}
	default:
		return nil
	}
}
