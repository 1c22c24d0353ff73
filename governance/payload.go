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
	"encoding/hex"
	"fmt"
	"math"
	"strings"
	"time"
)

// MaxRewardRate is the highest reward rate a typed proposal may carry
const MaxRewardRate = 100

// PayloadMode selects how proposals describe their change. It is fixed when
// the engine state is first initialized
type PayloadMode uint8

const (
	PayloadModeGeneric PayloadMode = iota
	PayloadModeTyped
)

func (m PayloadMode) String() string {
	switch m {
	case PayloadModeGeneric:
		return "generic"
	case PayloadModeTyped:
		return "typed"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(m))
	}
}

// ParsePayloadMode accepts "generic" and "typed". An empty string selects
// generic
func ParsePayloadMode(s string) (PayloadMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "generic":
		return PayloadModeGeneric, nil
	case "typed":
		return PayloadModeTyped, nil
	default:
		return 0, fmt.Errorf("%w: unknown payload mode %q", ErrInvalidParameter, s)
	}
}

// ProposalKind enumerates the changes a typed proposal can make
type ProposalKind uint8

const (
	KindChangeRewardRate ProposalKind = iota + 1
	KindChangeStakeLockTime
	KindChangeUnstakeLockTime
)

func (k ProposalKind) String() string {
	switch k {
	case KindChangeRewardRate:
		return "ChangeRewardRate"
	case KindChangeStakeLockTime:
		return "ChangeStakeLockTime"
	case KindChangeUnstakeLockTime:
		return "ChangeUnstakeLockTime"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(k))
	}
}

func (k ProposalKind) valid() bool {
	return k >= KindChangeRewardRate && k <= KindChangeUnstakeLockTime
}

// Payload is the change a proposal executes when it passes. Generic payloads
// carry an encoded call that is forwarded verbatim to the parameter target.
// Typed payloads carry a kind and a value; lock times are in seconds
type Payload struct {
	Mode     PayloadMode  `cbor:"0,keyasint" json:"mode"`
	CallData []byte       `cbor:"1,keyasint,omitempty" json:"callData,omitempty"`
	Kind     ProposalKind `cbor:"2,keyasint,omitempty" json:"kind,omitempty"`
	Value    uint64       `cbor:"3,keyasint,omitempty" json:"value,omitempty"`
}

// GenericPayload wraps an encoded parameter target call
func GenericPayload(callData []byte) Payload {
	return Payload{
		Mode:     PayloadModeGeneric,
		CallData: callData,
	}
}

// TypedPayload builds a typed proposal payload
func TypedPayload(kind ProposalKind, value uint64) Payload {
	return Payload{
		Mode:  PayloadModeTyped,
		Kind:  kind,
		Value: value,
	}
}

func (p Payload) String() string {
	if p.Mode == PayloadModeTyped {
		return fmt.Sprintf("%s(%d)", p.Kind, p.Value)
	}
	return "call(0x" + hex.EncodeToString(p.CallData) + ")"
}

// payloadLimits bounds typed lock time values. Zero means unbounded
type payloadLimits struct {
	maxStakeLockTime   time.Duration
	maxUnstakeLockTime time.Duration
}

// validate checks a payload submitted to an engine running in mode
func (p Payload) validate(mode PayloadMode, limits payloadLimits) error {
	if p.Mode != mode {
		return fmt.Errorf(
			"%w: %s payload submitted to %s engine",
			ErrInvalidParameter,
			p.Mode,
			mode,
		)
	}
	if mode == PayloadModeGeneric {
		return nil
	}
	switch p.Kind {
	case KindChangeRewardRate:
		if p.Value > MaxRewardRate {
			return fmt.Errorf("%w: %w", ErrInvalidParameter, errInvalidRewardRate)
		}
	case KindChangeStakeLockTime:
		return checkLockTime(p.Value, limits.maxStakeLockTime)
	case KindChangeUnstakeLockTime:
		return checkLockTime(p.Value, limits.maxUnstakeLockTime)
	default:
		return fmt.Errorf("%w: kind %d", ErrUnknownProposalKind, uint8(p.Kind))
	}
	return nil
}

func checkLockTime(secs uint64, maxLockTime time.Duration) error {
	d, err := secondsToDuration(secs)
	if err != nil {
		return err
	}
	if maxLockTime > 0 && d > maxLockTime {
		return fmt.Errorf(
			"%w: lock time %s exceeds %s",
			ErrInvalidParameter,
			d,
			maxLockTime,
		)
	}
	return nil
}

func secondsToDuration(secs uint64) (time.Duration, error) {
	if secs > uint64(math.MaxInt64/int64(time.Second)) {
		return 0, fmt.Errorf(
			"%w: lock time of %d seconds is out of range",
			ErrInvalidParameter,
			secs,
		)
	}
	return time.Duration(secs) * time.Second, nil
}
