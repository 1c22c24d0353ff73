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
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePayloadMode(t *testing.T) {
	testDefs := []struct {
		input    string
		expected PayloadMode
		err      bool
	}{
		{input: "", expected: PayloadModeGeneric},
		{input: "generic", expected: PayloadModeGeneric},
		{input: " Typed ", expected: PayloadModeTyped},
		{input: "enum", err: true},
	}
	for _, testDef := range testDefs {
		mode, err := ParsePayloadMode(testDef.input)
		if testDef.err {
			require.ErrorIs(t, err, ErrInvalidParameter)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, testDef.expected, mode)
		assert.Equal(t, mode, mustParsePayloadMode(t, mode.String()))
	}
}

func mustParsePayloadMode(t *testing.T, s string) PayloadMode {
	t.Helper()
	mode, err := ParsePayloadMode(s)
	require.NoError(t, err)
	return mode
}

func TestPayloadString(t *testing.T) {
	assert.Equal(t, "call(0x8201)", GenericPayload([]byte{0x82, 0x01}).String())
	assert.Equal(
		t,
		"ChangeStakeLockTime(3600)",
		TypedPayload(KindChangeStakeLockTime, 3600).String(),
	)
	assert.Equal(t, "Unknown(7)", ProposalKind(7).String())
	assert.Equal(t, "unknown(9)", PayloadMode(9).String())
}

func TestPayloadValidate(t *testing.T) {
	limits := payloadLimits{
		maxStakeLockTime:   24 * time.Hour,
		maxUnstakeLockTime: 0,
	}
	testDefs := []struct {
		name    string
		mode    PayloadMode
		payload Payload
		err     error
	}{
		{
			name:    "generic call",
			mode:    PayloadModeGeneric,
			payload: GenericPayload([]byte{0x01}),
		},
		{
			name:    "generic payloads are opaque",
			mode:    PayloadModeGeneric,
			payload: GenericPayload(nil),
		},
		{
			name:    "typed payload in generic mode",
			mode:    PayloadModeGeneric,
			payload: TypedPayload(KindChangeRewardRate, 1),
			err:     ErrInvalidParameter,
		},
		{
			name:    "generic payload in typed mode",
			mode:    PayloadModeTyped,
			payload: GenericPayload([]byte{0x01}),
			err:     ErrInvalidParameter,
		},
		{
			name:    "reward rate at bound",
			mode:    PayloadModeTyped,
			payload: TypedPayload(KindChangeRewardRate, MaxRewardRate),
		},
		{
			name:    "reward rate zero",
			mode:    PayloadModeTyped,
			payload: TypedPayload(KindChangeRewardRate, 0),
		},
		{
			name:    "reward rate above bound",
			mode:    PayloadModeTyped,
			payload: TypedPayload(KindChangeRewardRate, MaxRewardRate+1),
			err:     errInvalidRewardRate,
		},
		{
			name:    "stake lock at bound",
			mode:    PayloadModeTyped,
			payload: TypedPayload(KindChangeStakeLockTime, 24*3600),
		},
		{
			name:    "stake lock above bound",
			mode:    PayloadModeTyped,
			payload: TypedPayload(KindChangeStakeLockTime, 24*3600+1),
			err:     ErrInvalidParameter,
		},
		{
			name:    "unbounded unstake lock",
			mode:    PayloadModeTyped,
			payload: TypedPayload(KindChangeUnstakeLockTime, 365*24*3600),
		},
		{
			name:    "lock time out of range",
			mode:    PayloadModeTyped,
			payload: TypedPayload(KindChangeUnstakeLockTime, math.MaxUint64),
			err:     ErrInvalidParameter,
		},
		{
			name:    "unknown kind",
			mode:    PayloadModeTyped,
			payload: TypedPayload(ProposalKind(0), 1),
			err:     ErrUnknownProposalKind,
		},
	}
	for _, testDef := range testDefs {
		t.Run(testDef.name, func(t *testing.T) {
			err := testDef.payload.validate(testDef.mode, limits)
			if testDef.err == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, testDef.err)
		})
	}
}

func TestInvalidRewardRateMessage(t *testing.T) {
	err := TypedPayload(KindChangeRewardRate, 101).
		validate(PayloadModeTyped, payloadLimits{})
	require.True(t, errors.Is(err, ErrInvalidParameter))
	assert.Equal(t, "invalid parameter: Invalid rewardRate", err.Error())
}

func TestSecondsToDuration(t *testing.T) {
	d, err := secondsToDuration(90)
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, d)
	_, err = secondsToDuration(uint64(math.MaxInt64))
	require.ErrorIs(t, err, ErrInvalidParameter)
}
