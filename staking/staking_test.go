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

package staking_test

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/stakedao/account"
	"github.com/blinklabs-io/stakedao/staking"
)

var (
	testOwner = account.MustParse("0x0000000000000000000000000000000000000001")
	testAdmin = account.MustParse("0x0000000000000000000000000000000000000002")
	testOther = account.MustParse("0x0000000000000000000000000000000000000003")
)

func newTestStaking(t *testing.T, cfg staking.StakingConfig) *staking.Staking {
	t.Helper()
	cfg.Owner = testOwner
	s := staking.NewStaking(cfg)
	require.NoError(t, s.SetAdmin(testOwner, testAdmin))
	return s
}

func TestDefaultParams(t *testing.T) {
	s := staking.NewStaking(staking.StakingConfig{Owner: testOwner})
	p := s.Params()
	assert.Equal(t, uint64(10), p.RewardRate)
	assert.Equal(t, 24*time.Hour, p.StakeLockTime)
	assert.Equal(t, 48*time.Hour, p.UnstakeLockTime)
}

func TestSetAdmin(t *testing.T) {
	s := staking.NewStaking(staking.StakingConfig{Owner: testOwner})
	require.ErrorIs(t, s.SetAdmin(testOther, testAdmin), staking.ErrNotOwner)
	require.NoError(t, s.SetAdmin(testOwner, testAdmin))
	require.NoError(t, s.SetAdmin(testOwner, testAdmin))
	require.ErrorIs(
		t,
		s.SetAdmin(testOwner, testOther),
		staking.ErrAdminAlreadySet,
	)
	assert.Equal(t, testAdmin, s.Admin())
}

func TestSettersRequireAdmin(t *testing.T) {
	s := staking.NewStaking(staking.StakingConfig{Owner: testOwner})
	// No admin assigned yet
	require.ErrorIs(t, s.SetRewardRate(testOwner, 5), staking.ErrNotAdmin)
	require.NoError(t, s.SetAdmin(testOwner, testAdmin))
	require.ErrorIs(t, s.SetRewardRate(testOther, 5), staking.ErrNotAdmin)
	require.ErrorIs(
		t,
		s.SetStakeLockTime(testOwner, time.Hour),
		staking.ErrNotAdmin,
	)
	require.ErrorIs(
		t,
		s.SetUnstakeLockTime(testOther, time.Hour),
		staking.ErrNotAdmin,
	)
	assert.Equal(t, staking.DefaultParams(), s.Params())
}

func TestSetRewardRate(t *testing.T) {
	reg := prometheus.NewRegistry()
	s := newTestStaking(t, staking.StakingConfig{PromRegistry: reg})
	require.NoError(t, s.SetRewardRate(testAdmin, 100))
	assert.Equal(t, uint64(100), s.Params().RewardRate)
	require.ErrorIs(
		t,
		s.SetRewardRate(testAdmin, 101),
		staking.ErrInvalidRewardRate,
	)
	assert.Equal(t, uint64(100), s.Params().RewardRate)
	count, err := testutil.GatherAndCount(reg, "stakedao_staking_reward_rate")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestLockTimeBounds(t *testing.T) {
	s := newTestStaking(t, staking.StakingConfig{
		MaxStakeLockTime:   7 * 24 * time.Hour,
		MaxUnstakeLockTime: 14 * 24 * time.Hour,
	})
	require.NoError(t, s.SetStakeLockTime(testAdmin, 7*24*time.Hour))
	require.ErrorIs(
		t,
		s.SetStakeLockTime(testAdmin, 7*24*time.Hour+time.Second),
		staking.ErrInvalidLockTime,
	)
	require.NoError(t, s.SetUnstakeLockTime(testAdmin, 0))
	require.ErrorIs(
		t,
		s.SetUnstakeLockTime(testAdmin, -time.Second),
		staking.ErrInvalidLockTime,
	)
	p := s.Params()
	assert.Equal(t, 7*24*time.Hour, p.StakeLockTime)
	assert.Equal(t, time.Duration(0), p.UnstakeLockTime)
}

func TestApply(t *testing.T) {
	s := newTestStaking(t, staking.StakingConfig{})
	testDefs := []struct {
		name      string
		call      []byte
		expectErr error
		check     func(staking.Params) bool
	}{
		{
			name: "reward rate",
			call: staking.MustEncodeCall(staking.MethodSetRewardRate, 20),
			check: func(p staking.Params) bool {
				return p.RewardRate == 20
			},
		},
		{
			name: "stake lock time",
			call: staking.MustEncodeCall(staking.MethodSetStakeLockTime, 3600),
			check: func(p staking.Params) bool {
				return p.StakeLockTime == time.Hour
			},
		},
		{
			name: "unstake lock time",
			call: staking.MustEncodeCall(
				staking.MethodSetUnstakeLockTime,
				7200,
			),
			check: func(p staking.Params) bool {
				return p.UnstakeLockTime == 2*time.Hour
			},
		},
		{
			name:      "unknown method",
			call:      staking.MustEncodeCall("setOwner", 1),
			expectErr: staking.ErrUnknownMethod,
		},
		{
			name:      "wrong arity",
			call:      staking.MustEncodeCall(staking.MethodSetRewardRate),
			expectErr: staking.ErrMalformedCall,
		},
		{
			name:      "garbage",
			call:      []byte{0xff, 0x00, 0x01},
			expectErr: staking.ErrMalformedCall,
		},
		{
			name:      "empty",
			call:      nil,
			expectErr: staking.ErrMalformedCall,
		},
		{
			name: "lock time overflow",
			call: staking.MustEncodeCall(
				staking.MethodSetStakeLockTime,
				1<<62,
			),
			expectErr: staking.ErrInvalidLockTime,
		},
	}
	for _, testDef := range testDefs {
		t.Run(testDef.name, func(t *testing.T) {
			err := s.Apply(testAdmin, testDef.call)
			if testDef.expectErr != nil {
				require.ErrorIs(t, err, testDef.expectErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, testDef.check(s.Params()))
		})
	}
}

func TestApplyRequiresAdmin(t *testing.T) {
	s := newTestStaking(t, staking.StakingConfig{})
	err := s.Apply(
		testOther,
		staking.MustEncodeCall(staking.MethodSetRewardRate, 1),
	)
	require.ErrorIs(t, err, staking.ErrNotAdmin)
}

func TestDecodeCall(t *testing.T) {
	data, err := staking.EncodeCall(staking.MethodSetUnstakeLockTime, 60)
	require.NoError(t, err)
	call, err := staking.DecodeCall(data)
	require.NoError(t, err)
	assert.Equal(t, staking.MethodSetUnstakeLockTime, call.Method)
	assert.Equal(t, []uint64{60}, call.Args)
	assert.Equal(t, "setUnstakeLockTime([60])", call.String())
}
