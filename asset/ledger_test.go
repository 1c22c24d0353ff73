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

package asset_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/stakedao/account"
	"github.com/blinklabs-io/stakedao/asset"
)

var (
	testOwner     = account.MustParse("0x00000000000000000000000000000000000000aa")
	testUser      = account.MustParse("0x00000000000000000000000000000000000000bb")
	testCustodian = account.MustParse("0x00000000000000000000000000000000000000cc")
)

func TestLedgerMint(t *testing.T) {
	l := asset.NewLedger(testOwner)
	require.NoError(t, l.Mint(testOwner, testUser, 1000))
	assert.Equal(t, uint64(1000), l.BalanceOf(testUser))
	assert.Equal(t, uint64(1000), l.TotalSupply())

	err := l.Mint(testUser, testUser, 1)
	require.ErrorIs(t, err, asset.ErrNotOwner)
	assert.Equal(t, uint64(1000), l.TotalSupply())

	err = l.Mint(testOwner, testUser, math.MaxUint64)
	require.ErrorIs(t, err, asset.ErrOverflow)
}

func TestLedgerTransfer(t *testing.T) {
	l := asset.NewLedger(testOwner)
	require.NoError(t, l.Mint(testOwner, testUser, 100))
	require.NoError(t, l.Transfer(testUser, testCustodian, 40))
	assert.Equal(t, uint64(60), l.BalanceOf(testUser))
	assert.Equal(t, uint64(40), l.BalanceOf(testCustodian))

	err := l.Transfer(testUser, testCustodian, 61)
	require.ErrorIs(t, err, asset.ErrInsufficientBalance)
	assert.Equal(t, uint64(60), l.BalanceOf(testUser))
}

func TestLedgerTransferFrom(t *testing.T) {
	l := asset.NewLedger(testOwner)
	require.NoError(t, l.Mint(testOwner, testUser, 100))

	err := l.TransferFrom(testUser, testCustodian, 10)
	require.ErrorIs(t, err, asset.ErrInsufficientAllowance)

	require.NoError(t, l.Approve(testUser, testCustodian, 50))
	assert.Equal(t, uint64(50), l.Allowance(testUser, testCustodian))
	require.NoError(t, l.TransferFrom(testUser, testCustodian, 30))
	assert.Equal(t, uint64(20), l.Allowance(testUser, testCustodian))
	assert.Equal(t, uint64(70), l.BalanceOf(testUser))
	assert.Equal(t, uint64(30), l.BalanceOf(testCustodian))

	// Allowance is left untouched when the balance is short
	require.NoError(t, l.Approve(testUser, testCustodian, 500))
	err = l.TransferFrom(testUser, testCustodian, 71)
	require.ErrorIs(t, err, asset.ErrInsufficientBalance)
	assert.Equal(t, uint64(500), l.Allowance(testUser, testCustodian))
}

func TestLedgerZeroAccount(t *testing.T) {
	l := asset.NewLedger(testOwner)
	require.ErrorIs(t, l.Mint(testOwner, "", 1), asset.ErrZeroAccount)
	require.ErrorIs(t, l.Approve(testUser, "", 1), asset.ErrZeroAccount)
}
