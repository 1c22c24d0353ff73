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

package gormstore_test

import (
	"fmt"
	"math"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/blinklabs-io/stakedao/database/models"
	"github.com/blinklabs-io/stakedao/database/plugin/metadata/gormstore"
	"github.com/blinklabs-io/stakedao/database/types"
)

const (
	testAccount1 = "0x0000000000000000000000000000000000000001"
	testAccount2 = "0x0000000000000000000000000000000000000002"
)

func newTestStore(t *testing.T) *gormstore.Store {
	t.Helper()
	db, err := gorm.Open(
		sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())),
		&gorm.Config{Logger: gormlogger.Discard},
	)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	store, err := gormstore.New(db, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		store.Close() //nolint:errcheck
	})
	return store
}

func TestCommitTimestamp(t *testing.T) {
	store := newTestStore(t)
	ts, err := store.GetCommitTimestamp()
	require.NoError(t, err)
	assert.Equal(t, int64(0), ts)
	require.NoError(t, store.SetCommitTimestamp(1234, nil))
	require.NoError(t, store.SetCommitTimestamp(5678, nil))
	ts, err = store.GetCommitTimestamp()
	require.NoError(t, err)
	assert.Equal(t, int64(5678), ts)
}

func TestProposalRoundTrip(t *testing.T) {
	store := newTestStore(t)
	p, err := store.GetProposal(1, nil)
	require.NoError(t, err)
	assert.Nil(t, p)

	proposal := &models.Proposal{
		ID:          1,
		Submitted:   true,
		Proposer:    testAccount1,
		SubmittedAt: 1000,
		CallData:    []byte{0x82, 0x01},
		VotesFor:    types.Uint64(math.MaxUint64),
	}
	require.NoError(t, store.SetProposal(proposal, nil))
	proposal.Finished = true
	proposal.VotesAgainst = 7
	require.NoError(t, store.SetProposal(proposal, nil))

	p, err = store.GetProposal(1, nil)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.True(t, p.Finished)
	assert.Equal(t, types.Uint64(math.MaxUint64), p.VotesFor)
	assert.Equal(t, types.Uint64(7), p.VotesAgainst)
	assert.Equal(t, []byte{0x82, 0x01}, p.CallData)

	require.NoError(t, store.SetProposal(&models.Proposal{ID: 3}, nil))
	proposals, err := store.GetProposals(nil)
	require.NoError(t, err)
	require.Len(t, proposals, 2)
	assert.Equal(t, types.OrderedUint64(1), proposals[0].ID)
	assert.Equal(t, types.OrderedUint64(3), proposals[1].ID)
}

func TestProposalHighBitIDs(t *testing.T) {
	store := newTestStore(t)
	highID := uint64(1) << 63
	for _, id := range []uint64{math.MaxUint64, highID, 10, 9} {
		require.NoError(t, store.SetProposal(
			&models.Proposal{ID: types.OrderedUint64(id)},
			nil,
		))
	}
	p, err := store.GetProposal(highID, nil)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, types.OrderedUint64(highID), p.ID)

	proposals, err := store.GetProposals(nil)
	require.NoError(t, err)
	require.Len(t, proposals, 4)
	assert.Equal(t, types.OrderedUint64(9), proposals[0].ID)
	assert.Equal(t, types.OrderedUint64(10), proposals[1].ID)
	assert.Equal(t, types.OrderedUint64(highID), proposals[2].ID)
	assert.Equal(t, types.OrderedUint64(math.MaxUint64), proposals[3].ID)

	require.NoError(t, store.SetVoteRecord(&models.VoteRecord{
		ProposalID: types.OrderedUint64(highID),
		Account:    testAccount1,
		WeightFor:  5,
	}, nil))
	rec, err := store.GetVoteRecord(highID, testAccount1, nil)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, types.Uint64(5), rec.WeightFor)

	require.NoError(t, store.AddBacking(testAccount1, highID, nil))
	require.NoError(t, store.AddBacking(testAccount1, 2, nil))
	backings, err := store.GetBackings(testAccount1, nil)
	require.NoError(t, err)
	require.Len(t, backings, 2)
	assert.Equal(t, types.OrderedUint64(2), backings[0].ProposalID)
	assert.Equal(t, types.OrderedUint64(highID), backings[1].ProposalID)
	removed, err := store.DeleteBackingsByProposal(highID, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
}

func TestVoteRecords(t *testing.T) {
	store := newTestStore(t)
	rec, err := store.GetVoteRecord(1, testAccount1, nil)
	require.NoError(t, err)
	assert.Nil(t, rec)

	require.NoError(t, store.SetVoteRecord(&models.VoteRecord{
		ProposalID: 1,
		Account:    testAccount1,
		WeightFor:  10,
	}, nil))
	require.NoError(t, store.SetVoteRecord(&models.VoteRecord{
		ProposalID:    1,
		Account:       testAccount1,
		WeightFor:     15,
		WeightAgainst: 2,
	}, nil))
	require.NoError(t, store.SetVoteRecord(&models.VoteRecord{
		ProposalID: 1,
		Account:    testAccount2,
		WeightFor:  1,
	}, nil))

	rec, err = store.GetVoteRecord(1, testAccount1, nil)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, types.Uint64(15), rec.WeightFor)
	assert.Equal(t, types.Uint64(2), rec.WeightAgainst)

	recs, err := store.GetVoteRecords(1, nil)
	require.NoError(t, err)
	assert.Len(t, recs, 2)

	require.NoError(t, store.DeleteVoteRecords(1, nil))
	recs, err = store.GetVoteRecords(1, nil)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestGovernanceState(t *testing.T) {
	store := newTestStore(t)
	state, err := store.GetGovernanceState(nil)
	require.NoError(t, err)
	assert.False(t, state.Initialized)
	assert.Equal(t, uint64(0), state.ProposalCount)
	state.Initialized = true
	state.ProposalCount = 4
	state.PayloadMode = models.PayloadModeTyped
	require.NoError(t, store.SetGovernanceState(state, nil))
	state, err = store.GetGovernanceState(nil)
	require.NoError(t, err)
	assert.True(t, state.Initialized)
	assert.Equal(t, uint64(4), state.ProposalCount)
	assert.Equal(t, uint8(models.PayloadModeTyped), state.PayloadMode)
}

func TestDepositsAndBackings(t *testing.T) {
	store := newTestStore(t)
	dep, err := store.GetDeposit(testAccount1, nil)
	require.NoError(t, err)
	assert.Nil(t, dep)
	require.NoError(t, store.SetDeposit(
		&models.Deposit{Account: testAccount1, Balance: 100},
		nil,
	))
	require.NoError(t, store.SetDeposit(
		&models.Deposit{Account: testAccount1, Balance: 250},
		nil,
	))
	dep, err = store.GetDeposit(testAccount1, nil)
	require.NoError(t, err)
	require.NotNil(t, dep)
	assert.Equal(t, types.Uint64(250), dep.Balance)

	// Backings are a set
	require.NoError(t, store.AddBacking(testAccount1, 1, nil))
	require.NoError(t, store.AddBacking(testAccount1, 1, nil))
	require.NoError(t, store.AddBacking(testAccount1, 2, nil))
	require.NoError(t, store.AddBacking(testAccount2, 1, nil))
	count, err := store.CountBackings(testAccount1, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	removed, err := store.DeleteBackingsByProposal(1, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)
	backings, err := store.GetBackings(testAccount1, nil)
	require.NoError(t, err)
	require.Len(t, backings, 1)
	assert.Equal(t, types.OrderedUint64(2), backings[0].ProposalID)
	count, err = store.CountBackings(testAccount2, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestRoles(t *testing.T) {
	store := newTestStore(t)
	ok, err := store.HasRole(models.RoleProposer, testAccount1, nil)
	require.NoError(t, err)
	assert.False(t, ok)
	added, err := store.AddRoleMember(&models.RoleMember{
		Role:    models.RoleProposer,
		Account: testAccount1,
	}, nil)
	require.NoError(t, err)
	assert.True(t, added)
	added, err = store.AddRoleMember(&models.RoleMember{
		Role:    models.RoleProposer,
		Account: testAccount1,
	}, nil)
	require.NoError(t, err)
	assert.False(t, added)
	ok, err = store.HasRole(models.RoleProposer, testAccount1, nil)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = store.HasRole(models.RoleAdmin, testAccount1, nil)
	require.NoError(t, err)
	assert.False(t, ok)
	members, err := store.GetRoleMembers(models.RoleProposer, nil)
	require.NoError(t, err)
	assert.Len(t, members, 1)
}

func TestTransactionRollback(t *testing.T) {
	store := newTestStore(t)
	txn := store.Transaction()
	require.NoError(t, store.SetDeposit(
		&models.Deposit{Account: testAccount1, Balance: 1},
		txn,
	))
	require.NoError(t, txn.Rollback())
	// A finished transaction can no longer be used
	_, err := store.GetDeposit(testAccount1, txn)
	require.ErrorIs(t, err, types.ErrTxnFinished)
	dep, err := store.GetDeposit(testAccount1, nil)
	require.NoError(t, err)
	assert.Nil(t, dep)
}

type otherTxn struct{}

func (otherTxn) Commit() error   { return nil }
func (otherTxn) Rollback() error { return nil }

func TestWrongTxnType(t *testing.T) {
	store := newTestStore(t)
	_, err := store.GetProposal(1, otherTxn{})
	require.ErrorIs(t, err, types.ErrTxnWrongType)
}
