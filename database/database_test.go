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

package database_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/stakedao/database"
	"github.com/blinklabs-io/stakedao/database/models"
	"github.com/blinklabs-io/stakedao/database/types"
)

const (
	testAccountA = "0x00000000000000000000000000000000000000aa"
	testAccountB = "0x00000000000000000000000000000000000000bb"
)

func newTestDatabase(t *testing.T) *database.Database {
	t.Helper()
	db, err := database.New(&database.Config{})
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, db.Close())
	})
	return db
}

func TestTxnCommitSpansBothStores(t *testing.T) {
	db := newTestDatabase(t)
	txn := db.Transaction(true)
	err := txn.Do(func(txn *database.Txn) error {
		if err := db.SetDeposit(
			&models.Deposit{Account: testAccountA, Balance: 100},
			txn,
		); err != nil {
			return err
		}
		_, err := db.AppendJournal(
			"test.deposit",
			time.Unix(1700000000, 0),
			map[string]uint64{"amount": 100},
			txn,
		)
		return err
	})
	require.NoError(t, err)

	deposit, err := db.GetDeposit(testAccountA, nil)
	require.NoError(t, err)
	require.NotNil(t, deposit)
	assert.Equal(t, types.Uint64(100), deposit.Balance)

	entries, err := db.Journal(0, 0, nil)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, uint64(1), entries[0].Seq)
	assert.Equal(t, "test.deposit", entries[0].Type)
	assert.Equal(t, time.Unix(1700000000, 0), entries[0].Time())
	var payload map[string]uint64
	require.NoError(t, entries[0].DecodeData(&payload))
	assert.Equal(t, uint64(100), payload["amount"])

	// Both stores carry the same commit timestamp
	metadataTs, err := db.Metadata().GetCommitTimestamp()
	require.NoError(t, err)
	blobTs, err := db.Blob().GetCommitTimestamp()
	require.NoError(t, err)
	assert.Positive(t, metadataTs)
	assert.Equal(t, metadataTs, blobTs)
}

func TestTxnRollbackSpansBothStores(t *testing.T) {
	db := newTestDatabase(t)
	testErr := errors.New("abort")
	txn := db.Transaction(true)
	err := txn.Do(func(txn *database.Txn) error {
		if err := db.SetDeposit(
			&models.Deposit{Account: testAccountA, Balance: 5},
			txn,
		); err != nil {
			return err
		}
		if _, err := db.AppendJournal("test.deposit", time.Now(), 5, txn); err != nil {
			return err
		}
		return testErr
	})
	require.ErrorIs(t, err, testErr)

	deposit, err := db.GetDeposit(testAccountA, nil)
	require.NoError(t, err)
	assert.Nil(t, deposit)
	seq, err := db.JournalSeq(nil)
	require.NoError(t, err)
	assert.Zero(t, seq)
}

func TestJournalSequence(t *testing.T) {
	db := newTestDatabase(t)
	for i := 1; i <= 5; i++ {
		txn := db.Transaction(true)
		require.NoError(t, txn.Do(func(txn *database.Txn) error {
			entry, err := db.AppendJournal("test.seq", time.Now(), i, txn)
			if err != nil {
				return err
			}
			assert.Equal(t, uint64(i), entry.Seq)
			return nil
		}))
	}
	seq, err := db.JournalSeq(nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), seq)

	entries, err := db.Journal(2, 2, nil)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, uint64(3), entries[0].Seq)
	assert.Equal(t, uint64(4), entries[1].Seq)

	entries, err = db.Journal(5, 0, nil)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestAppendJournalRequiresWriteTxn(t *testing.T) {
	db := newTestDatabase(t)
	_, err := db.AppendJournal("test", time.Now(), nil, nil)
	require.ErrorIs(t, err, types.ErrNilTxn)
	txn := db.Transaction(false)
	defer txn.Release()
	_, err = db.AppendJournal("test", time.Now(), nil, txn)
	require.Error(t, err)
}

func TestAccessors(t *testing.T) {
	db := newTestDatabase(t)
	txn := db.Transaction(true)
	require.NoError(t, txn.Do(func(txn *database.Txn) error {
		added, err := db.AddRoleMember(
			&models.RoleMember{Role: models.RoleAdmin, Account: testAccountA},
			txn,
		)
		if err != nil {
			return err
		}
		assert.True(t, added)
		if err := db.SetProposal(
			&models.Proposal{ID: 1, Submitted: true, Proposer: testAccountA},
			txn,
		); err != nil {
			return err
		}
		if err := db.SetVoteRecord(
			&models.VoteRecord{ProposalID: 1, Account: testAccountB, WeightFor: 7},
			txn,
		); err != nil {
			return err
		}
		if err := db.AddBacking(testAccountB, 1, txn); err != nil {
			return err
		}
		return db.SetGovernanceState(
			&models.GovernanceState{ProposalCount: 1, Initialized: true},
			txn,
		)
	}))

	isAdmin, err := db.HasRole(models.RoleAdmin, testAccountA, nil)
	require.NoError(t, err)
	assert.True(t, isAdmin)
	members, err := db.GetRoleMembers(models.RoleAdmin, nil)
	require.NoError(t, err)
	assert.Len(t, members, 1)

	proposal, err := db.GetProposal(1, nil)
	require.NoError(t, err)
	require.NotNil(t, proposal)
	assert.Equal(t, testAccountA, proposal.Proposer)
	proposals, err := db.GetProposals(nil)
	require.NoError(t, err)
	assert.Len(t, proposals, 1)

	record, err := db.GetVoteRecord(1, testAccountB, nil)
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, types.Uint64(7), record.WeightFor)
	records, err := db.GetVoteRecords(1, nil)
	require.NoError(t, err)
	assert.Len(t, records, 1)

	count, err := db.CountBackings(testAccountB, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	removed, err := db.DeleteBackingsByProposal(1, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
	backings, err := db.GetBackings(testAccountB, nil)
	require.NoError(t, err)
	assert.Empty(t, backings)

	require.NoError(t, db.DeleteVoteRecords(1, nil))
	records, err = db.GetVoteRecords(1, nil)
	require.NoError(t, err)
	assert.Empty(t, records)

	state, err := db.GetGovernanceState(nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), state.ProposalCount)
	assert.True(t, state.Initialized)
}

func TestPersistence(t *testing.T) {
	dataDir := t.TempDir()
	db, err := database.New(&database.Config{DataDir: dataDir})
	require.NoError(t, err)
	txn := db.Transaction(true)
	require.NoError(t, txn.Do(func(txn *database.Txn) error {
		if err := db.SetDeposit(
			&models.Deposit{Account: testAccountA, Balance: 42},
			txn,
		); err != nil {
			return err
		}
		_, err := db.AppendJournal("test.deposit", time.Now(), 42, txn)
		return err
	}))
	require.NoError(t, db.Close())

	db, err = database.New(&database.Config{DataDir: dataDir})
	require.NoError(t, err)
	defer db.Close()
	deposit, err := db.GetDeposit(testAccountA, nil)
	require.NoError(t, err)
	require.NotNil(t, deposit)
	assert.Equal(t, types.Uint64(42), deposit.Balance)
	seq, err := db.JournalSeq(nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), seq)
}

func TestCommitTimestampMismatch(t *testing.T) {
	dataDir := t.TempDir()
	db, err := database.New(&database.Config{DataDir: dataDir})
	require.NoError(t, err)
	txn := db.Transaction(true)
	require.NoError(t, txn.Do(func(txn *database.Txn) error {
		return db.SetDeposit(
			&models.Deposit{Account: testAccountA, Balance: 1},
			txn,
		)
	}))
	// Move only the blob store forward
	blobTxn := database.NewBlobOnlyTxn(db, true)
	require.NoError(t, db.Blob().SetCommitTimestamp(1, blobTxn.Blob()))
	require.NoError(t, blobTxn.Commit())
	require.NoError(t, db.Close())

	db, err = database.New(&database.Config{DataDir: dataDir})
	require.NotNil(t, db)
	defer db.Close()
	var tsErr database.CommitTimestampError
	require.ErrorAs(t, err, &tsErr)
	assert.Equal(t, int64(1), tsErr.BlobTimestamp)
	assert.NotEqual(t, tsErr.MetadataTimestamp, tsErr.BlobTimestamp)
}

func TestUnknownPlugin(t *testing.T) {
	_, err := database.New(&database.Config{MetadataPlugin: "bogus"})
	require.Error(t, err)
}
