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

package database

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/blinklabs-io/stakedao/database/types"
)

// DefaultJournalLimit caps the entries returned by a single Journal call
const DefaultJournalLimit = 1000

// JournalEntry is one persisted event. Data holds the CBOR encoding of the
// event payload
type JournalEntry struct {
	_         struct{} `cbor:",toarray"`
	Seq       uint64
	Type      string
	Timestamp int64
	Data      cbor.RawMessage
}

// Time returns the entry timestamp
func (e *JournalEntry) Time() time.Time {
	return time.Unix(0, e.Timestamp)
}

// DecodeData decodes the event payload into v
func (e *JournalEntry) DecodeData(v any) error {
	return cbor.Unmarshal(e.Data, v)
}

// NewBlobOnlyTxn creates a transaction that only spans the blob store
func NewBlobOnlyTxn(db *Database, readWrite bool) *Txn {
	t := &Txn{db: db, readWrite: readWrite}
	if db.blob != nil {
		t.blobTxn = db.blob.NewTransaction(readWrite)
	}
	return t
}

func (d *Database) journalSeq(txn *Txn) (uint64, error) {
	val, err := d.blob.Get(txn.Blob(), []byte(types.JournalSeqKey))
	if err != nil {
		if errors.Is(err, types.ErrBlobKeyNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return types.BytesToUint64(val), nil
}

// JournalSeq returns the sequence number of the last journal entry, or 0 for
// an empty journal
func (d *Database) JournalSeq(txn *Txn) (uint64, error) {
	if txn == nil {
		txn = NewBlobOnlyTxn(d, false)
		defer txn.Release()
	}
	return d.journalSeq(txn)
}

// AppendJournal encodes data and appends it to the journal under the next
// sequence number. It must run inside a read-write transaction so that the
// entry commits together with the state change it records
func (d *Database) AppendJournal(
	eventType string,
	timestamp time.Time,
	data any,
	txn *Txn,
) (*JournalEntry, error) {
	if txn == nil || txn.Blob() == nil {
		return nil, types.ErrNilTxn
	}
	if !txn.ReadWrite() {
		return nil, errors.New("journal append requires a read-write transaction")
	}
	payload, err := cbor.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", eventType, err)
	}
	seq, err := d.journalSeq(txn)
	if err != nil {
		return nil, err
	}
	entry := &JournalEntry{
		Seq:       seq + 1,
		Type:      eventType,
		Timestamp: timestamp.UnixNano(),
		Data:      payload,
	}
	entryBytes, err := cbor.Marshal(entry)
	if err != nil {
		return nil, err
	}
	if err := d.blob.Set(txn.Blob(), types.JournalEntryKey(entry.Seq), entryBytes); err != nil {
		return nil, err
	}
	if err := d.blob.Set(
		txn.Blob(),
		[]byte(types.JournalSeqKey),
		types.Uint64ToBytes(entry.Seq),
	); err != nil {
		return nil, err
	}
	return entry, nil
}

// Journal returns up to limit entries with a sequence number greater than
// afterSeq, in sequence order. A limit of 0 uses DefaultJournalLimit
func (d *Database) Journal(
	afterSeq uint64,
	limit int,
	txn *Txn,
) ([]JournalEntry, error) {
	if limit <= 0 {
		limit = DefaultJournalLimit
	}
	if afterSeq == math.MaxUint64 {
		return []JournalEntry{}, nil
	}
	if txn == nil {
		txn = NewBlobOnlyTxn(d, false)
		defer txn.Release()
	}
	prefix := []byte(types.JournalEntryKeyPrefix)
	iter := d.blob.NewIterator(
		txn.Blob(),
		types.BlobIteratorOptions{Prefix: prefix},
	)
	defer iter.Close()
	if err := iter.Err(); err != nil {
		return nil, err
	}
	ret := []JournalEntry{}
	for iter.Seek(types.JournalEntryKey(afterSeq + 1)); iter.ValidForPrefix(prefix); iter.Next() {
		val, err := iter.Item().ValueCopy(nil)
		if err != nil {
			return nil, err
		}
		var entry JournalEntry
		if err := cbor.Unmarshal(val, &entry); err != nil {
			return nil, fmt.Errorf("decode journal entry: %w", err)
		}
		ret = append(ret, entry)
		if len(ret) >= limit {
			break
		}
	}
	return ret, nil
}
