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

package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/blinklabs-io/stakedao/account"
	"github.com/blinklabs-io/stakedao/database"
	"github.com/blinklabs-io/stakedao/governance"
	"github.com/blinklabs-io/stakedao/staking"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var (
	testEngineAccount = account.MustParse("0x00000000000000000000000000000000000000d0")
	testAdmin         = account.MustParse("0x0000000000000000000000000000000000000001")
	testVoter         = account.MustParse("0x000000000000000000000000000000000000000a")
)

// mockGovernance implements Governance for testing
type mockGovernance struct {
	proposals []governance.Proposal
	deposits  []governance.DepositInfo
	backed    map[account.Account][]uint64
	votes     map[uint64]map[account.Account]governance.Vote
	roles     map[governance.Role][]account.Account
	journal   []database.JournalEntry
	err       error
}

func (m *mockGovernance) Account() account.Account {
	return testEngineAccount
}

func (m *mockGovernance) FinishLockTime() time.Duration {
	return 24 * time.Hour
}

func (m *mockGovernance) PayloadMode() governance.PayloadMode {
	return governance.PayloadModeGeneric
}

func (m *mockGovernance) Proposal(
	_ context.Context,
	id uint64,
) (governance.Proposal, error) {
	if m.err != nil {
		return governance.Proposal{}, m.err
	}
	for _, p := range m.proposals {
		if p.ID == id {
			return p, nil
		}
	}
	return governance.Proposal{ID: id, CreatedAt: time.Unix(0, 0).UTC()}, nil
}

func (m *mockGovernance) Proposals(
	context.Context,
) ([]governance.Proposal, error) {
	return m.proposals, m.err
}

func (m *mockGovernance) VoteRecord(
	_ context.Context,
	id uint64,
	a account.Account,
) (governance.Vote, error) {
	return m.votes[id][a], m.err
}

func (m *mockGovernance) DepositOf(
	_ context.Context,
	a account.Account,
) (uint64, error) {
	for _, d := range m.deposits {
		if d.Account == a {
			return d.Balance, m.err
		}
	}
	return 0, m.err
}

func (m *mockGovernance) Deposits(
	context.Context,
) ([]governance.DepositInfo, error) {
	return m.deposits, m.err
}

func (m *mockGovernance) BackedProposals(
	_ context.Context,
	a account.Account,
) ([]uint64, error) {
	return m.backed[a], m.err
}

func (m *mockGovernance) RoleMembers(
	_ context.Context,
	role governance.Role,
) ([]account.Account, error) {
	return m.roles[role], m.err
}

func (m *mockGovernance) Journal(
	_ context.Context,
	afterSeq uint64,
	limit int,
) ([]database.JournalEntry, error) {
	if m.err != nil {
		return nil, m.err
	}
	ret := []database.JournalEntry{}
	for _, entry := range m.journal {
		if entry.Seq > afterSeq && len(ret) < limit {
			ret = append(ret, entry)
		}
	}
	return ret, nil
}

type mockStaking struct {
	params staking.Params
}

func (m *mockStaking) Params() staking.Params {
	return m.params
}

func journalEntry(
	t *testing.T,
	seq uint64,
	eventType string,
	data any,
) database.JournalEntry {
	t.Helper()
	raw, err := cbor.Marshal(data)
	require.NoError(t, err)
	return database.JournalEntry{
		Seq:       seq,
		Type:      eventType,
		Timestamp: time.Date(2026, 3, 1, 0, 0, int(seq), 0, time.UTC).UnixNano(),
		Data:      raw,
	}
}

func newTestMock(t *testing.T) *mockGovernance {
	created := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	return &mockGovernance{
		proposals: []governance.Proposal{
			{
				ID:        1,
				Submitted: true,
				Proposer:  testAdmin,
				CreatedAt: created,
				Payload:   governance.GenericPayload([]byte{0x82, 0x01}),
				VotesFor:  10,
			},
			{
				ID:           2,
				Submitted:    true,
				Proposer:     testAdmin,
				CreatedAt:    created.Add(time.Hour),
				Payload:      governance.GenericPayload([]byte{0x82, 0x02}),
				VotesAgainst: 5,
				Finished:     true,
				FinishedAt:   created.Add(48 * time.Hour),
				FinishedBy:   testVoter,
			},
			{
				ID:       3,
				Payload:  governance.GenericPayload(nil),
				VotesFor: 1,
			},
		},
		deposits: []governance.DepositInfo{
			{Account: testVoter, Balance: 100},
			{Account: testAdmin, Balance: 0},
		},
		backed: map[account.Account][]uint64{testVoter: {1, 3}},
		votes: map[uint64]map[account.Account]governance.Vote{
			1: {testVoter: {For: 10}},
		},
		roles: map[governance.Role][]account.Account{
			governance.RoleAdmin: {testAdmin},
		},
		journal: []database.JournalEntry{
			journalEntry(
				t,
				1,
				string(governance.RoleGrantedEventType),
				governance.RoleGrantedEvent{
					Role:    governance.RoleAdmin,
					Grantor: testAdmin,
					Grantee: testAdmin,
				},
			),
			journalEntry(
				t,
				2,
				string(governance.DepositedEventType),
				governance.DepositedEvent{Account: testVoter, Amount: 100},
			),
			journalEntry(t, 3, "governance.unknown", 1),
		},
	}
}

func newTestApi(gov Governance) *Api {
	return New(
		ApiConfig{ListenAddress: "127.0.0.1:0"},
		gov,
		&mockStaking{params: staking.DefaultParams()},
		nil,
	)
}

func doRequest(t *testing.T, a *Api, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var ret T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&ret))
	return ret
}

func TestStartStop(t *testing.T) {
	a := newTestApi(newTestMock(t))
	require.NoError(t, a.Start(t.Context()))
	require.Error(t, a.Start(t.Context()))
	addr := a.Addr()
	require.NotNil(t, addr)

	resp, err := http.Get(fmt.Sprintf("http://%s/health", addr))
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"is_healthy":true}`, string(body))
	http.DefaultClient.CloseIdleConnections()

	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, a.Stop(stopCtx))
	require.NoError(t, a.Stop(stopCtx))
}

func TestStopOnContextCancel(t *testing.T) {
	a := newTestApi(newTestMock(t))
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, a.Start(ctx))
	cancel()
	require.Eventually(
		t,
		func() bool {
			a.mu.Lock()
			defer a.mu.Unlock()
			return a.httpServer == nil
		},
		5*time.Second,
		10*time.Millisecond,
	)
}

func TestStartListenError(t *testing.T) {
	a := New(ApiConfig{ListenAddress: "256.0.0.1:bogus"}, newTestMock(t), nil, nil)
	require.Error(t, a.Start(t.Context()))
	a.mu.Lock()
	assert.Nil(t, a.httpServer)
	a.mu.Unlock()
}

func TestRoot(t *testing.T) {
	rec := doRequest(t, newTestApi(newTestMock(t)), "/")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[RootResponse](t, rec)
	assert.Equal(t, "stakedao", resp.Name)
	assert.NotEmpty(t, resp.Version)

	rec = doRequest(t, newTestApi(newTestMock(t)), "/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthUnavailable(t *testing.T) {
	mock := newTestMock(t)
	mock.err = errors.New("closed")
	rec := doRequest(t, newTestApi(mock), "/health")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.False(t, decodeBody[HealthResponse](t, rec).IsHealthy)
}

func TestGovernance(t *testing.T) {
	rec := doRequest(t, newTestApi(newTestMock(t)), "/api/v1/governance")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(
		t,
		GovernanceResponse{
			Account:        testEngineAccount,
			PayloadMode:    "generic",
			FinishLockTime: 86400,
			ProposalCount:  2,
		},
		decodeBody[GovernanceResponse](t, rec),
	)
}

func TestProposals(t *testing.T) {
	a := newTestApi(newTestMock(t))
	rec := doRequest(t, a, "/api/v1/proposals")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "3", rec.Header().Get("X-Pagination-Count-Total"))
	assert.Equal(t, "1", rec.Header().Get("X-Pagination-Page-Total"))
	proposals := decodeBody[[]governance.Proposal](t, rec)
	require.Len(t, proposals, 3)
	assert.Equal(t, uint64(1), proposals[0].ID)
	assert.Equal(t, []byte{0x82, 0x01}, proposals[0].Payload.CallData)

	rec = doRequest(t, a, "/api/v1/proposals?count=2&page=1&order=desc")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("X-Pagination-Page-Total"))
	proposals = decodeBody[[]governance.Proposal](t, rec)
	require.Len(t, proposals, 2)
	assert.Equal(t, uint64(3), proposals[0].ID)
	assert.Equal(t, uint64(2), proposals[1].ID)

	rec = doRequest(t, a, "/api/v1/proposals?page=5")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeBody[[]governance.Proposal](t, rec))

	rec = doRequest(t, a, "/api/v1/proposals?page=92233720368547760&count=100")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeBody[[]governance.Proposal](t, rec))

	rec = doRequest(t, a, "/api/v1/proposals?order=sideways")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProposal(t *testing.T) {
	a := newTestApi(newTestMock(t))
	rec := doRequest(t, a, "/api/v1/proposals/2")
	require.Equal(t, http.StatusOK, rec.Code)
	var raw map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&raw))
	assert.Equal(t, true, raw["finished"])
	assert.Equal(t, testVoter.String(), raw["finishedBy"])
	assert.Equal(t, "2026-03-03T00:00:00Z", raw["finishedAt"])

	rec = doRequest(t, a, "/api/v1/proposals/1")
	raw = map[string]any{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&raw))
	_, ok := raw["finishedAt"]
	assert.False(t, ok)

	// Voted on but never submitted
	rec = doRequest(t, a, "/api/v1/proposals/3")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, a, "/api/v1/proposals/9")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "proposal 9 not found", decodeBody[ErrorResponse](t, rec).Message)

	// ID 0 is looked up like any other ID
	rec = doRequest(t, a, "/api/v1/proposals/0")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	for _, path := range []string{"/api/v1/proposals/-1", "/api/v1/proposals/x"} {
		rec = doRequest(t, a, path)
		assert.Equal(t, http.StatusBadRequest, rec.Code, path)
	}
}

func TestProposalError(t *testing.T) {
	mock := newTestMock(t)
	mock.err = errors.New("boom")
	rec := doRequest(t, newTestApi(mock), "/api/v1/proposals/1")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	resp := decodeBody[ErrorResponse](t, rec)
	assert.Equal(t, "Internal Server Error", resp.Error)
	assert.Equal(t, "failed to retrieve proposal", resp.Message)
}

func TestVote(t *testing.T) {
	a := newTestApi(newTestMock(t))
	rec := doRequest(t, a, "/api/v1/proposals/1/votes/"+testVoter.String())
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(
		t,
		VoteResponse{ProposalID: 1, Account: testVoter, For: 10},
		decodeBody[VoteResponse](t, rec),
	)
	rec = doRequest(t, a, "/api/v1/proposals/1/votes/nobody")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeposits(t *testing.T) {
	a := newTestApi(newTestMock(t))
	rec := doRequest(t, a, "/api/v1/deposits?count=1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("X-Pagination-Page-Total"))
	deposits := decodeBody[[]governance.DepositInfo](t, rec)
	assert.Equal(
		t,
		[]governance.DepositInfo{{Account: testVoter, Balance: 100}},
		deposits,
	)

	rec = doRequest(t, a, "/api/v1/deposits/"+testVoter.String())
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(
		t,
		DepositResponse{
			Account:         testVoter,
			Balance:         100,
			BackedProposals: []uint64{1, 3},
		},
		decodeBody[DepositResponse](t, rec),
	)

	rec = doRequest(t, a, "/api/v1/deposits/0x12")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRoles(t *testing.T) {
	a := newTestApi(newTestMock(t))
	rec := doRequest(t, a, "/api/v1/roles/admin")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(
		t,
		RoleResponse{
			Role:    governance.RoleAdmin,
			Members: []account.Account{testAdmin},
		},
		decodeBody[RoleResponse](t, rec),
	)
	rec = doRequest(t, a, "/api/v1/roles/owner")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStakingParams(t *testing.T) {
	rec := doRequest(t, newTestApi(newTestMock(t)), "/api/v1/staking/params")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(
		t,
		StakingParamsResponse{
			RewardRate:      10,
			StakeLockTime:   86400,
			UnstakeLockTime: 172800,
		},
		decodeBody[StakingParamsResponse](t, rec),
	)

	a := New(ApiConfig{}, newTestMock(t), nil, nil)
	rec = doRequest(t, a, "/api/v1/staking/params")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestJournal(t *testing.T) {
	a := newTestApi(newTestMock(t))
	rec := doRequest(t, a, "/api/v1/journal")
	require.Equal(t, http.StatusOK, rec.Code)
	var entries []struct {
		Seq       uint64          `json:"seq"`
		Type      string          `json:"type"`
		Timestamp time.Time       `json:"timestamp"`
		Data      json.RawMessage `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&entries))
	// The entry of unknown type is skipped
	require.Len(t, entries, 2)
	assert.Equal(t, string(governance.RoleGrantedEventType), entries[0].Type)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 1, 0, time.UTC), entries[0].Timestamp)
	assert.JSONEq(
		t,
		fmt.Sprintf(`{"account":%q,"amount":100}`, testVoter),
		string(entries[1].Data),
	)

	rec = doRequest(t, a, "/api/v1/journal?after=1&limit=1")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&entries))
	require.Len(t, entries, 1)
	assert.Equal(t, uint64(2), entries[0].Seq)

	for _, path := range []string{
		"/api/v1/journal?after=-1",
		"/api/v1/journal?limit=0",
		"/api/v1/journal?limit=ten",
	} {
		rec = doRequest(t, a, path)
		assert.Equal(t, http.StatusBadRequest, rec.Code, path)
	}
}
