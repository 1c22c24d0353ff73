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
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/blinklabs-io/stakedao/account"
	"github.com/blinklabs-io/stakedao/database"
	"github.com/blinklabs-io/stakedao/event"
	"github.com/blinklabs-io/stakedao/governance"
	"github.com/blinklabs-io/stakedao/internal/version"
)

const (
	programName         = "stakedao"
	defaultJournalLimit = 100
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck,errchkjson
	json.NewEncoder(w).Encode(v)
}

func writeError(
	w http.ResponseWriter,
	status int,
	message string,
) {
	writeJSON(w, status, ErrorResponse{
		StatusCode: status,
		Error:      http.StatusText(status),
		Message:    message,
	})
}

func (a *Api) internalError(w http.ResponseWriter, msg string, err error) {
	a.logger.Error(msg, "error", err)
	writeError(w, http.StatusInternalServerError, msg)
}

func pathAccount(r *http.Request) (account.Account, error) {
	return account.Parse(r.PathValue("account"))
}

func pathProposalId(r *http.Request) (uint64, error) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid proposal ID %q", r.PathValue("id"))
	}
	return id, nil
}

func (a *Api) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, RootResponse{
		Name:    programName,
		Version: version.GetVersionString(),
	})
}

func (a *Api) handleHealth(w http.ResponseWriter, r *http.Request) {
	// The journal read touches the blob store
	if _, err := a.governance.Journal(r.Context(), 0, 1); err != nil {
		a.logger.Warn("health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, HealthResponse{})
		return
	}
	writeJSON(w, http.StatusOK, HealthResponse{IsHealthy: true})
}

func (a *Api) handleGovernance(w http.ResponseWriter, r *http.Request) {
	proposals, err := a.governance.Proposals(r.Context())
	if err != nil {
		a.internalError(w, "failed to retrieve proposals", err)
		return
	}
	count := 0
	for _, p := range proposals {
		if p.Submitted {
			count++
		}
	}
	writeJSON(w, http.StatusOK, GovernanceResponse{
		Account:        a.governance.Account(),
		PayloadMode:    a.governance.PayloadMode().String(),
		FinishLockTime: int64(a.governance.FinishLockTime().Seconds()),
		ProposalCount:  count,
	})
}

// handleProposals handles GET /api/v1/proposals. The list includes records
// of IDs that received votes or a finalization before being submitted
func (a *Api) handleProposals(w http.ResponseWriter, r *http.Request) {
	params, err := ParsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	proposals, err := a.governance.Proposals(r.Context())
	if err != nil {
		a.internalError(w, "failed to retrieve proposals", err)
		return
	}
	SetPaginationHeaders(w, len(proposals), params)
	writeJSON(w, http.StatusOK, paginate(proposals, params))
}

func (a *Api) handleProposal(w http.ResponseWriter, r *http.Request) {
	id, err := pathProposalId(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	p, err := a.governance.Proposal(r.Context(), id)
	if err != nil {
		a.internalError(w, "failed to retrieve proposal", err)
		return
	}
	if !p.Submitted && p.VotesFor == 0 && p.VotesAgainst == 0 && !p.Finished {
		writeError(
			w,
			http.StatusNotFound,
			fmt.Sprintf("proposal %d not found", id),
		)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (a *Api) handleVote(w http.ResponseWriter, r *http.Request) {
	id, err := pathProposalId(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	voter, err := pathAccount(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	vote, err := a.governance.VoteRecord(r.Context(), id, voter)
	if err != nil {
		a.internalError(w, "failed to retrieve vote", err)
		return
	}
	writeJSON(w, http.StatusOK, VoteResponse{
		ProposalID: id,
		Account:    voter,
		For:        vote.For,
		Against:    vote.Against,
	})
}

func (a *Api) handleDeposits(w http.ResponseWriter, r *http.Request) {
	params, err := ParsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	deposits, err := a.governance.Deposits(r.Context())
	if err != nil {
		a.internalError(w, "failed to retrieve deposits", err)
		return
	}
	SetPaginationHeaders(w, len(deposits), params)
	writeJSON(w, http.StatusOK, paginate(deposits, params))
}

func (a *Api) handleDeposit(w http.ResponseWriter, r *http.Request) {
	depositor, err := pathAccount(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	balance, err := a.governance.DepositOf(r.Context(), depositor)
	if err != nil {
		a.internalError(w, "failed to retrieve deposit", err)
		return
	}
	backed, err := a.governance.BackedProposals(r.Context(), depositor)
	if err != nil {
		a.internalError(w, "failed to retrieve backed proposals", err)
		return
	}
	writeJSON(w, http.StatusOK, DepositResponse{
		Account:         depositor,
		Balance:         balance,
		BackedProposals: backed,
	})
}

func (a *Api) handleRole(w http.ResponseWriter, r *http.Request) {
	role, err := governance.ParseRole(r.PathValue("role"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	members, err := a.governance.RoleMembers(r.Context(), role)
	if err != nil {
		a.internalError(w, "failed to retrieve role members", err)
		return
	}
	writeJSON(w, http.StatusOK, RoleResponse{Role: role, Members: members})
}

func (a *Api) handleStakingParams(w http.ResponseWriter, _ *http.Request) {
	if a.staking == nil {
		writeError(w, http.StatusNotFound, "no staking target configured")
		return
	}
	params := a.staking.Params()
	writeJSON(w, http.StatusOK, StakingParamsResponse{
		RewardRate:      params.RewardRate,
		StakeLockTime:   int64(params.StakeLockTime.Seconds()),
		UnstakeLockTime: int64(params.UnstakeLockTime.Seconds()),
	})
}

// handleJournal handles GET /api/v1/journal?after=<seq>&limit=<n>
func (a *Api) handleJournal(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	var afterSeq uint64
	if after := query.Get("after"); after != "" {
		var err error
		afterSeq, err = strconv.ParseUint(after, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid after parameter")
			return
		}
	}
	limit := defaultJournalLimit
	if limitParam := query.Get("limit"); limitParam != "" {
		var err error
		limit, err = strconv.Atoi(limitParam)
		if err != nil || limit < 1 {
			writeError(w, http.StatusBadRequest, "invalid limit parameter")
			return
		}
		limit = min(limit, database.DefaultJournalLimit)
	}
	entries, err := a.governance.Journal(r.Context(), afterSeq, limit)
	if err != nil {
		a.internalError(w, "failed to retrieve journal", err)
		return
	}
	ret := make([]JournalEntryResponse, 0, len(entries))
	for _, entry := range entries {
		data := governance.NewEventData(event.EventType(entry.Type))
		if data == nil {
			a.logger.Warn(
				"skipping journal entry of unknown type",
				"seq", entry.Seq,
				"type", entry.Type,
			)
			continue
		}
		if err := entry.DecodeData(data); err != nil {
			a.internalError(w, "failed to decode journal entry", err)
			return
		}
		ret = append(ret, JournalEntryResponse{
			Seq:       entry.Seq,
			Type:      entry.Type,
			Timestamp: entry.Time().UTC(),
			Data:      data,
		})
	}
	writeJSON(w, http.StatusOK, ret)
}
