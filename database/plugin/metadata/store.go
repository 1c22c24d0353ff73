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

package metadata

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/blinklabs-io/stakedao/database/models"
	"github.com/blinklabs-io/stakedao/database/plugin"
	"github.com/blinklabs-io/stakedao/database/plugin/metadata/mysql"
	"github.com/blinklabs-io/stakedao/database/plugin/metadata/postgres"
	"github.com/blinklabs-io/stakedao/database/plugin/metadata/sqlite"
	"github.com/blinklabs-io/stakedao/database/types"
)

type MetadataStore interface {
	// Database
	Close() error
	DB() *gorm.DB
	GetCommitTimestamp() (int64, error)
	SetCommitTimestamp(int64, types.Txn) error
	Transaction() types.Txn

	// Proposals and votes
	GetProposal(uint64, types.Txn) (*models.Proposal, error)
	GetProposals(types.Txn) ([]models.Proposal, error)
	SetProposal(*models.Proposal, types.Txn) error
	GetVoteRecord(
		uint64, // proposal ID
		string, // account
		types.Txn,
	) (*models.VoteRecord, error)
	GetVoteRecords(uint64, types.Txn) ([]models.VoteRecord, error)
	SetVoteRecord(*models.VoteRecord, types.Txn) error
	DeleteVoteRecords(uint64, types.Txn) error
	GetGovernanceState(types.Txn) (*models.GovernanceState, error)
	SetGovernanceState(*models.GovernanceState, types.Txn) error

	// Deposits and backings
	GetDeposit(string, types.Txn) (*models.Deposit, error)
	GetDeposits(types.Txn) ([]models.Deposit, error)
	SetDeposit(*models.Deposit, types.Txn) error
	AddBacking(
		string, // account
		uint64, // proposal ID
		types.Txn,
	) error
	GetBackings(string, types.Txn) ([]models.Backing, error)
	CountBackings(string, types.Txn) (int64, error)
	DeleteBackingsByProposal(uint64, types.Txn) (int64, error)

	// Roles
	HasRole(
		string, // role
		string, // account
		types.Txn,
	) (bool, error)
	AddRoleMember(*models.RoleMember, types.Txn) (bool, error)
	GetRoleMembers(string, types.Txn) ([]models.RoleMember, error)
}

var (
	_ MetadataStore = (*sqlite.MetadataStoreSqlite)(nil)
	_ MetadataStore = (*postgres.MetadataStorePostgres)(nil)
	_ MetadataStore = (*mysql.MetadataStoreMysql)(nil)
)

// New returns the started metadata plugin selected by name
func New(pluginName string, runtime plugin.Runtime) (MetadataStore, error) {
	p, err := plugin.StartPlugin(plugin.PluginTypeMetadata, pluginName, runtime)
	if err != nil {
		return nil, err
	}
	metadataStore, ok := p.(MetadataStore)
	if !ok {
		_ = p.Stop()
		return nil, fmt.Errorf(
			"plugin '%s' does not implement MetadataStore interface",
			pluginName,
		)
	}
	return metadataStore, nil
}
