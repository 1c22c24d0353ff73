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

package mysql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptions(t *testing.T) {
	m := NewWithOptions(
		WithHost("db.local"),
		WithPort(3307),
		WithUser("dao"),
		WithPassword("secret"),
		WithDatabase("governance"),
		WithTLSMode("skip-verify"),
		WithTimeZone("UTC"),
	)
	assert.Equal(t, "db.local", m.host)
	assert.Equal(t, uint(3307), m.port)
	assert.Equal(t, "dao", m.user)
	assert.Equal(t, "secret", m.password)
	assert.Equal(t, "governance", m.database)
	assert.Equal(t, "skip-verify", m.tlsMode)
}

func TestDSNFromOptions(t *testing.T) {
	m := NewWithOptions(
		WithHost("db.local"),
		WithUser("dao"),
		WithPassword("secret"),
		WithDatabase("governance"),
	)
	dsn, dbName := m.DSN()
	assert.Equal(t, "governance", dbName)
	assert.Contains(t, dsn, "dao:secret@tcp(db.local:3306)/governance")
	assert.Contains(t, dsn, "parseTime=true")
}

func TestDSNOverride(t *testing.T) {
	m := NewWithOptions(
		WithDSN("dao:secret@tcp(10.0.0.1:3306)/other?charset=utf8mb4"),
	)
	dsn, dbName := m.DSN()
	assert.Equal(t, "dao:secret@tcp(10.0.0.1:3306)/other?charset=utf8mb4", dsn)
	assert.Equal(t, "other", dbName)
}

func TestParseMysqlDatabaseFromDSN(t *testing.T) {
	testDefs := []struct {
		dsn    string
		dbName string
		ok     bool
	}{
		{dsn: "user:pass@tcp(host:3306)/stakedao", dbName: "stakedao", ok: true},
		{dsn: "user:pass@tcp(host:3306)/stakedao?parseTime=true", dbName: "stakedao", ok: true},
		{dsn: "user:pass@tcp(host:3306)/", ok: false},
		{dsn: "no-slash", ok: false},
	}
	for _, testDef := range testDefs {
		dbName, ok := parseMysqlDatabaseFromDSN(testDef.dsn)
		assert.Equal(t, testDef.ok, ok, testDef.dsn)
		assert.Equal(t, testDef.dbName, dbName, testDef.dsn)
	}
}

func TestStripDatabaseFromDSN(t *testing.T) {
	stripped, ok := stripDatabaseFromDSN("user:pass@tcp(host:3306)/stakedao?parseTime=true")
	require.True(t, ok)
	assert.Equal(t, "user:pass@tcp(host:3306)/?parseTime=true", stripped)
	stripped, ok = stripDatabaseFromDSN("user:pass@tcp(host:3306)/stakedao")
	require.True(t, ok)
	assert.Equal(t, "user:pass@tcp(host:3306)/", stripped)
	_, ok = stripDatabaseFromDSN("no-slash")
	assert.False(t, ok)
}

func TestCloseBeforeStart(t *testing.T) {
	m, ok := NewFromCmdlineOptions().(*MetadataStoreMysql)
	require.True(t, ok)
	require.NoError(t, m.Close())
}
