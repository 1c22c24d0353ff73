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

package models

import "github.com/blinklabs-io/stakedao/database/types"

// Deposit is the stake an account has locked with the engine
type Deposit struct {
	Account   string       `gorm:"primaryKey;size:42"`
	Balance   types.Uint64 `gorm:"not null"`
	UpdatedAt int64        `gorm:"autoUpdateTime:nano"`
}

func (Deposit) TableName() string {
	return "deposit"
}
