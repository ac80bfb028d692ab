// Copyright 2025 Blink Labs Software
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

import "github.com/blinklabs-io/snapvote/database/types"

const AccountTable = "account"

// Account is the metadata of a ledger account selected by owner or held as
// a token account of a selected mint
type Account struct {
	Pubkey     string       `gorm:"primaryKey;not null"`
	DataLen    int          `gorm:"not null"`
	Owner      string       `gorm:"not null;index"`
	Lamports   types.Uint64 `gorm:"type:text;not null"`
	Executable bool         `gorm:"not null"`
	RentEpoch  types.Uint64 `gorm:"type:text;not null"`
}

func (Account) TableName() string {
	return AccountTable
}

func (a *Account) RowKey() string {
	return a.Pubkey
}
