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

const VeMndeAccountTable = "vemnde_accounts"

// VeMndeAccount is the computed voting power of one voter account. Keys are
// base58 encoded.
type VeMndeAccount struct {
	Pubkey         string       `gorm:"primaryKey;not null"`
	VoterAuthority string       `gorm:"not null"`
	VotingPower    types.Uint64 `gorm:"type:text;not null"`
	Owner          string       `gorm:"not null"`
}

func (VeMndeAccount) TableName() string {
	return VeMndeAccountTable
}

func (a *VeMndeAccount) RowKey() string {
	return a.Pubkey
}
