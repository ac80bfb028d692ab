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

const (
	TokenAccountTable  = "token_account"
	TokenMintTable     = "token_mint"
	TokenMetadataTable = "token_metadata"
)

// TokenAccount is an SPL token account of one of the selected mints
type TokenAccount struct {
	Pubkey          string       `gorm:"primaryKey;not null"`
	Mint            string       `gorm:"not null;index"`
	Owner           string       `gorm:"not null;index"`
	Amount          types.Uint64 `gorm:"type:text;not null"`
	Delegate        *string
	State           uint8         `gorm:"not null"`
	IsNative        *types.Uint64 `gorm:"type:text"`
	DelegatedAmount types.Uint64  `gorm:"type:text;not null"`
	CloseAuthority  *string
}

func (TokenAccount) TableName() string {
	return TokenAccountTable
}

func (a *TokenAccount) RowKey() string {
	return a.Pubkey
}

// TokenMint is one of the selected SPL token mints
type TokenMint struct {
	Pubkey          string `gorm:"primaryKey;not null"`
	MintAuthority   *string
	Supply          types.Uint64 `gorm:"type:text;not null"`
	Decimals        uint8        `gorm:"not null"`
	IsInitialized   bool         `gorm:"not null"`
	FreezeAuthority *string
}

func (TokenMint) TableName() string {
	return TokenMintTable
}

func (m *TokenMint) RowKey() string {
	return m.Pubkey
}

// TokenMetadata is the Metaplex metadata of a token mint
type TokenMetadata struct {
	Pubkey               string `gorm:"primaryKey;not null"`
	Mint                 string `gorm:"not null;index"`
	UpdateAuthority      string `gorm:"not null"`
	Name                 string `gorm:"not null"`
	Symbol               string `gorm:"not null"`
	Uri                  string `gorm:"not null"`
	DataLength           int    `gorm:"not null"`
	SellerFeeBasisPoints uint16 `gorm:"not null"`
	PrimarySaleHappened  bool   `gorm:"not null"`
	IsMutable            bool   `gorm:"not null"`
	EditionNonce         *uint8
	CollectionVerified   *bool
	CollectionKey        *string
}

func (TokenMetadata) TableName() string {
	return TokenMetadataTable
}

func (m *TokenMetadata) RowKey() string {
	return m.Pubkey
}
