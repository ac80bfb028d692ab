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

package token

import (
	"fmt"

	"github.com/blinklabs-io/snapvote/solana"
)

const (
	ProgramAddress = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"

	// AccountLen is the data size of a token account
	AccountLen = 165
)

var Program = solana.MustParsePublicKey(ProgramAddress)

// AccountState is the lifecycle state of a token account
type AccountState uint8

const (
	AccountStateUninitialized AccountState = iota
	AccountStateInitialized
	AccountStateFrozen
)

func (s AccountState) String() string {
	switch s {
	case AccountStateUninitialized:
		return "uninitialized"
	case AccountStateInitialized:
		return "initialized"
	case AccountStateFrozen:
		return "frozen"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(s))
	}
}

// Account is an SPL token account holding a balance of one mint
type Account struct {
	Mint   solana.PublicKey
	Owner  solana.PublicKey
	Amount uint64
	// Optional delegate allowed to transfer up to DelegatedAmount
	Delegate *solana.PublicKey
	State    AccountState
	// Rent-exempt reserve for wrapped SOL accounts, nil otherwise
	IsNative        *uint64
	DelegatedAmount uint64
	CloseAuthority  *solana.PublicKey
}

// DecodeAccount decodes token account data. Accounts that were never
// initialized return ErrUninitialized.
func DecodeAccount(data []byte) (*Account, error) {
	if len(data) != AccountLen {
		return nil, fmt.Errorf(
			"%w: token account is %d bytes, expected %d",
			ErrInvalidAccountData,
			len(data),
			AccountLen,
		)
	}
	r := &layoutReader{data: data}
	ret := &Account{
		Mint:   r.pubkey(),
		Owner:  r.pubkey(),
		Amount: r.u64(),
	}
	ret.Delegate = r.coptionPubkey()
	ret.State = AccountState(r.u8())
	ret.IsNative = r.coptionU64()
	ret.DelegatedAmount = r.u64()
	ret.CloseAuthority = r.coptionPubkey()
	if r.err != nil {
		return nil, r.err
	}
	switch ret.State {
	case AccountStateUninitialized:
		return nil, ErrUninitialized
	case AccountStateInitialized, AccountStateFrozen:
	default:
		return nil, fmt.Errorf(
			"%w: invalid account state %d",
			ErrInvalidAccountData,
			uint8(ret.State),
		)
	}
	return ret, nil
}

// EncodeAccount returns the account data layout of a
func EncodeAccount(a *Account) []byte {
	w := &layoutWriter{buf: make([]byte, 0, AccountLen)}
	w.pubkey(a.Mint)
	w.pubkey(a.Owner)
	w.u64(a.Amount)
	w.coptionPubkey(a.Delegate)
	w.u8(uint8(a.State))
	w.coptionU64(a.IsNative)
	w.u64(a.DelegatedAmount)
	w.coptionPubkey(a.CloseAuthority)
	return w.buf
}
