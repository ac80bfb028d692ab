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

// MintLen is the data size of a mint account
const MintLen = 82

// Mint is an SPL token mint
type Mint struct {
	// Authority allowed to mint new tokens, nil once minting is disabled
	MintAuthority   *solana.PublicKey
	Supply          uint64
	Decimals        uint8
	IsInitialized   bool
	FreezeAuthority *solana.PublicKey
}

// DecodeMint decodes mint account data. Mints that were never initialized
// return ErrUninitialized.
func DecodeMint(data []byte) (*Mint, error) {
	if len(data) != MintLen {
		return nil, fmt.Errorf(
			"%w: mint is %d bytes, expected %d",
			ErrInvalidAccountData,
			len(data),
			MintLen,
		)
	}
	r := &layoutReader{data: data}
	ret := &Mint{}
	ret.MintAuthority = r.coptionPubkey()
	ret.Supply = r.u64()
	ret.Decimals = r.u8()
	ret.IsInitialized = r.boolean()
	ret.FreezeAuthority = r.coptionPubkey()
	if r.err != nil {
		return nil, r.err
	}
	if !ret.IsInitialized {
		return nil, ErrUninitialized
	}
	return ret, nil
}

// EncodeMint returns the account data layout of m
func EncodeMint(m *Mint) []byte {
	w := &layoutWriter{buf: make([]byte, 0, MintLen)}
	w.coptionPubkey(m.MintAuthority)
	w.u64(m.Supply)
	w.u8(m.Decimals)
	w.boolean(m.IsInitialized)
	w.coptionPubkey(m.FreezeAuthority)
	return w.buf
}
