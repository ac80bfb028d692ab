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
	"testing"

	"github.com/blinklabs-io/snapvote/solana"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey(b byte) solana.PublicKey {
	var ret solana.PublicKey
	ret[0] = b
	ret[31] = 0x77
	return ret
}

func TestDecodeAccount(t *testing.T) {
	delegate := testKey(3)
	native := uint64(2_039_280)
	testDefs := []struct {
		name    string
		account Account
	}{
		{
			name: "plain",
			account: Account{
				Mint:   testKey(1),
				Owner:  testKey(2),
				Amount: 1 << 63,
				State:  AccountStateInitialized,
			},
		},
		{
			name: "delegated frozen native",
			account: Account{
				Mint:            testKey(1),
				Owner:           testKey(2),
				Amount:          10,
				Delegate:        &delegate,
				State:           AccountStateFrozen,
				IsNative:        &native,
				DelegatedAmount: 5,
				CloseAuthority:  &delegate,
			},
		},
	}
	for _, testDef := range testDefs {
		t.Run(testDef.name, func(t *testing.T) {
			data := EncodeAccount(&testDef.account)
			require.Len(t, data, AccountLen)
			got, err := DecodeAccount(data)
			require.NoError(t, err)
			assert.Equal(t, testDef.account, *got)
		})
	}
}

func TestDecodeAccountErrors(t *testing.T) {
	valid := EncodeAccount(&Account{Mint: testKey(1), State: AccountStateInitialized})

	_, err := DecodeAccount(valid[:AccountLen-1])
	require.ErrorIs(t, err, ErrInvalidAccountData)

	_, err = DecodeAccount(EncodeAccount(&Account{Mint: testKey(1)}))
	require.ErrorIs(t, err, ErrUninitialized)

	bad := append([]byte(nil), valid...)
	// State byte follows mint, owner, amount and the delegate option
	bad[32+32+8+36] = 3
	_, err = DecodeAccount(bad)
	require.ErrorIs(t, err, ErrInvalidAccountData)

	bad = append([]byte(nil), valid...)
	// Delegate option tag
	bad[32+32+8] = 2
	_, err = DecodeAccount(bad)
	require.ErrorIs(t, err, ErrInvalidAccountData)
}

func TestAccountStateString(t *testing.T) {
	assert.Equal(t, "frozen", AccountStateFrozen.String())
	assert.Equal(t, "unknown(9)", AccountState(9).String())
}

func TestDecodeMint(t *testing.T) {
	authority := testKey(5)
	mint := Mint{
		MintAuthority: &authority,
		Supply:        999_999_999_999,
		Decimals:      9,
		IsInitialized: true,
	}
	data := EncodeMint(&mint)
	require.Len(t, data, MintLen)
	got, err := DecodeMint(data)
	require.NoError(t, err)
	assert.Equal(t, mint, *got)
	assert.Nil(t, got.FreezeAuthority)

	_, err = DecodeMint(EncodeMint(&Mint{}))
	require.ErrorIs(t, err, ErrUninitialized)

	_, err = DecodeMint(data[:10])
	require.ErrorIs(t, err, ErrInvalidAccountData)

	// is_initialized follows the authority option, supply and decimals
	data[36+8+1] = 7
	_, err = DecodeMint(data)
	require.ErrorIs(t, err, ErrInvalidAccountData)
}

func testMetadata() *Metadata {
	nonce := uint8(254)
	standard := uint8(0)
	return &Metadata{
		UpdateAuthority:      testKey(1),
		Mint:                 testKey(2),
		Name:                 "Marinade staked SOL",
		Symbol:               "mSOL",
		Uri:                  "https://example.com/msol.json",
		SellerFeeBasisPoints: 500,
		Creators: []Creator{
			{Address: testKey(3), Verified: true, Share: 100},
		},
		PrimarySaleHappened: true,
		IsMutable:           true,
		EditionNonce:        &nonce,
		TokenStandard:       &standard,
		Collection:          &Collection{Verified: true, Key: testKey(4)},
		Uses:                &Uses{UseMethod: 1, Remaining: 2, Total: 3},
	}
}

func TestDecodeMetadata(t *testing.T) {
	meta := testMetadata()
	got, err := DecodeMetadata(EncodeMetadata(meta))
	require.NoError(t, err)
	assert.Equal(t, meta, got)
}

func TestDecodeMetadataTrimsPadding(t *testing.T) {
	meta := testMetadata()
	meta.Name = "mSOL\x00\x00\x00\x00"
	meta.Uri = "https://example.com\x00\x00"
	got, err := DecodeMetadata(EncodeMetadata(meta))
	require.NoError(t, err)
	assert.Equal(t, "mSOL", got.Name)
	assert.Equal(t, "https://example.com", got.Uri)
}

func TestDecodeMetadataTail(t *testing.T) {
	meta := testMetadata()
	full := EncodeMetadata(meta)
	// Token standard, collection and uses take 2, 34 and 18 bytes
	tailLen := 2 + 34 + 18

	t.Run("legacy account ends after edition nonce", func(t *testing.T) {
		got, err := DecodeMetadata(full[:len(full)-tailLen])
		require.NoError(t, err)
		require.NotNil(t, got.EditionNonce)
		assert.Equal(t, uint8(254), *got.EditionNonce)
		assert.Nil(t, got.TokenStandard)
		assert.Nil(t, got.Collection)
		assert.Nil(t, got.Uses)
	})

	t.Run("corrupt tail is ignored", func(t *testing.T) {
		data := append([]byte(nil), full...)
		// Invalid option tag for the collection
		data[len(data)-18-34] = 9
		got, err := DecodeMetadata(data)
		require.NoError(t, err)
		assert.NotNil(t, got.EditionNonce)
		assert.Nil(t, got.TokenStandard)
		assert.Nil(t, got.Collection)
		assert.Nil(t, got.Uses)
	})

	t.Run("account ends after is_mutable", func(t *testing.T) {
		got, err := DecodeMetadata(full[:len(full)-tailLen-2])
		require.NoError(t, err)
		assert.Nil(t, got.EditionNonce)
		assert.True(t, got.IsMutable)
	})
}

func TestDecodeMetadataErrors(t *testing.T) {
	_, err := DecodeMetadata(nil)
	require.ErrorIs(t, err, ErrNotMetadata)

	// Master edition account
	_, err = DecodeMetadata([]byte{6, 0, 0})
	require.ErrorIs(t, err, ErrNotMetadata)

	data := EncodeMetadata(testMetadata())
	_, err = DecodeMetadata(data[:40])
	require.ErrorIs(t, err, ErrInvalidAccountData)

	// Name length prefix far beyond the account size
	data[1+64] = 0xff
	data[1+64+1] = 0xff
	_, err = DecodeMetadata(data)
	require.ErrorIs(t, err, ErrInvalidAccountData)
}
