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

package processor

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/blinklabs-io/snapvote/database/models"
	"github.com/blinklabs-io/snapvote/database/types"
	"github.com/blinklabs-io/snapvote/solana"
	"github.com/blinklabs-io/snapvote/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func tokenAccount(pubkey, mint solana.PublicKey, amount uint64) solana.Account {
	return solana.Account{
		Pubkey:   pubkey,
		Owner:    token.Program,
		Lamports: 2_039_280,
		Data: token.EncodeAccount(&token.Account{
			Mint:   mint,
			Owner:  key(0xaa),
			Amount: amount,
			State:  token.AccountStateInitialized,
		}),
	}
}

func tokenTestAccounts() []solana.Account {
	native := uint64(2_039_280)
	wrapped := tokenAccount(key(0x32), key(0x10), 7)
	wrapped.Data = token.EncodeAccount(&token.Account{
		Mint:     key(0x10),
		Owner:    key(0xab),
		Amount:   7,
		State:    token.AccountStateFrozen,
		IsNative: &native,
	})
	corrupt := tokenAccount(key(0x34), key(0x10), 1)
	// delegate option tag
	corrupt.Data[72] = 9
	nonce := uint8(254)
	collection := &token.Metadata{
		UpdateAuthority: key(0x60),
		Mint:            key(0x10),
		Name:            "Marinade\x00\x00\x00",
		Symbol:          "MNDE",
		Uri:             "https://example.com/mnde.json",
		IsMutable:       true,
		EditionNonce:    &nonce,
		Collection:      &token.Collection{Verified: true, Key: key(0x61)},
	}
	return []solana.Account{
		// Owned by selected owner
		{Pubkey: key(0x50), Owner: key(0x99), Lamports: 10, RentEpoch: math.MaxUint64, Data: []byte{1, 2, 3}},
		{Pubkey: key(0x51), Owner: key(0x99), Lamports: 11, Executable: true},
		tokenAccount(key(0x31), key(0x10), math.MaxUint64),
		wrapped,
		// Other mint
		tokenAccount(key(0x33), key(0x11), 5),
		corrupt,
		// Uninitialized
		{Pubkey: key(0x35), Owner: token.Program, Data: make([]byte, token.AccountLen)},
		// Mint sized
		{Pubkey: key(0x10), Owner: token.Program, Data: token.EncodeMint(&token.Mint{
			Supply:        1_000_000,
			Decimals:      9,
			IsInitialized: true,
		})},
		{Pubkey: key(0x12), Owner: token.Program, Data: make([]byte, token.MintLen)},
		{Pubkey: key(0x70), Owner: token.MetadataProgram, Data: token.EncodeMetadata(collection)},
		{Pubkey: key(0x71), Owner: token.MetadataProgram, Data: token.EncodeMetadata(&token.Metadata{
			UpdateAuthority: key(0x60),
			Mint:            key(0x11),
			Name:            "Other",
		})},
		// Master edition
		{Pubkey: key(0x72), Owner: token.MetadataProgram, Data: []byte{6, 0, 0}},
		// Truncated metadata
		{Pubkey: key(0x73), Owner: token.MetadataProgram, Data: []byte{4, 1, 2}},
	}
}

func TestAccountOwnersRun(t *testing.T) {
	sink := &memorySink{}
	p := NewAccountOwners(
		&memorySource{accounts: tokenTestAccounts()},
		sink,
		[]solana.PublicKey{key(0x99), key(0x98)},
	)
	require.NoError(t, p.Run(context.Background()))
	assert.Equal(t, models.AccountTable, p.Name())
	assert.Equal(t, uint64(2), p.Count())
	rows := sink.table(models.AccountTable)
	require.Len(t, rows, 2)
	assert.Equal(
		t,
		&models.Account{
			Pubkey:    key(0x50).String(),
			DataLen:   3,
			Owner:     key(0x99).String(),
			Lamports:  10,
			RentEpoch: types.Uint64(math.MaxUint64),
		},
		rows[key(0x50).String()],
	)
	acct := rows[key(0x51).String()].(*models.Account)
	assert.True(t, acct.Executable)
	assert.Zero(t, acct.DataLen)
}

func TestTokenRun(t *testing.T) {
	sink := &memorySink{}
	p := NewToken(
		&memorySource{accounts: tokenTestAccounts()},
		sink,
		[]solana.PublicKey{key(0x10)},
	)
	require.NoError(t, p.Run(context.Background()))
	assert.Equal(t, models.TokenAccountTable, p.Name())
	assert.Equal(t, uint64(2), p.Count())
	assert.Equal(t, models.AccountTable, p.AccountRows().Name())
	assert.Equal(t, uint64(2), p.AccountRows().Count())
	assert.Equal(t, uint64(1), p.Skipped())

	rows := sink.table(models.TokenAccountTable)
	require.Len(t, rows, 2)
	row := rows[key(0x31).String()].(*models.TokenAccount)
	assert.Equal(t, key(0x10).String(), row.Mint)
	assert.Equal(t, key(0xaa).String(), row.Owner)
	assert.Equal(t, types.Uint64(math.MaxUint64), row.Amount)
	assert.Equal(t, uint8(token.AccountStateInitialized), row.State)
	assert.Nil(t, row.Delegate)
	assert.Nil(t, row.IsNative)
	assert.Nil(t, row.CloseAuthority)
	row = rows[key(0x32).String()].(*models.TokenAccount)
	assert.Equal(t, uint8(token.AccountStateFrozen), row.State)
	require.NotNil(t, row.IsNative)
	assert.Equal(t, types.Uint64(2_039_280), *row.IsNative)

	accts := sink.table(models.AccountTable)
	require.Len(t, accts, 2)
	acct := accts[key(0x31).String()].(*models.Account)
	assert.Equal(t, token.ProgramAddress, acct.Owner)
	assert.Equal(t, token.AccountLen, acct.DataLen)
	assert.Equal(t, types.Uint64(2_039_280), acct.Lamports)
}

func TestTokenRunNoMints(t *testing.T) {
	sink := &memorySink{}
	p := NewToken(&memorySource{accounts: tokenTestAccounts()}, sink, nil)
	require.NoError(t, p.Run(context.Background()))
	assert.Zero(t, p.Count())
	assert.Empty(t, sink.table(models.AccountTable))
}

func TestTokenMintsRun(t *testing.T) {
	sink := &memorySink{}
	p := NewTokenMints(
		&memorySource{accounts: tokenTestAccounts()},
		sink,
		// Valid, uninitialized, missing
		[]solana.PublicKey{key(0x10), key(0x12), key(0x13)},
	)
	require.NoError(t, p.Run(context.Background()))
	assert.Equal(t, models.TokenMintTable, p.Name())
	assert.Equal(t, uint64(1), p.Count())
	assert.Equal(t, uint64(2), p.Failed())
	rows := sink.table(models.TokenMintTable)
	require.Len(t, rows, 1)
	assert.Equal(
		t,
		&models.TokenMint{
			Pubkey:        key(0x10).String(),
			Supply:        1_000_000,
			Decimals:      9,
			IsInitialized: true,
		},
		rows[key(0x10).String()],
	)
}

func TestTokenMintsCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := NewTokenMints(
		&memorySource{accounts: tokenTestAccounts()},
		&memorySink{},
		[]solana.PublicKey{key(0x13)},
	)
	err := p.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, p.Failed())
}

func TestTokenMetadataRun(t *testing.T) {
	sink := &memorySink{}
	p := NewTokenMetadata(&memorySource{accounts: tokenTestAccounts()}, sink)
	require.NoError(t, p.Run(context.Background()))
	assert.Equal(t, models.TokenMetadataTable, p.Name())
	assert.Equal(t, uint64(2), p.Count())
	assert.Equal(t, uint64(1), p.Skipped())

	rows := sink.table(models.TokenMetadataTable)
	require.Len(t, rows, 2)
	row := rows[key(0x70).String()].(*models.TokenMetadata)
	assert.Equal(t, key(0x10).String(), row.Mint)
	assert.Equal(t, "Marinade", row.Name)
	assert.Equal(t, "MNDE", row.Symbol)
	assert.True(t, row.IsMutable)
	require.NotNil(t, row.EditionNonce)
	assert.Equal(t, uint8(254), *row.EditionNonce)
	require.NotNil(t, row.CollectionVerified)
	assert.True(t, *row.CollectionVerified)
	require.NotNil(t, row.CollectionKey)
	assert.Equal(t, key(0x61).String(), *row.CollectionKey)
	assert.Positive(t, row.DataLength)

	row = rows[key(0x71).String()].(*models.TokenMetadata)
	assert.Nil(t, row.CollectionKey)
	assert.Nil(t, row.CollectionVerified)
	assert.Nil(t, row.EditionNonce)
}

func TestRunAll(t *testing.T) {
	defer goleak.VerifyNone(t)
	source := &memorySource{accounts: tokenTestAccounts()}
	sink := &memorySink{}
	owners := NewAccountOwners(source, sink, []solana.PublicKey{key(0x99)})
	tokens := NewToken(source, sink, []solana.PublicKey{key(0x10)})
	mints := NewTokenMints(source, sink, []solana.PublicKey{key(0x10)})
	metadata := NewTokenMetadata(source, sink)
	stats := NewStats(nil)
	stats.Add(owners, tokens, tokens.AccountRows(), mints, metadata)

	require.NoError(t, RunAll(context.Background(), owners, tokens, mints, metadata))
	assert.Equal(
		t,
		map[string]uint64{
			models.AccountTable:       4,
			models.TokenAccountTable:  2,
			models.TokenMintTable:     1,
			models.TokenMetadataTable: 2,
		},
		stats.Counts(),
	)
	stats.Log()
}

func TestRunAllError(t *testing.T) {
	defer goleak.VerifyNone(t)
	errSink := errors.New("disk full")
	source := &memorySource{accounts: tokenTestAccounts()}
	sink := &memorySink{err: errSink}
	err := RunAll(
		context.Background(),
		NewTokenMetadata(source, &memorySink{}),
		NewAccountOwners(source, sink, []solana.PublicKey{key(0x99)}),
	)
	require.ErrorIs(t, err, errSink)
	assert.Contains(t, err.Error(), models.AccountTable+": ")
}
