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

package database_test

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/blinklabs-io/snapvote/database"
	"github.com/blinklabs-io/snapvote/database/models"
	"github.com/blinklabs-io/snapvote/database/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"gorm.io/gorm"
)

func testRow(i int, power uint64) *models.VeMndeAccount {
	return &models.VeMndeAccount{
		Pubkey:         fmt.Sprintf("voter-%d", i),
		VoterAuthority: fmt.Sprintf("authority-%d", i),
		VotingPower:    types.Uint64(power),
		Owner:          "VoteMBhDCqGLRgYpp9o7DGyq81KNmwjXQRAHStjtJsS",
	}
}

func TestTempPath(t *testing.T) {
	assert.Equal(
		t,
		filepath.Join("out", "_snapshot.db.tmp"),
		database.TempPath(filepath.Join("out", "snapshot.db")),
	)
}

func TestUpsertReplaces(t *testing.T) {
	db, err := database.New("")
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.Upsert(testRow(1, 100)))
	require.NoError(t, db.Upsert(testRow(1, 200)))
	require.NoError(t, db.Upsert(testRow(2, math.MaxUint64)))

	count, err := db.Count(&models.VeMndeAccount{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	var row models.VeMndeAccount
	require.NoError(t, db.Get(&row, "voter-1"))
	assert.Equal(t, types.Uint64(200), row.VotingPower)

	require.NoError(t, db.Get(&row, "voter-2"))
	assert.Equal(t, types.Uint64(math.MaxUint64), row.VotingPower)

	require.ErrorIs(t, db.Get(&row, "voter-3"), gorm.ErrRecordNotFound)
}

func TestFinalizePromotesFile(t *testing.T) {
	reg := prometheus.NewRegistry()
	outPath := filepath.Join(t.TempDir(), "snapshot.db")
	db, err := database.New(
		outPath,
		database.WithTxBulk(3),
		database.WithCacheSizeMb(8),
		database.WithMmapSizeMb(16),
		database.WithPromRegistry(reg),
	)
	require.NoError(t, err)
	assert.FileExists(t, database.TempPath(outPath))
	assert.NoFileExists(t, outPath)

	for i := range 7 {
		require.NoError(t, db.Upsert(testRow(i, uint64(i)*10)))
	}
	// Reads see rows of the open bulk transaction
	count, err := db.Count(&models.VeMndeAccount{})
	require.NoError(t, err)
	assert.Equal(t, int64(7), count)

	require.NoError(t, db.Finalize())
	require.NoError(t, db.Close())
	assert.FileExists(t, outPath)
	assert.NoFileExists(t, database.TempPath(outPath))

	mfs, err := reg.Gather()
	require.NoError(t, err)
	require.Len(t, mfs, 1)
	assert.InDelta(t, 7.0, mfs[0].GetMetric()[0].GetCounter().GetValue(), 0)

	_, err = db.Count(&models.VeMndeAccount{})
	require.ErrorIs(t, err, database.ErrDatabaseClosed)
}

func TestCloseDiscardsTempFile(t *testing.T) {
	outPath := filepath.Join(t.TempDir(), "snapshot.db")
	db, err := database.New(outPath, database.WithTxBulk(10))
	require.NoError(t, err)
	require.NoError(t, db.Upsert(testRow(1, 1)))
	require.NoError(t, db.Close())
	assert.NoFileExists(t, outPath)
	assert.NoFileExists(t, database.TempPath(outPath))
	require.ErrorIs(t, db.Upsert(testRow(2, 1)), database.ErrDatabaseClosed)
}

func TestNewRemovesStaleTempFile(t *testing.T) {
	outPath := filepath.Join(t.TempDir(), "snapshot.db")
	require.NoError(t, os.WriteFile(database.TempPath(outPath), []byte("garbage"), 0o600))
	db, err := database.New(outPath)
	require.NoError(t, err)
	require.NoError(t, db.Upsert(testRow(1, 1)))
	require.NoError(t, db.Finalize())
}

func TestWriter(t *testing.T) {
	defer goleak.VerifyNone(t)
	db, err := database.New("", database.WithTxBulk(4))
	require.NoError(t, err)
	w := database.NewWriter(db, 2)
	for i := range 10 {
		require.NoError(t, w.Write(context.Background(), testRow(i, 1)))
	}
	w.Stop()
	w.Stop()
	assert.Equal(t, uint64(10), w.Written())
	assert.Equal(t, uint64(0), w.Failed())
	count, err := db.Count(&models.VeMndeAccount{})
	require.NoError(t, err)
	assert.Equal(t, int64(10), count)
	require.NoError(t, db.Finalize())
}

func TestWriterCountsFailures(t *testing.T) {
	db, err := database.New("")
	require.NoError(t, err)
	require.NoError(t, db.Close())
	w := database.NewWriter(db, 1)
	require.NoError(t, w.Write(context.Background(), testRow(1, 1)))
	w.Stop()
	assert.Equal(t, uint64(0), w.Written())
	assert.Equal(t, uint64(1), w.Failed())
}

func TestWriterWriteCancelled(t *testing.T) {
	db, err := database.New("")
	require.NoError(t, err)
	defer db.Close()
	w := database.NewWriter(db, 1)
	defer w.Stop()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// Fill the queue until the cancelled context wins the select
	var gotErr error
	for range 100 {
		if gotErr = w.Write(ctx, testRow(1, 1)); gotErr != nil {
			break
		}
	}
	require.ErrorIs(t, gotErr, context.Canceled)
}

func TestTokenTables(t *testing.T) {
	db, err := database.New("")
	require.NoError(t, err)
	defer db.Close()

	delegate := "delegate-1"
	native := types.Uint64(2_039_280)
	require.NoError(t, db.Upsert(&models.Account{
		Pubkey:    "account-1",
		DataLen:   165,
		Owner:     "owner-1",
		Lamports:  2_039_280,
		RentEpoch: math.MaxUint64,
	}))
	require.NoError(t, db.Upsert(&models.TokenAccount{
		Pubkey:          "token-1",
		Mint:            "mint-1",
		Owner:           "owner-1",
		Amount:          math.MaxUint64,
		Delegate:        &delegate,
		State:           1,
		IsNative:        &native,
		DelegatedAmount: 7,
	}))
	require.NoError(t, db.Upsert(&models.TokenAccount{
		Pubkey: "token-2",
		Mint:   "mint-1",
		Owner:  "owner-2",
		State:  2,
	}))
	require.NoError(t, db.Upsert(&models.TokenMint{
		Pubkey:        "mint-1",
		Supply:        math.MaxUint64,
		Decimals:      9,
		IsInitialized: true,
	}))
	nonce := uint8(255)
	require.NoError(t, db.Upsert(&models.TokenMetadata{
		Pubkey:       "metadata-1",
		Mint:         "mint-1",
		Name:         "mSOL",
		DataLength:   679,
		EditionNonce: &nonce,
	}))

	var acct models.Account
	require.NoError(t, db.Get(&acct, "account-1"))
	assert.Equal(t, types.Uint64(math.MaxUint64), acct.RentEpoch)
	assert.Equal(t, 165, acct.DataLen)

	var tokenAcct models.TokenAccount
	require.NoError(t, db.Get(&tokenAcct, "token-1"))
	assert.Equal(t, types.Uint64(math.MaxUint64), tokenAcct.Amount)
	require.NotNil(t, tokenAcct.Delegate)
	assert.Equal(t, delegate, *tokenAcct.Delegate)
	require.NotNil(t, tokenAcct.IsNative)
	assert.Equal(t, native, *tokenAcct.IsNative)
	assert.Nil(t, tokenAcct.CloseAuthority)

	require.NoError(t, db.Get(&tokenAcct, "token-2"))
	assert.Equal(t, uint8(2), tokenAcct.State)
	assert.Nil(t, tokenAcct.Delegate)
	assert.Nil(t, tokenAcct.IsNative)

	var mint models.TokenMint
	require.NoError(t, db.Get(&mint, "mint-1"))
	assert.Equal(t, uint8(9), mint.Decimals)
	assert.Nil(t, mint.MintAuthority)

	var meta models.TokenMetadata
	require.NoError(t, db.Get(&meta, "metadata-1"))
	require.NotNil(t, meta.EditionNonce)
	assert.Equal(t, nonce, *meta.EditionNonce)
	assert.Nil(t, meta.CollectionKey)
}

func TestWriterCountsRowsByTable(t *testing.T) {
	defer goleak.VerifyNone(t)
	reg := prometheus.NewRegistry()
	db, err := database.New("", database.WithPromRegistry(reg))
	require.NoError(t, err)
	defer db.Close()
	w := database.NewWriter(db, 4)
	require.NoError(t, w.Write(context.Background(), testRow(1, 1)))
	require.NoError(t, w.Write(context.Background(), &models.TokenMint{Pubkey: "mint-1"}))
	require.NoError(t, w.Write(context.Background(), &models.TokenMint{Pubkey: "mint-2"}))
	w.Stop()
	assert.Equal(t, uint64(3), w.Written())
	count, err := testutil.GatherAndCount(reg, "snapvote_rows_written_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	count, err = db.Count(&models.TokenMint{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}
