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

package snapshot

import (
	"bytes"
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/blinklabs-io/snapvote/solana"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadDump(t *testing.T) {
	accts := []solana.Account{
		{Pubkey: testKey(1), Owner: testKey(2), Lamports: 10, Data: []byte("hello")},
		{Pubkey: testKey(3), Owner: testKey(2), Lamports: 20, Data: []byte{}},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteDump(&buf, accts))

	var got []solana.Account
	err := ReadDump(context.Background(), &buf, func(acct solana.Account) error {
		got = append(got, acct)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, accts[0], got[0])
	assert.Equal(t, accts[1].Pubkey, got[1].Pubkey)
	assert.Empty(t, got[1].Data)
}

func TestReadDumpRawJSON(t *testing.T) {
	owner := solana.MustParsePublicKey("VoteMBhDCqGLRgYpp9o7DGyq81KNmwjXQRAHStjtJsS")
	line := `{"pubkey":"` + testKey(7).String() + `","owner":"` + owner.String() +
		`","lamports":42,"executable":true,"rentEpoch":18446744073709551615,"data":"AQID"}` + "\n"
	var buf bytes.Buffer
	zw, err := zstd.NewWriter(&buf)
	require.NoError(t, err)
	_, err = zw.Write([]byte(line))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	var got []solana.Account
	err = ReadDump(context.Background(), &buf, func(acct solana.Account) error {
		got = append(got, acct)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, owner, got[0].Owner)
	assert.Equal(t, uint64(42), got[0].Lamports)
	assert.True(t, got[0].Executable)
	assert.Equal(t, uint64(math.MaxUint64), got[0].RentEpoch)
	assert.Equal(t, []byte{1, 2, 3}, got[0].Data)
}

func TestReadDumpInvalidRecord(t *testing.T) {
	var buf bytes.Buffer
	zw, err := zstd.NewWriter(&buf)
	require.NoError(t, err)
	_, err = zw.Write([]byte(`{"pubkey":"not-a-key"}` + "\n"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	err = ReadDump(context.Background(), &buf, func(solana.Account) error {
		return nil
	})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "record 1"))
}

func TestImportDump(t *testing.T) {
	program := testKey(0xaa)
	var accts []solana.Account
	for i := byte(1); i <= 25; i++ {
		accts = append(accts, solana.Account{Pubkey: testKey(i), Owner: program, Lamports: uint64(i)})
	}
	path := filepath.Join(t.TempDir(), "accounts.jsonl.zst")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, WriteDump(f, accts))
	require.NoError(t, f.Close())

	s := newTestStore(t)
	count, err := s.ImportDump(context.Background(), path, 10)
	require.NoError(t, err)
	assert.Equal(t, 25, count)

	var scanned int
	err = s.ScanProgramAccounts(context.Background(), program, nil, func(solana.Account) error {
		scanned++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 25, scanned)
}

func TestImportDumpMissingFile(t *testing.T) {
	s := newTestStore(t)
	_, err := s.ImportDump(context.Background(), filepath.Join(t.TempDir(), "missing"), 0)
	require.Error(t, err)
}
