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
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/blinklabs-io/snapvote/solana"
	"github.com/klauspost/compress/zstd"
)

const DefaultImportBatchSize = 1000

// ReadDump streams the accounts in a zstd-compressed JSON lines dump. Each
// line holds one object with base58 pubkey and owner, lamports, the
// optional executable flag and rentEpoch, and base64 data.
func ReadDump(
	ctx context.Context,
	r io.Reader,
	fn func(solana.Account) error,
) error {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return fmt.Errorf("creating zstd reader: %w", err)
	}
	defer zr.Close()
	dec := json.NewDecoder(zr)
	for line := 1; ; line++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		var acct solana.Account
		if err := dec.Decode(&acct); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("decoding dump record %d: %w", line, err)
		}
		if err := fn(acct); err != nil {
			return err
		}
	}
}

// WriteDump writes accounts in the format read by ReadDump
func WriteDump(w io.Writer, accts []solana.Account) error {
	zw, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("creating zstd writer: %w", err)
	}
	enc := json.NewEncoder(zw)
	for _, acct := range accts {
		if err := enc.Encode(acct); err != nil {
			_ = zw.Close()
			return err
		}
	}
	return zw.Close()
}

// ImportDump loads a dump file into the store in batches and returns the
// number of accounts stored
func (s *Store) ImportDump(
	ctx context.Context,
	path string,
	batchSize int,
) (int, error) {
	if batchSize <= 0 {
		batchSize = DefaultImportBatchSize
	}
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("opening dump: %w", err)
	}
	defer f.Close()
	var count int
	batch := make([]solana.Account, 0, batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := s.PutAccounts(batch); err != nil {
			return err
		}
		count += len(batch)
		s.logger.Debug(
			fmt.Sprintf("stored %d accounts", count),
			"component", "snapshot",
		)
		batch = batch[:0]
		return nil
	}
	err = ReadDump(ctx, f, func(acct solana.Account) error {
		batch = append(batch, acct)
		if len(batch) >= batchSize {
			return flush()
		}
		return nil
	})
	if err != nil {
		return count, err
	}
	if err := flush(); err != nil {
		return count, err
	}
	s.logger.Info(
		fmt.Sprintf("imported %d accounts from %s", count, path),
		"component", "snapshot",
	)
	return count, nil
}
