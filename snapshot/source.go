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

// Package snapshot provides access to the accounts captured in a ledger
// snapshot, backed by a local badger store populated from account dumps.
package snapshot

import (
	"context"
	"errors"

	"github.com/blinklabs-io/snapvote/solana"
)

// ErrAccountNotFound is returned when an account is not present in the snapshot
var ErrAccountNotFound = errors.New("account not found")

// AccountSource is the read side of an account snapshot
type AccountSource interface {
	// ScanProgramAccounts calls fn for every account owned by program whose
	// data passes filter. A nil filter matches every account. Iteration stops
	// at the first error returned by fn.
	ScanProgramAccounts(
		ctx context.Context,
		program solana.PublicKey,
		filter func([]byte) bool,
		fn func(solana.Account) error,
	) error
	GetAccount(ctx context.Context, pubkey solana.PublicKey) (*solana.Account, error)
}

// DataSize returns a filter matching account data of exactly n bytes
func DataSize(n int) func([]byte) bool {
	return func(data []byte) bool {
		return len(data) == n
	}
}
