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
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/blinklabs-io/snapvote/solana"
	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	DefaultBlockCacheSize = 256 << 20
	DefaultIndexCacheSize = 64 << 20

	// lamports, rent epoch, flags
	accountHeaderLen = 17

	flagExecutable = 1 << 0
)

var (
	accountKeyPrefix = []byte("acct:")
	ownerKeyPrefix   = []byte("owner:")
)

// Store keeps snapshot accounts in badger. Accounts are keyed by owner then
// pubkey so that a program scan is a single prefix iteration, with a
// secondary pubkey to owner index for point lookups.
type Store struct {
	promRegistry   prometheus.Registerer
	db             *badger.DB
	logger         *slog.Logger
	metrics        *storeMetrics
	dataDir        string
	blockCacheSize int64
	indexCacheSize int64
}

type storeMetrics struct {
	accountsStored prometheus.Counter
}

var _ AccountSource = (*Store)(nil)

// NewStore opens a snapshot account store
func NewStore(opts ...StoreOptionFunc) (*Store, error) {
	s := &Store{
		blockCacheSize: DefaultBlockCacheSize,
		indexCacheSize: DefaultIndexCacheSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		s.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	var badgerOpts badger.Options
	if s.dataDir == "" {
		badgerOpts = badger.DefaultOptions("").
			WithLogger(newBadgerLogger(s.logger)).
			// The default INFO logging is a bit verbose
			WithLoggingLevel(badger.WARNING).
			WithInMemory(true)
	} else {
		// Make sure that we can read data dir, and create if it doesn't exist
		if _, err := os.Stat(s.dataDir); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("failed to read data dir: %w", err)
			}
			if err := os.MkdirAll(s.dataDir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create data dir: %w", err)
			}
		}
		badgerOpts = badger.DefaultOptions(filepath.Join(s.dataDir, "accounts")).
			WithLogger(newBadgerLogger(s.logger)).
			WithLoggingLevel(badger.WARNING).
			WithBlockCacheSize(s.blockCacheSize).
			WithIndexCacheSize(s.indexCacheSize).
			WithCompression(options.Snappy)
	}
	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, err
	}
	s.db = db
	s.metrics = s.registerMetrics()
	return s, nil
}

func (s *Store) registerMetrics() *storeMetrics {
	factory := promauto.With(s.promRegistry)
	return &storeMetrics{
		accountsStored: factory.NewCounter(prometheus.CounterOpts{
			Name: "snapvote_snapshot_accounts_stored_total",
			Help: "number of accounts written to the snapshot store",
		}),
	}
}

// Close closes the underlying badger database
func (s *Store) Close() error {
	return s.db.Close()
}

func accountKey(owner, pubkey solana.PublicKey) []byte {
	key := make([]byte, 0, len(accountKeyPrefix)+2*solana.PublicKeyLength)
	key = append(key, accountKeyPrefix...)
	key = append(key, owner[:]...)
	return append(key, pubkey[:]...)
}

func ownerKey(pubkey solana.PublicKey) []byte {
	key := make([]byte, 0, len(ownerKeyPrefix)+solana.PublicKeyLength)
	key = append(key, ownerKeyPrefix...)
	return append(key, pubkey[:]...)
}

func encodeAccountValue(acct solana.Account) []byte {
	val := make([]byte, accountHeaderLen+len(acct.Data))
	binary.LittleEndian.PutUint64(val, acct.Lamports)
	binary.LittleEndian.PutUint64(val[8:], acct.RentEpoch)
	if acct.Executable {
		val[16] |= flagExecutable
	}
	copy(val[accountHeaderLen:], acct.Data)
	return val
}

func decodeAccountValue(key, val []byte) (solana.Account, error) {
	var ret solana.Account
	if len(key) != len(accountKeyPrefix)+2*solana.PublicKeyLength {
		return ret, fmt.Errorf("invalid account key length %d", len(key))
	}
	if len(val) < accountHeaderLen {
		return ret, fmt.Errorf("invalid account value length %d", len(val))
	}
	off := len(accountKeyPrefix)
	copy(ret.Owner[:], key[off:off+solana.PublicKeyLength])
	copy(ret.Pubkey[:], key[off+solana.PublicKeyLength:])
	ret.Lamports = binary.LittleEndian.Uint64(val)
	ret.RentEpoch = binary.LittleEndian.Uint64(val[8:])
	ret.Executable = val[16]&flagExecutable != 0
	ret.Data = val[accountHeaderLen:]
	return ret, nil
}

// PutAccount stores a single account, replacing any previous copy
func (s *Store) PutAccount(acct solana.Account) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return s.setAccount(txn, acct)
	})
	if err != nil {
		return err
	}
	s.metrics.accountsStored.Inc()
	return nil
}

func (s *Store) setAccount(txn *badger.Txn, acct solana.Account) error {
	// Drop a copy stored under a previous owner
	item, err := txn.Get(ownerKey(acct.Pubkey))
	switch {
	case err == nil:
		prevOwner, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		if !bytes.Equal(prevOwner, acct.Owner[:]) {
			owner, err := solana.PublicKeyFromBytes(prevOwner)
			if err != nil {
				return err
			}
			if err := txn.Delete(accountKey(owner, acct.Pubkey)); err != nil {
				return err
			}
		}
	case !errors.Is(err, badger.ErrKeyNotFound):
		return err
	}
	if err := txn.Set(ownerKey(acct.Pubkey), acct.Owner[:]); err != nil {
		return err
	}
	return txn.Set(accountKey(acct.Owner, acct.Pubkey), encodeAccountValue(acct))
}

// PutAccounts stores a batch of accounts. The batch is committed in as few
// transactions as badger's transaction size limit allows.
func (s *Store) PutAccounts(accts []solana.Account) error {
	txn := s.db.NewTransaction(true)
	defer func() {
		txn.Discard()
	}()
	for _, acct := range accts {
		err := s.setAccount(txn, acct)
		if errors.Is(err, badger.ErrTxnTooBig) {
			if err := txn.Commit(); err != nil {
				return err
			}
			txn = s.db.NewTransaction(true)
			err = s.setAccount(txn, acct)
		}
		if err != nil {
			return fmt.Errorf("store account %s: %w", acct.Pubkey, err)
		}
	}
	if err := txn.Commit(); err != nil {
		return err
	}
	s.metrics.accountsStored.Add(float64(len(accts)))
	return nil
}

// GetAccount returns the account with the given pubkey
func (s *Store) GetAccount(
	ctx context.Context,
	pubkey solana.PublicKey,
) (*solana.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var ret *solana.Account
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(ownerKey(pubkey))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrAccountNotFound
			}
			return err
		}
		ownerBytes, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		owner, err := solana.PublicKeyFromBytes(ownerBytes)
		if err != nil {
			return err
		}
		key := accountKey(owner, pubkey)
		item, err = txn.Get(key)
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrAccountNotFound
			}
			return err
		}
		val, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		acct, err := decodeAccountValue(key, val)
		if err != nil {
			return err
		}
		ret = &acct
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ret, nil
}

// ScanProgramAccounts implements AccountSource
func (s *Store) ScanProgramAccounts(
	ctx context.Context,
	program solana.PublicKey,
	filter func([]byte) bool,
	fn func(solana.Account) error,
) error {
	prefix := make([]byte, 0, len(accountKeyPrefix)+solana.PublicKeyLength)
	prefix = append(prefix, accountKeyPrefix...)
	prefix = append(prefix, program[:]...)
	return s.db.View(func(txn *badger.Txn) error {
		iterOpts := badger.DefaultIteratorOptions
		iterOpts.Prefix = prefix
		it := txn.NewIterator(iterOpts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			val, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			acct, err := decodeAccountValue(item.KeyCopy(nil), val)
			if err != nil {
				return err
			}
			if filter != nil && !filter(acct.Data) {
				continue
			}
			if err := fn(acct); err != nil {
				return err
			}
		}
		return nil
	})
}

// Compact runs value log garbage collection until nothing is left to rewrite
func (s *Store) Compact() error {
	if s.dataDir == "" {
		return nil
	}
	for {
		err := s.db.RunValueLogGC(0.5)
		if err != nil {
			if errors.Is(err, badger.ErrNoRewrite) {
				return nil
			}
			return err
		}
	}
}
