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

package solana

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/base58"
)

const PublicKeyLength = 32

var ErrInvalidPublicKey = errors.New("invalid public key")

// PublicKey is a 32-byte account address, rendered in base58.
type PublicKey [PublicKeyLength]byte

// ParsePublicKey decodes a base58 account address
func ParsePublicKey(s string) (PublicKey, error) {
	var ret PublicKey
	if s == "" {
		return ret, fmt.Errorf("%w: empty string", ErrInvalidPublicKey)
	}
	decoded := base58.Decode(s)
	if len(decoded) != PublicKeyLength {
		return ret, fmt.Errorf(
			"%w: %q decodes to %d bytes",
			ErrInvalidPublicKey,
			s,
			len(decoded),
		)
	}
	copy(ret[:], decoded)
	return ret, nil
}

// MustParsePublicKey is like ParsePublicKey but panics on error. It is meant
// for well-known program addresses.
func MustParsePublicKey(s string) PublicKey {
	ret, err := ParsePublicKey(s)
	if err != nil {
		panic(err)
	}
	return ret
}

// PublicKeyFromBytes copies a 32-byte slice into a PublicKey
func PublicKeyFromBytes(b []byte) (PublicKey, error) {
	var ret PublicKey
	if len(b) != PublicKeyLength {
		return ret, fmt.Errorf(
			"%w: expected %d bytes, got %d",
			ErrInvalidPublicKey,
			PublicKeyLength,
			len(b),
		)
	}
	copy(ret[:], b)
	return ret, nil
}

func (k PublicKey) String() string {
	return base58.Encode(k[:])
}

func (k PublicKey) Bytes() []byte {
	return k[:]
}

func (k PublicKey) IsZero() bool {
	return k == PublicKey{}
}

// MarshalText implements encoding.TextMarshaler
func (k PublicKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (k *PublicKey) UnmarshalText(text []byte) error {
	tmp, err := ParsePublicKey(string(text))
	if err != nil {
		return err
	}
	*k = tmp
	return nil
}

// Account is a single ledger account as captured in a snapshot
type Account struct {
	Pubkey     PublicKey `json:"pubkey"`
	Owner      PublicKey `json:"owner"`
	Lamports   uint64    `json:"lamports"`
	Executable bool      `json:"executable,omitempty"`
	RentEpoch  uint64    `json:"rentEpoch,omitempty"`
	Data       []byte    `json:"data"`
}
