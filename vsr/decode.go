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

package vsr

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"github.com/blinklabs-io/snapvote/solana"
)

// Account data sizes of the on-chain layouts
const (
	RegistrarAccountLen = 880
	VoterAccountLen     = 2728

	discriminatorLen    = 8
	votingMintConfigLen = 152
	depositEntryLen     = 80
)

// Account names used to derive Anchor discriminators
const (
	RegistrarAccountName = "Registrar"
	VoterAccountName     = "Voter"
)

// Discriminator returns the Anchor account discriminator for an account name
func Discriminator(accountName string) [discriminatorLen]byte {
	var ret [discriminatorLen]byte
	sum := sha256.Sum256([]byte("account:" + accountName))
	copy(ret[:], sum[:discriminatorLen])
	return ret
}

// VerifyDiscriminator checks the leading discriminator of account data
func VerifyDiscriminator(data []byte, accountName string) error {
	if len(data) < discriminatorLen {
		return fmt.Errorf(
			"%w: %d bytes is too short for a discriminator",
			ErrInvalidAccountData,
			len(data),
		)
	}
	expected := Discriminator(accountName)
	if !bytes.Equal(data[:discriminatorLen], expected[:]) {
		return fmt.Errorf(
			"%w: expected %x for %s, got %x",
			ErrInvalidDiscriminator,
			expected,
			accountName,
			data[:discriminatorLen],
		)
	}
	return nil
}

// accountReader walks a fixed little-endian layout. The first error sticks
// and later reads return zero values.
type accountReader struct {
	data []byte
	pos  int
	err  error
}

func (r *accountReader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if r.pos+n > len(r.data) {
		r.err = fmt.Errorf(
			"%w: need %d bytes at offset %d, have %d",
			ErrInvalidAccountData,
			n,
			r.pos,
			len(r.data),
		)
		return nil
	}
	ret := r.data[r.pos : r.pos+n]
	r.pos += n
	return ret
}

func (r *accountReader) skip(n int) {
	r.take(n)
}

func (r *accountReader) u8() uint8 {
	b := r.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *accountReader) boolean() bool {
	v := r.u8()
	if v > 1 && r.err == nil {
		r.err = fmt.Errorf(
			"%w: invalid bool value %d at offset %d",
			ErrInvalidAccountData,
			v,
			r.pos-1,
		)
	}
	return v == 1
}

func (r *accountReader) u64() uint64 {
	b := r.take(8)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

func (r *accountReader) i64() int64 {
	return int64(r.u64()) //nolint:gosec
}

func (r *accountReader) pubkey() solana.PublicKey {
	var ret solana.PublicKey
	b := r.take(solana.PublicKeyLength)
	if b != nil {
		copy(ret[:], b)
	}
	return ret
}

func (r *accountReader) lockupKind() LockupKind {
	v := LockupKind(r.u8())
	if !v.Valid() && r.err == nil {
		r.err = fmt.Errorf("%w: %d", ErrInvalidLockupKind, uint8(v))
	}
	return v
}

// DecodeRegistrar decodes registrar account data. The discriminator is not
// checked.
func DecodeRegistrar(data []byte) (*Registrar, error) {
	r := &accountReader{data: data}
	ret := &Registrar{}
	r.skip(discriminatorLen)
	ret.GovernanceProgramId = r.pubkey()
	ret.Realm = r.pubkey()
	ret.RealmGoverningTokenMint = r.pubkey()
	ret.RealmAuthority = r.pubkey()
	r.skip(32)
	for i := range ret.VotingMints {
		cfg := &ret.VotingMints[i]
		cfg.Mint = r.pubkey()
		cfg.GrantAuthority = r.pubkey()
		cfg.BaselineVoteWeightScaledFactor = r.u64()
		cfg.MaxExtraLockupVoteWeightScaledFactor = r.u64()
		cfg.LockupSaturationSecs = r.u64()
		cfg.DigitShift = int8(r.u8()) //nolint:gosec
		r.skip(7 + 7*8)
	}
	ret.TimeOffset = r.i64()
	ret.Bump = r.u8()
	r.skip(7 + 11*8)
	if r.err != nil {
		return nil, fmt.Errorf("decode registrar: %w", r.err)
	}
	return ret, nil
}

// DecodeVoter decodes voter account data. The discriminator is not checked.
func DecodeVoter(data []byte) (*Voter, error) {
	r := &accountReader{data: data}
	ret := &Voter{}
	r.skip(discriminatorLen)
	ret.VoterAuthority = r.pubkey()
	ret.Registrar = r.pubkey()
	for i := range ret.Deposits {
		d := &ret.Deposits[i]
		d.Lockup.StartTs = r.i64()
		d.Lockup.EndTs = r.i64()
		d.Lockup.Kind = r.lockupKind()
		r.skip(15)
		d.AmountDepositedNative = r.u64()
		d.AmountInitiallyLockedNative = r.u64()
		d.IsUsed = r.boolean()
		d.AllowClawback = r.boolean()
		d.VotingMintConfigIdx = r.u8()
		r.skip(29)
	}
	ret.VoterBump = r.u8()
	ret.VoterWeightRecordBump = r.u8()
	r.skip(94)
	if r.err != nil {
		return nil, fmt.Errorf("decode voter: %w", r.err)
	}
	return ret, nil
}

type accountWriter struct {
	buf []byte
}

func (w *accountWriter) bytes(b []byte) { w.buf = append(w.buf, b...) }
func (w *accountWriter) zero(n int)     { w.buf = append(w.buf, make([]byte, n)...) }
func (w *accountWriter) u8(v uint8)     { w.buf = append(w.buf, v) }
func (w *accountWriter) u64(v uint64)   { w.buf = binary.LittleEndian.AppendUint64(w.buf, v) }
func (w *accountWriter) i64(v int64)    { w.u64(uint64(v)) } //nolint:gosec

func (w *accountWriter) boolean(v bool) {
	if v {
		w.u8(1)
	} else {
		w.u8(0)
	}
}

// EncodeRegistrar produces registrar account data, including the Anchor
// discriminator
func EncodeRegistrar(reg *Registrar) []byte {
	w := &accountWriter{buf: make([]byte, 0, RegistrarAccountLen)}
	disc := Discriminator(RegistrarAccountName)
	w.bytes(disc[:])
	w.bytes(reg.GovernanceProgramId[:])
	w.bytes(reg.Realm[:])
	w.bytes(reg.RealmGoverningTokenMint[:])
	w.bytes(reg.RealmAuthority[:])
	w.zero(32)
	for i := range reg.VotingMints {
		cfg := &reg.VotingMints[i]
		w.bytes(cfg.Mint[:])
		w.bytes(cfg.GrantAuthority[:])
		w.u64(cfg.BaselineVoteWeightScaledFactor)
		w.u64(cfg.MaxExtraLockupVoteWeightScaledFactor)
		w.u64(cfg.LockupSaturationSecs)
		w.u8(uint8(cfg.DigitShift)) //nolint:gosec
		w.zero(7 + 7*8)
	}
	w.i64(reg.TimeOffset)
	w.u8(reg.Bump)
	w.zero(7 + 11*8)
	return w.buf
}

// EncodeVoter produces voter account data, including the Anchor
// discriminator
func EncodeVoter(voter *Voter) []byte {
	w := &accountWriter{buf: make([]byte, 0, VoterAccountLen)}
	disc := Discriminator(VoterAccountName)
	w.bytes(disc[:])
	w.bytes(voter.VoterAuthority[:])
	w.bytes(voter.Registrar[:])
	for i := range voter.Deposits {
		d := &voter.Deposits[i]
		w.i64(d.Lockup.StartTs)
		w.i64(d.Lockup.EndTs)
		w.u8(uint8(d.Lockup.Kind))
		w.zero(15)
		w.u64(d.AmountDepositedNative)
		w.u64(d.AmountInitiallyLockedNative)
		w.boolean(d.IsUsed)
		w.boolean(d.AllowClawback)
		w.u8(d.VotingMintConfigIdx)
		w.zero(29)
	}
	w.u8(voter.VoterBump)
	w.u8(voter.VoterWeightRecordBump)
	w.zero(94)
	return w.buf
}
