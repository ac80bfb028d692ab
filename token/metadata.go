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
	"strings"

	"github.com/blinklabs-io/snapvote/solana"
)

const MetadataProgramAddress = "metaqbxxUerdq28cj1RbAWkYQm3ybzjb6a8bt518x1s"

var MetadataProgram = solana.MustParsePublicKey(MetadataProgramAddress)

// keyMetadataV1 is the leading account type byte of a metadata account
const keyMetadataV1 = 4

// Creator is a verified or unverified creator share of a token
type Creator struct {
	Address  solana.PublicKey
	Verified bool
	Share    uint8
}

// Collection links a token to its collection mint
type Collection struct {
	Verified bool
	Key      solana.PublicKey
}

// Uses limits how often a token can be used
type Uses struct {
	UseMethod uint8
	Remaining uint64
	Total     uint64
}

// Metadata is the Metaplex metadata of a token mint. Name, symbol and URI
// are stored on chain padded with NUL bytes; the padding is removed.
type Metadata struct {
	UpdateAuthority      solana.PublicKey
	Mint                 solana.PublicKey
	Name                 string
	Symbol               string
	Uri                  string
	SellerFeeBasisPoints uint16
	Creators             []Creator
	PrimarySaleHappened  bool
	IsMutable            bool
	EditionNonce         *uint8
	TokenStandard        *uint8
	Collection           *Collection
	Uses                 *Uses
}

// DecodeMetadata decodes a metadata program account. Accounts of other
// types return ErrNotMetadata.
func DecodeMetadata(data []byte) (*Metadata, error) {
	if len(data) == 0 || data[0] != keyMetadataV1 {
		return nil, ErrNotMetadata
	}
	r := &layoutReader{data: data, pos: 1}
	ret := &Metadata{
		UpdateAuthority: r.pubkey(),
		Mint:            r.pubkey(),
		Name:            trimPadding(r.str()),
		Symbol:          trimPadding(r.str()),
		Uri:             trimPadding(r.str()),
	}
	ret.SellerFeeBasisPoints = r.u16()
	if r.optionTag() {
		n := r.u32()
		// Each creator takes 34 bytes
		if r.err == nil && int(n) > (len(data)-r.pos)/34 {
			r.fail("%d creators exceed remaining %d bytes", n, len(data)-r.pos)
		}
		for i := 0; i < int(n) && r.err == nil; i++ {
			ret.Creators = append(
				ret.Creators,
				Creator{
					Address:  r.pubkey(),
					Verified: r.boolean(),
					Share:    r.u8(),
				},
			)
		}
	}
	ret.PrimarySaleHappened = r.boolean()
	ret.IsMutable = r.boolean()
	if r.err != nil {
		return nil, fmt.Errorf("metadata: %w", r.err)
	}
	decodeMetadataTail(r, ret)
	return ret, nil
}

// decodeMetadataTail reads the optional fields appended by later versions of
// the metadata program. Older accounts end early or carry zero padding, so
// parse failures leave the fields unset instead of failing the account.
func decodeMetadataTail(r *layoutReader, m *Metadata) {
	if r.optionTag() {
		nonce := r.u8()
		if r.err == nil {
			m.EditionNonce = &nonce
		}
	}
	if r.err != nil {
		return
	}
	var (
		tokenStandard *uint8
		collection    *Collection
		uses          *Uses
	)
	if r.optionTag() {
		v := r.u8()
		tokenStandard = &v
	}
	if r.optionTag() {
		collection = &Collection{
			Verified: r.boolean(),
			Key:      r.pubkey(),
		}
	}
	if r.optionTag() {
		uses = &Uses{
			UseMethod: r.u8(),
			Remaining: r.u64(),
			Total:     r.u64(),
		}
	}
	if r.err != nil {
		return
	}
	m.TokenStandard = tokenStandard
	m.Collection = collection
	m.Uses = uses
}

func trimPadding(s string) string {
	return strings.TrimRight(s, "\x00")
}

// EncodeMetadata returns the account data layout of m
func EncodeMetadata(m *Metadata) []byte {
	w := &layoutWriter{}
	w.u8(keyMetadataV1)
	w.pubkey(m.UpdateAuthority)
	w.pubkey(m.Mint)
	w.str(m.Name)
	w.str(m.Symbol)
	w.str(m.Uri)
	w.u16(m.SellerFeeBasisPoints)
	if m.Creators == nil {
		w.u8(0)
	} else {
		w.u8(1)
		w.u32(uint32(len(m.Creators))) //nolint:gosec
		for _, c := range m.Creators {
			w.pubkey(c.Address)
			w.boolean(c.Verified)
			w.u8(c.Share)
		}
	}
	w.boolean(m.PrimarySaleHappened)
	w.boolean(m.IsMutable)
	if m.EditionNonce == nil {
		w.u8(0)
	} else {
		w.u8(1)
		w.u8(*m.EditionNonce)
	}
	if m.TokenStandard == nil {
		w.u8(0)
	} else {
		w.u8(1)
		w.u8(*m.TokenStandard)
	}
	if m.Collection == nil {
		w.u8(0)
	} else {
		w.u8(1)
		w.boolean(m.Collection.Verified)
		w.pubkey(m.Collection.Key)
	}
	if m.Uses == nil {
		w.u8(0)
	} else {
		w.u8(1)
		w.u8(m.Uses.UseMethod)
		w.u64(m.Uses.Remaining)
		w.u64(m.Uses.Total)
	}
	return w.buf
}
