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
	"encoding/binary"
	"fmt"

	"github.com/blinklabs-io/snapvote/solana"
)

// layoutReader walks a little-endian account layout. The first error sticks
// and later reads return zero values.
type layoutReader struct {
	data []byte
	pos  int
	err  error
}

func (r *layoutReader) fail(format string, args ...any) {
	if r.err == nil {
		r.err = fmt.Errorf("%w: "+format, append([]any{ErrInvalidAccountData}, args...)...)
	}
}

func (r *layoutReader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || r.pos+n > len(r.data) {
		r.fail("need %d bytes at offset %d, have %d", n, r.pos, len(r.data))
		return nil
	}
	ret := r.data[r.pos : r.pos+n]
	r.pos += n
	return ret
}

func (r *layoutReader) u8() uint8 {
	b := r.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *layoutReader) u16() uint16 {
	b := r.take(2)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

func (r *layoutReader) u32() uint32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (r *layoutReader) u64() uint64 {
	b := r.take(8)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

func (r *layoutReader) boolean() bool {
	v := r.u8()
	if v > 1 {
		r.fail("invalid bool value %d at offset %d", v, r.pos-1)
	}
	return v == 1
}

func (r *layoutReader) pubkey() solana.PublicKey {
	var ret solana.PublicKey
	if b := r.take(solana.PublicKeyLength); b != nil {
		copy(ret[:], b)
	}
	return ret
}

// coptionTag reads the 4-byte tag of a fixed-size SPL COption
func (r *layoutReader) coptionTag() bool {
	tag := r.u32()
	if tag > 1 {
		r.fail("invalid option tag %d at offset %d", tag, r.pos-4)
	}
	return tag == 1
}

func (r *layoutReader) coptionPubkey() *solana.PublicKey {
	present := r.coptionTag()
	key := r.pubkey()
	if !present || r.err != nil {
		return nil
	}
	return &key
}

func (r *layoutReader) coptionU64() *uint64 {
	present := r.coptionTag()
	v := r.u64()
	if !present || r.err != nil {
		return nil
	}
	return &v
}

// optionTag reads the 1-byte tag of a borsh Option
func (r *layoutReader) optionTag() bool {
	tag := r.u8()
	if tag > 1 {
		r.fail("invalid option tag %d at offset %d", tag, r.pos-1)
	}
	return tag == 1
}

// str reads a borsh string with a 4-byte length prefix
func (r *layoutReader) str() string {
	n := r.u32()
	if r.err == nil && int(n) > len(r.data)-r.pos {
		r.fail("string length %d exceeds remaining %d bytes", n, len(r.data)-r.pos)
		return ""
	}
	return string(r.take(int(n)))
}

type layoutWriter struct {
	buf []byte
}

func (w *layoutWriter) u8(v uint8)   { w.buf = append(w.buf, v) }
func (w *layoutWriter) u16(v uint16) { w.buf = binary.LittleEndian.AppendUint16(w.buf, v) }
func (w *layoutWriter) u32(v uint32) { w.buf = binary.LittleEndian.AppendUint32(w.buf, v) }
func (w *layoutWriter) u64(v uint64) { w.buf = binary.LittleEndian.AppendUint64(w.buf, v) }

func (w *layoutWriter) boolean(v bool) {
	if v {
		w.u8(1)
	} else {
		w.u8(0)
	}
}

func (w *layoutWriter) pubkey(k solana.PublicKey) {
	w.buf = append(w.buf, k[:]...)
}

func (w *layoutWriter) coptionPubkey(k *solana.PublicKey) {
	if k == nil {
		w.u32(0)
		w.pubkey(solana.PublicKey{})
		return
	}
	w.u32(1)
	w.pubkey(*k)
}

func (w *layoutWriter) coptionU64(v *uint64) {
	if v == nil {
		w.u32(0)
		w.u64(0)
		return
	}
	w.u32(1)
	w.u64(*v)
}

func (w *layoutWriter) str(s string) {
	w.u32(uint32(len(s))) //nolint:gosec
	w.buf = append(w.buf, s...)
}
