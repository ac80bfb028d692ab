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
	"fmt"

	"github.com/holiman/uint256"
)

// maxPow10Exp is the largest exponent for which 10^exp fits in 256 bits
const maxPow10Exp = 77

// pow10 returns 10^exp. The second return value is false when the result
// does not fit in 256 bits.
func pow10(exp uint) (*uint256.Int, bool) {
	if exp > maxPow10Exp {
		return nil, false
	}
	return new(uint256.Int).Exp(uint256.NewInt(10), uint256.NewInt(uint64(exp))), true
}

// narrow converts a wide intermediate back to uint64
func narrow(v *uint256.Int) (uint64, error) {
	if !v.IsUint64() {
		return 0, fmt.Errorf("%w: %s does not fit in 64 bits", ErrVoterWeightOverflow, v.Dec())
	}
	return v.Uint64(), nil
}

// mulDiv computes a * b / c with a wide intermediate
func mulDiv(a, b, c uint64) (uint64, error) {
	if c == 0 {
		return 0, fmt.Errorf("%w: division by zero", ErrVoterWeightOverflow)
	}
	// The product of two uint64 values always fits in 128 bits
	prod := new(uint256.Int).Mul(uint256.NewInt(a), uint256.NewInt(b))
	return narrow(prod.Div(prod, uint256.NewInt(c)))
}

func checkedAdd(a, b uint64) (uint64, error) {
	sum := a + b
	if sum < a {
		return 0, fmt.Errorf("%w: %d + %d", ErrVoterWeightOverflow, a, b)
	}
	return sum, nil
}

func checkedSub(a, b uint64) (uint64, error) {
	if b > a {
		return 0, fmt.Errorf("%w: %d - %d", ErrVoterWeightOverflow, a, b)
	}
	return a - b, nil
}

func checkedMul(a, b uint64) (uint64, error) {
	prod := new(uint256.Int).Mul(uint256.NewInt(a), uint256.NewInt(b))
	return narrow(prod)
}
