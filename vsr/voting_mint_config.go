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

	"github.com/blinklabs-io/snapvote/solana"
	"github.com/holiman/uint256"
)

// ScaledFactorBase is the denominator of all vote weight factors
const ScaledFactorBase uint64 = 1_000_000_000

// VotingMintConfig is the weighting configuration for one mint of a
// registrar
type VotingMintConfig struct {
	Mint           solana.PublicKey
	GrantAuthority solana.PublicKey
	// Vote weight factor for all deposited funds, locked or not, in
	// 1/ScaledFactorBase units
	BaselineVoteWeightScaledFactor uint64
	// Extra vote weight factor for funds locked for LockupSaturationSecs or
	// longer, in 1/ScaledFactorBase units. Shorter lockups receive a
	// proportional fraction.
	MaxExtraLockupVoteWeightScaledFactor uint64
	// Lockup duration needed to reach the maximum extra vote weight
	LockupSaturationSecs uint64
	// Native amounts are multiplied by 10^DigitShift before weighting
	DigitShift int8
}

// InUse reports whether the slot holds a configured mint
func (c *VotingMintConfig) InUse() bool {
	return !c.Mint.IsZero()
}

// DigitShiftNative normalizes a native amount by the configured power of ten
func (c *VotingMintConfig) DigitShiftNative(amountNative uint64) (uint64, error) {
	shift := int(c.DigitShift)
	amount := uint256.NewInt(amountNative)
	if shift < 0 {
		divisor, ok := pow10(uint(-shift))
		if !ok {
			// The divisor exceeds any uint64 amount
			return 0, nil
		}
		return narrow(amount.Div(amount, divisor))
	}
	if amountNative == 0 {
		return 0, nil
	}
	factor, ok := pow10(uint(shift))
	if !ok {
		return 0, fmt.Errorf(
			"%w: digit shift %d",
			ErrVoterWeightOverflow,
			c.DigitShift,
		)
	}
	if _, overflow := amount.MulOverflow(amount, factor); overflow {
		return 0, fmt.Errorf(
			"%w: %d shifted by %d digits",
			ErrVoterWeightOverflow,
			amountNative,
			c.DigitShift,
		)
	}
	return narrow(amount)
}

// applyFactor computes base * factor / ScaledFactorBase
func applyFactor(base uint64, factor uint64) (uint64, error) {
	return mulDiv(base, factor, ScaledFactorBase)
}

// BaselineVoteWeight returns the vote weight granted to deposited funds
// regardless of their lockup
func (c *VotingMintConfig) BaselineVoteWeight(amountNative uint64) (uint64, error) {
	shifted, err := c.DigitShiftNative(amountNative)
	if err != nil {
		return 0, err
	}
	return applyFactor(shifted, c.BaselineVoteWeightScaledFactor)
}

// MaxExtraLockupVoteWeight returns the extra vote weight granted to funds
// locked for at least the saturation duration
func (c *VotingMintConfig) MaxExtraLockupVoteWeight(amountNative uint64) (uint64, error) {
	shifted, err := c.DigitShiftNative(amountNative)
	if err != nil {
		return 0, err
	}
	return applyFactor(shifted, c.MaxExtraLockupVoteWeightScaledFactor)
}
