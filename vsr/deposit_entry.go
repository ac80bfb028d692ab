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

// DepositEntry is one deposit slot of a voter
type DepositEntry struct {
	Lockup Lockup
	// Amount deposited in native units. Withdrawals of vested tokens reduce
	// this amount.
	AmountDepositedNative uint64
	// Amount locked when the lockup began, in native units. Not adjusted for
	// withdrawals, so it may exceed AmountDepositedNative after vesting.
	AmountInitiallyLockedNative uint64
	IsUsed                      bool
	AllowClawback               bool
	VotingMintConfigIdx         uint8
}

// VotingPower returns the baseline plus locked vote weight of the deposit at
// now
func (d *DepositEntry) VotingPower(
	cfg *VotingMintConfig,
	now int64,
) (uint64, error) {
	baseline, err := cfg.BaselineVoteWeight(d.AmountDepositedNative)
	if err != nil {
		return 0, fmt.Errorf("baseline vote weight: %w", err)
	}
	maxLocked, err := cfg.MaxExtraLockupVoteWeight(
		d.AmountInitiallyLockedNative,
	)
	if err != nil {
		return 0, fmt.Errorf("max extra lockup vote weight: %w", err)
	}
	locked, err := d.VotingPowerLocked(
		now,
		maxLocked,
		cfg.LockupSaturationSecs,
	)
	if err != nil {
		return 0, fmt.Errorf("locked vote weight: %w", err)
	}
	if err := checkLockedWeight(locked, maxLocked); err != nil {
		return 0, err
	}
	return checkedAdd(baseline, locked)
}

// checkLockedWeight fails when the locked weight exceeds its maximum. This
// is never clamped.
func checkLockedWeight(locked uint64, maxLocked uint64) error {
	if locked > maxLocked {
		return fmt.Errorf(
			"%w: locked vote weight %d exceeds max locked vote weight %d",
			ErrVotingPowerInvariantViolation,
			locked,
			maxLocked,
		)
	}
	return nil
}

// VotingPowerLocked returns the extra vote weight from the lockup at now.
// The result decays from maxLocked toward zero as the lockup approaches its
// end, following the decay law of the lockup kind.
func (d *DepositEntry) VotingPowerLocked(
	now int64,
	maxLocked uint64,
	saturationSecs uint64,
) (uint64, error) {
	if d.Lockup.Expired(now) || maxLocked == 0 {
		return 0, nil
	}
	switch d.Lockup.Kind {
	case LockupKindNone:
		return 0, nil
	case LockupKindDaily, LockupKindMonthly:
		return d.votingPowerLinearVesting(now, maxLocked, saturationSecs)
	case LockupKindCliff, LockupKindConstant:
		return d.votingPowerCliff(now, maxLocked, saturationSecs)
	default:
		return 0, fmt.Errorf("%w: %d", ErrInvalidLockupKind, d.Lockup.Kind)
	}
}

func (d *DepositEntry) votingPowerCliff(
	now int64,
	maxLocked uint64,
	saturationSecs uint64,
) (uint64, error) {
	remaining := min(d.Lockup.SecondsLeft(now), saturationSecs)
	return mulDiv(maxLocked, remaining, saturationSecs)
}

// votingPowerLinearVesting treats a vesting lockup as periodsTotal cliffs,
// each worth maxLocked/periodsTotal, and sums their individual cliff vote
// weights:
//
//	maxLocked * sum_p min(secsLeftForCliff_p, saturation) / (periodsTotal * saturation)
//
// with secsLeftForCliff_p = secsToClosestCliff + (p-1) * periodSecs. Let q be
// the number of remaining cliffs below saturation and r = periodsLeft - q the
// saturated ones, then
//
//	sum_p = q * secsToClosestCliff + periodSecs * q*(q-1)/2 + r * saturation
func (d *DepositEntry) votingPowerLinearVesting(
	now int64,
	maxLocked uint64,
	saturationSecs uint64,
) (uint64, error) {
	periodsLeft, err := d.Lockup.PeriodsLeft(now)
	if err != nil {
		return 0, err
	}
	if periodsLeft == 0 {
		return 0, nil
	}
	periodsTotal, err := d.Lockup.PeriodsTotal()
	if err != nil {
		return 0, err
	}
	periodSecs := d.Lockup.Kind.PeriodSecs()

	fullPeriodsSecs, err := checkedMul(periodSecs, periodsLeft-1)
	if err != nil {
		return 0, err
	}
	secsToClosestCliff, err := checkedSub(
		d.Lockup.SecondsLeft(now),
		fullPeriodsSecs,
	)
	if err != nil {
		return 0, err
	}
	if secsToClosestCliff >= saturationSecs {
		return maxLocked, nil
	}

	denominator := new(uint256.Int).Mul(
		uint256.NewInt(periodsTotal),
		uint256.NewInt(saturationSecs),
	)
	if denominator.IsZero() {
		return 0, fmt.Errorf(
			"%w: zero denominator (periods total %d, saturation secs %d)",
			ErrVoterWeightOverflow,
			periodsTotal,
			saturationSecs,
		)
	}

	// Cliffs that are still inside the saturation window
	saturationPeriods := new(uint256.Int).Add(
		uint256.NewInt(saturationSecs-secsToClosestCliff),
		uint256.NewInt(periodSecs),
	)
	saturationPeriods.Div(saturationPeriods, uint256.NewInt(periodSecs))
	q := periodsLeft
	if saturationPeriods.LtUint64(periodsLeft) {
		q = saturationPeriods.Uint64()
	}
	r := periodsLeft - q

	// Sum of full periods left over all unsaturated cliffs. With three
	// cliffs left the closest contributes 0, the next 1 and the last 2.
	sumFullPeriods := new(uint256.Int).Mul(
		uint256.NewInt(q),
		uint256.NewInt(q-1),
	)
	sumFullPeriods.Rsh(sumFullPeriods, 1)

	lockupSecs := new(uint256.Int).Mul(
		uint256.NewInt(q),
		uint256.NewInt(secsToClosestCliff),
	)
	lockupSecs.Add(
		lockupSecs,
		new(uint256.Int).Mul(sumFullPeriods, uint256.NewInt(periodSecs)),
	)
	lockupSecs.Add(
		lockupSecs,
		new(uint256.Int).Mul(uint256.NewInt(r), uint256.NewInt(saturationSecs)),
	)

	ret := new(uint256.Int).Mul(uint256.NewInt(maxLocked), lockupSecs)
	ret.Div(ret, denominator)
	return narrow(ret)
}
