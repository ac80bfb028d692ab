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
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRegistrar() *Registrar {
	reg := &Registrar{}
	reg.VotingMints[0] = VotingMintConfig{
		BaselineVoteWeightScaledFactor:       ScaledFactorBase,
		MaxExtraLockupVoteWeightScaledFactor: ScaledFactorBase,
		LockupSaturationSecs:                 1000,
	}
	reg.VotingMints[0].Mint[0] = 1
	reg.VotingMints[1] = VotingMintConfig{
		BaselineVoteWeightScaledFactor:       ScaledFactorBase / 2,
		MaxExtraLockupVoteWeightScaledFactor: 0,
		LockupSaturationSecs:                 1000,
		DigitShift:                           3,
	}
	reg.VotingMints[1].Mint[0] = 2
	return reg
}

func TestVoterVotingPowerAdditive(t *testing.T) {
	reg := testRegistrar()
	voter := &Voter{}
	voter.Deposits[0] = DepositEntry{
		Lockup:                Lockup{Kind: LockupKindNone},
		AmountDepositedNative: 1000,
		IsUsed:                true,
	}
	voter.Deposits[5] = DepositEntry{
		Lockup:                      Lockup{StartTs: 0, EndTs: 1000, Kind: LockupKindCliff},
		AmountDepositedNative:       1_000_000,
		AmountInitiallyLockedNative: 1_000_000,
		IsUsed:                      true,
	}
	// Unused slots never contribute, even with nonsense contents
	voter.Deposits[7] = DepositEntry{
		AmountDepositedNative:       math.MaxUint64,
		AmountInitiallyLockedNative: math.MaxUint64,
		VotingMintConfigIdx:         9,
	}
	p1, err := voter.Deposits[0].VotingPower(&reg.VotingMints[0], 500)
	require.NoError(t, err)
	p2, err := voter.Deposits[5].VotingPower(&reg.VotingMints[0], 500)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), p1)
	assert.Equal(t, uint64(1_500_000), p2)

	total, err := ComputeVotingPower(reg, voter, 500)
	require.NoError(t, err)
	assert.Equal(t, p1+p2, total)
}

func TestVoterVotingPowerEmpty(t *testing.T) {
	total, err := ComputeVotingPower(testRegistrar(), &Voter{}, 0)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestVoterVotingPowerMultipleMints(t *testing.T) {
	reg := testRegistrar()
	voter := &Voter{}
	voter.Deposits[0] = DepositEntry{
		AmountDepositedNative: 10,
		IsUsed:                true,
		VotingMintConfigIdx:   1,
	}
	voter.Deposits[1] = DepositEntry{
		AmountDepositedNative: 10,
		IsUsed:                true,
		VotingMintConfigIdx:   0,
	}
	total, err := ComputeVotingPower(reg, voter, 0)
	require.NoError(t, err)
	// 10 * 10^3 / 2 + 10
	assert.Equal(t, uint64(5_010), total)
}

func TestVoterVotingPowerInvalidMintIndex(t *testing.T) {
	voter := &Voter{}
	voter.Deposits[3] = DepositEntry{
		AmountDepositedNative: 10,
		IsUsed:                true,
		VotingMintConfigIdx:   MaxVotingMints,
	}
	_, err := ComputeVotingPower(testRegistrar(), voter, 0)
	require.ErrorIs(t, err, ErrInvalidVotingMintIndex)
	assert.Contains(t, err.Error(), "deposit 3")
}

func TestVoterVotingPowerSumOverflow(t *testing.T) {
	voter := &Voter{}
	for i := range 2 {
		voter.Deposits[i] = DepositEntry{
			AmountDepositedNative: math.MaxUint64/2 + 1,
			IsUsed:                true,
		}
	}
	_, err := ComputeVotingPower(testRegistrar(), voter, 0)
	require.ErrorIs(t, err, ErrVoterWeightOverflow)
	assert.Contains(t, err.Error(), "deposit 1")
}

func TestVoterVotingPowerAbortsOnFailingDeposit(t *testing.T) {
	voter := &Voter{}
	voter.Deposits[0] = DepositEntry{
		AmountDepositedNative: 10,
		IsUsed:                true,
	}
	voter.Deposits[1] = DepositEntry{
		Lockup:                      Lockup{StartTs: 0, EndTs: 100, Kind: LockupKindMonthly},
		AmountInitiallyLockedNative: 10,
		IsUsed:                      true,
	}
	_, err := ComputeVotingPower(testRegistrar(), voter, 0)
	require.ErrorIs(t, err, ErrLockupPeriodMismatch)
}

func TestComputeVotingPowerDoesNotModifyInputs(t *testing.T) {
	reg := testRegistrar()
	voter := &Voter{}
	voter.Deposits[2] = DepositEntry{
		Lockup:                      Lockup{StartTs: 100, EndTs: 600, Kind: LockupKindConstant},
		AmountDepositedNative:       42,
		AmountInitiallyLockedNative: 42,
		IsUsed:                      true,
	}
	regCopy := *reg
	voterCopy := *voter
	first, err := ComputeVotingPower(reg, voter, 300)
	require.NoError(t, err)
	second, err := ComputeVotingPower(reg, voter, 300)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, regCopy, *reg)
	assert.Equal(t, voterCopy, *voter)
}

func TestVoterDepositPowers(t *testing.T) {
	reg := testRegistrar()
	voter := &Voter{}
	voter.Deposits[4] = DepositEntry{
		Lockup:                      Lockup{StartTs: 0, EndTs: 1000, Kind: LockupKindCliff},
		AmountDepositedNative:       2000,
		AmountInitiallyLockedNative: 1000,
		IsUsed:                      true,
	}
	powers, err := voter.DepositPowers(reg, 250)
	require.NoError(t, err)
	require.Len(t, powers, 1)
	assert.Equal(t, 4, powers[0].Index)
	assert.Equal(t, uint64(2000), powers[0].Baseline)
	assert.Equal(t, uint64(750), powers[0].Locked)
	assert.Equal(t, uint64(2750), powers[0].Total)
	total, err := ComputeVotingPower(reg, voter, 250)
	require.NoError(t, err)
	assert.Equal(t, powers[0].Total, total)
}
