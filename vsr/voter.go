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

// Package vsr computes voter-stake-registry governance voting power. It
// models registrars, voters, deposits and lockups as decoded from account
// snapshots and evaluates the vote weight of a voter at a caller supplied
// timestamp using checked fixed-point integer arithmetic.
package vsr

import (
	"fmt"

	"github.com/blinklabs-io/snapvote/solana"
)

const (
	// MaxVotingMints is the number of voting mint slots in a registrar
	MaxVotingMints = 4
	// MaxDeposits is the number of deposit slots in a voter
	MaxDeposits = 32
)

// Registrar is the realm-wide voting configuration
type Registrar struct {
	GovernanceProgramId     solana.PublicKey
	Realm                   solana.PublicKey
	RealmGoverningTokenMint solana.PublicKey
	RealmAuthority          solana.PublicKey
	// Slots beyond the configured mints are zero and never referenced by a
	// deposit
	VotingMints [MaxVotingMints]VotingMintConfig
	// Debug only: time offset used by on-chain tests
	TimeOffset int64
	Bump       uint8
}

// VotingMint returns the voting mint config at the given slot
func (r *Registrar) VotingMint(idx uint8) (*VotingMintConfig, error) {
	if int(idx) >= len(r.VotingMints) {
		return nil, fmt.Errorf(
			"%w: %d (max %d)",
			ErrInvalidVotingMintIndex,
			idx,
			len(r.VotingMints)-1,
		)
	}
	return &r.VotingMints[idx], nil
}

// Voter holds the deposits of one governance participant
type Voter struct {
	VoterAuthority        solana.PublicKey
	Registrar             solana.PublicKey
	Deposits              [MaxDeposits]DepositEntry
	VoterBump             uint8
	VoterWeightRecordBump uint8
}

// VotingPower returns the total voting power of all used deposits at now.
// Deposits are summed in slot order and the first failing deposit aborts the
// computation.
func (v *Voter) VotingPower(registrar *Registrar, now int64) (uint64, error) {
	var total uint64
	for idx := range v.Deposits {
		deposit := &v.Deposits[idx]
		if !deposit.IsUsed {
			continue
		}
		power, err := depositVotingPower(registrar, deposit, now)
		if err != nil {
			return 0, fmt.Errorf("deposit %d: %w", idx, err)
		}
		total, err = checkedAdd(total, power)
		if err != nil {
			return 0, fmt.Errorf("deposit %d: %w", idx, err)
		}
	}
	return total, nil
}

// DepositPower is the voting power breakdown of a single used deposit
type DepositPower struct {
	Index    int
	Deposit  DepositEntry
	Baseline uint64
	Locked   uint64
	Total    uint64
}

// DepositPowers returns the per-deposit breakdown of the voting power at
// now, in slot order
func (v *Voter) DepositPowers(
	registrar *Registrar,
	now int64,
) ([]DepositPower, error) {
	var ret []DepositPower
	for idx := range v.Deposits {
		deposit := &v.Deposits[idx]
		if !deposit.IsUsed {
			continue
		}
		cfg, err := registrar.VotingMint(deposit.VotingMintConfigIdx)
		if err != nil {
			return nil, fmt.Errorf("deposit %d: %w", idx, err)
		}
		baseline, err := cfg.BaselineVoteWeight(deposit.AmountDepositedNative)
		if err != nil {
			return nil, fmt.Errorf("deposit %d: %w", idx, err)
		}
		total, err := deposit.VotingPower(cfg, now)
		if err != nil {
			return nil, fmt.Errorf("deposit %d: %w", idx, err)
		}
		ret = append(
			ret,
			DepositPower{
				Index:    idx,
				Deposit:  *deposit,
				Baseline: baseline,
				Locked:   total - baseline,
				Total:    total,
			},
		)
	}
	return ret, nil
}

func depositVotingPower(
	registrar *Registrar,
	deposit *DepositEntry,
	now int64,
) (uint64, error) {
	cfg, err := registrar.VotingMint(deposit.VotingMintConfigIdx)
	if err != nil {
		return 0, err
	}
	return deposit.VotingPower(cfg, now)
}

// ComputeVotingPower returns the voting power of a voter at now under the
// given registrar configuration. It performs no I/O and does not modify its
// inputs.
func ComputeVotingPower(
	registrar *Registrar,
	voter *Voter,
	now int64,
) (uint64, error) {
	return voter.VotingPower(registrar, now)
}
