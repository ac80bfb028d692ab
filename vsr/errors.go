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

import "errors"

var (
	// ErrVoterWeightOverflow is returned when a weight computation cannot be
	// represented as a uint64
	ErrVoterWeightOverflow = errors.New("voter weight overflow")

	// ErrLockupPeriodMismatch is returned when a lockup duration is not a
	// whole number of periods
	ErrLockupPeriodMismatch = errors.New("lockup period mismatch")

	// ErrVotingPowerInvariantViolation is returned when the computed locked
	// weight exceeds the maximum locked weight for a deposit
	ErrVotingPowerInvariantViolation = errors.New(
		"voting power invariant violation",
	)

	// ErrInvalidVotingMintIndex is returned when a deposit references a
	// voting mint slot outside the registrar
	ErrInvalidVotingMintIndex = errors.New("invalid voting mint config index")

	// ErrInvalidAccountData is returned when account data is too short or
	// otherwise malformed
	ErrInvalidAccountData = errors.New("invalid account data")

	// ErrInvalidDiscriminator is returned when the account discriminator does
	// not match the expected account type
	ErrInvalidDiscriminator = errors.New("invalid account discriminator")

	// ErrInvalidLockupKind is returned when a lockup kind byte is unknown
	ErrInvalidLockupKind = errors.New("invalid lockup kind")
)
