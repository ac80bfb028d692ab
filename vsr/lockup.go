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

import "fmt"

const (
	SecsPerDay   uint64 = 86_400
	SecsPerMonth uint64 = 365 * SecsPerDay / 12
)

// LockupKind selects the decay law of a deposit lockup
type LockupKind uint8

const (
	// LockupKindNone has no lockup. Tokens can be withdrawn at any time.
	LockupKindNone LockupKind = iota
	// LockupKindDaily vests a linear fraction each day
	LockupKindDaily
	// LockupKindMonthly vests a linear fraction each month
	LockupKindMonthly
	// LockupKindCliff releases everything at the end of the lockup
	LockupKindCliff
	// LockupKindConstant never counts down. The lockup duration becomes the
	// minimum notice period once the deposit is converted to a cliff.
	LockupKindConstant
)

func (k LockupKind) Valid() bool {
	return k <= LockupKindConstant
}

func (k LockupKind) String() string {
	switch k {
	case LockupKindNone:
		return "none"
	case LockupKindDaily:
		return "daily"
	case LockupKindMonthly:
		return "monthly"
	case LockupKindCliff:
		return "cliff"
	case LockupKindConstant:
		return "constant"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(k))
	}
}

// PeriodSecs returns the length of one lockup period. For vesting kinds this
// is also the vesting period. Cliff and Constant use a day, which only
// matters for how the lockup length was specified at creation.
func (k LockupKind) PeriodSecs() uint64 {
	switch k {
	case LockupKindDaily, LockupKindCliff, LockupKindConstant:
		return SecsPerDay
	case LockupKindMonthly:
		return SecsPerMonth
	default:
		return 0
	}
}

// Strictness ranks lockup kinds. A lockup may never be changed to a kind of
// lower strictness. Cliff and Constant rank equally.
func (k LockupKind) Strictness() uint8 {
	switch k {
	case LockupKindDaily:
		return 1
	case LockupKindMonthly:
		return 2
	case LockupKindCliff, LockupKindConstant:
		return 3
	default:
		return 0
	}
}

func (k LockupKind) IsVesting() bool {
	return k == LockupKindDaily || k == LockupKindMonthly
}

// Lockup is the schedule of a deposit. Timestamps are unix seconds.
//
// A start in the future still locks the funds. Vote power computations for
// cliff-style lockups only look at the interval from now to EndTs.
type Lockup struct {
	StartTs int64
	EndTs   int64
	Kind    LockupKind
}

// SecondsLeft returns the number of seconds until the lockup ends. Constant
// lockups are always measured from their start.
func (l Lockup) SecondsLeft(now int64) uint64 {
	if l.Kind == LockupKindConstant {
		now = l.StartTs
	}
	if now >= l.EndTs {
		return 0
	}
	// Two's complement subtraction yields the right unsigned distance even
	// when the signed difference would overflow
	return uint64(l.EndTs) - uint64(now)
}

func (l Lockup) Expired(now int64) bool {
	return l.SecondsLeft(now) == 0
}

// PeriodsTotal returns the number of periods in the whole lockup
func (l Lockup) PeriodsTotal() (uint64, error) {
	periodSecs := l.Kind.PeriodSecs()
	if periodSecs == 0 {
		return 0, nil
	}
	lockupSecs := l.SecondsLeft(l.StartTs)
	if lockupSecs%periodSecs != 0 {
		return 0, fmt.Errorf(
			"%w: lockup secs %d is not a multiple of period secs %d",
			ErrLockupPeriodMismatch,
			lockupSecs,
			periodSecs,
		)
	}
	return lockupSecs / periodSecs, nil
}

// PeriodsLeft returns the number of periods that have not fully elapsed at
// now. A lockup that has not started yet has all of its periods left.
func (l Lockup) PeriodsLeft(now int64) (uint64, error) {
	periodSecs := l.Kind.PeriodSecs()
	if periodSecs == 0 {
		return 0, nil
	}
	if now < l.StartTs {
		return l.PeriodsTotal()
	}
	secsLeft := l.SecondsLeft(now)
	// ceil(secsLeft / periodSecs) without overflowing near the top of the range
	ret := secsLeft / periodSecs
	if secsLeft%periodSecs != 0 {
		ret++
	}
	return ret, nil
}
