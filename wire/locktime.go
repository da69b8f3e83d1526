// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"fmt"
	"time"

	"github.com/cashkit/cashd/cashutil/er"
)

// LockTimeThreshold is the number below which a transaction lock time is
// interpreted as a block height rather than a unix timestamp.
//
// consensus critical
const LockTimeThreshold = 5e8 // Tue Nov 5 00:53:20 1985 UTC

// LockTime is the raw nLockTime field of a transaction.  Values below
// LockTimeThreshold name a block height, values at or above it name a unix
// time.  A zero LockTime disables the lock entirely.
type LockTime uint32

// NewLockTimeFromHeight creates a height-based LockTime.  Heights at or
// beyond the threshold cannot be represented and return an error.
func NewLockTimeFromHeight(height uint32) (LockTime, er.R) {
	if height >= LockTimeThreshold {
		return 0, er.Errorf("block height %d is not below the locktime "+
			"threshold %d", height, uint32(LockTimeThreshold))
	}
	return LockTime(height), nil
}

// NewLockTimeFromTime creates a time-based LockTime.  Times before the
// threshold cannot be represented and return an error.
func NewLockTimeFromTime(t time.Time) (LockTime, er.R) {
	secs := t.Unix()
	if secs < LockTimeThreshold {
		return 0, er.Errorf("time %v is below the locktime threshold", t)
	}
	if secs > 0xffffffff {
		return 0, er.Errorf("time %v does not fit in 32 bits", t)
	}
	return LockTime(secs), nil
}

// IsHeight returns true when the lock time names a block height.
func (l LockTime) IsHeight() bool {
	return uint32(l) < LockTimeThreshold
}

// Height returns the block height the lock time names.  Asking a time-based
// lock time for its height is an error.
func (l LockTime) Height() (uint32, er.R) {
	if !l.IsHeight() {
		return 0, er.New(fmt.Sprintf("locktime %d is a timestamp, not a height", l))
	}
	return uint32(l), nil
}

// Time returns the unix time the lock time names.  Asking a height-based
// lock time for its time is an error.
func (l LockTime) Time() (time.Time, er.R) {
	if l.IsHeight() {
		return time.Time{}, er.New(fmt.Sprintf("locktime %d is a height, not a timestamp", l))
	}
	return time.Unix(int64(l), 0), nil
}
