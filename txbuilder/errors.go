// Copyright (c) 2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txbuilder

import (
	"fmt"

	"github.com/cashkit/cashd/cashutil"
	"github.com/cashkit/cashd/cashutil/er"
)

// Err identifies errors raised by the builder itself, as opposed to policy
// violations reported by Verify.
var Err er.ErrorType = er.NewErrorType("txbuilder.Err")

var (
	// ErrNotEnoughFunds is returned from BuildTransaction when the coins
	// available to a group cannot cover its sends plus fees.  The wrapped
	// NotEnoughFundsError carries the exact shortfall and the group name;
	// use NotEnoughFundsInfo to recover it.
	ErrNotEnoughFunds = Err.Code("ErrNotEnoughFunds")

	// ErrDuplicateSpend is returned from BuildTransaction when two
	// selected coins share an outpoint, before any signing is attempted.
	ErrDuplicateSpend = Err.Code("ErrDuplicateSpend")

	// ErrBadCoin is returned when a coin's scripts are inconsistent, such
	// as a redeem script which does not hash to the script hash of the
	// output it claims to redeem.
	ErrBadCoin = Err.Code("ErrBadCoin")

	// ErrNoGroup is returned from group operations called before any coins,
	// keys or sends have opened a group.
	ErrNoGroup = Err.Code("ErrNoGroup")

	// ErrNoChange is returned from BuildTransaction when input value
	// exceeds the requested sends plus fees but no change script was set.
	ErrNoChange = Err.Code("ErrNoChange")

	// ErrCoinNotFound is returned from SignTransaction when an input spends
	// an outpoint for which no coin was added to the builder.
	ErrCoinNotFound = Err.Code("ErrCoinNotFound")
)

// NotEnoughFundsError carries the exact shortfall of a failed funding pass.
type NotEnoughFundsError struct {
	// Group is the name of the group which could not be funded.
	Group string

	// Missing is the exact amount by which the group's coins fall short of
	// its sends plus fees.
	Missing cashutil.Amount
}

// Error implements the error interface.
func (e *NotEnoughFundsError) Error() string {
	return fmt.Sprintf("group %q is missing %d satoshi", e.Group, int64(e.Missing))
}

// notEnoughFunds builds the typed insufficient funds error for a group.
func notEnoughFunds(group string, missing cashutil.Amount) er.R {
	inner := &NotEnoughFundsError{Group: group, Missing: missing}
	return ErrNotEnoughFunds.New(inner.Error(), er.E(inner))
}

// NotEnoughFundsInfo recovers the shortfall details from an error returned by
// BuildTransaction.  It returns nil when the error is not an insufficient
// funds error.
func NotEnoughFundsInfo(e er.R) *NotEnoughFundsError {
	if e == nil || !ErrNotEnoughFunds.Is(e) {
		return nil
	}
	if info, ok := e.Wrapped().(*NotEnoughFundsError); ok {
		return info
	}
	return nil
}
