// Copyright (c) 2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txbuilder

import (
	"fmt"

	"github.com/cashkit/cashd/cashutil"
	"github.com/cashkit/cashd/cashutil/er"
	"github.com/cashkit/cashd/wire"
)

// PolicyError is a single violation found by Verify.  Verify accumulates
// every violation rather than stopping at the first, so callers type-switch
// on the concrete variants to react to specific conditions.
type PolicyError interface {
	error

	// policyError restricts implementations to this package.
	policyError()
}

// DuplicateInputPolicyError reports a transaction spending the same outpoint
// from more than one input.
type DuplicateInputPolicyError struct {
	// OutPoint is the outpoint spent more than once.
	OutPoint wire.OutPoint

	// InputIndices are the indices of all inputs spending it.
	InputIndices []int
}

func (e *DuplicateInputPolicyError) Error() string {
	return fmt.Sprintf("outpoint %v is spent by inputs %v",
		&e.OutPoint, e.InputIndices)
}

func (*DuplicateInputPolicyError) policyError() {}

// CoinNotFoundPolicyError reports an input spending an outpoint for which the
// verifying builder holds no coin.
type CoinNotFoundPolicyError struct {
	// InputIndex is the index of the input which cannot be checked.
	InputIndex int

	// OutPoint is the unknown outpoint it spends.
	OutPoint wire.OutPoint
}

func (e *CoinNotFoundPolicyError) Error() string {
	return fmt.Sprintf("input %d spends unknown outpoint %v",
		e.InputIndex, &e.OutPoint)
}

func (*CoinNotFoundPolicyError) policyError() {}

// ScriptPolicyError reports an input whose scripts failed verification.
type ScriptPolicyError struct {
	// InputIndex is the index of the failing input.
	InputIndex int

	// ScriptError is the failure reported by the script engine.
	ScriptError er.R
}

func (e *ScriptPolicyError) Error() string {
	return fmt.Sprintf("input %d script verification failed: %s",
		e.InputIndex, e.ScriptError)
}

func (*ScriptPolicyError) policyError() {}

// FeeTooLowPolicyError reports a transaction paying less than the relay
// policy requires for its size.
type FeeTooLowPolicyError struct {
	Fee      cashutil.Amount
	Required cashutil.Amount
}

func (e *FeeTooLowPolicyError) Error() string {
	return fmt.Sprintf("fee %d is below the required fee of %d",
		int64(e.Fee), int64(e.Required))
}

func (*FeeTooLowPolicyError) policyError() {}

// FeeTooHighPolicyError reports a transaction paying more than the expected
// fee, or an absurdly high fee rate.
type FeeTooHighPolicyError struct {
	Fee     cashutil.Amount
	Maximum cashutil.Amount
}

func (e *FeeTooHighPolicyError) Error() string {
	return fmt.Sprintf("fee %d is above the maximum allowed fee of %d",
		int64(e.Fee), int64(e.Maximum))
}

func (*FeeTooHighPolicyError) policyError() {}

// DustPolicyError reports an output below the dust threshold.
type DustPolicyError struct {
	// OutputIndex is the index of the dust output.
	OutputIndex int

	// Value is the amount the output pays.
	Value cashutil.Amount

	// Threshold is the dust threshold it falls below.
	Threshold cashutil.Amount
}

func (e *DustPolicyError) Error() string {
	return fmt.Sprintf("output %d pays %d which is below the dust "+
		"threshold of %d", e.OutputIndex, int64(e.Value), int64(e.Threshold))
}

func (*DustPolicyError) policyError() {}

// SizePolicyError reports a transaction larger than the standard policy
// allows.
type SizePolicyError struct {
	Size    int
	Maximum int
}

func (e *SizePolicyError) Error() string {
	return fmt.Sprintf("transaction size %d exceeds maximum of %d",
		e.Size, e.Maximum)
}

func (*SizePolicyError) policyError() {}
