// Copyright (c) 2014-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chaincfg

import (
	"github.com/cashkit/cashd/cashutil"
)

// Params defines the parameters a transaction must conform to in order to
// be considered standard on a particular network.  Only fields which are
// relevant to transaction construction and relay policy live here; chain
// and networking parameters belong to the consumers of this library.
type Params struct {
	// Name defines a human-readable identifier for the network.
	Name string

	// RelayFeePerKb is the minimum relay fee in satoshi per kilobyte of
	// serialized transaction.  It drives both fee estimation and the
	// dust threshold.
	RelayFeePerKb cashutil.Amount

	// MaxTxSize is the maximum serialized size in bytes of a standard
	// transaction.
	MaxTxSize int

	// MaxFeePerKb is the rate above which the standard policy considers
	// a fee absurdly high.  The builder refuses to verify transactions
	// paying more than this unless the caller overrides the policy.
	MaxFeePerKb cashutil.Amount

	// RequireStandard indicates that scripts must match one of the
	// standard templates to relay.
	RequireStandard bool
}

// MainNetParams defines the network parameters for the main network.
var MainNetParams = Params{
	Name:            "mainnet",
	RelayFeePerKb:   1000,
	MaxTxSize:       100000,
	MaxFeePerKb:     1000 * 1000,
	RequireStandard: true,
}

// TestNet3Params defines the network parameters for the test network
// (version 3).
var TestNet3Params = Params{
	Name:            "testnet3",
	RelayFeePerKb:   1000,
	MaxTxSize:       100000,
	MaxFeePerKb:     1000 * 1000,
	RequireStandard: true,
}

// RegressionNetParams defines the network parameters for the regression
// test network.  Standardness is not enforced so exotic scripts can be
// exercised.
var RegressionNetParams = Params{
	Name:            "regtest",
	RelayFeePerKb:   1000,
	MaxTxSize:       100000,
	MaxFeePerKb:     1000 * 1000,
	RequireStandard: false,
}
