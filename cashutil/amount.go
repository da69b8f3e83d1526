// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package cashutil

import (
	"math"
	"strconv"

	"github.com/cashkit/cashd/cashutil/er"
)

const (
	// SatoshiPerCent is the number of satoshi in one coin cent.
	SatoshiPerCent = 1e6

	// SatoshiPerCoin is the number of satoshi in one coin (1 BCH).
	SatoshiPerCoin = 1e8

	// MaxSatoshi is the maximum transaction amount allowed in satoshi.
	MaxSatoshi = 21e6 * SatoshiPerCoin
)

// Amount represents the base coin monetary unit (colloquially referred
// to as a `Satoshi').  A single Amount is equal to 1e-8 of a coin.
type Amount int64

// round converts a floating point number, which may or may not be
// representable as an integer, to the Amount integer type by rounding to the
// nearest integer.  This is performed by adding or subtracting 0.5 depending
// on the sign, and relying on integer truncation to round the value to the
// nearest Amount.
func round(f float64) Amount {
	if f < 0 {
		return Amount(f - 0.5)
	}
	return Amount(f + 0.5)
}

// NewAmount creates an Amount from a floating point value representing an
// amount of whole coins.  NewAmount errors if f is NaN or +-Infinity, but
// does not check that the amount is within the total amount of coins
// producible as f may not refer to an amount at a single moment in time.
//
// NewAmount is for specifically for converting values in whole coins to
// satoshi.  For creating a new Amount with an int64 value which denotes a
// quantity of satoshi, do a simple type conversion from type int64 to Amount.
func NewAmount(f float64) (Amount, er.R) {
	// The amount is only considered invalid if it cannot be represented
	// as an integer type.  This may happen if f is NaN or +-Infinity.
	switch {
	case math.IsNaN(f):
		fallthrough
	case math.IsInf(f, 1):
		fallthrough
	case math.IsInf(f, -1):
		return 0, er.New("invalid coin amount")
	}

	return round(f * SatoshiPerCoin), nil
}

// ToCoins is the equivalent of calling ToUnit with AmountCoin: the amount
// expressed as a floating point number of whole coins.
func (a Amount) ToCoins() float64 {
	return float64(a) / SatoshiPerCoin
}

// MulF64 multiplies an Amount by a floating point value.  While this is not
// an operation that must typically be done by a full node or wallet, it is
// useful for services that build on top of the chain (fee rates, exchange
// rates).
func (a Amount) MulF64(f float64) Amount {
	return round(float64(a) * f)
}

// String returns the amount formatted as a whole-coin quantity with the
// trailing unit name.
func (a Amount) String() string {
	return strconv.FormatFloat(a.ToCoins(), 'f', -1, 64) + " BCH"
}
