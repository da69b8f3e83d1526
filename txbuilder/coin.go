// Copyright (c) 2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txbuilder

import (
	"bytes"
	"fmt"

	"github.com/cashkit/cashd/cashutil"
	"github.com/cashkit/cashd/cashutil/er"
	"github.com/cashkit/cashd/txscript"
	"github.com/cashkit/cashd/wire"
)

// Coin represents a spendable transaction output known to the builder.
type Coin interface {
	// OutPoint returns the outpoint which uniquely identifies the output.
	OutPoint() wire.OutPoint

	// TxOut returns the output itself, carrying the locked value and the
	// locking script.
	TxOut() *wire.TxOut

	// Amount returns the value locked by the output.
	Amount() cashutil.Amount
}

// simpleCoin is the plain Coin implementation returned by NewCoin.
type simpleCoin struct {
	outPoint wire.OutPoint
	txOut    *wire.TxOut
}

var _ Coin = (*simpleCoin)(nil)

// NewCoin returns a Coin for the output identified by the passed outpoint.
func NewCoin(outPoint wire.OutPoint, txOut *wire.TxOut) Coin {
	return &simpleCoin{outPoint: outPoint, txOut: txOut}
}

func (c *simpleCoin) OutPoint() wire.OutPoint {
	return c.outPoint
}

func (c *simpleCoin) TxOut() *wire.TxOut {
	return c.txOut
}

func (c *simpleCoin) Amount() cashutil.Amount {
	return cashutil.Amount(c.txOut.Value)
}

// ScriptCoin is a Coin locked by a pay-to-script-hash output for which the
// redeem script is known.  The builder uses the redeem script both for input
// size estimation and for signing.
type ScriptCoin struct {
	simpleCoin
	redeem []byte
}

var _ Coin = (*ScriptCoin)(nil)

// NewScriptCoin returns a ScriptCoin for the passed pay-to-script-hash output
// and its redeem script.  It errors when the output's locking script is not
// P2SH or when the script hash it pushes is not the hash of the redeem script.
func NewScriptCoin(outPoint wire.OutPoint, txOut *wire.TxOut, redeem []byte) (*ScriptCoin, er.R) {
	class, scriptHash := txscript.ExtractPkScriptHash(txOut.PkScript)
	if class != txscript.ScriptHashTy {
		return nil, ErrBadCoin.New(fmt.Sprintf(
			"output %v is not pay-to-script-hash", outPoint), nil)
	}
	if !bytes.Equal(cashutil.Hash160(redeem), scriptHash) {
		return nil, ErrBadCoin.New(fmt.Sprintf(
			"redeem script does not hash to the script hash of output %v",
			outPoint), nil)
	}

	return &ScriptCoin{
		simpleCoin: simpleCoin{outPoint: outPoint, txOut: txOut},
		redeem:     redeem,
	}, nil
}

// Redeem returns the redeem script whose hash the coin's locking script
// commits to.
func (c *ScriptCoin) Redeem() []byte {
	return c.redeem
}
