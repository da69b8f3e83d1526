// Copyright (c) 2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txbuilder

import (
	"github.com/cashkit/cashd/txscript"
	"github.com/cashkit/cashd/wire"
)

// Worst case script and input/output size estimates.  Estimates must never be
// lower than the eventual serialized size, otherwise the fee computed from an
// estimate could fall below the rate the caller asked for.
const (
	// maxDERSignatureSize is the size of a DER encoded ECDSA signature
	// with both R and S at their padded maximum, plus the hash type byte.
	maxDERSignatureSize = 73

	// compressedPubKeySize is the serialize size of a compressed public
	// key.
	compressedPubKeySize = 33

	// uncompressedPubKeySize is the serialize size of an uncompressed
	// public key.
	uncompressedPubKeySize = 65

	// redeemP2PKHSigScriptSize is the worst case size of a signature
	// script redeeming a compressed P2PKH output:
	//   - OP_DATA_73
	//   - 73 bytes of signature
	//   - OP_DATA_33
	//   - 33 bytes of public key
	redeemP2PKHSigScriptSize = 1 + maxDERSignatureSize + 1 + compressedPubKeySize

	// redeemP2PKSigScriptSize is the worst case size of a signature script
	// redeeming a P2PK output:
	//   - OP_DATA_73
	//   - 73 bytes of signature
	redeemP2PKSigScriptSize = 1 + maxDERSignatureSize

	// inputOverheadSize is the fixed per-input overhead:
	//   - 32 bytes previous tx hash
	//   - 4 bytes output index
	//   - 4 bytes sequence
	inputOverheadSize = 32 + 4 + 4
)

// sigScriptSize returns the worst case signature script size for redeeming
// the passed coin.  For P2SH coins the redeem script must be known via a
// ScriptCoin or the redeems map, otherwise a generous default is used.
func sigScriptSize(coin Coin, redeems map[string][]byte) int {
	pkScript := coin.TxOut().PkScript
	switch txscript.GetScriptClass(pkScript) {
	case txscript.PubKeyHashTy:
		return redeemP2PKHSigScriptSize

	case txscript.PubKeyTy:
		return redeemP2PKSigScriptSize

	case txscript.ScriptHashTy:
		redeem := redeemScriptFor(coin, redeems)
		if redeem == nil {
			// Without the redeem script all that can be done is to
			// guess generously.
			return redeemP2PKHSigScriptSize * 3
		}

		// The signature script pushes the redeem script itself plus
		// whatever unlocks it.  Standard multisig redeems take the
		// extra dummy push and one signature per required key;
		// anything else is estimated as a single key spend.
		redeemPush := pushDataSize(len(redeem))
		if _, numSigs, err := txscript.CalcMultiSigStats(redeem); err == nil {
			return 1 + numSigs*(1+maxDERSignatureSize) + redeemPush
		}
		return redeemP2PKHSigScriptSize + redeemPush

	default:
		// Unknown scripts get the uncompressed single key worst case.
		return 1 + maxDERSignatureSize + 1 + uncompressedPubKeySize
	}
}

// pushDataSize returns the serialized size of a canonical data push of n
// bytes, including the push opcode.
func pushDataSize(n int) int {
	switch {
	case n < 76: // OP_DATA_n
		return 1 + n
	case n <= 0xff: // OP_PUSHDATA1
		return 2 + n
	case n <= 0xffff: // OP_PUSHDATA2
		return 3 + n
	default: // OP_PUSHDATA4
		return 5 + n
	}
}

// estimateInputSize returns the worst case serialized size of an input
// spending the passed coin.
func estimateInputSize(coin Coin, redeems map[string][]byte) int {
	scriptSize := sigScriptSize(coin, redeems)
	return inputOverheadSize + wire.VarIntSerializeSize(uint64(scriptSize)) +
		scriptSize
}

// estimateSerializeSize returns the worst case serialized size of a
// transaction spending the passed coins and creating the passed outputs.
// When addChange is true an additional pay-to-pubkey-hash sized change output
// is included.
func estimateSerializeSize(coins []Coin, outputs []*wire.TxOut, addChange bool,
	redeems map[string][]byte) int {

	// 4 bytes version + 4 bytes locktime + varints for the number of
	// inputs and outputs.
	numOutputs := len(outputs)
	if addChange {
		numOutputs++
	}
	size := 8 + wire.VarIntSerializeSize(uint64(len(coins))) +
		wire.VarIntSerializeSize(uint64(numOutputs))

	for _, coin := range coins {
		size += estimateInputSize(coin, redeems)
	}
	for _, out := range outputs {
		size += 8 + wire.VarIntSerializeSize(uint64(len(out.PkScript))) +
			len(out.PkScript)
	}
	if addChange {
		// 8 bytes value + 1 byte script length + 25 byte P2PKH script.
		size += 8 + 1 + 25
	}

	return size
}

// redeemScriptFor returns the redeem script for a P2SH coin, either from the
// coin itself or the builder's known redeem scripts, or nil.
func redeemScriptFor(coin Coin, redeems map[string][]byte) []byte {
	if sc, ok := coin.(*ScriptCoin); ok {
		return sc.Redeem()
	}
	_, scriptHash := txscript.ExtractPkScriptHash(coin.TxOut().PkScript)
	if scriptHash == nil {
		return nil
	}
	return redeems[string(scriptHash)]
}
