// Copyright (c) 2013-2015 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

import (
	"testing"

	"github.com/btcsuite/btcd/btcec"

	"github.com/cashkit/cashd/cashutil"
	"github.com/cashkit/cashd/cashutil/er"
	"github.com/cashkit/cashd/chaincfg"
	"github.com/cashkit/cashd/chaincfg/chainhash"
	"github.com/cashkit/cashd/txscript/opcode"
	"github.com/cashkit/cashd/txscript/params"
	"github.com/cashkit/cashd/txscript/txscripterr"
	"github.com/cashkit/cashd/wire"
)

const testInputAmount = int64(100000000)

func testKey(b byte) (*btcec.PrivateKey, *btcec.PublicKey) {
	seed := make([]byte, 32)
	seed[31] = b
	return btcec.PrivKeyFromBytes(btcec.S256(), seed)
}

// mkGetKey returns a KeyDB that looks up keys by the hash of their serialized
// public key.
func mkGetKey(keys map[string]*btcec.PrivateKey, compressed bool) KeyDB {
	return KeyClosure(func(hash []byte) (*btcec.PrivateKey, bool, er.R) {
		key, ok := keys[string(hash)]
		if !ok {
			return nil, false, er.New("nope")
		}
		return key, compressed, nil
	})
}

func mkGetScript(scripts map[string][]byte) ScriptDB {
	return ScriptClosure(func(scriptHash []byte) ([]byte, er.R) {
		script, ok := scripts[string(scriptHash)]
		if !ok {
			return nil, er.New("nope")
		}
		return script, nil
	})
}

// checkScripts executes the signed input against pkScript with the consensus
// and policy flags used for standard transactions.
func checkScripts(msg string, tx *wire.MsgTx, idx int, sigScript,
	pkScript []byte, amt int64) er.R {

	tx.TxIn[idx].SignatureScript = sigScript
	vm, err := NewEngine(pkScript, tx, idx, StandardVerifyFlags, nil,
		NewTxSigHashes(tx), amt)
	if err != nil {
		return er.Errorf("failed to make script engine for %s: %v", msg, err)
	}
	if err := vm.Execute(); err != nil {
		return er.Errorf("invalid script signature for %s: %v", msg, err)
	}
	return nil
}

func signingTx() *wire.MsgTx {
	return &wire.MsgTx{
		Version: 1,
		TxIn: []*wire.TxIn{{
			PreviousOutPoint: wire.OutPoint{
				Hash:  chainhash.Hash{0x02},
				Index: 0,
			},
			Sequence: wire.MaxTxInSequenceNum,
		}},
		TxOut:    []*wire.TxOut{{Value: 99999000}},
		LockTime: 0,
	}
}

func TestSignPayToPubKeyHash(t *testing.T) {
	key, pub := testKey(1)
	pkHash := cashutil.Hash160(pub.SerializeCompressed())
	pkScript, err := PayToPubKeyHashScript(pkHash)
	if err != nil {
		t.Fatalf("PayToPubKeyHashScript: %v", err)
	}

	tx := signingTx()
	hashType := params.SigHashAll | params.SigHashForkID
	sigScript, err := SignTxOutput(&chaincfg.MainNetParams, tx, 0, pkScript,
		hashType, mkGetKey(map[string]*btcec.PrivateKey{
			string(pkHash): key,
		}, true), mkGetScript(nil), nil, testInputAmount)
	if err != nil {
		t.Fatalf("SignTxOutput: %v", err)
	}

	if err := checkScripts("p2pkh", tx, 0, sigScript, pkScript,
		testInputAmount); err != nil {
		t.Error(err)
	}
}

func TestSignPayToPubKey(t *testing.T) {
	key, pub := testKey(2)
	serialized := pub.SerializeCompressed()
	pkScript, err := PayToPubKeyScript(serialized)
	if err != nil {
		t.Fatalf("PayToPubKeyScript: %v", err)
	}

	tx := signingTx()
	hashType := params.SigHashAll | params.SigHashForkID
	sigScript, err := SignTxOutput(&chaincfg.MainNetParams, tx, 0, pkScript,
		hashType, mkGetKey(map[string]*btcec.PrivateKey{
			string(cashutil.Hash160(serialized)): key,
		}, true), mkGetScript(nil), nil, testInputAmount)
	if err != nil {
		t.Fatalf("SignTxOutput: %v", err)
	}

	if err := checkScripts("p2pk", tx, 0, sigScript, pkScript,
		testInputAmount); err != nil {
		t.Error(err)
	}
}

// TestSignPayToScriptHash signs a pay-to-script-hash output whose redeem
// script is itself a pay-to-pubkey-hash script.
func TestSignPayToScriptHash(t *testing.T) {
	key, pub := testKey(3)
	pkHash := cashutil.Hash160(pub.SerializeCompressed())
	redeem, err := PayToPubKeyHashScript(pkHash)
	if err != nil {
		t.Fatalf("PayToPubKeyHashScript: %v", err)
	}
	scriptHash := cashutil.Hash160(redeem)
	pkScript, err := PayToScriptHashScript(scriptHash)
	if err != nil {
		t.Fatalf("PayToScriptHashScript: %v", err)
	}

	tx := signingTx()
	hashType := params.SigHashAll | params.SigHashForkID
	sigScript, err := SignTxOutput(&chaincfg.MainNetParams, tx, 0, pkScript,
		hashType, mkGetKey(map[string]*btcec.PrivateKey{
			string(pkHash): key,
		}, true), mkGetScript(map[string][]byte{
			string(scriptHash): redeem,
		}), nil, testInputAmount)
	if err != nil {
		t.Fatalf("SignTxOutput: %v", err)
	}

	if err := checkScripts("p2sh", tx, 0, sigScript, pkScript,
		testInputAmount); err != nil {
		t.Error(err)
	}
}

// TestSignMultiSigTwoOfThree signs a 2-of-3 multisig output behind
// pay-to-script-hash in two passes by different signers, merging the partial
// signature scripts along the way.
func TestSignMultiSigTwoOfThree(t *testing.T) {
	key1, pub1 := testKey(4)
	key2, pub2 := testKey(5)
	_, pub3 := testKey(6)

	redeem, err := MultiSigScript([][]byte{
		pub1.SerializeCompressed(),
		pub2.SerializeCompressed(),
		pub3.SerializeCompressed(),
	}, 2)
	if err != nil {
		t.Fatalf("MultiSigScript: %v", err)
	}
	scriptHash := cashutil.Hash160(redeem)
	pkScript, err := PayToScriptHashScript(scriptHash)
	if err != nil {
		t.Fatalf("PayToScriptHashScript: %v", err)
	}
	sdb := mkGetScript(map[string][]byte{string(scriptHash): redeem})
	hashType := params.SigHashAll | params.SigHashForkID

	// First signer only holds key1.
	tx := signingTx()
	partial, err := SignTxOutput(&chaincfg.MainNetParams, tx, 0, pkScript,
		hashType, mkGetKey(map[string]*btcec.PrivateKey{
			string(cashutil.Hash160(pub1.SerializeCompressed())): key1,
		}, true), sdb, nil, testInputAmount)
	if err != nil {
		t.Fatalf("first signing pass: %v", err)
	}

	// One signature must not satisfy the script yet.
	if err := checkScripts("partial multisig", tx, 0, partial, pkScript,
		testInputAmount); err == nil {
		t.Fatal("script verified with only one of two signatures")
	}

	// Second signer only holds key2 and merges with the partial script.
	full, err := SignTxOutput(&chaincfg.MainNetParams, tx, 0, pkScript,
		hashType, mkGetKey(map[string]*btcec.PrivateKey{
			string(cashutil.Hash160(pub2.SerializeCompressed())): key2,
		}, true), sdb, partial, testInputAmount)
	if err != nil {
		t.Fatalf("second signing pass: %v", err)
	}

	if err := checkScripts("complete multisig", tx, 0, full, pkScript,
		testInputAmount); err != nil {
		t.Error(err)
	}
}

// TestMultiSigSignatureOrder verifies that checkmultisig matches signatures
// against the public keys greedily and in order, so a signature set that
// satisfies the script in pubkey order fails verification when the same
// signatures are swapped.
func TestMultiSigSignatureOrder(t *testing.T) {
	key1, pub1 := testKey(9)
	key2, pub2 := testKey(10)
	_, pub3 := testKey(11)

	pkScript, err := MultiSigScript([][]byte{
		pub1.SerializeCompressed(),
		pub2.SerializeCompressed(),
		pub3.SerializeCompressed(),
	}, 2)
	if err != nil {
		t.Fatalf("MultiSigScript: %v", err)
	}

	hashType := params.SigHashAll | params.SigHashForkID
	tx := signingTx()
	sig1, err := RawTxInSignature(tx, 0, pkScript, hashType, key1,
		testInputAmount)
	if err != nil {
		t.Fatalf("RawTxInSignature(key1): %v", err)
	}
	sig2, err := RawTxInSignature(tx, 0, pkScript, hashType, key2,
		testInputAmount)
	if err != nil {
		t.Fatalf("RawTxInSignature(key2): %v", err)
	}

	execute := func(sigA, sigB []byte) er.R {
		sigScript, err := NewScriptBuilder().AddOp(opcode.OP_0).
			AddData(sigA).AddData(sigB).Script()
		if err != nil {
			return err
		}
		tx.TxIn[0].SignatureScript = sigScript
		vm, err := NewEngine(pkScript, tx, 0, StandardVerifyFlags, nil,
			NewTxSigHashes(tx), testInputAmount)
		if err != nil {
			return err
		}
		return vm.Execute()
	}

	// Signatures in the same order as their public keys satisfy the
	// script.
	if err := execute(sig1, sig2); err != nil {
		t.Fatalf("in-order signatures did not verify: %v", err)
	}

	// The swapped pair must fail since matching never rewinds to an
	// earlier public key.
	err = execute(sig2, sig1)
	if err == nil {
		t.Fatal("out-of-order signatures verified")
	}
	if !txscripterr.ErrNullFail.Is(err) {
		t.Fatalf("out-of-order signatures: want ErrNullFail, got %v", err)
	}
}

// TestRawTxInSignatureHashTypes ensures the appended hash type byte matches
// the requested type for both the legacy and fork id algorithms.
func TestRawTxInSignatureHashTypes(t *testing.T) {
	key, pub := testKey(7)
	pkScript, err := PayToPubKeyScript(pub.SerializeCompressed())
	if err != nil {
		t.Fatalf("PayToPubKeyScript: %v", err)
	}
	tx := signingTx()

	hashTypes := []params.SigHashType{
		params.SigHashAll,
		params.SigHashNone | params.SigHashForkID,
		params.SigHashSingle | params.SigHashAnyOneCanPay | params.SigHashForkID,
	}
	for _, hashType := range hashTypes {
		sig, err := RawTxInSignature(tx, 0, pkScript, hashType, key,
			testInputAmount)
		if err != nil {
			t.Fatalf("RawTxInSignature(%v): %v", hashType, err)
		}
		if got := params.SigHashType(sig[len(sig)-1]); got != hashType {
			t.Errorf("hash type byte: got %v, want %v", got, hashType)
		}
	}
}
