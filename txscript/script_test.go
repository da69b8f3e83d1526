// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/cashkit/cashd/chaincfg/chainhash"
	"github.com/cashkit/cashd/txscript/opcode"
	"github.com/cashkit/cashd/txscript/params"
	"github.com/cashkit/cashd/wire"
)

func hexToBytes(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("invalid hex in source file: %q", s)
	}
	return b
}

func newHashFromStr(t *testing.T, s string) *chainhash.Hash {
	t.Helper()
	hash, err := chainhash.NewHashFromStr(s)
	if err != nil {
		t.Fatalf("invalid hash in source file: %q", s)
	}
	return hash
}

// TestIsPayToScriptHash ensures the IsPayToScriptHash function returns the
// expected results for all the scripts in scriptClassTests.
func TestIsPayToScriptHash(t *testing.T) {
	tests := []struct {
		name   string
		script []byte
		want   bool
	}{
		{
			name: "p2sh",
			script: hexToBytes(t, "a914433ec2ac1ffa1b7b7d0"+
				"27f564529c57197f9ae8887"),
			want: true,
		},
		{
			name: "p2pkh",
			script: hexToBytes(t, "76a914ad06dd6ddee55cbca9"+
				"a9e3713bd7587509a3056488ac"),
			want: false,
		},
		{
			// Almost p2sh, but the hash push is 21 bytes.
			name: "wrong hash length",
			script: hexToBytes(t, "a91500433ec2ac1ffa1b7b7d0"+
				"27f564529c57197f9ae8887"),
			want: false,
		},
		{
			name:   "empty",
			script: nil,
			want:   false,
		},
	}

	for _, test := range tests {
		if got := IsPayToScriptHash(test.script); got != test.want {
			t.Errorf("%s: got %v, want %v", test.name, got, test.want)
		}
	}
}

func TestIsPushOnlyScript(t *testing.T) {
	script := hexToBytes(t, "5163")
	if IsPushOnlyScript(script) {
		t.Errorf("IsPushOnlyScript: OP_IF wrongly considered a push")
	}
	builder := NewScriptBuilder()
	builder.AddOp(opcode.OP_0).AddData([]byte{1, 2, 3}).AddInt64(16)
	script, err := builder.Script()
	if err != nil {
		t.Fatalf("unexpected builder error: %v", err)
	}
	if !IsPushOnlyScript(script) {
		t.Errorf("IsPushOnlyScript: push script not recognized")
	}
}

// TestCalcSignatureHashForkID checks the replay protected digest against the
// published p2pkh test vector, including the intermediate midstate hashes.
func TestCalcSignatureHashForkID(t *testing.T) {
	tx := &wire.MsgTx{
		Version: 1,
		TxIn: []*wire.TxIn{
			{
				PreviousOutPoint: wire.OutPoint{
					Hash: *newHashFromStr(t, "9f96ade4b41d5433f4ed"+
						"a31e1738ec2b36f6e7d1420d94a6af99801a88f7f7ff"),
					Index: 0,
				},
				Sequence: 0xffffffee,
			},
			{
				PreviousOutPoint: wire.OutPoint{
					Hash: *newHashFromStr(t, "8ac60eb9575db5b2d987"+
						"e29f301b5b819ea83a5c6579d282d189cc04b8e151ef"),
					Index: 1,
				},
				Sequence: 0xffffffff,
			},
		},
		TxOut: []*wire.TxOut{
			{
				Value: 112340000,
				PkScript: hexToBytes(t, "76a9148280b37df378db99f6"+
					"6f85c95a783a76ac7a6d5988ac"),
			},
			{
				Value: 223450000,
				PkScript: hexToBytes(t, "76a9143bde42dbee7e4dbe6a"+
					"21b2d50ce2f0167faa815988ac"),
			},
		},
		LockTime: 17,
	}

	sigHashes := NewTxSigHashes(tx)
	wantPrevOuts := "96b827c8483d4e9b96712b6713a7b68d6e8003a781feba36c31143470b4efd37"
	if got := hex.EncodeToString(sigHashes.HashPrevOuts[:]); got != wantPrevOuts {
		t.Errorf("hashPrevOuts: got %s, want %s", got, wantPrevOuts)
	}
	wantSequence := "52b0a642eea2fb7ae638c36f6252b6750293dbe574a806984b8e4d8548339a3b"
	if got := hex.EncodeToString(sigHashes.HashSequence[:]); got != wantSequence {
		t.Errorf("hashSequence: got %s, want %s", got, wantSequence)
	}
	wantOutputs := "863ef3e1a92afbfdb97f31ad0fc7683ee943e9abcf2501590ff8f6551f47e5e5"
	if got := hex.EncodeToString(sigHashes.HashOutputs[:]); got != wantOutputs {
		t.Errorf("hashOutputs: got %s, want %s", got, wantOutputs)
	}

	scriptCode := hexToBytes(t, "76a9141d0f172a0ecb48aee1be1f2687d2963ae33f71a188ac")
	hash, err := CalcSignatureHashForkID(scriptCode, sigHashes,
		params.SigHashAll, tx, 1, 600000000)
	if err != nil {
		t.Fatalf("CalcSignatureHashForkID: %v", err)
	}
	want := "c37af31116d1b27caf68aae9e3ac82f1477929014d5b917657d0eb49478cb670"
	if got := hex.EncodeToString(hash); got != want {
		t.Errorf("sighash: got %s, want %s", got, want)
	}
}

// TestCalcSignatureHashSingleBug verifies the historical behavior of signing
// with SigHashSingle when the input index has no matching output: the digest
// is a constant rather than an error.
func TestCalcSignatureHashSingleBug(t *testing.T) {
	tx := &wire.MsgTx{
		Version: 1,
		TxIn: []*wire.TxIn{
			{Sequence: 0xffffffff},
			{Sequence: 0xffffffff},
		},
		TxOut: []*wire.TxOut{
			{Value: 1000, PkScript: []byte{opcode.OP_TRUE}},
		},
	}

	hash, err := CalcSignatureHash([]byte{opcode.OP_TRUE},
		params.SigHashSingle, tx, 1)
	if err != nil {
		t.Fatalf("CalcSignatureHash: %v", err)
	}
	want := make([]byte, 32)
	want[0] = 0x01
	if !bytes.Equal(hash, want) {
		t.Errorf("out of range SigHashSingle: got %x, want %x", hash, want)
	}
}

func TestGetSigOpCount(t *testing.T) {
	tests := []struct {
		name    string
		script  []byte
		precise bool
		want    int
	}{
		{
			name: "p2pkh",
			script: hexToBytes(t, "76a914ad06dd6ddee55cbca9"+
				"a9e3713bd7587509a3056488ac"),
			want: 1,
		},
		{
			name:   "checkmultisig counts as twenty",
			script: []byte{opcode.OP_1, opcode.OP_CHECKMULTISIG},
			want:   20,
		},
		{
			name:   "nothing",
			script: []byte{opcode.OP_TRUE},
			want:   0,
		},
	}
	for _, test := range tests {
		if got := GetSigOpCount(test.script); got != test.want {
			t.Errorf("%s: got %d, want %d", test.name, got, test.want)
		}
	}
}

func TestGetPreciseSigOpCount(t *testing.T) {
	// A 1-of-2 multisig redeem script behind p2sh. The precise count follows
	// the actual number of keys rather than the worst case.
	redeem := hexToBytes(t, "512103aa43f0a6c15730d886cc1f0342046d2"+
		"0175483d90d7ccb657f90c489111d794c51ae")
	scriptHash := hexToBytes(t, "433ec2ac1ffa1b7b7d027f564529c57197f9ae88")

	pkScript, err := PayToScriptHashScript(scriptHash)
	if err != nil {
		t.Fatalf("PayToScriptHashScript: %v", err)
	}
	sigScript, err := NewScriptBuilder().AddData(redeem).Script()
	if err != nil {
		t.Fatalf("building sigScript: %v", err)
	}

	if got := GetPreciseSigOpCount(sigScript, pkScript, true); got != 1 {
		t.Errorf("precise count: got %d, want 1", got)
	}
}

func TestIsUnspendable(t *testing.T) {
	tests := []struct {
		pkScript []byte
		want     bool
	}{
		{[]byte{opcode.OP_RETURN, 0x04, 't', 'e', 's', 't'}, true},
		{hexToBytes(t, "76a914ad06dd6ddee55cbca9a9e3713bd758750"+
			"9a3056488ac"), false},
		{nil, true},
	}
	for i, test := range tests {
		if got := IsUnspendable(test.pkScript); got != test.want {
			t.Errorf("test %d: got %v, want %v", i, got, test.want)
		}
	}
}

func TestDisasmString(t *testing.T) {
	script, err := NewScriptBuilder().AddOp(opcode.OP_DUP).
		AddOp(opcode.OP_HASH160).
		AddData(hexToBytes(t, "ad06dd6ddee55cbca9a9e3713bd7587509a30564")).
		AddOp(opcode.OP_EQUALVERIFY).AddOp(opcode.OP_CHECKSIG).Script()
	if err != nil {
		t.Fatalf("unexpected builder error: %v", err)
	}
	disasm, err := DisasmString(script)
	if err != nil {
		t.Fatalf("DisasmString: %v", err)
	}
	want := "OP_DUP OP_HASH160 ad06dd6ddee55cbca9a9e3713bd7587509a30564 " +
		"OP_EQUALVERIFY OP_CHECKSIG"
	if disasm != want {
		t.Errorf("got %q, want %q", disasm, want)
	}
}
