// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

import (
	"bytes"
	"testing"

	"github.com/cashkit/cashd/cashutil"
	"github.com/cashkit/cashd/txscript/opcode"
	"github.com/cashkit/cashd/txscript/txscripterr"
)

// scriptClassTests houses several test scripts used to ensure various class
// determination is working as expected.
var scriptClassTests = []struct {
	name   string
	script string
	class  ScriptClass
}{
	{
		name: "Pay Pubkey",
		script: "410411db93e1dcdb8a016b49840f8c53bc1eb68a382e97b1482eca" +
			"d7b148a6909a5cb2e0eaddfb84ccf9744464f82e160bfa9b8b64f9d4c0" +
			"3f999b8643f656b412a3ac",
		class: PubKeyTy,
	},
	{
		name: "Pay PubkeyHash",
		script: "76a914660d4ef3a743e3e696ad990364e555c271ad504b88ac",
		class: PubKeyHashTy,
	},
	{
		name:   "Pay to script hash",
		script: "a914433ec2ac1ffa1b7b7d027f564529c57197f9ae8887",
		class:  ScriptHashTy,
	},
	{
		// Script from the first multisig transaction.
		name: "multisig",
		script: "514104cc71eb30d653c0c3163990c47b976f3fb3f37cccdcbedb16" +
			"9a1dfef58bbfbfaff7d8a473e7e2e6d317b87bafe8bde97e3cf8f065dec" +
			"022b51d11fcdd0d348ac4410461cbdcc5409fb4b4d42b51d33381354d80" +
			"e550078cb532a34bfa2fcfdeb7d76519aecc62770f5b0e4ef8551946d8a" +
			"540911abe3e7854a26f39f58b25c15342af52ae",
		class: MultiSigTy,
	},
	{
		name:   "nulldata",
		script: "6a06deadbeef0102",
		class:  NullDataTy,
	},
	{
		name:   "almost p2pkh, wrong trailing opcode",
		script: "76a914660d4ef3a743e3e696ad990364e555c271ad504b88aa",
		class:  NonStandardTy,
	},
	{
		name:   "empty script",
		script: "",
		class:  NonStandardTy,
	},
}

func TestGetScriptClass(t *testing.T) {
	for _, test := range scriptClassTests {
		script := hexToBytes(t, test.script)
		if class := GetScriptClass(script); class != test.class {
			t.Errorf("%s: got %v, want %v", test.name, class,
				test.class)
		}
	}
}

func TestScriptClassString(t *testing.T) {
	tests := []struct {
		class ScriptClass
		want  string
	}{
		{NonStandardTy, "nonstandard"},
		{PubKeyTy, "pubkey"},
		{PubKeyHashTy, "pubkeyhash"},
		{ScriptHashTy, "scripthash"},
		{MultiSigTy, "multisig"},
		{NullDataTy, "nulldata"},
		{ScriptClass(255), "Invalid"},
	}
	for _, test := range tests {
		if got := test.class.String(); got != test.want {
			t.Errorf("got %q, want %q", got, test.want)
		}
	}
}

func TestPayToScripts(t *testing.T) {
	hash20 := hexToBytes(t, "433ec2ac1ffa1b7b7d027f564529c57197f9ae88")

	pkhScript, err := PayToPubKeyHashScript(hash20)
	if err != nil {
		t.Fatalf("PayToPubKeyHashScript: %v", err)
	}
	want := hexToBytes(t, "76a914433ec2ac1ffa1b7b7d027f564529c57197f9ae8888ac")
	if !bytes.Equal(pkhScript, want) {
		t.Errorf("p2pkh: got %x, want %x", pkhScript, want)
	}
	if GetScriptClass(pkhScript) != PubKeyHashTy {
		t.Errorf("p2pkh script not classified as pubkeyhash")
	}

	shScript, err := PayToScriptHashScript(hash20)
	if err != nil {
		t.Fatalf("PayToScriptHashScript: %v", err)
	}
	want = hexToBytes(t, "a914433ec2ac1ffa1b7b7d027f564529c57197f9ae8887")
	if !bytes.Equal(shScript, want) {
		t.Errorf("p2sh: got %x, want %x", shScript, want)
	}
	if GetScriptClass(shScript) != ScriptHashTy {
		t.Errorf("p2sh script not classified as scripthash")
	}
}

func TestExtractPkScriptHash(t *testing.T) {
	pkhScript := hexToBytes(t, "76a914660d4ef3a743e3e696ad990364e555c271ad504b88ac")
	class, hash := ExtractPkScriptHash(pkhScript)
	if class != PubKeyHashTy {
		t.Errorf("p2pkh class: got %v", class)
	}
	if !bytes.Equal(hash, hexToBytes(t, "660d4ef3a743e3e696ad990364e555c271ad504b")) {
		t.Errorf("p2pkh hash: got %x", hash)
	}

	shScript := hexToBytes(t, "a914433ec2ac1ffa1b7b7d027f564529c57197f9ae8887")
	class, hash = ExtractPkScriptHash(shScript)
	if class != ScriptHashTy {
		t.Errorf("p2sh class: got %v", class)
	}
	if !bytes.Equal(hash, hexToBytes(t, "433ec2ac1ffa1b7b7d027f564529c57197f9ae88")) {
		t.Errorf("p2sh hash: got %x", hash)
	}

	class, hash = ExtractPkScriptHash([]byte{0x6a})
	if class != NullDataTy || hash != nil {
		t.Errorf("nulldata: got class %v hash %x", class, hash)
	}
}

func TestNullDataScript(t *testing.T) {
	script, err := NullDataScript([]byte{0xde, 0xad, 0xbe, 0xef})
	if err != nil {
		t.Fatalf("NullDataScript: %v", err)
	}
	if !bytes.Equal(script, hexToBytes(t, "6a04deadbeef")) {
		t.Errorf("got %x", script)
	}
	if GetScriptClass(script) != NullDataTy {
		t.Errorf("not classified as nulldata")
	}

	_, err = NullDataScript(bytes.Repeat([]byte{0x00}, MaxDataCarrierSize+1))
	if !txscripterr.ErrTooMuchNullData.Is(err) {
		t.Errorf("oversize data: got %v, want ErrTooMuchNullData", err)
	}
}

func TestCalcMultiSigStats(t *testing.T) {
	script := hexToBytes(t, scriptClassTests[3].script)
	numPubKeys, numSigs, err := CalcMultiSigStats(script)
	if err != nil {
		t.Fatalf("CalcMultiSigStats: %v", err)
	}
	if numPubKeys != 2 || numSigs != 1 {
		t.Errorf("got %d keys %d sigs, want 2 keys 1 sig",
			numPubKeys, numSigs)
	}

	pkhScript := hexToBytes(t, "76a914660d4ef3a743e3e696ad990364e555c271ad504b88ac")
	if _, _, err := CalcMultiSigStats(pkhScript); err == nil {
		t.Errorf("CalcMultiSigStats accepted a non multisig script")
	}
}

func TestCalcScriptInfo(t *testing.T) {
	// A p2sh script pair with a 1-of-1 multisig redeem script. The
	// signature push is a placeholder since the scripts are only parsed.
	_, pub := testKey(8)
	redeem, err := MultiSigScript([][]byte{pub.SerializeCompressed()}, 1)
	if err != nil {
		t.Fatalf("MultiSigScript: %v", err)
	}
	pkScript, err := PayToScriptHashScript(cashutil.Hash160(redeem))
	if err != nil {
		t.Fatalf("PayToScriptHashScript: %v", err)
	}
	sigScript, err := NewScriptBuilder().AddOp(opcode.OP_0).
		AddData(bytes.Repeat([]byte{0x01}, 71)).
		AddData(redeem).Script()
	if err != nil {
		t.Fatalf("building sigScript: %v", err)
	}

	info, err := CalcScriptInfo(sigScript, pkScript, true)
	if err != nil {
		t.Fatalf("CalcScriptInfo: %v", err)
	}
	if info.PkScriptClass != ScriptHashTy {
		t.Errorf("class: got %v, want scripthash", info.PkScriptClass)
	}
	// Dummy, signature, and the redeem script push.
	if info.NumInputs != 3 {
		t.Errorf("num inputs: got %d, want 3", info.NumInputs)
	}
	// The p2sh push plus the dummy and one signature for the redeem script.
	if info.ExpectedInputs != 3 {
		t.Errorf("expected inputs: got %d, want 3", info.ExpectedInputs)
	}
	// 1-of-1 redeem script has one precise sigop.
	if info.SigOps != 1 {
		t.Errorf("sigops: got %d, want 1", info.SigOps)
	}
}

func TestPushedData(t *testing.T) {
	script := hexToBytes(t, "6a04deadbeef")
	data, err := PushedData(script)
	if err != nil {
		t.Fatalf("PushedData: %v", err)
	}
	if len(data) != 1 || !bytes.Equal(data[0], []byte{0xde, 0xad, 0xbe, 0xef}) {
		t.Errorf("got %x", data)
	}
}
