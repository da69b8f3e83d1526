// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

import (
	"testing"

	"github.com/cashkit/cashd/cashutil"
	"github.com/cashkit/cashd/cashutil/er"
	"github.com/cashkit/cashd/chaincfg/chainhash"
	"github.com/cashkit/cashd/txscript/opcode"
	"github.com/cashkit/cashd/txscript/txscripterr"
	"github.com/cashkit/cashd/wire"
)

// spendingTx returns a transaction spending a single output locked by
// pkScript, with the passed signature script on its input.
func spendingTx(sigScript []byte) *wire.MsgTx {
	prevHash := chainhash.Hash{0x01}
	return &wire.MsgTx{
		Version: 1,
		TxIn: []*wire.TxIn{{
			PreviousOutPoint: wire.OutPoint{Hash: prevHash, Index: 0},
			SignatureScript:  sigScript,
			Sequence:         wire.MaxTxInSequenceNum,
		}},
		TxOut:    []*wire.TxOut{{Value: 1000}},
		LockTime: 0,
	}
}

// TestBadPC sets the pc to a deliberately bad result then confirms that Step
// and Disasm fail correctly.
func TestBadPC(t *testing.T) {
	tests := []struct {
		script, off int
	}{
		{script: 2, off: 0},
		{script: 0, off: 2},
	}

	tx := spendingTx([]byte{opcode.OP_NOP})
	pkScript := []byte{opcode.OP_NOP}

	for _, test := range tests {
		vm, err := NewEngine(pkScript, tx, 0, 0, nil, nil, 0)
		if err != nil {
			t.Errorf("failed to create script: %v", err)
			continue
		}

		// Set to after all scripts.
		vm.scriptIdx = test.script
		vm.scriptOff = test.off

		if _, err := vm.Step(); err == nil {
			t.Errorf("Step with invalid pc (%v) succeeds", test)
			continue
		}
		if _, err := vm.DisasmPC(); err == nil {
			t.Errorf("DisasmPC with invalid pc (%v) succeeds", test)
		}
	}
}

// TestCheckErrorCondition tests the execute early test in CheckErrorCondition
// since most code paths are tested elsewhere.
func TestCheckErrorCondition(t *testing.T) {
	pkScript := []byte{
		opcode.OP_NOP, opcode.OP_NOP, opcode.OP_NOP, opcode.OP_NOP,
		opcode.OP_NOP, opcode.OP_NOP, opcode.OP_NOP, opcode.OP_NOP,
		opcode.OP_NOP, opcode.OP_TRUE,
	}
	tx := spendingTx(nil)

	vm, err := NewEngine(pkScript, tx, 0, 0, nil, nil, 0)
	if err != nil {
		t.Errorf("failed to create script: %v", err)
	}

	for i := 0; i < len(pkScript)-1; i++ {
		done, err := vm.Step()
		if err != nil {
			t.Fatalf("failed to step %dth time: %v", i, err)
		}
		if done {
			t.Fatalf("finished early on %dth time", i)
		}

		err = vm.CheckErrorCondition(false)
		if !txscripterr.ErrScriptUnfinished.Is(err) {
			t.Fatalf("got unexpected error %v on %dth iteration", err, i)
		}
	}

	done, err := vm.Step()
	if err != nil {
		t.Fatalf("final step failed %v", err)
	}
	if !done {
		t.Fatalf("final step isn't done!")
	}

	if err := vm.CheckErrorCondition(false); err != nil {
		t.Errorf("unexpected error %v on final check", err)
	}
}

// TestExecuteScripts runs a collection of signature script and public key
// script pairs through the engine and checks the results against the
// expected error codes.
func TestExecuteScripts(t *testing.T) {
	tests := []struct {
		name      string
		sigScript []byte
		pkScript  []byte
		flags     ScriptFlags
		errCode   *er.ErrorCode
	}{
		{
			name:     "trivially true",
			pkScript: []byte{opcode.OP_TRUE},
		},
		{
			name:     "trivially false",
			pkScript: []byte{opcode.OP_0},
			errCode:  txscripterr.ErrEvalFalse,
		},
		{
			name:      "tuck reorders the stack",
			sigScript: []byte{opcode.OP_1, opcode.OP_2, opcode.OP_3},
			pkScript: []byte{
				opcode.OP_TUCK,
				opcode.OP_3, opcode.OP_EQUALVERIFY,
				opcode.OP_2, opcode.OP_EQUALVERIFY,
				opcode.OP_3, opcode.OP_EQUALVERIFY,
			},
		},
		{
			name: "2rot rotates three pairs",
			sigScript: []byte{
				opcode.OP_1, opcode.OP_2, opcode.OP_3,
				opcode.OP_4, opcode.OP_5, opcode.OP_6,
			},
			pkScript: []byte{
				opcode.OP_2ROT,
				opcode.OP_2, opcode.OP_EQUALVERIFY,
				opcode.OP_1, opcode.OP_EQUALVERIFY,
				opcode.OP_6, opcode.OP_EQUALVERIFY,
				opcode.OP_5, opcode.OP_EQUALVERIFY,
				opcode.OP_4, opcode.OP_EQUALVERIFY,
				opcode.OP_3, opcode.OP_EQUAL,
			},
		},
		{
			name: "disabled opcode fails even in unexecuted branch",
			pkScript: []byte{
				opcode.OP_1, opcode.OP_IF, opcode.OP_1,
				opcode.OP_ELSE, opcode.OP_CAT, opcode.OP_ENDIF,
			},
			errCode: txscripterr.ErrDisabledOpcode,
		},
		{
			name:     "unbalanced conditional",
			pkScript: []byte{opcode.OP_1, opcode.OP_IF, opcode.OP_1},
			errCode:  txscripterr.ErrUnbalancedConditional,
		},
		{
			name:     "failed verify",
			pkScript: []byte{opcode.OP_0, opcode.OP_VERIFY, opcode.OP_1},
			errCode:  txscripterr.ErrVerify,
		},
		{
			name:      "extra stack items without clean stack",
			sigScript: []byte{opcode.OP_1, opcode.OP_1},
			pkScript:  []byte{opcode.OP_NOP},
		},
		{
			name:      "extra stack items with clean stack",
			sigScript: []byte{opcode.OP_1, opcode.OP_1},
			pkScript:  []byte{opcode.OP_NOP},
			flags:     ScriptBip16 | ScriptVerifyCleanStack,
			errCode:   txscripterr.ErrCleanStack,
		},
		{
			name:      "non minimal push",
			sigScript: []byte{opcode.OP_PUSHDATA1, 0x01, 0x01},
			pkScript:  []byte{opcode.OP_NOP},
			flags:     ScriptVerifyMinimalData,
			errCode:   txscripterr.ErrMinimalData,
		},
	}

	for _, test := range tests {
		tx := spendingTx(test.sigScript)
		vm, err := NewEngine(test.pkScript, tx, 0, test.flags, nil, nil, 0)
		if err == nil {
			err = vm.Execute()
		}
		if test.errCode == nil {
			if err != nil {
				t.Errorf("%s: unexpected error %v", test.name, err)
			}
			continue
		}
		if !test.errCode.Is(err) {
			t.Errorf("%s: got error %v, want code %v", test.name,
				err, test.errCode)
		}
	}
}

// TestP2SHEvaluation exercises the pay-to-script-hash three phase execution
// path with a trivial redeem script.
func TestP2SHEvaluation(t *testing.T) {
	redeem := []byte{opcode.OP_TRUE}
	scriptHash := cashutil.Hash160(redeem)

	pkScript, err := PayToScriptHashScript(scriptHash)
	if err != nil {
		t.Fatalf("PayToScriptHashScript: %v", err)
	}
	sigScript, err := NewScriptBuilder().AddData(redeem).Script()
	if err != nil {
		t.Fatalf("building sigScript: %v", err)
	}

	tx := spendingTx(sigScript)
	vm, err := NewEngine(pkScript, tx, 0, ScriptBip16, nil, nil, 0)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	if err := vm.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	// Without the pay-to-script-hash flag the redeem script is treated as
	// ordinary data and the result is the truthiness of the hash check
	// alone, leaving the pushed script on the stack.
	vm, err = NewEngine(pkScript, tx, 0, 0, nil, nil, 0)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	if err := vm.Execute(); err != nil {
		t.Fatalf("Execute without bip16: %v", err)
	}
}

// TestInvalidFlagCombinations ensures the script engine returns the expected
// error when disallowed flag combinations are specified.
func TestInvalidFlagCombinations(t *testing.T) {
	tx := spendingTx([]byte{opcode.OP_NOP})
	vm, err := NewEngine([]byte{opcode.OP_NOP}, tx, 0,
		ScriptVerifyCleanStack, nil, nil, 0)
	if !txscripterr.ErrInvalidFlags.Is(err) {
		t.Fatalf("got error %v, vm %v, want ErrInvalidFlags", err, vm)
	}
}

// TestSigPushOnly ensures a non push only signature script is rejected when
// the corresponding flag is set.
func TestSigPushOnly(t *testing.T) {
	tx := spendingTx([]byte{opcode.OP_NOP, opcode.OP_TRUE})
	_, err := NewEngine([]byte{opcode.OP_TRUE}, tx, 0,
		ScriptVerifySigPushOnly, nil, nil, 0)
	if !txscripterr.ErrNotPushOnly.Is(err) {
		t.Fatalf("got error %v, want ErrNotPushOnly", err)
	}
}
