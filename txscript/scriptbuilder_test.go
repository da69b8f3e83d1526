// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

import (
	"bytes"
	"testing"

	"github.com/cashkit/cashd/txscript/opcode"
	"github.com/cashkit/cashd/txscript/params"
	"github.com/cashkit/cashd/txscript/txscripterr"
)

// TestScriptBuilderAddInt64 ensures integers are canonically pushed.
func TestScriptBuilderAddInt64(t *testing.T) {
	tests := []struct {
		name     string
		val      int64
		expected []byte
	}{
		{name: "push -1", val: -1, expected: []byte{opcode.OP_1NEGATE}},
		{name: "push 0", val: 0, expected: []byte{opcode.OP_0}},
		{name: "push 1", val: 1, expected: []byte{opcode.OP_1}},
		{name: "push 16", val: 16, expected: []byte{opcode.OP_16}},
		{name: "push 17", val: 17, expected: []byte{opcode.OP_DATA_1, 0x11}},
		{name: "push 65535", val: 65535, expected: []byte{opcode.OP_DATA_3, 0xff, 0xff, 0x00}},
		{name: "push -2", val: -2, expected: []byte{opcode.OP_DATA_1, 0x82}},
	}

	builder := NewScriptBuilder()
	for _, test := range tests {
		builder.Reset().AddInt64(test.val)
		result, err := builder.Script()
		if err != nil {
			t.Errorf("%s: unexpected error: %v", test.name, err)
			continue
		}
		if !bytes.Equal(result, test.expected) {
			t.Errorf("%s: got %x, want %x", test.name, result,
				test.expected)
		}
	}
}

// TestScriptBuilderAddData ensures data pushes use the canonical opcode for
// their size.
func TestScriptBuilderAddData(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		expected []byte
	}{
		{
			name:     "push empty, canonical OP_0",
			data:     nil,
			expected: []byte{opcode.OP_0},
		},
		{
			name:     "push small int 1",
			data:     []byte{0x01},
			expected: []byte{opcode.OP_1},
		},
		{
			name:     "push 1 byte 0x11",
			data:     []byte{0x11},
			expected: []byte{opcode.OP_DATA_1, 0x11},
		},
		{
			name:     "push 75 bytes",
			data:     bytes.Repeat([]byte{0x49}, 75),
			expected: append([]byte{opcode.OP_DATA_75}, bytes.Repeat([]byte{0x49}, 75)...),
		},
		{
			name: "push 76 bytes, OP_PUSHDATA1",
			data: bytes.Repeat([]byte{0x49}, 76),
			expected: append([]byte{opcode.OP_PUSHDATA1, 76},
				bytes.Repeat([]byte{0x49}, 76)...),
		},
		{
			name: "push 256 bytes, OP_PUSHDATA2",
			data: bytes.Repeat([]byte{0x49}, 256),
			expected: append([]byte{opcode.OP_PUSHDATA2, 0x00, 0x01},
				bytes.Repeat([]byte{0x49}, 256)...),
		},
	}

	builder := NewScriptBuilder()
	for _, test := range tests {
		builder.Reset().AddData(test.data)
		result, err := builder.Script()
		if err != nil {
			t.Errorf("%s: unexpected error: %v", test.name, err)
			continue
		}
		if !bytes.Equal(result, test.expected) {
			t.Errorf("%s: got %x, want %x", test.name, result,
				test.expected)
		}
	}
}

// TestScriptBuilderRejectsOversize ensures pushes beyond the element and
// script limits fail with ErrNonCanonicalScript and latch the error.
func TestScriptBuilderRejectsOversize(t *testing.T) {
	builder := NewScriptBuilder()
	builder.AddData(bytes.Repeat([]byte{0x00}, params.MaxScriptElementSize+1))
	if _, err := builder.Script(); !txscripterr.ErrNonCanonicalScript.Is(err) {
		t.Fatalf("oversize AddData: got %v, want ErrNonCanonicalScript", err)
	}

	// The error sticks across subsequent valid pushes.
	builder.AddOp(opcode.OP_1)
	if _, err := builder.Script(); !txscripterr.ErrNonCanonicalScript.Is(err) {
		t.Fatalf("latched error lost: got %v", err)
	}

	// Reset clears it.
	builder.Reset().AddOp(opcode.OP_1)
	if _, err := builder.Script(); err != nil {
		t.Fatalf("builder after Reset: %v", err)
	}
}
