package parsescript

import (
	"bytes"
	"testing"

	"github.com/cashkit/cashd/txscript/opcode"
	"github.com/cashkit/cashd/txscript/txscripterr"
)

// TestParseScript ensures well formed scripts parse into the expected opcodes
// and data.
func TestParseScript(t *testing.T) {
	// OP_0, OP_DATA_3 with payload, OP_PUSHDATA1 with payload, OP_CHECKSIG.
	script := []byte{
		opcode.OP_0,
		opcode.OP_DATA_3, 0x01, 0x02, 0x03,
		opcode.OP_PUSHDATA1, 0x02, 0xaa, 0xbb,
		opcode.OP_CHECKSIG,
	}

	pops, err := ParseScript(script)
	if err != nil {
		t.Fatalf("ParseScript: %v", err)
	}
	if len(pops) != 4 {
		t.Fatalf("got %d parsed opcodes, want 4", len(pops))
	}
	if pops[0].Opcode.Value != opcode.OP_0 || len(pops[0].Data) != 0 {
		t.Errorf("op 0: got %v", pops[0])
	}
	if !bytes.Equal(pops[1].Data, []byte{0x01, 0x02, 0x03}) {
		t.Errorf("op 1 data: got %x", pops[1].Data)
	}
	if !bytes.Equal(pops[2].Data, []byte{0xaa, 0xbb}) {
		t.Errorf("op 2 data: got %x", pops[2].Data)
	}
	if pops[3].Opcode.Value != opcode.OP_CHECKSIG {
		t.Errorf("op 3: got %v", pops[3].Opcode.Value)
	}
}

// TestParseScriptMalformedPushes ensures truncated data pushes fail with
// ErrMalformedPush.
func TestParseScriptMalformedPushes(t *testing.T) {
	tests := []struct {
		name   string
		script []byte
	}{
		{
			name:   "truncated OP_DATA_3",
			script: []byte{opcode.OP_DATA_3, 0x01},
		},
		{
			name:   "OP_PUSHDATA1 missing length",
			script: []byte{opcode.OP_PUSHDATA1},
		},
		{
			name:   "OP_PUSHDATA1 length beyond script",
			script: []byte{opcode.OP_PUSHDATA1, 0x05, 0x01},
		},
		{
			name:   "OP_PUSHDATA2 length beyond script",
			script: []byte{opcode.OP_PUSHDATA2, 0xff, 0xff},
		},
	}

	for _, test := range tests {
		_, err := ParseScript(test.script)
		if !txscripterr.ErrMalformedPush.Is(err) {
			t.Errorf("%s: got %v, want ErrMalformedPush", test.name, err)
		}
	}
}

func TestIsPushOnly(t *testing.T) {
	pushOnly, err := ParseScript([]byte{
		opcode.OP_0, opcode.OP_DATA_1, 0x51, opcode.OP_16,
	})
	if err != nil {
		t.Fatalf("ParseScript: %v", err)
	}
	if !IsPushOnly(pushOnly) {
		t.Errorf("push only script not recognized")
	}

	notPushOnly, err := ParseScript([]byte{opcode.OP_0, opcode.OP_NOP})
	if err != nil {
		t.Fatalf("ParseScript: %v", err)
	}
	if IsPushOnly(notPushOnly) {
		t.Errorf("OP_NOP wrongly considered a push")
	}
}
