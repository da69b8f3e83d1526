// Copyright (c) 2015-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package scriptnum

import (
	"bytes"
	"testing"

	"github.com/cashkit/cashd/txscript/txscripterr"
)

// TestScriptNumBytes ensures that converting from integral script numbers to
// byte representations works as expected.
func TestScriptNumBytes(t *testing.T) {
	tests := []struct {
		num        ScriptNum
		serialized []byte
	}{
		{0, nil},
		{1, []byte{0x01}},
		{-1, []byte{0x81}},
		{127, []byte{0x7f}},
		{-127, []byte{0xff}},
		{128, []byte{0x80, 0x00}},
		{-128, []byte{0x80, 0x80}},
		{256, []byte{0x00, 0x01}},
		{-256, []byte{0x00, 0x81}},
		{32767, []byte{0xff, 0x7f}},
		{-32767, []byte{0xff, 0xff}},
		{32768, []byte{0x00, 0x80, 0x00}},
		{65535, []byte{0xff, 0xff, 0x00}},
		{8388608, []byte{0x00, 0x00, 0x80, 0x00}},
		{2147483647, []byte{0xff, 0xff, 0xff, 0x7f}},
		{-2147483647, []byte{0xff, 0xff, 0xff, 0xff}},

		// Values that are out of range for data that is interpreted as
		// numbers, but may still be encoded from arithmetic results.
		{2147483648, []byte{0x00, 0x00, 0x00, 0x80, 0x00}},
		{-2147483648, []byte{0x00, 0x00, 0x00, 0x80, 0x80}},
	}

	for _, test := range tests {
		if got := test.num.Bytes(); !bytes.Equal(got, test.serialized) {
			t.Errorf("Bytes(%d): got %x, want %x", test.num, got,
				test.serialized)
		}
	}
}

// TestMakeScriptNum ensures decoding byte representations enforces the range
// and minimal encoding rules.
func TestMakeScriptNum(t *testing.T) {
	tests := []struct {
		serialized []byte
		num        ScriptNum
		numLen     int
		minimal    bool
		errCode    string
	}{
		{nil, 0, DefaultScriptNumLen, true, ""},
		{[]byte{0x01}, 1, DefaultScriptNumLen, true, ""},
		{[]byte{0x81}, -1, DefaultScriptNumLen, true, ""},
		{[]byte{0xff, 0x7f}, 32767, DefaultScriptNumLen, true, ""},
		{[]byte{0x00, 0x81}, -256, DefaultScriptNumLen, true, ""},

		// Minimally encoded but exceeds the allowed length.
		{[]byte{0xff, 0xff, 0xff, 0xff, 0x7f}, 0, DefaultScriptNumLen,
			true, "ErrNumberTooBig"},
		// Longer lengths are accepted when requested.
		{[]byte{0xff, 0xff, 0xff, 0xff, 0x7f}, 549755813887, 5, true, ""},

		// Non-minimal encodings.
		{[]byte{0x01, 0x00}, 0, DefaultScriptNumLen, true, "ErrMinimalData"},
		{[]byte{0x80}, 0, DefaultScriptNumLen, true, "ErrMinimalData"},

		// The same encodings are fine without the minimal requirement.
		{[]byte{0x01, 0x00}, 1, DefaultScriptNumLen, false, ""},
		{[]byte{0x80}, 0, DefaultScriptNumLen, false, ""},
	}

	for _, test := range tests {
		num, err := MakeScriptNum(test.serialized, test.minimal,
			test.numLen)
		if test.errCode != "" {
			code := txscripterr.Err.Decode(err)
			if code == nil || code.Name != test.errCode {
				t.Errorf("MakeScriptNum(%x): got error %v, want %s",
					test.serialized, err, test.errCode)
			}
			continue
		}
		if err != nil {
			t.Errorf("MakeScriptNum(%x): unexpected error %v",
				test.serialized, err)
			continue
		}
		if num != test.num {
			t.Errorf("MakeScriptNum(%x): got %d, want %d",
				test.serialized, num, test.num)
		}
	}
}

// TestScriptNumInt32 ensures out of range values clamp rather than truncate.
func TestScriptNumInt32(t *testing.T) {
	tests := []struct {
		in   ScriptNum
		want int32
	}{
		{0, 0},
		{1, 1},
		{-1, -1},
		{MaxInt32, MaxInt32},
		{MaxInt32 + 1, MaxInt32},
		{MinInt32, MinInt32},
		{MinInt32 - 1, MinInt32},
	}
	for _, test := range tests {
		if got := test.in.Int32(); got != test.want {
			t.Errorf("Int32(%d): got %d, want %d", test.in, got,
				test.want)
		}
	}
}
