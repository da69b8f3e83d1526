// Copyright (c) 2016 The btcsuite developers
// Copyright (c) 2024 The cashkit developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txrules

import (
	"testing"

	"github.com/cashkit/cashd/cashutil"
	"github.com/cashkit/cashd/wire"
)

func TestGetDustThreshold(t *testing.T) {
	// A standard p2pkh output at the default relay fee.
	got := GetDustThreshold(25, DefaultRelayFeePerKb)
	if got != 546 {
		t.Errorf("p2pkh dust threshold: got %d, want 546", got)
	}

	// Doubling the relay fee doubles the threshold.
	got = GetDustThreshold(25, 2*DefaultRelayFeePerKb)
	if got != 1092 {
		t.Errorf("doubled relay fee: got %d, want 1092", got)
	}
}

func TestIsDustOutput(t *testing.T) {
	p2pkh := []byte{
		0x76, 0xa9, 0x14,
		0xad, 0x06, 0xdd, 0x6d, 0xde, 0xe5, 0x5c,
		0xbc, 0xa9, 0xa9, 0xe3, 0x71, 0x3b, 0xd7,
		0x58, 0x75, 0x09, 0xa3, 0x05, 0x64,
		0x88, 0xac,
	}
	tests := []struct {
		name   string
		output *wire.TxOut
		want   bool
	}{
		{
			name:   "dust p2pkh",
			output: wire.NewTxOut(545, p2pkh),
			want:   true,
		},
		{
			name:   "threshold p2pkh",
			output: wire.NewTxOut(546, p2pkh),
			want:   false,
		},
		{
			name:   "nulldata is exempt",
			output: wire.NewTxOut(0, []byte{0x6a, 0x02, 0x01, 0x02}),
			want:   false,
		},
		{
			name:   "unspendable is always dust",
			output: wire.NewTxOut(100000, []byte{0x6a, 0x6a, 0x51}),
			want:   true,
		},
	}
	for _, test := range tests {
		if got := IsDustOutput(test.output, DefaultRelayFeePerKb); got != test.want {
			t.Errorf("%s: got %v, want %v", test.name, got, test.want)
		}
	}
}

func TestCheckOutput(t *testing.T) {
	p2pkh := make([]byte, 25)
	p2pkh[0] = 0x76

	if err := CheckOutput(wire.NewTxOut(-1, p2pkh), DefaultRelayFeePerKb); !ErrNegativeTxOutValue.Is(err) {
		t.Errorf("negative value: got %v, want ErrNegativeTxOutValue", err)
	}
	if err := CheckOutput(wire.NewTxOut(int64(cashutil.MaxSatoshi)+1, p2pkh),
		DefaultRelayFeePerKb); !ErrOversizeTxOutValue.Is(err) {
		t.Errorf("oversize value: got %v, want ErrOversizeTxOutValue", err)
	}
	if err := CheckOutput(wire.NewTxOut(1, p2pkh), DefaultRelayFeePerKb); !ErrRejectDust.Is(err) {
		t.Errorf("dust value: got %v, want ErrRejectDust", err)
	}
}

func TestFeeForSerializeSize(t *testing.T) {
	tests := []struct {
		relayFee cashutil.Amount
		size     int
		want     cashutil.Amount
	}{
		{1000, 1000, 1000},
		{1000, 250, 250},
		{1000, 3000, 3000},
		// Rounds down but never to zero.
		{1000, 0, 1000},
		{100, 5, 100},
	}
	for _, test := range tests {
		got := FeeForSerializeSize(test.relayFee, test.size)
		if got != test.want {
			t.Errorf("fee(%d, %d): got %d, want %d", test.relayFee,
				test.size, got, test.want)
		}
	}
}
