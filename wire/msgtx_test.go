// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"bytes"
	"reflect"
	"testing"

	"github.com/davecgh/go-spew/spew"

	"github.com/cashkit/cashd/chaincfg/chainhash"
)

// testTx returns a fully populated transaction for serialization tests.
func testTx() *MsgTx {
	prevHash := chainhash.Hash{
		0x03, 0x2e, 0x38, 0xe9, 0xc0, 0xa8, 0x4c, 0x60,
		0x46, 0xd6, 0x87, 0xd1, 0x05, 0x56, 0xdc, 0xac,
		0xc4, 0x1d, 0x27, 0x5e, 0xc5, 0x5f, 0xc0, 0x07,
		0x79, 0xac, 0x88, 0xfd, 0xf3, 0x57, 0xa1, 0x87,
	}
	return &MsgTx{
		Version: 1,
		TxIn: []*TxIn{{
			PreviousOutPoint: OutPoint{Hash: prevHash, Index: 7},
			SignatureScript:  []byte{0x04, 0xff, 0xff, 0x00, 0x1d},
			Sequence:         MaxTxInSequenceNum,
		}},
		TxOut: []*TxOut{
			{
				Value:    0x12a05f200,
				PkScript: []byte{0x51},
			},
			{
				Value: 0x5f5e100,
				PkScript: []byte{
					0x76, 0xa9, 0x14,
					0xad, 0x06, 0xdd, 0x6d, 0xde, 0xe5, 0x5c,
					0xbc, 0xa9, 0xa9, 0xe3, 0x71, 0x3b, 0xd7,
					0x58, 0x75, 0x09, 0xa3, 0x05, 0x64,
					0x88, 0xac,
				},
			},
		},
		LockTime: 5000000,
	}
}

// TestTxSerialize tests MsgTx serialize and deserialize against each other
// and the reported serialized size.
func TestTxSerialize(t *testing.T) {
	tx := testTx()

	var buf bytes.Buffer
	if err := tx.Serialize(&buf); err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	if buf.Len() != tx.SerializeSize() {
		t.Errorf("SerializeSize: got %d, want %d", tx.SerializeSize(),
			buf.Len())
	}

	var decoded MsgTx
	if err := decoded.Deserialize(bytes.NewReader(buf.Bytes())); err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	if !reflect.DeepEqual(&decoded, tx) {
		t.Errorf("round trip mismatch: got %v, want %v",
			spew.Sdump(&decoded), spew.Sdump(tx))
	}
}

// TestTxHashCaching verifies the explicit hash cache contract: the cached
// value survives mutation until invalidated.
func TestTxHashCaching(t *testing.T) {
	tx := testTx()
	uncached := tx.TxHash()

	tx.PrecomputeHash(false, false)
	cached := tx.TxHash()
	if cached != uncached {
		t.Fatalf("precomputed hash differs: %v vs %v", cached, uncached)
	}

	// Mutating the transaction does not invalidate the cache.
	tx.LockTime++
	if got := tx.TxHash(); got != cached {
		t.Fatalf("cache was implicitly invalidated: %v vs %v", got, cached)
	}

	// Forcing recomputation picks up the mutation.
	tx.PrecomputeHash(true, false)
	fresh := tx.TxHash()
	if fresh == cached {
		t.Fatalf("hash did not change after invalidation")
	}

	// InvalidateHash drops the cache entirely.
	tx.InvalidateHash()
	tx.LockTime++
	if got := tx.TxHash(); got == fresh {
		t.Fatalf("hash unchanged after InvalidateHash and mutation")
	}
}

// TestTxHashLazyCaching verifies that lazy precomputation caches the value
// observed by the next TxHash call.
func TestTxHashLazyCaching(t *testing.T) {
	tx := testTx()
	tx.PrecomputeHash(false, true)

	first := tx.TxHash()
	tx.LockTime++
	if got := tx.TxHash(); got != first {
		t.Fatalf("lazy cache not populated: %v vs %v", got, first)
	}
}

// TestTxCopy ensures copies are deep and do not carry the hash cache.
func TestTxCopy(t *testing.T) {
	tx := testTx()
	tx.PrecomputeHash(false, false)
	orig := tx.TxHash()

	dup := tx.Copy()
	if !reflect.DeepEqual(dup.TxIn[0], tx.TxIn[0]) {
		t.Fatalf("copy input mismatch")
	}

	// Mutating the copy must not affect the original.
	dup.TxIn[0].Sequence = 0
	if tx.TxIn[0].Sequence != MaxTxInSequenceNum {
		t.Fatalf("copy aliases original input")
	}

	// The copy hashes its own contents rather than inheriting the cache.
	dup.LockTime++
	if dup.TxHash() == orig {
		t.Fatalf("copy inherited the hash cache")
	}
}
