// Copyright (c) 2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

import (
	"math/rand"
	"testing"

	"github.com/cashkit/cashd/wire"
)

// randTx generates a transaction with randomized outpoints so each one hashes
// uniquely.
func randTx(r *rand.Rand) *wire.MsgTx {
	tx := wire.NewMsgTx(wire.TxVersion)
	var hash [32]byte
	r.Read(hash[:])
	tx.AddTxIn(&wire.TxIn{
		PreviousOutPoint: wire.OutPoint{
			Hash:  hash,
			Index: r.Uint32(),
		},
		Sequence: wire.MaxTxInSequenceNum,
	})
	tx.AddTxOut(&wire.TxOut{
		Value:    r.Int63n(1000000),
		PkScript: []byte{0x51},
	})
	return tx
}

// TestHashCacheAddContainsHashes ensures txids added to the cache are
// reported as present and unknown txids are not.
func TestHashCacheAddContainsHashes(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	cache := NewHashCache(10)

	txs := make([]*wire.MsgTx, 10)
	for i := range txs {
		txs[i] = randTx(r)
		cache.AddSigHashes(txs[i])
	}

	for _, tx := range txs {
		txid := tx.TxHash()
		if !cache.ContainsHashes(&txid) {
			t.Fatalf("txid %v not found in cache", txid)
		}
	}

	unknown := randTx(r).TxHash()
	if cache.ContainsHashes(&unknown) {
		t.Fatalf("txid %v wrongly reported as cached", unknown)
	}
}

// TestHashCacheAddGet asserts the sighash midstate fetched from the cache
// matches a freshly computed one.
func TestHashCacheAddGet(t *testing.T) {
	r := rand.New(rand.NewSource(2))
	cache := NewHashCache(10)

	tx := randTx(r)
	cache.AddSigHashes(tx)

	txid := tx.TxHash()
	cacheHashes, ok := cache.GetSigHashes(&txid)
	if !ok {
		t.Fatalf("transaction not found in cache")
	}

	fresh := NewTxSigHashes(tx)
	if *cacheHashes != *fresh {
		t.Fatalf("sighashes don't match: got %v, want %v",
			cacheHashes, fresh)
	}
}

// TestHashCachePurge asserts purged transactions are no longer found.
func TestHashCachePurge(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	cache := NewHashCache(10)

	tx := randTx(r)
	cache.AddSigHashes(tx)

	txid := tx.TxHash()
	cache.PurgeSigHashes(&txid)
	if cache.ContainsHashes(&txid) {
		t.Fatalf("transaction still reported as cached after purge")
	}
}
