// Copyright (c) 2016 The btcsuite developers
// Copyright (c) 2024 The cashkit developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txbuilder

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/btcsuite/btcd/btcec"
	"github.com/stretchr/testify/require"

	"github.com/cashkit/cashd/cashutil"
	"github.com/cashkit/cashd/chaincfg"
	"github.com/cashkit/cashd/chaincfg/chainhash"
	"github.com/cashkit/cashd/txrules"
	"github.com/cashkit/cashd/txscript"
	"github.com/cashkit/cashd/wire"
)

func testKey(t *testing.T, b byte) (*btcec.PrivateKey, []byte) {
	t.Helper()
	seed := make([]byte, 32)
	seed[31] = b
	key, pub := btcec.PrivKeyFromBytes(btcec.S256(), seed)
	script, err := txscript.PayToPubKeyHashScript(
		cashutil.Hash160(pub.SerializeCompressed()))
	require.Nil(t, err)
	return key, script
}

func testOutPoint(n byte) wire.OutPoint {
	return wire.OutPoint{Hash: chainhash.Hash{n}, Index: uint32(n)}
}

func testCoin(n byte, value cashutil.Amount, pkScript []byte) Coin {
	return NewCoin(testOutPoint(n), wire.NewTxOut(int64(value), pkScript))
}

func TestBuildNotEnoughFunds(t *testing.T) {
	_, script := testKey(t, 1)
	_, payScript := testKey(t, 2)

	b := New(&chaincfg.MainNetParams).
		Then("savings").
		AddCoins(
			testCoin(1, 50000, script),
			testCoin(2, 30000, script),
		).
		Send(payScript, 100000)

	_, err := b.BuildTransaction(false)
	require.NotNil(t, err)
	require.True(t, ErrNotEnoughFunds.Is(err))

	info := NotEnoughFundsInfo(err)
	require.NotNil(t, info)
	require.Equal(t, "savings", info.Group)
	require.Equal(t, cashutil.Amount(20000), info.Missing)
}

func TestBuildDeterministic(t *testing.T) {
	_, script := testKey(t, 1)
	_, payScript := testKey(t, 2)
	_, changeScript := testKey(t, 3)

	build := func() []byte {
		b := New(&chaincfg.MainNetParams).
			AddCoins(
				testCoin(1, 50000, script),
				testCoin(2, 30000, script),
				testCoin(3, 20000, script),
			).
			Send(payScript, 60000).
			SendFees(1000).
			SetChange(changeScript)
		tx, err := b.BuildTransaction(false)
		require.Nil(t, err)
		var buf bytes.Buffer
		require.Nil(t, tx.Serialize(&buf))
		return buf.Bytes()
	}

	first := build()
	for i := 0; i < 3; i++ {
		require.Equal(t, first, build())
	}
}

func TestBuildShuffled(t *testing.T) {
	_, script := testKey(t, 1)
	_, payScript := testKey(t, 2)
	_, changeScript := testKey(t, 3)

	b := New(&chaincfg.MainNetParams).
		AddCoins(
			testCoin(1, 50000, script),
			testCoin(2, 30000, script),
			testCoin(3, 20000, script),
		).
		Send(payScript, 30000).
		Send(payScript, 25000).
		SendFees(1000).
		SetChange(changeScript)
	b.ShuffleRandom = rand.New(rand.NewSource(42))

	tx, err := b.BuildTransaction(false)
	require.Nil(t, err)

	// Shuffling must preserve the total amounts regardless of ordering.
	var outTotal int64
	for _, out := range tx.TxOut {
		outTotal += out.Value
	}
	var inTotal int64
	for _, txIn := range tx.TxIn {
		coin := b.findCoin(txIn.PreviousOutPoint)
		require.NotNil(t, coin)
		inTotal += int64(coin.Amount())
	}
	require.Equal(t, inTotal, outTotal+1000)
}

func TestBuildEstimatedFees(t *testing.T) {
	_, script := testKey(t, 1)
	_, payScript := testKey(t, 2)
	_, changeScript := testKey(t, 3)

	feeRate := cashutil.Amount(1000)
	b := New(&chaincfg.MainNetParams).
		AddCoins(testCoin(1, 1000000, script)).
		Send(payScript, 500000).
		SendEstimatedFees(feeRate).
		SetChange(changeScript)

	tx, err := b.BuildTransaction(false)
	require.Nil(t, err)

	var outTotal cashutil.Amount
	for _, out := range tx.TxOut {
		outTotal += cashutil.Amount(out.Value)
	}
	fee := cashutil.Amount(1000000) - outTotal

	// The fee is computed against a worst case size estimate, so the
	// effective rate on the final transaction can never fall short of the
	// requested rate.
	require.True(t, fee >= txrules.FeeForSerializeSize(feeRate,
		tx.SerializeSize()))

	// It also must not be wildly above the estimate for the signed size.
	size, err := b.EstimateSize()
	require.Nil(t, err)
	require.True(t, fee <= txrules.FeeForSerializeSize(feeRate, size))
}

func TestDustPrevention(t *testing.T) {
	key, script := testKey(t, 1)
	_, payScript := testKey(t, 2)
	_, changeScript := testKey(t, 3)

	dust := cashutil.Amount(100)

	// With dust prevention the payment output is folded into the fee.
	b := New(&chaincfg.MainNetParams).
		AddCoins(testCoin(1, 100000, script)).
		AddKeys(key).
		Send(payScript, dust).
		SetChange(changeScript)
	b.DustPrevention = true

	tx, err := b.BuildTransaction(false)
	require.Nil(t, err)
	require.Len(t, tx.TxOut, 1)
	require.Equal(t, changeScript, tx.TxOut[0].PkScript)
	require.Equal(t, int64(100000-100), tx.TxOut[0].Value)

	// Without it the dust output is kept and Verify flags it.
	b = New(&chaincfg.MainNetParams).
		AddCoins(testCoin(1, 100000, script)).
		AddKeys(key).
		Send(payScript, dust).
		SetChange(changeScript)

	tx, err = b.BuildTransaction(true)
	require.Nil(t, err)
	require.Len(t, tx.TxOut, 2)

	ok, violations := b.Verify(tx)
	require.False(t, ok)
	var sawDust bool
	for _, v := range violations {
		if _, isDust := v.(*DustPolicyError); isDust {
			sawDust = true
		}
	}
	require.True(t, sawDust)
}

func TestBuildSignVerify(t *testing.T) {
	key, script := testKey(t, 1)
	_, payScript := testKey(t, 2)
	_, changeScript := testKey(t, 3)

	b := New(&chaincfg.MainNetParams).
		AddCoins(testCoin(1, 100000, script)).
		AddKeys(key).
		Send(payScript, 50000).
		SendFees(1000).
		SetChange(changeScript)

	tx, err := b.BuildTransaction(true)
	require.Nil(t, err)
	require.Len(t, tx.TxIn, 1)
	require.NotEmpty(t, tx.TxIn[0].SignatureScript)

	ok, violations := b.Verify(tx)
	require.True(t, ok, "unexpected violations: %v", violations)

	// The same transaction fails verification against a tighter expected
	// fee.
	ok, violations = b.VerifyWithExpectedFee(tx, 500)
	require.False(t, ok)
	var sawFee bool
	for _, v := range violations {
		if _, isFee := v.(*FeeTooHighPolicyError); isFee {
			sawFee = true
		}
	}
	require.True(t, sawFee)
}

func TestCombineSignatures(t *testing.T) {
	seed := func(b byte) *btcec.PrivateKey {
		s := make([]byte, 32)
		s[31] = b
		key, _ := btcec.PrivKeyFromBytes(btcec.S256(), s)
		return key
	}
	key1, key2 := seed(4), seed(5)
	pub1 := key1.PubKey().SerializeCompressed()
	pub2 := key2.PubKey().SerializeCompressed()
	pub3 := seed(6).PubKey().SerializeCompressed()

	redeem, err := txscript.MultiSigScript([][]byte{pub1, pub2, pub3}, 2)
	require.Nil(t, err)
	pkScript, err := txscript.PayToScriptHashScript(cashutil.Hash160(redeem))
	require.Nil(t, err)

	coin, err := NewScriptCoin(testOutPoint(9),
		wire.NewTxOut(100000, pkScript), redeem)
	require.Nil(t, err)

	_, payScript := testKey(t, 7)
	_, changeScript := testKey(t, 8)

	newBuilder := func(key *btcec.PrivateKey) *TransactionBuilder {
		return New(&chaincfg.MainNetParams).
			AddCoins(coin).
			AddKeys(key).
			Send(payScript, 50000).
			SendFees(1000).
			SetChange(changeScript)
	}
	b1 := newBuilder(key1)
	b2 := newBuilder(key2)

	tx1, err := b1.BuildTransaction(false)
	require.Nil(t, err)
	tx2 := tx1.Copy()

	require.Nil(t, b1.SignTransaction(tx1))
	require.Nil(t, b2.SignTransaction(tx2))

	// Each copy alone carries a single signature and must not verify.
	ok, _ := b1.Verify(tx1)
	require.False(t, ok)

	combined, err := b1.CombineSignatures(tx1, tx2)
	require.Nil(t, err)

	ok, violations := b1.Verify(combined)
	require.True(t, ok, "unexpected violations: %v", violations)
}

func TestCoverOnly(t *testing.T) {
	_, script := testKey(t, 1)
	_, payScript := testKey(t, 2)
	_, changeScript := testKey(t, 3)

	// The group only funds 30000 of the 100000 payment; the output still
	// carries the full amount for another party to fund.
	b := New(&chaincfg.MainNetParams).
		AddCoins(testCoin(1, 40000, script)).
		Send(payScript, 100000).
		CoverOnly(30000).
		SetChange(changeScript)

	tx, err := b.BuildTransaction(false)
	require.Nil(t, err)
	require.Len(t, tx.TxOut, 2)
	require.Equal(t, int64(100000), tx.TxOut[0].Value)
	require.Equal(t, int64(10000), tx.TxOut[1].Value)
}

func TestSubtractFees(t *testing.T) {
	_, script := testKey(t, 1)
	_, payScript := testKey(t, 2)

	b := New(&chaincfg.MainNetParams).
		AddCoins(testCoin(1, 50000, script)).
		Send(payScript, 50000).
		SubtractFees().
		SendFees(1000)

	tx, err := b.BuildTransaction(false)
	require.Nil(t, err)
	require.Len(t, tx.TxOut, 1)
	require.Equal(t, int64(49000), tx.TxOut[0].Value)
}

func TestSendFeesSplit(t *testing.T) {
	_, script1 := testKey(t, 1)
	_, script2 := testKey(t, 2)
	_, pay1 := testKey(t, 3)
	_, pay2 := testKey(t, 4)
	_, changeScript := testKey(t, 5)

	// Two groups paying 30000 and 10000 split a 1000 fee 750/250.
	b := New(&chaincfg.MainNetParams).
		Then("alice").
		AddCoins(testCoin(1, 50000, script1)).
		Send(pay1, 30000).
		Then("bob").
		AddCoins(testCoin(2, 50000, script2)).
		Send(pay2, 10000).
		SendFeesSplit(1000).
		SetChange(changeScript)

	tx, err := b.BuildTransaction(false)
	require.Nil(t, err)

	var outTotal int64
	for _, out := range tx.TxOut {
		outTotal += out.Value
	}
	require.Equal(t, int64(100000-1000), outTotal)
}

func TestNoChangeScript(t *testing.T) {
	_, script := testKey(t, 1)
	_, payScript := testKey(t, 2)

	b := New(&chaincfg.MainNetParams).
		AddCoins(testCoin(1, 50000, script)).
		Send(payScript, 30000)

	_, err := b.BuildTransaction(false)
	require.NotNil(t, err)
	require.True(t, ErrNoChange.Is(err))
}

func TestFluentErrorLatching(t *testing.T) {
	_, script := testKey(t, 1)

	b := New(&chaincfg.MainNetParams).
		Send(script, -1).
		AddCoins(testCoin(1, 50000, script)).
		Send(script, 1000)

	_, err := b.BuildTransaction(false)
	require.NotNil(t, err)
}
