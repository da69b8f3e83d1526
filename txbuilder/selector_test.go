// Copyright (c) 2024 The cashkit developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txbuilder

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cashkit/cashd/cashutil"
)

func TestSelectTrivialTargets(t *testing.T) {
	coins := []Coin{
		testCoin(1, 1000, []byte{0x51}),
	}
	var s DefaultCoinSelector

	require.Nil(t, s.Select(coins, -1))

	selected := s.Select(coins, 0)
	require.NotNil(t, selected)
	require.Len(t, selected, 0)
}

func TestSelectInsufficient(t *testing.T) {
	coins := []Coin{
		testCoin(1, 1000, []byte{0x51}),
		testCoin(2, 2000, []byte{0x52}),
	}
	var s DefaultCoinSelector
	require.Nil(t, s.Select(coins, 4000))
}

// TestSelectWholeScriptGroups ensures that selecting any coin of a script
// drags along every other coin locked by the same script.
func TestSelectWholeScriptGroups(t *testing.T) {
	scriptA := []byte{0x51}
	scriptB := []byte{0x52}
	coins := []Coin{
		testCoin(1, 1000, scriptA),
		testCoin(2, 4000, scriptB),
		testCoin(3, 2000, scriptA),
	}
	var s DefaultCoinSelector

	// Covering 500 requires group A (total 3000), the smallest sufficient
	// group, and both of its coins come with it.
	selected := s.Select(coins, 500)
	require.Len(t, selected, 2)
	for _, c := range selected {
		require.Equal(t, scriptA, c.TxOut().PkScript)
	}
}

// TestSelectExactMatch ensures a group whose total matches the target exactly
// is preferred over smaller groups that would have to be combined.
func TestSelectExactMatch(t *testing.T) {
	scriptA := []byte{0x51}
	scriptB := []byte{0x52}
	coins := []Coin{
		testCoin(1, 1000, scriptA),
		testCoin(2, 3000, scriptB),
	}
	var s DefaultCoinSelector

	selected := s.Select(coins, 3000)
	var total cashutil.Amount
	for _, c := range selected {
		require.Equal(t, scriptB, c.TxOut().PkScript)
		total += c.Amount()
	}
	require.Equal(t, cashutil.Amount(3000), total)
}

// TestSelectDeterministic ensures input ordering does not change the result.
func TestSelectDeterministic(t *testing.T) {
	scriptA := []byte{0x51}
	scriptB := []byte{0x52}
	forward := []Coin{
		testCoin(1, 1000, scriptA),
		testCoin(2, 2000, scriptB),
		testCoin(3, 1500, scriptA),
	}
	backward := []Coin{forward[2], forward[1], forward[0]}

	var s DefaultCoinSelector
	a := s.Select(forward, 3000)
	b := s.Select(backward, 3000)
	require.Equal(t, len(a), len(b))

	seen := make(map[string]bool)
	for _, c := range a {
		seen[c.OutPoint().String()] = true
	}
	for _, c := range b {
		require.True(t, seen[c.OutPoint().String()])
	}
}
