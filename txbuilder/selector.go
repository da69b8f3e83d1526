// Copyright (c) 2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txbuilder

import (
	"sort"

	"github.com/emirpasic/gods/maps/treemap"

	"github.com/cashkit/cashd/cashutil"
)

// CoinSelector selects from the available coins a set whose combined value is
// at least the target amount.  A nil selection means the available coins
// cannot cover the target.  Implementations must be deterministic: the same
// coins and target always yield the same selection.
type CoinSelector interface {
	Select(coins []Coin, target cashutil.Amount) []Coin
}

// scriptGroup is a set of coins sharing a locking script.  The default
// selector never splits a group: once one coin of a script is spent, linking
// the remaining ones to it reveals nothing new, while spending some but not
// all would leak a partial linkage.
type scriptGroup struct {
	script string
	coins  []Coin
	total  cashutil.Amount
}

// DefaultCoinSelector groups candidate coins by their locking script and
// greedily funds the target from whole groups, preferring the cheapest
// sufficient selection.  Selection is fully deterministic.
type DefaultCoinSelector struct{}

var _ CoinSelector = DefaultCoinSelector{}

// Select implements CoinSelector.
func (DefaultCoinSelector) Select(coins []Coin, target cashutil.Amount) []Coin {
	if target < 0 {
		return nil
	}
	if target == 0 {
		return []Coin{}
	}

	// Group the candidates by locking script.  The tree map keeps group
	// construction order independent of the order coins were added.
	byScript := treemap.NewWithStringComparator()
	for _, coin := range coins {
		key := string(coin.TxOut().PkScript)
		if existing, ok := byScript.Get(key); ok {
			byScript.Put(key, append(existing.([]Coin), coin))
		} else {
			byScript.Put(key, []Coin{coin})
		}
	}

	groups := make([]*scriptGroup, 0, byScript.Size())
	it := byScript.Iterator()
	for it.Next() {
		g := &scriptGroup{
			script: it.Key().(string),
			coins:  it.Value().([]Coin),
		}
		for _, coin := range g.coins {
			g.total += coin.Amount()
		}
		groups = append(groups, g)
	}

	// Order groups by total value, falling back to script order among
	// equal totals so the result does not depend on map iteration.
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].total < groups[j].total
	})

	// A single group which matches the target exactly beats everything:
	// no change, fewest linked scripts.
	for _, g := range groups {
		if g.total == target {
			return g.coins
		}
	}

	// Greedily accumulate the smallest groups.  Whenever the remainder
	// could instead be covered by one not yet consumed group, prefer that
	// group and stop, which keeps the over-payment small.
	var selected []Coin
	var selectedTotal cashutil.Amount
	for i, g := range groups {
		remaining := target - selectedTotal

		// Look for the smallest unconsumed group able to cover the
		// remainder on its own.
		coverIdx := -1
		for j := i; j < len(groups); j++ {
			if groups[j].total >= remaining {
				coverIdx = j
				break
			}
		}
		if coverIdx != -1 {
			selected = append(selected, groups[coverIdx].coins...)
			return selected
		}

		selected = append(selected, g.coins...)
		selectedTotal += g.total
		if selectedTotal >= target {
			return selected
		}
	}

	// Everything together falls short.
	return nil
}
