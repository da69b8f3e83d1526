// Copyright (c) 2016 The btcsuite developers
// Copyright (c) 2024 The cashkit developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txbuilder

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/btcsuite/btcd/btcec"
	"github.com/cashkit/cashd/cashutil"
	"github.com/cashkit/cashd/cashutil/er"
	"github.com/cashkit/cashd/chaincfg"
	"github.com/cashkit/cashd/txrules"
	"github.com/cashkit/cashd/txscript"
	"github.com/cashkit/cashd/txscript/params"
	"github.com/cashkit/cashd/wire"
)

// group holds the coins, keys, and requested payments that must balance
// independently of every other group in the builder.
type group struct {
	name  string
	coins []Coin
	keys  []*btcec.PrivateKey
	sends []*wire.TxOut

	// fee is the fixed fee charged to this group via SendFees on top of
	// any share of the builder-wide fees.
	fee cashutil.Amount

	// subtractFeeFrom is the index into sends whose value pays this
	// group's fee share, or -1 when the fee is funded by extra inputs.
	subtractFeeFrom int

	// coverOnly, when nonzero, caps the amount of the group's sends this
	// builder funds with inputs. The remainder is expected to be covered
	// by another party adding their own inputs to the transaction.
	coverOnly cashutil.Amount
}

func (g *group) sendTotal() cashutil.Amount {
	var total cashutil.Amount
	for _, out := range g.sends {
		total += cashutil.Amount(out.Value)
	}
	return total
}

func (g *group) coinTotal() cashutil.Amount {
	var total cashutil.Amount
	for _, c := range g.coins {
		total += c.Amount()
	}
	return total
}

// TransactionBuilder assembles, funds, and signs transactions from declared
// coins, keys, and payments. Calls chain fluently and the first error sticks
// until BuildTransaction reports it, so a sequence of Add and Send calls only
// needs a single error check at the end.
//
// Payments are organized into groups, each of which must be funded entirely
// by its own coins. Then starts a new group; until it is called all calls
// apply to a single implicit group.
type TransactionBuilder struct {
	// DustPrevention, when true, silently drops dust payment outputs and
	// dust change into the fee rather than creating outputs that would be
	// rejected by standardness policy.
	DustPrevention bool

	// ShuffleRandom, when non-nil, is used to shuffle the order of inputs
	// and outputs of built transactions. When nil the ordering is
	// deterministic: inputs follow group then selection order and outputs
	// follow the order of the Send calls.
	ShuffleRandom *rand.Rand

	// CoinSelector chooses which of a group's coins fund it. Defaults to
	// DefaultCoinSelector.
	CoinSelector CoinSelector

	params       *chaincfg.Params
	groups       []*group
	current      *group
	redeems      map[string][]byte
	knownSigs    map[wire.OutPoint][]byte
	changeScript []byte

	// feeRate is the per-kilobyte rate set by SendEstimatedFees. The
	// resulting fee depends on the final size so funding iterates until
	// the selection is stable. splitFee and splitFeeRate spread their
	// fees across all groups in proportion to each group's send total.
	feeRate      cashutil.Amount
	feeRateSplit bool
	splitFee     cashutil.Amount

	err er.R
}

// New returns a transaction builder for the passed chain parameters.
func New(chainParams *chaincfg.Params) *TransactionBuilder {
	return &TransactionBuilder{
		CoinSelector: &DefaultCoinSelector{},
		params:       chainParams,
		redeems:      make(map[string][]byte),
		knownSigs:    make(map[wire.OutPoint][]byte),
	}
}

// setErr latches the first error encountered by the fluent interface.
func (b *TransactionBuilder) setErr(err er.R) {
	if b.err == nil {
		b.err = err
	}
}

// ensureGroup returns the group subsequent calls apply to, creating the
// implicit first group on demand.
func (b *TransactionBuilder) ensureGroup() *group {
	if b.current == nil {
		b.current = &group{subtractFeeFrom: -1}
		b.groups = append(b.groups, b.current)
	}
	return b.current
}

// Then starts a new group. Coins, keys, payments, and fees declared after
// this call belong to the new group and are funded independently of earlier
// groups. An optional name is used in error reporting.
func (b *TransactionBuilder) Then(name ...string) *TransactionBuilder {
	g := &group{subtractFeeFrom: -1}
	if len(name) > 0 {
		g.name = name[0]
	}
	b.groups = append(b.groups, g)
	b.current = g
	return b
}

// AddCoins adds spendable coins to the current group.
func (b *TransactionBuilder) AddCoins(coins ...Coin) *TransactionBuilder {
	g := b.ensureGroup()
	g.coins = append(g.coins, coins...)
	return b
}

// AddKeys adds private keys used by SignTransaction to the current group.
// Keys are matched to coins by the hash of both their compressed and
// uncompressed public key serializations.
func (b *TransactionBuilder) AddKeys(keys ...*btcec.PrivateKey) *TransactionBuilder {
	g := b.ensureGroup()
	g.keys = append(g.keys, keys...)
	return b
}

// AddKnownRedeems registers redeem scripts so that pay-to-script-hash coins
// which do not carry their own redeem script can still be sized and signed.
func (b *TransactionBuilder) AddKnownRedeems(redeems ...[]byte) *TransactionBuilder {
	b.ensureGroup()
	for _, redeem := range redeems {
		b.redeems[string(cashutil.Hash160(redeem))] = redeem
	}
	return b
}

// AddKnownSignature records an externally produced signature script for the
// coin spent by outPoint. SignTransaction merges it with any signatures the
// builder can produce itself, which allows completing transactions that are
// partially signed by another party.
func (b *TransactionBuilder) AddKnownSignature(outPoint wire.OutPoint,
	sigScript []byte) *TransactionBuilder {

	b.ensureGroup()
	b.knownSigs[outPoint] = sigScript
	return b
}

// Send adds a payment of the given amount to the given output script to the
// current group.
func (b *TransactionBuilder) Send(pkScript []byte, amount cashutil.Amount) *TransactionBuilder {
	g := b.ensureGroup()
	if amount < 0 || amount > cashutil.MaxSatoshi {
		b.setErr(er.Errorf("invalid send amount %v", amount))
		return b
	}
	g.sends = append(g.sends, wire.NewTxOut(int64(amount), pkScript))
	return b
}

// SendFees charges a fixed fee to the current group on top of its payments.
func (b *TransactionBuilder) SendFees(fee cashutil.Amount) *TransactionBuilder {
	g := b.ensureGroup()
	if fee < 0 {
		b.setErr(er.Errorf("invalid fee %v", fee))
		return b
	}
	g.fee += fee
	return b
}

// SendFeesSplit charges a fixed fee split across all groups in proportion to
// each group's total payment amount.
func (b *TransactionBuilder) SendFeesSplit(fee cashutil.Amount) *TransactionBuilder {
	b.ensureGroup()
	if fee < 0 {
		b.setErr(er.Errorf("invalid fee %v", fee))
		return b
	}
	b.splitFee += fee
	return b
}

// SendEstimatedFees charges the current group a fee computed from the given
// per-kilobyte rate and the estimated size of the final transaction. Funding
// iterates until the selected coins and the fee they imply are stable.
func (b *TransactionBuilder) SendEstimatedFees(feeRate cashutil.Amount) *TransactionBuilder {
	b.ensureGroup()
	if feeRate < 0 {
		b.setErr(er.Errorf("invalid fee rate %v", feeRate))
		return b
	}
	b.feeRate = feeRate
	b.feeRateSplit = false
	return b
}

// SendEstimatedFeesSplit behaves as SendEstimatedFees but splits the
// estimated fee across all groups in proportion to their payment totals.
func (b *TransactionBuilder) SendEstimatedFeesSplit(feeRate cashutil.Amount) *TransactionBuilder {
	b.ensureGroup()
	if feeRate < 0 {
		b.setErr(er.Errorf("invalid fee rate %v", feeRate))
		return b
	}
	b.feeRate = feeRate
	b.feeRateSplit = true
	return b
}

// SubtractFees makes the most recent payment of the current group pay the
// group's fee share out of its own value instead of requiring extra inputs.
func (b *TransactionBuilder) SubtractFees() *TransactionBuilder {
	g := b.ensureGroup()
	if len(g.sends) == 0 {
		b.setErr(er.New("SubtractFees requires a preceding Send"))
		return b
	}
	g.subtractFeeFrom = len(g.sends) - 1
	return b
}

// CoverOnly caps the amount of the current group's payments funded by this
// builder's coins. The outputs still carry their full values; the shortfall
// must be covered by another party adding inputs to the transaction.
func (b *TransactionBuilder) CoverOnly(amount cashutil.Amount) *TransactionBuilder {
	g := b.ensureGroup()
	if amount < 0 {
		b.setErr(er.Errorf("invalid cover amount %v", amount))
		return b
	}
	g.coverOnly = amount
	return b
}

// CoverTheRest removes a previously set CoverOnly cap so the current group is
// funded in full again.
func (b *TransactionBuilder) CoverTheRest() *TransactionBuilder {
	g := b.ensureGroup()
	g.coverOnly = 0
	return b
}

// SetChange sets the script excess funds are returned to. Building a
// transaction that produces change without a change script fails with
// ErrNoChange.
func (b *TransactionBuilder) SetChange(pkScript []byte) *TransactionBuilder {
	b.changeScript = pkScript
	return b
}

// splitByWeight splits total into len(weights) parts proportional to the
// weights, assigning remainders one satoshi at a time so the parts always sum
// to exactly total. Zero weights all around falls back to an even split.
func splitByWeight(total cashutil.Amount, weights []cashutil.Amount) []cashutil.Amount {
	parts := make([]cashutil.Amount, len(weights))
	if len(weights) == 0 || total == 0 {
		return parts
	}
	var sumWeight cashutil.Amount
	for _, w := range weights {
		sumWeight += w
	}
	if sumWeight == 0 {
		for i := range weights {
			weights[i] = 1
		}
		sumWeight = cashutil.Amount(len(weights))
	}
	var assigned cashutil.Amount
	for i, w := range weights {
		parts[i] = total * w / sumWeight
		assigned += parts[i]
	}
	for i := 0; assigned < total; i = (i + 1) % len(parts) {
		parts[i]++
		assigned++
	}
	return parts
}

// groupFees returns the total fee charged to each group given the estimated
// portion of the builder-wide fee.
func (b *TransactionBuilder) groupFees(estimatedFee cashutil.Amount) []cashutil.Amount {
	fees := make([]cashutil.Amount, len(b.groups))
	weights := make([]cashutil.Amount, len(b.groups))
	for i, g := range b.groups {
		fees[i] = g.fee
		weights[i] = g.sendTotal()
	}
	splitTotal := b.splitFee
	if b.feeRateSplit {
		splitTotal += estimatedFee
	} else if estimatedFee > 0 && len(b.groups) > 0 {
		// An unsplit estimated fee is charged to the group that most
		// recently declared payments, falling back to the first.
		idx := 0
		for i, g := range b.groups {
			if len(g.sends) > 0 {
				idx = i
			}
		}
		fees[idx] += estimatedFee
	}
	for i, share := range splitByWeight(splitTotal, weights) {
		fees[i] += share
	}
	return fees
}

// fundingPlan is the result of one selection pass: the coins funding each
// group and the change left over across all groups.
type fundingPlan struct {
	selected [][]Coin
	change   cashutil.Amount
}

// selectFunding chooses coins for every group so that each covers its
// payments plus its fee share. The returned shortfall error reports the exact
// missing amount of the first group that cannot be funded.
func (b *TransactionBuilder) selectFunding(fees []cashutil.Amount) (*fundingPlan, er.R) {
	selector := b.CoinSelector
	if selector == nil {
		selector = &DefaultCoinSelector{}
	}

	plan := &fundingPlan{selected: make([][]Coin, len(b.groups))}
	for i, g := range b.groups {
		target := g.sendTotal() + fees[i]
		if g.subtractFeeFrom >= 0 {
			// The marked output pays the fee, so inputs only need
			// to cover the payments themselves.
			target -= fees[i]
		}
		if g.coverOnly > 0 && g.coverOnly < target {
			target = g.coverOnly
		}

		coins := selector.Select(g.coins, target)
		if coins == nil {
			missing := target - g.coinTotal()
			return nil, notEnoughFunds(g.name, missing)
		}
		plan.selected[i] = coins
		var selectedTotal cashutil.Amount
		for _, c := range coins {
			selectedTotal += c.Amount()
		}
		plan.change += selectedTotal - target
	}
	return plan, nil
}

// assemble turns a funding plan into an unsigned transaction.
func (b *TransactionBuilder) assemble(plan *fundingPlan, fees []cashutil.Amount) (*wire.MsgTx, er.R) {
	tx := wire.NewMsgTx(wire.TxVersion)

	seen := make(map[wire.OutPoint]struct{})
	for _, coins := range plan.selected {
		for _, c := range coins {
			op := c.OutPoint()
			if _, ok := seen[op]; ok {
				return nil, ErrDuplicateSpend.New(
					fmt.Sprintf("outpoint %v selected twice", op), nil)
			}
			seen[op] = struct{}{}
			tx.AddTxIn(wire.NewTxIn(&op, nil))
		}
	}

	for i, g := range b.groups {
		for j, send := range g.sends {
			value := send.Value
			if j == g.subtractFeeFrom {
				value -= int64(fees[i])
				if value < 0 {
					return nil, er.Errorf("fee %v exceeds the "+
						"output it is subtracted from", fees[i])
				}
			}
			out := wire.NewTxOut(value, send.PkScript)
			if b.DustPrevention &&
				txrules.IsDustOutput(out, b.params.RelayFeePerKb) {
				// Dropped payments are small enough to fold
				// into the fee.
				continue
			}
			tx.AddTxOut(out)
		}
	}

	if plan.change > 0 {
		dropAsDust := b.DustPrevention && IsDustAmountForScript(
			plan.change, b.changeScript, b.params.RelayFeePerKb)
		if !dropAsDust {
			if b.changeScript == nil {
				return nil, ErrNoChange.Default()
			}
			tx.AddTxOut(wire.NewTxOut(int64(plan.change), b.changeScript))
		}
	}

	if b.ShuffleRandom != nil {
		b.ShuffleRandom.Shuffle(len(tx.TxIn), func(i, j int) {
			tx.TxIn[i], tx.TxIn[j] = tx.TxIn[j], tx.TxIn[i]
		})
		b.ShuffleRandom.Shuffle(len(tx.TxOut), func(i, j int) {
			tx.TxOut[i], tx.TxOut[j] = tx.TxOut[j], tx.TxOut[i]
		})
	}

	return tx, nil
}

// IsDustAmountForScript returns whether amount sent to an output carrying
// pkScript would be considered dust. A nil script is sized as a standard
// pay-to-pubkey-hash output.
func IsDustAmountForScript(amount cashutil.Amount, pkScript []byte,
	relayFeePerKb cashutil.Amount) bool {

	scriptSize := len(pkScript)
	if scriptSize == 0 {
		scriptSize = 25
	}
	return amount < txrules.GetDustThreshold(scriptSize, relayFeePerKb)
}

// plan runs the iterative funding loop and returns the stable plan together
// with the fee charged to each group.
func (b *TransactionBuilder) plan() (*fundingPlan, []cashutil.Amount, er.R) {
	if len(b.groups) == 0 {
		return nil, nil, ErrNoGroup.Default()
	}

	var estimatedFee cashutil.Amount
	for {
		fees := b.groupFees(estimatedFee)
		plan, err := b.selectFunding(fees)
		if err != nil {
			return nil, nil, err
		}
		if b.feeRate == 0 {
			return plan, fees, nil
		}

		var allCoins []Coin
		var outputs []*wire.TxOut
		for _, coins := range plan.selected {
			allCoins = append(allCoins, coins...)
		}
		for _, g := range b.groups {
			outputs = append(outputs, g.sends...)
		}
		size := estimateSerializeSize(allCoins, outputs,
			plan.change > 0, b.redeems)
		required := txrules.FeeForSerializeSize(b.feeRate, size)
		if required <= estimatedFee {
			return plan, fees, nil
		}
		estimatedFee = required
	}
}

// BuildTransaction funds every group, assembles the transaction, and signs it
// when sign is true. The unsigned inputs of a transaction built with sign set
// to false can be completed later with SignTransaction.
func (b *TransactionBuilder) BuildTransaction(sign bool) (*wire.MsgTx, er.R) {
	if b.err != nil {
		return nil, b.err
	}

	plan, fees, err := b.plan()
	if err != nil {
		return nil, err
	}
	tx, err := b.assemble(plan, fees)
	if err != nil {
		return nil, err
	}

	if sign {
		if err := b.SignTransaction(tx); err != nil {
			return nil, err
		}
	}
	return tx, nil
}

// EstimateSize returns the worst case serialized size of the transaction the
// builder would currently produce, without building or signing it.
func (b *TransactionBuilder) EstimateSize() (int, er.R) {
	if b.err != nil {
		return 0, b.err
	}
	plan, _, err := b.plan()
	if err != nil {
		return 0, err
	}
	var allCoins []Coin
	var outputs []*wire.TxOut
	for _, coins := range plan.selected {
		allCoins = append(allCoins, coins...)
	}
	for _, g := range b.groups {
		outputs = append(outputs, g.sends...)
	}
	return estimateSerializeSize(allCoins, outputs, plan.change > 0,
		b.redeems), nil
}

// EstimateFees returns the fee the transaction the builder would currently
// produce requires at the given per-kilobyte rate.
func (b *TransactionBuilder) EstimateFees(feeRate cashutil.Amount) (cashutil.Amount, er.R) {
	size, err := b.EstimateSize()
	if err != nil {
		return 0, err
	}
	return txrules.FeeForSerializeSize(feeRate, size), nil
}

// findCoin returns the builder's coin spent by op, or nil.
func (b *TransactionBuilder) findCoin(op wire.OutPoint) Coin {
	for _, g := range b.groups {
		for _, c := range g.coins {
			if c.OutPoint() == op {
				return c
			}
		}
	}
	return nil
}

// keyDB returns a key lookup over every key added to the builder, indexed by
// the hash of both the compressed and uncompressed public key forms.
func (b *TransactionBuilder) keyDB() txscript.KeyDB {
	type keyEntry struct {
		key        *btcec.PrivateKey
		compressed bool
	}
	keys := make(map[string]keyEntry)
	for _, g := range b.groups {
		for _, key := range g.keys {
			pub := key.PubKey()
			compressed := cashutil.Hash160(pub.SerializeCompressed())
			uncompressed := cashutil.Hash160(pub.SerializeUncompressed())
			keys[string(compressed)] = keyEntry{key, true}
			keys[string(uncompressed)] = keyEntry{key, false}
		}
	}
	return txscript.KeyClosure(func(hash []byte) (*btcec.PrivateKey, bool, er.R) {
		entry, ok := keys[string(hash)]
		if !ok {
			return nil, false, er.New("no key for requested hash")
		}
		return entry.key, entry.compressed, nil
	})
}

// scriptDB returns a redeem script lookup over the builder's known redeems
// and the redeem scripts carried by its script coins.
func (b *TransactionBuilder) scriptDB() txscript.ScriptDB {
	scripts := make(map[string][]byte, len(b.redeems))
	for hash, redeem := range b.redeems {
		scripts[hash] = redeem
	}
	for _, g := range b.groups {
		for _, c := range g.coins {
			if sc, ok := c.(*ScriptCoin); ok {
				hash := cashutil.Hash160(sc.Redeem())
				scripts[string(hash)] = sc.Redeem()
			}
		}
	}
	return txscript.ScriptClosure(func(hash []byte) ([]byte, er.R) {
		redeem, ok := scripts[string(hash)]
		if !ok {
			return nil, er.New("no redeem script for requested hash")
		}
		return redeem, nil
	})
}

// SignTransaction signs every input of tx whose unlocking requirements can be
// satisfied with the builder's keys, merging with any signature script
// already present on the input and any scripts registered through
// AddKnownSignature. Inputs the builder holds no coin or key for are left
// untouched so another party can complete them.
func (b *TransactionBuilder) SignTransaction(tx *wire.MsgTx) er.R {
	kdb := b.keyDB()
	sdb := b.scriptDB()
	hashType := params.SigHashAll | params.SigHashForkID

	for i, txIn := range tx.TxIn {
		coin := b.findCoin(txIn.PreviousOutPoint)
		if coin == nil {
			continue
		}
		txOut := coin.TxOut()

		previous := txIn.SignatureScript
		if known, ok := b.knownSigs[txIn.PreviousOutPoint]; ok {
			if len(previous) == 0 {
				previous = known
			} else {
				merged, err := txscript.CombineSignatureScripts(
					b.params, tx, i, txOut.PkScript, known,
					previous, txOut.Value)
				if err == nil {
					previous = merged
				}
			}
		}

		sigScript, err := txscript.SignTxOutput(b.params, tx, i,
			txOut.PkScript, hashType, kdb, sdb, previous, txOut.Value)
		if err != nil {
			// Missing keys are expected in multi-party flows.
			log.Debugf("input %d not signed: %v", i, err)
			if len(previous) > 0 {
				txIn.SignatureScript = previous
			}
			continue
		}
		txIn.SignatureScript = sigScript
	}
	return nil
}

// CombineSignatures merges the signature scripts of several partially signed
// copies of the same transaction into one. For multisig inputs the result
// carries the union of the valid signatures found across all copies.
func (b *TransactionBuilder) CombineSignatures(txs ...*wire.MsgTx) (*wire.MsgTx, er.R) {
	if len(txs) == 0 {
		return nil, er.New("no transactions to combine")
	}
	base := txs[0].Copy()
	for _, other := range txs[1:] {
		if len(other.TxIn) != len(base.TxIn) {
			return nil, er.New("transactions being combined do not match")
		}
		for i, txIn := range base.TxIn {
			if other.TxIn[i].PreviousOutPoint != txIn.PreviousOutPoint {
				return nil, er.New("transactions being combined do not match")
			}
			coin := b.findCoin(txIn.PreviousOutPoint)
			if coin == nil {
				return nil, ErrCoinNotFound.New(
					fmt.Sprintf("no coin for input %d", i), nil)
			}
			merged, err := txscript.CombineSignatureScripts(b.params,
				base, i, coin.TxOut().PkScript,
				other.TxIn[i].SignatureScript, txIn.SignatureScript,
				coin.TxOut().Value)
			if err != nil {
				return nil, err
			}
			txIn.SignatureScript = merged
		}
	}
	return base, nil
}

// Verify checks tx against the builder's coins and standardness policy and
// returns whether it is fully valid along with every policy violation found.
// Violations accumulate rather than short-circuiting so a caller sees all of
// the transaction's problems at once.
func (b *TransactionBuilder) Verify(tx *wire.MsgTx) (bool, []PolicyError) {
	return b.verify(tx, -1)
}

// VerifyWithExpectedFee behaves as Verify but additionally reports a fee
// higher than expectedFee as a policy violation.
func (b *TransactionBuilder) VerifyWithExpectedFee(tx *wire.MsgTx,
	expectedFee cashutil.Amount) (bool, []PolicyError) {

	return b.verify(tx, expectedFee)
}

func (b *TransactionBuilder) verify(tx *wire.MsgTx, expectedFee cashutil.Amount) (bool, []PolicyError) {
	var violations []PolicyError

	// Duplicate spends.
	spends := make(map[wire.OutPoint][]int)
	for i, txIn := range tx.TxIn {
		spends[txIn.PreviousOutPoint] = append(
			spends[txIn.PreviousOutPoint], i)
	}
	var dupOutPoints []wire.OutPoint
	for op, indices := range spends {
		if len(indices) > 1 {
			dupOutPoints = append(dupOutPoints, op)
		}
	}
	sort.Slice(dupOutPoints, func(i, j int) bool {
		return spends[dupOutPoints[i]][0] < spends[dupOutPoints[j]][0]
	})
	for _, op := range dupOutPoints {
		indices := spends[op]
		sort.Ints(indices)
		violations = append(violations, &DuplicateInputPolicyError{
			OutPoint:     op,
			InputIndices: indices,
		})
	}

	// Script execution over every input the builder has a coin for.
	hashCache := txscript.NewTxSigHashes(tx)
	var inputTotal cashutil.Amount
	for i, txIn := range tx.TxIn {
		coin := b.findCoin(txIn.PreviousOutPoint)
		if coin == nil {
			violations = append(violations, &CoinNotFoundPolicyError{
				InputIndex: i,
				OutPoint:   txIn.PreviousOutPoint,
			})
			continue
		}
		inputTotal += coin.Amount()

		vm, err := txscript.NewEngine(coin.TxOut().PkScript, tx, i,
			txscript.StandardVerifyFlags, nil, hashCache,
			coin.TxOut().Value)
		if err == nil {
			err = vm.Execute()
		}
		if err != nil {
			violations = append(violations, &ScriptPolicyError{
				InputIndex:  i,
				ScriptError: err,
			})
		}
	}

	var outputTotal cashutil.Amount
	for i, txOut := range tx.TxOut {
		outputTotal += cashutil.Amount(txOut.Value)
		if txrules.IsDustOutput(txOut, b.params.RelayFeePerKb) {
			violations = append(violations, &DustPolicyError{
				OutputIndex: i,
				Value:       cashutil.Amount(txOut.Value),
				Threshold: txrules.GetDustThreshold(
					len(txOut.PkScript), b.params.RelayFeePerKb),
			})
		}
	}

	// Fee bounds. Skipped when unknown coins make the fee incomputable.
	size := tx.SerializeSize()
	knownInputs := true
	for _, txIn := range tx.TxIn {
		if b.findCoin(txIn.PreviousOutPoint) == nil {
			knownInputs = false
			break
		}
	}
	if knownInputs {
		fee := inputTotal - outputTotal
		minFee := txrules.FeeForSerializeSize(b.params.RelayFeePerKb, size)
		if fee < minFee {
			violations = append(violations, &FeeTooLowPolicyError{
				Fee:      fee,
				Required: minFee,
			})
		}
		maxFee := txrules.FeeForSerializeSize(b.params.MaxFeePerKb, size)
		if fee > maxFee {
			violations = append(violations, &FeeTooHighPolicyError{
				Fee:     fee,
				Maximum: maxFee,
			})
		} else if expectedFee >= 0 && fee > expectedFee {
			violations = append(violations, &FeeTooHighPolicyError{
				Fee:     fee,
				Maximum: expectedFee,
			})
		}
	}

	if size > b.params.MaxTxSize {
		violations = append(violations, &SizePolicyError{
			Size:    size,
			Maximum: b.params.MaxTxSize,
		})
	}

	return len(violations) == 0, violations
}
