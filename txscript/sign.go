// Copyright (c) 2013-2015 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

import (
	"github.com/btcsuite/btcd/btcec"

	"github.com/cashkit/cashd/cashutil"
	"github.com/cashkit/cashd/cashutil/er"
	"github.com/cashkit/cashd/chaincfg"
	"github.com/cashkit/cashd/txscript/opcode"
	"github.com/cashkit/cashd/txscript/params"
	"github.com/cashkit/cashd/txscript/parsescript"
	"github.com/cashkit/cashd/wire"
)

// RawTxInSignature returns the serialized ECDSA signature for the input idx of
// the given transaction, with hashType appended to it.  When the hash type
// carries the fork id bit, the digest is computed with the replay protected
// algorithm which commits to the value of the output being spent.
func RawTxInSignature(tx *wire.MsgTx, idx int, subScript []byte,
	hashType params.SigHashType, key *btcec.PrivateKey, amt int64) ([]byte, er.R) {

	var hash []byte
	var err er.R
	if hashType.HasForkID() {
		sigHashes := NewTxSigHashes(tx)
		hash, err = CalcSignatureHashForkID(subScript, sigHashes,
			hashType, tx, idx, amt)
	} else {
		hash, err = CalcSignatureHash(subScript, hashType, tx, idx)
	}
	if err != nil {
		return nil, err
	}
	signature, errr := key.Sign(hash)
	if errr != nil {
		return nil, er.Errorf("cannot sign tx input: %s", errr)
	}

	return append(signature.Serialize(), byte(hashType)), nil
}

// SignatureScript creates an input signature script for tx to spend coins sent
// from a previous output to the owner of privKey. tx must include all
// transaction inputs and outputs, however txin scripts are allowed to be filled
// or empty. The returned script is calculated to be used as the idx'th txin
// sigscript for tx. subScript is the PkScript of the previous output being used
// as the idx'th input. privKey is serialized in either a compressed or
// uncompressed format based on compress. This format must match the same format
// used to generate the payment address, or the script validation will fail.
func SignatureScript(tx *wire.MsgTx, idx int, subScript []byte,
	hashType params.SigHashType, privKey *btcec.PrivateKey, compress bool,
	amt int64) ([]byte, er.R) {

	sig, err := RawTxInSignature(tx, idx, subScript, hashType, privKey, amt)
	if err != nil {
		return nil, err
	}

	pk := (*btcec.PublicKey)(&privKey.PublicKey)
	var pkData []byte
	if compress {
		pkData = pk.SerializeCompressed()
	} else {
		pkData = pk.SerializeUncompressed()
	}

	return NewScriptBuilder().AddData(sig).AddData(pkData).Script()
}

func p2pkSignatureScript(tx *wire.MsgTx, idx int, subScript []byte,
	hashType params.SigHashType, privKey *btcec.PrivateKey, amt int64) ([]byte, er.R) {

	sig, err := RawTxInSignature(tx, idx, subScript, hashType, privKey, amt)
	if err != nil {
		return nil, err
	}

	return NewScriptBuilder().AddData(sig).Script()
}

// signMultiSig signs as many of the outputs in the provided multisig script as
// possible. It returns the generated script and a boolean if the script
// fulfils the contract (i.e. nrequired signatures are provided).  Since it is
// arguably legal to not be able to sign any of the outputs, no error is
// returned.
func signMultiSig(tx *wire.MsgTx, idx int, subScript []byte,
	hashType params.SigHashType, pubKeys [][]byte, nRequired int,
	kdb KeyDB, amt int64) ([]byte, bool) {

	// We start with a single OP_FALSE to work around the (now standard)
	// but in the reference implementation that causes a spurious pop at
	// the end of OP_CHECKMULTISIG.
	builder := NewScriptBuilder().AddOp(opcode.OP_0)
	signed := 0
	for _, pubKey := range pubKeys {
		key, _, err := kdb.GetKey(cashutil.Hash160(pubKey))
		if err != nil {
			continue
		}
		sig, err := RawTxInSignature(tx, idx, subScript, hashType, key, amt)
		if err != nil {
			continue
		}

		builder.AddData(sig)
		signed++
		if signed == nRequired {
			break
		}
	}

	script, _ := builder.Script()
	return script, signed == nRequired
}

func sign(chainParams *chaincfg.Params, tx *wire.MsgTx, idx int,
	subScript []byte, hashType params.SigHashType, kdb KeyDB, sdb ScriptDB,
	amt int64) ([]byte, ScriptClass, er.R) {

	pops, err := parsescript.ParseScript(subScript)
	if err != nil {
		return nil, NonStandardTy, err
	}
	class := typeOfScript(pops)

	switch class {
	case PubKeyTy:
		// look up key for pubkey
		pubKey := pops[0].Data
		key, _, err := kdb.GetKey(cashutil.Hash160(pubKey))
		if err != nil {
			return nil, class, err
		}

		script, err := p2pkSignatureScript(tx, idx, subScript, hashType,
			key, amt)
		if err != nil {
			return nil, class, err
		}

		return script, class, nil

	case PubKeyHashTy:
		// look up key for the pushed pubkey hash
		key, compressed, err := kdb.GetKey(pops[2].Data)
		if err != nil {
			return nil, class, err
		}

		script, err := SignatureScript(tx, idx, subScript, hashType,
			key, compressed, amt)
		if err != nil {
			return nil, class, err
		}

		return script, class, nil

	case ScriptHashTy:
		script, err := sdb.GetScript(pops[1].Data)
		if err != nil {
			return nil, class, err
		}

		return script, class, nil

	case MultiSigTy:
		pubKeys := make([][]byte, 0, len(pops)-3)
		for _, pop := range pops[1 : len(pops)-2] {
			pubKeys = append(pubKeys, pop.Data)
		}
		nRequired := asSmallInt(pops[0].Opcode)

		script, _ := signMultiSig(tx, idx, subScript, hashType,
			pubKeys, nRequired, kdb, amt)
		return script, class, nil

	case NullDataTy:
		return nil, class, er.New("can't sign NULLDATA transactions")

	default:
		return nil, class, er.New("can't sign unknown transactions")
	}
}

// mergeScripts merges sigScript and prevScript assuming they are both
// partial solutions for pkScript spending output idx of tx. class, and
// nrequired are the result of extracting the addresses from pkscript.
// The return value is the best effort merging of the two scripts. Calling this
// function with addresses, class and nrequired that do not match pkScript is
// an error and results in undefined behaviour.
func mergeScripts(chainParams *chaincfg.Params, tx *wire.MsgTx, idx int,
	pkScript []byte, class ScriptClass, sigScript, prevScript []byte,
	amt int64) ([]byte, er.R) {

	// TODO: the scripthash and multisig paths here are overly
	// inefficient in that they will recompute already known data.
	// some internal refactoring could probably make this avoid needless
	// extra calculations.
	switch class {
	case ScriptHashTy:
		// Remove the last push in the script and then recurse.
		// this could be a lot less inefficient.
		sigPops, err := parsescript.ParseScript(sigScript)
		if err != nil || len(sigPops) == 0 {
			return prevScript, nil
		}
		prevPops, err := parsescript.ParseScript(prevScript)
		if err != nil || len(prevPops) == 0 {
			return sigScript, nil
		}

		// assume that script in sigPops is the correct one, we just
		// made it.
		script := sigPops[len(sigPops)-1].Data

		// We already know this information somewhere up the stack.
		shPops, err := parsescript.ParseScript(script)
		if err != nil {
			return nil, err
		}
		class := typeOfScript(shPops)

		// regenerate scripts.
		sigScript, _ := unparseScript(sigPops)
		prevScript, _ := unparseScript(prevPops)

		// Merge
		mergedScript, err := mergeScripts(chainParams, tx, idx, script,
			class, sigScript, prevScript, amt)
		if err != nil {
			return nil, err
		}

		// Reappend the script and return the result.
		builder := NewScriptBuilder()
		builder.AddOps(mergedScript)
		builder.AddData(script)
		return builder.Script()

	// It doesn't actually make sense to merge anything other than multiig
	// and scripthash (because it could contain multisig). Everything else
	// has either zero signature, can't be spent, or is a single signature
	// which is either present or not. The other two cases are handled
	// above. In the conflict case here we just assume the longest is
	// correct (this matches behaviour of the reference implementation).
	default:
		if len(sigScript) > len(prevScript) {
			return sigScript, nil
		}
		return prevScript, nil

	case MultiSigTy:
		return mergeMultiSig(tx, idx, pkScript, sigScript, prevScript,
			amt)
	}
}

// mergeMultiSig combines the two signature scripts sigScript and prevScript
// that both provide signatures for pkScript in output idx of tx. Since this
// function is internal only we assume that the arguments have come from other
// functions internally and thus are all consistent with each other, behaviour
// is undefined if this contract is broken.
func mergeMultiSig(tx *wire.MsgTx, idx int, pkScript, sigScript,
	prevScript []byte, amt int64) ([]byte, er.R) {

	pkPops, err := parsescript.ParseScript(pkScript)
	if err != nil {
		return nil, err
	}

	sigPops, err := parsescript.ParseScript(sigScript)
	if err != nil || len(sigPops) == 0 {
		return prevScript, nil
	}

	prevPops, err := parsescript.ParseScript(prevScript)
	if err != nil || len(prevPops) == 0 {
		return sigScript, nil
	}

	pubKeys := make([][]byte, 0, len(pkPops)-3)
	for _, pop := range pkPops[1 : len(pkPops)-2] {
		pubKeys = append(pubKeys, pop.Data)
	}
	nRequired := asSmallInt(pkPops[0].Opcode)

	// Convenience function to avoid duplication.
	extractSigs := func(pops []parsescript.ParsedOpcode, sigs [][]byte) [][]byte {
		for _, pop := range pops {
			if len(pop.Data) != 0 {
				sigs = append(sigs, pop.Data)
			}
		}
		return sigs
	}

	possibleSigs := make([][]byte, 0, len(sigPops)+len(prevPops))
	possibleSigs = extractSigs(sigPops, possibleSigs)
	possibleSigs = extractSigs(prevPops, possibleSigs)

	// Now we need to match the signatures to pubkeys, the only real way to
	// do that is to try to verify them all and match it to the pubkey
	// that verifies it. we then can go through the pubkeys in order
	// to build our script. Anything that doesn't parse or doesn't verify we
	// throw away.
	sigsByPubKey := make(map[string][]byte)
sigLoop:
	for _, sig := range possibleSigs {

		// can't have a valid signature that doesn't at least have a
		// hashtype, in practise it is even longer than this. But
		// that'll be checked next.
		if len(sig) < 1 {
			continue
		}
		tSig := sig[:len(sig)-1]
		sigHashType := params.SigHashType(sig[len(sig)-1])

		pSig, errr := btcec.ParseDERSignature(tSig, btcec.S256())
		if errr != nil {
			continue
		}

		// We have to do this each round since hash types may vary
		// between signatures and so the hash will vary. We can,
		// however, assume no sigs etc are in the script since that
		// would make the transaction nonstandard and thus not
		// MultiSigTy, so we just need to hash the full thing.
		var hash []byte
		if sigHashType.HasForkID() {
			sigHashes := NewTxSigHashes(tx)
			hash, err = CalcSignatureHashForkID(pkScript, sigHashes,
				sigHashType, tx, idx, amt)
			if err != nil {
				continue
			}
		} else {
			hash, _ = CalcSignatureHash(pkScript, sigHashType, tx, idx)
		}

		for _, pubKey := range pubKeys {
			pkey, errr := btcec.ParsePubKey(pubKey, btcec.S256())
			if errr != nil {
				continue
			}

			// If it matches we put it in the map. We only
			// can take one signature per public key so if we
			// already have one then we skip it.
			if _, ok := sigsByPubKey[string(pubKey)]; !ok &&
				pSig.Verify(hash, pkey) {

				sigsByPubKey[string(pubKey)] = sig
				continue sigLoop
			}
		}
	}

	// Extra opcode to handle the extra arg consumed (due to previous bugs
	// in the reference implementation).
	builder := NewScriptBuilder().AddOp(opcode.OP_0)
	doneSigs := 0
	// This assumes that pubkeys are in the same order in the script as
	// they appear in the multisig script; anything else has bigger
	// problems anyway.
	for _, pubKey := range pubKeys {
		sig, ok := sigsByPubKey[string(pubKey)]
		if !ok {
			continue
		}
		builder.AddData(sig)
		doneSigs++
		if doneSigs == nRequired {
			break
		}
	}

	// padding for missing ones.
	for i := doneSigs; i < nRequired; i++ {
		builder.AddOp(opcode.OP_0)
	}

	return builder.Script()
}

// KeyDB is an interface type provided to SignTxOutput, it encapsulates any
// user state required to get the private keys for a 20-byte pubkey hash.
type KeyDB interface {
	GetKey(hash []byte) (*btcec.PrivateKey, bool, er.R)
}

// KeyClosure implements KeyDB with a closure.
type KeyClosure func(hash []byte) (*btcec.PrivateKey, bool, er.R)

// GetKey implements KeyDB by returning the result of calling the closure.
func (kc KeyClosure) GetKey(hash []byte) (*btcec.PrivateKey, bool, er.R) {
	return kc(hash)
}

// ScriptDB is an interface type provided to SignTxOutput, it encapsulates any
// user state required to get a script for a 20-byte script hash.
type ScriptDB interface {
	GetScript(scriptHash []byte) ([]byte, er.R)
}

// ScriptClosure implements ScriptDB with a closure.
type ScriptClosure func(scriptHash []byte) ([]byte, er.R)

// GetScript implements ScriptDB by returning the result of calling the
// closure.
func (sc ScriptClosure) GetScript(scriptHash []byte) ([]byte, er.R) {
	return sc(scriptHash)
}

// SignTxOutput signs output idx of the given tx to resolve the script given in
// pkScript with a signature type of hashType. Any keys required will be looked
// up by calling getKey() with the pubkey hash of the requested key and any
// pay-to-script-hash scripts will be looked up by calling getScript() with the
// script hash. If previousScript is provided then the results in previousScript
// will be merged in a type-dependent manner with the newly generated
// signature script.  amt is the value of the output being spent, which the
// digests of fork id hash types commit to.
func SignTxOutput(chainParams *chaincfg.Params, tx *wire.MsgTx, idx int,
	pkScript []byte, hashType params.SigHashType, kdb KeyDB, sdb ScriptDB,
	previousScript []byte, amt int64) ([]byte, er.R) {

	sigScript, class, err := sign(chainParams, tx, idx, pkScript,
		hashType, kdb, sdb, amt)
	if err != nil {
		return nil, err
	}

	if class == ScriptHashTy {
		// TODO keep the sub addressed and pass down to merge.
		realSigScript, _, err := sign(chainParams, tx, idx, sigScript,
			hashType, kdb, sdb, amt)
		if err != nil {
			return nil, err
		}

		// Append the p2sh script as the last push in the script.
		builder := NewScriptBuilder()
		builder.AddOps(realSigScript)
		builder.AddData(sigScript)

		sigScript, _ = builder.Script()
		// TODO keep a copy of the script for merging.
	}

	// Merge scripts. with any previous data, if any.
	return mergeScripts(chainParams, tx, idx, pkScript, class, sigScript,
		previousScript, amt)
}

// CombineSignatureScripts merges two partial signature scripts for output idx
// of tx spending pkScript without producing any new signatures. For multisig
// outputs each signature found in either script is verified against the
// public keys in the output before being included, so combining scripts
// produced by independent signers yields a script carrying the union of their
// valid signatures. amt is the value of the output being spent.
func CombineSignatureScripts(chainParams *chaincfg.Params, tx *wire.MsgTx,
	idx int, pkScript []byte, sigScript, prevScript []byte,
	amt int64) ([]byte, er.R) {

	pops, err := parsescript.ParseScript(pkScript)
	if err != nil {
		return nil, err
	}
	class := typeOfScript(pops)
	return mergeScripts(chainParams, tx, idx, pkScript, class, sigScript,
		prevScript, amt)
}
