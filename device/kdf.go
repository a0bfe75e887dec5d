/* SPDX-License-Identifier: MIT
 *
 * Copyright (C) 2017-2019 WireGuard LLC. All Rights Reserved.
 */

package device

import (
	"crypto/hmac"
	"hash"

	"golang.org/x/crypto/blake2s"
)

// KDF1/KDF2/KDF3 implement the HMAC-based key derivation used throughout
// the handshake (RFC 5869 style, instantiated with BLAKE2s-256 as in the
// Noise spec's HKDF construction).
func hMAC1(sum *[blake2s.Size]byte, key, in0 []byte) {
	mac := hmac.New(func() hash.Hash {
		h, _ := blake2s.New256(nil)
		return h
	}, key)
	mac.Write(in0)
	mac.Sum(sum[:0])
}

func hMAC2(sum *[blake2s.Size]byte, key, in0, in1 []byte) {
	mac := hmac.New(func() hash.Hash {
		h, _ := blake2s.New256(nil)
		return h
	}, key)
	mac.Write(in0)
	mac.Write(in1)
	mac.Sum(sum[:0])
}

func KDF1(t0 *[blake2s.Size]byte, key, input []byte) {
	hMAC1(t0, key, input)
	hMAC1(t0, t0[:], []byte{0x1})
}

func KDF2(t0, t1 *[blake2s.Size]byte, key, input []byte) {
	var prk [blake2s.Size]byte
	hMAC1(&prk, key, input)
	hMAC1(t0, prk[:], []byte{0x1})
	hMAC2(t1, prk[:], t0[:], []byte{0x2})
	setZero(prk[:])
}

func KDF3(t0, t1, t2 *[blake2s.Size]byte, key, input []byte) {
	var prk [blake2s.Size]byte
	hMAC1(&prk, key, input)
	hMAC1(t0, prk[:], []byte{0x1})
	hMAC2(t1, prk[:], t0[:], []byte{0x2})
	hMAC2(t2, prk[:], t1[:], []byte{0x3})
	setZero(prk[:])
}
