/* SPDX-License-Identifier: MIT
 *
 * Copyright (C) 2017-2019 WireGuard LLC. All Rights Reserved.
 */

package device

import (
	"time"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/nullvector/wireguard-peerserver/replay"
)

type Keypair struct {
	sendNonce    uint64
	send         cipher
	receive      cipher
	replayFilter replay.ReplayFilter
	isInitiator  bool
	created      time.Time
	localIndex   uint32
	remoteIndex  uint32
}

// cipher is the minimal surface of chacha20poly1305.AEAD that the transport
// pipeline exercises; it lets tests substitute a fake cipher.
type cipher interface {
	Seal(dst, nonce, plaintext, additionalData []byte) []byte
	Open(dst, nonce, ciphertext, additionalData []byte) ([]byte, error)
}

var _ cipher = (chacha20poly1305.AEAD)(nil)

// Keypairs holds the three-slot session ring: the keypair currently used
// for sending and receiving, the previous one (kept briefly so
// late-arriving packets still decrypt) and the next one (derived as a
// responder, awaiting confirmation via a received data packet before it
// is promoted to current).
type Keypairs struct {
	RWMutex
	current  *Keypair
	previous *Keypair
	next     *Keypair
}

func (kp *Keypairs) Current() *Keypair {
	kp.RLock()
	defer kp.RUnlock()
	return kp.current
}

func (kp *Keypairs) loadNext() *Keypair {
	return kp.next
}

func (kp *Keypairs) storeNext(k *Keypair) {
	kp.next = k
}

// DeleteKeypair retires a keypair's index-table entry. Safe to call with nil.
func (device *Device) DeleteKeypair(key *Keypair) {
	if key != nil {
		device.indexTable.Delete(key.localIndex)
	}
}
