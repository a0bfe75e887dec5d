/* SPDX-License-Identifier: MIT
 *
 * Copyright (C) 2017-2019 WireGuard LLC. All Rights Reserved.
 */

package device

/* Implementation of the WireGuard timer family described in the timer
 * state machine: retransmitting an unanswered handshake initiation,
 * rekeying before REJECT_AFTER_TIME expires a session, sending
 * keepalives to hide metadata, and zeroing stale key material.
 */

import (
	"math/rand"
	"sync/atomic"
	"time"
)

// Timer wraps time.Timer with the Reset/Stop semantics the peer timer
// callbacks expect: resetting an idle timer restarts it, and stopping an
// already-fired timer is always safe.
type Timer struct {
	*time.Timer
}

func (peer *Peer) NewTimer(expirationFunction func(*Peer)) *Timer {
	timer := &Timer{
		Timer: time.AfterFunc(time.Hour, func() {
			expirationFunction(peer)
		}),
	}
	timer.Stop()
	return timer
}

// Mod reschedules the timer to fire after d, returning whether it was
// still pending (as opposed to already fired or freshly created).
func (timer *Timer) Mod(d time.Duration) bool {
	return timer.Reset(d)
}

func expiredRetransmitHandshake(peer *Peer) {
	if atomic.LoadUint32(&peer.timers.handshakeAttempts) > MaxTimerHandshakes {
		peer.device.log.Debug.Println(
			peer, "- Handshake did not complete after", MaxTimerHandshakes+2, "attempts, giving up",
		)
		peer.timersHandshakeComplete()
		peer.ZeroAndFlushAll()
		return
	}

	atomic.AddUint32(&peer.timers.handshakeAttempts, 1)
	peer.device.log.Debug.Println(peer, "- Handshake did not complete after", RekeyTimeout, ", retrying")
	peer.ExpireCurrentKeypairs()
	peer.SendHandshakeInitiation(true)
}

func expiredSendKeepalive(peer *Peer) {
	peer.SendKeepalive()
	if peer.timers.needAnotherKeepalive.Get() {
		peer.timers.needAnotherKeepalive.Set(false)
		peer.timers.sendKeepalive.Mod(KeepaliveTimeout)
	}
}

func expiredNewHandshake(peer *Peer) {
	peer.device.log.Debug.Println(
		peer, "- Retrying handshake because we stopped hearing back after", RekeyTimeout+RekeyAttemptTime,
	)
	peer.ExpireCurrentKeypairs()
	peer.SendHandshakeInitiation(false)
}

func expiredZeroKeyMaterial(peer *Peer) {
	peer.device.log.Debug.Println(peer, "- Removing all keys, since we haven't received a new one in", RejectAfterTime*3)
	peer.ZeroAndFlushAll()
}

func expiredPersistentKeepalive(peer *Peer) {
	if peer.persistentKeepaliveInterval == 0 {
		return
	}
	peer.SendKeepalive()
}

func (peer *Peer) timersInit() {
	peer.timers.retransmitHandshake = peer.NewTimer(expiredRetransmitHandshake)
	peer.timers.sendKeepalive = peer.NewTimer(expiredSendKeepalive)
	peer.timers.newHandshake = peer.NewTimer(expiredNewHandshake)
	peer.timers.zeroKeyMaterial = peer.NewTimer(expiredZeroKeyMaterial)
	peer.timers.persistentKeepalive = peer.NewTimer(expiredPersistentKeepalive)
	atomic.StoreUint32(&peer.timers.handshakeAttempts, 0)
	peer.timers.needAnotherKeepalive.Set(false)
	peer.timers.sentLastMinuteHandshake.Set(false)
}

func (peer *Peer) timersStop() {
	peer.timers.retransmitHandshake.Stop()
	peer.timers.sendKeepalive.Stop()
	peer.timers.newHandshake.Stop()
	peer.timers.zeroKeyMaterial.Stop()
	peer.timers.persistentKeepalive.Stop()
}

// timersAnyAuthenticatedPacketTraversal is called whenever any
// authenticated packet (handshake or transport) crosses the wire in
// either direction; when a persistent keepalive interval is configured it
// re-arms the persistent keepalive timer for that interval plus up to one
// second of jitter.
func (peer *Peer) timersAnyAuthenticatedPacketTraversal() {
	if peer.persistentKeepaliveInterval > 0 {
		jitter := time.Duration(rand.Int63n(int64(time.Second)))
		peer.timers.persistentKeepalive.Mod(time.Duration(peer.persistentKeepaliveInterval)*time.Second + jitter)
	}
}

func (peer *Peer) timersAnyAuthenticatedPacketSent() {
}

func (peer *Peer) timersAnyAuthenticatedPacketReceived() {
	peer.timers.newHandshake.Stop()
}

// timersHandshakeInitiated arms the retransmit timer after we sent an
// initiation, so an unanswered handshake gets retried.
func (peer *Peer) timersHandshakeInitiated() {
	peer.timers.retransmitHandshake.Mod(RekeyTimeout + time.Duration(randTimeoutJitterMs())*time.Millisecond)
}

// timersHandshakeComplete disarms the retransmit timer and resets the
// attempt counter once a handshake resolves (or is abandoned).
func (peer *Peer) timersHandshakeComplete() {
	peer.timers.retransmitHandshake.Stop()
	atomic.StoreUint32(&peer.timers.handshakeAttempts, 0)
	peer.timers.sentLastMinuteHandshake.Set(false)
	peer.device.log.Debug.Println(peer, "- Handshake completed")
}

// timersSessionDerived arms the zero-key-material timer: a keypair that
// never gets used to exchange data is wiped after three REJECT_AFTER_TIME
// windows.
func (peer *Peer) timersSessionDerived() {
	peer.timers.zeroKeyMaterial.Mod(RejectAfterTime * 3)
}

// timersDataReceived arms the keepalive timer, so a silent peer that
// stops sending still gets a keepalive back within the passive window.
func (peer *Peer) timersDataReceived() {
	if !peer.timers.sendKeepalive.Mod(KeepaliveTimeout) {
		peer.timers.needAnotherKeepalive.Set(true)
	}
}

// timersDataSent arms the new-handshake timer: if no authenticated reply
// arrives within RekeyTimeout+RekeyAttemptTime of sending data, a fresh
// handshake is initiated.
func (peer *Peer) timersDataSent() {
	peer.timers.newHandshake.Mod(RekeyTimeout + RekeyAttemptTime)
}

// ReceivedWithKeypair promotes a still-pending "next" keypair to current
// once it is confirmed by a successfully decrypted data packet.
func (peer *Peer) ReceivedWithKeypair(receivedKeypair *Keypair) bool {
	keypairs := &peer.keypairs
	keypairs.Lock()
	defer keypairs.Unlock()

	if keypairs.next != receivedKeypair {
		return false
	}

	keypairs.previous = keypairs.current
	keypairs.current = keypairs.next
	keypairs.next = nil
	return true
}

func randTimeoutJitterMs() int64 {
	return rand.Int63n(RekeyTimeoutJitterMaxMs)
}
