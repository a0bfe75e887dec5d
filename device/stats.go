/* SPDX-License-Identifier: MIT
 *
 * Copyright (C) 2017-2020 WireGuard LLC. All Rights Reserved.
 */

package device

import (
	"sync/atomic"
	"time"
)

// PeerStats are connection statistics for a given Peer.
type PeerStats struct {
	RxBytes                uint64
	TxBytes                uint64
	LastHandshakeInitiated time.Time
}

func peerStatsLocked(peer *Peer) PeerStats {
	return PeerStats{
		RxBytes:                atomic.LoadUint64(&peer.stats.rxBytes),
		TxBytes:                atomic.LoadUint64(&peer.stats.txBytes),
		LastHandshakeInitiated: time.Unix(0, atomic.LoadInt64(&peer.stats.lastHandshakeNano)),
	}
}

// PeerStats returns statistics for the peer with public key pk,
// and reports whether the peer lookup succeeded.
func (device *Device) PeerStats(pk NoisePublicKey) (stats PeerStats, ok bool) {
	device.peers.RLock()
	peer := device.peers.keyMap[pk]
	device.peers.RUnlock()

	if peer == nil {
		return PeerStats{}, false
	}

	peer.RLock()
	defer peer.RUnlock()
	return peerStatsLocked(peer), true
}

// AllPeerStats snapshots statistics for every configured peer, keyed by
// public key. Intended for monitoring integrations that want a single
// structured call instead of parsing the Control Interface's get=1
// line protocol.
func (device *Device) AllPeerStats() map[NoisePublicKey]PeerStats {
	device.peers.RLock()
	defer device.peers.RUnlock()

	out := make(map[NoisePublicKey]PeerStats, len(device.peers.keyMap))
	for pk, peer := range device.peers.keyMap {
		peer.RLock()
		out[pk] = peerStatsLocked(peer)
		peer.RUnlock()
	}
	return out
}
