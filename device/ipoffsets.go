/* SPDX-License-Identifier: MIT
 *
 * Copyright (C) 2017-2019 WireGuard LLC. All Rights Reserved.
 */

package device

// Byte offsets into a decrypted IPv4/IPv6 header, used to recover the
// padded packet's real length and to enforce source-address routing
// against the allowed-IPs trie.
const (
	IPv4offsetTotalLength = 2
	IPv4offsetSrc         = 12
	IPv4offsetDst         = 16

	IPv6offsetPayloadLength = 4
	IPv6offsetSrc           = 8
	IPv6offsetDst           = 24
)

// UnderLoadQueueSize is the handshake-queue depth past which the device
// starts demanding mac2/cookie validation from new handshake initiators.
const UnderLoadQueueSize = QueueHandshakeSize / 8
