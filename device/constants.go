/* SPDX-License-Identifier: MIT
 *
 * Copyright (C) 2017-2025 WireGuard LLC. All Rights Reserved.
 */

package device

import (
	"time"

	"golang.org/x/crypto/poly1305"
)

/* Specification constants: the WireGuard timer family and wire-format
 * bounds. Values match the reference implementation exactly. */

const (
	RekeyAfterMessages      = (1 << 60)
	RejectAfterMessages     = (1 << 64) - (1 << 13) - 1
	RekeyAfterTime          = time.Second * 120
	RekeyAttemptTime        = time.Second * 90
	RekeyTimeout            = time.Second * 5
	MaxTimerHandshakes      = 90 / 5 /* RekeyAttemptTime / RekeyTimeout */
	RekeyTimeoutJitterMaxMs = 334
	RejectAfterTime         = time.Second * 180
	KeepaliveTimeout        = time.Second * 10
	CookieRefreshTime       = time.Second * 120
	HandshakeInitationRate  = time.Second / 50
	PaddingMultiple         = 16
	TimerTick               = 100 * time.Millisecond
)

const (
	MinMessageSize = MessageTransportSize // minimum size of a transport message (empty keepalive)
	MaxMessageSize = MaxSegmentSize       // maximum size of any message on the wire, from queueconstants_default.go
	MaxContentSize = MaxMessageSize - MessageTransportHeaderSize - poly1305.TagSize
)

/* Implementation constants */

const (
	UnderLoadAfterTime = time.Second // how long the device remains "under load" after detection
	MaxPeers           = 1 << 16     // maximum number of configured peers
)
