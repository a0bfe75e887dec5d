/* SPDX-License-Identifier: MIT
 *
 * Copyright (C) 2017-2025 WireGuard LLC. All Rights Reserved.
 */

package device

import (
	"crypto/rand"
)

// GeneratePrivateKey generates a new Curve25519 private key, clamped per
// https://cr.yp.to/ecdh.html.
func GeneratePrivateKey() NoisePrivateKey {
	var key NoisePrivateKey
	_, err := rand.Read(key[:])
	if err != nil {
		panic(err)
	}

	key[0] &= 248
	key[31] &= 127
	key[31] |= 64

	return key
}
