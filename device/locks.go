/* SPDX-License-Identifier: MIT
 *
 * Copyright (C) 2017-2020 WireGuard LLC. All Rights Reserved.
 */

//go:build !deadlock

package device

import "sync"

// RWMutex and Mutex are the lock types used throughout device for
// Peer/Device state. Building with -tags deadlock swaps these for
// github.com/sasha-s/go-deadlock's lock-order-checking equivalents;
// this file is the default, zero-overhead build.
type RWMutex = sync.RWMutex
type Mutex = sync.Mutex
