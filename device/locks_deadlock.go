/* SPDX-License-Identifier: MIT
 *
 * Copyright (C) 2017-2020 WireGuard LLC. All Rights Reserved.
 */

//go:build deadlock

package device

import "github.com/sasha-s/go-deadlock"

// Built with -tags deadlock, RWMutex and Mutex record lock acquisition
// order and report (rather than hang on) lock-order inversions. Useful
// when chasing a suspected deadlock between the server loop and the
// UAPI or routing-table readers; too expensive to leave on by default.
type RWMutex = deadlock.RWMutex
type Mutex = deadlock.Mutex
