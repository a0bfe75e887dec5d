/* SPDX-License-Identifier: MIT
 *
 * Copyright (C) 2017-2019 WireGuard LLC. All Rights Reserved.
 */

package device

import "sync/atomic"

const (
	AtomicFalse = int32(0)
	AtomicTrue  = int32(1)
)

// AtomicBool is a small wrapper so structs can embed a lock-free flag
// without sprinkling atomic.Int32 conversions through the call sites.
type AtomicBool struct {
	flag int32
}

func (a *AtomicBool) Get() bool {
	return atomic.LoadInt32(&a.flag) == AtomicTrue
}

func (a *AtomicBool) Set(val bool) {
	if val {
		atomic.StoreInt32(&a.flag, AtomicTrue)
	} else {
		atomic.StoreInt32(&a.flag, AtomicFalse)
	}
}

func (a *AtomicBool) Swap(val bool) bool {
	var new int32
	if val {
		new = AtomicTrue
	} else {
		new = AtomicFalse
	}
	return atomic.SwapInt32(&a.flag, new) == AtomicTrue
}
