/* SPDX-License-Identifier: MIT
 *
 * Copyright (C) 2017-2019 WireGuard LLC. All Rights Reserved.
 */

package device

import "sync"

// elementPool recycles *T values so the hot packet path doesn't churn
// the allocator. With PreallocatedBuffersPerPool == 0 it falls back to
// a sync.Pool (unbounded, GC-reclaimable); otherwise it hands out a
// fixed number of values up front through a buffered channel, which
// blocks a Get rather than growing further once all of them are
// checked out.
type elementPool[T any] struct {
	pool      *sync.Pool
	reuseChan chan *T
}

func newElementPool[T any](new func() *T) *elementPool[T] {
	p := &elementPool[T]{}
	if PreallocatedBuffersPerPool == 0 {
		p.pool = &sync.Pool{
			New: func() interface{} { return new() },
		}
		return p
	}
	p.reuseChan = make(chan *T, PreallocatedBuffersPerPool)
	for i := 0; i < PreallocatedBuffersPerPool; i++ {
		p.reuseChan <- new()
	}
	return p
}

func (p *elementPool[T]) Get() *T {
	if p.pool != nil {
		return p.pool.Get().(*T)
	}
	return <-p.reuseChan
}

func (p *elementPool[T]) Put(v *T) {
	if p.pool != nil {
		p.pool.Put(v)
		return
	}
	p.reuseChan <- v
}

func (device *Device) PopulatePools() {
	device.pool.messageBuffers = newElementPool(func() *[MaxMessageSize]byte {
		return new([MaxMessageSize]byte)
	})
	device.pool.inboundElements = newElementPool(func() *QueueInboundElement {
		return new(QueueInboundElement)
	})
	device.pool.outboundElements = newElementPool(func() *QueueOutboundElement {
		return new(QueueOutboundElement)
	})
}

func (device *Device) GetMessageBuffer() *[MaxMessageSize]byte {
	return device.pool.messageBuffers.Get()
}

func (device *Device) PutMessageBuffer(msg *[MaxMessageSize]byte) {
	device.pool.messageBuffers.Put(msg)
}

func (device *Device) GetInboundElement() *QueueInboundElement {
	return device.pool.inboundElements.Get()
}

func (device *Device) PutInboundElement(msg *QueueInboundElement) {
	device.pool.inboundElements.Put(msg)
}

func (device *Device) GetOutboundElement() *QueueOutboundElement {
	return device.pool.outboundElements.Get()
}

func (device *Device) PutOutboundElement(msg *QueueOutboundElement) {
	device.pool.outboundElements.Put(msg)
}
