//go:build linux

/* SPDX-License-Identifier: MIT
 *
 * Copyright (C) 2017-2021 WireGuard LLC. All Rights Reserved.
 */

package tun

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"
)

const (
	cloneDevicePath = "/dev/net/tun"
	ifReqSize       = unix.IFNAMSIZ + 64
)

// NativeTun is the default Linux implementation of Device, backed by the
// kernel's /dev/net/tun driver.
type NativeTun struct {
	fd     *os.File
	name   string
	events chan Event
	mu     sync.Mutex
	mtu    int
	closed bool
}

// CreateTUN opens or creates a Linux TUN device named name (or lets the
// kernel pick a name if name is empty) with the given MTU.
func CreateTUN(name string, mtu int) (Device, error) {
	fd, err := unix.Open(cloneDevicePath, unix.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", cloneDevicePath, err)
	}

	var ifr [ifReqSize]byte
	copy(ifr[:unix.IFNAMSIZ], name)
	*(*uint16)(unsafe.Pointer(&ifr[unix.IFNAMSIZ])) = unix.IFF_TUN | unix.IFF_NO_PI

	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), uintptr(unix.TUNSETIFF), uintptr(unsafe.Pointer(&ifr[0])))
	if errno != 0 {
		unix.Close(fd)
		return nil, fmt.Errorf("TUNSETIFF: %w", errno)
	}

	realName := unix.ByteSliceToString(ifr[:unix.IFNAMSIZ])

	t := &NativeTun{
		fd:     os.NewFile(uintptr(fd), cloneDevicePath),
		name:   realName,
		events: make(chan Event, 10),
		mtu:    mtu,
	}
	return t, nil
}

func (t *NativeTun) Read(buf []byte, offset int) (int, error) {
	return t.fd.Read(buf[offset:])
}

func (t *NativeTun) Write(buf []byte, offset int) (int, error) {
	return t.fd.Write(buf[offset:])
}

func (t *NativeTun) Flush() error {
	return nil
}

func (t *NativeTun) MTU() (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.mtu, nil
}

func (t *NativeTun) Name() (string, error) {
	return t.name, nil
}

func (t *NativeTun) Events() chan Event {
	return t.events
}

func (t *NativeTun) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return errors.New("already closed")
	}
	t.closed = true
	t.mu.Unlock()
	close(t.events)
	return t.fd.Close()
}
