//go:build linux

/* SPDX-License-Identifier: MIT
 *
 * Copyright (C) 2017-2019 WireGuard LLC. All Rights Reserved.
 *
 * This implements "sticky sockets" in the sense that the kernel's
 * implementation does: when the routing table changes in a way that
 * could affect which interface/source address a peer's outbound packets
 * would leave from, cached per-peer source addresses are invalidated so
 * the next send re-resolves the route.
 */

package device

import (
	"golang.org/x/sys/unix"

	"github.com/nullvector/wireguard-peerserver/conn"
	"github.com/nullvector/wireguard-peerserver/rwcancel"
)

func (device *Device) startRouteListener(bind conn.Bind) (*rwcancel.RWCancel, error) {
	sock, err := unix.Socket(unix.AF_NETLINK, unix.SOCK_RAW, unix.NETLINK_ROUTE)
	if err != nil {
		return nil, err
	}

	saddr := &unix.SockaddrNetlink{
		Family: unix.AF_NETLINK,
		Groups: uint32(1<<(unix.RTNLGRP_IPV4_ROUTE-1)) | uint32(1<<(unix.RTNLGRP_IPV6_ROUTE-1)),
	}
	if err := unix.Bind(sock, saddr); err != nil {
		unix.Close(sock)
		return nil, err
	}

	netlinkCancel, err := rwcancel.NewRWCancel(sock)
	if err != nil {
		unix.Close(sock)
		return nil, err
	}

	go device.routineRouteListener(sock, netlinkCancel)

	return netlinkCancel, nil
}

func (device *Device) routineRouteListener(sock int, netlinkCancel *rwcancel.RWCancel) {
	defer unix.Close(sock)

	buf := make([]byte, 1<<16)
	for {
		if err := netlinkCancel.ReadyRead(); err != nil {
			return
		}
		_, _, err := unix.Recvfrom(sock, buf, 0)
		if err != nil {
			return
		}

		device.peers.RLock()
		for _, peer := range device.peers.keyMap {
			peer.Lock()
			if peer.endpoint != nil {
				peer.endpoint.ClearSrc()
			}
			peer.Unlock()
		}
		device.peers.RUnlock()
	}
}
