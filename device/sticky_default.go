//go:build !linux

package device

import (
	"github.com/nullvector/wireguard-peerserver/conn"
	"github.com/nullvector/wireguard-peerserver/rwcancel"
)

func (device *Device) startRouteListener(bind conn.Bind) (*rwcancel.RWCancel, error) {
	return nil, nil
}
