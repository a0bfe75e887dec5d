/* SPDX-License-Identifier: MIT
 *
 * Copyright (C) 2017-2021 WireGuard LLC. All Rights Reserved.
 */

// Package rwcancel lets a blocking read on a file descriptor be cancelled
// from another goroutine, by polling the fd alongside one end of a pipe
// and closing the other end to wake the poll.
package rwcancel

import (
	"errors"

	"golang.org/x/sys/unix"
)

type RWCancel struct {
	fd                     int
	closingReader          *int
	closingWriter          *int
}

func NewRWCancel(fd int) (*RWCancel, error) {
	closingReader, closingWriter, err := newPipe()
	if err != nil {
		return nil, err
	}
	return &RWCancel{
		fd:            fd,
		closingReader: &closingReader,
		closingWriter: &closingWriter,
	}, nil
}

func newPipe() (int, int, error) {
	var p [2]int
	if err := unix.Pipe(p[:]); err != nil {
		return -1, -1, err
	}
	return p[0], p[1], nil
}

// ReadyRead blocks until the underlying fd is readable, Cancel is
// called, or an error occurs.
func (rw *RWCancel) ReadyRead() error {
	fds := []unix.PollFd{
		{Fd: int32(rw.fd), Events: unix.POLLIN},
		{Fd: int32(*rw.closingReader), Events: unix.POLLIN},
	}

	for {
		n, err := poll(fds, -1)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return err
		}
		if n == 0 {
			return errors.New("no descriptors became ready")
		}
		if fds[1].Revents != 0 {
			return errors.New("cancelled")
		}
		if fds[0].Revents != 0 {
			return nil
		}
	}
}

func (rw *RWCancel) Cancel() (err error) {
	_, err = unix.Write(*rw.closingWriter, []byte{0})
	return
}

func (rw *RWCancel) Close() {
	unix.Close(*rw.closingReader)
	unix.Close(*rw.closingWriter)
}
