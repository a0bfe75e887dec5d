/* SPDX-License-Identifier: MIT
 *
 * Copyright (C) 2017-2025 WireGuard LLC. All Rights Reserved.
 */

package main

import (
	"fmt"
	"os"
)

// daemonize re-execs the current binary with envForeground set, detaches
// from the caller's stdio, and returns to the caller without blocking.
func daemonize() error {
	path, err := os.Executable()
	if err != nil {
		return err
	}

	devNull, err := os.OpenFile(os.DevNull, os.O_RDWR, 0)
	if err != nil {
		return err
	}
	defer devNull.Close()

	env := append(os.Environ(), fmt.Sprintf("%s=1", envForeground))
	process, err := os.StartProcess(path, os.Args, &os.ProcAttr{
		Files: []*os.File{devNull, devNull, devNull},
		Dir:   ".",
		Env:   env,
	})
	if err != nil {
		return err
	}
	return process.Release()
}
