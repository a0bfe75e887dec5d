/* SPDX-License-Identifier: MIT
 *
 * Copyright (C) 2017-2025 WireGuard LLC. All Rights Reserved.
 */

package main

import (
	"bufio"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/nullvector/wireguard-peerserver/device"
	"github.com/nullvector/wireguard-peerserver/flags"
	"github.com/nullvector/wireguard-peerserver/ipc"
	"github.com/nullvector/wireguard-peerserver/tun"
	"github.com/nullvector/wireguard-peerserver/wgcfg"
)

const (
	exitSetupSuccess = 0
	exitSetupFailed  = 1
)

// envForeground marks a re-exec'd child so it doesn't daemonize again.
const envForeground = "WGPS_PROCESS_FOREGROUND"

// Version is overwritten at release build time via -ldflags.
var Version = "dev"

func main() {
	opts := flags.NewOptions()
	if err := flags.Parse(opts); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitSetupFailed)
	}

	if opts.ShowVersion {
		fmt.Printf("wireguard-peerserver v%s\n", Version)
		return
	}

	foreground := opts.Foreground || os.Getenv(envForeground) == "1"
	if !foreground {
		if err := daemonize(); err != nil {
			fmt.Fprintln(os.Stderr, "Failed to daemonize:", err)
			os.Exit(exitSetupFailed)
		}
		return
	}

	logger := device.NewLogger(device.LogLevelInfo, fmt.Sprintf("(%s) ", opts.InterfaceName))
	logger.Info.Println("Starting wireguard-peerserver", Version)

	tunDevice, err := tun.CreateTUN(opts.InterfaceName, opts.MTU)
	if err != nil {
		logger.Error.Println("Failed to create TUN device:", err)
		os.Exit(exitSetupFailed)
	}

	dev := device.NewDevice(tunDevice, logger)
	defer dev.Close()

	if opts.ConfigFile != "" {
		if err := loadConfigFile(dev, opts.ConfigFile, opts.InterfaceName); err != nil {
			logger.Error.Println("Failed to apply configuration file:", err)
			os.Exit(exitSetupFailed)
		}
	}
	dev.Up()

	fileUAPI, err := ipc.UAPIOpen(opts.InterfaceName)
	if err != nil {
		logger.Error.Println("UAPI listen error:", err)
		os.Exit(exitSetupFailed)
	}

	uapiListener, err := net.FileListener(fileUAPI)
	if err != nil {
		logger.Error.Println("Failed to wrap UAPI socket:", err)
		os.Exit(exitSetupFailed)
	}
	defer uapiListener.Close()

	errs := make(chan error, 1)
	go func() {
		for {
			conn, err := uapiListener.Accept()
			if err != nil {
				errs <- err
				return
			}
			go dev.IpcHandle(conn)
		}
	}()
	logger.Info.Println("UAPI listener started")

	term := make(chan os.Signal, 1)
	signal.Notify(term, syscall.SIGTERM, os.Interrupt)

	select {
	case <-term:
	case <-errs:
	case <-dev.Wait():
	}

	logger.Info.Println("Shutting down")
}

// loadConfigFile parses a wg-quick style document and applies it to dev
// through the same UAPI set-operation path a runtime `wg setconf` would use.
func loadConfigFile(dev *device.Device, path, interfaceName string) error {
	body, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	conf, err := wgcfg.FromWgQuick(string(body), interfaceName)
	if err != nil {
		return err
	}

	uapiConf, err := conf.ToUAPI()
	if err != nil {
		return err
	}

	return dev.IpcSetOperation(bufio.NewReader(strings.NewReader(uapiConf)))
}
