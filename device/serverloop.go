/* SPDX-License-Identifier: MIT
 *
 * Copyright (C) 2017-2019 WireGuard LLC. All Rights Reserved.
 */

package device

import (
	"bytes"
	"encoding/binary"
	"sync/atomic"

	"golang.org/x/crypto/chacha20poly1305"
)

/* The handshake, decryption, and encryption queues used to each be
 * drained by their own pool of per-CPU worker goroutines
 * (RoutineHandshake / RoutineDecryption / RoutineEncryption), so that
 * packets belonging to different peers could be processed in parallel.
 *
 * That pipeline mutates shared device/peer state (the index table, a
 * peer's handshake and keypair slots, its timers) from however many
 * goroutines happen to be scheduled at once, so every one of those
 * structures needs its own lock. RoutineServerLoop replaces the pool
 * with a single goroutine that owns all of it: at most one of these
 * queues is ever being drained at a time, in priority order
 * (handshake, then decryption, then encryption), each element carried
 * through to completion before the next is looked at. Readers
 * (RoutineReceiveIncoming, RoutineReadFromTUN) and the sequential
 * senders still run as their own goroutines and hand packets to this
 * loop exclusively through the three bounded channels already in
 * device.queue.
 */

func (device *Device) processHandshakeElement(elem QueueHandshakeElement) {
	logInfo := device.log.Info
	logError := device.log.Error
	logDebug := device.log.Debug

	defer device.PutMessageBuffer(elem.buffer)

	switch elem.msgType {

	case MessageCookieReplyType:
		var reply MessageCookieReply
		reader := bytes.NewReader(elem.packet)
		err := binary.Read(reader, binary.LittleEndian, &reply)
		if err != nil {
			logDebug.Println("Failed to decode cookie reply")
			return
		}

		entry := device.indexTable.Lookup(reply.Receiver)
		if entry.peer == nil {
			return
		}

		if peer := entry.peer; peer.isRunning.Get() {
			logDebug.Println("Receiving cookie response from ", elem.endpoint.DstToString())
			if !peer.cookieGenerator.ConsumeReply(&reply) {
				logDebug.Println("Could not decrypt invalid cookie response")
			}
		}
		return

	case MessageInitiationType, MessageResponseType:
		if !device.cookieChecker.CheckMAC1(elem.packet) {
			logDebug.Println("Received packet with invalid mac1")
			return
		}

		if device.IsUnderLoad() {
			if !device.cookieChecker.CheckMAC2(elem.packet, elem.endpoint.DstToBytes()) {
				device.SendHandshakeCookie(&elem)
				return
			}
			if !device.rate.limiter.Allow(elem.endpoint.DstIP()) {
				return
			}
		}

	default:
		logError.Println("Invalid packet ended up in the handshake queue")
		return
	}

	switch elem.msgType {
	case MessageInitiationType:
		var msg MessageInitiation
		reader := bytes.NewReader(elem.packet)
		err := binary.Read(reader, binary.LittleEndian, &msg)
		if err != nil {
			logError.Println("Failed to decode initiation message")
			return
		}

		peer := device.ConsumeMessageInitiation(&msg)
		if peer == nil {
			logInfo.Println(
				"Received invalid initiation message from",
				elem.endpoint.DstToString(),
			)
			return
		}

		peer.timersAnyAuthenticatedPacketTraversal()
		peer.timersAnyAuthenticatedPacketReceived()

		peer.SetEndpointFromPacket(elem.endpoint)

		logDebug.Println(peer, "- Received handshake initiation")
		atomic.AddUint64(&peer.stats.rxBytes, uint64(len(elem.packet)))

		peer.SendHandshakeResponse()

	case MessageResponseType:
		var msg MessageResponse
		reader := bytes.NewReader(elem.packet)
		err := binary.Read(reader, binary.LittleEndian, &msg)
		if err != nil {
			logError.Println("Failed to decode response message")
			return
		}

		peer := device.ConsumeMessageResponse(&msg)
		if peer == nil {
			logInfo.Println(
				"Received invalid response message from",
				elem.endpoint.DstToString(),
			)
			return
		}

		peer.SetEndpointFromPacket(elem.endpoint)

		logDebug.Println(peer, "- Received handshake response")
		atomic.AddUint64(&peer.stats.rxBytes, uint64(len(elem.packet)))

		peer.timersAnyAuthenticatedPacketTraversal()
		peer.timersAnyAuthenticatedPacketReceived()

		err = peer.BeginSymmetricSession()
		if err != nil {
			logError.Println(peer, "- Failed to derive keypair:", err)
			return
		}

		peer.timersSessionDerived()
		peer.timersHandshakeComplete()
		peer.SendKeepalive()
		select {
		case peer.signals.newKeypairArrived <- struct{}{}:
		default:
		}
	}
}

func (device *Device) processDecryptionElement(elem *QueueInboundElement) {
	if elem.IsDropped() {
		return
	}

	var nonce [chacha20poly1305.NonceSize]byte

	counter := elem.packet[MessageTransportOffsetCounter:MessageTransportOffsetContent]
	content := elem.packet[MessageTransportOffsetContent:]

	var err error
	elem.counter = binary.LittleEndian.Uint64(counter)
	binary.LittleEndian.PutUint64(nonce[0x4:0xc], elem.counter)
	elem.packet, err = elem.keypair.receive.Open(
		content[:0],
		nonce[:],
		content,
		nil,
	)
	if err != nil {
		elem.Drop()
		device.PutMessageBuffer(elem.buffer)
	}
	elem.Unlock()
}

func (device *Device) processEncryptionElement(elem *QueueOutboundElement) {
	if elem.IsDropped() {
		return
	}

	var nonce [chacha20poly1305.NonceSize]byte

	header := elem.buffer[:MessageTransportHeaderSize]

	fieldType := header[0:4]
	fieldReceiver := header[4:8]
	fieldNonce := header[8:16]

	binary.LittleEndian.PutUint32(fieldType, MessageTransportType)
	binary.LittleEndian.PutUint32(fieldReceiver, elem.keypair.remoteIndex)
	binary.LittleEndian.PutUint64(fieldNonce, elem.nonce)

	paddingSize := calculatePaddingSize(len(elem.packet), int(atomic.LoadInt32(&device.tun.mtu)))
	for i := 0; i < paddingSize; i++ {
		elem.packet = append(elem.packet, 0)
	}

	binary.LittleEndian.PutUint64(nonce[4:], elem.nonce)
	elem.packet = elem.keypair.send.Seal(
		header,
		nonce[:],
		elem.packet,
		nil,
	)
	elem.Unlock()
}

func (device *Device) drainCryptoQueuesOnClose() {
	for {
		select {
		case elem, ok := <-device.queue.handshake:
			if ok {
				device.PutMessageBuffer(elem.buffer)
			}
		case elem, ok := <-device.queue.decryption:
			if ok && !elem.IsDropped() {
				elem.Drop()
				device.PutMessageBuffer(elem.buffer)
				elem.Unlock()
			}
		case elem, ok := <-device.queue.encryption:
			if ok && !elem.IsDropped() {
				elem.Drop()
				device.PutMessageBuffer(elem.buffer)
				elem.Unlock()
			}
		default:
			return
		}
	}
}

// RoutineServerLoop is the single owner of the device's handshake state,
// index table, and per-peer keypair slots. It drains the three core
// queues to completion one element at a time, in priority order, so
// that no two elements are ever being processed concurrently.
func (device *Device) RoutineServerLoop() {
	logDebug := device.log.Debug

	defer func() {
		device.drainCryptoQueuesOnClose()
		logDebug.Println("Routine: server loop - stopped")
		device.state.stopping.Done()
	}()

	logDebug.Println("Routine: server loop - started")
	device.state.starting.Done()

	for {
		select {
		case <-device.signals.stop:
			return
		default:
		}

		select {
		case elem, ok := <-device.queue.handshake:
			if !ok {
				return
			}
			device.processHandshakeElement(elem)
			continue
		default:
		}

		select {
		case elem, ok := <-device.queue.decryption:
			if !ok {
				return
			}
			device.processDecryptionElement(elem)
			continue
		default:
		}

		select {
		case elem, ok := <-device.queue.encryption:
			if !ok {
				return
			}
			device.processEncryptionElement(elem)
			continue
		default:
		}

		// nothing ready; block on every source until one wakes us
		select {
		case <-device.signals.stop:
			return

		case elem, ok := <-device.queue.handshake:
			if !ok {
				return
			}
			device.processHandshakeElement(elem)

		case elem, ok := <-device.queue.decryption:
			if !ok {
				return
			}
			device.processDecryptionElement(elem)

		case elem, ok := <-device.queue.encryption:
			if !ok {
				return
			}
			device.processEncryptionElement(elem)
		}
	}
}
