/* SPDX-License-Identifier: MIT
 *
 * Copyright (C) 2017-2019 WireGuard LLC. All Rights Reserved.
 */

package device

import (
	"crypto/rand"
	"encoding/binary"
)

// IndexTableEntry resolves a wire-format sender index back to the
// handshake or keypair it was minted for, so an arriving response or
// transport packet can be routed to its peer without a linear scan.
type IndexTableEntry struct {
	peer      *Peer
	handshake *Handshake
	keypair   *Keypair
}

type IndexTable struct {
	RWMutex
	table map[uint32]IndexTableEntry
}

func randUint32() (uint32, error) {
	var buf [4]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

func (table *IndexTable) Init() {
	table.Lock()
	defer table.Unlock()
	table.table = make(map[uint32]IndexTableEntry)
}

func (table *IndexTable) Delete(index uint32) {
	table.Lock()
	defer table.Unlock()
	delete(table.table, index)
}

// NewIndexForHandshake mints a fresh random index for the given
// handshake, replacing any existing index claimed by this peer for this
// handshake, and returns it for use as the message's Sender field.
func (table *IndexTable) NewIndexForHandshake(peer *Peer, handshake *Handshake) uint32 {
	for {
		index, err := randUint32()
		if err != nil {
			continue
		}

		table.Lock()
		if _, ok := table.table[index]; ok {
			table.Unlock()
			continue
		}
		if old, ok := table.table[handshake.localIndex]; ok && old.handshake == handshake {
			delete(table.table, handshake.localIndex)
		}
		table.table[index] = IndexTableEntry{
			peer:      peer,
			handshake: handshake,
		}
		table.Unlock()
		return index
	}
}

func (table *IndexTable) Lookup(index uint32) IndexTableEntry {
	table.RLock()
	defer table.RUnlock()
	return table.table[index]
}

// SwapIndexForKeypair transfers ownership of index from a handshake entry
// to the keypair it produced, once the handshake completes.
func (table *IndexTable) SwapIndexForKeypair(index uint32, keypair *Keypair) {
	table.Lock()
	defer table.Unlock()
	entry, ok := table.table[index]
	if !ok {
		return
	}
	table.table[index] = IndexTableEntry{
		peer:    entry.peer,
		keypair: keypair,
	}
}
