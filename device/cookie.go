/* SPDX-License-Identifier: MIT
 *
 * Copyright (C) 2017-2019 WireGuard LLC. All Rights Reserved.
 */

package device

import (
	"crypto/hmac"
	"crypto/rand"
	"time"

	"golang.org/x/crypto/blake2s"
	"golang.org/x/crypto/chacha20poly1305"
)

// CookieChecker verifies the mac1/mac2 fields on incoming handshake
// messages and mints cookie replies once the device is under load. It is
// keyed off the device's own static public key.
type CookieChecker struct {
	RWMutex
	mac1 struct {
		key [blake2s.Size]byte
	}
	mac2 struct {
		secret        [blake2s.Size]byte
		secretSet     time.Time
		encryptionKey [chacha20poly1305.KeySize]byte
	}
}

// CookieGenerator attaches mac1/mac2 to outgoing handshake messages for a
// single peer and holds whatever cookie that peer has handed back.
type CookieGenerator struct {
	RWMutex
	mac1 struct {
		key [blake2s.Size]byte
	}
	mac2 struct {
		cookie         [blake2s.Size128]byte
		cookieSet      time.Time
		hasLastMAC1    bool
		lastMAC1       [blake2s.Size128]byte
		encryptionKey  [chacha20poly1305.KeySize]byte
	}
}

func (st *CookieChecker) Init(pk NoisePublicKey) {
	st.Lock()
	defer st.Unlock()

	func() {
		hsh, _ := blake2s.New256(nil)
		hsh.Write([]byte(WGLabelMAC1))
		hsh.Write(pk[:])
		hsh.Sum(st.mac1.key[:0])
	}()

	func() {
		hsh, _ := blake2s.New256(nil)
		hsh.Write([]byte(WGLabelCookie))
		hsh.Write(pk[:])
		hsh.Sum(st.mac2.encryptionKey[:0])
	}()

	st.mac2.secretSet = time.Time{}
}

func (st *CookieChecker) CheckMAC1(msg []byte) bool {
	st.RLock()
	defer st.RUnlock()

	size := len(msg)
	startMAC1 := size - (blake2s.Size128 * 2)
	startMAC2 := size - blake2s.Size128

	var mac1 [blake2s.Size128]byte
	mac, _ := blake2s.New128(st.mac1.key[:])
	mac.Write(msg[:startMAC1])
	mac.Sum(mac1[:0])

	return hmac.Equal(mac1[:], msg[startMAC1:startMAC2])
}

func (st *CookieChecker) CheckMAC2(msg []byte, src []byte) bool {
	st.RLock()
	defer st.RUnlock()

	if time.Since(st.mac2.secretSet) > CookieRefreshTime {
		return false
	}

	var cookie [blake2s.Size128]byte
	func() {
		mac, _ := blake2s.New128(st.mac2.secret[:])
		mac.Write(src)
		mac.Sum(cookie[:0])
	}()

	start := len(msg) - blake2s.Size128
	var mac2 [blake2s.Size128]byte
	func() {
		mac, _ := blake2s.New128(cookie[:])
		mac.Write(msg[:start])
		mac.Sum(mac2[:0])
	}()

	return hmac.Equal(mac2[:], msg[start:])
}

// CreateReply produces a cookie reply for a handshake message that failed
// mac2 validation while the device is under load.
func (st *CookieChecker) CreateReply(msg []byte, receiver uint32, src []byte) (*MessageCookieReply, error) {
	st.RLock()

	if time.Since(st.mac2.secretSet) > CookieRefreshTime {
		st.RUnlock()
		st.Lock()
		if _, err := rand.Read(st.mac2.secret[:]); err != nil {
			st.Unlock()
			return nil, err
		}
		st.mac2.secretSet = time.Now()
		st.Unlock()
		st.RLock()
	}
	defer st.RUnlock()

	var cookie [blake2s.Size128]byte
	func() {
		mac, _ := blake2s.New128(st.mac2.secret[:])
		mac.Write(src)
		mac.Sum(cookie[:0])
	}()

	size := len(msg)
	startMAC1 := size - (blake2s.Size128 * 2)
	startMAC2 := size - blake2s.Size128
	mac1 := msg[startMAC1:startMAC2]

	reply := new(MessageCookieReply)
	reply.Type = MessageCookieReplyType
	reply.Receiver = receiver

	if _, err := rand.Read(reply.Nonce[:]); err != nil {
		return nil, err
	}

	aead, _ := chacha20poly1305.NewX(st.mac2.encryptionKey[:])
	aead.Seal(reply.Cookie[:0], reply.Nonce[:], cookie[:], mac1)

	return reply, nil
}

func (gen *CookieGenerator) Init(pk NoisePublicKey) {
	gen.Lock()
	defer gen.Unlock()

	func() {
		hsh, _ := blake2s.New256(nil)
		hsh.Write([]byte(WGLabelMAC1))
		hsh.Write(pk[:])
		hsh.Sum(gen.mac1.key[:0])
	}()

	func() {
		hsh, _ := blake2s.New256(nil)
		hsh.Write([]byte(WGLabelCookie))
		hsh.Write(pk[:])
		hsh.Sum(gen.mac2.encryptionKey[:0])
	}()

	gen.mac2.cookieSet = time.Time{}
}

func (gen *CookieGenerator) ConsumeReply(msg *MessageCookieReply) bool {
	gen.Lock()
	defer gen.Unlock()

	if !gen.mac2.hasLastMAC1 {
		return false
	}

	var cookie [blake2s.Size128]byte
	aead, _ := chacha20poly1305.NewX(gen.mac2.encryptionKey[:])
	_, err := aead.Open(cookie[:0], msg.Nonce[:], msg.Cookie[:], gen.mac2.lastMAC1[:])
	if err != nil {
		return false
	}

	gen.mac2.cookie = cookie
	gen.mac2.cookieSet = time.Now()
	return true
}

// AddMacs appends mac1 (and mac2, if a cookie is on file) to an
// already-serialized handshake message in place.
func (gen *CookieGenerator) AddMacs(msg []byte) {
	size := len(msg)
	startMAC1 := size - (blake2s.Size128 * 2)
	startMAC2 := size - blake2s.Size128

	gen.Lock()
	defer gen.Unlock()

	mac1 := msg[startMAC1:startMAC2]
	func() {
		mac, _ := blake2s.New128(gen.mac1.key[:])
		mac.Write(msg[:startMAC1])
		mac.Sum(mac1[:0])
	}()
	copy(gen.mac2.lastMAC1[:], mac1)
	gen.mac2.hasLastMAC1 = true

	if time.Since(gen.mac2.cookieSet) > CookieRefreshTime {
		return
	}

	mac2 := msg[startMAC2:]
	func() {
		mac, _ := blake2s.New128(gen.mac2.cookie[:])
		mac.Write(msg[:startMAC2])
		mac.Sum(mac2[:0])
	}()
}
