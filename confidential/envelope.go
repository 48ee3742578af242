// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package confidential

import (
	"crypto/rand"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/nacl/box"

	"github.com/bisq-network/datastore/codec"
	"github.com/bisq-network/datastore/fault"
	"github.com/bisq-network/datastore/keypair"
)

const sessionKeyLength = chacha20poly1305.KeySize

// Envelope - a hybrid encrypted and signed message
//
// the body is encrypted with a random session key, the session key is
// sealed to the receiver's encryption key and the sender signs both
type Envelope struct {
	SenderPublicKey []byte // ed25519 signing key of the sender
	SealedKey       []byte // session key sealed to the receiver
	Nonce           []byte
	Ciphertext      []byte
	Signature       []byte
}

// Seal - encrypt plaintext for receiver and sign as sender
//
// every call produces a different envelope even for the same plaintext
func Seal(plaintext []byte, receiver keypair.PublicKeys, sender *keypair.KeyBundle) (*Envelope, error) {
	sessionKey := make([]byte, sessionKeyLength)
	if _, err := rand.Read(sessionKey); nil != err {
		return nil, err
	}

	aead, err := chacha20poly1305.New(sessionKey)
	if nil != err {
		return nil, err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); nil != err {
		return nil, err
	}

	senderKey := []byte(sender.Public().Signing)

	sealedKey, err := box.SealAnonymous(nil, sessionKey, &receiver.Encryption, rand.Reader)
	if nil != err {
		return nil, err
	}

	env := &Envelope{
		SenderPublicKey: append([]byte{}, senderKey...),
		SealedKey:       sealedKey,
		Nonce:           nonce,
		Ciphertext:      aead.Seal(nil, nonce, plaintext, senderKey),
	}
	env.Signature = sender.Sign(env.signedBytes())
	return env, nil
}

// Open - verify and decrypt an envelope with the receiver's keys
//
// returns fault.ErrNotForReceiver if the session key was not sealed to
// this receiver, which is the normal case for most listeners
func Open(env *Envelope, receiver *keypair.KeyBundle) ([]byte, error) {
	if !VerifySignature(env) {
		return nil, fault.ErrEnvelopeSignature
	}

	public := receiver.Public()
	sessionKey, ok := box.OpenAnonymous(nil, env.SealedKey, &public.Encryption, receiver.EncryptionPrivateKey())
	if !ok || sessionKeyLength != len(sessionKey) {
		return nil, fault.ErrNotForReceiver
	}

	aead, err := chacha20poly1305.New(sessionKey)
	if nil != err {
		return nil, err
	}
	if aead.NonceSize() != len(env.Nonce) {
		return nil, fault.ErrDecryptionFailed
	}
	plaintext, err := aead.Open(nil, env.Nonce, env.Ciphertext, env.SenderPublicKey)
	if nil != err {
		return nil, fault.ErrDecryptionFailed
	}
	return plaintext, nil
}

// VerifySignature - check the sender's signature without any private key
func VerifySignature(env *Envelope) bool {
	if nil == env {
		return false
	}
	return keypair.Verify(env.SenderPublicKey, env.signedBytes(), env.Signature)
}

// the signature covers every field except itself
func (env *Envelope) signedBytes() []byte {
	b := codec.AppendBytes(nil, 1, env.SenderPublicKey)
	b = codec.AppendBytes(b, 2, env.SealedKey)
	b = codec.AppendBytes(b, 3, env.Nonce)
	return codec.AppendBytes(b, 4, env.Ciphertext)
}

// Marshal - canonical wire form, used for hashing and storage
func (env *Envelope) Marshal() []byte {
	return codec.AppendBytes(env.signedBytes(), 5, env.Signature)
}

// Unmarshal - inverse of Marshal
func Unmarshal(b []byte) (*Envelope, error) {
	env := &Envelope{}
	err := codec.Walk(b, func(f codec.Field) error {
		switch f.Number {
		case 1:
			env.SenderPublicKey = f.Bytes
		case 2:
			env.SealedKey = f.Bytes
		case 3:
			env.Nonce = f.Bytes
		case 4:
			env.Ciphertext = f.Bytes
		case 5:
			env.Signature = f.Bytes
		}
		return nil
	})
	if nil != err {
		return nil, err
	}
	return env, nil
}
