// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package keypair

import (
	"bytes"
	"crypto/rand"

	"github.com/mr-tron/base58"
	"golang.org/x/crypto/curve25519"
	"golang.org/x/crypto/ed25519"
	"golang.org/x/crypto/sha3"

	"github.com/bisq-network/datastore/digest"
	"github.com/bisq-network/datastore/fault"
)

// sizes of the various key parts
const (
	SeedLength          = 32
	PublicKeyLength     = ed25519.PublicKeySize
	EncryptionKeyLength = 32
	SignatureLength     = ed25519.SignatureSize
	PublicKeysLength    = PublicKeyLength + EncryptionKeyLength

	seedChecksumLength = 4
)

// seed text is: header ‖ seed ‖ checksum
var seedHeader = []byte{0x5a, 0xfe, 0x03}

// domain separation for the encryption key
var encryptionKeyTag = []byte("bisq-datastore/encryption")

// PublicKeys - the public half of a key bundle
//
// this is what a sender needs to address a mailbox message and what a
// verifier needs to check a signature
type PublicKeys struct {
	Signing    ed25519.PublicKey
	Encryption [EncryptionKeyLength]byte
}

// KeyBundle - signing and encryption keys derived from a single seed
type KeyBundle struct {
	seed              [SeedLength]byte
	signing           ed25519.PrivateKey
	encryptionPrivate [EncryptionKeyLength]byte
	public            PublicKeys
}

// New - create a key bundle from secure random data
func New() (*KeyBundle, error) {
	seed := make([]byte, SeedLength)
	n, err := rand.Read(seed)
	if nil != err {
		return nil, err
	}
	if SeedLength != n {
		fault.Panicf("keypair: only %d random bytes", n)
	}
	return FromSeed(seed)
}

// FromSeed - derive all keys from a 32 byte seed
func FromSeed(seed []byte) (*KeyBundle, error) {
	if SeedLength != len(seed) {
		return nil, fault.ErrKeyLength
	}

	k := &KeyBundle{}
	copy(k.seed[:], seed)

	k.signing = ed25519.NewKeyFromSeed(seed)
	k.public.Signing = k.signing.Public().(ed25519.PublicKey)

	h := sha3.New256()
	h.Write(encryptionKeyTag)
	h.Write(seed)
	copy(k.encryptionPrivate[:], h.Sum(nil))

	pub, err := curve25519.X25519(k.encryptionPrivate[:], curve25519.Basepoint)
	if nil != err {
		return nil, err
	}
	copy(k.public.Encryption[:], pub)

	return k, nil
}

// FromBase58Seed - decode a seed produced by Base58Seed and derive keys
func FromBase58Seed(text string) (*KeyBundle, error) {
	packed, err := base58.Decode(text)
	if nil != err {
		return nil, err
	}
	if len(seedHeader)+SeedLength+seedChecksumLength != len(packed) {
		return nil, fault.ErrKeyLength
	}
	if !bytes.Equal(seedHeader, packed[:len(seedHeader)]) {
		return nil, fault.ErrInvalidKeyChecksum
	}

	checksumStart := len(packed) - seedChecksumLength
	checksum := sha3.Sum256(packed[:checksumStart])
	if !bytes.Equal(checksum[:seedChecksumLength], packed[checksumStart:]) {
		return nil, fault.ErrInvalidKeyChecksum
	}
	return FromSeed(packed[len(seedHeader):checksumStart])
}

// Base58Seed - text form of the seed with header and checksum
func (k *KeyBundle) Base58Seed() string {
	packed := make([]byte, 0, len(seedHeader)+SeedLength+seedChecksumLength)
	packed = append(packed, seedHeader...)
	packed = append(packed, k.seed[:]...)
	checksum := sha3.Sum256(packed)
	packed = append(packed, checksum[:seedChecksumLength]...)
	return base58.Encode(packed)
}

// Public - the public keys
func (k *KeyBundle) Public() PublicKeys {
	return k.public
}

// PublicKeyHash - digest identifying this owner in stored records
func (k *KeyBundle) PublicKeyHash() digest.Digest {
	return PublicKeyHash(k.public.Signing)
}

// EncryptionPrivateKey - for opening envelopes addressed to this bundle
func (k *KeyBundle) EncryptionPrivateKey() *[EncryptionKeyLength]byte {
	return &k.encryptionPrivate
}

// Sign - ed25519 signature of message
func (k *KeyBundle) Sign(message []byte) []byte {
	return ed25519.Sign(k.signing, message)
}

// Verify - check an ed25519 signature, false for any malformed input
func Verify(publicKey []byte, message []byte, signature []byte) bool {
	if PublicKeyLength != len(publicKey) || SignatureLength != len(signature) {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(publicKey), message, signature)
}

// PublicKeyHash - digest of a signing public key
func PublicKeyHash(publicKey []byte) digest.Digest {
	return digest.NewDigest(publicKey)
}

// Bytes - signing key followed by encryption key
func (p PublicKeys) Bytes() []byte {
	b := make([]byte, 0, PublicKeysLength)
	b = append(b, p.Signing...)
	return append(b, p.Encryption[:]...)
}

// PublicKeysFromBytes - inverse of Bytes
func PublicKeysFromBytes(b []byte) (PublicKeys, error) {
	if PublicKeysLength != len(b) {
		return PublicKeys{}, fault.ErrKeyLength
	}
	p := PublicKeys{
		Signing: make(ed25519.PublicKey, PublicKeyLength),
	}
	copy(p.Signing, b[:PublicKeyLength])
	copy(p.Encryption[:], b[PublicKeyLength:])
	return p, nil
}

// String - base58 of Bytes
func (p PublicKeys) String() string {
	return base58.Encode(p.Bytes())
}
