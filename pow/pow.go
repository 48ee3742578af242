// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package pow - hashcash style proof of work bound to a request
//
// a proof is a nonce such that SHA3-256(challenge ‖ nonce) starts with
// at least Bits zero bits. The number of bits required grows with the
// size of the record, so large records cost more to spam.
package pow

import (
	"context"
	"encoding/binary"
	"fmt"
	"math/bits"

	"golang.org/x/crypto/sha3"

	"github.com/bisq-network/datastore/digest"
	"github.com/bisq-network/datastore/fault"
)

// MaximumBits - upper limit for any policy
const MaximumBits = 64

// default policy values
const (
	DefaultMinBits     = 8
	DefaultMaxBits     = 20
	DefaultBytesPerBit = 4096
)

// how many nonces to try between cancellation checks
const checkInterval = 4096

// Proof - the solution attached to a request
type Proof struct {
	Bits  uint8
	Nonce uint64
}

// Policy - difficulty as a function of record size
//
//   Required(size) = min(MaxBits, MinBits + size/BytesPerBit)
type Policy struct {
	MinBits     uint8
	MaxBits     uint8
	BytesPerBit int
}

// DefaultPolicy - conservative defaults, a few milliseconds of work
// for a small record
func DefaultPolicy() Policy {
	return Policy{
		MinBits:     DefaultMinBits,
		MaxBits:     DefaultMaxBits,
		BytesPerBit: DefaultBytesPerBit,
	}
}

// Validate - check policy limits
func (p Policy) Validate() error {
	if p.MaxBits > MaximumBits || p.MinBits > p.MaxBits || p.BytesPerBit <= 0 {
		return fault.ErrInvalidDifficulty
	}
	return nil
}

// Required - number of leading zero bits needed for a record of size bytes
func (p Policy) Required(size int) uint8 {
	if size < 0 {
		size = 0
	}
	bpb := p.BytesPerBit
	if bpb <= 0 {
		bpb = DefaultBytesPerBit
	}
	extra := size / bpb
	if extra > int(p.MaxBits)-int(p.MinBits) {
		return p.MaxBits
	}
	return p.MinBits + uint8(extra)
}

// Check - proof is sufficient for size and valid for challenge
func (p Policy) Check(challenge digest.Digest, size int, proof Proof) bool {
	if proof.Bits < p.Required(size) {
		return false
	}
	return Verify(challenge, proof)
}

// String - for logging
func (p Policy) String() string {
	return fmt.Sprintf("bits: %d..%d per %d bytes", p.MinBits, p.MaxBits, p.BytesPerBit)
}

// Verify - the nonce gives at least proof.Bits leading zero bits
func Verify(challenge digest.Digest, proof Proof) bool {
	if proof.Bits > MaximumBits {
		return false
	}
	return leadingZeros(challenge, proof.Nonce) >= int(proof.Bits)
}

// Mint - search for a nonce giving the required number of bits
//
// returns fault.ErrProofOfWorkCancelled if ctx is done first
func Mint(ctx context.Context, challenge digest.Digest, required uint8) (Proof, error) {
	if required > MaximumBits {
		return Proof{}, fault.ErrInvalidDifficulty
	}

	for nonce := uint64(0); ; nonce += 1 {
		if 0 == nonce%checkInterval {
			select {
			case <-ctx.Done():
				return Proof{}, fault.ErrProofOfWorkCancelled
			default:
			}
		}
		if leadingZeros(challenge, nonce) >= int(required) {
			return Proof{
				Bits:  required,
				Nonce: nonce,
			}, nil
		}
	}
}

func leadingZeros(challenge digest.Digest, nonce uint64) int {
	buffer := make([]byte, digest.Length+8)
	copy(buffer, challenge[:])
	binary.LittleEndian.PutUint64(buffer[digest.Length:], nonce)
	h := sha3.Sum256(buffer)

	n := 0
	for _, b := range h {
		if 0 != b {
			return n + bits.LeadingZeros8(b)
		}
		n += 8
	}
	return n
}
