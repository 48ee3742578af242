// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package confidential_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bisq-network/datastore/confidential"
	"github.com/bisq-network/datastore/fault"
	"github.com/bisq-network/datastore/keypair"
)

func keys(t *testing.T) (*keypair.KeyBundle, *keypair.KeyBundle, *keypair.KeyBundle) {
	sender, err := keypair.New()
	require.NoError(t, err)
	receiver, err := keypair.New()
	require.NoError(t, err)
	other, err := keypair.New()
	require.NoError(t, err)
	return sender, receiver, other
}

func TestSealOpen(t *testing.T) {
	sender, receiver, other := keys(t)
	message := []byte("payment started")

	env, err := confidential.Seal(message, receiver.Public(), sender)
	require.NoError(t, err)

	assert.True(t, confidential.VerifySignature(env), "fresh envelope signature")

	plaintext, err := confidential.Open(env, receiver)
	require.NoError(t, err)
	assert.Equal(t, message, plaintext)

	_, err = confidential.Open(env, other)
	assert.Equal(t, fault.ErrNotForReceiver, err)
}

func TestTamperedEnvelope(t *testing.T) {
	sender, receiver, _ := keys(t)

	env, err := confidential.Seal([]byte("hello"), receiver.Public(), sender)
	require.NoError(t, err)

	env.Ciphertext[0] ^= 0x01
	assert.False(t, confidential.VerifySignature(env))

	_, err = confidential.Open(env, receiver)
	assert.Equal(t, fault.ErrEnvelopeSignature, err)
}

// the same plaintext sealed twice must give different envelopes, so a
// re-publication has to reuse the stored envelope to keep its identity
func TestResealDiffers(t *testing.T) {
	sender, receiver, _ := keys(t)
	message := []byte("same text")

	env1, err := confidential.Seal(message, receiver.Public(), sender)
	require.NoError(t, err)
	env2, err := confidential.Seal(message, receiver.Public(), sender)
	require.NoError(t, err)

	assert.NotEqual(t, env1.Marshal(), env2.Marshal())
}

func TestMarshalRoundTrip(t *testing.T) {
	sender, receiver, _ := keys(t)

	env, err := confidential.Seal([]byte("round trip"), receiver.Public(), sender)
	require.NoError(t, err)

	decoded, err := confidential.Unmarshal(env.Marshal())
	require.NoError(t, err)
	assert.Equal(t, env, decoded)

	plaintext, err := confidential.Open(decoded, receiver)
	require.NoError(t, err)
	assert.Equal(t, "round trip", string(plaintext))
}
