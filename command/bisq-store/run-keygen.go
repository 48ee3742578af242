// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"

	"github.com/mr-tron/base58"
	"github.com/urfave/cli"

	"github.com/bisq-network/datastore/fault"
	"github.com/bisq-network/datastore/keypair"
)

type keyResult struct {
	Seed          string `json:"seed,omitempty"`
	PublicKeys    string `json:"public_keys"`
	SigningKey    string `json:"signing_key"`
	EncryptionKey string `json:"encryption_key"`
	PublicKeyHash string `json:"public_key_hash"`
}

func describe(k *keypair.KeyBundle, withSeed bool) keyResult {
	public := k.Public()
	r := keyResult{
		PublicKeys:    public.String(),
		SigningKey:    base58.Encode(public.Signing),
		EncryptionKey: base58.Encode(public.Encryption[:]),
		PublicKeyHash: k.PublicKeyHash().String(),
	}
	if withSeed {
		r.Seed = k.Base58Seed()
	}
	return r
}

func runKeygen(c *cli.Context) error {
	m := getMetadata(c)

	k, err := keypair.New()
	if nil != err {
		return err
	}

	if m.verbose {
		fmt.Fprintf(m.e, "generated: %s\n", k.PublicKeyHash())
	}

	return printJson(m.w, describe(k, true))
}

func runPubkey(c *cli.Context) error {
	m := getMetadata(c)

	seed := c.String("seed")
	if "" == seed {
		return fault.ErrMissingParameters
	}

	k, err := keypair.FromBase58Seed(seed)
	if nil != err {
		return err
	}

	return printJson(m.w, describe(k, false))
}
