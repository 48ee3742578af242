// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"github.com/urfave/cli"

	"github.com/bisq-network/datastore/fault"
	"github.com/bisq-network/datastore/pow"
)

type policyResult struct {
	Policy string `json:"policy"`
	Size   int    `json:"size"`
	Bits   uint8  `json:"bits"`
}

func runPolicy(c *cli.Context) error {
	m := getMetadata(c)

	policy := pow.DefaultPolicy()
	if n := c.Int("min-bits"); n > 0 {
		policy.MinBits = uint8(n)
	}
	if n := c.Int("max-bits"); n > 0 {
		policy.MaxBits = uint8(n)
	}
	if n := c.Int("bytes-per-bit"); n > 0 {
		policy.BytesPerBit = n
	}
	if err := policy.Validate(); nil != err {
		return err
	}

	size := c.Int("size")
	if size < 0 {
		return fault.ErrMissingParameters
	}

	return printJson(m.w, policyResult{
		Policy: policy.String(),
		Size:   size,
		Bits:   policy.Required(size),
	})
}
