// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli"
)

type metadata struct {
	verbose bool
	e       io.Writer
	w       io.Writer
}

// set by the linker: go build -ldflags "-X main.version=M.N" ./...
var version = "zero" // do not change this value

func main() {
	app := newApp(os.Stdout, os.Stderr)
	err := app.Run(os.Args)
	if nil != err {
		fmt.Fprintf(app.ErrWriter, "terminated with error: %s\n", err)
		os.Exit(1)
	}
}

func newApp(w io.Writer, e io.Writer) *cli.App {
	app := cli.NewApp()
	app.Name = "bisq-store"
	app.Usage = "inspect data store snapshots and create keys"
	app.Version = version
	app.HideVersion = true

	app.Writer = w
	app.ErrWriter = e

	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "verbose, v",
			Usage: " verbose result",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:      "keygen",
			Usage:     "generate a new key bundle",
			ArgsUsage: "\n   (* = required)",
			Flags:     []cli.Flag{},
			Action:    runKeygen,
		},
		{
			Name:      "pubkey",
			Usage:     "show the public keys of an existing seed",
			ArgsUsage: "\n   (* = required)",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "seed, s",
					Value: "",
					Usage: "*base58 seed `SEED`",
				},
			},
			Action: runPubkey,
		},
		{
			Name:      "dump",
			Usage:     "decode a store snapshot",
			ArgsUsage: "\n   (* = required, + = select one)",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "file, f",
					Value: "",
					Usage: "+snapshot `FILE` written by the file backend",
				},
				cli.StringFlag{
					Name:  "leveldb, l",
					Value: "",
					Usage: "+leveldb `DIRECTORY`",
				},
				cli.StringFlag{
					Name:  "key, k",
					Value: "",
					Usage: " store `KEY` within the leveldb database",
				},
				cli.BoolFlag{
					Name:  "requests, r",
					Usage: " include the serialized requests",
				},
			},
			Action: runDump,
		},
		{
			Name:      "list",
			Usage:     "list the snapshots in a leveldb database",
			ArgsUsage: "\n   (* = required)",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "leveldb, l",
					Value: "",
					Usage: "*leveldb `DIRECTORY`",
				},
			},
			Action: runList,
		},
		{
			Name:      "policy",
			Usage:     "proof of work bits required for a record size",
			ArgsUsage: "\n   (* = required)",
			Flags: []cli.Flag{
				cli.IntFlag{
					Name:  "min-bits",
					Value: 0,
					Usage: " minimum `BITS` (default from built in policy)",
				},
				cli.IntFlag{
					Name:  "max-bits",
					Value: 0,
					Usage: " maximum `BITS` (default from built in policy)",
				},
				cli.IntFlag{
					Name:  "bytes-per-bit",
					Value: 0,
					Usage: " `BYTES` per extra bit (default from built in policy)",
				},
				cli.IntFlag{
					Name:  "size, s",
					Value: 0,
					Usage: "*record size in `BYTES`",
				},
			},
			Action: runPolicy,
		},
		{
			Name:  "version",
			Usage: "display bisq-store version",
			Action: func(c *cli.Context) error {
				fmt.Fprintf(c.App.Writer, "%s\n", version)
				return nil
			},
		},
	}

	app.Before = func(c *cli.Context) error {
		c.App.Metadata = map[string]interface{}{
			"config": &metadata{
				verbose: c.GlobalBool("verbose"),
				e:       c.App.ErrWriter,
				w:       c.App.Writer,
			},
		}
		return nil
	}

	return app
}

func getMetadata(c *cli.Context) *metadata {
	return c.App.Metadata["config"].(*metadata)
}
