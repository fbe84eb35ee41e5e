// Copyright © 2017-2018 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// This is the goes machine of the R-Car memory controller QoS tools. Link
// it as qos and qosd or run "goes-qos qosd" and "goes-qos qos ...".
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/platinasystems/qos/cmd/qos"
	"github.com/platinasystems/qos/cmd/qosd"
	"github.com/platinasystems/qos/goes"
	"github.com/platinasystems/qos/goes/lang"
)

func Goes() *goes.Goes {
	g := &goes.Goes{
		NAME: "goes-qos",
		APROPOS: lang.Alt{
			lang.EnUS: "R-Car memory controller QoS",
		},
	}
	g.Plot(new(qos.Command), new(qosd.Command))
	return g
}

func main() {
	if err := Goes().Main(os.Args...); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", filepath.Base(os.Args[0]), err)
		os.Exit(1)
	}
}
