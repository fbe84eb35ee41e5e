// Copyright © 2017-2018 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestGoes(t *testing.T) {
	g := Goes()
	if names := g.Names(); strings.Join(names, " ") != "qos qosd" {
		t.Error(names)
	}
	buf := new(bytes.Buffer)
	g.Stdout = buf
	if err := g.Main("goes-qos", "apropos"); err != nil {
		t.Fatal(err)
	}
	for _, s := range []string{"qos             memory controller",
		"qosd            memory controller QoS daemon"} {
		if !strings.Contains(buf.String(), s) {
			t.Errorf("missing %q in %q", s, buf)
		}
	}
	buf.Reset()
	if err := g.Main("qosd", "-usage"); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(buf.String(), "usage:\tqosd [-sim") {
		t.Error(buf)
	}
}
