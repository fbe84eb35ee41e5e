// Copyright © 2015-2016 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package lang

import "testing"

func TestAlt(t *testing.T) {
	defer func(f func(string) string) { Getenv = f }(Getenv)
	alt := Alt{
		EnUS: "bank switch",
		JaJP: "バンク切替",
	}
	for _, x := range []struct{ env, want string }{
		{"", "bank switch"},
		{JaJP, "バンク切替"},
		{FrFR, "bank switch"},
	} {
		Getenv = func(string) string { return x.env }
		if s := alt.String(); s != x.want {
			t.Errorf("LANG=%q: %q", x.env, s)
		}
	}
	Getenv = func(string) string { return FrFR }
	if s := (Alt{DeDE: "nur deutsch"}).String(); s != "" {
		t.Error(s)
	}
}
