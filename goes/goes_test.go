// Copyright © 2015-2016 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package goes

import (
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/platinasystems/qos/goes/cmd"
	"github.com/platinasystems/qos/goes/lang"
	"github.com/platinasystems/qos/internal/pidfile"
)

type echo struct{ args []string }

func (*echo) String() string { return "echo" }
func (*echo) Usage() string  { return "echo [ARG]..." }

func (*echo) Apropos() lang.Alt {
	return lang.Alt{lang.EnUS: "record arguments"}
}

func (*echo) Man() lang.Alt {
	return lang.Alt{lang.EnUS: "DESCRIPTION\n\tRecords its arguments."}
}

func (c *echo) Main(args ...string) error {
	c.args = args
	return nil
}

type hidden struct{ echo }

func (*hidden) String() string { return "hidden" }
func (*hidden) Kind() cmd.Kind { return cmd.Hidden }

func newGoes() (*Goes, *echo, *bytes.Buffer) {
	buf := new(bytes.Buffer)
	e := new(echo)
	g := &Goes{NAME: "goes-qos", Stdout: buf}
	g.Plot(e, new(hidden))
	return g, e, buf
}

func TestDispatch(t *testing.T) {
	t.Run("prog", func(t *testing.T) {
		g, e, _ := newGoes()
		if err := g.Main("/usr/bin/goes-qos", "echo", "a", "b"); err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(e.args, []string{"a", "b"}) {
			t.Error(e.args)
		}
	})
	t.Run("link", func(t *testing.T) {
		g, e, _ := newGoes()
		if err := g.Main("/usr/sbin/echo", "c"); err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(e.args, []string{"c"}) {
			t.Error(e.args)
		}
	})
	t.Run("not found", func(t *testing.T) {
		g, _, _ := newGoes()
		err := g.Main("goes-qos", "nope")
		if err == nil || !strings.Contains(err.Error(), "not found") {
			t.Error(err)
		}
	})
}

func TestHelpers(t *testing.T) {
	for _, x := range []struct {
		args []string
		want string
	}{
		{[]string{"goes-qos", "echo", "-usage"}, "usage:\techo [ARG]...\n"},
		{[]string{"goes-qos", "echo", "--help"}, "usage:\techo [ARG]...\n"},
		{[]string{"goes-qos", "apropos", "echo"},
			"echo            record arguments\n"},
		{[]string{"goes-qos", "apropos"},
			"echo            record arguments\n"},
	} {
		g, e, buf := newGoes()
		if err := g.Main(x.args...); err != nil {
			t.Fatal(x.args, err)
		}
		if s := buf.String(); s != x.want {
			t.Errorf("%q: got %q", x.args, s)
		}
		if e.args != nil {
			t.Errorf("%q: ran echo", x.args)
		}
	}
}

func TestMan(t *testing.T) {
	g, _, buf := newGoes()
	if err := g.Main("goes-qos", "man", "echo"); err != nil {
		t.Fatal(err)
	}
	for _, s := range []string{
		"NAME\n\techo - record arguments",
		"SYNOPSIS\n\techo [ARG]...",
		"Records its arguments.",
	} {
		if !strings.Contains(buf.String(), s) {
			t.Errorf("missing %q in:\n%s", s, buf)
		}
	}
}

func TestPlotDuplicate(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("no panic")
		}
	}()
	g, _, _ := newGoes()
	g.Plot(new(echo))
}

type daemon struct {
	echo
	pid    int
	closed bool
}

func (*daemon) String() string { return "echod" }
func (*daemon) Kind() cmd.Kind { return cmd.Daemon }

func (d *daemon) Main(...string) (err error) {
	d.pid, err = pidfile.Read("echod")
	return
}

func (d *daemon) Close() error {
	d.closed = true
	return nil
}

func TestDaemon(t *testing.T) {
	defer func(s string) { pidfile.Dir = s }(pidfile.Dir)
	pidfile.Dir = filepath.Join(t.TempDir(), "pids")
	d := new(daemon)
	g := &Goes{NAME: "goes-qos"}
	g.Plot(d)
	if err := g.Main("goes-qos", "echod"); err != nil {
		t.Fatal(err)
	}
	if d.pid != os.Getpid() {
		t.Error("pid", d.pid)
	}
	if _, err := os.Stat(pidfile.Path("echod")); !os.IsNotExist(err) {
		t.Error("pidfile left behind", err)
	}
	if d.closed {
		t.Error("closed without a signal")
	}
}
