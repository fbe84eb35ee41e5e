// Copyright © 2017-2018 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package qos is the user command of qosd.
package qos

import (
	"fmt"
	"io"
	"net/rpc"
	"os"
	"strconv"

	"github.com/mattn/go-isatty"
	"github.com/platinasystems/atsock"
	"github.com/platinasystems/parms"
	"github.com/platinasystems/qos/cmd/qosd"
	"github.com/platinasystems/qos/goes/lang"
	"github.com/platinasystems/qos/qos"
)

type Command struct {
	// Dial returns a qosd client; the atsock by default.
	Dial func() (*rpc.Client, error)
	// Stdout is os.Stdout if nil.
	Stdout io.Writer
}

func (*Command) String() string { return "qos" }

func (*Command) Usage() string {
	return `qos [status]
	qos set [-fix URL] [-be URL]
	qos switch
	qos get [-type fix|be] [-bank 0|1] -master N
	qos setip [-type fix|be] -master N -value V
	qos dump [-bank 0|1]
	qos suspend
	qos resume`
}

func (*Command) Apropos() lang.Alt {
	return lang.Alt{
		lang.EnUS: "memory controller bandwidth QoS",
	}
}

func (*Command) Man() lang.Alt {
	return lang.Alt{
		lang.EnUS: `
DESCRIPTION
	Configure the memory controller QoS unit through qosd.

	The unit has two banks of FIX and BE priorities per bus master; one
	bank is executing while the other is written. "set" and "setip" write
	the inactive bank; "switch" makes it live and copies it into the other
	bank.

	"set" tables are little-endian 64-bit arrays with one entry per master
	or a whole 4KiB bank padded with zeros; a missing table is all zeros.

	"suspend" and "resume" save and restore both banks across a power
	domain cycle.

OPTIONS
	-type	traffic class, fix (default) or be
	-bank	0 (default) or 1
	-master	bus master id
	-value	64-bit priority; prefix 0x for hex

EXAMPLES
	qos set -fix /lib/firmware/qos_fix.bin -be http://server/qos_be.bin
	qos switch`,
	}
}

func (c *Command) Main(args ...string) error {
	verb := "status"
	if len(args) > 0 {
		verb, args = args[0], args[1:]
	}
	run, found := map[string]func(*rpc.Client, ...string) error{
		"status":  c.status,
		"set":     c.set,
		"switch":  c.swtch,
		"get":     c.get,
		"setip":   c.setip,
		"dump":    c.dump,
		"suspend": c.suspend,
		"resume":  c.resume,
	}[verb]
	if !found {
		return fmt.Errorf("%s: unknown", verb)
	}
	dial := c.Dial
	if dial == nil {
		dial = func() (*rpc.Client, error) {
			return atsock.NewRpcClient(qosd.Name)
		}
	}
	cl, err := dial()
	if err != nil {
		return err
	}
	defer cl.Close()
	return run(cl, args...)
}

func (c *Command) stdout() (io.Writer, bool) {
	if c.Stdout != nil {
		return c.Stdout, false
	}
	return os.Stdout, isatty.IsTerminal(os.Stdout.Fd())
}

func (c *Command) status(cl *rpc.Client, args ...string) error {
	if len(args) > 0 {
		return fmt.Errorf("%v: unexpected", args)
	}
	var st qosd.StatusReply
	if err := cl.Call("Info.Status", qosd.Void(0), &st); err != nil {
		return err
	}
	w, _ := c.stdout()
	fmt.Fprint(w, st)
	return nil
}

func (c *Command) set(cl *rpc.Client, args ...string) error {
	parm, args := parms.New(args, "-fix", "-be")
	if len(args) > 0 {
		return fmt.Errorf("%v: unexpected", args)
	}
	var st qosd.StatusReply
	if err := cl.Call("Info.Status", qosd.Void(0), &st); err != nil {
		return err
	}
	n := st.MasterIDMax + 1
	fix, err := LoadTable(parm.ByName["-fix"], n)
	if err != nil {
		return err
	}
	be, err := LoadTable(parm.ByName["-be"], n)
	if err != nil {
		return err
	}
	return cl.Call("Info.SetAll", qosd.SetAllArgs{Fix: fix, BE: be},
		new(qosd.Void))
}

func (c *Command) swtch(cl *rpc.Client, args ...string) error {
	if len(args) > 0 {
		return fmt.Errorf("%v: unexpected", args)
	}
	var st qosd.StatusReply
	if err := cl.Call("Info.Switch", qosd.Void(0), &st); err != nil {
		return err
	}
	w, _ := c.stdout()
	fmt.Fprintln(w, st.Status)
	return nil
}

func (c *Command) get(cl *rpc.Client, args ...string) error {
	a, err := masterArgs(args, "-type", "-bank", "-master")
	if err != nil {
		return err
	}
	var v uint64
	if err = cl.Call("Info.Get", a, &v); err != nil {
		return err
	}
	w, _ := c.stdout()
	fmt.Fprintf(w, "%#016x\n", v)
	return nil
}

func (c *Command) setip(cl *rpc.Client, args ...string) error {
	a, err := masterArgs(args, "-type", "-master", "-value")
	if err != nil {
		return err
	}
	return cl.Call("Info.SetIP", a, new(qosd.Void))
}

func (c *Command) dump(cl *rpc.Client, args ...string) error {
	a, err := masterArgs(args, "-bank")
	if err != nil {
		return err
	}
	var d qosd.DumpReply
	if err = cl.Call("Info.Dump", a, &d); err != nil {
		return err
	}
	w, tty := c.stdout()
	if tty {
		fmt.Fprintf(w, "bank %d\nmaster %-18s %-18s\n", d.Bank, "fix", "be")
	}
	for i := range d.Fix {
		fmt.Fprintf(w, "%6d %#016x %#016x\n", i, d.Fix[i], d.BE[i])
	}
	return nil
}

func (c *Command) suspend(cl *rpc.Client, args ...string) error {
	if len(args) > 0 {
		return fmt.Errorf("%v: unexpected", args)
	}
	var id string
	if err := cl.Call("Info.Suspend", qosd.Void(0), &id); err != nil {
		return err
	}
	w, _ := c.stdout()
	fmt.Fprintln(w, id)
	return nil
}

func (c *Command) resume(cl *rpc.Client, args ...string) error {
	if len(args) > 0 {
		return fmt.Errorf("%v: unexpected", args)
	}
	return cl.Call("Info.Resume", qosd.Void(0), new(qosd.Void))
}

// masterArgs parses the named parameters; "-master" and "-value" are
// required if named.
func masterArgs(args []string, names ...string) (qosd.MasterArgs, error) {
	var a qosd.MasterArgs
	ifs := make([]interface{}, len(names))
	for i, s := range names {
		ifs[i] = s
	}
	parm, args := parms.New(args, ifs...)
	if len(args) > 0 {
		return a, fmt.Errorf("%v: unexpected", args)
	}
	for _, name := range names {
		s := parm.ByName[name]
		var err error
		switch name {
		case "-type":
			if len(s) > 0 {
				a.Type, err = qos.ParseType(s)
			}
		case "-bank":
			if len(s) > 0 {
				var u uint64
				u, err = strconv.ParseUint(s, 0, 32)
				a.Bank = uint32(u)
			}
		case "-master":
			if len(s) == 0 {
				return a, fmt.Errorf("missing -master")
			}
			a.Master, err = strconv.Atoi(s)
		case "-value":
			if len(s) == 0 {
				return a, fmt.Errorf("missing -value")
			}
			a.Value, err = strconv.ParseUint(s, 0, 64)
		}
		if err != nil {
			return a, fmt.Errorf("%s: %w", name, err)
		}
	}
	return a, nil
}
