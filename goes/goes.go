// Copyright © 2015-2016 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package goes is a small busybox style dispatcher of the qos commands.
package goes

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"

	"github.com/platinasystems/log"
	"github.com/platinasystems/qos/goes/cmd"
	"github.com/platinasystems/qos/goes/lang"
	"github.com/platinasystems/qos/internal/pidfile"
)

type ByName map[string]cmd.Cmd

type Goes struct {
	NAME    string
	USAGE   string
	APROPOS lang.Alt
	MAN     lang.Alt
	ByName  ByName

	// Stdout is os.Stdout if nil.
	Stdout io.Writer
}

func (g *Goes) String() string { return g.NAME }

// Plot commands on map.
func (g *Goes) Plot(cmds ...cmd.Cmd) {
	if g.ByName == nil {
		g.ByName = make(ByName)
	}
	for _, v := range cmds {
		name := v.String()
		if _, found := g.ByName[name]; found {
			panic(fmt.Errorf("%s: duplicate", name))
		}
		if _, found := cmd.Helpers[name]; found {
			panic(fmt.Errorf("%s: reserved", name))
		}
		g.ByName[name] = v
	}
}

// Names returns the sorted, visible command names.
func (g *Goes) Names() []string {
	names := make([]string, 0, len(g.ByName))
	for k, v := range g.ByName {
		if !cmd.WhatKind(v).IsHidden() {
			names = append(names, k)
		}
	}
	sort.Strings(names)
	return names
}

// Main runs the args[0] command. If args[0] is the path of this program
// it's dropped unless its base name is also a command, so the binary may be
// linked by command name.
//
// Similar to goes, "COMMAND -help" and others are swapped to run the helper.
//
// Daemons run in the foreground with a pidfile; SIGTERM and SIGINT call the
// daemon's Close to stop its Main.
func (g *Goes) Main(args ...string) error {
	if len(args) > 0 {
		base := filepath.Base(args[0])
		if _, found := g.ByName[base]; found {
			args[0] = base
		} else if base == g.NAME {
			args = args[1:]
		}
	}
	if len(args) == 0 {
		return g.usage()
	}
	cmd.Swap(args)
	name, args := args[0], args[1:]
	switch name {
	case "apropos":
		return g.apropos(args...)
	case "help":
		return g.help(args...)
	case "man":
		return g.man(args...)
	case "usage":
		return g.usage(args...)
	}
	v := g.ByName[name]
	if v == nil {
		return fmt.Errorf("%s: command not found", name)
	}
	if cmd.WhatKind(v).IsDaemon() {
		return g.daemon(v, args...)
	}
	return v.Main(args...)
}

func (g *Goes) daemon(v cmd.Cmd, args ...string) error {
	if fn, err := pidfile.New(v.String()); err != nil {
		log.Print("daemon", "warn", v, ": ", err)
	} else {
		defer os.Remove(fn)
	}
	sigch := make(chan os.Signal, 1)
	signal.Notify(sigch, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigch)
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case sig := <-sigch:
			log.Print("daemon", "info", v, ": ", sig)
			if method, found := v.(io.Closer); found {
				method.Close()
			}
		case <-done:
		}
	}()
	err := v.Main(args...)
	if err != nil {
		log.Print("daemon", "err", v, ": ", err)
	}
	return err
}

func (g *Goes) stdout() io.Writer {
	if g.Stdout != nil {
		return g.Stdout
	}
	return os.Stdout
}
