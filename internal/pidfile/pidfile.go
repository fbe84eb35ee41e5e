// Copyright 2015-2016 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by a BSD-style license described in the
// LICENSE file.

// Package pidfile records daemon pids in /run/goes/pids
package pidfile

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

var Dir = "/run/goes/pids"

// New writes the current pid to Dir/name and returns the file name.
func New(name string) (string, error) {
	if err := os.MkdirAll(Dir, 0755); err != nil {
		return "", err
	}
	fn := Path(name)
	err := os.WriteFile(fn, []byte(fmt.Sprintln(os.Getpid())), 0644)
	if err != nil {
		return "", err
	}
	return fn, nil
}

// Path returns Dir + "/" + name if name isn't already prefaced by Dir
func Path(name string) string {
	if strings.HasPrefix(name, Dir) {
		return name
	}
	return filepath.Join(Dir, name)
}

// Read returns the pid recorded for name.
func Read(name string) (int, error) {
	b, err := os.ReadFile(Path(name))
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(b)))
}
