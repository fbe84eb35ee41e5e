// Copyright 2015-2016 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by a BSD-style license described in the
// LICENSE file.

package pidfile

import (
	"os"
	"path/filepath"
	"testing"
)

func TestPidfile(t *testing.T) {
	defer func(s string) { Dir = s }(Dir)
	Dir = filepath.Join(t.TempDir(), "run", "pids")

	fn, err := New("qosd")
	if err != nil {
		t.Fatal(err)
	}
	if fn != filepath.Join(Dir, "qosd") {
		t.Error(fn)
	}
	if Path(fn) != fn {
		t.Error("path of path", Path(fn))
	}
	pid, err := Read("qosd")
	if err != nil {
		t.Fatal(err)
	}
	if pid != os.Getpid() {
		t.Error("pid", pid)
	}
	if _, err = Read("nope"); !os.IsNotExist(err) {
		t.Error(err)
	}
}
