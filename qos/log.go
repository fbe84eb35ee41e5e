// Copyright © 2017-2018 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package qos

import "github.com/platinasystems/log"

// Up to two leading strings select the syslog priority and facility, e.g.
//
//	Log("daemon", "err", ...)
//
// Tests may replace these.
var (
	Log  = log.Print
	Logf = log.Printf
)
