// Copyright © 2017-2018 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package qos

import "time"

// Port is a mapped register window. Offsets are bytes from the window base.
type Port interface {
	Read32(off uint32) uint32
	Write32(off uint32, v uint32)
	Read64(off uint32) uint64
	Write64(off uint32, v uint64)
	Close() error
}

// Mapper maps a physical register window.
type Mapper interface {
	Map(base uintptr, size uint32) (Port, error)
}

// Delayer distinguishes a microsecond busy wait from a longer, ranged sleep.
type Delayer interface {
	Udelay(d time.Duration)
	Sleep(min, max time.Duration)
}

type systemDelay struct{}

// SystemDelay spins for Udelay and sleeps for at least min in Sleep.
var SystemDelay Delayer = systemDelay{}

func (systemDelay) Udelay(d time.Duration) {
	for t0 := time.Now(); time.Since(t0) < d; {
	}
}

func (systemDelay) Sleep(min, max time.Duration) {
	time.Sleep(min)
}
